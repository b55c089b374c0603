package api

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/xraph/promptledger"
	"github.com/xraph/promptledger/account"
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/record"
	"github.com/xraph/promptledger/runtime"
	"github.com/xraph/promptledger/store/memory"
)

var testProgramID = address.MustParse("8pMVJamgnZKWmYJQQ8gvPaT7UFVg5BAr3Rg5HY8epYyh")

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l, err := promptledger.New(memory.New(), testProgramID,
		promptledger.WithLogger(logger),
		promptledger.WithClock(runtime.NewManualClock(100)),
		promptledger.WithSignatureVerification(true),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return New(l, WithLogger(logger), WithFaucet(true)).Router("/")
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// signAndSubmit builds an instruction through path, signs it with priv and
// submits it.
func signAndSubmit(t *testing.T, r *gin.Engine, path string, body any, priv ed25519.PrivateKey) *httptest.ResponseRecorder {
	t.Helper()
	w := do(t, r, http.MethodPost, path, body)
	if w.Code != http.StatusOK {
		t.Fatalf("POST %s: status %d: %s", path, w.Code, w.Body.String())
	}
	var built instructionResponse
	decode(t, w, &built)

	if !bytes.Equal(built.Message, built.Instruction.Message()) {
		t.Fatalf("message does not match instruction encoding")
	}

	tx := runtime.NewTransaction(built.Instruction)
	if err := tx.Sign(priv); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return do(t, r, http.MethodPost, "/transactions", tx)
}

func TestGetProgram(t *testing.T) {
	r := setupTestRouter(t)

	w := do(t, r, http.MethodGet, "/program", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got struct {
		ProgramID    string `json:"program_id"`
		Treasury     string `json:"treasury"`
		TreasuryBump uint8  `json:"treasury_bump"`
		RecordSize   int    `json:"record_size"`
	}
	decode(t, w, &got)

	if got.ProgramID != testProgramID.String() {
		t.Errorf("program_id = %s", got.ProgramID)
	}
	if got.Treasury != "BFiBLwqdL8yS4hQCdjnU4We2D6ADZRUVk3Use8iTJCu4" || got.TreasuryBump != 249 {
		t.Errorf("treasury = %s/%d", got.Treasury, got.TreasuryBump)
	}
	if got.RecordSize != record.Size {
		t.Errorf("record_size = %d, want %d", got.RecordSize, record.Size)
	}
}

func TestGetUninitializedUser(t *testing.T) {
	r := setupTestRouter(t)

	var owner address.PublicKey
	for i := range owner {
		owner[i] = 1
	}

	w := do(t, r, http.MethodGet, "/users/"+owner.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got userResponse
	decode(t, w, &got)
	if got.Initialized || got.Record != nil {
		t.Errorf("user reported initialized: %+v", got)
	}
	if got.Address.String() != "AHNsokkZDJ6zzDCRVti13FdCLwgSTpS4qVKK3Q7GereT" || got.Bump != 249 {
		t.Errorf("address = %s/%d", got.Address, got.Bump)
	}
}

func TestBadParams(t *testing.T) {
	r := setupTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"bad authority", http.MethodGet, "/users/not-a-key", nil},
		{"bad limit", http.MethodGet, "/users?limit=-1", nil},
		{"bad start", http.MethodGet, "/users/11111111111111111111111111111111/interactions?start=yesterday", nil},
		{"bad hash", http.MethodPost, "/instructions/log-interaction", map[string]any{
			"authority":   "11111111111111111111111111111112",
			"prompt_hash": "zz",
		}},
		{"malformed transaction", http.MethodPost, "/transactions", map[string]any{"instruction": 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestOversizedPageLimit(t *testing.T) {
	r := setupTestRouter(t)

	paths := []string{
		"/users?limit=9223372036854775807&offset=1",
		"/users/11111111111111111111111111111112/interactions?limit=9223372036854775807&offset=1",
	}
	for _, path := range paths {
		w := do(t, r, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestSignedInteractionFlow(t *testing.T) {
	r := setupTestRouter(t)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	user, err := address.FromBytes(pub)
	if err != nil {
		t.Fatal(err)
	}

	w := do(t, r, http.MethodPost, "/airdrop", map[string]any{"address": user, "lamports": 1_000_000})
	if w.Code != http.StatusOK {
		t.Fatalf("airdrop status = %d: %s", w.Code, w.Body.String())
	}

	w = signAndSubmit(t, r, "/instructions/initialize-user", map[string]any{"authority": user}, priv)
	if w.Code != http.StatusOK {
		t.Fatalf("initialize status = %d: %s", w.Code, w.Body.String())
	}

	w = signAndSubmit(t, r, "/instructions/initialize-user", map[string]any{"authority": user}, priv)
	if w.Code != http.StatusBadRequest {
		t.Errorf("second initialize status = %d, want 400", w.Code)
	}

	logBody := map[string]any{
		"authority":     user,
		"prompt_hash":   record.HashText("prompt").String(),
		"response_hash": record.HashText("response").String(),
		"fee":           5000,
	}
	w = signAndSubmit(t, r, "/instructions/log-interaction", logBody, priv)
	if w.Code != http.StatusOK {
		t.Fatalf("log status = %d: %s", w.Code, w.Body.String())
	}

	logBody["fee"] = 0
	w = signAndSubmit(t, r, "/instructions/log-interaction", logBody, priv)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("zero fee status = %d, want 400", w.Code)
	}
	var failure struct {
		Code uint32 `json:"code"`
		Name string `json:"name"`
	}
	decode(t, w, &failure)
	if failure.Code != 6002 || failure.Name != "InvalidFee" {
		t.Errorf("zero fee error = %+v, want 6002 InvalidFee", failure)
	}

	w = do(t, r, http.MethodGet, "/users/"+user.String(), nil)
	var got userResponse
	decode(t, w, &got)
	if !got.Initialized || got.Record == nil {
		t.Fatalf("user not initialized: %s", w.Body.String())
	}
	if got.Record.TotalQueries != 1 || got.Record.TotalFeesPaid != 5000 || got.Record.LastLogSlot != 100 {
		t.Errorf("record = %+v", got.Record)
	}
	if got.Record.LastPromptHash != record.HashText("prompt") {
		t.Errorf("last prompt hash = %s", got.Record.LastPromptHash)
	}

	w = do(t, r, http.MethodGet, "/stats", nil)
	var stats struct {
		TotalUsers         int    `json:"total_users"`
		TotalQueries       uint64 `json:"total_queries"`
		TotalFeesCollected struct {
			Lamports uint64 `json:"lamports"`
		} `json:"total_fees_collected"`
		TreasuryBalance struct {
			Lamports uint64 `json:"lamports"`
		} `json:"treasury_balance"`
	}
	decode(t, w, &stats)
	if stats.TotalUsers != 1 || stats.TotalQueries != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalFeesCollected.Lamports != 5000 || stats.TreasuryBalance.Lamports != 5000 {
		t.Errorf("fees = %d, treasury = %d, want 5000", stats.TotalFeesCollected.Lamports, stats.TreasuryBalance.Lamports)
	}

	w = do(t, r, http.MethodGet, "/users", nil)
	var users []userResponse
	decode(t, w, &users)
	if len(users) != 1 || users[0].Record.Authority != user {
		t.Errorf("users = %s", w.Body.String())
	}
}

func TestUnsignedTransactionRejected(t *testing.T) {
	r := setupTestRouter(t)

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	user, _ := address.FromBytes(pub)

	w := do(t, r, http.MethodPost, "/instructions/initialize-user", map[string]any{"authority": user})
	var built instructionResponse
	decode(t, w, &built)

	w = do(t, r, http.MethodPost, "/transactions", runtime.NewTransaction(built.Instruction))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestGetUserForeignLayout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	l, err := promptledger.New(store, testProgramID, promptledger.WithLogger(logger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := New(l, WithLogger(logger)).Router("/")

	owner := address.MustParse("11111111111111111111111111111112")
	addr, _ := l.UserAddress(owner)
	acct := &account.Account{Address: addr, Owner: testProgramID, Lamports: 1, Data: make([]byte, record.Size)}
	if err := store.CommitAccounts(context.Background(), []*account.Account{acct}); err != nil {
		t.Fatalf("CommitAccounts: %v", err)
	}

	w := do(t, r, http.MethodGet, "/users/"+owner.String(), nil)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d: %s", w.Code, http.StatusConflict, w.Body.String())
	}
}
