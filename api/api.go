// Package api exposes a ledger engine over HTTP with gin.
//
// Reads are served straight from the engine. Writes only arrive as signed
// transactions; the instruction endpoints build unsigned instructions for
// clients that sign off-host.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xraph/promptledger"
	"github.com/xraph/promptledger/account"
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/interaction"
	"github.com/xraph/promptledger/program"
	"github.com/xraph/promptledger/record"
	"github.com/xraph/promptledger/runtime"
	"github.com/xraph/promptledger/types"
)

// MaxPageLimit bounds the page size of list endpoints.
const MaxPageLimit = 1000

// Handler serves the ledger routes.
type Handler struct {
	ledger *promptledger.Ledger
	logger *slog.Logger
	faucet bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for unexpected failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithFaucet enables POST /airdrop.
func WithFaucet(enabled bool) Option {
	return func(h *Handler) { h.faucet = enabled }
}

// New returns a Handler for l.
func New(l *promptledger.Ledger, opts ...Option) *Handler {
	h := &Handler{ledger: l, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/program", h.GetProgram)
	r.GET("/users", h.ListUsers)
	r.GET("/users/:authority", h.GetUser)
	r.GET("/users/:authority/interactions", h.ListInteractions)
	r.GET("/accounts/:address/balance", h.GetBalance)
	r.GET("/treasury", h.GetTreasury)
	r.GET("/stats", h.GetStats)
	r.POST("/transactions", h.SubmitTransaction)
	r.POST("/instructions/initialize-user", h.BuildInitializeUser)
	r.POST("/instructions/log-interaction", h.BuildLogInteraction)
	if h.faucet {
		r.POST("/airdrop", h.Airdrop)
	}
}

// Router returns a gin engine with the routes mounted under basePath.
func (h *Handler) Router(basePath string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.Register(r.Group(basePath))
	return r
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

func (h *Handler) GetProgram(c *gin.Context) {
	treasury, bump := h.ledger.TreasuryAddress()
	c.JSON(http.StatusOK, gin.H{
		"program_id":     h.ledger.ProgramID(),
		"treasury":       treasury,
		"treasury_bump":  bump,
		"record_size":    record.Size,
		"system_program": address.SystemProgramID,
	})
}

type userResponse struct {
	Address     address.PublicKey  `json:"address"`
	Initialized bool               `json:"initialized"`
	Bump        uint8              `json:"bump"`
	Record      *record.UserLedger `json:"record,omitempty"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	entries, err := h.ledger.ListUserRecords(c.Request.Context(), account.ListOpts{Limit: limit, Offset: offset})
	if err != nil {
		h.writeError(c, err)
		return
	}

	users := make([]userResponse, len(entries))
	for i := range entries {
		rec := entries[i].Record
		users[i] = userResponse{
			Address:     entries[i].Address,
			Initialized: true,
			Bump:        rec.Bump,
			Record:      &rec,
		}
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	authority, ok := keyParam(c, "authority")
	if !ok {
		return
	}

	addr, bump := h.ledger.UserAddress(authority)
	rec, _, err := h.ledger.UserRecord(c.Request.Context(), authority)
	switch {
	case errors.Is(err, promptledger.ErrUserNotFound):
		c.JSON(http.StatusOK, userResponse{Address: addr, Bump: bump})
	case err != nil:
		h.writeError(c, err)
	default:
		c.JSON(http.StatusOK, userResponse{Address: addr, Initialized: true, Bump: bump, Record: &rec})
	}
}

func (h *Handler) ListInteractions(c *gin.Context) {
	authority, ok := keyParam(c, "authority")
	if !ok {
		return
	}
	limit, offset, ok := pageParams(c)
	if !ok {
		return
	}

	opts := interaction.QueryOpts{Limit: limit, Offset: offset}
	if opts.Start, ok = timeParam(c, "start"); !ok {
		return
	}
	if opts.End, ok = timeParam(c, "end"); !ok {
		return
	}

	events, err := h.ledger.Interactions(c.Request.Context(), authority, opts)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if events == nil {
		events = []*interaction.Event{}
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) GetBalance(c *gin.Context) {
	addr, ok := keyParam(c, "address")
	if !ok {
		return
	}
	balance, err := h.ledger.Balance(c.Request.Context(), addr)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr, "lamports": balance})
}

func (h *Handler) GetTreasury(c *gin.Context) {
	addr, bump := h.ledger.TreasuryAddress()
	balance, err := h.ledger.TreasuryBalance(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr, "bump": bump, "lamports": balance})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.ledger.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ──────────────────────────────────────────────────
// Writes
// ──────────────────────────────────────────────────

func (h *Handler) SubmitTransaction(c *gin.Context) {
	var tx runtime.Transaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.ledger.Submit(c.Request.Context(), &tx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

type instructionResponse struct {
	Instruction runtime.Instruction `json:"instruction"`
	Message     []byte              `json:"message"`
}

func (h *Handler) BuildInitializeUser(c *gin.Context) {
	var input struct {
		Authority address.PublicKey `json:"authority" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ix := h.ledger.BuildInitializeUser(input.Authority)
	c.JSON(http.StatusOK, instructionResponse{Instruction: ix, Message: ix.Message()})
}

func (h *Handler) BuildLogInteraction(c *gin.Context) {
	var input struct {
		Authority    address.PublicKey `json:"authority" binding:"required"`
		PromptHash   record.Hash       `json:"prompt_hash"`
		ResponseHash record.Hash       `json:"response_hash"`
		Fee          uint64            `json:"fee"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ix := h.ledger.BuildLogInteraction(input.Authority, program.LogInteractionArgs{
		PromptHash:   input.PromptHash,
		ResponseHash: input.ResponseHash,
		Fee:          input.Fee,
	})
	c.JSON(http.StatusOK, instructionResponse{Instruction: ix, Message: ix.Message()})
}

func (h *Handler) Airdrop(c *gin.Context) {
	var input struct {
		Address  address.PublicKey `json:"address" binding:"required"`
		Lamports types.Lamports    `json:"lamports"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.ledger.Airdrop(c.Request.Context(), input.Address, input.Lamports)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": input.Address, "lamports": balance})
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// writeError maps err to a status code. Program errors carry their numeric code.
func (h *Handler) writeError(c *gin.Context, err error) {
	if perr, ok := program.AsError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": perr.Code, "name": perr.Name})
		return
	}

	switch {
	case promptledger.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, promptledger.ErrNotUserRecord):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case promptledger.IsProgramError(err),
		errors.Is(err, promptledger.ErrInvalidInput),
		errors.Is(err, runtime.ErrMissingSignature),
		errors.Is(err, runtime.ErrInvalidSignature),
		errors.Is(err, runtime.ErrUnknownProgram),
		errors.Is(err, runtime.ErrInsufficientFunds),
		errors.Is(err, runtime.ErrAccountAlreadyInUse),
		errors.Is(err, runtime.ErrInvalidAirdrop),
		errors.Is(err, types.ErrOverflow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("api: request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func keyParam(c *gin.Context, name string) (address.PublicKey, bool) {
	key, err := address.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return address.PublicKey{}, false
	}
	return key, true
}

// pageParams reads limit and offset. A missing or oversized limit becomes
// MaxPageLimit.
func pageParams(c *gin.Context) (limit, offset int, ok bool) {
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &limit}, {"offset", &offset}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + p.name})
			return 0, 0, false
		}
		*p.dst = n
	}
	if limit == 0 || limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return limit, offset, true
}

func timeParam(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return time.Time{}, false
	}
	return t, true
}
