package extension

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/promptledger"
	"github.com/xraph/promptledger/store/memory"
)

func TestMergeWithDefaults(t *testing.T) {
	got := mergeWithDefaults(Config{EventBatchSize: 7})
	if got.EventBatchSize != 7 {
		t.Errorf("EventBatchSize = %d, want 7", got.EventBatchSize)
	}
	if got.EventFlushInterval != 5*time.Second {
		t.Errorf("EventFlushInterval = %v, want 5s", got.EventFlushInterval)
	}
	if got.BasePath != "/promptledger" {
		t.Errorf("BasePath = %q", got.BasePath)
	}
}

func TestMergeConfigurations(t *testing.T) {
	yamlCfg := Config{
		ProgramID:      "8pMVJamgnZKWmYJQQ8gvPaT7UFVg5BAr3Rg5HY8epYyh",
		BasePath:       "/ledger",
		EventBatchSize: 50,
	}
	programmatic := Config{
		ProgramID:          "11111111111111111111111111111111",
		BasePath:           "/ignored",
		DisableRoutes:      true,
		RequireSignatures:  true,
		EventFlushInterval: time.Second,
		StoreDriver:        "sqlite",
	}

	got := mergeConfigurations(yamlCfg, programmatic)

	if got.ProgramID != yamlCfg.ProgramID {
		t.Errorf("ProgramID = %q, want the file value", got.ProgramID)
	}
	if got.BasePath != "/ledger" {
		t.Errorf("BasePath = %q, want /ledger", got.BasePath)
	}
	if !got.DisableRoutes || !got.RequireSignatures {
		t.Error("programmatic flags were not carried over")
	}
	if got.EventBatchSize != 50 || got.EventFlushInterval != time.Second {
		t.Errorf("event config = %d/%v", got.EventBatchSize, got.EventFlushInterval)
	}
	if got.StoreDriver != "sqlite" {
		t.Errorf("StoreDriver = %q", got.StoreDriver)
	}
}

func TestProgramID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
		check   func(error) bool
	}{
		{"valid", "8pMVJamgnZKWmYJQQ8gvPaT7UFVg5BAr3Rg5HY8epYyh", false, nil},
		{"missing", "", true, func(err error) bool { return errors.Is(err, promptledger.ErrMissingProgramID) }},
		{"malformed", "0OIl", true, func(err error) bool {
			var ve promptledger.ValidationError
			return errors.As(err, &ve) && ve.Field == "program_id"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(WithProgramID(tt.id))
			id, err := e.programID()
			if (err != nil) != tt.wantErr {
				t.Fatalf("programID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
			if !tt.wantErr && id.String() != tt.id {
				t.Errorf("programID() = %s", id)
			}
		})
	}
}

func TestBuildStore(t *testing.T) {
	e := New()
	s, err := e.buildStore()
	if err != nil {
		t.Fatalf("buildStore: %v", err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Errorf("store = %T, want *memory.Store", s)
	}

	e = New(WithGroveDB(new(grove.DB)), WithStoreDriver("oracle"))
	if _, err := e.buildStore(); err == nil {
		t.Error("expected unsupported driver error")
	}
}

func TestBuildLedgerOpts(t *testing.T) {
	e := New(WithDisableMigrate(), WithLedgerOption(promptledger.WithSignatureVerification(false)))
	e.config = mergeWithDefaults(e.config)

	// event config, signature flag, migrate flag, pass-through
	if got := len(e.buildLedgerOpts()); got != 4 {
		t.Errorf("len(buildLedgerOpts()) = %d, want 4", got)
	}
}

func TestBuildLedgerOptsRetention(t *testing.T) {
	e := New(WithJournalRetention(24 * time.Hour))
	e.config = mergeWithDefaults(e.config)

	// event config, signature flag, retention
	if got := len(e.buildLedgerOpts()); got != 3 {
		t.Errorf("len(buildLedgerOpts()) = %d, want 3", got)
	}
}

func TestConfigValidate(t *testing.T) {
	const pid = "8pMVJamgnZKWmYJQQ8gvPaT7UFVg5BAr3Rg5HY8epYyh"

	tests := []struct {
		name       string
		cfg        Config
		wantCount  int
		wantFields []string
		wantIs     error
	}{
		{
			name: "valid",
			cfg:  Config{ProgramID: pid, BasePath: "/ledger", StoreDriver: "sqlite"},
		},
		{
			name:      "missing program id",
			cfg:       Config{BasePath: "/ledger"},
			wantCount: 1,
			wantIs:    promptledger.ErrMissingProgramID,
		},
		{
			name: "every field wrong",
			cfg: Config{
				ProgramID:          "0OIl",
				BasePath:           "ledger",
				EventBatchSize:     -1,
				EventFlushInterval: -time.Second,
				JournalRetention:   -time.Hour,
				StoreDriver:        "redis",
			},
			wantCount: 6,
			wantFields: []string{
				"program_id", "base_path", "event_batch_size",
				"event_flush_interval", "journal_retention", "store_driver",
			},
			wantIs: promptledger.ErrInvalidInput,
		},
		{
			name:       "missing id and bad driver",
			cfg:        Config{StoreDriver: "redis"},
			wantCount:  2,
			wantFields: []string{"store_driver"},
			wantIs:     promptledger.ErrMissingProgramID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantCount == 0 {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}

			var me promptledger.MultiError
			if !errors.As(err, &me) {
				t.Fatalf("error = %T, want MultiError", err)
			}
			if len(me.Errors) != tt.wantCount {
				t.Fatalf("len(Errors) = %d, want %d: %v", len(me.Errors), tt.wantCount, err)
			}
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.wantIs)
			}

			fields := map[string]bool{}
			for _, e := range me.Errors {
				var ve promptledger.ValidationError
				if errors.As(e, &ve) {
					fields[ve.Field] = true
				}
			}
			for _, f := range tt.wantFields {
				if !fields[f] {
					t.Errorf("no ValidationError for %q in %v", f, err)
				}
			}
		})
	}
}
