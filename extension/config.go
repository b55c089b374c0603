package extension

import (
	"fmt"
	"strings"
	"time"

	"github.com/xraph/promptledger"
	"github.com/xraph/promptledger/address"
)

// Config holds the PromptLedger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.promptledger" or "promptledger" keys).
type Config struct {
	// ProgramID is the base58 program identity every address derives from.
	ProgramID string `json:"program_id" mapstructure:"program_id" yaml:"program_id"`

	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for ledger routes (default: "/promptledger").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// EventBatchSize is the number of journal events to buffer before
	// flushing to the store (default: 100).
	EventBatchSize int `json:"event_batch_size" mapstructure:"event_batch_size" yaml:"event_batch_size"`

	// EventFlushInterval is how frequently the journal buffer is flushed
	// even if the batch size has not been reached (default: 5s).
	EventFlushInterval time.Duration `json:"event_flush_interval" mapstructure:"event_flush_interval" yaml:"event_flush_interval"`

	// JournalRetention drops journaled interactions older than this on every
	// flush tick. Zero keeps them forever.
	JournalRetention time.Duration `json:"journal_retention" mapstructure:"journal_retention" yaml:"journal_retention"`

	// RequireSignatures rejects the trusted in-process transitions; every
	// write must arrive as a signed transaction.
	RequireSignatures bool `json:"require_signatures" mapstructure:"require_signatures" yaml:"require_signatures"`

	// StoreDriver selects the backend built around a grove.DB supplied with
	// WithGroveDB: "postgres", "sqlite" or "mongo".
	StoreDriver string `json:"store_driver" mapstructure:"store_driver" yaml:"store_driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:           "/promptledger",
		EventBatchSize:     100,
		EventFlushInterval: 5 * time.Second,
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs promptledger.MultiError

	if c.ProgramID == "" {
		errs.Add(promptledger.ErrMissingProgramID)
	} else if _, err := address.Parse(c.ProgramID); err != nil {
		errs.Add(promptledger.ValidationError{Field: "program_id", Message: err.Error()})
	}

	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		errs.Add(promptledger.ValidationError{Field: "base_path", Message: "must start with /"})
	}
	if c.EventBatchSize < 0 {
		errs.Add(promptledger.ValidationError{Field: "event_batch_size", Message: "must not be negative"})
	}
	if c.EventFlushInterval < 0 {
		errs.Add(promptledger.ValidationError{Field: "event_flush_interval", Message: "must not be negative"})
	}
	if c.JournalRetention < 0 {
		errs.Add(promptledger.ValidationError{Field: "journal_retention", Message: "must not be negative"})
	}

	switch c.StoreDriver {
	case "", "postgres", "pg", "sqlite", "sqlite3", "mongo", "mongodb":
	default:
		errs.Add(promptledger.ValidationError{
			Field:   "store_driver",
			Message: fmt.Sprintf("unsupported driver %q", c.StoreDriver),
		})
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
