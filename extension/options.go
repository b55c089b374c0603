package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/promptledger"
	"github.com/xraph/promptledger/plugin"
	"github.com/xraph/promptledger/store"
)

// Option configures the PromptLedger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store around db. The backend is chosen by
// Config.StoreDriver.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
	}
}

// WithLedgerOption passes a promptledger.Option through to the underlying engine.
func WithLedgerOption(opt promptledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, promptledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithProgramID sets the base58 program identity.
func WithProgramID(id string) Option {
	return func(e *Extension) { e.config.ProgramID = id }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for ledger routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithEventBatchSize sets the number of journal events to buffer before flushing.
func WithEventBatchSize(size int) Option {
	return func(e *Extension) { e.config.EventBatchSize = size }
}

// WithEventFlushInterval sets how frequently the journal buffer is flushed.
func WithEventFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.EventFlushInterval = d }
}

// WithJournalRetention sets how long journaled interactions are kept.
func WithJournalRetention(d time.Duration) Option {
	return func(e *Extension) { e.config.JournalRetention = d }
}

// WithRequireSignatures makes the engine accept signed transactions only.
func WithRequireSignatures() Option {
	return func(e *Extension) { e.config.RequireSignatures = true }
}

// WithStoreDriver selects the grove backend: "postgres", "sqlite" or "mongo".
func WithStoreDriver(driver string) Option {
	return func(e *Extension) { e.config.StoreDriver = driver }
}
