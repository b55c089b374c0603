// Package extension provides the Forge extension adapter for PromptLedger.
//
// It implements the forge.Extension interface to integrate the ledger
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.promptledger" or
// "promptledger" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/promptledger"
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/api"
	"github.com/xraph/promptledger/store"
	"github.com/xraph/promptledger/store/memory"
	"github.com/xraph/promptledger/store/mongo"
	"github.com/xraph/promptledger/store/postgres"
	"github.com/xraph/promptledger/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "promptledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Per-user prompt interaction ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts PromptLedger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *promptledger.Ledger
	store      store.Store
	groveDB    *grove.DB
	handler    http.Handler
	ledgerOpts []promptledger.Option
}

// New creates a new PromptLedger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying ledger.
// This is nil until Register is called.
func (e *Extension) Engine() *promptledger.Ledger { return e.engine }

// Handler returns the HTTP routes mounted under Config.BasePath, or nil
// when routes are disabled.
func (e *Extension) Handler() http.Handler { return e.handler }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.config.Validate(); err != nil {
		return err
	}

	programID, err := e.programID()
	if err != nil {
		return err
	}

	if e.store == nil {
		s, err := e.buildStore()
		if err != nil {
			return err
		}
		e.store = s
	}

	eng, err := promptledger.New(e.store, programID, e.buildLedgerOpts()...)
	if err != nil {
		return err
	}
	e.engine = eng

	if !e.config.DisableRoutes {
		e.handler = api.New(eng).Router(e.config.BasePath)
	}

	return vessel.Provide(fapp.Container(), func() (*promptledger.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("promptledger: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("promptledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

func (e *Extension) programID() (address.PublicKey, error) {
	if e.config.ProgramID == "" {
		return address.PublicKey{}, promptledger.ErrMissingProgramID
	}
	id, err := address.Parse(e.config.ProgramID)
	if err != nil {
		return address.PublicKey{}, promptledger.ValidationError{Field: "program_id", Message: err.Error()}
	}
	return id, nil
}

// buildStore picks the backend: a grove store when a grove.DB was supplied,
// the in-memory store otherwise.
func (e *Extension) buildStore() (store.Store, error) {
	if e.groveDB == nil {
		return memory.New(), nil
	}

	switch e.config.StoreDriver {
	case "postgres", "pg":
		return postgres.New(e.groveDB), nil
	case "sqlite", "sqlite3":
		return sqlite.New(e.groveDB), nil
	case "mongo", "mongodb":
		return mongo.New(e.groveDB), nil
	default:
		return nil, promptledger.ValidationError{
			Field:   "store_driver",
			Message: fmt.Sprintf("unsupported driver %q", e.config.StoreDriver),
		}
	}
}

// buildLedgerOpts constructs promptledger.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []promptledger.Option {
	opts := make([]promptledger.Option, 0, len(e.ledgerOpts)+4)

	opts = append(opts,
		promptledger.WithEventConfig(e.config.EventBatchSize, e.config.EventFlushInterval),
		promptledger.WithSignatureVerification(e.config.RequireSignatures),
	)
	if e.config.DisableMigrate {
		opts = append(opts, promptledger.WithoutMigrate())
	}
	if e.config.JournalRetention > 0 {
		opts = append(opts, promptledger.WithJournalRetention(e.config.JournalRetention))
	}

	// Pass-through options win over config-derived ones.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("promptledger: configuration is required but not found in config files; " +
				"ensure 'extensions.promptledger' or 'promptledger' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("promptledger: configuration loaded",
		forge.F("program_id", e.config.ProgramID),
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("event_batch_size", e.config.EventBatchSize),
		forge.F("event_flush_interval", e.config.EventFlushInterval),
		forge.F("journal_retention", e.config.JournalRetention),
		forge.F("require_signatures", e.config.RequireSignatures),
		forge.F("store_driver", e.config.StoreDriver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.promptledger", "promptledger"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("promptledger: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("promptledger: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.EventBatchSize == 0 {
		cfg.EventBatchSize = defaults.EventBatchSize
	}
	if cfg.EventFlushInterval == 0 {
		cfg.EventFlushInterval = defaults.EventFlushInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.RequireSignatures {
		yamlConfig.RequireSignatures = true
	}

	if yamlConfig.ProgramID == "" {
		yamlConfig.ProgramID = programmaticConfig.ProgramID
	}
	if yamlConfig.BasePath == "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.StoreDriver == "" {
		yamlConfig.StoreDriver = programmaticConfig.StoreDriver
	}

	if yamlConfig.EventBatchSize == 0 {
		yamlConfig.EventBatchSize = programmaticConfig.EventBatchSize
	}
	if yamlConfig.EventFlushInterval == 0 {
		yamlConfig.EventFlushInterval = programmaticConfig.EventFlushInterval
	}
	if yamlConfig.JournalRetention == 0 {
		yamlConfig.JournalRetention = programmaticConfig.JournalRetention
	}

	return mergeWithDefaults(yamlConfig)
}
