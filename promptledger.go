package promptledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"sync"
	"time"

	"github.com/xraph/promptledger/account"
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/id"
	"github.com/xraph/promptledger/interaction"
	"github.com/xraph/promptledger/plugin"
	"github.com/xraph/promptledger/program"
	"github.com/xraph/promptledger/record"
	"github.com/xraph/promptledger/runtime"
	"github.com/xraph/promptledger/store"
	"github.com/xraph/promptledger/types"
)

// Ledger is the interaction ledger engine.
type Ledger struct {
	store   store.Store
	program *program.Program
	runtime *runtime.Runtime
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   runtime.Clock

	requireSignatures bool
	skipMigrate       bool
	journalRetention  time.Duration

	// Background workers
	journal  chan *interaction.Event
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Configuration
	eventBatchSize     int
	eventFlushInterval time.Duration
}

// New creates a new Ledger bound to programID.
func New(s store.Store, programID address.PublicKey, opts ...Option) (*Ledger, error) {
	deriver, err := address.NewDeriver(programID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingProgramID, err)
	}

	l := &Ledger{
		store:              s,
		program:            program.New(deriver),
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		journal:            make(chan *interaction.Event, 10000),
		stopChan:           make(chan struct{}),
		eventBatchSize:     100,
		eventFlushInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.clock == nil {
		l.clock = runtime.NewTickClock(time.Now(), runtime.DefaultSlotDuration)
	}
	l.runtime = runtime.New(s, l.program,
		runtime.WithClock(l.clock),
		runtime.WithLogger(l.logger),
	)

	return l, nil
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithEventConfig configures the interaction journal.
func WithEventConfig(batchSize int, flushInterval time.Duration) Option {
	return func(l *Ledger) {
		if batchSize > 0 {
			l.eventBatchSize = batchSize
		}
		if flushInterval > 0 {
			l.eventFlushInterval = flushInterval
		}
	}
}

// WithClock sets the slot source.
func WithClock(c runtime.Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithSignatureVerification makes the trusted InitializeUser and
// LogInteraction entry points refuse to run; only signed transactions
// passed to Submit are accepted.
func WithSignatureVerification(require bool) Option {
	return func(l *Ledger) {
		l.requireSignatures = require
	}
}

// WithJournalRetention makes the journal worker purge interaction events
// older than d on every flush tick. Zero keeps events forever.
func WithJournalRetention(d time.Duration) Option {
	return func(l *Ledger) {
		l.journalRetention = d
	}
}

// WithoutMigrate makes Start check store connectivity instead of running
// migrations.
func WithoutMigrate() Option {
	return func(l *Ledger) {
		l.skipMigrate = true
	}
}

// Start migrates the store and begins background workers.
func (l *Ledger) Start(ctx context.Context) error {
	if l.skipMigrate {
		if err := l.store.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrStoreNotReady, err)
		}
	} else if err := l.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	l.plugins.EmitInit(ctx, l)

	l.wg.Add(1)
	go l.journalFlushWorker(context.WithoutCancel(ctx))

	treasury, _ := l.TreasuryAddress()
	l.logger.Info("promptledger started",
		"program_id", l.program.ID().String(),
		"treasury", treasury.String(),
		"batch_size", l.eventBatchSize,
		"flush_interval", l.eventFlushInterval,
	)

	return nil
}

// Stop flushes the journal and shuts down the Ledger.
func (l *Ledger) Stop() error {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()

	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// ProgramID returns the program identity.
func (l *Ledger) ProgramID() address.PublicKey { return l.program.ID() }

// Runtime returns the host runtime.
func (l *Ledger) Runtime() *runtime.Runtime { return l.runtime }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// UserAddress returns the derived record address and bump for owner.
func (l *Ledger) UserAddress(owner address.PublicKey) (address.PublicKey, uint8) {
	return l.program.Deriver().UserAddress(owner)
}

// TreasuryAddress returns the derived treasury address and bump.
func (l *Ledger) TreasuryAddress() (address.PublicKey, uint8) {
	return l.program.Deriver().TreasuryAddress()
}

// ──────────────────────────────────────────────────
// Transitions
// ──────────────────────────────────────────────────

// InitializeUser creates authority's ledger record, trusting authority as signer.
func (l *Ledger) InitializeUser(ctx context.Context, authority address.PublicKey) (*runtime.Receipt, error) {
	if l.requireSignatures {
		return nil, ErrSignatureRequired
	}

	ix := l.BuildInitializeUser(authority)
	receipt, err := l.runtime.Process(ctx, ix)
	if err != nil {
		l.failed(ctx, program.KindInitializeUser, authority, err)
		return nil, err
	}

	l.afterInitializeUser(ctx, authority, receipt)
	return receipt, nil
}

// LogInteraction records one interaction for authority and moves the fee
// into the treasury, trusting authority as signer.
func (l *Ledger) LogInteraction(ctx context.Context, authority address.PublicKey, args program.LogInteractionArgs) (*runtime.Receipt, error) {
	if l.requireSignatures {
		return nil, ErrSignatureRequired
	}

	ix := l.BuildLogInteraction(authority, args)
	receipt, err := l.runtime.Process(ctx, ix)
	if err != nil {
		l.failed(ctx, program.KindLogInteraction, authority, err)
		return nil, err
	}

	l.afterLogInteraction(ctx, authority, args, receipt)
	return receipt, nil
}

// Submit verifies and executes a signed transaction.
func (l *Ledger) Submit(ctx context.Context, tx *runtime.Transaction) (*runtime.Receipt, error) {
	kind, args, decodeErr := program.Decode(tx.Instruction.Data)

	var signer address.PublicKey
	if signers := tx.Instruction.Signers(); len(signers) > 0 {
		signer = signers[0]
	}

	receipt, err := l.runtime.Execute(ctx, tx)
	if err != nil {
		l.failed(ctx, kind, signer, err)
		return nil, err
	}
	if decodeErr != nil {
		return receipt, nil
	}

	switch kind {
	case program.KindInitializeUser:
		l.afterInitializeUser(ctx, signer, receipt)
	case program.KindLogInteraction:
		l.afterLogInteraction(ctx, signer, args, receipt)
	}
	return receipt, nil
}

// BuildInitializeUser returns an unsigned InitializeUser instruction.
func (l *Ledger) BuildInitializeUser(authority address.PublicKey) runtime.Instruction {
	return runtime.NewInitializeUser(l.program, authority)
}

// BuildLogInteraction returns an unsigned LogInteraction instruction.
func (l *Ledger) BuildLogInteraction(authority address.PublicKey, args program.LogInteractionArgs) runtime.Instruction {
	return runtime.NewLogInteraction(l.program, authority, args)
}

func (l *Ledger) afterInitializeUser(ctx context.Context, authority address.PublicKey, receipt *runtime.Receipt) {
	rec, addr, err := l.committedRecord(authority, receipt)
	if err != nil {
		l.logger.Warn("committed user record unavailable", "authority", authority.String(), "error", err)
		return
	}

	l.logger.Debug("user initialized",
		"authority", authority.String(),
		"record", addr.String(),
		"bump", rec.Bump,
	)
	l.plugins.EmitUserInitialized(ctx, addr, rec)
}

func (l *Ledger) afterLogInteraction(ctx context.Context, authority address.PublicKey, args program.LogInteractionArgs, receipt *runtime.Receipt) {
	rec, addr, err := l.committedRecord(authority, receipt)
	if err != nil {
		l.logger.Warn("committed user record unavailable", "authority", authority.String(), "error", err)
		return
	}

	evt := &interaction.Event{
		ID:           id.NewInteractionID(),
		Authority:    authority,
		Record:       addr,
		PromptHash:   args.PromptHash,
		ResponseHash: args.ResponseHash,
		Fee:          types.Lamports(args.Fee),
		Slot:         receipt.Slot,
		TotalQueries: rec.TotalQueries,
		Signature:    receipt.Signature,
		Timestamp:    time.Now().UTC(),
	}

	if err := l.enqueue(evt); err != nil {
		l.logger.Warn("interaction not journaled",
			"interaction_id", evt.ID.String(),
			"error", err,
		)
	}

	l.logger.Debug("interaction logged",
		"authority", authority.String(),
		"fee", args.Fee,
		"slot", receipt.Slot,
		"total_queries", rec.TotalQueries,
	)
	l.plugins.EmitInteractionLogged(ctx, evt)
}

// committedRecord decodes authority's record as receipt's instruction wrote
// it. Later commits never leak into it.
func (l *Ledger) committedRecord(authority address.PublicKey, receipt *runtime.Receipt) (record.UserLedger, address.PublicKey, error) {
	addr, _ := l.UserAddress(authority)
	acct, ok := receipt.Account(addr)
	if !ok {
		return record.UserLedger{}, addr, fmt.Errorf("%w: %s not written by instruction", ErrUserNotFound, addr)
	}
	rec, err := record.Load(accountView{acct}, l.program.ID())
	if err != nil {
		return record.UserLedger{}, addr, err
	}
	return rec, addr, nil
}

func (l *Ledger) failed(ctx context.Context, kind program.Kind, signer address.PublicKey, err error) {
	l.logger.Debug("transition rejected",
		"kind", kind.String(),
		"signer", signer.String(),
		"error", err,
	)
	l.plugins.EmitTransitionFailed(ctx, kind.String(), signer, err)
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// UserEntry is a decoded user record with its address.
type UserEntry struct {
	Address address.PublicKey `json:"address"`
	Record  record.UserLedger `json:"record"`
}

// Stats aggregates the ledger.
type Stats struct {
	TotalUsers         int            `json:"total_users"`
	TotalQueries       uint64         `json:"total_queries"`
	TotalFeesCollected types.Lamports `json:"total_fees_collected"`
	TreasuryBalance    types.Lamports `json:"treasury_balance"`
}

// UserRecord returns owner's ledger record and its address.
func (l *Ledger) UserRecord(ctx context.Context, owner address.PublicKey) (record.UserLedger, address.PublicKey, error) {
	addr, _ := l.UserAddress(owner)

	acct, err := l.store.GetAccount(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return record.UserLedger{}, addr, fmt.Errorf("%w: %s", ErrUserNotFound, owner)
		}
		return record.UserLedger{}, addr, err
	}

	rec, err := record.Load(accountView{acct}, l.program.ID())
	if err != nil {
		if errors.Is(err, record.ErrNotInitialized) || errors.Is(err, record.ErrOwnerMismatch) {
			return record.UserLedger{}, addr, fmt.Errorf("%w: %s", ErrUserNotFound, owner)
		}
		if errors.Is(err, record.ErrDiscriminatorMismatch) || errors.Is(err, record.ErrInvalidLength) {
			return record.UserLedger{}, addr, fmt.Errorf("%w: %s: %w", ErrNotUserRecord, addr, err)
		}
		return record.UserLedger{}, addr, err
	}
	return rec, addr, nil
}

// ListUserRecords returns the user records owned by the program, ordered by address.
func (l *Ledger) ListUserRecords(ctx context.Context, opts account.ListOpts) ([]UserEntry, error) {
	opts.DataSize = record.Size

	accts, err := l.store.ListAccountsByOwner(ctx, l.program.ID(), opts)
	if err != nil {
		return nil, err
	}

	entries := make([]UserEntry, 0, len(accts))
	for _, a := range accts {
		rec, err := record.Unmarshal(a.Data)
		if err != nil {
			l.logger.Warn("skipping undecodable account", "address", a.Address.String(), "error", err)
			continue
		}
		entries = append(entries, UserEntry{Address: a.Address, Record: rec})
	}
	return entries, nil
}

// Balance returns the lamports held at addr. Unknown addresses hold zero.
func (l *Ledger) Balance(ctx context.Context, addr address.PublicKey) (types.Lamports, error) {
	acct, err := l.store.GetAccount(ctx, addr)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return acct.Lamports, nil
}

// TreasuryBalance returns the lamports held by the treasury.
func (l *Ledger) TreasuryBalance(ctx context.Context) (types.Lamports, error) {
	treasury, _ := l.TreasuryAddress()
	return l.Balance(ctx, treasury)
}

// Stats aggregates every user record and the treasury balance.
func (l *Ledger) Stats(ctx context.Context) (*Stats, error) {
	const page = 500

	stats := &Stats{}
	var fees types.Lamports
	for offset := 0; ; offset += page {
		entries, err := l.ListUserRecords(ctx, account.ListOpts{Limit: page, Offset: offset})
		if err != nil {
			return nil, err
		}

		for _, e := range entries {
			stats.TotalUsers++
			var carry uint64
			if stats.TotalQueries, carry = bits.Add64(stats.TotalQueries, e.Record.TotalQueries, 0); carry != 0 {
				return nil, fmt.Errorf("%w: total queries", types.ErrOverflow)
			}
			if fees, err = fees.CheckedAdd(types.Lamports(e.Record.TotalFeesPaid)); err != nil {
				return nil, err
			}
		}
		if len(entries) < page {
			break
		}
	}
	stats.TotalFeesCollected = fees

	balance, err := l.TreasuryBalance(ctx)
	if err != nil {
		return nil, err
	}
	stats.TreasuryBalance = balance

	return stats, nil
}

// Interactions returns journaled interactions for authority, newest first.
func (l *Ledger) Interactions(ctx context.Context, authority address.PublicKey, opts interaction.QueryOpts) ([]*interaction.Event, error) {
	return l.store.ListInteractions(ctx, authority, opts)
}

// Airdrop credits lamports to addr from outside the ledger and returns the
// new balance.
func (l *Ledger) Airdrop(ctx context.Context, addr address.PublicKey, lamports types.Lamports) (types.Lamports, error) {
	balance, err := l.runtime.Airdrop(ctx, addr, lamports)
	if err != nil {
		return 0, err
	}

	l.logger.Debug("airdrop", "address", addr.String(), "lamports", uint64(lamports), "balance", uint64(balance))
	l.plugins.EmitFundsAirdropped(ctx, addr, lamports, balance)
	return balance, nil
}

// accountView adapts a stored account to record.Source.
type accountView struct {
	acct *account.Account
}

func (v accountView) Owner() address.PublicKey { return v.acct.Owner }
func (v accountView) Data() []byte             { return v.acct.Data }
