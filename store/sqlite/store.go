package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/promptledger"
	"github.com/xraph/promptledger/account"
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/interaction"
	ledgerstore "github.com/xraph/promptledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("promptledger/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("promptledger/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, addr address.PublicKey) (*account.Account, error) {
	m := new(accountModel)
	err := s.sdb.NewSelect(m).
		Where("address = ?", addr.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, promptledger.ErrAccountNotFound
		}
		return nil, err
	}
	return fromAccountModel(m)
}

func (s *Store) GetAccounts(ctx context.Context, addrs []address.PublicKey) ([]*account.Account, error) {
	if len(addrs) == 0 {
		return nil, nil
	}

	keys := make([]any, len(addrs))
	for i, a := range addrs {
		keys[i] = a.String()
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")

	var models []accountModel
	if err := s.sdb.NewSelect(&models).
		Where("address IN ("+placeholders+")", keys...).
		Scan(ctx); err != nil {
		return nil, err
	}
	return fromAccountModels(models)
}

func (s *Store) ListAccountsByOwner(ctx context.Context, owner address.PublicKey, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel
	q := s.sdb.NewSelect(&models).Where("owner = ?", owner.String())

	if opts.DataSize > 0 {
		q = q.Where("data_size = ?", opts.DataSize)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("address ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return fromAccountModels(models)
}

// CommitAccounts writes every account in one multi-row upsert, so the
// working set lands atomically. created_at survives updates.
func (s *Store) CommitAccounts(ctx context.Context, accts []*account.Account) error {
	if len(accts) == 0 {
		return nil
	}

	t := now()
	models := make([]accountModel, len(accts))
	for i, a := range accts {
		models[i] = toAccountModel(a)
		models[i].CreatedAt = t
		models[i].UpdatedAt = t
	}

	_, err := s.sdb.NewInsert(&models).
		OnConflict("(address) DO UPDATE").
		Set("owner = EXCLUDED.owner").
		Set("lamports = EXCLUDED.lamports").
		Set("data = EXCLUDED.data").
		Set("data_size = EXCLUDED.data_size").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", promptledger.ErrTransactionFailed, err)
	}
	return nil
}

// ==================== Interaction Store ====================

func (s *Store) AppendInteractions(ctx context.Context, events []*interaction.Event) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]interactionModel, len(events))
	for i, e := range events {
		models[i] = toInteractionModel(e)
	}
	_, err := s.sdb.NewInsert(&models).Exec(ctx)
	return err
}

func (s *Store) ListInteractions(ctx context.Context, authority address.PublicKey, opts interaction.QueryOpts) ([]*interaction.Event, error) {
	var models []interactionModel
	q := s.sdb.NewSelect(&models).Where("authority = ?", authority.String())

	if !opts.Start.IsZero() {
		q = q.Where("timestamp >= ?", opts.Start)
	}
	if !opts.End.IsZero() {
		q = q.Where("timestamp < ?", opts.End)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("timestamp DESC, id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*interaction.Event, len(models))
	for i := range models {
		evt, err := fromInteractionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = evt
	}
	return result, nil
}

func (s *Store) PurgeInteractions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*interactionModel)(nil)).
		Where("timestamp < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Helpers ====================

func fromAccountModels(models []accountModel) ([]*account.Account, error) {
	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := fromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
