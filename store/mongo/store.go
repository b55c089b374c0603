package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/promptledger"
	"github.com/xraph/promptledger/account"
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/interaction"
	ledgerstore "github.com/xraph/promptledger/store"
)

// Collection name constants.
const (
	colAccounts     = "promptledger_accounts"
	colInteractions = "promptledger_interactions"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// CommitAccounts runs inside a multi-document transaction, which MongoDB
// only offers on replica sets and sharded clusters.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all ledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("promptledger/mongo: migrate %s indexes: %w", col, err)
		}
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
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addr.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, promptledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("promptledger/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) GetAccounts(ctx context.Context, addrs []address.PublicKey) ([]*account.Account, error) {
	if len(addrs) == 0 {
		return nil, nil
	}

	keys := make(bson.A, len(addrs))
	for i, a := range addrs {
		keys[i] = a.String()
	}

	var models []accountModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": keys}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("promptledger/mongo: get accounts: %w", err)
	}
	return fromAccountModels(models)
}

func (s *Store) ListAccountsByOwner(ctx context.Context, owner address.PublicKey, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel

	filter := bson.M{"owner": owner.String()}
	if opts.DataSize > 0 {
		filter["data_size"] = opts.DataSize
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("promptledger/mongo: list accounts: %w", err)
	}
	return fromAccountModels(models)
}

// CommitAccounts upserts every account in one bulk write inside a session
// transaction. created_at is only set on insert.
func (s *Store) CommitAccounts(ctx context.Context, accts []*account.Account) error {
	if len(accts) == 0 {
		return nil
	}

	t := now()
	writes := make([]mongo.WriteModel, len(accts))
	for i, a := range accts {
		m := toAccountModel(a)
		writes[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": m.Address}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"owner":      m.Owner,
					"lamports":   m.Lamports,
					"data":       m.Data,
					"data_size":  m.DataSize,
					"updated_at": t,
				},
				"$setOnInsert": bson.M{"created_at": t},
			}).
			SetUpsert(true)
	}

	coll := s.mdb.Collection(colAccounts)
	sess, err := coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("%w: start session: %w", promptledger.ErrTransactionFailed, err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	})
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
	for _, e := range events {
		m := toInteractionModel(e)
		_, err := s.mdb.NewInsert(m).Exec(ctx)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: %s", promptledger.ErrDuplicateEvent, m.ID)
			}
			return fmt.Errorf("promptledger/mongo: append interaction: %w", err)
		}
	}
	return nil
}

func (s *Store) ListInteractions(ctx context.Context, authority address.PublicKey, opts interaction.QueryOpts) ([]*interaction.Event, error) {
	var models []interactionModel

	filter := bson.M{"authority": authority.String()}
	ts := bson.M{}
	if !opts.Start.IsZero() {
		ts["$gte"] = opts.Start
	}
	if !opts.End.IsZero() {
		ts["$lt"] = opts.End
	}
	if len(ts) > 0 {
		filter["timestamp"] = ts
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("promptledger/mongo: list interactions: %w", err)
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
	res, err := s.mdb.NewDelete((*interactionModel)(nil)).
		Filter(bson.M{"timestamp": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("promptledger/mongo: purge interactions: %w", err)
	}
	return res.DeletedCount(), nil
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all ledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "data_size", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colInteractions: {
			{Keys: bson.D{{Key: "authority", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "signature", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
	}
}
