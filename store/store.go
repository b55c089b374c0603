// Package store defines the persistence boundary of the ledger host.
package store

import (
	"context"

	"github.com/xraph/promptledger/account"
	"github.com/xraph/promptledger/interaction"
)

// Store is the unified storage interface for accounts and the interaction
// journal.
type Store interface {
	account.Store
	interaction.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
