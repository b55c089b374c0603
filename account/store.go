package account

import (
	"context"

	"github.com/xraph/promptledger/address"
)

// Getter loads a batch of accounts; addresses with no stored account are
// omitted from the result.
type Getter interface {
	GetAccounts(ctx context.Context, addrs []address.PublicKey) ([]*Account, error)
}

// Store persists accounts.
type Store interface {
	Getter

	// GetAccount returns the account at addr or a not-found error.
	GetAccount(ctx context.Context, addr address.PublicKey) (*Account, error)
	// ListAccountsByOwner returns accounts assigned to owner, ordered by address.
	ListAccountsByOwner(ctx context.Context, owner address.PublicKey, opts ListOpts) ([]*Account, error)
	// CommitAccounts writes every account in one atomic step.
	CommitAccounts(ctx context.Context, accounts []*Account) error
}

// ListOpts filters owner listings. A zero DataSize matches any size.
type ListOpts struct {
	DataSize int
	Limit    int
	Offset   int
}
