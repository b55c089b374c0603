package interaction

import (
	"context"
	"time"

	"github.com/xraph/promptledger/address"
)

// Store persists journaled interactions.
type Store interface {
	AppendInteractions(ctx context.Context, events []*Event) error
	ListInteractions(ctx context.Context, authority address.PublicKey, opts QueryOpts) ([]*Event, error)
	PurgeInteractions(ctx context.Context, before time.Time) (int64, error)
}

// QueryOpts filters ListInteractions. Results are newest first.
type QueryOpts struct {
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}
