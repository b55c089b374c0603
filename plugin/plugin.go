// Package plugin provides an extensible plugin system for the ledger engine.
// Plugins can hook into lifecycle and transition events to extend functionality.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/interaction"
	"github.com/xraph/promptledger/record"
	"github.com/xraph/promptledger/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Transition hooks
// ──────────────────────────────────────────────────

// OnUserInitialized is called after an InitializeUser transition commits.
type OnUserInitialized interface {
	Plugin
	OnUserInitialized(ctx context.Context, addr address.PublicKey, rec record.UserLedger) error
}

// OnInteractionLogged is called after a LogInteraction transition commits.
type OnInteractionLogged interface {
	Plugin
	OnInteractionLogged(ctx context.Context, evt *interaction.Event) error
}

// OnTransitionFailed is called when a transition is rejected.
type OnTransitionFailed interface {
	Plugin
	OnTransitionFailed(ctx context.Context, kind string, signer address.PublicKey, err error) error
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnFundsAirdropped is called after lamports are credited from outside the ledger.
type OnFundsAirdropped interface {
	Plugin
	OnFundsAirdropped(ctx context.Context, addr address.PublicKey, amount, balance types.Lamports) error
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnEventsFlushed is called when journaled interactions are flushed to the store.
type OnEventsFlushed interface {
	Plugin
	OnEventsFlushed(ctx context.Context, count int, elapsed time.Duration) error
}
