// Package audithook bridges ledger transition events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/interaction"
	"github.com/xraph/promptledger/plugin"
	"github.com/xraph/promptledger/program"
	"github.com/xraph/promptledger/record"
	"github.com/xraph/promptledger/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnUserInitialized   = (*Extension)(nil)
	_ plugin.OnInteractionLogged = (*Extension)(nil)
	_ plugin.OnTransitionFailed  = (*Extension)(nil)
	_ plugin.OnFundsAirdropped   = (*Extension)(nil)
	_ plugin.OnEventsFlushed     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Transition hooks
// ──────────────────────────────────────────────────

// OnUserInitialized implements plugin.OnUserInitialized.
func (e *Extension) OnUserInitialized(ctx context.Context, addr address.PublicKey, rec record.UserLedger) error {
	return e.record(ctx, ActionUserInitialized, SeverityInfo, OutcomeSuccess,
		ResourceUserRecord, addr.String(), CategoryLedger, nil,
		"authority", rec.Authority.String(),
		"bump", rec.Bump,
	)
}

// OnInteractionLogged implements plugin.OnInteractionLogged.
func (e *Extension) OnInteractionLogged(ctx context.Context, evt *interaction.Event) error {
	return e.record(ctx, ActionInteractionLogged, SeverityInfo, OutcomeSuccess,
		ResourceInteraction, evt.ID.String(), CategoryPayment, nil,
		"authority", evt.Authority.String(),
		"record", evt.Record.String(),
		"fee", uint64(evt.Fee),
		"slot", evt.Slot,
		"total_queries", evt.TotalQueries,
	)
}

// OnTransitionFailed implements plugin.OnTransitionFailed.
// Ledger rule violations are warnings; anything else is an error.
func (e *Extension) OnTransitionFailed(ctx context.Context, kind string, signer address.PublicKey, cause error) error {
	severity := SeverityError
	category := CategorySystem
	if pe, ok := program.AsError(cause); ok {
		severity = SeverityWarning
		category = CategoryLedger
		if errors.Is(pe, program.ErrUnauthorizedAuthority) || errors.Is(pe, program.ErrAccountNotSigner) {
			category = CategoryAccess
		}
	}

	return e.record(ctx, ActionTransitionFailed, severity, OutcomeFailure,
		ResourceUserRecord, signer.String(), category, cause,
		"kind", kind,
	)
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnFundsAirdropped implements plugin.OnFundsAirdropped.
func (e *Extension) OnFundsAirdropped(ctx context.Context, addr address.PublicKey, amount, balance types.Lamports) error {
	return e.record(ctx, ActionFundsAirdropped, SeverityInfo, OutcomeSuccess,
		ResourceAccount, addr.String(), CategoryPayment, nil,
		"amount", uint64(amount),
		"balance", uint64(balance),
	)
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnEventsFlushed implements plugin.OnEventsFlushed.
func (e *Extension) OnEventsFlushed(ctx context.Context, count int, elapsed time.Duration) error {
	return e.record(ctx, ActionJournalFlushed, SeverityInfo, OutcomeSuccess,
		ResourceJournal, "", CategorySystem, nil,
		"count", count,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
