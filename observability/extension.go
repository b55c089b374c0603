// Package observability provides a metrics extension for the ledger that
// records transition counts and fee volume through a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/interaction"
	"github.com/xraph/promptledger/plugin"
	"github.com/xraph/promptledger/program"
	"github.com/xraph/promptledger/record"
	"github.com/xraph/promptledger/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnUserInitialized   = (*MetricsExtension)(nil)
	_ plugin.OnInteractionLogged = (*MetricsExtension)(nil)
	_ plugin.OnTransitionFailed  = (*MetricsExtension)(nil)
	_ plugin.OnFundsAirdropped   = (*MetricsExtension)(nil)
	_ plugin.OnEventsFlushed     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide ledger metrics.
// Register it as a ledger plugin to track transitions automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Record metrics
	UsersInitialized Counter

	// Interaction metrics
	InteractionsLogged Counter
	FeesCollected      Counter
	FeeSize            Histogram

	// Failure metrics
	TransitionsRejected Counter
	AuthorityRejected   Counter
	TransitionErrors    Counter

	// Balance metrics
	Airdrops        Counter
	AirdropLamports Counter

	// Journal metrics
	JournalFlushed      Counter
	JournalBatchSize    Histogram
	JournalFlushLatency Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		UsersInitialized: factory.Counter("promptledger.users.initialized"),

		InteractionsLogged: factory.Counter("promptledger.interactions.logged"),
		FeesCollected:      factory.Counter("promptledger.fees.collected_lamports"),
		FeeSize:            factory.Histogram("promptledger.fees.size_lamports"),

		TransitionsRejected: factory.Counter("promptledger.transitions.rejected"),
		AuthorityRejected:   factory.Counter("promptledger.transitions.unauthorized"),
		TransitionErrors:    factory.Counter("promptledger.transitions.errors"),

		Airdrops:        factory.Counter("promptledger.airdrops"),
		AirdropLamports: factory.Counter("promptledger.airdrops.lamports"),

		JournalFlushed:      factory.Counter("promptledger.journal.flushed"),
		JournalBatchSize:    factory.Histogram("promptledger.journal.batch.size"),
		JournalFlushLatency: factory.Histogram("promptledger.journal.flush.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Transition hooks
// ──────────────────────────────────────────────────

// OnUserInitialized implements plugin.OnUserInitialized.
func (m *MetricsExtension) OnUserInitialized(_ context.Context, _ address.PublicKey, _ record.UserLedger) error {
	m.UsersInitialized.Inc()
	return nil
}

// OnInteractionLogged implements plugin.OnInteractionLogged.
func (m *MetricsExtension) OnInteractionLogged(_ context.Context, evt *interaction.Event) error {
	fee := float64(evt.Fee)
	m.InteractionsLogged.Inc()
	m.FeesCollected.Add(fee)
	m.FeeSize.Observe(fee)
	return nil
}

// OnTransitionFailed implements plugin.OnTransitionFailed.
// Ledger rule violations count as rejections, everything else as errors.
func (m *MetricsExtension) OnTransitionFailed(_ context.Context, _ string, _ address.PublicKey, cause error) error {
	pe, ok := program.AsError(cause)
	if !ok {
		m.TransitionErrors.Inc()
		return nil
	}
	m.TransitionsRejected.Inc()
	if pe.Is(program.ErrUnauthorizedAuthority) {
		m.AuthorityRejected.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Balance hooks
// ──────────────────────────────────────────────────

// OnFundsAirdropped implements plugin.OnFundsAirdropped.
func (m *MetricsExtension) OnFundsAirdropped(_ context.Context, _ address.PublicKey, amount, _ types.Lamports) error {
	m.Airdrops.Inc()
	m.AirdropLamports.Add(float64(amount))
	return nil
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnEventsFlushed implements plugin.OnEventsFlushed.
func (m *MetricsExtension) OnEventsFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.JournalFlushed.Add(float64(count))
	m.JournalBatchSize.Observe(float64(count))
	m.JournalFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
