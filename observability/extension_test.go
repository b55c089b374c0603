package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/interaction"
	"github.com/xraph/promptledger/program"
	"github.com/xraph/promptledger/record"
)

// gathered returns the value of every counter and the sample count of every
// histogram in reg, keyed by metric name.
func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string]float64, len(families))
	for _, f := range families {
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[f.GetName()] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[f.GetName()] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestMetricsExtension(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewMetricsExtension(NewPrometheusFactory(reg))

	_ = m.OnUserInitialized(ctx, address.Zero, record.UserLedger{})
	_ = m.OnInteractionLogged(ctx, &interaction.Event{Fee: 1000})
	_ = m.OnInteractionLogged(ctx, &interaction.Event{Fee: 500})
	_ = m.OnTransitionFailed(ctx, "LogInteraction", address.Zero, fmt.Errorf("%w: x", program.ErrUnauthorizedAuthority))
	_ = m.OnTransitionFailed(ctx, "LogInteraction", address.Zero, program.ErrInvalidFee)
	_ = m.OnTransitionFailed(ctx, "LogInteraction", address.Zero, errors.New("disk full"))
	_ = m.OnFundsAirdropped(ctx, address.Zero, 2_000_000, 2_000_000)
	_ = m.OnEventsFlushed(ctx, 7, 3*time.Millisecond)

	got := gathered(t, reg)
	want := map[string]float64{
		"promptledger_users_initialized":        1,
		"promptledger_interactions_logged":      2,
		"promptledger_fees_collected_lamports":  1500,
		"promptledger_fees_size_lamports":       2,
		"promptledger_transitions_rejected":     2,
		"promptledger_transitions_unauthorized": 1,
		"promptledger_transitions_errors":       1,
		"promptledger_airdrops":                 1,
		"promptledger_airdrops_lamports":        2_000_000,
		"promptledger_journal_flushed":          7,
		"promptledger_journal_batch_size":       1,
		"promptledger_journal_flush_latency_ms": 1,
	}
	for name, w := range want {
		if got[name] != w {
			t.Errorf("%s = %v, want %v", name, got[name], w)
		}
	}
}

func TestPrometheusFactoryReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	f1 := NewPrometheusFactory(reg)
	f2 := NewPrometheusFactory(reg)

	c1 := f1.Counter("promptledger.test")
	c2 := f2.Counter("promptledger.test")
	c1.Inc()
	c2.Inc()

	if got := gathered(t, reg)["promptledger_test"]; got != 2 {
		t.Errorf("shared counter = %v, want 2", got)
	}
	if f1.Counter("promptledger.test") != c1 {
		t.Error("factory did not cache counter")
	}
}
