package promptledger

import (
	"context"
	"time"

	"github.com/xraph/promptledger/interaction"
)

// enqueue hands evt to the journal worker without blocking.
func (l *Ledger) enqueue(evt *interaction.Event) error {
	select {
	case l.journal <- evt:
		return nil
	default:
		return ErrJournalBufferFull
	}
}

// journalFlushWorker flushes interaction events to the store.
func (l *Ledger) journalFlushWorker(ctx context.Context) {
	defer l.wg.Done()

	batch := make([]*interaction.Event, 0, l.eventBatchSize)
	ticker := time.NewTicker(l.eventFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			// Drain whatever is still buffered, then final flush.
		drain:
			for {
				select {
				case evt := <-l.journal:
					batch = append(batch, evt)
					if len(batch) >= l.eventBatchSize {
						l.flushJournalBatch(ctx, batch)
						batch = make([]*interaction.Event, 0, l.eventBatchSize)
					}
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				l.flushJournalBatch(ctx, batch)
			}
			return

		case evt := <-l.journal:
			batch = append(batch, evt)
			if len(batch) >= l.eventBatchSize {
				l.flushJournalBatch(ctx, batch)
				batch = make([]*interaction.Event, 0, l.eventBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.flushJournalBatch(ctx, batch)
				batch = make([]*interaction.Event, 0, l.eventBatchSize)
			}
			if l.journalRetention > 0 {
				l.purgeJournal(ctx)
			}
		}
	}
}

func (l *Ledger) flushJournalBatch(ctx context.Context, batch []*interaction.Event) {
	start := time.Now()

	if err := l.store.AppendInteractions(ctx, batch); err != nil {
		l.logger.Error("failed to flush interaction journal",
			"error", err,
			"batch_size", len(batch),
		)
		return
	}

	elapsed := time.Since(start)
	l.plugins.EmitEventsFlushed(ctx, len(batch), elapsed)

	l.logger.Debug("flushed interaction journal",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// purgeJournal drops events older than the retention window.
func (l *Ledger) purgeJournal(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-l.journalRetention)

	purged, err := l.store.PurgeInteractions(ctx, cutoff)
	if err != nil {
		l.logger.Error("failed to purge interaction journal",
			"error", err,
			"cutoff", cutoff,
		)
		return
	}
	if purged > 0 {
		l.logger.Debug("purged interaction journal",
			"purged", purged,
			"cutoff", cutoff,
		)
	}
}
