package metrics

import (
	"context"
	"log/slog"

	"go-birthday-card/internal/event"
	"go-birthday-card/internal/model"
)

// RecordEvents logs every lifecycle event and feeds the counters until ctx
// is done or the subscription closes.
func RecordEvents(ctx context.Context, bus event.Bus, logger *slog.Logger) {
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			record(logger, e)
		}
	}
}

func record(logger *slog.Logger, e event.Event) {
	LifecycleEventsTotal.WithLabelValues(string(e.Type)).Inc()

	attrs := []any{"event_id", e.ID, "type", e.Type}
	if e.CardID != 0 {
		attrs = append(attrs, "card_id", e.CardID)
	}
	if e.Slug != "" {
		attrs = append(attrs, "slug", e.Slug)
	}
	if e.Actor != "" {
		attrs = append(attrs, "actor", e.Actor)
	}

	if result, ok := e.Payload.(model.SweepResult); ok {
		SweepRecordsDeleted.Add(float64(result.RecordsDeleted))
		SweepDependentsDeleted.Add(float64(result.DependentsDeleted))
		attrs = append(attrs,
			"records_deleted", result.RecordsDeleted,
			"dependents_deleted", result.DependentsDeleted)
	}

	logger.Info("lifecycle event", attrs...)
}
