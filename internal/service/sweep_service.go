package service

import (
	"context"
	"log/slog"
	"time"

	"go-birthday-card/internal/event"
	"go-birthday-card/internal/metrics"
	"go-birthday-card/internal/model"
	"go-birthday-card/internal/repository"
)

// SweepService soft-deletes cards past their retention deadline, one bounded
// batch per call. Concurrent callers never double count: Postgres skips rows
// another sweep has locked and the status flip is conditional.
type SweepService struct {
	store     repository.CardStore
	bus       event.Bus
	clock     Clock
	retention time.Duration
	batchSize int
}

func NewSweepService(store repository.CardStore, bus event.Bus, clock Clock, retention time.Duration, batchSize int) *SweepService {
	if bus == nil {
		bus = event.Nop{}
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &SweepService{store: store, bus: bus, clock: clock, retention: retention, batchSize: batchSize}
}

// Sweep expires cards whose deadline is at or before now. A zero now means
// the service clock.
func (s *SweepService) Sweep(ctx context.Context, now time.Time) (model.SweepResult, error) {
	if now.IsZero() {
		now = s.clock.now()
	}
	now = now.UTC().Truncate(time.Millisecond)

	started := time.Now()
	result, err := s.store.SweepExpired(ctx, now, now.Add(-s.retention), s.batchSize)
	if err != nil {
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		slog.Error("retention sweep failed", "error", err, "now", now)
		return model.SweepResult{}, err
	}

	metrics.SweepRunsTotal.WithLabelValues("ok").Inc()
	slog.Info("retention sweep finished",
		"records_deleted", result.RecordsDeleted,
		"dependents_deleted", result.DependentsDeleted,
		"duration", time.Since(started))

	s.bus.Publish(event.Event{Type: event.TypeSweepFinished, Payload: result, Timestamp: now})
	return result, nil
}
