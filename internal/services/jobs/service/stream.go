package service

import (
	"context"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/repokit"
	"turna/internal/platform/metrics"
	"turna/internal/platform/store"
	"turna/internal/services/jobs/domain"
	"turna/internal/services/jobs/stream"
)

// Stream pushes one snapshot now and one per status transition, polling the
// store with exponential backoff (PollMin doubling up to PollMax) until the
// job is terminal or the StreamTimeout ceiling passes. Finite and
// non-restartable: a terminal snapshot is always the last event
func (s *Svc) Stream(ctx context.Context, caller gate.Caller, id string, send func(domain.StatusEvent) error) error {
	// fail fast on jobs the caller cannot see
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}

	metrics.SSEStreams.Inc()
	defer metrics.SSEStreams.Dec()

	poll := func(ctx context.Context) (domain.StatusEvent, error) {
		var ev domain.StatusEvent
		err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
			var err error
			ev, err = s.binder.Bind(q).Status(ctx, caller.TenantID, id)
			return err
		})
		return ev, err
	}
	return stream.Poll(ctx, stream.Config{
		Min:     s.opts.PollMin,
		Max:     s.opts.PollMax,
		Ceiling: s.opts.StreamTimeout,
	}, poll, send)
}
