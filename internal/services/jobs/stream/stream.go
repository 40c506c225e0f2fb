// Package stream holds the polling loop behind the job status stream,
// separated from the service so the cadence is testable without a store
package stream

import (
	"context"
	"time"

	"turna/internal/services/jobs/domain"
)

// Config bounds one poll loop
type Config struct {
	Min     time.Duration // first interval
	Max     time.Duration // interval cap
	Ceiling time.Duration // hard stop for the whole stream
}

// Poll reads snapshots via fetch and forwards transitions to send. It emits
// the first snapshot unconditionally, then only on status change, and stops
// on a terminal status, the ceiling, a fetch error, a send error, or ctx
func Poll(ctx context.Context, cfg Config, fetch func(context.Context) (domain.StatusEvent, error), send func(domain.StatusEvent) error) error {
	if cfg.Min <= 0 {
		cfg.Min = time.Second
	}
	if cfg.Max < cfg.Min {
		cfg.Max = cfg.Min
	}
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = 5 * time.Minute
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Ceiling)
	defer cancel()

	var last domain.Status
	interval := cfg.Min
	for {
		ev, err := fetch(ctx)
		if err != nil {
			return err
		}
		if ev.Status != last {
			if err := send(ev); err != nil {
				return err
			}
			last = ev.Status
		}
		if ev.Status.Terminal() {
			return nil
		}

		select {
		case <-ctx.Done():
			// ceiling or client hangup ends the stream, not an error
			return nil
		case <-time.After(interval):
		}
		if interval *= 2; interval > cfg.Max {
			interval = cfg.Max
		}
	}
}
