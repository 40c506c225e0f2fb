package service

import (
	"context"
	"time"

	"turna/internal/modkit/repokit"
	"turna/internal/platform/logger"
	"turna/internal/platform/metrics"
	"turna/internal/platform/store"
	"turna/internal/services/jobs/domain"
)

// ReconcilePendingOrphans sweeps PENDING rows no worker ever claimed and
// fails the ones older than their stale window. RUNNING jobs are never
// touched: there is no heartbeat, so a long handler is indistinguishable
// from a dead one and the post-work CAS already guards the commit
func (s *Svc) ReconcilePendingOrphans(ctx context.Context) (domain.ReconcileReport, error) {
	log := logger.Named("jobs-reconciler")
	now := s.clock.Now()

	var report domain.ReconcileReport
	err := store.RunAsSuperadmin(ctx, s.db, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		pending, err := r.ListPendingUnstarted(ctx)
		if err != nil {
			return err
		}
		report.Scanned = len(pending)

		windows := make(map[string]time.Duration, 4)
		for _, job := range pending {
			key := job.TenantID + "|" + string(job.Kind)
			window, ok := windows[key]
			if !ok {
				window, err = s.staleWindow(ctx, r, job.TenantID, job.Kind)
				if err != nil {
					return err
				}
				windows[key] = window
			}
			if now.Sub(job.CreatedAt) <= window {
				continue
			}
			moved, err := r.Fail(ctx, job.TenantID, job.ID, domain.ErrOrphaned, now)
			if err != nil {
				return err
			}
			if moved {
				report.Failed++
				metrics.JobsFinished.WithLabelValues(string(job.Kind), string(domain.StatusFailed)).Inc()
				log.Warn().
					Str("job_id", job.ID).Str("tenant_id", job.TenantID).Str("kind", string(job.Kind)).
					Dur("age", now.Sub(job.CreatedAt)).Dur("window", window).
					Msg("orphaned pending job failed")
			}
		}
		return nil
	})
	if err != nil {
		return domain.ReconcileReport{}, err
	}

	if report.Failed > 0 || report.Scanned > 0 {
		log.Info().Int("scanned", report.Scanned).Int("failed", report.Failed).Msg("orphan sweep done")
	}
	return report, nil
}
