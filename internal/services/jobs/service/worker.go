package service

import (
	"context"
	"encoding/json"

	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/logger"
	"turna/internal/platform/metrics"
	"turna/internal/platform/store"
	"turna/internal/services/jobs/domain"
)

// Process executes one claimed broker message end to end: CAS the row to
// RUNNING, run the kind's handler outside any transaction, then commit the
// outcome. A nil error acks the message; duplicates and missing rows ack
// with a skip reason so at-least-once delivery never wedges the queue
func (s *Svc) Process(ctx context.Context, msg domain.Message) (domain.ProcessOutcome, error) {
	log := logger.Named("jobs-worker").With().
		Str("job_id", msg.JobID).Str("tenant_id", msg.TenantID).Str("kind", string(msg.Kind)).
		Logger()

	var job domain.Job
	var claimed bool
	err := store.RunInTenant(ctx, s.db, msg.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		job, err = r.Get(ctx, msg.TenantID, msg.JobID)
		if err != nil {
			return err
		}
		if job.Status != domain.StatusPending {
			return nil
		}
		claimed, err = r.MarkRunning(ctx, msg.TenantID, msg.JobID, s.clock.Now())
		return err
	})
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		log.Warn().Msg("message for a missing job row, skipping")
		return domain.ProcessOutcome{OK: false, Reason: "missing"}, nil
	}
	if err != nil {
		return domain.ProcessOutcome{}, err
	}
	if !claimed {
		log.Debug().Str("status", string(job.Status)).Msg("job not pending, skipping redelivery")
		return domain.ProcessOutcome{OK: false, Reason: "not_pending"}, nil
	}

	started := s.clock.Now()
	result, runErr := s.run(ctx, job)
	if runErr != nil {
		log.Error().Err(runErr).Msg("job handler failed")
		if ferr := s.fail(ctx, msg.TenantID, msg.JobID, perr.Sanitize(runErr)); ferr != nil {
			return domain.ProcessOutcome{}, ferr
		}
		metrics.JobsFinished.WithLabelValues(string(job.Kind), string(domain.StatusFailed)).Inc()
		metrics.JobDuration.WithLabelValues(string(job.Kind)).Observe(s.clock.Now().Sub(started).Seconds())
		return domain.ProcessOutcome{OK: false, Reason: "failed"}, nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		if ferr := s.fail(ctx, msg.TenantID, msg.JobID, "result not serializable"); ferr != nil {
			return domain.ProcessOutcome{}, ferr
		}
		metrics.JobsFinished.WithLabelValues(string(job.Kind), string(domain.StatusFailed)).Inc()
		return domain.ProcessOutcome{OK: false, Reason: "failed"}, nil
	}

	// commit only while still RUNNING; a refused write means someone
	// cancelled mid-run and their FAILED must survive
	var committed bool
	var after domain.StatusEvent
	err = store.RunInTenant(ctx, s.db, msg.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		committed, err = r.Complete(ctx, msg.TenantID, msg.JobID, payload, s.clock.Now())
		if err != nil || committed {
			return err
		}
		after, err = r.Status(ctx, msg.TenantID, msg.JobID)
		return err
	})
	if err != nil {
		return domain.ProcessOutcome{}, err
	}
	if !committed {
		log.Warn().Str("status", string(after.Status)).Msg("result discarded, job was cancelled mid-run")
		return domain.ProcessOutcome{OK: false, Reason: "cancelled"}, nil
	}

	metrics.JobsFinished.WithLabelValues(string(job.Kind), string(domain.StatusCompleted)).Inc()
	metrics.JobDuration.WithLabelValues(string(job.Kind)).Observe(s.clock.Now().Sub(started).Seconds())
	log.Info().Msg("job completed")
	return domain.ProcessOutcome{OK: true}, nil
}

// run dispatches to the registered handler, converting panics into errors so
// one bad job never takes the worker down
func (s *Svc) run(ctx context.Context, job domain.Job) (result any, err error) {
	h, ok := s.handlers[job.Kind]
	if !ok {
		return nil, perr.InvalidArgf("no handler registered for kind %s", job.Kind)
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = perr.PanicErrf("job handler panic: %v", rec)
		}
	}()
	return h.Run(ctx, job)
}

func (s *Svc) fail(ctx context.Context, tenantID, jobID, msg string) error {
	return store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		moved, err := s.binder.Bind(q).Fail(ctx, tenantID, jobID, msg, s.clock.Now())
		if err != nil {
			return err
		}
		if !moved {
			// already FAILED by a concurrent cancel; that verdict stands
			logger.C(ctx).Debug().Str("job_id", jobID).Msg("fail skipped, job already terminal")
		}
		return nil
	})
}

// Ping is the trivial PING handler the worker registers on itself
func Ping() domain.Handler {
	return domain.HandlerFunc(func(_ context.Context, job domain.Job) (any, error) {
		return map[string]any{"pong": true, "job_id": job.ID}, nil
	})
}
