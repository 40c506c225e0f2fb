// Package service implements the job engine: durable enqueue, worker
// execution, cancellation, requeue and the stale-orphan sweep
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/mitchellh/hashstructure/v2"
	gocache "github.com/patrickmn/go-cache"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/repokit"
	"turna/internal/platform/config"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/logger"
	"turna/internal/platform/metrics"
	"turna/internal/platform/store"
	ptime "turna/internal/platform/time"
	auditdom "turna/internal/services/audit/domain"
	"turna/internal/services/jobs/domain"
)

// Options tunes the engine; zero values select the documented defaults
type Options struct {
	StaleMax        time.Duration // orphan window ceiling
	HistoryN        int           // completed jobs averaged for the window
	PollMin         time.Duration // status stream initial poll interval
	PollMax         time.Duration // status stream poll cap
	StreamTimeout   time.Duration // status stream hard ceiling
	PublishAttempts int           // broker publish retries before Unavailable
}

// FromConfig reads JOBS_* options
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("JOBS_")
	return Options{
		StaleMax:        c.MayDuration("STALE_WINDOW_MAX", time.Hour),
		HistoryN:        c.MayInt("STALE_HISTORY", 10),
		PollMin:         c.MayDuration("SSE_POLL_MIN", time.Second),
		PollMax:         c.MayDuration("SSE_POLL_MAX", 5*time.Second),
		StreamTimeout:   c.MayDuration("SSE_TIMEOUT", 5*time.Minute),
		PublishAttempts: c.MayInt("PUBLISH_ATTEMPTS", 3),
	}
}

func (o Options) withDefaults() Options {
	if o.StaleMax <= 0 {
		o.StaleMax = time.Hour
	}
	if o.HistoryN <= 0 {
		o.HistoryN = 10
	}
	if o.PollMin <= 0 {
		o.PollMin = time.Second
	}
	if o.PollMax < o.PollMin {
		o.PollMax = 5 * time.Second
	}
	if o.StreamTimeout <= 0 {
		o.StreamTimeout = 5 * time.Minute
	}
	if o.PublishAttempts <= 0 {
		o.PublishAttempts = 3
	}
	return o
}

// Service is the full engine contract
type Service interface {
	domain.ServicePort
	domain.WorkerPort
	domain.ReconcilerPort
	Register(kind domain.Kind, h domain.Handler)
}

// Svc implements the Service interface
type Svc struct {
	db       repokit.TxRunner
	binder   repokit.Binder[domain.Repo]
	broker   domain.Broker
	audit    auditdom.RecorderPort
	clock    ptime.Clock
	opts     Options
	handlers map[domain.Kind]domain.Handler
	windows  *gocache.Cache // (tenant|kind) -> time.Duration
}

// New creates the job engine service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo], broker domain.Broker, audit auditdom.RecorderPort, clock ptime.Clock, opts Options) *Svc {
	if db == nil {
		panic("jobs.Service requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("jobs.Service requires a non-nil Repo binder")
	}
	if broker == nil {
		panic("jobs.Service requires a non-nil broker")
	}
	if audit == nil {
		panic("jobs.Service requires a non-nil audit recorder")
	}
	if clock == nil {
		clock = ptime.SystemClock{}
	}
	return &Svc{
		db:       db,
		binder:   binder,
		broker:   broker,
		audit:    audit,
		clock:    clock,
		opts:     opts.withDefaults(),
		handlers: make(map[domain.Kind]domain.Handler),
		windows:  gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Register binds a handler to a kind. Call during wiring, before the worker
// starts consuming; the map is read-only afterwards
func (s *Svc) Register(kind domain.Kind, h domain.Handler) {
	if !kind.Valid() {
		panic(fmt.Sprintf("jobs: registering unknown kind %q", kind))
	}
	s.handlers[kind] = h
}

// Enqueue creates a PENDING row and publishes its claim message. The row
// commits before the publish; a publish outage leaves it PENDING for the
// reconciler to time out, so no message is ever older than its row
func (s *Svc) Enqueue(ctx context.Context, caller gate.Caller, in domain.EnqueueInput) (domain.Job, error) {
	if !in.Kind.Valid() {
		return domain.Job{}, perr.InvalidArgf("unknown job kind %q", in.Kind)
	}
	input := in.Input
	if len(input) == 0 {
		input = json.RawMessage("null")
	}
	fp, err := fingerprint(in.Kind, input)
	if err != nil {
		return domain.Job{}, err
	}

	now := s.clock.Now()
	job := domain.Job{
		ID:          uuid.NewString(),
		TenantID:    caller.TenantID,
		Kind:        in.Kind,
		Status:      domain.StatusPending,
		Fingerprint: fp,
		Input:       input,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var existing *domain.Job
	err = store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if !in.Kind.Transient() {
			dup, found, err := r.FindActive(ctx, caller.TenantID, in.Kind, fp)
			if err != nil {
				return err
			}
			if found {
				existing = &dup
				return nil
			}
		}
		return r.Insert(ctx, job)
	})
	if err != nil {
		return domain.Job{}, err
	}
	if existing != nil {
		logger.C(ctx).Debug().Str("job_id", existing.ID).Str("kind", string(in.Kind)).Msg("enqueue deduplicated onto active job")
		return *existing, nil
	}

	if err := s.publish(ctx, domain.Message{JobID: job.ID, TenantID: job.TenantID, Kind: job.Kind}); err != nil {
		logger.C(ctx).Error().Err(err).Str("job_id", job.ID).Msg("broker publish failed; job left for reconciler")
		return domain.Job{}, perr.Unavailablef("job accepted but not dispatched, retry later")
	}

	metrics.JobsEnqueued.WithLabelValues(string(job.Kind)).Inc()
	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  caller.TenantID,
		AccountID: caller.AccountID,
		MemberID:  caller.MemberID,
		Type:      auditdom.EventJobEnqueued,
		Data:      map[string]any{"job_id": job.ID, "kind": job.Kind},
	})
	return job, nil
}

// Get returns one job in the caller's tenant
func (s *Svc) Get(ctx context.Context, caller gate.Caller, id string) (domain.Job, error) {
	var job domain.Job
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		job, err = s.binder.Bind(q).Get(ctx, caller.TenantID, id)
		return err
	})
	return job, err
}

// List returns tenant jobs, newest first
func (s *Svc) List(ctx context.Context, caller gate.Caller, f domain.ListFilter) ([]domain.Job, error) {
	if f.Kind != "" && !f.Kind.Valid() {
		return nil, perr.InvalidArgf("unknown job kind %q", f.Kind)
	}
	var out []domain.Job
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).List(ctx, caller.TenantID, f)
		return err
	})
	return out, err
}

// Cancel moves a non-terminal job to FAILED with the cancel marker.
// Running handlers notice at commit time; terminal jobs are returned as-is
func (s *Svc) Cancel(ctx context.Context, caller gate.Caller, id string) (domain.Job, error) {
	var job domain.Job
	var cancelled bool
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		cancelled, err = r.Fail(ctx, caller.TenantID, id, domain.ErrCancelled, s.clock.Now())
		if err != nil {
			return err
		}
		job, err = r.Get(ctx, caller.TenantID, id)
		return err
	})
	if err != nil {
		return domain.Job{}, err
	}
	if cancelled {
		metrics.JobsFinished.WithLabelValues(string(job.Kind), string(domain.StatusFailed)).Inc()
		s.audit.Emit(ctx, auditdom.Event{
			TenantID:  caller.TenantID,
			AccountID: caller.AccountID,
			MemberID:  caller.MemberID,
			Type:      auditdom.EventJobCancelled,
			Data:      map[string]any{"job_id": job.ID, "kind": job.Kind},
		})
	}
	return job, nil
}

// Requeue resurrects a FAILED job, or a stale unclaimed PENDING one, back to
// PENDING and re-publishes it. Admin-only; transient kinds are refused
func (s *Svc) Requeue(ctx context.Context, caller gate.Caller, id string, in domain.RequeueInput) (domain.Job, error) {
	if !caller.IsAdmin() {
		return domain.Job{}, perr.Forbiddenf("admin role required")
	}

	var job domain.Job
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		job, err = r.Get(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		if job.Kind.Transient() {
			return perr.InvalidArgf("%s jobs cannot be requeued", job.Kind)
		}
		if !in.Force {
			switch {
			case job.Status == domain.StatusFailed:
				// always requeueable
			case job.Status == domain.StatusPending && job.StartedAt == nil:
				window, err := s.staleWindow(ctx, r, caller.TenantID, job.Kind)
				if err != nil {
					return err
				}
				if s.clock.Now().Sub(job.CreatedAt) <= window {
					return perr.InvalidArgf("job is pending and not yet stale")
				}
			default:
				return perr.InvalidArgf("only failed or stale pending jobs can be requeued")
			}
		}
		return r.ResetPending(ctx, caller.TenantID, id, in.WipeResult)
	})
	if err != nil {
		return domain.Job{}, err
	}

	if err := s.publish(ctx, domain.Message{JobID: job.ID, TenantID: job.TenantID, Kind: job.Kind}); err != nil {
		logger.C(ctx).Error().Err(err).Str("job_id", job.ID).Msg("requeue publish failed; job left for reconciler")
		return domain.Job{}, perr.Unavailablef("job reset but not dispatched, retry later")
	}

	metrics.JobsRequeued.Inc()
	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  caller.TenantID,
		AccountID: caller.AccountID,
		MemberID:  caller.MemberID,
		Type:      auditdom.EventJobRequeued,
		Data:      map[string]any{"job_id": job.ID, "kind": job.Kind, "force": in.Force},
	})
	job.Status = domain.StatusPending
	job.Error = ""
	job.StartedAt = nil
	job.CompletedAt = nil
	if in.WipeResult {
		job.Result = nil
	}
	return job, nil
}

// publish pushes the claim message with a few quick retries; the broker is
// at-least-once, duplicates ack as not_pending on the worker side
func (s *Svc) publish(ctx context.Context, msg domain.Message) error {
	return retry.Do(
		func() error { return s.broker.Publish(ctx, msg) },
		retry.Attempts(uint(s.opts.PublishAttempts)),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
}

// staleWindow computes min(10 x avg of the last HistoryN completed
// durations, StaleMax) for a (tenant, kind); no history means the ceiling.
// Values cache for five minutes, the sweep cadence
func (s *Svc) staleWindow(ctx context.Context, r domain.Repo, tenantID string, kind domain.Kind) (time.Duration, error) {
	key := tenantID + "|" + string(kind)
	if v, ok := s.windows.Get(key); ok {
		return v.(time.Duration), nil
	}
	avg, n, err := r.AvgRecentDuration(ctx, tenantID, kind, s.opts.HistoryN)
	if err != nil {
		return 0, err
	}
	window := s.opts.StaleMax
	if n > 0 && avg > 0 {
		if w := 10 * avg; w < window {
			window = w
		}
	}
	s.windows.Set(key, window, gocache.DefaultExpiration)
	return window, nil
}

// fingerprint hashes (kind, canonical input) so equal work dedupes onto one
// active job regardless of JSON key order
func fingerprint(kind domain.Kind, input json.RawMessage) (string, error) {
	var canonical any
	if err := json.Unmarshal(input, &canonical); err != nil {
		return "", perr.InvalidArgf("job input must be valid JSON")
	}
	h, err := hashstructure.Hash(struct {
		Kind  domain.Kind
		Input any
	}{Kind: kind, Input: canonical}, hashstructure.FormatV2, nil)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "fingerprint job input")
	}
	return fmt.Sprintf("%016x", h), nil
}
