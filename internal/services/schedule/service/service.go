// Package service materializes solver output onto demand rows and drives the
// schedule lifecycle: draft, publish to PDF, archive
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/repokit"
	"turna/internal/platform/blob"
	"turna/internal/platform/config"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/store"
	ptime "turna/internal/platform/time"
	auditdom "turna/internal/services/audit/domain"
	ddom "turna/internal/services/demands/domain"
	"turna/internal/services/schedule/domain"
)

// Options tunes the solver objective and the publish surface
type Options struct {
	Unassigned int // penalty per uncovered demand
	PedExtra   int // extra penalty per uncovered pediatric demand
	PedReserve int // penalty per peds-capable pro on a non-pediatric demand
	MaxSeconds int // exact search wall budget
	Workers    int // exact search day fan-out
	PresignTTL time.Duration
	BaseName   string // default schedule_name prefix
}

// FromConfig reads SOLVER_* and SCHEDULE_* options
func FromConfig(cfg config.Conf) Options {
	s := cfg.Prefix("SOLVER_")
	p := cfg.Prefix("SCHEDULE_")
	return Options{
		Unassigned: s.MayInt("UNASSIGNED_PENALTY", 1000),
		PedExtra:   s.MayInt("PED_UNASSIGNED_EXTRA_PENALTY", 1000),
		PedReserve: s.MayInt("PED_PRO_ON_NON_PED_PENALTY", 1),
		MaxSeconds: s.MayInt("MAX_SECONDS", 5),
		Workers:    s.MayInt("WORKERS", 8),
		PresignTTL: p.MayDuration("PRESIGN_TTL", 15*time.Minute),
		BaseName:   p.MayString("BASE_NAME", "Escala"),
	}
}

func (o Options) withDefaults() Options {
	if o.Unassigned <= 0 {
		o.Unassigned = 1000
	}
	if o.PedExtra <= 0 {
		o.PedExtra = 1000
	}
	if o.PedReserve <= 0 {
		o.PedReserve = 1
	}
	if o.MaxSeconds <= 0 {
		o.MaxSeconds = 5
	}
	if o.Workers <= 0 {
		o.Workers = 8
	}
	if o.PresignTTL <= 0 {
		o.PresignTTL = 15 * time.Minute
	}
	if o.BaseName == "" {
		o.BaseName = "Escala"
	}
	return o
}

// Service is the schedule contract plus the worker-side generator
type Service interface {
	domain.ServicePort
	Generate(ctx context.Context, tenantID, jobID string, raw []byte) (domain.GenerateReport, error)
}

// Svc implements the Service interface
type Svc struct {
	db      repokit.TxRunner
	binder  repokit.Binder[domain.Repo]
	roster  domain.Roster
	tenants domain.TenantLoader
	blobs   blob.Store
	render  domain.Renderer
	audit   auditdom.RecorderPort
	clock   ptime.Clock
	opts    Options
}

// New creates the schedule service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.Repo],
	roster domain.Roster,
	tenants domain.TenantLoader,
	blobs blob.Store,
	render domain.Renderer,
	audit auditdom.RecorderPort,
	clock ptime.Clock,
	opts Options,
) *Svc {
	if db == nil {
		panic("schedule.Service requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("schedule.Service requires a non-nil Repo binder")
	}
	if roster == nil {
		panic("schedule.Service requires a non-nil roster")
	}
	if tenants == nil {
		panic("schedule.Service requires a non-nil tenant loader")
	}
	if blobs == nil {
		panic("schedule.Service requires a non-nil blob store")
	}
	if render == nil {
		panic("schedule.Service requires a non-nil renderer")
	}
	if audit == nil {
		panic("schedule.Service requires a non-nil audit recorder")
	}
	if clock == nil {
		clock = ptime.SystemClock{}
	}
	return &Svc{
		db:      db,
		binder:  binder,
		roster:  roster,
		tenants: tenants,
		blobs:   blobs,
		render:  render,
		audit:   audit,
		clock:   clock,
		opts:    opts.withDefaults(),
	}
}

// Get returns the reconstructed per-day view of one schedule
func (s *Svc) Get(ctx context.Context, caller gate.Caller, demandID string) (domain.ScheduleView, error) {
	var view domain.ScheduleView
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		d, err := r.GetDemand(ctx, caller.TenantID, demandID)
		if err != nil {
			return err
		}
		if d.ScheduleStatus == "" {
			return perr.NotFoundf("demand carries no schedule")
		}
		view, err = s.buildView(ctx, r, caller.TenantID, d)
		return err
	})
	return view, err
}

// List returns schedule-bearing demands, optionally narrowed by status
func (s *Svc) List(ctx context.Context, caller gate.Caller, status ddom.ScheduleStatus) ([]domain.ScheduleView, error) {
	if status != "" && !status.Valid() {
		return nil, perr.InvalidArgf("unknown schedule status %q", status)
	}
	var out []domain.ScheduleView
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		rows, err := r.ListSchedules(ctx, caller.TenantID, status)
		if err != nil {
			return err
		}
		rows = lo.Filter(rows, func(d ddom.Demand, _ int) bool { return d.ScheduleStatus != "" })
		out = make([]domain.ScheduleView, 0, len(rows))
		for _, d := range rows {
			v, err := s.buildView(ctx, r, caller.TenantID, d)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// Publish freezes a draft schedule: renders the PDF, uploads it, records the
// file and flips the row to PUBLISHED. Re-publishing an already published
// schedule just re-presigns the existing PDF
func (s *Svc) Publish(ctx context.Context, caller gate.Caller, demandID string) (domain.PublishOutput, error) {
	var (
		d    ddom.Demand
		view domain.ScheduleView
	)
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		d, err = r.GetDemand(ctx, caller.TenantID, demandID)
		if err != nil {
			return err
		}
		switch d.ScheduleStatus {
		case ddom.ScheduleDraft:
			view, err = s.buildView(ctx, r, caller.TenantID, d)
			return err
		case ddom.SchedulePublished:
			return nil
		case ddom.ScheduleArchived:
			return perr.Conflictf("archived schedules cannot be published")
		default:
			return perr.NotFoundf("demand carries no schedule")
		}
	})
	if err != nil {
		return domain.PublishOutput{}, err
	}

	if d.ScheduleStatus == ddom.SchedulePublished && d.PdfFileID != "" {
		return s.presignExisting(ctx, caller.TenantID, d)
	}
	if d.ScheduleStatus == ddom.SchedulePublished {
		return domain.PublishOutput{}, perr.Conflictf("schedule published without a pdf; archive and regenerate")
	}

	tenant, err := s.tenants.Load(ctx, caller.TenantID)
	if err != nil {
		return domain.PublishOutput{}, err
	}
	pdf, err := s.render.Render(domain.Doc{
		Title:      d.ScheduleName,
		TenantName: tenant.Name,
		Timezone:   tenant.Timezone,
		Days:       view.Days,
	})
	if err != nil {
		return domain.PublishOutput{}, perr.Wrap(err, perr.ErrorCodeUnknown, "render schedule pdf")
	}

	// deterministic key: re-publishing the same draft version overwrites
	// rather than leaking orphan objects
	key := fmt.Sprintf("%s/schedules/%s_v%d.pdf", caller.TenantID, d.ID, d.ScheduleVersionNumber)
	if err := s.blobs.Put(ctx, key, pdf, "application/pdf"); err != nil {
		return domain.PublishOutput{}, err
	}

	now := s.clock.Now()
	file := domain.FileRow{
		ID:          uuid.NewString(),
		TenantID:    caller.TenantID,
		HospitalID:  d.HospitalID,
		Filename:    fmt.Sprintf("%s.pdf", d.ScheduleName),
		ContentType: "application/pdf",
		BlobKey:     key,
		FileSize:    int64(len(pdf)),
	}
	err = store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if err := r.InsertFile(ctx, file); err != nil {
			return err
		}
		return r.MarkPublished(ctx, caller.TenantID, d.ID, file.ID, now)
	})
	if err != nil {
		return domain.PublishOutput{}, err
	}

	url, err := s.blobs.PresignGet(ctx, key, s.opts.PresignTTL)
	if err != nil {
		return domain.PublishOutput{}, err
	}
	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  caller.TenantID,
		AccountID: caller.AccountID,
		MemberID:  caller.MemberID,
		Type:      auditdom.EventSchedulePublished,
		Data:      map[string]any{"demand_id": d.ID, "pdf_file_id": file.ID},
	})
	return domain.PublishOutput{
		DemandID:  d.ID,
		Status:    string(ddom.SchedulePublished),
		PdfFileID: file.ID,
		URL:       url,
	}, nil
}

func (s *Svc) presignExisting(ctx context.Context, tenantID string, d ddom.Demand) (domain.PublishOutput, error) {
	var key string
	err := store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		key, err = s.binder.Bind(q).GetFileBlobKey(ctx, tenantID, d.PdfFileID)
		return err
	})
	if err != nil {
		return domain.PublishOutput{}, err
	}
	url, err := s.blobs.PresignGet(ctx, key, s.opts.PresignTTL)
	if err != nil {
		return domain.PublishOutput{}, err
	}
	return domain.PublishOutput{
		DemandID:  d.ID,
		Status:    string(ddom.SchedulePublished),
		PdfFileID: d.PdfFileID,
		URL:       url,
	}, nil
}

// Delete clears a draft schedule off its demand row. Published schedules are
// frozen and must be archived instead
func (s *Svc) Delete(ctx context.Context, caller gate.Caller, demandID string) error {
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		ok, err := r.ResetDraft(ctx, caller.TenantID, demandID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		d, err := r.GetDemand(ctx, caller.TenantID, demandID)
		if err != nil {
			return err
		}
		switch d.ScheduleStatus {
		case ddom.SchedulePublished, ddom.ScheduleArchived:
			return perr.Conflictf("only draft schedules can be deleted; archive published ones")
		default:
			return perr.NotFoundf("demand carries no schedule")
		}
	})
	if err != nil {
		return err
	}
	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  caller.TenantID,
		AccountID: caller.AccountID,
		MemberID:  caller.MemberID,
		Type:      auditdom.EventScheduleDeleted,
		Data:      map[string]any{"demand_id": demandID},
	})
	return nil
}

// Archive retires a published schedule
func (s *Svc) Archive(ctx context.Context, caller gate.Caller, demandID string) (domain.ScheduleView, error) {
	var view domain.ScheduleView
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		ok, err := r.Archive(ctx, caller.TenantID, demandID, s.clock.Now())
		if err != nil {
			return err
		}
		if !ok {
			d, err := r.GetDemand(ctx, caller.TenantID, demandID)
			if err != nil {
				return err
			}
			if d.ScheduleStatus == "" {
				return perr.NotFoundf("demand carries no schedule")
			}
			return perr.Conflictf("only published schedules can be archived, this one is %s", d.ScheduleStatus)
		}
		d, err := r.GetDemand(ctx, caller.TenantID, demandID)
		if err != nil {
			return err
		}
		view, err = s.buildView(ctx, r, caller.TenantID, d)
		return err
	})
	if err != nil {
		return domain.ScheduleView{}, err
	}
	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  caller.TenantID,
		AccountID: caller.AccountID,
		MemberID:  caller.MemberID,
		Type:      auditdom.EventScheduleArchived,
		Data:      map[string]any{"demand_id": demandID},
	})
	return view, nil
}
