// Package service contains demand intake and maintenance workflows
package service

import (
	"context"

	"github.com/google/uuid"

	"turna/internal/core/interval"
	"turna/internal/modkit/gate"
	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/store"
	"turna/internal/services/demands/domain"
)

// Service is the demands contract
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.Repo]
}

// New creates the demands service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo]) *Svc {
	if db == nil {
		panic("demands.Service requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("demands.Service requires a non-nil Repo binder")
	}
	return &Svc{db: db, binder: binder}
}

// Create stores one manual demand after window validation
func (s *Svc) Create(ctx context.Context, caller gate.Caller, in domain.CreateDemandInput) (domain.Demand, error) {
	if _, err := interval.NewSpan(in.StartTime, in.EndTime); err != nil {
		return domain.Demand{}, err
	}
	if in.Procedure == "" {
		return domain.Demand{}, perr.InvalidArgf("procedure is required")
	}

	d := domain.Demand{
		ID:             uuid.NewString(),
		TenantID:       caller.TenantID,
		HospitalID:     in.HospitalID,
		Room:           in.Room,
		StartTime:      in.StartTime.UTC(),
		EndTime:        in.EndTime.UTC(),
		Procedure:      in.Procedure,
		AnesthesiaType: in.AnesthesiaType,
		Complexity:     in.Complexity,
		Skills:         in.Skills,
		Priority:       in.Priority,
		IsPediatric:    in.IsPediatric,
		Notes:          in.Notes,
		Source:         domain.SourceManual,
	}
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		ok, err := r.HospitalExists(ctx, caller.TenantID, in.HospitalID)
		if err != nil {
			return err
		}
		if !ok {
			return perr.NotFoundf("hospital not found")
		}
		return r.Insert(ctx, d)
	})
	if err != nil {
		return domain.Demand{}, err
	}
	return d, nil
}

// Get returns one demand in the caller's tenant
func (s *Svc) Get(ctx context.Context, caller gate.Caller, id string) (domain.Demand, error) {
	var d domain.Demand
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		d, err = s.binder.Bind(q).Get(ctx, caller.TenantID, id)
		return err
	})
	return d, err
}

// List returns tenant demands in start-time order
func (s *Svc) List(ctx context.Context, caller gate.Caller, f domain.ListFilter) ([]domain.Demand, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, perr.InvalidArgf("unknown schedule status %q", f.Status)
	}
	var out []domain.Demand
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).List(ctx, caller.TenantID, f)
		return err
	})
	return out, err
}

// Update patches one demand; schedule fields are owned by the materializer
// and cannot be edited here
func (s *Svc) Update(ctx context.Context, caller gate.Caller, id string, in domain.UpdateDemandInput) (domain.Demand, error) {
	var d domain.Demand
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		d, err = r.Get(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		if d.ScheduleStatus == domain.SchedulePublished {
			return perr.InvalidArgf("published demands are frozen; archive the schedule first")
		}

		apply(&d, in)
		if _, err := interval.NewSpan(d.StartTime, d.EndTime); err != nil {
			return err
		}
		if d.Procedure == "" {
			return perr.InvalidArgf("procedure is required")
		}
		return r.Update(ctx, d)
	})
	if err != nil {
		return domain.Demand{}, err
	}
	return d, nil
}

// Delete removes one demand; published schedule rows must be archived first
func (s *Svc) Delete(ctx context.Context, caller gate.Caller, id string) error {
	return store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		d, err := r.Get(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		if d.ScheduleStatus == domain.SchedulePublished {
			return perr.InvalidArgf("published demands are frozen; archive the schedule first")
		}
		ok, err := r.Delete(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		if !ok {
			return perr.NotFoundf("demand not found")
		}
		return nil
	})
}

// InsertExtracted persists extractor output rows for the worker, dropping
// ones with inverted windows instead of failing the batch
func (s *Svc) InsertExtracted(ctx context.Context, tenantID string, rows []domain.Demand) (int, error) {
	keep := make([]domain.Demand, 0, len(rows))
	for _, d := range rows {
		if _, err := interval.NewSpan(d.StartTime, d.EndTime); err != nil {
			continue
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		d.TenantID = tenantID
		d.Source = domain.SourceExtract
		keep = append(keep, d)
	}
	if len(keep) == 0 {
		return 0, nil
	}
	err := store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		return s.binder.Bind(q).InsertBatch(ctx, keep)
	})
	if err != nil {
		return 0, err
	}
	return len(keep), nil
}

func apply(d *domain.Demand, in domain.UpdateDemandInput) {
	if in.Room != nil {
		d.Room = *in.Room
	}
	if in.StartTime != nil {
		d.StartTime = in.StartTime.UTC()
	}
	if in.EndTime != nil {
		d.EndTime = in.EndTime.UTC()
	}
	if in.Procedure != nil {
		d.Procedure = *in.Procedure
	}
	if in.AnesthesiaType != nil {
		d.AnesthesiaType = *in.AnesthesiaType
	}
	if in.Complexity != nil {
		d.Complexity = *in.Complexity
	}
	if in.Skills != nil {
		d.Skills = *in.Skills
	}
	if in.Priority != nil {
		d.Priority = *in.Priority
	}
	if in.IsPediatric != nil {
		d.IsPediatric = *in.IsPediatric
	}
	if in.Notes != nil {
		d.Notes = *in.Notes
	}
}
