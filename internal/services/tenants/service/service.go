// Package service contains tenant and hospital workflows
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/store"
	auditdom "turna/internal/services/audit/domain"
	"turna/internal/services/tenants/domain"
)

// Service is the tenants contract
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.Repo]
	audit  auditdom.RecorderPort
}

// New creates the tenants service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo], audit auditdom.RecorderPort) *Svc {
	if db == nil {
		panic("tenants.Service requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("tenants.Service requires a non-nil Repo binder")
	}
	if audit == nil {
		panic("tenants.Service requires a non-nil audit recorder")
	}
	return &Svc{db: db, binder: binder, audit: audit}
}

// CreateTenant bootstraps a tenant and makes the caller its first admin member
// callable with an account-stage token, before any tenant is selected
func (s *Svc) CreateTenant(ctx context.Context, caller gate.Caller, in domain.CreateTenantInput) (domain.Tenant, error) {
	if err := validateZone(in.Timezone); err != nil {
		return domain.Tenant{}, err
	}
	if err := validateLocale(in.Locale); err != nil {
		return domain.Tenant{}, err
	}

	t := domain.Tenant{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(in.Name),
		Label:    strings.TrimSpace(in.Label),
		Timezone: in.Timezone,
		Locale:   in.Locale,
		Currency: strings.ToUpper(in.Currency),
	}
	founder := domain.Founder{
		MemberID:  uuid.NewString(),
		TenantID:  t.ID,
		AccountID: caller.AccountID,
	}

	err := store.RunInTenant(ctx, s.db, t.ID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if err := r.InsertTenant(ctx, t); err != nil {
			return err
		}
		return r.InsertFounder(ctx, founder)
	})
	if err != nil {
		return domain.Tenant{}, err
	}

	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  t.ID,
		AccountID: caller.AccountID,
		MemberID:  founder.MemberID,
		Type:      auditdom.EventTenantCreated,
		Data:      map[string]any{"tenant_id": t.ID, "name": t.Name},
	})
	t.CreatedAt = time.Now().UTC()
	return t, nil
}

// GetTenant returns the caller's tenant profile
func (s *Svc) GetTenant(ctx context.Context, caller gate.Caller) (domain.Tenant, error) {
	var t domain.Tenant
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		t, err = s.binder.Bind(q).GetTenant(ctx, caller.TenantID)
		return err
	})
	return t, err
}

// UpdateTenant patches tenant settings, admin only
func (s *Svc) UpdateTenant(ctx context.Context, caller gate.Caller, in domain.UpdateTenantInput) (domain.Tenant, error) {
	if !caller.IsAdmin() {
		return domain.Tenant{}, perr.Forbiddenf("admin role required")
	}
	if in.Timezone != nil {
		if err := validateZone(*in.Timezone); err != nil {
			return domain.Tenant{}, err
		}
	}
	if in.Locale != nil {
		if err := validateLocale(*in.Locale); err != nil {
			return domain.Tenant{}, err
		}
	}

	var t domain.Tenant
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		cur, err := r.GetTenant(ctx, caller.TenantID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			cur.Name = strings.TrimSpace(*in.Name)
		}
		if in.Label != nil {
			cur.Label = strings.TrimSpace(*in.Label)
		}
		if in.Timezone != nil {
			cur.Timezone = *in.Timezone
		}
		if in.Locale != nil {
			cur.Locale = *in.Locale
		}
		if in.Currency != nil {
			cur.Currency = strings.ToUpper(*in.Currency)
		}
		if err := r.UpdateTenant(ctx, cur); err != nil {
			return err
		}
		t = cur
		return nil
	})
	if err != nil {
		return domain.Tenant{}, err
	}

	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  caller.TenantID,
		AccountID: caller.AccountID,
		MemberID:  caller.MemberID,
		Type:      auditdom.EventTenantUpdated,
		Data:      map[string]any{"tenant_id": caller.TenantID},
	})
	return t, nil
}

// ListHospitals returns the tenant's hospitals ordered by name
func (s *Svc) ListHospitals(ctx context.Context, caller gate.Caller) ([]domain.Hospital, error) {
	var out []domain.Hospital
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).ListHospitals(ctx, caller.TenantID)
		return err
	})
	return out, err
}

// CreateHospital registers a hospital, admin only
func (s *Svc) CreateHospital(ctx context.Context, caller gate.Caller, in domain.CreateHospitalInput) (domain.Hospital, error) {
	if !caller.IsAdmin() {
		return domain.Hospital{}, perr.Forbiddenf("admin role required")
	}

	h := domain.Hospital{
		ID:       uuid.NewString(),
		TenantID: caller.TenantID,
		Name:     strings.TrimSpace(in.Name),
		Label:    strings.TrimSpace(in.Label),
		Prompt:   in.Prompt,
		Color:    in.Color,
	}
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		return s.binder.Bind(q).InsertHospital(ctx, h)
	})
	if err != nil {
		return domain.Hospital{}, err
	}
	return h, nil
}

// UpdateHospital patches a hospital, admin only
func (s *Svc) UpdateHospital(ctx context.Context, caller gate.Caller, hospitalID string, in domain.UpdateHospitalInput) (domain.Hospital, error) {
	if !caller.IsAdmin() {
		return domain.Hospital{}, perr.Forbiddenf("admin role required")
	}

	var h domain.Hospital
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		cur, err := r.GetHospital(ctx, caller.TenantID, hospitalID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			cur.Name = strings.TrimSpace(*in.Name)
		}
		if in.Label != nil {
			cur.Label = strings.TrimSpace(*in.Label)
		}
		if in.Prompt != nil {
			cur.Prompt = *in.Prompt
		}
		if in.Color != nil {
			cur.Color = *in.Color
		}
		if err := r.UpdateHospital(ctx, cur); err != nil {
			return err
		}
		h = cur
		return nil
	})
	if err != nil {
		return domain.Hospital{}, err
	}
	return h, nil
}

// DeleteHospital removes a hospital, admin only
func (s *Svc) DeleteHospital(ctx context.Context, caller gate.Caller, hospitalID string) error {
	if !caller.IsAdmin() {
		return perr.Forbiddenf("admin role required")
	}
	return store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		ok, err := s.binder.Bind(q).DeleteHospital(ctx, caller.TenantID, hospitalID)
		if err != nil {
			return err
		}
		if !ok {
			return perr.NotFoundf("hospital not found")
		}
		return nil
	})
}

// Load fetches a tenant on behalf of the worker, scoped by the job's tenant
func (s *Svc) Load(ctx context.Context, tenantID string) (domain.Tenant, error) {
	var t domain.Tenant
	err := store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		t, err = s.binder.Bind(q).GetTenant(ctx, tenantID)
		return err
	})
	return t, err
}

// LoadHospital fetches a hospital on behalf of the worker
func (s *Svc) LoadHospital(ctx context.Context, tenantID, hospitalID string) (domain.Hospital, error) {
	var h domain.Hospital
	err := store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		h, err = s.binder.Bind(q).GetHospital(ctx, tenantID, hospitalID)
		return err
	})
	return h, err
}

func validateZone(tz string) error {
	if _, err := time.LoadLocation(tz); err != nil {
		return perr.InvalidArgf("unknown IANA timezone %q", tz)
	}
	return nil
}

func validateLocale(loc string) error {
	if _, err := language.Parse(loc); err != nil {
		return perr.InvalidArgf("unparseable locale %q", loc)
	}
	return nil
}
