package domain

import (
	"context"

	"turna/internal/modkit/gate"
)

// ServicePort is the tenants contract consumed by transport and other modules
type ServicePort interface {
	CreateTenant(ctx context.Context, caller gate.Caller, in CreateTenantInput) (Tenant, error)
	GetTenant(ctx context.Context, caller gate.Caller) (Tenant, error)
	UpdateTenant(ctx context.Context, caller gate.Caller, in UpdateTenantInput) (Tenant, error)

	ListHospitals(ctx context.Context, caller gate.Caller) ([]Hospital, error)
	CreateHospital(ctx context.Context, caller gate.Caller, in CreateHospitalInput) (Hospital, error)
	UpdateHospital(ctx context.Context, caller gate.Caller, hospitalID string, in UpdateHospitalInput) (Hospital, error)
	DeleteHospital(ctx context.Context, caller gate.Caller, hospitalID string) error

	// Load and LoadHospital are worker-side fetches; the tenant comes from
	// the job row, not a session
	Load(ctx context.Context, tenantID string) (Tenant, error)
	LoadHospital(ctx context.Context, tenantID, hospitalID string) (Hospital, error)
}

// Repo is the storage contract bound per-queryer
type Repo interface {
	InsertTenant(ctx context.Context, t Tenant) error
	GetTenant(ctx context.Context, id string) (Tenant, error)
	UpdateTenant(ctx context.Context, t Tenant) error
	InsertFounder(ctx context.Context, f Founder) error

	ListHospitals(ctx context.Context, tenantID string) ([]Hospital, error)
	GetHospital(ctx context.Context, tenantID, id string) (Hospital, error)
	InsertHospital(ctx context.Context, h Hospital) error
	UpdateHospital(ctx context.Context, h Hospital) error
	DeleteHospital(ctx context.Context, tenantID, id string) (bool, error)
}

// Founder is the first admin member created with a tenant bootstrap
type Founder struct {
	MemberID  string
	TenantID  string
	AccountID string
	Email     string
	Name      string
}
