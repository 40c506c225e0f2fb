package domain

import (
	"context"
	"encoding/json"
	"time"

	"turna/internal/modkit/gate"
	ddom "turna/internal/services/demands/domain"
	identdom "turna/internal/services/identity/domain"
	tendom "turna/internal/services/tenants/domain"
)

// ServicePort is the schedule contract consumed by transport. Generation
// itself runs as a job; enqueueing lives with the jobs module
type ServicePort interface {
	Publish(ctx context.Context, caller gate.Caller, demandID string) (PublishOutput, error)
	Delete(ctx context.Context, caller gate.Caller, demandID string) error
	Archive(ctx context.Context, caller gate.Caller, demandID string) (ScheduleView, error)
	Get(ctx context.Context, caller gate.Caller, demandID string) (ScheduleView, error)
	List(ctx context.Context, caller gate.Caller, status ddom.ScheduleStatus) ([]ScheduleView, error)
}

// Renderer turns a schedule document into PDF bytes
type Renderer interface {
	Render(doc Doc) ([]byte, error)
}

// Roster lists the schedulable professionals of a tenant
type Roster interface {
	ActivePros(ctx context.Context, tenantID string) ([]identdom.Member, error)
}

// TenantLoader resolves tenant settings for the worker
type TenantLoader interface {
	Load(ctx context.Context, tenantID string) (tendom.Tenant, error)
}

// ScheduleWrite is one draft write-back produced by the solver
type ScheduleWrite struct {
	DemandID    string
	MemberID    string
	Name        string
	ResultData  json.RawMessage
	JobID       string
	GeneratedAt time.Time
}

// FileRow is the published PDF's file record
type FileRow struct {
	ID          string
	TenantID    string
	HospitalID  string
	Filename    string
	ContentType string
	BlobKey     string
	FileSize    int64
}

// Repo is the storage contract bound per-queryer. It operates on the same
// demands table as the demands service but owns the schedule columns
type Repo interface {
	ListDemandsForPeriod(ctx context.Context, tenantID string, from, to time.Time, hospitalID string) ([]ddom.Demand, error)
	GetDemand(ctx context.Context, tenantID, id string) (ddom.Demand, error)
	// Siblings returns every schedule-bearing demand written by one job
	Siblings(ctx context.Context, tenantID, jobID string) ([]ddom.Demand, error)
	// ApplyAllocations writes all draft rows of one generation; the caller
	// wraps them in a single transaction
	ApplyAllocations(ctx context.Context, tenantID string, writes []ScheduleWrite) error
	MarkPublished(ctx context.Context, tenantID, demandID, pdfFileID string, at time.Time) error
	// ResetDraft clears every schedule column of a DRAFT row
	ResetDraft(ctx context.Context, tenantID, demandID string) (bool, error)
	Archive(ctx context.Context, tenantID, demandID string, at time.Time) (bool, error)
	ListSchedules(ctx context.Context, tenantID string, status ddom.ScheduleStatus) ([]ddom.Demand, error)
	// GetJobResult reads another job's stored result, tenant-scoped
	GetJobResult(ctx context.Context, tenantID, jobID string) (json.RawMessage, error)
	InsertFile(ctx context.Context, f FileRow) error
	GetFileBlobKey(ctx context.Context, tenantID, fileID string) (string, error)
}
