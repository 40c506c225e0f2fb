package domain

import (
	"context"
	"time"

	"turna/internal/modkit/gate"
)

// CreateDemandInput is a manual demand entry
type CreateDemandInput struct {
	HospitalID     string    `json:"hospital_id" validate:"required,uuid4"`
	Room           string    `json:"room"`
	StartTime      time.Time `json:"start_time" validate:"required"`
	EndTime        time.Time `json:"end_time" validate:"required"`
	Procedure      string    `json:"procedure" validate:"required"`
	AnesthesiaType string    `json:"anesthesia_type"`
	Complexity     string    `json:"complexity"`
	Skills         []string  `json:"skills"`
	Priority       string    `json:"priority"`
	IsPediatric    bool      `json:"is_pediatric"`
	Notes          string    `json:"notes"`
}

// UpdateDemandInput patches mutable demand fields; nil pointers keep values
type UpdateDemandInput struct {
	Room           *string    `json:"room"`
	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	Procedure      *string    `json:"procedure"`
	AnesthesiaType *string    `json:"anesthesia_type"`
	Complexity     *string    `json:"complexity"`
	Skills         *[]string  `json:"skills"`
	Priority       *string    `json:"priority"`
	IsPediatric    *bool      `json:"is_pediatric"`
	Notes          *string    `json:"notes"`
}

// ListFilter narrows a demand listing
type ListFilter struct {
	HospitalID string
	From       time.Time // inclusive on start_time
	To         time.Time // exclusive on start_time
	Status     ScheduleStatus
}

// ServicePort is the demands contract consumed by transport and the worker
type ServicePort interface {
	Create(ctx context.Context, caller gate.Caller, in CreateDemandInput) (Demand, error)
	Get(ctx context.Context, caller gate.Caller, id string) (Demand, error)
	List(ctx context.Context, caller gate.Caller, f ListFilter) ([]Demand, error)
	Update(ctx context.Context, caller gate.Caller, id string, in UpdateDemandInput) (Demand, error)
	Delete(ctx context.Context, caller gate.Caller, id string) error

	// InsertExtracted persists demands produced by an extraction job; the
	// tenant comes from the job row, not a session
	InsertExtracted(ctx context.Context, tenantID string, rows []Demand) (int, error)
}

// Repo is the storage contract bound per-queryer
type Repo interface {
	Insert(ctx context.Context, d Demand) error
	InsertBatch(ctx context.Context, rows []Demand) error
	Get(ctx context.Context, tenantID, id string) (Demand, error)
	List(ctx context.Context, tenantID string, f ListFilter) ([]Demand, error)
	Update(ctx context.Context, d Demand) error
	Delete(ctx context.Context, tenantID, id string) (bool, error)
	HospitalExists(ctx context.Context, tenantID, id string) (bool, error)
}
