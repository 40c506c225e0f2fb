// Package domain holds the schedule materializer model: solver input
// resolution, the persisted allocation payload and the per-day views
package domain

import (
	"time"
)

// Generation modes: where the solver's demands come from
const (
	// ModeFromDemands reads Demand rows and writes allocations back as drafts
	ModeFromDemands = "from_demands"
	// ModeFromExtract previews an allocation over a prior extraction job's
	// output; nothing is written to demand rows
	ModeFromExtract = "from_extract"
)

// GenerateInput is the GENERATE_SCHEDULE job input
type GenerateInput struct {
	Mode           string `json:"mode"`                    // from_demands | from_extract
	PeriodStart    string `json:"period_start"`            // civil date, YYYY-MM-DD in the tenant zone
	PeriodDays     int    `json:"period_days"`             // N, period covers days 1..N
	HospitalID     string `json:"hospital_id,omitempty"`   // optional demand filter
	AllocationMode string `json:"allocation_mode"`         // greedy | cpsat
	BaseName       string `json:"base_name,omitempty"`     // schedule_name prefix
	BaseShift      int    `json:"base_shift,omitempty"`    // rotation seed
	ExtractJobID   string `json:"extract_job_id,omitempty"` // from_extract source
}

// Metadata rides inside every persisted allocation
type Metadata struct {
	AllocationMode string    `json:"allocation_mode"`
	TotalCost      int       `json:"total_cost"`
	Mode           string    `json:"mode"`
	GeneratedAt    time.Time `json:"generated_at"`
	JobID          string    `json:"job_id"`
	Sequence       int       `json:"sequence"`
	ExtractJobID   string    `json:"extract_job_id,omitempty"`
}

// Allocation is the persisted schedule_result_data of one demand row. The
// storage is fragmented: each row carries its own allocation and the full
// per-day picture is reconstructed from job siblings on publish
type Allocation struct {
	Member      string   `json:"member"`
	MemberID    string   `json:"member_id"`
	ID          string   `json:"id"` // demand token in solver space
	Day         int      `json:"day"`
	Start       float64  `json:"start"`
	End         float64  `json:"end"`
	IsPediatric bool     `json:"is_pediatric"`
	DemandID    string   `json:"demand_id"`
	HospitalID  string   `json:"hospital_id,omitempty"`
	Metadata    Metadata `json:"metadata"`

	// PerDay is only present on master-style rows written by older
	// generators; when set, publish uses it instead of sibling scans
	PerDay []DayView `json:"per_day,omitempty"`
}

// Entry is one assignment inside a day view
type Entry struct {
	MemberID    string  `json:"member_id,omitempty"`
	MemberName  string  `json:"member_name,omitempty"`
	DemandToken string  `json:"demand_token"`
	DemandID    string  `json:"demand_id,omitempty"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	IsPediatric bool    `json:"is_pediatric"`
	HospitalID  string  `json:"hospital_id,omitempty"`
	Procedure   string  `json:"procedure,omitempty"`
	Room        string  `json:"room,omitempty"`
}

// DayView is the reconstructed allocation of one period day
type DayView struct {
	Day     int     `json:"day"`
	Entries []Entry `json:"entries"`
}

// ScheduleView is the API and renderer shape of one schedule
type ScheduleView struct {
	DemandID    string     `json:"demand_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Version     int        `json:"version"`
	JobID       string     `json:"job_id,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	PdfFileID   string     `json:"pdf_file_id,omitempty"`
	TotalCost   int        `json:"total_cost"`
	Days        []DayView  `json:"days"`
}

// PublishOutput is the publish response: idempotent on the file id
type PublishOutput struct {
	DemandID  string `json:"demand_id"`
	Status    string `json:"status"`
	PdfFileID string `json:"pdf_file_id"`
	URL       string `json:"url"`
}

// GenerateReport is the GENERATE_SCHEDULE job result
type GenerateReport struct {
	Mode           string   `json:"mode"`
	AllocationMode string   `json:"allocation_mode"`
	TotalCost      int      `json:"total_cost"`
	Days           int      `json:"days"`
	Assigned       int      `json:"assigned"`
	Unassigned     int      `json:"unassigned"`
	RowsWritten    int      `json:"rows_written"`
	Infeasible     bool     `json:"infeasible,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Diagnostics    []string `json:"diagnostics,omitempty"`
}

// Doc is the renderer model for the published PDF
type Doc struct {
	Title      string    `json:"title"`
	TenantName string    `json:"tenant_name"`
	Timezone   string    `json:"timezone"`
	Days       []DayView `json:"days"`
}
