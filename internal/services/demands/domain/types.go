// Package domain holds the surgical demand model plus service contracts
package domain

import (
	"encoding/json"
	"time"
)

// ScheduleStatus is the lifecycle of the allocation attached to a demand
type ScheduleStatus string

const (
	// ScheduleDraft marks a solver allocation not yet published
	ScheduleDraft ScheduleStatus = "DRAFT"
	// SchedulePublished marks an allocation rendered to PDF and frozen
	SchedulePublished ScheduleStatus = "PUBLISHED"
	// ScheduleArchived marks a retired published allocation
	ScheduleArchived ScheduleStatus = "ARCHIVED"
)

// Valid reports whether s is a known schedule status
func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleDraft, SchedulePublished, ScheduleArchived:
		return true
	}
	return false
}

// Source tags where a demand row came from
const (
	SourceManual  = "manual"
	SourceExtract = "extract"
)

// Demand is one surgical case needing anesthesiology cover. The same row
// doubles as the assignment record: the solver writes the member and the
// allocation payload back onto it
type Demand struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	HospitalID     string          `json:"hospital_id,omitempty"`
	JobID          string          `json:"job_id,omitempty"`
	Room           string          `json:"room,omitempty"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	Procedure      string          `json:"procedure"`
	AnesthesiaType string          `json:"anesthesia_type,omitempty"`
	Complexity     string          `json:"complexity,omitempty"`
	Skills         []string        `json:"skills,omitempty"`
	Priority       string          `json:"priority,omitempty"`
	IsPediatric    bool            `json:"is_pediatric"`
	Notes          string          `json:"notes,omitempty"`
	Source         string          `json:"source,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	ScheduleStatus        ScheduleStatus  `json:"schedule_status,omitempty"`
	ScheduleName          string          `json:"schedule_name,omitempty"`
	ScheduleVersionNumber int             `json:"schedule_version_number"`
	ScheduleResultData    json.RawMessage `json:"schedule_result_data,omitempty"`
	MemberID              string          `json:"member_id,omitempty"`
	PdfFileID             string          `json:"pdf_file_id,omitempty"`
	GeneratedAt           *time.Time      `json:"generated_at,omitempty"`
	PublishedAt           *time.Time      `json:"published_at,omitempty"`
}
