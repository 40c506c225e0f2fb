// Package domain models demand extraction from uploaded source documents
package domain

import (
	"context"
)

// ExtractInput is the EXTRACT_DEMAND job input
type ExtractInput struct {
	FileID string `json:"file_id"`
	// PersistDemands inserts the extracted rows as Demand rows bound to the
	// job; default is result-only
	PersistDemands bool `json:"persist_demands,omitempty"`
}

// ExtractedDemand is one staffing window pulled out of a document.
// Date is a civil date in the tenant zone; times are wall-clock HH:MM
type ExtractedDemand struct {
	Date           string `json:"date"`       // YYYY-MM-DD
	StartTime      string `json:"start_time"` // HH:MM
	EndTime        string `json:"end_time"`   // HH:MM
	Procedure      string `json:"procedure,omitempty"`
	Room           string `json:"room,omitempty"`
	AnesthesiaType string `json:"anesthesia_type,omitempty"`
	Complexity     string `json:"complexity,omitempty"`
	Priority       string `json:"priority,omitempty"`
	IsPediatric    bool   `json:"is_pediatric"`
	Notes          string `json:"notes,omitempty"`
}

// Meta identifies the source document inside a stored result
type Meta struct {
	FileID       string `json:"file_id"`
	Filename     string `json:"filename"`
	HospitalID   string `json:"hospital_id,omitempty"`
	HospitalName string `json:"hospital_name,omitempty"`
}

// Result is the EXTRACT_DEMAND job result
type Result struct {
	Demands   []ExtractedDemand `json:"demands"`
	Warnings  []string          `json:"warnings,omitempty"`
	Persisted int               `json:"persisted,omitempty"`
	Meta      Meta              `json:"meta"`
}

// Extractor turns a local document into demand rows. The prompt is the
// hospital's extraction template; implementations may ignore it
type Extractor interface {
	Extract(ctx context.Context, path, contentType, prompt string) ([]ExtractedDemand, []string, error)
}
