// Package domain holds the job model plus the engine contracts
package domain

import (
	"encoding/json"
	"time"
)

// Kind selects the handler a worker runs for a job
type Kind string

const (
	// KindPing is the liveness probe kind; transient, never requeued
	KindPing Kind = "PING"
	// KindExtractDemand runs the document extraction pipeline
	KindExtractDemand Kind = "EXTRACT_DEMAND"
	// KindGenerateSchedule runs the allocation solver and materializes drafts
	KindGenerateSchedule Kind = "GENERATE_SCHEDULE"
	// KindGenerateThumbnail renders a preview for an uploaded image
	KindGenerateThumbnail Kind = "GENERATE_THUMBNAIL"
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindPing, KindExtractDemand, KindGenerateSchedule, KindGenerateThumbnail:
		return true
	}
	return false
}

// Transient reports whether k is a throwaway kind that requeue refuses
func (k Kind) Transient() bool { return k == KindPing }

// Status is the job lifecycle state; transitions form a DAG with FAILED
// resurrectable to PENDING only through requeue
type Status string

const (
	// StatusPending means enqueued, not yet claimed by a worker
	StatusPending Status = "PENDING"
	// StatusRunning means a worker claimed the job
	StatusRunning Status = "RUNNING"
	// StatusCompleted means the handler finished and the result is stored
	StatusCompleted Status = "COMPLETED"
	// StatusFailed covers handler errors, cancellation and orphan timeouts
	StatusFailed Status = "FAILED"
)

// Terminal reports whether s ends the lifecycle
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// Failure markers stored on the job's error column; the cancel marker is how
// a finishing worker distinguishes an operator cancel from its own failure
const (
	ErrCancelled = "cancelled by operator"
	ErrOrphaned  = "orphaned: no worker claimed the job within the stale window"
)

// Job is one unit of asynchronous work, tenant-owned
type Job struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	Kind        Kind            `json:"kind"`
	Status      Status          `json:"status"`
	Fingerprint string          `json:"-"`
	Input       json.RawMessage `json:"input,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Message is the broker payload; the tenant rides along so the worker can
// scope its transaction before touching the row
type Message struct {
	JobID    string `json:"job_id"`
	TenantID string `json:"tenant_id"`
	Kind     Kind   `json:"kind"`
}

// StatusEvent is one snapshot on the job status stream
type StatusEvent struct {
	Status Status          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
