package domain

import (
	"context"
	"encoding/json"
	"time"

	"turna/internal/modkit/gate"
)

// EnqueueInput is a request to run one job
type EnqueueInput struct {
	Kind  Kind            `json:"kind"`
	Input json.RawMessage `json:"input"`
}

// RequeueInput tunes the admin requeue of a failed or stale job
type RequeueInput struct {
	Force      bool `json:"force"`
	WipeResult bool `json:"wipe_result"`
}

// ListFilter narrows a job listing; zero values mean no filter
type ListFilter struct {
	Kind   Kind
	Status Status
	Limit  int
	Offset int
}

// ProcessOutcome reports what a worker did with a claimed message.
// Skips ack the message without failing anything
type ProcessOutcome struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// ReconcileReport summarizes one orphan sweep
type ReconcileReport struct {
	Scanned int `json:"scanned"`
	Failed  int `json:"failed"`
}

// ServicePort is the job engine contract consumed by transport
type ServicePort interface {
	Enqueue(ctx context.Context, caller gate.Caller, in EnqueueInput) (Job, error)
	Get(ctx context.Context, caller gate.Caller, id string) (Job, error)
	List(ctx context.Context, caller gate.Caller, f ListFilter) ([]Job, error)
	Cancel(ctx context.Context, caller gate.Caller, id string) (Job, error)
	Requeue(ctx context.Context, caller gate.Caller, id string, in RequeueInput) (Job, error)
	// Stream pushes a snapshot on every status transition until the job is
	// terminal, the stream ceiling passes, or send returns an error
	Stream(ctx context.Context, caller gate.Caller, id string, send func(StatusEvent) error) error
}

// WorkerPort is the broker-facing side of the engine
type WorkerPort interface {
	Process(ctx context.Context, msg Message) (ProcessOutcome, error)
}

// ReconcilerPort sweeps PENDING rows no worker ever claimed
type ReconcilerPort interface {
	ReconcilePendingOrphans(ctx context.Context) (ReconcileReport, error)
}

// Handler runs one job kind; the returned value becomes the job result
type Handler interface {
	Run(ctx context.Context, job Job) (any, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, job Job) (any, error)

// Run implements Handler
func (f HandlerFunc) Run(ctx context.Context, job Job) (any, error) { return f(ctx, job) }

// Broker is the publish side of the external message queue
type Broker interface {
	Publish(ctx context.Context, msg Message) error
}

// Repo is the storage contract bound per-queryer. Status transitions are
// compare-and-set; callers re-read refused transitions to diagnose
type Repo interface {
	Insert(ctx context.Context, j Job) error
	Get(ctx context.Context, tenantID, id string) (Job, error)
	List(ctx context.Context, tenantID string, f ListFilter) ([]Job, error)
	// FindActive returns a PENDING or RUNNING job with the same fingerprint
	FindActive(ctx context.Context, tenantID string, kind Kind, fingerprint string) (Job, bool, error)
	// MarkRunning is the PENDING -> RUNNING claim
	MarkRunning(ctx context.Context, tenantID, id string, at time.Time) (bool, error)
	// Complete commits a result only while the row is still RUNNING, so a
	// concurrent cancel is never overwritten
	Complete(ctx context.Context, tenantID, id string, result []byte, at time.Time) (bool, error)
	// Fail moves any non-terminal row to FAILED with a sanitized message
	Fail(ctx context.Context, tenantID, id, msg string, at time.Time) (bool, error)
	// ResetPending rewinds a job for requeue: PENDING, no error, no timestamps
	ResetPending(ctx context.Context, tenantID, id string, wipeResult bool) error
	Status(ctx context.Context, tenantID, id string) (StatusEvent, error)
	// AvgRecentDuration averages completed_at-started_at over the last n
	// COMPLETED jobs of the kind; n==0 means no history
	AvgRecentDuration(ctx context.Context, tenantID string, kind Kind, lastN int) (time.Duration, int, error)
	// ListPendingUnstarted returns all PENDING rows without started_at across
	// tenants, oldest first; reconciler only
	ListPendingUnstarted(ctx context.Context) ([]Job, error)
}
