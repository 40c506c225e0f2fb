package domain

import "context"

// RecorderPort records audit events without ever failing the caller
// Emit returns immediately; persistence happens on a background goroutine in
// its own transaction and failures are logged, not surfaced
type RecorderPort interface {
	Emit(ctx context.Context, ev Event)
}

// Repo is the storage contract for audit rows
type Repo interface {
	Insert(ctx context.Context, row Row) error
}

// Row is the persisted shape of an Event
type Row struct {
	ID        string
	TenantID  string
	AccountID string
	MemberID  string
	EventType string
	Data      []byte
}
