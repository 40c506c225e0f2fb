package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"turna/internal/modkit/repokit"
	"turna/internal/services/audit/domain"
)

type fakeTx struct{}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (repokit.CommandTag, error) {
	return nil, nil
}
func (f *fakeTx) Query(ctx context.Context, sql string, args ...any) (repokit.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) repokit.Row { return nil }
func (f *fakeTx) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error    { return fn(f) }

type fakeRepo struct {
	mu   sync.Mutex
	rows []domain.Row
	err  error
}

func (f *fakeRepo) Insert(_ context.Context, row domain.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeRepo) all() []domain.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Row(nil), f.rows...)
}

type fakeMirror struct {
	mu     sync.Mutex
	tables []string
	rows   [][]any
}

func (f *fakeMirror) Insert(_ context.Context, table string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = append(f.tables, table)
	if rs, ok := data.([][]any); ok {
		f.rows = append(f.rows, rs...)
	}
	return nil
}

func (f *fakeMirror) Query(context.Context, string, ...any) (repokit.Rows, error) { return nil, nil }
func (f *fakeMirror) Close() error                                               { return nil }

func binderFor(r domain.Repo) repokit.Binder[domain.Repo] {
	return repokit.BindFunc[domain.Repo](func(repokit.Queryer) domain.Repo { return r })
}

func TestEmitPersistsInBackground(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(&fakeTx{}, binderFor(repo), nil)

	svc.Emit(context.Background(), domain.Event{
		TenantID:  "ten-1",
		AccountID: "acc-1",
		MemberID:  "mem-1",
		Type:      domain.EventJobEnqueued,
		Data:      map[string]any{"job_id": "job-9", "kind": "PING"},
	})
	svc.Drain()

	rows := repo.all()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.ID == "" {
		t.Fatalf("row id not generated")
	}
	if row.TenantID != "ten-1" || row.AccountID != "acc-1" || row.MemberID != "mem-1" {
		t.Fatalf("caller fields lost: %+v", row)
	}
	if row.EventType != domain.EventJobEnqueued {
		t.Fatalf("event type %q", row.EventType)
	}
	var data map[string]any
	if err := json.Unmarshal(row.Data, &data); err != nil {
		t.Fatalf("data not json: %v", err)
	}
	if data["job_id"] != "job-9" {
		t.Fatalf("payload lost: %v", data)
	}
}

func TestEmitDropsUnderspecifiedEvents(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(&fakeTx{}, binderFor(repo), nil)

	svc.Emit(context.Background(), domain.Event{Type: domain.EventFileCreated}) // no account
	svc.Emit(context.Background(), domain.Event{AccountID: "acc-1"})            // no type
	svc.Drain()

	if got := len(repo.all()); got != 0 {
		t.Fatalf("rows = %d, want 0", got)
	}
}

func TestEmitSurvivesRepoFailure(t *testing.T) {
	repo := &fakeRepo{err: errors.New("boom")}
	svc := New(&fakeTx{}, binderFor(repo), nil)

	svc.Emit(context.Background(), domain.Event{
		AccountID: "acc-1",
		Type:      domain.EventMemberInvited,
	})
	svc.Drain() // must not panic or block
}

func TestEmitSurvivesCancelledRequest(t *testing.T) {
	repo := &fakeRepo{}
	svc := New(&fakeTx{}, binderFor(repo), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Emit(ctx, domain.Event{AccountID: "acc-1", Type: domain.EventMemberAccepted})
	svc.Drain()

	if got := len(repo.all()); got != 1 {
		t.Fatalf("detached write should land, rows = %d", got)
	}
}

func TestEmitMirrorsToColumnStore(t *testing.T) {
	repo := &fakeRepo{}
	mirror := &fakeMirror{}
	svc := New(&fakeTx{}, binderFor(repo), mirror)

	svc.Emit(context.Background(), domain.Event{
		TenantID:  "ten-1",
		AccountID: "acc-1",
		Type:      domain.EventSchedulePublished,
	})
	svc.Drain()

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	if len(mirror.tables) != 1 || mirror.tables[0] != "audit_events" {
		t.Fatalf("mirror tables %v", mirror.tables)
	}
	if len(mirror.rows) != 1 {
		t.Fatalf("mirror rows %d", len(mirror.rows))
	}
}
