// Package service implements the append-only audit recorder
package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"turna/internal/modkit/repokit"
	"turna/internal/platform/logger"
	"turna/internal/platform/store"
	"turna/internal/services/audit/domain"
)

const writeTimeout = 5 * time.Second

// Service is the audit contract other services depend on
type Service interface{ domain.RecorderPort }

// Svc persists events in short standalone transactions
// a failed write never reaches the caller, audit is best-effort by contract
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.Repo]
	mirror store.Clickhouse // optional columnar copy, nil when CH is off

	wg sync.WaitGroup
}

// New constructs the audit recorder; mirror may be nil
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo], mirror store.Clickhouse) *Svc {
	if db == nil {
		panic("audit.Service requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("audit.Service requires a non-nil Repo binder")
	}
	return &Svc{db: db, binder: binder, mirror: mirror}
}

// Emit records ev in the background and returns immediately
// the write detaches from the caller's cancellation so an aborted request
// still leaves its trail
func (s *Svc) Emit(ctx context.Context, ev domain.Event) {
	if ev.AccountID == "" || ev.Type == "" {
		logger.Named("audit").Warn().Str("event_type", ev.Type).Msg("dropping underspecified audit event")
		return
	}

	data, err := json.Marshal(ev.Data)
	if err != nil {
		logger.Named("audit").Warn().Err(err).Str("event_type", ev.Type).Msg("audit payload not serializable")
		data = []byte(`{}`)
	}
	row := domain.Row{
		ID:        uuid.NewString(),
		TenantID:  ev.TenantID,
		AccountID: ev.AccountID,
		MemberID:  ev.MemberID,
		EventType: ev.Type,
		Data:      data,
	}

	detached := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.write(detached, row)
	}()
}

// Drain blocks until every emitted event has been attempted, for shutdown and tests
func (s *Svc) Drain() { s.wg.Wait() }

func (s *Svc) write(ctx context.Context, row domain.Row) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	log := logger.Named("audit")

	run := func(ctx context.Context, q repokit.Queryer) error {
		return s.binder.Bind(q).Insert(ctx, row)
	}
	var err error
	if row.TenantID != "" {
		err = store.RunInTenant(ctx, s.db, row.TenantID, run)
	} else {
		err = store.RunAsSuperadmin(ctx, s.db, run)
	}
	if err != nil {
		log.Warn().Err(err).Str("event_type", row.EventType).Msg("audit write failed")
		return
	}

	if s.mirror == nil {
		return
	}
	mrow := []any{row.ID, row.TenantID, row.AccountID, row.MemberID, row.EventType, string(row.Data), time.Now().UTC()}
	if err := s.mirror.Insert(ctx, "audit_events", [][]any{mrow}); err != nil {
		log.Warn().Err(err).Str("event_type", row.EventType).Msg("audit mirror write failed")
	}
}
