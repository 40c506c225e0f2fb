// Package repo provides Postgres bindings for the job engine
package repo

import (
	"context"
	"time"

	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	"turna/internal/services/jobs/domain"
)

type (
	// PG is a Postgres binder for domain.Repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

var _ domain.Repo = (*queries)(nil)

// NewPG returns a Postgres binder for Repo
func NewPG() repokit.Binder[domain.Repo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.Repo { return &queries{q: q} }

const jobCols = `
id::text, tenant_id::text, kind, status, coalesce(fingerprint,''),
coalesce(input,'null'::jsonb), coalesce(result,'null'::jsonb), coalesce(error,''),
created_at, updated_at, started_at, completed_at
`

func scanJob(row interface{ Scan(...any) error }) (domain.Job, error) {
	var j domain.Job
	err := row.Scan(
		&j.ID, &j.TenantID, &j.Kind, &j.Status, &j.Fingerprint,
		&j.Input, &j.Result, &j.Error,
		&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.CompletedAt,
	)
	return j, err
}

func (r *queries) Insert(ctx context.Context, j domain.Job) error {
	const sql = `
insert into jobs (id, tenant_id, kind, status, fingerprint, input, created_at, updated_at)
values ($1, $2, $3, $4, nullif($5,''), $6, now(), now())
`
	_, err := r.q.Exec(ctx, sql, j.ID, j.TenantID, j.Kind, j.Status, j.Fingerprint, j.Input)
	return perr.FromPostgres(err, "insert job")
}

func (r *queries) Get(ctx context.Context, tenantID, id string) (domain.Job, error) {
	const sql = `select ` + jobCols + ` from jobs where tenant_id = $1 and id = $2`
	j, err := scanJob(r.q.QueryRow(ctx, sql, tenantID, id))
	if perr.IsNoRows(err) {
		return domain.Job{}, perr.NotFoundf("job not found")
	}
	return j, perr.FromPostgres(err, "get job")
}

func (r *queries) List(ctx context.Context, tenantID string, f domain.ListFilter) ([]domain.Job, error) {
	const sql = `
select ` + jobCols + `
from jobs
where tenant_id = $1
  and ($2 = '' or kind = $2)
  and ($3 = '' or status = $3)
order by created_at desc
limit $4 offset $5
`
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, sql, tenantID, string(f.Kind), string(f.Status), limit, max(0, f.Offset))
	if err != nil {
		return nil, perr.FromPostgres(err, "list jobs")
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, perr.FromPostgres(err, "scan job")
		}
		out = append(out, j)
	}
	return out, perr.FromPostgres(rows.Err(), "list jobs")
}

// FindActive returns the newest non-terminal job for a fingerprint.
// Enqueue dedupe is read-then-insert inside one tx: two concurrent enqueues
// of the same fingerprint can both miss here and insert, and the spare job is
// tolerated. A partial unique index jobs_active_fingerprint_key on
// (tenant_id, kind, fingerprint) where status in ('PENDING','RUNNING') plus
// an on conflict clause on Insert would close that window
func (r *queries) FindActive(ctx context.Context, tenantID string, kind domain.Kind, fingerprint string) (domain.Job, bool, error) {
	const sql = `
select ` + jobCols + `
from jobs
where tenant_id = $1 and kind = $2 and fingerprint = $3 and status in ('PENDING','RUNNING')
order by created_at desc
limit 1
`
	j, err := scanJob(r.q.QueryRow(ctx, sql, tenantID, kind, fingerprint))
	if perr.IsNoRows(err) {
		return domain.Job{}, false, nil
	}
	if err != nil {
		return domain.Job{}, false, perr.FromPostgres(err, "find active job")
	}
	return j, true, nil
}

func (r *queries) MarkRunning(ctx context.Context, tenantID, id string, at time.Time) (bool, error) {
	const sql = `
update jobs
set status = 'RUNNING', started_at = $3, updated_at = now()
where tenant_id = $1 and id = $2 and status = 'PENDING'
`
	tag, err := r.q.Exec(ctx, sql, tenantID, id, at)
	if err != nil {
		return false, perr.FromPostgres(err, "claim job")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) Complete(ctx context.Context, tenantID, id string, result []byte, at time.Time) (bool, error) {
	const sql = `
update jobs
set status = 'COMPLETED', result = $3, completed_at = $4, updated_at = now()
where tenant_id = $1 and id = $2 and status = 'RUNNING'
`
	tag, err := r.q.Exec(ctx, sql, tenantID, id, result, at)
	if err != nil {
		return false, perr.FromPostgres(err, "complete job")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) Fail(ctx context.Context, tenantID, id, msg string, at time.Time) (bool, error) {
	const sql = `
update jobs
set status = 'FAILED', error = $3, completed_at = $4, updated_at = now()
where tenant_id = $1 and id = $2 and status in ('PENDING','RUNNING')
`
	tag, err := r.q.Exec(ctx, sql, tenantID, id, msg, at)
	if err != nil {
		return false, perr.FromPostgres(err, "fail job")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) ResetPending(ctx context.Context, tenantID, id string, wipeResult bool) error {
	const sql = `
update jobs
set status = 'PENDING', error = null, started_at = null, completed_at = null,
    result = case when $3 then null else result end,
    updated_at = now()
where tenant_id = $1 and id = $2
`
	tag, err := r.q.Exec(ctx, sql, tenantID, id, wipeResult)
	if err != nil {
		return perr.FromPostgres(err, "reset job")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("job not found")
	}
	return nil
}

func (r *queries) Status(ctx context.Context, tenantID, id string) (domain.StatusEvent, error) {
	const sql = `
select status, coalesce(result,'null'::jsonb), coalesce(error,'')
from jobs
where tenant_id = $1 and id = $2
`
	var ev domain.StatusEvent
	err := r.q.QueryRow(ctx, sql, tenantID, id).Scan(&ev.Status, &ev.Result, &ev.Error)
	if perr.IsNoRows(err) {
		return domain.StatusEvent{}, perr.NotFoundf("job not found")
	}
	return ev, perr.FromPostgres(err, "job status")
}

func (r *queries) AvgRecentDuration(ctx context.Context, tenantID string, kind domain.Kind, lastN int) (time.Duration, int, error) {
	const sql = `
select coalesce(avg(extract(epoch from completed_at - started_at)), 0), count(*)
from (
  select started_at, completed_at
  from jobs
  where tenant_id = $1 and kind = $2 and status = 'COMPLETED'
    and started_at is not null and completed_at is not null
  order by completed_at desc
  limit $3
) recent
`
	var seconds float64
	var n int
	err := r.q.QueryRow(ctx, sql, tenantID, kind, lastN).Scan(&seconds, &n)
	if err != nil {
		return 0, 0, perr.FromPostgres(err, "job durations")
	}
	return time.Duration(seconds * float64(time.Second)), n, nil
}

func (r *queries) ListPendingUnstarted(ctx context.Context) ([]domain.Job, error) {
	const sql = `
select ` + jobCols + `
from jobs
where status = 'PENDING' and started_at is null
order by created_at asc
`
	rows, err := r.q.Query(ctx, sql)
	if err != nil {
		return nil, perr.FromPostgres(err, "list pending jobs")
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, perr.FromPostgres(err, "scan pending job")
		}
		out = append(out, j)
	}
	return out, perr.FromPostgres(rows.Err(), "list pending jobs")
}
