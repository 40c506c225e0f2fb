// Package repo provides Postgres bindings for the schedule materializer
package repo

import (
	"context"
	"encoding/json"
	"time"

	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	ddom "turna/internal/services/demands/domain"
	drepo "turna/internal/services/demands/repo"
	"turna/internal/services/schedule/domain"
)

type (
	// PG is a Postgres binder for domain.Repo
	PG      struct{}
	queries struct {
		q       repokit.Queryer
		demands ddom.Repo
	}
)

var _ domain.Repo = (*queries)(nil)

// NewPG returns a Postgres binder for Repo
func NewPG() repokit.Binder[domain.Repo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.Repo {
	return &queries{q: q, demands: drepo.PG{}.Bind(q)}
}

func (r *queries) ListDemandsForPeriod(ctx context.Context, tenantID string, from, to time.Time, hospitalID string) ([]ddom.Demand, error) {
	return r.demands.List(ctx, tenantID, ddom.ListFilter{HospitalID: hospitalID, From: from, To: to})
}

func (r *queries) GetDemand(ctx context.Context, tenantID, id string) (ddom.Demand, error) {
	return r.demands.Get(ctx, tenantID, id)
}

func (r *queries) Siblings(ctx context.Context, tenantID, jobID string) ([]ddom.Demand, error) {
	const sql = `
select id::text
from demands
where tenant_id = $1 and job_id = $2 and schedule_result_data is not null
order by start_time asc, id asc
`
	rows, err := r.q.Query(ctx, sql, tenantID, jobID)
	if err != nil {
		return nil, perr.FromPostgres(err, "list schedule siblings")
	}
	ids := make([]string, 0, 8)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, perr.FromPostgres(err, "scan sibling id")
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, perr.FromPostgres(err, "list schedule siblings")
	}

	out := make([]ddom.Demand, 0, len(ids))
	for _, id := range ids {
		d, err := r.demands.Get(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *queries) ApplyAllocations(ctx context.Context, tenantID string, writes []domain.ScheduleWrite) error {
	const sql = `
update demands
set schedule_status = 'DRAFT',
    schedule_name = $3,
    member_id = nullif($4,'')::uuid,
    schedule_result_data = $5,
    job_id = $6,
    generated_at = $7,
    published_at = null,
    pdf_file_id = null,
    schedule_version_number = schedule_version_number + 1,
    updated_at = now()
where tenant_id = $1 and id = $2
`
	for _, w := range writes {
		tag, err := r.q.Exec(ctx, sql, tenantID, w.DemandID, w.Name, w.MemberID, w.ResultData, w.JobID, w.GeneratedAt)
		if err != nil {
			return perr.FromPostgres(err, "apply allocation")
		}
		if tag.RowsAffected() == 0 {
			return perr.NotFoundf("demand %s vanished during generation", w.DemandID)
		}
	}
	return nil
}

func (r *queries) MarkPublished(ctx context.Context, tenantID, demandID, pdfFileID string, at time.Time) error {
	const sql = `
update demands
set schedule_status = 'PUBLISHED', pdf_file_id = $3, published_at = $4, updated_at = now()
where tenant_id = $1 and id = $2 and schedule_status = 'DRAFT'
`
	tag, err := r.q.Exec(ctx, sql, tenantID, demandID, pdfFileID, at)
	if err != nil {
		return perr.FromPostgres(err, "publish schedule")
	}
	if tag.RowsAffected() == 0 {
		return perr.Conflictf("schedule is not in draft")
	}
	return nil
}

func (r *queries) ResetDraft(ctx context.Context, tenantID, demandID string) (bool, error) {
	const sql = `
update demands
set schedule_status = null, schedule_name = null, member_id = null,
    schedule_result_data = null, generated_at = null, published_at = null,
    pdf_file_id = null, updated_at = now()
where tenant_id = $1 and id = $2 and schedule_status = 'DRAFT'
`
	tag, err := r.q.Exec(ctx, sql, tenantID, demandID)
	if err != nil {
		return false, perr.FromPostgres(err, "reset schedule draft")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) Archive(ctx context.Context, tenantID, demandID string, at time.Time) (bool, error) {
	const sql = `
update demands
set schedule_status = 'ARCHIVED', updated_at = now()
where tenant_id = $1 and id = $2 and schedule_status = 'PUBLISHED'
`
	tag, err := r.q.Exec(ctx, sql, tenantID, demandID)
	if err != nil {
		return false, perr.FromPostgres(err, "archive schedule")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) ListSchedules(ctx context.Context, tenantID string, status ddom.ScheduleStatus) ([]ddom.Demand, error) {
	return r.demands.List(ctx, tenantID, ddom.ListFilter{Status: status})
}

func (r *queries) GetJobResult(ctx context.Context, tenantID, jobID string) (json.RawMessage, error) {
	const sql = `
select coalesce(result,'null'::jsonb), status
from jobs
where tenant_id = $1 and id = $2
`
	var result json.RawMessage
	var status string
	err := r.q.QueryRow(ctx, sql, tenantID, jobID).Scan(&result, &status)
	if perr.IsNoRows(err) {
		return nil, perr.NotFoundf("extraction job not found")
	}
	if err != nil {
		return nil, perr.FromPostgres(err, "get extraction result")
	}
	if status != "COMPLETED" {
		return nil, perr.InvalidArgf("extraction job is %s, not COMPLETED", status)
	}
	return result, nil
}

func (r *queries) InsertFile(ctx context.Context, f domain.FileRow) error {
	const sql = `
insert into files (id, tenant_id, hospital_id, filename, content_type, blob_key, file_size, created_at)
values ($1, $2, nullif($3,'')::uuid, $4, $5, $6, $7, now())
`
	_, err := r.q.Exec(ctx, sql, f.ID, f.TenantID, f.HospitalID, f.Filename, f.ContentType, f.BlobKey, f.FileSize)
	return perr.FromPostgres(err, "insert schedule file")
}

func (r *queries) GetFileBlobKey(ctx context.Context, tenantID, fileID string) (string, error) {
	const sql = `select blob_key from files where tenant_id = $1 and id = $2`
	var key string
	err := r.q.QueryRow(ctx, sql, tenantID, fileID).Scan(&key)
	if perr.IsNoRows(err) {
		return "", perr.NotFoundf("schedule file not found")
	}
	return key, perr.FromPostgres(err, "get schedule file")
}
