// Package repo provides Postgres bindings for the demands domain
package repo

import (
	"context"
	"encoding/json"

	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	"turna/internal/services/demands/domain"
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

const demandCols = `
id::text, tenant_id::text, coalesce(hospital_id::text,''), coalesce(job_id::text,''),
coalesce(room,''), start_time, end_time, procedure, coalesce(anesthesia_type,''),
coalesce(complexity,''), coalesce(skills,'null'::jsonb), coalesce(priority,''),
is_pediatric, coalesce(notes,''), coalesce(source,''), created_at, updated_at,
coalesce(schedule_status,''), coalesce(schedule_name,''), schedule_version_number,
coalesce(schedule_result_data,'null'::jsonb), coalesce(member_id::text,''),
coalesce(pdf_file_id::text,''), generated_at, published_at
`

func scanDemand(row interface{ Scan(...any) error }) (domain.Demand, error) {
	var d domain.Demand
	var skills []byte
	err := row.Scan(
		&d.ID, &d.TenantID, &d.HospitalID, &d.JobID,
		&d.Room, &d.StartTime, &d.EndTime, &d.Procedure, &d.AnesthesiaType,
		&d.Complexity, &skills, &d.Priority,
		&d.IsPediatric, &d.Notes, &d.Source, &d.CreatedAt, &d.UpdatedAt,
		&d.ScheduleStatus, &d.ScheduleName, &d.ScheduleVersionNumber,
		&d.ScheduleResultData, &d.MemberID,
		&d.PdfFileID, &d.GeneratedAt, &d.PublishedAt,
	)
	if err != nil {
		return domain.Demand{}, err
	}
	if len(skills) > 0 && string(skills) != "null" {
		if err := json.Unmarshal(skills, &d.Skills); err != nil {
			return domain.Demand{}, err
		}
	}
	if string(d.ScheduleResultData) == "null" {
		d.ScheduleResultData = nil
	}
	return d, nil
}

func (r *queries) Insert(ctx context.Context, d domain.Demand) error {
	skills, err := json.Marshal(d.Skills)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "encode skills")
	}
	const sql = `
insert into demands (
  id, tenant_id, hospital_id, job_id, room, start_time, end_time, procedure,
  anesthesia_type, complexity, skills, priority, is_pediatric, notes, source,
  schedule_version_number, created_at, updated_at
) values (
  $1, $2, nullif($3,'')::uuid, nullif($4,'')::uuid, nullif($5,''), $6, $7, $8,
  nullif($9,''), nullif($10,''), $11, nullif($12,''), $13, nullif($14,''), nullif($15,''),
  0, now(), now()
)
`
	_, err = r.q.Exec(ctx, sql,
		d.ID, d.TenantID, d.HospitalID, d.JobID, d.Room, d.StartTime, d.EndTime, d.Procedure,
		d.AnesthesiaType, d.Complexity, skills, d.Priority, d.IsPediatric, d.Notes, d.Source,
	)
	return perr.FromPostgres(err, "insert demand")
}

func (r *queries) InsertBatch(ctx context.Context, rows []domain.Demand) error {
	for _, d := range rows {
		if err := r.Insert(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *queries) Get(ctx context.Context, tenantID, id string) (domain.Demand, error) {
	const sql = `select ` + demandCols + ` from demands where tenant_id = $1 and id = $2`
	d, err := scanDemand(r.q.QueryRow(ctx, sql, tenantID, id))
	if perr.IsNoRows(err) {
		return domain.Demand{}, perr.NotFoundf("demand not found")
	}
	return d, perr.FromPostgres(err, "get demand")
}

func (r *queries) List(ctx context.Context, tenantID string, f domain.ListFilter) ([]domain.Demand, error) {
	const sql = `
select ` + demandCols + `
from demands
where tenant_id = $1
  and ($2 = '' or hospital_id::text = $2)
  and ($3::timestamptz is null or start_time >= $3)
  and ($4::timestamptz is null or start_time < $4)
  and ($5 = '' or schedule_status = $5)
order by start_time asc, id asc
`
	var from, to any
	if !f.From.IsZero() {
		from = f.From
	}
	if !f.To.IsZero() {
		to = f.To
	}
	rows, err := r.q.Query(ctx, sql, tenantID, f.HospitalID, from, to, string(f.Status))
	if err != nil {
		return nil, perr.FromPostgres(err, "list demands")
	}
	defer rows.Close()

	var out []domain.Demand
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, perr.FromPostgres(err, "scan demand")
		}
		out = append(out, d)
	}
	return out, perr.FromPostgres(rows.Err(), "list demands")
}

func (r *queries) Update(ctx context.Context, d domain.Demand) error {
	skills, err := json.Marshal(d.Skills)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "encode skills")
	}
	const sql = `
update demands
set room = nullif($3,''), start_time = $4, end_time = $5, procedure = $6,
    anesthesia_type = nullif($7,''), complexity = nullif($8,''), skills = $9,
    priority = nullif($10,''), is_pediatric = $11, notes = nullif($12,''),
    updated_at = now()
where tenant_id = $1 and id = $2
`
	tag, err := r.q.Exec(ctx, sql,
		d.TenantID, d.ID, d.Room, d.StartTime, d.EndTime, d.Procedure,
		d.AnesthesiaType, d.Complexity, skills, d.Priority, d.IsPediatric, d.Notes,
	)
	if err != nil {
		return perr.FromPostgres(err, "update demand")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("demand not found")
	}
	return nil
}

func (r *queries) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	const sql = `delete from demands where tenant_id = $1 and id = $2`
	tag, err := r.q.Exec(ctx, sql, tenantID, id)
	if err != nil {
		return false, perr.FromPostgres(err, "delete demand")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) HospitalExists(ctx context.Context, tenantID, id string) (bool, error) {
	const sql = `select exists (select 1 from hospitals where tenant_id = $1 and id = $2)`
	var ok bool
	err := r.q.QueryRow(ctx, sql, tenantID, id).Scan(&ok)
	return ok, perr.FromPostgres(err, "check hospital")
}
