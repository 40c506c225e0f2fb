// Package repo provides Postgres bindings for the files domain
package repo

import (
	"context"

	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	"turna/internal/services/files/domain"
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

func (r *queries) Insert(ctx context.Context, f domain.File) error {
	const sql = `
insert into files (id, tenant_id, hospital_id, filename, content_type, blob_key, file_size, created_at)
values ($1, $2, $3, $4, $5, $6, $7, now())
`
	_, err := r.q.Exec(ctx, sql, f.ID, f.TenantID, f.HospitalID, f.Filename, f.ContentType, f.BlobKey, f.FileSize)
	if perr.IsDuplicateKey(err) {
		return perr.Conflictf("blob key already registered")
	}
	return perr.FromPostgres(err, "insert file")
}

func (r *queries) Get(ctx context.Context, tenantID, id string) (domain.File, error) {
	const sql = `
select id::text, tenant_id::text, hospital_id::text, filename, content_type, blob_key, coalesce(thumb_key,''), file_size, created_at
from files
where tenant_id = $1 and id = $2
`
	var f domain.File
	err := r.q.QueryRow(ctx, sql, tenantID, id).
		Scan(&f.ID, &f.TenantID, &f.HospitalID, &f.Filename, &f.ContentType, &f.BlobKey, &f.ThumbKey, &f.FileSize, &f.CreatedAt)
	if perr.IsNoRows(err) {
		return domain.File{}, perr.NotFoundf("file not found")
	}
	return f, perr.FromPostgres(err, "get file")
}

func (r *queries) List(ctx context.Context, tenantID, hospitalID string) ([]domain.File, error) {
	const sql = `
select id::text, tenant_id::text, hospital_id::text, filename, content_type, blob_key, coalesce(thumb_key,''), file_size, created_at
from files
where tenant_id = $1 and ($2 = '' or hospital_id::text = $2)
order by created_at desc
`
	rows, err := r.q.Query(ctx, sql, tenantID, hospitalID)
	if err != nil {
		return nil, perr.FromPostgres(err, "list files")
	}
	defer rows.Close()

	var out []domain.File
	for rows.Next() {
		var f domain.File
		if err := rows.Scan(&f.ID, &f.TenantID, &f.HospitalID, &f.Filename, &f.ContentType, &f.BlobKey, &f.ThumbKey, &f.FileSize, &f.CreatedAt); err != nil {
			return nil, perr.FromPostgres(err, "scan file")
		}
		out = append(out, f)
	}
	return out, perr.FromPostgres(rows.Err(), "list files")
}

func (r *queries) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	const sql = `
delete from files
where tenant_id = $1 and id = $2
`
	tag, err := r.q.Exec(ctx, sql, tenantID, id)
	if err != nil {
		return false, perr.FromPostgres(err, "delete file")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) SetThumbKey(ctx context.Context, tenantID, id, key string) error {
	const sql = `
update files
set thumb_key = $3
where tenant_id = $1 and id = $2
`
	tag, err := r.q.Exec(ctx, sql, tenantID, id, key)
	if err != nil {
		return perr.FromPostgres(err, "set thumb key")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("file not found")
	}
	return nil
}

func (r *queries) HospitalExists(ctx context.Context, tenantID, id string) (bool, error) {
	const sql = `
select exists (select 1 from hospitals where tenant_id = $1 and id = $2)
`
	var ok bool
	err := r.q.QueryRow(ctx, sql, tenantID, id).Scan(&ok)
	return ok, perr.FromPostgres(err, "check hospital")
}
