// Package repo provides Postgres bindings for the tenants domain
package repo

import (
	"context"

	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	"turna/internal/services/tenants/domain"
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

func (r *queries) InsertTenant(ctx context.Context, t domain.Tenant) error {
	const sql = `
insert into tenants (id, name, label, timezone, locale, currency, created_at)
values ($1, $2, nullif($3,''), $4, $5, $6, now())
`
	_, err := r.q.Exec(ctx, sql, t.ID, t.Name, t.Label, t.Timezone, t.Locale, t.Currency)
	if perr.IsDuplicateKey(err) {
		return perr.Conflictf("tenant label %q already taken", t.Label)
	}
	return perr.FromPostgres(err, "insert tenant")
}

func (r *queries) GetTenant(ctx context.Context, id string) (domain.Tenant, error) {
	const sql = `
select id::text, name, coalesce(label,''), timezone, locale, currency, created_at
from tenants
where id = $1
`
	var t domain.Tenant
	err := r.q.QueryRow(ctx, sql, id).
		Scan(&t.ID, &t.Name, &t.Label, &t.Timezone, &t.Locale, &t.Currency, &t.CreatedAt)
	if perr.IsNoRows(err) {
		return domain.Tenant{}, perr.NotFoundf("tenant not found")
	}
	return t, perr.FromPostgres(err, "get tenant")
}

func (r *queries) UpdateTenant(ctx context.Context, t domain.Tenant) error {
	const sql = `
update tenants
set name = $2, label = nullif($3,''), timezone = $4, locale = $5, currency = $6
where id = $1
`
	tag, err := r.q.Exec(ctx, sql, t.ID, t.Name, t.Label, t.Timezone, t.Locale, t.Currency)
	if perr.IsDuplicateKey(err) {
		return perr.Conflictf("tenant label %q already taken", t.Label)
	}
	if err != nil {
		return perr.FromPostgres(err, "update tenant")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("tenant not found")
	}
	return nil
}

func (r *queries) InsertFounder(ctx context.Context, f domain.Founder) error {
	const sql = `
insert into members (id, tenant_id, account_id, email, role, status, name, can_peds, sequence, vacation, attribute, created_at, updated_at)
values ($1, $2, $3, $4, 'ADMIN', 'ACTIVE', nullif($5,''), false, 0, '[]'::jsonb, '{}'::jsonb, now(), now())
`
	_, err := r.q.Exec(ctx, sql, f.MemberID, f.TenantID, f.AccountID, f.Email, f.Name)
	if perr.IsDuplicateKey(err) {
		return perr.Conflictf("account already a member of this tenant")
	}
	return perr.FromPostgres(err, "insert founder member")
}

func (r *queries) ListHospitals(ctx context.Context, tenantID string) ([]domain.Hospital, error) {
	const sql = `
select id::text, tenant_id::text, name, coalesce(label,''), coalesce(prompt,''), coalesce(color,'')
from hospitals
where tenant_id = $1
order by name
`
	rows, err := r.q.Query(ctx, sql, tenantID)
	if err != nil {
		return nil, perr.FromPostgres(err, "list hospitals")
	}
	defer rows.Close()

	var out []domain.Hospital
	for rows.Next() {
		var h domain.Hospital
		if err := rows.Scan(&h.ID, &h.TenantID, &h.Name, &h.Label, &h.Prompt, &h.Color); err != nil {
			return nil, perr.FromPostgres(err, "scan hospital")
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *queries) GetHospital(ctx context.Context, tenantID, id string) (domain.Hospital, error) {
	const sql = `
select id::text, tenant_id::text, name, coalesce(label,''), coalesce(prompt,''), coalesce(color,'')
from hospitals
where tenant_id = $1 and id = $2
`
	var h domain.Hospital
	err := r.q.QueryRow(ctx, sql, tenantID, id).
		Scan(&h.ID, &h.TenantID, &h.Name, &h.Label, &h.Prompt, &h.Color)
	if perr.IsNoRows(err) {
		return domain.Hospital{}, perr.NotFoundf("hospital not found")
	}
	return h, perr.FromPostgres(err, "get hospital")
}

func (r *queries) InsertHospital(ctx context.Context, h domain.Hospital) error {
	const sql = `
insert into hospitals (id, tenant_id, name, label, prompt, color, created_at)
values ($1, $2, $3, nullif($4,''), nullif($5,''), nullif($6,''), now())
`
	_, err := r.q.Exec(ctx, sql, h.ID, h.TenantID, h.Name, h.Label, h.Prompt, h.Color)
	if perr.IsDuplicateKey(err) {
		return perr.Conflictf("hospital %q already exists in this tenant", h.Name)
	}
	return perr.FromPostgres(err, "insert hospital")
}

func (r *queries) UpdateHospital(ctx context.Context, h domain.Hospital) error {
	const sql = `
update hospitals
set name = $3, label = nullif($4,''), prompt = nullif($5,''), color = nullif($6,'')
where tenant_id = $1 and id = $2
`
	tag, err := r.q.Exec(ctx, sql, h.TenantID, h.ID, h.Name, h.Label, h.Prompt, h.Color)
	if perr.IsDuplicateKey(err) {
		return perr.Conflictf("hospital %q already exists in this tenant", h.Name)
	}
	if err != nil {
		return perr.FromPostgres(err, "update hospital")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("hospital not found")
	}
	return nil
}

func (r *queries) DeleteHospital(ctx context.Context, tenantID, id string) (bool, error) {
	tag, err := r.q.Exec(ctx, `delete from hospitals where tenant_id = $1 and id = $2`, tenantID, id)
	if err != nil {
		return false, perr.FromPostgres(err, "delete hospital")
	}
	return tag.RowsAffected() > 0, nil
}
