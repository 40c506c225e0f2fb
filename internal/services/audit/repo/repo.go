// Package repo provides Postgres bindings for the audit domain
package repo

import (
	"context"

	"turna/internal/modkit/repokit"
	"turna/internal/services/audit/domain"
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

func (r *queries) Insert(ctx context.Context, row domain.Row) error {
	const sql = `
insert into audit_logs (id, tenant_id, account_id, member_id, event_type, data, created_at)
values ($1, nullif($2,'')::uuid, $3, nullif($4,'')::uuid, $5, $6, now())
`
	_, err := r.q.Exec(ctx, sql, row.ID, row.TenantID, row.AccountID, row.MemberID, row.EventType, row.Data)
	return err
}
