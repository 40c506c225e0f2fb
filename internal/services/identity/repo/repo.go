// Package repo provides Postgres bindings for the identity domain
package repo

import (
	"context"
	"encoding/json"

	"turna/internal/core/interval"
	"turna/internal/modkit/gate"
	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	"turna/internal/services/identity/domain"
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

func (r *queries) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	const sql = `
select id::text, email, coalesce(name,''), coalesce(auth_provider,''), created_at
from accounts
where id = $1
`
	var a domain.Account
	err := r.q.QueryRow(ctx, sql, id).Scan(&a.ID, &a.Email, &a.Name, &a.Provider, &a.CreatedAt)
	if perr.IsNoRows(err) {
		return domain.Account{}, perr.NotFoundf("account not found")
	}
	return a, perr.FromPostgres(err, "get account")
}

func (r *queries) GetAccountByEmail(ctx context.Context, email string) (domain.Account, bool, error) {
	const sql = `
select id::text, email, coalesce(name,''), coalesce(auth_provider,''), created_at
from accounts
where email = lower($1)
`
	var a domain.Account
	err := r.q.QueryRow(ctx, sql, email).Scan(&a.ID, &a.Email, &a.Name, &a.Provider, &a.CreatedAt)
	if perr.IsNoRows(err) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, perr.FromPostgres(err, "get account by email")
	}
	return a, true, nil
}

func (r *queries) InsertAccount(ctx context.Context, a domain.Account) error {
	const sql = `
insert into accounts (id, email, name, auth_provider, created_at)
values ($1, lower($2), nullif($3,''), nullif($4,''), now())
`
	_, err := r.q.Exec(ctx, sql, a.ID, a.Email, a.Name, a.Provider)
	if perr.IsDuplicateKey(err) {
		return perr.Conflictf("account email already registered")
	}
	return perr.FromPostgres(err, "insert account")
}

func (r *queries) UpdateAccountProfile(ctx context.Context, id, name, provider string) error {
	const sql = `
update accounts
set name = coalesce(nullif($2,''), name), auth_provider = coalesce(nullif($3,''), auth_provider)
where id = $1
`
	_, err := r.q.Exec(ctx, sql, id, name, provider)
	return perr.FromPostgres(err, "update account profile")
}

func (r *queries) BindInvites(ctx context.Context, accountID, email string) (int64, error) {
	// the not-exists guard keeps (tenant_id, account_id) unique when the
	// account already holds a row in a tenant that also invited its email
	const sql = `
update members
set account_id = $1, updated_at = now()
where account_id is null
  and email = lower($2)
  and status = 'PENDING'
  and not exists (
    select 1 from members b
    where b.tenant_id = members.tenant_id and b.account_id = $1
  )
`
	tag, err := r.q.Exec(ctx, sql, accountID, email)
	if err != nil {
		return 0, perr.FromPostgres(err, "bind pending invites")
	}
	return tag.RowsAffected(), nil
}

func (r *queries) ListActiveTenants(ctx context.Context, accountID string) ([]domain.TenantAccess, error) {
	const sql = `
select m.tenant_id::text, t.name, m.id::text, m.role
from members m
join tenants t on t.id = m.tenant_id
where m.account_id = $1 and m.status = 'ACTIVE'
order by t.name
`
	rows, err := r.q.Query(ctx, sql, accountID)
	if err != nil {
		return nil, perr.FromPostgres(err, "list active tenants")
	}
	defer rows.Close()

	var out []domain.TenantAccess
	for rows.Next() {
		var ta domain.TenantAccess
		var role string
		if err := rows.Scan(&ta.TenantID, &ta.TenantName, &ta.MemberID, &role); err != nil {
			return nil, perr.FromPostgres(err, "scan tenant access")
		}
		ta.Role = gate.Role(role)
		out = append(out, ta)
	}
	return out, perr.FromPostgres(rows.Err(), "list active tenants")
}

func (r *queries) ListPendingInvites(ctx context.Context, accountID, email string) ([]domain.Invite, error) {
	const sql = `
select m.id::text, m.tenant_id::text, t.name, m.role, m.created_at
from members m
join tenants t on t.id = m.tenant_id
where m.status = 'PENDING'
  and (m.account_id = $1 or (m.account_id is null and m.email = lower($2)))
order by m.created_at
`
	rows, err := r.q.Query(ctx, sql, accountID, email)
	if err != nil {
		return nil, perr.FromPostgres(err, "list pending invites")
	}
	defer rows.Close()

	var out []domain.Invite
	for rows.Next() {
		var iv domain.Invite
		var role string
		if err := rows.Scan(&iv.MemberID, &iv.TenantID, &iv.TenantName, &role, &iv.CreatedAt); err != nil {
			return nil, perr.FromPostgres(err, "scan invite")
		}
		iv.Role = gate.Role(role)
		out = append(out, iv)
	}
	return out, perr.FromPostgres(rows.Err(), "list pending invites")
}

const memberCols = `m.id::text, m.tenant_id::text, coalesce(m.account_id::text,''), coalesce(m.email,''),
coalesce(m.name,''), m.role, m.status, m.can_peds, m.sequence, m.vacation, m.created_at`

func scanMember(row interface{ Scan(...any) error }) (domain.Member, error) {
	var (
		m            domain.Member
		role, status string
		vacation     []byte
	)
	err := row.Scan(&m.ID, &m.TenantID, &m.AccountID, &m.Email, &m.Name,
		&role, &status, &m.CanPeds, &m.Sequence, &vacation, &m.CreatedAt)
	if err != nil {
		return domain.Member{}, err
	}
	m.Role = gate.Role(role)
	m.Status = domain.MemberStatus(status)
	if len(vacation) > 0 {
		if err := json.Unmarshal(vacation, &m.Vacation); err != nil {
			return domain.Member{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode member vacation")
		}
	}
	return m, nil
}

func (r *queries) GetMember(ctx context.Context, tenantID, id string) (domain.Member, error) {
	const sql = `
select ` + memberCols + `
from members m
where m.tenant_id = $1 and m.id = $2
`
	m, err := scanMember(r.q.QueryRow(ctx, sql, tenantID, id))
	if perr.IsNoRows(err) {
		return domain.Member{}, perr.NotFoundf("member not found")
	}
	return m, perr.FromPostgres(err, "get member")
}

func (r *queries) ListMembers(ctx context.Context, tenantID string, statuses []domain.MemberStatus) ([]domain.Member, error) {
	const sql = `
select ` + memberCols + `
from members m
where m.tenant_id = $1 and m.status = any($2)
order by m.sequence, m.created_at
`
	ss := make([]string, len(statuses))
	for i, s := range statuses {
		ss[i] = string(s)
	}
	rows, err := r.q.Query(ctx, sql, tenantID, ss)
	if err != nil {
		return nil, perr.FromPostgres(err, "list members")
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, perr.FromPostgres(err, "scan member")
		}
		out = append(out, m)
	}
	return out, perr.FromPostgres(rows.Err(), "list members")
}

func (r *queries) FindMembership(ctx context.Context, tenantID, accountID, email string) (domain.Member, bool, error) {
	const sql = `
select ` + memberCols + `
from members m
where m.tenant_id = $1
  and (m.account_id = $2 or (m.account_id is null and m.email = lower($3)))
  and m.status in ('ACTIVE', 'PENDING')
order by case m.status when 'ACTIVE' then 0 else 1 end
limit 1
`
	m, err := scanMember(r.q.QueryRow(ctx, sql, tenantID, accountID, email))
	if perr.IsNoRows(err) {
		return domain.Member{}, false, nil
	}
	if err != nil {
		return domain.Member{}, false, perr.FromPostgres(err, "find membership")
	}
	return m, true, nil
}

func (r *queries) FindMemberForInvite(ctx context.Context, tenantID, email, accountID string) (domain.Member, bool, error) {
	const sql = `
select ` + memberCols + `
from members m
where m.tenant_id = $1
  and (($3 <> '' and m.account_id::text = $3) or m.email = lower($2))
order by (m.account_id is not null) desc, m.created_at desc
limit 1
`
	m, err := scanMember(r.q.QueryRow(ctx, sql, tenantID, email, accountID))
	if perr.IsNoRows(err) {
		return domain.Member{}, false, nil
	}
	if err != nil {
		return domain.Member{}, false, perr.FromPostgres(err, "find member for invite")
	}
	return m, true, nil
}

func (r *queries) InsertMember(ctx context.Context, m domain.Member) error {
	const sql = `
insert into members (id, tenant_id, account_id, email, role, status, name, can_peds, sequence, vacation, attribute, created_at, updated_at)
values ($1, $2, nullif($3,'')::uuid, nullif(lower($4),''), $5, $6, nullif($7,''), $8, $9, $10, '{}'::jsonb, now(), now())
`
	vac, err := marshalVacation(m.Vacation)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, sql, m.ID, m.TenantID, m.AccountID, m.Email,
		string(m.Role), string(m.Status), m.Name, m.CanPeds, m.Sequence, vac)
	if perr.IsDuplicateKey(err) {
		return perr.Conflictf("invitee already holds a membership in this tenant")
	}
	return perr.FromPostgres(err, "insert member")
}

func (r *queries) ReinvitePending(ctx context.Context, tenantID, id string, role gate.Role) (bool, error) {
	const sql = `
update members
set status = 'PENDING', role = $3, updated_at = now()
where tenant_id = $1 and id = $2 and status in ('REJECTED', 'REMOVED')
`
	tag, err := r.q.Exec(ctx, sql, tenantID, id, string(role))
	if err != nil {
		return false, perr.FromPostgres(err, "reinvite member")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) AcceptPending(ctx context.Context, tenantID, id, accountID, email string) (bool, error) {
	return r.settlePending(ctx, tenantID, id, accountID, email, domain.StatusActive)
}

func (r *queries) RejectPending(ctx context.Context, tenantID, id, accountID, email string) (bool, error) {
	return r.settlePending(ctx, tenantID, id, accountID, email, domain.StatusRejected)
}

// settlePending is the invite decision CAS: it requires PENDING, proves
// ownership by bound account or by invite email, and binds the account as a
// side effect when the row was keyed by email
func (r *queries) settlePending(ctx context.Context, tenantID, id, accountID, email string, to domain.MemberStatus) (bool, error) {
	const sql = `
update members
set status = $5, account_id = $3, updated_at = now()
where tenant_id = $1 and id = $2 and status = 'PENDING'
  and (account_id = $3 or (account_id is null and email = lower($4)))
`
	tag, err := r.q.Exec(ctx, sql, tenantID, id, accountID, email, string(to))
	if perr.IsDuplicateKey(err) {
		return false, perr.Conflictf("account already holds a membership in this tenant")
	}
	if err != nil {
		return false, perr.FromPostgres(err, "settle pending invite")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) CASStatus(ctx context.Context, tenantID, id string, from, to domain.MemberStatus) (bool, error) {
	const sql = `
update members
set status = $4, updated_at = now()
where tenant_id = $1 and id = $2 and status = $3
`
	tag, err := r.q.Exec(ctx, sql, tenantID, id, string(from), string(to))
	if err != nil {
		return false, perr.FromPostgres(err, "member status transition")
	}
	return tag.RowsAffected() > 0, nil
}

func (r *queries) CountActiveFootholds(ctx context.Context, accountID string) (int, error) {
	// deliberately unscoped by tenant: the last-foothold rule spans the system
	const sql = `
select count(*)
from members
where account_id = $1 and status = 'ACTIVE'
`
	var n int
	err := r.q.QueryRow(ctx, sql, accountID).Scan(&n)
	return n, perr.FromPostgres(err, "count active footholds")
}

func (r *queries) UpdateMemberTraits(ctx context.Context, m domain.Member) error {
	const sql = `
update members
set role = $3, name = nullif($4,''), can_peds = $5, sequence = $6, vacation = $7, updated_at = now()
where tenant_id = $1 and id = $2
`
	vac, err := marshalVacation(m.Vacation)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, sql, m.TenantID, m.ID, string(m.Role), m.Name, m.CanPeds, m.Sequence, vac)
	if err != nil {
		return perr.FromPostgres(err, "update member traits")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("member not found")
	}
	return nil
}

func marshalVacation(spans []interval.Span) ([]byte, error) {
	if spans == nil {
		spans = []interval.Span{}
	}
	b, err := json.Marshal(spans)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "encode member vacation")
	}
	return b, nil
}
