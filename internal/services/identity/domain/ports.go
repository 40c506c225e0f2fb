package domain

import (
	"context"
	"time"

	"turna/internal/modkit/gate"
	pnet "turna/internal/platform/net"
)

// ServicePort is the identity contract consumed by transport and other modules
type ServicePort interface {
	Signin(ctx context.Context, in SigninInput) (SigninOutput, error)
	SelectTenant(ctx context.Context, caller gate.Caller, in SelectTenantInput) (Session, error)

	ListMembers(ctx context.Context, caller gate.Caller, status MemberStatus) ([]Member, error)
	InviteMember(ctx context.Context, caller gate.Caller, in InviteInput) (Member, error)
	AcceptInvite(ctx context.Context, caller gate.Caller, memberID string) (Member, error)
	RejectInvite(ctx context.Context, caller gate.Caller, memberID string) (Member, error)
	RemoveMember(ctx context.Context, caller gate.Caller, memberID string) error
	UpdateMember(ctx context.Context, caller gate.Caller, memberID string, in UpdateMemberInput) (Member, error)

	// ActivePros is the worker-side roster of schedulable professionals:
	// ACTIVE members with a positive rotation sequence. The tenant comes
	// from the job row, not a session
	ActivePros(ctx context.Context, tenantID string) ([]Member, error)
}

// TokenMinter signs scoped session tokens. Verification lives on the concrete
// codec so router wiring can feed the bearer AuthPort without a service import
type TokenMinter interface {
	Mint(id pnet.Identity) (token string, expiresAt time.Time, err error)
}

// Repo is the storage contract bound per-queryer.
// Member lookups are tenant-scoped except the foothold count, which must span
// tenants to enforce the last-active-membership rule
type Repo interface {
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByEmail(ctx context.Context, email string) (Account, bool, error)
	InsertAccount(ctx context.Context, a Account) error
	UpdateAccountProfile(ctx context.Context, id, name, provider string) error

	// BindInvites attaches all pending invites addressed to email onto the
	// account and returns how many rows were bound
	BindInvites(ctx context.Context, accountID, email string) (int64, error)
	ListActiveTenants(ctx context.Context, accountID string) ([]TenantAccess, error)
	ListPendingInvites(ctx context.Context, accountID, email string) ([]Invite, error)

	GetMember(ctx context.Context, tenantID, id string) (Member, error)
	ListMembers(ctx context.Context, tenantID string, statuses []MemberStatus) ([]Member, error)
	// FindMembership resolves the member row backing a session for (account,
	// tenant), preferring ACTIVE over a pending invite
	FindMembership(ctx context.Context, tenantID, accountID, email string) (Member, bool, error)
	// FindMemberForInvite locates the row an invite would collide with, by
	// bound account or by invite email; accountID may be empty
	FindMemberForInvite(ctx context.Context, tenantID, email, accountID string) (Member, bool, error)
	InsertMember(ctx context.Context, m Member) error
	// ReinvitePending flips a REJECTED or REMOVED row back to PENDING with a
	// fresh role; reports whether a row transitioned
	ReinvitePending(ctx context.Context, tenantID, id string, role gate.Role) (bool, error)
	// AcceptPending and RejectPending are compare-and-set transitions that
	// also bind the account on the way when the invite was keyed by email.
	// They report false when the row is missing, not pending, or owned by
	// someone else; callers re-read to diagnose
	AcceptPending(ctx context.Context, tenantID, id, accountID, email string) (bool, error)
	RejectPending(ctx context.Context, tenantID, id, accountID, email string) (bool, error)
	CASStatus(ctx context.Context, tenantID, id string, from, to MemberStatus) (bool, error)
	// CountActiveFootholds counts ACTIVE memberships across all tenants
	CountActiveFootholds(ctx context.Context, accountID string) (int, error)
	UpdateMemberTraits(ctx context.Context, m Member) error
}
