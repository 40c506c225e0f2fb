// Package service contains sign-in, session and membership workflows
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"turna/internal/core/interval"
	"turna/internal/modkit/gate"
	"turna/internal/modkit/repokit"
	perr "turna/internal/platform/errors"
	pnet "turna/internal/platform/net"
	"turna/internal/platform/store"
	auditdom "turna/internal/services/audit/domain"
	"turna/internal/services/identity/domain"
)

// Service is the identity contract
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.Repo]
	tokens domain.TokenMinter
	audit  auditdom.RecorderPort
}

// New creates the identity service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo], tokens domain.TokenMinter, audit auditdom.RecorderPort) *Svc {
	if db == nil {
		panic("identity.Service requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("identity.Service requires a non-nil Repo binder")
	}
	if tokens == nil {
		panic("identity.Service requires a non-nil token minter")
	}
	if audit == nil {
		panic("identity.Service requires a non-nil audit recorder")
	}
	return &Svc{db: db, binder: binder, tokens: tokens, audit: audit}
}

// Signin upserts the account behind a verified email and binds any pending
// invites addressed to it, all in one transaction, then mints the
// account-stage session used to pick a tenant
func (s *Svc) Signin(ctx context.Context, in domain.SigninInput) (domain.SigninOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return domain.SigninOutput{}, perr.InvalidArgf("email is required")
	}

	var out domain.SigninOutput
	err := store.RunAsSuperadmin(ctx, s.db, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)

		acct, found, err := r.GetAccountByEmail(ctx, email)
		if err != nil {
			return err
		}
		if !found {
			acct = domain.Account{
				ID:       uuid.NewString(),
				Email:    email,
				Name:     strings.TrimSpace(in.Name),
				Provider: in.Provider,
			}
			if err := r.InsertAccount(ctx, acct); err != nil {
				return err
			}
			acct.CreatedAt = time.Now().UTC()
		} else if name := strings.TrimSpace(in.Name); (name != "" && name != acct.Name) || (in.Provider != "" && in.Provider != acct.Provider) {
			if err := r.UpdateAccountProfile(ctx, acct.ID, name, in.Provider); err != nil {
				return err
			}
			if name != "" {
				acct.Name = name
			}
			if in.Provider != "" {
				acct.Provider = in.Provider
			}
		}

		if _, err := r.BindInvites(ctx, acct.ID, email); err != nil {
			return err
		}

		out.Account = acct
		if out.Tenants, err = r.ListActiveTenants(ctx, acct.ID); err != nil {
			return err
		}
		out.Invites, err = r.ListPendingInvites(ctx, acct.ID, email)
		return err
	})
	if err != nil {
		return domain.SigninOutput{}, err
	}

	token, exp, err := s.tokens.Mint(pnet.Identity{AccountID: out.Account.ID})
	if err != nil {
		return domain.SigninOutput{}, err
	}
	out.Session = domain.Session{Token: token, ExpiresAt: exp}
	return out, nil
}

// SelectTenant exchanges an account-stage session for a tenant-scoped one.
// With only a pending invite on the tenant, the session is limited: enough
// to accept or reject, nothing else
func (s *Svc) SelectTenant(ctx context.Context, caller gate.Caller, in domain.SelectTenantInput) (domain.Session, error) {
	var m domain.Member
	err := store.RunInTenant(ctx, s.db, in.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		acct, err := r.GetAccount(ctx, caller.AccountID)
		if err != nil {
			return err
		}
		found := false
		m, found, err = r.FindMembership(ctx, in.TenantID, caller.AccountID, acct.Email)
		if err != nil {
			return err
		}
		if !found {
			return perr.NotFoundf("no membership in this tenant")
		}
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}

	limited := m.Status == domain.StatusPending
	token, exp, err := s.tokens.Mint(pnet.Identity{
		AccountID: caller.AccountID,
		TenantID:  m.TenantID,
		MemberID:  m.ID,
		Role:      string(m.Role),
		Limited:   limited,
	})
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		Token:     token,
		ExpiresAt: exp,
		TenantID:  m.TenantID,
		MemberID:  m.ID,
		Role:      m.Role,
		Limited:   limited,
	}, nil
}

// ListMembers returns the tenant roster. Admins may filter by any status;
// everyone else sees only active members
func (s *Svc) ListMembers(ctx context.Context, caller gate.Caller, status domain.MemberStatus) ([]domain.Member, error) {
	statuses := []domain.MemberStatus{domain.StatusActive}
	switch {
	case status == "":
		if caller.IsAdmin() {
			statuses = []domain.MemberStatus{domain.StatusPending, domain.StatusActive, domain.StatusRejected, domain.StatusRemoved}
		}
	case !status.Valid():
		return nil, perr.InvalidArgf("unknown member status %q", status)
	case status != domain.StatusActive && !caller.IsAdmin():
		return nil, perr.Forbiddenf("admin role required")
	default:
		statuses = []domain.MemberStatus{status}
	}

	var out []domain.Member
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).ListMembers(ctx, caller.TenantID, statuses)
		return err
	})
	return out, err
}

// InviteMember offers membership to an email address. The operation is
// idempotent per invitee: an active or still-pending member comes back
// unchanged, a rejected or removed one is reactivated to pending with the
// fresh role
func (s *Svc) InviteMember(ctx context.Context, caller gate.Caller, in domain.InviteInput) (domain.Member, error) {
	if !caller.IsAdmin() {
		return domain.Member{}, perr.Forbiddenf("admin role required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var (
		out       domain.Member
		reinvited bool
		created   bool
	)
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)

		accountID := ""
		if acct, found, err := r.GetAccountByEmail(ctx, email); err != nil {
			return err
		} else if found {
			accountID = acct.ID
		}

		existing, found, err := r.FindMemberForInvite(ctx, caller.TenantID, email, accountID)
		if err != nil {
			return err
		}
		if found {
			switch existing.Status {
			case domain.StatusActive, domain.StatusPending:
				out = existing
				return nil
			default:
				ok, err := r.ReinvitePending(ctx, caller.TenantID, existing.ID, in.Role)
				if err != nil {
					return err
				}
				if !ok {
					return perr.Conflictf("member changed concurrently")
				}
				reinvited = true
				out, err = r.GetMember(ctx, caller.TenantID, existing.ID)
				return err
			}
		}

		out = domain.Member{
			ID:        uuid.NewString(),
			TenantID:  caller.TenantID,
			AccountID: accountID,
			Email:     email,
			Role:      in.Role,
			Status:    domain.StatusPending,
			Vacation:  []interval.Span{},
		}
		created = true
		return r.InsertMember(ctx, out)
	})
	if err != nil {
		return domain.Member{}, err
	}

	if created || reinvited {
		s.audit.Emit(ctx, auditdom.Event{
			TenantID:  caller.TenantID,
			AccountID: caller.AccountID,
			MemberID:  caller.MemberID,
			Type:      auditdom.EventMemberInvited,
			Data:      map[string]any{"member_id": out.ID, "email": email, "role": out.Role, "reinvited": reinvited},
		})
	}
	return out, nil
}

// AcceptInvite transitions the caller's pending invite to active. The row is
// bound to the account here when the invite was keyed only by email
func (s *Svc) AcceptInvite(ctx context.Context, caller gate.Caller, memberID string) (domain.Member, error) {
	return s.settleInvite(ctx, caller, memberID, domain.StatusActive)
}

// RejectInvite declines a pending invite
func (s *Svc) RejectInvite(ctx context.Context, caller gate.Caller, memberID string) (domain.Member, error) {
	return s.settleInvite(ctx, caller, memberID, domain.StatusRejected)
}

func (s *Svc) settleInvite(ctx context.Context, caller gate.Caller, memberID string, to domain.MemberStatus) (domain.Member, error) {
	var out domain.Member
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		acct, err := r.GetAccount(ctx, caller.AccountID)
		if err != nil {
			return err
		}

		settle := r.AcceptPending
		if to == domain.StatusRejected {
			settle = r.RejectPending
		}
		ok, err := settle(ctx, caller.TenantID, memberID, caller.AccountID, acct.Email)
		if err != nil {
			return err
		}
		if ok {
			out, err = r.GetMember(ctx, caller.TenantID, memberID)
			return err
		}

		// the CAS refused; re-read to say why
		m, err := r.GetMember(ctx, caller.TenantID, memberID)
		if err != nil {
			return err
		}
		if m.Status != domain.StatusPending {
			return perr.Conflictf("invite is not pending")
		}
		return perr.Forbiddenf("invite belongs to another account")
	})
	if err != nil {
		return domain.Member{}, err
	}

	event := auditdom.EventMemberAccepted
	if to == domain.StatusRejected {
		event = auditdom.EventMemberRejected
	}
	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  caller.TenantID,
		AccountID: caller.AccountID,
		MemberID:  out.ID,
		Type:      event,
		Data:      map[string]any{"member_id": out.ID},
	})
	return out, nil
}

// RemoveMember revokes an active membership. It refuses to orphan an
// account: the target must keep at least one active membership elsewhere
func (s *Svc) RemoveMember(ctx context.Context, caller gate.Caller, memberID string) error {
	if !caller.IsAdmin() {
		return perr.Forbiddenf("admin role required")
	}

	var removed domain.Member
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		m, err := r.GetMember(ctx, caller.TenantID, memberID)
		if err != nil {
			return err
		}
		if m.Status != domain.StatusActive {
			return perr.Conflictf("member is not active")
		}
		footholds, err := r.CountActiveFootholds(ctx, m.AccountID)
		if err != nil {
			return err
		}
		if footholds <= 1 {
			return perr.Conflictf("cannot remove the account's last active membership")
		}
		ok, err := r.CASStatus(ctx, caller.TenantID, memberID, domain.StatusActive, domain.StatusRemoved)
		if err != nil {
			return err
		}
		if !ok {
			return perr.Conflictf("member changed concurrently")
		}
		removed = m
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  caller.TenantID,
		AccountID: caller.AccountID,
		MemberID:  caller.MemberID,
		Type:      auditdom.EventMemberRemoved,
		Data:      map[string]any{"member_id": removed.ID, "account_id": removed.AccountID},
	})
	return nil
}

// UpdateMember patches role, name and scheduling traits on a member
func (s *Svc) UpdateMember(ctx context.Context, caller gate.Caller, memberID string, in domain.UpdateMemberInput) (domain.Member, error) {
	if !caller.IsAdmin() {
		return domain.Member{}, perr.Forbiddenf("admin role required")
	}
	if in.Vacation != nil {
		for _, sp := range *in.Vacation {
			if _, err := interval.NewSpan(sp.Start, sp.End); err != nil {
				return domain.Member{}, err
			}
		}
	}
	if in.Role != nil && !in.Role.Valid() {
		return domain.Member{}, perr.InvalidArgf("unknown role %q", *in.Role)
	}

	var out domain.Member
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		m, err := r.GetMember(ctx, caller.TenantID, memberID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			m.Name = strings.TrimSpace(*in.Name)
		}
		if in.Role != nil {
			m.Role = *in.Role
		}
		if in.CanPeds != nil {
			m.CanPeds = *in.CanPeds
		}
		if in.Sequence != nil {
			m.Sequence = *in.Sequence
		}
		if in.Vacation != nil {
			m.Vacation = *in.Vacation
		}
		if err := r.UpdateMemberTraits(ctx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Member{}, err
	}

	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  caller.TenantID,
		AccountID: caller.AccountID,
		MemberID:  caller.MemberID,
		Type:      auditdom.EventMemberUpdated,
		Data:      map[string]any{"member_id": out.ID},
	})
	return out, nil
}

// ActivePros returns the schedulable roster for a tenant: ACTIVE members
// carrying a positive rotation sequence. Members with sequence zero exist
// for access only and never receive assignments
func (s *Svc) ActivePros(ctx context.Context, tenantID string) ([]domain.Member, error) {
	var out []domain.Member
	err := store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).ListMembers(ctx, tenantID, []domain.MemberStatus{domain.StatusActive})
		return err
	})
	if err != nil {
		return nil, err
	}
	pros := out[:0]
	for _, m := range out {
		if m.Sequence > 0 {
			pros = append(pros, m)
		}
	}
	return pros, nil
}
