// Package http provides http transport for sign-in, sessions and members
package http

import (
	stdhttp "net/http"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/httpkit"
	"turna/internal/platform/net/middleware"
	"turna/internal/services/identity/domain"
	svc "turna/internal/services/identity/service"
)

// RegisterAuth mounts the session endpoints. Sign-in is the one open route
// in the API; tenant selection requires the account-stage token, so it gets
// the bearer middleware on its own subgroup
func RegisterAuth(r httpkit.Router, s svc.Service, auth middleware.AuthPort) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.SigninInput](r, "/signin", h.signin)
	r.Group(func(gr httpkit.Router) {
		gr.Use(httpkit.Auth(auth))
		httpkit.PostJSON[domain.SelectTenantInput](gr, "/select-tenant", h.selectTenant)
	})
}

// RegisterMembers mounts the roster and invite endpoints
func RegisterMembers(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.Get(r, "/", h.list)
	httpkit.PostJSON[domain.InviteInput](r, "/invite", h.invite)
	httpkit.Post(r, "/{id}/accept", h.accept)
	httpkit.Post(r, "/{id}/reject", h.reject)
	httpkit.PatchJSON[domain.UpdateMemberInput](r, "/{id}", h.update)
	httpkit.Delete(r, "/{id}", h.remove)
}

type handlers struct{ svc svc.Service }

// @Summary Sign in with a provider-verified email
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body domain.SigninInput true "Principal"
// @Success 200 {object} domain.SigninOutput "ok"
// @Router /auth/signin [post]
func (h *handlers) signin(r *stdhttp.Request, in domain.SigninInput) (any, error) {
	return h.svc.Signin(r.Context(), in)
}

// @Summary Exchange the account session for a tenant-scoped one
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body domain.SelectTenantInput true "Tenant choice"
// @Success 200 {object} domain.Session "ok"
// @Router /auth/select-tenant [post]
func (h *handlers) selectTenant(r *stdhttp.Request, in domain.SelectTenantInput) (any, error) {
	caller, err := gate.FromContext(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.SelectTenant(r.Context(), caller, in)
}

// @Summary List tenant members
// @Tags Members
// @Produce json
// @Param status query string false "Filter by status (admin)"
// @Success 200 {array} domain.Member "ok"
// @Router /members [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	status := domain.MemberStatus(httpkit.Query(r, "status"))
	return h.svc.ListMembers(r.Context(), caller, status)
}

// @Summary Invite an email into the tenant (admin)
// @Tags Members
// @Accept json
// @Produce json
// @Param payload body domain.InviteInput true "Invite"
// @Success 200 {object} domain.Member "ok"
// @Router /members/invite [post]
func (h *handlers) invite(r *stdhttp.Request, in domain.InviteInput) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.InviteMember(r.Context(), caller, in)
}

// @Summary Accept a pending invite (limited session ok)
// @Tags Members
// @Produce json
// @Param id path string true "Member id"
// @Success 200 {object} domain.Member "ok"
// @Router /members/{id}/accept [post]
func (h *handlers) accept(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.AcceptInvite(r.Context(), caller, httpkit.Param(r, "id"))
}

// @Summary Reject a pending invite (limited session ok)
// @Tags Members
// @Produce json
// @Param id path string true "Member id"
// @Success 200 {object} domain.Member "ok"
// @Router /members/{id}/reject [post]
func (h *handlers) reject(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.RejectInvite(r.Context(), caller, httpkit.Param(r, "id"))
}

// @Summary Patch member role and scheduling traits (admin)
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "Member id"
// @Param payload body domain.UpdateMemberInput true "Patch"
// @Success 200 {object} domain.Member "ok"
// @Router /members/{id} [patch]
func (h *handlers) update(r *stdhttp.Request, in domain.UpdateMemberInput) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.UpdateMember(r.Context(), caller, httpkit.Param(r, "id"), in)
}

// @Summary Remove an active member (admin)
// @Tags Members
// @Success 204 "removed"
// @Router /members/{id} [delete]
func (h *handlers) remove(r *stdhttp.Request) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	if err := h.svc.RemoveMember(r.Context(), caller, httpkit.Param(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}
