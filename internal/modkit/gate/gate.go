// Package gate checks the caller's standing before service work runs
// the auth middleware hydrates the identity; gate only reads and enforces
package gate

import (
	"context"

	perr "turna/internal/platform/errors"
	pnet "turna/internal/platform/net"
)

// Role is a member's standing inside a tenant
type Role string

const (
	// RoleAdmin can manage members, hospitals and tenant settings
	RoleAdmin Role = "ADMIN"
	// RoleMember can read and operate on schedule data
	RoleMember Role = "MEMBER"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleMember }

// Caller is the authenticated identity for one request
// Limited marks invite-stage tokens that only authorize accept/reject
type Caller struct {
	AccountID string
	TenantID  string
	MemberID  string
	Role      Role
	Limited   bool
}

// IsAdmin reports whether the caller holds the admin role
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// RequireTenant returns Forbidden when the resource belongs to another tenant
// same error for missing and foreign resources, so probing leaks nothing
func (c Caller) RequireTenant(resourceTenant string) error {
	if c.TenantID == "" || resourceTenant != c.TenantID {
		return perr.Forbiddenf("outside tenant scope")
	}
	return nil
}

// FromContext returns the caller hydrated by the auth middleware
// account-stage tokens pass with an empty TenantID
func FromContext(ctx context.Context) (Caller, error) {
	id, ok := pnet.IdentityFrom(ctx)
	if !ok || id.AccountID == "" {
		return Caller{}, perr.Unauthorizedf("missing bearer token")
	}
	return Caller{
		AccountID: id.AccountID,
		TenantID:  id.TenantID,
		MemberID:  id.MemberID,
		Role:      Role(id.Role),
		Limited:   id.Limited,
	}, nil
}

// Require returns the caller and enforces tenant scope on the token
func Require(ctx context.Context) (Caller, error) {
	c, err := FromContext(ctx)
	if err != nil {
		return Caller{}, err
	}
	if c.TenantID == "" {
		return Caller{}, perr.Unauthorizedf("missing tenant scope")
	}
	return c, nil
}

// RequireFull additionally rejects limited invite-stage tokens
func RequireFull(ctx context.Context) (Caller, error) {
	c, err := Require(ctx)
	if err != nil {
		return Caller{}, err
	}
	if c.Limited {
		return Caller{}, perr.Forbiddenf("limited session cannot perform this action")
	}
	return c, nil
}

// RequireAdmin enforces the admin role on a full token
func RequireAdmin(ctx context.Context) (Caller, error) {
	c, err := RequireFull(ctx)
	if err != nil {
		return Caller{}, err
	}
	if !c.IsAdmin() {
		return Caller{}, perr.Forbiddenf("admin role required")
	}
	return c, nil
}
