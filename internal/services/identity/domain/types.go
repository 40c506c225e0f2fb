// Package domain holds the account and membership model plus service contracts
package domain

import (
	"time"

	"turna/internal/core/interval"
	"turna/internal/modkit/gate"
)

// MemberStatus is the lifecycle state of a membership edge
type MemberStatus string

const (
	// StatusPending marks an invite awaiting the invitee's decision
	StatusPending MemberStatus = "PENDING"
	// StatusActive marks a working membership
	StatusActive MemberStatus = "ACTIVE"
	// StatusRejected marks an invite the invitee declined
	StatusRejected MemberStatus = "REJECTED"
	// StatusRemoved marks a membership an admin revoked
	StatusRemoved MemberStatus = "REMOVED"
)

// Valid reports whether s is a known status
func (s MemberStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusRejected, StatusRemoved:
		return true
	}
	return false
}

// Account is a human principal, unique by lowercased email
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Provider  string    `json:"auth_provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is the (account, tenant) edge carrying role and scheduling traits.
// AccountID is empty while a pending invite is keyed only by email
type Member struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	AccountID string          `json:"account_id,omitempty"`
	Email     string          `json:"email,omitempty"`
	Name      string          `json:"name,omitempty"`
	Role      gate.Role       `json:"role"`
	Status    MemberStatus    `json:"status"`
	CanPeds   bool            `json:"can_peds"`
	Sequence  int             `json:"sequence"`
	Vacation  []interval.Span `json:"vacation"`
	CreatedAt time.Time       `json:"created_at"`
}

// TenantAccess is one tenant an account can open a session in
type TenantAccess struct {
	TenantID   string    `json:"tenant_id"`
	TenantName string    `json:"tenant_name"`
	MemberID   string    `json:"member_id"`
	Role       gate.Role `json:"role"`
}

// Invite is a pending membership offer shown before tenant selection
type Invite struct {
	MemberID   string    `json:"member_id"`
	TenantID   string    `json:"tenant_id"`
	TenantName string    `json:"tenant_name"`
	Role       gate.Role `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is a minted token plus the scope it grants
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	TenantID  string    `json:"tenant_id,omitempty"`
	MemberID  string    `json:"member_id,omitempty"`
	Role      gate.Role `json:"role,omitempty"`
	Limited   bool      `json:"limited"`
}
