package domain

import (
	"turna/internal/core/interval"
	"turna/internal/modkit/gate"
)

// SigninInput identifies the principal after the upstream provider vouched for it
type SigninInput struct {
	Email    string `json:"email" validate:"required,email" example:"ana@example.org"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=120" example:"Ana Souza"`
	Provider string `json:"provider,omitempty" validate:"omitempty,max=32" example:"google"`
}

// SigninOutput carries the account-stage session plus everything needed to pick a tenant
type SigninOutput struct {
	Account Account        `json:"account"`
	Tenants []TenantAccess `json:"tenants"`
	Invites []Invite       `json:"invites"`
	Session Session        `json:"session"`
}

// SelectTenantInput scopes the next session to one tenant
type SelectTenantInput struct {
	TenantID string `json:"tenant_id" validate:"required,uuid4" example:"0d4cbc0e-6f1f-4df0-9f0b-0b8f4f3a8a11"`
}

// InviteInput offers membership to an email address
type InviteInput struct {
	Email string    `json:"email" validate:"required,email" example:"novo@example.org"`
	Role  gate.Role `json:"role" validate:"required,oneof=ADMIN MEMBER" example:"MEMBER"`
}

// UpdateMemberInput patches scheduling traits and role; nil fields are untouched.
// Vacation replaces the whole list when present
type UpdateMemberInput struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	Role     *gate.Role       `json:"role,omitempty" validate:"omitempty,oneof=ADMIN MEMBER"`
	CanPeds  *bool            `json:"can_peds,omitempty"`
	Sequence *int             `json:"sequence,omitempty" validate:"omitempty,min=0"`
	Vacation *[]interval.Span `json:"vacation,omitempty"`
}
