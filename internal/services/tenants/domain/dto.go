package domain

// CreateTenantInput bootstraps a tenant with the calling account as first admin
type CreateTenantInput struct {
	Name     string `json:"name" validate:"required,min=2,max=120" example:"Santa Casa"`
	Label    string `json:"label,omitempty" validate:"omitempty,min=2,max=64" example:"santa-casa"`
	Timezone string `json:"timezone" validate:"required" example:"America/Sao_Paulo"`
	Locale   string `json:"locale" validate:"required" example:"pt-BR"`
	Currency string `json:"currency" validate:"required,len=3,alpha" example:"BRL"`
}

// UpdateTenantInput patches tenant settings; nil fields are untouched
type UpdateTenantInput struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Label    *string `json:"label,omitempty" validate:"omitempty,min=2,max=64"`
	Timezone *string `json:"timezone,omitempty"`
	Locale   *string `json:"locale,omitempty"`
	Currency *string `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
}

// CreateHospitalInput registers a demand source
type CreateHospitalInput struct {
	Name   string `json:"name" validate:"required,min=2,max=160" example:"Hospital Central"`
	Label  string `json:"label,omitempty" validate:"omitempty,max=64"`
	Prompt string `json:"prompt,omitempty" validate:"omitempty,max=8000"`
	Color  string `json:"color,omitempty" validate:"omitempty,hexcolor" example:"#1f7a8c"`
}

// UpdateHospitalInput patches a hospital; nil fields are untouched
type UpdateHospitalInput struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=2,max=160"`
	Label  *string `json:"label,omitempty" validate:"omitempty,max=64"`
	Prompt *string `json:"prompt,omitempty" validate:"omitempty,max=8000"`
	Color  *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}
