// Package domain holds the tenant and hospital model plus service contracts
package domain

import "time"

// Tenant is the isolation root; every other entity hangs off its id
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Label     string    `json:"label,omitempty"`
	Timezone  string    `json:"timezone"`
	Locale    string    `json:"locale"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Hospital is a demand source inside a tenant
// Prompt is the per-hospital extractor template fed to the vision pipeline
type Hospital struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Color    string `json:"color,omitempty"`
}
