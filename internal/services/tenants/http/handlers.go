// Package http provides http transport for tenants and hospitals
package http

import (
	stdhttp "net/http"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/httpkit"
	"turna/internal/services/tenants/domain"
	svc "turna/internal/services/tenants/service"
)

// Register mounts tenant endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.CreateTenantInput](r, "/", h.create)
	httpkit.Get(r, "/me", h.me)
	httpkit.PatchJSON[domain.UpdateTenantInput](r, "/me", h.update)
}

// RegisterHospitals mounts hospital endpoints on the given router
func RegisterHospitals(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.Get(r, "/", h.listHospitals)
	httpkit.PostJSON[domain.CreateHospitalInput](r, "/", h.createHospital)
	httpkit.PatchJSON[domain.UpdateHospitalInput](r, "/{id}", h.updateHospital)
	httpkit.Delete(r, "/{id}", h.deleteHospital)
}

type handlers struct{ svc svc.Service }

// @Summary Bootstrap a tenant with the caller as first admin
// @Tags Tenants
// @Accept json
// @Produce json
// @Param payload body domain.CreateTenantInput true "Tenant"
// @Success 200 {object} domain.Tenant "ok"
// @Router /tenants [post]
func (h *handlers) create(r *stdhttp.Request, in domain.CreateTenantInput) (any, error) {
	caller, err := gate.FromContext(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.CreateTenant(r.Context(), caller, in)
}

// @Summary Current tenant profile
// @Tags Tenants
// @Produce json
// @Success 200 {object} domain.Tenant "ok"
// @Router /tenants/me [get]
func (h *handlers) me(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.GetTenant(r.Context(), caller)
}

// @Summary Patch tenant settings (admin)
// @Tags Tenants
// @Accept json
// @Produce json
// @Param payload body domain.UpdateTenantInput true "Patch"
// @Success 200 {object} domain.Tenant "ok"
// @Router /tenants/me [patch]
func (h *handlers) update(r *stdhttp.Request, in domain.UpdateTenantInput) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.UpdateTenant(r.Context(), caller, in)
}

// @Summary List hospitals
// @Tags Hospitals
// @Produce json
// @Success 200 {array} domain.Hospital "ok"
// @Router /hospitals [get]
func (h *handlers) listHospitals(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.ListHospitals(r.Context(), caller)
}

// @Summary Create a hospital (admin)
// @Tags Hospitals
// @Accept json
// @Produce json
// @Param payload body domain.CreateHospitalInput true "Hospital"
// @Success 200 {object} domain.Hospital "ok"
// @Router /hospitals [post]
func (h *handlers) createHospital(r *stdhttp.Request, in domain.CreateHospitalInput) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.CreateHospital(r.Context(), caller, in)
}

// @Summary Patch a hospital (admin)
// @Tags Hospitals
// @Accept json
// @Produce json
// @Param id path string true "Hospital id"
// @Param payload body domain.UpdateHospitalInput true "Patch"
// @Success 200 {object} domain.Hospital "ok"
// @Router /hospitals/{id} [patch]
func (h *handlers) updateHospital(r *stdhttp.Request, in domain.UpdateHospitalInput) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.UpdateHospital(r.Context(), caller, httpkit.Param(r, "id"), in)
}

// @Summary Delete a hospital (admin)
// @Tags Hospitals
// @Success 204 "deleted"
// @Router /hospitals/{id} [delete]
func (h *handlers) deleteHospital(r *stdhttp.Request) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeleteHospital(r.Context(), caller, httpkit.Param(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}
