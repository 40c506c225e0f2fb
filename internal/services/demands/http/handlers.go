// Package http provides http transport for demand intake
package http

import (
	stdhttp "net/http"
	"time"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/httpkit"
	perr "turna/internal/platform/errors"
	"turna/internal/services/demands/domain"
	svc "turna/internal/services/demands/service"
)

// Register mounts demand endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.CreateDemandInput](r, "/", h.create)
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.PatchJSON[domain.UpdateDemandInput](r, "/{id}", h.update)
	httpkit.Delete(r, "/{id}", h.remove)
}

type handlers struct{ svc svc.Service }

// @Summary Create a demand manually
// @Tags Demands
// @Accept json
// @Produce json
// @Param payload body domain.CreateDemandInput true "Demand"
// @Success 200 {object} domain.Demand "ok"
// @Router /demands [post]
func (h *handlers) create(r *stdhttp.Request, in domain.CreateDemandInput) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.Create(r.Context(), caller, in)
}

// @Summary List demands by hospital, window or schedule status
// @Tags Demands
// @Produce json
// @Param hospital_id query string false "Hospital id"
// @Param from query string false "RFC3339 inclusive lower bound on start_time"
// @Param to query string false "RFC3339 exclusive upper bound on start_time"
// @Param status query string false "Schedule status"
// @Success 200 {array} domain.Demand "ok"
// @Router /demands [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	f := domain.ListFilter{
		HospitalID: httpkit.Query(r, "hospital_id"),
		Status:     domain.ScheduleStatus(httpkit.Query(r, "status")),
	}
	if f.From, err = parseInstant(httpkit.Query(r, "from")); err != nil {
		return nil, err
	}
	if f.To, err = parseInstant(httpkit.Query(r, "to")); err != nil {
		return nil, err
	}
	return h.svc.List(r.Context(), caller, f)
}

// @Summary Demand detail
// @Tags Demands
// @Produce json
// @Param id path string true "Demand id"
// @Success 200 {object} domain.Demand "ok"
// @Router /demands/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), caller, httpkit.Param(r, "id"))
}

// @Summary Patch a demand
// @Tags Demands
// @Accept json
// @Produce json
// @Param id path string true "Demand id"
// @Param payload body domain.UpdateDemandInput true "Fields to change"
// @Success 200 {object} domain.Demand "ok"
// @Router /demands/{id} [patch]
func (h *handlers) update(r *stdhttp.Request, in domain.UpdateDemandInput) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.Update(r.Context(), caller, httpkit.Param(r, "id"), in)
}

// @Summary Delete a demand
// @Tags Demands
// @Success 204 "deleted"
// @Router /demands/{id} [delete]
func (h *handlers) remove(r *stdhttp.Request) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	if err := h.svc.Delete(r.Context(), caller, httpkit.Param(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// parseInstant requires an explicit offset; naive timestamps are refused
func parseInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, perr.InvalidArgf("timestamp %q must be RFC3339 with offset", s)
	}
	return t, nil
}
