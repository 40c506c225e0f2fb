// Package http provides http transport for the schedule materializer
package http

import (
	"encoding/json"
	stdhttp "net/http"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/httpkit"
	perr "turna/internal/platform/errors"
	ddom "turna/internal/services/demands/domain"
	jobsdom "turna/internal/services/jobs/domain"
	"turna/internal/services/schedule/domain"
	svc "turna/internal/services/schedule/service"
)

// Register mounts schedule endpoints on the given router. Generation is
// asynchronous: the generate route enqueues a job and returns its id
func Register(r httpkit.Router, s svc.Service, jobs jobsdom.ServicePort) {
	h := &handlers{svc: s, jobs: jobs}

	httpkit.PostJSON[domain.GenerateInput](r, "/generate", h.generate)
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{demandId}", h.get)
	httpkit.Post(r, "/{demandId}/publish", h.publish)
	httpkit.Delete(r, "/{demandId}", h.del)
	httpkit.Post(r, "/{demandId}/archive", h.archive)
}

type handlers struct {
	svc  svc.Service
	jobs jobsdom.ServicePort
}

// @Summary Generate a schedule asynchronously
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body domain.GenerateInput true "Period, mode and solver options"
// @Success 200 {object} jobsdom.Job "ok"
// @Router /schedules/generate [post]
func (h *handlers) generate(r *stdhttp.Request, in domain.GenerateInput) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, perr.JSONErrf("encode generate input")
	}
	return h.jobs.Enqueue(r.Context(), caller, jobsdom.EnqueueInput{
		Kind:  jobsdom.KindGenerateSchedule,
		Input: raw,
	})
}

// @Summary List schedule-bearing demands
// @Tags Schedules
// @Produce json
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Success 200 {array} domain.ScheduleView "ok"
// @Router /schedules [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.List(r.Context(), caller, ddom.ScheduleStatus(httpkit.Query(r, "status")))
}

// @Summary Reconstructed per-day schedule of one demand
// @Tags Schedules
// @Produce json
// @Param demandId path string true "Demand id"
// @Success 200 {object} domain.ScheduleView "ok"
// @Router /schedules/{demandId} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), caller, httpkit.Param(r, "demandId"))
}

// @Summary Publish a draft schedule to PDF
// @Tags Schedules
// @Produce json
// @Param demandId path string true "Demand id"
// @Success 200 {object} domain.PublishOutput "ok"
// @Router /schedules/{demandId}/publish [post]
func (h *handlers) publish(r *stdhttp.Request) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.Publish(r.Context(), caller, httpkit.Param(r, "demandId"))
}

// @Summary Delete a draft schedule
// @Tags Schedules
// @Param demandId path string true "Demand id"
// @Success 204 "deleted"
// @Router /schedules/{demandId} [delete]
func (h *handlers) del(r *stdhttp.Request) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	if err := h.svc.Delete(r.Context(), caller, httpkit.Param(r, "demandId")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// @Summary Archive a published schedule
// @Tags Schedules
// @Produce json
// @Param demandId path string true "Demand id"
// @Success 200 {object} domain.ScheduleView "ok"
// @Router /schedules/{demandId}/archive [post]
func (h *handlers) archive(r *stdhttp.Request) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.Archive(r.Context(), caller, httpkit.Param(r, "demandId"))
}
