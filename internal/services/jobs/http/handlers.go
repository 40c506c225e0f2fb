// Package http provides http transport for the job engine
package http

import (
	stdhttp "net/http"
	"strconv"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/httpkit"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/logger"
	phttp "turna/internal/platform/net/http"
	"turna/internal/services/jobs/domain"
	svc "turna/internal/services/jobs/service"
)

// Register mounts job endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.EnqueueInput](r, "/", h.enqueue)
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.Post(r, "/{id}/cancel", h.cancel)
	httpkit.PostJSON[domain.RequeueInput](r, "/{id}/requeue", h.requeue)
	r.Get("/{id}/stream", h.stream)
}

type handlers struct{ svc svc.Service }

// @Summary Enqueue a job
// @Tags Jobs
// @Accept json
// @Produce json
// @Param payload body domain.EnqueueInput true "Kind and input"
// @Success 200 {object} domain.Job "ok"
// @Router /jobs [post]
func (h *handlers) enqueue(r *stdhttp.Request, in domain.EnqueueInput) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.Enqueue(r.Context(), caller, in)
}

// @Summary List tenant jobs
// @Tags Jobs
// @Produce json
// @Param kind query string false "Filter by kind"
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} domain.Job "ok"
// @Router /jobs [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	limit, _ := strconv.Atoi(httpkit.Query(r, "limit"))
	offset, _ := strconv.Atoi(httpkit.Query(r, "offset"))
	return h.svc.List(r.Context(), caller, domain.ListFilter{
		Kind:   domain.Kind(httpkit.Query(r, "kind")),
		Status: domain.Status(httpkit.Query(r, "status")),
		Limit:  limit,
		Offset: offset,
	})
}

// @Summary Job detail
// @Tags Jobs
// @Produce json
// @Param id path string true "Job id"
// @Success 200 {object} domain.Job "ok"
// @Router /jobs/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), caller, httpkit.Param(r, "id"))
}

// @Summary Cancel a job cooperatively
// @Tags Jobs
// @Produce json
// @Param id path string true "Job id"
// @Success 200 {object} domain.Job "ok"
// @Router /jobs/{id}/cancel [post]
func (h *handlers) cancel(r *stdhttp.Request) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.Cancel(r.Context(), caller, httpkit.Param(r, "id"))
}

// @Summary Requeue a failed or stale job
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job id"
// @Param payload body domain.RequeueInput true "Requeue options"
// @Success 200 {object} domain.Job "ok"
// @Router /jobs/{id}/requeue [post]
func (h *handlers) requeue(r *stdhttp.Request, in domain.RequeueInput) (any, error) {
	caller, err := gate.RequireAdmin(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.Requeue(r.Context(), caller, httpkit.Param(r, "id"), in)
}

// @Summary Stream job status transitions as server-sent events
// @Tags Jobs
// @Produce text/event-stream
// @Param id path string true "Job id"
// @Success 200 "event stream"
// @Router /jobs/{id}/stream [get]
func (h *handlers) stream(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	// resolve the job before switching protocols so a miss is a clean 404
	if _, err := h.svc.Get(r.Context(), caller, httpkit.Param(r, "id")); err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	sse, err := phttp.NewSSE(w)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	err = h.svc.Stream(r.Context(), caller, httpkit.Param(r, "id"), func(ev domain.StatusEvent) error {
		return sse.Send("status", ev)
	})
	if err != nil {
		// headers are gone; emit the error as a terminal event instead
		_ = sse.Send("error", perr.WireFrom(err))
		logger.C(r.Context()).Debug().Err(err).Msg("job stream ended with error")
	}
}
