// Package http provides http transport for file upload and retrieval
package http

import (
	"io"
	stdhttp "net/http"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/httpkit"
	perr "turna/internal/platform/errors"
	"turna/internal/services/files/domain"
	svc "turna/internal/services/files/service"
)

const multipartMemory = 32 << 20

// Register mounts file endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.Post(r, "/", h.upload)
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.Delete(r, "/{id}", h.remove)
}

type handlers struct{ svc svc.Service }

// @Summary Upload a demand document
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param hospital_id formData string true "Hospital id"
// @Param file formData file true "PDF, PNG, JPEG or XLSX"
// @Success 200 {object} domain.File "ok"
// @Router /files [post]
func (h *handlers) upload(r *stdhttp.Request) (any, error) {
	caller, err := gate.RequireFull(r.Context())
	if err != nil {
		return nil, err
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, perr.InvalidArgf("malformed multipart payload")
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		return nil, perr.InvalidArgf("missing file part")
	}
	defer part.Close()
	data, err := io.ReadAll(part)
	if err != nil {
		return nil, perr.InvalidArgf("unreadable file part")
	}

	return h.svc.Create(r.Context(), caller, domain.CreateFileInput{
		HospitalID:  r.FormValue("hospital_id"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
}

// @Summary List files, optionally by hospital
// @Tags Files
// @Produce json
// @Param hospital_id query string false "Hospital id"
// @Success 200 {array} domain.File "ok"
// @Router /files [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.List(r.Context(), caller, httpkit.Query(r, "hospital_id"))
}

// @Summary File metadata plus a short-lived download URL
// @Tags Files
// @Produce json
// @Param id path string true "File id"
// @Success 200 {object} domain.FileWithURL "ok"
// @Router /files/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	caller, err := gate.Require(r.Context())
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), caller, httpkit.Param(r, "id"))
}

// @Summary Delete a file and its blobs
// @Tags Files
// @Success 204 "deleted"
// @Router /files/{id} [delete]
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
