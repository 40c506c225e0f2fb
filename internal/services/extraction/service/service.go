// Package service orchestrates demand extraction: fetch the source document,
// run the extractor with the hospital's prompt, shape the job result
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"turna/internal/platform/blob"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/logger"
	ddom "turna/internal/services/demands/domain"
	"turna/internal/services/extraction/domain"
	filesdom "turna/internal/services/files/domain"
	tendom "turna/internal/services/tenants/domain"
)

// TenantLoader resolves tenant and hospital settings for the worker
type TenantLoader interface {
	Load(ctx context.Context, tenantID string) (tendom.Tenant, error)
	LoadHospital(ctx context.Context, tenantID, hospitalID string) (tendom.Hospital, error)
}

// FileLoader is the worker-side file fetch
type FileLoader interface {
	Load(ctx context.Context, tenantID, id string) (filesdom.File, error)
}

// DemandSink persists extracted rows when the job asks for it
type DemandSink interface {
	InsertExtracted(ctx context.Context, tenantID string, rows []ddom.Demand) (int, error)
}

// Svc runs EXTRACT_DEMAND jobs
type Svc struct {
	files     FileLoader
	tenants   TenantLoader
	blobs     blob.Store
	extractor domain.Extractor
	demands   DemandSink
}

// New creates the extraction service
func New(files FileLoader, tenants TenantLoader, blobs blob.Store, extractor domain.Extractor, demands DemandSink) *Svc {
	if files == nil {
		panic("extraction.Service requires a non-nil file loader")
	}
	if tenants == nil {
		panic("extraction.Service requires a non-nil tenant loader")
	}
	if blobs == nil {
		panic("extraction.Service requires a non-nil blob store")
	}
	if extractor == nil {
		panic("extraction.Service requires a non-nil extractor")
	}
	if demands == nil {
		panic("extraction.Service requires a non-nil demand sink")
	}
	return &Svc{files: files, tenants: tenants, blobs: blobs, extractor: extractor, demands: demands}
}

// Run executes one EXTRACT_DEMAND job and returns its result payload
func (s *Svc) Run(ctx context.Context, tenantID, jobID string, raw []byte) (domain.Result, error) {
	var in domain.ExtractInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return domain.Result{}, perr.InvalidArgf("unparseable extract input")
	}
	if in.FileID == "" {
		return domain.Result{}, perr.InvalidArgf("file_id is required")
	}

	// tenant-scoped load doubles as the ownership check
	f, err := s.files.Load(ctx, tenantID, in.FileID)
	if err != nil {
		return domain.Result{}, err
	}

	meta := domain.Meta{FileID: f.ID, Filename: f.Filename, HospitalID: f.HospitalID}
	prompt := ""
	if f.HospitalID != "" {
		h, err := s.tenants.LoadHospital(ctx, tenantID, f.HospitalID)
		if err != nil {
			return domain.Result{}, err
		}
		prompt = h.Prompt
		meta.HospitalName = h.Name
	}

	path, cleanup, err := s.stage(ctx, f)
	if err != nil {
		return domain.Result{}, err
	}
	defer cleanup()

	rows, warns, err := s.extractor.Extract(ctx, path, f.ContentType, prompt)
	if err != nil {
		return domain.Result{}, err
	}

	res := domain.Result{Demands: rows, Warnings: warns, Meta: meta}
	if in.PersistDemands && len(rows) > 0 {
		n, err := s.persist(ctx, tenantID, jobID, f, rows)
		if err != nil {
			return domain.Result{}, err
		}
		res.Persisted = n
	}
	logger.C(ctx).Info().
		Str("job_id", jobID).
		Str("file_id", f.ID).
		Int("demands", len(res.Demands)).
		Int("persisted", res.Persisted).
		Msg("demand extraction finished")
	return res, nil
}

// stage streams the blob to a temp file the extractor can open; the extension
// steers format sniffing and falls back to .pdf
func (s *Svc) stage(ctx context.Context, f filesdom.File) (string, func(), error) {
	rc, err := s.blobs.Get(ctx, f.BlobKey)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	ext := filepath.Ext(f.Filename)
	if ext == "" {
		ext = ".pdf"
	}
	tmp, err := os.CreateTemp("", "extract-*"+ext)
	if err != nil {
		return "", nil, perr.Wrap(err, perr.ErrorCodeUnknown, "stage extraction file")
	}
	cleanup := func() {
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			logger.C(ctx).Warn().Err(err).Str("path", tmp.Name()).Msg("extraction temp file not removed")
		}
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "stream blob to temp file")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, perr.Wrap(err, perr.ErrorCodeUnknown, "stage extraction file")
	}
	return tmp.Name(), cleanup, nil
}

// persist turns extracted rows into demand rows bound to the job. Rows whose
// window cannot be resolved in the tenant zone are dropped, not failed
func (s *Svc) persist(ctx context.Context, tenantID, jobID string, f filesdom.File, rows []domain.ExtractedDemand) (int, error) {
	tenant, err := s.tenants.Load(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		return 0, perr.InvalidArgf("tenant timezone %q is unusable", tenant.Timezone)
	}

	out := make([]ddom.Demand, 0, len(rows))
	for _, r := range rows {
		start, err1 := time.ParseInLocation("2006-01-02 15:04", fmt.Sprintf("%s %s", r.Date, r.StartTime), loc)
		end, err2 := time.ParseInLocation("2006-01-02 15:04", fmt.Sprintf("%s %s", r.Date, r.EndTime), loc)
		if err1 != nil || err2 != nil {
			continue
		}
		if !end.After(start) {
			// crossing local midnight
			end = end.Add(24 * time.Hour)
		}
		out = append(out, ddom.Demand{
			HospitalID:     f.HospitalID,
			JobID:          jobID,
			Room:           r.Room,
			StartTime:      start,
			EndTime:        end,
			Procedure:      r.Procedure,
			AnesthesiaType: r.AnesthesiaType,
			Complexity:     r.Complexity,
			Priority:       r.Priority,
			IsPediatric:    r.IsPediatric,
			Notes:          r.Notes,
		})
	}
	return s.demands.InsertExtracted(ctx, tenantID, out)
}
