// Package service contains upload, download and thumbnail workflows
package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"turna/internal/modkit/gate"
	"turna/internal/modkit/repokit"
	"turna/internal/platform/blob"
	perr "turna/internal/platform/errors"
	"turna/internal/platform/logger"
	"turna/internal/platform/store"
	auditdom "turna/internal/services/audit/domain"
	"turna/internal/services/files/domain"
)

const (
	presignTTL = 15 * time.Minute
	thumbWidth = 320

	// DefaultMaxUpload bounds one document; surgical maps are small
	DefaultMaxUpload = int64(25 << 20)
)

// accepted maps the content types the extractors can work with
var accepted = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// Service is the files contract
type Service interface{ domain.ServicePort }

// Svc implements the Service interface
type Svc struct {
	db       repokit.TxRunner
	binder   repokit.Binder[domain.Repo]
	blobs    blob.Store
	thumbs   domain.Thumbnailer
	audit    auditdom.RecorderPort
	maxBytes int64
}

// New creates the files service; maxBytes <= 0 selects the default cap
func New(db repokit.TxRunner, binder repokit.Binder[domain.Repo], blobs blob.Store, thumbs domain.Thumbnailer, audit auditdom.RecorderPort, maxBytes int64) *Svc {
	if db == nil {
		panic("files.Service requires a non-nil TxRunner")
	}
	if binder == nil {
		panic("files.Service requires a non-nil Repo binder")
	}
	if blobs == nil {
		panic("files.Service requires a non-nil blob store")
	}
	if thumbs == nil {
		panic("files.Service requires a non-nil thumbnailer")
	}
	if audit == nil {
		panic("files.Service requires a non-nil audit recorder")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUpload
	}
	return &Svc{db: db, binder: binder, blobs: blobs, thumbs: thumbs, audit: audit, maxBytes: maxBytes}
}

// Create stores the blob first and the row second; a failed row insert
// cleans the blob back up so no orphan key survives
func (s *Svc) Create(ctx context.Context, caller gate.Caller, in domain.CreateFileInput) (domain.File, error) {
	name := strings.TrimSpace(in.Filename)
	switch {
	case in.HospitalID == "":
		return domain.File{}, perr.InvalidArgf("hospital_id is required")
	case name == "":
		return domain.File{}, perr.InvalidArgf("filename is required")
	case len(in.Data) == 0:
		return domain.File{}, perr.InvalidArgf("file payload is empty")
	case int64(len(in.Data)) > s.maxBytes:
		return domain.File{}, perr.InvalidArgf("file exceeds the %d byte limit", s.maxBytes)
	}
	ct, err := resolveContentType(in.ContentType, in.Data)
	if err != nil {
		return domain.File{}, err
	}

	f := domain.File{
		ID:          uuid.NewString(),
		TenantID:    caller.TenantID,
		HospitalID:  in.HospitalID,
		Filename:    name,
		ContentType: ct,
		BlobKey:     blob.Key(caller.TenantID, "files", name),
		FileSize:    int64(len(in.Data)),
	}

	err = store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		ok, err := s.binder.Bind(q).HospitalExists(ctx, caller.TenantID, in.HospitalID)
		if err != nil {
			return err
		}
		if !ok {
			return perr.NotFoundf("hospital not found")
		}
		return nil
	})
	if err != nil {
		return domain.File{}, err
	}

	if err := s.blobs.Put(ctx, f.BlobKey, in.Data, ct); err != nil {
		return domain.File{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "store file blob")
	}
	err = store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		return s.binder.Bind(q).Insert(ctx, f)
	})
	if err != nil {
		if derr := s.blobs.Delete(context.WithoutCancel(ctx), f.BlobKey); derr != nil {
			logger.Named("files").Warn().Err(derr).Str("blob_key", f.BlobKey).Msg("orphan blob left behind")
		}
		return domain.File{}, err
	}

	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  caller.TenantID,
		AccountID: caller.AccountID,
		MemberID:  caller.MemberID,
		Type:      auditdom.EventFileCreated,
		Data:      map[string]any{"file_id": f.ID, "filename": f.Filename, "content_type": ct, "file_size": f.FileSize},
	})
	f.CreatedAt = time.Now().UTC()
	return f, nil
}

// Get returns the row plus a short-lived download URL
func (s *Svc) Get(ctx context.Context, caller gate.Caller, id string) (domain.FileWithURL, error) {
	f, err := s.Load(ctx, caller.TenantID, id)
	if err != nil {
		return domain.FileWithURL{}, err
	}
	url, err := s.blobs.PresignGet(ctx, f.BlobKey, presignTTL)
	if err != nil {
		return domain.FileWithURL{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "presign file")
	}
	return domain.FileWithURL{File: f, URL: url}, nil
}

// List returns tenant files, optionally narrowed to one hospital
func (s *Svc) List(ctx context.Context, caller gate.Caller, hospitalID string) ([]domain.File, error) {
	var out []domain.File
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		out, err = s.binder.Bind(q).List(ctx, caller.TenantID, hospitalID)
		return err
	})
	return out, err
}

// Delete removes the row, then the blobs best-effort; a stuck bucket never
// resurrects the row
func (s *Svc) Delete(ctx context.Context, caller gate.Caller, id string) error {
	var f domain.File
	err := store.RunInTenant(ctx, s.db, caller.TenantID, func(ctx context.Context, q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		f, err = r.Get(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		ok, err := r.Delete(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		if !ok {
			return perr.NotFoundf("file not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	log := logger.Named("files")
	cleanup := context.WithoutCancel(ctx)
	if err := s.blobs.Delete(cleanup, f.BlobKey); err != nil {
		log.Warn().Err(err).Str("blob_key", f.BlobKey).Msg("blob delete failed")
	}
	if f.ThumbKey != "" {
		if err := s.blobs.Delete(cleanup, f.ThumbKey); err != nil {
			log.Warn().Err(err).Str("blob_key", f.ThumbKey).Msg("thumb delete failed")
		}
	}

	s.audit.Emit(ctx, auditdom.Event{
		TenantID:  caller.TenantID,
		AccountID: caller.AccountID,
		MemberID:  caller.MemberID,
		Type:      auditdom.EventFileDeleted,
		Data:      map[string]any{"file_id": f.ID, "filename": f.Filename},
	})
	return nil
}

// Load fetches a file row on behalf of the worker, scoped by the job's tenant
func (s *Svc) Load(ctx context.Context, tenantID, id string) (domain.File, error) {
	var f domain.File
	err := store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		var err error
		f, err = s.binder.Bind(q).Get(ctx, tenantID, id)
		return err
	})
	return f, err
}

// Thumbnail renders a 320px preview for raster images and records its key.
// PDFs and sheets are skipped: rasterizing them is an external collaborator
func (s *Svc) Thumbnail(ctx context.Context, tenantID, fileID string) (map[string]any, error) {
	f, err := s.Load(ctx, tenantID, fileID)
	if err != nil {
		return nil, err
	}
	if f.ContentType != "image/png" && f.ContentType != "image/jpeg" {
		logger.Named("files").Info().Str("file_id", f.ID).Str("content_type", f.ContentType).Msg("thumbnail skipped")
		return map[string]any{"skipped": true}, nil
	}

	rc, err := s.blobs.Get(ctx, f.BlobKey)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "fetch file blob")
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "read file blob")
	}

	png, err := s.thumbs.Resize(data, thumbWidth)
	if err != nil {
		return nil, err
	}
	key := blob.Key(tenantID, "thumbs", f.Filename+".png")
	if err := s.blobs.Put(ctx, key, png, "image/png"); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "store thumbnail")
	}
	err = store.RunInTenant(ctx, s.db, tenantID, func(ctx context.Context, q repokit.Queryer) error {
		return s.binder.Bind(q).SetThumbKey(ctx, tenantID, fileID, key)
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"thumb_key": key}, nil
}

// resolveContentType trusts a whitelisted declaration and sniffs otherwise.
// Sniffing matters for xlsx, which browsers often send as octet-stream
func resolveContentType(declared string, data []byte) (string, error) {
	if accepted[declared] {
		return declared, nil
	}
	det := mimetype.Detect(data)
	for ct := range accepted {
		if det.Is(ct) {
			return ct, nil
		}
	}
	got := declared
	if got == "" {
		got = det.String()
	}
	return "", perr.InvalidArgf("unsupported content type %q", got)
}
