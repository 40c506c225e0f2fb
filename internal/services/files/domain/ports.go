package domain

import (
	"context"

	"turna/internal/modkit/gate"
)

// CreateFileInput is the decoded multipart upload
type CreateFileInput struct {
	HospitalID  string
	Filename    string
	ContentType string
	Data        []byte
}

// ServicePort is the files contract consumed by transport and the worker
type ServicePort interface {
	Create(ctx context.Context, caller gate.Caller, in CreateFileInput) (File, error)
	Get(ctx context.Context, caller gate.Caller, id string) (FileWithURL, error)
	List(ctx context.Context, caller gate.Caller, hospitalID string) ([]File, error)
	Delete(ctx context.Context, caller gate.Caller, id string) error

	// Load is the worker-side fetch; the tenant comes from the job row, not a session
	Load(ctx context.Context, tenantID, id string) (File, error)
	// Thumbnail renders and attaches a preview for image files; non-image
	// content is skipped, never failed
	Thumbnail(ctx context.Context, tenantID, fileID string) (map[string]any, error)
}

// Thumbnailer resizes raster images to a preview width
type Thumbnailer interface {
	Resize(data []byte, width int) (png []byte, err error)
}

// Repo is the storage contract bound per-queryer
type Repo interface {
	Insert(ctx context.Context, f File) error
	Get(ctx context.Context, tenantID, id string) (File, error)
	List(ctx context.Context, tenantID, hospitalID string) ([]File, error)
	Delete(ctx context.Context, tenantID, id string) (bool, error)
	SetThumbKey(ctx context.Context, tenantID, id, key string) error
	HospitalExists(ctx context.Context, tenantID, id string) (bool, error)
}
