// Package domain holds the stored-file model plus service contracts
package domain

import "time"

// File is one immutable uploaded document; delete drops its blobs best-effort
type File struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	HospitalID  string    `json:"hospital_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	BlobKey     string    `json:"blob_key"`
	ThumbKey    string    `json:"thumb_key,omitempty"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
}

// FileWithURL is a file plus a short-lived download link
type FileWithURL struct {
	File
	URL string `json:"url"`
}
