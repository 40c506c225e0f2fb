// Package blob defines the object storage seam and the key scheme shared by
// every component that reads or writes blobs
package blob

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the object storage contract. Keys are opaque strings; callers
// build them with Key so tenancy stays visible in the prefix
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Key builds "<tenantId>/<kind>/<uuid>_<filename>". The filename is reduced
// to its base so uploads cannot steer the key out of the tenant prefix
func Key(tenantID, kind, filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s/%s/%s_%s", tenantID, kind, uuid.NewString(), name)
}
