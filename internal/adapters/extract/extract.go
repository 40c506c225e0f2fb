// Package extract implements the demand extractors behind the extraction
// orchestrator: a deterministic spreadsheet reader and a genai vision reader,
// routed by source content type
package extract

import (
	"context"
	"path/filepath"
	"strings"

	perr "turna/internal/platform/errors"
	"turna/internal/services/extraction/domain"
)

// Switch routes a document to the extractor that understands its format
type Switch struct {
	sheet  domain.Extractor
	vision domain.Extractor
}

// NewSwitch builds the content-type router
func NewSwitch(sheet, vision domain.Extractor) *Switch {
	return &Switch{sheet: sheet, vision: vision}
}

var _ domain.Extractor = (*Switch)(nil)

// Extract implements domain.Extractor
func (s *Switch) Extract(ctx context.Context, path, contentType, prompt string) ([]domain.ExtractedDemand, []string, error) {
	switch {
	case isSheet(path, contentType):
		return s.sheet.Extract(ctx, path, contentType, prompt)
	case isVisual(path, contentType):
		return s.vision.Extract(ctx, path, contentType, prompt)
	default:
		return nil, nil, perr.InvalidArgf("unsupported document type %q", contentType)
	}
}

func isSheet(path, contentType string) bool {
	if strings.Contains(contentType, "spreadsheet") || strings.Contains(contentType, "ms-excel") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".xlsx" || ext == ".xlsm"
}

func isVisual(path, contentType string) bool {
	switch contentType {
	case "application/pdf", "image/png", "image/jpeg":
		return true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
