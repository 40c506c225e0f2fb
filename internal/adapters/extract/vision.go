package extract

import (
	"context"
	"encoding/json"
	"os"

	"google.golang.org/genai"

	"turna/internal/platform/config"
	perr "turna/internal/platform/errors"
	"turna/internal/services/extraction/domain"
)

const defaultPrompt = `Extract every surgical demand from this document.
Return JSON: {"demands": [{"date": "YYYY-MM-DD", "start_time": "HH:MM",
"end_time": "HH:MM", "procedure": "", "room": "", "anesthesia_type": "",
"complexity": "", "priority": "", "is_pediatric": false, "notes": ""}],
"warnings": []}. Use 24h times. Omit rows without a time window.`

// VisionOptions configures the genai extractor
type VisionOptions struct {
	APIKey string
	Model  string
}

// VisionFromConfig reads GENAI_* options; the key is required
func VisionFromConfig(cfg config.Conf) VisionOptions {
	c := cfg.Prefix("GENAI_")
	return VisionOptions{
		APIKey: c.MustString("API_KEY"),
		Model:  c.MayString("MODEL", "gemini-2.0-flash"),
	}
}

// Vision extracts demands from PDFs and raster scans with a generative
// vision model steered by the hospital's prompt template
type Vision struct {
	client *genai.Client
	model  string
}

// NewVision creates the vision extractor
func NewVision(ctx context.Context, opts VisionOptions) (*Vision, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: opts.APIKey})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "create genai client")
	}
	model := opts.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Vision{client: client, model: model}, nil
}

var _ domain.Extractor = (*Vision)(nil)

// visionPayload is the model's JSON response; a stray meta block from older
// prompt templates is tolerated and its local pdf_path is dropped
type visionPayload struct {
	Demands  []domain.ExtractedDemand `json:"demands"`
	Warnings []string                 `json:"warnings"`
	Meta     map[string]any           `json:"meta"`
}

// Extract implements domain.Extractor
func (v *Vision) Extract(ctx context.Context, path, contentType, prompt string) ([]domain.ExtractedDemand, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, perr.Wrap(err, perr.ErrorCodeUnknown, "read staged document")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "application/pdf"
	}
	if prompt == "" {
		prompt = defaultPrompt
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, contentType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	resp, err := v.client.Models.GenerateContent(ctx, v.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "vision extraction call")
	}

	var payload visionPayload
	if err := json.Unmarshal([]byte(resp.Text()), &payload); err != nil {
		return nil, nil, perr.Newf(perr.ErrorCodeUnknown, "vision extraction returned non-JSON output")
	}
	delete(payload.Meta, "pdf_path")
	return payload.Demands, payload.Warnings, nil
}
