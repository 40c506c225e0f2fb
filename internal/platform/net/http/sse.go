package http

import (
	"encoding/json"
	"fmt"
	stdhttp "net/http"

	perr "turna/internal/platform/errors"
)

// SSE wraps a ResponseWriter prepared for server-sent events
// callers own the poll cadence; Send and Comment flush per write
type SSE struct {
	w stdhttp.ResponseWriter
	f stdhttp.Flusher
}

// NewSSE switches the connection to an event stream
// returns an error when the underlying writer cannot flush
func NewSSE(w stdhttp.ResponseWriter) (*SSE, error) {
	f, ok := w.(stdhttp.Flusher)
	if !ok {
		return nil, perr.Newf(perr.ErrorCodeUnknown, "streaming unsupported by connection")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(stdhttp.StatusOK)
	f.Flush()
	return &SSE{w: w, f: f}, nil
}

// Send writes one named event with a JSON payload and flushes
func (s *SSE) Send(event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// Comment writes a heartbeat comment so proxies don't idle the stream out
func (s *SSE) Comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
