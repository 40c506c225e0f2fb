// Package httpkit provides tiny HTTP helpers and adapters
package httpkit

import (
	"net/http"
	"strings"

	perrs "turna/internal/platform/errors"
	pnet "turna/internal/platform/net"
)

// BearerToken returns the raw credential from the Authorization header
// scheme matching is case-insensitive, whitespace around header and token is ignored
func BearerToken(r *http.Request) (string, error) {
	s := strings.TrimSpace(r.Header.Get("Authorization"))
	if s == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	const prefix = "bearer"
	if !strings.HasPrefix(strings.ToLower(s), prefix) {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	// slice after "Bearer" (no trailing space required), then trim any spaces before token
	raw := strings.TrimSpace(s[len(prefix):])
	if raw == "" {
		return "", perrs.Unauthorizedf("missing bearer token")
	}
	return raw, nil
}

// TokenFunc parses a bearer token into the caller identity
// account-stage tokens may return an empty tenant id
type TokenFunc func(token string) (pnet.Identity, error)

// Port implements middleware.AuthPort by reading Authorization and delegating to a TokenFunc
type Port struct {
	parse TokenFunc
}

// NewPortFunc builds a Port from a simple parser function
func NewPortFunc(fn TokenFunc) *Port {
	return &Port{parse: fn}
}

// Parse extracts the caller identity from the Authorization Bearer token
// returns unauthorized when the header is missing, malformed, or the parser returns an error
func (p *Port) Parse(r *http.Request) (pnet.Identity, error) {
	raw, err := BearerToken(r)
	if err != nil {
		return pnet.Identity{}, err
	}

	if p.parse == nil {
		return pnet.Identity{}, perrs.Unauthorizedf("invalid bearer token")
	}

	id, err := p.parse(raw)
	if err != nil {
		return pnet.Identity{}, perrs.Unauthorizedf("invalid bearer token")
	}
	return id, nil
}
