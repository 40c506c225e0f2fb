// Package token signs and verifies the bearer session tokens minted after
// sign-in and tenant selection. Tokens are HMAC-SHA256 JWTs carrying the
// session scope; upstream OAuth verification happens before Signin is called
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	perr "turna/internal/platform/errors"
	pnet "turna/internal/platform/net"
)

// DefaultTTL applies when the configured lifetime is missing or non-positive
const DefaultTTL = 12 * time.Hour

// claims is the signed payload; tenant fields are empty on account-stage tokens
type claims struct {
	TenantID string `json:"ten,omitempty"`
	MemberID string `json:"mem,omitempty"`
	Role     string `json:"rol,omitempty"`
	Limited  bool   `json:"ltd,omitempty"`
	jwt.RegisteredClaims
}

// Codec mints and verifies session tokens with a shared secret
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New builds a codec; it panics without a secret since every token would be forgeable
func New(secret string, ttl time.Duration) *Codec {
	if secret == "" {
		panic("token: secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Mint signs a token granting the identity's scope for the codec lifetime
func (c *Codec) Mint(id pnet.Identity) (string, time.Time, error) {
	if id.AccountID == "" {
		return "", time.Time{}, perr.InvalidArgf("token subject is required")
	}
	now := c.now()
	exp := now.Add(c.ttl)
	cl := claims{
		TenantID: id.TenantID,
		MemberID: id.MemberID,
		Role:     id.Role,
		Limited:  id.Limited,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.AccountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, perr.Wrap(err, perr.ErrorCodeUnknown, "sign session token")
	}
	return signed, exp, nil
}

// Verify validates signature and expiry and returns the identity the token grants.
// The error detail is deliberately flat; the auth port maps everything to 401 anyway
func (c *Codec) Verify(raw string) (pnet.Identity, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(raw, &cl,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return pnet.Identity{}, perr.Unauthorizedf("invalid session token")
	}
	if cl.Subject == "" {
		return pnet.Identity{}, perr.Unauthorizedf("invalid session token")
	}
	return pnet.Identity{
		AccountID: cl.Subject,
		TenantID:  cl.TenantID,
		MemberID:  cl.MemberID,
		Role:      cl.Role,
		Limited:   cl.Limited,
	}, nil
}
