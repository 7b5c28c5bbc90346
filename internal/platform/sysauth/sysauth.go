// Package sysauth issues and verifies the short lived HS256 tokens internal
// callers (payment webhook, operators) use to mark a request as a system trigger
package sysauth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	perr "sitebuilder/internal/platform/errors"
)

const (
	// Header carries the raw token
	Header = "X-Internal-Auth"

	// Issuer is stamped on and required of every token
	Issuer = "sitebuilder-internal"

	// DefaultTTL bounds tokens minted without an explicit lifetime
	DefaultTTL = 5 * time.Minute

	leeway = 30 * time.Second
)

// Claims are the registered claims we care about
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier checks tokens against a shared secret
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier returns nil when secret is empty so callers can treat
// "not configured" as a nil port
func NewVerifier(secret string) *Verifier {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Sign mints a token for subject valid for ttl
func Sign(secret, subject string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", perr.Newf(perr.ErrorCodeInvalidArgument, "internal auth secret not configured")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}})
	return tok.SignedString([]byte(secret))
}

// Verify parses raw and returns its claims. Any failure is Unauthorized
func (v *Verifier) Verify(raw string) (Claims, error) {
	var claims Claims
	if v == nil {
		return claims, perr.Unauthorizedf("internal auth not configured")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(v.now),
	)
	parsed, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid internal token")
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, perr.Unauthorizedf("invalid internal token")
	}
	return claims, nil
}

// Present reports whether the request carries the header at all
func Present(r *http.Request) bool {
	return strings.TrimSpace(r.Header.Get(Header)) != ""
}

// Authenticate implements middleware.AuthPort with the token subject as caller
func (v *Verifier) Authenticate(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get(Header))
	if raw == "" {
		return "", perr.Unauthorizedf("missing %s header", Header)
	}
	c, err := v.Verify(raw)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}
