package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/srssieam/DreamDwell-server/apperr"
)

// DefaultSessionTTL is the lifetime of an issued credential.
const DefaultSessionTTL = 5 * time.Hour

// ErrInvalidToken signals a malformed, expired or wrongly signed credential.
var ErrInvalidToken = fmt.Errorf("auth: %w: invalid session token", apperr.ErrUnauthenticated)

type sessionClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies HS256 session credentials. Verification is
// purely cryptographic; there is no revocation list.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions builds an authenticator. A non-positive ttl uses DefaultSessionTTL.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the time source for deterministic tests.
func (s *Sessions) WithClock(now func() time.Time) *Sessions {
	if now != nil {
		s.now = now
	}
	return s
}

// TTL reports the credential lifetime, used for the cookie Max-Age.
func (s *Sessions) TTL() time.Duration { return s.ttl }

// Issue signs a credential for the claimed email verbatim.
func (s *Sessions) Issue(email, name string) (string, Claim, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", Claim{}, apperr.Invalid("email is required")
	}
	if len(s.secret) == 0 {
		return "", Claim{}, fmt.Errorf("auth: session secret is not configured")
	}

	issued := s.now().UTC().Truncate(time.Second)
	claim := Claim{
		Email:     email,
		Name:      name,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(s.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(claim.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claim.ExpiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", Claim{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, claim, nil
}

// Authenticate validates a credential and returns its claim.
func (s *Sessions) Authenticate(credential string) (Claim, error) {
	if credential == "" {
		return Claim{}, fmt.Errorf("auth: %w: missing session token", apperr.ErrUnauthenticated)
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(credential, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claim{}, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return Claim{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email := NormalizeEmail(claims.Subject)
	if email == "" {
		return Claim{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	claim := Claim{Email: email, Name: claims.Name}
	if claims.IssuedAt != nil {
		claim.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		claim.ExpiresAt = claims.ExpiresAt.Time
	}
	return claim, nil
}
