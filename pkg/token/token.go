// Package token mints and verifies the gateway's own session tokens.
//
// A session token is a self-contained signed credential handed to the
// browser after a successful OAuth callback. It is verified statelessly:
// no server-side lookup and no revocation list. Signing is pinned to HS256
// with a symmetric secret; tokens claiming any other algorithm are rejected
// regardless of their signature.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the session token lifetime.
const DefaultTTL = 24 * time.Hour

const signingAlg = "HS256"

var (
	// ErrMissingSecret is returned when the codec is constructed without a secret.
	ErrMissingSecret = errors.New("token: missing signing secret")

	// ErrTokenExpired is returned when the token's expiry is in the past,
	// even if the signature is otherwise valid.
	ErrTokenExpired = errors.New("token: expired")

	// ErrTokenInvalid is returned for a bad signature, malformed structure,
	// or a disallowed signing algorithm.
	ErrTokenInvalid = errors.New("token: invalid")
)

// Identity is the user identity embedded into a session token.
type Identity struct {
	Email    string
	Name     string
	Picture  string
	GoogleID string
}

// Claims are the facts carried by a session token. The subject is the
// user's email, matching the registered "sub" claim.
type Claims struct {
	jwt.RegisteredClaims
	Name     string `json:"name"`
	Email    string `json:"email"`
	Picture  string `json:"picture,omitempty"`
	GoogleID string `json:"google_id,omitempty"`
}

// Service signs and verifies session tokens. It is stateless and safe for
// concurrent use.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTTL overrides the default token lifetime.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a session token codec.
// Returns ErrMissingSecret if the secret is empty.
func NewService(secret string, opts ...ServiceOption) (*Service, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	s := &Service{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mint signs a session token for the given identity, embedding issued-at
// and expiry timestamps. Never emits an unsigned token.
func (s *Service) Mint(id Identity) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Name:     id.Name,
		Email:    id.Email,
		Picture:  id.Picture,
		GoogleID: id.GoogleID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Join(ErrTokenInvalid, err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
// Expired tokens yield ErrTokenExpired; everything else that fails
// validation yields ErrTokenInvalid. The accepted algorithm is pinned:
// the token's own alg header is never trusted.
func (s *Service) Verify(tokenString string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{signingAlg}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, errors.Join(ErrTokenExpired, err)
		}
		return Claims{}, errors.Join(ErrTokenInvalid, err)
	}
	return claims, nil
}
