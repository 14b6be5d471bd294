package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL matches JWT_ACCESS_TOKEN_EXPIRE_MINUTES=30.
const DefaultAccessTokenTTL = 30 * time.Minute

// Signer mints signed access tokens. Pure computation over immutable key
// material; safe for concurrent use.
type Signer struct {
	keys KeyMaterial
	ttl  time.Duration
	now  func() time.Time
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithSignerClock overrides the time source (tests).
func WithSignerClock(fn func() time.Time) SignerOption {
	return func(s *Signer) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewSigner constructs a Signer with the given access token lifetime.
func NewSigner(keys KeyMaterial, ttl time.Duration, opts ...SignerOption) *Signer {
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	s := &Signer{keys: keys, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign serializes and signs the claims. The expiry is always set to now+ttl,
// overwriting any caller-supplied value.
func (s *Signer) Sign(claims *Claims) (string, error) {
	if claims == nil {
		claims = &Claims{}
	}
	claims.ExpiresAt = jwt.NewNumericDate(s.now().UTC().Add(s.ttl))

	key, err := s.keys.signKey()
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(s.keys.signingMethod(), claims)
	if s.keys.Scheme == SchemeRS256 && s.keys.KeyID != "" {
		token.Header["kid"] = s.keys.KeyID
	}
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verifier validates access tokens against the deployment's pinned algorithm
// and key. The token's self-declared alg header is never trusted: anything
// other than the configured scheme is rejected before signature checking.
type Verifier struct {
	keys KeyMaterial
	now  func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithVerifierClock overrides the time source (tests).
func WithVerifierClock(fn func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if fn != nil {
			v.now = fn
		}
	}
}

// NewVerifier constructs a Verifier.
func NewVerifier(keys KeyMaterial, opts ...VerifierOption) *Verifier {
	v := &Verifier{keys: keys, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify parses and validates a token string, returning its claims.
//
// Failure modes, in checking order: ErrMalformedToken (not three segments or
// undecodable), ErrInvalidSignature (signature mismatch or algorithm other
// than the pinned scheme), ErrTokenExpired (exp absent, exp=0, or in the
// past), ErrMissingSubject (empty sub). A validly signed, unexpired token is
// always accepted; there is no revocation list.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc,
		jwt.WithValidMethods([]string{string(v.keys.Scheme)}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return v.now().UTC() }),
	)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// Subject is a convenience wrapper returning only the authenticated identity.
func (v *Verifier) Subject(tokenString string) (string, error) {
	claims, err := v.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != string(v.keys.Scheme) {
		return nil, ErrInvalidSignature
	}
	return v.keys.verifyKey(), nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return ErrMalformedToken
	}
}
