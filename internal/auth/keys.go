package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Scheme selects the signing algorithm for a deployment. A deployment runs
// exactly one scheme; tokens never mix them.
type Scheme string

const (
	SchemeHS256 Scheme = "HS256"
	SchemeRS256 Scheme = "RS256"
)

// DefaultKeyID is the fixed key identifier published in the JWKS document.
// Keys are not rotated, so there is only ever one.
const DefaultKeyID = "auth-key-1"

// ParseScheme validates a configured algorithm name.
func ParseScheme(name string) (Scheme, error) {
	switch Scheme(strings.TrimSpace(name)) {
	case SchemeHS256, "":
		return SchemeHS256, nil
	case SchemeRS256:
		return SchemeRS256, nil
	default:
		return "", errors.New("auth: unsupported algorithm " + name)
	}
}

// KeyMaterial holds the process-wide signing and verification keys. It is
// constructed once at startup and read-only afterwards, so it is safe to share
// across any number of concurrent requests.
type KeyMaterial struct {
	Scheme     Scheme
	Secret     []byte          // HS256: shared secret for both directions
	PrivateKey *rsa.PrivateKey // RS256: signing side only
	PublicKey  *rsa.PublicKey  // RS256
	KeyID      string
}

// HMACKeys builds HS256 key material from a shared secret.
func HMACKeys(secret string) (KeyMaterial, error) {
	if strings.TrimSpace(secret) == "" {
		return KeyMaterial{}, errors.New("auth: secret is required for HS256")
	}
	return KeyMaterial{Scheme: SchemeHS256, Secret: []byte(secret)}, nil
}

// GenerateRSAKeys creates a fresh 2048-bit RS256 key pair. There is no
// persistence or rotation: a restart regenerates the pair and silently
// invalidates every previously issued RS256 token.
func GenerateRSAKeys(kid string) (KeyMaterial, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return KeyMaterial{}, err
	}
	if kid == "" {
		kid = DefaultKeyID
	}
	return KeyMaterial{
		Scheme:     SchemeRS256,
		PrivateKey: priv,
		PublicKey:  &priv.PublicKey,
		KeyID:      kid,
	}, nil
}

// VerificationKeys wraps a public key obtained from a JWKS document. The
// resulting material can verify RS256 tokens but not sign them.
func VerificationKeys(pub *rsa.PublicKey, kid string) KeyMaterial {
	return KeyMaterial{Scheme: SchemeRS256, PublicKey: pub, KeyID: kid}
}

func (k KeyMaterial) signingMethod() jwt.SigningMethod {
	if k.Scheme == SchemeRS256 {
		return jwt.SigningMethodRS256
	}
	return jwt.SigningMethodHS256
}

func (k KeyMaterial) signKey() (any, error) {
	switch k.Scheme {
	case SchemeRS256:
		if k.PrivateKey == nil {
			return nil, errors.New("auth: key material is verify-only")
		}
		return k.PrivateKey, nil
	default:
		return k.Secret, nil
	}
}

func (k KeyMaterial) verifyKey() any {
	if k.Scheme == SchemeRS256 {
		return k.PublicKey
	}
	return k.Secret
}
