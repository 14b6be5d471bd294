package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

// JWK is one RSA public key in JSON Web Key form (RFC 7517).
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is the published key set. It always contains exactly one key because
// keys are never rotated.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWKS renders the public half of the key material as a key set. Only RS256
// deployments have anything to publish; the private key never leaves the
// process.
func (k KeyMaterial) JWKS() (JWKS, error) {
	if k.Scheme != SchemeRS256 || k.PublicKey == nil {
		return JWKS{}, errors.New("auth: jwks requires an RSA public key")
	}
	kid := k.KeyID
	if kid == "" {
		kid = DefaultKeyID
	}
	return JWKS{Keys: []JWK{{
		Kty: "RSA",
		Kid: kid,
		Use: "sig",
		Alg: string(SchemeRS256),
		N:   encodeBigInt(k.PublicKey.N),
		E:   encodeBigInt(big.NewInt(int64(k.PublicKey.E))),
	}}}, nil
}

// encodeBigInt emits the minimal big-endian bytes of a positive integer as
// unpadded base64url (RFC 7518 section 6.3: no leading zero octet).
func encodeBigInt(v *big.Int) string {
	return base64.RawURLEncoding.EncodeToString(v.Bytes())
}

// PublicKey reconstructs the RSA key from its JWK encoding. The gateway uses
// this to build a verify-only KeyMaterial from the auth service's published
// key set.
func (j JWK) PublicKey() (*rsa.PublicKey, error) {
	if j.Kty != "RSA" {
		return nil, fmt.Errorf("auth: unsupported key type %q", j.Kty)
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("auth: decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("auth: decode exponent: %w", err)
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	if n.Sign() <= 0 || !e.IsInt64() || e.Int64() <= 0 {
		return nil, errors.New("auth: invalid RSA parameters in JWK")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// SigningKey returns the first usable signature key in the set.
func (s JWKS) SigningKey() (*rsa.PublicKey, string, error) {
	for _, k := range s.Keys {
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		pub, err := k.PublicKey()
		if err != nil {
			continue
		}
		return pub, k.Kid, nil
	}
	return nil, "", errors.New("auth: no usable signing key in JWKS")
}
