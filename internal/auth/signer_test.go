package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func hmacKeys(t *testing.T, secret string) KeyMaterial {
	t.Helper()
	keys, err := HMACKeys(secret)
	if err != nil {
		t.Fatalf("HMACKeys: %v", err)
	}
	return keys
}

func rsaKeys(t *testing.T) KeyMaterial {
	t.Helper()
	keys, err := GenerateRSAKeys(DefaultKeyID)
	if err != nil {
		t.Fatalf("GenerateRSAKeys: %v", err)
	}
	return keys
}

func TestSignVerifyRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		keys KeyMaterial
	}{
		{"hs256", hmacKeys(t, "test-secret")},
		{"rs256", rsaKeys(t)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			signer := NewSigner(tc.keys, time.Minute)
			verifier := NewVerifier(tc.keys)

			token, err := signer.Sign(&Claims{Subject: "alice"})
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if claims.Subject != "alice" {
				t.Errorf("subject = %q, want alice", claims.Subject)
			}
			if claims.ExpiresAt == nil {
				t.Fatal("expiry not set")
			}
			if until := time.Until(claims.ExpiresAt.Time); until <= 0 || until > time.Minute {
				t.Errorf("expiry %v out of the expected window", until)
			}
		})
	}
}

func TestSignOverwritesCallerExpiry(t *testing.T) {
	keys := hmacKeys(t, "test-secret")
	signer := NewSigner(keys, time.Hour)

	stale := jwt.NewNumericDate(time.Now().Add(-time.Hour))
	token, err := signer.Sign(&Claims{Subject: "alice", ExpiresAt: stale})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := NewVerifier(keys).Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !claims.ExpiresAt.After(time.Now()) {
		t.Error("caller-supplied expiry was not overwritten")
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	keys := hmacKeys(t, "test-secret")
	token, err := NewSigner(keys, time.Minute).Sign(&Claims{Subject: "alice"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	last := token[len(token)-1]
	flip := byte('A')
	if last == 'A' {
		flip = 'B'
	}
	tampered := token[:len(token)-1] + string(flip)

	_, err = NewVerifier(keys).Verify(tampered)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	t.Run("hmac", func(t *testing.T) {
		token, err := NewSigner(hmacKeys(t, "secret-one"), time.Minute).Sign(&Claims{Subject: "alice"})
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		_, err = NewVerifier(hmacKeys(t, "secret-two")).Verify(token)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("err = %v, want ErrInvalidSignature", err)
		}
	})
	t.Run("rsa", func(t *testing.T) {
		token, err := NewSigner(rsaKeys(t), time.Minute).Sign(&Claims{Subject: "alice"})
		if err != nil {
			t.Fatalf("Sign: %v", err)
		}
		_, err = NewVerifier(rsaKeys(t)).Verify(token)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("err = %v, want ErrInvalidSignature", err)
		}
	})
}

// A token whose alg header differs from the deployment's configured scheme is
// rejected outright, whatever its signature says.
func TestVerifyAlgorithmConfusion(t *testing.T) {
	hmac := hmacKeys(t, "test-secret")
	rsa := rsaKeys(t)

	hsToken, err := NewSigner(hmac, time.Minute).Sign(&Claims{Subject: "alice"})
	if err != nil {
		t.Fatalf("Sign hs256: %v", err)
	}
	rsToken, err := NewSigner(rsa, time.Minute).Sign(&Claims{Subject: "alice"})
	if err != nil {
		t.Fatalf("Sign rs256: %v", err)
	}

	if _, err := NewVerifier(rsa).Verify(hsToken); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("hs256 token on rs256 verifier: err = %v, want ErrInvalidSignature", err)
	}
	if _, err := NewVerifier(hmac).Verify(rsToken); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("rs256 token on hs256 verifier: err = %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	keys := hmacKeys(t, "test-secret")
	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	signer := NewSigner(keys, time.Minute, WithSignerClock(past))

	token, err := signer.Sign(&Claims{Subject: "alice"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	_, err = NewVerifier(keys).Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyMissingExpiry(t *testing.T) {
	keys := hmacKeys(t, "test-secret")
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"})
	token, err := raw.SignedString(keys.Secret)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	_, err = NewVerifier(keys).Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

// exp=0 is an explicit epoch timestamp, so the token is simply long expired.
func TestVerifyZeroExpiry(t *testing.T) {
	keys := hmacKeys(t, "test-secret")
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice", "exp": 0})
	token, err := raw.SignedString(keys.Secret)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	_, err = NewVerifier(keys).Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyMissingSubject(t *testing.T) {
	keys := hmacKeys(t, "test-secret")
	token, err := NewSigner(keys, time.Minute).Sign(&Claims{})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	_, err = NewVerifier(keys).Verify(token)
	if !errors.Is(err, ErrMissingSubject) {
		t.Errorf("err = %v, want ErrMissingSubject", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	keys := hmacKeys(t, "test-secret")
	verifier := NewVerifier(keys)
	for _, tokenString := range []string{
		"",
		"garbage",
		"one.two",
		"a.b.c.d",
		"!!!.@@@.###",
	} {
		if _, err := verifier.Verify(tokenString); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("Verify(%q): err = %v, want ErrMalformedToken", tokenString, err)
		}
	}
}

func TestVerifierClock(t *testing.T) {
	keys := hmacKeys(t, "test-secret")
	token, err := NewSigner(keys, time.Minute).Sign(&Claims{Subject: "alice"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	future := func() time.Time { return time.Now().Add(time.Hour) }
	_, err = NewVerifier(keys, WithVerifierClock(future)).Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestSignVerifyOnlyKeys(t *testing.T) {
	full := rsaKeys(t)
	verifyOnly := VerificationKeys(full.PublicKey, full.KeyID)
	if _, err := NewSigner(verifyOnly, time.Minute).Sign(&Claims{Subject: "alice"}); err == nil {
		t.Error("expected signing with verify-only key material to fail")
	}
}

func TestSubject(t *testing.T) {
	keys := hmacKeys(t, "test-secret")
	token, err := NewSigner(keys, time.Minute).Sign(&Claims{Subject: "bob"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sub, err := NewVerifier(keys).Subject(token)
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if sub != "bob" {
		t.Errorf("subject = %q, want bob", sub)
	}
}
