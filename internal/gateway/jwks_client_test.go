package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rangiffler.org/internal/auth"
)

func TestFetchKeys(t *testing.T) {
	keys, err := auth.GenerateRSAKeys(auth.DefaultKeyID)
	if err != nil {
		t.Fatalf("GenerateRSAKeys: %v", err)
	}
	set, err := keys.JWKS()
	if err != nil {
		t.Fatalf("JWKS: %v", err)
	}

	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != jwksPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	defer authSrv.Close()

	fetched, err := FetchKeys(context.Background(), authSrv.URL, nil)
	if err != nil {
		t.Fatalf("FetchKeys: %v", err)
	}
	if fetched.Scheme != auth.SchemeRS256 || fetched.PublicKey == nil {
		t.Fatalf("unexpected key material: %+v", fetched)
	}
	if fetched.PrivateKey != nil {
		t.Error("fetched key material must be verify-only")
	}

	// A token minted with the original private key verifies against the
	// fetched public key.
	token, err := auth.NewSigner(keys, time.Minute).Sign(&auth.Claims{Subject: "alice"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sub, err := auth.NewVerifier(fetched).Subject(token)
	if err != nil || sub != "alice" {
		t.Errorf("Subject = %q, %v", sub, err)
	}
}

func TestFetchKeysTrailingSlash(t *testing.T) {
	keys, err := auth.GenerateRSAKeys("")
	if err != nil {
		t.Fatalf("GenerateRSAKeys: %v", err)
	}
	set, err := keys.JWKS()
	if err != nil {
		t.Fatalf("JWKS: %v", err)
	}
	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != jwksPath {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(set)
	}))
	defer authSrv.Close()

	if _, err := FetchKeys(context.Background(), authSrv.URL+"/", nil); err != nil {
		t.Errorf("FetchKeys with trailing slash: %v", err)
	}
}

func TestFetchKeysErrors(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()
		if _, err := FetchKeys(context.Background(), srv.URL, nil); err == nil {
			t.Error("expected error for 404 response")
		}
	})
	t.Run("invalid body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()
		if _, err := FetchKeys(context.Background(), srv.URL, nil); err == nil {
			t.Error("expected error for undecodable body")
		}
	})
	t.Run("empty key set", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(auth.JWKS{})
		}))
		defer srv.Close()
		if _, err := FetchKeys(context.Background(), srv.URL, nil); err == nil {
			t.Error("expected error for empty key set")
		}
	})
	t.Run("unreachable", func(t *testing.T) {
		if _, err := FetchKeys(context.Background(), "http://127.0.0.1:1", &http.Client{Timeout: time.Second}); err == nil {
			t.Error("expected error for unreachable server")
		}
	})
}
