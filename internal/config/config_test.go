package config

import (
	"testing"
	"time"
)

func clearAuthEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LISTEN_ADDR", "JWT_ALGORITHM", "JWT_SECRET_KEY",
		"JWT_ACCESS_TOKEN_EXPIRE_MINUTES", "FRONTEND_URL",
		"OAUTH_CLIENT_ID", "DATABASE_URL",
		"AUTH_SERVICE_URL", "AUTH_SERVICE_HOST", "AUTH_SERVICE_PORT", "UPSTREAM_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadAuthDefaults(t *testing.T) {
	clearAuthEnv(t)

	cfg, err := LoadAuth()
	if err != nil {
		t.Fatalf("LoadAuth: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.JWTAlgorithm != "HS256" {
		t.Errorf("JWTAlgorithm = %q", cfg.JWTAlgorithm)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Errorf("AccessTokenTTL = %v", cfg.AccessTokenTTL)
	}
	if cfg.FrontendURL != "http://127.0.0.1:3001" {
		t.Errorf("FrontendURL = %q", cfg.FrontendURL)
	}
	if cfg.OAuthClientID != "client" {
		t.Errorf("OAuthClientID = %q", cfg.OAuthClientID)
	}
}

func TestLoadAuthOverrides(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("JWT_ALGORITHM", "RS256")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("DATABASE_URL", "postgres://localhost/rangiffler")

	cfg, err := LoadAuth()
	if err != nil {
		t.Fatalf("LoadAuth: %v", err)
	}
	if cfg.ListenAddr != ":9999" || cfg.JWTAlgorithm != "RS256" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Errorf("AccessTokenTTL = %v, want 5m", cfg.AccessTokenTTL)
	}
	if cfg.DatabaseURL != "postgres://localhost/rangiffler" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestLoadAuthBadTTL(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", "soon")

	if _, err := LoadAuth(); err == nil {
		t.Error("expected error for non-numeric ttl")
	}
}

func TestLoadGatewayAuthURL(t *testing.T) {
	clearAuthEnv(t)

	cfg, err := LoadGateway()
	if err != nil {
		t.Fatalf("LoadGateway: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.AuthServiceURL != "" {
		t.Errorf("AuthServiceURL = %q, want empty", cfg.AuthServiceURL)
	}

	t.Setenv("AUTH_SERVICE_HOST", "auth")
	t.Setenv("AUTH_SERVICE_PORT", "9000")
	cfg, err = LoadGateway()
	if err != nil {
		t.Fatalf("LoadGateway: %v", err)
	}
	if cfg.AuthServiceURL != "http://auth:9000" {
		t.Errorf("AuthServiceURL = %q, want host/port pair", cfg.AuthServiceURL)
	}

	// The explicit URL wins over the host/port pair.
	t.Setenv("AUTH_SERVICE_URL", "http://elsewhere:9001")
	cfg, err = LoadGateway()
	if err != nil {
		t.Fatalf("LoadGateway: %v", err)
	}
	if cfg.AuthServiceURL != "http://elsewhere:9001" {
		t.Errorf("AuthServiceURL = %q", cfg.AuthServiceURL)
	}
}
