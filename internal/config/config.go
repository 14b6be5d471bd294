// Package config loads runtime settings for the auth and gateway services
// from the environment, with an optional .env overlay for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Auth holds settings for the authentication service.
type Auth struct {
	ListenAddr string

	// JWTAlgorithm is HS256 or RS256. HS256 requires JWTSecretKey; RS256
	// generates a fresh key pair at startup.
	JWTAlgorithm   string
	JWTSecretKey   string
	AccessTokenTTL time.Duration

	FrontendURL   string
	OAuthClientID string

	// DatabaseURL is a pgx DSN. Empty means the in-memory store (dev mode).
	DatabaseURL string
}

// Gateway holds settings for the gateway service.
type Gateway struct {
	ListenAddr string

	JWTAlgorithm string
	JWTSecretKey string

	// AuthServiceURL is where the JWKS document is fetched from under RS256.
	AuthServiceURL string

	// UpstreamURL, when set, turns /api/ into a guarded reverse proxy.
	UpstreamURL string
}

// LoadAuth reads the auth service configuration.
func LoadAuth() (*Auth, error) {
	_ = godotenv.Load()

	ttlMinutes, err := intEnv("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	cfg := &Auth{
		ListenAddr:     envOr("LISTEN_ADDR", ":9000"),
		JWTAlgorithm:   envOr("JWT_ALGORITHM", "HS256"),
		JWTSecretKey:   os.Getenv("JWT_SECRET_KEY"),
		AccessTokenTTL: time.Duration(ttlMinutes) * time.Minute,
		FrontendURL:    envOr("FRONTEND_URL", "http://127.0.0.1:3001"),
		OAuthClientID:  envOr("OAUTH_CLIENT_ID", "client"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
	}
	return cfg, nil
}

// LoadGateway reads the gateway configuration. AUTH_SERVICE_URL wins over the
// AUTH_SERVICE_HOST/AUTH_SERVICE_PORT pair.
func LoadGateway() (*Gateway, error) {
	_ = godotenv.Load()

	authURL := os.Getenv("AUTH_SERVICE_URL")
	if authURL == "" {
		host := os.Getenv("AUTH_SERVICE_HOST")
		port := os.Getenv("AUTH_SERVICE_PORT")
		if host != "" && port != "" {
			authURL = fmt.Sprintf("http://%s:%s", host, port)
		}
	}
	cfg := &Gateway{
		ListenAddr:     envOr("LISTEN_ADDR", ":8080"),
		JWTAlgorithm:   envOr("JWT_ALGORITHM", "HS256"),
		JWTSecretKey:   os.Getenv("JWT_SECRET_KEY"),
		AuthServiceURL: authURL,
		UpstreamURL:    os.Getenv("UPSTREAM_URL"),
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
