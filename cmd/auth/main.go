package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"rangiffler.org/internal/auth"
	"rangiffler.org/internal/config"
	"rangiffler.org/internal/httpapi"
	"rangiffler.org/internal/obs"
)

var version = "0.3.0"

func main() {
	logger := obs.Logger()
	obs.Init()

	cfg, err := config.LoadAuth()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	scheme, err := auth.ParseScheme(cfg.JWTAlgorithm)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse algorithm")
	}

	// Key material is built exactly once and injected everywhere; nothing
	// regenerates it during the process lifetime.
	var keys auth.KeyMaterial
	switch scheme {
	case auth.SchemeRS256:
		keys, err = auth.GenerateRSAKeys(auth.DefaultKeyID)
	default:
		keys, err = auth.HMACKeys(cfg.JWTSecretKey)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("build key material")
	}

	var (
		db    *sql.DB
		store auth.UserStore
	)
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("open db")
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		store = auth.NewPGStore(db)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory user store")
		store = auth.NewMemoryStore()
	}

	signer := auth.NewSigner(keys, cfg.AccessTokenTTL)
	verifier := auth.NewVerifier(keys)
	svc := auth.NewService(store, signer, verifier)

	api := httpapi.New(svc, keys, httpapi.ReadyProbe{DB: db}, httpapi.Options{
		Version:     version,
		FrontendURL: cfg.FrontendURL,
		ClientID:    cfg.OAuthClientID,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info().
		Str("addr", srv.Addr).
		Str("version", version).
		Str("alg", string(scheme)).
		Msg("starting rangiffler-auth")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	logger.Info().Msg("stopped")
}
