package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rangiffler.org/internal/auth"
	"rangiffler.org/internal/config"
	"rangiffler.org/internal/gateway"
	"rangiffler.org/internal/obs"
)

var version = "0.3.0"

func main() {
	logger := obs.Logger()
	obs.Init()

	cfg, err := config.LoadGateway()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	scheme, err := auth.ParseScheme(cfg.JWTAlgorithm)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse algorithm")
	}

	var keys auth.KeyMaterial
	switch scheme {
	case auth.SchemeRS256:
		// Under RS256 the verification key comes from the auth service's
		// published JWKS document.
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		keys, err = gateway.FetchKeys(ctx, cfg.AuthServiceURL, nil)
		cancel()
	default:
		keys, err = auth.HMACKeys(cfg.JWTSecretKey)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("build key material")
	}

	gw, err := gateway.New(auth.NewVerifier(keys), gateway.Options{
		Version:     version,
		UpstreamURL: cfg.UpstreamURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("wire gateway")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           gw.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info().
		Str("addr", srv.Addr).
		Str("version", version).
		Str("alg", string(scheme)).
		Msg("starting rangiffler-gateway")

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
	logger.Info().Msg("stopped")
}
