package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"rangiffler.org/internal/auth"
	"rangiffler.org/internal/obs"
)

// ReadyProbe checks the backing store before the service reports ready.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options carries the request-independent settings of the HTTP surface.
type Options struct {
	Version     string
	FrontendURL string
	// ClientID is the single registered OAuth2 client accepted by
	// /oauth2/authorize.
	ClientID string
}

// API is the auth service HTTP layer.
type API struct {
	mux        *http.ServeMux
	svc        *auth.Service
	readyProbe ReadyProbe
	opts       Options

	// jwks is precomputed at construction; nil under HS256, in which case
	// the endpoint is not registered.
	jwks *auth.JWKS
	alg  string

	rateBurst  int
	ratePerSec int
}

// New wires the routes. keys is the same material the service signs with;
// only its public half is used here (JWKS).
func New(svc *auth.Service, keys auth.KeyMaterial, rp ReadyProbe, opts Options) *API {
	a := &API{
		mux:        http.NewServeMux(),
		svc:        svc,
		readyProbe: rp,
		opts:       opts,
		alg:        string(keys.Scheme),
		rateBurst:  20,
		ratePerSec: 10,
	}
	if keys.Scheme == auth.SchemeRS256 {
		if jwks, err := keys.JWKS(); err == nil {
			a.jwks = &jwks
		}
	}

	a.mux.HandleFunc("/", a.Home)
	a.mux.HandleFunc("/register", a.Register)
	a.mux.HandleFunc("/login", a.Login)
	a.mux.HandleFunc("/token", a.Token)
	a.mux.HandleFunc("/users/me", a.CurrentUser)
	a.mux.HandleFunc("/oauth2/authorize", a.Authorize)
	if a.jwks != nil {
		a.mux.HandleFunc("/.well-known/jwks.json", a.JWKS)
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "rangiffler-auth",
		"version": a.opts.Version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.readyProbe.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
