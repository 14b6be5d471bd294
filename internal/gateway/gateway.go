// Package gateway implements the bearer-guarded edge service. Every protected
// request is verified locally against the deployment's signing scheme; the
// auth service is only contacted once at startup to fetch the JWKS document
// under RS256.
package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"rangiffler.org/internal/auth"
	"rangiffler.org/internal/obs"
)

// Options carries the request-independent gateway settings.
type Options struct {
	Version string
	// UpstreamURL, when set, mounts a guarded reverse proxy on /api/.
	UpstreamURL string
}

// Gateway is the HTTP layer of the gateway service.
type Gateway struct {
	mux      *http.ServeMux
	verifier *auth.Verifier
	opts     Options
}

// New wires the routes.
func New(verifier *auth.Verifier, opts Options) (*Gateway, error) {
	g := &Gateway{
		mux:      http.NewServeMux(),
		verifier: verifier,
		opts:     opts,
	}

	g.mux.HandleFunc("/", g.Home)
	g.mux.HandleFunc("/healthz", g.Healthz)
	g.mux.Handle("/metrics", obs.Handler())
	g.mux.Handle("/api/protected", g.Guard(http.HandlerFunc(g.Protected)))

	if opts.UpstreamURL != "" {
		upstream, err := url.Parse(opts.UpstreamURL)
		if err != nil {
			return nil, fmt.Errorf("gateway: parse upstream url: %w", err)
		}
		proxy := httputil.NewSingleHostReverseProxy(upstream)
		g.mux.Handle("/api/", g.Guard(forwardIdentity(proxy)))
	}

	return g, nil
}

// Handler returns the fully wrapped handler for the server.
func (g *Gateway) Handler() http.Handler {
	return obs.Instrument(g.mux)
}

func (g *Gateway) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Rangiffler!"})
}

func (g *Gateway) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "rangiffler-gateway",
		"version": g.opts.Version,
	})
}

// Protected is the demo guarded endpoint.
func (g *Gateway) Protected(w http.ResponseWriter, r *http.Request) {
	subject, _ := auth.SubjectFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Hello %s, you are authorized!", subject),
	})
}

// forwardIdentity stamps the authenticated subject onto the proxied request.
func forwardIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subject, ok := auth.SubjectFromContext(r.Context()); ok {
			r.Header.Set("X-Forwarded-User", subject)
		}
		next.ServeHTTP(w, r)
	})
}
