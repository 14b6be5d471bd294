package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"rangiffler.org/internal/auth"
	"rangiffler.org/internal/obs"
)

// Guard verifies the bearer token on every protected request and attaches the
// authenticated subject to the downstream context.
//
// The two failure bodies are deliberately distinct: absent credentials yield
// "Not authenticated", while present-but-invalid credentials yield
// "Invalid authentication credentials" without revealing which verification
// check failed.
func (g *Gateway) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			challenge(w, "Not authenticated")
			return
		}

		claims, err := g.verifier.Verify(token)
		if err != nil {
			obs.TokenRejected()
			challenge(w, "Invalid authentication credentials")
			return
		}

		ctx := auth.ContextWithSubject(r.Context(), claims.Subject)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func challenge(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
