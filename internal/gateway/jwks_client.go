package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rangiffler.org/internal/auth"
)

const jwksPath = "/.well-known/jwks.json"

// FetchKeys retrieves the auth service's published key set and returns
// verify-only RS256 key material. Keys are fetched once at startup; the auth
// service never rotates them, so there is nothing to refresh.
func FetchKeys(ctx context.Context, authServiceURL string, client *http.Client) (auth.KeyMaterial, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	url := strings.TrimSuffix(authServiceURL, "/") + jwksPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return auth.KeyMaterial{}, fmt.Errorf("gateway: jwks request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return auth.KeyMaterial{}, fmt.Errorf("gateway: fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return auth.KeyMaterial{}, fmt.Errorf("gateway: fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var jwks auth.JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return auth.KeyMaterial{}, fmt.Errorf("gateway: decode jwks: %w", err)
	}
	pub, kid, err := jwks.SigningKey()
	if err != nil {
		return auth.KeyMaterial{}, err
	}
	return auth.VerificationKeys(pub, kid), nil
}
