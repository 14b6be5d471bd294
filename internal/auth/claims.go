package auth

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is a token payload. Subject and ExpiresAt are first-class; any other
// claim a caller embeds lands in Extra and round-trips unchanged through
// signing and verification.
type Claims struct {
	Subject   string
	ExpiresAt *jwt.NumericDate
	Extra     map[string]any
}

// GetExpirationTime implements jwt.Claims.
func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }

// GetIssuedAt implements jwt.Claims.
func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error) { return nil, nil }

// GetNotBefore implements jwt.Claims.
func (c *Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuer implements jwt.Claims.
func (c *Claims) GetIssuer() (string, error) { return "", nil }

// GetSubject implements jwt.Claims.
func (c *Claims) GetSubject() (string, error) { return c.Subject, nil }

// GetAudience implements jwt.Claims.
func (c *Claims) GetAudience() (jwt.ClaimStrings, error) { return nil, nil }

// MarshalJSON flattens the claims into a single JSON object. Known fields win
// over Extra entries of the same name.
func (c Claims) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+2)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.Subject != "" {
		out["sub"] = c.Subject
	}
	if c.ExpiresAt != nil {
		out["exp"] = c.ExpiresAt.Unix()
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits a payload object into the typed fields and Extra.
// An exp of 0 is kept as an explicit epoch timestamp, not treated as absent.
func (c *Claims) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Subject = ""
	c.ExpiresAt = nil
	c.Extra = nil
	for k, v := range raw {
		switch k {
		case "sub":
			if err := json.Unmarshal(v, &c.Subject); err != nil {
				return fmt.Errorf("claim sub: %w", err)
			}
		case "exp":
			var seconds float64
			if err := json.Unmarshal(v, &seconds); err != nil {
				return fmt.Errorf("claim exp: %w", err)
			}
			sec := int64(seconds)
			nsec := int64((seconds - float64(sec)) * float64(time.Second))
			c.ExpiresAt = jwt.NewNumericDate(time.Unix(sec, nsec))
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("claim %s: %w", k, err)
			}
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[k] = val
		}
	}
	return nil
}
