// Package auth manages the persisted bearer token and its locally decoded
// claims.
//
// Claims are decoded WITHOUT signature verification: they are only ever used
// for optimistic identification (whose score to refresh, what name to greet).
// Anything authoritative is re-read from the server.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity fields embedded in the bearer token.
type Claims struct {
	UserID   int
	Username string
	Role     string
	// Score is the total embedded at issue time; it goes stale the moment
	// scores are recomputed server-side.
	Score     *float64
	ExpiresAt time.Time
}

// Admin reports whether the token claims an administrator role.
func (c Claims) Admin() bool { return c.Role == "admin" }

// Expired reports whether the token's expiry has passed. Expiry is not
// enforced proactively; the server's 401 stays the trigger for logout.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// DecodeClaims parses the middle segment of a compact token without verifying
// the signature. Malformed input yields ok=false; it never panics.
func DecodeClaims(token string) (Claims, bool) {
	if token == "" {
		return Claims{}, false
	}
	raw := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, raw); err != nil {
		return Claims{}, false
	}

	c := Claims{}
	if v, ok := rawNumber(raw, "user_id"); ok {
		c.UserID = int(v)
	}
	if v, ok := raw["username"].(string); ok {
		c.Username = v
	}
	if v, ok := raw["role"].(string); ok {
		c.Role = v
	}
	if v, ok := rawNumber(raw, "score"); ok {
		score := v
		c.Score = &score
	}
	if exp, err := raw.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, true
}

func rawNumber(m jwt.MapClaims, key string) (float64, bool) {
	// JSON numbers decode as float64.
	v, ok := m[key].(float64)
	return v, ok
}
