package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the dashboard reads out of a backend-issued token.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes a bearer token without verifying its signature. The
// dashboard never holds the backend's signing key; the backend verifies
// the token on every call.
func Inspect(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if claims.UserID == 0 && claims.Subject != "" {
		if id, err := strconv.ParseUint(claims.Subject, 10, 64); err == nil {
			claims.UserID = uint(id)
		}
	}
	if claims.UserID == 0 {
		return nil, ErrNoSubject
	}
	return claims, nil
}

// Expired reports whether the token carries an expiry that has passed.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// TTL is the remaining lifetime, or 0 when the token has no expiry.
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Time.Sub(now); d > 0 {
		return d
	}
	return 0
}
