package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/balkashynov/ems/internal/models"
)

// Claims is what the client reads out of the backend's bearer token. The
// signature is not verified here; the backend does that on every request.
type Claims struct {
	jwt.RegisteredClaims
	Role   string `json:"role,omitempty"`
	UserID int    `json:"user_id,omitempty"`
}

// DecodeClaims parses the token payload without verifying the signature
func DecodeClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token's exp is at or before now. Tokens
// without exp never expire client-side.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// User derives a minimal identity from the claims. sub carries the email.
func (c *Claims) User() *models.User {
	role, ok := models.ParseRole(c.Role)
	if !ok {
		role = models.RoleEmployee
	}
	return &models.User{
		ID:    c.UserID,
		Email: c.Subject,
		Role:  role,
	}
}
