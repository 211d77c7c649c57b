package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims carried by an access token issued by the
// platform's auth service. This service only verifies tokens; it never
// issues them outside of tests.
type TokenClaims struct {
	Type      string `json:"type"`
	AccountID string `json:"account_id"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"` // "user" or "admin"
	jwt.RegisteredClaims
}
