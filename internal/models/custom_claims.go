package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CustomClaims are the claims carried by access tokens. The registered
// subject holds the user ID.
type CustomClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
}

// SubjectID parses the user ID from the subject claim
func (c *CustomClaims) SubjectID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
