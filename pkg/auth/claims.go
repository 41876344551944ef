package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued by the identity provider.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks. Tokens from providers that
// only set sub get their user id from it.
func (c *AccessTokenClaims) Validate() error {
	if c.UserID == uuid.Nil && c.Subject != "" {
		id, err := uuid.Parse(c.Subject)
		if err != nil {
			return fmt.Errorf("subject is not a user id: %w", err)
		}
		c.UserID = id
	}
	if c.UserID == uuid.Nil {
		return errors.New("token has no user id")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("invalid user role %q", c.Role)
	}
	return nil
}
