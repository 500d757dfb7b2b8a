package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/plasa/shopper-settlement/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.ActorRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT presented by callers. The
// shopper identity is the token subject; settlement never trusts an id
// supplied in the request body.
type AccessTokenClaims struct {
	UserID uuid.UUID       `json:"user_id"`
	Role   enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// IsShopper reports whether the caller acts as a shopper.
func (c *AccessTokenClaims) IsShopper() bool {
	return c != nil && c.Role == enums.ActorRoleShopper
}
