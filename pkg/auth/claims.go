package auth

import (
	"github.com/ecomops/logiscan-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds carried in the "token_type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID
	WarehouseID *uuid.UUID
	Email       string
	Role        enums.UserRole
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID      uuid.UUID      `json:"user_id"`
	TenantID    uuid.UUID      `json:"tenant_id"`
	WarehouseID *uuid.UUID     `json:"warehouse_id,omitempty"`
	Email       string         `json:"email,omitempty"`
	Role        enums.UserRole `json:"role"`
	TokenType   string         `json:"token_type"`
	jwt.RegisteredClaims
}
