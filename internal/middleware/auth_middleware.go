package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolbook/internal/app/models"
	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/app/services"
	"github.com/yigit/schoolbook/internal/pkg/auth"
)

// Context keys set by JWTAuth
const (
	ContextIdentity = "identity"
	ContextUserID   = "userID"
	ContextRole     = "role"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService  *auth.JWTService
	authService services.AuthService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		authService: authService,
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// JWTAuth validates the bearer token and resolves the caller's Identity
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		// Swagger UI sometimes sends the raw token or wraps it in quotes
		authHeader = strings.Trim(authHeader, "\"'")
		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
			return
		}

		identity, err := m.authService.Identify(c.Request.Context(), claims.UserID)
		if err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}
		if identity.Role() != claims.Role || identity.TenantID() != claims.SchoolID {
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Token no longer matches the account")
			return
		}

		c.Set(ContextIdentity, identity)
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, identity.Role())

		c.Next()
	}
}

// RoleRequired lets through callers holding one of roles
func (m *AuthMiddleware) RoleRequired(roles ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User role not found")
			return
		}

		for _, r := range roles {
			if identity.Role() == r {
				c.Next()
				return
			}
		}

		errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
			WithDetails("You don't have sufficient permissions for this operation")
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
	}
}

// GetIdentity returns the Identity stored by JWTAuth
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	v, exists := c.Get(ContextIdentity)
	if !exists {
		return nil, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}

// IdentityAs returns the caller as the concrete identity type T. Routes are
// role-gated, so a mismatch only happens on a wiring mistake.
func IdentityAs[T models.Identity](c *gin.Context) (T, bool) {
	var zero T
	identity, ok := GetIdentity(c)
	if !ok {
		return zero, false
	}
	typed, ok := identity.(T)
	return typed, ok
}
