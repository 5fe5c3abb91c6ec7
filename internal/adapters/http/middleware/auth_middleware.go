package middleware

import (
	"strings"

	"queueflow/internal/config"
	"queueflow/internal/core/domain"
	"queueflow/internal/pkg/jwt"
	"queueflow/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware creates operator authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Authorization header, then cookie
		accessToken := bearerToken(c)
		if accessToken == "" {
			accessToken = c.Cookies("access_token")
		}

		// 2. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 3. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 4. Set operator info in context
		c.Locals("operatorID", claims.OperatorID)
		c.Locals("centerID", claims.CenterID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if role == string(allowedRole) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// OperatorOrAdmin middleware allows OPERATOR or ADMIN roles
func OperatorOrAdmin() fiber.Handler {
	return RoleMiddleware(domain.RoleOperator, domain.RoleAdmin)
}

// OperatorID returns the authenticated operator
func OperatorID(c *fiber.Ctx) uint {
	id, _ := c.Locals("operatorID").(uint)
	return id
}

// CenterID returns the center the authenticated operator works at
func CenterID(c *fiber.Ctx) uint {
	id, _ := c.Locals("centerID").(uint)
	return id
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
