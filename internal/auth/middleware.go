package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-api/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller, taken from token claims.
type Principal struct {
	UserID int64
	Email  string
	Role   domain.Role
}

// Optional extracts a bearer token when present and attaches the principal.
// Missing or invalid tokens never fail the request at this stage.
func Optional(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Next()
		}
		claims, err := tokens.ParseToken(parts[1])
		if err != nil {
			return c.Next()
		}
		c.Locals(principalKey, &Principal{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		})
		return c.Next()
	}
}

// Required fails the request when no identity is attached.
func Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("Authorization required")
		}
		return c.Next()
	}
}

// RequireRole ensures the attached identity has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("Authorization required")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("Insufficient role")
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
