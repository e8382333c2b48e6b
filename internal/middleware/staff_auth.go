package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/salonsuite/salon-core/internal/domain"
	"github.com/salonsuite/salon-core/internal/service"
)

// StaffTokenCookie is the staff session cookie name.
const StaffTokenCookie = "staff_token"

// Context keys for verified staff claims
const (
	StaffClaimsKey = "staffClaims"
	StaffIDKey     = "staffID"
	SalonIDKey     = "salonID"
	StaffRoleKey   = "staffRole"
)

// Unauthenticated writes the uniform rejection. Status and body never vary by
// failure cause, so the response cannot be used as an oracle to tell an
// expired token from a forged one.
func Unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"authenticated": false,
	})
}

// VerifyStaffToken extracts and verifies the staff session cookie. On success
// the verified claims ride the request context; an absent cookie and every
// verification failure get the same 401.
func VerifyStaffToken(tokens *service.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookie := c.Cookies(StaffTokenCookie)
		if cookie == "" {
			return Unauthenticated(c)
		}

		claims, status := tokens.Verify(cookie)
		if status != service.VerifyOK {
			return Unauthenticated(c)
		}

		c.Locals(StaffClaimsKey, claims)
		c.Locals(StaffIDKey, claims.StaffID)
		c.Locals(SalonIDKey, claims.SalonID)
		c.Locals(StaffRoleKey, claims.Role)

		return c.Next()
	}
}

// RequireRole enforces the role hierarchy for an endpoint. Runs after
// VerifyStaffToken.
func RequireRole(required string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(StaffRoleKey).(string)
		if !domain.HasPermission(role, required) {
			return Unauthenticated(c)
		}
		return c.Next()
	}
}

// StaffClaims pulls the verified claims out of the request context.
// Should only be called behind VerifyStaffToken.
func StaffClaims(c *fiber.Ctx) (*domain.StaffClaims, bool) {
	claims, ok := c.Locals(StaffClaimsKey).(*domain.StaffClaims)
	return claims, ok
}
