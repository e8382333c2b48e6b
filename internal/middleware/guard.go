package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/salonsuite/salon-core/internal/service"
)

// SignInPath is where anonymous browsing requests are sent.
const SignInPath = "/signin"

// publicPaths always proceed regardless of identity state.
var publicPaths = map[string]struct{}{
	"/signin": {},
	"/signup": {},
}

// BrowseGuard is the browsing-context arm of the route guard. Public paths
// proceed unconditionally; any other path without an external identity
// redirects to sign-in. There are no retries at this layer: a rejected
// request comes back with fresh credentials or not at all.
func BrowseGuard(authClient service.OwnerIdentityClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := publicPaths[c.Path()]; ok {
			return c.Next()
		}

		token := bearerToken(c)
		if token == "" {
			token = c.Cookies(OwnerIdentityCookie)
		}
		if token == "" {
			return c.Redirect(SignInPath, fiber.StatusFound)
		}

		decoded, err := authClient.VerifyIDToken(c.Context(), token)
		if err != nil {
			return c.Redirect(SignInPath, fiber.StatusFound)
		}

		c.Locals(OwnerUIDKey, decoded.UID)
		return c.Next()
	}
}
