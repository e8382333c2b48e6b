package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/api/option"

	"github.com/salonsuite/salon-core/internal/service"
)

// OwnerIdentityCookie carries the identity provider token for browsing
// requests that cannot set an Authorization header.
const OwnerIdentityCookie = "__session"

// OwnerUIDKey is the context key for the verified owner subject.
const OwnerUIDKey = "ownerUID"

// OwnerIdentity gates salon-owner API endpoints on the external identity
// provider. Only presence of a valid identity matters; the provider token's
// own claims are not interpreted here.
func OwnerIdentity(authClient service.OwnerIdentityClient) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			token = c.Cookies(OwnerIdentityCookie)
		}
		if token == "" {
			return Unauthenticated(c)
		}

		decoded, err := authClient.VerifyIDToken(c.Context(), token)
		if err != nil {
			return Unauthenticated(c)
		}

		c.Locals(OwnerUIDKey, decoded.UID)
		return c.Next()
	}
}

// OwnerUID extracts the verified owner subject from the request context.
// Should only be called behind OwnerIdentity or BrowseGuard.
func OwnerUID(c *fiber.Ctx) string {
	uid, ok := c.Locals(OwnerUIDKey).(string)
	if !ok {
		return ""
	}
	return uid
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// InitFirebase initializes Firebase Admin SDK with environment variables
func InitFirebase(projectID, privateKeyB64, clientEmail string) (*firebase.App, error) {
	// Decode base64 private key
	privateKey, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return nil, err
	}

	credentialsJSON := map[string]interface{}{
		"type":         "service_account",
		"project_id":   projectID,
		"private_key":  string(privateKey),
		"client_email": clientEmail,
	}

	data, err := json.Marshal(credentialsJSON)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(context.Background(), nil, option.WithCredentialsJSON(data))
	if err != nil {
		return nil, err
	}

	return app, nil
}
