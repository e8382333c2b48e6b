package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/salonsuite/salon-core/internal/domain"
)

// Cookie lifetimes for the session shapes the codec carries.
const (
	PreLoginIntentTTL  = 60 * time.Minute
	CustomerSessionTTL = 30 * 24 * time.Hour
)

// SessionCodec encodes session payloads to cookie-safe strings and decodes
// them back with structural validation. A decode failure is reported to the
// caller as an error carrying the cause for audit logs; user-visible handling
// must treat every failure exactly like an absent cookie.
type SessionCodec struct {
	logger *zap.Logger
}

// NewSessionCodec creates a session codec
func NewSessionCodec(logger *zap.Logger) *SessionCodec {
	return &SessionCodec{logger: logger}
}

// Encode serializes v as JSON wrapped base64url so the value survives cookie
// transport untouched.
func (c *SessionCodec) Encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode session payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// EncodeCookie packages v as a cookie expiring ttl from now. Cookies are
// server-only: client script never needs the raw payload.
func (c *SessionCodec) EncodeCookie(name string, v any, ttl time.Duration) (*fiber.Cookie, error) {
	value, err := c.Encode(v)
	if err != nil {
		return nil, err
	}
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	}, nil
}

// Decode parses a cookie value into dest and validates its shape. Any error
// means "no session"; the reason is logged at debug level and never surfaces
// in a response.
func (c *SessionCodec) Decode(value string, dest domain.SessionShape) error {
	if err := c.decode(value, dest); err != nil {
		c.logger.Debug("session cookie rejected", zap.Error(err))
		return err
	}
	return nil
}

func (c *SessionCodec) decode(value string, dest domain.SessionShape) error {
	if value == "" {
		return fmt.Errorf("empty session cookie")
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		// Tolerate clients that set the raw JSON unencoded.
		data = []byte(value)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("session cookie is not valid JSON: %w", err)
	}
	if err := dest.Validate(); err != nil {
		return fmt.Errorf("session cookie has wrong shape: %w", err)
	}
	return nil
}

// ExpiredCookie returns a cookie that instructs the browser to drop name.
func ExpiredCookie(name string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	}
}
