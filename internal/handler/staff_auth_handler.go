package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/salonsuite/salon-core/internal/domain"
	"github.com/salonsuite/salon-core/internal/middleware"
	"github.com/salonsuite/salon-core/internal/service"
)

// StaffAuthHandler handles staff authentication endpoints
type StaffAuthHandler struct {
	authService *service.AuthService
	tokens      *service.TokenService
	profiles    *service.ProfileService
	logger      *zap.Logger
}

// NewStaffAuthHandler creates a new staff auth handler
func NewStaffAuthHandler(
	authService *service.AuthService,
	tokens *service.TokenService,
	profiles *service.ProfileService,
	logger *zap.Logger,
) *StaffAuthHandler {
	return &StaffAuthHandler{
		authService: authService,
		tokens:      tokens,
		profiles:    profiles,
		logger:      logger,
	}
}

type staffLoginRequest struct {
	SalonID  string `json:"salon_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /v1/staff/login
func (h *StaffAuthHandler) Login(c *fiber.Ctx) error {
	var req staffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return middleware.Unauthenticated(c)
	}

	staff, token, err := h.authService.StaffLogin(c.Context(), req.SalonID, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return middleware.Unauthenticated(c)
		}
		h.logger.Error("staff login failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.StaffTokenCookie,
		Value:    token,
		Expires:  time.Now().Add(service.StaffTokenTTL),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	return c.JSON(fiber.Map{
		"authenticated": true,
		"staff": fiber.Map{
			"id":       staff.ID,
			"salon_id": staff.SalonID,
			"role":     staff.Role,
			"name":     staff.Name,
		},
	})
}

// Verify handles GET /v1/staff/verify. The response contract is fixed:
// 200 with the verified payload, or the uniform 401 for missing, malformed,
// tampered and expired tokens alike.
func (h *StaffAuthHandler) Verify(c *fiber.Ctx) error {
	cookie := c.Cookies(middleware.StaffTokenCookie)
	if cookie == "" {
		return middleware.Unauthenticated(c)
	}

	claims, status := h.tokens.Verify(cookie)
	if status != service.VerifyOK {
		return middleware.Unauthenticated(c)
	}

	return c.JSON(fiber.Map{
		"authenticated": true,
		"staff": fiber.Map{
			"staff_id": claims.StaffID,
			"salon_id": claims.SalonID,
			"role":     claims.Role,
			"name":     claims.Name,
			"iat":      claims.IssuedAt.Unix(),
			"exp":      claims.ExpiresAt.Unix(),
		},
	})
}

// Logout handles POST /v1/staff/logout. The namespace clears must complete
// before the response goes out so a subsequent login on this device starts
// from a cold cache.
func (h *StaffAuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(service.ExpiredCookie(middleware.StaffTokenCookie))

	if err := h.profiles.ClearTenantCaches(c.Context()); err != nil {
		h.logger.Error("logout cache clear failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// Me handles GET /v1/staff/me. Runs behind VerifyStaffToken.
func (h *StaffAuthHandler) Me(c *fiber.Ctx) error {
	claims, ok := middleware.StaffClaims(c)
	if !ok {
		return middleware.Unauthenticated(c)
	}
	return c.JSON(fiber.Map{
		"staff_id": claims.StaffID,
		"salon_id": claims.SalonID,
		"role":     claims.Role,
		"name":     claims.Name,
	})
}

// Salon handles GET /v1/staff/salon. Runs behind VerifyStaffToken and
// RequireRole(manager); the profile comes through the tenant cache.
func (h *StaffAuthHandler) Salon(c *fiber.Ctx) error {
	claims, ok := middleware.StaffClaims(c)
	if !ok {
		return middleware.Unauthenticated(c)
	}

	salon, err := h.profiles.SalonProfile(c.Context(), claims.SalonID)
	if err != nil {
		h.logger.Error("salon profile fetch failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.JSON(salon)
}
