package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/salonsuite/salon-core/internal/domain"
	"github.com/salonsuite/salon-core/internal/middleware"
	"github.com/salonsuite/salon-core/internal/service"
)

// OwnerHandler serves the salon-owner API surface. It runs behind the
// external identity gate and only ever sees verified owner subjects.
type OwnerHandler struct {
	salons   domain.SalonRepository
	profiles *service.ProfileService
	logger   *zap.Logger
}

// NewOwnerHandler creates a new owner handler
func NewOwnerHandler(salons domain.SalonRepository, profiles *service.ProfileService, logger *zap.Logger) *OwnerHandler {
	return &OwnerHandler{
		salons:   salons,
		profiles: profiles,
		logger:   logger,
	}
}

// Salon handles GET /v1/owner/salon, resolving the owner's salon by the
// identity provider subject.
func (h *OwnerHandler) Salon(c *fiber.Ctx) error {
	uid := middleware.OwnerUID(c)
	if uid == "" {
		return middleware.Unauthenticated(c)
	}

	salon, err := h.salons.GetByOwnerUID(c.Context(), uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no salon for this account",
			})
		}
		h.logger.Error("owner salon lookup failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}

	return c.JSON(salon)
}

// SalonProfile handles GET /v1/owner/salon/:id/profile through the tenant
// cache, same read path the customer bootstrap uses.
func (h *OwnerHandler) SalonProfile(c *fiber.Ctx) error {
	salonID := c.Params("id")
	if salonID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "salon id is required",
		})
	}

	salon, err := h.profiles.SalonProfile(c.Context(), salonID)
	if err != nil {
		h.logger.Error("owner salon profile fetch failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.JSON(salon)
}
