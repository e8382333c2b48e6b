package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/salonsuite/salon-core/internal/config"
	"github.com/salonsuite/salon-core/internal/domain"
	"github.com/salonsuite/salon-core/internal/service"
)

// Customer-facing cookie names. The LINE session cookie holds either a
// pre-login intent {storeId} or, after the handoff, a tenant context
// {salonId}.
const (
	LineSessionCookie     = "line_session"
	CustomerSessionCookie = "customer_session"
)

// CustomerAuthHandler handles the LINE login handoff and customer bootstrap
type CustomerAuthHandler struct {
	authService *service.AuthService
	codec       *service.SessionCodec
	profiles    *service.ProfileService
	lineCfg     config.LineConfig
	logger      *zap.Logger
}

// NewCustomerAuthHandler creates a new customer auth handler
func NewCustomerAuthHandler(
	authService *service.AuthService,
	codec *service.SessionCodec,
	profiles *service.ProfileService,
	lineCfg config.LineConfig,
	logger *zap.Logger,
) *CustomerAuthHandler {
	return &CustomerAuthHandler{
		authService: authService,
		codec:       codec,
		profiles:    profiles,
		lineCfg:     lineCfg,
		logger:      logger,
	}
}

// BeginLogin handles GET /v1/line/login?store_id=... It records the pre-login
// intent and hands the browser off to the identity provider.
func (h *CustomerAuthHandler) BeginLogin(c *fiber.Ctx) error {
	storeID := c.Query("store_id")
	if storeID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "store_id is required",
		})
	}

	cookie, err := h.codec.EncodeCookie(LineSessionCookie,
		&domain.PreLoginIntent{StoreID: storeID}, service.PreLoginIntentTTL)
	if err != nil {
		h.logger.Error("failed to encode pre-login intent", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	c.Cookie(cookie)

	return c.Redirect(h.authorizeURL(storeID), fiber.StatusFound)
}

// Callback handles GET /v1/line/callback?code=... The pre-login intent is
// consumed exactly once: whatever happens next, the cookie stops being an
// intent. Failures land the customer back on the anonymous entry page.
func (h *CustomerAuthHandler) Callback(c *fiber.Ctx) error {
	intent := &domain.PreLoginIntent{}
	if err := h.codec.Decode(c.Cookies(LineSessionCookie), intent); err != nil {
		c.Cookie(service.ExpiredCookie(LineSessionCookie))
		return c.Redirect("/", fiber.StatusFound)
	}

	code := c.Query("code")
	if code == "" {
		c.Cookie(service.ExpiredCookie(LineSessionCookie))
		return c.Redirect("/", fiber.StatusFound)
	}

	customer, err := h.authService.CompleteLineLogin(c.Context(), intent, code)
	if err != nil {
		h.logger.Warn("line login handoff failed", zap.Error(err))
		c.Cookie(service.ExpiredCookie(LineSessionCookie))
		return c.Redirect("/", fiber.StatusFound)
	}

	// The intent becomes a tenant context for subsequent bootstraps.
	tenantCookie, err := h.codec.EncodeCookie(LineSessionCookie,
		&domain.TenantContext{SalonID: intent.StoreID}, service.CustomerSessionTTL)
	if err != nil {
		h.logger.Error("failed to encode tenant context", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	c.Cookie(tenantCookie)

	if !customer.Complete() {
		// Profile data from the provider was not enough for a session;
		// the customer finishes registration first.
		return c.Redirect("/register", fiber.StatusFound)
	}

	sessionCookie, err := h.codec.EncodeCookie(CustomerSessionCookie,
		service.SessionFor(customer), service.CustomerSessionTTL)
	if err != nil {
		h.logger.Error("failed to encode customer session", zap.Error(err))
		return fiber.ErrInternalServerError
	}
	c.Cookie(sessionCookie)

	return c.Redirect("/", fiber.StatusFound)
}

// Bootstrap handles GET /v1/bootstrap. It resolves the tenant context before
// any profile fetch, then serves the salon and customer profiles through the
// tenant cache. An unusable cookie is indistinguishable from an absent one:
// both yield the anonymous payload.
func (h *CustomerAuthHandler) Bootstrap(c *fiber.Ctx) error {
	tenant := &domain.TenantContext{}
	if err := h.codec.Decode(c.Cookies(LineSessionCookie), tenant); err != nil {
		return c.JSON(fiber.Map{
			"salon":    nil,
			"customer": nil,
		})
	}

	salon, err := h.profiles.SalonProfile(c.Context(), tenant.SalonID)
	if err != nil {
		h.logger.Error("bootstrap salon fetch failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}

	resp := fiber.Map{
		"salon":    salon,
		"customer": nil,
	}

	session := &domain.CustomerSession{}
	if err := h.codec.Decode(c.Cookies(CustomerSessionCookie), session); err == nil {
		details, err := h.profiles.CustomerDetails(c.Context(), session.ID)
		if err != nil {
			h.logger.Warn("bootstrap customer fetch failed", zap.Error(err))
		} else {
			resp["customer"] = details
		}
	}

	return c.JSON(resp)
}

// Logout handles POST /v1/customer/logout. Cookies are dropped and both
// cache namespaces are evicted before the response is written.
func (h *CustomerAuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(service.ExpiredCookie(LineSessionCookie))
	c.Cookie(service.ExpiredCookie(CustomerSessionCookie))

	if err := h.profiles.ClearTenantCaches(c.Context()); err != nil {
		h.logger.Error("logout cache clear failed", zap.Error(err))
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

func (h *CustomerAuthHandler) authorizeURL(storeID string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", h.lineCfg.ChannelID)
	q.Set("redirect_uri", h.lineCfg.RedirectURL)
	q.Set("state", storeID)
	q.Set("scope", "profile openid email")
	return h.lineCfg.AuthorizeURL + "?" + q.Encode()
}
