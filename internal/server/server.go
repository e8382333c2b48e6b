package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/salonsuite/salon-core/internal/config"
	"github.com/salonsuite/salon-core/internal/domain"
	"github.com/salonsuite/salon-core/internal/handler"
	"github.com/salonsuite/salon-core/internal/middleware"
	"github.com/salonsuite/salon-core/internal/repository"
	"github.com/salonsuite/salon-core/internal/service"
	"github.com/salonsuite/salon-core/internal/telemetry"
)

// AppDependencies holds the dependencies required to start the application.
// Repositories and collaborator clients come in as interfaces so tests can
// run against fakes.
type AppDependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	StaffRepo    domain.StaffRepository
	SalonRepo    domain.SalonRepository
	CustomerRepo domain.CustomerRepository
	CacheStore   domain.CacheStore
	OwnerAuth    service.OwnerIdentityClient
	LineAuth     service.LineIdentityClient
}

// NewApp creates and configures the Fiber application with the given
// dependencies. A missing signing secret fails here, before any request is
// served.
func NewApp(deps AppDependencies) (*fiber.App, error) {
	tokens, err := service.NewTokenService(deps.Config.Session.Secret, deps.Logger)
	if err != nil {
		return nil, err
	}

	codec := service.NewSessionCodec(deps.Logger)
	cache := repository.NewTenantCache(deps.CacheStore, deps.Logger)

	authService := service.NewAuthService(deps.StaffRepo, deps.CustomerRepo, deps.LineAuth, tokens, deps.Logger)
	profileService := service.NewProfileService(deps.SalonRepo, deps.CustomerRepo, cache, deps.Logger)

	staffHandler := handler.NewStaffAuthHandler(authService, tokens, profileService, deps.Logger)
	customerHandler := handler.NewCustomerAuthHandler(authService, codec, profileService, deps.Config.Line, deps.Logger)
	ownerHandler := handler.NewOwnerHandler(deps.SalonRepo, profileService, deps.Logger)

	app := fiber.New(fiber.Config{
		AppName:      "Salon Core API",
		ErrorHandler: newErrorHandler(deps.Logger),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	if deps.Config.OTEL.Enabled {
		app.Use(telemetry.FiberMiddleware())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "salon-core",
		})
	})

	// Public sign-in surface. Rendering happens elsewhere; these exist so
	// the browse guard has somewhere to land anonymous requests.
	app.Get("/signin", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"page": "signin"})
	})
	app.Get("/signup", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"page": "signup"})
	})

	// Owner browsing pages: anonymous requests are redirected to sign-in.
	dashboard := app.Group("/dashboard", middleware.BrowseGuard(deps.OwnerAuth))
	dashboard.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"page": "dashboard", "owner": middleware.OwnerUID(c)})
	})

	// API v1 routes
	v1 := app.Group("/v1")

	// ===========================================
	// STAFF API - cookie-borne signed session
	// ===========================================
	staff := v1.Group("/staff")
	staff.Post("/login", staffHandler.Login)
	staff.Get("/verify", staffHandler.Verify)
	staff.Post("/logout", staffHandler.Logout)
	staff.Get("/me", middleware.VerifyStaffToken(tokens), staffHandler.Me)
	staff.Get("/salon",
		middleware.VerifyStaffToken(tokens),
		middleware.RequireRole(domain.RoleManager),
		staffHandler.Salon)

	// ===========================================
	// CUSTOMER API - LINE login handoff
	// ===========================================
	line := v1.Group("/line")
	line.Get("/login", customerHandler.BeginLogin)
	line.Get("/callback", customerHandler.Callback)

	v1.Get("/bootstrap", customerHandler.Bootstrap)
	v1.Post("/customer/logout", customerHandler.Logout)

	// ===========================================
	// OWNER API - external identity provider
	// ===========================================
	owner := v1.Group("/owner", middleware.OwnerIdentity(deps.OwnerAuth))
	owner.Get("/salon", ownerHandler.Salon)
	owner.Get("/salon/:id/profile", ownerHandler.SalonProfile)

	return app, nil
}

func newErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}
		log.Error("request failed", zap.Int("status", code), zap.Error(err))
		// No internal error text leaves the process.
		return c.Status(code).JSON(fiber.Map{
			"error": "request failed",
		})
	}
}
