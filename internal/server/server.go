// Package server assembles the services and the fiber application.
package server

import (
	"strings"

	"rental-backend/internal/audit"
	"rental-backend/internal/auth"
	"rental-backend/internal/billing"
	"rental-backend/internal/config"
	"rental-backend/internal/dashboard"
	"rental-backend/internal/httpx"
	"rental-backend/internal/models"
	"rental-backend/internal/payment"
	"rental-backend/internal/property"
	"rental-backend/internal/scheduler"
	"rental-backend/internal/store"
	"rental-backend/internal/tenant"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Server holds the wired services and the HTTP application.
type Server struct {
	App         *fiber.App
	Store       *store.Store
	Engine      *payment.Engine
	Auth        *auth.Service
	Billing     *billing.Service
	PaymentSync *scheduler.PaymentSync
}

// New wires every service on top of db.
func New(cfg *config.Config, db *gorm.DB, log logrus.FieldLogger) *Server {
	st := store.New(db)
	auditWriter := audit.NewWriter(st, log)

	engine := payment.NewEngine(st, log, cfg.Location()).WithAudit(auditWriter)
	authSvc := auth.NewService(st, cfg.JWTSecret, cfg.JWTTTL, log)
	billingSvc := billing.NewService(st, cfg.FreePropertyLimit, cfg.BillingCheckoutURL, log)
	paymentSvc := payment.NewService(engine, st, auditWriter, log)
	propertySvc := property.NewService(st, billingSvc, auditWriter, log)
	tenantSvc := tenant.NewService(st, engine, auditWriter, log)
	dashboardSvc := dashboard.NewService(st, paymentSvc, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: httpx.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		if err := st.Ping(c.UserContext()); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(authSvc))
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(authSvc))
	api.Post("/auth/login", auth.LoginHandler(authSvc))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler(authSvc))

	property.RegisterRoutes(protected, propertySvc)
	tenant.RegisterRoutes(protected, tenantSvc)
	payment.RegisterRoutes(protected, paymentSvc)

	protected.Get("/dashboard", dashboard.SummaryHandler(dashboardSvc))
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(auditWriter))

	protected.Get("/billing/status", billing.StatusHandler(billingSvc))
	protected.Post("/billing/upgrade", billing.UpgradeHandler(billingSvc))

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Put("/subscriptions", billing.SetSubscriptionHandler(billingSvc))

	return &Server{
		App:         app,
		Store:       st,
		Engine:      engine,
		Auth:        authSvc,
		Billing:     billingSvc,
		PaymentSync: scheduler.NewPaymentSync(st, engine, log),
	}
}
