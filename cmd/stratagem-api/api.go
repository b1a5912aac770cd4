// Package main provides the Stratagem API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/mohamedadel0806/stratagem/pkg/engine"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/services"
	"github.com/mohamedadel0806/stratagem/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	engine      *engine.Engine
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	engine *engine.Engine,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		engine:      engine,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	definitionService := services.NewDefinitions(a.persistence, a.validate)
	ruleService := services.NewRules(a.persistence, a.validate)

	handlers := web.NewAPIHandlers(definitionService, ruleService, a.engine, a.persistence, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Stratagem API")
	})

	d := app.Group("/definitions")
	d.Get("/", handlers.GetDefinitions)
	d.Post("/", handlers.CreateDefinition)
	d.Get("/:id", handlers.GetDefinition)
	d.Patch("/:id", handlers.UpdateDefinition)
	d.Delete("/:id", handlers.DeleteDefinition)
	d.Post("/:id/trigger", handlers.TriggerDefinition)

	r := app.Group("/rules")
	r.Get("/", handlers.GetRules)
	r.Post("/", handlers.CreateRule)
	r.Get("/:id", handlers.GetRule)
	r.Patch("/:id", handlers.UpdateRule)
	r.Delete("/:id", handlers.DeleteRule)

	e := app.Group("/executions")
	e.Get("/", handlers.GetExecutions)
	e.Get("/:id", handlers.GetExecution)
	e.Get("/:id/approvals", handlers.GetExecutionApprovals)

	ap := app.Group("/approvals")
	ap.Get("/", handlers.GetPendingApprovals)
	ap.Post("/:id/decision", handlers.DecideApproval)

	app.Post("/events", handlers.ReportEntityEvent)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
