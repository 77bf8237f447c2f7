// Package main provides the evaluation run API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/longytravel/simpleEA/pkg/eventbus"
	"github.com/longytravel/simpleEA/pkg/persistence"
	"github.com/longytravel/simpleEA/pkg/settings"
	"github.com/longytravel/simpleEA/pkg/web"
	"github.com/longytravel/simpleEA/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	settings    settings.Settings
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	publisher eventbus.EventPublisher,
	settings settings.Settings,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		publisher:   publisher,
		settings:    settings,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	manager := workflow.NewManager(a.persistence.StateRepository(), a.publisher, a.logger)
	handlers := web.NewAPIHandlers(manager, a.persistence, a.validate, a.settings.Steps)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("SimpleEA API")
	})

	r := app.Group("/runs")
	r.Get("/", handlers.GetRuns)
	r.Post("/", handlers.CreateRun)
	r.Get("/:id", handlers.GetRun)
	r.Delete("/:id", handlers.DeleteRun)
	r.Get("/:id/report", handlers.GetRunReport)
	r.Post("/:id/post-steps", handlers.CreatePostStep)
	r.Post("/:id/steps/:step/start", handlers.StartStep)
	r.Post("/:id/steps/:step/complete", handlers.CompleteStep)
	r.Post("/:id/steps/:step/fail", handlers.FailStep)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
