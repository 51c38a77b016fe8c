// Package main provides the zapflow API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/zapflowhq/zapflow/pkg/eventbus"
	"github.com/zapflowhq/zapflow/pkg/events"
	"github.com/zapflowhq/zapflow/pkg/metrics"
	"github.com/zapflowhq/zapflow/pkg/models"
	"github.com/zapflowhq/zapflow/pkg/persistence"
	"github.com/zapflowhq/zapflow/pkg/registry"
	"github.com/zapflowhq/zapflow/pkg/services"
	"github.com/zapflowhq/zapflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	metrics     *metrics.Metrics
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		metrics:     metrics.New(),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// busSink forwards inbound channel events to the worker fleet over the event
// bus, keyed by session so per-session ordering survives partitioning.
type busSink struct {
	eventBus eventbus.EventPublisher
}

func (s *busSink) ProcessInbound(ctx context.Context, event *models.InboundEvent) error {
	return s.eventBus.Publish(ctx, event.SessionID, events.NewInboundReceived(event))
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, a.registry)
	executionService := services.NewExecution(a.persistence)

	handlers := web.NewAPIHandlers(
		workflowService,
		executionService,
		&busSink{eventBus: a.eventBus},
		a.persistence,
		a.validate,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Zapflow API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/deactivate", handlers.DeactivateWorkflow)
	w.Post("/:id/trigger", handlers.TriggerWorkflow)
	w.Get("/:id/executions", handlers.GetWorkflowExecutions)

	app.Get("/executions", handlers.GetExecutions)
	app.Get("/executions/:id", handlers.GetExecution)
	app.Post("/events", handlers.PostEvent)

	app.Get("/health", handlers.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
