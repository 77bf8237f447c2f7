// Package web provides the REST API over evaluation runs.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/longytravel/simpleEA/pkg/models"
	"github.com/longytravel/simpleEA/pkg/persistence"
	"github.com/longytravel/simpleEA/pkg/workflow"
)

// scoringStepName is the plan step whose output becomes the report score.
const scoringStepName = "scoring"

type APIHandlers struct {
	manager      *workflow.Manager
	persistence  persistence.Persistence
	validator    *validator.Validate
	defaultSteps []string
}

func NewAPIHandlers(
	manager *workflow.Manager,
	persistence persistence.Persistence,
	validator *validator.Validate,
	defaultSteps []string,
) *APIHandlers {
	return &APIHandlers{
		manager:      manager,
		persistence:  persistence,
		validator:    validator,
		defaultSteps: defaultSteps,
	}
}

func (h *APIHandlers) GetRuns(c fiber.Ctx) error {
	states, err := h.manager.ListRuns(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	runs := make([]RunSummary, 0, len(states))
	for _, state := range states {
		runs = append(runs, TransformRunSummary(state))
	}

	return c.JSON(fiber.Map{
		"runs":        runs,
		"total_count": len(runs),
	})
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	state, err := h.manager.Load(c.Context(), id)
	if err != nil {
		return handleRunError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) CreateRun(c fiber.Ctx) error {
	var req CreateRunRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	steps := req.Steps
	if len(steps) == 0 {
		steps = h.defaultSteps
	}

	state, err := h.manager.Create(c.Context(), req.RunID, steps, models.RunMetadata{
		Strategy:  req.Strategy,
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Extra:     req.Metadata,
	})
	if err != nil {
		return handleRunError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(state)
}

func (h *APIHandlers) DeleteRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	if _, err := h.manager.Load(c.Context(), id); err != nil {
		return handleRunError(c, err)
	}

	if err := h.manager.Delete(c.Context(), id); err != nil {
		return handleRunError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) StartStep(c fiber.Ctx) error {
	id, step := c.Params("id"), c.Params("step")
	if id == "" || step == "" {
		return badRequest(c, "Run ID and step name are required")
	}

	state, err := h.manager.Start(c.Context(), id, step)
	if err != nil {
		return handleRunError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) CompleteStep(c fiber.Ctx) error {
	id, step := c.Params("id"), c.Params("step")
	if id == "" || step == "" {
		return badRequest(c, "Run ID and step name are required")
	}

	var req CompleteStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	state, err := h.manager.Complete(c.Context(), id, step, req.Output)
	if err != nil {
		return handleRunError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) FailStep(c fiber.Ctx) error {
	id, step := c.Params("id"), c.Params("step")
	if id == "" || step == "" {
		return badRequest(c, "Run ID and step name are required")
	}

	var req FailStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	state, err := h.manager.Fail(c.Context(), id, step, req.Reason)
	if err != nil {
		return handleRunError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) CreatePostStep(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	var req CreatePostStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	state, err := h.manager.RecordPostStep(c.Context(), id, req.Name, req.Status, req.Output, req.Error)
	if err != nil {
		return handleRunError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(state)
}

func (h *APIHandlers) GetRunReport(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	state, err := h.manager.Load(c.Context(), id)
	if err != nil {
		return handleRunError(c, err)
	}

	return c.JSON(TransformRunReport(state, scoringStepName))
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Run API is healthy"
	httpStatus := http.StatusOK

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "Run API is unhealthy: " + err.Error()
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
