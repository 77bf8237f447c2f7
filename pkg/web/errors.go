package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/longytravel/simpleEA/pkg/persistence"
	"github.com/longytravel/simpleEA/pkg/workflow"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleRunError maps persistence and lifecycle errors onto problem responses.
func handleRunError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsRunNotFound(err):
		return notFound(c, "run not found")

	case errors.Is(err, workflow.ErrUnknownStep):
		return notFound(c, "step is not part of the run")

	case persistence.IsRunAlreadyExists(err):
		return conflict(c, "run_already_exists", err.Error())

	case workflow.IsInvalidTransition(err):
		return conflict(c, "invalid_transition", err.Error())

	case workflow.IsStepGated(err):
		return conflict(c, "step_gated", err.Error())

	default:
		return internalError(c, err)
	}
}
