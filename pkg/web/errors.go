package web

import (
	"errors"

	"github.com/dukex/flowrun/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, kind, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service and persistence errors to problems.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("agent_inactive").
			WithDetail("Agent has no active version. Please activate a version before running.")

		return c.Status(fiber.StatusConflict).JSON(problem)

	case errors.Is(err, services.ErrAgentNotFound):
		return notFound(c, "agent_not_found", "Agent not found. Please check the agent ID.")

	case errors.Is(err, services.ErrRunNotFound):
		return notFound(c, "run_not_found", "Run not found")

	case services.IsNotFoundError(err):
		return notFound(c, "flow_graph_not_found", "Flow graph not found")

	default:
		return internalError(c, err)
	}
}
