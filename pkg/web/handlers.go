// Package web exposes run intake over HTTP.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/redact"
	"github.com/dukex/flowrun/pkg/registry"
	"github.com/dukex/flowrun/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	runs      *services.Runs
	validator *validator.Validate
	registry  *registry.Registry
}

func NewAPIHandlers(
	runs *services.Runs,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		runs:      runs,
		validator: validator,
		registry:  registry,
	}
}

func (h *APIHandlers) pathID(c fiber.Ctx) (string, bool) {
	params := pathParams{ID: c.Params("id")}
	if err := h.validator.Struct(params); err != nil {
		return "", false
	}

	return params.ID, true
}

// TriggerAgentRun starts a manual run of the agent's active version.
func (h *APIHandlers) TriggerAgentRun(c fiber.Ctx) error {
	agentID, ok := h.pathID(c)
	if !ok {
		return badRequest(c, "Agent ID is invalid")
	}

	var req TriggerRunRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	run, err := h.runs.Trigger(c.Context(), agentID, models.TriggerTypeManual, req.TriggerPayload)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TriggerRunResponse{Run: run})
}

// Webhook starts a webhook run. The trigger payload carries the redacted
// request headers, the decoded body and the query string.
func (h *APIHandlers) Webhook(c fiber.Ctx) error {
	agentID, ok := h.pathID(c)
	if !ok {
		return badRequest(c, "Agent ID is invalid")
	}

	var body any

	if raw := c.Body(); len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	headers := make(map[string]string)
	for name, values := range c.GetReqHeaders() {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}

	query := make(map[string]any)
	for name, value := range c.Queries() {
		query[name] = value
	}

	payload := map[string]any{
		"headers": redact.Headers(headers),
		"body":    body,
		"query":   query,
	}

	run, err := h.runs.Trigger(c.Context(), agentID, models.TriggerTypeWebhook, payload)
	if err != nil {
		if errors.Is(err, services.ErrAgentInactive) {
			return notFound(c, "agent_not_found", "Agent or active version not found")
		}

		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(WebhookResponse{
		RunID:  run.ID,
		Status: "accepted",
	})
}

// GetRun returns the run with its node trace.
func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	runID, ok := h.pathID(c)
	if !ok {
		return badRequest(c, "Run ID is invalid")
	}

	run, err := h.runs.Get(c.Context(), runID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) GetRunNodes(c fiber.Ctx) error {
	runID, ok := h.pathID(c)
	if !ok {
		return badRequest(c, "Run ID is invalid")
	}

	run, err := h.runs.Get(c.Context(), runID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(RunNodesResponse{Nodes: run.Nodes})
}

// ListNodeTypes describes every registered node type.
func (h *APIHandlers) ListNodeTypes(c fiber.Ctx) error {
	factories := h.registry.Factories()

	response := make([]NodeTypeResponse, 0, len(factories))
	for _, factory := range factories {
		response = append(response, NodeTypeResponse{
			ID:          factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return c.JSON(response)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := "Registry has no node types", false
	if types := h.registry.Types(); len(types) > 0 {
		registryCheck, regOk = "Registry is healthy", true
	}

	repositoryCheck, repOk := h.runs.HealthCheck(c.Context())

	status := "unhealthy"
	message := "flowrun API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "flowrun API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
