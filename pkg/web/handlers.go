// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/mohamedadel0806/stratagem/pkg/engine"
	"github.com/mohamedadel0806/stratagem/pkg/models"
	"github.com/mohamedadel0806/stratagem/pkg/persistence"
	"github.com/mohamedadel0806/stratagem/pkg/services"
)

type APIHandlers struct {
	definitionService *services.Definitions
	ruleService       *services.Rules
	engine            *engine.Engine
	persistence       persistence.Persistence
	validator         *validator.Validate
}

func NewAPIHandlers(
	definitionService *services.Definitions,
	ruleService *services.Rules,
	eng *engine.Engine,
	persistence persistence.Persistence,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		definitionService: definitionService,
		ruleService:       ruleService,
		engine:            eng,
		persistence:       persistence,
		validator:         validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.definitionService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Stratagem API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Stratagem API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// Workflow definition endpoints

func (h *APIHandlers) GetDefinitions(c fiber.Ctx) error {
	filter := persistence.WorkflowFilter{
		TenantID:   c.Query("tenant_id"),
		EntityType: models.EntityType(c.Query("entity_type")),
		Trigger:    models.TriggerType(c.Query("trigger")),
		Status:     models.WorkflowStatus(c.Query("status")),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid limit parameter")
		}

		filter.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return badRequest(c, "Invalid offset parameter")
		}

		filter.Offset = offset
	}

	definitions, err := h.definitionService.List(c.Context(), filter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"definitions": definitions,
		"count":       len(definitions),
	})
}

func (h *APIHandlers) GetDefinition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	definition, err := h.definitionService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(definition)
}

func (h *APIHandlers) CreateDefinition(c fiber.Ctx) error {
	var req CreateDefinitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	definition := &models.WorkflowDefinition{
		TenantID:           req.TenantID,
		Name:               req.Name,
		Description:        req.Description,
		Type:               req.Type,
		Status:             req.Status,
		Trigger:            req.Trigger,
		EntityType:         req.EntityType,
		Conditions:         req.Conditions,
		Actions:            req.Actions,
		DaysBeforeDeadline: req.DaysBeforeDeadline,
		CreatedBy:          req.CreatedBy,
	}

	created, err := h.definitionService.Create(c.Context(), definition)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateDefinition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateDefinitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.definitionService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Type != nil {
		existing.Type = *req.Type
	}

	if req.Status != nil {
		existing.Status = *req.Status
	}

	if req.Trigger != nil {
		existing.Trigger = *req.Trigger
	}

	if req.EntityType != nil {
		existing.EntityType = *req.EntityType
	}

	if req.Conditions != nil {
		existing.Conditions = req.Conditions
	}

	if req.Actions != nil {
		existing.Actions = *req.Actions
	}

	if req.DaysBeforeDeadline != nil {
		existing.DaysBeforeDeadline = *req.DaysBeforeDeadline
	}

	updated, err := h.definitionService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteDefinition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.definitionService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// TriggerDefinition manually starts one workflow against an entity.
func (h *APIHandlers) TriggerDefinition(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req TriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	err := h.engine.TriggerWorkflow(c.Context(), id, engine.TriggerRequest{
		TenantID:    req.TenantID,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Trigger:     models.TriggerManual,
		Snapshot:    req.Snapshot,
		TriggeredBy: req.TriggeredBy,
		UseQueue:    req.Async,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// ReportEntityEvent runs the full matching pipeline for an entity lifecycle
// event. The response is 202 regardless of how many workflows fired; pipeline
// outcomes live on the execution records.
func (h *APIHandlers) ReportEntityEvent(c fiber.Ctx) error {
	var req EntityEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	err := h.engine.CheckAndTrigger(c.Context(), engine.TriggerRequest{
		TenantID:    req.TenantID,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Trigger:     req.Trigger,
		Snapshot:    req.Snapshot,
		TriggeredBy: req.TriggeredBy,
		UseQueue:    true,
	})
	if err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// Trigger rule endpoints

func (h *APIHandlers) GetRules(c fiber.Ctx) error {
	filter := persistence.RuleFilter{
		TenantID:   c.Query("tenant_id"),
		EntityType: models.EntityType(c.Query("entity_type")),
		Trigger:    models.TriggerType(c.Query("trigger")),
	}

	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			return badRequest(c, "Invalid active parameter")
		}

		filter.ActiveOnly = active
	}

	rules, err := h.ruleService.List(c.Context(), filter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"rules": rules,
		"count": len(rules),
	})
}

func (h *APIHandlers) GetRule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Rule ID is required")
	}

	rule, err := h.ruleService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rule)
}

func (h *APIHandlers) CreateRule(c fiber.Ctx) error {
	var req CreateRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	rule := &models.TriggerRule{
		TenantID:   req.TenantID,
		Name:       req.Name,
		EntityType: req.EntityType,
		Trigger:    req.Trigger,
		Predicates: req.Predicates,
		WorkflowID: req.WorkflowID,
		Priority:   req.Priority,
		Active:     req.Active,
	}

	created, err := h.ruleService.Create(c.Context(), rule)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateRule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Rule ID is required")
	}

	var req UpdateRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.ruleService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.EntityType != nil {
		existing.EntityType = *req.EntityType
	}

	if req.Trigger != nil {
		existing.Trigger = *req.Trigger
	}

	if req.Predicates != nil {
		existing.Predicates = req.Predicates
	}

	if req.WorkflowID != nil {
		existing.WorkflowID = *req.WorkflowID
	}

	if req.Priority != nil {
		existing.Priority = *req.Priority
	}

	if req.Active != nil {
		existing.Active = *req.Active
	}

	updated, err := h.ruleService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteRule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Rule ID is required")
	}

	err := h.ruleService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Execution endpoints

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	filter := persistence.ExecutionFilter{
		TenantID:   c.Query("tenant_id"),
		WorkflowID: c.Query("workflow_id"),
		EntityType: models.EntityType(c.Query("entity_type")),
		EntityID:   c.Query("entity_id"),
		Status:     models.ExecutionStatus(c.Query("status")),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid limit parameter")
		}

		filter.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return badRequest(c, "Invalid offset parameter")
		}

		filter.Offset = offset
	}

	executions, err := h.persistence.Executions(c.Context(), filter)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions": executions,
		"count":      len(executions),
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.persistence.ExecutionByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetExecutionApprovals(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	approvals, err := h.persistence.ApprovalsByExecution(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"approvals": approvals,
		"count":     len(approvals),
	})
}

// Approval endpoints

// GetPendingApprovals lists approval steps waiting on one approver, the
// "my approvals" inbox.
func (h *APIHandlers) GetPendingApprovals(c fiber.Ctx) error {
	approverID := c.Query("approver_id")
	if approverID == "" {
		return badRequest(c, "approver_id query parameter is required")
	}

	status := models.ApprovalStatus(c.Query("status", string(models.ApprovalStatusPending)))

	approvals, err := h.persistence.ApprovalsByApprover(c.Context(), approverID, status)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"approvals": approvals,
		"count":     len(approvals),
	})
}

// DecideApproval records an approver's decision and resolves the parent
// execution when the approval round completes.
func (h *APIHandlers) DecideApproval(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Approval ID is required")
	}

	var req DecisionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	err := h.engine.Decide(c.Context(), id, req.UserID, req.Decision, req.Comments, req.Signature)
	if err != nil {
		return handleServiceError(c, err)
	}

	approval, err := h.persistence.ApprovalByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(approval)
}
