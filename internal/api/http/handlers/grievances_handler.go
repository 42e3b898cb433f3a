package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/service"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GrievancesHandler exposes the grievance lifecycle endpoints.
type GrievancesHandler struct {
	grievances *service.GrievanceService
}

// NewGrievancesHandler constructs handler.
func NewGrievancesHandler(grievances *service.GrievanceService) *GrievancesHandler {
	return &GrievancesHandler{grievances: grievances}
}

// Create handles POST /grievances. Authentication is optional; requests
// without a token are filed anonymously.
func (h *GrievancesHandler) Create(c *fiber.Ctx) error {
	var req dto.SubmitGrievanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	actor := auth.UserFromContext(c)
	grievance, err := h.grievances.Submit(c.Context(), actor, service.SubmitInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    domain.GrievanceCategory(req.Category),
		Priority:    domain.GrievancePriority(req.Priority),
		Anonymous:   req.Anonymous,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewGrievanceResponse(grievance)})
}

// Track handles GET /track/:ticketID. Public, no authentication.
func (h *GrievancesHandler) Track(c *fiber.Ctx) error {
	detail, err := h.grievances.Track(c.Context(), c.Params("ticketID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGrievanceDetailResponse(detail)})
}

// List handles GET /grievances with optional status, category and priority
// query filters plus limit/offset pagination.
func (h *GrievancesHandler) List(c *fiber.Ctx) error {
	filter := service.ListFilter{
		Limit:  c.QueryInt("limit", defaultPageSize),
		Offset: c.QueryInt("offset", 0),
	}
	if filter.Limit <= 0 || filter.Limit > maxPageSize {
		filter.Limit = defaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	for _, raw := range splitQuery(c.Query("status")) {
		status := domain.GrievanceStatus(raw)
		if !domain.ValidStatus(status) {
			return apperrors.NewInvalidInput("unknown status filter", map[string]any{"status": raw})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range splitQuery(c.Query("category")) {
		category := domain.GrievanceCategory(raw)
		if !domain.ValidCategory(category) {
			return apperrors.NewInvalidInput("unknown category filter", map[string]any{"category": raw})
		}
		filter.Categories = append(filter.Categories, category)
	}
	for _, raw := range splitQuery(c.Query("priority")) {
		priority := domain.GrievancePriority(raw)
		if !domain.ValidPriority(priority) {
			return apperrors.NewInvalidInput("unknown priority filter", map[string]any{"priority": raw})
		}
		filter.Priorities = append(filter.Priorities, priority)
	}

	actor := auth.UserFromContext(c)
	grievances, err := h.grievances.List(c.Context(), actor, filter)
	if err != nil {
		return err
	}

	items := make([]dto.GrievanceResponse, 0, len(grievances))
	for i := range grievances {
		items = append(items, dto.NewGrievanceResponse(&grievances[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": fiber.Map{"limit": filter.Limit, "offset": filter.Offset, "count": len(items)},
	})
}

// Get handles GET /grievances/:id.
func (h *GrievancesHandler) Get(c *fiber.Ctx) error {
	actor := auth.UserFromContext(c)
	detail, err := h.grievances.Detail(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGrievanceDetailResponse(detail)})
}

// UpdateStatus handles PATCH /grievances/:id/status.
func (h *GrievancesHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	actor := auth.UserFromContext(c)
	grievance, err := h.grievances.UpdateStatus(c.Context(), actor, c.Params("id"),
		domain.GrievanceStatus(req.Status), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGrievanceResponse(grievance)})
}

// Reassign handles POST /grievances/:id/reassign.
func (h *GrievancesHandler) Reassign(c *fiber.Ctx) error {
	var req dto.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	actor := auth.UserFromContext(c)
	grievance, err := h.grievances.Reassign(c.Context(), actor, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGrievanceResponse(grievance)})
}

// Escalate handles POST /grievances/:id/escalate.
func (h *GrievancesHandler) Escalate(c *fiber.Ctx) error {
	actor := auth.UserFromContext(c)
	grievance, err := h.grievances.Escalate(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGrievanceResponse(grievance)})
}

// Feedback handles POST /grievances/:id/feedback.
func (h *GrievancesHandler) Feedback(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewInvalidInput("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	actor := auth.UserFromContext(c)
	feedback, err := h.grievances.SubmitFeedback(c.Context(), actor, c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.FeedbackResponse{
			ID:        feedback.ID,
			Rating:    feedback.Rating,
			Comment:   feedback.Comment,
			CreatedAt: feedback.CreatedAt,
		},
	})
}

func splitQuery(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
