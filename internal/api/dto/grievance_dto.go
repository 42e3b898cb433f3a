package dto

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/service"
)

// SubmitGrievanceRequest payload. Category and priority are closed
// enumerations; anything else is rejected before reaching the service.
type SubmitGrievanceRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=ACADEMIC ADMINISTRATIVE HOSTEL EXAMINATION"`
	Priority    string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Anonymous   bool   `json:"anonymous"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=SUBMITTED IN_REVIEW IN_PROGRESS RESOLVED CLOSED"`
	Note   string `json:"note"`
}

// ReassignRequest payload.
type ReassignRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required,uuid"`
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// GrievanceResponse is the caller-facing view of a grievance. The submitter
// is omitted for anonymous grievances on every read path, whatever the
// caller's role.
type GrievanceResponse struct {
	ID              string                   `json:"id"`
	TicketID        string                   `json:"ticket_id"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Category        domain.GrievanceCategory `json:"category"`
	Priority        domain.GrievancePriority `json:"priority"`
	Status          domain.GrievanceStatus   `json:"status"`
	Anonymous       bool                     `json:"anonymous"`
	SubmitterID     *string                  `json:"submitter_id,omitempty"`
	AssigneeID      string                   `json:"assignee_id"`
	ResolutionNote  *string                  `json:"resolution_note,omitempty"`
	EscalationLevel int                      `json:"escalation_level"`
	Deadline        time.Time                `json:"deadline"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	ResolvedAt      *time.Time               `json:"resolved_at,omitempty"`
}

// NewGrievanceResponse maps a domain grievance, applying anonymity redaction.
func NewGrievanceResponse(g *domain.Grievance) GrievanceResponse {
	resp := GrievanceResponse{
		ID:              g.ID,
		TicketID:        g.TicketID,
		Title:           g.Title,
		Description:     g.Description,
		Category:        g.Category,
		Priority:        g.Priority,
		Status:          g.Status,
		Anonymous:       g.IsAnonymous,
		AssigneeID:      g.AssigneeID,
		ResolutionNote:  g.ResolutionNote,
		EscalationLevel: g.EscalationLevel,
		Deadline:        g.Deadline,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
		ResolvedAt:      g.ResolvedAt,
	}
	if !g.IsAnonymous {
		resp.SubmitterID = g.SubmitterID
	}
	return resp
}

// GrievanceUpdateResponse represents one timeline entry.
type GrievanceUpdateResponse struct {
	ID           string                  `json:"id"`
	Message      string                  `json:"message"`
	StatusChange *domain.GrievanceStatus `json:"status_change,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
}

// FeedbackResponse is the stored feedback view.
type FeedbackResponse struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GrievanceDetailResponse bundles a grievance with timeline and feedback.
type GrievanceDetailResponse struct {
	GrievanceResponse
	Updates  []GrievanceUpdateResponse `json:"updates"`
	Feedback *FeedbackResponse         `json:"feedback,omitempty"`
}

// NewGrievanceDetailResponse maps a service detail aggregate.
func NewGrievanceDetailResponse(detail *service.GrievanceDetail) GrievanceDetailResponse {
	updates := make([]GrievanceUpdateResponse, 0, len(detail.Updates))
	for _, update := range detail.Updates {
		updates = append(updates, GrievanceUpdateResponse{
			ID:           update.ID,
			Message:      update.Message,
			StatusChange: update.StatusChange,
			CreatedAt:    update.CreatedAt,
		})
	}
	resp := GrievanceDetailResponse{
		GrievanceResponse: NewGrievanceResponse(detail.Grievance),
		Updates:           updates,
	}
	if detail.Feedback != nil {
		resp.Feedback = &FeedbackResponse{
			ID:        detail.Feedback.ID,
			Rating:    detail.Feedback.Rating,
			Comment:   detail.Feedback.Comment,
			CreatedAt: detail.Feedback.CreatedAt,
		}
	}
	return resp
}
