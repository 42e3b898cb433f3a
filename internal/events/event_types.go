package events

import (
	"time"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventGrievanceSubmitted     EventType = "grievance_submitted"
	EventGrievanceStatusChanged EventType = "grievance_status_changed"
	EventGrievanceAssigned      EventType = "grievance_assigned"
	EventGrievanceEscalated     EventType = "grievance_escalated"
	EventFeedbackReceived       EventType = "feedback_received"
)

// Actor encapsulates actor metadata for an event. UserID is nil for
// anonymous submissions.
type Actor struct {
	UserID *string      `json:"user_id,omitempty"`
	Role   *domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	GrievanceID string      `json:"grievance_id"`
	TicketID    string      `json:"ticket_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// GrievanceSubmittedPayload accompanies EventGrievanceSubmitted.
type GrievanceSubmittedPayload struct {
	Category   domain.GrievanceCategory `json:"category"`
	Priority   domain.GrievancePriority `json:"priority"`
	AssigneeID string                   `json:"assignee_id"`
	Deadline   time.Time                `json:"deadline"`
	Anonymous  bool                     `json:"anonymous"`
}

// StatusChangedPayload accompanies EventGrievanceStatusChanged.
type StatusChangedPayload struct {
	OldStatus domain.GrievanceStatus `json:"old_status"`
	NewStatus domain.GrievanceStatus `json:"new_status"`
	Note      string                 `json:"note,omitempty"`
}

// GrievanceAssignedPayload accompanies EventGrievanceAssigned.
type GrievanceAssignedPayload struct {
	OldAssigneeID string `json:"old_assignee_id"`
	NewAssigneeID string `json:"new_assignee_id"`
}

// GrievanceEscalatedPayload accompanies EventGrievanceEscalated.
type GrievanceEscalatedPayload struct {
	Level      int    `json:"level"`
	AssigneeID string `json:"assignee_id"`
}

// FeedbackReceivedPayload accompanies EventFeedbackReceived.
type FeedbackReceivedPayload struct {
	Rating int `json:"rating"`
}
