package domain

import "time"

// GrievanceCategory enumerates the complaint categories students can file under.
type GrievanceCategory string

const (
	CategoryAcademic       GrievanceCategory = "ACADEMIC"
	CategoryAdministrative GrievanceCategory = "ADMINISTRATIVE"
	CategoryHostel         GrievanceCategory = "HOSTEL"
	CategoryExamination    GrievanceCategory = "EXAMINATION"
)

// Categories lists every valid category.
func Categories() []GrievanceCategory {
	return []GrievanceCategory{CategoryAcademic, CategoryAdministrative, CategoryHostel, CategoryExamination}
}

// ValidCategory reports enum membership.
func ValidCategory(c GrievanceCategory) bool {
	switch c {
	case CategoryAcademic, CategoryAdministrative, CategoryHostel, CategoryExamination:
		return true
	}
	return false
}

// GrievancePriority enumerates resolution urgency.
type GrievancePriority string

const (
	PriorityLow    GrievancePriority = "LOW"
	PriorityMedium GrievancePriority = "MEDIUM"
	PriorityHigh   GrievancePriority = "HIGH"
	PriorityUrgent GrievancePriority = "URGENT"
)

// ValidPriority reports enum membership.
func ValidPriority(p GrievancePriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// GrievanceStatus enumerates workflow states.
type GrievanceStatus string

const (
	StatusSubmitted  GrievanceStatus = "SUBMITTED"
	StatusInReview   GrievanceStatus = "IN_REVIEW"
	StatusInProgress GrievanceStatus = "IN_PROGRESS"
	StatusResolved   GrievanceStatus = "RESOLVED"
	StatusClosed     GrievanceStatus = "CLOSED"
	StatusEscalated  GrievanceStatus = "ESCALATED"
)

// Statuses lists every workflow state.
func Statuses() []GrievanceStatus {
	return []GrievanceStatus{StatusSubmitted, StatusInReview, StatusInProgress, StatusResolved, StatusClosed, StatusEscalated}
}

// ValidStatus reports enum membership.
func ValidStatus(s GrievanceStatus) bool {
	switch s {
	case StatusSubmitted, StatusInReview, StatusInProgress, StatusResolved, StatusClosed, StatusEscalated:
		return true
	}
	return false
}

// Grievance is the aggregate moving through the redressal workflow.
//
// SubmitterID is nil for unauthenticated submissions. IsAnonymous is sticky:
// once set, no read path exposes the submitter, regardless of caller role.
// Priority and Deadline are fixed at creation and never recomputed.
type Grievance struct {
	ID              string
	TicketID        string
	Title           string
	Description     string
	Category        GrievanceCategory
	Priority        GrievancePriority
	Status          GrievanceStatus
	IsAnonymous     bool
	SubmitterID     *string
	AssigneeID      string
	ResolutionNote  *string
	EscalationLevel int
	Deadline        time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
}

// Open reports whether the grievance still awaits resolution.
func (g *Grievance) Open() bool {
	return g.Status != StatusResolved && g.Status != StatusClosed
}

// Overdue reports whether the grievance missed its deadline at the given time.
func (g *Grievance) Overdue(now time.Time) bool {
	return g.Open() && now.After(g.Deadline)
}

// OwnedBy reports whether the user filed this grievance.
func (g *Grievance) OwnedBy(userID string) bool {
	return g.SubmitterID != nil && *g.SubmitterID == userID
}
