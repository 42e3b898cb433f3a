package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/access"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// GrievanceService coordinates the redressal workflow.
type GrievanceService struct {
	grievances repository.GrievanceRepository
	updates    repository.GrievanceUpdateRepository
	feedback   repository.FeedbackRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	policy     config.WorkflowConfig
	now        func() time.Time
}

// GrievanceDependencies bundles repositories for the grievance service.
type GrievanceDependencies struct {
	GrievanceRepo repository.GrievanceRepository
	UpdateRepo    repository.GrievanceUpdateRepository
	FeedbackRepo  repository.FeedbackRepository
	UserRepo      repository.UserRepository
	Dispatcher    events.Dispatcher
}

// SubmitInput describes a grievance submission payload.
type SubmitInput struct {
	Title       string
	Description string
	Category    domain.GrievanceCategory
	Priority    domain.GrievancePriority
	Anonymous   bool
}

// ListFilter describes role-scoped listing filters.
type ListFilter struct {
	Statuses   []domain.GrievanceStatus
	Categories []domain.GrievanceCategory
	Priorities []domain.GrievancePriority
	Limit      int
	Offset     int
}

// GrievanceDetail aggregates a grievance with its timeline and feedback.
type GrievanceDetail struct {
	Grievance *domain.Grievance
	Updates   []domain.GrievanceUpdate
	Feedback  *domain.Feedback
}

// NewGrievanceService constructs the service.
func NewGrievanceService(policy config.WorkflowConfig, deps GrievanceDependencies) *GrievanceService {
	return &GrievanceService{
		grievances: deps.GrievanceRepo,
		updates:    deps.UpdateRepo,
		feedback:   deps.FeedbackRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		policy:     policy,
		now:        time.Now,
	}
}

// Submit files a new grievance, routes it to the responsible authority and
// fixes its deadline. A nil actor means an unauthenticated submission, which
// is always anonymous.
func (s *GrievanceService) Submit(ctx context.Context, actor *domain.User, input SubmitInput) (*domain.Grievance, error) {
	if actor != nil {
		if err := access.Authorize(actor, access.ActionSubmit, nil); err != nil {
			return nil, err
		}
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewInvalidInput("unknown category", map[string]any{"category": input.Category})
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewInvalidInput("unknown priority", map[string]any{"priority": input.Priority})
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewInvalidInput("title and description required", nil)
	}

	assignee, err := s.resolveAssignee(ctx, input.Category)
	if err != nil {
		return nil, err
	}

	anonymous := input.Anonymous
	var submitterID *string
	if actor == nil {
		anonymous = true
	} else {
		id := actor.ID
		submitterID = &id
	}

	// Deadline and creation time must derive from the same instant, so the
	// timestamp is fixed here and persisted as-is rather than stamped by the
	// store.
	createdAt := s.now()
	grievance := &domain.Grievance{
		TicketID:    generateTicketID(),
		Title:       title,
		Description: description,
		Category:    input.Category,
		Priority:    input.Priority,
		Status:      domain.StatusSubmitted,
		IsAnonymous: anonymous,
		SubmitterID: submitterID,
		AssigneeID:  assignee.ID,
		Deadline:    domain.ComputeDeadline(input.Priority, createdAt),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := s.grievances.Create(ctx, grievance); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordUpdate(ctx, grievance.ID, nil,
		"Grievance submitted and routed to the concerned authority.", domain.StatusSubmitted)

	s.publishEvent(ctx, actor, events.Event{
		Type:        events.EventGrievanceSubmitted,
		GrievanceID: grievance.ID,
		TicketID:    grievance.TicketID,
		Payload: events.GrievanceSubmittedPayload{
			Category:   grievance.Category,
			Priority:   grievance.Priority,
			AssigneeID: grievance.AssigneeID,
			Deadline:   grievance.Deadline,
			Anonymous:  grievance.IsAnonymous,
		},
	})
	return grievance, nil
}

// Track fetches a grievance by its public ticket id. No authentication is
// required; anonymity redaction happens at the response mapping.
func (s *GrievanceService) Track(ctx context.Context, ticketID string) (*GrievanceDetail, error) {
	grievance, err := s.grievances.GetByTicketID(ctx, strings.TrimSpace(ticketID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("grievance", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.loadDetail(ctx, grievance)
}

// List returns grievances visible to the actor: students see their own,
// authorities the ones assigned to them, admins everything.
func (s *GrievanceService) List(ctx context.Context, actor *domain.User, filter ListFilter) ([]domain.Grievance, error) {
	scope, err := s.listScope(actor, access.ActionList)
	if err != nil {
		return nil, err
	}
	scope.Statuses = filter.Statuses
	scope.Categories = filter.Categories
	scope.Priorities = filter.Priorities
	scope.Limit = filter.Limit
	scope.Offset = filter.Offset

	result, err := s.grievances.ListWithFilter(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// Detail returns a grievance with timeline and feedback, enforcing access.
func (s *GrievanceService) Detail(ctx context.Context, actor *domain.User, grievanceID string) (*GrievanceDetail, error) {
	grievance, err := s.getGrievance(ctx, grievanceID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.ActionView, grievance); err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, grievance)
}

// UpdateStatus moves a grievance along the workflow. Only the assigned
// authority or an admin may call it; ESCALATED has its own operation.
func (s *GrievanceService) UpdateStatus(ctx context.Context, actor *domain.User, grievanceID string, newStatus domain.GrievanceStatus, note string) (*domain.Grievance, error) {
	if newStatus == domain.StatusEscalated {
		return nil, apperrors.NewInvalidInput("escalation has its own operation", nil)
	}
	valid := false
	for _, status := range domain.Statuses() {
		if status == newStatus {
			valid = true
			break
		}
	}
	if !valid {
		return nil, apperrors.NewInvalidInput("unknown status", map[string]any{"status": newStatus})
	}

	grievance, err := s.getGrievance(ctx, grievanceID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.ActionUpdateStatus, grievance); err != nil {
		return nil, err
	}
	if !domain.CanTransition(grievance.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition(string(grievance.Status), string(newStatus), nil)
	}

	note = strings.TrimSpace(note)
	oldStatus := grievance.Status
	if newStatus == domain.StatusResolved {
		if note == "" {
			return nil, apperrors.NewInvalidTransition(string(oldStatus), string(newStatus),
				map[string]any{"reason": "resolution requires a non-empty response"})
		}
		now := s.now()
		grievance.ResolutionNote = &note
		grievance.ResolvedAt = &now
	}
	grievance.Status = newStatus

	if err := s.grievances.UpdateGuarded(ctx, grievance, oldStatus); err != nil {
		if err == repository.ErrStaleStatus {
			return nil, apperrors.NewConflict("grievance was updated concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}

	message := fmt.Sprintf("Status changed from %s to %s.", oldStatus, newStatus)
	if note != "" {
		message = note
	}
	s.recordUpdate(ctx, grievance.ID, &actor.ID, message, newStatus)

	s.publishEvent(ctx, actor, events.Event{
		Type:        events.EventGrievanceStatusChanged,
		GrievanceID: grievance.ID,
		TicketID:    grievance.TicketID,
		Payload: events.StatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Note:      note,
		},
	})
	return grievance, nil
}

// Reassign hands a grievance to another authority or admin. Admin only.
func (s *GrievanceService) Reassign(ctx context.Context, actor *domain.User, grievanceID, assigneeID string) (*domain.Grievance, error) {
	grievance, err := s.getGrievance(ctx, grievanceID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.ActionReassign, grievance); err != nil {
		return nil, err
	}

	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.CanBeAssigned() {
		return nil, apperrors.NewInvalidInput("assignee must be an authority or admin",
			map[string]any{"role": assignee.Role})
	}

	oldAssignee := grievance.AssigneeID
	grievance.AssigneeID = assignee.ID
	if err := s.grievances.Update(ctx, grievance); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordUpdate(ctx, grievance.ID, &actor.ID,
		fmt.Sprintf("Reassigned to %s.", assignee.Username), "")

	s.publishEvent(ctx, actor, events.Event{
		Type:        events.EventGrievanceAssigned,
		GrievanceID: grievance.ID,
		TicketID:    grievance.TicketID,
		Payload: events.GrievanceAssignedPayload{
			OldAssigneeID: oldAssignee,
			NewAssigneeID: grievance.AssigneeID,
		},
	})
	return grievance, nil
}

// Escalate raises a grievance to admin-level attention. Legal only from
// IN_REVIEW or IN_PROGRESS and bounded by the configured cap.
func (s *GrievanceService) Escalate(ctx context.Context, actor *domain.User, grievanceID string) (*domain.Grievance, error) {
	grievance, err := s.getGrievance(ctx, grievanceID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.ActionEscalate, grievance); err != nil {
		return nil, err
	}
	if !domain.CanEscalate(grievance.Status) {
		return nil, apperrors.NewInvalidTransition(string(grievance.Status), string(domain.StatusEscalated), nil)
	}
	if s.policy.EscalationCap > 0 && grievance.EscalationLevel >= s.policy.EscalationCap {
		return nil, apperrors.NewInvalidTransition(string(grievance.Status), string(domain.StatusEscalated),
			map[string]any{"reason": "escalation cap reached", "cap": s.policy.EscalationCap})
	}

	admin, err := s.users.FirstByRole(ctx, domain.RoleAdmin)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewConflict("no admin account available for escalation", nil)
		}
		return nil, apperrors.MapError(err)
	}

	oldStatus := grievance.Status
	grievance.Status = domain.StatusEscalated
	grievance.AssigneeID = admin.ID
	grievance.EscalationLevel++

	if err := s.grievances.UpdateGuarded(ctx, grievance, oldStatus); err != nil {
		if err == repository.ErrStaleStatus {
			return nil, apperrors.NewConflict("grievance was updated concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.recordUpdate(ctx, grievance.ID, &actor.ID,
		fmt.Sprintf("Escalated to level %d and reassigned to administration.", grievance.EscalationLevel),
		domain.StatusEscalated)

	s.publishEvent(ctx, actor, events.Event{
		Type:        events.EventGrievanceEscalated,
		GrievanceID: grievance.ID,
		TicketID:    grievance.TicketID,
		Payload: events.GrievanceEscalatedPayload{
			Level:      grievance.EscalationLevel,
			AssigneeID: grievance.AssigneeID,
		},
	})
	return grievance, nil
}

// SubmitFeedback records the submitter's one-shot satisfaction rating.
func (s *GrievanceService) SubmitFeedback(ctx context.Context, actor *domain.User, grievanceID string, rating int, comment string) (*domain.Feedback, error) {
	grievance, err := s.getGrievance(ctx, grievanceID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.ActionFeedback, grievance); err != nil {
		return nil, err
	}
	if !domain.AcceptsFeedback(grievance.Status) {
		return nil, apperrors.NewDomainError(apperrors.CodeInvalidTransition,
			"feedback allowed only after resolution", http.StatusConflict,
			map[string]any{"current_status": grievance.Status})
	}
	if !domain.ValidRating(rating) {
		return nil, apperrors.NewInvalidInput("rating out of range", map[string]any{"rating": rating})
	}

	if _, err := s.feedback.GetByGrievance(ctx, grievance.ID); err == nil {
		return nil, apperrors.NewConflict("feedback already submitted for this grievance", nil)
	} else if err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	feedback := &domain.Feedback{
		GrievanceID: grievance.ID,
		UserID:      &actor.ID,
		Rating:      rating,
	}
	if comment = strings.TrimSpace(comment); comment != "" {
		feedback.Comment = &comment
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, actor, events.Event{
		Type:        events.EventFeedbackReceived,
		GrievanceID: grievance.ID,
		TicketID:    grievance.TicketID,
		Payload:     events.FeedbackReceivedPayload{Rating: rating},
	})
	return feedback, nil
}

func (s *GrievanceService) resolveAssignee(ctx context.Context, category domain.GrievanceCategory) (*domain.User, error) {
	dept := domain.DepartmentForCategory(category)
	authority, err := s.users.FirstAuthorityByDepartment(ctx, dept)
	if err == nil {
		return authority, nil
	}
	if err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}
	if !s.policy.FallbackToAdmin {
		return nil, apperrors.NewNoAuthorityForDepartment(string(dept))
	}
	admin, err := s.users.FirstByRole(ctx, domain.RoleAdmin)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNoAuthorityForDepartment(string(dept))
		}
		return nil, apperrors.MapError(err)
	}
	return admin, nil
}

func (s *GrievanceService) listScope(actor *domain.User, action access.Action) (repository.GrievanceFilter, error) {
	if actor == nil {
		return repository.GrievanceFilter{}, apperrors.NewUnauthorized("authentication required")
	}
	scope, ok := access.ScopeFor(actor.Role, action)
	if !ok {
		return repository.GrievanceFilter{}, apperrors.NewForbidden("access denied")
	}
	filter := repository.GrievanceFilter{}
	switch scope {
	case access.ScopeOwn:
		id := actor.ID
		filter.SubmitterID = &id
	case access.ScopeAssigned:
		id := actor.ID
		filter.AssigneeID = &id
	}
	return filter, nil
}

func (s *GrievanceService) getGrievance(ctx context.Context, id string) (*domain.Grievance, error) {
	grievance, err := s.grievances.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("grievance", map[string]any{"grievance_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return grievance, nil
}

func (s *GrievanceService) loadDetail(ctx context.Context, grievance *domain.Grievance) (*GrievanceDetail, error) {
	updates, err := s.updates.ListByGrievance(ctx, grievance.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	detail := &GrievanceDetail{Grievance: grievance, Updates: updates}

	feedback, err := s.feedback.GetByGrievance(ctx, grievance.ID)
	if err == nil {
		detail.Feedback = feedback
	} else if err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}
	return detail, nil
}

func (s *GrievanceService) recordUpdate(ctx context.Context, grievanceID string, actorID *string, message string, statusChange domain.GrievanceStatus) {
	if s.updates == nil {
		return
	}
	entry := &domain.GrievanceUpdate{
		GrievanceID: grievanceID,
		ActorID:     actorID,
		Message:     message,
	}
	if statusChange != "" {
		status := statusChange
		entry.StatusChange = &status
	}
	_ = s.updates.Create(ctx, entry)
}

func (s *GrievanceService) publishEvent(ctx context.Context, actor *domain.User, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if actor != nil {
		id := actor.ID
		role := actor.Role
		event.Actor = events.Actor{UserID: &id, Role: &role}
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// generateTicketID builds a public tracking id. Ten hex characters of UUID
// randomness; the unique index on ticket_id backstops the negligible
// collision chance.
func generateTicketID() string {
	return "GRV-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
