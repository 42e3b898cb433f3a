package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

type fixture struct {
	service    *GrievanceService
	grievances *fakeGrievanceRepo
	updates    *fakeUpdateRepo
	feedback   *fakeFeedbackRepo
	users      *fakeUserRepo

	admin     *domain.User
	authority *domain.User
	student   *domain.User
}

func newFixture(policy config.WorkflowConfig) *fixture {
	users := &fakeUserRepo{}
	hostel := domain.DepartmentHostel
	f := &fixture{
		grievances: &fakeGrievanceRepo{},
		updates:    &fakeUpdateRepo{},
		feedback:   newFakeFeedbackRepo(),
		users:      users,
		admin:      users.add(&domain.User{Username: "admin", Role: domain.RoleAdmin}),
		authority:  users.add(&domain.User{Username: "hostel_warden", Role: domain.RoleAuthority, Department: &hostel}),
		student:    users.add(&domain.User{Username: "alice", Role: domain.RoleStudent}),
	}
	f.service = NewGrievanceService(policy, GrievanceDependencies{
		GrievanceRepo: f.grievances,
		UpdateRepo:    f.updates,
		FeedbackRepo:  f.feedback,
		UserRepo:      f.users,
		Dispatcher:    events.NewInMemoryDispatcher(),
	})
	return f
}

func defaultPolicy() config.WorkflowConfig {
	return config.WorkflowConfig{EscalationCap: 1, FallbackToAdmin: true}
}

func (f *fixture) submit(t *testing.T, actor *domain.User, input SubmitInput) *domain.Grievance {
	t.Helper()
	g, err := f.service.Submit(context.Background(), actor, input)
	require.NoError(t, err)
	return g
}

func hostelComplaint() SubmitInput {
	return SubmitInput{
		Title:       "Broken water heater",
		Description: "No hot water in block C for a week.",
		Category:    domain.CategoryHostel,
		Priority:    domain.PriorityHigh,
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr), "want DomainError, got %T", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestSubmitRoutesToDepartmentAuthority(t *testing.T) {
	f := newFixture(defaultPolicy())

	g := f.submit(t, f.student, hostelComplaint())

	assert.Equal(t, f.authority.ID, g.AssigneeID)
	assert.Equal(t, domain.StatusSubmitted, g.Status)
	require.NotNil(t, g.SubmitterID)
	assert.Equal(t, f.student.ID, *g.SubmitterID)
	assert.False(t, g.IsAnonymous)
	assert.True(t, strings.HasPrefix(g.TicketID, "GRV-"))
	assert.Equal(t, g.CreatedAt.Add(3*24*time.Hour), g.Deadline)

	updates, err := f.updates.ListByGrievance(context.Background(), g.ID)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Contains(t, updates[0].Message, "submitted")
}

func TestSubmitFixesDeadlineAndCreationAtTheSameInstant(t *testing.T) {
	f := newFixture(defaultPolicy())
	submittedAt := time.Date(2025, 6, 2, 11, 15, 42, 123456789, time.UTC)
	f.service.now = func() time.Time { return submittedAt }

	g := f.submit(t, f.student, hostelComplaint())

	assert.Equal(t, submittedAt, g.CreatedAt)
	assert.Equal(t, submittedAt, g.UpdatedAt)
	assert.Equal(t, submittedAt.Add(3*24*time.Hour), g.Deadline)

	stored, err := f.grievances.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, submittedAt, stored.CreatedAt)
	assert.Equal(t, stored.CreatedAt.Add(3*24*time.Hour), stored.Deadline)
}

func TestSubmitDefaultsPriorityToMedium(t *testing.T) {
	f := newFixture(defaultPolicy())

	input := hostelComplaint()
	input.Priority = ""
	g := f.submit(t, f.student, input)

	assert.Equal(t, domain.PriorityMedium, g.Priority)
	assert.Equal(t, g.CreatedAt.Add(7*24*time.Hour), g.Deadline)
}

func TestSubmitUnauthenticatedIsAlwaysAnonymous(t *testing.T) {
	f := newFixture(defaultPolicy())

	g := f.submit(t, nil, hostelComplaint())

	assert.True(t, g.IsAnonymous)
	assert.Nil(t, g.SubmitterID)
}

func TestSubmitAnonymousKeepsSubmitterForOwnership(t *testing.T) {
	f := newFixture(defaultPolicy())

	input := hostelComplaint()
	input.Anonymous = true
	g := f.submit(t, f.student, input)

	assert.True(t, g.IsAnonymous)
	require.NotNil(t, g.SubmitterID)
	assert.Equal(t, f.student.ID, *g.SubmitterID)
}

func TestSubmitFallsBackToAdmin(t *testing.T) {
	f := newFixture(defaultPolicy())

	input := hostelComplaint()
	input.Category = domain.CategoryExamination
	g := f.submit(t, f.student, input)

	assert.Equal(t, f.admin.ID, g.AssigneeID)
}

func TestSubmitNoAuthorityWithoutFallback(t *testing.T) {
	policy := defaultPolicy()
	policy.FallbackToAdmin = false
	f := newFixture(policy)

	input := hostelComplaint()
	input.Category = domain.CategoryExamination
	_, err := f.service.Submit(context.Background(), f.student, input)
	requireCode(t, err, apperrors.CodeNoAuthorityForDepartment)
}

func TestSubmitRejectsBlankTitle(t *testing.T) {
	f := newFixture(defaultPolicy())

	input := hostelComplaint()
	input.Title = "   "
	_, err := f.service.Submit(context.Background(), f.student, input)
	requireCode(t, err, apperrors.CodeInvalidInput)
}

func TestTrackByTicketID(t *testing.T) {
	f := newFixture(defaultPolicy())
	g := f.submit(t, f.student, hostelComplaint())

	detail, err := f.service.Track(context.Background(), g.TicketID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, detail.Grievance.ID)
	assert.Len(t, detail.Updates, 1)

	_, err = f.service.Track(context.Background(), "GRV-DOESNOTEXIST")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestListScopesByRole(t *testing.T) {
	f := newFixture(defaultPolicy())
	bob := f.users.add(&domain.User{Username: "bob", Role: domain.RoleStudent})

	f.submit(t, f.student, hostelComplaint())
	f.submit(t, bob, hostelComplaint())
	exam := hostelComplaint()
	exam.Category = domain.CategoryExamination
	f.submit(t, f.student, exam)

	ctx := context.Background()

	mine, err := f.service.List(ctx, f.student, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	assigned, err := f.service.List(ctx, f.authority, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, assigned, 2)

	all, err := f.service.List(ctx, f.admin, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.service.List(ctx, nil, ListFilter{})
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestDetailAccess(t *testing.T) {
	f := newFixture(defaultPolicy())
	bob := f.users.add(&domain.User{Username: "bob", Role: domain.RoleStudent})
	g := f.submit(t, f.student, hostelComplaint())

	ctx := context.Background()

	_, err := f.service.Detail(ctx, f.student, g.ID)
	assert.NoError(t, err)
	_, err = f.service.Detail(ctx, f.authority, g.ID)
	assert.NoError(t, err)
	_, err = f.service.Detail(ctx, f.admin, g.ID)
	assert.NoError(t, err)

	_, err = f.service.Detail(ctx, bob, g.ID)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestUpdateStatusEnforcesWorkflow(t *testing.T) {
	f := newFixture(defaultPolicy())
	g := f.submit(t, f.student, hostelComplaint())
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusResolved, "done")
	requireCode(t, err, apperrors.CodeInvalidTransition)

	_, err = f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusEscalated, "")
	requireCode(t, err, apperrors.CodeInvalidInput)

	_, err = f.service.UpdateStatus(ctx, f.student, g.ID, domain.StatusInReview, "")
	requireCode(t, err, apperrors.CodeForbidden)

	updated, err := f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusInReview, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInReview, updated.Status)
}

func TestResolveRequiresNote(t *testing.T) {
	f := newFixture(defaultPolicy())
	g := f.submit(t, f.student, hostelComplaint())
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusInReview, "")
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusResolved, "   ")
	requireCode(t, err, apperrors.CodeInvalidTransition)

	resolved, err := f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusResolved, "Heater replaced.")
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolutionNote)
	assert.Equal(t, "Heater replaced.", *resolved.ResolutionNote)
	assert.NotNil(t, resolved.ResolvedAt)
}

func TestUpdateStatusOnlyForAssignee(t *testing.T) {
	f := newFixture(defaultPolicy())
	academic := domain.DepartmentAcademic
	other := f.users.add(&domain.User{Username: "academic_head", Role: domain.RoleAuthority, Department: &academic})
	g := f.submit(t, f.student, hostelComplaint())

	_, err := f.service.UpdateStatus(context.Background(), other, g.ID, domain.StatusInReview, "")
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestConcurrentTransitionLosesCleanly(t *testing.T) {
	f := newFixture(defaultPolicy())
	g := f.submit(t, f.student, hostelComplaint())
	ctx := context.Background()

	// Another writer moves the row between this caller's read and write.
	stale := staleReadRepo{fakeGrievanceRepo: f.grievances, reportStatus: domain.StatusSubmitted}
	f.service.grievances = &stale
	_, err := f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusInReview, "")
	require.NoError(t, err)

	f.service.grievances = &stale
	_, err = f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusInReview, "")
	requireCode(t, err, apperrors.CodeConflict)
}

func TestEscalationReassignsToAdmin(t *testing.T) {
	f := newFixture(defaultPolicy())
	g := f.submit(t, f.student, hostelComplaint())
	ctx := context.Background()

	// Escalation is only legal once the grievance is being handled.
	_, err := f.service.Escalate(ctx, f.student, g.ID)
	requireCode(t, err, apperrors.CodeInvalidTransition)

	_, err = f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusInReview, "")
	require.NoError(t, err)

	escalated, err := f.service.Escalate(ctx, f.student, g.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEscalated, escalated.Status)
	assert.Equal(t, f.admin.ID, escalated.AssigneeID)
	assert.Equal(t, 1, escalated.EscalationLevel)
}

func TestEscalationCap(t *testing.T) {
	f := newFixture(defaultPolicy())
	g := f.submit(t, f.student, hostelComplaint())
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusInReview, "")
	require.NoError(t, err)
	_, err = f.service.Escalate(ctx, f.student, g.ID)
	require.NoError(t, err)

	// Admin puts it back in progress; the cap still blocks a second round.
	_, err = f.service.UpdateStatus(ctx, f.admin, g.ID, domain.StatusInProgress, "")
	require.NoError(t, err)
	_, err = f.service.Escalate(ctx, f.student, g.ID)
	requireCode(t, err, apperrors.CodeInvalidTransition)
}

func TestEscalationDeniedForNonOwner(t *testing.T) {
	f := newFixture(defaultPolicy())
	bob := f.users.add(&domain.User{Username: "bob", Role: domain.RoleStudent})
	g := f.submit(t, f.student, hostelComplaint())
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusInReview, "")
	require.NoError(t, err)

	_, err = f.service.Escalate(ctx, bob, g.ID)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestReassignAdminOnly(t *testing.T) {
	f := newFixture(defaultPolicy())
	academic := domain.DepartmentAcademic
	other := f.users.add(&domain.User{Username: "academic_head", Role: domain.RoleAuthority, Department: &academic})
	g := f.submit(t, f.student, hostelComplaint())
	ctx := context.Background()

	_, err := f.service.Reassign(ctx, f.authority, g.ID, other.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	reassigned, err := f.service.Reassign(ctx, f.admin, g.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, reassigned.AssigneeID)

	_, err = f.service.Reassign(ctx, f.admin, g.ID, f.student.ID)
	requireCode(t, err, apperrors.CodeInvalidInput)
}

func TestFeedbackLifecycle(t *testing.T) {
	f := newFixture(defaultPolicy())
	g := f.submit(t, f.student, hostelComplaint())
	ctx := context.Background()

	_, err := f.service.SubmitFeedback(ctx, f.student, g.ID, 4, "quick fix")
	requireCode(t, err, apperrors.CodeInvalidTransition)

	_, err = f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusInReview, "")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusResolved, "Heater replaced.")
	require.NoError(t, err)

	bob := f.users.add(&domain.User{Username: "bob", Role: domain.RoleStudent})
	_, err = f.service.SubmitFeedback(ctx, bob, g.ID, 4, "")
	requireCode(t, err, apperrors.CodeForbidden)

	fb, err := f.service.SubmitFeedback(ctx, f.student, g.ID, 4, "quick fix")
	require.NoError(t, err)
	assert.Equal(t, 4, fb.Rating)
	require.NotNil(t, fb.Comment)
	assert.Equal(t, "quick fix", *fb.Comment)

	_, err = f.service.SubmitFeedback(ctx, f.student, g.ID, 5, "")
	requireCode(t, err, apperrors.CodeConflict)
}

func TestFeedbackOnAnonymousGrievanceByOwner(t *testing.T) {
	f := newFixture(defaultPolicy())
	input := hostelComplaint()
	input.Anonymous = true
	g := f.submit(t, f.student, input)
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusInReview, "")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusResolved, "Fixed.")
	require.NoError(t, err)

	_, err = f.service.SubmitFeedback(ctx, f.student, g.ID, 5, "")
	assert.NoError(t, err)
}

func TestEndToEndLifecycle(t *testing.T) {
	f := newFixture(defaultPolicy())
	ctx := context.Background()

	g := f.submit(t, f.student, hostelComplaint())
	assert.Equal(t, domain.StatusSubmitted, g.Status)

	_, err := f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusInReview, "")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, f.authority, g.ID, domain.StatusResolved, "Replaced the heater.")
	require.NoError(t, err)

	_, err = f.service.SubmitFeedback(ctx, f.student, g.ID, 5, "thanks")
	require.NoError(t, err)

	closed, err := f.service.UpdateStatus(ctx, f.admin, g.ID, domain.StatusClosed, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, closed.Status)

	detail, err := f.service.Track(ctx, g.TicketID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, detail.Grievance.Status)
	require.NotNil(t, detail.Feedback)
	assert.Equal(t, 5, detail.Feedback.Rating)
	assert.GreaterOrEqual(t, len(detail.Updates), 4)
}

func TestGenerateTicketID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := generateTicketID()
		require.True(t, strings.HasPrefix(id, "GRV-"))
		require.Len(t, id, 14)
		assert.Equal(t, strings.ToUpper(id), id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate ticket id %s", id)
		seen[id] = struct{}{}
	}
}

// staleReadRepo serves reads with an outdated status to simulate a racing
// writer between read and guarded write.
type staleReadRepo struct {
	*fakeGrievanceRepo
	reportStatus domain.GrievanceStatus
}

func (r *staleReadRepo) GetByID(ctx context.Context, id string) (*domain.Grievance, error) {
	g, err := r.fakeGrievanceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Status = r.reportStatus
	return g, nil
}
