package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
)

type fakeUserRepo struct {
	users []*domain.User
	seq   int
}

func (r *fakeUserRepo) add(user *domain.User) *domain.User {
	r.seq++
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", r.seq)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users = append(r.users, user)
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.add(user)
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.ID == user.ID {
			existing.PasswordHash = user.PasswordHash
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) FirstByRole(_ context.Context, role domain.Role) (*domain.User, error) {
	for _, user := range r.users {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) FirstAuthorityByDepartment(_ context.Context, dept domain.Department) (*domain.User, error) {
	for _, user := range r.users {
		if user.Role == domain.RoleAuthority && user.Department != nil && *user.Department == dept {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

type fakeGrievanceRepo struct {
	grievances []*domain.Grievance
	seq        int
}

func (r *fakeGrievanceRepo) Create(_ context.Context, g *domain.Grievance) error {
	r.seq++
	g.ID = fmt.Sprintf("grv-%d", r.seq)
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	g.UpdatedAt = g.CreatedAt
	stored := *g
	r.grievances = append(r.grievances, &stored)
	return nil
}

func (r *fakeGrievanceRepo) find(id string) *domain.Grievance {
	for _, g := range r.grievances {
		if g.ID == id {
			return g
		}
	}
	return nil
}

func (r *fakeGrievanceRepo) Update(_ context.Context, g *domain.Grievance) error {
	stored := r.find(g.ID)
	if stored == nil {
		return pgx.ErrNoRows
	}
	r.apply(stored, g)
	return nil
}

func (r *fakeGrievanceRepo) UpdateGuarded(_ context.Context, g *domain.Grievance, expected domain.GrievanceStatus) error {
	stored := r.find(g.ID)
	if stored == nil || stored.Status != expected {
		return repository.ErrStaleStatus
	}
	r.apply(stored, g)
	return nil
}

func (r *fakeGrievanceRepo) apply(stored, g *domain.Grievance) {
	stored.Status = g.Status
	stored.AssigneeID = g.AssigneeID
	stored.ResolutionNote = g.ResolutionNote
	stored.EscalationLevel = g.EscalationLevel
	stored.ResolvedAt = g.ResolvedAt
	stored.UpdatedAt = time.Now()
	g.UpdatedAt = stored.UpdatedAt
}

func (r *fakeGrievanceRepo) GetByID(_ context.Context, id string) (*domain.Grievance, error) {
	if stored := r.find(id); stored != nil {
		copy := *stored
		return &copy, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeGrievanceRepo) GetByTicketID(_ context.Context, ticketID string) (*domain.Grievance, error) {
	for _, g := range r.grievances {
		if g.TicketID == ticketID {
			copy := *g
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeGrievanceRepo) matches(g *domain.Grievance, filter repository.GrievanceFilter) bool {
	if filter.SubmitterID != nil {
		if g.SubmitterID == nil || *g.SubmitterID != *filter.SubmitterID {
			return false
		}
	}
	if filter.AssigneeID != nil && g.AssigneeID != *filter.AssigneeID {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, g.Status) {
		return false
	}
	if len(filter.Categories) > 0 && !containsCategory(filter.Categories, g.Category) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, g.Priority) {
		return false
	}
	return true
}

func (r *fakeGrievanceRepo) ListWithFilter(_ context.Context, filter repository.GrievanceFilter) ([]domain.Grievance, error) {
	var out []domain.Grievance
	for _, g := range r.grievances {
		if r.matches(g, filter) {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *fakeGrievanceRepo) CountByStatus(_ context.Context, scope repository.GrievanceFilter) (map[domain.GrievanceStatus]int64, error) {
	counts := make(map[domain.GrievanceStatus]int64)
	for _, g := range r.grievances {
		if r.matches(g, scope) {
			counts[g.Status]++
		}
	}
	return counts, nil
}

func (r *fakeGrievanceRepo) CountByCategory(_ context.Context, scope repository.GrievanceFilter) (map[domain.GrievanceCategory]int64, error) {
	counts := make(map[domain.GrievanceCategory]int64)
	for _, g := range r.grievances {
		if r.matches(g, scope) {
			counts[g.Category]++
		}
	}
	return counts, nil
}

func (r *fakeGrievanceRepo) CountCreatedBetween(_ context.Context, scope repository.GrievanceFilter, from, to time.Time) (int64, error) {
	var count int64
	for _, g := range r.grievances {
		if r.matches(g, scope) && !g.CreatedAt.Before(from) && g.CreatedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *fakeGrievanceRepo) CountOverdue(_ context.Context, scope repository.GrievanceFilter, now time.Time) (int64, error) {
	var count int64
	for _, g := range r.grievances {
		if r.matches(g, scope) && g.Overdue(now) {
			count++
		}
	}
	return count, nil
}

func containsStatus(list []domain.GrievanceStatus, v domain.GrievanceStatus) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsCategory(list []domain.GrievanceCategory, v domain.GrievanceCategory) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.GrievancePriority, v domain.GrievancePriority) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

type fakeUpdateRepo struct {
	updates []domain.GrievanceUpdate
	seq     int
}

func (r *fakeUpdateRepo) Create(_ context.Context, update *domain.GrievanceUpdate) error {
	r.seq++
	update.ID = fmt.Sprintf("upd-%d", r.seq)
	update.CreatedAt = time.Now()
	r.updates = append(r.updates, *update)
	return nil
}

func (r *fakeUpdateRepo) ListByGrievance(_ context.Context, grievanceID string) ([]domain.GrievanceUpdate, error) {
	var out []domain.GrievanceUpdate
	for i := len(r.updates) - 1; i >= 0; i-- {
		if r.updates[i].GrievanceID == grievanceID {
			out = append(out, r.updates[i])
		}
	}
	return out, nil
}

type fakeFeedbackRepo struct {
	feedback map[string]*domain.Feedback
	seq      int
}

func newFakeFeedbackRepo() *fakeFeedbackRepo {
	return &fakeFeedbackRepo{feedback: make(map[string]*domain.Feedback)}
}

func (r *fakeFeedbackRepo) Create(_ context.Context, fb *domain.Feedback) error {
	r.seq++
	fb.ID = fmt.Sprintf("fbk-%d", r.seq)
	fb.CreatedAt = time.Now()
	stored := *fb
	r.feedback[fb.GrievanceID] = &stored
	return nil
}

func (r *fakeFeedbackRepo) GetByGrievance(_ context.Context, grievanceID string) (*domain.Feedback, error) {
	if fb, ok := r.feedback[grievanceID]; ok {
		copy := *fb
		return &copy, nil
	}
	return nil, pgx.ErrNoRows
}
