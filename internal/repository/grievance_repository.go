package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// ErrStaleStatus signals that a guarded status update found the row in a
// different state than expected, i.e. a concurrent transition won.
var ErrStaleStatus = errors.New("grievance status changed concurrently")

// GrievanceFilter captures list and aggregate query parameters.
type GrievanceFilter struct {
	SubmitterID *string
	AssigneeID  *string
	Statuses    []domain.GrievanceStatus
	Categories  []domain.GrievanceCategory
	Priorities  []domain.GrievancePriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// GrievanceRepository encapsulates grievance persistence.
type GrievanceRepository interface {
	Create(ctx context.Context, grievance *domain.Grievance) error
	Update(ctx context.Context, grievance *domain.Grievance) error
	// UpdateGuarded persists the grievance only while the stored status still
	// equals expected. ErrStaleStatus reports a lost race.
	UpdateGuarded(ctx context.Context, grievance *domain.Grievance, expected domain.GrievanceStatus) error
	GetByID(ctx context.Context, id string) (*domain.Grievance, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Grievance, error)
	ListWithFilter(ctx context.Context, filter GrievanceFilter) ([]domain.Grievance, error)
	CountByStatus(ctx context.Context, scope GrievanceFilter) (map[domain.GrievanceStatus]int64, error)
	CountByCategory(ctx context.Context, scope GrievanceFilter) (map[domain.GrievanceCategory]int64, error)
	CountCreatedBetween(ctx context.Context, scope GrievanceFilter, from, to time.Time) (int64, error)
	CountOverdue(ctx context.Context, scope GrievanceFilter, now time.Time) (int64, error)
}

type grievanceRepository struct {
	pool *pgxpool.Pool
}

// NewGrievanceRepository instantiates repository.
func NewGrievanceRepository(pool *pgxpool.Pool) GrievanceRepository {
	return &grievanceRepository{pool: pool}
}

const grievanceColumns = `id, ticket_id, title, description, category, priority, status,
               is_anonymous, submitter_id, assignee_id, resolution_note, escalation_level,
               deadline, created_at, updated_at, resolved_at`

func (r *grievanceRepository) Create(ctx context.Context, grievance *domain.Grievance) error {
	const query = `
        INSERT INTO grievances (ticket_id, title, description, category, priority, status,
            is_anonymous, submitter_id, assignee_id, escalation_level, deadline,
            created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		grievance.TicketID,
		grievance.Title,
		grievance.Description,
		grievance.Category,
		grievance.Priority,
		grievance.Status,
		grievance.IsAnonymous,
		grievance.SubmitterID,
		grievance.AssigneeID,
		grievance.EscalationLevel,
		grievance.Deadline,
		grievance.CreatedAt,
		grievance.UpdatedAt,
	).Scan(&grievance.ID)
}

func (r *grievanceRepository) Update(ctx context.Context, grievance *domain.Grievance) error {
	const query = `
        UPDATE grievances SET status=$1, assignee_id=$2, resolution_note=$3,
            escalation_level=$4, resolved_at=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		grievance.Status,
		grievance.AssigneeID,
		grievance.ResolutionNote,
		grievance.EscalationLevel,
		grievance.ResolvedAt,
		grievance.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *grievanceRepository) UpdateGuarded(ctx context.Context, grievance *domain.Grievance, expected domain.GrievanceStatus) error {
	const query = `
        UPDATE grievances SET status=$1, assignee_id=$2, resolution_note=$3,
            escalation_level=$4, resolved_at=$5, updated_at=NOW()
        WHERE id=$6 AND status=$7`
	cmd, err := r.pool.Exec(ctx, query,
		grievance.Status,
		grievance.AssigneeID,
		grievance.ResolutionNote,
		grievance.EscalationLevel,
		grievance.ResolvedAt,
		grievance.ID,
		expected,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *grievanceRepository) GetByID(ctx context.Context, id string) (*domain.Grievance, error) {
	const query = `SELECT ` + grievanceColumns + ` FROM grievances WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *grievanceRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Grievance, error) {
	const query = `SELECT ` + grievanceColumns + ` FROM grievances WHERE ticket_id=$1`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *grievanceRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Grievance, error) {
	var g domain.Grievance
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&g.ID,
		&g.TicketID,
		&g.Title,
		&g.Description,
		&g.Category,
		&g.Priority,
		&g.Status,
		&g.IsAnonymous,
		&g.SubmitterID,
		&g.AssigneeID,
		&g.ResolutionNote,
		&g.EscalationLevel,
		&g.Deadline,
		&g.CreatedAt,
		&g.UpdatedAt,
		&g.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *grievanceRepository) ListWithFilter(ctx context.Context, filter GrievanceFilter) ([]domain.Grievance, error) {
	clauses, args := filterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM grievances WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		grievanceColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrievances(rows)
}

func (r *grievanceRepository) CountByStatus(ctx context.Context, scope GrievanceFilter) (map[domain.GrievanceStatus]int64, error) {
	clauses, args := filterClauses(scope)
	query := fmt.Sprintf(`SELECT status, COUNT(*) FROM grievances WHERE %s GROUP BY status`,
		strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.GrievanceStatus]int64)
	for rows.Next() {
		var status domain.GrievanceStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *grievanceRepository) CountByCategory(ctx context.Context, scope GrievanceFilter) (map[domain.GrievanceCategory]int64, error) {
	clauses, args := filterClauses(scope)
	query := fmt.Sprintf(`SELECT category, COUNT(*) FROM grievances WHERE %s GROUP BY category`,
		strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.GrievanceCategory]int64)
	for rows.Next() {
		var category domain.GrievanceCategory
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

func (r *grievanceRepository) CountCreatedBetween(ctx context.Context, scope GrievanceFilter, from, to time.Time) (int64, error) {
	clauses, args := filterClauses(scope)
	args = append(args, from)
	clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	args = append(args, to)
	clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))

	query := fmt.Sprintf(`SELECT COUNT(*) FROM grievances WHERE %s`, strings.Join(clauses, " AND "))

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *grievanceRepository) CountOverdue(ctx context.Context, scope GrievanceFilter, now time.Time) (int64, error) {
	clauses, args := filterClauses(scope)
	args = append(args, now)
	clauses = append(clauses, fmt.Sprintf("deadline < $%d", len(args)))
	args = append(args, domain.StatusResolved)
	clauses = append(clauses, fmt.Sprintf("status != $%d", len(args)))
	args = append(args, domain.StatusClosed)
	clauses = append(clauses, fmt.Sprintf("status != $%d", len(args)))

	query := fmt.Sprintf(`SELECT COUNT(*) FROM grievances WHERE %s`, strings.Join(clauses, " AND "))

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func filterClauses(filter GrievanceFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SubmitterID != nil {
		args = append(args, *filter.SubmitterID)
		clauses = append(clauses, fmt.Sprintf("submitter_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, category)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	return clauses, args
}

func scanGrievances(rows pgx.Rows) ([]domain.Grievance, error) {
	var result []domain.Grievance
	for rows.Next() {
		var g domain.Grievance
		if err := rows.Scan(
			&g.ID,
			&g.TicketID,
			&g.Title,
			&g.Description,
			&g.Category,
			&g.Priority,
			&g.Status,
			&g.IsAnonymous,
			&g.SubmitterID,
			&g.AssigneeID,
			&g.ResolutionNote,
			&g.EscalationLevel,
			&g.Deadline,
			&g.CreatedAt,
			&g.UpdatedAt,
			&g.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}
