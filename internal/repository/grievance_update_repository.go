package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/grievance-service/internal/domain"
)

// GrievanceUpdateRepository persists timeline entries.
type GrievanceUpdateRepository interface {
	Create(ctx context.Context, update *domain.GrievanceUpdate) error
	ListByGrievance(ctx context.Context, grievanceID string) ([]domain.GrievanceUpdate, error)
}

type grievanceUpdateRepository struct {
	pool *pgxpool.Pool
}

// NewGrievanceUpdateRepository instantiates repository.
func NewGrievanceUpdateRepository(pool *pgxpool.Pool) GrievanceUpdateRepository {
	return &grievanceUpdateRepository{pool: pool}
}

func (r *grievanceUpdateRepository) Create(ctx context.Context, update *domain.GrievanceUpdate) error {
	const query = `
        INSERT INTO grievance_updates (grievance_id, actor_id, message, status_change)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		update.GrievanceID,
		update.ActorID,
		update.Message,
		update.StatusChange,
	).Scan(&update.ID, &update.CreatedAt)
}

func (r *grievanceUpdateRepository) ListByGrievance(ctx context.Context, grievanceID string) ([]domain.GrievanceUpdate, error) {
	const query = `
        SELECT id, grievance_id, actor_id, message, status_change, created_at
        FROM grievance_updates WHERE grievance_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, grievanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.GrievanceUpdate
	for rows.Next() {
		var update domain.GrievanceUpdate
		if err := rows.Scan(
			&update.ID,
			&update.GrievanceID,
			&update.ActorID,
			&update.Message,
			&update.StatusChange,
			&update.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, update)
	}
	return result, rows.Err()
}
