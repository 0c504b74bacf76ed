package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholaris/cbt-backend/internal/model"
)

// ExamHallRepository handles exam hall data access.
type ExamHallRepository struct {
	pool *pgxpool.Pool
}

// NewExamHallRepository creates a new ExamHallRepository.
func NewExamHallRepository(pool *pgxpool.Pool) *ExamHallRepository {
	return &ExamHallRepository{pool: pool}
}

// GetByID retrieves an exam hall by ID.
func (r *ExamHallRepository) GetByID(ctx context.Context, id string) (*model.ExamHall, error) {
	h := &model.ExamHall{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, number_of_seats, is_active
		 FROM exam_halls
		 WHERE id = $1`, id,
	).Scan(&h.ID, &h.Name, &h.NumberOfSeats, &h.IsActive)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return h, nil
}
