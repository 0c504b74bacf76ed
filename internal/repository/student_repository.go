package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholaris/cbt-backend/internal/model"
)

// StudentRepository handles student directory lookups.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByID retrieves a student by internal ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, admission_number, COALESCE(application_number, ''), COALESCE(class_name, ''), COALESCE(school_id, '')
		 FROM students
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.AdmissionNumber, &s.ApplicationNumber, &s.ClassName, &s.SchoolID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return s, nil
}

// GetByIdentifier resolves a student by admission number first, then
// application number, then internal ID. Applicants sitting entrance exams
// only carry an application number, which is why the fallback chain exists.
func (r *StudentRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, admission_number, COALESCE(application_number, ''), COALESCE(class_name, ''), COALESCE(school_id, '')
		 FROM students
		 WHERE admission_number = $1 OR application_number = $1 OR id = $1
		 ORDER BY (admission_number = $1) DESC, (application_number = $1) DESC
		 LIMIT 1`, identifier,
	).Scan(&s.ID, &s.AdmissionNumber, &s.ApplicationNumber, &s.ClassName, &s.SchoolID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return s, nil
}
