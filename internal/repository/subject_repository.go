package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SubjectScoreUpdate is one pending objective-score write, queued when the
// direct update at grading time fails.
type SubjectScoreUpdate struct {
	StudentID string  `json:"student_id"`
	SubjectID string  `json:"subject_id"`
	Score     float64 `json:"score"`
}

// SubjectRepository handles subject registration data access.
type SubjectRepository struct {
	pool *pgxpool.Pool
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// UpdateObjectiveScore writes a CBT objective score onto an active subject
// registration. Returns ErrNotFound when the student is not registered for
// the subject.
func (r *SubjectRepository) UpdateObjectiveScore(ctx context.Context, studentID, subjectID string, score float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE student_subjects
		 SET objective_score = $1
		 WHERE student_id = $2 AND subject_id = $3 AND is_active = true`,
		score, studentID, subjectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkUpdateObjectiveScores applies a batch of queued score updates in a
// single statement. Rows without a matching active registration are skipped.
func (r *SubjectRepository) BulkUpdateObjectiveScores(ctx context.Context, updates []SubjectScoreUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	studentIDs := make([]string, len(updates))
	subjectIDs := make([]string, len(updates))
	scores := make([]float64, len(updates))
	for i, u := range updates {
		studentIDs[i] = u.StudentID
		subjectIDs[i] = u.SubjectID
		scores[i] = u.Score
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE student_subjects ss
		 SET objective_score = v.score
		 FROM (
			 SELECT UNNEST($1::text[]) AS student_id,
			        UNNEST($2::text[]) AS subject_id,
			        UNNEST($3::float8[]) AS score
		 ) v
		 WHERE ss.student_id = v.student_id
		   AND ss.subject_id = v.subject_id
		   AND ss.is_active = true`,
		studentIDs, subjectIDs, scores)
	return err
}
