package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholaris/cbt-backend/internal/model"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, subject_id, COALESCE(topic_id, ''), question_text, question_type,
	COALESCE(option_a, ''), COALESCE(option_b, ''), COALESCE(option_c, ''),
	COALESCE(option_d, ''), COALESCE(option_e, ''), correct_answer,
	COALESCE(explanation, ''), marks`

func scanQuestion(row interface{ Scan(dest ...any) error }) (model.Question, error) {
	var q model.Question
	err := row.Scan(&q.ID, &q.SubjectID, &q.TopicID, &q.QuestionText, &q.QuestionType,
		&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.OptionE,
		&q.CorrectAnswer, &q.Explanation, &q.Marks)
	return q, err
}

// ListByIDs retrieves questions by ID. The result order is unspecified;
// callers that care about order reindex by ID.
func (r *QuestionRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListIDsByTopic retrieves the question IDs in a topic pool.
func (r *QuestionRepository) ListIDsByTopic(ctx context.Context, topicID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM questions WHERE topic_id = $1 ORDER BY id ASC`, topicID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
