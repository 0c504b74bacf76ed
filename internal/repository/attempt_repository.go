package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholaris/cbt-backend/internal/model"
)

// AttemptRepository handles exam attempt data access. The unique constraint
// on (student_id, exam_id) is the source of truth for one-attempt-per-exam.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, student_id, exam_id, status, started_at, submitted_at,
	score, percentage, COALESCE(grade, ''), passed, requires_manual_review,
	question_order, option_layouts, created_at`

func scanAttempt(row interface{ Scan(dest ...any) error }) (*model.Attempt, error) {
	a := &model.Attempt{}
	var orderRaw, layoutsRaw []byte
	err := row.Scan(&a.ID, &a.StudentID, &a.ExamID, &a.Status, &a.StartedAt, &a.SubmittedAt,
		&a.Score, &a.Percentage, &a.Grade, &a.Passed, &a.RequiresManualReview,
		&orderRaw, &layoutsRaw, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(orderRaw) > 0 {
		if err := json.Unmarshal(orderRaw, &a.QuestionOrder); err != nil {
			return nil, fmt.Errorf("decode question order: %w", err)
		}
	}
	if len(layoutsRaw) > 0 {
		if err := json.Unmarshal(layoutsRaw, &a.OptionLayouts); err != nil {
			return nil, fmt.Errorf("decode option layouts: %w", err)
		}
	}
	return a, nil
}

// GetOrCreate returns the student's attempt for an exam, inserting a fresh
// not_started row when none exists. Concurrent first calls race on the unique
// constraint; the loser reads the winner's row.
func (r *AttemptRepository) GetOrCreate(ctx context.Context, id, studentID, examID string) (*model.Attempt, error) {
	a, err := scanAttempt(r.pool.QueryRow(ctx,
		`INSERT INTO student_exams (id, student_id, exam_id, status)
		 VALUES ($1, $2, $3, 'not_started')
		 ON CONFLICT (student_id, exam_id) DO NOTHING
		 RETURNING `+attemptColumns, id, studentID, examID,
	))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return r.GetByStudentAndExam(ctx, studentID, examID)
}

// GetByStudentAndExam retrieves a student's attempt for an exam.
func (r *AttemptRepository) GetByStudentAndExam(ctx context.Context, studentID, examID string) (*model.Attempt, error) {
	a, err := scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM student_exams
		 WHERE student_id = $1 AND exam_id = $2`, studentID, examID,
	))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return a, nil
}

// GetByID retrieves an attempt by ID.
func (r *AttemptRepository) GetByID(ctx context.Context, id string) (*model.Attempt, error) {
	a, err := scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM student_exams
		 WHERE id = $1`, id,
	))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return a, nil
}

// LockLayout persists the assembled question order and option layouts and
// moves the attempt to in_progress. Only a not_started attempt can be locked;
// a concurrent loser gets ErrNotFound and must re-read the stored layout.
func (r *AttemptRepository) LockLayout(ctx context.Context, attemptID string, questionOrder []string, layouts map[string]model.OptionLayout, startedAt time.Time) (*model.Attempt, error) {
	orderRaw, err := json.Marshal(questionOrder)
	if err != nil {
		return nil, fmt.Errorf("encode question order: %w", err)
	}
	layoutsRaw, err := json.Marshal(layouts)
	if err != nil {
		return nil, fmt.Errorf("encode option layouts: %w", err)
	}

	a, err := scanAttempt(r.pool.QueryRow(ctx,
		`UPDATE student_exams
		 SET status = 'in_progress', started_at = $2, question_order = $3, option_layouts = $4
		 WHERE id = $1 AND status = 'not_started'
		 RETURNING `+attemptColumns, attemptID, startedAt, orderRaw, layoutsRaw,
	))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return a, nil
}

// SubmitGraded turns in an attempt: the submitted status transition, the
// answer rows and the graded outcome land in one transaction, so a failure
// anywhere leaves the attempt resumable. The conditional status UPDATE is the
// concurrency guard; exactly one submission wins and losers get ErrNotFound.
func (r *AttemptRepository) SubmitGraded(ctx context.Context, attemptID string, submittedAt time.Time, answers []model.Answer, score, percentage float64, grade string, passed, requiresManualReview bool) (*model.Attempt, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a, err := scanAttempt(tx.QueryRow(ctx,
		`UPDATE student_exams
		 SET status = 'submitted', submitted_at = $2
		 WHERE id = $1 AND status IN ('not_started', 'in_progress')
		 RETURNING `+attemptColumns, attemptID, submittedAt,
	))
	if err != nil {
		return nil, mapNoRows(err)
	}

	if len(answers) > 0 {
		batch := &pgx.Batch{}
		for _, ans := range answers {
			batch.Queue(
				`INSERT INTO student_answers (id, attempt_id, question_id, answer_text, is_correct, marks_obtained, answered_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				ans.ID, ans.AttemptID, ans.QuestionID, ans.AnswerText, ans.IsCorrect, ans.MarksObtained, ans.AnsweredAt)
		}
		br := tx.SendBatch(ctx, batch)
		for range answers {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return nil, err
			}
		}
		if err := br.Close(); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE student_exams
		 SET status = 'graded', score = $2, percentage = $3, grade = $4, passed = $5, requires_manual_review = $6
		 WHERE id = $1`,
		attemptID, score, percentage, grade, passed, requiresManualReview); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	a.Status = model.AttemptStatusGraded
	a.Score = &score
	a.Percentage = &percentage
	a.Grade = grade
	a.Passed = &passed
	a.RequiresManualReview = requiresManualReview
	return a, nil
}

// ListAnswers retrieves the stored answers for an attempt.
func (r *AttemptRepository) ListAnswers(ctx context.Context, attemptID string) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, question_id, answer_text, is_correct, marks_obtained, answered_at
		 FROM student_answers
		 WHERE attempt_id = $1
		 ORDER BY answered_at ASC, id ASC`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.AnswerText, &a.IsCorrect, &a.MarksObtained, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
