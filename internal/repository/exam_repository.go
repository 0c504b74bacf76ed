package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scholaris/cbt-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam by ID.
func (r *ExamRepository) GetByID(ctx context.Context, id string) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, subject_id, COALESCE(class_name, ''), status, duration_minutes,
		        total_marks, pass_mark, shuffle_questions, shuffle_options,
		        show_results_immediately, is_applicant_exam, COALESCE(question_selection_count, 0),
		        start_time, end_time, created_at
		 FROM exams
		 WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.SubjectID, &e.ClassName, &e.Status, &e.DurationMinutes,
		&e.TotalMarks, &e.PassMark, &e.ShuffleQuestions, &e.ShuffleOptions,
		&e.ShowResultsImmediately, &e.IsApplicantExam, &e.QuestionSelectionCount,
		&e.StartTime, &e.EndTime, &e.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return e, nil
}

// ListAvailable retrieves the active exams a student can still sit: scoped to
// their class, limited to subjects they hold an active registration for, and
// excluding exams they have already turned in. An in_progress attempt keeps
// the exam listed so the student can resume after a reload.
func (r *ExamRepository) ListAvailable(ctx context.Context, studentID, className string) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, e.subject_id, COALESCE(e.class_name, ''), e.status, e.duration_minutes,
		        e.total_marks, e.pass_mark, e.shuffle_questions, e.shuffle_options,
		        e.show_results_immediately, e.is_applicant_exam, COALESCE(e.question_selection_count, 0),
		        e.start_time, e.end_time, e.created_at
		 FROM exams e
		 JOIN student_subjects ss
		   ON ss.subject_id = e.subject_id AND ss.student_id = $1 AND ss.is_active
		 WHERE e.status = 'active'
		   AND (e.class_name IS NULL OR e.class_name = '' OR e.class_name = $2)
		   AND (e.start_time IS NULL OR e.start_time <= now())
		   AND (e.end_time IS NULL OR e.end_time >= now())
		   AND NOT EXISTS (
		         SELECT 1
		         FROM student_exams se
		         WHERE se.exam_id = e.id
		           AND se.student_id = $1
		           AND se.status IN ('submitted', 'graded'))
		 ORDER BY e.start_time NULLS LAST, e.created_at DESC`, studentID, className,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.SubjectID, &e.ClassName, &e.Status, &e.DurationMinutes,
			&e.TotalMarks, &e.PassMark, &e.ShuffleQuestions, &e.ShuffleOptions,
			&e.ShowResultsImmediately, &e.IsApplicantExam, &e.QuestionSelectionCount,
			&e.StartTime, &e.EndTime, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListQuestionIDs retrieves the directly attached question IDs for an exam in
// their defined order.
func (r *ExamRepository) ListQuestionIDs(ctx context.Context, examID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id
		 FROM exam_questions
		 WHERE exam_id = $1
		 ORDER BY position ASC`, examID,
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

// ListTopics retrieves the topic pools configured for an exam.
func (r *ExamRepository) ListTopics(ctx context.Context, examID string) ([]model.ExamTopic, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT exam_id, topic_id, question_count
		 FROM exam_topics
		 WHERE exam_id = $1
		 ORDER BY topic_id ASC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []model.ExamTopic
	for rows.Next() {
		var t model.ExamTopic
		if err := rows.Scan(&t.ExamID, &t.TopicID, &t.QuestionCount); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}
