package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/scholaris/cbt-backend/internal/model"
	"github.com/scholaris/cbt-backend/internal/repository"
)

// SubjectScores writes graded outcomes onto subject registrations.
type SubjectScores interface {
	UpdateObjectiveScore(ctx context.Context, studentID, subjectID string, score float64) error
}

// ScoreEnqueuer queues a subject-score write for later reconciliation when
// the direct update fails.
type ScoreEnqueuer interface {
	Enqueue(ctx context.Context, update repository.SubjectScoreUpdate) error
}

// GradingService grades submitted attempts. Objective questions are scored
// mechanically; everything else is stored ungraded and flagged for manual
// review.
type GradingService struct {
	attempts AttemptStore
	exams    ExamCatalog
	bank     QuestionBank
	subjects SubjectScores
	queue    ScoreEnqueuer
	logger   zerolog.Logger
	now      func() time.Time
}

// NewGradingService creates a new GradingService.
func NewGradingService(attempts AttemptStore, exams ExamCatalog, bank QuestionBank, subjects SubjectScores, queue ScoreEnqueuer, logger zerolog.Logger) *GradingService {
	return &GradingService{
		attempts: attempts,
		exams:    exams,
		bank:     bank,
		subjects: subjects,
		queue:    queue,
		logger:   logger.With().Str("component", "grading").Logger(),
		now:      time.Now,
	}
}

// Submit grades a student's answers against their locked attempt. The status
// transition in the attempt store guarantees a second submission loses and
// gets ErrAlreadySubmitted.
func (s *GradingService) Submit(ctx context.Context, taker *model.ExamTaker, examID string, answers map[string]string) (*model.AttemptResult, *model.Exam, error) {
	if !taker.Can(model.CapabilitySubmitOwnExam) {
		return nil, nil, ErrCapabilityDenied
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrExamNotFound
		}
		return nil, nil, fmt.Errorf("resolve exam: %w", err)
	}
	if exam.Status != model.ExamStatusActive {
		return nil, nil, ErrExamNotAvailable
	}

	attempt, err := s.attempts.GetByStudentAndExam(ctx, taker.StudentID, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAttemptNotFound
		}
		return nil, nil, fmt.Errorf("resolve attempt: %w", err)
	}

	submittedAt := s.now()
	stored, result, err := s.grade(ctx, exam, attempt, answers, submittedAt)
	if err != nil {
		return nil, nil, err
	}

	// Status transition, answers and grade land in one transaction; the
	// conditional update decides the winner under concurrent submission.
	if _, err := s.attempts.SubmitGraded(ctx, attempt.ID, submittedAt, stored,
		result.Score, result.Percentage, result.Grade, result.Passed, result.RequiresManualReview); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAlreadySubmitted
		}
		return nil, nil, fmt.Errorf("persist submission: %w", err)
	}

	if !exam.IsApplicantExam {
		s.recordSubjectScore(ctx, taker.StudentID, exam.SubjectID, result.Percentage)
	}
	return result, exam, nil
}

// Result returns the graded outcome of the student's attempt, honoring the
// exam's release flag.
func (s *GradingService) Result(ctx context.Context, taker *model.ExamTaker, examID string) (*model.AttemptResult, error) {
	if !taker.Can(model.CapabilityReadOwnExam) {
		return nil, ErrCapabilityDenied
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("resolve exam: %w", err)
	}
	if !exam.ShowResultsImmediately && exam.Status != model.ExamStatusCompleted {
		return nil, ErrResultsNotReleased
	}

	attempt, err := s.attempts.GetByStudentAndExam(ctx, taker.StudentID, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("resolve attempt: %w", err)
	}
	if attempt.Status != model.AttemptStatusGraded {
		return nil, ErrAttemptNotFound
	}

	answers, err := s.attempts.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	pending := 0
	correct := 0
	for _, a := range answers {
		if a.IsCorrect == nil {
			pending++
		} else if *a.IsCorrect {
			correct++
		}
	}

	result := &model.AttemptResult{
		AttemptID:            attempt.ID,
		ExamID:               exam.ID,
		TotalMarks:           exam.TotalMarks,
		Grade:                attempt.Grade,
		CorrectCount:         correct,
		QuestionCount:        len(attempt.QuestionOrder),
		PendingReviewCount:   pending,
		RequiresManualReview: attempt.RequiresManualReview,
	}
	if attempt.Score != nil {
		result.Score = *attempt.Score
	}
	if attempt.Percentage != nil {
		result.Percentage = *attempt.Percentage
	}
	if attempt.Passed != nil {
		result.Passed = *attempt.Passed
	}
	if attempt.SubmittedAt != nil {
		result.SubmittedAt = attempt.SubmittedAt.UTC().Format(time.RFC3339)
	}
	return result, nil
}

// grade scores the answers against the locked attempt without touching any
// store; persistence is the caller's single transactional write.
func (s *GradingService) grade(ctx context.Context, exam *model.Exam, attempt *model.Attempt, given map[string]string, submittedAt time.Time) ([]model.Answer, *model.AttemptResult, error) {
	questions, err := s.bank.ListByIDs(ctx, attempt.QuestionOrder)
	if err != nil {
		return nil, nil, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[string]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	var (
		stored        []model.Answer
		score         float64
		paperMarks    float64
		correctCount  int
		pendingCount  int
		requireReview bool
	)

	for _, qid := range attempt.QuestionOrder {
		q, ok := byID[qid]
		if !ok {
			continue
		}
		paperMarks += q.Marks

		raw, answered := given[qid]
		if !answered || strings.TrimSpace(raw) == "" {
			continue
		}

		a := model.Answer{
			ID:         uuid.New().String(),
			AttemptID:  attempt.ID,
			QuestionID: qid,
			AnswerText: raw,
			AnsweredAt: submittedAt,
		}

		if q.QuestionType.Objective() {
			ok := s.objectiveCorrect(q, attempt.OptionLayouts[qid], raw)
			a.IsCorrect = &ok
			if ok {
				a.MarksObtained = q.Marks
				score += q.Marks
				correctCount++
			}
		} else {
			// Held for manual review; marks stay zero until a teacher grades it.
			pendingCount++
			requireReview = true
		}
		stored = append(stored, a)
	}

	totalMarks := exam.TotalMarks
	if totalMarks <= 0 {
		totalMarks = paperMarks
	}
	percentage := 0.0
	if totalMarks > 0 {
		percentage = score / totalMarks * 100
	}
	grade := model.GradeFor(percentage)
	passed := score >= exam.PassMark

	return stored, &model.AttemptResult{
		AttemptID:            attempt.ID,
		ExamID:               exam.ID,
		Score:                score,
		TotalMarks:           totalMarks,
		Percentage:           percentage,
		Grade:                grade,
		Passed:               passed,
		CorrectCount:         correctCount,
		QuestionCount:        len(attempt.QuestionOrder),
		PendingReviewCount:   pendingCount,
		RequiresManualReview: requireReview,
		SubmittedAt:          submittedAt.UTC().Format(time.RFC3339),
	}, nil
}

// objectiveCorrect compares a submitted answer to the key. Multiple-choice
// answers refer to the displayed layout when one was locked; everything is
// compared trimmed and case-insensitive.
func (s *GradingService) objectiveCorrect(q *model.Question, layout model.OptionLayout, raw string) bool {
	answer := strings.TrimSpace(raw)
	if q.QuestionType == model.QuestionTypeMultipleChoice && len(layout.Order) > 0 {
		return strings.EqualFold(answer, layout.CorrectLabel)
	}
	return strings.EqualFold(answer, strings.TrimSpace(q.CorrectAnswer))
}

// recordSubjectScore writes the percentage onto the student's subject
// registration, falling back to the reconciliation queue when the direct
// write fails.
func (s *GradingService) recordSubjectScore(ctx context.Context, studentID, subjectID string, percentage float64) {
	if s.subjects == nil || subjectID == "" {
		return
	}

	err := s.subjects.UpdateObjectiveScore(ctx, studentID, subjectID, percentage)
	if err == nil {
		return
	}

	s.logger.Warn().Err(err).
		Str("student_id", studentID).
		Str("subject_id", subjectID).
		Msg("direct subject score update failed, queueing")

	if s.queue == nil {
		return
	}
	update := repository.SubjectScoreUpdate{StudentID: studentID, SubjectID: subjectID, Score: percentage}
	if err := s.queue.Enqueue(ctx, update); err != nil {
		s.logger.Error().Err(err).
			Str("student_id", studentID).
			Msg("failed to queue subject score update")
	}
}
