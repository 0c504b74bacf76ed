package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/scholaris/cbt-backend/internal/model"
	"github.com/scholaris/cbt-backend/internal/repository"
)

// ExamCatalog is the exam metadata the assembly service reads.
type ExamCatalog interface {
	GetByID(ctx context.Context, id string) (*model.Exam, error)
	ListAvailable(ctx context.Context, studentID, className string) ([]model.Exam, error)
	ListQuestionIDs(ctx context.Context, examID string) ([]string, error)
	ListTopics(ctx context.Context, examID string) ([]model.ExamTopic, error)
}

// QuestionBank resolves question content and topic pools.
type QuestionBank interface {
	ListByIDs(ctx context.Context, ids []string) ([]model.Question, error)
	ListIDsByTopic(ctx context.Context, topicID string) ([]string, error)
}

// AttemptStore is the durable attempt record the assembly and grading
// services drive.
type AttemptStore interface {
	GetOrCreate(ctx context.Context, id, studentID, examID string) (*model.Attempt, error)
	GetByStudentAndExam(ctx context.Context, studentID, examID string) (*model.Attempt, error)
	GetByID(ctx context.Context, id string) (*model.Attempt, error)
	LockLayout(ctx context.Context, attemptID string, questionOrder []string, layouts map[string]model.OptionLayout, startedAt time.Time) (*model.Attempt, error)
	SubmitGraded(ctx context.Context, attemptID string, submittedAt time.Time, answers []model.Answer, score, percentage float64, grade string, passed, requiresManualReview bool) (*model.Attempt, error)
	ListAnswers(ctx context.Context, attemptID string) ([]model.Answer, error)
}

// AssemblyService turns an exam definition into the paper one student sees.
// Question order and option layouts are drawn once, locked on the attempt and
// replayed verbatim on every re-entry.
type AssemblyService struct {
	exams    ExamCatalog
	bank     QuestionBank
	attempts AttemptStore
	students StudentDirectory
	shuffle  func(n int, swap func(i, j int))
	now      func() time.Time
}

// NewAssemblyService creates a new AssemblyService.
func NewAssemblyService(exams ExamCatalog, bank QuestionBank, attempts AttemptStore, students StudentDirectory) *AssemblyService {
	return &AssemblyService{
		exams:    exams,
		bank:     bank,
		attempts: attempts,
		students: students,
		shuffle:  rand.Shuffle,
		now:      time.Now,
	}
}

// ListOpenExams returns the active exams a student may still sit: scoped to
// their class, limited to their registered subjects, and excluding exams
// already turned in.
func (s *AssemblyService) ListOpenExams(ctx context.Context, taker *model.ExamTaker) ([]model.Exam, error) {
	if !taker.Can(model.CapabilityReadOwnExam) {
		return nil, ErrCapabilityDenied
	}

	student, err := s.students.GetByID(ctx, taker.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("resolve student: %w", err)
	}
	return s.exams.ListAvailable(ctx, student.ID, student.ClassName)
}

// StartExam opens or resumes the student's attempt and returns the assembled
// paper. A submitted attempt cannot be reopened.
func (s *AssemblyService) StartExam(ctx context.Context, taker *model.ExamTaker, examID string) (*model.ExamPaper, error) {
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
	if !exam.Open(s.now()) {
		return nil, ErrExamNotAvailable
	}
	if err := s.checkEligibility(ctx, taker.StudentID, exam); err != nil {
		return nil, err
	}

	attempt, err := s.attempts.GetOrCreate(ctx, uuid.New().String(), taker.StudentID, examID)
	if err != nil {
		return nil, fmt.Errorf("open attempt: %w", err)
	}
	if attempt.Status == model.AttemptStatusSubmitted || attempt.Status == model.AttemptStatusGraded {
		return nil, ErrAlreadySubmitted
	}

	if len(attempt.QuestionOrder) == 0 {
		attempt, err = s.assemble(ctx, exam, attempt)
		if err != nil {
			return nil, err
		}
	}

	return s.buildPaper(ctx, exam, attempt)
}

func (s *AssemblyService) checkEligibility(ctx context.Context, studentID string, exam *model.Exam) error {
	if exam.IsApplicantExam {
		// Applicant eligibility was settled when the passcode was issued.
		return nil
	}
	if exam.ClassName == "" {
		return nil
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("resolve student: %w", err)
	}
	if student.ClassName != exam.ClassName {
		return ErrExamNotAssigned
	}
	return nil
}

// assemble draws the question set, fixes its order and the per-question
// option layouts, and locks them onto the attempt. Losing the lock race means
// another request assembled first; its layout wins.
func (s *AssemblyService) assemble(ctx context.Context, exam *model.Exam, attempt *model.Attempt) (*model.Attempt, error) {
	ids, err := s.drawQuestionIDs(ctx, exam)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrExamNoQuestions
	}

	if exam.ShuffleQuestions {
		s.shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	}

	questions, err := s.bank.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	layouts := make(map[string]model.OptionLayout, len(questions))
	for i := range questions {
		q := &questions[i]
		if q.QuestionType != model.QuestionTypeMultipleChoice {
			continue
		}
		layouts[q.ID] = s.layoutFor(q, exam.ShuffleOptions)
	}

	locked, err := s.attempts.LockLayout(ctx, attempt.ID, ids, layouts, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Another request won the lock; replay its layout.
			return s.attempts.GetByStudentAndExam(ctx, attempt.StudentID, attempt.ExamID)
		}
		return nil, fmt.Errorf("lock attempt layout: %w", err)
	}
	return locked, nil
}

// drawQuestionIDs combines directly attached questions with per-topic random
// draws, then trims to the selection count when one is configured.
func (s *AssemblyService) drawQuestionIDs(ctx context.Context, exam *model.Exam) ([]string, error) {
	ids, err := s.exams.ListQuestionIDs(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}

	topics, err := s.exams.ListTopics(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list exam topics: %w", err)
	}
	for _, t := range topics {
		pool, err := s.bank.ListIDsByTopic(ctx, t.TopicID)
		if err != nil {
			return nil, fmt.Errorf("list topic pool: %w", err)
		}
		s.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		take := t.QuestionCount
		if take <= 0 || take > len(pool) {
			take = len(pool)
		}
		ids = append(ids, pool[:take]...)
	}

	if exam.QuestionSelectionCount > 0 && exam.QuestionSelectionCount < len(ids) {
		s.shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		ids = ids[:exam.QuestionSelectionCount]
	}
	return ids, nil
}

// layoutFor records where each original option lands in the displayed order
// and which displayed label carries the correct option.
func (s *AssemblyService) layoutFor(q *model.Question, shuffleOptions bool) model.OptionLayout {
	order := q.Labels()
	if shuffleOptions {
		s.shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	correct := ""
	for pos, original := range order {
		if original == q.CorrectAnswer {
			correct = model.OptionLabels[pos]
			break
		}
	}
	return model.OptionLayout{Order: order, CorrectLabel: correct}
}

// buildPaper renders the locked attempt into the paper the student sees.
// Options are relabeled positionally so the displayed labels are always A, B,
// C regardless of how the originals were drawn.
func (s *AssemblyService) buildPaper(ctx context.Context, exam *model.Exam, attempt *model.Attempt) (*model.ExamPaper, error) {
	questions, err := s.bank.ListByIDs(ctx, attempt.QuestionOrder)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[string]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	paper := &model.ExamPaper{
		AttemptID:       attempt.ID,
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		TotalMarks:      exam.TotalMarks,
		Questions:       make([]model.DeliveredQuestion, 0, len(attempt.QuestionOrder)),
	}
	if attempt.StartedAt != nil {
		paper.StartedAt = *attempt.StartedAt
	}

	for _, qid := range attempt.QuestionOrder {
		q, ok := byID[qid]
		if !ok {
			// Question deleted from the bank after assembly; skip it.
			continue
		}

		dq := model.DeliveredQuestion{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Marks:        q.Marks,
		}
		if q.QuestionType == model.QuestionTypeMultipleChoice {
			order := q.Labels()
			if layout, ok := attempt.OptionLayouts[q.ID]; ok {
				order = layout.Order
			}
			for pos, original := range order {
				dq.Options = append(dq.Options, model.DeliveredOption{
					Label: model.OptionLabels[pos],
					Text:  q.OptionText(original),
				})
			}
		}
		paper.Questions = append(paper.Questions, dq)
	}
	return paper, nil
}
