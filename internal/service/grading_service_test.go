package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris/cbt-backend/internal/model"
)

type gradingFixture struct {
	svc      *GradingService
	assembly *AssemblyService
	exams    *fakeExams
	attempts *fakeAttempts
	subjects *fakeSubjects
	queue    *fakeQueue
}

func newGradingFixture(t *testing.T, exam *model.Exam, questions ...*model.Question) *gradingFixture {
	t.Helper()

	exams := newFakeExams(exam)
	bank := newFakeBank(questions...)
	attempts := newFakeAttempts()
	students := newFakeStudents(&model.Student{ID: "STU-001", AdmissionNumber: "ADM-2026-001", ClassName: "SS2A"})
	subjects := &fakeSubjects{}
	queue := &fakeQueue{}

	assembly := NewAssemblyService(exams, bank, attempts, students)
	assembly.shuffle = reverseShuffle

	exams.attempts = attempts
	exams.register("STU-001", exam.SubjectID)

	svc := NewGradingService(attempts, exams, bank, subjects, queue, zerolog.Nop())
	return &gradingFixture{
		svc:      svc,
		assembly: assembly,
		exams:    exams,
		attempts: attempts,
		subjects: subjects,
		queue:    queue,
	}
}

func TestSubmitObjectiveGrading(t *testing.T) {
	ctx := context.Background()

	t.Run("grades against the shuffled layout", func(t *testing.T) {
		exam := activeExam()
		exam.ShuffleOptions = true
		f := newGradingFixture(t, exam, mcQuestion("q1", "B"), mcQuestion("q2", "A"))
		f.exams.questionIDs[exam.ID] = []string{"q1", "q2"}

		_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)

		// Reversed layout puts original B at displayed C and original A at
		// displayed D.
		result, _, err := f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{
			"q1": "C",
			"q2": "B",
		})
		require.NoError(t, err)

		assert.Equal(t, 1, result.CorrectCount)
		assert.Equal(t, 2.0, result.Score)
		assert.Equal(t, 25.0, result.Percentage)
		assert.Equal(t, "F", result.Grade)
		assert.False(t, result.Passed)
	})

	t.Run("true false compares trimmed and case-insensitive", func(t *testing.T) {
		exam := activeExam()
		exam.TotalMarks = 2
		exam.PassMark = 1
		f := newGradingFixture(t, exam,
			&model.Question{ID: "tf1", SubjectID: "SUB-MTH", QuestionType: model.QuestionTypeTrueFalse, QuestionText: "x", CorrectAnswer: "true", Marks: 1},
			&model.Question{ID: "tf2", SubjectID: "SUB-MTH", QuestionType: model.QuestionTypeTrueFalse, QuestionText: "y", CorrectAnswer: "false", Marks: 1},
		)
		f.exams.questionIDs[exam.ID] = []string{"tf1", "tf2"}

		_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)

		result, _, err := f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{
			"tf1": "  TRUE ",
			"tf2": "True",
		})
		require.NoError(t, err)

		assert.Equal(t, 1, result.CorrectCount)
		assert.Equal(t, 1.0, result.Score)
		assert.True(t, result.Passed)
		assert.Equal(t, "D", result.Grade)
	})

	t.Run("unanswered questions score nothing", func(t *testing.T) {
		exam := activeExam()
		f := newGradingFixture(t, exam, mcQuestion("q1", "A"), mcQuestion("q2", "B"))
		f.exams.questionIDs[exam.ID] = []string{"q1", "q2"}

		_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)

		result, _, err := f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		require.NoError(t, err)

		assert.Equal(t, 1, result.CorrectCount)
		assert.Equal(t, 2, result.QuestionCount)

		answers, err := f.attempts.ListAnswers(ctx, result.AttemptID)
		require.NoError(t, err)
		assert.Len(t, answers, 1)
	})
}

func TestSubmitManualReview(t *testing.T) {
	ctx := context.Background()

	exam := activeExam()
	exam.TotalMarks = 7
	exam.PassMark = 2
	f := newGradingFixture(t, exam,
		mcQuestion("q1", "A"),
		&model.Question{ID: "e1", SubjectID: "SUB-MTH", QuestionType: model.QuestionTypeEssay, QuestionText: "explain", CorrectAnswer: "", Marks: 5},
	)
	f.exams.questionIDs[exam.ID] = []string{"q1", "e1"}

	_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
	require.NoError(t, err)

	result, _, err := f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{
		"q1": "A",
		"e1": "Because the derivative is zero at the turning point.",
	})
	require.NoError(t, err)

	assert.True(t, result.RequiresManualReview)
	assert.Equal(t, 1, result.PendingReviewCount)
	// Only the objective question contributes to the mechanical score.
	assert.Equal(t, 2.0, result.Score)

	answers, err := f.attempts.ListAnswers(ctx, result.AttemptID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	for _, a := range answers {
		if a.QuestionID == "e1" {
			assert.Nil(t, a.IsCorrect)
			assert.Zero(t, a.MarksObtained)
		} else {
			require.NotNil(t, a.IsCorrect)
			assert.True(t, *a.IsCorrect)
		}
	}
}

func TestSubmitConcurrencyAndReplay(t *testing.T) {
	ctx := context.Background()

	t.Run("second submission conflicts", func(t *testing.T) {
		exam := activeExam()
		f := newGradingFixture(t, exam, mcQuestion("q1", "A"))
		f.exams.questionIDs[exam.ID] = []string{"q1"}

		_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)

		_, _, err = f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		require.NoError(t, err)

		_, _, err = f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
	})

	t.Run("submission without a started attempt", func(t *testing.T) {
		exam := activeExam()
		f := newGradingFixture(t, exam, mcQuestion("q1", "A"))
		f.exams.questionIDs[exam.ID] = []string{"q1"}

		_, _, err := f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		assert.ErrorIs(t, err, ErrAttemptNotFound)
	})

	t.Run("transient store failure leaves the attempt resumable", func(t *testing.T) {
		exam := activeExam()
		f := newGradingFixture(t, exam, mcQuestion("q1", "A"))
		f.exams.questionIDs[exam.ID] = []string{"q1"}

		_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)

		f.attempts.failSubmit = errors.New("connection reset")
		_, _, err = f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		require.Error(t, err)

		// Nothing landed: the attempt is still open with no grade attached.
		attempt, err := f.attempts.GetByStudentAndExam(ctx, "STU-001", exam.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AttemptStatusInProgress, attempt.Status)
		assert.Nil(t, attempt.Score)
		answers, err := f.attempts.ListAnswers(ctx, attempt.ID)
		require.NoError(t, err)
		assert.Empty(t, answers)

		// The retry goes through as if the failure never happened.
		result, _, err := f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		require.NoError(t, err)
		assert.Equal(t, 2.0, result.Score)
	})

	t.Run("inactive exam rejects submission", func(t *testing.T) {
		exam := activeExam()
		f := newGradingFixture(t, exam, mcQuestion("q1", "A"))
		f.exams.questionIDs[exam.ID] = []string{"q1"}

		_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)

		exam.Status = model.ExamStatusCompleted

		_, _, err = f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		assert.ErrorIs(t, err, ErrExamNotAvailable)
	})
}

func TestSubjectScoreSideEffect(t *testing.T) {
	ctx := context.Background()

	t.Run("direct write", func(t *testing.T) {
		exam := activeExam()
		f := newGradingFixture(t, exam, mcQuestion("q1", "A"))
		f.exams.questionIDs[exam.ID] = []string{"q1"}

		_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)
		result, _, err := f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		require.NoError(t, err)

		assert.Equal(t, result.Percentage, f.subjects.scores["STU-001/SUB-MTH"])
		assert.Empty(t, f.queue.updates)
	})

	t.Run("falls back to the queue", func(t *testing.T) {
		exam := activeExam()
		f := newGradingFixture(t, exam, mcQuestion("q1", "A"))
		f.exams.questionIDs[exam.ID] = []string{"q1"}
		f.subjects.failDirect = true

		_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)
		_, _, err = f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		require.NoError(t, err)

		require.Len(t, f.queue.updates, 1)
		assert.Equal(t, "STU-001", f.queue.updates[0].StudentID)
		assert.Equal(t, "SUB-MTH", f.queue.updates[0].SubjectID)
	})

	t.Run("applicant exams skip subject scores", func(t *testing.T) {
		exam := activeExam()
		exam.IsApplicantExam = true
		f := newGradingFixture(t, exam, mcQuestion("q1", "A"))
		f.exams.questionIDs[exam.ID] = []string{"q1"}

		_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)
		_, _, err = f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		require.NoError(t, err)

		assert.Empty(t, f.subjects.scores)
		assert.Empty(t, f.queue.updates)
	})
}

func TestResult(t *testing.T) {
	ctx := context.Background()

	t.Run("released result round-trips", func(t *testing.T) {
		exam := activeExam()
		exam.ShowResultsImmediately = true
		f := newGradingFixture(t, exam, mcQuestion("q1", "A"))
		f.exams.questionIDs[exam.ID] = []string{"q1"}

		_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)
		submitted, _, err := f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		require.NoError(t, err)

		fetched, err := f.svc.Result(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)
		assert.Equal(t, submitted.Score, fetched.Score)
		assert.Equal(t, submitted.Grade, fetched.Grade)
		assert.Equal(t, submitted.CorrectCount, fetched.CorrectCount)
	})

	t.Run("unreleased results are withheld until the exam completes", func(t *testing.T) {
		exam := activeExam()
		exam.ShowResultsImmediately = false
		f := newGradingFixture(t, exam, mcQuestion("q1", "A"))
		f.exams.questionIDs[exam.ID] = []string{"q1"}

		_, err := f.assembly.StartExam(ctx, taker("STU-001"), exam.ID)
		require.NoError(t, err)
		_, _, err = f.svc.Submit(ctx, taker("STU-001"), exam.ID, map[string]string{"q1": "A"})
		require.NoError(t, err)

		_, err = f.svc.Result(ctx, taker("STU-001"), exam.ID)
		assert.ErrorIs(t, err, ErrResultsNotReleased)

		f.exams.exams[exam.ID].Status = model.ExamStatusCompleted
		_, err = f.svc.Result(ctx, taker("STU-001"), exam.ID)
		assert.NoError(t, err)
	})
}

func TestGradeBands(t *testing.T) {
	cases := []struct {
		percentage float64
		grade      string
	}{
		{95, "A"}, {80, "A"}, {79.9, "B"}, {70, "B"},
		{69, "C"}, {60, "C"}, {59, "D"}, {50, "D"},
		{49.9, "F"}, {0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.grade, model.GradeFor(tc.percentage), "percentage %.1f", tc.percentage)
	}
}
