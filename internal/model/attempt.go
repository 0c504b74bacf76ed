package model

import "time"

// AttemptStatus is the lifecycle state of a student's exam attempt.
type AttemptStatus string

const (
	AttemptStatusNotStarted AttemptStatus = "not_started"
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
	AttemptStatusGraded     AttemptStatus = "graded"
)

// OptionLayout records the option order shown to one student for one question
// along with where the correct option landed. It is persisted with the attempt
// so grading and review see exactly what the student saw.
type OptionLayout struct {
	Order        []string `json:"order"`
	CorrectLabel string   `json:"correct_label"`
}

// Attempt is one student's attempt at one exam. The (student, exam) pair is
// unique; the insert path relies on the database constraint to keep it that
// way under concurrent starts.
type Attempt struct {
	ID                   string                  `json:"id"`
	StudentID            string                  `json:"student_id"`
	ExamID               string                  `json:"exam_id"`
	Status               AttemptStatus           `json:"status"`
	StartedAt            *time.Time              `json:"started_at,omitempty"`
	SubmittedAt          *time.Time              `json:"submitted_at,omitempty"`
	Score                *float64                `json:"score,omitempty"`
	Percentage           *float64                `json:"percentage,omitempty"`
	Grade                string                  `json:"grade,omitempty"`
	Passed               *bool                   `json:"passed,omitempty"`
	RequiresManualReview bool                    `json:"requires_manual_review"`
	QuestionOrder        []string                `json:"question_order"`
	OptionLayouts        map[string]OptionLayout `json:"option_layouts,omitempty"`
	CreatedAt            time.Time               `json:"created_at"`
}

// Answer is a student's response to one question within an attempt.
// IsCorrect is nil while the answer awaits manual review.
type Answer struct {
	ID            string    `json:"id"`
	AttemptID     string    `json:"attempt_id"`
	QuestionID    string    `json:"question_id"`
	AnswerText    string    `json:"answer_text"`
	IsCorrect     *bool     `json:"is_correct,omitempty"`
	MarksObtained float64   `json:"marks_obtained"`
	AnsweredAt    time.Time `json:"answered_at"`
}

// SubmitExamRequest is the payload for submitting an attempt. Keys are
// question IDs, values are the selected label or free text.
type SubmitExamRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

// AttemptResult is the graded outcome returned after submission when the exam
// shows results immediately.
type AttemptResult struct {
	AttemptID            string   `json:"attempt_id"`
	ExamID               string   `json:"exam_id"`
	Score                float64  `json:"score"`
	TotalMarks           float64  `json:"total_marks"`
	Percentage           float64  `json:"percentage"`
	Grade                string   `json:"grade"`
	Passed               bool     `json:"passed"`
	CorrectCount         int      `json:"correct_count"`
	QuestionCount        int      `json:"question_count"`
	PendingReviewCount   int      `json:"pending_review_count"`
	RequiresManualReview bool     `json:"requires_manual_review"`
	SubmittedAt          string   `json:"submitted_at"`
}

// GradeFor maps a percentage to the school's letter-grade bands.
func GradeFor(percentage float64) string {
	switch {
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B"
	case percentage >= 60:
		return "C"
	case percentage >= 50:
		return "D"
	default:
		return "F"
	}
}
