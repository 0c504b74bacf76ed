package model

import "time"

// DeliveredOption is one option as shown to the student, already reordered
// per the attempt's option layout. Labels are reassigned positionally, so the
// label a student submits refers to the shuffled layout, not the bank's.
type DeliveredOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// DeliveredQuestion is a question stripped of its answer key for delivery.
type DeliveredQuestion struct {
	ID           string            `json:"id"`
	QuestionText string            `json:"question_text"`
	QuestionType QuestionType      `json:"question_type"`
	Options      []DeliveredOption `json:"options,omitempty"`
	Marks        float64           `json:"marks"`
}

// ExamPaper is the assembled exam a student receives when starting an
// attempt. Question order and option layouts are locked on first assembly and
// replayed verbatim on re-entry.
type ExamPaper struct {
	AttemptID       string              `json:"attempt_id"`
	ExamID          string              `json:"exam_id"`
	Title           string              `json:"title"`
	DurationMinutes int                 `json:"duration_minutes"`
	TotalMarks      float64             `json:"total_marks"`
	StartedAt       time.Time           `json:"started_at"`
	Questions       []DeliveredQuestion `json:"questions"`
}
