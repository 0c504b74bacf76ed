package model

import "time"

// ExamStatus is the lifecycle state of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "draft"
	ExamStatusActive    ExamStatus = "active"
	ExamStatusCompleted ExamStatus = "completed"
	ExamStatusCancelled ExamStatus = "cancelled"
)

// Exam is a scheduled computer-based test. Questions are attached either
// directly (exam_questions) or drawn from topic pools (exam_topics) at
// assembly time when QuestionSelectionCount is set.
type Exam struct {
	ID                     string     `json:"id"`
	Title                  string     `json:"title"`
	SubjectID              string     `json:"subject_id"`
	ClassName              string     `json:"class_name,omitempty"`
	Status                 ExamStatus `json:"status"`
	DurationMinutes        int        `json:"duration_minutes"`
	TotalMarks             float64    `json:"total_marks"`
	PassMark               float64    `json:"pass_mark"`
	ShuffleQuestions       bool       `json:"shuffle_questions"`
	ShuffleOptions         bool       `json:"shuffle_options"`
	ShowResultsImmediately bool       `json:"show_results_immediately"`
	IsApplicantExam        bool       `json:"is_applicant_exam"`
	QuestionSelectionCount int        `json:"question_selection_count,omitempty"`
	StartTime              *time.Time `json:"start_time,omitempty"`
	EndTime                *time.Time `json:"end_time,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}

// Open reports whether the exam is currently available for taking.
func (e *Exam) Open(now time.Time) bool {
	if e.Status != ExamStatusActive {
		return false
	}
	if e.StartTime != nil && now.Before(*e.StartTime) {
		return false
	}
	if e.EndTime != nil && now.After(*e.EndTime) {
		return false
	}
	return true
}

// ExamTopic maps an exam to a topic pool with the number of questions to draw.
type ExamTopic struct {
	ExamID        string `json:"exam_id"`
	TopicID       string `json:"topic_id"`
	QuestionCount int    `json:"question_count"`
}
