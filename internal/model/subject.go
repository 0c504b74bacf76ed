package model

// Subject is a taught subject; exams grade into a student's subject record.
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// StudentSubject links a student to a registered subject. ObjectiveScore is
// the CBT grading side effect consumed by report generation elsewhere.
type StudentSubject struct {
	StudentID      string   `json:"student_id"`
	SubjectID      string   `json:"subject_id"`
	IsActive       bool     `json:"is_active"`
	ObjectiveScore *float64 `json:"objective_score,omitempty"`
}
