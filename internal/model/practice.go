package model

// PracticeExam is a practice paper loaded from a JSON file on disk. Practice
// mode is stateless; nothing about a practice run is persisted.
type PracticeExam struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Subject         string             `json:"subject"`
	DurationMinutes int                `json:"duration_minutes"`
	Questions       []PracticeQuestion `json:"questions"`
}

// PracticeQuestion mirrors Question for file-backed practice pools.
type PracticeQuestion struct {
	ID            string       `json:"id"`
	QuestionText  string       `json:"question_text"`
	QuestionType  QuestionType `json:"question_type"`
	OptionA       string       `json:"option_a,omitempty"`
	OptionB       string       `json:"option_b,omitempty"`
	OptionC       string       `json:"option_c,omitempty"`
	OptionD       string       `json:"option_d,omitempty"`
	OptionE       string       `json:"option_e,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty"`
	Marks         float64      `json:"marks"`
}

// PracticeSummary is the list entry for available practice exams. Answers are
// never included here.
type PracticeSummary struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Subject         string `json:"subject"`
	DurationMinutes int    `json:"duration_minutes"`
	QuestionCount   int    `json:"question_count"`
}

// PracticeResult is the graded outcome of a stateless practice submission.
type PracticeResult struct {
	ExamID        string                  `json:"exam_id"`
	Score         float64                 `json:"score"`
	TotalMarks    float64                 `json:"total_marks"`
	Percentage    float64                 `json:"percentage"`
	Grade         string                  `json:"grade"`
	CorrectCount  int                     `json:"correct_count"`
	QuestionCount int                     `json:"question_count"`
	Breakdown     []PracticeAnswerOutcome `json:"breakdown"`
}

// PracticeAnswerOutcome explains one graded practice answer, including the
// correct answer and explanation for study.
type PracticeAnswerOutcome struct {
	QuestionID    string `json:"question_id"`
	Given         string `json:"given"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation,omitempty"`
}
