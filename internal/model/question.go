package model

// QuestionType enumerates supported question kinds. Only objective types
// (multiple choice, true/false) are auto-scored; the rest are held for
// manual review.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeEssay          QuestionType = "essay"
	QuestionTypeFillBlank      QuestionType = "fill_blank"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
)

// Objective reports whether the type can be graded mechanically.
func (t QuestionType) Objective() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Question is a question-bank entry. CorrectAnswer holds the option label
// (A–E) for multiple choice, "true"/"false" for true/false, and free text
// otherwise.
type Question struct {
	ID            string       `json:"id"`
	SubjectID     string       `json:"subject_id"`
	TopicID       string       `json:"topic_id,omitempty"`
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

// OptionLabels is the canonical label order for multiple-choice options.
var OptionLabels = []string{"A", "B", "C", "D", "E"}

// OptionText returns the option body for a label, or "" when unset.
func (q *Question) OptionText(label string) string {
	switch label {
	case "A":
		return q.OptionA
	case "B":
		return q.OptionB
	case "C":
		return q.OptionC
	case "D":
		return q.OptionD
	case "E":
		return q.OptionE
	}
	return ""
}

// Labels returns the labels of the options this question actually defines,
// in canonical order.
func (q *Question) Labels() []string {
	var labels []string
	for _, l := range OptionLabels {
		if q.OptionText(l) != "" {
			labels = append(labels, l)
		}
	}
	return labels
}
