package model

// Student is the durable identity resolved from the school's directory.
// Account credentials live in the primary account system; the CBT engine only
// needs the identifiers below.
type Student struct {
	ID                string `json:"id"`
	AdmissionNumber   string `json:"admission_number"`
	ApplicationNumber string `json:"application_number,omitempty"`
	ClassName         string `json:"class_name,omitempty"`
	SchoolID          string `json:"school_id,omitempty"`
}
