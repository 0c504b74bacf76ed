package model

// Capability names a single action an exam taker is allowed to perform.
type Capability string

const (
	CapabilityReadOwnExam   Capability = "read-own-exam"
	CapabilitySubmitOwnExam Capability = "submit-own-exam"
)

// examTakerCapabilities is the closed capability set of a CBT session
// identity. Nothing outside this list is ever granted.
var examTakerCapabilities = map[Capability]bool{
	CapabilityReadOwnExam:   true,
	CapabilitySubmitOwnExam: true,
}

// ExamTaker is the restricted identity a valid CBT session resolves to. It is
// deliberately not a staff or account identity; handlers must check Can before
// acting on the student's behalf.
type ExamTaker struct {
	StudentID       string
	AdmissionNumber string
	SessionToken    string
}

// Can reports whether the exam taker holds the capability.
func (t *ExamTaker) Can(c Capability) bool {
	return examTakerCapabilities[c]
}
