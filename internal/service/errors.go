package service

import "errors"

// Sentinel errors shared across CBT services. Handlers translate these to
// response error codes.
var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamNotAvailable   = errors.New("exam not available")
	ErrExamNotAssigned    = errors.New("student not assigned to exam")
	ErrExamNoQuestions    = errors.New("exam has no questions")
	ErrHallNotFound       = errors.New("exam hall not found")
	ErrSeatOutOfRange     = errors.New("seat number exceeds hall capacity")
	ErrSeatWithoutHall    = errors.New("seat number requires an exam hall")
	ErrPasscodeNotFound   = errors.New("passcode not found")
	ErrPasscodeUsed       = errors.New("passcode already used")
	ErrPasscodeExpired    = errors.New("passcode invalid or expired")
	ErrPasscodeRevoked    = errors.New("passcode revoked")
	ErrSessionNotFound    = errors.New("session invalid or expired")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAlreadySubmitted   = errors.New("exam already submitted")
	ErrResultsNotReleased = errors.New("results not released")
	ErrCapabilityDenied   = errors.New("capability denied")
)
