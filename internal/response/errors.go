package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// Authentication
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionRequired    ErrCode = "SESSION_REQUIRED"
	ErrSessionInvalid     ErrCode = "SESSION_INVALID"
	ErrSessionExpired     ErrCode = "SESSION_EXPIRED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// Authorization
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrStaffAccessOnly  ErrCode = "STAFF_ACCESS_ONLY"
	ErrCapabilityDenied ErrCode = "CAPABILITY_DENIED"

	// Validation
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// Resources
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// Passcode
	ErrPasscodeInvalid     ErrCode = "PASSCODE_INVALID_OR_EXPIRED"
	ErrPasscodeAlreadyUsed ErrCode = "PASSCODE_ALREADY_USED"
	ErrPasscodeRevoked     ErrCode = "PASSCODE_REVOKED"
	ErrSeatOutOfRange      ErrCode = "SEAT_OUT_OF_RANGE"
	ErrSeatRequiresHall    ErrCode = "SEAT_REQUIRES_HALL"

	// Exam
	ErrExamNotAvailable   ErrCode = "EXAM_NOT_AVAILABLE"
	ErrExamNotAssigned    ErrCode = "EXAM_NOT_ASSIGNED"
	ErrExamNoQuestions    ErrCode = "EXAM_NO_QUESTIONS"
	ErrAlreadySubmitted   ErrCode = "EXAM_ALREADY_SUBMITTED"
	ErrResultsNotReleased ErrCode = "RESULTS_NOT_RELEASED"

	// Rate limiting
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// Server
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// Authentication
	case ErrInvalidCredentials:
		return "Admission number or passcode is incorrect."
	case ErrSessionRequired:
		return "An exam session is required to access this resource."
	case ErrSessionInvalid:
		return "Your exam session is not valid. Please enter your passcode again."
	case ErrSessionExpired:
		return "Your exam session has expired. Please enter your passcode again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is not valid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// Authorization
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStaffAccessOnly:
		return "This resource is restricted to staff."
	case ErrCapabilityDenied:
		return "Your exam session does not permit this action."

	// Validation
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is not valid."
	case ErrInvalidPayload:
		return "The request payload is not valid."

	// Resources
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// Passcode
	case ErrPasscodeInvalid:
		return "The passcode is invalid or has expired."
	case ErrPasscodeAlreadyUsed:
		return "This passcode has already been used."
	case ErrPasscodeRevoked:
		return "This passcode has been revoked. Contact an invigilator."
	case ErrSeatOutOfRange:
		return "The seat number exceeds the hall capacity."
	case ErrSeatRequiresHall:
		return "A seat number requires an exam hall assignment."

	// Exam
	case ErrExamNotAvailable:
		return "This exam is not currently available."
	case ErrExamNotAssigned:
		return "You are not assigned to this exam."
	case ErrExamNoQuestions:
		return "This exam has no questions."
	case ErrAlreadySubmitted:
		return "This exam has already been submitted."
	case ErrResultsNotReleased:
		return "Results for this exam have not been released yet."

	// Rate limiting
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// Server
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
