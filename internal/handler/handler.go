package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scholaris/cbt-backend/internal/response"
	"github.com/scholaris/cbt-backend/internal/service"
)

// failServiceError translates a service sentinel into the response envelope.
func failServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrExamNotAvailable):
		response.Fail(c, http.StatusForbidden, response.ErrExamNotAvailable)
	case errors.Is(err, service.ErrExamNotAssigned):
		response.Fail(c, http.StatusForbidden, response.ErrExamNotAssigned)
	case errors.Is(err, service.ErrExamNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrExamNoQuestions)
	case errors.Is(err, service.ErrHallNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrSeatOutOfRange):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrSeatOutOfRange)
	case errors.Is(err, service.ErrSeatWithoutHall):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrSeatRequiresHall)
	case errors.Is(err, service.ErrPasscodeNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	// Rejected logins are a bad request, not a failed authorization; the
	// student holds no credentials yet at this point.
	case errors.Is(err, service.ErrPasscodeUsed):
		response.Fail(c, http.StatusBadRequest, response.ErrPasscodeAlreadyUsed)
	case errors.Is(err, service.ErrPasscodeRevoked):
		response.Fail(c, http.StatusBadRequest, response.ErrPasscodeRevoked)
	case errors.Is(err, service.ErrPasscodeExpired):
		response.Fail(c, http.StatusBadRequest, response.ErrPasscodeInvalid)
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionInvalid)
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrResultsNotReleased):
		response.Fail(c, http.StatusForbidden, response.ErrResultsNotReleased)
	case errors.Is(err, service.ErrCapabilityDenied):
		response.Fail(c, http.StatusForbidden, response.ErrCapabilityDenied)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
