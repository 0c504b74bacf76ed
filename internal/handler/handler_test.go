package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris/cbt-backend/internal/response"
	"github.com/scholaris/cbt-backend/internal/service"
)

func TestFailServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		// Passcode rejections are bad requests; the student holds no
		// credentials yet, so 401 would be the wrong signal.
		{"used passcode", service.ErrPasscodeUsed, http.StatusBadRequest, response.ErrPasscodeAlreadyUsed},
		{"revoked passcode", service.ErrPasscodeRevoked, http.StatusBadRequest, response.ErrPasscodeRevoked},
		{"invalid or expired passcode", service.ErrPasscodeExpired, http.StatusBadRequest, response.ErrPasscodeInvalid},
		{"seat without hall", service.ErrSeatWithoutHall, http.StatusUnprocessableEntity, response.ErrSeatRequiresHall},
		{"seat out of range", service.ErrSeatOutOfRange, http.StatusUnprocessableEntity, response.ErrSeatOutOfRange},
		{"dead session", service.ErrSessionNotFound, http.StatusUnauthorized, response.ErrSessionInvalid},
		{"double submission", service.ErrAlreadySubmitted, http.StatusConflict, response.ErrAlreadySubmitted},
		{"unknown student", service.ErrStudentNotFound, http.StatusNotFound, response.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

			failServiceError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			require.Contains(t, w.Body.String(), string(tc.code))
		})
	}
}
