package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scholaris/cbt-backend/internal/middleware"
	"github.com/scholaris/cbt-backend/internal/model"
	"github.com/scholaris/cbt-backend/internal/response"
	"github.com/scholaris/cbt-backend/internal/service"
	"github.com/scholaris/cbt-backend/internal/validator"
)

// SessionHandler handles passcode redemption and session lifecycle.
type SessionHandler struct {
	passcodeService *service.PasscodeService
	sessionService  *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(passcodeService *service.PasscodeService, sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		passcodeService: passcodeService,
		sessionService:  sessionService,
	}
}

// Validate godoc
// POST /api/v1/cbt/sessions
// Redeems a passcode and opens an exam session. The passcode is consumed even
// if the client never uses the returned token.
func (h *SessionHandler) Validate(c *gin.Context) {
	var req model.ValidatePasscodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ip := c.ClientIP()
	ua := c.Request.UserAgent()

	student, passcode, err := h.passcodeService.Validate(c.Request.Context(), req.AdmissionNumber, req.Passcode, ip, ua)
	if err != nil {
		failServiceError(c, err)
		return
	}

	sess, err := h.sessionService.Create(c.Request.Context(), student, passcode.ExamID, ip, ua)
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"session": gin.H{
			"token":      sess.Token,
			"expires_at": sess.ExpiresAt,
		},
		"student": gin.H{
			"id":               student.ID,
			"admission_number": student.AdmissionNumber,
			"class_name":       student.ClassName,
		},
		"assignment": gin.H{
			"exam_id":      passcode.ExamID,
			"exam_hall_id": passcode.ExamHallID,
			"seat_number":  passcode.SeatNumber,
		},
	})
}

// Me godoc
// GET /api/v1/cbt/sessions/me
// Returns the current session without renewing it.
func (h *SessionHandler) Me(c *gin.Context) {
	taker := middleware.GetExamTaker(c)
	if taker == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionRequired)
		return
	}

	sess, err := h.sessionService.Peek(c.Request.Context(), taker.SessionToken)
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": gin.H{
			"student_id":       sess.StudentID,
			"admission_number": sess.AdmissionNumber,
			"exam_id":          sess.ExamID,
			"created_at":       sess.CreatedAt,
			"expires_at":       sess.ExpiresAt,
			"last_activity":    sess.LastActivity,
		},
	})
}

// Refresh godoc
// POST /api/v1/cbt/sessions/refresh
// Client-driven keep-alive: extends the session by the full window.
func (h *SessionHandler) Refresh(c *gin.Context) {
	taker := middleware.GetExamTaker(c)
	if taker == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionRequired)
		return
	}

	sess, err := h.sessionService.Refresh(c.Request.Context(), taker.SessionToken)
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": gin.H{
			"expires_at":    sess.ExpiresAt,
			"last_activity": sess.LastActivity,
		},
	})
}

// Terminate godoc
// DELETE /api/v1/cbt/sessions/me
// Ends the current session.
func (h *SessionHandler) Terminate(c *gin.Context) {
	taker := middleware.GetExamTaker(c)
	if taker == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionRequired)
		return
	}

	found, err := h.sessionService.Terminate(c.Request.Context(), taker.SessionToken)
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"terminated": found})
}

// GetByStudent godoc
// GET /api/v1/cbt/admin/students/:studentId/session
// Shows whatever session a student currently holds, for invigilator checks.
func (h *SessionHandler) GetByStudent(c *gin.Context) {
	sess, err := h.sessionService.GetForStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		failServiceError(c, err)
		return
	}
	if sess == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": gin.H{
			"student_id":       sess.StudentID,
			"admission_number": sess.AdmissionNumber,
			"exam_id":          sess.ExamID,
			"ip_address":       sess.IPAddress,
			"created_at":       sess.CreatedAt,
			"expires_at":       sess.ExpiresAt,
			"last_activity":    sess.LastActivity,
		},
	})
}

// TerminateByStudent godoc
// DELETE /api/v1/cbt/admin/students/:studentId/session
// Force-ends whatever session a student currently holds.
func (h *SessionHandler) TerminateByStudent(c *gin.Context) {
	found, err := h.sessionService.TerminateByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"terminated": found})
}
