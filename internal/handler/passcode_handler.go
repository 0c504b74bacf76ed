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

// PasscodeHandler handles staff passcode management endpoints.
type PasscodeHandler struct {
	passcodeService *service.PasscodeService
}

// NewPasscodeHandler creates a new PasscodeHandler.
func NewPasscodeHandler(passcodeService *service.PasscodeService) *PasscodeHandler {
	return &PasscodeHandler{passcodeService: passcodeService}
}

// Issue godoc
// POST /api/v1/cbt/admin/passcodes
// Issues a fresh passcode for a student, revoking any code they still hold.
func (h *PasscodeHandler) Issue(c *gin.Context) {
	var req model.IssuePasscodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	issuedBy := ""
	if claims := middleware.GetStaffClaims(c); claims != nil {
		issuedBy = claims.Subject
	}

	passcode, err := h.passcodeService.Issue(c.Request.Context(), &req, issuedBy)
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"passcode": passcode})
}

// Revoke godoc
// DELETE /api/v1/cbt/admin/passcodes/:id
// Revokes a still-consumable passcode.
func (h *PasscodeHandler) Revoke(c *gin.Context) {
	passcode, err := h.passcodeService.Revoke(c.Request.Context(), c.Param("id"))
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"passcode": passcode})
}

// ListByStudent godoc
// GET /api/v1/cbt/admin/students/:studentId/passcodes
// Lists all passcodes ever issued to a student, newest first.
func (h *PasscodeHandler) ListByStudent(c *gin.Context) {
	codes, err := h.passcodeService.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"passcodes": codes})
}

// Stats godoc
// GET /api/v1/cbt/admin/passcodes/stats
// Summarizes issued passcodes.
func (h *PasscodeHandler) Stats(c *gin.Context) {
	stats, err := h.passcodeService.Stats(c.Request.Context())
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
