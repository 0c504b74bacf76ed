package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scholaris/cbt-backend/internal/model"
	"github.com/scholaris/cbt-backend/internal/response"
	"github.com/scholaris/cbt-backend/internal/service"
	"github.com/scholaris/cbt-backend/internal/validator"
)

// PracticeHandler serves the public, stateless practice mode.
type PracticeHandler struct {
	practiceService *service.PracticeService
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(practiceService *service.PracticeService) *PracticeHandler {
	return &PracticeHandler{practiceService: practiceService}
}

// List godoc
// GET /api/v1/cbt/practice
func (h *PracticeHandler) List(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"exams": h.practiceService.List()})
}

// Get godoc
// GET /api/v1/cbt/practice/:examId
// Returns a practice exam stripped of its answer key.
func (h *PracticeHandler) Get(c *gin.Context) {
	exam, err := h.practiceService.Get(c.Param("examId"))
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// Submit godoc
// POST /api/v1/cbt/practice/:examId/submit
// Grades a practice run statelessly and returns the full breakdown.
func (h *PracticeHandler) Submit(c *gin.Context) {
	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.practiceService.Grade(c.Param("examId"), req.Answers)
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
