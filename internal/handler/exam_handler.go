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

// ExamHandler handles exam taking endpoints for session-authenticated
// students.
type ExamHandler struct {
	assemblyService *service.AssemblyService
	gradingService  *service.GradingService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(assemblyService *service.AssemblyService, gradingService *service.GradingService) *ExamHandler {
	return &ExamHandler{
		assemblyService: assemblyService,
		gradingService:  gradingService,
	}
}

// ListOpen godoc
// GET /api/v1/cbt/exams
// Lists the active exams the student may sit.
func (h *ExamHandler) ListOpen(c *gin.Context) {
	taker := middleware.GetExamTaker(c)

	exams, err := h.assemblyService.ListOpenExams(c.Request.Context(), taker)
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// Start godoc
// POST /api/v1/cbt/exams/:examId/start
// Opens or resumes the student's attempt and returns the assembled paper.
// Question order and option layouts are identical across re-entries.
func (h *ExamHandler) Start(c *gin.Context) {
	taker := middleware.GetExamTaker(c)

	paper, err := h.assemblyService.StartExam(c.Request.Context(), taker, c.Param("examId"))
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// Submit godoc
// POST /api/v1/cbt/exams/:examId/submit
// Grades the student's answers. A second submission gets a conflict.
func (h *ExamHandler) Submit(c *gin.Context) {
	taker := middleware.GetExamTaker(c)

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, exam, err := h.gradingService.Submit(c.Request.Context(), taker, c.Param("examId"), req.Answers)
	if err != nil {
		failServiceError(c, err)
		return
	}

	if !exam.ShowResultsImmediately {
		response.Success(c, http.StatusOK, gin.H{
			"submitted":  true,
			"attempt_id": result.AttemptID,
		})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Result godoc
// GET /api/v1/cbt/exams/:examId/result
// Returns the graded outcome, honoring the exam's release flag.
func (h *ExamHandler) Result(c *gin.Context) {
	taker := middleware.GetExamTaker(c)

	result, err := h.gradingService.Result(c.Request.Context(), taker, c.Param("examId"))
	if err != nil {
		failServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
