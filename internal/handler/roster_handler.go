package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hocthi/examroom-backend/internal/response"
	"github.com/hocthi/examroom-backend/internal/service"
)

// RosterHandler handles class roster import and listing for an exam.
type RosterHandler struct {
	examService   *service.ExamService
	rosterService *service.RosterService
}

// NewRosterHandler creates a new RosterHandler.
func NewRosterHandler(examService *service.ExamService, rosterService *service.RosterService) *RosterHandler {
	return &RosterHandler{examService: examService, rosterService: rosterService}
}

// ImportRoster godoc
// POST /api/v1/teacher/exams/:exam_id/roster
// Uploads an xlsx class list, replacing any previous roster wholesale.
func (h *RosterHandler) ImportRoster(c *gin.Context) {
	claims, examID, ok := teacherExamParams(c)
	if !ok {
		return
	}

	if _, err := h.examService.GetByID(c.Request.Context(), examID, claims.TeacherID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer file.Close()

	count, err := h.rosterService.Import(c.Request.Context(), examID, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyRoster):
			response.Fail(c, http.StatusBadRequest, response.ErrEmptyRoster)
		case errors.Is(err, service.ErrRosterColumns):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"imported": count})
}

// ListRoster godoc
// GET /api/v1/teacher/exams/:exam_id/roster
// Returns the exam's roster ordered by student code.
func (h *RosterHandler) ListRoster(c *gin.Context) {
	claims, examID, ok := teacherExamParams(c)
	if !ok {
		return
	}

	if _, err := h.examService.GetByID(c.Request.Context(), examID, claims.TeacherID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	students, err := h.rosterService.List(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"roster": students})
}
