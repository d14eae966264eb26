package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/ai"
	"github.com/hocthi/examroom-backend/internal/config"
	"github.com/hocthi/examroom-backend/internal/extract"
	"github.com/hocthi/examroom-backend/internal/middleware"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/hocthi/examroom-backend/internal/response"
	"github.com/hocthi/examroom-backend/internal/service"
	"github.com/hocthi/examroom-backend/internal/validator"
	"github.com/jackc/pgx/v5"
)

// ExamHandler handles teacher-side exam management endpoints.
type ExamHandler struct {
	cfg          *config.Config
	examService  *service.ExamService
	mediaService *service.MediaService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(cfg *config.Config, examService *service.ExamService, mediaService *service.MediaService) *ExamHandler {
	return &ExamHandler{
		cfg:          cfg,
		examService:  examService,
		mediaService: mediaService,
	}
}

// CreateExam godoc
// POST /api/v1/teacher/exams
// Uploads an exam document (PDF or DOCX), runs question extraction,
// and opens a room under a fresh code.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	if fileHeader.Size > h.cfg.MaxUploadBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	title := c.PostForm("title")
	timeLimit := 0
	if raw := c.PostForm("time_limit_minutes"); raw != "" {
		timeLimit, err = strconv.Atoi(raw)
		if err != nil || timeLimit < 0 {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
	}

	exam, err := h.examService.CreateFromDocument(
		c.Request.Context(), claims.TeacherID, fileHeader.Filename, data, title, timeLimit)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrUnsupportedFormat):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrMissingAPIKey):
			response.Fail(c, http.StatusBadRequest, response.ErrMissingAPIKey)
		case errors.Is(err, ai.ErrInvalidCredential):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidAPIKey)
		case errors.Is(err, ai.ErrAllModelsFailed), errors.Is(err, ai.ErrNoQuestions),
			errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrExtractionFail)
		case errors.Is(err, service.ErrRoomCodeExhausted):
			response.Fail(c, http.StatusConflict, response.ErrRoomCodeExhausted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// ListExams godoc
// GET /api/v1/teacher/exams
// Lists the teacher's exams, newest first.
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams, err := h.examService.ListByTeacher(c.Request.Context(), claims.TeacherID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExam godoc
// GET /api/v1/teacher/exams/:exam_id
// Returns one exam with its full question list, answers included.
func (h *ExamHandler) GetExam(c *gin.Context) {
	claims, examID, ok := teacherExamParams(c)
	if !ok {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID, claims.TeacherID)
	if err != nil {
		h.failExamErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// SetActive godoc
// PATCH /api/v1/teacher/exams/:exam_id/active
// Opens or closes the room for new joins.
func (h *ExamHandler) SetActive(c *gin.Context) {
	claims, examID, ok := teacherExamParams(c)
	if !ok {
		return
	}

	var req model.SetActiveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.examService.SetActive(c.Request.Context(), examID, claims.TeacherID, *req.IsActive); err != nil {
		h.failExamErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"is_active": *req.IsActive})
}

// DeleteExam godoc
// DELETE /api/v1/teacher/exams/:exam_id
// Removes the exam with its submissions, roster, and caches.
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	claims, examID, ok := teacherExamParams(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID, claims.TeacherID); err != nil {
		h.failExamErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// AttachQuestionImage godoc
// POST /api/v1/teacher/exams/:exam_id/questions/:question_id/image
// Uploads an illustration for one question.
func (h *ExamHandler) AttachQuestionImage(c *gin.Context) {
	claims, examID, ok := teacherExamParams(c)
	if !ok {
		return
	}

	questionID, err := strconv.Atoi(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	fileHeader, err := c.FormFile("image")
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

	question, err := h.examService.AttachQuestionImage(
		c.Request.Context(), h.mediaService, examID, claims.TeacherID, questionID, file, fileHeader)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuestionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		default:
			h.failExamErr(c, err)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// teacherExamParams extracts the authenticated claims and the exam_id
// path parameter, failing the request on either.
func teacherExamParams(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return claims, examID, true
}

func (h *ExamHandler) failExamErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotExamOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
