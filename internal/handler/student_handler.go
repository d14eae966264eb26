package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/hocthi/examroom-backend/internal/response"
	"github.com/hocthi/examroom-backend/internal/service"
	"github.com/hocthi/examroom-backend/internal/validator"
	"github.com/jackc/pgx/v5"
)

// StudentHandler handles the unauthenticated student endpoints: joining
// a room and recovering autosaved progress.
type StudentHandler struct {
	submissionService *service.SubmissionService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(submissionService *service.SubmissionService) *StudentHandler {
	return &StudentHandler{submissionService: submissionService}
}

// JoinRoom godoc
// POST /api/v1/rooms/:room_code/join
// Admits a student into a room and returns the exam payload with the
// new submission. Rooms with a roster require code + password.
func (h *StudentHandler) JoinRoom(c *gin.Context) {
	var req model.JoinRoomRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	payload, submission, err := h.submissionService.JoinRoom(c.Request.Context(), c.Param("room_code"), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrRoomNotFound)
		case errors.Is(err, service.ErrRoomClosed):
			response.Fail(c, http.StatusForbidden, response.ErrRoomClosed)
		case errors.Is(err, service.ErrRosterCredentials):
			response.Fail(c, http.StatusUnauthorized, response.ErrRosterCredentials)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"exam":       payload,
		"submission": submission,
	})
}

// GetState godoc
// GET /api/v1/submissions/:submission_id/state
// Returns the autosaved progress for a reconnecting student.
func (h *StudentHandler) GetState(c *gin.Context) {
	submissionID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.submissionService.GetState(c.Request.Context(), submissionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}
