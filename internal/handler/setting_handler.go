package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/hocthi/examroom-backend/internal/response"
	"github.com/hocthi/examroom-backend/internal/service"
	"github.com/hocthi/examroom-backend/internal/validator"
)

type SettingHandler struct {
	settingService *service.SettingService
}

func NewSettingHandler(settingService *service.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// GetAISettings godoc
// GET /api/v1/teacher/settings/ai
// Returns the extraction configuration with the API key masked.
func (h *SettingHandler) GetAISettings(c *gin.Context) {
	settings, err := h.settingService.GetAISettings(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}

// UpdateAISettings godoc
// PUT /api/v1/teacher/settings/ai
// Stores the Gemini API key and/or model selection.
func (h *SettingHandler) UpdateAISettings(c *gin.Context) {
	var req model.UpdateAISettingsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.settingService.UpdateAISettings(c.Request.Context(), &req); err != nil {
		if errors.Is(err, service.ErrUnknownModel) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidModel)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	settings, err := h.settingService.GetAISettings(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": settings})
}
