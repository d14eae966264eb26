package model

import "time"

// AppSetting represents a key-value pair for global application configuration.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Setting keys for the AI extraction pipeline.
const (
	SettingGeminiAPIKey = "gemini_api_key"
	SettingGeminiModel  = "gemini_model"
)

// UpdateAISettingsRequest is the payload for updating AI settings.
// Empty fields are left unchanged.
type UpdateAISettingsRequest struct {
	GeminiAPIKey string `json:"gemini_api_key" binding:"omitempty,max=255"`
	GeminiModel  string `json:"gemini_model" binding:"omitempty,max=100"`
}
