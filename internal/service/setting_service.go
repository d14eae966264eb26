package service

import (
	"context"
	"errors"
	"strings"

	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/hocthi/examroom-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Setting errors.
var (
	ErrMissingAPIKey = errors.New("gemini api key not configured")
	ErrUnknownModel  = errors.New("unknown model name")
)

// AISettings is the extraction configuration a teacher manages from the
// settings screen. The key is masked on reads; only its presence is
// reported.
type AISettings struct {
	HasAPIKey bool     `json:"has_api_key"`
	Model     string   `json:"model"`
	Models    []string `json:"models"`
}

type SettingService struct {
	settingRepo *repository.SettingRepository
	models      []string
	log         zerolog.Logger
}

// NewSettingService creates a new SettingService. models is the ordered
// extraction model catalog; its first entry is the default.
func NewSettingService(settingRepo *repository.SettingRepository, models []string, log zerolog.Logger) *SettingService {
	return &SettingService{
		settingRepo: settingRepo,
		models:      models,
		log:         log.With().Str("component", "setting_service").Logger(),
	}
}

func (s *SettingService) GetAllSettings(ctx context.Context) (map[string]string, error) {
	settingsList, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get all settings")
		return nil, err
	}

	settingsMap := make(map[string]string)
	for _, setting := range settingsList {
		settingsMap[setting.Key] = setting.Value
	}
	return settingsMap, nil
}

// GetAISettings returns the masked extraction configuration. An unset
// model falls back to the catalog default.
func (s *SettingService) GetAISettings(ctx context.Context) (*AISettings, error) {
	apiKey, err := s.settingRepo.GetByKey(ctx, model.SettingGeminiAPIKey)
	if err != nil {
		return nil, err
	}
	modelName, err := s.settingRepo.GetByKey(ctx, model.SettingGeminiModel)
	if err != nil {
		return nil, err
	}
	if modelName == "" && len(s.models) > 0 {
		modelName = s.models[0]
	}

	return &AISettings{
		HasAPIKey: apiKey != "",
		Model:     modelName,
		Models:    s.models,
	}, nil
}

// UpdateAISettings stores the API key and/or model selection. Empty
// fields are left untouched so either can be changed independently.
func (s *SettingService) UpdateAISettings(ctx context.Context, req *model.UpdateAISettingsRequest) error {
	if req.GeminiModel != "" {
		if !s.knownModel(req.GeminiModel) {
			return ErrUnknownModel
		}
		if err := s.settingRepo.Upsert(ctx, model.SettingGeminiModel, req.GeminiModel); err != nil {
			s.log.Error().Err(err).Msg("failed to update model setting")
			return err
		}
	}
	if req.GeminiAPIKey != "" {
		if err := s.settingRepo.Upsert(ctx, model.SettingGeminiAPIKey, strings.TrimSpace(req.GeminiAPIKey)); err != nil {
			s.log.Error().Err(err).Msg("failed to update api key setting")
			return err
		}
	}
	return nil
}

// ExtractionCredentials returns the stored API key and model for an
// extraction run. ErrMissingAPIKey is returned when no key is set.
func (s *SettingService) ExtractionCredentials(ctx context.Context) (apiKey, modelName string, err error) {
	apiKey, err = s.settingRepo.GetByKey(ctx, model.SettingGeminiAPIKey)
	if err != nil {
		return "", "", err
	}
	if apiKey == "" {
		return "", "", ErrMissingAPIKey
	}

	modelName, err = s.settingRepo.GetByKey(ctx, model.SettingGeminiModel)
	if err != nil {
		return "", "", err
	}
	if modelName == "" && len(s.models) > 0 {
		modelName = s.models[0]
	}
	return apiKey, modelName, nil
}

func (s *SettingService) knownModel(name string) bool {
	for _, m := range s.models {
		if m == name {
			return true
		}
	}
	return false
}
