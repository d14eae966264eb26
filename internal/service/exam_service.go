package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/ai"
	"github.com/hocthi/examroom-backend/internal/config"
	"github.com/hocthi/examroom-backend/internal/extract"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/hocthi/examroom-backend/internal/repository"
	"github.com/hocthi/examroom-backend/internal/roomcode"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrNotExamOwner      = errors.New("not the owner of this exam")
	ErrNoQuestions       = errors.New("exam has no questions")
	ErrRoomCodeExhausted = errors.New("could not allocate a unique room code")
	ErrQuestionNotFound  = errors.New("question not found in exam")
)

// ExamService handles exam creation from uploaded documents and the
// Redis caches that serve the student hot path.
type ExamService struct {
	cfg         *config.Config
	examRepo    *repository.ExamRepository
	settingsSvc *SettingService
	aiClient    *ai.Client
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	cfg *config.Config,
	examRepo *repository.ExamRepository,
	settingsSvc *SettingService,
	aiClient *ai.Client,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		cfg:         cfg,
		examRepo:    examRepo,
		settingsSvc: settingsSvc,
		aiClient:    aiClient,
		rdb:         rdb,
		log:         log.With().Str("component", "exam_service").Logger(),
	}
}

// CreateFromDocument runs the full pipeline: extract document content,
// send it through the model chain, and persist the resulting exam under
// a fresh room code. The cache is warmed so the room is joinable
// immediately.
func (s *ExamService) CreateFromDocument(ctx context.Context, teacherID int, filename string, data []byte, title string, timeLimitMinutes int) (*model.Exam, error) {
	doc, err := extract.FromFile(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("extract document: %w", err)
	}

	apiKey, modelName, err := s.settingsSvc.ExtractionCredentials(ctx)
	if err != nil {
		return nil, err
	}

	var draft *ai.ExamDraft
	if strings.TrimSpace(doc.Text) != "" {
		draft, err = s.aiClient.ExtractText(ctx, apiKey, modelName, doc.Text)
	} else if len(doc.Pages) > 0 {
		// Scanned documents have no text layer; fall back to vision.
		draft, err = s.aiClient.ExtractImages(ctx, apiKey, modelName, doc.Pages)
	} else {
		return nil, ErrNoQuestions
	}
	if err != nil {
		return nil, err
	}

	exam := &model.Exam{
		TeacherID:        &teacherID,
		Title:            draft.Title,
		SourceFile:       filename,
		Questions:        draft.Questions,
		TimeLimitMinutes: timeLimitMinutes,
		IsActive:         true,
	}
	if title != "" {
		exam.Title = title
	}

	if err := s.createWithRoomCode(ctx, exam); err != nil {
		return nil, err
	}

	if err := s.WarmExamCache(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Cache warm failed, will lazy-load")
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("room_code", exam.RoomCode).
		Int("questions", len(exam.Questions)).
		Msg("Exam created from document")
	return exam, nil
}

// createWithRoomCode inserts the exam, regenerating the room code on
// unique-constraint collisions up to the configured attempt limit.
func (s *ExamService) createWithRoomCode(ctx context.Context, exam *model.Exam) error {
	for attempt := 0; attempt < s.cfg.RoomCodeAttempts; attempt++ {
		exam.RoomCode = roomcode.Generate()
		err := s.examRepo.Create(ctx, exam)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrRoomCodeTaken) {
			continue
		}
		return fmt.Errorf("create exam: %w", err)
	}
	return ErrRoomCodeExhausted
}

// GetByID retrieves an exam, enforcing ownership.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID, teacherID int) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.TeacherID == nil || *exam.TeacherID != teacherID {
		return nil, ErrNotExamOwner
	}
	return exam, nil
}

// ListByTeacher retrieves exam summaries for a teacher.
func (s *ExamService) ListByTeacher(ctx context.Context, teacherID int) ([]model.ExamSummary, error) {
	exams, err := s.examRepo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if exams == nil {
		exams = []model.ExamSummary{}
	}
	return exams, nil
}

// SetActive opens or closes the room for new joins. Students already
// inside keep working either way.
func (s *ExamService) SetActive(ctx context.Context, id uuid.UUID, teacherID int, active bool) error {
	exam, err := s.GetByID(ctx, id, teacherID)
	if err != nil {
		return err
	}
	if err := s.examRepo.SetActive(ctx, exam.ID, active); err != nil {
		return err
	}
	s.log.Info().Str("exam_id", id.String()).Bool("active", active).Msg("Room toggled")
	return nil
}

// Delete removes an exam and its caches. Submissions and roster rows
// cascade in PostgreSQL.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID, teacherID int) error {
	exam, err := s.GetByID(ctx, id, teacherID)
	if err != nil {
		return err
	}
	if err := s.examRepo.Delete(ctx, exam.ID); err != nil {
		return err
	}

	examID := id.String()
	if err := s.rdb.Del(ctx,
		config.CacheKey.ExamPayloadKey(examID),
		config.CacheKey.ExamAnswerKey(examID),
	).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID).Msg("Cache cleanup failed")
	}
	return nil
}

// AttachQuestionImage stores an uploaded illustration and links it to
// one question, then rewarms the cache so students see it.
func (s *ExamService) AttachQuestionImage(ctx context.Context, media *MediaService, id uuid.UUID, teacherID, questionID int, file multipart.File, header *multipart.FileHeader) (*model.Question, error) {
	exam, err := s.GetByID(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, q := range exam.Questions {
		if q.ID == questionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrQuestionNotFound
	}

	url, err := media.SaveImage(file, header)
	if err != nil {
		return nil, err
	}

	exam.Questions[idx].ImageURL = url
	exam.Questions[idx].HasImage = true

	if err := s.examRepo.UpdateQuestions(ctx, exam.ID, exam.Questions); err != nil {
		return nil, fmt.Errorf("update questions: %w", err)
	}
	if err := s.WarmExamCache(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Cache rewarm failed")
	}
	return &exam.Questions[idx], nil
}

// WarmExamCache loads an exam's student payload and answer key into
// Redis. The payload is one JSON blob; the answer key is a hash keyed
// by question ID for direct grading lookups.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	if len(exam.Questions) == 0 {
		return ErrNoQuestions
	}

	payloadJSON, err := json.Marshal(exam.Payload())
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	answerKey := make(map[string]interface{}, len(exam.Questions))
	for id, answer := range exam.AnswerKey() {
		encoded, err := json.Marshal(answer)
		if err != nil {
			return fmt.Errorf("marshal answer %d: %w", id, err)
		}
		answerKey[strconv.Itoa(id)] = string(encoded)
	}

	examID := exam.ID.String()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamPayloadKey(examID), payloadJSON, 0)
	pipe.Del(ctx, config.CacheKey.ExamAnswerKey(examID))
	pipe.HSet(ctx, config.CacheKey.ExamAnswerKey(examID), answerKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", examID).
		Int("questions", len(exam.Questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmActiveExams loads every active exam into Redis on startup so
// the first join after a restart never races a cold cache.
func (s *ExamService) PrewarmActiveExams(ctx context.Context) error {
	exams, err := s.examRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active exams: %w", err)
	}

	if len(exams) == 0 {
		s.log.Info().Msg("No active exams to prewarm")
		return nil
	}

	warmed := 0
	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// GetExamPayload retrieves the student payload, Redis first with a
// PostgreSQL fallback that heals the cache.
func (s *ExamService) GetExamPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.ExamPayloadKey(examID.String())).Bytes()
	if err == nil {
		var payload model.ExamPayload
		if err := json.Unmarshal(data, &payload); err == nil {
			return &payload, nil
		}
		s.log.Warn().Str("exam_id", examID.String()).Msg("Corrupt cached payload, falling back to DB")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Redis payload read failed, falling back to DB")
	}

	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.WarmExamCache(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache heal failed")
	}

	payload := exam.Payload()
	return &payload, nil
}

// GetAnswerKey retrieves the grading key, Redis first with a PostgreSQL
// fallback that heals the cache.
func (s *ExamService) GetAnswerKey(ctx context.Context, examID uuid.UUID) (map[int]model.Answer, error) {
	result, err := s.rdb.HGetAll(ctx, config.CacheKey.ExamAnswerKey(examID.String())).Result()
	if err == nil && len(result) > 0 {
		key := make(map[int]model.Answer, len(result))
		ok := true
		for rawID, rawAnswer := range result {
			id, convErr := strconv.Atoi(rawID)
			if convErr != nil {
				ok = false
				break
			}
			var answer model.Answer
			if json.Unmarshal([]byte(rawAnswer), &answer) != nil {
				ok = false
				break
			}
			key[id] = answer
		}
		if ok {
			return key, nil
		}
		s.log.Warn().Str("exam_id", examID.String()).Msg("Corrupt cached answer key, falling back to DB")
	} else if err != nil {
		s.log.Warn().Err(err).Msg("Redis answer key read failed, falling back to DB")
	}

	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.WarmExamCache(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache heal failed")
	}
	return exam.AnswerKey(), nil
}
