package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/config"
	"github.com/hocthi/examroom-backend/internal/grading"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/hocthi/examroom-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Join and submit errors.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomClosed        = errors.New("room is closed")
	ErrRosterCredentials = errors.New("student code or password incorrect")
	ErrAlreadySubmitted  = repository.ErrAlreadySubmitted
)

// GradedResult is the outcome of a submit, returned to the student.
type GradedResult struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"total_questions"`
}

// MonitorEvent is published on the exam's pub/sub channel so open
// monitor streams know to refresh.
type MonitorEvent struct {
	Type         string    `json:"type"`
	SubmissionID uuid.UUID `json:"submission_id"`
}

// Monitor event types.
const (
	EventStudentJoined = "student_joined"
	EventProgressSaved = "progress_saved"
	EventExitRecorded  = "exit_recorded"
	EventSubmitted     = "submitted"
)

// SubmissionService handles the student hot path: joining rooms,
// autosaves, focus-loss tracking, and grading. Live state lives in
// Redis; PostgreSQL is written through asynchronously by the workers,
// except for the submit itself which persists synchronously.
type SubmissionService struct {
	cfg            *config.Config
	examRepo       *repository.ExamRepository
	submissionRepo *repository.SubmissionRepository
	studentRepo    *repository.StudentRepository
	rosterRepo     *repository.ClassStudentRepository
	examSvc        *ExamService
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	cfg *config.Config,
	examRepo *repository.ExamRepository,
	submissionRepo *repository.SubmissionRepository,
	studentRepo *repository.StudentRepository,
	rosterRepo *repository.ClassStudentRepository,
	examSvc *ExamService,
	rdb *redis.Client,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		cfg:            cfg,
		examRepo:       examRepo,
		submissionRepo: submissionRepo,
		studentRepo:    studentRepo,
		rosterRepo:     rosterRepo,
		examSvc:        examSvc,
		rdb:            rdb,
		log:            log.With().Str("component", "submission_service").Logger(),
	}
}

// JoinRoom admits a student into a room by code. Rooms with an imported
// roster additionally require a matching student code and password; the
// roster row's identity fields are copied onto the submission. Every
// join creates a fresh submission.
func (s *SubmissionService) JoinRoom(ctx context.Context, code string, req *model.JoinRoomRequest) (*model.ExamPayload, *model.Submission, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	exam, err := s.examRepo.GetByRoomCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrRoomNotFound
		}
		return nil, nil, fmt.Errorf("lookup room: %w", err)
	}
	if !exam.IsActive {
		return nil, nil, ErrRoomClosed
	}

	submission := &model.Submission{
		ExamID:         exam.ID,
		StudentName:    req.Name,
		TotalQuestions: len(exam.Questions),
		Status:         model.SubmissionInProgress,
		Answers:        model.AnswerMap{},
	}

	rosterSize, err := s.rosterRepo.Count(ctx, exam.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check roster: %w", err)
	}
	if rosterSize > 0 {
		entry, err := s.rosterRepo.Find(ctx, exam.ID,
			strings.ToUpper(strings.TrimSpace(req.StudentCode)), req.Password)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, ErrRosterCredentials
			}
			return nil, nil, fmt.Errorf("lookup roster entry: %w", err)
		}
		submission.StudentName = entry.FullName
		submission.StudentCode = &entry.StudentCode
		if entry.BirthDate != "" {
			submission.BirthDate = &entry.BirthDate
		}
		if entry.ClassName != "" {
			submission.ClassName = &entry.ClassName
		}
	}

	student := &model.Student{Name: submission.StudentName, StudentCode: submission.StudentCode}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, nil, fmt.Errorf("create student: %w", err)
	}
	submission.StudentID = student.ID

	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, nil, fmt.Errorf("create submission: %w", err)
	}

	if err := s.seedLiveState(ctx, submission); err != nil {
		s.log.Warn().Err(err).Str("submission_id", submission.ID.String()).Msg("Live state seed failed")
	}
	s.publish(ctx, exam.ID, EventStudentJoined, submission.ID)

	payload, err := s.examSvc.GetExamPayload(ctx, exam.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load exam payload: %w", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("submission_id", submission.ID.String()).
		Msg("Student joined room")
	return payload, submission, nil
}

// seedLiveState writes the submission's answers blob and counters hash
// to Redis so autosaves and state reads never touch PostgreSQL.
func (s *SubmissionService) seedLiveState(ctx context.Context, sub *model.Submission) error {
	answersJSON, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}

	id := sub.ID.String()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SubmissionAnswersKey(id), answersJSON, 0)
	pipe.HSet(ctx, config.CacheKey.SubmissionMetaKey(id), map[string]interface{}{
		"exam_id":          sub.ExamID.String(),
		"time_spent":       sub.TimeSpentSeconds,
		"current_question": sub.CurrentQuestion,
		"exit_count":       sub.ExitCount,
		"status":           string(sub.Status),
		"score":            sub.Score,
		"total_questions":  sub.TotalQuestions,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// GetState returns the autosaved progress for a reconnecting student,
// Redis first with a PostgreSQL fallback that reseeds the live state.
func (s *SubmissionService) GetState(ctx context.Context, submissionID uuid.UUID) (*model.SubmissionState, error) {
	id := submissionID.String()

	meta, err := s.rdb.HGetAll(ctx, config.CacheKey.SubmissionMetaKey(id)).Result()
	if err == nil && len(meta) > 0 {
		answersJSON, err := s.rdb.Get(ctx, config.CacheKey.SubmissionAnswersKey(id)).Bytes()
		if err == nil {
			state, err := buildState(submissionID, answersJSON, meta)
			if err == nil {
				return state, nil
			}
			s.log.Warn().Err(err).Str("submission_id", id).Msg("Corrupt live state, falling back to DB")
		}
	}

	sub, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := s.seedLiveState(ctx, sub); err != nil {
		s.log.Warn().Err(err).Str("submission_id", id).Msg("Live state reseed failed")
	}

	return &model.SubmissionState{
		SubmissionID:     sub.ID,
		Answers:          sub.Answers,
		TimeSpentSeconds: sub.TimeSpentSeconds,
		CurrentQuestion:  sub.CurrentQuestion,
		ExitCount:        sub.ExitCount,
		Status:           sub.Status,
		Score:            sub.Score,
		TotalQuestions:   sub.TotalQuestions,
	}, nil
}

func buildState(submissionID uuid.UUID, answersJSON []byte, meta map[string]string) (*model.SubmissionState, error) {
	var answers model.AnswerMap
	if err := json.Unmarshal(answersJSON, &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}

	state := &model.SubmissionState{
		SubmissionID: submissionID,
		Answers:      answers,
		Status:       model.SubmissionStatus(meta["status"]),
	}
	state.TimeSpentSeconds, _ = strconv.Atoi(meta["time_spent"])
	state.CurrentQuestion, _ = strconv.Atoi(meta["current_question"])
	state.ExitCount, _ = strconv.Atoi(meta["exit_count"])
	state.Score, _ = strconv.Atoi(meta["score"])
	state.TotalQuestions, _ = strconv.Atoi(meta["total_questions"])
	if state.Status == "" {
		state.Status = model.SubmissionInProgress
	}
	return state, nil
}

// persistAnswersPayload is the queue message consumed by the autosave
// worker.
type persistAnswersPayload struct {
	SubmissionID     uuid.UUID       `json:"submission_id"`
	Answers          json.RawMessage `json:"answers"`
	TimeSpentSeconds int             `json:"time_spent"`
	CurrentQuestion  int             `json:"current_question"`
}

// SaveProgress stores an autosave in Redis and queues the PostgreSQL
// write-through. The full answer map replaces the previous one
// (last-write-wins).
func (s *SubmissionService) SaveProgress(ctx context.Context, submissionID uuid.UUID, answers model.AnswerMap, timeSpentSeconds, currentQuestion int) error {
	id := submissionID.String()

	status, err := s.rdb.HGet(ctx, config.CacheKey.SubmissionMetaKey(id), "status").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("check status: %w", err)
	}
	if status == string(model.SubmissionSubmitted) {
		return ErrAlreadySubmitted
	}

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	queueMsg, err := json.Marshal(persistAnswersPayload{
		SubmissionID:     submissionID,
		Answers:          answersJSON,
		TimeSpentSeconds: timeSpentSeconds,
		CurrentQuestion:  currentQuestion,
	})
	if err != nil {
		return fmt.Errorf("encode queue payload: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SubmissionAnswersKey(id), answersJSON, 0)
	pipe.HSet(ctx, config.CacheKey.SubmissionMetaKey(id), map[string]interface{}{
		"time_spent":       timeSpentSeconds,
		"current_question": currentQuestion,
	})
	pipe.RPush(ctx, config.WorkerKey.PersistAnswersQueue, queueMsg)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// persistExitPayload is the queue message consumed by the exit worker.
type persistExitPayload struct {
	SubmissionID uuid.UUID        `json:"submission_id"`
	ExamID       uuid.UUID        `json:"exam_id"`
	Source       model.ExitSource `json:"source"`
	RecordedAt   time.Time        `json:"recorded_at"`
}

// RecordExit counts one focus-loss signal and returns the new total.
// With a dedup window configured, signals arriving inside the window
// collapse into one count; by default every signal counts.
func (s *SubmissionService) RecordExit(ctx context.Context, submissionID uuid.UUID, source model.ExitSource) (int, error) {
	id := submissionID.String()
	metaKey := config.CacheKey.SubmissionMetaKey(id)

	if s.cfg.ExitDedupWindow > 0 {
		fresh, err := s.rdb.SetNX(ctx, config.CacheKey.SubmissionExitDedupKey(id), 1, s.cfg.ExitDedupWindow).Result()
		if err != nil {
			return 0, fmt.Errorf("dedup check: %w", err)
		}
		if !fresh {
			count, err := s.rdb.HGet(ctx, metaKey, "exit_count").Int()
			if err != nil && !errors.Is(err, redis.Nil) {
				return 0, fmt.Errorf("read exit count: %w", err)
			}
			return count, nil
		}
	}

	count, err := s.rdb.HIncrBy(ctx, metaKey, "exit_count", 1).Result()
	if err != nil {
		return 0, fmt.Errorf("increment exit count: %w", err)
	}

	examID, err := s.examIDFor(ctx, submissionID)
	if err != nil {
		return int(count), err
	}

	queueMsg, err := json.Marshal(persistExitPayload{
		SubmissionID: submissionID,
		ExamID:       examID,
		Source:       source,
		RecordedAt:   time.Now(),
	})
	if err != nil {
		return int(count), fmt.Errorf("encode queue payload: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistExitsQueue, queueMsg).Err(); err != nil {
		return int(count), fmt.Errorf("queue exit event: %w", err)
	}

	s.publish(ctx, examID, EventExitRecorded, submissionID)
	return int(count), nil
}

// Submit grades the attempt in memory and finalizes it exactly once.
// A nil answer map grades whatever the last autosave holds.
func (s *SubmissionService) Submit(ctx context.Context, submissionID uuid.UUID, answers model.AnswerMap, timeSpentSeconds int) (*GradedResult, error) {
	id := submissionID.String()

	if answers == nil {
		answersJSON, err := s.rdb.Get(ctx, config.CacheKey.SubmissionAnswersKey(id)).Bytes()
		if err == nil {
			if err := json.Unmarshal(answersJSON, &answers); err != nil {
				return nil, fmt.Errorf("decode saved answers: %w", err)
			}
		} else if errors.Is(err, redis.Nil) {
			sub, err := s.submissionRepo.GetByID(ctx, submissionID)
			if err != nil {
				return nil, err
			}
			answers = sub.Answers
		} else {
			return nil, fmt.Errorf("load saved answers: %w", err)
		}
	}

	examID, err := s.examIDFor(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	key, err := s.examSvc.GetAnswerKey(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}

	score, total := grading.Grade(answers, key)

	if err := s.submissionRepo.Finalize(ctx, submissionID, answers, score, timeSpentSeconds, time.Now()); err != nil {
		return nil, err
	}

	answersJSON, _ := json.Marshal(answers)
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SubmissionAnswersKey(id), answersJSON, 0)
	pipe.HSet(ctx, config.CacheKey.SubmissionMetaKey(id), map[string]interface{}{
		"status":     string(model.SubmissionSubmitted),
		"score":      score,
		"time_spent": timeSpentSeconds,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("submission_id", id).Msg("Live state finalize failed")
	}

	s.publish(ctx, examID, EventSubmitted, submissionID)

	s.log.Info().
		Str("submission_id", id).
		Int("score", score).
		Int("total", total).
		Msg("Submission graded")
	return &GradedResult{Score: score, TotalQuestions: total}, nil
}

// ListByExam returns all submissions for an exam, newest first.
func (s *SubmissionService) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Submission, error) {
	submissions, err := s.submissionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if submissions == nil {
		submissions = []model.Submission{}
	}
	return submissions, nil
}

// NotifyProgress publishes a progress event so monitors refresh after
// an autosave.
func (s *SubmissionService) NotifyProgress(ctx context.Context, submissionID uuid.UUID) {
	examID, err := s.examIDFor(ctx, submissionID)
	if err != nil {
		return
	}
	s.publish(ctx, examID, EventProgressSaved, submissionID)
}

// examIDFor resolves a submission's exam, preferring the live meta hash
// over a PostgreSQL read.
func (s *SubmissionService) examIDFor(ctx context.Context, submissionID uuid.UUID) (uuid.UUID, error) {
	raw, err := s.rdb.HGet(ctx, config.CacheKey.SubmissionMetaKey(submissionID.String()), "exam_id").Result()
	if err == nil {
		if examID, parseErr := uuid.Parse(raw); parseErr == nil {
			return examID, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Redis meta read failed, falling back to DB")
	}

	sub, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return uuid.Nil, err
	}
	return sub.ExamID, nil
}

func (s *SubmissionService) publish(ctx context.Context, examID uuid.UUID, eventType string, submissionID uuid.UUID) {
	event, err := json.Marshal(MonitorEvent{Type: eventType, SubmissionID: submissionID})
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.ExamMonitorChannel(examID.String()), event).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Monitor publish failed")
	}
}
