package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hocthi/examroom-backend/internal/ai"
	"github.com/hocthi/examroom-backend/internal/config"
	"github.com/hocthi/examroom-backend/internal/database"
	"github.com/hocthi/examroom-backend/internal/handler"
	"github.com/hocthi/examroom-backend/internal/logger"
	"github.com/hocthi/examroom-backend/internal/repository"
	"github.com/hocthi/examroom-backend/internal/router"
	"github.com/hocthi/examroom-backend/internal/service"
	"github.com/hocthi/examroom-backend/internal/validator"
	"github.com/hocthi/examroom-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExamRoom Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	teacherRepo := repository.NewTeacherRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	rosterRepo := repository.NewClassStudentRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	aiClient := ai.NewClient(cfg.AIModels, cfg.AIRequestTimeout, log)

	authService := service.NewAuthService(cfg, teacherRepo)
	settingService := service.NewSettingService(settingRepo, aiClient.Models(), log)
	mediaService := service.NewMediaService(cfg)
	examService := service.NewExamService(cfg, examRepo, settingService, aiClient, rdb, log)
	submissionService := service.NewSubmissionService(
		cfg, examRepo, submissionRepo, studentRepo, rosterRepo, examService, rdb, log)
	monitorService := service.NewMonitorService(examRepo, submissionRepo)
	rosterService := service.NewRosterService(rosterRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Exam:    handler.NewExamHandler(cfg, examService, mediaService),
		Student: handler.NewStudentHandler(submissionService),
		WS:      handler.NewWSHandler(submissionService, log, cfg.AllowedOrigins),
		Monitor: handler.NewMonitorHandler(rdb, examService, monitorService, submissionService, log),
		Roster:  handler.NewRosterHandler(examService, rosterService),
		Setting: handler.NewSettingHandler(settingService),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(pool, rdb, log)
	exitWorker := worker.NewExitWorker(pool, rdb, log)

	go autosaveWorker.Start(workerCtx)
	go exitWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all active exams into Redis BEFORE accepting traffic so the
	// first join after a restart never races a cold cache.
	if err := examService.PrewarmActiveExams(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
