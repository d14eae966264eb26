package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hocthi/examroom-backend/internal/config"
	"github.com/hocthi/examroom-backend/internal/handler"
	"github.com/hocthi/examroom-backend/internal/middleware"
	"github.com/hocthi/examroom-backend/internal/response"
	"github.com/hocthi/examroom-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Exam    *handler.ExamHandler
	Student *handler.StudentHandler
	WS      *handler.WSHandler
	Monitor *handler.MonitorHandler
	Roster  *handler.RosterHandler
	Setting *handler.SettingHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve question images statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", "./uploads")
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(30, time.Minute)
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/teacher/login", handlers.Auth.Login)
	}

	// ─── 2. Student Group (No Auth) ────────────────────────────────────
	// Students never log in; the room code gates entry and the
	// submission UUID acts as the session credential afterwards.
	joinLimiter := middleware.NewRateLimiter(20, time.Minute)
	studentAPI := router.Group("/api/v1")
	{
		studentAPI.POST("/rooms/:room_code/join", joinLimiter.Middleware(), handlers.Student.JoinRoom)
		studentAPI.GET("/submissions/:submission_id/state", handlers.Student.GetState)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/submissions/:submission_id/stream", handlers.WS.SubmissionStream)
	}

	// ─── 4. Teacher Group (JWT) ────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		teacherAPI.GET("/me", handlers.Auth.Me)

		teacherAPI.GET("/exams", handlers.Exam.ListExams)
		teacherAPI.POST("/exams", handlers.Exam.CreateExam)
		teacherAPI.GET("/exams/:exam_id", handlers.Exam.GetExam)
		teacherAPI.DELETE("/exams/:exam_id", handlers.Exam.DeleteExam)
		teacherAPI.PATCH("/exams/:exam_id/active", handlers.Exam.SetActive)
		teacherAPI.POST("/exams/:exam_id/questions/:question_id/image", handlers.Exam.AttachQuestionImage)

		teacherAPI.POST("/exams/:exam_id/roster", handlers.Roster.ImportRoster)
		teacherAPI.GET("/exams/:exam_id/roster", handlers.Roster.ListRoster)

		teacherAPI.GET("/exams/:exam_id/submissions", handlers.Monitor.ListSubmissions)
		teacherAPI.GET("/exams/:exam_id/monitor", handlers.Monitor.MonitorSSE)
		teacherAPI.GET("/exams/:exam_id/export", handlers.Monitor.ExportResults)

		teacherAPI.GET("/settings/ai", handlers.Setting.GetAISettings)
		teacherAPI.PUT("/settings/ai", handlers.Setting.UpdateAISettings)
	}

	return router
}
