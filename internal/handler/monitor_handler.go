package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/config"
	"github.com/hocthi/examroom-backend/internal/export"
	"github.com/hocthi/examroom-backend/internal/response"
	"github.com/hocthi/examroom-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	snapshotTimeout   = 5 * time.Second // prevent slow queries from blocking the SSE loop
)

// MonitorHandler serves the teacher's live room view: the SSE stream,
// the submission list, and the results export.
type MonitorHandler struct {
	rdb            *redis.Client
	examService    *service.ExamService
	monitorService *service.MonitorService
	submissionSvc  *service.SubmissionService
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	rdb *redis.Client,
	examService *service.ExamService,
	monitorService *service.MonitorService,
	submissionSvc *service.SubmissionService,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:            rdb,
		examService:    examService,
		monitorService: monitorService,
		submissionSvc:  submissionSvc,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorSSE godoc
// GET /api/v1/teacher/exams/:exam_id/monitor
// Streams full room snapshots: one immediately, then on every student
// event and on a periodic refresh tick.
func (h *MonitorHandler) MonitorSSE(c *gin.Context) {
	claims, examID, ok := teacherExamParams(c)
	if !ok {
		return
	}

	if _, err := h.examService.GetByID(c.Request.Context(), examID, claims.TeacherID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	h.sendSnapshot(c, reqCtx, examID, "snapshot")

	channelName := config.CacheKey.ExamMonitorChannel(examID.String())
	pubsub := h.rdb.Subscribe(reqCtx, channelName)
	defer pubsub.Close()

	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	h.log.Info().Str("exam_id", examID.String()).Msg("Teacher attached to live monitor SSE")

	// Pre-allocate a reusable ping payload (never changes)
	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("exam_id", examID.String()).Msg("Teacher disconnected from live monitor SSE")
			return

		case msg := <-ch:
			// Any student event invalidates the current frame; resend a
			// full snapshot tagged with what happened.
			var event service.MonitorEvent
			eventType := "refresh"
			if err := json.Unmarshal([]byte(msg.Payload), &event); err == nil && event.Type != "" {
				eventType = event.Type
			}
			h.sendSnapshot(c, reqCtx, examID, eventType)

		case <-refreshTicker.C:
			h.sendSnapshot(c, reqCtx, examID, "refresh")

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// sendSnapshot queries the room state and writes one SSE frame.
func (h *MonitorHandler) sendSnapshot(c *gin.Context, parentCtx context.Context, examID uuid.UUID, eventType string) {
	// Scoped timeout prevents a slow query from stalling the SSE loop.
	ctx, cancel := context.WithTimeout(parentCtx, snapshotTimeout)
	defer cancel()

	snapshot, err := h.monitorService.Snapshot(ctx, examID)
	if err != nil {
		h.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to build monitor snapshot")
		return
	}

	c.SSEvent("message", map[string]interface{}{
		"type": eventType,
		"data": snapshot,
	})
	c.Writer.Flush()
}

// ListSubmissions godoc
// GET /api/v1/teacher/exams/:exam_id/submissions
// Returns the room's submissions with derived stats, newest first.
func (h *MonitorHandler) ListSubmissions(c *gin.Context) {
	claims, examID, ok := teacherExamParams(c)
	if !ok {
		return
	}

	if _, err := h.examService.GetByID(c.Request.Context(), examID, claims.TeacherID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	snapshot, err := h.monitorService.Snapshot(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"stats":       snapshot.Stats,
		"submissions": snapshot.Submissions,
	})
}

// ExportResults godoc
// GET /api/v1/teacher/exams/:exam_id/export
// Downloads the room's results as an xlsx workbook.
func (h *MonitorHandler) ExportResults(c *gin.Context) {
	claims, examID, ok := teacherExamParams(c)
	if !ok {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID, claims.TeacherID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	submissions, err := h.submissionSvc.ListByExam(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	workbook, err := export.BuildWorkbook(exam, submissions)
	if err != nil {
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Workbook build failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer workbook.Close()

	filename := fmt.Sprintf("ket-qua-%s.xlsx", exam.RoomCode)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := workbook.Write(c.Writer); err != nil {
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Workbook write failed")
	}
}

