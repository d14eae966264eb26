package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/hocthi/examroom-backend/internal/service"
	ws "github.com/hocthi/examroom-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowlist permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a student's exam session: autosaves, focus-loss
// reports, and the final submit all arrive on one connection.
type WSHandler struct {
	submissionService *service.SubmissionService
	log               zerolog.Logger
	upgrader          websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(submissionService *service.SubmissionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		submissionService: submissionService,
		log:               log.With().Str("component", "ws_handler").Logger(),
		upgrader:          buildUpgrader(allowedOrigins),
	}
}

// SubmissionStream godoc
// WS /ws/v1/submissions/:submission_id/stream
// Upgrades to WebSocket for real-time autosave and instant grading.
func (h *WSHandler) SubmissionStream(c *gin.Context) {
	submissionID, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission ID"})
		return
	}

	// The submission ID acts as the session credential; an unknown one
	// gets no connection.
	state, err := h.submissionService.GetState(c.Request.Context(), submissionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("submission_id", submissionID.String()).Logger()
	wsLog.Info().Msg("Student connected")

	if state.Status == model.SubmissionSubmitted {
		ws.WriteTyped(conn, ws.GradedResponse{
			Event:          ws.EventGraded,
			Score:          state.Score,
			TotalQuestions: state.TotalQuestions,
		})
	}

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, wsLog, submissionID, &msg)
		case ws.ActionFocusLost:
			h.handleFocusLost(conn, wsLog, submissionID, &msg)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, submissionID, &msg)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAutosave(conn *websocket.Conn, wsLog zerolog.Logger, submissionID uuid.UUID, msg *ws.Request) {
	ctx := context.Background()

	if msg.Answers == nil {
		ws.WriteError(conn, "answers are required")
		return
	}

	err := h.submissionService.SaveProgress(ctx, submissionID, msg.Answers, msg.TimeSpentSeconds, msg.CurrentQuestion)
	if err != nil {
		if errors.Is(err, service.ErrAlreadySubmitted) {
			ws.WriteError(conn, "submission already finalized")
			return
		}
		wsLog.Error().Err(err).Msg("Autosave error")
		ws.WriteError(conn, "save failed")
		return
	}

	h.submissionService.NotifyProgress(ctx, submissionID)
	ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved})
}

func (h *WSHandler) handleFocusLost(conn *websocket.Conn, wsLog zerolog.Logger, submissionID uuid.UUID, msg *ws.Request) {
	source := msg.Source
	if source != model.ExitSourceVisibility && source != model.ExitSourceBlur {
		ws.WriteError(conn, "unknown source: "+string(source))
		return
	}

	count, err := h.submissionService.RecordExit(context.Background(), submissionID, source)
	if err != nil {
		wsLog.Error().Err(err).Msg("Exit record error")
		ws.WriteError(conn, "exit record failed")
		return
	}

	ws.WriteTyped(conn, ws.ExitResponse{Event: ws.EventExit, ExitCount: count})
}

func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, submissionID uuid.UUID, msg *ws.Request) {
	result, err := h.submissionService.Submit(context.Background(), submissionID, msg.Answers, msg.TimeSpentSeconds)
	if err != nil {
		if errors.Is(err, service.ErrAlreadySubmitted) {
			ws.WriteError(conn, "submission already finalized")
			return
		}
		wsLog.Error().Err(err).Msg("Submit error")
		ws.WriteError(conn, "grading failed")
		return
	}

	wsLog.Info().
		Int("score", result.Score).
		Int("total", result.TotalQuestions).
		Msg("Exam submitted and graded")

	ws.WriteTyped(conn, ws.GradedResponse{
		Event:          ws.EventGraded,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
	})
}
