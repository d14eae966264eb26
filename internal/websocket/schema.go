package websocket

import "github.com/hocthi/examroom-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave  Action = "autosave"
	ActionFocusLost Action = "focus_lost"
	ActionSubmit    Action = "submit"
	ActionPing      Action = "ping"
)

// Request is the single client frame shape. Which fields matter depends
// on the action: autosave and submit carry the answer map and counters,
// focus_lost carries the browser signal source.
type Request struct {
	Action           Action           `json:"action"`
	Answers          model.AnswerMap  `json:"answers,omitempty"`
	TimeSpentSeconds int              `json:"time_spent,omitempty"`
	CurrentQuestion  int              `json:"current_question,omitempty"`
	Source           model.ExitSource `json:"source,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventSaved  Event = "saved"
	EventExit   Event = "exit_recorded"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

// SavedResponse acknowledges an autosave.
type SavedResponse struct {
	Event Event `json:"event"`
}

// ExitResponse returns the running focus-loss total.
type ExitResponse struct {
	Event     Event `json:"event"`
	ExitCount int   `json:"exit_count"`
}

// GradedResponse returns the final score after a submit.
type GradedResponse struct {
	Event          Event `json:"event"`
	Score          int   `json:"score"`
	TotalQuestions int   `json:"total_questions"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
