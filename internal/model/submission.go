package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus enumerates the lifecycle of a student's attempt.
type SubmissionStatus string

const (
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionSubmitted  SubmissionStatus = "submitted"
)

// Submission is one student's attempt at an exam. Roster fields are
// copied onto the row at join time when the exam has a class list.
type Submission struct {
	ID               uuid.UUID        `json:"id"`
	ExamID           uuid.UUID        `json:"exam_id"`
	StudentID        uuid.UUID        `json:"student_id"`
	StudentName      string           `json:"student_name"`
	StudentCode      *string          `json:"student_code,omitempty"`
	BirthDate        *string          `json:"birth_date,omitempty"`
	ClassName        *string          `json:"class_name,omitempty"`
	Answers          AnswerMap        `json:"answers"`
	Score            int              `json:"score"`
	TotalQuestions   int              `json:"total_questions"`
	ExitCount        int              `json:"exit_count"`
	TimeSpentSeconds int              `json:"time_spent"`
	Status           SubmissionStatus `json:"status"`
	CurrentQuestion  int              `json:"current_question"`
	StartedAt        time.Time        `json:"started_at"`
	SubmittedAt      *time.Time       `json:"submitted_at,omitempty"`
}

// ExitSource identifies which browser signal reported a focus loss.
// Both fire for a tab switch, and both are counted unless a dedup
// window is configured.
type ExitSource string

const (
	ExitSourceVisibility ExitSource = "visibility"
	ExitSourceBlur       ExitSource = "blur"
)

// ExitEvent is the audit record behind a submission's exit_count.
type ExitEvent struct {
	ID           int64      `json:"id"`
	SubmissionID uuid.UUID  `json:"submission_id"`
	ExamID       uuid.UUID  `json:"exam_id"`
	Source       ExitSource `json:"source"`
	RecordedAt   time.Time  `json:"recorded_at"`
}

// SubmissionState is the autosaved progress returned on page reload.
type SubmissionState struct {
	SubmissionID     uuid.UUID        `json:"submission_id"`
	Answers          AnswerMap        `json:"answers"`
	TimeSpentSeconds int              `json:"time_spent"`
	CurrentQuestion  int              `json:"current_question"`
	ExitCount        int              `json:"exit_count"`
	Status           SubmissionStatus `json:"status"`
	Score            int              `json:"score"`
	TotalQuestions   int              `json:"total_questions"`
}

// JoinRoomRequest is the student's entry form. StudentCode and Password
// are required only when the room carries a class roster.
type JoinRoomRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	StudentCode string `json:"student_code" binding:"omitempty,max=50"`
	Password    string `json:"password" binding:"omitempty,max=255"`
}
