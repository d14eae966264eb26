package model

import (
	"time"

	"github.com/google/uuid"
)

// Student is a throwaway identity created for each attempt. Students
// are never deduplicated across joins.
type Student struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	StudentCode *string   `json:"student_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClassStudent is one roster entry imported from a spreadsheet. The
// roster, when present, gates who may join the room.
type ClassStudent struct {
	ID          uuid.UUID `json:"id"`
	ExamID      uuid.UUID `json:"exam_id"`
	StudentCode string    `json:"student_code"`
	Password    string    `json:"password"`
	FullName    string    `json:"full_name"`
	BirthDate   string    `json:"birth_date"`
	ClassName   string    `json:"class_name"`
	CreatedAt   time.Time `json:"created_at"`
}
