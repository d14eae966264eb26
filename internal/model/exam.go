package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
)

// SubQuestion is one row of a true/false table question.
type SubQuestion struct {
	Label   string `json:"label,omitempty"`
	Content string `json:"content"`
	Answer  string `json:"answer,omitempty"`
}

// Question is one extracted exam question. The correct answer is kept
// alongside the question in the exam's JSONB column; student-facing
// payloads use ForStudent to strip it.
type Question struct {
	ID               int           `json:"id"`
	Type             QuestionType  `json:"type"`
	Question         string        `json:"question"`
	Options          []string      `json:"options"`
	CorrectAnswer    Answer        `json:"correct_answer"`
	SubQuestions     []SubQuestion `json:"sub_questions,omitempty"`
	HasImage         bool          `json:"has_image,omitempty"`
	ImageURL         string        `json:"image_url,omitempty"`
	ImageDescription string        `json:"image_description,omitempty"`
}

// SubQuestionForStudent is a true/false row without its answer.
type SubQuestionForStudent struct {
	Label   string `json:"label,omitempty"`
	Content string `json:"content"`
}

// QuestionForStudent is a question with all answer material removed.
type QuestionForStudent struct {
	ID               int                     `json:"id"`
	Type             QuestionType            `json:"type"`
	Question         string                  `json:"question"`
	Options          []string                `json:"options"`
	SubQuestions     []SubQuestionForStudent `json:"sub_questions,omitempty"`
	HasImage         bool                    `json:"has_image,omitempty"`
	ImageURL         string                  `json:"image_url,omitempty"`
	ImageDescription string                  `json:"image_description,omitempty"`
}

// ForStudent strips the correct answer and per-row answers.
func (q Question) ForStudent() QuestionForStudent {
	out := QuestionForStudent{
		ID:               q.ID,
		Type:             q.Type,
		Question:         q.Question,
		Options:          q.Options,
		HasImage:         q.HasImage,
		ImageURL:         q.ImageURL,
		ImageDescription: q.ImageDescription,
	}
	if len(q.SubQuestions) > 0 {
		out.SubQuestions = make([]SubQuestionForStudent, len(q.SubQuestions))
		for i, sq := range q.SubQuestions {
			out.SubQuestions[i] = SubQuestionForStudent{Label: sq.Label, Content: sq.Content}
		}
	}
	return out
}

// Exam is an exam room. Questions live in a single ordered JSONB array.
type Exam struct {
	ID               uuid.UUID  `json:"id"`
	TeacherID        *int       `json:"teacher_id,omitempty"`
	Title            string     `json:"title"`
	RoomCode         string     `json:"room_code"`
	SourceFile       string     `json:"source_file,omitempty"`
	Questions        []Question `json:"questions"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ExamSummary is the list view of an exam, without the question bodies.
type ExamSummary struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	RoomCode         string    `json:"room_code"`
	QuestionCount    int       `json:"question_count"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// Summary builds the list view of an exam.
func (e *Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:               e.ID,
		Title:            e.Title,
		RoomCode:         e.RoomCode,
		QuestionCount:    len(e.Questions),
		TimeLimitMinutes: e.TimeLimitMinutes,
		IsActive:         e.IsActive,
		CreatedAt:        e.CreatedAt,
	}
}

// ExamPayload is the Redis-cached exam sent to students (no answers).
type ExamPayload struct {
	ExamID           uuid.UUID            `json:"exam_id"`
	Title            string               `json:"title"`
	RoomCode         string               `json:"room_code"`
	TimeLimitMinutes int                  `json:"time_limit_minutes"`
	Questions        []QuestionForStudent `json:"questions"`
}

// Payload builds the student-facing exam payload.
func (e *Exam) Payload() ExamPayload {
	questions := make([]QuestionForStudent, len(e.Questions))
	for i, q := range e.Questions {
		questions[i] = q.ForStudent()
	}
	return ExamPayload{
		ExamID:           e.ID,
		Title:            e.Title,
		RoomCode:         e.RoomCode,
		TimeLimitMinutes: e.TimeLimitMinutes,
		Questions:        questions,
	}
}

// AnswerKey returns the question ID to correct answer mapping.
func (e *Exam) AnswerKey() map[int]Answer {
	key := make(map[int]Answer, len(e.Questions))
	for _, q := range e.Questions {
		key[q.ID] = q.CorrectAnswer
	}
	return key
}

// SetActiveRequest toggles whether a room accepts new students.
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
