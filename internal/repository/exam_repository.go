package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRoomCodeTaken signals a unique-constraint collision on room_code.
// The service retries with a freshly generated code.
var ErrRoomCodeTaken = errors.New("room code already taken")

// ExamRepository handles exam data access. Questions are stored as one
// ordered JSONB array per exam.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, teacher_id, title, room_code, source_file, questions, time_limit_minutes, is_active, created_at`

func scanExam(row interface{ Scan(...any) error }) (*model.Exam, error) {
	e := &model.Exam{}
	var questionsJSON []byte
	var sourceFile *string

	err := row.Scan(&e.ID, &e.TeacherID, &e.Title, &e.RoomCode, &sourceFile,
		&questionsJSON, &e.TimeLimitMinutes, &e.IsActive, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	if sourceFile != nil {
		e.SourceFile = *sourceFile
	}
	if err := json.Unmarshal(questionsJSON, &e.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return e, nil
}

// Create inserts a new exam. A room_code collision returns
// ErrRoomCodeTaken so the caller can regenerate and retry.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	questionsJSON, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	var sourceFile *string
	if e.SourceFile != "" {
		sourceFile = &e.SourceFile
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO exams (teacher_id, title, room_code, source_file, questions, time_limit_minutes, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		e.TeacherID, e.Title, e.RoomCode, sourceFile, questionsJSON, e.TimeLimitMinutes, e.IsActive,
	).Scan(&e.ID, &e.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "exams_room_code_key" {
		return ErrRoomCodeTaken
	}
	return err
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// GetByRoomCode retrieves an exam by its room code. Codes are stored
// uppercase; the caller uppercases input before lookup.
func (r *ExamRepository) GetByRoomCode(ctx context.Context, code string) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE room_code = $1`, code))
}

// ListByTeacher retrieves exam summaries for a teacher, newest first.
func (r *ExamRepository) ListByTeacher(ctx context.Context, teacherID int) ([]model.ExamSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, room_code, jsonb_array_length(questions), time_limit_minutes, is_active, created_at
		 FROM exams WHERE teacher_id = $1
		 ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.ExamSummary
	for rows.Next() {
		var e model.ExamSummary
		if err := rows.Scan(&e.ID, &e.Title, &e.RoomCode, &e.QuestionCount,
			&e.TimeLimitMinutes, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListActive returns all active exams, used for cache prewarming on startup.
func (r *ExamRepository) ListActive(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE is_active ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// SetActive toggles whether the room accepts new students.
func (r *ExamRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET is_active = $1 WHERE id = $2`, active, id)
	return err
}

// UpdateQuestions replaces the exam's question array.
func (r *ExamRepository) UpdateQuestions(ctx context.Context, id uuid.UUID, questions []model.Question) error {
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE exams SET questions = $1 WHERE id = $2`, questionsJSON, id)
	return err
}

// Delete removes an exam. Submissions, exit events, and roster rows
// cascade via foreign keys.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}
