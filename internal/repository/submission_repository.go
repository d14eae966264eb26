package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAlreadySubmitted signals a finalize on a submission that has
// already left the in_progress state.
var ErrAlreadySubmitted = errors.New("submission already finalized")

// SubmissionRepository handles student attempt rows. The answers map is
// stored as a JSONB object keyed by question ID.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

const submissionColumns = `id, exam_id, student_id, student_name, student_code, birth_date, class_name,
	answers, score, total_questions, exit_count, time_spent_seconds, status, current_question,
	started_at, submitted_at`

func scanSubmission(row interface{ Scan(...any) error }) (*model.Submission, error) {
	s := &model.Submission{}
	var answersJSON []byte

	err := row.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.StudentName, &s.StudentCode,
		&s.BirthDate, &s.ClassName, &answersJSON, &s.Score, &s.TotalQuestions,
		&s.ExitCount, &s.TimeSpentSeconds, &s.Status, &s.CurrentQuestion,
		&s.StartedAt, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(answersJSON, &s.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return s, nil
}

// Create inserts a new in-progress submission with zeroed counters.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	if s.Answers == nil {
		s.Answers = model.AnswerMap{}
	}
	answersJSON, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO submissions
		   (exam_id, student_id, student_name, student_code, birth_date, class_name,
		    answers, total_questions, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, started_at`,
		s.ExamID, s.StudentID, s.StudentName, s.StudentCode, s.BirthDate, s.ClassName,
		answersJSON, s.TotalQuestions, model.SubmissionInProgress,
	).Scan(&s.ID, &s.StartedAt)
}

// GetByID retrieves a submission by its UUID.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	return scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
}

// ListByExam retrieves all submissions for an exam, newest first.
func (r *SubmissionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+`
		 FROM submissions WHERE exam_id = $1
		 ORDER BY started_at DESC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, *s)
	}
	return submissions, rows.Err()
}

// SaveProgress persists an autosave: the full answers map plus the
// elapsed time and position counters. Finalized submissions are left
// untouched.
func (r *SubmissionRepository) SaveProgress(ctx context.Context, id uuid.UUID, answers model.AnswerMap, timeSpentSeconds, currentQuestion int) error {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE submissions
		 SET answers = $1, time_spent_seconds = $2, current_question = $3
		 WHERE id = $4 AND status = $5`,
		answersJSON, timeSpentSeconds, currentQuestion, id, model.SubmissionInProgress)
	return err
}

// Finalize grades and closes a submission exactly once. The status
// guard makes a duplicate submit a no-op that surfaces as
// ErrAlreadySubmitted.
func (r *SubmissionRepository) Finalize(ctx context.Context, id uuid.UUID, answers model.AnswerMap, score, timeSpentSeconds int, submittedAt time.Time) error {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET answers = $1, score = $2, time_spent_seconds = $3,
		     status = $4, submitted_at = $5
		 WHERE id = $6 AND status = $7`,
		answersJSON, score, timeSpentSeconds,
		model.SubmissionSubmitted, submittedAt, id, model.SubmissionInProgress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySubmitted
	}
	return nil
}
