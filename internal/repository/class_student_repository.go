package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClassStudentRepository handles an exam's imported class roster.
type ClassStudentRepository struct {
	pool *pgxpool.Pool
}

// NewClassStudentRepository creates a new ClassStudentRepository.
func NewClassStudentRepository(pool *pgxpool.Pool) *ClassStudentRepository {
	return &ClassStudentRepository{pool: pool}
}

// ReplaceForExam swaps the exam's roster wholesale: the previous list
// is deleted and the new one bulk-inserted in a single transaction.
func (r *ClassStudentRepository) ReplaceForExam(ctx context.Context, examID uuid.UUID, students []model.ClassStudent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM class_students WHERE exam_id = $1`, examID); err != nil {
		return fmt.Errorf("clear roster: %w", err)
	}

	rows := make([][]interface{}, 0, len(students))
	for _, s := range students {
		rows = append(rows, []interface{}{
			examID, s.StudentCode, s.Password, s.FullName, s.BirthDate, s.ClassName,
		})
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"class_students"},
		[]string{"exam_id", "student_code", "password", "full_name", "birth_date", "class_name"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("bulk insert roster: %w", err)
	}

	return tx.Commit(ctx)
}

// Find looks up a roster entry by student code and password. Codes are
// stored uppercase; the caller uppercases input before lookup.
func (r *ClassStudentRepository) Find(ctx context.Context, examID uuid.UUID, studentCode, password string) (*model.ClassStudent, error) {
	s := &model.ClassStudent{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_code, password, full_name, birth_date, class_name, created_at
		 FROM class_students
		 WHERE exam_id = $1 AND student_code = $2 AND password = $3`,
		examID, studentCode, password,
	).Scan(&s.ID, &s.ExamID, &s.StudentCode, &s.Password, &s.FullName, &s.BirthDate, &s.ClassName, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Count returns the number of roster entries for an exam. A positive
// count means joining requires roster credentials.
func (r *ClassStudentRepository) Count(ctx context.Context, examID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM class_students WHERE exam_id = $1`, examID,
	).Scan(&count)
	return count, err
}

// ListByExam returns the roster ordered by student code.
func (r *ClassStudentRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ClassStudent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, student_code, password, full_name, birth_date, class_name, created_at
		 FROM class_students
		 WHERE exam_id = $1
		 ORDER BY student_code ASC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.ClassStudent
	for rows.Next() {
		var s model.ClassStudent
		if err := rows.Scan(&s.ID, &s.ExamID, &s.StudentCode, &s.Password,
			&s.FullName, &s.BirthDate, &s.ClassName, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}
