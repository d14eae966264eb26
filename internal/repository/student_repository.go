package repository

import (
	"context"

	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentRepository handles student identity rows. One row is created
// per join; identities are never reused across attempts.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// Create inserts a new student identity.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (name, student_code)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		s.Name, s.StudentCode,
	).Scan(&s.ID, &s.CreatedAt)
}
