package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/config"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/hocthi/examroom-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords,
// so login responses never reveal which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims extends JWT standard claims with teacher identity.
type Claims struct {
	jwt.RegisteredClaims
	TeacherID int    `json:"teacher_id"`
	Email     string `json:"email"`
}

// AuthService handles teacher authentication and JWT issuance. Students
// never authenticate; they join rooms by code instead.
type AuthService struct {
	cfg         *config.Config
	teacherRepo *repository.TeacherRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, teacherRepo *repository.TeacherRepository) *AuthService {
	return &AuthService{cfg: cfg, teacherRepo: teacherRepo}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies teacher credentials and returns the teacher with a
// signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Teacher, string, error) {
	teacher, err := s.teacherRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup teacher: %w", err)
	}

	if err := s.CheckPassword(teacher.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(teacher)
	if err != nil {
		return nil, "", err
	}
	return teacher, token, nil
}

// GenerateToken creates a signed JWT for a teacher.
func (s *AuthService) GenerateToken(teacher *model.Teacher) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(teacher.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TeacherID: teacher.ID,
		Email:     teacher.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// GetTeacher loads the teacher behind a set of claims.
func (s *AuthService) GetTeacher(ctx context.Context, claims *Claims) (*model.Teacher, error) {
	return s.teacherRepo.GetByID(ctx, claims.TeacherID)
}
