package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/hocthi/examroom-backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Roster import errors.
var (
	ErrEmptyRoster   = errors.New("roster contains no students")
	ErrRosterColumns = errors.New("roster rows need a student code and password")
)

// RosterService imports and serves an exam's class list. Spreadsheet
// columns, in order: student code, password, full name, birth date,
// class name. The first row is treated as a header.
type RosterService struct {
	rosterRepo *repository.ClassStudentRepository
	log        zerolog.Logger
}

// NewRosterService creates a new RosterService.
func NewRosterService(rosterRepo *repository.ClassStudentRepository, log zerolog.Logger) *RosterService {
	return &RosterService{
		rosterRepo: rosterRepo,
		log:        log.With().Str("component", "roster_service").Logger(),
	}
}

// Import parses an xlsx roster and replaces the exam's list wholesale.
// Returns the number of imported students.
func (s *RosterService) Import(ctx context.Context, examID uuid.UUID, r io.Reader) (int, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return 0, ErrEmptyRoster
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return 0, fmt.Errorf("read sheet: %w", err)
	}

	students := make([]model.ClassStudent, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		student, ok, err := parseRosterRow(row)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if !ok {
			continue
		}
		student.ExamID = examID
		students = append(students, student)
	}
	if len(students) == 0 {
		return 0, ErrEmptyRoster
	}

	if err := s.rosterRepo.ReplaceForExam(ctx, examID, students); err != nil {
		return 0, err
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("students", len(students)).
		Msg("Roster imported")
	return len(students), nil
}

// parseRosterRow maps one spreadsheet row onto a roster entry. Fully
// blank rows are skipped; rows missing the code or password fail the
// whole import so a broken file never half-replaces a roster.
func parseRosterRow(row []string) (model.ClassStudent, bool, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	code := strings.ToUpper(cell(0))
	password := cell(1)
	fullName := cell(2)
	birthDate := cell(3)
	className := cell(4)

	if code == "" && password == "" && fullName == "" && birthDate == "" && className == "" {
		return model.ClassStudent{}, false, nil
	}
	if code == "" || password == "" {
		return model.ClassStudent{}, false, ErrRosterColumns
	}

	student := model.ClassStudent{
		StudentCode: code,
		Password:    password,
		FullName:    fullName,
		BirthDate:   birthDate,
		ClassName:   className,
	}
	if fullName == "" {
		student.FullName = code
	}
	return student, true, nil
}

// List returns the exam's roster ordered by student code.
func (s *RosterService) List(ctx context.Context, examID uuid.UUID) ([]model.ClassStudent, error) {
	students, err := s.rosterRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []model.ClassStudent{}
	}
	return students, nil
}
