package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/hocthi/examroom-backend/internal/model"
	"github.com/hocthi/examroom-backend/internal/repository"
)

// MonitorService builds the teacher's live view of a room.
type MonitorService struct {
	examRepo       *repository.ExamRepository
	submissionRepo *repository.SubmissionRepository
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(examRepo *repository.ExamRepository, submissionRepo *repository.SubmissionRepository) *MonitorService {
	return &MonitorService{examRepo: examRepo, submissionRepo: submissionRepo}
}

// MonitorStats aggregates a room's current numbers.
type MonitorStats struct {
	TotalJoined     int     `json:"total_joined"`
	InProgress      int     `json:"in_progress"`
	Submitted       int     `json:"submitted"`
	AverageScorePct float64 `json:"average_score_percent"`
	TotalExits      int     `json:"total_exits"`
}

// MonitorSnapshot is one full frame of the live monitor stream.
type MonitorSnapshot struct {
	Exam        model.ExamSummary  `json:"exam"`
	Stats       MonitorStats       `json:"stats"`
	Submissions []model.Submission `json:"submissions"`
}

// Snapshot fetches the room's submissions and derives the stats from
// the list it already holds, avoiding a second aggregation query.
func (s *MonitorService) Snapshot(ctx context.Context, examID uuid.UUID) (*MonitorSnapshot, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	submissions, err := s.submissionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if submissions == nil {
		submissions = []model.Submission{}
	}

	return &MonitorSnapshot{
		Exam:        exam.Summary(),
		Stats:       deriveStats(submissions),
		Submissions: submissions,
	}, nil
}

func deriveStats(submissions []model.Submission) MonitorStats {
	stats := MonitorStats{TotalJoined: len(submissions)}

	var scoreSum, totalSum int
	for _, sub := range submissions {
		stats.TotalExits += sub.ExitCount
		switch sub.Status {
		case model.SubmissionSubmitted:
			stats.Submitted++
			scoreSum += sub.Score
			totalSum += sub.TotalQuestions
		default:
			stats.InProgress++
		}
	}
	if totalSum > 0 {
		stats.AverageScorePct = float64(scoreSum) / float64(totalSum) * 100
	}
	return stats
}
