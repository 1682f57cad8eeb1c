package service

import (
	"context"
	"learnhub_backend/internal/repository"
	"time"
)

const recentWindow = 7 * 24 * time.Hour

type DashboardService struct {
	Repo      *repository.DashboardRepository
	Sessions  *SessionManager
	Evaluator *QuizEvaluator
	now       func() time.Time
}

func NewDashboardService(repo *repository.DashboardRepository, sessions *SessionManager, evaluator *QuizEvaluator) *DashboardService {
	return &DashboardService{
		Repo:      repo,
		Sessions:  sessions,
		Evaluator: evaluator,
		now:       time.Now,
	}
}

// Dashboard 后台概览
type Dashboard struct {
	Counts                   *repository.SiteCounts             `json:"counts"`
	TopCourses               []repository.CourseEnrollmentCount `json:"topCourses"`
	ActiveAssessmentSessions int                                `json:"activeAssessmentSessions"`
	PassThreshold            float64                            `json:"passThreshold"`
}

func (s *DashboardService) Overview(ctx context.Context) (*Dashboard, error) {
	counts, err := s.Repo.Counts(ctx, s.now().Add(-recentWindow))
	if err != nil {
		return nil, err
	}
	top, err := s.Repo.TopCourses(ctx, 5)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Counts:                   counts,
		TopCourses:               top,
		ActiveAssessmentSessions: s.Sessions.Len(),
		PassThreshold:            s.Evaluator.PassThreshold(),
	}, nil
}
