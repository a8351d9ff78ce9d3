package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/test-session/internal/repositories"
)

// statsPageSize bounds how many records feed the score distribution.
const statsPageSize = 100

// AnalyticsService reports on submitted sessions of a test
type AnalyticsService interface {
	GetTestStatistics(ctx context.Context, testID string) (*TestStatistics, error)
}

type analyticsService struct {
	history repositories.SessionRecordRepository
	auth    AuthState
	logger  *slog.Logger
}

func NewAnalyticsService(history repositories.SessionRecordRepository, auth AuthState, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		history: history,
		auth:    auth,
		logger:  logger,
	}
}

// ===== DATA STRUCTURES =====

type TestStatistics struct {
	TestID            string         `json:"test_id"`
	Submissions       int64          `json:"submissions"`
	AverageScore      float64        `json:"average_score"`
	BestScore         float64        `json:"best_score"`
	AutoSubmitRate    float64        `json:"auto_submit_rate"`
	AverageTimeSpent  int            `json:"average_time_spent"` // seconds
	ScoreDistribution map[string]int `json:"score_distribution"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// GetTestStatistics is admin only.
func (s *analyticsService) GetTestStatistics(ctx context.Context, testID string) (*TestStatistics, error) {
	if s.auth != nil && !s.auth.IsAdmin() {
		return nil, ErrForbidden
	}
	if testID == "" {
		return nil, fmt.Errorf("%w: test id is required", ErrBadRequest)
	}

	stats, err := s.history.StatsByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}

	out := &TestStatistics{
		TestID:            testID,
		Submissions:       stats.Count,
		AverageScore:      stats.AverageScore,
		BestScore:         stats.BestScore,
		ScoreDistribution: make(map[string]int),
		GeneratedAt:       time.Now(),
	}
	if stats.Count == 0 {
		return out, nil
	}
	out.AutoSubmitRate = float64(stats.AutoSubmits) / float64(stats.Count)

	records, _, err := s.history.List(ctx, repositories.SessionRecordFilters{
		TestID: testID,
		Limit:  statsPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load session records: %w", err)
	}
	totalTime := 0
	for _, r := range records {
		totalTime += r.TimeSpent
		out.ScoreDistribution[scoreBucket(r.CorrectCount, r.Total)]++
	}
	if len(records) > 0 {
		out.AverageTimeSpent = totalTime / len(records)
	}

	s.logger.Debug("Computed test statistics", "test_id", testID, "submissions", stats.Count)
	return out, nil
}

// scoreBucket groups by the share of correct answers in steps of 20%.
func scoreBucket(correct, total int) string {
	if total <= 0 {
		return "0-20"
	}
	pct := correct * 100 / total
	switch {
	case pct >= 80:
		return "80-100"
	case pct >= 60:
		return "60-80"
	case pct >= 40:
		return "40-60"
	case pct >= 20:
		return "20-40"
	default:
		return "0-20"
	}
}
