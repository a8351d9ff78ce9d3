package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsService_GetTestStatistics(t *testing.T) {
	ctx := context.Background()
	history := repositories.NewMemorySessionRecords()
	for i, r := range []models.SessionRecord{
		{TestID: "42", Score: 10, CorrectCount: 5, Total: 5, TimeSpent: 600, Trigger: models.TriggerManual},
		{TestID: "42", Score: 4, CorrectCount: 2, Total: 5, TimeSpent: 1800, Trigger: models.TriggerTimer},
		{TestID: "7", Score: 1, CorrectCount: 1, Total: 10, TimeSpent: 60, Trigger: models.TriggerManual},
	} {
		r := r
		r.SessionID = string(rune('a' + i))
		require.NoError(t, history.Create(ctx, &r))
	}
	admin := stubAuth{initialized: true, user: &models.User{Name: "root", Role: models.RoleAdmin}}

	t.Run("Admin", func(t *testing.T) {
		svc := NewAnalyticsService(history, admin, discardLogger())
		stats, err := svc.GetTestStatistics(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.Submissions)
		assert.Equal(t, 7.0, stats.AverageScore)
		assert.Equal(t, 10.0, stats.BestScore)
		assert.Equal(t, 0.5, stats.AutoSubmitRate)
		assert.Equal(t, 1200, stats.AverageTimeSpent)
		assert.Equal(t, map[string]int{"80-100": 1, "40-60": 1}, stats.ScoreDistribution)
	})

	t.Run("NoSubmissions", func(t *testing.T) {
		svc := NewAnalyticsService(history, admin, discardLogger())
		stats, err := svc.GetTestStatistics(ctx, "missing")
		require.NoError(t, err)
		assert.Zero(t, stats.Submissions)
		assert.Empty(t, stats.ScoreDistribution)
	})

	t.Run("StudentForbidden", func(t *testing.T) {
		svc := NewAnalyticsService(history, stubAuth{initialized: true, user: student}, discardLogger())
		_, err := svc.GetTestStatistics(ctx, "42")
		assert.True(t, IsForbidden(err))
	})
}
