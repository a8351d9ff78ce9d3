package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecords(t *testing.T, repo *MemorySessionRecords) time.Time {
	t.Helper()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	records := []models.SessionRecord{
		{SessionID: "a", TestID: "1", UserName: "alice", Trigger: models.TriggerManual, Score: 8, TimeSpent: 600, SubmittedAt: base},
		{SessionID: "b", TestID: "1", UserName: "bob", Trigger: models.TriggerTimer, Score: 4, TimeSpent: 900, SubmittedAt: base.Add(time.Hour)},
		{SessionID: "c", TestID: "2", UserName: "alice", Trigger: models.TriggerTimer, Score: 6, TimeSpent: 1800, SubmittedAt: base.Add(2 * time.Hour)},
	}
	for i := range records {
		require.NoError(t, repo.Create(context.Background(), &records[i]))
	}
	return base
}

func TestMemorySessionRecords_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRecords()
	seedRecords(t, repo)

	got, err := repo.GetBySessionID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, uint(2), got.ID)
	assert.Equal(t, "bob", got.UserName)
	assert.Equal(t, got.SubmittedAt, got.CreatedAt)

	_, err = repo.GetBySessionID(ctx, "zzz")
	assert.ErrorIs(t, err, ErrRecordNotFound)

	err = repo.Create(ctx, &models.SessionRecord{SessionID: "a"})
	assert.Error(t, err)
}

func TestMemorySessionRecords_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRecords()
	base := seedRecords(t, repo)

	t.Run("NewestFirstByDefault", func(t *testing.T) {
		records, total, err := repo.List(ctx, SessionRecordFilters{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []string{"c", "b", "a"}, sessionIDs(records))
	})

	t.Run("FilterByUserAndTrigger", func(t *testing.T) {
		records, total, err := repo.List(ctx, SessionRecordFilters{UserName: "alice", Trigger: models.TriggerTimer})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"c"}, sessionIDs(records))
	})

	t.Run("DateRange", func(t *testing.T) {
		from := base.Add(30 * time.Minute)
		to := base.Add(90 * time.Minute)
		records, _, err := repo.List(ctx, SessionRecordFilters{DateFrom: &from, DateTo: &to})
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, sessionIDs(records))
	})

	t.Run("SortByScoreAscending", func(t *testing.T) {
		records, _, err := repo.List(ctx, SessionRecordFilters{SortBy: "score", SortOrder: "asc"})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "a"}, sessionIDs(records))
	})

	t.Run("Pagination", func(t *testing.T) {
		records, total, err := repo.List(ctx, SessionRecordFilters{SortBy: "time_spent", Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []string{"b"}, sessionIDs(records))

		records, _, err = repo.List(ctx, SessionRecordFilters{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestMemorySessionRecords_StatsByTest(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRecords()
	seedRecords(t, repo)

	stats, err := repo.StatsByTest(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Count)
	assert.Equal(t, 6.0, stats.AverageScore)
	assert.Equal(t, 8.0, stats.BestScore)
	assert.Equal(t, int64(1), stats.AutoSubmits)

	empty, err := repo.StatsByTest(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
}

func sessionIDs(records []*models.SessionRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.SessionID
	}
	return out
}
