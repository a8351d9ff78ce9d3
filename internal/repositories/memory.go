package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SAP-F-2025/test-session/internal/models"
)

// MemorySessionRecords keeps history in process memory. It is used when no
// DATABASE_URL is configured and in tests.
type MemorySessionRecords struct {
	mu      sync.RWMutex
	records []*models.SessionRecord
	nextID  uint
}

func NewMemorySessionRecords() *MemorySessionRecords {
	return &MemorySessionRecords{nextID: 1}
}

func (m *MemorySessionRecords) Create(ctx context.Context, record *models.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.SessionID == record.SessionID {
			return fmt.Errorf("session record %s already exists", record.SessionID)
		}
	}
	record.ID = m.nextID
	m.nextID++
	if record.CreatedAt.IsZero() {
		record.CreatedAt = record.SubmittedAt
	}
	cp := *record
	m.records = append(m.records, &cp)
	return nil
}

func (m *MemorySessionRecords) GetBySessionID(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.records {
		if r.SessionID == sessionID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (m *MemorySessionRecords) List(ctx context.Context, filters SessionRecordFilters) ([]*models.SessionRecord, int64, error) {
	m.mu.RLock()
	var matched []*models.SessionRecord
	for _, r := range m.records {
		if matches(r, filters) {
			cp := *r
			matched = append(matched, &cp)
		}
	}
	m.mu.RUnlock()

	less := func(a, b *models.SessionRecord) bool { return a.SubmittedAt.Before(b.SubmittedAt) }
	switch filters.SortBy {
	case "score":
		less = func(a, b *models.SessionRecord) bool { return a.Score < b.Score }
	case "time_spent":
		less = func(a, b *models.SessionRecord) bool { return a.TimeSpent < b.TimeSpent }
	}
	desc := filters.SortOrder != "asc"
	sort.SliceStable(matched, func(i, j int) bool {
		if desc {
			return less(matched[j], matched[i])
		}
		return less(matched[i], matched[j])
	})

	total := int64(len(matched))
	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			return []*models.SessionRecord{}, total, nil
		}
		matched = matched[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(matched) {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

func (m *MemorySessionRecords) StatsByTest(ctx context.Context, testID string) (*SessionRecordStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &SessionRecordStats{}
	var sum float64
	for _, r := range m.records {
		if r.TestID != testID {
			continue
		}
		stats.Count++
		sum += r.Score
		if stats.Count == 1 || r.Score > stats.BestScore {
			stats.BestScore = r.Score
		}
		if r.Trigger == models.TriggerTimer {
			stats.AutoSubmits++
		}
	}
	if stats.Count > 0 {
		stats.AverageScore = sum / float64(stats.Count)
	}
	return stats, nil
}

func matches(r *models.SessionRecord, f SessionRecordFilters) bool {
	switch {
	case f.TestID != "" && r.TestID != f.TestID:
		return false
	case f.UserName != "" && r.UserName != f.UserName:
		return false
	case f.Trigger != "" && r.Trigger != f.Trigger:
		return false
	case f.DateFrom != nil && r.SubmittedAt.Before(*f.DateFrom):
		return false
	case f.DateTo != nil && r.SubmittedAt.After(*f.DateTo):
		return false
	}
	return true
}
