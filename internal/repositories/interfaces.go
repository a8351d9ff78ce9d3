package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/test-session/internal/models"
)

var ErrRecordNotFound = errors.New("session record not found")

// ===== FILTER STRUCTS =====

type SessionRecordFilters struct {
	TestID    string               `form:"test_id" json:"test_id"`
	UserName  string               `form:"user_name" json:"user_name"`
	Trigger   models.SubmitTrigger `form:"trigger" json:"trigger" validate:"omitempty,oneof=manual timer"`
	DateFrom  *time.Time           `form:"date_from" json:"date_from"`
	DateTo    *time.Time           `form:"date_to" json:"date_to"`
	Limit     int                  `form:"limit" json:"limit" validate:"gte=0,lte=100"`
	Offset    int                  `form:"offset" json:"offset" validate:"gte=0"`
	SortBy    string               `form:"sort_by" json:"sort_by" validate:"omitempty,oneof=submitted_at score time_spent"`
	SortOrder string               `form:"sort_order" json:"sort_order" validate:"omitempty,oneof=asc desc"`
}

// ===== STATISTICS =====

type SessionRecordStats struct {
	Count        int64   `json:"count"`
	AverageScore float64 `json:"average_score"`
	BestScore    float64 `json:"best_score"`
	AutoSubmits  int64   `json:"auto_submits"`
}

// SessionRecordRepository keeps the history of submitted sessions
type SessionRecordRepository interface {
	Create(ctx context.Context, record *models.SessionRecord) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.SessionRecord, error)
	List(ctx context.Context, filters SessionRecordFilters) ([]*models.SessionRecord, int64, error)
	StatsByTest(ctx context.Context, testID string) (*SessionRecordStats, error)
}
