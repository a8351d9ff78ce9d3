package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/repositories"
	"gorm.io/gorm"
)

var sortColumns = map[string]string{
	"submitted_at": "submitted_at",
	"score":        "score",
	"time_spent":   "time_spent",
}

type SessionRecordPostgreSQL struct {
	db *gorm.DB
}

func NewSessionRecordPostgreSQL(db *gorm.DB) repositories.SessionRecordRepository {
	return &SessionRecordPostgreSQL{db: db}
}

// Migrate creates or updates the session_records table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.SessionRecord{}); err != nil {
		return fmt.Errorf("failed to migrate session records: %w", err)
	}
	return nil
}

func (s SessionRecordPostgreSQL) Create(ctx context.Context, record *models.SessionRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s SessionRecordPostgreSQL) GetBySessionID(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	var record models.SessionRecord
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s SessionRecordPostgreSQL) List(ctx context.Context, filters repositories.SessionRecordFilters) ([]*models.SessionRecord, int64, error) {
	var records []*models.SessionRecord
	var total int64

	// apply filter first
	query := s.db.WithContext(ctx).Model(&models.SessionRecord{})
	query = s.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = s.applyPaginationAndSort(query, filters)

	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s SessionRecordPostgreSQL) StatsByTest(ctx context.Context, testID string) (*repositories.SessionRecordStats, error) {
	var stats repositories.SessionRecordStats
	err := s.db.WithContext(ctx).
		Model(&models.SessionRecord{}).
		Select("COUNT(*) AS count, COALESCE(AVG(score), 0) AS average_score, COALESCE(MAX(score), 0) AS best_score, "+
			"COUNT(*) FILTER (WHERE submit_trigger = ?) AS auto_submits", models.TriggerTimer).
		Where("test_id = ?", testID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s SessionRecordPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SessionRecordFilters) *gorm.DB {
	if filters.TestID != "" {
		query = query.Where("test_id = ?", filters.TestID)
	}
	if filters.UserName != "" {
		query = query.Where("user_name = ?", filters.UserName)
	}
	if filters.Trigger != "" {
		query = query.Where("submit_trigger = ?", filters.Trigger)
	}
	if filters.DateFrom != nil {
		query = query.Where("submitted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("submitted_at <= ?", *filters.DateTo)
	}
	return query
}

func (s SessionRecordPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.SessionRecordFilters) *gorm.DB {
	column, ok := sortColumns[filters.SortBy]
	if !ok {
		column = "submitted_at"
	}
	order := "DESC"
	if filters.SortOrder == "asc" {
		order = "ASC"
	}
	query = query.Order(column + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
