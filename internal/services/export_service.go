package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/session"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	reviewSheet  = "Review"
)

// ExportService renders the review of a submitted session as a workbook
type ExportService interface {
	ExportReview(ctx context.Context, sessionID string) ([]byte, string, error)
}

type exportService struct {
	sessions SessionService
	logger   *slog.Logger
}

func NewExportService(sessions SessionService, logger *slog.Logger) ExportService {
	return &exportService{
		sessions: sessions,
		logger:   logger,
	}
}

// ExportReview returns the xlsx bytes and a file name.
func (s *exportService) ExportReview(ctx context.Context, sessionID string) ([]byte, string, error) {
	sess, err := s.sessions.Session(sessionID)
	if err != nil {
		return nil, "", err
	}
	items, err := sess.ReviewItems()
	if err != nil {
		return nil, "", err
	}
	result := sess.Result()
	test := sess.Test()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Test", test.Title},
		{"Test ID", test.ID.String()},
		{"Score", result.Score},
		{"Correct", result.CorrectCount},
		{"Total", result.Total},
		{"Time Spent (seconds)", sess.TimeSpent()},
		{"Submitted At", sess.SubmittedAt().Format("2006-01-02 15:04:05")},
	}
	for rowIndex, row := range summary {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+1)
			f.SetCellValue(summarySheet, cell, value)
		}
	}

	index, err := f.NewSheet(reviewSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"#", "Question", "Type", "Your Answer", "Result", "Correct Answer", "Solution"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(reviewSheet, cell, header)
	}

	for rowIndex, item := range items {
		verdict := "Incorrect"
		if item.IsCorrect {
			verdict = "Correct"
		}
		row := []interface{}{
			item.Index + 1,
			item.Question.Content,
			string(item.Question.Type),
			formatAnswer(item.Answer),
			verdict,
			formatAnswer(item.CorrectAnswer),
			item.Solution,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(reviewSheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported session review", "session_id", sessionID, "questions", len(items))
	return buf.Bytes(), fmt.Sprintf("review-%s.xlsx", sessionID), nil
}

func formatAnswer(v interface{}) string {
	switch a := v.(type) {
	case nil:
		return ""
	case string:
		return a
	case []string:
		return strings.Join(a, ", ")
	case json.RawMessage:
		return formatRaw(a)
	default:
		return fmt.Sprint(a)
	}
}

// formatRaw prints a JSON string without quotes and any other value as JSON.
func formatRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return string(raw)
}
