package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type SubmissionDetail struct {
	QuestionID    ID              `json:"questionId"`
	IsCorrect     bool            `json:"isCorrect"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
	Solution      string          `json:"solution,omitempty"`
}

// SubmissionResult is computed by the backend and never changed afterwards.
type SubmissionResult struct {
	Score        float64            `json:"score"`
	CorrectCount int                `json:"correctCount"`
	Total        int                `json:"total"`
	Details      []SubmissionDetail `json:"details"`
}

// Detail returns the detail of a question; ok is false when the backend did
// not report one.
func (r *SubmissionResult) Detail(id ID) (SubmissionDetail, bool) {
	if r == nil {
		return SubmissionDetail{}, false
	}
	for _, d := range r.Details {
		if d.QuestionID == id {
			return d, true
		}
	}
	return SubmissionDetail{}, false
}

type SubmitRequest struct {
	TestID  ID        `json:"testId" validate:"required"`
	Answers AnswerMap `json:"answers" validate:"required"`
}

type SubmitTrigger string

const (
	TriggerManual SubmitTrigger = "manual"
	TriggerTimer  SubmitTrigger = "timer"
)

// SessionRecord is the local history entry written after every successful
// submission.
type SessionRecord struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	SessionID    string         `json:"session_id" gorm:"not null;size:64;uniqueIndex"`
	TestID       string         `json:"test_id" gorm:"not null;size:64;index"`
	TestTitle    string         `json:"test_title" gorm:"size:200"`
	UserName     string         `json:"user_name" gorm:"size:100;index"`
	Trigger      SubmitTrigger  `json:"trigger" gorm:"column:submit_trigger;size:16"`
	Score        float64        `json:"score"`
	CorrectCount int            `json:"correct_count"`
	Total        int            `json:"total"`
	Answers      datatypes.JSON `json:"answers" gorm:"type:jsonb"`
	Details      datatypes.JSON `json:"details" gorm:"type:jsonb"`
	TimeSpent    int            `json:"time_spent"` // seconds
	StartedAt    time.Time      `json:"started_at"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (SessionRecord) TableName() string {
	return "session_records"
}
