package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of session events published to the broker
type EventType string

const (
	EventSessionStarted       EventType = "session.started"
	EventSessionTimeWarning   EventType = "session.time_warning"
	EventSessionSubmitted     EventType = "session.submitted"
	EventSessionAutoSubmitted EventType = "session.auto_submitted"
	EventSessionSubmitFailed  EventType = "session.submit_failed"
	EventSessionClosed        EventType = "session.closed"
	EventAuthInvalidated      EventType = "auth.invalidated"
)

const (
	eventSource  = "test-session"
	eventVersion = "1.0"
)

// SessionEvent is the envelope of every published event
type SessionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type SessionStartedEvent struct {
	SessionID string    `json:"session_id"`
	TestID    string    `json:"test_id"`
	TestTitle string    `json:"test_title"`
	UserName  string    `json:"user_name,omitempty"`
	Questions int       `json:"questions"`
	Duration  int       `json:"duration"` // seconds
	StartedAt time.Time `json:"started_at"`
}

type SessionTimeWarningEvent struct {
	SessionID        string `json:"session_id"`
	TestID           string `json:"test_id"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

type SessionSubmittedEvent struct {
	SessionID    string    `json:"session_id"`
	TestID       string    `json:"test_id"`
	UserName     string    `json:"user_name,omitempty"`
	Answered     int       `json:"answered"`
	Total        int       `json:"total"`
	Score        float64   `json:"score"`
	CorrectCount int       `json:"correct_count"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

type SessionSubmitFailedEvent struct {
	SessionID string `json:"session_id"`
	TestID    string `json:"test_id"`
	Trigger   string `json:"trigger"`
	Error     string `json:"error"`
}

type SessionClosedEvent struct {
	SessionID string `json:"session_id"`
	TestID    string `json:"test_id"`
	Mode      string `json:"mode"`
}

type AuthInvalidatedEvent struct {
	UserName   string `json:"user_name,omitempty"`
	Path       string `json:"path"`
	RedirectTo string `json:"redirect_to"`
}

// NewSessionEvent wraps a payload in an envelope
func NewSessionEvent(eventType EventType, data interface{}) *SessionEvent {
	return &SessionEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// GenerateEventID returns a unique event id
func GenerateEventID() string {
	return uuid.NewString()
}
