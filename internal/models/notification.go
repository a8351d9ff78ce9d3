package models

import "time"

type NotificationType string
type NotificationPriority int

const (
	NotificationTimeWarning     NotificationType = "time_warning"
	NotificationSubmitted       NotificationType = "submitted"
	NotificationSubmitFailed    NotificationType = "submit_failed"
	NotificationLoadFailed      NotificationType = "load_failed"
	NotificationTokenInvalid    NotificationType = "token_invalid"
	NotificationRedirect        NotificationType = "redirect"
	NotificationSubmitDuplicate NotificationType = "submit_duplicate"

	PriorityLow      NotificationPriority = 1
	PriorityNormal   NotificationPriority = 2
	PriorityHigh     NotificationPriority = 3
	PriorityCritical NotificationPriority = 4
)

type NotificationLevel string

const (
	LevelInfo    NotificationLevel = "info"
	LevelSuccess NotificationLevel = "success"
	LevelWarning NotificationLevel = "warning"
	LevelError   NotificationLevel = "error"
)

// Notification is a user-visible toast. Sessions emit them; the local API
// forwards them to the front end.
type Notification struct {
	SessionID string               `json:"session_id,omitempty"`
	Type      NotificationType     `json:"type"`
	Level     NotificationLevel    `json:"level"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Priority  NotificationPriority `json:"priority"`
	ActionURL *string              `json:"action_url,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}
