package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/SAP-F-2025/test-session/internal/events"
	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/repositories"
	"github.com/SAP-F-2025/test-session/internal/session"
)

// SessionEventService listens to sessions and the session context. It keeps
// the result history and publishes session events to the broker.
type SessionEventService struct {
	history        repositories.SessionRecordRepository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
}

func NewSessionEventService(
	history repositories.SessionRecordRepository,
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
) *SessionEventService {
	return &SessionEventService{
		history:        history,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// HandleSessionEvent implements session.Listener. Ticks are not published.
func (s *SessionEventService) HandleSessionEvent(ctx context.Context, e session.Event) {
	ctx = context.WithoutCancel(ctx)
	testID := e.TestID.String()

	switch e.Kind {
	case session.EventStarted:
		test := e.Session.Test()
		s.publish(ctx, events.NewSessionEvent(events.EventSessionStarted, events.SessionStartedEvent{
			SessionID: e.SessionID,
			TestID:    testID,
			TestTitle: test.Title,
			UserName:  userName(e.Session.User()),
			Questions: len(e.Session.Questions()),
			Duration:  e.Remaining,
			StartedAt: e.Session.StartedAt(),
		}))

	case session.EventTimeWarning:
		s.publish(ctx, events.NewSessionEvent(events.EventSessionTimeWarning, events.SessionTimeWarningEvent{
			SessionID:        e.SessionID,
			TestID:           testID,
			SecondsRemaining: e.Remaining,
		}))

	case session.EventSubmitted:
		s.record(ctx, e)
		eventType := events.EventSessionSubmitted
		if e.Trigger == models.TriggerTimer {
			eventType = events.EventSessionAutoSubmitted
		}
		total := len(e.Session.Questions())
		s.publish(ctx, events.NewSessionEvent(eventType, events.SessionSubmittedEvent{
			SessionID:    e.SessionID,
			TestID:       testID,
			UserName:     userName(e.Session.User()),
			Answered:     total - e.Session.Missing(),
			Total:        total,
			Score:        e.Result.Score,
			CorrectCount: e.Result.CorrectCount,
			SubmittedAt:  e.Session.SubmittedAt(),
		}))

	case session.EventSubmitFailed:
		errMsg := ""
		if e.Err != nil {
			errMsg = e.Err.Error()
		}
		s.publish(ctx, events.NewSessionEvent(events.EventSessionSubmitFailed, events.SessionSubmitFailedEvent{
			SessionID: e.SessionID,
			TestID:    testID,
			Trigger:   string(e.Trigger),
			Error:     errMsg,
		}))

	case session.EventClosed:
		s.publish(ctx, events.NewSessionEvent(events.EventSessionClosed, events.SessionClosedEvent{
			SessionID: e.SessionID,
			TestID:    testID,
			Mode:      string(e.Session.Mode()),
		}))

	case session.EventLoadFailed:
		s.logger.Warn("Test could not be loaded", "test_id", testID, "error", e.Err)
	}
}

// Notify implements auth.Notifier and publishes forced logouts.
func (s *SessionEventService) Notify(ctx context.Context, n models.Notification) {
	if n.Type != models.NotificationTokenInvalid {
		return
	}
	redirect := ""
	if n.ActionURL != nil {
		redirect = *n.ActionURL
	}
	s.publish(context.WithoutCancel(ctx), events.NewSessionEvent(events.EventAuthInvalidated, events.AuthInvalidatedEvent{
		RedirectTo: redirect,
	}))
}

func (s *SessionEventService) record(ctx context.Context, e session.Event) {
	if s.history == nil || e.Result == nil {
		return
	}
	sess := e.Session

	answers, err := json.Marshal(sess.SubmitRequest().Answers)
	if err != nil {
		s.logger.Error("Failed to encode answers for history", "session_id", e.SessionID, "error", err)
		return
	}
	details, err := json.Marshal(e.Result.Details)
	if err != nil {
		s.logger.Error("Failed to encode details for history", "session_id", e.SessionID, "error", err)
		return
	}

	test := sess.Test()
	record := &models.SessionRecord{
		SessionID:    e.SessionID,
		TestID:       test.ID.String(),
		TestTitle:    test.Title,
		UserName:     userName(sess.User()),
		Trigger:      e.Trigger,
		Score:        e.Result.Score,
		CorrectCount: e.Result.CorrectCount,
		Total:        e.Result.Total,
		Answers:      answers,
		Details:      details,
		TimeSpent:    sess.TimeSpent(),
		StartedAt:    sess.StartedAt(),
		SubmittedAt:  sess.SubmittedAt(),
	}
	if err := s.history.Create(ctx, record); err != nil {
		s.logger.Error("Failed to store session record", "session_id", e.SessionID, "error", err)
		return
	}
	s.logger.Info("Stored session record", "session_id", e.SessionID, "record_id", record.ID)
}

func (s *SessionEventService) publish(ctx context.Context, event *events.SessionEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish session event",
			"event_type", event.Type,
			"error", err)
	}
}

func userName(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}
