package session

import (
	"context"

	"github.com/SAP-F-2025/test-session/internal/models"
)

type EventKind string

const (
	EventStarted      EventKind = "started"
	EventTick         EventKind = "tick"
	EventTimeWarning  EventKind = "time_warning"
	EventSubmitted    EventKind = "submitted"
	EventSubmitFailed EventKind = "submit_failed"
	EventLoadFailed   EventKind = "load_failed"
	EventClosed       EventKind = "closed"
)

// Event is delivered to listeners after the session lock is released, so
// listeners may call back into the session.
type Event struct {
	Kind         EventKind
	SessionID    string
	TestID       models.ID
	Remaining    int
	Trigger      models.SubmitTrigger
	Result       *models.SubmissionResult
	Err          error
	Notification *models.Notification
	Session      *Session
}

type Listener interface {
	HandleSessionEvent(ctx context.Context, e Event)
}

type ListenerFunc func(ctx context.Context, e Event)

func (f ListenerFunc) HandleSessionEvent(ctx context.Context, e Event) {
	f(ctx, e)
}

func dispatch(ctx context.Context, listeners []Listener, evs []Event) {
	for _, e := range evs {
		for _, l := range listeners {
			l.HandleSessionEvent(ctx, e)
		}
	}
}
