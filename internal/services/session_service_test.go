package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/test-session/internal/events"
	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/repositories"
	"github.com/SAP-F-2025/test-session/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var student = &models.User{ID: "u1", Name: "alice", Role: models.RoleStudent}

func TestSessionService_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("RequiresInitializedContext", func(t *testing.T) {
		f := newServiceFixture(t, stubAuth{initialized: false})
		_, err := f.service.Start(ctx, "42")
		assert.True(t, IsBusinessRule(err))
		assert.Empty(t, f.manager.List())
	})

	t.Run("StartsTimedSession", func(t *testing.T) {
		f := newServiceFixture(t, stubAuth{initialized: true, user: student})
		snap, err := f.service.Start(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, models.ModeDoing, snap.Mode)
		assert.Equal(t, 1800, snap.Remaining)
		assert.Len(t, snap.Questions, 2)

		started := f.publisher.EventsOfType(events.EventSessionStarted)
		require.Len(t, started, 1)
		data := started[0].Data.(events.SessionStartedEvent)
		assert.Equal(t, "alice", data.UserName)
		assert.Equal(t, 2, data.Questions)
	})

	t.Run("LoadFailureCreatesNoSession", func(t *testing.T) {
		f := newServiceFixture(t, stubAuth{initialized: true, user: student})
		f.backend.loadErr = errors.New("no such test")
		_, err := f.service.Start(ctx, "42")
		assert.Error(t, err)
		assert.Empty(t, f.manager.List())
	})
}

func TestSessionService_AnswerAndSubmit(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, stubAuth{initialized: true, user: student})
	snap, err := f.service.Start(ctx, "42")
	require.NoError(t, err)
	id := snap.ID

	_, err = f.service.SetAnswer(ctx, id, "1", &AnswerRequest{Type: models.SingleChoice})
	assert.True(t, IsValidation(err))

	_, err = f.service.SetAnswer(ctx, id, "1", &AnswerRequest{Type: "ESSAY", Value: str("x")})
	assert.True(t, IsValidation(err))

	_, err = f.service.SetAnswer(ctx, id, "1", &AnswerRequest{Type: models.MultipleSelect, Value: str("A")})
	assert.True(t, IsValidation(err))

	snap, err = f.service.SetAnswer(ctx, id, "1", &AnswerRequest{Type: models.SingleChoice, Value: str("A")})
	require.NoError(t, err)
	assert.Equal(t, "A", snap.Answers["1"])

	prompt, err := f.service.RequestSubmit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PromptMissing, prompt.Kind)
	assert.Equal(t, 1, prompt.Missing)
	require.NoError(t, f.service.Acknowledge(ctx, id))

	for i, text := range []string{"goroutines", "channels"} {
		_, err = f.service.SetAnswer(ctx, id, "2", &AnswerRequest{
			Type:  models.FillInTheBlank,
			Blank: &models.BlankInput{Index: i, Text: text},
		})
		require.NoError(t, err)
	}

	prompt, err = f.service.RequestSubmit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PromptConfirm, prompt.Kind)

	result, err := f.service.Confirm(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 5.0, result.Score)

	_, err = f.service.Confirm(ctx, id)
	assert.True(t, IsConflict(err))

	items, err := f.service.Review(ctx, id)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].IsCorrect)

	palette, err := f.service.Palette(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCorrect, palette[0].Status)
	assert.Equal(t, models.StatusIncorrect, palette[1].Status)

	record, err := f.history.GetBySessionID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", record.UserName)
	assert.Equal(t, models.TriggerManual, record.Trigger)
	assert.JSONEq(t, `{"1":"A","2":["goroutines","channels"]}`, string(record.Answers))

	assert.Len(t, f.publisher.EventsOfType(events.EventSessionSubmitted), 1)

	require.NoError(t, f.service.Back(ctx, id))
	_, err = f.service.Get(ctx, id)
	assert.True(t, IsNotFound(err))
	assert.Len(t, f.publisher.EventsOfType(events.EventSessionClosed), 1)
}

func TestSessionService_SubmitFailure(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, stubAuth{initialized: true, user: student})
	f.backend.submitErr = errors.New("gateway timeout")

	snap, err := f.service.Start(ctx, "42")
	require.NoError(t, err)

	sess, err := f.service.Session(snap.ID)
	require.NoError(t, err)
	_, err = sess.AutoSubmit(ctx)
	assert.True(t, IsUpstream(err))

	failed := f.publisher.EventsOfType(events.EventSessionSubmitFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "timer", failed[0].Data.(events.SessionSubmitFailedEvent).Trigger)

	_, err = f.history.GetBySessionID(ctx, snap.ID)
	assert.ErrorIs(t, err, repositories.ErrRecordNotFound)
}

func TestSessionService_Navigation(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, stubAuth{initialized: true, user: student})
	snap, err := f.service.Start(ctx, "42")
	require.NoError(t, err)

	page, err := f.service.Page(ctx, snap.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Questions, 1)
	assert.Equal(t, models.ID("2"), page.Questions[0].ID)

	_, err = f.service.Page(ctx, snap.ID, 3)
	assert.True(t, IsNotFound(err))

	target, err := f.service.JumpTo(ctx, snap.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, target.Page)

	_, err = f.service.ReviewItems(ctx, snap.ID)
	assert.True(t, IsConflict(err))

	_, err = f.service.Palette(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestSessionService_History(t *testing.T) {
	ctx := context.Background()
	seed := func(f *serviceFixture) {
		for i, name := range []string{"alice", "bob"} {
			require.NoError(t, f.history.Create(ctx, &models.SessionRecord{
				SessionID: string(rune('a' + i)),
				TestID:    "42",
				UserName:  name,
			}))
		}
	}

	t.Run("StudentSeesOwnRecords", func(t *testing.T) {
		f := newServiceFixture(t, stubAuth{initialized: true, user: student})
		seed(f)
		records, total, err := f.service.History(ctx, repositories.SessionRecordFilters{UserName: "bob"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "alice", records[0].UserName)
	})

	t.Run("AdminSeesEveryone", func(t *testing.T) {
		f := newServiceFixture(t, stubAuth{initialized: true, user: &models.User{Name: "root", Role: models.RoleAdmin}})
		seed(f)
		_, total, err := f.service.History(ctx, repositories.SessionRecordFilters{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("SignedOut", func(t *testing.T) {
		f := newServiceFixture(t, stubAuth{initialized: true})
		_, _, err := f.service.History(ctx, repositories.SessionRecordFilters{})
		assert.ErrorIs(t, err, ErrNotSignedIn)
	})

	t.Run("InvalidFilters", func(t *testing.T) {
		f := newServiceFixture(t, stubAuth{initialized: true, user: student})
		_, _, err := f.service.History(ctx, repositories.SessionRecordFilters{Limit: 500})
		assert.True(t, IsValidation(err))
	})
}

func TestSessionEventService_Notify(t *testing.T) {
	publisher := events.NewMockEventPublisher(discardLogger())
	svc := NewSessionEventService(nil, publisher, discardLogger())
	route := "/login"

	svc.Notify(context.Background(), models.Notification{Type: models.NotificationTimeWarning})
	svc.Notify(context.Background(), models.Notification{Type: models.NotificationTokenInvalid, ActionURL: &route})

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAuthInvalidated, published[0].Type)
	assert.Equal(t, "/login", published[0].Data.(events.AuthInvalidatedEvent).RedirectTo)
}

func TestSessionEventService_IgnoresTicks(t *testing.T) {
	publisher := events.NewMockEventPublisher(discardLogger())
	svc := NewSessionEventService(nil, publisher, discardLogger())

	svc.HandleSessionEvent(context.Background(), session.Event{Kind: session.EventTick, Remaining: 10})
	svc.HandleSessionEvent(context.Background(), session.Event{Kind: session.EventTimeWarning, SessionID: "s", Remaining: 121})

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, 121, published[0].Data.(events.SessionTimeWarningEvent).SecondsRemaining)
}
