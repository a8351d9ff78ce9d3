package session

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestManager(backend *MockBackend, recorder *eventRecorder) *Manager {
	loader := NewLoader(backend, nil, 0, nil, nil)
	return NewManager(loader, backend, ManagerConfig{
		Options:   Options{WarningAt: 121, Clock: newManualClock()},
		Listeners: []Listener{recorder},
		User:      func() *models.User { return &models.User{ID: "u1", Name: "alice"} },
	}, nil)
}

func TestManager_StartAndClose(t *testing.T) {
	backend := &MockBackend{}
	backend.On("ListQuestions", mock.Anything, models.ID("42")).Return(sampleQuestions(), nil)
	backend.On("GetTest", mock.Anything, models.ID("42")).Return(&models.Test{ID: "42", Duration: "10"}, nil)
	recorder := &eventRecorder{}
	m := newTestManager(backend, recorder)

	s, err := m.Start(context.Background(), "42")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, 600, s.Remaining())
	assert.Equal(t, "alice", s.User().Name)
	assert.Equal(t, 1, recorder.Count(EventStarted))

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Len(t, m.List(), 1)

	require.NoError(t, m.Close(s.ID()))
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(s.ID()), ErrSessionNotFound)
	assert.Equal(t, 1, recorder.Count(EventClosed))
}

func TestManager_LoadFailure(t *testing.T) {
	backend := &MockBackend{}
	backendErr := errors.New("test not found")
	backend.On("ListQuestions", mock.Anything, mock.Anything).Return(nil, backendErr)
	backend.On("GetTest", mock.Anything, mock.Anything).Return(nil, backendErr).Maybe()
	recorder := &eventRecorder{}
	m := newTestManager(backend, recorder)

	s, err := m.Start(context.Background(), "404")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, backendErr)
	assert.Empty(t, m.List())

	ev, ok := recorder.Last(EventLoadFailed)
	require.True(t, ok)
	assert.Equal(t, models.ID("404"), ev.TestID)
	require.NotNil(t, ev.Notification)
	assert.Equal(t, models.NotificationLoadFailed, ev.Notification.Type)
	assert.Equal(t, 0, recorder.Count(EventStarted))
}

func TestManager_Shutdown(t *testing.T) {
	backend := &MockBackend{}
	backend.On("ListQuestions", mock.Anything, mock.Anything).Return(sampleQuestions(), nil)
	backend.On("GetTest", mock.Anything, mock.Anything).Return(&models.Test{ID: "42"}, nil)
	recorder := &eventRecorder{}
	m := newTestManager(backend, recorder)

	first, err := m.Start(context.Background(), "42")
	require.NoError(t, err)
	second, err := m.Start(context.Background(), "42")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())

	m.Shutdown()
	assert.True(t, first.Closed())
	assert.True(t, second.Closed())
	assert.Empty(t, m.List())

	_, err = m.Start(context.Background(), "42")
	assert.ErrorIs(t, err, ErrSessionClosed)
}
