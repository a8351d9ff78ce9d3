package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/utils"
	"github.com/google/uuid"
)

// UserFunc reports the signed-in user, nil when there is none.
type UserFunc func() *models.User

type ManagerConfig struct {
	Options         Options
	DefaultDuration int
	Listeners       []Listener
	User            UserFunc
}

// Manager owns the live sessions of this process.
type Manager struct {
	loader    *Loader
	submitter Submitter
	cfg       ManagerConfig
	logger    utils.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

func NewManager(loader *Loader, submitter Submitter, cfg ManagerConfig, logger utils.Logger) *Manager {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Manager{
		loader:    loader,
		submitter: submitter,
		cfg:       cfg,
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
}

// AddListener registers a listener for sessions started afterwards.
func (m *Manager) AddListener(l Listener) {
	m.mu.Lock()
	m.cfg.Listeners = append(m.cfg.Listeners, l)
	m.mu.Unlock()
}

// Start loads a test and begins a timed session for it. A load failure is
// reported to listeners and no session is created.
func (m *Manager) Start(ctx context.Context, testID models.ID) (*Session, error) {
	m.mu.RLock()
	closed := m.closed
	listeners := append([]Listener(nil), m.cfg.Listeners...)
	m.mu.RUnlock()
	if closed {
		return nil, ErrSessionClosed
	}

	loaded, err := m.loader.Load(ctx, testID)
	if err != nil {
		m.logger.Error("Failed to load test", "test_id", testID.String(), "error", err)
		n := &models.Notification{
			Type:      models.NotificationLoadFailed,
			Level:     models.LevelError,
			Title:     "Could not load the test",
			Message:   err.Error(),
			Priority:  models.PriorityHigh,
			CreatedAt: m.cfg.Options.withDefaults().Clock.Now(),
		}
		dispatch(ctx, listeners, []Event{{Kind: EventLoadFailed, TestID: testID, Err: err, Notification: n}})
		return nil, err
	}

	var user *models.User
	if m.cfg.User != nil {
		user = m.cfg.User()
	}

	s := New(Params{
		ID:              uuid.NewString(),
		Test:            loaded.Test,
		Questions:       loaded.Questions,
		User:            user,
		Submitter:       m.submitter,
		Listeners:       listeners,
		Logger:          m.logger,
		Options:         m.cfg.Options,
		DefaultDuration: m.cfg.DefaultDuration,
	})
	s.setOnClose(m.forget)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	if err := s.Start(ctx); err != nil {
		m.forget(s)
		return nil, fmt.Errorf("failed to start session timer: %w", err)
	}
	return s, nil
}

func (m *Manager) forget(s *Session) {
	m.mu.Lock()
	delete(m.sessions, s.ID())
	m.mu.Unlock()
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns the live sessions ordered by start time.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt().Before(out[j].StartedAt()) })
	return out
}

// Close tears down one session.
func (m *Manager) Close(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.Close()
	return nil
}

// Shutdown closes every session and refuses new ones.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	m.logger.Info("Session manager stopped", "closed_sessions", len(sessions))
}
