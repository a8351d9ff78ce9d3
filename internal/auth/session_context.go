package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/utils"
)

var (
	ErrNotInitialized = errors.New("session context is not initialized")
	ErrTokenRejected  = errors.New("token rejected")
	ErrEmptyToken     = errors.New("token is required")
)

type State string

const (
	StateNew    State = "new"
	StateActive State = "active"
	StateClosed State = "closed"
)

// Notifier receives user-facing notifications raised by the session context.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type NotifierFunc func(ctx context.Context, n models.Notification)

func (f NotifierFunc) Notify(ctx context.Context, n models.Notification) {
	f(ctx, n)
}

type Options struct {
	LoginRoute    string
	RedirectDelay time.Duration
	Now           func() time.Time
}

// SessionContext owns the signed-in credentials. Init reads what was
// persisted, the context is then active until Teardown. An invalid token
// clears the credentials and schedules a redirect to the login route.
type SessionContext struct {
	store     CredentialStore
	verifier  TokenVerifier
	opts      Options
	logger    utils.Logger
	notifiers []Notifier

	mu       sync.RWMutex
	state    State
	creds    *models.Credentials
	redirect *time.Timer
}

func NewSessionContext(store CredentialStore, verifier TokenVerifier, opts Options, logger utils.Logger) *SessionContext {
	if opts.LoginRoute == "" {
		opts.LoginRoute = "/login"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &SessionContext{
		store:    store,
		verifier: verifier,
		opts:     opts,
		logger:   logger.With("component", "auth"),
		state:    StateNew,
	}
}

// AddNotifier must be called before Init.
func (s *SessionContext) AddNotifier(n Notifier) {
	s.notifiers = append(s.notifiers, n)
}

// Init loads persisted credentials. A stored token the verifier rejects is
// dropped; the context still becomes active, signed out.
func (s *SessionContext) Init(ctx context.Context) error {
	creds, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	if creds != nil && creds.Token != "" && s.verifier != nil {
		user, err := s.verifier.Verify(creds.Token)
		if err != nil {
			s.logger.Warn("Dropping stored credentials", "error", err)
			if err := s.store.Clear(ctx); err != nil {
				s.logger.Warn("Failed to clear stored credentials", "error", err)
			}
			creds = nil
		} else {
			creds.User = user
		}
	}
	if creds != nil && creds.Token == "" {
		creds = nil
	}

	s.mu.Lock()
	s.creds = creds
	s.state = StateActive
	s.mu.Unlock()

	s.logger.Info("Session context initialized", "signed_in", creds != nil)
	return nil
}

func (s *SessionContext) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *SessionContext) IsInitialized() bool {
	return s.State() == StateActive
}

// Token returns the bearer token, empty when signed out.
func (s *SessionContext) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.Token
}

// User returns a copy of the signed-in user.
func (s *SessionContext) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil || s.creds.User == nil {
		return nil
	}
	u := *s.creds.User
	return &u
}

func (s *SessionContext) IsAdmin() bool {
	return s.User().IsAdmin()
}

// Login stores a new token. Without a user the verifier derives it.
func (s *SessionContext) Login(ctx context.Context, token string, user *models.User) error {
	if token == "" {
		return ErrEmptyToken
	}
	if !s.IsInitialized() {
		return ErrNotInitialized
	}
	if user == nil && s.verifier != nil {
		var err error
		if user, err = s.verifier.Verify(token); err != nil {
			return err
		}
	}

	creds := &models.Credentials{Token: token, User: user}
	if err := s.store.Save(ctx, creds); err != nil {
		return err
	}

	s.mu.Lock()
	s.creds = creds
	if s.redirect != nil {
		s.redirect.Stop()
		s.redirect = nil
	}
	s.mu.Unlock()

	name := ""
	if user != nil {
		name = user.Name
	}
	s.logger.Info("Signed in", "user", name)
	return nil
}

// Logout clears the credentials from memory and the store.
func (s *SessionContext) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// HandleInvalidToken is called by the backend client when a request was
// rejected for an invalid token. The credentials are cleared, a warning is
// raised and after RedirectDelay a redirect to the login route follows. A
// redirect that is already pending is not scheduled again.
func (s *SessionContext) HandleInvalidToken(ctx context.Context, path string) {
	if err := s.Logout(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("Failed to clear credentials", "error", err)
	}

	s.mu.Lock()
	if s.state == StateClosed || s.redirect != nil {
		s.mu.Unlock()
		return
	}
	route := s.opts.LoginRoute
	s.redirect = time.AfterFunc(s.opts.RedirectDelay, func() {
		s.mu.Lock()
		s.redirect = nil
		closed := s.state == StateClosed
		s.mu.Unlock()
		if closed {
			return
		}
		s.notify(context.Background(), models.Notification{
			Type:      models.NotificationRedirect,
			Level:     models.LevelInfo,
			Title:     "Redirecting",
			Message:   "Redirecting to the login page",
			Priority:  models.PriorityHigh,
			ActionURL: &route,
			CreatedAt: s.opts.Now(),
		})
	})
	s.mu.Unlock()

	s.logger.Warn("Token rejected by backend", "path", path, "redirect_to", route)
	s.notify(ctx, models.Notification{
		Type:      models.NotificationTokenInvalid,
		Level:     models.LevelWarning,
		Title:     "Session expired",
		Message:   "Your login is no longer valid. Please sign in again.",
		Priority:  models.PriorityCritical,
		ActionURL: &route,
		CreatedAt: s.opts.Now(),
	})
}

func (s *SessionContext) notify(ctx context.Context, n models.Notification) {
	for _, notifier := range s.notifiers {
		notifier.Notify(ctx, n)
	}
}

// Teardown ends the lifecycle. Persisted credentials stay for the next Init.
func (s *SessionContext) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redirect != nil {
		s.redirect.Stop()
		s.redirect = nil
	}
	s.creds = nil
	s.state = StateClosed
}
