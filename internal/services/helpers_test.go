package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/SAP-F-2025/test-session/internal/events"
	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/repositories"
	"github.com/SAP-F-2025/test-session/internal/session"
	"github.com/SAP-F-2025/test-session/internal/validator"
)

// stubBackend serves one fixed test and grades every answer "A" as correct.
type stubBackend struct {
	mu        sync.Mutex
	questions []models.Question
	test      models.Test
	loadErr   error
	submitErr error
	submitted []*models.SubmitRequest
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		test: models.Test{ID: "42", Title: "Go basics", Duration: "30"},
		questions: []models.Question{
			{ID: "1", Content: "Which keyword starts a goroutine?", Type: models.SingleChoice, Options: []string{"A", "B"}},
			{ID: "2", Content: "Go has ___ and ___", Type: models.FillInTheBlank},
		},
	}
}

func (b *stubBackend) ListQuestions(ctx context.Context, testID models.ID) ([]models.Question, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	return b.questions, nil
}

func (b *stubBackend) GetTest(ctx context.Context, testID models.ID) (*models.Test, error) {
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	t := b.test
	return &t, nil
}

func (b *stubBackend) Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmissionResult, error) {
	b.mu.Lock()
	b.submitted = append(b.submitted, req)
	b.mu.Unlock()
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	result := &models.SubmissionResult{Total: len(b.questions)}
	for _, q := range b.questions {
		correct := req.Answers[q.ID] == "A"
		if correct {
			result.CorrectCount++
		}
		result.Details = append(result.Details, models.SubmissionDetail{QuestionID: q.ID, IsCorrect: correct})
	}
	result.Score = float64(result.CorrectCount) * 10 / float64(result.Total)
	return result, nil
}

type stubAuth struct {
	initialized bool
	user        *models.User
}

func (a stubAuth) IsInitialized() bool { return a.initialized }
func (a stubAuth) IsAdmin() bool       { return a.user.IsAdmin() }
func (a stubAuth) User() *models.User  { return a.user }

type serviceFixture struct {
	backend   *stubBackend
	history   *repositories.MemorySessionRecords
	publisher *events.MockEventPublisher
	manager   *session.Manager
	service   SessionService
	events    *SessionEventService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServiceFixture(t *testing.T, auth AuthState) *serviceFixture {
	t.Helper()
	logger := discardLogger()
	f := &serviceFixture{
		backend:   newStubBackend(),
		history:   repositories.NewMemorySessionRecords(),
		publisher: events.NewMockEventPublisher(logger),
	}
	f.events = NewSessionEventService(f.history, f.publisher, logger)

	v := validator.New()
	loader := session.NewLoader(f.backend, nil, 0, v, nil)
	f.manager = session.NewManager(loader, f.backend, session.ManagerConfig{
		Options:   session.Options{WarningAt: 121, PageSize: 1},
		Listeners: []session.Listener{f.events},
		User:      auth.User,
	}, nil)
	t.Cleanup(f.manager.Shutdown)

	f.service = NewSessionService(f.manager, f.history, auth, v,
		NewServiceLogger(logger, LogConfig{Service: "test-session", Component: "sessions"}))
	return f
}

func str(s string) *string { return &s }
