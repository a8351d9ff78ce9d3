package session

import (
	"context"
	"sync"
	"time"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/stretchr/testify/mock"
)

// manualClock hands out tickers that only fire when the test says so.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *manualClock) NewTicker(time.Duration) Ticker {
	t := &manualTicker{c: make(chan time.Time)}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	return t
}

func (c *manualClock) lastTicker() *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tickers) == 0 {
		return nil
	}
	return c.tickers[len(c.tickers)-1]
}

type manualTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *manualTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Fire delivers one tick; it reports false if nobody received it in time.
func (t *manualTicker) Fire() bool {
	select {
	case t.c <- time.Time{}:
		return true
	case <-time.After(time.Second):
		return false
	}
}

type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmissionResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*models.SubmissionResult)
	return result, args.Error(1)
}

func (m *MockSubmitter) request(i int) *models.SubmitRequest {
	return m.Calls[i].Arguments.Get(1).(*models.SubmitRequest)
}

type MockBackend struct {
	MockSubmitter
}

func (m *MockBackend) ListQuestions(ctx context.Context, testID models.ID) ([]models.Question, error) {
	args := m.Called(ctx, testID)
	questions, _ := args.Get(0).([]models.Question)
	return questions, args.Error(1)
}

func (m *MockBackend) GetTest(ctx context.Context, testID models.ID) (*models.Test, error) {
	args := m.Called(ctx, testID)
	test, _ := args.Get(0).(*models.Test)
	return test, args.Error(1)
}

// eventRecorder collects every event a session dispatches.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) HandleSessionEvent(_ context.Context, e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *eventRecorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *eventRecorder) Last(kind EventKind) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Event{}, false
}

func singleChoice(id, content string) models.Question {
	return models.Question{ID: models.ID(id), Content: content, Type: models.SingleChoice, Options: []string{"A", "B", "C", "D"}}
}

func sampleQuestions() []models.Question {
	return []models.Question{
		singleChoice("1", "Which keyword starts a goroutine?"),
		{ID: "2", Content: "Pick the reference types", Type: models.MultipleSelect, Options: []string{"map", "int", "chan", "struct"}},
		{ID: "3", Content: "Go is ___ typed and ___ collected, with ___ concurrency", Type: models.FillInTheBlank},
	}
}

type sessionFixture struct {
	session   *Session
	submitter *MockSubmitter
	recorder  *eventRecorder
	clock     *manualClock
}

func newFixture(questions []models.Question, duration int) *sessionFixture {
	f := &sessionFixture{
		submitter: &MockSubmitter{},
		recorder:  &eventRecorder{},
		clock:     newManualClock(),
	}
	f.session = New(Params{
		ID:        "session-1",
		Test:      models.Test{ID: "42", Title: "Go basics", Duration: "15"},
		Questions: questions,
		Submitter: f.submitter,
		Listeners: []Listener{f.recorder},
		Options:   Options{WarningAt: 121, PageSize: 2, HeaderOffset: 80, Clock: f.clock},
		Duration:  duration,
	})
	return f
}

func answerAll(f *sessionFixture) {
	_ = f.session.SetAnswer("1", "A", models.SingleChoice)
	_ = f.session.SetAnswer("2", "map", models.MultipleSelect)
	for i, text := range []string{"statically", "garbage", "built-in"} {
		_ = f.session.SetAnswer("3", models.BlankInput{Index: i, Text: text}, models.FillInTheBlank)
	}
}
