package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/utils"
)

// Submitter sends the complete answer set of a test to the backend.
type Submitter interface {
	Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmissionResult, error)
}

type Options struct {
	WarningAt    int
	BlankMarker  string
	PageSize     int
	HeaderOffset int
	Clock        Clock
}

func (o Options) withDefaults() Options {
	if o.BlankMarker == "" {
		o.BlankMarker = "___"
	}
	if o.PageSize <= 0 {
		o.PageSize = 10
	}
	if o.Clock == nil {
		o.Clock = SystemClock
	}
	return o
}

// Session is one student's run through one test. All state changes are
// serialized on mu; the backend call of a submission runs outside the lock
// behind the submitting latch.
type Session struct {
	id        string
	test      models.Test
	questions []models.Question
	index     map[models.ID]int
	user      *models.User
	opts      Options
	submitter Submitter
	listeners []Listener
	logger    utils.Logger

	mu          sync.Mutex
	answers     *AnswerStore
	mode        models.ViewMode
	closed      bool
	prompt      *models.Prompt
	submitting  bool
	result      *models.SubmissionResult
	cursor      int
	countdown   *Countdown
	timer       *Timer
	startedAt   time.Time
	submittedAt time.Time
	onClose     func(*Session)

	// set when the countdown hit zero while a manual submit was in flight
	expiryPending bool
}

type Params struct {
	ID        string
	Test      models.Test
	Questions []models.Question
	User      *models.User
	Submitter Submitter
	Listeners []Listener
	Logger    utils.Logger
	Options   Options
	// Duration overrides the parsed test duration when positive.
	Duration int
	// DefaultDuration applies when the test duration cannot be parsed.
	DefaultDuration int
}

// New builds a session in "doing" mode. The timer is not running until
// Start is called.
func New(p Params) *Session {
	opts := p.Options.withDefaults()
	logger := p.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	fallback := p.DefaultDuration
	if fallback <= 0 {
		fallback = DefaultDurationSeconds
	}
	duration := p.Duration
	if duration <= 0 {
		duration = ParseDuration(p.Test.Duration, fallback)
	}

	index := make(map[models.ID]int, len(p.Questions))
	for i, q := range p.Questions {
		index[q.ID] = i
	}

	return &Session{
		id:        p.ID,
		test:      p.Test,
		questions: append([]models.Question(nil), p.Questions...),
		index:     index,
		user:      p.User,
		opts:      opts,
		submitter: p.Submitter,
		listeners: p.Listeners,
		logger:    logger.With("session_id", p.ID, "test_id", p.Test.ID.String()),
		answers:   NewAnswerStore(),
		mode:      models.ModeDoing,
		countdown: NewCountdown(duration, opts.WarningAt),
		timer:     NewTimer(opts.Clock),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Test() models.Test { return s.test }

func (s *Session) User() *models.User { return s.user }

func (s *Session) Questions() []models.Question {
	return append([]models.Question(nil), s.questions...)
}

// Start records the start time and launches the countdown.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.startedAt = s.opts.Clock.Now()
	remaining := s.countdown.Remaining()
	s.mu.Unlock()

	if err := s.timer.Start(context.WithoutCancel(ctx), s.tick); err != nil {
		return err
	}

	s.logger.Info("Test session started", "questions", len(s.questions), "duration", remaining)
	dispatch(ctx, s.listeners, []Event{s.event(EventStarted, func(e *Event) { e.Remaining = remaining })})
	return nil
}

func (s *Session) event(kind EventKind, fill func(*Event)) Event {
	e := Event{Kind: kind, SessionID: s.id, TestID: s.test.ID, Session: s}
	if fill != nil {
		fill(&e)
	}
	return e
}

func (s *Session) notification(t models.NotificationType, level models.NotificationLevel, title, message string) *models.Notification {
	return &models.Notification{
		SessionID: s.id,
		Type:      t,
		Level:     level,
		Title:     title,
		Message:   message,
		Priority:  models.PriorityNormal,
		CreatedAt: s.opts.Clock.Now(),
	}
}

// tick is the timer callback. It returns false to end the timer goroutine.
func (s *Session) tick() bool {
	s.mu.Lock()
	if s.closed || s.mode != models.ModeDoing {
		s.mu.Unlock()
		return false
	}
	res := s.countdown.Tick()
	evs := []Event{s.event(EventTick, func(e *Event) { e.Remaining = res.Remaining })}
	if res.Warn {
		n := s.notification(models.NotificationTimeWarning, models.LevelWarning,
			"Time is almost up",
			fmt.Sprintf("Only %d seconds left. Your answers will be submitted automatically when time runs out.", res.Remaining))
		n.Priority = models.PriorityHigh
		evs = append(evs, s.event(EventTimeWarning, func(e *Event) {
			e.Remaining = res.Remaining
			e.Notification = n
		}))
	}
	s.mu.Unlock()

	ctx := context.Background()
	dispatch(ctx, s.listeners, evs)

	if res.Expired {
		s.logger.Info("Time is up, submitting automatically")
		if _, err := s.AutoSubmit(ctx); err != nil {
			s.logger.Warn("Automatic submission failed", "error", err)
		}
		return false
	}
	return true
}

// Remaining returns the seconds left on the countdown.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countdown.Remaining()
}

func (s *Session) Mode() models.ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Result() *models.SubmissionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// TimerDone is closed when the countdown goroutine has exited.
func (s *Session) TimerDone() <-chan struct{} {
	return s.timer.Done()
}

// SetAnswer merges value into the answer of questionID. questionType must
// match the loaded question.
func (s *Session) SetAnswer(questionID models.ID, value any, questionType models.QuestionType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditableLocked(); err != nil {
		return err
	}
	i, ok := s.index[questionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrQuestionNotFound, questionID)
	}
	if q := s.questions[i]; q.Type != questionType {
		return fmt.Errorf("%w: question %s is %s, not %s", ErrTypeMismatch, questionID, q.Type, questionType)
	}
	return s.answers.Set(questionID, value, questionType)
}

func (s *Session) checkEditableLocked() error {
	switch {
	case s.closed:
		return ErrSessionClosed
	case s.mode != models.ModeDoing:
		return ErrNotEditable
	case s.submitting:
		return ErrSubmitInProgress
	case s.prompt != nil:
		return ErrPromptOpen
	}
	return nil
}

// Answer returns a copy of the stored answer for questionID.
func (s *Session) Answer(questionID models.ID) models.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Get(questionID)
}

// Missing counts the questions that do not have a usable answer.
func (s *Session) Missing() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.missingLocked()
}

func (s *Session) missingLocked() int {
	missing := 0
	for _, q := range s.questions {
		if !IsAnswered(q, s.answers.Get(q.ID), s.opts.BlankMarker) {
			missing++
		}
	}
	return missing
}

// RequestSubmit opens the pre-submit dialog: a blocking notice when
// questions are unanswered, otherwise a confirmation.
func (s *Session) RequestSubmit() (models.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return models.Prompt{}, ErrSessionClosed
	case s.mode != models.ModeDoing:
		return models.Prompt{}, ErrAlreadySubmitted
	case s.submitting:
		return models.Prompt{}, ErrSubmitInProgress
	}

	var p models.Prompt
	if missing := s.missingLocked(); missing > 0 {
		p = models.Prompt{
			Kind:    models.PromptMissing,
			Missing: missing,
			Message: fmt.Sprintf("You have %d unanswered question(s). Please answer every question before submitting.", missing),
		}
	} else {
		p = models.Prompt{
			Kind:    models.PromptConfirm,
			Message: "Are you sure you want to submit your test?",
		}
	}
	s.prompt = &p
	return p, nil
}

// Prompt returns the open dialog, if any.
func (s *Session) Prompt() *models.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prompt == nil {
		return nil
	}
	p := *s.prompt
	return &p
}

// Acknowledge closes the unanswered-questions notice.
func (s *Session) Acknowledge() error {
	return s.closePrompt(models.PromptMissing)
}

// Cancel dismisses the confirmation dialog without submitting.
func (s *Session) Cancel() error {
	return s.closePrompt(models.PromptConfirm)
}

func (s *Session) closePrompt(kind models.PromptKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prompt == nil || s.prompt.Kind != kind {
		return ErrNoPrompt
	}
	s.prompt = nil
	return nil
}

// Confirm answers the confirmation dialog and submits.
func (s *Session) Confirm(ctx context.Context) (*models.SubmissionResult, error) {
	s.mu.Lock()
	if s.prompt == nil || s.prompt.Kind != models.PromptConfirm {
		s.mu.Unlock()
		return nil, ErrNoPrompt
	}
	s.mu.Unlock()
	return s.submit(ctx, models.TriggerManual)
}

// AutoSubmit submits whatever has been answered, without validation or
// confirmation. The timer calls it when time runs out.
func (s *Session) AutoSubmit(ctx context.Context) (*models.SubmissionResult, error) {
	return s.submit(ctx, models.TriggerTimer)
}

// SubmitRequest builds the payload: one entry per question, nil for
// unanswered ones.
func (s *Session) SubmitRequest() *models.SubmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitRequestLocked()
}

func (s *Session) submitRequestLocked() *models.SubmitRequest {
	answers := make(models.AnswerMap, len(s.questions))
	for _, q := range s.questions {
		if a := s.answers.Get(q.ID); a != nil {
			answers[q.ID] = a.Payload()
		} else {
			answers[q.ID] = nil
		}
	}
	return &models.SubmitRequest{TestID: s.test.ID, Answers: answers}
}

func (s *Session) submit(ctx context.Context, trigger models.SubmitTrigger) (*models.SubmissionResult, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return nil, ErrSessionClosed
	case s.mode != models.ModeDoing:
		s.mu.Unlock()
		s.logger.Warn("Duplicate submission blocked", "trigger", trigger, "reason", "already submitted")
		return nil, ErrAlreadySubmitted
	case s.submitting:
		if trigger == models.TriggerTimer {
			s.expiryPending = true
		}
		s.mu.Unlock()
		s.logger.Warn("Duplicate submission blocked", "trigger", trigger, "reason", "in flight")
		return nil, ErrSubmitInProgress
	}
	s.submitting = true
	s.prompt = nil
	req := s.submitRequestLocked()
	s.mu.Unlock()

	start := time.Now()
	result, err := s.submitter.Submit(ctx, req)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		expired := s.expiryPending && trigger != models.TriggerTimer
		s.expiryPending = false
		serr := &SubmitError{Trigger: string(trigger), Err: err}
		n := s.notification(models.NotificationSubmitFailed, models.LevelError,
			"Submission failed", fmt.Sprintf("Could not submit your test: %v. Please try again.", err))
		ev := s.event(EventSubmitFailed, func(e *Event) {
			e.Trigger = trigger
			e.Err = serr
			e.Notification = n
		})
		s.mu.Unlock()

		s.logger.Error("Submission failed", "trigger", trigger, "duration", time.Since(start), "error", err)
		dispatch(ctx, s.listeners, []Event{ev})
		if expired {
			s.logger.Info("Time ran out during submission, submitting automatically")
			if _, aerr := s.submit(context.WithoutCancel(ctx), models.TriggerTimer); aerr != nil {
				s.logger.Warn("Automatic submission failed", "error", aerr)
			}
		}
		return nil, serr
	}

	s.expiryPending = false
	s.result = result
	s.mode = models.ModeSummary
	s.cursor = 0
	s.submittedAt = s.opts.Clock.Now()
	s.timer.Stop()
	remaining := s.countdown.Remaining()
	n := s.notification(models.NotificationSubmitted, models.LevelSuccess,
		"Test submitted", fmt.Sprintf("Score: %v (%d/%d correct)", result.Score, result.CorrectCount, result.Total))
	ev := s.event(EventSubmitted, func(e *Event) {
		e.Trigger = trigger
		e.Result = result
		e.Remaining = remaining
		e.Notification = n
	})
	s.mu.Unlock()

	s.logger.Info("Test submitted",
		"trigger", trigger,
		"score", result.Score,
		"correct", result.CorrectCount,
		"total", result.Total,
		"duration", time.Since(start))
	dispatch(ctx, s.listeners, []Event{ev})
	return result, nil
}

// Review moves from the summary to the per-question review.
func (s *Session) Review() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return ErrSessionClosed
	case s.mode == models.ModeReview:
		return nil
	case s.mode != models.ModeSummary:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.mode, models.ModeReview)
	}
	s.mode = models.ModeReview
	s.cursor = 0
	return nil
}

// ViewDetails is the "view details" action of the summary; it leads to the
// same review.
func (s *Session) ViewDetails() error {
	return s.Review()
}

// Back leaves a submitted session. It never returns to "doing".
func (s *Session) Back() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.mode == models.ModeDoing {
		s.mu.Unlock()
		return fmt.Errorf("%w: back is only available after submission", ErrInvalidTransition)
	}
	s.mu.Unlock()
	s.Close()
	return nil
}

// Close tears the session down from any state: the timer is cancelled and
// no further changes are accepted. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.prompt = nil
	s.timer.Stop()
	mode := s.mode
	onClose := s.onClose
	ev := s.event(EventClosed, nil)
	s.mu.Unlock()

	s.logger.Info("Test session closed", "mode", mode)
	if onClose != nil {
		onClose(s)
	}
	dispatch(context.Background(), s.listeners, []Event{ev})
}

// ReviewItems pairs every question with the student's answer and the
// backend's verdict. A question without a detail counts as incorrect.
func (s *Session) ReviewItems() ([]models.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil, ErrNotSubmitted
	}
	items := make([]models.ReviewItem, 0, len(s.questions))
	for i, q := range s.questions {
		item := models.ReviewItem{Index: i, Question: q, Status: models.StatusIncorrect}
		if a := s.answers.Get(q.ID); a != nil {
			item.Answer = a.Payload()
		}
		if d, ok := s.result.Detail(q.ID); ok {
			item.IsCorrect = d.IsCorrect
			item.Solution = d.Solution
			if len(d.CorrectAnswer) > 0 {
				item.CorrectAnswer = d.CorrectAnswer
			}
			if d.IsCorrect {
				item.Status = models.StatusCorrect
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Snapshot copies the observable state.
func (s *Session) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := models.Snapshot{
		ID:         s.id,
		Test:       s.test,
		Mode:       s.mode,
		Closed:     s.closed,
		Remaining:  s.countdown.Remaining(),
		Cursor:     s.cursor,
		Questions:  append([]models.Question(nil), s.questions...),
		Answers:    s.answers.Payloads(),
		Result:     s.result,
		Submitting: s.submitting,
	}
	if s.prompt != nil {
		p := *s.prompt
		snap.Prompt = &p
	}
	return snap
}

// TimeSpent is the number of seconds between start and submission, or
// until now while the test is still running.
func (s *Session) TimeSpent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := s.submittedAt
	if end.IsZero() {
		end = s.opts.Clock.Now()
	}
	if s.startedAt.IsZero() {
		return 0
	}
	return int(end.Sub(s.startedAt) / time.Second)
}

func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

func (s *Session) SubmittedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submittedAt
}

func (s *Session) setOnClose(f func(*Session)) {
	s.mu.Lock()
	s.onClose = f
	s.mu.Unlock()
}
