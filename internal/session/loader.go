package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/test-session/internal/cache"
	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/utils"
	"github.com/SAP-F-2025/test-session/internal/validator"
	"golang.org/x/sync/errgroup"
)

// Backend is the part of the quiz backend a test session talks to.
type Backend interface {
	Submitter
	ListQuestions(ctx context.Context, testID models.ID) ([]models.Question, error)
	GetTest(ctx context.Context, testID models.ID) (*models.Test, error)
}

// LoadedTest is a test with its ordered questions.
type LoadedTest struct {
	Test      models.Test       `json:"test"`
	Questions []models.Question `json:"questions"`
}

// Loader fetches a test and its questions, validating what the backend
// returns and caching it for ttl.
type Loader struct {
	backend   Backend
	cache     cache.CacheService
	ttl       time.Duration
	validator *validator.Validator
	logger    utils.Logger
}

func NewLoader(backend Backend, c cache.CacheService, ttl time.Duration, v *validator.Validator, logger utils.Logger) *Loader {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Loader{backend: backend, cache: c, ttl: ttl, validator: v, logger: logger}
}

func testCacheKey(testID models.ID) string {
	return "test:" + testID.String()
}

func (l *Loader) Load(ctx context.Context, testID models.ID) (*LoadedTest, error) {
	if l.cache != nil && l.ttl > 0 {
		var cached LoadedTest
		err := l.cache.Get(ctx, testCacheKey(testID), &cached)
		if err == nil {
			l.logger.Debug("Loaded test from cache", "test_id", testID.String())
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.logger.Warn("Test cache unavailable", "test_id", testID.String(), "error", err)
		}
	}

	var (
		test      *models.Test
		questions []models.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questions, err = l.backend.ListQuestions(gctx, testID)
		if err != nil {
			return fmt.Errorf("failed to load questions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		test, err = l.backend.GetTest(gctx, testID)
		if err != nil {
			return fmt.Errorf("failed to load test: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range questions {
		q := &questions[i]
		if (q.Type == models.ShortAnswer || q.Type == models.FillInTheBlank) && len(q.Options) > 0 {
			l.logger.Warn("Ignoring options on free-text question", "test_id", testID.String(), "question_id", q.ID.String(), "options", len(q.Options))
			q.Options = nil
		}
	}
	if err := l.validator.ValidateQuestions(questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if test.ID == "" {
		test.ID = testID
	}

	loaded := &LoadedTest{Test: *test, Questions: questions}
	if l.cache != nil && l.ttl > 0 {
		if err := l.cache.Set(ctx, testCacheKey(testID), loaded, l.ttl); err != nil {
			l.logger.Warn("Failed to cache test", "test_id", testID.String(), "error", err)
		}
	}
	return loaded, nil
}

// Invalidate drops the cached copy of a test.
func (l *Loader) Invalidate(ctx context.Context, testID models.ID) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Delete(ctx, testCacheKey(testID))
}
