package services

import (
	"context"
	"errors"

	apperrors "github.com/SAP-F-2025/test-session/internal/errors"
	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/SAP-F-2025/test-session/internal/repositories"
	"github.com/SAP-F-2025/test-session/internal/session"
	"github.com/SAP-F-2025/test-session/internal/validator"
)

// AuthState is what the test-taking flow needs to know about the signed-in
// user.
type AuthState interface {
	IsInitialized() bool
	IsAdmin() bool
	User() *models.User
}

// AnswerRequest is one answer write. Value carries choice and text answers;
// Blank carries a fill-in-the-blank entry.
type AnswerRequest struct {
	Type  models.QuestionType `json:"type" validate:"required,question_type"`
	Value *string             `json:"value,omitempty"`
	Blank *models.BlankInput  `json:"blank,omitempty"`
}

func (r *AnswerRequest) input() interface{} {
	if r.Type == models.FillInTheBlank {
		if r.Blank == nil {
			return nil
		}
		return *r.Blank
	}
	if r.Value == nil {
		return nil
	}
	return *r.Value
}

type QuestionPage struct {
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	Questions  []models.Question `json:"questions"`
}

type SessionService interface {
	Start(ctx context.Context, testID models.ID) (*models.Snapshot, error)
	Get(ctx context.Context, sessionID string) (*models.Snapshot, error)
	Session(sessionID string) (*session.Session, error)

	SetAnswer(ctx context.Context, sessionID string, questionID models.ID, req *AnswerRequest) (*models.Snapshot, error)
	RequestSubmit(ctx context.Context, sessionID string) (*models.Prompt, error)
	Acknowledge(ctx context.Context, sessionID string) error
	Cancel(ctx context.Context, sessionID string) error
	Confirm(ctx context.Context, sessionID string) (*models.SubmissionResult, error)

	Review(ctx context.Context, sessionID string) ([]models.ReviewItem, error)
	ReviewItems(ctx context.Context, sessionID string) ([]models.ReviewItem, error)
	Back(ctx context.Context, sessionID string) error

	Palette(ctx context.Context, sessionID string) ([]models.PaletteEntry, error)
	JumpTo(ctx context.Context, sessionID string, index int) (*models.ScrollTarget, error)
	Page(ctx context.Context, sessionID string, page int) (*QuestionPage, error)

	History(ctx context.Context, filters repositories.SessionRecordFilters) ([]*models.SessionRecord, int64, error)
}

type sessionService struct {
	manager   *session.Manager
	history   repositories.SessionRecordRepository
	auth      AuthState
	validator *validator.Validator
	logger    *ServiceLogger
}

func NewSessionService(
	manager *session.Manager,
	history repositories.SessionRecordRepository,
	auth AuthState,
	validator *validator.Validator,
	logger *ServiceLogger,
) SessionService {
	return &sessionService{
		manager:   manager,
		history:   history,
		auth:      auth,
		validator: validator,
		logger:    logger,
	}
}

func (s *sessionService) Start(ctx context.Context, testID models.ID) (*models.Snapshot, error) {
	op := s.logger.WithOperation(ctx, "start_session", "")
	if s.auth != nil && !s.auth.IsInitialized() {
		err := NewBusinessRuleError("context_initialized", "the session context is still initializing", nil)
		op.LogResult(testID.String(), err)
		return nil, err
	}

	sess, err := s.manager.Start(ctx, testID)
	if err != nil {
		op.LogResult(testID.String(), err)
		return nil, err
	}
	op.sessionID = sess.ID()
	op.LogResult(testID.String(), nil)

	snap := sess.Snapshot()
	return &snap, nil
}

func (s *sessionService) Session(sessionID string) (*session.Session, error) {
	return s.manager.Get(sessionID)
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.Snapshot, error) {
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *sessionService) SetAnswer(ctx context.Context, sessionID string, questionID models.ID, req *AnswerRequest) (*models.Snapshot, error) {
	op := s.logger.WithOperation(ctx, "set_answer", sessionID)
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		op.LogResult("", err)
		return nil, err
	}

	if err := s.validateAnswer(req); err != nil {
		op.LogResult(sess.Test().ID.String(), err)
		return nil, err
	}

	if err := sess.SetAnswer(questionID, req.input(), req.Type); err != nil {
		op.LogResult(sess.Test().ID.String(), err)
		return nil, err
	}
	snap := sess.Snapshot()
	return &snap, nil
}

func (s *sessionService) validateAnswer(req *AnswerRequest) error {
	if req == nil {
		return ErrBadRequest
	}
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if err := s.validator.Question().ValidateInput(req.Type, req.input()); err != nil {
		var ve *apperrors.ValidationError
		if errors.As(err, &ve) {
			return ValidationErrors{*ve}
		}
		return err
	}
	return nil
}

func (s *sessionService) RequestSubmit(ctx context.Context, sessionID string) (*models.Prompt, error) {
	op := s.logger.WithOperation(ctx, "request_submit", sessionID)
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		op.LogResult("", err)
		return nil, err
	}
	prompt, err := sess.RequestSubmit()
	op.LogResult(sess.Test().ID.String(), err)
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

func (s *sessionService) Acknowledge(ctx context.Context, sessionID string) error {
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		return err
	}
	return sess.Acknowledge()
}

func (s *sessionService) Cancel(ctx context.Context, sessionID string) error {
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		return err
	}
	return sess.Cancel()
}

func (s *sessionService) Confirm(ctx context.Context, sessionID string) (*models.SubmissionResult, error) {
	op := s.logger.WithOperation(ctx, "confirm_submit", sessionID)
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		op.LogResult("", err)
		return nil, err
	}
	result, err := sess.Confirm(ctx)
	op.LogResult(sess.Test().ID.String(), err)
	return result, err
}

func (s *sessionService) Review(ctx context.Context, sessionID string) ([]models.ReviewItem, error) {
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Review(); err != nil {
		return nil, err
	}
	return sess.ReviewItems()
}

func (s *sessionService) ReviewItems(ctx context.Context, sessionID string) ([]models.ReviewItem, error) {
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.ReviewItems()
}

func (s *sessionService) Back(ctx context.Context, sessionID string) error {
	op := s.logger.WithOperation(ctx, "leave_session", sessionID)
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		op.LogResult("", err)
		return err
	}
	err = sess.Back()
	op.LogResult(sess.Test().ID.String(), err)
	return err
}

func (s *sessionService) Palette(ctx context.Context, sessionID string) ([]models.PaletteEntry, error) {
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Palette(), nil
}

func (s *sessionService) JumpTo(ctx context.Context, sessionID string, index int) (*models.ScrollTarget, error) {
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	target, err := sess.JumpTo(index)
	if err != nil {
		return nil, err
	}
	return &target, nil
}

func (s *sessionService) Page(ctx context.Context, sessionID string, page int) (*QuestionPage, error) {
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	questions, err := sess.Page(page)
	if err != nil {
		return nil, err
	}
	return &QuestionPage{Page: page, TotalPages: sess.PageCount(), Questions: questions}, nil
}

// History lists submitted sessions. Non-admins only see their own.
func (s *sessionService) History(ctx context.Context, filters repositories.SessionRecordFilters) ([]*models.SessionRecord, int64, error) {
	if err := s.validator.Validate(&filters); err != nil {
		return nil, 0, err
	}
	if s.auth != nil && !s.auth.IsAdmin() {
		user := s.auth.User()
		if user == nil {
			return nil, 0, ErrNotSignedIn
		}
		filters.UserName = user.Name
	}
	return s.history.List(ctx, filters)
}
