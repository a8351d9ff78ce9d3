package services

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/SAP-F-2025/test-session/internal/backend"
	apperrors "github.com/SAP-F-2025/test-session/internal/errors"
	"github.com/SAP-F-2025/test-session/internal/repositories"
	"github.com/SAP-F-2025/test-session/internal/session"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")
	ErrNotSignedIn      = errors.New("not signed in")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, repositories.ErrRecordNotFound) ||
		session.IsNotFound(err) ||
		backend.IsNotFound(err)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotSignedIn) ||
		backend.IsUnauthorized(err)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrBadRequest) || session.IsBadInput(err) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a state conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || session.IsConflict(err)
}

// IsUpstream checks if the backend call itself failed
func IsUpstream(err error) bool {
	var apiErr *backend.APIError
	var submitErr *session.SubmitError
	var urlErr *url.Error
	return errors.As(err, &apiErr) || errors.As(err, &submitErr) || errors.As(err, &urlErr) || errors.Is(err, backend.ErrBadResponse) ||
		errors.Is(err, session.ErrInvalidPayload)
}
