package session

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is closed")

	ErrQuestionNotFound = errors.New("question not found")
	ErrTypeMismatch     = errors.New("question type does not match")
	ErrNotEditable      = errors.New("answers can only change while the test is in progress")
	ErrPromptOpen       = errors.New("a dialog is waiting for an answer")
	ErrNoPrompt         = errors.New("no matching dialog is open")

	ErrSubmitInProgress  = errors.New("submission already in progress")
	ErrAlreadySubmitted  = errors.New("test already submitted")
	ErrNotSubmitted      = errors.New("test has not been submitted")
	ErrInvalidTransition = errors.New("invalid view mode transition")

	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrPageOutOfRange  = errors.New("page out of range")

	ErrTimerStarted = errors.New("timer already started")

	ErrInvalidPayload = errors.New("backend returned an invalid test")
)

// SubmitError wraps a failed backend submission with its trigger
type SubmitError struct {
	Trigger string
	Err     error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s submission failed: %v", e.Trigger, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrPageOutOfRange)
}

// IsConflict checks if error represents a state conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrNotEditable) ||
		errors.Is(err, ErrPromptOpen) ||
		errors.Is(err, ErrNoPrompt) ||
		errors.Is(err, ErrSubmitInProgress) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrNotSubmitted) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrTimerStarted)
}

// IsBadInput checks if error was caused by the caller's input
func IsBadInput(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}
