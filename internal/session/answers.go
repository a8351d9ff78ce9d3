package session

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/test-session/internal/models"
)

// AnswerStore maps question ids to answers. It is not safe for concurrent
// use; Session serializes access.
type AnswerStore struct {
	answers map[models.ID]models.Answer
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[models.ID]models.Answer)}
}

// Set merges value into the answer of questionID. Other questions are left
// untouched.
//
//	MULTIPLE_SELECT    value (string) is toggled in the selection
//	FILL_IN_THE_BLANK  value (models.BlankInput) is written at its index
//	anything else      value (string) replaces the stored answer
func (s *AnswerStore) Set(questionID models.ID, value any, questionType models.QuestionType) error {
	switch questionType {
	case models.MultipleSelect:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects a string, got %T", ErrTypeMismatch, questionType, value)
		}
		current, _ := s.answers[questionID].(models.MultiAnswer)
		s.answers[questionID] = current.Toggle(v)
	case models.FillInTheBlank:
		v, ok := value.(models.BlankInput)
		if !ok {
			return fmt.Errorf("%w: %s expects a blank input, got %T", ErrTypeMismatch, questionType, value)
		}
		if v.Index < 0 {
			return fmt.Errorf("%w: negative blank index %d", ErrTypeMismatch, v.Index)
		}
		current, _ := s.answers[questionID].(models.BlankAnswer)
		s.answers[questionID] = current.Set(v.Index, v.Text)
	default:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects a string, got %T", ErrTypeMismatch, questionType, value)
		}
		s.answers[questionID] = models.SingleAnswer{Value: v}
	}
	return nil
}

// Get returns a copy of the stored answer, nil when none was given.
func (s *AnswerStore) Get(questionID models.ID) models.Answer {
	return models.CloneAnswer(s.answers[questionID])
}

// Payloads returns the JSON values of all stored answers.
func (s *AnswerStore) Payloads() map[models.ID]any {
	out := make(map[models.ID]any, len(s.answers))
	for id, a := range s.answers {
		out[id] = a.Payload()
	}
	return out
}

// CountBlanks counts the blank markers in question content.
func CountBlanks(content, marker string) int {
	if marker == "" {
		return 0
	}
	return strings.Count(content, marker)
}

// IsAnswered applies the emptiness rule used by submit validation and the
// palette: nil, empty lists and blank strings are missing, and fill-in
// answers need one non-empty entry per blank marker.
func IsAnswered(q models.Question, a models.Answer, marker string) bool {
	if a == nil {
		return false
	}
	blanks := 0
	if q.Type == models.FillInTheBlank {
		blanks = CountBlanks(q.Content, marker)
	}
	return a.Filled(blanks)
}
