package validator

import (
	"fmt"
	"strconv"

	apperrors "github.com/SAP-F-2025/test-session/internal/errors"
	"github.com/SAP-F-2025/test-session/internal/models"
)

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion checks that choice questions carry options. Options on
// free-text questions are left to the caller to drop.
func (v *QuestionValidator) ValidateQuestion(question *models.Question) *ValidationError {
	switch question.Type {
	case models.SingleChoice, models.MultipleSelect:
		if len(question.Options) == 0 {
			return apperrors.NewValidationErrorWithRule("options", "is required for choice questions", "choice_options", question.ID)
		}
	}
	return nil
}

// ValidateBatch validates every question and rejects duplicate ids
func (v *QuestionValidator) ValidateBatch(questions []models.Question) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[models.ID]bool, len(questions))
	for i := range questions {
		q := &questions[i]
		if err := v.ValidateQuestion(q); err != nil {
			err.Field = indexedField(i, err.Field)
			errs = append(errs, *err)
		}
		if seen[q.ID] {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(indexedField(i, "id"), "must be unique within a test", "unique_id", q.ID))
		}
		seen[q.ID] = true
	}
	return errs
}

// ValidateInput checks that an answer write has the shape its question type expects
func (v *QuestionValidator) ValidateInput(questionType models.QuestionType, value interface{}) error {
	switch questionType {
	case models.FillInTheBlank:
		input, ok := value.(models.BlankInput)
		if !ok {
			return apperrors.NewValidationErrorWithRule("value", "must be {index, text} for fill-in-the-blank questions", "blank_input", value)
		}
		if input.Index < 0 {
			return apperrors.NewValidationErrorWithRule("value.index", "must not be negative", "min", input.Index)
		}
	case models.SingleChoice, models.MultipleSelect, models.TrueFalse, models.ShortAnswer:
		if _, ok := value.(string); !ok {
			return apperrors.NewValidationErrorWithRule("value", "must be a string", "string", value)
		}
	default:
		return apperrors.NewValidationErrorWithRule("type", fmt.Sprintf("unsupported question type %q", questionType), "question_type", questionType)
	}
	return nil
}

func indexedField(index int, field string) string {
	return "questions[" + strconv.Itoa(index) + "]." + field
}
