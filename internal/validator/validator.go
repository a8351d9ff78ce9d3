package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/test-session/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct tag validation with question shape checks
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// ValidateQuestions checks the struct tags and the shape of every question
// of a loaded test
func (v *Validator) ValidateQuestions(questions []models.Question) error {
	var errs ValidationErrors
	for i := range questions {
		if err := v.Validate(&questions[i]); err != nil {
			if ve, ok := err.(ValidationErrors); ok {
				for _, e := range ve {
					e.Field = indexedField(i, e.Field)
					errs = append(errs, e)
				}
				continue
			}
			return err
		}
	}
	errs = append(errs, v.questionValidator.ValidateBatch(questions)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("user_role", validateUserRole)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	return models.QuestionType(fl.Field().String()).Valid()
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch models.UserRole(fl.Field().String()) {
	case models.RoleStudent, models.RoleTeacher, models.RoleAdmin:
		return true
	}
	return false
}
