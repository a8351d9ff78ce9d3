package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "SINGLE_CHOICE"
	MultipleSelect QuestionType = "MULTIPLE_SELECT"
	TrueFalse      QuestionType = "TRUE_FALSE"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
	FillInTheBlank QuestionType = "FILL_IN_THE_BLANK"
)

// QuestionTypes lists every type tag the backend may send.
var QuestionTypes = []QuestionType{
	SingleChoice,
	MultipleSelect,
	TrueFalse,
	ShortAnswer,
	FillInTheBlank,
}

func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// HasOptions reports whether questions of this type carry an option list.
func (t QuestionType) HasOptions() bool {
	return t == SingleChoice || t == MultipleSelect || t == TrueFalse
}

// ID is a backend identifier of a question or test. The backend emits it as
// a JSON number, older endpoints as a string; both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid question id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so the backend sees its own type.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string {
	return string(id)
}

type Question struct {
	ID      ID           `json:"id" validate:"required"`
	Content string       `json:"content" validate:"required"`
	Type    QuestionType `json:"type" validate:"required,question_type"`
	Options []string     `json:"options,omitempty"`
	Image   *string      `json:"image,omitempty"`
}

// Test is the metadata of a timed test as served by the backend.
type Test struct {
	ID         ID     `json:"id"`
	Title      string `json:"title"`
	Duration   string `json:"duration"`
	GradeLevel string `json:"gradeLevel,omitempty"`
}
