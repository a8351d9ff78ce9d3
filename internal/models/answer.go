package models

import (
	"encoding/json"
	"strings"
)

// Answer is the value a student has given to one question. The concrete
// type follows the question type:
//
//	SingleAnswer  SINGLE_CHOICE, TRUE_FALSE, SHORT_ANSWER
//	MultiAnswer   MULTIPLE_SELECT
//	BlankAnswer   FILL_IN_THE_BLANK
type Answer interface {
	// Payload is the JSON value sent to the backend for this answer.
	Payload() any
	// Filled reports whether the answer counts as given. blanks is the number
	// of blank markers in the question content and only matters for BlankAnswer.
	Filled(blanks int) bool
	clone() Answer
}

type SingleAnswer struct {
	Value string
}

func (a SingleAnswer) Payload() any { return a.Value }

func (a SingleAnswer) Filled(int) bool {
	return strings.TrimSpace(a.Value) != ""
}

func (a SingleAnswer) clone() Answer { return a }

// MultiAnswer holds the selected options of a MULTIPLE_SELECT question in
// selection order. Values never contain duplicates.
type MultiAnswer struct {
	Values []string
}

func (a MultiAnswer) Payload() any { return append([]string{}, a.Values...) }

func (a MultiAnswer) Filled(int) bool {
	return len(a.Values) > 0
}

func (a MultiAnswer) Contains(value string) bool {
	for _, v := range a.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Toggle adds value when absent and removes it when present.
func (a MultiAnswer) Toggle(value string) MultiAnswer {
	out := make([]string, 0, len(a.Values)+1)
	found := false
	for _, v := range a.Values {
		if v == value {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, value)
	}
	return MultiAnswer{Values: out}
}

func (a MultiAnswer) clone() Answer { return MultiAnswer{Values: append([]string{}, a.Values...)} }

// BlankAnswer holds fill-in texts aligned to the blank markers of the content.
type BlankAnswer struct {
	Values []string
}

func (a BlankAnswer) Payload() any { return append([]string{}, a.Values...) }

// Filled reports whether every blank position holds text. Without blank
// markers one non-empty entry is enough; entries past the last blank never
// count.
func (a BlankAnswer) Filled(blanks int) bool {
	if blanks <= 0 {
		for _, v := range a.Values {
			if strings.TrimSpace(v) != "" {
				return true
			}
		}
		return false
	}
	if len(a.Values) < blanks {
		return false
	}
	for _, v := range a.Values[:blanks] {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Set writes text at index, padding with empty slots as needed.
func (a BlankAnswer) Set(index int, text string) BlankAnswer {
	size := len(a.Values)
	if index >= size {
		size = index + 1
	}
	out := make([]string, size)
	copy(out, a.Values)
	out[index] = text
	return BlankAnswer{Values: out}
}

func (a BlankAnswer) clone() Answer { return BlankAnswer{Values: append([]string{}, a.Values...)} }

// CloneAnswer returns a deep copy so callers cannot mutate session state.
func CloneAnswer(a Answer) Answer {
	if a == nil {
		return nil
	}
	return a.clone()
}

// BlankInput is the write value for FILL_IN_THE_BLANK questions.
type BlankInput struct {
	Index int    `json:"index" validate:"min=0,max=255"`
	Text  string `json:"text"`
}

// AnswerMap is the full answer set sent on submission: one entry per
// question, nil for unanswered questions.
type AnswerMap map[ID]any

func (m AnswerMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m))
	for id, v := range m {
		out[string(id)] = v
	}
	return json.Marshal(out)
}
