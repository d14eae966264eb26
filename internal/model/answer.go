package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Answer is a single answer value. Scalar questions (multiple choice,
// short answer) carry a string; true/false tables carry an ordered list
// with one entry per row. Exactly one of the two forms is set; a nil
// Parts slice means the scalar form.
type Answer struct {
	Scalar string
	Parts  []string
}

// NewScalarAnswer wraps a plain string answer.
func NewScalarAnswer(s string) Answer {
	return Answer{Scalar: s}
}

// NewMultiAnswer wraps an ordered multi-part answer.
func NewMultiAnswer(parts []string) Answer {
	if parts == nil {
		parts = []string{}
	}
	return Answer{Parts: parts}
}

// IsMulti reports whether the answer is the ordered multi-part form.
func (a Answer) IsMulti() bool {
	return a.Parts != nil
}

// IsEmpty reports whether the answer carries no value at all.
func (a Answer) IsEmpty() bool {
	if a.IsMulti() {
		return len(a.Parts) == 0
	}
	return a.Scalar == ""
}

// MarshalJSON emits the scalar form as a JSON string and the multi-part
// form as a JSON array, so a saved answer map round-trips unchanged.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsMulti() {
		return json.Marshal(a.Parts)
	}
	return json.Marshal(a.Scalar)
}

// UnmarshalJSON accepts either a JSON string or a JSON array of strings.
func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty answer value")
	}

	// AI output sometimes emits null for an unknown answer. Treat it as
	// the empty scalar so normalization applies the default.
	if bytes.Equal(trimmed, []byte("null")) {
		*a = Answer{}
		return nil
	}

	if trimmed[0] == '[' {
		parts := []string{}
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return fmt.Errorf("parse answer list: %w", err)
		}
		a.Scalar = ""
		a.Parts = parts
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return fmt.Errorf("parse answer: %w", err)
	}
	a.Scalar = s
	a.Parts = nil
	return nil
}

// AnswerMap maps a question ID to its answer. encoding/json renders the
// integer keys as JSON object keys ("1", "2", ...), matching the wire
// format clients send.
type AnswerMap map[int]Answer
