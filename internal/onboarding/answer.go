package onboarding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Answer is the value recorded for one question: either a single option or an
// ordered sequence of options. The zero Answer is an absent single answer.
type Answer struct {
	multi  bool
	value  string
	values []string
}

// Single builds a single-option answer.
func Single(value string) Answer {
	return Answer{value: value}
}

// Multi builds a sequence answer, keeping the given order.
func Multi(values ...string) Answer {
	return Answer{multi: true, values: slices.Clone(values)}
}

// IsMulti reports whether the answer is a sequence.
func (a Answer) IsMulti() bool {
	return a.multi
}

// Value returns the selected option of a single answer.
func (a Answer) Value() string {
	if a.multi {
		return ""
	}
	return a.value
}

// Values returns the selected options in selection order. A single answer
// yields a one-element slice, or nil when empty.
func (a Answer) Values() []string {
	if a.multi {
		return slices.Clone(a.values)
	}
	if a.value == "" {
		return nil
	}
	return []string{a.value}
}

// Satisfied reports whether the answer lets the flow move past its question.
func (a Answer) Satisfied() bool {
	if a.multi {
		return len(a.values) > 0
	}
	return a.value != ""
}

// Contains reports whether option is part of the answer.
func (a Answer) Contains(option string) bool {
	if a.multi {
		return slices.Contains(a.values, option)
	}
	return a.value != "" && a.value == option
}

// Toggle removes option from a sequence answer if present and appends it
// otherwise. The receiver is left untouched.
func (a Answer) Toggle(option string) Answer {
	current := a.Values()
	if idx := slices.Index(current, option); idx >= 0 {
		return Answer{multi: true, values: slices.Delete(current, idx, idx+1)}
	}
	return Answer{multi: true, values: append(current, option)}
}

// Equal compares answers by shape and content.
func (a Answer) Equal(other Answer) bool {
	if a.multi != other.multi {
		return false
	}
	if a.multi {
		return slices.Equal(a.values, other.values)
	}
	return a.value == other.value
}

// String renders the answer for logs and terminal output.
func (a Answer) String() string {
	if a.multi {
		return fmt.Sprintf("%q", a.values)
	}
	return fmt.Sprintf("%q", a.value)
}

// MarshalJSON encodes single answers as strings and sequences as arrays.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.multi {
		values := a.values
		if values == nil {
			values = []string{}
		}
		return json.Marshal(values)
	}
	return json.Marshal(a.value)
}

// UnmarshalJSON restores the shape written by MarshalJSON.
func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("onboarding: empty answer")
	}
	switch trimmed[0] {
	case '[':
		var values []string
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return fmt.Errorf("onboarding: decode answer list: %w", err)
		}
		if values == nil {
			values = []string{}
		}
		*a = Answer{multi: true, values: values}
	case '"':
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return fmt.Errorf("onboarding: decode answer: %w", err)
		}
		*a = Answer{value: value}
	default:
		return fmt.Errorf("onboarding: answer must be a string or a list of strings, got %s", trimmed)
	}
	return nil
}

// Answers maps question IDs to their recorded answer.
type Answers map[string]Answer

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for id, answer := range a {
		if answer.multi {
			answer.values = slices.Clone(answer.values)
		}
		out[id] = answer
	}
	return out
}

// Get returns the answer for id.
func (a Answers) Get(id string) (Answer, bool) {
	answer, ok := a[id]
	return answer, ok
}

// Equal compares two answer sets entry by entry.
func (a Answers) Equal(other Answers) bool {
	if len(a) != len(other) {
		return false
	}
	for id, answer := range a {
		candidate, ok := other[id]
		if !ok || !answer.Equal(candidate) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the set as a JSON object keyed by question ID.
func (a Answers) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Answer(a))
}

// UnmarshalJSON reads a JSON object keyed by question ID.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var raw map[string]Answer
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		raw = map[string]Answer{}
	}
	*a = Answers(raw)
	return nil
}
