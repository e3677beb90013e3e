// Package criteria defines the fixed, ordered question sets an evaluation
// run gathers evidence against.
package criteria

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateKey is returned when two questions in a set share a key.
	ErrDuplicateKey = errors.New("criteria: duplicate question key")

	// ErrEmptyField is returned when a question is missing its key or prompt.
	ErrEmptyField = errors.New("criteria: question key and prompt are required")
)

// Question is a single criterion the controller must resolve.
type Question struct {
	Key         string `json:"key" yaml:"key"`
	Prompt      string `json:"prompt" yaml:"prompt"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Set is an ordered, key-unique list of questions. It is fixed for the
// lifetime of a run.
type Set struct {
	Name      string     `json:"name" yaml:"name"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// NewSet validates the questions and returns a set holding a private copy.
func NewSet(name string, questions ...Question) (*Set, error) {
	s := &Set{Name: name, Questions: append([]Question(nil), questions...)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks key uniqueness and required fields.
func (s *Set) Validate() error {
	seen := make(map[string]bool, len(s.Questions))
	for i, q := range s.Questions {
		if strings.TrimSpace(q.Key) == "" || strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("question %d: %w", i, ErrEmptyField)
		}
		if seen[q.Key] {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, q.Key)
		}
		seen[q.Key] = true
	}
	return nil
}

// Len returns the number of questions.
func (s *Set) Len() int { return len(s.Questions) }

// At returns the question at cursor position i.
func (s *Set) At(i int) Question { return s.Questions[i] }

// Keys returns question keys in set order.
func (s *Set) Keys() []string {
	keys := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		keys[i] = q.Key
	}
	return keys
}

// Lookup finds a question by key.
func (s *Set) Lookup(key string) (Question, bool) {
	for _, q := range s.Questions {
		if q.Key == key {
			return q, true
		}
	}
	return Question{}, false
}
