package model

import "fmt"

// ValidationError reports malformed or inconsistent input detected before
// solving. Solving is never attempted when one is returned.
type ValidationError struct {
	Entity string `json:"entity"` // e.g. "doctor", "session"
	Key    string `json:"key,omitempty"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	msg := "invalid " + e.Entity
	if e.Key != "" {
		msg += fmt.Sprintf(" %q", e.Key)
	}
	if e.Field != "" {
		msg += ": " + e.Field
	}
	return msg + ": " + e.Reason
}

func invalid(entity, key, field, reason string) *ValidationError {
	return &ValidationError{Entity: entity, Key: key, Field: field, Reason: reason}
}
