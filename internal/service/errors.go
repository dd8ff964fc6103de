package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound covers both a missing document and one owned by another
	// user; callers cannot tell the two apart.
	ErrNotFound = errors.New("document not found")

	// ErrFileMissing means the document row exists but its backing file is
	// gone (row/file drift).
	ErrFileMissing = errors.New("file not found on server")

	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries one or more field-level failures. It is returned
// before any storage or repository I/O happens.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func fieldErr(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
