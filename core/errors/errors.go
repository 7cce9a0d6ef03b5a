// Package errors defines the typed errors shared by the converter packages.
//
// Every type unwraps to one of the sentinels below unless it carries an
// underlying cause, so callers can test the class of a failure with Is and
// its details with As.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound reports a missing language, table, page or file.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput reports malformed markers, rules, tables or settings.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupported reports a language or variant the converter lacks.
	ErrUnsupported = errors.New("unsupported")
	// ErrBadTitle reports text that is not a legal page title.
	ErrBadTitle = errors.New("bad title")
)

func causeOr(err, sentinel error) error {
	if err != nil {
		return err
	}
	return sentinel
}

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string // "language", "conversion table", "site file"...
	ID       string
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return e.Resource + " not found: " + e.ID
}

func (e *NotFoundError) Unwrap() error { return causeOr(e.Err, ErrNotFound) }

// ValidationError reports a rejected value. Field is the setting, JSON key
// or argument it came from.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid: " + e.Message
	}
	return "invalid " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return causeOr(e.Err, ErrInvalidInput) }

// IOError wraps a file system or database failure.
type IOError struct {
	Operation string
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	var b strings.Builder
	b.WriteString(e.Operation)
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports input in a known format that could not be decoded.
type ParseError struct {
	Format  string // "JSON", "xz", "page list"...
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	where := e.Format
	if e.Path != "" {
		where += " in " + e.Path
	}
	return "malformed " + where + ": " + e.Message
}

func (e *ParseError) Unwrap() error { return causeOr(e.Err, ErrInvalidInput) }

// UnsupportedError reports a language or variant with no converter.
type UnsupportedError struct {
	Feature string
	Reason  string
	Err     error
}

func (e *UnsupportedError) Error() string {
	if e.Reason == "" {
		return e.Feature + " is not supported"
	}
	return e.Feature + " is not supported: " + e.Reason
}

func (e *UnsupportedError) Unwrap() error { return causeOr(e.Err, ErrUnsupported) }

// TitleError reports text that could not be parsed into a page title.
type TitleError struct {
	Text   string
	Reason string
	Err    error
}

func (e *TitleError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("bad title %q", e.Text)
	}
	return fmt.Sprintf("bad title %q: %s", e.Text, e.Reason)
}

func (e *TitleError) Unwrap() error { return causeOr(e.Err, ErrBadTitle) }

// NewNotFound returns a NotFoundError for resource id.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidation returns a ValidationError for field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewIO wraps err from operation on path.
func NewIO(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// NewParse returns a ParseError without an underlying cause.
func NewParse(format, path, message string) *ParseError {
	return &ParseError{Format: format, Path: path, Message: message}
}

// NewUnsupported returns an UnsupportedError for feature.
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{Feature: feature, Reason: reason}
}

// NewTitle returns a TitleError for text.
func NewTitle(text, reason string) *TitleError {
	return &TitleError{Text: text, Reason: reason}
}

// Wrap prefixes err with message. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// Is calls errors.Is, so importers of this package need not import both.
func Is(err, target error) bool { return errors.Is(err, target) }

// As calls errors.As.
func As(err error, target any) bool { return errors.As(err, target) }
