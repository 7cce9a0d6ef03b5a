// Package validation checks the paths, file names and input sizes the
// command line and the table loader accept from users.
package validation

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits on user input.
const (
	// MaxInputSize is the largest HTML fragment or table file read (64 MB).
	MaxInputSize = 64 << 20
	// MaxFilenameLength matches the usual file system name limit.
	MaxFilenameLength = 255
	// MaxPathLength matches Linux PATH_MAX.
	MaxPathLength = 4096
)

var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrTooLarge         = errors.New("input too large")
)

// controlRune returns the first control character in s.
func controlRune(s string) (rune, bool) {
	i := strings.IndexFunc(s, unicode.IsControl)
	if i < 0 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r, true
}

// ValidatePath checks a path given on the command line. "-" is allowed and
// means standard input or output to the caller.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return ErrEmptyPath
	case len(path) > MaxPathLength:
		return ErrPathTooLong
	}
	if r, ok := controlRune(path); ok {
		return fmt.Errorf("%w: %U", ErrInvalidCharacter, r)
	}
	return nil
}

// ValidateFilename checks that name is a single directory entry. Language
// codes become table file names, so a code that fails here has no table.
func ValidateFilename(name string) error {
	var reason string
	switch {
	case name == "":
		return ErrInvalidFilename
	case len(name) > MaxFilenameLength:
		return ErrFilenameTooLong
	case name == "." || name == "..":
		reason = "reserved name"
	case strings.ContainsAny(name, `/\`):
		reason = "contains a path separator"
	case strings.HasPrefix(name, "-"):
		reason = "starts with a hyphen"
	}
	if reason == "" {
		if r, ok := controlRune(name); ok {
			reason = fmt.Sprintf("contains %U", r)
		}
	}
	if reason != "" {
		return fmt.Errorf("%w %q: %s", ErrInvalidFilename, name, reason)
	}
	return nil
}

// ReadAll reads r to the end, failing with ErrTooLarge past MaxInputSize.
func ReadAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	switch {
	case err != nil:
		return nil, err
	case len(data) > MaxInputSize:
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxInputSize)
	}
	return data, nil
}
