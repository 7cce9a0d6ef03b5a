package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	cause := fs.ErrPermission
	tests := []struct {
		name     string
		err      error
		want     string
		sentinel error
	}{
		{
			name:     "language not found",
			err:      NewNotFound("language", "zh"),
			want:     "language not found: zh",
			sentinel: ErrNotFound,
		},
		{
			name:     "table not found without id",
			err:      &NotFoundError{Resource: "conversion table"},
			want:     "conversion table not found",
			sentinel: ErrNotFound,
		},
		{
			name:     "marker",
			err:      NewValidation("marker", "does not match the strip marker pattern"),
			want:     "invalid marker: does not match the strip marker pattern",
			sentinel: ErrInvalidInput,
		},
		{
			name:     "validation without field",
			err:      &ValidationError{Message: "empty rule"},
			want:     "invalid: empty rule",
			sentinel: ErrInvalidInput,
		},
		{
			name:     "read table",
			err:      NewIO("read", "/tables/sr.json", cause),
			want:     "read /tables/sr.json: permission denied",
			sentinel: fs.ErrPermission,
		},
		{
			name:     "write stdout",
			err:      NewIO("write", "", cause),
			want:     "write: permission denied",
			sentinel: fs.ErrPermission,
		},
		{
			name:     "table json",
			err:      NewParse("JSON", "sr.json", "unexpected end of input"),
			want:     "malformed JSON in sr.json: unexpected end of input",
			sentinel: ErrInvalidInput,
		},
		{
			name:     "page list",
			err:      NewParse("page list", "", "line 3: bad page id"),
			want:     "malformed page list: line 3: bad page id",
			sentinel: ErrInvalidInput,
		},
		{
			name:     "variant",
			err:      NewUnsupported("variant zh-tw", "not a variant of sr"),
			want:     "variant zh-tw is not supported: not a variant of sr",
			sentinel: ErrUnsupported,
		},
		{
			name:     "language",
			err:      NewUnsupported("language xx", ""),
			want:     "language xx is not supported",
			sentinel: ErrUnsupported,
		},
		{
			name:     "title",
			err:      NewTitle("Foo[Bar]", "contains illegal characters"),
			want:     `bad title "Foo[Bar]": contains illegal characters`,
			sentinel: ErrBadTitle,
		},
		{
			name:     "empty title",
			err:      NewTitle("", ""),
			want:     `bad title ""`,
			sentinel: ErrBadTitle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !Is(tt.err, tt.sentinel) {
				t.Errorf("Is(%v, %v) = false", tt.err, tt.sentinel)
			}
		})
	}
}

func TestCauseReplacesSentinel(t *testing.T) {
	cause := fmt.Errorf("disk error")
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", &NotFoundError{Resource: "file", Err: cause}, ErrNotFound},
		{"validation", &ValidationError{Field: "pattern", Err: cause}, ErrInvalidInput},
		{"parse", &ParseError{Format: "xz", Err: cause}, ErrInvalidInput},
		{"unsupported", &UnsupportedError{Feature: "x", Err: cause}, ErrUnsupported},
		{"title", &TitleError{Text: "x", Err: cause}, ErrBadTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !Is(tt.err, cause) {
				t.Errorf("Is(cause) = false")
			}
			if Is(tt.err, tt.sentinel) {
				t.Errorf("Is(%v) = true with an explicit cause", tt.sentinel)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "loading sr") != nil {
		t.Error("Wrap(nil) != nil")
	}
	if Wrapf(nil, "loading %s", "sr") != nil {
		t.Error("Wrapf(nil) != nil")
	}

	err := Wrapf(NewNotFound("language", "sr"), "loading %s", "sr")
	if got := err.Error(); got != "loading sr: language not found: sr" {
		t.Errorf("Wrapf() = %q", got)
	}
	var nf *NotFoundError
	if !As(err, &nf) || nf.ID != "sr" {
		t.Errorf("As() did not find the NotFoundError in %v", err)
	}
	if !errors.Is(Wrap(err, "convert"), ErrNotFound) {
		t.Error("sentinel lost after two wraps")
	}
}
