package validation

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  error
	}{
		{"table file", "sr.json", nil},
		{"compressed table", "zh-hant.json.xz", nil},
		{"unicode", "測試.json", nil},
		{"empty", "", ErrInvalidFilename},
		{"dot", ".", ErrInvalidFilename},
		{"dot dot", "..", ErrInvalidFilename},
		{"traversal", "../etc.json", ErrInvalidFilename},
		{"backslash", `..\etc.json`, ErrInvalidFilename},
		{"null byte", "sr\x00.json", ErrInvalidFilename},
		{"newline", "sr\n.json", ErrInvalidFilename},
		{"leading hyphen", "-rf.json", ErrInvalidFilename},
		{"too long", strings.Repeat("a", MaxFilenameLength+1), ErrFilenameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateFilename(%q) = %v, want nil", tt.filename, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateFilename(%q) = %v, want %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"relative", "pages/in.html", nil},
		{"absolute", "/tmp/out.html", nil},
		{"stdin", "-", nil},
		{"empty", "", ErrEmptyPath},
		{"null byte", "in\x00.html", ErrInvalidCharacter},
		{"tab", "in\t.html", ErrInvalidCharacter},
		{"too long", strings.Repeat("a", MaxPathLength+1), ErrPathTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePath(%q) = %v, want nil", tt.path, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePath(%q) = %v, want %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestReadAll(t *testing.T) {
	data, err := ReadAll(strings.NewReader("<p>Hello</p>"))
	if err != nil || string(data) != "<p>Hello</p>" {
		t.Errorf("ReadAll() = %q, %v", data, err)
	}

	big := bytes.NewReader(make([]byte, MaxInputSize+1))
	if _, err := ReadAll(big); !errors.Is(err, ErrTooLarge) {
		t.Errorf("ReadAll(oversized) error = %v, want ErrTooLarge", err)
	}
}
