package variant

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/FocuswithJustin/wikiconv/core/errors"
)

func writeTable(t *testing.T, dir string, def *Definition, compress bool) string {
	t.Helper()
	name := def.Code + TableExt
	if compress {
		name = def.Code + CompressedTableExt
	}
	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	if err := Encode(&buf, def, compress); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "json"
		if compress {
			name = "xz"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeTable(t, dir, spelling(), compress)

			def, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if def.Code != "xs" || len(def.Variants) != 2 {
				t.Errorf("loaded %s with %d variants", def.Code, len(def.Variants))
			}
			if !reflect.DeepEqual(def.Tables, spelling().Tables) {
				t.Errorf("Tables = %v, want %v", def.Tables, spelling().Tables)
			}
			if def.Level("xs") != Disable {
				t.Errorf("Level(xs) = %q, want %q", def.Level("xs"), Disable)
			}
			if def.Source != path {
				t.Errorf("Source = %q, want %q", def.Source, path)
			}
			data, _ := os.ReadFile(path)
			if def.Fingerprint != Fingerprint(data) || len(def.Fingerprint) != 64 {
				t.Errorf("Fingerprint = %q", def.Fingerprint)
			}
			if got := New(def, Options{}).Translate("color", "xs-gb"); got != "colour" {
				t.Errorf("Translate() = %q, want %q", got, "colour")
			}
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing file: err = %v, want not found", err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0o644)
	_, err := LoadFile(bad)
	var pe *errors.ParseError
	if !errors.As(err, &pe) || pe.Path != bad {
		t.Errorf("bad json: err = %v, want ParseError with path", err)
	}

	badxz := filepath.Join(dir, "bad.json.xz")
	os.WriteFile(badxz, []byte("plain"), 0o644)
	if _, err := LoadFile(badxz); !errors.As(err, &pe) {
		t.Errorf("bad xz: err = %v, want ParseError", err)
	}

	invalid := filepath.Join(dir, "invalid.json")
	os.WriteFile(invalid, []byte(`{"code":"x","variants":[]}`), 0o644)
	var ve *errors.ValidationError
	if _, err := LoadFile(invalid); !errors.As(err, &ve) {
		t.Errorf("invalid table: err = %v, want ValidationError", err)
	}
}

func TestFingerprint(t *testing.T) {
	a, b := Fingerprint([]byte("a")), Fingerprint([]byte("b"))
	if a == b {
		t.Error("different inputs share a fingerprint")
	}
	if a != Fingerprint([]byte("a")) {
		t.Error("fingerprint is not stable")
	}
}

func TestFindAndListTables(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, spelling(), false)
	other := spelling()
	other.Code = "zz"
	other.Variants[0].Code = "zz"
	other.Variants[1].Fallbacks = []string{"zz"}
	other.ManualLevel = nil
	writeTable(t, dir, other, true)
	os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub.json"), 0o755)

	if path, ok := FindTable(dir, "zz"); !ok || !strings.HasSuffix(path, CompressedTableExt) {
		t.Errorf("FindTable(zz) = %q, %v", path, ok)
	}
	if _, ok := FindTable(dir, "en"); ok {
		t.Error("FindTable(en) found a table")
	}
	if _, ok := FindTable("", "xs"); ok {
		t.Error("FindTable with no directory found a table")
	}
	sub := filepath.Join(dir, "sub")
	os.Mkdir(sub, 0o755)
	if _, ok := FindTable(sub, "../zz"); ok {
		t.Error("FindTable(../zz) found a table outside the directory")
	}

	codes, err := ListTables(dir)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if !reflect.DeepEqual(codes, []string{"xs", "zz"}) {
		t.Errorf("ListTables() = %v, want [xs zz]", codes)
	}
	if _, err := ListTables(filepath.Join(dir, "nope")); err == nil {
		t.Error("ListTables(missing) = nil error")
	}
}

func mustEncode(t *testing.T, def *Definition) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, def, false); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return buf.Bytes()
}
