package variant

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/wikiconv/core/errors"
	"github.com/FocuswithJustin/wikiconv/internal/validation"
)

// Table file extensions, in lookup order.
const (
	TableExt           = ".json"
	CompressedTableExt = ".json.xz"
)

// Fingerprint returns the hex BLAKE3 hash of data.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LoadFile reads a definition from a .json or .json.xz table file. The
// fingerprint is taken over the file as stored.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("conversion table", path)
		}
		return nil, errors.NewIO("read", path, err)
	}
	def, err := Decode(bytes.NewReader(data), strings.HasSuffix(path, ".xz"))
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	def.Fingerprint = Fingerprint(data)
	def.Source = path
	return def, nil
}

// Decode reads a definition from r, decompressing it when compressed is
// set, and validates it.
func Decode(r io.Reader, compressed bool) (*Definition, error) {
	if compressed {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, &errors.ParseError{Format: "conversion table", Message: "not valid xz: " + err.Error(), Err: err}
		}
		r = xr
	}
	def := &Definition{}
	dec := json.NewDecoder(r)
	if err := dec.Decode(def); err != nil {
		return nil, &errors.ParseError{Format: "conversion table", Message: err.Error(), Err: err}
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Encode writes def as a table file, xz-compressed when compress is set.
func Encode(w io.Writer, def *Definition, compress bool) error {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode conversion table")
	}
	data = append(data, '\n')
	if !compress {
		_, err = w.Write(data)
		return err
	}
	xw, err := xz.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "failed to create xz writer")
	}
	if _, err := xw.Write(data); err != nil {
		xw.Close()
		return errors.Wrap(err, "failed to write xz data")
	}
	return xw.Close()
}

// FindTable returns the path of the table file for code in dir. Codes that
// do not make a plain file name have no table.
func FindTable(dir, code string) (string, bool) {
	if dir == "" {
		return "", false
	}
	for _, ext := range []string{TableExt, CompressedTableExt} {
		if validation.ValidateFilename(code+ext) != nil {
			return "", false
		}
		path := filepath.Join(dir, code+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// ListTables returns the language codes with a table file in dir.
func ListTables(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewIO("read", dir, err)
	}
	seen := make(map[string]bool)
	var codes []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		var code string
		switch {
		case strings.HasSuffix(name, CompressedTableExt):
			code = strings.TrimSuffix(name, CompressedTableExt)
		case strings.HasSuffix(name, TableExt):
			code = strings.TrimSuffix(name, TableExt)
		default:
			continue
		}
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes, nil
}
