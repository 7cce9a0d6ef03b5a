package variant

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/wikiconv/core/cache"
	"github.com/FocuswithJustin/wikiconv/core/errors"
	"github.com/FocuswithJustin/wikiconv/core/msg"
	"github.com/FocuswithJustin/wikiconv/internal/logging"
)

// builtins are the languages compiled into the binary.
var builtins = map[string]func() *Definition{
	"en": English,
	"sr": Serbian,
}

// FactoryConfig configures a Factory.
type FactoryConfig struct {
	// TablesDir holds <code>.json and <code>.json.xz table files.
	TablesDir string
	// ConversionDisabled turns language conversion off for the site.
	ConversionDisabled bool
	// LinkConversionDisabled turns off red link resolution across variants.
	LinkConversionDisabled bool
	// CacheSize bounds the number of cached definitions.
	CacheSize int
	// MaxDepth and Messages are passed to every converter.
	MaxDepth int
	Messages *msg.Catalog
}

// Factory resolves language codes to definitions and hands out converters.
// It is safe for concurrent use.
type Factory struct {
	cfg  FactoryConfig
	defs *cache.LRU[string, *Definition]
}

// NewFactory returns a Factory for cfg.
func NewFactory(cfg FactoryConfig) *Factory {
	cc := cache.DefaultConfig()
	if cfg.CacheSize > 0 {
		cc.MaxSize = cfg.CacheSize
	}
	return &Factory{cfg: cfg, defs: cache.New[string, *Definition](cc)}
}

// ConversionDisabled reports whether conversion is off for the site.
func (f *Factory) ConversionDisabled() bool { return f.cfg.ConversionDisabled }

// LinkConversionDisabled reports whether red links are left alone.
func (f *Factory) LinkConversionDisabled() bool { return f.cfg.LinkConversionDisabled }

// Definition returns the definition of a language. A table file in the
// tables directory takes precedence over a built-in definition.
func (f *Factory) Definition(code string) (*Definition, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	return f.defs.GetOrLoad(code, func() (*Definition, error) {
		def, err := f.load(code)
		if err != nil {
			return nil, err
		}
		logging.TableLoaded(def.Code, def.Source, def.Fingerprint, len(def.Variants))
		return def, nil
	})
}

func (f *Factory) load(code string) (*Definition, error) {
	if path, ok := FindTable(f.cfg.TablesDir, code); ok {
		def, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if def.Code != code {
			return nil, errors.NewValidation("code", "table "+path+" defines "+def.Code+", not "+code)
		}
		return def, nil
	}
	if mk, ok := builtins[code]; ok {
		return mk(), nil
	}
	return nil, errors.NewNotFound("language", code)
}

// Converter returns a fresh converter for a language.
func (f *Factory) Converter(code string) (*LanguageConverter, error) {
	def, err := f.Definition(code)
	if err != nil {
		return nil, err
	}
	return New(def, Options{MaxDepth: f.cfg.MaxDepth, Messages: f.cfg.Messages}), nil
}

// ParentLanguage returns the language that variant, an internal or BCP 47
// code, belongs to. Candidates are variant itself and its prefixes with
// trailing subtags removed.
func (f *Factory) ParentLanguage(variant string) (string, error) {
	variant = strings.ToLower(strings.TrimSpace(variant))
	for code := variant; code != ""; {
		def, err := f.Definition(code)
		if err == nil {
			if _, ok := def.fromBCP47(variant); ok || def.HasVariant(variant) {
				return def.Code, nil
			}
		}
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return "", err
		}
		i := strings.LastIndexByte(code, '-')
		if i < 0 {
			break
		}
		code = code[:i]
	}
	return "", errors.NewUnsupported("variant", variant+" belongs to no known language")
}

// Languages lists the codes of every known language, sorted.
func (f *Factory) Languages() ([]string, error) {
	codes, err := ListTables(f.cfg.TablesDir)
	if err != nil {
		return nil, err
	}
	for code := range builtins {
		if !contains(codes, code) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}
