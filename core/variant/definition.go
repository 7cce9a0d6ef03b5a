package variant

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/FocuswithJustin/wikiconv/core/errors"
	"github.com/FocuswithJustin/wikiconv/core/langcode"
)

// ManualLevel controls which directions of a manual rule are honoured for
// a variant.
type ManualLevel string

const (
	Bidirectional  ManualLevel = "bidirectional"
	Unidirectional ManualLevel = "unidirectional"
	Disable        ManualLevel = "disable"
)

// VariantDef describes one variant of a language.
type VariantDef struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Fallbacks []string `json:"fallbacks,omitempty"`
}

// Transliterator converts text algorithmically. It is applied to the
// stretches of text that no table entry matched.
type Transliterator interface {
	Transliterate(text, variant string) string
}

// Guesser reports whether text is already written in variant.
type Guesser interface {
	GuessVariant(text, variant string) bool
}

// Definition is the immutable description of a language and its variants.
// A Definition is shared between converters and must not be modified after
// its first use.
type Definition struct {
	Code        string                       `json:"code"`
	Name        string                       `json:"name"`
	Variants    []VariantDef                 `json:"variants"`
	Tables      map[string]map[string]string `json:"tables,omitempty"`
	ManualLevel map[string]ManualLevel       `json:"manual_level,omitempty"`

	// Transliterator and Guesser are set by built-in languages.
	Transliterator Transliterator `json:"-"`
	Guesser        Guesser        `json:"-"`

	// Fingerprint is the BLAKE3 hash of the table file, if any.
	Fingerprint string `json:"-"`
	// Source names where the definition was loaded from.
	Source string `json:"-"`

	once      sync.Once
	static    map[string]*replacer
	separator *regexp.Regexp
	bcp47     map[string]string
}

// Validate checks that the definition is self-consistent.
func (d *Definition) Validate() error {
	if d.Code == "" {
		return errors.NewValidation("code", "language code is empty")
	}
	if len(d.Variants) == 0 {
		return errors.NewValidation("variants", fmt.Sprintf("language %s has no variants", d.Code))
	}
	seen := make(map[string]bool, len(d.Variants))
	for _, v := range d.Variants {
		if v.Code == "" {
			return errors.NewValidation("variants", "variant code is empty")
		}
		if v.Code != strings.ToLower(v.Code) {
			return errors.NewValidation("variants", fmt.Sprintf("variant code %q is not lower case", v.Code))
		}
		if seen[v.Code] {
			return errors.NewValidation("variants", fmt.Sprintf("duplicate variant %q", v.Code))
		}
		seen[v.Code] = true
	}
	for _, v := range d.Variants {
		for _, fb := range v.Fallbacks {
			if !seen[fb] {
				return errors.NewValidation("variants", fmt.Sprintf("variant %s falls back to unknown variant %q", v.Code, fb))
			}
		}
	}
	for code := range d.Tables {
		if !seen[code] {
			return errors.NewValidation("tables", fmt.Sprintf("table for unknown variant %q", code))
		}
	}
	for code, level := range d.ManualLevel {
		if !seen[code] {
			return errors.NewValidation("manual_level", fmt.Sprintf("manual level for unknown variant %q", code))
		}
		switch level {
		case Bidirectional, Unidirectional, Disable:
		default:
			return errors.NewValidation("manual_level", fmt.Sprintf("unknown manual level %q", level))
		}
	}
	return nil
}

// Variant returns the definition of code.
func (d *Definition) Variant(code string) (VariantDef, bool) {
	for _, v := range d.Variants {
		if v.Code == code {
			return v, true
		}
	}
	return VariantDef{}, false
}

// VariantCodes returns the variant codes in registration order.
func (d *Definition) VariantCodes() []string {
	codes := make([]string, len(d.Variants))
	for i, v := range d.Variants {
		codes[i] = v.Code
	}
	return codes
}

// HasVariant reports whether code is a variant of the language.
func (d *Definition) HasVariant(code string) bool {
	_, ok := d.Variant(code)
	return ok
}

// Level returns the manual conversion level of a variant. Unlisted
// variants are bidirectional.
func (d *Definition) Level(code string) ManualLevel {
	if l, ok := d.ManualLevel[code]; ok {
		return l
	}
	return Bidirectional
}

func (d *Definition) compile() {
	d.once.Do(func() {
		d.static = make(map[string]*replacer, len(d.Variants))
		d.bcp47 = make(map[string]string, len(d.Variants))
		alts := make([]string, 0, 2*len(d.Variants))
		for _, v := range d.Variants {
			d.static[v.Code] = newReplacer(d.Tables[v.Code])
			tag := strings.ToLower(langcode.BCP47(v.Code))
			d.bcp47[tag] = v.Code
			alts = append(alts, regexp.QuoteMeta(v.Code))
			if tag != v.Code {
				alts = append(alts, regexp.QuoteMeta(tag))
			}
		}
		// Case-insensitive so BCP 47 spellings such as "sr-Latn" are seen.
		vs := "(?i:" + strings.Join(alts, "|") + ")"
		d.separator = regexp.MustCompile(`^(?:` + vs + `\s*:|[^;]*?=>\s*` + vs + `\s*:|\s*$)`)
	})
}

// staticReplacer returns the compiled static table of a variant.
func (d *Definition) staticReplacer(code string) *replacer {
	d.compile()
	return d.static[code]
}

// variantSeparator matches the text following a ";" that starts a new rule
// in manual conversion markup.
func (d *Definition) variantSeparator() *regexp.Regexp {
	d.compile()
	return d.separator
}

// fromBCP47 maps a lower-cased BCP 47 tag back to a variant code.
func (d *Definition) fromBCP47(tag string) (string, bool) {
	d.compile()
	code, ok := d.bcp47[tag]
	return code, ok
}
