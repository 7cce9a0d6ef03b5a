// Package variant converts text between the script and spelling variants
// of a language. It holds the converter contract consumed by the DOM
// stage, the table-driven LanguageConverter, the manual conversion rule
// parser and the legacy -{ }- markup converter.
package variant

import (
	"strings"

	"github.com/FocuswithJustin/wikiconv/core/msg"
	"github.com/FocuswithJustin/wikiconv/core/title"
)

// DefaultMaxDepth is the nesting limit for -{ }- markup.
const DefaultMaxDepth = 10

// Converter translates text into the variants of one language.
type Converter interface {
	// MainCode is the language code, e.g. "sr".
	MainCode() string
	// Variants lists the variant codes in registration order.
	Variants() []string
	// VariantName returns the display name of a variant, or "".
	VariantName(code string) string
	// VariantFallbacks lists the variants to try when code has no text.
	VariantFallbacks(code string) []string
	// ManualLevel returns how manual rules apply to a variant.
	ManualLevel(code string) ManualLevel
	// ValidateVariant maps code, or its BCP 47 spelling, to a variant
	// code. It returns "" when code is not a variant.
	ValidateVariant(code string) string

	HasVariants() bool
	Translate(text, variant string) string
	GuessVariant(text, variant string) bool
	// AutoConvert translates HTML, leaving tags, entities and the
	// content of script, style, pre, code, math and svg alone.
	AutoConvert(text, variant string) string
	AutoConvertToAllVariants(text string) []string
	ApplyManualConv(rule *Rule)
	ConvertSplitTitle(t *title.Title, variant string) (ns, sep, main string)
	ConvertTo(text, variant string, isHTML bool) string
	ConvRuleTitle() (string, bool)
}

// Options configures a LanguageConverter.
type Options struct {
	// MaxDepth limits -{ }- nesting. Zero means DefaultMaxDepth.
	MaxDepth int
	// Messages supplies warning texts. Nil means msg.Default().
	Messages *msg.Catalog
}

// LanguageConverter is the table-driven Converter. Static tables come from
// a shared Definition; manual rules applied during a conversion are kept
// per instance, so a converter must not be shared between documents.
type LanguageConverter struct {
	def      *Definition
	opts     Options
	manual   map[string]map[string]string
	merged   map[string]*replacer
	title    string
	hasTitle bool
}

var _ Converter = (*LanguageConverter)(nil)

// New returns a converter for def.
func New(def *Definition, opts Options) *LanguageConverter {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Messages == nil {
		opts.Messages = msg.Default()
	}
	return &LanguageConverter{def: def, opts: opts}
}

// Definition returns the language definition.
func (c *LanguageConverter) Definition() *Definition { return c.def }

func (c *LanguageConverter) MainCode() string { return c.def.Code }

func (c *LanguageConverter) Variants() []string { return c.def.VariantCodes() }

func (c *LanguageConverter) VariantName(code string) string {
	v, _ := c.def.Variant(code)
	return v.Name
}

func (c *LanguageConverter) VariantFallbacks(code string) []string {
	v, _ := c.def.Variant(code)
	return v.Fallbacks
}

func (c *LanguageConverter) ManualLevel(code string) ManualLevel {
	return c.def.Level(code)
}

func (c *LanguageConverter) ValidateVariant(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if c.def.HasVariant(code) {
		return code
	}
	if v, ok := c.def.fromBCP47(code); ok {
		return v
	}
	return ""
}

// HasVariants reports whether the language has more than one variant.
func (c *LanguageConverter) HasVariants() bool {
	return len(c.def.Variants) > 1
}

// Translate converts plain text into variant. Manual rules take precedence
// over the static table; text matched by neither goes through the
// language's transliterator, if it has one.
func (c *LanguageConverter) Translate(text, variant string) string {
	if text == "" || !c.def.HasVariant(variant) {
		return text
	}
	var gap func(string) string
	if t := c.def.Transliterator; t != nil {
		gap = func(s string) string { return t.Transliterate(s, variant) }
	}
	return c.replacer(variant).replace(text, gap)
}

func (c *LanguageConverter) replacer(variant string) *replacer {
	if len(c.manual[variant]) == 0 {
		return c.def.staticReplacer(variant)
	}
	if r, ok := c.merged[variant]; ok {
		return r
	}
	r := c.def.staticReplacer(variant).merge(c.manual[variant])
	if c.merged == nil {
		c.merged = make(map[string]*replacer)
	}
	c.merged[variant] = r
	return r
}

// GuessVariant reports whether text is already unambiguously in variant.
func (c *LanguageConverter) GuessVariant(text, variant string) bool {
	if c.def.Guesser == nil {
		return false
	}
	return c.def.Guesser.GuessVariant(text, variant)
}

// AutoConvertToAllVariants returns text translated into every variant, in
// registration order.
func (c *LanguageConverter) AutoConvertToAllVariants(text string) []string {
	out := make([]string, 0, len(c.def.Variants))
	for _, v := range c.def.Variants {
		out = append(out, c.Translate(text, v.Code))
	}
	return out
}

// ApplyManualConv records the title of rule and merges its conversion
// table into the manual tables. Remove rules delete their pairs. Rules
// without an action are merged only when they came from a hidden element,
// whose sole purpose is to register a table.
func (c *LanguageConverter) ApplyManualConv(rule *Rule) {
	if t, ok := rule.Title(); ok {
		c.title, c.hasTitle = t, true
	}
	action := rule.Action()
	if action == ActionNone && rule.hidden {
		action = ActionAdd
	}
	if action != ActionAdd && action != ActionRemove {
		return
	}
	for variant, pairs := range rule.ConvTable() {
		v := c.ValidateVariant(variant)
		if v == "" || len(pairs) == 0 {
			continue
		}
		c.setPairs(v, pairs, action == ActionRemove)
	}
}

func (c *LanguageConverter) setPairs(variant string, pairs map[string]string, remove bool) {
	if c.manual == nil {
		c.manual = make(map[string]map[string]string)
	}
	m, ok := c.manual[variant]
	if !ok {
		m = make(map[string]string, len(pairs))
		c.manual[variant] = m
	}
	for from, to := range pairs {
		if remove {
			delete(m, from)
		} else if from != "" {
			m[from] = to
		}
	}
	delete(c.merged, variant)
}

// ConvertSplitTitle converts the namespace and the text of t separately.
func (c *LanguageConverter) ConvertSplitTitle(t *title.Title, variant string) (ns, sep, main string) {
	if nsText := t.NsDisplayText(); nsText != "" {
		ns = c.Translate(nsText, variant)
		sep = ":"
	}
	main = c.Translate(t.Text(), variant)
	return ns, sep, main
}

// ConvRuleTitle returns the title set by the last title rule applied.
func (c *LanguageConverter) ConvRuleTitle() (string, bool) {
	return c.title, c.hasTitle
}

func (c *LanguageConverter) depthWarning() string {
	return c.opts.Messages.ErrorSpan(c.def.Code, msg.ConverterDepthWarning, c.opts.MaxDepth)
}
