// Package msg holds the interface messages emitted inline by the parser and
// the language converter, with per-language overrides and localised number
// parameters.
package msg

import (
	"strconv"
	"strings"
	"sync"

	"github.com/FocuswithJustin/wikiconv/core/langcode"
)

// Message keys.
const (
	UnstripLoopWarning      = "parser-unstrip-loop-warning"
	UnstripDepthWarning     = "unstrip-depth-warning"
	UnstripSizeWarning      = "unstrip-size-warning"
	ConverterDepthWarning   = "language-converter-depth-warning"
	ManualRuleError         = "converter-manual-rule-error"
	LimitReportUnstripDepth = "limitreport-unstrip-depth"
	LimitReportUnstripSize  = "limitreport-unstrip-size"
	BadTitle                = "badtitle"
)

// FallbackLanguage is used when a language has no text for a key.
const FallbackLanguage = "en"

var english = map[string]string{
	UnstripLoopWarning:      "Unstrip loop detected",
	UnstripDepthWarning:     "Exceeded recursion limit ($1)",
	UnstripSizeWarning:      "Exceeded unstrip size limit ($1)",
	ConverterDepthWarning:   "Language converter depth limit exceeded ($1)",
	ManualRuleError:         "Error detected in manual language conversion rule",
	LimitReportUnstripDepth: "Unstrip recursion depth",
	LimitReportUnstripSize:  "Unstrip post-expand size",
	BadTitle:                "Bad title",
}

// Catalog is a set of message texts keyed by language then message key.
// It is safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	texts map[string]map[string]string
}

// NewCatalog returns a catalogue seeded with the English texts.
func NewCatalog() *Catalog {
	c := &Catalog{texts: map[string]map[string]string{}}
	c.AddLanguage(FallbackLanguage, english)
	return c
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the shared process-wide catalogue.
func Default() *Catalog {
	defaultOnce.Do(func() { defaultCatalog = NewCatalog() })
	return defaultCatalog
}

// AddLanguage merges texts for lang into the catalogue.
func (c *Catalog) AddLanguage(lang string, texts map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.texts[lang]
	if !ok {
		m = make(map[string]string, len(texts))
		c.texts[lang] = m
	}
	for k, v := range texts {
		m[k] = v
	}
}

// Raw returns the unformatted text for key in lang, falling back to the
// parent language and then English. Unknown keys render as "⧼key⧽".
func (c *Catalog) Raw(lang, key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range lookupChain(lang) {
		if t, ok := c.texts[l][key]; ok {
			return t
		}
	}
	return "⧼" + key + "⧽"
}

func lookupChain(lang string) []string {
	chain := []string{lang}
	for {
		i := strings.LastIndexByte(lang, '-')
		if i < 0 {
			break
		}
		lang = lang[:i]
		chain = append(chain, lang)
	}
	return append(chain, FallbackLanguage)
}

// Text formats key in lang, substituting $1, $2... with params. Integer
// params are formatted with the language's number formatting.
func (c *Catalog) Text(lang, key string, params ...any) string {
	text := c.Raw(lang, key)
	if len(params) == 0 {
		return text
	}
	// Replace from the highest index so $1 does not clobber $10.
	for i := len(params); i >= 1; i-- {
		text = strings.ReplaceAll(text, "$"+strconv.Itoa(i), formatParam(lang, params[i-1]))
	}
	return text
}

func formatParam(lang string, p any) string {
	switch v := p.(type) {
	case int:
		return langcode.FormatNum(lang, int64(v))
	case int64:
		return langcode.FormatNum(lang, v)
	case string:
		return v
	default:
		return ""
	}
}

// ErrorSpan wraps the formatted message in the inline error markup used by
// the parser.
func (c *Catalog) ErrorSpan(lang, key string, params ...any) string {
	return `<span class="error">` + c.Text(lang, key, params...) + `</span>`
}
