package variant

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/net/html"

	"github.com/FocuswithJustin/wikiconv/core/strip"
)

// textLexer tokenizes plain text containing -{ }- markup.
var textLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Open", Pattern: `-\{`},
	{Name: "Close", Pattern: `\}-`},
	{Name: "RuleText", Pattern: `[^-}]+|[-}]`},
})

// htmlLexer tokenizes HTML containing -{ }- markup. Outside rules, -{ is
// only recognised in text: tags and the content of script, style, math and
// svg are passed through as single tokens. A "<" that starts no tag hides
// the rest of its line.
var htmlLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Block", Pattern: `(?is)<script\b[^>]*>.*?</script\s*>|<style\b[^>]*>.*?</style\s*>|<math\b[^>]*>.*?</math\s*>|<svg\b[^>]*>.*?</svg\s*>`},
		{Name: "Tag", Pattern: `<(?:[^>"']|"[^"]*"|'[^']*')*>|<[^\n]*`},
		{Name: "Open", Pattern: `-\{`, Action: lexer.Push("Rule")},
		{Name: "Text", Pattern: `[^<-]+|-`},
	},
	"Rule": {
		{Name: "Open", Pattern: `-\{`, Action: lexer.Push("Rule")},
		{Name: "Close", Pattern: `\}-`, Action: lexer.Pop()},
		{Name: "RuleText", Pattern: `[^-}]+|[-}]`},
	},
})

// markup converts one string of -{ }- markup.
type markup struct {
	c       *LanguageConverter
	variant string
	isHTML  bool
	toks    []lexer.Token
	pos     int
	open    lexer.TokenType
	close   lexer.TokenType
}

// ConvertTo converts text containing -{ }- markup into variant. Rules are
// applied to the converter as they are met, so a rule affects the text
// after it. Text outside rules is converted unless it already appears to
// be in variant. With isHTML set, text is treated as HTML.
func (c *LanguageConverter) ConvertTo(text, variant string, isHTML bool) string {
	if text == "" || !c.def.HasVariant(variant) {
		return text
	}
	def := textLexer
	if isHTML {
		def = htmlLexer
	}
	lex, err := def.LexString("", text)
	if err != nil {
		return text
	}
	toks, err := lexer.ConsumeAll(lex)
	if err != nil {
		return text
	}
	symbols := def.Symbols()
	m := &markup{
		c:       c,
		variant: variant,
		isHTML:  isHTML,
		toks:    toks,
		open:    symbols["Open"],
		close:   symbols["Close"],
	}
	return m.topLevel(!c.GuessVariant(text, variant))
}

func (m *markup) convert(s string) string {
	if m.isHTML {
		return m.c.AutoConvert(s, m.variant)
	}
	return m.c.Translate(s, m.variant)
}

func (m *markup) topLevel(shouldConvert bool) string {
	var out, seg strings.Builder
	flush := func() {
		if shouldConvert {
			out.WriteString(m.convert(seg.String()))
		} else {
			out.WriteString(seg.String())
		}
		seg.Reset()
	}
	for m.pos < len(m.toks) {
		tok := m.toks[m.pos]
		switch {
		case tok.EOF():
			m.pos++
		case tok.Type == m.open:
			flush()
			out.WriteString(m.rule(1))
		default:
			seg.WriteString(tok.Value)
			m.pos++
		}
	}
	flush()
	return out.String()
}

// rule converts the rule starting at the current -{ token and returns its
// display text.
func (m *markup) rule(depth int) string {
	m.pos++
	var inner strings.Builder
	warned := false
	for m.pos < len(m.toks) {
		tok := m.toks[m.pos]
		switch {
		case tok.EOF():
			m.pos++
		case tok.Type == m.open:
			if depth >= m.c.opts.MaxDepth {
				inner.WriteString(tok.Value)
				if !warned {
					inner.WriteString(m.c.depthWarning())
					warned = true
				}
				m.pos++
				continue
			}
			inner.WriteString(m.rule(depth + 1))
		case tok.Type == m.close:
			m.pos++
			r := NewRule(inner.String(), m.c)
			r.Parse(m.variant)
			m.c.ApplyManualConv(r)
			return r.Display()
		default:
			inner.WriteString(tok.Value)
			m.pos++
		}
	}
	// Unclosed.
	return "-{" + m.convert(inner.String())
}

var skipElements = map[string]bool{
	"code":   true,
	"script": true,
	"style":  true,
	"pre":    true,
	"math":   true,
	"svg":    true,
}

var protected = regexp.MustCompile(`&[#a-zA-Z0-9]+;|` + regexp.QuoteMeta(strip.MarkerPrefix) + `[^\x7f<>&'"]+` + regexp.QuoteMeta(strip.MarkerSuffix))

// AutoConvert translates the text of an HTML string into variant. Tags,
// entities, strip markers and the content of skipped elements are kept;
// title and alt attributes are translated unless they hold a URL.
func (c *LanguageConverter) AutoConvert(text, variant string) string {
	if text == "" || !c.def.HasVariant(variant) {
		return text
	}
	z := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	b.Grow(len(text))
	skip := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := string(z.Raw())
		switch tt {
		case html.TextToken:
			if skip > 0 {
				b.WriteString(raw)
			} else {
				b.WriteString(c.translateProtected(raw, variant))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tt == html.StartTagToken && skipElements[tok.Data] {
				skip++
			}
			if c.translateAttrs(&tok, variant) {
				b.WriteString(tok.String())
			} else {
				b.WriteString(raw)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skip > 0 && skipElements[string(name)] {
				skip--
			}
			b.WriteString(raw)
		default:
			b.WriteString(raw)
		}
	}
	return b.String()
}

// translateProtected translates s around entities and strip markers.
func (c *LanguageConverter) translateProtected(s, variant string) string {
	locs := protected.FindAllStringIndex(s, -1)
	if locs == nil {
		return c.Translate(s, variant)
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(c.Translate(s[last:loc[0]], variant))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(c.Translate(s[last:], variant))
	return b.String()
}

func (c *LanguageConverter) translateAttrs(tok *html.Token, variant string) bool {
	changed := false
	for i, a := range tok.Attr {
		if a.Namespace != "" || (a.Key != "title" && a.Key != "alt") || strings.Contains(a.Val, "://") {
			continue
		}
		if v := c.Translate(a.Val, variant); v != a.Val {
			tok.Attr[i].Val = v
			changed = true
		}
	}
	return changed
}
