// Package langconv converts rendered page DOM into a language variant. It
// walks the fragment translating text and applying the conversion rules
// embedded as mw:LanguageVariant markup, then repairs red links whose
// targets exist under another variant spelling.
package langconv

import (
	"context"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/FocuswithJustin/wikiconv/core/errors"
	"github.com/FocuswithJustin/wikiconv/core/langcode"
	"github.com/FocuswithJustin/wikiconv/core/linkbatch"
	"github.com/FocuswithJustin/wikiconv/core/output"
	"github.com/FocuswithJustin/wikiconv/core/title"
	"github.com/FocuswithJustin/wikiconv/core/variant"
	"github.com/FocuswithJustin/wikiconv/internal/logging"
)

// BadTitleText is the title used for output that carries none.
const BadTitleText = "Special:BadTitle/LanguageConverter"

// DefaultURLProtocols are the prefixes that make link text a bare URL.
var DefaultURLProtocols = []string{
	"bitcoin:", "ftp://", "ftps://", "geo:", "git://", "gopher://",
	"http://", "https://", "irc://", "ircs://", "magnet:", "mailto:",
	"matrix:", "mms://", "news:", "nntp://", "redis://", "sftp://",
	"sip:", "sips:", "sms:", "ssh://", "svn://", "tel:", "telnet://",
	"urn:", "worldwind://", "xmpp:",
}

// Config wires a Stage to the site.
type Config struct {
	Variants *variant.Factory
	Titles   *title.Factory
	// Pages answers page existence for red link resolution.
	Pages linkbatch.Lookup
	// ContentLanguage is the language of pages without a more specific one.
	ContentLanguage string
	// Protocols defaults to DefaultURLProtocols.
	Protocols []string
}

// Stage is the DOM post-processing pass that performs variant conversion.
// A Stage is safe for concurrent use; every call gets its own converter.
type Stage struct {
	variants        *variant.Factory
	titles          *title.Factory
	pages           linkbatch.Lookup
	contentLanguage string
	protocols       *regexp.Regexp
	badTitle        string
}

// New returns a Stage for cfg.
func New(cfg Config) *Stage {
	protocols := cfg.Protocols
	if len(protocols) == 0 {
		protocols = DefaultURLProtocols
	}
	lang := cfg.ContentLanguage
	if lang == "" {
		lang = "en"
	}
	return &Stage{
		variants:        cfg.Variants,
		titles:          cfg.Titles,
		pages:           cfg.Pages,
		contentLanguage: strings.ToLower(lang),
		protocols:       protocolRegexp(protocols),
		badTitle:        BadTitleText,
	}
}

func protocolRegexp(protocols []string) *regexp.Regexp {
	quoted := make([]string, len(protocols))
	for i, p := range protocols {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`^(?:` + strings.Join(quoted, "|") + `)`)
}

// ShouldRun reports whether po is DOM content whose conversion was left to
// this stage. Output converted before it was stored is not converted again.
func (s *Stage) ShouldRun(po *output.ParserOutput) bool {
	if po == nil || !po.ParsoidContent || s.variants.ConversionDisabled() {
		return false
	}
	v, ok := po.ExtensionData(output.LanguageConverterKey)
	return ok && v == output.PostProcess
}

// TransformDOM converts frag in place into the variant requested by opts
// and records the outcome on po: its language, its title text and its
// table of contents. Without a usable variant, or with conversion turned
// off for the request or the page, only the language and table of contents
// are updated.
//
// The only error is a *errors.TitleError, returned when po has no title
// and the fallback title cannot be parsed either.
func (s *Stage) TransformDOM(ctx context.Context, frag *html.Node, po *output.ParserOutput, opts output.ParserOptions) error {
	start := time.Now()
	page, err := s.pageTitle(po)
	if err != nil {
		return err
	}

	targetLanguage := s.pageLanguage(page)
	var (
		conv      *variant.LanguageConverter
		toVariant string
	)
	if opts.TargetVariant != "" {
		conv, toVariant = s.converterFor(ctx, opts.TargetVariant)
		if conv != nil {
			targetLanguage = conv.MainCode()
		}
	}

	_, noConvert := po.PageProperty(output.NoContentConvert)
	if conv == nil || opts.DisableContentConversion || opts.InterfaceMessage || noConvert {
		po.Language = langcode.BCP47(targetLanguage)
		localizeTOC(po.TOC, nil, targetLanguage, "")
		return nil
	}

	tr := &traverser{conv: conv, protocols: s.protocols}
	tr.traverse(frag, toVariant)
	po.Language = langcode.BCP47(toVariant)

	resolved := 0
	if !s.variants.LinkConversionDisabled() {
		resolved = s.resolveRedLinks(ctx, page, conv, toVariant, tr.redLinks)
	}
	po.TitleText = titleText(conv, page, toVariant)
	localizeTOC(po.TOC, conv, toVariant, toVariant)

	logging.Transform(ctx, toVariant, len(tr.redLinks), resolved, time.Since(start), "title", page.PrefixedText())
	return nil
}

// pageTitle parses the title of po, falling back to the bad title page.
func (s *Stage) pageTitle(po *output.ParserOutput) (*title.Title, error) {
	if po.Title != "" {
		if t, err := s.titles.NewFromText(po.Title, title.NSMain); err == nil {
			return t, nil
		}
	}
	t, err := s.titles.NewFromText(s.badTitle, title.NSMain)
	if err != nil {
		return nil, &errors.TitleError{Text: s.badTitle, Reason: "no usable page title", Err: err}
	}
	return t, nil
}

// pageLanguage is the content language, except for interface message
// pages with a language code suffix such as "MediaWiki:Edit/sr".
func (s *Stage) pageLanguage(t *title.Title) string {
	if t.Namespace() == title.NSMediaWiki {
		if i := strings.LastIndexByte(t.DBkey(), '/'); i >= 0 {
			if code := strings.ToLower(t.DBkey()[i+1:]); code != "" && langcode.IsValid(code) {
				return code
			}
		}
	}
	return s.contentLanguage
}

// converterFor returns a converter for the language the requested variant
// belongs to, and the variant's internal code. An unknown variant yields a
// nil converter.
func (s *Stage) converterFor(ctx context.Context, requested string) (*variant.LanguageConverter, string) {
	lang, err := s.variants.ParentLanguage(requested)
	if err != nil {
		logging.WarnContext(ctx, "unknown target variant", "variant", requested, "error", err)
		return nil, ""
	}
	conv, err := s.variants.Converter(lang)
	if err != nil {
		logging.WarnContext(ctx, "no converter for language", "language", lang, "error", err)
		return nil, ""
	}
	v := conv.ValidateVariant(requested)
	if v == "" {
		logging.WarnContext(ctx, "unknown target variant", "variant", requested, "language", lang)
		return nil, ""
	}
	return conv, v
}
