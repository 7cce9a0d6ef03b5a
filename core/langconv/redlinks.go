package langconv

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/FocuswithJustin/wikiconv/core/dom"
	"github.com/FocuswithJustin/wikiconv/core/linkbatch"
	"github.com/FocuswithJustin/wikiconv/core/title"
	"github.com/FocuswithJustin/wikiconv/core/variant"
	"github.com/FocuswithJustin/wikiconv/internal/logging"
)

// redLink is a red link whose target may exist under another spelling.
type redLink struct {
	a           *html.Node
	wasRelative bool
	title       *title.Title
	fragment    string
	hasFragment bool
	query       url.Values
}

type spelling struct {
	ns   int
	text string
}

// dropQuery are the query keys not carried over to a rewritten link.
var dropQuery = []string{"title", "action", "redlink", "redlinks"}

// resolveRedLinks rewrites red links whose target exists when spelled in
// another variant. All spellings are checked in one page lookup; a failed
// lookup leaves every link red. It returns the number of links rewritten.
func (s *Stage) resolveRedLinks(ctx context.Context, base *title.Title, conv variant.Converter, toVariant string, anchors []*html.Node) int {
	links := s.collectRedLinks(base, anchors)
	if len(links) == 0 {
		return 0
	}

	batch := linkbatch.New(s.pages)
	variants := make(map[spelling][]*title.Title)
	for _, l := range links {
		key := spelling{ns: l.title.Namespace(), text: l.title.Text()}
		if _, ok := variants[key]; ok {
			continue
		}
		var alts []*title.Title
		for _, v := range conv.AutoConvertToAllVariants(key.text) {
			if v == key.text {
				continue
			}
			t, err := s.titles.NewFromText(v, key.ns)
			if err != nil {
				continue
			}
			batch.Add(t)
			alts = append(alts, t)
		}
		variants[key] = alts
	}
	if batch.Len() == 0 {
		return 0
	}

	ids, err := batch.Execute(ctx)
	if err != nil {
		logging.WarnContext(ctx, "red link lookup failed", "titles", batch.Len(), "error", err)
		return 0
	}
	exists := func(t *title.Title) bool { return ids[t.PrefixedDBkey()] > 0 }

	resolved := 0
	for _, l := range links {
		alts := variants[spelling{ns: l.title.Namespace(), text: l.title.Text()}]
		target := find(alts, base.IsSamePageAs)
		if target == nil {
			target = find(alts, exists)
		}
		if target == nil {
			continue
		}
		s.rewriteLink(l, target, base, conv, toVariant)
		resolved++
	}
	return resolved
}

func find(ts []*title.Title, pred func(*title.Title) bool) *title.Title {
	for _, t := range ts {
		if pred(t) {
			return t
		}
	}
	return nil
}

// collectRedLinks reads the target of each anchor. Anchors pointing at the
// current page, off the wiki or at an unparsable URL or title are dropped.
func (s *Stage) collectRedLinks(base *title.Title, anchors []*html.Node) []redLink {
	baseHref := s.titles.BaseURI()
	baseURL, err := url.Parse(baseHref)
	if err != nil {
		return nil
	}
	pageFragment := "./" + base.PrefixedDBkey() + "#"

	var out []redLink
	for _, a := range anchors {
		href, ok := dom.Attr(a, "href")
		if !ok {
			continue
		}
		wasRelative := false
		if strings.HasPrefix(href, pageFragment) {
			continue
		}
		if strings.HasPrefix(href, "./") {
			if ref, err := url.Parse(href); err == nil {
				href = baseURL.ResolveReference(ref).String()
			}
			wasRelative = true
		}
		if strings.HasPrefix(href, "#") || !strings.HasPrefix(href, baseHref) {
			continue
		}
		u, err := url.Parse("http://example.com/" + strings.TrimPrefix(href, baseHref))
		if err != nil {
			continue
		}
		query := u.Query()
		text := strings.TrimPrefix(u.Path, "/")
		if query.Has("title") {
			text = query.Get("title")
		}
		t, err := s.titles.NewFromText(text, title.NSMain)
		if err != nil {
			continue
		}
		out = append(out, redLink{
			a:           a,
			wasRelative: wasRelative,
			title:       t,
			fragment:    u.EscapedFragment(),
			hasFragment: u.Fragment != "",
			query:       query,
		})
	}
	return out
}

// rewriteLink points l at target and removes its red link marks. A link to
// the current page becomes a self link.
func (s *Stage) rewriteLink(l redLink, target, base *title.Title, conv variant.Converter, toVariant string) {
	for _, k := range dropQuery {
		l.query.Del(k)
	}
	suffix := ""
	if l.hasFragment {
		suffix = "#" + l.fragment
	}
	href := s.titles.FullURL(target, l.query)
	if l.wasRelative {
		href = s.titles.LocalURL(target, l.query)
	}
	a := l.a
	dom.SetAttr(a, "href", href+suffix)
	dom.RemoveClass(a, "new")
	dom.RemoveAttr(a, "data-mw-i18n")
	dom.RemoveAttr(a, "typeof")
	dom.SetAttr(a, "title", conv.Translate(target.PrefixedText(), toVariant))

	if target.IsSamePageAs(base) {
		dom.RemoveAttr(a, "title")
		if l.hasFragment {
			dom.SetAttr(a, "href", suffix)
			dom.AddClass(a, "mw-selflink-fragment")
		} else {
			dom.AddClass(a, "mw-selflink", "selflink")
		}
	}
}
