package langconv

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/FocuswithJustin/wikiconv/core/dom"
	"github.com/FocuswithJustin/wikiconv/core/title"
	"github.com/FocuswithJustin/wikiconv/core/variant"
)

// inlineTags may appear in a displayed title.
var inlineTags = map[string]bool{
	"abbr": true, "b": true, "bdi": true, "bdo": true, "big": true,
	"br": true, "cite": true, "code": true, "del": true, "dfn": true,
	"em": true, "font": true, "i": true, "ins": true, "kbd": true,
	"mark": true, "q": true, "rb": true, "rp": true, "rt": true,
	"rtc": true, "ruby": true, "s": true, "samp": true, "small": true,
	"span": true, "strike": true, "strong": true, "sub": true, "sup": true,
	"tt": true, "u": true, "var": true, "wbr": true,
}

// droppedTags are removed together with their content.
var droppedTags = map[string]bool{"script": true, "style": true}

var titleAttrs = map[string]bool{"class": true, "dir": true, "lang": true, "title": true}

// titleText is the HTML of the displayed page title: the title set by a
// conversion rule, or the converted page name.
func titleText(conv variant.Converter, t *title.Title, toVariant string) string {
	if text, ok := conv.ConvRuleTitle(); ok {
		return removeSomeTags(text)
	}
	return formatPageTitle(conv.ConvertSplitTitle(t, toVariant))
}

// formatPageTitle wraps the parts of a title in the spans skins style.
func formatPageTitle(ns, sep, main string) string {
	var b strings.Builder
	if ns != "" {
		b.WriteString(`<span class="mw-page-title-namespace">`)
		b.WriteString(html.EscapeString(ns))
		b.WriteString(`</span><span class="mw-page-title-separator">`)
		b.WriteString(html.EscapeString(sep))
		b.WriteString(`</span>`)
	}
	b.WriteString(`<span class="mw-page-title-main">`)
	b.WriteString(html.EscapeString(main))
	b.WriteString(`</span>`)
	return b.String()
}

// removeSomeTags keeps inline formatting of s and strips everything else.
// Block elements are unwrapped, script and style are dropped, comments are
// removed and only presentational attributes survive.
func removeSomeTags(s string) string {
	frag, err := dom.ParseFragmentString(s)
	if err != nil {
		return html.EscapeString(s)
	}
	sanitize(frag)
	return dom.InnerHTML(frag)
}

func sanitize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.CommentNode, html.DoctypeNode:
			n.RemoveChild(c)
		case html.ElementNode:
			switch {
			case droppedTags[c.Data]:
				n.RemoveChild(c)
			case !inlineTags[c.Data]:
				sanitize(c)
				for gc := c.FirstChild; gc != nil; gc = c.FirstChild {
					c.RemoveChild(gc)
					n.InsertBefore(gc, c)
				}
				n.RemoveChild(c)
			default:
				attrs := c.Attr[:0]
				for _, a := range c.Attr {
					if a.Namespace == "" && titleAttrs[a.Key] {
						attrs = append(attrs, a)
					}
				}
				c.Attr = attrs
				sanitize(c)
			}
		}
		c = next
	}
}
