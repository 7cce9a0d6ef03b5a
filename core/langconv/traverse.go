package langconv

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/FocuswithJustin/wikiconv/core/dom"
	"github.com/FocuswithJustin/wikiconv/core/variant"
)

// skipTags are elements whose content is not converted.
var skipTags = map[string]bool{
	"script": true,
	"code":   true,
	"pre":    true,
	"math":   true,
	"svg":    true,
}

var variantExpr = dom.TokenExpr("typeof", "mw:LanguageVariant")

// traverser converts a DOM tree in place and collects red links.
type traverser struct {
	conv      variant.Converter
	protocols *regexp.Regexp
	redLinks  []*html.Node
}

// traverse converts the descendants of root into toVariant. Nodes are
// visited in document order from an explicit stack. The children of a node
// are pushed only after the node has been handled, so handlers may replace
// them freely.
func (tr *traverser) traverse(root *html.Node, toVariant string) {
	if toVariant == "" || !tr.conv.HasVariants() {
		return
	}
	var stack []*html.Node
	push := func(n *html.Node) {
		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	push(root)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if tr.convertNode(n, toVariant) {
			push(n)
		}
	}
}

// convertNode handles one node and reports whether its children should be
// visited.
func (tr *traverser) convertNode(n *html.Node, toVariant string) bool {
	if n.Type == html.TextNode {
		if tr.conv.GuessVariant(n.Data, toVariant) {
			return false
		}
		if text := tr.conv.Translate(n.Data, toVariant); text != n.Data {
			n.Data = text
		}
		return false
	}
	if n.Type != html.ElementNode {
		return true
	}

	for _, name := range []string{"title", "alt"} {
		val, ok := dom.Attr(n, name)
		if !ok || strings.Contains(val, "://") {
			continue
		}
		if v := tr.conv.Translate(val, toVariant); v != val {
			dom.SetAttr(n, name, v)
		}
	}

	switch {
	case skipTags[n.Data]:
		if n.Data == "code" && dom.Query(n, variantExpr) != nil {
			return true
		}
		if n.Data == "pre" {
			if text := dom.TextContent(n); strings.Contains(text, "-{") {
				dom.SetText(n, tr.conv.ConvertTo(text, toVariant, false))
			}
		}
		return false
	case n.Data == "a":
		if dom.HasClass(n, "free") || tr.protocols.MatchString(dom.TextContent(n)) {
			return false
		}
		if dom.HasToken(n, "rel", "mw:WikiLink") && dom.HasClass(n, "new") {
			tr.redLinks = append(tr.redLinks, n)
		}
		return true
	case dom.HasToken(n, "typeof", "mw:LanguageVariant"):
		tr.convertVariant(n, toVariant)
		return false
	}
	return true
}

// convertVariant applies the rule carried by a mw:LanguageVariant element
// and, unless it is a meta element, replaces its content with the rule's
// display. The display of a filter rule is converted into the variant the
// rule selects.
func (tr *traverser) convertVariant(el *html.Node, toVariant string) {
	rule := variant.NewRule("", tr.conv)
	next, recurse := rule.ParseElement(el, toVariant)
	tr.conv.ApplyManualConv(rule)
	if dom.IsElement(el, "meta") {
		return
	}
	frag, err := rule.DisplayFragment()
	if err != nil {
		return
	}
	frag = dom.Clone(frag)
	if recurse {
		tr.traverse(frag, next)
	}
	dom.ReplaceChildren(el, frag)
}
