// Package dom provides the small set of tree helpers the converter needs on
// top of golang.org/x/net/html: fragment parsing and rendering, attribute
// and class handling, whitespace-separated token tests, deep cloning and
// XPath queries.
package dom

import (
	"bytes"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/FocuswithJustin/wikiconv/core/errors"
)

// ParseFragment parses body content into a fragment: a DocumentNode whose
// children are the fragment's top-level nodes.
func ParseFragment(r io.Reader) (*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, ctx)
	if err != nil {
		return nil, &errors.ParseError{Format: "HTML", Message: err.Error(), Err: err}
	}
	frag := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		frag.AppendChild(n)
	}
	return frag, nil
}

// ParseFragmentString parses s with ParseFragment.
func ParseFragmentString(s string) (*html.Node, error) {
	return ParseFragment(strings.NewReader(s))
}

// NewFragment returns an empty fragment.
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// Render serialises the children of n.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// InnerHTML serialises the children of n, ignoring render errors.
func InnerHTML(n *html.Node) string {
	s, _ := Render(n)
	return s
}

// OuterHTML serialises n itself.
func OuterHTML(n *html.Node) string {
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}

// TextContent returns the concatenated text of n and its descendants.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode, html.DocumentNode:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

// IsElement reports whether n is an element with the given tag name.
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// Children returns a snapshot of n's children.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

// ReplaceChildren replaces n's children with the children of frag, which is
// left empty.
func ReplaceChildren(n, frag *html.Node) {
	RemoveChildren(n)
	for c := frag.FirstChild; c != nil; c = frag.FirstChild {
		frag.RemoveChild(c)
		n.AppendChild(c)
	}
}

// SetText replaces n's children with a single text node.
func SetText(n *html.Node, text string) {
	RemoveChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Clone returns a deep copy of n, detached from any tree.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the value of key or def when it is absent.
func AttrOr(n *html.Node, key, def string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return def
}

// HasAttr reports whether n carries attribute key.
func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// SetAttr sets attribute key on n, adding it if absent.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes attribute key from n.
func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// HasToken reports whether the whitespace-separated attribute attr of n
// contains token.
func HasToken(n *html.Node, attr, token string) bool {
	v, ok := Attr(n, attr)
	if !ok {
		return false
	}
	for _, t := range strings.Fields(v) {
		if t == token {
			return true
		}
	}
	return false
}

// HasClass reports whether n has class c.
func HasClass(n *html.Node, c string) bool {
	return HasToken(n, "class", c)
}

// AddClass adds the given classes to n, skipping ones already present.
func AddClass(n *html.Node, classes ...string) {
	existing := strings.Fields(AttrOr(n, "class", ""))
	for _, c := range classes {
		found := false
		for _, e := range existing {
			if e == c {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, c)
		}
	}
	SetAttr(n, "class", strings.Join(existing, " "))
}

// RemoveClass removes class c from n. An emptied class attribute is removed.
func RemoveClass(n *html.Node, c string) {
	v, ok := Attr(n, "class")
	if !ok {
		return
	}
	var kept []string
	for _, e := range strings.Fields(v) {
		if e != c {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// Query returns the first node under top matching the compiled expression.
func Query(top *html.Node, expr *xpath.Expr) *html.Node {
	return htmlquery.QuerySelector(top, expr)
}

// QueryAll returns every node under top matching the compiled expression.
func QueryAll(top *html.Node, expr *xpath.Expr) []*html.Node {
	return htmlquery.QuerySelectorAll(top, expr)
}

// TokenExpr compiles an XPath expression selecting descendant elements whose
// attr contains token as a whitespace-separated word.
func TokenExpr(attr, token string) *xpath.Expr {
	return xpath.MustCompile(".//*[contains(concat(' ', normalize-space(@" + attr + "), ' '), ' " + token + " ')]")
}
