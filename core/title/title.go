// Package title parses wiki page titles and builds their URLs.
package title

import (
	"strings"
)

// Well-known namespace ids.
const (
	NSMedia     = -2
	NSSpecial   = -1
	NSMain      = 0
	NSTalk      = 1
	NSUser      = 2
	NSUserTalk  = 3
	NSProject   = 4
	NSFile      = 6
	NSMediaWiki = 8
	NSTemplate  = 10
	NSHelp      = 12
	NSCategory  = 14
)

// Title is a parsed page title. The zero value is not a valid title.
type Title struct {
	ns       int
	nsText   string
	dbkey    string
	fragment string
}

// Namespace returns the namespace id.
func (t *Title) Namespace() int { return t.ns }

// NsText returns the localised namespace name with underscores, or "" in
// the main namespace.
func (t *Title) NsText() string { return t.nsText }

// DBkey returns the title text without namespace, with underscores.
func (t *Title) DBkey() string { return t.dbkey }

// Text returns the title text without namespace, with spaces.
func (t *Title) Text() string { return strings.ReplaceAll(t.dbkey, "_", " ") }

// Fragment returns the section fragment, or "".
func (t *Title) Fragment() string { return t.fragment }

// PrefixedDBkey returns "Namespace:Title_text" with underscores.
func (t *Title) PrefixedDBkey() string {
	if t.nsText == "" {
		return t.dbkey
	}
	return t.nsText + ":" + t.dbkey
}

// PrefixedText returns "Namespace:Title text" with spaces.
func (t *Title) PrefixedText() string {
	return strings.ReplaceAll(t.PrefixedDBkey(), "_", " ")
}

// NsDisplayText returns the namespace name with spaces.
func (t *Title) NsDisplayText() string {
	return strings.ReplaceAll(t.nsText, "_", " ")
}

// IsSamePageAs reports whether t and other name the same page, ignoring
// fragments.
func (t *Title) IsSamePageAs(other *Title) bool {
	return other != nil && t.ns == other.ns && t.dbkey == other.dbkey
}

// String returns the prefixed text.
func (t *Title) String() string { return t.PrefixedText() }
