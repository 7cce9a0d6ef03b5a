// Package strip manages the opaque markers the parser leaves in its output
// in place of protected content, and expands them back with bounded
// recursion.
package strip

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/FocuswithJustin/wikiconv/core/errors"
	"github.com/FocuswithJustin/wikiconv/core/msg"
	"github.com/FocuswithJustin/wikiconv/internal/logging"
)

// Marker delimiters. A marker is MarkerPrefix + id + MarkerSuffix.
const (
	MarkerPrefix = "\x7f'\"`UNIQ-"
	MarkerSuffix = "-QINU`\"'\x7f"
)

// Default limits.
const (
	DefaultDepthLimit = 20
	DefaultSizeLimit  = 5_000_000
)

var markerRe = regexp.MustCompile(regexp.QuoteMeta(MarkerPrefix) + "([^\x7f<>&'\"]+)" + regexp.QuoteMeta(MarkerSuffix))

// Category groups markers by how they are expanded.
type Category string

const (
	NoWiki  Category = "nowiki"
	General Category = "general"
	ExtTag  Category = "exttag"
	Unknown Category = "unknown"
)

// lookupOrder is the order in which Split searches the categories.
var lookupOrder = []Category{NoWiki, General, ExtTag}

// Expandable is a value registered under a marker.
type Expandable interface {
	Resolve() string
}

// Literal is a fixed marker value.
type Literal string

func (l Literal) Resolve() string { return string(l) }

// Deferred is a marker value computed each time it is expanded.
type Deferred func() string

func (d Deferred) Resolve() string { return d() }

type memo struct {
	once sync.Once
	fn   func() string
	val  string
}

func (m *memo) Resolve() string {
	m.once.Do(func() { m.val = m.fn() })
	return m.val
}

// Memoize wraps fn so it is computed at most once.
func Memoize(fn func() string) Expandable {
	return &memo{fn: fn}
}

// LimitWarner receives limit violations, for example to add a parser
// limitation warning to the page.
type LimitWarner interface {
	LimitationWarn(limit string, max int)
}

// Options configures a State.
type Options struct {
	DepthLimit int
	SizeLimit  int
	// Language selects the message language for inline warnings.
	Language string
	Messages *msg.Catalog
	Warner   LimitWarner
}

// State holds the markers registered during one parse. It is not safe for
// concurrent use, but deferred values may expand other markers on the same
// State while being resolved.
type State struct {
	items        map[Category]map[string]Expandable
	opts         Options
	highestDepth int
	expandSize   int
	index        int
}

// expansion is the per-call recursion state.
type expansion struct {
	depth      int
	inProgress map[string]bool
}

// New returns an empty State. Zero limits take the defaults.
func New(opts Options) *State {
	if opts.DepthLimit <= 0 {
		opts.DepthLimit = DefaultDepthLimit
	}
	if opts.SizeLimit <= 0 {
		opts.SizeLimit = DefaultSizeLimit
	}
	if opts.Language == "" {
		opts.Language = msg.FallbackLanguage
	}
	if opts.Messages == nil {
		opts.Messages = msg.Default()
	}
	return &State{
		items: make(map[Category]map[string]Expandable),
		opts:  opts,
	}
}

// MarkerID returns the id inside marker, or false if marker does not
// contain a well-formed marker.
func MarkerID(marker string) (string, bool) {
	m := markerRe.FindStringSubmatch(marker)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// AddItem registers value under marker in the given category.
func (s *State) AddItem(cat Category, marker string, value Expandable) error {
	id, ok := MarkerID(marker)
	if !ok {
		return &errors.ValidationError{Field: "marker", Value: marker, Message: fmt.Sprintf("invalid marker %q", marker)}
	}
	if cat == Unknown || cat == "" {
		return errors.NewValidation("category", fmt.Sprintf("cannot register under %q", cat))
	}
	m := s.items[cat]
	if m == nil {
		m = make(map[string]Expandable)
		s.items[cat] = m
	}
	m[id] = value
	return nil
}

// AddNoWiki registers a nowiki value.
func (s *State) AddNoWiki(marker string, value Expandable) error {
	return s.AddItem(NoWiki, marker, value)
}

// AddGeneral registers a general value.
func (s *State) AddGeneral(marker string, value Expandable) error {
	return s.AddItem(General, marker, value)
}

// AddExtTag registers an extension tag value.
func (s *State) AddExtTag(marker string, value Expandable) error {
	return s.AddItem(ExtTag, marker, value)
}

// Insert mints a fresh marker, registers value under it and returns the
// marker.
func (s *State) Insert(cat Category, value Expandable) (string, error) {
	marker := fmt.Sprintf("%s-item-%08X%s", MarkerPrefix, s.index, MarkerSuffix)
	s.index++
	if err := s.AddItem(cat, marker, value); err != nil {
		return "", err
	}
	return marker, nil
}

// Expand replaces the markers of category cat in text with their values,
// recursively. Unknown markers are left as they are.
func (s *State) Expand(cat Category, text string) string {
	return s.expand(cat, text, &expansion{inProgress: map[string]bool{}})
}

// UnstripGeneral expands general markers.
func (s *State) UnstripGeneral(text string) string { return s.Expand(General, text) }

// UnstripNoWiki expands nowiki markers.
func (s *State) UnstripNoWiki(text string) string { return s.Expand(NoWiki, text) }

// UnstripBoth expands general markers, then nowiki markers.
func (s *State) UnstripBoth(text string) string {
	return s.UnstripNoWiki(s.UnstripGeneral(text))
}

func (s *State) expand(cat Category, text string, ex *expansion) string {
	items := s.items[cat]
	if len(items) == 0 {
		return text
	}
	return replaceMarkers(text, func(full, id string) string {
		value, ok := items[id]
		if !ok {
			return full
		}
		if ex.inProgress[id] {
			return s.warning(msg.UnstripLoopWarning)
		}
		if ex.depth > s.highestDepth {
			s.highestDepth = ex.depth
		}
		if ex.depth >= s.opts.DepthLimit {
			return s.limitationWarning("unstrip-depth", msg.UnstripDepthWarning, s.opts.DepthLimit, ex.depth)
		}

		resolved := value.Resolve()
		s.expandSize += len(resolved)
		if s.expandSize > s.opts.SizeLimit {
			return s.limitationWarning("unstrip-size", msg.UnstripSizeWarning, s.opts.SizeLimit, s.expandSize)
		}

		ex.inProgress[id] = true
		ex.depth++
		out := s.expand(cat, resolved, ex)
		ex.depth--
		delete(ex.inProgress, id)
		return out
	})
}

// ReplaceNoWikis replaces each known nowiki marker with fn applied to its
// value. Values count towards the size limit.
func (s *State) ReplaceNoWikis(text string, fn func(string) string) string {
	items := s.items[NoWiki]
	if len(items) == 0 {
		return text
	}
	return replaceMarkers(text, func(full, id string) string {
		value, ok := items[id]
		if !ok {
			return full
		}
		resolved := value.Resolve()
		s.expandSize += len(resolved)
		if s.expandSize > s.opts.SizeLimit {
			return s.limitationWarning("unstrip-size", msg.UnstripSizeWarning, s.opts.SizeLimit, s.expandSize)
		}
		return fn(resolved)
	})
}

// Piece is one element of a Split result. Even indexes are plain text;
// odd indexes are markers.
type Piece struct {
	Text     string
	Marker   string
	Category Category
	Content  Expandable
}

// IsMarker reports whether the piece stands for a marker.
func (p Piece) IsMarker() bool { return p.Category != "" }

// Split partitions text at markers without expanding them. The result has
// odd length: text, marker, text, ..., text.
func (s *State) Split(text string) []Piece {
	locs := markerRe.FindAllStringSubmatchIndex(text, -1)
	pieces := make([]Piece, 0, 2*len(locs)+1)
	last := 0
	for _, loc := range locs {
		pieces = append(pieces, Piece{Text: text[last:loc[0]]})
		id := text[loc[2]:loc[3]]
		p := Piece{Marker: id, Category: Unknown}
		for _, cat := range lookupOrder {
			if v, ok := s.items[cat][id]; ok {
				p.Category = cat
				p.Content = v
				break
			}
		}
		pieces = append(pieces, p)
		last = loc[1]
	}
	return append(pieces, Piece{Text: text[last:]})
}

// KillMarkers removes every marker from text without expanding it.
func KillMarkers(text string) string {
	return markerRe.ReplaceAllString(text, "")
}

// KillMarkers removes every marker from text without expanding it.
func (s *State) KillMarkers(text string) string {
	return KillMarkers(text)
}

// LimitReportEntry is one line of the parser limit report.
type LimitReportEntry struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
	Limit int    `json:"limit"`
}

// LimitReport returns the highest depth and total expanded size seen so far
// against their limits.
func (s *State) LimitReport() []LimitReportEntry {
	return []LimitReportEntry{
		{Key: msg.LimitReportUnstripDepth, Value: s.highestDepth, Limit: s.opts.DepthLimit},
		{Key: msg.LimitReportUnstripSize, Value: s.expandSize, Limit: s.opts.SizeLimit},
	}
}

func (s *State) limitationWarning(limit, key string, max, current int) string {
	if s.opts.Warner != nil {
		s.opts.Warner.LimitationWarn(limit, max)
	}
	logging.LimitExceeded(limit, current, max)
	return s.warning(key, max)
}

func (s *State) warning(key string, params ...any) string {
	return s.opts.Messages.ErrorSpan(s.opts.Language, key, params...)
}

// replaceMarkers calls fn for every marker in text and splices in its result.
func replaceMarkers(text string, fn func(full, id string) string) string {
	locs := markerRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range locs {
		b.WriteString(text[last:loc[0]])
		b.WriteString(fn(text[loc[0]:loc[1]], text[loc[2]:loc[3]]))
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}
