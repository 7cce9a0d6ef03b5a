package title

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/wikiconv/core/errors"
)

// maxTitleBytes is the database limit on page_title.
const maxTitleBytes = 255

// Config describes the wiki a Factory parses titles for.
type Config struct {
	// Namespaces maps namespace ids to localised names with underscores.
	Namespaces map[int]string
	// Aliases maps additional names (any case) to namespace ids.
	Aliases map[string]int
	// CapitalLinks upper-cases the first letter of every title.
	CapitalLinks bool
	// Server is the URL prefix for full URLs, e.g. "//example.org".
	Server string
	// ArticlePath is the short URL pattern, e.g. "/wiki/$1".
	ArticlePath string
	// Script is the entry point for URLs with a query, e.g. "/w/index.php".
	Script string
}

// DefaultNamespaces returns the English namespace names.
func DefaultNamespaces() map[int]string {
	return map[int]string{
		NSMedia:         "Media",
		NSSpecial:       "Special",
		NSMain:          "",
		NSTalk:          "Talk",
		NSUser:          "User",
		NSUserTalk:      "User_talk",
		NSProject:       "Project",
		NSProject + 1:   "Project_talk",
		NSFile:          "File",
		NSFile + 1:      "File_talk",
		NSMediaWiki:     "MediaWiki",
		NSMediaWiki + 1: "MediaWiki_talk",
		NSTemplate:      "Template",
		NSTemplate + 1:  "Template_talk",
		NSHelp:          "Help",
		NSHelp + 1:      "Help_talk",
		NSCategory:      "Category",
		NSCategory + 1:  "Category_talk",
	}
}

// Factory parses titles against a namespace table.
type Factory struct {
	cfg    Config
	byName map[string]int
}

// NewFactory returns a Factory for cfg. Missing namespaces, paths and
// server take English defaults.
func NewFactory(cfg Config) *Factory {
	if cfg.Namespaces == nil {
		cfg.Namespaces = DefaultNamespaces()
	}
	if cfg.ArticlePath == "" {
		cfg.ArticlePath = "/wiki/$1"
	}
	if cfg.Script == "" {
		cfg.Script = "/w/index.php"
	}
	f := &Factory{cfg: cfg, byName: make(map[string]int)}
	for id, name := range cfg.Namespaces {
		if name != "" {
			f.byName[normaliseNsName(name)] = id
		}
	}
	for name, id := range cfg.Aliases {
		f.byName[normaliseNsName(name)] = id
	}
	// Canonical names always resolve.
	for id, name := range DefaultNamespaces() {
		if name == "" {
			continue
		}
		if _, ok := f.byName[normaliseNsName(name)]; !ok {
			f.byName[normaliseNsName(name)] = id
		}
	}
	return f
}

func normaliseNsName(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

var (
	multiUnderscore = regexp.MustCompile(`_+`)
	illegalChars    = regexp.MustCompile(`[<>\[\]{}|#\x00-\x1f\x7f]|%[0-9A-Fa-f]{2}|&[A-Za-z0-9\x{80}-\x{10FFFF}]+;`)
	nsPrefix        = regexp.MustCompile(`^(.+?)_*:_*(.*)$`)
)

// NewFromText parses text into a Title. Text without a namespace prefix is
// placed in defaultNS.
func (f *Factory) NewFromText(text string, defaultNS int) (*Title, error) {
	orig := text
	dbkey := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, text)

	var fragment string
	if i := strings.IndexByte(dbkey, '#'); i >= 0 {
		fragment = strings.ReplaceAll(dbkey[i+1:], "_", " ")
		dbkey = dbkey[:i]
	}
	dbkey = strings.Trim(multiUnderscore.ReplaceAllString(dbkey, "_"), "_")
	if dbkey == "" {
		return nil, errors.NewTitle(orig, "empty title")
	}

	ns := defaultNS
	if dbkey[0] == ':' {
		ns = NSMain
		dbkey = strings.TrimLeft(dbkey[1:], "_")
	}
	if m := nsPrefix.FindStringSubmatch(dbkey); m != nil {
		if id, ok := f.byName[normaliseNsName(m[1])]; ok {
			ns = id
			dbkey = m[2]
			if ns == NSTalk {
				if m2 := nsPrefix.FindStringSubmatch(dbkey); m2 != nil {
					if _, ok := f.byName[normaliseNsName(m2[1])]; ok {
						return nil, errors.NewTitle(orig, "talk namespace prefix on a namespaced title")
					}
				}
			}
		}
	}

	if err := validate(orig, dbkey, ns); err != nil {
		return nil, err
	}

	nsText, ok := f.cfg.Namespaces[ns]
	if !ok {
		return nil, errors.NewTitle(orig, fmt.Sprintf("unknown namespace %d", ns))
	}

	if f.cfg.CapitalLinks {
		dbkey = ucfirst(dbkey)
	}

	return &Title{ns: ns, nsText: nsText, dbkey: dbkey, fragment: fragment}, nil
}

// NewMainPage parses text in the main namespace.
func (f *Factory) NewMainPage(text string) (*Title, error) {
	return f.NewFromText(text, NSMain)
}

func validate(orig, dbkey string, ns int) error {
	switch {
	case dbkey == "" && ns != NSMain:
		return errors.NewTitle(orig, "namespace without a title")
	case dbkey == "":
		return errors.NewTitle(orig, "empty title")
	case illegalChars.MatchString(dbkey):
		return errors.NewTitle(orig, "contains illegal characters")
	case !utf8.ValidString(dbkey):
		return errors.NewTitle(orig, "invalid UTF-8")
	case dbkey == "." || dbkey == ".." ||
		strings.HasPrefix(dbkey, "./") || strings.HasPrefix(dbkey, "../") ||
		strings.Contains(dbkey, "/./") || strings.Contains(dbkey, "/../") ||
		strings.HasSuffix(dbkey, "/.") || strings.HasSuffix(dbkey, "/.."):
		return errors.NewTitle(orig, "relative path")
	case strings.Contains(dbkey, "~~~"):
		return errors.NewTitle(orig, "contains signature")
	case len(dbkey) > maxTitleBytes && ns != NSSpecial:
		return errors.NewTitle(orig, "too long")
	case dbkey[0] == ':':
		return errors.NewTitle(orig, "leading colon")
	}
	return nil
}

func ucfirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// LocalURL returns the server-relative URL of t. A non-empty query moves
// the title into the query string.
func (f *Factory) LocalURL(t *Title, query url.Values) string {
	key := URLEncode(t.PrefixedDBkey())
	if len(query) == 0 {
		return strings.Replace(f.cfg.ArticlePath, "$1", key, 1)
	}
	return f.cfg.Script + "?title=" + key + "&" + query.Encode()
}

// FullURL returns the URL of t including the server.
func (f *Factory) FullURL(t *Title, query url.Values) string {
	return f.cfg.Server + f.LocalURL(t, query)
}

// BaseURI returns the article path prefix including the server, the form
// internal links are resolved against.
func (f *Factory) BaseURI() string {
	return f.cfg.Server + strings.Replace(f.cfg.ArticlePath, "$1", "", 1)
}

// URLEncode escapes s for a URL path the way wiki links expect: like
// query escaping, but keeping the characters ";@$!*(),/~:" readable.
func URLEncode(s string) string {
	const keep = ";@$!*(),/~:"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '-', c == '_', c == '.':
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		case strings.IndexByte(keep, c) >= 0:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
