package variant

import (
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/FocuswithJustin/wikiconv/core/dom"
	"github.com/FocuswithJustin/wikiconv/core/msg"
)

// RuleAction tags what a manual conversion rule does.
type RuleAction int

const (
	ActionNone RuleAction = iota
	ActionAdd
	ActionRemove
	ActionFilter
	ActionDescribe
	ActionTitle
	ActionName
	ActionRaw
)

var actionNames = [...]string{
	ActionNone:     "none",
	ActionAdd:      "add",
	ActionRemove:   "remove",
	ActionFilter:   "filter",
	ActionDescribe: "describe",
	ActionTitle:    "title",
	ActionName:     "name",
	ActionRaw:      "raw",
}

func (a RuleAction) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Rule flags. Variant codes are also accepted as flags.
const (
	flagAdd      = "A"
	flagTitle    = "T"
	flagRaw      = "R"
	flagDescribe = "D"
	flagRemove   = "-"
	flagHidden   = "H"
	flagName     = "N"
	flagShow     = "S"
	flagPlus     = "+"
)

var validFlags = map[string]bool{
	flagAdd: true, flagTitle: true, flagRaw: true, flagDescribe: true,
	flagRemove: true, flagHidden: true, flagName: true,
}

// flagSet is an insertion-ordered set of flags. The order decides which
// flag sets the display text.
type flagSet []string

func (f flagSet) has(flag string) bool {
	for _, x := range f {
		if x == flag {
			return true
		}
	}
	return false
}

func (f flagSet) add(flag string) flagSet {
	if f.has(flag) {
		return f
	}
	return append(f, flag)
}

func (f flagSet) remove(flag string) flagSet {
	out := f[:0]
	for _, x := range f {
		if x != flag {
			out = append(out, x)
		}
	}
	return out
}

// pairs is an insertion-ordered string map.
type pairs struct {
	keys []string
	vals map[string]string
}

func (p *pairs) set(k, v string) {
	if p.vals == nil {
		p.vals = make(map[string]string)
	}
	if _, ok := p.vals[k]; !ok {
		p.keys = append(p.keys, k)
	}
	p.vals[k] = v
}

func (p *pairs) get(k string) (string, bool) {
	v, ok := p.vals[k]
	return v, ok
}

func (p *pairs) len() int { return len(p.keys) }

func (p *pairs) first() (string, string) {
	if len(p.keys) == 0 {
		return "", ""
	}
	return p.keys[0], p.vals[p.keys[0]]
}

// Rule is one manual conversion rule, parsed either from the text inside
// -{ }- or from a mw:LanguageVariant element.
type Rule struct {
	conv Converter

	text         string
	rules        string
	flags        flagSet
	variantFlags []string

	bid       pairs
	unid      map[string]*pairs
	unidOrder []string
	convTable map[string]map[string]string

	title      string
	hasTitle   bool
	display    string
	hasDisplay bool
	action     RuleAction
	kind       RuleAction
	hidden     bool
}

// NewRule returns a rule for the markup text between -{ and }-.
func NewRule(text string, conv Converter) *Rule {
	return &Rule{text: text, conv: conv}
}

// Title returns the title set by a T rule.
func (r *Rule) Title() (string, bool) { return r.title, r.hasTitle }

// Display returns the HTML shown in place of the rule.
func (r *Rule) Display() string { return r.display }

// Action returns ActionAdd, ActionRemove or ActionNone.
func (r *Rule) Action() RuleAction { return r.action }

// Kind classifies the rule by its dominant flag: ActionFilter, ActionRaw,
// ActionName, ActionTitle, ActionDescribe, or ActionNone.
func (r *Rule) Kind() RuleAction { return r.kind }

// ConvTable returns the conversion pairs the rule produces, by variant.
func (r *Rule) ConvTable() map[string]map[string]string {
	if r.convTable == nil {
		return map[string]map[string]string{}
	}
	return r.convTable
}

// DisplayFragment parses the display HTML into a fragment.
func (r *Rule) DisplayFragment() (*html.Node, error) {
	return dom.ParseFragmentString(r.display)
}

// TitleFragment parses the title HTML into a fragment. It returns nil when
// the rule sets no title.
func (r *Rule) TitleFragment() (*html.Node, error) {
	if !r.hasTitle {
		return nil, nil
	}
	return dom.ParseFragmentString(r.title)
}

// Parse parses the rule text for display in variant. An empty variant
// means the language's main code.
func (r *Rule) Parse(variant string) {
	if variant == "" {
		variant = r.conv.MainCode()
	}
	r.parseFlags()
	if len(r.variantFlags) > 0 {
		if v, ok := r.filterVariant(variant); ok {
			r.rules = r.conv.AutoConvert(r.rules, v)
		}
		r.flags = flagSet{flagRaw}
	}
	if !r.flags.has(flagRaw) && !r.flags.has(flagName) {
		r.rules = strings.ReplaceAll(r.rules, "=&gt;", "=>")
		r.parseRules()
	}
	r.finish(variant)
}

func (r *Rule) parseFlags() {
	text := r.text
	var flags flagSet
	if i := strings.IndexByte(text, '|'); i >= 0 {
		variants := r.conv.Variants()
		for _, f := range strings.Split(text[:i], ";") {
			f = strings.TrimSpace(f)
			if validFlags[f] || contains(variants, f) {
				flags = flags.add(f)
			}
		}
		text = text[i+1:]
	}
	r.rules = text
	r.flags, r.variantFlags = r.normalizeFlags(flags)
}

// normalizeFlags applies the precedence between flags. R, N and - each
// stand alone, T alone implies H, and H turns into an add rule.
func (r *Rule) normalizeFlags(flags flagSet) (flagSet, []string) {
	switch {
	case len(flags) == 0:
		return flagSet{flagShow}, nil
	case flags.has(flagRaw):
		return flagSet{flagRaw}, nil
	case flags.has(flagName):
		return flagSet{flagName}, nil
	case flags.has(flagRemove):
		return flagSet{flagRemove}, nil
	case len(flags) == 1 && flags.has(flagTitle):
		return flagSet{flagTitle, flagHidden}, nil
	case flags.has(flagHidden):
		out := flagSet{flagPlus, flagHidden}
		if flags.has(flagTitle) {
			out = append(out, flagTitle)
		}
		if flags.has(flagDescribe) {
			out = append(out, flagDescribe)
		}
		return out, nil
	}
	if flags.has(flagAdd) {
		flags = flags.add(flagPlus).add(flagShow)
	}
	if flags.has(flagDescribe) {
		flags = flags.remove(flagShow)
	}
	var variantFlags []string
	for _, f := range flags {
		if contains(r.conv.Variants(), f) {
			variantFlags = append(variantFlags, f)
		}
	}
	if len(variantFlags) > 0 {
		return nil, variantFlags
	}
	return flags, nil
}

// filterVariant picks the variant a filter rule converts into: variant
// itself when listed, else its first listed fallback.
func (r *Rule) filterVariant(variant string) (string, bool) {
	if contains(r.variantFlags, variant) {
		return variant, true
	}
	for _, fb := range r.conv.VariantFallbacks(variant) {
		if contains(r.variantFlags, fb) {
			return fb, true
		}
	}
	return "", false
}

var entitySemicolon = regexp.MustCompile(`(&[#a-zA-Z0-9]+);`)

// parseRules reads "variant:text" and "from=>variant:text" pairs separated
// by ";". A ";" only separates rules when a variant specification follows
// it, so text may contain semicolons. Any pair naming an unknown variant
// invalidates the whole rule.
func (r *Rule) parseRules() {
	r.bid = pairs{}
	r.unid, r.unidOrder = nil, nil

	rules := entitySemicolon.ReplaceAllString(r.rules, "$1\x01")
	for _, c := range r.splitRules(rules) {
		c = strings.ReplaceAll(c, "\x01", ";")
		v, to, ok := strings.Cut(c, ":")
		if !ok {
			continue
		}
		to = strings.TrimSpace(to)
		v = strings.TrimSpace(v)
		var vv string
		if from, target, arrow := strings.Cut(v, "=>"); arrow {
			from = strings.TrimSpace(from)
			vv = r.conv.ValidateVariant(strings.TrimSpace(target))
			if from != "" && vv != "" {
				r.addUnid(vv, from, to)
			}
		} else {
			vv = r.conv.ValidateVariant(v)
			if to != "" && vv != "" {
				r.bid.set(vv, to)
			}
		}
		if vv == "" {
			r.bid = pairs{}
			r.unid, r.unidOrder = nil, nil
			break
		}
	}
}

func (r *Rule) addUnid(variant, from, to string) {
	if r.unid == nil {
		r.unid = make(map[string]*pairs)
	}
	p, ok := r.unid[variant]
	if !ok {
		p = &pairs{}
		r.unid[variant] = p
		r.unidOrder = append(r.unidOrder, variant)
	}
	p.set(from, to)
}

// splitRules splits at every ";" (and the whitespace after it) that is
// followed by a variant specification or by the end of the text.
func (r *Rule) splitRules(s string) []string {
	sep := separatorFor(r.conv)
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != ';' {
			continue
		}
		rest := s[i+1:]
		trimmed := strings.TrimLeft(rest, " \t\n\r\f\v")
		if !sep.MatchString(trimmed) {
			continue
		}
		out = append(out, s[start:i])
		start = len(s) - len(trimmed)
		i = start - 1
	}
	return append(out, s[start:])
}

func separatorFor(conv Converter) *regexp.Regexp {
	if lc, ok := conv.(*LanguageConverter); ok {
		return lc.def.variantSeparator()
	}
	alts := make([]string, 0, len(conv.Variants()))
	for _, v := range conv.Variants() {
		alts = append(alts, regexp.QuoteMeta(v))
	}
	vs := "(?i:" + strings.Join(alts, "|") + ")"
	return regexp.MustCompile(`^(?:` + vs + `\s*:|[^;]*?=>\s*` + vs + `\s*:|\s*$)`)
}

func (r *Rule) hasTables() bool {
	return r.bid.len() > 0 || len(r.unidOrder) > 0
}

// finish completes parsing once flags, rules and tables are known: it
// picks the display text and builds the conversion table.
func (r *Rule) finish(variant string) {
	if !r.hasTables() {
		if r.flags.has(flagPlus) || r.flags.has(flagRemove) {
			if r.rules != "" {
				for _, v := range r.conv.Variants() {
					r.bid.set(v, r.rules)
				}
			}
		} else if !r.flags.has(flagName) && !r.flags.has(flagTitle) {
			r.flags = flagSet{flagRaw}
		}
	}
	r.kind = r.classify()

	r.hasDisplay = false
	for _, f := range r.flags {
		switch f {
		case flagRaw:
			r.setDisplay(r.rules, true)
		case flagName:
			r.setDisplay(r.conv.VariantName(strings.TrimSpace(r.rules)), true)
		case flagDescribe:
			r.setDisplay(r.describe(), true)
		case flagHidden:
			r.setDisplay("", true)
		case flagRemove:
			r.action = ActionRemove
			r.setDisplay("", true)
		case flagPlus:
			r.action = ActionAdd
			r.setDisplay("", true)
		case flagShow:
			r.setDisplay(r.convertedStr(variant))
		case flagTitle:
			if t, ok := r.convertedTitle(variant); ok {
				r.title, r.hasTitle = t, true
			}
			r.setDisplay("", true)
		}
	}
	if !r.hasDisplay {
		r.display = msg.Default().ErrorSpan(r.conv.MainCode(), msg.ManualRuleError)
	}
	r.generateConvTable()
}

func (r *Rule) setDisplay(s string, ok bool) {
	r.display, r.hasDisplay = s, ok
}

func (r *Rule) classify() RuleAction {
	switch {
	case len(r.variantFlags) > 0:
		return ActionFilter
	case r.flags.has(flagRaw):
		return ActionRaw
	case r.flags.has(flagName):
		return ActionName
	case r.flags.has(flagTitle):
		return ActionTitle
	case r.flags.has(flagDescribe):
		return ActionDescribe
	}
	return ActionNone
}

func (r *Rule) describe() string {
	var b strings.Builder
	for _, k := range r.bid.keys {
		b.WriteString(r.conv.VariantName(k) + ":" + r.bid.vals[k] + ";")
	}
	for _, k := range r.unidOrder {
		p := r.unid[k]
		for _, from := range p.keys {
			b.WriteString(from + "⇒" + r.conv.VariantName(k) + ":" + p.vals[from] + ";")
		}
	}
	return b.String()
}

// textInBid returns the bidirectional text of the first listed variant
// that has one.
func (r *Rule) textInBid(variants ...string) (string, bool) {
	for _, v := range variants {
		if t, ok := r.bid.get(v); ok {
			return t, true
		}
	}
	return "", false
}

// convertedStr returns the text shown for variant. It fails when the rule
// has tables but none of them covers variant.
func (r *Rule) convertedStr(variant string) (string, bool) {
	if !r.hasTables() {
		return r.rules, true
	}
	if t, ok := r.textInBid(variant); ok {
		return t, true
	}
	if t, ok := r.textInBid(r.conv.VariantFallbacks(variant)...); ok {
		return t, true
	}
	if p, ok := r.unid[variant]; ok && p.len() > 0 {
		_, to := p.first()
		return to, true
	}
	if r.conv.ManualLevel(variant) == Disable {
		if r.bid.len() > 0 {
			_, v := r.bid.first()
			return v, true
		}
		from, _ := r.unid[r.unidOrder[0]].first()
		return from, true
	}
	return "", false
}

func (r *Rule) convertedTitle(variant string) (string, bool) {
	if variant == r.conv.MainCode() {
		if t, ok := r.bid.get(variant); ok {
			return t, true
		}
		return r.rules, true
	}
	return r.convertedStr(variant)
}

// generateConvTable derives the conversion table: every pair of variants
// in the bidirectional table maps onto each other, subject to the manual
// level of the target, and unidirectional pairs are added on top.
func (r *Rule) generateConvTable() {
	r.convTable = nil
	if !r.hasTables() {
		return
	}
	set := func(v, from, to string) {
		if r.convTable == nil {
			r.convTable = make(map[string]map[string]string)
		}
		if r.convTable[v] == nil {
			r.convTable[v] = make(map[string]string)
		}
		r.convTable[v][from] = to
	}

	bid := make(map[string]string, r.bid.len())
	for _, k := range r.bid.keys {
		bid[k] = r.bid.vals[k]
	}
	var marked []string
	for _, v := range r.conv.Variants() {
		if _, ok := bid[v]; !ok {
			if vf, ok := r.textInBid(r.conv.VariantFallbacks(v)...); ok && vf != "" {
				bid[v] = vf
			}
		}
		if text, ok := bid[v]; ok {
			for _, vo := range marked {
				if r.conv.ManualLevel(v) == Bidirectional {
					set(v, bid[vo], text)
				}
				if r.conv.ManualLevel(vo) == Bidirectional {
					set(vo, text, bid[vo])
				}
			}
			marked = append(marked, v)
		}
		level := r.conv.ManualLevel(v)
		if p, ok := r.unid[v]; ok && (level == Bidirectional || level == Unidirectional) {
			for _, from := range p.keys {
				set(v, from, p.vals[from])
			}
		}
	}
}

// variantPayload is the data-mw-variant attribute of a mw:LanguageVariant
// element.
type variantPayload struct {
	Disabled *textPayload `json:"disabled"`
	Name     *textPayload `json:"name"`
	Filter   *struct {
		L []string `json:"l"`
		T string   `json:"t"`
	} `json:"filter"`
	Twoway []struct {
		L string `json:"l"`
		T string `json:"t"`
	} `json:"twoway"`
	Oneway []struct {
		F string `json:"f"`
		L string `json:"l"`
		T string `json:"t"`
	} `json:"oneway"`
	Show     bool `json:"show"`
	Title    bool `json:"title"`
	Describe bool `json:"describe"`
	Add      bool `json:"add"`
	Remove   bool `json:"remove"`
}

type textPayload struct {
	T string `json:"t"`
}

// ParseElement parses a mw:LanguageVariant element for display in variant.
// For a filter rule listing variant, or one of its fallbacks, it returns
// that variant and true: the display fragment is then still to be
// converted into it. Malformed payloads are treated as empty.
func (r *Rule) ParseElement(el *html.Node, variant string) (string, bool) {
	if variant == "" {
		variant = r.conv.MainCode()
	}
	r.hidden = dom.IsElement(el, "meta")

	var p variantPayload
	if raw, ok := dom.Attr(el, "data-mw-variant"); ok {
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			p = variantPayload{}
		}
	}

	var next string
	var recurse bool
	switch {
	case p.Disabled != nil:
		r.rules = p.Disabled.T
		r.flags = flagSet{flagRaw}
	case p.Name != nil:
		r.rules = p.Name.T
		r.flags = flagSet{flagName}
	case p.Filter != nil:
		for _, l := range p.Filter.L {
			if v := r.conv.ValidateVariant(l); v != "" {
				r.variantFlags = append(r.variantFlags, v)
			}
		}
		r.rules = p.Filter.T
		next, recurse = r.filterVariant(variant)
		r.flags = flagSet{flagRaw}
	default:
		var flags flagSet
		if p.Title {
			flags = flags.add(flagTitle)
		}
		if p.Describe {
			flags = flags.add(flagDescribe)
		}
		if p.Add {
			if p.Show && !r.hidden {
				flags = flags.add(flagAdd)
			} else {
				flags = flags.add(flagHidden)
			}
		}
		if p.Remove {
			flags = flags.add(flagRemove)
		}
		r.flags, _ = r.normalizeFlags(flags)
		for _, tw := range p.Twoway {
			if v := r.conv.ValidateVariant(tw.L); v != "" && tw.T != "" {
				r.bid.set(v, tw.T)
			}
		}
		for _, ow := range p.Oneway {
			if v := r.conv.ValidateVariant(ow.L); v != "" && ow.F != "" {
				r.addUnid(v, ow.F, ow.T)
			}
		}
	}
	r.finish(variant)
	return next, recurse
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
