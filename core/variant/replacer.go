package variant

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// replacer performs longest-match-first replacement of a string table,
// scanning left to right and never rescanning replaced text.
type replacer struct {
	pairs   map[string]string
	lengths []int // distinct key lengths, longest first
	first   [256]bool
}

func newReplacer(table map[string]string) *replacer {
	r := &replacer{pairs: make(map[string]string, len(table))}
	for from, to := range table {
		r.set(from, to)
	}
	r.index()
	return r
}

func (r *replacer) set(from, to string) {
	if from == "" {
		return
	}
	r.pairs[from] = to
}

func (r *replacer) index() {
	seen := make(map[int]bool)
	r.lengths = r.lengths[:0]
	r.first = [256]bool{}
	for from := range r.pairs {
		r.first[from[0]] = true
		if !seen[len(from)] {
			seen[len(from)] = true
			r.lengths = append(r.lengths, len(from))
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(r.lengths)))
}

// merge returns a replacer holding r's pairs overridden by over.
func (r *replacer) merge(over map[string]string) *replacer {
	m := &replacer{pairs: make(map[string]string, len(r.pairs)+len(over))}
	for from, to := range r.pairs {
		m.pairs[from] = to
	}
	for from, to := range over {
		m.set(from, to)
	}
	m.index()
	return m
}

func (r *replacer) empty() bool {
	return r == nil || len(r.pairs) == 0
}

func (r *replacer) match(s string) (string, int, bool) {
	for _, n := range r.lengths {
		if n > len(s) {
			continue
		}
		if to, ok := r.pairs[s[:n]]; ok {
			return to, n, true
		}
	}
	return "", 0, false
}

// replace applies the table to s. Unmatched stretches are passed through
// gap when it is non-nil.
func (r *replacer) replace(s string, gap func(string) string) string {
	if r.empty() {
		if gap != nil {
			return gap(s)
		}
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	flush := func(seg string) {
		if seg == "" {
			return
		}
		if gap != nil {
			seg = gap(seg)
		}
		b.WriteString(seg)
	}
	start := 0
	for i := 0; i < len(s); {
		if r.first[s[i]] {
			if to, n, ok := r.match(s[i:]); ok {
				flush(s[start:i])
				b.WriteString(to)
				i += n
				start = i
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	flush(s[start:])
	return b.String()
}
