package strip

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/wikiconv/core/errors"
)

func mk(id string) string { return MarkerPrefix + id + MarkerSuffix }

type recordingWarner struct {
	limits []string
	maxes  []int
}

func (r *recordingWarner) LimitationWarn(limit string, max int) {
	r.limits = append(r.limits, limit)
	r.maxes = append(r.maxes, max)
}

func TestAddItemRejectsInvalidMarker(t *testing.T) {
	s := New(Options{})
	tests := []struct {
		name   string
		marker string
	}{
		{"empty", ""},
		{"no delimiters", "nowiki-0001"},
		{"missing suffix", MarkerPrefix + "nowiki-0001"},
		{"forbidden character", MarkerPrefix + "a<b" + MarkerSuffix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AddNoWiki(tt.marker, Literal("x"))
			if err == nil {
				t.Fatal("AddNoWiki() error = nil, want error")
			}
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("AddNoWiki() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *State)
		cat   Category
		text  string
		want  string
	}{
		{
			name: "marker free text is unchanged",
			setup: func(s *State) {
				_ = s.AddGeneral(mk("a"), Literal("A"))
			},
			cat:  General,
			text: "plain <b>text</b> & more",
			want: "plain <b>text</b> & more",
		},
		{
			name: "literal value",
			setup: func(s *State) {
				_ = s.AddGeneral(mk("a"), Literal("<ref>1</ref>"))
			},
			cat:  General,
			text: "x" + mk("a") + "y",
			want: "x<ref>1</ref>y",
		},
		{
			name: "deferred value",
			setup: func(s *State) {
				_ = s.AddNoWiki(mk("n"), Deferred(func() string { return "&lt;nowiki&gt;" }))
			},
			cat:  NoWiki,
			text: mk("n"),
			want: "&lt;nowiki&gt;",
		},
		{
			name: "nested markers",
			setup: func(s *State) {
				_ = s.AddGeneral(mk("outer"), Literal("[" + mk("inner") + "]"))
				_ = s.AddGeneral(mk("inner"), Literal("in"))
			},
			cat:  General,
			text: mk("outer"),
			want: "[in]",
		},
		{
			name: "unknown marker left verbatim",
			setup: func(s *State) {
				_ = s.AddGeneral(mk("a"), Literal("A"))
			},
			cat:  General,
			text: mk("b") + mk("a"),
			want: mk("b") + "A",
		},
		{
			name: "other category left verbatim",
			setup: func(s *State) {
				_ = s.AddNoWiki(mk("n"), Literal("N"))
				_ = s.AddGeneral(mk("g"), Literal("G"))
			},
			cat:  General,
			text: mk("n") + mk("g"),
			want: mk("n") + "G",
		},
		{
			name: "circular reference",
			setup: func(s *State) {
				_ = s.AddGeneral(mk("a"), Literal("x"+mk("b")))
				_ = s.AddGeneral(mk("b"), Literal("y"+mk("a")))
			},
			cat:  General,
			text: mk("a"),
			want: `xy<span class="error">Unstrip loop detected</span>`,
		},
		{
			name: "same marker twice is not a loop",
			setup: func(s *State) {
				_ = s.AddGeneral(mk("a"), Literal("A"))
			},
			cat:  General,
			text: mk("a") + mk("a"),
			want: "AA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{})
			tt.setup(s)
			if got := s.Expand(tt.cat, tt.text); got != tt.want {
				t.Errorf("Expand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandDepthLimit(t *testing.T) {
	const limit = 3
	w := &recordingWarner{}
	s := New(Options{DepthLimit: limit, Warner: w})
	for i := 0; i < limit; i++ {
		_ = s.AddGeneral(mk(string(rune('a'+i))), Literal(mk(string(rune('a'+i+1)))))
	}
	_ = s.AddGeneral(mk(string(rune('a'+limit))), Literal("deep"))

	got := s.UnstripGeneral(mk("a"))
	want := `<span class="error">Exceeded recursion limit (3)</span>`
	if got != want {
		t.Errorf("UnstripGeneral() = %q, want %q", got, want)
	}
	if len(w.limits) != 1 || w.limits[0] != "unstrip-depth" || w.maxes[0] != limit {
		t.Errorf("warner got %v %v, want [unstrip-depth] [%d]", w.limits, w.maxes, limit)
	}

	report := s.LimitReport()
	if report[0].Value != limit || report[0].Limit != limit {
		t.Errorf("depth report = %+v, want value %d limit %d", report[0], limit, limit)
	}
}

func TestExpandDepthJustUnderLimit(t *testing.T) {
	s := New(Options{DepthLimit: 3})
	_ = s.AddGeneral(mk("a"), Literal(mk("b")))
	_ = s.AddGeneral(mk("b"), Literal(mk("c")))
	_ = s.AddGeneral(mk("c"), Literal("deep"))

	if got := s.UnstripGeneral(mk("a")); got != "deep" {
		t.Errorf("UnstripGeneral() = %q, want deep", got)
	}
}

func TestExpandSizeLimit(t *testing.T) {
	w := &recordingWarner{}
	s := New(Options{SizeLimit: 10, Warner: w})
	_ = s.AddGeneral(mk("a"), Literal("12345"))
	_ = s.AddGeneral(mk("b"), Literal("123456"))

	warn := `<span class="error">Exceeded unstrip size limit (10)</span>`
	got := s.UnstripGeneral(mk("a") + " " + mk("b") + " " + mk("a"))
	want := "12345 " + warn + " " + warn
	if got != want {
		t.Errorf("UnstripGeneral() = %q, want %q", got, want)
	}
	if len(w.limits) != 2 {
		t.Errorf("warner called %d times, want 2", len(w.limits))
	}
	if r := s.LimitReport()[1]; r.Value != 16 || r.Limit != 10 {
		t.Errorf("size report = %+v, want value 16 limit 10", r)
	}
}

func TestLimitReportKeys(t *testing.T) {
	r := New(Options{}).LimitReport()
	if len(r) != 2 {
		t.Fatalf("LimitReport() len = %d, want 2", len(r))
	}
	if r[0].Key != "limitreport-unstrip-depth" || r[0].Limit != DefaultDepthLimit {
		t.Errorf("r[0] = %+v", r[0])
	}
	if r[1].Key != "limitreport-unstrip-size" || r[1].Limit != DefaultSizeLimit {
		t.Errorf("r[1] = %+v", r[1])
	}
}

func TestUnstripBoth(t *testing.T) {
	s := New(Options{})
	_ = s.AddGeneral(mk("g"), Literal("<i>"+mk("n")+"</i>"))
	_ = s.AddNoWiki(mk("n"), Literal("raw"))

	if got := s.UnstripBoth(mk("g")); got != "<i>raw</i>" {
		t.Errorf("UnstripBoth() = %q, want <i>raw</i>", got)
	}
}

func TestDeferredReentrant(t *testing.T) {
	s := New(Options{})
	_ = s.AddGeneral(mk("inner"), Literal("I"))
	_ = s.AddGeneral(mk("outer"), Deferred(func() string {
		return "(" + s.UnstripGeneral(mk("inner")) + ")"
	}))

	if got := s.UnstripGeneral(mk("outer")); got != "(I)" {
		t.Errorf("UnstripGeneral() = %q, want (I)", got)
	}
}

func TestMemoize(t *testing.T) {
	calls := 0
	v := Memoize(func() string {
		calls++
		return "once"
	})
	s := New(Options{})
	_ = s.AddGeneral(mk("m"), v)

	if got := s.UnstripGeneral(mk("m") + mk("m")); got != "onceonce" {
		t.Errorf("UnstripGeneral() = %q", got)
	}
	if calls != 1 {
		t.Errorf("memoized func called %d times, want 1", calls)
	}
}

func TestReplaceNoWikis(t *testing.T) {
	s := New(Options{})
	_ = s.AddNoWiki(mk("n"), Literal("a&b"))

	got := s.ReplaceNoWikis("x"+mk("n")+mk("z"), strings.ToUpper)
	if got != "xA&B"+mk("z") {
		t.Errorf("ReplaceNoWikis() = %q", got)
	}
	if got := New(Options{}).ReplaceNoWikis(mk("n"), strings.ToUpper); got != mk("n") {
		t.Errorf("ReplaceNoWikis() on empty state = %q, want input unchanged", got)
	}
}

func TestSplit(t *testing.T) {
	s := New(Options{})
	_ = s.AddNoWiki(mk("n"), Literal("N"))
	_ = s.AddExtTag(mk("e"), Literal("E"))

	pieces := s.Split("a" + mk("n") + "b" + mk("missing") + mk("e"))
	if len(pieces)%2 != 1 {
		t.Fatalf("Split() len = %d, want odd", len(pieces))
	}

	wantCats := []Category{"", NoWiki, "", Unknown, "", ExtTag, ""}
	if len(pieces) != len(wantCats) {
		t.Fatalf("Split() len = %d, want %d", len(pieces), len(wantCats))
	}
	for i, p := range pieces {
		if p.Category != wantCats[i] {
			t.Errorf("pieces[%d].Category = %q, want %q", i, p.Category, wantCats[i])
		}
		if (i%2 == 1) != p.IsMarker() {
			t.Errorf("pieces[%d].IsMarker() = %v", i, p.IsMarker())
		}
	}
	if pieces[3].Marker != "missing" || pieces[3].Content != nil {
		t.Errorf("unknown piece = %+v, want marker id and nil content", pieces[3])
	}

	var b strings.Builder
	for _, p := range pieces {
		if p.IsMarker() {
			if p.Content != nil {
				b.WriteString(p.Content.Resolve())
			}
			continue
		}
		b.WriteString(p.Text)
	}
	if b.String() != "aNbE" {
		t.Errorf("reassembled = %q, want aNbE", b.String())
	}
}

func TestSplitNoMarkers(t *testing.T) {
	pieces := New(Options{}).Split("just text")
	if len(pieces) != 1 || pieces[0].Text != "just text" {
		t.Errorf("Split() = %+v, want single text piece", pieces)
	}
}

func TestKillMarkers(t *testing.T) {
	if got := KillMarkers("a" + mk("x") + "b" + mk("y")); got != "ab" {
		t.Errorf("KillMarkers() = %q, want ab", got)
	}
}

func TestInsert(t *testing.T) {
	s := New(Options{})
	m1, err := s.Insert(General, Literal("one"))
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	m2, _ := s.Insert(General, Literal("two"))
	if m1 == m2 {
		t.Fatal("Insert() returned the same marker twice")
	}
	if id, ok := MarkerID(m1); !ok || id != "-item-00000000" {
		t.Errorf("MarkerID(%q) = %q, %v", m1, id, ok)
	}
	if got := s.UnstripGeneral(m1 + m2); got != "onetwo" {
		t.Errorf("UnstripGeneral() = %q, want onetwo", got)
	}
	if _, err := s.Insert(Unknown, Literal("x")); err == nil {
		t.Error("Insert(Unknown) error = nil, want error")
	}
}

func FuzzExpandIdentity(f *testing.F) {
	f.Add("plain text")
	f.Add("<p>a &amp; b</p>")
	f.Add("\x7f'\"`UNIQ-")
	f.Fuzz(func(t *testing.T, text string) {
		s := New(Options{})
		_ = s.AddGeneral(mk("a"), Literal("A"+mk("a")))
		got := s.UnstripBoth(text)
		if !strings.Contains(text, MarkerPrefix) && got != text {
			t.Errorf("UnstripBoth(%q) = %q, want identity", text, got)
		}
	})
}
