package msg

import "testing"

func TestText(t *testing.T) {
	c := NewCatalog()

	tests := []struct {
		name   string
		lang   string
		key    string
		params []any
		want   string
	}{
		{"no params", "en", UnstripLoopWarning, nil, "Unstrip loop detected"},
		{"number param", "en", UnstripSizeWarning, []any{5000000}, "Exceeded unstrip size limit (5,000,000)"},
		{"depth param", "en", UnstripDepthWarning, []any{20}, "Exceeded recursion limit (20)"},
		{"variant falls back to English", "sr-ec", UnstripDepthWarning, []any{20}, "Exceeded recursion limit (20)"},
		{"string param", "en", ConverterDepthWarning, []any{"10"}, "Language converter depth limit exceeded (10)"},
		{"unknown key", "en", "no-such-message", nil, "⧼no-such-message⧽"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Text(tt.lang, tt.key, tt.params...); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddLanguage(t *testing.T) {
	c := NewCatalog()
	c.AddLanguage("sr", map[string]string{UnstripLoopWarning: "Откривена петља"})

	if got := c.Raw("sr-ec", UnstripLoopWarning); got != "Откривена петља" {
		t.Errorf("Raw(sr-ec) = %q, want parent language text", got)
	}
	if got := c.Raw("sr-ec", ManualRuleError); got != english[ManualRuleError] {
		t.Errorf("Raw(sr-ec) missing key = %q, want English fallback", got)
	}
}

func TestErrorSpan(t *testing.T) {
	got := Default().ErrorSpan("en", UnstripLoopWarning)
	want := `<span class="error">Unstrip loop detected</span>`
	if got != want {
		t.Errorf("ErrorSpan() = %q, want %q", got, want)
	}
}

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() returned different catalogues")
	}
}
