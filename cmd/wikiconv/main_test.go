package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/wikiconv/core/errors"
	"github.com/FocuswithJustin/wikiconv/core/strip"
	"github.com/FocuswithJustin/wikiconv/core/variant"
)

// Test helper functions

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// createTestSite writes a site file whose tables directory holds a
// two-variant language "zx" spelling "Test Page" as "测试页".
func createTestSite(t *testing.T, dir string) string {
	t.Helper()
	tables := filepath.Join(dir, "tables")
	if err := os.Mkdir(tables, 0755); err != nil {
		t.Fatalf("failed to create tables dir: %v", err)
	}
	def := &variant.Definition{
		Code: "zx",
		Name: "Script",
		Variants: []variant.VariantDef{
			{Code: "zx", Name: "Latin"},
			{Code: "zx-hans", Name: "Hans", Fallbacks: []string{"zx"}},
		},
		Tables: map[string]map[string]string{"zx-hans": {"Test Page": "测试页"}},
	}
	var buf bytes.Buffer
	if err := variant.Encode(&buf, def, true); err != nil {
		t.Fatalf("failed to encode table: %v", err)
	}
	createTestFile(t, tables, "zx"+variant.CompressedTableExt, buf.String())

	site, _ := json.Marshal(map[string]any{"tables_dir": tables, "server": "//wiki.test"})
	return createTestFile(t, dir, "site.json", string(site))
}

func importPages(t *testing.T, g *Globals, dir, list string) string {
	t.Helper()
	db := filepath.Join(dir, "pages.db")
	cmd := &PagesImportCmd{DB: db, File: createTestFile(t, dir, "pages.txt", list)}
	if err := cmd.Run(g); err != nil {
		t.Fatalf("pages import failed: %v", err)
	}
	return db
}

// Tests for TranslateCmd

func TestTranslateCmd_Run(t *testing.T) {
	tests := []struct {
		name    string
		cmd     TranslateCmd
		want    string
		wantErr bool
	}{
		{
			name: "pig latin",
			cmd:  TranslateCmd{Text: "Hello -{R|raw}-", Variant: variant.PigLatin},
			want: "Ellohay raw\n",
		},
		{
			name: "serbian bcp47",
			cmd:  TranslateCmd{Text: "Beograd", Variant: "sr-Cyrl"},
			want: "Београд\n",
		},
		{
			name: "html",
			cmd:  TranslateCmd{Text: "<b title=\"Hi\">Hello</b>", Variant: variant.PigLatin, HTML: true},
			want: "<b title=\"Ihay\">Ellohay</b>\n",
		},
		{
			name:    "unknown variant",
			cmd:     TranslateCmd{Text: "Hello", Variant: "xx-yy"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := tt.cmd.Run(&Globals{out: &buf})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

// Tests for VariantsCmd and LanguagesCmd

func TestVariantsCmd_Run(t *testing.T) {
	var buf bytes.Buffer
	cmd := &VariantsCmd{Lang: "sr"}
	if err := cmd.Run(&Globals{out: &buf}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"(sr)", "sr-ec", "sr-el", "bidirectional"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if err := (&VariantsCmd{Lang: "xx"}).Run(&Globals{out: &buf}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown language error = %v", err)
	}
}

func TestVariantsCmd_TableFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	g := &Globals{Site: createTestSite(t, dir), out: &buf}
	if err := (&VariantsCmd{Lang: "zx"}).Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "BLAKE3: ") || !strings.Contains(out, "fallback: zx") {
		t.Errorf("output = %q, want fingerprint and fallbacks", out)
	}
}

func TestLanguagesCmd_Run(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	if err := (&LanguagesCmd{}).Run(&Globals{Site: createTestSite(t, dir), out: &buf}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := buf.String(); got != "en\nsr\nzx\n" {
		t.Errorf("output = %q", got)
	}
}

// Tests for the pages commands

func TestPagesCmds(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	g := &Globals{out: &buf}
	db := importPages(t, g, dir, "# pages\n测试页\n7\tHelp:Intro\n\n")
	if got := buf.String(); got != "Imported 2 of 2 pages (2 total)\n" {
		t.Errorf("import output = %q", got)
	}

	buf.Reset()
	check := &PagesCheckCmd{DB: db, Titles: []string{"测试页", "help:intro", "Missing"}}
	if err := check.Run(g); err != nil {
		t.Fatalf("pages check failed: %v", err)
	}
	want := "测试页\t1\nHelp:Intro\t7\nMissing\tmissing\n"
	if got := buf.String(); got != want {
		t.Errorf("check output = %q, want %q", got, want)
	}

	buf.Reset()
	bad := &PagesImportCmd{DB: db, File: createTestFile(t, dir, "bad.txt", "x\tPage\n")}
	var pe *errors.ParseError
	if err := bad.Run(g); !errors.As(err, &pe) {
		t.Errorf("bad list error = %v, want ParseError", err)
	}
}

// Tests for ConvertCmd

func TestConvertCmd_Run(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	g := &Globals{Site: createTestSite(t, dir), out: &buf}
	db := importPages(t, g, dir, "测试页\n")
	buf.Reset()

	input := createTestFile(t, dir, "in.html",
		`<p><a rel="mw:WikiLink" href="./Test_Page" title="Test Page" class="new">Test Page</a></p>`)
	report := filepath.Join(dir, "report.json")
	cmd := &ConvertCmd{
		Input:   input,
		Variant: "zx-hans",
		Title:   "Main Page",
		Pages:   db,
		Report:  report,
	}
	if err := cmd.Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := `<p><a rel="mw:WikiLink" href="/wiki/%E6%B5%8B%E8%AF%95%E9%A1%B5" title="测试页">测试页</a></p>`
	if got := buf.String(); got != want {
		t.Errorf("output =\n%s\nwant\n%s", got, want)
	}

	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	var rep struct {
		RequestID string `json:"request_id"`
		BaseURI   string `json:"base_uri"`
		Output    struct {
			Language  string `json:"language"`
			TitleText string `json:"titletext"`
		} `json:"output"`
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if rep.RequestID == "" || rep.BaseURI != "//wiki.test/wiki/" {
		t.Errorf("report = %+v", rep)
	}
	if rep.Output.Language != "zx-Hans" {
		t.Errorf("report language = %q, want %q", rep.Output.Language, "zx-Hans")
	}
	if !strings.Contains(rep.Output.TitleText, "mw-page-title-main") {
		t.Errorf("report title text = %q", rep.Output.TitleText)
	}
}

func TestConvertCmd_StripAndTOC(t *testing.T) {
	dir := t.TempDir()
	marker := strip.MarkerPrefix + "nowiki-1" + strip.MarkerSuffix
	input := createTestFile(t, dir, "in.html", "<p>"+marker+"</p>")
	items := createTestFile(t, dir, "strip.json", `{"nowiki": {"nowiki-1": "Hello"}}`)
	toc := createTestFile(t, dir, "toc.json", `{"sections": [{"toclevel": 1, "line": "World", "number": "1", "anchor": "World"}]}`)
	report := filepath.Join(dir, "report.json")
	out := filepath.Join(dir, "out.html")

	cmd := &ConvertCmd{Input: input, Variant: variant.PigLatin, Title: "Main Page", Strip: items, TOC: toc, Out: out, Report: report}
	if err := cmd.Run(&Globals{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	got, _ := os.ReadFile(out)
	if string(got) != "<p>Ellohay</p>" {
		t.Errorf("output = %q, want %q", got, "<p>Ellohay</p>")
	}
	data, _ := os.ReadFile(report)
	if !strings.Contains(string(data), `"line": "Orldway"`) {
		t.Errorf("report TOC not converted:\n%s", data)
	}
	if !strings.Contains(string(data), `"key": "limitreport-unstrip-depth"`) {
		t.Errorf("report has no limit report:\n%s", data)
	}
}

func TestConvertCmd_NoContentConvert(t *testing.T) {
	dir := t.TempDir()
	input := createTestFile(t, dir, "in.html", "<p>Hello</p>")
	var buf bytes.Buffer
	cmd := &ConvertCmd{Input: input, Variant: variant.PigLatin, Title: "Main Page", NoContentConvert: true}
	if err := cmd.Run(&Globals{out: &buf}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := buf.String(); got != "<p>Hello</p>" {
		t.Errorf("output = %q, want the input unchanged", got)
	}
}

func TestConvertCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	input := createTestFile(t, dir, "in.html", "<p>Hello</p>")

	g := &Globals{Site: filepath.Join(dir, "missing.json")}
	if err := (&ConvertCmd{Input: input}).Run(g); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing site error = %v", err)
	}

	if err := (&ConvertCmd{Input: filepath.Join(dir, "nope.html")}).Run(&Globals{}); err == nil {
		t.Error("missing input: no error")
	}
	if err := (&ConvertCmd{Input: "in\x00.html"}).Run(&Globals{}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("bad input path error = %v", err)
	}

	items := createTestFile(t, dir, "strip.json", `{"unknown": {"x": "y"}}`)
	if err := (&ConvertCmd{Input: input, Strip: items}).Run(&Globals{}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("bad strip category error = %v", err)
	}
}

func TestVersionCmd_Run(t *testing.T) {
	var buf bytes.Buffer
	if err := (&VersionCmd{}).Run(&Globals{out: &buf}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "wikiconv version "+version) {
		t.Errorf("output = %q", buf.String())
	}
}
