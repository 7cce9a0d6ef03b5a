// Command wikiconv converts rendered wiki pages into language variants.
// It runs the DOM conversion stage over an HTML fragment, converts single
// strings of -{ }- markup, and maintains the page existence database used
// to repair red links.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/wikiconv/core/dom"
	"github.com/FocuswithJustin/wikiconv/core/errors"
	"github.com/FocuswithJustin/wikiconv/core/langconv"
	"github.com/FocuswithJustin/wikiconv/core/linkbatch"
	"github.com/FocuswithJustin/wikiconv/core/output"
	"github.com/FocuswithJustin/wikiconv/core/pagestore"
	"github.com/FocuswithJustin/wikiconv/core/sqlite"
	"github.com/FocuswithJustin/wikiconv/core/strip"
	"github.com/FocuswithJustin/wikiconv/core/title"
	"github.com/FocuswithJustin/wikiconv/core/variant"
	"github.com/FocuswithJustin/wikiconv/internal/config"
	"github.com/FocuswithJustin/wikiconv/internal/logging"
	"github.com/FocuswithJustin/wikiconv/internal/validation"
)

const version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	Site      string `name:"site" short:"s" help:"Site configuration file (JSON)" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text"`

	out io.Writer `kong:"-"`
}

// CLI defines the command-line interface for wikiconv.
type CLI struct {
	Globals

	Convert   ConvertCmd   `cmd:"" help:"Convert an HTML fragment into a variant"`
	Translate TranslateCmd `cmd:"" help:"Convert text or -{ }- markup into a variant"`
	Variants  VariantsCmd  `cmd:"" help:"List the variants of a language"`
	Languages LanguagesCmd `cmd:"" help:"List the known languages"`
	Pages     PagesGroup   `cmd:"" help:"Page existence database"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// PagesGroup contains page database operations.
type PagesGroup struct {
	Import PagesImportCmd `cmd:"" help:"Import a page list into a database"`
	Check  PagesCheckCmd  `cmd:"" help:"Look up titles in a database"`
}

func (g *Globals) stdout() io.Writer {
	if g.out != nil {
		return g.out
	}
	return os.Stdout
}

func (g *Globals) loadSite() (*config.Site, error) {
	if g.Site == "" {
		return config.Default(), nil
	}
	return config.Load(g.Site)
}

// ConvertCmd runs the conversion stage over an HTML fragment.
type ConvertCmd struct {
	Input            string `arg:"" help:"HTML fragment file (- for stdin)" default:"-"`
	Variant          string `help:"Target variant code"`
	Title            string `help:"Page title" default:"Main Page"`
	Pages            string `help:"Page existence database for red links" type:"existingfile"`
	Strip            string `help:"Strip items to expand first (JSON: category -> id -> text)" type:"existingfile"`
	TOC              string `name:"toc" help:"Table of contents (JSON)" type:"existingfile"`
	NoContentConvert bool   `help:"Mark the page as opted out of conversion"`
	Out              string `short:"o" help:"Output file (default stdout)" type:"path"`
	Report           string `help:"Write the page output and limit report as JSON" type:"path"`
}

// convertReport is the JSON written by --report.
type convertReport struct {
	RequestID string                   `json:"request_id"`
	BaseURI   string                   `json:"base_uri"`
	Output    *output.ParserOutput     `json:"output"`
	Limits    []strip.LimitReportEntry `json:"limits,omitempty"`
	Duration  string                   `json:"duration"`
}

func (c *ConvertCmd) Run(g *Globals) error {
	start := time.Now()
	ctx, requestID := logging.NewRequestContext(context.Background())

	site, err := g.loadSite()
	if err != nil {
		return err
	}
	input, err := readInput(c.Input)
	if err != nil {
		return err
	}

	var limits []strip.LimitReportEntry
	if c.Strip != "" {
		state := strip.New(site.StripOptions())
		if err := loadStripItems(state, c.Strip); err != nil {
			return err
		}
		input = state.UnstripBoth(state.Expand(strip.ExtTag, input))
		limits = state.LimitReport()
	}

	frag, err := dom.ParseFragmentString(input)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", c.Input, err)
	}

	var pages linkbatch.Lookup = linkbatch.NewMapLookup(nil)
	if c.Pages != "" {
		store, err := pagestore.OpenReadOnly(ctx, c.Pages)
		if err != nil {
			return err
		}
		defer store.Close()
		pages = store
	}

	stage := langconv.New(langconv.Config{
		Variants:        variant.NewFactory(site.VariantConfig()),
		Titles:          title.NewFactory(site.TitleConfig()),
		Pages:           pages,
		ContentLanguage: site.ContentLanguage,
		Protocols:       site.URLProtocols,
	})

	po := output.NewParsoid(c.Title)
	if c.NoContentConvert {
		po.SetPageProperty(output.NoContentConvert, "1")
	}
	if c.TOC != "" {
		po.TOC = &output.TOCData{}
		if err := readJSON(c.TOC, po.TOC); err != nil {
			return err
		}
	}

	if stage.ShouldRun(po) {
		opts := output.ParserOptions{TargetVariant: c.Variant}
		if err := stage.TransformDOM(ctx, frag, po, opts); err != nil {
			return fmt.Errorf("failed to convert: %w", err)
		}
	} else {
		logging.InfoContext(ctx, "conversion skipped", "title", c.Title)
	}

	rendered, err := dom.Render(frag)
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	if err := writeOutput(g, c.Out, rendered); err != nil {
		return err
	}

	if c.Report != "" {
		rep := convertReport{
			RequestID: requestID,
			BaseURI:   site.BaseURI(),
			Output:    po,
			Limits:    limits,
			Duration:  time.Since(start).String(),
		}
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		if err := os.WriteFile(c.Report, append(data, '\n'), 0644); err != nil {
			return errors.NewIO("write", c.Report, err)
		}
	}
	return nil
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := validation.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.NewIO("read", "stdin", err)
		}
		return string(data), nil
	}
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readFile reads a file named on the command line.
func readFile(path string) ([]byte, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "%s: %v", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	defer f.Close()
	data, err := validation.ReadAll(f)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

func writeOutput(g *Globals, path, content string) error {
	if path == "" {
		_, err := io.WriteString(g.stdout(), content)
		return err
	}
	if err := validation.ValidatePath(path); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "%s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &errors.ParseError{Format: "JSON", Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

// loadStripItems registers the items of a strip file. Keys are marker ids;
// the markers in the input are MarkerPrefix + id + MarkerSuffix.
func loadStripItems(state *strip.State, path string) error {
	var items map[strip.Category]map[string]string
	if err := readJSON(path, &items); err != nil {
		return err
	}
	for cat, byID := range items {
		for id, text := range byID {
			if err := state.AddItem(cat, strip.MarkerPrefix+id+strip.MarkerSuffix, strip.Literal(text)); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	return nil
}

// TranslateCmd converts one string.
type TranslateCmd struct {
	Text    string `arg:"" help:"Text to convert"`
	Variant string `required:"" help:"Target variant code"`
	HTML    bool   `name:"html" help:"Treat the text as HTML"`
}

func (c *TranslateCmd) Run(g *Globals) error {
	site, err := g.loadSite()
	if err != nil {
		return err
	}
	factory := variant.NewFactory(site.VariantConfig())
	lang, err := factory.ParentLanguage(c.Variant)
	if err != nil {
		return err
	}
	conv, err := factory.Converter(lang)
	if err != nil {
		return err
	}
	v := conv.ValidateVariant(c.Variant)
	if v == "" {
		return errors.NewUnsupported("variant", c.Variant+" is not a variant of "+lang)
	}
	fmt.Fprintln(g.stdout(), conv.ConvertTo(c.Text, v, c.HTML))
	return nil
}

// VariantsCmd lists the variants of a language.
type VariantsCmd struct {
	Lang string `arg:"" help:"Language code"`
}

func (c *VariantsCmd) Run(g *Globals) error {
	site, err := g.loadSite()
	if err != nil {
		return err
	}
	def, err := variant.NewFactory(site.VariantConfig()).Definition(c.Lang)
	if err != nil {
		return err
	}
	w := g.stdout()
	fmt.Fprintf(w, "%s (%s)\n", def.Name, def.Code)
	if def.Source != "" {
		fmt.Fprintf(w, "  Source: %s\n", def.Source)
	}
	if def.Fingerprint != "" {
		fmt.Fprintf(w, "  BLAKE3: %s\n", def.Fingerprint)
	}
	for _, v := range def.Variants {
		fmt.Fprintf(w, "  %-16s %s", v.Code, v.Name)
		if len(v.Fallbacks) > 0 {
			fmt.Fprintf(w, " (fallback: %s)", strings.Join(v.Fallbacks, ", "))
		}
		fmt.Fprintf(w, " [%s]\n", def.Level(v.Code))
	}
	return nil
}

// LanguagesCmd lists the languages with conversion support.
type LanguagesCmd struct{}

func (c *LanguagesCmd) Run(g *Globals) error {
	site, err := g.loadSite()
	if err != nil {
		return err
	}
	codes, err := variant.NewFactory(site.VariantConfig()).Languages()
	if err != nil {
		return err
	}
	for _, code := range codes {
		fmt.Fprintln(g.stdout(), code)
	}
	return nil
}

// PagesImportCmd imports a page list.
type PagesImportCmd struct {
	DB   string `arg:"" help:"Database path" type:"path"`
	File string `arg:"" help:"Page list: one title per line, optionally \"id<TAB>title\"" type:"existingfile"`
}

func (c *PagesImportCmd) Run(g *Globals) error {
	site, err := g.loadSite()
	if err != nil {
		return err
	}
	f, err := os.Open(c.File)
	if err != nil {
		return errors.NewIO("open", c.File, err)
	}
	defer f.Close()
	pages, err := pagestore.ReadList(f, title.NewFactory(site.TitleConfig()))
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}

	ctx := context.Background()
	store, err := pagestore.Open(ctx, c.DB)
	if err != nil {
		return err
	}
	defer store.Close()
	added, err := store.Import(ctx, pages)
	if err != nil {
		return err
	}
	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "Imported %d of %d pages (%d total)\n", added, len(pages), total)
	return nil
}

// PagesCheckCmd reports the page id of each title.
type PagesCheckCmd struct {
	DB     string   `arg:"" help:"Database path" type:"existingfile"`
	Titles []string `arg:"" help:"Titles to look up"`
}

func (c *PagesCheckCmd) Run(g *Globals) error {
	site, err := g.loadSite()
	if err != nil {
		return err
	}
	titles := title.NewFactory(site.TitleConfig())

	ctx := context.Background()
	store, err := pagestore.OpenReadOnly(ctx, c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	batch := linkbatch.New(store)
	parsed := make([]*title.Title, 0, len(c.Titles))
	for _, text := range c.Titles {
		t, err := titles.NewFromText(text, title.NSMain)
		if err != nil {
			return err
		}
		batch.Add(t)
		parsed = append(parsed, t)
	}
	ids, err := batch.Execute(ctx)
	if err != nil {
		return err
	}
	for _, t := range parsed {
		if id := ids[t.PrefixedDBkey()]; id > 0 {
			fmt.Fprintf(g.stdout(), "%s\t%d\n", t.PrefixedText(), id)
		} else {
			fmt.Fprintf(g.stdout(), "%s\tmissing\n", t.PrefixedText())
		}
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.stdout(), "wikiconv version %s (sqlite: %s, %s)\n", version, sqlite.DriverType(), sqlite.DriverPackage())
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("wikiconv"),
		kong.Description("Language variant conversion for rendered wiki pages"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(kong.JSON, "/etc/wikiconv/config.json", "~/.config/wikiconv/config.json"),
	)
	logging.InitLogger(logging.ParseLevel(cli.LogLevel), logging.ParseFormat(cli.LogFormat))
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
