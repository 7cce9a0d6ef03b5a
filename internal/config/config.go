// Package config holds the site configuration the converter runs against.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/FocuswithJustin/wikiconv/core/errors"
	"github.com/FocuswithJustin/wikiconv/core/langcode"
	"github.com/FocuswithJustin/wikiconv/core/langconv"
	"github.com/FocuswithJustin/wikiconv/core/strip"
	"github.com/FocuswithJustin/wikiconv/core/title"
	"github.com/FocuswithJustin/wikiconv/core/variant"
)

// Site describes a wiki.
type Site struct {
	Server          string `json:"server"`
	ArticlePath     string `json:"article_path"`
	Script          string `json:"script"`
	ContentLanguage string `json:"content_language"`

	// URLProtocols are the prefixes of bare URLs in link text.
	URLProtocols []string `json:"url_protocols,omitempty"`
	// Namespaces overrides the English namespace names by id.
	Namespaces       map[int]string `json:"namespaces,omitempty"`
	NamespaceAliases map[string]int `json:"namespace_aliases,omitempty"`
	CapitalLinks     bool           `json:"capital_links"`

	DisableLangConversion bool `json:"disable_lang_conversion"`
	DisableLinkConversion bool `json:"disable_link_conversion"`

	// TablesDir holds conversion table files. Empty means built-in
	// languages only.
	TablesDir          string `json:"tables_dir,omitempty"`
	ConverterMaxDepth  int    `json:"converter_max_depth,omitempty"`
	ConverterCacheSize int    `json:"converter_cache_size,omitempty"`
	StripDepthLimit    int    `json:"strip_depth_limit,omitempty"`
	StripSizeLimit     int    `json:"strip_size_limit,omitempty"`
}

// Default returns the configuration of an English wiki with short URLs.
func Default() *Site {
	return &Site{
		Server:             "//localhost",
		ArticlePath:        "/wiki/$1",
		Script:             "/w/index.php",
		ContentLanguage:    "en",
		URLProtocols:       append([]string(nil), langconv.DefaultURLProtocols...),
		CapitalLinks:       true,
		ConverterMaxDepth:  variant.DefaultMaxDepth,
		ConverterCacheSize: 64,
		StripDepthLimit:    strip.DefaultDepthLimit,
		StripSizeLimit:     strip.DefaultSizeLimit,
	}
}

// Load reads a JSON site file on top of Default. Unknown keys are errors.
func Load(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("site config", path)
		}
		return nil, errors.NewIO("read", path, err)
	}
	site := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(site); err != nil {
		return nil, &errors.ParseError{Format: "JSON", Path: path, Message: err.Error(), Err: err}
	}
	if err := site.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return site, nil
}

// Validate checks the fields the converter depends on.
func (s *Site) Validate() error {
	if !strings.Contains(s.ArticlePath, "$1") {
		return errors.NewValidation("article_path", "must contain $1")
	}
	if s.Script == "" {
		return errors.NewValidation("script", "must not be empty")
	}
	if !langcode.IsValid(s.ContentLanguage) {
		return errors.NewValidation("content_language", fmt.Sprintf("%q is not a language code", s.ContentLanguage))
	}
	for _, p := range s.URLProtocols {
		if p == "" {
			return errors.NewValidation("url_protocols", "empty protocol")
		}
	}
	if s.ConverterMaxDepth < 0 || s.StripDepthLimit < 0 || s.StripSizeLimit < 0 {
		return errors.NewValidation("limits", "limits must not be negative")
	}
	return nil
}

// BaseURI is the prefix of every article URL on the site.
func (s *Site) BaseURI() string {
	return s.Server + strings.Replace(s.ArticlePath, "$1", "", 1)
}

// TitleConfig returns the title parser configuration of the site.
func (s *Site) TitleConfig() title.Config {
	ns := title.DefaultNamespaces()
	for id, name := range s.Namespaces {
		ns[id] = strings.ReplaceAll(name, " ", "_")
	}
	return title.Config{
		Namespaces:   ns,
		Aliases:      s.NamespaceAliases,
		CapitalLinks: s.CapitalLinks,
		Server:       s.Server,
		ArticlePath:  s.ArticlePath,
		Script:       s.Script,
	}
}

// VariantConfig returns the converter factory configuration of the site.
func (s *Site) VariantConfig() variant.FactoryConfig {
	return variant.FactoryConfig{
		TablesDir:              s.TablesDir,
		ConversionDisabled:     s.DisableLangConversion,
		LinkConversionDisabled: s.DisableLinkConversion,
		CacheSize:              s.ConverterCacheSize,
		MaxDepth:               s.ConverterMaxDepth,
	}
}

// StripOptions returns the marker expansion limits of the site.
func (s *Site) StripOptions() strip.Options {
	return strip.Options{
		DepthLimit: s.StripDepthLimit,
		SizeLimit:  s.StripSizeLimit,
		Language:   s.ContentLanguage,
	}
}
