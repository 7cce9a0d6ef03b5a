// Package langcode maps internal wiki language and variant codes to BCP 47
// tags and formats numbers for a language.
package langcode

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// nonStandard maps internal codes that are not valid BCP 47 to their
// standard equivalents.
var nonStandard = map[string]string{
	"als":          "gsw",
	"bat-smg":      "sgs",
	"be-x-old":     "be-tarask",
	"cbk-zam":      "cbk",
	"de-formal":    "de-x-formal",
	"eml":          "egl",
	"en-rtl":       "en-x-rtl",
	"es-formal":    "es-x-formal",
	"fiu-vro":      "vro",
	"hu-formal":    "hu-x-formal",
	"map-bms":      "jv-x-bms",
	"mo":           "ro-Cyrl-MD",
	"nl-informal":  "nl-x-informal",
	"nrm":          "nrf",
	"roa-rup":      "rup",
	"roa-tara":     "nap-x-tara",
	"simple":       "en-simple",
	"sr-ec":        "sr-Cyrl",
	"sr-el":        "sr-Latn",
	"zh-classical": "lzh",
	"zh-min-nan":   "nan",
	"zh-yue":       "yue",
}

// BCP47 returns the BCP 47 form of an internal code. Explicit mappings are
// applied first; the result is then case-normalised: region subtags upper
// case, script subtags title case, everything after a private-use "x"
// lower case.
func BCP47(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if mapped, ok := nonStandard[code]; ok {
		return mapped
	}

	parts := strings.Split(code, "-")
	private := false
	for i, p := range parts {
		if i == 0 {
			continue
		}
		if private {
			continue
		}
		switch {
		case p == "x":
			private = true
		case len(p) == 2:
			parts[i] = strings.ToUpper(p)
		case len(p) == 4:
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}

// Tag parses an internal code into a language.Tag. Codes x/text cannot parse
// fall back to their base language, then to language.Und.
func Tag(code string) language.Tag {
	bcp := BCP47(code)
	if t, err := language.Parse(bcp); err == nil {
		return t
	}
	if base, _, ok := strings.Cut(bcp, "-"); ok {
		if t, err := language.Parse(base); err == nil {
			return t
		}
	}
	return language.Und
}

// IsValid reports whether code maps to a well-formed BCP 47 tag.
func IsValid(code string) bool {
	_, err := language.Parse(BCP47(code))
	return err == nil
}

// FormatNum formats n for the given internal language code, using the
// language's digits and grouping.
func FormatNum(code string, n int64) string {
	p := message.NewPrinter(Tag(code))
	return p.Sprint(number.Decimal(n))
}

// FormatDigits formats a bare digit string (such as a section number piece)
// without grouping separators, keeping leading zeros. Non-numeric input is
// returned unchanged.
func FormatDigits(code, digits string) string {
	if digits == "" || len(digits) > 15 {
		return digits
	}
	var n int64
	for _, r := range digits {
		if r < '0' || r > '9' {
			return digits
		}
		n = n*10 + int64(r-'0')
	}
	p := message.NewPrinter(Tag(code))
	return p.Sprint(number.Decimal(n, number.NoSeparator(), number.MinIntegerDigits(len(digits))))
}
