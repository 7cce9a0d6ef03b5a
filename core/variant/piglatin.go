package variant

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PigLatin is the test variant of English.
const PigLatin = "en-x-piglatin"

// English returns the definition of English with its Pig Latin test
// variant.
func English() *Definition {
	return &Definition{
		Code: "en",
		Name: "English",
		Variants: []VariantDef{
			{Code: "en", Name: "English"},
			{Code: PigLatin, Name: "Igpay Atinlay", Fallbacks: []string{"en"}},
		},
		Transliterator: pigLatin{},
		Source:         "builtin",
	}
}

var (
	pigWord    = regexp.MustCompile(`[A-Za-z][a-z']+`)
	pigCluster = regexp.MustCompile(`(?i)^(s?qu|[^aeiou][^aeiouy]*)(.*)$`)
)

type pigLatin struct{}

func (pigLatin) Transliterate(text, variant string) string {
	if variant != PigLatin {
		return text
	}
	return pigWord.ReplaceAllStringFunc(text, pigLatinWord)
}

func pigLatinWord(word string) string {
	if strings.ContainsRune("aeiouAEIOU", rune(word[0])) {
		return word + "way"
	}
	m := pigCluster.FindStringSubmatch(word)
	if m == nil {
		return word
	}
	first, rest := m[1], m[2]
	if unicode.IsUpper(rune(word[0])) {
		return upperFirst(rest) + strings.ToLower(first[:1]) + first[1:] + "ay"
	}
	return rest + first + "ay"
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
