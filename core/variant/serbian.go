package variant

import (
	"regexp"
	"strings"
)

// Serbian variant codes.
const (
	SerbianCyrillic = "sr-ec"
	SerbianLatin    = "sr-el"
)

// Serbian returns the definition of Serbian with its Cyrillic and Latin
// variants.
func Serbian() *Definition {
	return &Definition{
		Code: "sr",
		Name: "српски / srpski",
		Variants: []VariantDef{
			{Code: "sr", Name: "српски / srpski", Fallbacks: []string{SerbianCyrillic}},
			{Code: SerbianCyrillic, Name: "српски (ћирилица)", Fallbacks: []string{"sr"}},
			{Code: SerbianLatin, Name: "srpski (latinica)", Fallbacks: []string{"sr"}},
		},
		Transliterator: serbian{},
		Guesser:        serbian{},
		Source:         "builtin",
	}
}

var toCyrillic = newReplacer(map[string]string{
	"a": "а", "b": "б", "c": "ц", "č": "ч", "ć": "ћ", "d": "д", "dž": "џ",
	"đ": "ђ", "e": "е", "f": "ф", "g": "г", "h": "х", "i": "и", "j": "ј",
	"k": "к", "l": "л", "lj": "љ", "m": "м", "n": "н", "nj": "њ", "o": "о",
	"p": "п", "r": "р", "s": "с", "š": "ш", "t": "т", "u": "у", "v": "в",
	"z": "з", "ž": "ж",

	"A": "А", "B": "Б", "C": "Ц", "Č": "Ч", "Ć": "Ћ", "D": "Д", "Dž": "Џ",
	"DŽ": "Џ", "Đ": "Ђ", "E": "Е", "F": "Ф", "G": "Г", "H": "Х", "I": "И",
	"J": "Ј", "K": "К", "L": "Л", "Lj": "Љ", "LJ": "Љ", "M": "М", "N": "Н",
	"Nj": "Њ", "NJ": "Њ", "O": "О", "P": "П", "R": "Р", "S": "С", "Š": "Ш",
	"T": "Т", "U": "У", "V": "В", "Z": "З", "Ž": "Ж",

	// Single-codepoint digraphs.
	"ǆ": "џ", "ǅ": "Џ", "Ǆ": "Џ", "ǉ": "љ", "ǈ": "Љ", "Ǉ": "Љ",
	"ǌ": "њ", "ǋ": "Њ", "Ǌ": "Њ",
})

var toLatin = newReplacer(map[string]string{
	"а": "a", "б": "b", "в": "v", "г": "g", "д": "d", "ђ": "đ", "е": "e",
	"ж": "ž", "з": "z", "и": "i", "ј": "j", "к": "k", "л": "l", "љ": "lj",
	"м": "m", "н": "n", "њ": "nj", "о": "o", "п": "p", "р": "r", "с": "s",
	"т": "t", "ћ": "ć", "у": "u", "ф": "f", "х": "h", "ц": "c", "ч": "č",
	"џ": "dž", "ш": "š",

	"А": "A", "Б": "B", "В": "V", "Г": "G", "Д": "D", "Ђ": "Đ", "Е": "E",
	"Ж": "Ž", "З": "Z", "И": "I", "Ј": "J", "К": "K", "Л": "L", "Љ": "Lj",
	"М": "M", "Н": "N", "Њ": "Nj", "О": "O", "П": "P", "Р": "R", "С": "S",
	"Т": "T", "Ћ": "Ć", "У": "U", "Ф": "F", "Х": "H", "Ц": "C", "Ч": "Č",
	"Џ": "Dž", "Ш": "Š",
})

var (
	serbianWord  = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	romanNumeral = regexp.MustCompile(`^M{0,4}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})$`)
	cyrillicOnly = regexp.MustCompile(`[шђчћжШЂЧЋЖ]`)
	latinOnly    = regexp.MustCompile(`[šđčćžŠĐČĆŽ]`)
)

type serbian struct{}

// Transliterate converts between the scripts. Roman numerals are kept in
// Latin letters when converting to Cyrillic.
func (serbian) Transliterate(text, variant string) string {
	if variant == SerbianLatin {
		return toLatin.replace(text, nil)
	}
	if variant != SerbianCyrillic {
		return text
	}
	var b strings.Builder
	last := 0
	for _, loc := range serbianWord.FindAllStringIndex(text, -1) {
		if !romanNumeral.MatchString(text[loc[0]:loc[1]]) {
			continue
		}
		b.WriteString(toCyrillic.replace(text[last:loc[0]], nil))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(toCyrillic.replace(text[last:], nil))
	return b.String()
}

// GuessVariant compares the number of letters that exist in only one of
// the two scripts.
func (serbian) GuessVariant(text, variant string) bool {
	cyr := len(cyrillicOnly.FindAllStringIndex(text, -1))
	lat := len(latinOnly.FindAllStringIndex(text, -1))
	switch variant {
	case SerbianCyrillic:
		return cyr > lat
	case SerbianLatin:
		return lat > cyr
	}
	return false
}
