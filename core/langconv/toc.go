package langconv

import (
	"strings"

	"github.com/FocuswithJustin/wikiconv/core/langcode"
	"github.com/FocuswithJustin/wikiconv/core/output"
	"github.com/FocuswithJustin/wikiconv/core/variant"
)

// localizeTOC formats section numbers for lang and, when conv is not nil,
// converts section headings into toVariant.
func localizeTOC(toc *output.TOCData, conv variant.Converter, lang, toVariant string) {
	if toc == nil {
		return
	}
	for _, sec := range toc.Sections {
		if conv != nil && toVariant != "" {
			sec.Line = conv.ConvertTo(sec.Line, toVariant, true)
		}
		if sec.Number == "" {
			continue
		}
		pieces := strings.Split(sec.Number, ".")
		for i, p := range pieces {
			pieces[i] = langcode.FormatDigits(lang, p)
		}
		sec.Number = strings.Join(pieces, ".")
	}
}
