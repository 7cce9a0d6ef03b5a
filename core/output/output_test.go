package output

import (
	"encoding/json"
	"testing"
)

func TestNewParsoid(t *testing.T) {
	po := NewParsoid("Test Page")
	if !po.ParsoidContent || po.Title != "Test Page" {
		t.Errorf("NewParsoid() = %+v", po)
	}
	if v, ok := po.ExtensionData(LanguageConverterKey); !ok || v != PostProcess {
		t.Errorf("ExtensionData(%s) = %q, %v", LanguageConverterKey, v, ok)
	}
}

func TestPageProperty(t *testing.T) {
	po := &ParserOutput{}
	if _, ok := po.PageProperty(NoContentConvert); ok {
		t.Error("empty output has a page property")
	}
	po.SetPageProperty(NoContentConvert, "")
	if _, ok := po.PageProperty(NoContentConvert); !ok {
		t.Error("page property with empty value is not reported")
	}
}

func TestParserOutputJSON(t *testing.T) {
	in := `{"title":"Foo","parsoid":true,"toc":{"sections":[{"toclevel":1,"line":"Intro","number":"1","anchor":"Intro"}]},"extensiondata":{"core:parsoid-languageconverter":"postprocess"}}`
	var po ParserOutput
	if err := json.Unmarshal([]byte(in), &po); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if po.TOC == nil || len(po.TOC.Sections) != 1 || po.TOC.Sections[0].Line != "Intro" {
		t.Errorf("TOC = %+v", po.TOC)
	}
	if v, _ := po.ExtensionData(LanguageConverterKey); v != PostProcess {
		t.Errorf("ExtensionData() = %q", v)
	}
}
