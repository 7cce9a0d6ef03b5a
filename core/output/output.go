// Package output holds the rendered page and the rendering options the
// language conversion stage reads and updates.
package output

// Well-known keys.
const (
	// LanguageConverterKey is the extension data key recording how variant
	// conversion is handled for the output.
	LanguageConverterKey = "core:parsoid-languageconverter"
	// PostProcess defers conversion to the DOM stage.
	PostProcess = "postprocess"
	// NoContentConvert is the page property that opts a page out of
	// conversion.
	NoContentConvert = "nocontentconvert"
)

// TOCSection is one entry of a table of contents.
type TOCSection struct {
	Level    int    `json:"toclevel"`
	Line     string `json:"line"`
	Number   string `json:"number"`
	Index    string `json:"index,omitempty"`
	Anchor   string `json:"anchor"`
	LinkText string `json:"linkAnchor,omitempty"`
}

// TOCData is a table of contents.
type TOCData struct {
	Sections []*TOCSection `json:"sections"`
}

// ParserOutput is a rendered page.
type ParserOutput struct {
	// Title is the prefixed text of the page title, or "" when unknown.
	Title string `json:"title,omitempty"`
	// ParsoidContent marks DOM-based content.
	ParsoidContent bool `json:"parsoid"`
	// Language is the BCP 47 code of the content language.
	Language string `json:"language,omitempty"`
	// TitleText is the HTML of the displayed title.
	TitleText string `json:"titletext,omitempty"`

	TOC        *TOCData          `json:"toc,omitempty"`
	Extensions map[string]string `json:"extensiondata,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// NewParsoid returns DOM-based output for a page whose conversion is left
// to the DOM stage.
func NewParsoid(title string) *ParserOutput {
	po := &ParserOutput{Title: title, ParsoidContent: true}
	po.SetExtensionData(LanguageConverterKey, PostProcess)
	return po
}

// ExtensionData returns the value stored under key.
func (po *ParserOutput) ExtensionData(key string) (string, bool) {
	v, ok := po.Extensions[key]
	return v, ok
}

func (po *ParserOutput) SetExtensionData(key, value string) {
	if po.Extensions == nil {
		po.Extensions = make(map[string]string)
	}
	po.Extensions[key] = value
}

// PageProperty returns a page property.
func (po *ParserOutput) PageProperty(name string) (string, bool) {
	v, ok := po.Properties[name]
	return v, ok
}

func (po *ParserOutput) SetPageProperty(name, value string) {
	if po.Properties == nil {
		po.Properties = make(map[string]string)
	}
	po.Properties[name] = value
}

// ParserOptions are the per-request rendering options.
type ParserOptions struct {
	// TargetVariant is the variant requested by the reader, or "".
	TargetVariant string `json:"variant,omitempty"`
	// DisableContentConversion turns conversion off for this request.
	DisableContentConversion bool `json:"disableContentConversion,omitempty"`
	// InterfaceMessage marks the rendering of an interface message, which
	// is never converted.
	InterfaceMessage bool `json:"interfaceMessage,omitempty"`
}
