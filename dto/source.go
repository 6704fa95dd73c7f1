package dto

// FetchedDocument is a downloaded source file before recognition.
type FetchedDocument struct {
	URL         string
	Data        []byte
	ContentType string
	Extension   string
}

// IsPDF reports whether the document should be rasterized page by page.
func (d *FetchedDocument) IsPDF() bool {
	return d.Extension == ".pdf"
}

// SourceInfo describes how the text behind a record was obtained.
type SourceInfo struct {
	URL         string   `json:"url"`
	ContentType string   `json:"content_type"`
	Pages       int      `json:"pages"`
	Method      string   `json:"method"` // "pdf-text" | "pdf-ocr" | "image-ocr"
	Engine      string   `json:"engine,omitempty"`
	Confidence  float64  `json:"confidence"`
	Barcodes    []string `json:"barcodes,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}
