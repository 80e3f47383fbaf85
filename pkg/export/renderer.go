package export

import "fmt"

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// Format names a supported output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Registry resolves renderers by format.
type Registry map[Format]Renderer

// DefaultRegistry returns renderers for every supported format.
func DefaultRegistry() Registry {
	return Registry{
		FormatCSV:  NewCSVExporter(),
		FormatPDF:  NewPDFExporter(),
		FormatXLSX: NewXLSXExporter(),
	}
}

// Lookup returns the renderer for format.
func (r Registry) Lookup(format Format) (Renderer, error) {
	renderer, ok := r[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	return renderer, nil
}
