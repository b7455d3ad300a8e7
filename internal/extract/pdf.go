package extract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Extractor produces the ordered page texts of an uploaded document.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]string, error)
}

type pdfExtractor struct{}

// NewPDF returns an Extractor for PDF files.
func NewPDF() Extractor {
	return pdfExtractor{}
}

func (pdfExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer file.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", i, path, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
