package port

import (
	"context"

	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/pricing"
)

// PageSetup is the physical page a document was composed for, in
// millimeters. The zero value leaves page size and margins to the converter.
type PageSetup struct {
	Width        float64
	Height       float64
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64
}

// DocumentConverter turns a rendered HTML document into office formats
type DocumentConverter interface {
	HTMLToPDF(ctx context.Context, html string, page PageSetup) ([]byte, error)
	HTMLToDOCX(ctx context.Context, html string) ([]byte, error)
}

// QuoteExtractor drafts a quote from a free-text client email.
// The draft carries client identity and items only; it is never priced.
type QuoteExtractor interface {
	ExtractQuote(ctx context.Context, email string) (*entity.Quote, error)
}

// Thumbnailer renders a small PNG of the first page of a PDF
type Thumbnailer interface {
	Thumbnail(pdf []byte) ([]byte, error)
}

// SpreadsheetExporter builds the XLSX recap of a priced quote
type SpreadsheetExporter interface {
	Export(priced pricing.PricedQuote, settings entity.Settings) ([]byte, error)
}
