// Package preview renders small images of generated PDFs.
package preview

import (
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"
	"github.com/garyjia/secu-devis/internal/application/port"
	"go.uber.org/zap"
)

// ErrEmptyDocument is returned for a PDF without pages
var ErrEmptyDocument = errors.New("document has no pages")

const (
	defaultMaxWidth = 320
	pointsPerInch   = 72.0
)

// Thumbnailer implements port.Thumbnailer with mupdf
type Thumbnailer struct {
	maxWidth int
	logger   *zap.Logger
}

// NewThumbnailer creates a thumbnailer producing images at most maxWidth
// pixels wide; maxWidth <= 0 uses 320.
func NewThumbnailer(maxWidth int, logger *zap.Logger) *Thumbnailer {
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	return &Thumbnailer{maxWidth: maxWidth, logger: logger}
}

// Thumbnail rasterizes the first page of pdf to PNG. The resolution is
// chosen so the image fits maxWidth.
func (t *Thumbnailer) Thumbnail(pdf []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, ErrEmptyDocument
	}

	bound, err := doc.Bound(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read page size: %w", err)
	}
	dpi := pointsPerInch
	if w := bound.Dx(); w > 0 {
		dpi = pointsPerInch * float64(t.maxWidth) / float64(w)
	}

	png, err := doc.ImagePNG(0, dpi)
	if err != nil {
		t.logger.Warn("Failed to rasterize first page", zap.Error(err))
		return nil, fmt.Errorf("failed to rasterize page: %w", err)
	}

	t.logger.Debug("Thumbnail rendered",
		zap.Int("pages", doc.NumPage()),
		zap.Float64("dpi", dpi),
		zap.Int("size", len(png)))
	return png, nil
}

var _ port.Thumbnailer = (*Thumbnailer)(nil)
