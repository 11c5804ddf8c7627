package service

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/pricing"
	"github.com/garyjia/secu-devis/internal/render"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RenderRequest is a stateless render: missing settings and layout are
// taken from the stored settings and the active layout of the quote variant.
type RenderRequest struct {
	Quote    entity.Quote            `json:"quote"`
	Settings *entity.Settings        `json:"settings,omitempty"`
	Layout   *entity.PDFLayoutConfig `json:"layout,omitempty"`
}

// DocumentService renders quotes and produces their exported artifacts
type DocumentService interface {
	RenderQuote(ctx context.Context, quoteID string) (string, error)
	Render(ctx context.Context, req RenderRequest) (string, error)

	ExportPDF(ctx context.Context, quoteID string) (*entity.GeneratedDocument, error)
	ExportDOCX(ctx context.Context, quoteID string) (*entity.GeneratedDocument, error)

	// ExportXLSX returns the workbook and a file name for it
	ExportXLSX(ctx context.Context, quoteID string) ([]byte, string, error)

	ListDocuments(ctx context.Context, quoteID string) ([]*entity.GeneratedDocument, error)
}

// DocumentServiceDeps groups the collaborators of the document service.
// Converter, Thumbnailer and Spreadsheet are optional.
type DocumentServiceDeps struct {
	Quotes      port.QuoteRepository
	Documents   port.DocumentRepository
	Settings    SettingsService
	Layouts     LayoutService
	Engine      *render.Engine
	Storage     port.FileStorage
	Converter   port.DocumentConverter
	Thumbnailer port.Thumbnailer
	Spreadsheet port.SpreadsheetExporter
	Logger      *zap.Logger
}

type documentServiceImpl struct {
	DocumentServiceDeps
	now func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(deps DocumentServiceDeps) DocumentService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Engine == nil {
		deps.Engine = render.NewEngine(deps.Logger)
	}
	return &documentServiceImpl{DocumentServiceDeps: deps, now: time.Now}
}

// renderJob is everything a render needs, resolved from storage.
type renderJob struct {
	quote    entity.Quote
	settings entity.Settings
	layout   entity.PDFLayoutConfig
}

func (s *documentServiceImpl) load(ctx context.Context, quoteID string) (*renderJob, error) {
	quote, err := s.Quotes.GetByID(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if quote == nil {
		return nil, ErrQuoteNotFound
	}
	return s.resolve(ctx, RenderRequest{Quote: *quote})
}

func (s *documentServiceImpl) resolve(ctx context.Context, req RenderRequest) (*renderJob, error) {
	job := &renderJob{quote: req.Quote}

	if req.Settings != nil {
		job.settings = *req.Settings
	} else {
		settings, err := s.Settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		job.settings = *settings
	}

	if req.Layout != nil {
		job.layout = *req.Layout
	} else {
		layout, err := s.Layouts.Active(ctx, req.Quote.EffectiveVariant())
		if err != nil {
			return nil, err
		}
		job.layout = *layout
	}
	return job, nil
}

func (s *documentServiceImpl) html(job *renderJob) (string, error) {
	out, err := s.Engine.RenderHTML(job.quote, job.settings, job.layout)
	if err != nil {
		s.Logger.Error("Failed to render quote",
			zap.String("quote_id", job.quote.ID),
			zap.String("layout_id", job.layout.ID),
			zap.Error(err))
		return "", fmt.Errorf("render quote: %w", err)
	}
	return out, nil
}

func (s *documentServiceImpl) RenderQuote(ctx context.Context, quoteID string) (string, error) {
	job, err := s.load(ctx, quoteID)
	if err != nil {
		return "", err
	}
	return s.html(job)
}

func (s *documentServiceImpl) Render(ctx context.Context, req RenderRequest) (string, error) {
	if err := validateShape(&req.Quote); err != nil {
		return "", err
	}
	job, err := s.resolve(ctx, req)
	if err != nil {
		return "", err
	}
	return s.html(job)
}

// ExportPDF converts the rendered quote, stores the PDF with a first-page
// thumbnail and records it. A failed thumbnail does not fail the export.
func (s *documentServiceImpl) ExportPDF(ctx context.Context, quoteID string) (*entity.GeneratedDocument, error) {
	if s.Converter == nil {
		return nil, fmt.Errorf("pdf export: %w", ErrNotConfigured)
	}
	job, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	html, err := s.html(job)
	if err != nil {
		return nil, err
	}

	pdf, err := s.Converter.HTMLToPDF(ctx, html, pageSetup(job.layout))
	if err != nil {
		s.Logger.Error("PDF conversion failed", zap.String("quote_id", quoteID), zap.Error(err))
		return nil, fmt.Errorf("convert to pdf: %w", err)
	}

	doc := s.newDocument(job, entity.DocumentKindPDF)
	if err := s.store(ctx, doc, pdf); err != nil {
		return nil, err
	}

	if s.Thumbnailer != nil {
		png, err := s.Thumbnailer.Thumbnail(pdf)
		if err != nil {
			s.Logger.Warn("Thumbnail generation failed", zap.String("quote_id", quoteID), zap.Error(err))
		} else {
			thumbPath := strings.TrimSuffix(doc.FilePath, ".pdf") + ".png"
			if err := s.Storage.Save(ctx, thumbPath, png); err != nil {
				s.Logger.Warn("Failed to save thumbnail", zap.String("path", thumbPath), zap.Error(err))
			} else {
				doc.ThumbnailPath = thumbPath
			}
		}
	}

	return s.record(ctx, doc)
}

func (s *documentServiceImpl) ExportDOCX(ctx context.Context, quoteID string) (*entity.GeneratedDocument, error) {
	if s.Converter == nil {
		return nil, fmt.Errorf("docx export: %w", ErrNotConfigured)
	}
	job, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	html, err := s.html(job)
	if err != nil {
		return nil, err
	}

	docx, err := s.Converter.HTMLToDOCX(ctx, html)
	if err != nil {
		s.Logger.Error("DOCX conversion failed", zap.String("quote_id", quoteID), zap.Error(err))
		return nil, fmt.Errorf("convert to docx: %w", err)
	}

	doc := s.newDocument(job, entity.DocumentKindDOCX)
	if err := s.store(ctx, doc, docx); err != nil {
		return nil, err
	}
	return s.record(ctx, doc)
}

func (s *documentServiceImpl) ExportXLSX(ctx context.Context, quoteID string) ([]byte, string, error) {
	if s.Spreadsheet == nil {
		return nil, "", fmt.Errorf("xlsx export: %w", ErrNotConfigured)
	}
	job, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, "", err
	}

	data, err := s.Spreadsheet.Export(pricing.PriceQuote(job.quote, job.settings), job.settings)
	if err != nil {
		s.Logger.Error("XLSX export failed", zap.String("quote_id", quoteID), zap.Error(err))
		return nil, "", fmt.Errorf("export xlsx: %w", err)
	}
	return data, safeName(refOrID(job.quote)) + ".xlsx", nil
}

func (s *documentServiceImpl) ListDocuments(ctx context.Context, quoteID string) ([]*entity.GeneratedDocument, error) {
	docs, err := s.Documents.ListByQuoteID(ctx, quoteID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// pageSetup is the page geometry of a layout that already rendered, so it
// resolves.
func pageSetup(layout entity.PDFLayoutConfig) port.PageSetup {
	page, err := render.ResolvePage(layout)
	if err != nil {
		return port.PageSetup{}
	}
	return port.PageSetup{
		Width:        page.Width,
		Height:       page.Height,
		MarginTop:    page.Margins.Top,
		MarginRight:  page.Margins.Right,
		MarginBottom: page.Margins.Bottom,
		MarginLeft:   page.Margins.Left,
	}
}

func (s *documentServiceImpl) newDocument(job *renderJob, kind string) *entity.GeneratedDocument {
	id := uuid.NewString()
	return &entity.GeneratedDocument{
		ID:        id,
		QuoteID:   job.quote.ID,
		Kind:      kind,
		LayoutID:  job.layout.ID,
		FilePath:  artifactPath(job.quote, id, kind),
		CreatedAt: s.now().UTC(),
	}
}

func (s *documentServiceImpl) store(ctx context.Context, doc *entity.GeneratedDocument, content []byte) error {
	if err := s.Storage.Save(ctx, doc.FilePath, content); err != nil {
		s.Logger.Error("Failed to store document",
			zap.String("quote_id", doc.QuoteID),
			zap.String("path", doc.FilePath),
			zap.Error(err))
		return fmt.Errorf("store %s: %w", doc.Kind, err)
	}
	doc.SizeBytes = int64(len(content))
	return nil
}

func (s *documentServiceImpl) record(ctx context.Context, doc *entity.GeneratedDocument) (*entity.GeneratedDocument, error) {
	if err := s.Documents.Create(ctx, doc); err != nil {
		s.Logger.Error("Failed to record document", zap.String("document_id", doc.ID), zap.Error(err))
		s.discard(ctx, doc.FilePath, doc.ThumbnailPath)
		return nil, fmt.Errorf("record document: %w", err)
	}
	s.Logger.Info("Document generated",
		zap.String("quote_id", doc.QuoteID),
		zap.String("kind", doc.Kind),
		zap.String("path", doc.FilePath),
		zap.Int64("size", doc.SizeBytes))
	return doc, nil
}

// discard removes stored files of a document that could not be recorded.
func (s *documentServiceImpl) discard(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.Storage.Delete(ctx, p); err != nil {
			s.Logger.Warn("Failed to remove unrecorded artifact", zap.String("path", p), zap.Error(err))
		}
	}
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// safeName keeps a name usable as a single path element.
func safeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = unsafeNameChars.ReplaceAllString(name, "_")
	if strings.Trim(name, "_") == "" {
		return "quote"
	}
	return name
}

func refOrID(q entity.Quote) string {
	if q.Ref != "" {
		return q.Ref
	}
	return q.ID
}

// artifactPath is the storage path of a generated file, grouped per quote.
func artifactPath(q entity.Quote, docID, ext string) string {
	return path.Join("quotes", safeName(refOrID(q)), docID+"."+ext)
}
