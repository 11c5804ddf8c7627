package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type documentFixture struct {
	svc       *documentServiceImpl
	storage   *memStorage
	documents *mockDocumentRepo
	layouts   *memLayoutRepo
	converter *mockConverter
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	quotes := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
			if id == "q-1" {
				return techQuote(), nil
			}
			return nil, nil
		},
	}
	layouts := newMemLayoutRepo()
	f := &documentFixture{
		storage:   newMemStorage(),
		documents: &mockDocumentRepo{},
		layouts:   layouts,
		converter: &mockConverter{},
	}
	svc := NewDocumentService(DocumentServiceDeps{
		Quotes:      quotes,
		Documents:   f.documents,
		Settings:    NewSettingsService(&mockSettingsRepo{}, layouts, zap.NewNop()),
		Layouts:     NewLayoutService(layouts, &mockTxManager{}, zap.NewNop()),
		Storage:     f.storage,
		Converter:   f.converter,
		Thumbnailer: &mockThumbnailer{},
		Spreadsheet: &mockSpreadsheet{},
	}).(*documentServiceImpl)
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }
	f.svc = svc
	return f
}

func TestDocumentService_RenderQuote(t *testing.T) {
	f := newDocumentFixture(t)

	html, err := f.svc.RenderQuote(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Contains(t, html, "Caméra dôme")
	assert.Contains(t, html, "DEV-2026/001")

	_, err = f.svc.RenderQuote(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestDocumentService_RenderUsesActiveLayout(t *testing.T) {
	f := newDocumentFixture(t)
	ctx := context.Background()

	custom := entity.PDFLayoutConfig{
		ID:      "custom",
		Name:    "Sobre",
		Variant: entity.VariantTechnique,
		Page:    &entity.PageGeometry{Format: "A4"},
		Blocks:  []entity.LayoutBlock{{ID: "note", Type: entity.BlockText, Content: "Offre {{quote.ref}}", Width: 100}},
	}
	require.NoError(t, f.layouts.Save(ctx, &custom))
	require.NoError(t, f.layouts.SetActive(ctx, entity.VariantTechnique, "custom"))

	html, err := f.svc.RenderQuote(ctx, "q-1")
	require.NoError(t, err)
	assert.Contains(t, html, "Offre DEV-2026/001")
	assert.NotContains(t, html, "Caméra dôme")
}

func TestDocumentService_StatelessRender(t *testing.T) {
	f := newDocumentFixture(t)
	settings := entity.DefaultSettings()
	settings.Seller.Company = "Garde Alpine SA"
	layout := render.DefaultLayout(entity.VariantTechnique)

	html, err := f.svc.Render(context.Background(), RenderRequest{Quote: *techQuote(), Settings: &settings, Layout: &layout})
	require.NoError(t, err)
	assert.Contains(t, html, "Garde Alpine SA")

	_, err = f.svc.Render(context.Background(), RenderRequest{Quote: entity.Quote{DiscountPct: -1}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad := layout
	bad.Page = nil
	_, err = f.svc.Render(context.Background(), RenderRequest{Quote: *techQuote(), Layout: &bad})
	assert.ErrorIs(t, err, render.ErrInvalidLayout)
}

func TestDocumentService_StatelessRenderDegradesOnAgentDates(t *testing.T) {
	f := newDocumentFixture(t)
	layout := render.DefaultLayout(entity.VariantAgent)

	tests := []struct {
		name      string
		dateStart string
		contains  string
	}{
		{"swiss date", "14.10.2026", "500.00 CHF"},
		{"unparseable date", "bientôt", "Agent cynophile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote := entity.Quote{
				Ref: "DEV-2026/002",
				Items: []entity.QuoteItem{{
					Kind:        entity.ItemKindAgent,
					AgentType:   "Agent cynophile",
					DateStart:   tt.dateStart, TimeStart: "08:00",
					DateEnd: "14.10.2026", TimeEnd: "18:00",
					RateCHFh: 50,
				}},
			}

			html, err := f.svc.Render(context.Background(), RenderRequest{Quote: quote, Layout: &layout})
			require.NoError(t, err)
			assert.Contains(t, html, tt.contains)
		})
	}
}

func TestDocumentService_ExportPDF(t *testing.T) {
	f := newDocumentFixture(t)

	doc, err := f.svc.ExportPDF(context.Background(), "q-1")
	require.NoError(t, err)

	assert.Equal(t, entity.DocumentKindPDF, doc.Kind)
	assert.Equal(t, "q-1", doc.QuoteID)
	assert.Equal(t, render.DefaultLayoutID(entity.VariantTechnique), doc.LayoutID)
	assert.Equal(t, "quotes/DEV-2026_001/"+doc.ID+".pdf", doc.FilePath)
	assert.Equal(t, "quotes/DEV-2026_001/"+doc.ID+".png", doc.ThumbnailPath)
	assert.Equal(t, int64(len("%PDF-1.7 fake")), doc.SizeBytes)
	assert.True(t, f.storage.Exists(context.Background(), doc.FilePath))
	assert.True(t, f.storage.Exists(context.Background(), doc.ThumbnailPath))
	assert.Contains(t, f.converter.lastHTML, "<!doctype html>")
	assert.Equal(t, port.PageSetup{
		Width: 210, Height: 297,
		MarginTop: 15, MarginRight: 15, MarginBottom: 15, MarginLeft: 15,
	}, f.converter.lastPage, "the converter gets the layout page, not its own defaults")

	listed, err := f.svc.ListDocuments(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, []*entity.GeneratedDocument{doc}, listed)
}

func TestDocumentService_ExportPDFThumbnailFailureIsNotFatal(t *testing.T) {
	f := newDocumentFixture(t)
	f.svc.Thumbnailer = &mockThumbnailer{err: errors.New("mupdf failed")}

	doc, err := f.svc.ExportPDF(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Empty(t, doc.ThumbnailPath)
	assert.Len(t, f.storage.files, 1)
}

func TestDocumentService_ExportFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *documentFixture)
		quoteID string
		wantErr error
		wantMsg string
	}{
		{
			name:    "no converter",
			setup:   func(f *documentFixture) { f.svc.Converter = nil },
			quoteID: "q-1",
			wantErr: ErrNotConfigured,
		},
		{
			name:    "unknown quote",
			setup:   func(f *documentFixture) {},
			quoteID: "missing",
			wantErr: ErrQuoteNotFound,
		},
		{
			name: "conversion error",
			setup: func(f *documentFixture) {
				f.converter.toPDFFunc = func(ctx context.Context, html string) ([]byte, error) {
					return nil, errors.New("converter returned 502")
				}
			},
			quoteID: "q-1",
			wantMsg: "converter returned 502",
		},
		{
			name:    "storage error",
			setup:   func(f *documentFixture) { f.storage.err = errors.New("read-only") },
			quoteID: "q-1",
			wantMsg: "read-only",
		},
		{
			name:    "record error removes stored files",
			setup:   func(f *documentFixture) { f.documents.err = errors.New("disk I/O error") },
			quoteID: "q-1",
			wantMsg: "disk I/O error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocumentFixture(t)
			tt.setup(f)

			_, err := f.svc.ExportPDF(context.Background(), tt.quoteID)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Empty(t, f.documents.created)
			assert.Empty(t, f.storage.files)
		})
	}
}

func TestDocumentService_ExportDOCX(t *testing.T) {
	f := newDocumentFixture(t)

	doc, err := f.svc.ExportDOCX(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentKindDOCX, doc.Kind)
	assert.True(t, strings.HasSuffix(doc.FilePath, ".docx"))
	assert.Empty(t, doc.ThumbnailPath)

	f.documents.err = errors.New("disk I/O error")
	_, err = f.svc.ExportDOCX(context.Background(), "q-1")
	require.Error(t, err)
	assert.Len(t, f.storage.files, 1, "only the recorded DOCX remains")
}

func TestDocumentService_ExportXLSX(t *testing.T) {
	f := newDocumentFixture(t)
	sheet := &mockSpreadsheet{}
	f.svc.Spreadsheet = sheet

	data, name, err := f.svc.ExportXLSX(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx"), data)
	assert.Equal(t, "DEV-2026_001.xlsx", name)
	assert.InDelta(t, 200.0, sheet.got.Totals.Unique.SubtotalHT, 1e-6)

	f.svc.Spreadsheet = nil
	_, _, err = f.svc.ExportXLSX(context.Background(), "q-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"DEV-2026/001":   "DEV-2026_001",
		"../../etc":      "__etc",
		"Offre été 2026": "Offre__t__2026",
		"..":             "quote",
		"":               "quote",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeName(in), in)
	}
}
