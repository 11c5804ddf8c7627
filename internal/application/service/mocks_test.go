package service

import (
	"context"
	"sort"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/pricing"
)

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockQuoteRepo struct {
	createFunc  func(ctx context.Context, quote *entity.Quote) error
	getByIDFunc func(ctx context.Context, id string) (*entity.Quote, error)
	updateFunc  func(ctx context.Context, quote *entity.Quote) error
	listFunc    func(ctx context.Context, limit, offset int) ([]*entity.Quote, error)
}

func (m *mockQuoteRepo) Create(ctx context.Context, quote *entity.Quote) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, quote)
	}
	return nil
}

func (m *mockQuoteRepo) GetByID(ctx context.Context, id string) (*entity.Quote, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockQuoteRepo) Update(ctx context.Context, quote *entity.Quote) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, quote)
	}
	return nil
}

func (m *mockQuoteRepo) List(ctx context.Context, limit, offset int) ([]*entity.Quote, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

type mockSettingsRepo struct {
	settings *entity.Settings
	saveErr  error
	saved    int
}

func (m *mockSettingsRepo) Get(ctx context.Context) (*entity.Settings, error) {
	if m.settings == nil {
		return nil, nil
	}
	s := *m.settings
	return &s, nil
}

func (m *mockSettingsRepo) Save(ctx context.Context, settings *entity.Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	s := *settings
	m.settings = &s
	m.saved++
	return nil
}

// memLayoutRepo keeps layouts in memory, mirroring the sqlite repository.
type memLayoutRepo struct {
	layouts map[string]entity.PDFLayoutConfig
	active  map[entity.Variant]string
}

func newMemLayoutRepo() *memLayoutRepo {
	return &memLayoutRepo{
		layouts: map[string]entity.PDFLayoutConfig{},
		active:  map[entity.Variant]string{},
	}
}

func (m *memLayoutRepo) Save(ctx context.Context, layout *entity.PDFLayoutConfig) error {
	m.layouts[layout.ID] = *layout
	return nil
}

func (m *memLayoutRepo) GetByID(ctx context.Context, id string) (*entity.PDFLayoutConfig, error) {
	l, ok := m.layouts[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *memLayoutRepo) List(ctx context.Context, variant entity.Variant) ([]*entity.PDFLayoutConfig, error) {
	var out []*entity.PDFLayoutConfig
	for _, l := range m.layouts {
		if variant != "" && l.Variant != variant {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memLayoutRepo) Delete(ctx context.Context, id string) error {
	delete(m.layouts, id)
	for v, active := range m.active {
		if active == id {
			delete(m.active, v)
		}
	}
	return nil
}

func (m *memLayoutRepo) SetActive(ctx context.Context, variant entity.Variant, layoutID string) error {
	m.active[variant] = layoutID
	return nil
}

func (m *memLayoutRepo) ActiveIDs(ctx context.Context) (map[entity.Variant]string, error) {
	out := make(map[entity.Variant]string, len(m.active))
	for v, id := range m.active {
		out[v] = id
	}
	return out, nil
}

type mockDocumentRepo struct {
	created []*entity.GeneratedDocument
	err     error
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *entity.GeneratedDocument) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, doc)
	return nil
}

func (m *mockDocumentRepo) ListByQuoteID(ctx context.Context, quoteID string) ([]*entity.GeneratedDocument, error) {
	var out []*entity.GeneratedDocument
	for _, d := range m.created {
		if d.QuoteID == quoteID {
			out = append(out, d)
		}
	}
	return out, m.err
}

type memStorage struct {
	files map[string][]byte
	err   error
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (m *memStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.err != nil {
		return m.err
	}
	m.files[path] = content
	return nil
}

func (m *memStorage) Read(ctx context.Context, path string) ([]byte, error) {
	return m.files[path], nil
}

func (m *memStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.files[path]
	return ok
}

func (m *memStorage) Delete(ctx context.Context, path string) error {
	delete(m.files, path)
	return nil
}

func (m *memStorage) GetFullPath(relativePath string) string {
	return "/data/" + relativePath
}

type mockConverter struct {
	toPDFFunc  func(ctx context.Context, html string) ([]byte, error)
	toDOCXFunc func(ctx context.Context, html string) ([]byte, error)
	lastHTML   string
	lastPage   port.PageSetup
}

func (m *mockConverter) HTMLToPDF(ctx context.Context, html string, page port.PageSetup) ([]byte, error) {
	m.lastHTML = html
	m.lastPage = page
	if m.toPDFFunc != nil {
		return m.toPDFFunc(ctx, html)
	}
	return []byte("%PDF-1.7 fake"), nil
}

func (m *mockConverter) HTMLToDOCX(ctx context.Context, html string) ([]byte, error) {
	m.lastHTML = html
	if m.toDOCXFunc != nil {
		return m.toDOCXFunc(ctx, html)
	}
	return []byte("PK docx"), nil
}

type mockThumbnailer struct {
	err error
}

func (m *mockThumbnailer) Thumbnail(pdf []byte) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []byte("\x89PNG"), nil
}

type mockSpreadsheet struct {
	got pricing.PricedQuote
}

func (m *mockSpreadsheet) Export(priced pricing.PricedQuote, settings entity.Settings) ([]byte, error) {
	m.got = priced
	return []byte("xlsx"), nil
}

type mockExtractor struct {
	extractFunc func(ctx context.Context, email string) (*entity.Quote, error)
}

func (m *mockExtractor) ExtractQuote(ctx context.Context, email string) (*entity.Quote, error) {
	return m.extractFunc(ctx, email)
}

func techQuote() *entity.Quote {
	return &entity.Quote{
		ID:            "q-1",
		Ref:           "DEV-2026/001",
		Date:          "2026-10-14",
		ClientCompany: "Banque Exemple SA",
		Items: []entity.QuoteItem{
			{ID: "i-1", Kind: entity.ItemKindTech, Reference: "CAM-01", Description: "Caméra dôme",
				Mode: entity.TechModeUnique, Qty: 2, UnitPriceValue: 100},
		},
	}
}
