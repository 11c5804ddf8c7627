package port

import (
	"context"

	"github.com/garyjia/secu-devis/internal/domain/entity"
)

// QuoteRepository defines persistence operations for Quote
type QuoteRepository interface {
	Create(ctx context.Context, quote *entity.Quote) error
	GetByID(ctx context.Context, id string) (*entity.Quote, error)
	Update(ctx context.Context, quote *entity.Quote) error
	List(ctx context.Context, limit, offset int) ([]*entity.Quote, error)
}

// SettingsRepository stores the single settings document.
// Get returns nil, nil when nothing has been saved yet.
type SettingsRepository interface {
	Get(ctx context.Context) (*entity.Settings, error)
	Save(ctx context.Context, settings *entity.Settings) error
}

// LayoutRepository defines persistence operations for the layout library
type LayoutRepository interface {
	// Save inserts the layout or replaces the stored one with the same id
	Save(ctx context.Context, layout *entity.PDFLayoutConfig) error
	GetByID(ctx context.Context, id string) (*entity.PDFLayoutConfig, error)

	// List returns the layouts of a variant, or all layouts when variant is empty
	List(ctx context.Context, variant entity.Variant) ([]*entity.PDFLayoutConfig, error)
	Delete(ctx context.Context, id string) error

	// SetActive selects the layout used for a variant
	SetActive(ctx context.Context, variant entity.Variant, layoutID string) error

	// ActiveIDs returns the selected layout id per variant
	ActiveIDs(ctx context.Context) (map[entity.Variant]string, error)
}

// DocumentRepository defines persistence operations for GeneratedDocument
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.GeneratedDocument) error
	ListByQuoteID(ctx context.Context, quoteID string) ([]*entity.GeneratedDocument, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
