package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// QuoteRepository implements port.QuoteRepository. Quotes are stored as
// JSON documents next to a few columns used for listing.
type QuoteRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *sqlite.DB, logger *zap.Logger) port.QuoteRepository {
	return &QuoteRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new quote
func (r *QuoteRepository) Create(ctx context.Context, quote *entity.Quote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to encode quote: %w", err)
	}

	query := `
		INSERT INTO quotes (id, ref, client_company, variant, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		quote.ID,
		quote.Ref,
		quote.ClientCompany,
		string(quote.EffectiveVariant()),
		string(data),
		quote.CreatedAt,
		quote.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create quote", zap.String("quote_id", quote.ID), zap.Error(err))
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

// GetByID retrieves a quote, nil when it does not exist
func (r *QuoteRepository) GetByID(ctx context.Context, id string) (*entity.Quote, error) {
	var data string
	err := r.db.Executor(ctx).QueryRowContext(ctx, `SELECT data FROM quotes WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get quote", zap.String("quote_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return decodeQuote(data)
}

// Update replaces the stored document of a quote
func (r *QuoteRepository) Update(ctx context.Context, quote *entity.Quote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to encode quote: %w", err)
	}

	query := `
		UPDATE quotes
		SET ref = ?, client_company = ?, variant = ?, data = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		quote.Ref,
		quote.ClientCompany,
		string(quote.EffectiveVariant()),
		string(data),
		quote.UpdatedAt,
		quote.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update quote", zap.String("quote_id", quote.ID), zap.Error(err))
		return fmt.Errorf("failed to update quote: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update quote: no quote with id %s", quote.ID)
	}
	return nil
}

// List returns quotes, most recently updated first
func (r *QuoteRepository) List(ctx context.Context, limit, offset int) ([]*entity.Quote, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT data FROM quotes ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list quotes", zap.Error(err))
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	quotes := []*entity.Quote{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		q, err := decodeQuote(data)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func decodeQuote(data string) (*entity.Quote, error) {
	var q entity.Quote
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}
	return &q, nil
}

var _ port.QuoteRepository = (*QuoteRepository)(nil)
