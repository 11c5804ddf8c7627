package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// DocumentRepository implements port.DocumentRepository
type DocumentRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new generated document repository
func NewDocumentRepository(db *sqlite.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a generated document
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.GeneratedDocument) error {
	query := `
		INSERT INTO generated_documents (
			id, quote_id, kind, layout_id, file_path, thumbnail_path, size_bytes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var thumbnail sql.NullString
	if doc.ThumbnailPath != "" {
		thumbnail = sql.NullString{String: doc.ThumbnailPath, Valid: true}
	}

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		doc.ID,
		doc.QuoteID,
		doc.Kind,
		doc.LayoutID,
		doc.FilePath,
		thumbnail,
		doc.SizeBytes,
		doc.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document",
			zap.String("document_id", doc.ID),
			zap.String("quote_id", doc.QuoteID),
			zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// ListByQuoteID returns the documents of a quote, newest first
func (r *DocumentRepository) ListByQuoteID(ctx context.Context, quoteID string) ([]*entity.GeneratedDocument, error) {
	query := `
		SELECT id, quote_id, kind, layout_id, file_path, thumbnail_path, size_bytes, created_at
		FROM generated_documents
		WHERE quote_id = ?
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, quoteID)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.String("quote_id", quoteID), zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []*entity.GeneratedDocument{}
	for rows.Next() {
		var doc entity.GeneratedDocument
		var thumbnail sql.NullString
		if err := rows.Scan(
			&doc.ID,
			&doc.QuoteID,
			&doc.Kind,
			&doc.LayoutID,
			&doc.FilePath,
			&thumbnail,
			&doc.SizeBytes,
			&doc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if thumbnail.Valid {
			doc.ThumbnailPath = thumbnail.String
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

var _ port.DocumentRepository = (*DocumentRepository)(nil)
