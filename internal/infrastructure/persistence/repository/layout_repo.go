package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// LayoutRepository implements port.LayoutRepository. The layout document is
// kept verbatim as JSON so any conforming export can be stored back.
type LayoutRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewLayoutRepository creates a new layout repository
func NewLayoutRepository(db *sqlite.DB, logger *zap.Logger) port.LayoutRepository {
	return &LayoutRepository{
		db:     db,
		logger: logger,
	}
}

// Save inserts or replaces a layout
func (r *LayoutRepository) Save(ctx context.Context, layout *entity.PDFLayoutConfig) error {
	data, err := json.Marshal(layout)
	if err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}

	query := `
		INSERT INTO layouts (id, name, variant, version, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			variant = excluded.variant,
			version = excluded.version,
			data = excluded.data,
			updated_at = excluded.updated_at
	`
	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		layout.ID,
		layout.Name,
		string(layout.Variant),
		layout.Version,
		string(data),
		layout.CreatedAt,
		layout.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save layout", zap.String("layout_id", layout.ID), zap.Error(err))
		return fmt.Errorf("failed to save layout: %w", err)
	}
	return nil
}

// GetByID retrieves a layout, nil when it does not exist
func (r *LayoutRepository) GetByID(ctx context.Context, id string) (*entity.PDFLayoutConfig, error) {
	var data string
	err := r.db.Executor(ctx).QueryRowContext(ctx, `SELECT data FROM layouts WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get layout", zap.String("layout_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get layout: %w", err)
	}
	return decodeLayout(data)
}

// List returns the layouts of a variant ordered by name, all of them when variant is empty
func (r *LayoutRepository) List(ctx context.Context, variant entity.Variant) ([]*entity.PDFLayoutConfig, error) {
	query := `SELECT data FROM layouts WHERE (? = '' OR variant = ?) ORDER BY name, id`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, string(variant), string(variant))
	if err != nil {
		r.logger.Error("Failed to list layouts", zap.String("variant", string(variant)), zap.Error(err))
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}
	defer rows.Close()

	layouts := []*entity.PDFLayoutConfig{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan layout: %w", err)
		}
		l, err := decodeLayout(data)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}
	return layouts, rows.Err()
}

// Delete removes a layout and any active selection pointing at it
func (r *LayoutRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := r.db.Executor(txCtx)
		if _, err := exec.ExecContext(txCtx, `DELETE FROM active_layouts WHERE layout_id = ?`, id); err != nil {
			r.logger.Error("Failed to clear active layout", zap.String("layout_id", id), zap.Error(err))
			return fmt.Errorf("failed to clear active layout: %w", err)
		}
		if _, err := exec.ExecContext(txCtx, `DELETE FROM layouts WHERE id = ?`, id); err != nil {
			r.logger.Error("Failed to delete layout", zap.String("layout_id", id), zap.Error(err))
			return fmt.Errorf("failed to delete layout: %w", err)
		}
		return nil
	})
}

// SetActive selects the layout of a variant
func (r *LayoutRepository) SetActive(ctx context.Context, variant entity.Variant, layoutID string) error {
	query := `
		INSERT INTO active_layouts (variant, layout_id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(variant) DO UPDATE SET layout_id = excluded.layout_id, updated_at = excluded.updated_at
	`
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, string(variant), layoutID, time.Now().UTC()); err != nil {
		r.logger.Error("Failed to set active layout",
			zap.String("variant", string(variant)),
			zap.String("layout_id", layoutID),
			zap.Error(err))
		return fmt.Errorf("failed to set active layout: %w", err)
	}
	return nil
}

// ActiveIDs returns the selected layout id of each variant that has one
func (r *LayoutRepository) ActiveIDs(ctx context.Context) (map[entity.Variant]string, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `SELECT variant, layout_id FROM active_layouts`)
	if err != nil {
		r.logger.Error("Failed to get active layouts", zap.Error(err))
		return nil, fmt.Errorf("failed to get active layouts: %w", err)
	}
	defer rows.Close()

	active := make(map[entity.Variant]string)
	for rows.Next() {
		var variant, id string
		if err := rows.Scan(&variant, &id); err != nil {
			return nil, fmt.Errorf("failed to scan active layout: %w", err)
		}
		active[entity.Variant(variant)] = id
	}
	return active, rows.Err()
}

func decodeLayout(data string) (*entity.PDFLayoutConfig, error) {
	var l entity.PDFLayoutConfig
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return nil, fmt.Errorf("failed to decode layout: %w", err)
	}
	return &l, nil
}

var _ port.LayoutRepository = (*LayoutRepository)(nil)
