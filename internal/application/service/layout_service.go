package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/render"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LayoutService manages the layout library and the active layout per variant
type LayoutService interface {
	List(ctx context.Context, variant entity.Variant) ([]*entity.PDFLayoutConfig, error)
	Get(ctx context.Context, id string) (*entity.PDFLayoutConfig, error)
	Save(ctx context.Context, layout *entity.PDFLayoutConfig) (*entity.PDFLayoutConfig, error)
	Delete(ctx context.Context, id string) error

	// Export returns the JSON document of a layout; Import stores one
	Export(ctx context.Context, id string) ([]byte, error)
	Import(ctx context.Context, data []byte) (*entity.PDFLayoutConfig, error)

	// Duplicate copies a layout under a new id with fresh block ids
	Duplicate(ctx context.Context, id, name string) (*entity.PDFLayoutConfig, error)

	// Activate selects a layout for its variant
	Activate(ctx context.Context, id string) error

	// Active returns the selected layout of a variant, or the built-in default
	Active(ctx context.Context, variant entity.Variant) (*entity.PDFLayoutConfig, error)
}

type layoutServiceImpl struct {
	repo      port.LayoutRepository
	txManager port.TransactionManager
	logger    *zap.Logger
	now       func() time.Time
}

// NewLayoutService creates a new LayoutService
func NewLayoutService(repo port.LayoutRepository, txManager port.TransactionManager, logger *zap.Logger) LayoutService {
	return &layoutServiceImpl{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *layoutServiceImpl) List(ctx context.Context, variant entity.Variant) ([]*entity.PDFLayoutConfig, error) {
	if variant != "" && !variant.IsValid() {
		return nil, fmt.Errorf("%w: unknown variant %q", ErrInvalidInput, variant)
	}
	layouts, err := s.repo.List(ctx, variant)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	return layouts, nil
}

// Get returns a stored layout. Ids of the built-in layouts resolve to the
// built-in layout until a layout with the same id is stored.
func (s *layoutServiceImpl) Get(ctx context.Context, id string) (*entity.PDFLayoutConfig, error) {
	layout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get layout: %w", err)
	}
	if layout != nil {
		return layout, nil
	}
	for _, v := range entity.AllVariants {
		if id == render.DefaultLayoutID(v) {
			def := render.DefaultLayout(v)
			return &def, nil
		}
	}
	return nil, ErrLayoutNotFound
}

// Save validates and stores a layout. A new id starts at version 1; saving
// over a stored layout increments its version.
func (s *layoutServiceImpl) Save(ctx context.Context, layout *entity.PDFLayoutConfig) (*entity.PDFLayoutConfig, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: layout is required", ErrInvalidInput)
	}
	l := *layout
	l.Blocks = append([]entity.LayoutBlock(nil), layout.Blocks...)
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if err := checkLayout(&l); err != nil {
		return nil, err
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetByID(txCtx, l.ID)
		if err != nil {
			return fmt.Errorf("get layout: %w", err)
		}
		now := s.now().UTC()
		l.UpdatedAt = now
		if existing != nil {
			l.Version = existing.Version + 1
			l.CreatedAt = existing.CreatedAt
		} else {
			if l.Version < 1 {
				l.Version = 1
			}
			l.CreatedAt = now
		}
		return s.repo.Save(txCtx, &l)
	})
	if err != nil {
		s.logger.Error("Failed to save layout", zap.String("layout_id", l.ID), zap.Error(err))
		return nil, fmt.Errorf("save layout: %w", err)
	}

	s.logger.Info("Layout saved",
		zap.String("layout_id", l.ID),
		zap.String("variant", string(l.Variant)),
		zap.Int("version", l.Version),
		zap.Int("block_count", len(l.Blocks)))
	return &l, nil
}

func (s *layoutServiceImpl) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get layout: %w", err)
	}
	if existing == nil {
		return ErrLayoutNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete layout", zap.String("layout_id", id), zap.Error(err))
		return fmt.Errorf("delete layout: %w", err)
	}
	s.logger.Info("Layout deleted", zap.String("layout_id", id))
	return nil
}

func (s *layoutServiceImpl) Export(ctx context.Context, id string) ([]byte, error) {
	layout, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return data, nil
}

// Import stores a layout document. It never overwrites: an id that is empty
// or already taken is replaced by a fresh one.
func (s *layoutServiceImpl) Import(ctx context.Context, data []byte) (*entity.PDFLayoutConfig, error) {
	var layout entity.PDFLayoutConfig
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("%w: layout document: %v", ErrInvalidInput, err)
	}

	if layout.ID != "" {
		existing, err := s.repo.GetByID(ctx, layout.ID)
		if err != nil {
			return nil, fmt.Errorf("get layout: %w", err)
		}
		if existing != nil {
			layout.ID = ""
		}
	}
	return s.Save(ctx, &layout)
}

func (s *layoutServiceImpl) Duplicate(ctx context.Context, id, name string) (*entity.PDFLayoutConfig, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	dup, err := copyLayout(*src)
	if err != nil {
		return nil, err
	}
	dup.ID = uuid.NewString()
	dup.Version = 1
	dup.Name = strings.TrimSpace(name)
	if dup.Name == "" {
		dup.Name = src.Name + " (copie)"
	}
	renewBlockIDs(&dup)

	return s.Save(ctx, &dup)
}

func (s *layoutServiceImpl) Activate(ctx context.Context, id string) error {
	layout, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, layout.Variant, layout.ID); err != nil {
		s.logger.Error("Failed to activate layout", zap.String("layout_id", id), zap.Error(err))
		return fmt.Errorf("activate layout: %w", err)
	}
	s.logger.Info("Layout activated",
		zap.String("layout_id", layout.ID),
		zap.String("variant", string(layout.Variant)))
	return nil
}

func (s *layoutServiceImpl) Active(ctx context.Context, variant entity.Variant) (*entity.PDFLayoutConfig, error) {
	if !variant.IsValid() {
		return nil, fmt.Errorf("%w: unknown variant %q", ErrInvalidInput, variant)
	}

	active, err := s.repo.ActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active layouts: %w", err)
	}
	if id, ok := active[variant]; ok {
		layout, err := s.Get(ctx, id)
		if err == nil {
			return layout, nil
		}
		if !errors.Is(err, ErrLayoutNotFound) {
			return nil, err
		}
		s.logger.Warn("Active layout missing, using built-in layout",
			zap.String("variant", string(variant)),
			zap.String("layout_id", id))
	}

	def := render.DefaultLayout(variant)
	return &def, nil
}

// checkLayout rejects layouts the renderer cannot place on a page.
func checkLayout(l *entity.PDFLayoutConfig) error {
	if !l.Variant.IsValid() {
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidInput, l.Variant)
	}
	if strings.TrimSpace(l.Name) == "" {
		l.Name = "Modèle " + string(l.Variant)
	}
	if _, err := render.ResolvePage(*l); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	seen := make(map[string]bool, len(l.Blocks))
	for i := range l.Blocks {
		b := &l.Blocks[i]
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate block id %q", ErrInvalidInput, b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

// copyLayout deep-copies a layout through its JSON form.
func copyLayout(l entity.PDFLayoutConfig) (entity.PDFLayoutConfig, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return entity.PDFLayoutConfig{}, fmt.Errorf("encode layout: %w", err)
	}
	var out entity.PDFLayoutConfig
	if err := json.Unmarshal(data, &out); err != nil {
		return entity.PDFLayoutConfig{}, fmt.Errorf("decode layout: %w", err)
	}
	return out, nil
}

// renewBlockIDs gives every block a new id and rewires the references to it.
func renewBlockIDs(l *entity.PDFLayoutConfig) {
	ids := make(map[string]string, len(l.Blocks))
	for i := range l.Blocks {
		newID := uuid.NewString()
		if l.Blocks[i].ID != "" {
			ids[l.Blocks[i].ID] = newID
		}
		l.Blocks[i].ID = newID
	}
	for i := range l.Blocks {
		if ref, ok := ids[l.Blocks[i].AttachedTo]; ok {
			l.Blocks[i].AttachedTo = ref
		}
	}
	if len(l.VisibilityRules) > 0 {
		rules := make(map[string]string, len(l.VisibilityRules))
		for id, cond := range l.VisibilityRules {
			if newID, ok := ids[id]; ok {
				id = newID
			}
			rules[id] = cond
		}
		l.VisibilityRules = rules
	}
}
