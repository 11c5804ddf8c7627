package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	"go.uber.org/zap"
)

// SettingsService reads and updates the process-wide settings document.
// Nothing is cached: every read reflects the last saved state.
type SettingsService interface {
	Get(ctx context.Context) (*entity.Settings, error)
	Update(ctx context.Context, settings *entity.Settings) (*entity.Settings, error)
}

type settingsServiceImpl struct {
	repo    port.SettingsRepository
	layouts port.LayoutRepository
	logger  *zap.Logger
}

// NewSettingsService creates a new SettingsService. layouts may be nil, in
// which case ActiveLayouts is left empty.
func NewSettingsService(repo port.SettingsRepository, layouts port.LayoutRepository, logger *zap.Logger) SettingsService {
	return &settingsServiceImpl{
		repo:    repo,
		layouts: layouts,
		logger:  logger,
	}
}

// Get returns the stored settings, or the defaults when none were saved.
func (s *settingsServiceImpl) Get(ctx context.Context) (*entity.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if settings == nil {
		def := entity.DefaultSettings()
		settings = &def
	}

	settings.ActiveLayouts = map[entity.Variant]string{}
	if s.layouts != nil {
		active, err := s.layouts.ActiveIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("get active layouts: %w", err)
		}
		for v, id := range active {
			settings.ActiveLayouts[v] = id
		}
	}
	return settings, nil
}

// Update validates and stores the settings. Active layouts are managed by the
// layout library and ignored here.
func (s *settingsServiceImpl) Update(ctx context.Context, settings *entity.Settings) (*entity.Settings, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings are required", ErrInvalidInput)
	}
	if err := validateStruct(settings); err != nil {
		return nil, err
	}

	normalized := normalizeSettings(*settings)
	if err := s.repo.Save(ctx, &normalized); err != nil {
		s.logger.Error("Failed to save settings", zap.Error(err))
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("Settings updated",
		zap.Float64("tva_pct", normalized.TVAPct),
		zap.String("currency", normalized.Currency))

	return s.Get(ctx)
}

func normalizeSettings(s entity.Settings) entity.Settings {
	s.Currency = strings.TrimSpace(s.Currency)
	if s.Currency == "" {
		s.Currency = "CHF"
	}
	if s.DefaultPriceMode == "" {
		s.DefaultPriceMode = entity.PriceModeHT
	}

	holidays := make(map[string][]string, len(s.CantonHolidays))
	for canton, dates := range s.CantonHolidays {
		key := strings.ToUpper(strings.TrimSpace(canton))
		if key == "" {
			continue
		}
		holidays[key] = append(holidays[key], dates...)
	}
	s.CantonHolidays = holidays
	s.ActiveLayouts = nil
	return s
}
