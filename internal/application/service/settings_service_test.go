package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSettingsService_GetDefaults(t *testing.T) {
	layouts := newMemLayoutRepo()
	layouts.active[entity.VariantAgent] = "lay-1"
	svc := NewSettingsService(&mockSettingsRepo{}, layouts, zap.NewNop())

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8.1, got.TVAPct)
	assert.Equal(t, "CHF", got.Currency)
	assert.Equal(t, map[entity.Variant]string{entity.VariantAgent: "lay-1"}, got.ActiveLayouts)
}

func TestSettingsService_Update(t *testing.T) {
	repo := &mockSettingsRepo{}
	svc := NewSettingsService(repo, newMemLayoutRepo(), zap.NewNop())

	in := entity.DefaultSettings()
	in.TVAPct = 7.7
	in.Currency = " "
	in.DefaultPriceMode = ""
	in.CantonHolidays = map[string][]string{" ge ": {"01/01"}, "GE": {"25/12"}, "": {"02/02"}}
	in.ActiveLayouts = map[entity.Variant]string{entity.VariantMixte: "ignored"}

	got, err := svc.Update(context.Background(), &in)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.saved)
	assert.Equal(t, 7.7, got.TVAPct)
	assert.Equal(t, "CHF", got.Currency)
	assert.Equal(t, entity.PriceModeHT, got.DefaultPriceMode)
	assert.ElementsMatch(t, []string{"01/01", "25/12"}, got.CantonHolidays["GE"])
	assert.Len(t, got.CantonHolidays, 1)
	assert.Empty(t, got.ActiveLayouts)
	assert.Nil(t, repo.settings.ActiveLayouts)

	again, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.7, again.TVAPct)
}

func TestSettingsService_UpdateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *entity.Settings)
		field  string
	}{
		{"tva above 100", func(s *entity.Settings) { s.TVAPct = 101 }, "tvaPct"},
		{"unknown price mode", func(s *entity.Settings) { s.DefaultPriceMode = "NET" }, "priceInputModeDefault"},
		{"negative markup", func(s *entity.Settings) { s.AgentRates.NightMarkupPct = -5 }, "agentRates.nightMarkupPct"},
		{"bad night start", func(s *entity.Settings) { s.AgentRates.NightStartTime = "22h" }, "agentRates.nightStartTime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSettingsRepo{}
			s := entity.DefaultSettings()
			tt.mutate(&s)

			_, err := NewSettingsService(repo, nil, zap.NewNop()).Update(context.Background(), &s)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, tt.field)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Zero(t, repo.saved)
		})
	}
}
