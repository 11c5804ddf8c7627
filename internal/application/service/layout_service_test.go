package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampleLayout() *entity.PDFLayoutConfig {
	return &entity.PDFLayoutConfig{
		Name:    "Banque",
		Variant: entity.VariantTechnique,
		Page:    &entity.PageGeometry{Format: "A4", Margins: entity.Margins{Top: 15, Right: 15, Bottom: 15, Left: 15}},
		Blocks: []entity.LayoutBlock{
			{ID: "title", Type: entity.BlockText, Content: "Matériel", AttachedTo: "table"},
			{ID: "table", Type: entity.BlockTableTech, Y: 10, Width: 180},
		},
		VisibilityRules: map[string]string{"table": "hasTech"},
	}
}

func TestLayoutService_SaveVersions(t *testing.T) {
	repo := newMemLayoutRepo()
	svc := NewLayoutService(repo, &mockTxManager{}, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Save(ctx, sampleLayout())
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 1, first.Version)

	first.Name = "Banque v2"
	second, err := svc.Save(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "Banque v2", repo.layouts[first.ID].Name)
}

func TestLayoutService_SaveRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(l *entity.PDFLayoutConfig)
	}{
		{"unknown variant", func(l *entity.PDFLayoutConfig) { l.Variant = "poster" }},
		{"missing page", func(l *entity.PDFLayoutConfig) { l.Page = nil }},
		{"margins wider than page", func(l *entity.PDFLayoutConfig) { l.Page.Margins.Left = 200 }},
		{"duplicate block id", func(l *entity.PDFLayoutConfig) { l.Blocks[1].ID = "title" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemLayoutRepo()
			l := sampleLayout()
			tt.mutate(l)

			_, err := NewLayoutService(repo, &mockTxManager{}, zap.NewNop()).Save(context.Background(), l)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, repo.layouts)
		})
	}
}

func TestLayoutService_SaveFillsNameAndBlockIDs(t *testing.T) {
	l := sampleLayout()
	l.Name = " "
	l.Blocks = append(l.Blocks, entity.LayoutBlock{Type: entity.BlockSeparator})

	got, err := NewLayoutService(newMemLayoutRepo(), &mockTxManager{}, zap.NewNop()).Save(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, "Modèle technique", got.Name)
	assert.NotEmpty(t, got.Blocks[2].ID)
	assert.Empty(t, l.Blocks[2].ID, "input must not be modified")
}

func TestLayoutService_GetBuiltIn(t *testing.T) {
	svc := NewLayoutService(newMemLayoutRepo(), &mockTxManager{}, zap.NewNop())

	got, err := svc.Get(context.Background(), render.DefaultLayoutID(entity.VariantAgent))
	require.NoError(t, err)
	assert.Equal(t, entity.VariantAgent, got.Variant)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrLayoutNotFound)
}

func TestLayoutService_Delete(t *testing.T) {
	repo := newMemLayoutRepo()
	svc := NewLayoutService(repo, &mockTxManager{}, zap.NewNop())
	ctx := context.Background()

	saved, err := svc.Save(ctx, sampleLayout())
	require.NoError(t, err)
	require.NoError(t, svc.Activate(ctx, saved.ID))

	require.NoError(t, svc.Delete(ctx, saved.ID))
	assert.Empty(t, repo.layouts)
	assert.Empty(t, repo.active)

	assert.ErrorIs(t, svc.Delete(ctx, saved.ID), ErrLayoutNotFound)
}

func TestLayoutService_ExportImport(t *testing.T) {
	repo := newMemLayoutRepo()
	svc := NewLayoutService(repo, &mockTxManager{}, zap.NewNop())
	ctx := context.Background()

	saved, err := svc.Save(ctx, sampleLayout())
	require.NoError(t, err)

	data, err := svc.Export(ctx, saved.ID)
	require.NoError(t, err)

	var decoded entity.PDFLayoutConfig
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, saved.ID, decoded.ID)

	imported, err := svc.Import(ctx, data)
	require.NoError(t, err)
	assert.NotEqual(t, saved.ID, imported.ID, "import must not overwrite a stored layout")
	assert.Equal(t, saved.Blocks, imported.Blocks)
	assert.Len(t, repo.layouts, 2)

	_, err = svc.Import(ctx, []byte("{not json"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLayoutService_Duplicate(t *testing.T) {
	repo := newMemLayoutRepo()
	svc := NewLayoutService(repo, &mockTxManager{}, zap.NewNop())
	ctx := context.Background()

	src, err := svc.Save(ctx, sampleLayout())
	require.NoError(t, err)
	src, err = svc.Save(ctx, src)
	require.NoError(t, err)
	require.Equal(t, 2, src.Version)

	dup, err := svc.Duplicate(ctx, src.ID, "")
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, 1, dup.Version)
	assert.Equal(t, "Banque (copie)", dup.Name)

	title, table := dup.Blocks[0], dup.Blocks[1]
	assert.NotEqual(t, "title", title.ID)
	assert.NotEqual(t, "table", table.ID)
	assert.Equal(t, table.ID, title.AttachedTo)
	assert.Equal(t, map[string]string{table.ID: "hasTech"}, dup.VisibilityRules)

	assert.Equal(t, "table", repo.layouts[src.ID].Blocks[1].ID, "source must be untouched")

	named, err := svc.Duplicate(ctx, render.DefaultLayoutID(entity.VariantMixte), "Mixte client")
	require.NoError(t, err)
	assert.Equal(t, "Mixte client", named.Name)
	assert.Equal(t, entity.VariantMixte, named.Variant)
}

func TestLayoutService_Active(t *testing.T) {
	ctx := context.Background()

	t.Run("built-in when nothing selected", func(t *testing.T) {
		svc := NewLayoutService(newMemLayoutRepo(), &mockTxManager{}, zap.NewNop())
		got, err := svc.Active(ctx, entity.VariantMixte)
		require.NoError(t, err)
		assert.Equal(t, render.DefaultLayoutID(entity.VariantMixte), got.ID)
	})

	t.Run("selected layout", func(t *testing.T) {
		svc := NewLayoutService(newMemLayoutRepo(), &mockTxManager{}, zap.NewNop())
		saved, err := svc.Save(ctx, sampleLayout())
		require.NoError(t, err)
		require.NoError(t, svc.Activate(ctx, saved.ID))

		got, err := svc.Active(ctx, entity.VariantTechnique)
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.ID)

		other, err := svc.Active(ctx, entity.VariantAgent)
		require.NoError(t, err)
		assert.Equal(t, render.DefaultLayoutID(entity.VariantAgent), other.ID)
	})

	t.Run("dangling selection falls back with a warning", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		repo := newMemLayoutRepo()
		repo.active[entity.VariantAgent] = "gone"
		svc := NewLayoutService(repo, &mockTxManager{}, zap.New(core))

		got, err := svc.Active(ctx, entity.VariantAgent)
		require.NoError(t, err)
		assert.Equal(t, render.DefaultLayoutID(entity.VariantAgent), got.ID)
		assert.Equal(t, 1, logs.FilterField(zap.String("layout_id", "gone")).Len())
	})

	t.Run("unknown variant", func(t *testing.T) {
		svc := NewLayoutService(newMemLayoutRepo(), &mockTxManager{}, zap.NewNop())
		_, err := svc.Active(ctx, "poster")
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})
}
