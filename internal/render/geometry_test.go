package render

import (
	"errors"
	"testing"

	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePage(t *testing.T) {
	t.Run("A4 default", func(t *testing.T) {
		p, err := ResolvePage(entity.PDFLayoutConfig{Page: &entity.PageGeometry{Margins: entity.Margins{Top: 10, Right: 15, Bottom: 10, Left: 15}}})
		require.NoError(t, err)
		assert.Equal(t, 210.0, p.Width)
		assert.Equal(t, 297.0, p.Height)
		assert.Equal(t, 180.0, p.ContentWidth())
		assert.Equal(t, 277.0, p.ContentHeight())
		assert.Equal(t, entity.UnitMillimeter, p.Unit)
	})

	t.Run("landscape swaps sides", func(t *testing.T) {
		p, err := ResolvePage(entity.PDFLayoutConfig{Page: &entity.PageGeometry{Format: "a5", Orientation: "landscape"}})
		require.NoError(t, err)
		assert.Equal(t, 210.0, p.Width)
		assert.Equal(t, 148.0, p.Height)
	})

	t.Run("explicit size wins over format", func(t *testing.T) {
		p, err := ResolvePage(entity.PDFLayoutConfig{Page: &entity.PageGeometry{Format: "A4", Width: 100, Height: 50, Unit: entity.UnitPercent}})
		require.NoError(t, err)
		assert.Equal(t, 100.0, p.Width)
		assert.Equal(t, entity.UnitPercent, p.Unit)
	})

	invalid := []struct {
		name string
		page *entity.PageGeometry
	}{
		{"missing geometry", nil},
		{"unknown format", &entity.PageGeometry{Format: "B7"}},
		{"half explicit size", &entity.PageGeometry{Width: 100}},
		{"negative margin", &entity.PageGeometry{Margins: entity.Margins{Left: -1}}},
		{"margins eat the page", &entity.PageGeometry{Margins: entity.Margins{Left: 110, Right: 100}}},
		{"unknown unit", &entity.PageGeometry{Unit: "pt"}},
		{"unknown orientation", &entity.PageGeometry{Orientation: "diagonal"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolvePage(entity.PDFLayoutConfig{ID: "bad", Page: tt.page})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidLayout))

			var layoutErr *LayoutError
			require.True(t, errors.As(err, &layoutErr))
			assert.Equal(t, "bad", layoutErr.LayoutID)
		})
	}
}

func TestPage_Place(t *testing.T) {
	mm := Page{Width: 210, Height: 297, Margins: entity.Margins{Top: 10, Right: 10, Bottom: 10, Left: 10}, Unit: entity.UnitMillimeter}
	pct := mm
	pct.Unit = entity.UnitPercent

	tests := []struct {
		name     string
		page     Page
		block    entity.LayoutBlock
		expected Frame
	}{
		{
			name:     "millimeters pass through",
			page:     mm,
			block:    entity.LayoutBlock{X: 10, Y: 20, Width: 50, Height: 30},
			expected: Frame{X: 10, Y: 20, Width: 50, Height: 30, Unit: entity.UnitMillimeter},
		},
		{
			name:     "width clamped to content area",
			page:     mm,
			block:    entity.LayoutBlock{X: 150, Y: 0, Width: 100},
			expected: Frame{X: 150, Width: 40, Unit: entity.UnitMillimeter},
		},
		{
			name:     "percent clamped to range",
			page:     pct,
			block:    entity.LayoutBlock{X: -5, Y: 90, Width: 130, Height: 30},
			expected: Frame{X: 0, Y: 90, Width: 100, Height: 10, Unit: entity.UnitPercent},
		},
		{
			name:     "millimeter block converted in percent pass",
			page:     pct,
			block:    entity.LayoutBlock{X: 19, Y: 27.7, Width: 95, Unit: entity.UnitMillimeter},
			expected: Frame{X: 10, Y: 10, Width: 50, Unit: entity.UnitPercent},
		},
		{
			name:     "percent block converted in millimeter pass",
			page:     mm,
			block:    entity.LayoutBlock{X: 50, Y: 50, Width: 50, Unit: entity.UnitPercent},
			expected: Frame{X: 95, Y: 138.5, Width: 95, Unit: entity.UnitMillimeter},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.page.Place(tt.block)
			assert.Equal(t, tt.expected.Unit, got.Unit)
			assert.InDelta(t, tt.expected.X, got.X, 1e-9)
			assert.InDelta(t, tt.expected.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.expected.Width, got.Width, 1e-9)
			assert.InDelta(t, tt.expected.Height, got.Height, 1e-9)
		})
	}
}

func TestFrame_CSS(t *testing.T) {
	assert.Equal(t,
		"position:absolute;left:10%;top:5.5%;width:80%;min-height:12.35%;z-index:3",
		Frame{X: 10, Y: 5.5, Width: 80, Height: 12.346, Unit: entity.UnitPercent}.CSS(3))
	assert.Equal(t,
		"position:absolute;left:0mm;top:0mm;z-index:0",
		Frame{Unit: entity.UnitMillimeter}.CSS(0))
}

func TestResolveStyle(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := ResolveStyle(nil)
		assert.Equal(t, DefaultFontSize, s.FontSize)
		assert.Equal(t, DefaultTextAlign, s.TextAlign)
		assert.Equal(t, DefaultFontWeight, s.FontWeight)
		assert.Equal(t, "font-size:14px;font-weight:normal;text-align:left", s.CSS())
	})

	t.Run("explicit values and sanitizing", func(t *testing.T) {
		s := ResolveStyle(&entity.BlockStyle{
			FontSize:        10,
			FontWeight:      "bold",
			Color:           "#1E3A5F",
			BackgroundColor: "red;position:fixed",
			TextAlign:       "middle",
			BorderWidth:     1,
			FontFamily:      "Arial</style>",
		})
		assert.Equal(t, "#1E3A5F", s.Color)
		assert.Empty(t, s.BackgroundColor)
		assert.Equal(t, "left", s.TextAlign)
		assert.Empty(t, s.FontFamily)
		assert.Equal(t, "font-size:10px;font-weight:bold;color:#1E3A5F;text-align:left;border:1px solid currentColor", s.CSS())
	})
}
