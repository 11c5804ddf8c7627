package render

import (
	"errors"
	"fmt"
	"testing"

	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func bodyIDs(p LogicalPage) []string {
	ids := make([]string, len(p.Body))
	for i, b := range p.Body {
		ids[i] = b.ID
	}
	return ids
}

func TestCompose_DefaultLayoutSinglePage(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	doc, err := engine.Compose(sampleQuote(), sampleSettings(), DefaultLayout(entity.VariantTechnique))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)

	page := doc.Pages[0]
	assert.Equal(t, entity.SectionContent, page.Section)
	assert.Equal(t, "Devis Q-2026-001", doc.Title)
	assert.Equal(t, []string{"intent", "title", "tech-title", "tech-table", "totals", "signatures"}, bodyIDs(page))

	require.Len(t, page.Header, 1)
	require.Len(t, page.Footer, 1)
	assert.InDelta(t, 22, page.HeaderHeight, 1e-9)
	assert.InDelta(t, 10, page.FooterHeight, 1e-9)
	assert.InDelta(t, 0, page.Footer[0].Frame.Y, 1e-9)

	intent, ok := page.Block("intent")
	require.True(t, ok)
	assert.InDelta(t, 6, intent.Frame.Y, 1e-9, "body coordinates are shifted below the header band")

	totals, ok := page.Block("totals")
	require.True(t, ok)
	assert.True(t, totals.NoSplit)
	text := totals.Content.TextContent()
	assert.Contains(t, text, "200.00 CHF")
	assert.Contains(t, text, "- 20.00 CHF")
	assert.Contains(t, text, "730.00 CHF")
	assert.Contains(t, text, "TVA 8.10 %")
}

func TestCompose_EmptyTableDropsAttachedTitle(t *testing.T) {
	engine := NewEngine(nil)

	t.Run("table hidden by condition", func(t *testing.T) {
		doc, err := engine.Compose(agentsOnlyQuote(), sampleSettings(), DefaultLayout(entity.VariantTechnique))
		require.NoError(t, err)

		page := doc.Pages[len(doc.Pages)-1]
		_, ok := page.Block("tech-table")
		assert.False(t, ok)
		_, ok = page.Block("tech-title")
		assert.False(t, ok)

		html, err := doc.HTML()
		require.NoError(t, err)
		assert.NotContains(t, html, "MATÉRIEL TECHNIQUE")
	})

	t.Run("table with an empty dataset", func(t *testing.T) {
		layout := mmLayout(
			entity.LayoutBlock{ID: "title", Type: entity.BlockText, Content: "■ MATÉRIEL TECHNIQUE", AttachedTo: "tech", ZIndex: 1, Width: 100, Height: 5},
			entity.LayoutBlock{ID: "tech", Type: entity.BlockTableTech, ZIndex: 1, Y: 6, Width: 190, Height: 40},
			entity.LayoutBlock{ID: "note", Type: entity.BlockText, Content: "Conditions", ZIndex: 2, Y: 50, Width: 190, Height: 5},
		)

		doc, err := engine.Compose(agentsOnlyQuote(), sampleSettings(), layout)
		require.NoError(t, err)
		require.Len(t, doc.Pages, 1)
		assert.Equal(t, []string{"note"}, bodyIDs(doc.Pages[0]))
	})
}

func TestRenderBlock_EmptyTableRendersNothing(t *testing.T) {
	engine := NewEngine(nil)
	ctx := newTestContext(t, agentsOnlyQuote(), sampleSettings())
	page, err := ResolvePage(mmLayout())
	require.NoError(t, err)

	cfg := DefaultTableConfig(entity.BlockTableTech)
	block := entity.LayoutBlock{ID: "tech", Type: entity.BlockTableTech, TableConfig: &cfg, Width: 100}

	rendered := engine.RenderBlock(block, ctx, page)
	assert.True(t, rendered.Empty())
}

func TestRenderBlock_VisibilityAndTypes(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	engine := NewEngine(zap.New(core))
	ctx := newTestContext(t, sampleQuote(), sampleSettings()).WithPage(PageInfo{Number: 1, Total: 1})
	page, err := ResolvePage(mmLayout())
	require.NoError(t, err)

	tests := []struct {
		name      string
		block     entity.LayoutBlock
		wantEmpty bool
		wantText  string
	}{
		{
			name:      "hidden flag",
			block:     entity.LayoutBlock{Type: entity.BlockText, Content: "x", Visible: boolPtr(false)},
			wantEmpty: true,
		},
		{
			name:      "condition not met",
			block:     entity.LayoutBlock{Type: entity.BlockText, Content: "x", VisibleIf: "hasSignature"},
			wantEmpty: true,
		},
		{
			name:     "unknown condition fails open",
			block:    entity.LayoutBlock{Type: entity.BlockText, Content: "shown", VisibleIf: "hasTechs"},
			wantText: "shown",
		},
		{
			name:     "text with bindings",
			block:    entity.LayoutBlock{Type: entity.BlockText, Content: "Offre {{quote.ref}} {{quote.nope}}"},
			wantText: "Offre Q-2026-001 {{quote.nope}}",
		},
		{
			name:      "text that resolves to nothing",
			block:     entity.LayoutBlock{Type: entity.BlockText, Content: "{{client.email}}"},
			wantEmpty: true,
		},
		{
			name:     "client block",
			block:    entity.LayoutBlock{Type: entity.BlockIntent},
			wantText: "À l'attention deBanque Exemple SAJean DupontGenève",
		},
		{
			name:     "client block binding override and extra field",
			block:    entity.LayoutBlock{Type: entity.BlockIntent, Bindings: map[string]string{"title": "Client", "ref": "Réf. {{quote.ref}}"}},
			wantText: "ClientBanque Exemple SAJean DupontGenèveRéf. Q-2026-001",
		},
		{
			name:      "description without text",
			block:     entity.LayoutBlock{Type: entity.BlockDescription},
			wantEmpty: true,
		},
		{
			name:      "image with unsafe source",
			block:     entity.LayoutBlock{Type: entity.BlockImage, Content: "javascript:alert(1)"},
			wantEmpty: true,
		},
		{
			name:      "image with unresolved source",
			block:     entity.LayoutBlock{Type: entity.BlockImage, Bindings: map[string]string{"src": "{{quote.logo}}"}},
			wantEmpty: true,
		},
		{
			name:      "unknown type",
			block:     entity.LayoutBlock{ID: "chart-1", Type: "chart"},
			wantEmpty: true,
		},
		{
			name:     "unknown type with literal content",
			block:    entity.LayoutBlock{ID: "chart-2", Type: "chart", Content: "Literal {{quote.ref}}"},
			wantText: "Literal Q-2026-001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered := engine.RenderBlock(tt.block, ctx, page)
			if tt.wantEmpty {
				assert.True(t, rendered.Empty())
				return
			}
			require.False(t, rendered.Empty())
			assert.Equal(t, tt.wantText, rendered.Content.TextContent())
		})
	}

	assert.Equal(t, 2, logs.FilterField(zap.String("type", "chart")).Len())
	assert.Equal(t, 1, logs.FilterField(zap.String("condition", "hasTechs")).Len())
}

func TestRenderBlock_Image(t *testing.T) {
	engine := NewEngine(nil)
	ctx := newTestContext(t, sampleQuote(), sampleSettings())
	page, err := ResolvePage(mmLayout())
	require.NoError(t, err)

	rendered := engine.RenderBlock(entity.LayoutBlock{
		Type:     entity.BlockImage,
		Content:  "https://cdn.example.ch/logo.png",
		Bindings: map[string]string{"alt": "{{seller.company}}"},
	}, ctx, page)

	require.False(t, rendered.Empty())
	assert.Equal(t, "img", rendered.Content.Tag)
	assert.Equal(t, []Attr{{Key: "src", Val: "https://cdn.example.ch/logo.png"}, {Key: "alt", Val: "Securitas Léman SA"}}, rendered.Content.Attrs)
}

func TestCompose_ZIndexOrder(t *testing.T) {
	layout := mmLayout(
		entity.LayoutBlock{ID: "front", Type: entity.BlockText, Content: "front", ZIndex: 5},
		entity.LayoutBlock{ID: "back", Type: entity.BlockText, Content: "back", ZIndex: 1},
		entity.LayoutBlock{ID: "middle-a", Type: entity.BlockText, Content: "a", ZIndex: 3},
		entity.LayoutBlock{ID: "hidden", Type: entity.BlockText, Content: "hidden", ZIndex: 4, Visible: boolPtr(false)},
		entity.LayoutBlock{ID: "middle-b", Type: entity.BlockText, Content: "b", ZIndex: 3},
	)

	doc, err := NewEngine(nil).Compose(sampleQuote(), sampleSettings(), layout)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, []string{"back", "middle-a", "middle-b", "front"}, bodyIDs(doc.Pages[0]))
}

func TestCompose_LogicalPages(t *testing.T) {
	settings := sampleSettings()
	settings.LetterTemplate = entity.LetterTemplate{
		Enabled:  true,
		Title:    "Offre de services",
		Greeting: "Madame, Monsieur,",
		Body:     "Nous avons le plaisir de vous soumettre notre offre.\n\nMeilleures salutations.",
	}
	quote := sampleQuote()
	quote.AgentDescription = "Surveillance du site de 08:00 à 18:00."

	doc, err := NewEngine(nil).Compose(quote, settings, DefaultLayout(entity.VariantMixte))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)

	sections := []entity.Section{entity.SectionCover, entity.SectionDescription, entity.SectionContent}
	for i, p := range doc.Pages {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, sections[i], p.Section)
		require.Len(t, p.Header, 1, "header repeats on every logical page")
		require.Len(t, p.Footer, 1)
		assert.Contains(t, p.Footer[0].Content.TextContent(), fmt.Sprintf("%d / 3", i+1))
	}

	letter, ok := doc.Pages[0].Block("letter")
	require.True(t, ok)
	assert.Len(t, letter.Content.FindAll("p"), 2)

	_, ok = doc.Pages[2].Block("agent-table")
	assert.True(t, ok)
	_, ok = doc.Pages[2].Block("signatures")
	assert.True(t, ok)
}

func TestCompose_PageBreakAndPageConditions(t *testing.T) {
	layout := mmLayout(
		entity.LayoutBlock{ID: "header", Type: entity.BlockHeader, VisibleIf: "isFirstPage", Width: 190, Height: 20},
		entity.LayoutBlock{ID: "a", Type: entity.BlockText, Content: "first", ZIndex: 1, Y: 30},
		entity.LayoutBlock{ID: "break", Type: entity.BlockPageBreak, ZIndex: 2},
		entity.LayoutBlock{ID: "b", Type: entity.BlockText, Content: "second", ZIndex: 3, Y: 30},
		entity.LayoutBlock{ID: "last", Type: entity.BlockText, Content: "end", ZIndex: 4, VisibleIf: "isLastPage"},
	)

	doc, err := NewEngine(nil).Compose(sampleQuote(), sampleSettings(), layout)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)

	assert.Len(t, doc.Pages[0].Header, 1)
	assert.Empty(t, doc.Pages[1].Header)
	assert.Equal(t, []string{"a"}, bodyIDs(doc.Pages[0]))
	assert.Equal(t, []string{"b", "last"}, bodyIDs(doc.Pages[1]))
}

func TestCompose_PageEmptiedByPageConditionIsDropped(t *testing.T) {
	layout := mmLayout(
		entity.LayoutBlock{ID: "a", Type: entity.BlockText, Content: "first", ZIndex: 1},
		entity.LayoutBlock{ID: "break", Type: entity.BlockPageBreak, ZIndex: 2},
		entity.LayoutBlock{ID: "cover-only", Type: entity.BlockText, Content: "only on page one", ZIndex: 3, VisibleIf: "isFirstPage"},
		entity.LayoutBlock{ID: "footer", Type: entity.BlockFooter, Y: 270, Width: 190, Height: 7},
	)

	doc, err := NewEngine(nil).Compose(sampleQuote(), sampleSettings(), layout)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Equal(t, []string{"a"}, bodyIDs(doc.Pages[0]))
	require.Len(t, doc.Pages[0].Footer, 1)
	assert.Contains(t, doc.Pages[0].Footer[0].Content.TextContent(), "1 / 1")
}

func TestCompose_PercentBodyWithBands(t *testing.T) {
	layout := mmLayout(
		entity.LayoutBlock{ID: "header", Type: entity.BlockHeader, Width: 100, Height: 10},
		entity.LayoutBlock{ID: "note", Type: entity.BlockText, Content: "Note", ZIndex: 1, Y: 50, Width: 100, Height: 10},
		entity.LayoutBlock{ID: "footer", Type: entity.BlockFooter, Y: 90, Width: 100, Height: 10},
	)
	layout.Page.Unit = entity.UnitPercent

	doc, err := NewEngine(nil).Compose(sampleQuote(), sampleSettings(), layout)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)

	page := doc.Pages[0]
	assert.InDelta(t, 27.7, page.HeaderHeight, 1e-9)
	assert.InDelta(t, 27.7, page.FooterHeight, 1e-9)

	// 138.5 mm into the content area is 110.8 mm into a 221.6 mm body.
	note, ok := page.Block("note")
	require.True(t, ok)
	assert.Equal(t, entity.UnitPercent, note.Frame.Unit)
	assert.InDelta(t, 50, note.Frame.Y, 1e-9)
	assert.InDelta(t, 12.5, note.Frame.Height, 1e-9)

	bodyHeight := 277 - page.HeaderHeight - page.FooterHeight
	assert.InDelta(t, 138.5-page.HeaderHeight, note.Frame.Y*bodyHeight/100, 1e-9)
}

func TestCompose_EmptyLayoutStillHasOnePage(t *testing.T) {
	doc, err := NewEngine(nil).Compose(entity.Quote{}, sampleSettings(), mmLayout())
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Empty(t, doc.Pages[0].Body)
}

func TestCompose_InvalidLayout(t *testing.T) {
	layout := DefaultLayout(entity.VariantAgent)
	layout.Page = nil

	_, err := NewEngine(nil).Compose(sampleQuote(), sampleSettings(), layout)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidLayout))

	_, err = NewEngine(nil).RenderHTML(sampleQuote(), sampleSettings(), layout)
	assert.True(t, errors.Is(err, ErrInvalidLayout))
}

func TestCompose_VisibilityRulesFromLayout(t *testing.T) {
	layout := mmLayout(
		entity.LayoutBlock{ID: "agents-note", Type: entity.BlockText, Content: "agents"},
		entity.LayoutBlock{ID: "always", Type: entity.BlockText, Content: "always"},
	)
	layout.VisibilityRules = map[string]string{"agents-note": "hasAgents"}

	quote := sampleQuote()
	quote.Items = quote.Items[:2]
	doc, err := NewEngine(nil).Compose(quote, sampleSettings(), layout)
	require.NoError(t, err)
	assert.Equal(t, []string{"always"}, bodyIDs(doc.Pages[0]))
}
