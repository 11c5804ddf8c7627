package render

import (
	"testing"

	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/pricing"
	"github.com/stretchr/testify/require"
)

func sampleSettings() entity.Settings {
	s := entity.DefaultSettings()
	s.Seller = entity.SellerInfo{
		Company: "Securitas Léman SA",
		Name:    "Claire Martin",
		Email:   "devis@leman-securite.ch",
	}
	return s
}

func sampleQuote() entity.Quote {
	return entity.Quote{
		ID:            "q-1",
		Ref:           "Q-2026-001",
		Date:          "2026-10-14",
		ClientCompany: "Banque Exemple SA",
		ClientName:    "Jean Dupont",
		ClientCity:    "Genève",
		DiscountMode:  entity.DiscountModePerLine,
		Items: []entity.QuoteItem{
			{
				ID: "i-1", Kind: entity.ItemKindTech, Mode: entity.TechModeUnique, Reference: "CAM-01",
				Description: "Caméra dôme", Qty: 2, UnitPriceValue: 100, UnitPriceMode: entity.PriceModeHT,
				LineDiscountPct: 10,
			},
			{
				ID: "i-2", Kind: entity.ItemKindTech, Mode: entity.TechModeMensuel, Reference: "MON-01",
				Description: "Télésurveillance", Qty: 1, UnitPriceValue: 50, UnitPriceMode: entity.PriceModeHT,
			},
			{
				ID: "i-3", Kind: entity.ItemKindAgent, AgentType: "Agent de sécurité",
				DateStart: "2026-10-14", TimeStart: "08:00", TimeEnd: "18:00", RateCHFh: 50, Canton: "GE",
			},
		},
	}
}

func agentsOnlyQuote() entity.Quote {
	q := sampleQuote()
	q.Items = q.Items[2:]
	return q
}

func newTestContext(t *testing.T, quote entity.Quote, settings entity.Settings) Context {
	t.Helper()
	ctx, err := NewContext(pricing.PriceQuote(quote, settings), settings, DefaultDateLayout)
	require.NoError(t, err)
	return ctx
}

func boolPtr(b bool) *bool {
	return &b
}

func mmLayout(blocks ...entity.LayoutBlock) entity.PDFLayoutConfig {
	return entity.PDFLayoutConfig{
		ID:      "test-layout",
		Variant: entity.VariantMixte,
		Version: 1,
		Page: &entity.PageGeometry{
			Format:  "A4",
			Unit:    entity.UnitMillimeter,
			Margins: entity.Margins{Top: 10, Right: 10, Bottom: 10, Left: 10},
		},
		Blocks: blocks,
	}
}
