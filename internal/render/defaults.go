package render

import "github.com/garyjia/secu-devis/internal/domain/entity"

// Dataset paths understood by the table blocks.
const (
	DatasetTech  = "items.tech"
	DatasetAgent = "items.agent"
)

// DefaultTableConfig returns the column set used by a table block that does
// not carry its own configuration.
func DefaultTableConfig(t entity.BlockType) entity.TableConfig {
	if t == entity.BlockTableAgent {
		return entity.TableConfig{
			Dataset:     DatasetAgent,
			StripedRows: true,
			Columns: []entity.TableColumn{
				{ID: "date", Label: "Date", Binding: "dateStart", Format: entity.FormatDate, Visible: true, Order: 0, Width: 14, WidthUnit: "%"},
				{ID: "schedule", Label: "Horaire", Binding: "{{timeStart}} - {{timeEnd}}", Format: entity.FormatTime, Visible: true, Order: 1, Width: 14, WidthUnit: "%"},
				{ID: "agentType", Label: "Agent", Binding: "agentType", Format: entity.FormatText, Visible: true, Order: 2},
				{ID: "hours", Label: "Heures", Binding: "hoursTotal", Format: entity.FormatHours, Visible: true, Order: 3, Width: 10, WidthUnit: "%"},
				{ID: "rate", Label: "Tarif", Binding: "rateCHFh", Format: entity.FormatCurrency, Visible: true, Order: 4, Width: 14, WidthUnit: "%"},
				{ID: "lineHT", Label: "Total HT", Binding: "lineHT", Format: entity.FormatCurrency, Visible: true, Order: 5, Width: 16, WidthUnit: "%"},
				{ID: "lineTTC", Label: "Total TTC", Binding: "lineTTC", Format: entity.FormatCurrency, Visible: false, Order: 6, Width: 16, WidthUnit: "%"},
			},
		}
	}
	return entity.TableConfig{
		Dataset:     DatasetTech,
		StripedRows: true,
		Columns: []entity.TableColumn{
			{ID: "reference", Label: "Réf.", Binding: "reference", Format: entity.FormatText, Visible: true, Order: 0, Width: 12, WidthUnit: "%"},
			{ID: "designation", Label: "Désignation", Binding: "description", Format: entity.FormatText, Visible: true, Order: 1},
			{ID: "mode", Label: "Mode", Binding: "mode", Format: entity.FormatText, Visible: true, Order: 2, Width: 10, WidthUnit: "%"},
			{ID: "qty", Label: "Qté", Binding: "qty", Format: entity.FormatNumber, Visible: true, Order: 3, Width: 8, WidthUnit: "%"},
			{ID: "puHT", Label: "P.U. HT", Binding: "puHT", Format: entity.FormatCurrency, Visible: true, Order: 4, Width: 14, WidthUnit: "%"},
			{ID: "discount", Label: "Remise %", Binding: "lineDiscountPct", Format: entity.FormatNumber, Visible: false, Order: 5, Width: 8, WidthUnit: "%"},
			{ID: "totalHT", Label: "Total HT", Binding: "totalHT_net", Format: entity.FormatCurrency, Visible: true, Order: 6, Width: 16, WidthUnit: "%"},
		},
	}
}

// DefaultLayoutID is the id of the built-in layout of a variant.
func DefaultLayoutID(v entity.Variant) string {
	return "default-" + string(v)
}

// DefaultLayout returns the built-in A4 layout of a variant. It is used when
// no layout has been activated for the variant.
func DefaultLayout(v entity.Variant) entity.PDFLayoutConfig {
	if !v.IsValid() {
		v = entity.VariantTechnique
	}

	blocks := []entity.LayoutBlock{
		{ID: "header", Type: entity.BlockHeader, X: 0, Y: 0, Width: 180, Height: 22, ZIndex: 10,
			Style: &entity.BlockStyle{FontSize: 12, Color: "#1e3a5f"}},
		{ID: "footer", Type: entity.BlockFooter, X: 0, Y: 257, Width: 180, Height: 10, ZIndex: 10,
			Style: &entity.BlockStyle{FontSize: 9, TextAlign: "center", Color: "#6b7280"}},

		{ID: "cover-intent", Type: entity.BlockIntent, Section: entity.SectionCover, X: 100, Y: 28, Width: 80, Height: 32, ZIndex: 1,
			VisibleIf: string(CondHasLetter)},
		{ID: "letter", Type: entity.BlockLetter, Section: entity.SectionCover, X: 0, Y: 70, Width: 180, Height: 160, ZIndex: 1,
			VisibleIf: string(CondHasLetter), Style: &entity.BlockStyle{FontSize: 11, LineHeight: 1.5}},

		{ID: "description", Type: entity.BlockDescription, Section: entity.SectionDescription, X: 0, Y: 28, Width: 180, Height: 200, ZIndex: 1,
			VisibleIf: string(CondHasDescription), Style: &entity.BlockStyle{FontSize: 11, LineHeight: 1.5}},

		{ID: "intent", Type: entity.BlockIntent, X: 100, Y: 28, Width: 80, Height: 32, ZIndex: 1,
			Style: &entity.BlockStyle{FontSize: 11}},
		{ID: "title", Type: entity.BlockText, X: 0, Y: 64, Width: 180, Height: 8, ZIndex: 1,
			Content: "Devis {{quote.ref}} du {{quote.dateFormatted}}",
			Style:   &entity.BlockStyle{FontSize: 16, FontWeight: "bold", Color: "#1e3a5f"}},
	}

	y := 76.0
	if v != entity.VariantAgent {
		cfg := DefaultTableConfig(entity.BlockTableTech)
		blocks = append(blocks,
			entity.LayoutBlock{ID: "tech-title", Type: entity.BlockText, X: 0, Y: y, Width: 180, Height: 6, ZIndex: 2,
				Content: "■ MATÉRIEL TECHNIQUE", AttachedTo: "tech-table",
				Style: &entity.BlockStyle{FontSize: 12, FontWeight: "bold"}},
			entity.LayoutBlock{ID: "tech-table", Type: entity.BlockTableTech, X: 0, Y: y + 7, Width: 180, Height: 50, ZIndex: 2,
				VisibleIf: string(CondHasTech), TableConfig: &cfg, Style: &entity.BlockStyle{FontSize: 10}},
		)
		y += 62
	}
	if v != entity.VariantTechnique {
		cfg := DefaultTableConfig(entity.BlockTableAgent)
		blocks = append(blocks,
			entity.LayoutBlock{ID: "agent-title", Type: entity.BlockText, X: 0, Y: y, Width: 180, Height: 6, ZIndex: 3,
				Content: "■ AGENTS DE SÉCURITÉ", AttachedTo: "agent-table",
				Style: &entity.BlockStyle{FontSize: 12, FontWeight: "bold"}},
			entity.LayoutBlock{ID: "agent-table", Type: entity.BlockTableAgent, X: 0, Y: y + 7, Width: 180, Height: 50, ZIndex: 3,
				VisibleIf: string(CondHasAgents), TableConfig: &cfg, Style: &entity.BlockStyle{FontSize: 10}},
		)
		y += 62
	}

	blocks = append(blocks,
		entity.LayoutBlock{ID: "totals", Type: entity.BlockTotals, X: 100, Y: y, Width: 80, Height: 36, ZIndex: 4,
			Style: &entity.BlockStyle{FontSize: 11, BorderWidth: 1, BorderColor: "#1e3a5f", Padding: 6}},
		entity.LayoutBlock{ID: "signatures", Type: entity.BlockSignatures, X: 0, Y: 238, Width: 180, Height: 16, ZIndex: 4,
			VisibleIf: string(CondIsLastPage), Style: &entity.BlockStyle{FontSize: 10}},
	)

	return entity.PDFLayoutConfig{
		ID:      DefaultLayoutID(v),
		Name:    "Modèle " + string(v),
		Variant: v,
		Version: 1,
		Page: &entity.PageGeometry{
			Format:  "A4",
			Unit:    entity.UnitMillimeter,
			Margins: entity.Margins{Top: 15, Right: 15, Bottom: 15, Left: 15},
		},
		Blocks: blocks,
	}
}
