package pricing

import "github.com/garyjia/secu-devis/internal/domain/entity"

// CalculateItem computes the monetary fields of one line. Agent lines are routed
// whole to the vacation pipeline; the HT/TTC unit-price formula only ever sees
// technical lines. Global discounts are applied at aggregate level, never here.
func CalculateItem(item entity.QuoteItem, settings entity.Settings, isPerLineDiscount bool) entity.QuoteItem {
	if item.Kind == entity.ItemKindAgent {
		return CalculateAgentItem(item, settings)
	}
	return calculateTechItem(item, settings, isPerLineDiscount)
}

func calculateTechItem(item entity.QuoteItem, settings entity.Settings, isPerLineDiscount bool) entity.QuoteItem {
	out := item
	if out.Kind == "" {
		out.Kind = entity.ItemKindTech
	}

	qty := item.Qty
	if qty == 0 {
		qty = 1
	}
	vat := 1 + settings.TVAPct/100

	mode := item.UnitPriceMode
	if mode == "" {
		mode = settings.DefaultPriceMode
	}
	if mode == entity.PriceModeTTC {
		out.PuTTC = item.UnitPriceValue
		out.PuHT = item.UnitPriceValue / vat
	} else {
		out.PuHT = item.UnitPriceValue
		out.PuTTC = item.UnitPriceValue * vat
	}

	out.TotalHTBrut = out.PuHT * qty
	out.DiscountHT = 0
	if isPerLineDiscount {
		out.DiscountHT = out.TotalHTBrut * item.LineDiscountPct / 100
	}
	out.TotalHTNet = out.TotalHTBrut - out.DiscountHT
	out.TotalTTC = out.TotalHTNet * vat
	return out
}

// CalculateItems prices every line of a quote, preserving order.
func CalculateItems(quote entity.Quote, settings entity.Settings) []entity.QuoteItem {
	perLine := quote.IsPerLineDiscount()
	items := make([]entity.QuoteItem, len(quote.Items))
	for i, item := range quote.Items {
		items[i] = CalculateItem(item, settings, perLine)
	}
	return items
}
