package pricing

import "github.com/garyjia/secu-devis/internal/domain/entity"

// Aggregate computes category and global totals from calculated items.
//
// Technical subtotals are gross (before line discounts); in per_line mode the
// category discount is the sum of line discounts, so htAfterDiscount equals the
// sum of net line amounts. In global mode the discount base is the combined
// technical subtotal, split between one-off and monthly in proportion to their
// share. Agent lines are never discounted.
func Aggregate(items []entity.QuoteItem, mode entity.DiscountMode, discountPct, tvaPct float64) entity.QuoteTotals {
	if mode == "" {
		mode = entity.DiscountModePerLine
	}
	t := entity.QuoteTotals{
		DiscountMode: mode,
		DiscountPct:  discountPct,
		TVAPct:       tvaPct,
	}

	for _, item := range items {
		switch {
		case item.Kind == entity.ItemKindAgent:
			t.Agents.Count++
			t.Agents.SubtotalHT += item.LineHT
		case item.EffectiveMode() == entity.TechModeMensuel:
			t.Mensuel.Count++
			t.Mensuel.SubtotalHT += item.TotalHTBrut
			t.Mensuel.DiscountHT += item.DiscountHT
		default:
			t.Unique.Count++
			t.Unique.SubtotalHT += item.TotalHTBrut
			t.Unique.DiscountHT += item.DiscountHT
		}
	}

	if mode == entity.DiscountModeGlobal {
		uniqueShare, mensuelShare := AllocateGlobalDiscount(t.Unique.SubtotalHT, t.Mensuel.SubtotalHT, discountPct)
		t.GlobalDiscountHT = uniqueShare + mensuelShare
		t.Unique.DiscountHT = uniqueShare
		t.Mensuel.DiscountHT = mensuelShare
	}
	t.Agents.DiscountHT = 0

	finishCategory(&t.Unique, tvaPct)
	finishCategory(&t.Mensuel, tvaPct)
	finishCategory(&t.Agents, tvaPct)

	t.Global = entity.CategoryTotals{
		Count:      t.Unique.Count + t.Mensuel.Count + t.Agents.Count,
		SubtotalHT: t.Unique.SubtotalHT + t.Mensuel.SubtotalHT + t.Agents.SubtotalHT,
		DiscountHT: t.Unique.DiscountHT + t.Mensuel.DiscountHT,
		HTAfterDiscount: t.Unique.HTAfterDiscount + t.Mensuel.HTAfterDiscount +
			t.Agents.SubtotalHT,
		TVA: t.Unique.TVA + t.Mensuel.TVA + t.Agents.TVA,
	}
	t.Global.TotalTTC = t.Global.HTAfterDiscount + t.Global.TVA
	return t
}

// AllocateGlobalDiscount computes the global discount on the combined technical
// subtotal and splits it by each category's share. A zero base allocates nothing.
func AllocateGlobalDiscount(uniqueHT, mensuelHT, discountPct float64) (uniqueShare, mensuelShare float64) {
	base := uniqueHT + mensuelHT
	if base == 0 {
		return 0, 0
	}
	discount := base * discountPct / 100
	uniqueShare = discount * (uniqueHT / base)
	mensuelShare = discount - uniqueShare
	return uniqueShare, mensuelShare
}

func finishCategory(c *entity.CategoryTotals, tvaPct float64) {
	c.HTAfterDiscount = c.SubtotalHT - c.DiscountHT
	c.TVA = c.HTAfterDiscount * tvaPct / 100
	c.TotalTTC = c.HTAfterDiscount + c.TVA
}

// PricedQuote is a quote whose items carry computed amounts, with its totals.
type PricedQuote struct {
	Quote  entity.Quote
	Totals entity.QuoteTotals
}

// PriceQuote prices every item and aggregates the totals. The input quote is
// not modified.
func PriceQuote(quote entity.Quote, settings entity.Settings) PricedQuote {
	priced := quote
	priced.Items = CalculateItems(quote, settings)
	return PricedQuote{
		Quote:  priced,
		Totals: Aggregate(priced.Items, quote.DiscountMode, quote.DiscountPct, settings.TVAPct),
	}
}
