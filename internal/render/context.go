package render

import (
	"encoding/json"
	"strings"

	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/pricing"
)

// Facts are the quote-level booleans behind the visibility conditions.
// They are computed once per render.
type Facts struct {
	HasTech        bool
	HasAgents      bool
	HasUnique      bool
	HasMensuel     bool
	HasDiscount    bool
	HasSignature   bool
	HasDescription bool
	HasLetter      bool
}

// PageInfo locates the logical page being rendered.
type PageInfo struct {
	Number  int
	Total   int
	Section entity.Section
}

// IsFirst reports whether this is the first logical page.
func (p PageInfo) IsFirst() bool { return p.Number == 1 }

// IsLast reports whether this is the last logical page.
func (p PageInfo) IsLast() bool { return p.Total > 0 && p.Number == p.Total }

// Context is the data a layout is rendered against. Data holds the binding
// namespaces (quote, client, totals, settings, seller, items, letter,
// signature, page, ...) as plain JSON-shaped values.
type Context struct {
	Data     map[string]any
	Facts    Facts
	Totals   entity.QuoteTotals
	Page     PageInfo
	Currency string
}

// NewContext resolves the render data once from an already priced quote.
func NewContext(priced pricing.PricedQuote, settings entity.Settings, dateLayout string) (Context, error) {
	quote := priced.Quote
	totals := priced.Totals

	quoteData, err := toJSONMap(quote)
	if err != nil {
		return Context{}, err
	}
	quoteData["dateFormatted"] = formatDateString(quote.Date, dateLayout)
	quoteData["variant"] = string(quote.EffectiveVariant())

	totalsData, err := toJSONMap(totals)
	if err != nil {
		return Context{}, err
	}
	settingsData, err := toJSONMap(settings)
	if err != nil {
		return Context{}, err
	}
	sellerData, err := toJSONMap(settings.Seller)
	if err != nil {
		return Context{}, err
	}
	letterData, err := toJSONMap(settings.LetterTemplate)
	if err != nil {
		return Context{}, err
	}
	signatureData := map[string]any{}
	if quote.Signature != nil {
		if signatureData, err = toJSONMap(quote.Signature); err != nil {
			return Context{}, err
		}
	}

	var tech, agent, unique, mensuel, all []any
	for _, item := range quote.Items {
		row, err := toJSONMap(item)
		if err != nil {
			return Context{}, err
		}
		all = append(all, row)
		if item.Kind == entity.ItemKindAgent {
			agent = append(agent, row)
			continue
		}
		tech = append(tech, row)
		if item.EffectiveMode() == entity.TechModeMensuel {
			mensuel = append(mensuel, row)
		} else {
			unique = append(unique, row)
		}
	}

	data := map[string]any{
		"quote": quoteData,
		"client": map[string]any{
			"company":     quote.ClientCompany,
			"name":        quote.ClientName,
			"address":     quote.ClientAddress,
			"postalCode":  quote.ClientPostalCode,
			"city":        quote.ClientCity,
			"locality":    joinNonEmpty(" ", quote.ClientPostalCode, quote.ClientCity),
			"email":       quote.ClientEmail,
			"phone":       quote.ClientPhone,
			"displayName": firstNonEmpty(quote.ClientCompany, quote.ClientName),
		},
		"totals":   totalsData,
		"settings": settingsData,
		"seller":   sellerData,
		"items": map[string]any{
			"tech":    orEmpty(tech),
			"agent":   orEmpty(agent),
			"unique":  orEmpty(unique),
			"mensuel": orEmpty(mensuel),
			"all":     orEmpty(all),
		},
		"letter":      letterData,
		"signature":   signatureData,
		"description": quote.AgentDescription,
		"currency":    settings.CurrencyOrDefault(),
	}

	ctx := Context{
		Data: data,
		Facts: Facts{
			HasTech:        quote.HasKind(entity.ItemKindTech),
			HasAgents:      quote.HasKind(entity.ItemKindAgent),
			HasUnique:      quote.HasMode(entity.TechModeUnique),
			HasMensuel:     quote.HasMode(entity.TechModeMensuel),
			HasDiscount:    totals.Unique.DiscountHT+totals.Mensuel.DiscountHT > 0,
			HasSignature:   quote.Signature != nil && quote.Signature.ImageURL != "",
			HasDescription: strings.TrimSpace(quote.AgentDescription) != "",
			HasLetter:      settings.LetterTemplate.Enabled,
		},
		Totals:   totals,
		Currency: settings.CurrencyOrDefault(),
	}
	return ctx.WithPage(PageInfo{}), nil
}

// WithPage returns a copy of the context bound to a logical page. The other
// namespaces are shared, not copied.
func (c Context) WithPage(page PageInfo) Context {
	data := make(map[string]any, len(c.Data))
	for k, v := range c.Data {
		data[k] = v
	}
	data["page"] = map[string]any{
		"number":  page.Number,
		"total":   page.Total,
		"section": string(page.Section),
		"isFirst": page.IsFirst(),
		"isLast":  page.IsLast(),
	}
	c.Data = data
	c.Page = page
	return c
}

// Dataset returns the rows selected by a dotted path such as items.tech.
// Anything that is not a list of objects yields no rows.
func (c Context) Dataset(path string) []map[string]any {
	v, ok := Lookup(c.Data, path)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if row, ok := item.(map[string]any); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func toJSONMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func orEmpty(rows []any) []any {
	if rows == nil {
		return []any{}
	}
	return rows
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// formatDateString rewrites a date for display and leaves anything that is
// not a date untouched.
func formatDateString(s, layout string) string {
	d, err := pricing.ParseDate(s)
	if err != nil {
		return s
	}
	return d.Format(layout)
}
