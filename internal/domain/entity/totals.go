package entity

// CategoryTotals is the subtotal cartouche of one item category.
type CategoryTotals struct {
	Count           int     `json:"count"`
	SubtotalHT      float64 `json:"subtotalHT"`
	DiscountHT      float64 `json:"discountHT"`
	HTAfterDiscount float64 `json:"htAfterDiscount"`
	TVA             float64 `json:"tva"`
	TotalTTC        float64 `json:"totalTTC"`
}

// QuoteTotals is derived from a Quote and Settings on every render and never persisted.
type QuoteTotals struct {
	Unique  CategoryTotals `json:"unique"`
	Mensuel CategoryTotals `json:"mensuel"`
	Agents  CategoryTotals `json:"agents"`
	Global  CategoryTotals `json:"global"`

	DiscountMode     DiscountMode `json:"discountMode"`
	DiscountPct      float64      `json:"discountPct"`
	GlobalDiscountHT float64      `json:"globalDiscountHT"`
	TVAPct           float64      `json:"tvaPct"`
}
