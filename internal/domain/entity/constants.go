package entity

// ItemKind discriminates quote lines.
type ItemKind string

// Item kinds
const (
	ItemKindTech  ItemKind = "TECH"  // technical equipment or service
	ItemKindAgent ItemKind = "AGENT" // security-agent vacation
)

// TechMode is the billing rhythm of a technical line.
type TechMode string

// Technical billing modes
const (
	TechModeUnique  TechMode = "unique"  // one-off
	TechModeMensuel TechMode = "mensuel" // recurring, monthly
)

// PriceMode tells which side of the VAT a unit price was entered on.
type PriceMode string

// Price entry modes
const (
	PriceModeHT  PriceMode = "HT"
	PriceModeTTC PriceMode = "TTC"
)

// DiscountMode selects where discounts are applied.
type DiscountMode string

// Discount modes
const (
	DiscountModePerLine DiscountMode = "per_line"
	DiscountModeGlobal  DiscountMode = "global"
)

// Variant selects the layout template and the item categories shown.
type Variant string

// Quote variants
const (
	VariantTechnique Variant = "technique"
	VariantAgent     Variant = "agent"
	VariantMixte     Variant = "mixte"
)

// AllVariants lists the supported variants in display order.
var AllVariants = []Variant{VariantTechnique, VariantAgent, VariantMixte}

// IsValid reports whether v is one of the supported variants.
func (v Variant) IsValid() bool {
	switch v {
	case VariantTechnique, VariantAgent, VariantMixte:
		return true
	}
	return false
}

// Generated document kinds
const (
	DocumentKindPDF  = "pdf"
	DocumentKindDOCX = "docx"
)
