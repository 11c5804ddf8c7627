package entity

import "time"

// Quote is the aggregate root of a client offer: identity, discount policy and
// an ordered list of line items. The renderer treats it as read-only.
type Quote struct {
	ID      string  `json:"id"`
	Ref     string  `json:"ref"`
	Date    string  `json:"date" validate:"omitempty,quotedate"` // YYYY-MM-DD, DD.MM.YYYY or DD/MM/YYYY
	Variant Variant `json:"variant,omitempty" validate:"omitempty,oneof=technique agent mixte"`

	// Client identity
	ClientCompany    string `json:"clientCompany"`
	ClientName       string `json:"clientName"`
	ClientAddress    string `json:"clientAddress"`
	ClientPostalCode string `json:"clientPostalCode"`
	ClientCity       string `json:"clientCity"`
	ClientEmail      string `json:"clientEmail" validate:"omitempty,email"`
	ClientPhone      string `json:"clientPhone"`

	DiscountMode DiscountMode `json:"discountMode" validate:"omitempty,oneof=per_line global"`
	DiscountPct  float64      `json:"discountPct" validate:"gte=0,lte=100"`

	Items []QuoteItem `json:"items" validate:"dive"`

	// AgentDescription is the optional prestation description printed on its own page.
	AgentDescription string `json:"agentDescription"`

	Signature *ClientSignature `json:"signature,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// ClientSignature is the client's acceptance mark.
type ClientSignature struct {
	ImageURL string `json:"imageUrl"` // URL or data URI
	Date     string `json:"date"`
	Location string `json:"location"`
	Name     string `json:"name"`
}

// HasKind reports whether at least one item of the given kind is present.
func (q *Quote) HasKind(kind ItemKind) bool {
	for _, item := range q.Items {
		if item.Kind == kind {
			return true
		}
	}
	return false
}

// HasMode reports whether at least one technical item uses the given billing mode.
func (q *Quote) HasMode(mode TechMode) bool {
	for _, item := range q.Items {
		if item.Kind == ItemKindTech && item.EffectiveMode() == mode {
			return true
		}
	}
	return false
}

// IsPerLineDiscount reports whether discounts are applied on each technical line.
func (q *Quote) IsPerLineDiscount() bool {
	return q.DiscountMode != DiscountModeGlobal
}

// EffectiveVariant returns the pinned variant or derives one from the item kinds.
func (q *Quote) EffectiveVariant() Variant {
	if q.Variant.IsValid() {
		return q.Variant
	}
	hasTech := q.HasKind(ItemKindTech)
	hasAgents := q.HasKind(ItemKindAgent)
	switch {
	case hasTech && hasAgents:
		return VariantMixte
	case hasAgents:
		return VariantAgent
	default:
		return VariantTechnique
	}
}

// QuoteItem is one line of a quote, discriminated by Kind.
// Fields below the "computed" marker are filled by the pricing package.
type QuoteItem struct {
	ID          string   `json:"id"`
	Kind        ItemKind `json:"kind" validate:"omitempty,oneof=TECH AGENT"`
	Reference   string   `json:"reference"`
	Type        string   `json:"type"`
	Description string   `json:"description"`

	// TECH
	Mode            TechMode  `json:"mode" validate:"omitempty,oneof=unique mensuel"`
	Qty             float64   `json:"qty" validate:"gte=0"`
	UnitPriceValue  float64   `json:"unitPriceValue" validate:"gte=0"`
	UnitPriceMode   PriceMode `json:"unitPriceMode" validate:"omitempty,oneof=HT TTC"`
	LineDiscountPct float64   `json:"lineDiscountPct" validate:"gte=0,lte=100"`

	// AGENT
	DateStart    string  `json:"dateStart" validate:"omitempty,quotedate"`
	TimeStart    string  `json:"timeStart" validate:"omitempty,clock"`
	DateEnd      string  `json:"dateEnd" validate:"omitempty,quotedate"`
	TimeEnd      string  `json:"timeEnd" validate:"omitempty,clock"`
	AgentType    string  `json:"agentType"`
	RateCHFh     float64 `json:"rateCHFh" validate:"gte=0"`
	PauseMinutes float64 `json:"pauseMinutes" validate:"gte=0"`
	PausePaid    bool    `json:"pausePaid"`
	TravelCHF    float64 `json:"travelCHF" validate:"gte=0"`
	Canton       string  `json:"canton"`

	// computed (TECH)
	PuHT        float64 `json:"puHT"`
	PuTTC       float64 `json:"puTTC"`
	TotalHTBrut float64 `json:"totalHT_brut"`
	DiscountHT  float64 `json:"discountHT"`
	TotalHTNet  float64 `json:"totalHT_net"`
	TotalTTC    float64 `json:"totalTTC"`

	// computed (AGENT)
	HoursNormal  float64 `json:"hoursNormal"`
	HoursNight   float64 `json:"hoursNight"`
	HoursSunday  float64 `json:"hoursSunday"`
	HoursHoliday float64 `json:"hoursHoliday"`
	HoursTotal   float64 `json:"hoursTotal"`
	LineHT       float64 `json:"lineHT"`
	LineTVA      float64 `json:"lineTVA"`
	LineTTC      float64 `json:"lineTTC"`

	// SpanInvalid flags an agent line whose end is not after its start.
	SpanInvalid bool `json:"spanInvalid,omitempty"`
}

// EffectiveMode defaults technical items without a mode to one-off billing.
func (i QuoteItem) EffectiveMode() TechMode {
	if i.Mode == TechModeMensuel {
		return TechModeMensuel
	}
	return TechModeUnique
}

// Hours returns the computed hour buckets of an agent line.
func (i QuoteItem) Hours() AgentHours {
	return AgentHours{
		Normal:  i.HoursNormal,
		Night:   i.HoursNight,
		Sunday:  i.HoursSunday,
		Holiday: i.HoursHoliday,
		Total:   i.HoursTotal,
	}
}

// AgentHours holds fractional hours per tariff bucket.
// Total always equals Normal+Night+Sunday+Holiday.
type AgentHours struct {
	Normal  float64 `json:"normal"`
	Night   float64 `json:"night"`
	Sunday  float64 `json:"sunday"`
	Holiday float64 `json:"holiday"`
	Total   float64 `json:"total"`
}

// Sum returns the sum of the four buckets.
func (h AgentHours) Sum() float64 {
	return h.Normal + h.Night + h.Sunday + h.Holiday
}
