package entity

// Settings is the process-wide configuration read by pricing and rendering.
type Settings struct {
	TVAPct           float64   `json:"tvaPct" validate:"gte=0,lte=100"`
	DefaultPriceMode PriceMode `json:"priceInputModeDefault" validate:"omitempty,oneof=HT TTC"`
	Currency         string    `json:"currency"`

	AgentRates AgentRates `json:"agentRates"`

	// CantonHolidays maps a canton code (GE, VD, ...) to holiday dates,
	// written either DD/MM (every year) or YYYY-MM-DD.
	CantonHolidays map[string][]string `json:"cantonHolidays"`

	Seller         SellerInfo     `json:"seller"`
	LetterTemplate LetterTemplate `json:"letterTemplate"`
	Colors         ColorTheme     `json:"colors"`
	LogoURL        string         `json:"logoUrl"`

	// ActiveLayouts maps a variant to the id of the selected layout.
	ActiveLayouts map[Variant]string `json:"activeLayouts,omitempty"`
}

// AgentRates holds the vacation markups and the time windows they apply to.
type AgentRates struct {
	NightMarkupPct   float64 `json:"nightMarkupPct" validate:"gte=0"`
	SundayMarkupPct  float64 `json:"sundayMarkupPct" validate:"gte=0"`
	HolidayMarkupPct float64 `json:"holidayMarkupPct" validate:"gte=0"`

	NightStartTime  string `json:"nightStartTime" validate:"omitempty,clock"`  // HH:MM, may wrap midnight
	NightEndTime    string `json:"nightEndTime" validate:"omitempty,clock"`    // HH:MM
	SundayStartTime string `json:"sundayStartTime" validate:"omitempty,clock"` // HH:MM, equal start and end means the whole day
	SundayEndTime   string `json:"sundayEndTime" validate:"omitempty,clock"`   // HH:MM
}

// SellerInfo identifies the issuing company.
type SellerInfo struct {
	Company    string `json:"company"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	VATNumber  string `json:"vatNumber"`
	Website    string `json:"website"`
}

// LetterTemplate is the cover letter printed on the presentation page.
type LetterTemplate struct {
	Enabled  bool   `json:"enabled"`
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	Greeting string `json:"greeting"`
	Body     string `json:"body"`
	Closing  string `json:"closing"`
}

// ColorTheme holds the document palette as CSS hex colors.
type ColorTheme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
	Text      string `json:"text"`
}

// DefaultSettings returns the settings used before anything has been saved.
func DefaultSettings() Settings {
	return Settings{
		TVAPct:           8.1,
		DefaultPriceMode: PriceModeHT,
		Currency:         "CHF",
		AgentRates: AgentRates{
			NightMarkupPct:   25,
			SundayMarkupPct:  50,
			HolidayMarkupPct: 100,
			NightStartTime:   "22:00",
			NightEndTime:     "06:00",
			SundayStartTime:  "00:00",
			SundayEndTime:    "00:00",
		},
		CantonHolidays: map[string][]string{
			"GE": {"01/01", "01/08", "31/12"},
			"VD": {"01/01", "02/01", "01/08"},
		},
		Colors: ColorTheme{
			Primary:   "#1e3a5f",
			Secondary: "#f3f4f6",
			Accent:    "#c8102e",
			Text:      "#1f2937",
		},
		ActiveLayouts: map[Variant]string{},
	}
}

// CurrencyOrDefault returns the configured currency symbol, CHF when unset.
func (s Settings) CurrencyOrDefault() string {
	if s.Currency == "" {
		return "CHF"
	}
	return s.Currency
}
