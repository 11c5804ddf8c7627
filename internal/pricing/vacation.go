package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/secu-devis/internal/domain/entity"
)

// VacationPrice is the priced breakdown of one agent line.
type VacationPrice struct {
	NormalCost  float64 `json:"normalCost"`
	NightCost   float64 `json:"nightCost"`
	SundayCost  float64 `json:"sundayCost"`
	HolidayCost float64 `json:"holidayCost"`
	TravelCHF   float64 `json:"travelCHF"`
	TotalHT     float64 `json:"totalHT"`
	TVA         float64 `json:"tva"`
	TotalTTC    float64 `json:"totalTTC"`
}

// PriceVacation prices hour buckets at the base rate plus the markup of each
// bucket; the travel fee is a flat HT amount. Markups and VAT are read from
// settings on every call.
func PriceVacation(h entity.AgentHours, baseRate, travelCHF float64, settings entity.Settings) VacationPrice {
	rates := settings.AgentRates
	p := VacationPrice{
		NormalCost:  h.Normal * baseRate,
		NightCost:   h.Night * baseRate * markup(rates.NightMarkupPct),
		SundayCost:  h.Sunday * baseRate * markup(rates.SundayMarkupPct),
		HolidayCost: h.Holiday * baseRate * markup(rates.HolidayMarkupPct),
		TravelCHF:   travelCHF,
	}
	p.TotalHT = p.NormalCost + p.NightCost + p.SundayCost + p.HolidayCost + p.TravelCHF
	p.TVA = p.TotalHT * (settings.TVAPct / 100)
	p.TotalTTC = p.TotalHT + p.TVA
	return p
}

func markup(pct float64) float64 {
	return 1 + pct/100
}

// VacationSpan resolves the start and end instants of an agent line. When no end
// date is given and the end time is not after the start time, the vacation is
// taken to finish the next day.
func VacationSpan(item entity.QuoteItem) (time.Time, time.Time, error) {
	start, err := ParseDateTime(item.DateStart, item.TimeStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start of vacation: %w", err)
	}

	endDate := item.DateEnd
	if strings.TrimSpace(endDate) == "" {
		endDate = item.DateStart
	}
	end, err := ParseDateTime(endDate, item.TimeEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end of vacation: %w", err)
	}

	if strings.TrimSpace(item.DateEnd) == "" && !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		return start, end, ErrInvalidSpan
	}
	return start, end, nil
}

// CalculateAgentItem runs bucketing, pause deduction and pricing for an agent
// line. A line with an unusable span is returned with zero hours and amounts and
// SpanInvalid set, so the rest of the quote still prices.
func CalculateAgentItem(item entity.QuoteItem, settings entity.Settings) entity.QuoteItem {
	out := item
	out.PuHT, out.PuTTC, out.TotalHTBrut, out.DiscountHT, out.TotalHTNet, out.TotalTTC = 0, 0, 0, 0, 0, 0

	start, end, err := VacationSpan(item)
	if err != nil {
		out.SpanInvalid = true
		setHours(&out, entity.AgentHours{})
		out.LineHT, out.LineTVA, out.LineTTC = 0, 0, 0
		return out
	}
	out.SpanInvalid = false

	hours := BucketHours(start, end, RulesFor(settings, item.Canton))
	hours = DeductPause(hours, item.PauseMinutes, item.PausePaid)
	setHours(&out, hours)

	price := PriceVacation(hours, item.RateCHFh, item.TravelCHF, settings)
	out.LineHT = price.TotalHT
	out.LineTVA = price.TVA
	out.LineTTC = price.TotalTTC
	return out
}

func setHours(item *entity.QuoteItem, h entity.AgentHours) {
	item.HoursNormal = h.Normal
	item.HoursNight = h.Night
	item.HoursSunday = h.Sunday
	item.HoursHoliday = h.Holiday
	item.HoursTotal = h.Total
}
