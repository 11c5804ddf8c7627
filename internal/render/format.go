package render

import (
	"strconv"
	"strings"

	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DefaultDateLayout is the Swiss display format for calendar dates.
const DefaultDateLayout = "02.01.2006"

// Money formats an amount with two decimals followed by the currency symbol.
func Money(amount float64, currency string) string {
	return decimal.NewFromFloat(amount).StringFixed(2) + " " + currency
}

// formatCell renders a raw table value according to the column format.
func formatCell(v any, format entity.ColumnFormat, currency, dateLayout string) string {
	if v == nil {
		return ""
	}
	switch format {
	case entity.FormatCurrency:
		if n, ok := asNumber(v); ok {
			return Money(n, currency)
		}
	case entity.FormatHours:
		if n, ok := asNumber(v); ok {
			return decimal.NewFromFloat(n).StringFixed(1) + "h"
		}
	case entity.FormatDate:
		if s, ok := v.(string); ok {
			return formatDateString(s, dateLayout)
		}
	}
	return literal(v)
}

// literal stringifies a value without number rounding.
func literal(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return val
	default:
		return FormatValue(val)
	}
}

func asNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return n, err == nil
	}
	return 0, false
}
