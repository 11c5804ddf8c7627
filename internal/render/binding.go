package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// ResolveBindings replaces every {{dotted.path}} token of s with the value found
// in data. A token whose path does not exist is left as written so one bad
// token never blanks the rest of the string; a path that exists with an empty
// value resolves to "".
func ResolveBindings(s string, data map[string]any) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return tokenPattern.ReplaceAllStringFunc(s, func(token string) string {
		path := tokenPattern.FindStringSubmatch(token)[1]
		v, ok := Lookup(data, path)
		if !ok {
			return token
		}
		return FormatValue(v)
	})
}

// HasUnresolved reports whether s still contains a binding token.
func HasUnresolved(s string) bool {
	return tokenPattern.MatchString(s)
}

// Lookup walks data along a dotted path. Numeric segments index into lists.
func Lookup(data map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	var cur any = data
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// FormatValue stringifies a resolved value. Floating point numbers (amounts,
// rates, quantities) always get two decimals, rounded half away from zero.
// Integers are counters such as page.number and page.total and print as is.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return decimal.NewFromFloat(val).StringFixed(2)
	case float32:
		return decimal.NewFromFloat32(val).StringFixed(2)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
