package render

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/garyjia/secu-devis/internal/domain/entity"
)

// Style fallbacks applied when a block leaves a property unset.
const (
	DefaultFontSize   = 14.0
	DefaultTextAlign  = "left"
	DefaultFontWeight = "normal"
)

var (
	colorPattern      = regexp.MustCompile(`^(#[0-9a-fA-F]{3}|#[0-9a-fA-F]{6}|#[0-9a-fA-F]{8}|[a-zA-Z]+|rgba?\(\s*[0-9.,\s%]+\))$`)
	fontFamilyFilter  = regexp.MustCompile(`^[A-Za-z0-9 ,'"\-]+$`)
	allowedAligns     = map[string]bool{"left": true, "center": true, "right": true, "justify": true}
	allowedWeights    = map[string]bool{"normal": true, "bold": true, "bolder": true, "lighter": true, "100": true, "200": true, "300": true, "400": true, "500": true, "600": true, "700": true, "800": true, "900": true}
	allowedFontStyles = map[string]bool{"normal": true, "italic": true, "oblique": true}
	allowedBorders    = map[string]bool{"solid": true, "dashed": true, "dotted": true, "double": true, "none": true}
)

// ResolvedStyle is a block style with every fallback applied and every value
// sanitized. Empty strings and zero numbers are omitted from the CSS.
type ResolvedStyle struct {
	FontSize        float64
	FontWeight      string
	FontStyle       string
	FontFamily      string
	Color           string
	BackgroundColor string
	TextAlign       string
	LineHeight      float64
	BorderWidth     float64
	BorderColor     string
	BorderStyle     string
	BorderRadius    float64
	Padding         float64
	Opacity         float64
}

// ResolveStyle is the single place where style defaults are decided.
func ResolveStyle(s *entity.BlockStyle) ResolvedStyle {
	r := ResolvedStyle{
		FontSize:   DefaultFontSize,
		TextAlign:  DefaultTextAlign,
		FontWeight: DefaultFontWeight,
	}
	if s == nil {
		return r
	}
	if s.FontSize > 0 {
		r.FontSize = s.FontSize
	}
	if w := strings.ToLower(strings.TrimSpace(s.FontWeight)); allowedWeights[w] {
		r.FontWeight = w
	}
	if a := strings.ToLower(strings.TrimSpace(s.TextAlign)); allowedAligns[a] {
		r.TextAlign = a
	}
	if fs := strings.ToLower(strings.TrimSpace(s.FontStyle)); allowedFontStyles[fs] {
		r.FontStyle = fs
	}
	r.FontFamily = sanitizeFont(s.FontFamily)
	r.Color = sanitizeColor(s.Color)
	r.BackgroundColor = sanitizeColor(s.BackgroundColor)
	r.BorderColor = sanitizeColor(s.BorderColor)
	if bs := strings.ToLower(strings.TrimSpace(s.BorderStyle)); allowedBorders[bs] {
		r.BorderStyle = bs
	}
	r.LineHeight = nonNegative(s.LineHeight)
	r.BorderWidth = nonNegative(s.BorderWidth)
	r.BorderRadius = nonNegative(s.BorderRadius)
	r.Padding = nonNegative(s.Padding)
	if s.Opacity > 0 && s.Opacity < 1 {
		r.Opacity = s.Opacity
	}
	return r
}

// CSS returns the inline declarations in a fixed order.
func (r ResolvedStyle) CSS() string {
	var decls []string
	add := func(prop, value string) {
		if value != "" {
			decls = append(decls, prop+":"+value)
		}
	}
	add("font-size", px(r.FontSize))
	add("font-weight", r.FontWeight)
	add("font-style", r.FontStyle)
	add("font-family", r.FontFamily)
	add("color", r.Color)
	add("background-color", r.BackgroundColor)
	add("text-align", r.TextAlign)
	if r.LineHeight > 0 {
		add("line-height", num(r.LineHeight))
	}
	if r.BorderWidth > 0 {
		style := r.BorderStyle
		if style == "" {
			style = "solid"
		}
		color := r.BorderColor
		if color == "" {
			color = "currentColor"
		}
		add("border", px(r.BorderWidth)+" "+style+" "+color)
	}
	add("border-radius", px(r.BorderRadius))
	add("padding", px(r.Padding))
	if r.Opacity > 0 {
		add("opacity", num(r.Opacity))
	}
	return strings.Join(decls, ";")
}

func sanitizeColor(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || !colorPattern.MatchString(value) {
		return ""
	}
	return value
}

func sanitizeFont(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || !fontFamilyFilter.MatchString(value) {
		return ""
	}
	return value
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func px(v float64) string {
	if v <= 0 {
		return ""
	}
	return num(v) + "px"
}
