package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/garyjia/secu-devis/internal/domain/entity"
)

// Page sizes in millimeters, portrait.
var pageFormats = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// Page is the resolved physical page of a layout. Sizes are in millimeters;
// Unit is the coordinate unit of the render pass.
type Page struct {
	Width   float64
	Height  float64
	Margins entity.Margins
	Unit    entity.Unit
}

// ContentWidth is the page width minus the side margins.
func (p Page) ContentWidth() float64 {
	return p.Width - p.Margins.Left - p.Margins.Right
}

// ContentHeight is the page height minus the top and bottom margins.
func (p Page) ContentHeight() float64 {
	return p.Height - p.Margins.Top - p.Margins.Bottom
}

// ResolvePage validates the page geometry of a layout.
func ResolvePage(layout entity.PDFLayoutConfig) (Page, error) {
	invalid := func(format string, args ...any) (Page, error) {
		return Page{}, &LayoutError{LayoutID: layout.ID, Reason: fmt.Sprintf(format, args...)}
	}

	g := layout.Page
	if g == nil {
		return invalid("missing page geometry")
	}

	var p Page
	switch {
	case g.Width > 0 && g.Height > 0:
		p.Width, p.Height = g.Width, g.Height
	case g.Width != 0 || g.Height != 0:
		return invalid("page size %gx%g mm is not positive", g.Width, g.Height)
	default:
		format := strings.ToUpper(strings.TrimSpace(g.Format))
		if format == "" {
			format = "A4"
		}
		size, ok := pageFormats[format]
		if !ok {
			return invalid("unknown page format %q", g.Format)
		}
		p.Width, p.Height = size[0], size[1]
	}

	switch strings.ToLower(strings.TrimSpace(g.Orientation)) {
	case "", "portrait":
	case "landscape":
		if p.Width < p.Height {
			p.Width, p.Height = p.Height, p.Width
		}
	default:
		return invalid("unknown orientation %q", g.Orientation)
	}

	m := g.Margins
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return invalid("negative page margin")
	}
	p.Margins = m
	if p.ContentWidth() <= 0 || p.ContentHeight() <= 0 {
		return invalid("margins leave no content area on a %gx%g mm page", p.Width, p.Height)
	}

	switch g.Unit {
	case "", entity.UnitMillimeter:
		p.Unit = entity.UnitMillimeter
	case entity.UnitPercent:
		p.Unit = entity.UnitPercent
	default:
		return invalid("unknown coordinate unit %q", g.Unit)
	}
	return p, nil
}

// Frame is the clamped box of a block in the pass unit.
type Frame struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Unit   entity.Unit
}

// Place converts a block box into the pass unit and clamps it to the content
// area. A zero height means the block grows with its content.
func (p Page) Place(b entity.LayoutBlock) Frame {
	unit := b.Unit
	if unit == "" {
		unit = p.Unit
	}

	x, y, w, h := b.X, b.Y, b.Width, b.Height
	if unit != p.Unit {
		if p.Unit == entity.UnitPercent {
			x, w = x/p.ContentWidth()*100, w/p.ContentWidth()*100
			y, h = y/p.ContentHeight()*100, h/p.ContentHeight()*100
		} else {
			x, w = x*p.ContentWidth()/100, w*p.ContentWidth()/100
			y, h = y*p.ContentHeight()/100, h*p.ContentHeight()/100
		}
	}

	maxW, maxH := p.ContentWidth(), p.ContentHeight()
	if p.Unit == entity.UnitPercent {
		maxW, maxH = 100, 100
	}
	f := Frame{Unit: p.Unit}
	f.X = clamp(x, 0, maxW)
	f.Y = clamp(y, 0, maxH)
	f.Width = clamp(w, 0, maxW-f.X)
	f.Height = clamp(h, 0, maxH-f.Y)
	return f
}

// ToMillimeters expresses a frame in millimeters of the content area.
func (p Page) ToMillimeters(f Frame) Frame {
	if f.Unit != entity.UnitPercent {
		return f
	}
	return Frame{
		X:      f.X * p.ContentWidth() / 100,
		Y:      f.Y * p.ContentHeight() / 100,
		Width:  f.Width * p.ContentWidth() / 100,
		Height: f.Height * p.ContentHeight() / 100,
		Unit:   entity.UnitMillimeter,
	}
}

// Bottom is the lower edge of the frame.
func (f Frame) Bottom() float64 {
	return f.Y + f.Height
}

// CSS positions the frame absolutely inside its container. The height is a
// minimum so content is never clipped.
func (f Frame) CSS(zIndex int) string {
	u := "mm"
	if f.Unit == entity.UnitPercent {
		u = "%"
	}
	decls := []string{
		"position:absolute",
		"left:" + round2(f.X) + u,
		"top:" + round2(f.Y) + u,
	}
	if f.Width > 0 {
		decls = append(decls, "width:"+round2(f.Width)+u)
	}
	if f.Height > 0 {
		decls = append(decls, "min-height:"+round2(f.Height)+u)
	}
	decls = append(decls, fmt.Sprintf("z-index:%d", zIndex))
	return strings.Join(decls, ";")
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(v, hi))
}

func round2(v float64) string {
	return num(math.Round(v*100) / 100)
}
