package render

import (
	"fmt"
	"sort"

	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/pricing"
	"go.uber.org/zap"
)

// sectionOrder is the document order of logical pages.
var sectionOrder = []entity.Section{entity.SectionCover, entity.SectionDescription, entity.SectionContent}

// Engine turns a quote, its settings and a layout into a paginated document.
// It holds no per-render state and is safe for concurrent use.
type Engine struct {
	logger     *zap.Logger
	dateLayout string
}

// Option configures an Engine.
type Option func(*Engine)

// WithDateLayout sets the Go time layout used for displayed dates.
func WithDateLayout(layout string) Option {
	return func(e *Engine) {
		if layout != "" {
			e.dateLayout = layout
		}
	}
}

// NewEngine creates a render engine. A nil logger discards warnings.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{logger: logger, dateLayout: DefaultDateLayout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Document is a composed, not yet serialized, rendering.
type Document struct {
	Title    string
	LayoutID string
	Page     Page
	Colors   entity.ColorTheme
	Pages    []LogicalPage
}

// LogicalPage is one forced page of the document. Header and Footer are the
// repeating bands; their heights are in millimeters.
type LogicalPage struct {
	Number       int
	Section      entity.Section
	Header       []RenderedBlock
	Body         []RenderedBlock
	Footer       []RenderedBlock
	HeaderHeight float64
	FooterHeight float64
}

// Block returns the rendered block with the given id on this page.
func (p LogicalPage) Block(id string) (RenderedBlock, bool) {
	for _, list := range [][]RenderedBlock{p.Header, p.Body, p.Footer} {
		for _, b := range list {
			if b.ID == id {
				return b, true
			}
		}
	}
	return RenderedBlock{}, false
}

// RenderHTML prices the quote, composes the layout and serializes the result.
func (e *Engine) RenderHTML(quote entity.Quote, settings entity.Settings, layout entity.PDFLayoutConfig) (string, error) {
	doc, err := e.Compose(quote, settings, layout)
	if err != nil {
		return "", err
	}
	return doc.HTML()
}

// Compose builds the document of a quote. The only hard failure is a layout
// whose page geometry cannot be resolved; data problems degrade locally.
func (e *Engine) Compose(quote entity.Quote, settings entity.Settings, layout entity.PDFLayoutConfig) (*Document, error) {
	page, err := ResolvePage(layout)
	if err != nil {
		return nil, err
	}

	priced := pricing.PriceQuote(quote, settings)
	base, err := NewContext(priced, settings, e.dateLayout)
	if err != nil {
		return nil, fmt.Errorf("failed to build render context: %w", err)
	}
	vis := NewVisibilityEvaluator(e.logger)

	blocks := orderedBlocks(layout)
	var headerBand, footerBand []entity.LayoutBlock
	bodies := make(map[entity.Section][]entity.LayoutBlock)
	for _, b := range blocks {
		switch {
		case b.Type == entity.BlockHeader && b.Section == "":
			headerBand = append(headerBand, b)
		case b.Type == entity.BlockFooter && b.Section == "":
			footerBand = append(footerBand, b)
		default:
			s := sectionOf(b)
			bodies[s] = append(bodies[s], b)
		}
	}

	headerHeight := bandHeight(page, headerBand, false)
	footerHeight := bandHeight(page, footerBand, true)

	// Split sections at page breaks, then keep the chunks that have content.
	// Page-dependent conditions are treated as met while qualifying.
	qualify := base.WithPage(PageInfo{Number: 1, Total: 1})
	type chunk struct {
		section entity.Section
		blocks  []entity.LayoutBlock
	}
	var chunks []chunk
	for _, s := range sectionOrder {
		for _, part := range splitAtBreaks(bodies[s], qualify, vis) {
			rendered := e.renderAll(part, qualify, page, vis)
			if hasContent(dropDetached(rendered)) {
				chunks = append(chunks, chunk{section: s, blocks: part})
			}
		}
	}
	if len(chunks) == 0 {
		chunks = append(chunks, chunk{section: entity.SectionContent})
	}

	doc := &Document{
		Title:    "Devis " + quote.Ref,
		LayoutID: layout.ID,
		Page:     page,
		Colors:   settings.Colors,
	}

	// Page-dependent conditions can empty a chunk once its real page number
	// is known; such pages are dropped and the remaining ones renumbered.
	for {
		doc.Pages = doc.Pages[:0]
		dropped := -1
		for i, c := range chunks {
			ctx := base.WithPage(PageInfo{Number: i + 1, Total: len(chunks), Section: c.section})
			body := nonEmpty(dropDetached(e.renderAll(c.blocks, ctx, page, vis)))
			if len(body) == 0 && len(chunks) > 1 && len(c.blocks) > 0 {
				dropped = i
				break
			}
			header := nonEmpty(e.renderAll(headerBand, ctx, page, vis))
			footer := nonEmpty(e.renderAll(footerBand, ctx, page, vis))

			doc.Pages = append(doc.Pages, LogicalPage{
				Number:       i + 1,
				Section:      c.section,
				Header:       toBand(page, header, false),
				Body:         shiftBody(page, body, headerHeight, footerHeight),
				Footer:       toBand(page, footer, true),
				HeaderHeight: headerHeight,
				FooterHeight: footerHeight,
			})
		}
		if dropped < 0 {
			break
		}
		e.logger.Debug("Dropping logical page left empty by page conditions",
			zap.String("layout_id", layout.ID),
			zap.Int("page", dropped+1))
		chunks = append(chunks[:dropped], chunks[dropped+1:]...)
	}
	return doc, nil
}

func (e *Engine) renderAll(blocks []entity.LayoutBlock, ctx Context, page Page, vis *VisibilityEvaluator) []RenderedBlock {
	out := make([]RenderedBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, e.renderBlock(b, ctx, page, vis))
	}
	return out
}

// orderedBlocks keeps the visible blocks of a layout, resolves their
// condition and sorts them by z-index. Equal z-indexes keep layout order.
func orderedBlocks(layout entity.PDFLayoutConfig) []entity.LayoutBlock {
	out := make([]entity.LayoutBlock, 0, len(layout.Blocks))
	for _, b := range layout.Blocks {
		if !b.IsVisible() {
			continue
		}
		if b.VisibleIf == "" {
			b.VisibleIf = layout.VisibilityRules[b.ID]
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}

func sectionOf(b entity.LayoutBlock) entity.Section {
	switch b.Section {
	case entity.SectionCover, entity.SectionDescription:
		return b.Section
	}
	return entity.SectionContent
}

// splitAtBreaks cuts a section into logical pages at its visible page-break blocks.
func splitAtBreaks(blocks []entity.LayoutBlock, ctx Context, vis *VisibilityEvaluator) [][]entity.LayoutBlock {
	if len(blocks) == 0 {
		return nil
	}
	var parts [][]entity.LayoutBlock
	var cur []entity.LayoutBlock
	for _, b := range blocks {
		if b.Type == entity.BlockPageBreak {
			if vis.Visible(b.VisibleIf, ctx) {
				parts = append(parts, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, b)
	}
	return append(parts, cur)
}

// dropDetached empties blocks attached to a table that rendered nothing on
// the same page, so a section title never hangs over a missing table.
func dropDetached(blocks []RenderedBlock) []RenderedBlock {
	filled := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if !b.Empty() {
			filled[b.ID] = true
		}
	}
	out := make([]RenderedBlock, len(blocks))
	copy(out, blocks)
	for i := range out {
		if out[i].AttachedTo != "" && !filled[out[i].AttachedTo] {
			out[i].Content = nil
		}
	}
	return out
}

func hasContent(blocks []RenderedBlock) bool {
	for _, b := range blocks {
		if !b.Empty() {
			return true
		}
	}
	return false
}

func nonEmpty(blocks []RenderedBlock) []RenderedBlock {
	out := make([]RenderedBlock, 0, len(blocks))
	for _, b := range blocks {
		if !b.Empty() {
			out = append(out, b)
		}
	}
	return out
}

// bandHeight is the height in millimeters a repeating band needs. Footer bands
// start at their topmost block.
func bandHeight(page Page, blocks []entity.LayoutBlock, footer bool) float64 {
	if len(blocks) == 0 {
		return 0
	}
	top, bottom := page.ContentHeight(), 0.0
	for _, b := range blocks {
		f := page.ToMillimeters(page.Place(b))
		if f.Y < top {
			top = f.Y
		}
		if f.Bottom() > bottom {
			bottom = f.Bottom()
		}
	}
	if !footer {
		top = 0
	}
	if bottom < top {
		return 0
	}
	return bottom - top
}

// toBand expresses band blocks in millimeters relative to their band.
func toBand(page Page, blocks []RenderedBlock, footer bool) []RenderedBlock {
	if len(blocks) == 0 {
		return blocks
	}
	offset := 0.0
	if footer {
		offset = page.ContentHeight()
		for _, b := range blocks {
			if y := page.ToMillimeters(b.Frame).Y; y < offset {
				offset = y
			}
		}
	}
	out := make([]RenderedBlock, len(blocks))
	for i, b := range blocks {
		b.Frame = page.ToMillimeters(b.Frame)
		b.Frame.Y -= offset
		out[i] = b
	}
	return out
}

// shiftBody moves body blocks up by the header band so layout coordinates
// stay relative to the whole content area. Percent frames are rescaled to the
// body box, which is what their top and height resolve against.
func shiftBody(page Page, blocks []RenderedBlock, headerHeight, footerHeight float64) []RenderedBlock {
	bodyHeight := page.ContentHeight() - headerHeight - footerHeight
	out := make([]RenderedBlock, len(blocks))
	for i, b := range blocks {
		if page.Unit == entity.UnitPercent && bodyHeight > 0 {
			y := b.Frame.Y*page.ContentHeight()/100 - headerHeight
			b.Frame.Y = y / bodyHeight * 100
			b.Frame.Height = b.Frame.Height * page.ContentHeight() / bodyHeight
		} else {
			b.Frame.Y -= headerHeight
		}
		if b.Frame.Y < 0 {
			b.Frame.Y = 0
		}
		out[i] = b
	}
	return out
}
