package render

import (
	"sort"
	"strings"

	"github.com/garyjia/secu-devis/internal/domain/entity"
	"go.uber.org/zap"
)

// RenderedBlock is one block after binding, visibility and table layout.
// Content is nil when the block renders nothing.
type RenderedBlock struct {
	ID      string
	Type    entity.BlockType
	Frame   Frame
	ZIndex  int
	Style   ResolvedStyle
	Content *Node
	NoSplit bool

	// AttachedTo is the id of the table this block belongs with.
	AttachedTo string
}

// Empty reports whether the block produced no content.
func (b RenderedBlock) Empty() bool {
	return b.Content == nil
}

// field is a named piece of text a block type shows by default. Bindings with
// the same key replace the template.
type field struct {
	key      string
	tmpl     string
	class    string
	required bool
}

var (
	headerFields = []field{
		{key: "title", tmpl: "{{seller.company}}", class: "title"},
		{key: "subtitle", tmpl: "Devis {{quote.ref}}", class: "subtitle"},
		{key: "date", tmpl: "{{quote.dateFormatted}}", class: "date"},
	}
	footerFields = []field{
		{key: "text", tmpl: "{{seller.company}}", class: "text"},
		{key: "contact", tmpl: "{{seller.email}}", class: "contact"},
		{key: "vat", tmpl: "{{seller.vatNumber}}", class: "vat"},
		{key: "page", tmpl: "{{page.number}} / {{page.total}}", class: "page-number"},
	}
	intentFields = []field{
		{key: "title", tmpl: "À l'attention de", class: "label"},
		{key: "company", tmpl: "{{client.company}}", class: "company"},
		{key: "name", tmpl: "{{client.name}}", class: "name"},
		{key: "address", tmpl: "{{client.address}}", class: "address"},
		{key: "locality", tmpl: "{{client.locality}}", class: "locality"},
		{key: "email", tmpl: "{{client.email}}", class: "email"},
		{key: "phone", tmpl: "{{client.phone}}", class: "phone"},
	}
	letterFields = []field{
		{key: "title", tmpl: "{{letter.title}}", class: "title"},
		{key: "subject", tmpl: "{{letter.subject}}", class: "subject"},
		{key: "greeting", tmpl: "{{letter.greeting}}", class: "greeting"},
		{key: "body", tmpl: "{{letter.body}}", class: "body", required: true},
		{key: "closing", tmpl: "{{letter.closing}}", class: "closing"},
		{key: "signatory", tmpl: "{{seller.name}}", class: "signatory"},
	}
	descriptionFields = []field{
		{key: "title", tmpl: "Description de la prestation", class: "title"},
		{key: "body", tmpl: "{{description}}", class: "body", required: true},
	}
)

// RenderBlock renders a single block against a context on a page.
func (e *Engine) RenderBlock(block entity.LayoutBlock, ctx Context, page Page) RenderedBlock {
	return e.renderBlock(block, ctx, page, NewVisibilityEvaluator(e.logger))
}

func (e *Engine) renderBlock(block entity.LayoutBlock, ctx Context, page Page, vis *VisibilityEvaluator) RenderedBlock {
	out := RenderedBlock{
		ID:     block.ID,
		Type:   block.Type,
		Frame:  page.Place(block),
		ZIndex: block.ZIndex,
		Style:  ResolveStyle(block.Style),

		AttachedTo: block.AttachedTo,
	}
	if !block.IsVisible() || !vis.Visible(block.VisibleIf, ctx) {
		return out
	}

	switch block.Type {
	case entity.BlockHeader:
		out.Content = e.header(block, ctx)
	case entity.BlockFooter:
		out.Content = fieldsNode(block, ctx, footerFields)
	case entity.BlockIntent:
		out.Content = fieldsNode(block, ctx, intentFields)
	case entity.BlockLetter:
		out.Content = fieldsNode(block, ctx, letterFields)
	case entity.BlockDescription:
		out.Content = fieldsNode(block, ctx, descriptionFields)
	case entity.BlockTableTech, entity.BlockTableAgent:
		out.Content = e.table(block, ctx)
	case entity.BlockTotals:
		out.Content = totalsNode(block, ctx)
		out.NoSplit = true
	case entity.BlockSignatures:
		out.Content = signaturesNode(block, ctx)
		out.NoSplit = true
	case entity.BlockText:
		out.Content = textNode(block, ctx)
	case entity.BlockImage:
		out.Content = imageNode(block, ctx)
	case entity.BlockSeparator:
		out.Content = El("hr", "separator")
	case entity.BlockPageBreak:
		out.Content = El("div", "page-break")
	default:
		e.logger.Warn("Unknown block type, rendering literal content",
			zap.String("block_id", block.ID),
			zap.String("type", string(block.Type)))
		if block.Content != "" {
			out.Content = textNode(block, ctx)
		}
	}
	return out
}

func (e *Engine) header(block entity.LayoutBlock, ctx Context) *Node {
	n := El("div", "header")
	logo := bindingOr(block, "logo", "{{settings.logoUrl}}")
	if src := safeURL(ResolveBindings(logo, ctx.Data)); src != "" {
		n.Append(El("img", "logo").WithAttr("src", src).WithAttr("alt", "logo"))
	}
	text := fieldsNode(block, ctx, headerFields, "logo")
	if text != nil {
		n.Append(text)
	}
	if len(n.Children) == 0 {
		return nil
	}
	return n
}

// fieldsNode renders the default fields of a block type followed by any extra
// binding keys in key order. Empty fields are skipped; the block is empty when
// a required field is empty or nothing is left.
func fieldsNode(block entity.LayoutBlock, ctx Context, fields []field, skip ...string) *Node {
	known := make(map[string]bool, len(fields)+len(skip))
	for _, k := range skip {
		known[k] = true
	}

	n := El("div", "fields")
	for _, f := range fields {
		known[f.key] = true
		value := strings.TrimSpace(ResolveBindings(bindingOr(block, f.key, f.tmpl), ctx.Data))
		if value == "" {
			if f.required {
				return nil
			}
			continue
		}
		n.Append(El("div", "field "+f.class, paragraphs(value)...))
	}

	extra := make([]string, 0, len(block.Bindings))
	for k := range block.Bindings {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		value := strings.TrimSpace(ResolveBindings(block.Bindings[k], ctx.Data))
		if value != "" {
			n.Append(El("div", "field field-"+cssIdent(k), paragraphs(value)...))
		}
	}

	if len(n.Children) == 0 {
		return nil
	}
	return n
}

func (e *Engine) table(block entity.LayoutBlock, ctx Context) *Node {
	cfg := DefaultTableConfig(block.Type)
	if block.TableConfig != nil {
		cfg = *block.TableConfig
		if strings.TrimSpace(cfg.Dataset) == "" {
			cfg.Dataset = DefaultTableConfig(block.Type).Dataset
		}
	}

	t := BuildTable(cfg, ctx.Dataset(cfg.Dataset), ctx.Currency, e.dateLayout)
	if t == nil {
		return nil
	}

	n := El("div", "table-block")
	if title, ok := block.Bindings["title"]; ok {
		if value := strings.TrimSpace(ResolveBindings(title, ctx.Data)); value != "" {
			n.Append(El("div", "table-title", Txt(value)))
		}
	}
	return n.Append(t.Node())
}

// Default totals labels, keyed by the binding that overrides them.
var totalsLabels = map[string]string{
	"labelUnique":   "Total unique HT",
	"labelMensuel":  "Total mensuel HT",
	"labelAgents":   "Prestations agents HT",
	"labelDiscount": "Remise",
	"labelHT":       "Total HT",
	"labelTVA":      "TVA {{totals.tvaPct}} %",
	"labelTTC":      "Total TTC",
}

func totalsNode(block entity.LayoutBlock, ctx Context) *Node {
	t := ctx.Totals
	if t.Global.Count == 0 {
		return nil
	}
	label := func(key string) string {
		return ResolveBindings(bindingOr(block, key, totalsLabels[key]), ctx.Data)
	}
	money := func(v float64) string {
		return Money(v, ctx.Currency)
	}

	tbody := El("tbody", "")
	row := func(class, l, v string) {
		tbody.Append(El("tr", class, El("td", "label", Txt(l)), El("td", "amount", Txt(v))))
	}
	if t.Unique.Count > 0 {
		row("subtotal", label("labelUnique"), money(t.Unique.SubtotalHT))
	}
	if t.Mensuel.Count > 0 {
		row("subtotal", label("labelMensuel"), money(t.Mensuel.SubtotalHT))
	}
	if t.Agents.Count > 0 {
		row("subtotal", label("labelAgents"), money(t.Agents.SubtotalHT))
	}
	if t.Global.DiscountHT > 0 {
		row("discount", label("labelDiscount"), "- "+money(t.Global.DiscountHT))
	}
	row("total-ht", label("labelHT"), money(t.Global.HTAfterDiscount))
	row("tva", label("labelTVA"), money(t.Global.TVA))
	row("total-ttc", label("labelTTC"), money(t.Global.TotalTTC))

	n := El("div", "cartouche")
	if title, ok := block.Bindings["title"]; ok {
		if value := strings.TrimSpace(ResolveBindings(title, ctx.Data)); value != "" {
			n.Append(El("div", "cartouche-title", Txt(value)))
		}
	}
	return n.Append(El("table", "totals-table", tbody))
}

func signaturesNode(block entity.LayoutBlock, ctx Context) *Node {
	resolve := func(key, def string) string {
		return strings.TrimSpace(ResolveBindings(bindingOr(block, key, def), ctx.Data))
	}

	seller := El("div", "signature-box seller",
		El("div", "signature-label", Txt(resolve("sellerLabel", "Pour {{seller.company}}"))),
	)
	if name := resolve("sellerName", "{{seller.name}}"); name != "" {
		seller.Append(El("div", "signature-name", Txt(name)))
	}

	client := El("div", "signature-box client",
		El("div", "signature-label", Txt(resolve("clientLabel", "Bon pour accord"))),
	)
	if ctx.Facts.HasSignature {
		if src := safeURL(resolve("signatureImage", "{{signature.imageUrl}}")); src != "" {
			client.Append(El("img", "signature-image").WithAttr("src", src).WithAttr("alt", "signature"))
		}
		if place := resolve("signaturePlace", "{{signature.location}}, {{signature.date}}"); strings.Trim(place, ", ") != "" {
			client.Append(El("div", "signature-place", Txt(place)))
		}
		if name := resolve("signatureName", "{{signature.name}}"); name != "" {
			client.Append(El("div", "signature-name", Txt(name)))
		}
	} else if name := resolve("clientName", "{{client.displayName}}"); name != "" {
		client.Append(El("div", "signature-name", Txt(name)))
	}

	return El("div", "signatures", seller, client)
}

func textNode(block entity.LayoutBlock, ctx Context) *Node {
	raw := block.Content
	if raw == "" {
		raw = block.Bindings["text"]
	}
	value := strings.TrimSpace(ResolveBindings(raw, ctx.Data))
	if value == "" {
		return nil
	}
	return El("div", "text", paragraphs(value)...)
}

func imageNode(block entity.LayoutBlock, ctx Context) *Node {
	raw := bindingOr(block, "src", block.Content)
	src := safeURL(ResolveBindings(raw, ctx.Data))
	if src == "" {
		return nil
	}
	alt := ResolveBindings(block.Bindings["alt"], ctx.Data)
	return El("img", "image").WithAttr("src", src).WithAttr("alt", alt)
}

func bindingOr(block entity.LayoutBlock, key, def string) string {
	if v, ok := block.Bindings[key]; ok {
		return v
	}
	return def
}

// paragraphs splits text on blank lines into paragraphs and on single line
// breaks into br-separated lines.
func paragraphs(text string) []*Node {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	blocks := strings.Split(text, "\n\n")
	if len(blocks) == 1 && !strings.Contains(text, "\n") {
		return []*Node{Txt(text)}
	}

	out := make([]*Node, 0, len(blocks))
	for _, b := range blocks {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		p := El("p", "")
		for i, line := range strings.Split(b, "\n") {
			if i > 0 {
				p.Append(El("br", ""))
			}
			p.Append(Txt(line))
		}
		out = append(out, p)
	}
	return out
}

// safeURL accepts http(s) URLs, image data URIs and relative paths. Anything
// else, including unresolved tokens, yields "".
func safeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || HasUnresolved(s) {
		return ""
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "http://"):
		return s
	case strings.HasPrefix(lower, "data:image/"):
		return s
	case strings.Contains(lower, ":"):
		return ""
	}
	return s
}

func cssIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
