package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const documentTemplate = `<!doctype html>
<html lang="fr">
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    @page {
      size: {{.PageWidth}}mm {{.PageHeight}}mm;
      margin: {{.MarginTop}}mm {{.MarginRight}}mm {{.MarginBottom}}mm {{.MarginLeft}}mm;
    }
    :root {
      --primary: {{.Primary}};
      --secondary: {{.Secondary}};
      --accent: {{.Accent}};
      --text: {{.Text}};
    }
    * { box-sizing: border-box; }
    html, body { margin: 0; padding: 0; }
    body {
      font-family: "Helvetica Neue", Arial, sans-serif;
      color: var(--text);
      -webkit-print-color-adjust: exact;
      print-color-adjust: exact;
    }
    .page { width: {{.ContentWidth}}mm; }
    .page + .page { break-before: page; page-break-before: always; }
    .page-frame { width: 100%; border-collapse: collapse; }
    .page-frame > thead > tr > td, .page-frame > tbody > tr > td, .page-frame > tfoot > tr > td { padding: 0; vertical-align: top; }
    .page-band, .page-body { position: relative; width: 100%; }
    thead { display: table-header-group; }
    tfoot { display: table-footer-group; }
    .data-table { width: 100%; border-collapse: collapse; table-layout: fixed; }
    .data-table th { background: var(--primary); color: #ffffff; font-weight: bold; padding: 4px 6px; }
    .data-table td { padding: 3px 6px; border-bottom: 1px solid #e5e7eb; word-wrap: break-word; }
    .data-table tr.striped td { background: var(--secondary); }
    .data-table tr, .data-table td, .data-table th, .totals-table tr, .totals-table td {
      break-inside: avoid;
      page-break-inside: avoid;
    }
    .no-split { break-inside: avoid; page-break-inside: avoid; }
    .totals-table { width: 100%; border-collapse: collapse; }
    .totals-table td.amount { text-align: right; white-space: nowrap; }
    .totals-table tr.total-ttc td { font-weight: bold; border-top: 1px solid var(--primary); }
    .signatures { display: flex; justify-content: space-between; gap: 12mm; }
    .signature-box { flex: 1; border-top: 1px solid var(--text); padding-top: 2mm; min-height: 12mm; }
    .signature-image { max-height: 18mm; max-width: 100%; }
    .header { display: flex; align-items: center; gap: 6mm; }
    .header .logo { max-height: 18mm; max-width: 50mm; }
    .field p { margin: 0 0 2mm 0; }
    .table-title { font-weight: bold; margin-bottom: 2mm; }
    hr.separator { border: 0; border-top: 1px solid currentColor; margin: 0; }
    img { max-width: 100%; }
  </style>
</head>
<body>
{{.Body}}
</body>
</html>
`

var documentShell = template.Must(template.New("document").Parse(documentTemplate))

type shellData struct {
	Title        string
	PageWidth    string
	PageHeight   string
	MarginTop    string
	MarginRight  string
	MarginBottom string
	MarginLeft   string
	ContentWidth string
	Primary      string
	Secondary    string
	Accent       string
	Text         string
	Body         template.HTML
}

// HTML serializes the document. The output is self-contained apart from
// image URLs and is byte-identical for identical documents.
func (d *Document) HTML() (string, error) {
	var body bytes.Buffer
	for _, p := range d.Pages {
		if err := html.Render(&body, d.pageNode(p)); err != nil {
			return "", fmt.Errorf("failed to serialize page %d: %w", p.Number, err)
		}
		body.WriteByte('\n')
	}

	data := shellData{
		Title:        d.Title,
		PageWidth:    round2(d.Page.Width),
		PageHeight:   round2(d.Page.Height),
		MarginTop:    round2(d.Page.Margins.Top),
		MarginRight:  round2(d.Page.Margins.Right),
		MarginBottom: round2(d.Page.Margins.Bottom),
		MarginLeft:   round2(d.Page.Margins.Left),
		ContentWidth: round2(d.Page.ContentWidth()),
		Primary:      colorOr(d.Colors.Primary, "#1e3a5f"),
		Secondary:    colorOr(d.Colors.Secondary, "#f3f4f6"),
		Accent:       colorOr(d.Colors.Accent, "#c8102e"),
		Text:         colorOr(d.Colors.Text, "#1f2937"),
		Body:         template.HTML(body.String()),
	}

	var out bytes.Buffer
	if err := documentShell.Execute(&out, data); err != nil {
		return "", fmt.Errorf("failed to render document shell: %w", err)
	}
	return out.String(), nil
}

// pageNode lays a logical page out as a frame table: the header band sits in
// thead and the footer band in tfoot so both repeat on every printed page.
func (d *Document) pageNode(p LogicalPage) *html.Node {
	section := element("section", "page page-"+string(p.Section))
	section.Attr = append(section.Attr, html.Attribute{Key: "data-page", Val: strconv.Itoa(p.Number)})

	frame := element("table", "page-frame")
	if len(p.Header) > 0 {
		frame.AppendChild(bandRow("thead", "page-band page-header", p.HeaderHeight, p.Header))
	}
	bodyHeight := d.Page.ContentHeight() - p.HeaderHeight - p.FooterHeight
	frame.AppendChild(bandRow("tbody", "page-body", bodyHeight, p.Body))
	if len(p.Footer) > 0 {
		frame.AppendChild(bandRow("tfoot", "page-band page-footer", p.FooterHeight, p.Footer))
	}
	section.AppendChild(frame)
	return section
}

func bandRow(group, class string, height float64, blocks []RenderedBlock) *html.Node {
	container := element("div", class)
	if height > 0 {
		prop := "height"
		if class == "page-body" {
			prop = "min-height"
		}
		setAttr(container, "style", prop+":"+round2(height)+"mm")
	}
	for _, b := range blocks {
		container.AppendChild(blockNode(b))
	}
	td := element("td", "")
	td.AppendChild(container)
	tr := element("tr", "")
	tr.AppendChild(td)
	g := element(group, "")
	g.AppendChild(tr)
	return g
}

func blockNode(b RenderedBlock) *html.Node {
	class := "block block-" + cssIdent(string(b.Type))
	if b.NoSplit {
		class += " no-split"
	}
	n := element("div", class)
	n.Attr = append(n.Attr, html.Attribute{Key: "data-block-id", Val: b.ID})

	style := b.Frame.CSS(b.ZIndex)
	if css := b.Style.CSS(); css != "" {
		style += ";" + css
	}
	setAttr(n, "style", style)

	n.AppendChild(toHTML(b.Content))
	return n
}

// toHTML converts the intermediate tree. Text and attribute values are
// escaped by html.Render.
func toHTML(n *Node) *html.Node {
	if n.Tag == "" {
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}
	el := element(n.Tag, n.Class)
	if n.Style != "" {
		setAttr(el, "style", n.Style)
	}
	for _, a := range n.Attrs {
		el.Attr = append(el.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	for _, c := range n.Children {
		el.AppendChild(toHTML(c))
	}
	return el
}

func element(tag, class string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	if class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
	return n
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func colorOr(value, def string) string {
	if c := sanitizeColor(value); c != "" && !strings.ContainsAny(c, "();") {
		return c
	}
	return def
}
