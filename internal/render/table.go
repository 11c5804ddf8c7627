package render

import (
	"sort"
	"strings"

	"github.com/garyjia/secu-devis/internal/domain/entity"
)

// Table is a bound, formatted table ready to be turned into nodes.
type Table struct {
	Columns     []entity.TableColumn
	Rows        [][]string
	ShowHeader  bool
	Striped     bool
	HeaderColor string
	FontSize    float64
}

// VisibleColumns keeps the visible columns and orders them by Order. Ties keep
// their storage order.
func VisibleColumns(cols []entity.TableColumn) []entity.TableColumn {
	out := make([]entity.TableColumn, 0, len(cols))
	for _, c := range cols {
		if c.Visible {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// BuildTable binds rows to the configured columns. It returns nil when there
// is nothing to show: no rows or no visible column.
func BuildTable(cfg entity.TableConfig, rows []map[string]any, currency, dateLayout string) *Table {
	if len(rows) == 0 {
		return nil
	}
	cols := VisibleColumns(cfg.Columns)
	if len(cols) == 0 {
		return nil
	}

	t := &Table{
		Columns:     cols,
		Rows:        make([][]string, 0, len(rows)),
		ShowHeader:  cfg.HeaderShown(),
		Striped:     cfg.StripedRows,
		HeaderColor: sanitizeColor(cfg.HeaderColor),
		FontSize:    nonNegative(cfg.FontSize),
	}
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = cellValue(row, col, currency, dateLayout)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// cellValue reads a column from a row. A binding containing tokens is
// resolved against the row as a template; otherwise it is a path whose raw
// value goes through the column format.
func cellValue(row map[string]any, col entity.TableColumn, currency, dateLayout string) string {
	binding := strings.TrimSpace(col.Binding)
	if binding == "" {
		binding = col.ID
	}
	if strings.Contains(binding, "{{") {
		return ResolveBindings(binding, row)
	}
	v, ok := Lookup(row, binding)
	if !ok {
		return ""
	}
	return formatCell(v, col.Format, currency, dateLayout)
}

// Node builds the table element. The header row sits in a thead so it repeats
// on every printed page the table spans.
func (t *Table) Node() *Node {
	table := El("table", "data-table")
	if t.FontSize > 0 {
		table.WithStyle("font-size:" + px(t.FontSize))
	}

	colgroup := El("colgroup", "")
	for _, col := range t.Columns {
		c := El("col", "")
		if w := columnWidth(col); w != "" {
			c.WithStyle("width:" + w)
		}
		colgroup.Append(c)
	}
	table.Append(colgroup)

	if t.ShowHeader {
		tr := El("tr", "")
		for _, col := range t.Columns {
			th := El("th", "", Txt(col.Label))
			th.WithStyle(cellStyle(col, t.HeaderColor))
			tr.Append(th)
		}
		table.Append(El("thead", "", tr))
	}

	tbody := El("tbody", "")
	for i, cells := range t.Rows {
		class := ""
		if t.Striped && i%2 == 1 {
			class = "striped"
		}
		tr := El("tr", class)
		for j, cell := range cells {
			td := El("td", "", Txt(cell))
			td.WithStyle(cellStyle(t.Columns[j], ""))
			tr.Append(td)
		}
		tbody.Append(tr)
	}
	return table.Append(tbody)
}

func cellStyle(col entity.TableColumn, background string) string {
	var decls []string
	if a := strings.ToLower(col.Align); allowedAligns[a] {
		decls = append(decls, "text-align:"+a)
	} else if col.Format == entity.FormatCurrency || col.Format == entity.FormatNumber || col.Format == entity.FormatHours {
		decls = append(decls, "text-align:right")
	}
	if background != "" {
		decls = append(decls, "background-color:"+background)
	}
	return strings.Join(decls, ";")
}

// columnWidth honours fixed widths; columns without one share the rest.
func columnWidth(col entity.TableColumn) string {
	if col.Width <= 0 {
		return ""
	}
	switch col.WidthUnit {
	case "%":
		return num(col.Width) + "%"
	case "mm":
		return num(col.Width) + "mm"
	case "px":
		return num(col.Width) + "px"
	}
	return ""
}
