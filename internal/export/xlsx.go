// Package export builds the spreadsheet recap of a priced quote.
package export

import (
	"bytes"
	"fmt"

	"github.com/garyjia/secu-devis/internal/application/port"
	"github.com/garyjia/secu-devis/internal/domain/entity"
	"github.com/garyjia/secu-devis/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	sheetQuote = "Devis"
	sheetTech  = "Matériel"
	sheetAgent = "Agents"
)

var (
	techHeaders  = []string{"Référence", "Désignation", "Mode", "Qté", "PU HT", "Remise %", "Total HT brut", "Remise HT", "Total HT net", "Total TTC"}
	agentHeaders = []string{"Début", "Fin", "Type d'agent", "Canton", "Taux/h", "H. normales", "H. nuit", "H. dimanche", "H. fériées", "H. total", "HT", "TVA", "TTC"}
)

// XLSXExporter implements port.SpreadsheetExporter with excelize
type XLSXExporter struct {
	logger *zap.Logger
}

// NewXLSXExporter creates a new XLSX exporter
func NewXLSXExporter(logger *zap.Logger) *XLSXExporter {
	return &XLSXExporter{logger: logger}
}

// sheet tracks the styles of the workbook being written
type sheet struct {
	f      *excelize.File
	logger *zap.Logger
	header int
	money  int
	hours  int
	bold   int
}

// Export writes a workbook with a summary sheet and one sheet per item
// category. Amounts are rounded to cents.
func (e *XLSXExporter) Export(priced pricing.PricedQuote, settings entity.Settings) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	s, err := newSheet(f, e.logger)
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", sheetQuote); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	s.writeSummary(priced, settings)

	var tech, agents []entity.QuoteItem
	for _, item := range priced.Quote.Items {
		switch item.Kind {
		case entity.ItemKindTech:
			tech = append(tech, item)
		case entity.ItemKindAgent:
			agents = append(agents, item)
		}
	}
	if len(tech) > 0 {
		if _, err := f.NewSheet(sheetTech); err != nil {
			return nil, fmt.Errorf("failed to add sheet: %w", err)
		}
		s.writeTech(tech)
	}
	if len(agents) > 0 {
		if _, err := f.NewSheet(sheetAgent); err != nil {
			return nil, fmt.Errorf("failed to add sheet: %w", err)
		}
		s.writeAgents(agents)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		e.logger.Error("Failed to write workbook", zap.String("quote_id", priced.Quote.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Quote workbook generated",
		zap.String("quote_id", priced.Quote.ID),
		zap.Int("tech_lines", len(tech)),
		zap.Int("agent_lines", len(agents)))
	return bytes.Clone(buf.Bytes()), nil
}

func newSheet(f *excelize.File, logger *zap.Logger) (*sheet, error) {
	s := &sheet{f: f, logger: logger}
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	}); err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	moneyFmt := "#,##0.00"
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt}); err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	hoursFmt := "0.00"
	if s.hours, err = f.NewStyle(&excelize.Style{CustomNumFmt: &hoursFmt}); err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt}); err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	return s, nil
}

func (s *sheet) writeSummary(priced pricing.PricedQuote, settings entity.Settings) {
	q := priced.Quote
	t := priced.Totals
	currency := settings.CurrencyOrDefault()

	rows := [][]any{
		{"Devis", q.Ref},
		{"Date", q.Date},
		{"Client", q.ClientCompany},
		{"Contact", q.ClientName},
		{"Adresse", q.ClientAddress},
		{"Localité", joinNonEmpty(q.ClientPostalCode, q.ClientCity)},
		{"Devise", currency},
		{"TVA %", t.TVAPct},
		{},
	}
	for i, row := range rows {
		for j, v := range row {
			s.setCell(sheetQuote, cell(j+1, i+1), v)
		}
	}

	start := len(rows) + 1
	for j, h := range []string{"Catégorie", "Lignes", "Sous-total HT", "Remise HT", "HT après remise", "TVA", "Total TTC"} {
		s.setCell(sheetQuote, cell(j+1, start), h)
	}
	s.style(sheetQuote, cell(1, start), cell(7, start), s.header)

	categories := []struct {
		label  string
		totals entity.CategoryTotals
	}{
		{"Unique", t.Unique},
		{"Mensuel", t.Mensuel},
		{"Agents", t.Agents},
		{"Total", t.Global},
	}
	for i, c := range categories {
		r := start + 1 + i
		s.setCell(sheetQuote, cell(1, r), c.label)
		s.setCell(sheetQuote, cell(2, r), c.totals.Count)
		s.setMoney(sheetQuote, cell(3, r), c.totals.SubtotalHT)
		s.setMoney(sheetQuote, cell(4, r), c.totals.DiscountHT)
		s.setMoney(sheetQuote, cell(5, r), c.totals.HTAfterDiscount)
		s.setMoney(sheetQuote, cell(6, r), c.totals.TVA)
		s.setMoney(sheetQuote, cell(7, r), c.totals.TotalTTC)
		style := s.money
		if c.label == "Total" {
			style = s.bold
		}
		s.style(sheetQuote, cell(3, r), cell(7, r), style)
	}

	if t.DiscountMode == entity.DiscountModeGlobal && t.GlobalDiscountHT > 0 {
		r := start + 1 + len(categories) + 1
		s.setCell(sheetQuote, cell(1, r), fmt.Sprintf("Remise globale %s %%", decimal.NewFromFloat(t.DiscountPct).String()))
		s.setMoney(sheetQuote, cell(4, r), t.GlobalDiscountHT)
		s.style(sheetQuote, cell(4, r), cell(4, r), s.money)
	}

	s.width(sheetQuote, "A", "A", 18)
	s.width(sheetQuote, "B", "G", 16)
}

func (s *sheet) writeTech(items []entity.QuoteItem) {
	s.writeHeader(sheetTech, techHeaders)
	for i, it := range items {
		r := i + 2
		s.setCell(sheetTech, cell(1, r), it.Reference)
		s.setCell(sheetTech, cell(2, r), it.Description)
		s.setCell(sheetTech, cell(3, r), string(it.EffectiveMode()))
		s.setCell(sheetTech, cell(4, r), it.Qty)
		s.setMoney(sheetTech, cell(5, r), it.PuHT)
		s.setCell(sheetTech, cell(6, r), it.LineDiscountPct)
		s.setMoney(sheetTech, cell(7, r), it.TotalHTBrut)
		s.setMoney(sheetTech, cell(8, r), it.DiscountHT)
		s.setMoney(sheetTech, cell(9, r), it.TotalHTNet)
		s.setMoney(sheetTech, cell(10, r), it.TotalTTC)
	}
	last := len(items) + 1
	s.style(sheetTech, cell(5, 2), cell(5, last), s.money)
	s.style(sheetTech, cell(7, 2), cell(10, last), s.money)
	s.width(sheetTech, "A", "A", 14)
	s.width(sheetTech, "B", "B", 40)
	s.width(sheetTech, "C", "J", 13)
}

func (s *sheet) writeAgents(items []entity.QuoteItem) {
	s.writeHeader(sheetAgent, agentHeaders)
	for i, it := range items {
		r := i + 2
		s.setCell(sheetAgent, cell(1, r), joinNonEmpty(it.DateStart, it.TimeStart))
		s.setCell(sheetAgent, cell(2, r), joinNonEmpty(it.DateEnd, it.TimeEnd))
		s.setCell(sheetAgent, cell(3, r), it.AgentType)
		s.setCell(sheetAgent, cell(4, r), it.Canton)
		s.setMoney(sheetAgent, cell(5, r), it.RateCHFh)
		s.setCell(sheetAgent, cell(6, r), it.HoursNormal)
		s.setCell(sheetAgent, cell(7, r), it.HoursNight)
		s.setCell(sheetAgent, cell(8, r), it.HoursSunday)
		s.setCell(sheetAgent, cell(9, r), it.HoursHoliday)
		s.setCell(sheetAgent, cell(10, r), it.HoursTotal)
		s.setMoney(sheetAgent, cell(11, r), it.LineHT)
		s.setMoney(sheetAgent, cell(12, r), it.LineTVA)
		s.setMoney(sheetAgent, cell(13, r), it.LineTTC)
	}
	last := len(items) + 1
	s.style(sheetAgent, cell(5, 2), cell(5, last), s.money)
	s.style(sheetAgent, cell(6, 2), cell(10, last), s.hours)
	s.style(sheetAgent, cell(11, 2), cell(13, last), s.money)
	s.width(sheetAgent, "A", "B", 17)
	s.width(sheetAgent, "C", "C", 24)
	s.width(sheetAgent, "D", "M", 12)
}

func (s *sheet) writeHeader(name string, headers []string) {
	for j, h := range headers {
		s.setCell(name, cell(j+1, 1), h)
	}
	s.style(name, cell(1, 1), cell(len(headers), 1), s.header)
	if err := s.f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		s.logger.Warn("Failed to freeze header row", zap.String("sheet", name), zap.Error(err))
	}
}

// setCell sets a cell value, logging instead of failing the export
func (s *sheet) setCell(name, axis string, value any) {
	if err := s.f.SetCellValue(name, axis, value); err != nil {
		s.logger.Warn("Failed to set cell value",
			zap.String("sheet", name),
			zap.String("cell", axis),
			zap.Error(err))
	}
}

// setMoney writes an amount rounded half away from zero to cents
func (s *sheet) setMoney(name, axis string, amount float64) {
	rounded, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	s.setCell(name, axis, rounded)
}

func (s *sheet) style(name, from, to string, styleID int) {
	if err := s.f.SetCellStyle(name, from, to, styleID); err != nil {
		s.logger.Warn("Failed to set cell style", zap.String("sheet", name), zap.Error(err))
	}
}

func (s *sheet) width(name, from, to string, w float64) {
	if err := s.f.SetColWidth(name, from, to, w); err != nil {
		s.logger.Warn("Failed to set column width", zap.String("sheet", name), zap.Error(err))
	}
}

func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "A1"
	}
	return name
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

var _ port.SpreadsheetExporter = (*XLSXExporter)(nil)
