// Package export writes ledger data as spreadsheet files for download.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

// SummarySheet is the first sheet of the monthly workbook.
const SummarySheet = "Resumen"

type styles struct {
	header int
	money  int
	total  int
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "D9D9D9", Style: 1},
		{Type: "top", Color: "D9D9D9", Style: 1},
		{Type: "bottom", Color: "D9D9D9", Style: 1},
		{Type: "right", Color: "D9D9D9", Style: 1},
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return styles{}, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4, Border: border})
	if err != nil {
		return styles{}, err
	}
	total, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		NumFmt: 4,
		Border: border,
	})
	if err != nil {
		return styles{}, err
	}
	return styles{header: header, money: money, total: total}, nil
}

// SummaryWorkbook writes the summary of one month, a pie chart of where the
// money went and one sheet per table with that month's rows.
func SummaryWorkbook(w io.Writer, s core.Summary, t ledger.Tables) error {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}

	if err := writeSummary(f, st, s); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	slices := t.ForPeriod(s.Period)
	for _, name := range core.PeriodTables() {
		if err := writeTable(f, st, name, slices.Rows(name)); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return f.Write(w)
}

type summaryLine struct {
	label string
	value decimal.Decimal
	total bool
}

func summaryLines(s core.Summary) []summaryLine {
	return []summaryLine{
		{label: "Ingresos", value: s.Ingresos},
		{label: "Gasto normal", value: s.GastoNormal},
		{label: "Gasto provisiones", value: s.GastoProvisiones},
		{label: "Gasto ahorros", value: s.GastoAhorros},
		{label: "Gasto total", value: s.GastoTotal, total: true},
		{label: "Provisiones reservadas", value: s.ProvisionesReservadas},
		{label: "Ahorros depositados", value: s.AhorrosDepositados},
		{label: "Saldo real", value: s.SaldoReal, total: true},
	}
}

// outflowLines feed the pie chart. Each one is a part of what left the
// month's income.
var outflowLines = []string{"Gasto normal", "Gasto provisiones", "Gasto ahorros", "Provisiones reservadas", "Ahorros depositados"}

func writeSummary(f *excelize.File, st styles, s core.Summary) error {
	sh := SummarySheet
	if err := f.SetCellValue(sh, "A1", "Periodo"); err != nil {
		return err
	}
	if err := f.SetCellValue(sh, "B1", s.Period.String()); err != nil {
		return err
	}
	if err := f.SetSheetRow(sh, "A3", &[]any{"Concepto", "Monto"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sh, "A3", "B3", st.header); err != nil {
		return err
	}

	row := 4
	values := make(map[string]decimal.Decimal)
	for _, l := range summaryLines(s) {
		a, b := fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row)
		if err := f.SetSheetRow(sh, a, &[]any{l.label, l.value.InexactFloat64()}); err != nil {
			return err
		}
		style := st.money
		if l.total {
			style = st.total
		}
		if err := f.SetCellStyle(sh, b, b, style); err != nil {
			return err
		}
		values[l.label] = l.value
		row++
	}
	if err := f.SetColWidth(sh, "A", "A", 26); err != nil {
		return err
	}
	if err := f.SetColWidth(sh, "B", "B", 16); err != nil {
		return err
	}

	// The chart reads one contiguous block of outflows, kept below the
	// summary.
	row += 2
	first := row
	for _, label := range outflowLines {
		if err := f.SetSheetRow(sh, fmt.Sprintf("A%d", row), &[]any{label, values[label].InexactFloat64()}); err != nil {
			return err
		}
		row++
	}
	last := row - 1

	if s.GastoTotal.Add(s.ProvisionesReservadas).Add(s.AhorrosDepositados).IsZero() {
		return nil
	}
	return f.AddChart(sh, "D3", &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$A$3", SummarySheet),
			Categories: fmt.Sprintf("%s!$A$%d:$A$%d", SummarySheet, first, last),
			Values:     fmt.Sprintf("%s!$B$%d:$B$%d", SummarySheet, first, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Distribución de salidas " + s.Period.String()}},
		Legend: excelize.ChartLegend{Position: "right"},
		PlotArea: excelize.ChartPlotArea{
			ShowPercent: true,
		},
	})
}

// writeTable adds a sheet holding rows with a styled header row. The
// columns are the table's known columns followed by any extra column found
// in the rows.
func writeTable(f *excelize.File, st styles, name string, rows []core.Row) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	cols, err := core.Columns(name)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	for _, c := range core.Headers(rows) {
		if !seen[c] {
			cols = append(cols, c)
			seen[c] = true
		}
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", lastCol+"1", st.header); err != nil {
		return err
	}

	for i, r := range rows {
		line := make([]any, len(cols))
		for j, c := range cols {
			v, _ := r.Get(c)
			line[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &line); err != nil {
			return err
		}
	}
	return f.SetColWidth(name, "A", lastCol, 16)
}

func cellValue(v core.Value) any {
	switch v.Kind() {
	case core.KindNumber:
		d, _ := v.Decimal()
		return d.InexactFloat64()
	case core.KindText:
		return v.String()
	default:
		return nil
	}
}
