package google

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	gsheet "google.golang.org/api/sheets/v4"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"
)

// parseTable converts a values matrix (as returned by Sheets API) into rows.
// The first row is the header; columns with a blank header are dropped, as
// are rows with no value at all. Short rows are padded with empty cells.
func parseTable(values [][]interface{}) ([]core.Row, []string) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	var aliases []string
	for i, h := range headers {
		canon, aliased := ports.NormalizeHeader(h)
		if aliased {
			aliases = append(aliases, h)
		}
		headers[i] = canon
	}

	rows := make([]core.Row, 0, len(values)-1)
	for _, raw := range values[1:] {
		var r core.Row
		blank := true
		for i, h := range headers {
			if h == "" {
				continue
			}
			v := core.Empty()
			if i < len(raw) {
				v = cellValue(raw[i])
			}
			if !v.IsBlank() {
				blank = false
			}
			if _, dup := r.Get(h); dup {
				continue
			}
			r.Set(h, v)
		}
		if blank {
			continue
		}
		rows = append(rows, r)
	}
	return rows, aliases
}

// cellValue maps an unformatted cell to a Value.
func cellValue(v interface{}) core.Value {
	switch t := v.(type) {
	case nil:
		return core.Empty()
	case float64:
		return core.Num(decimal.NewFromFloat(t))
	case string:
		if strings.TrimSpace(t) == "" {
			return core.Empty()
		}
		return core.Text(t)
	default:
		return core.ValueOf(t)
	}
}

// buildGrid renders the header row followed by one row per record.
func buildGrid(headers []string, rows []core.Row) []*gsheet.RowData {
	grid := make([]*gsheet.RowData, 0, len(rows)+1)
	head := make([]*gsheet.CellData, len(headers))
	for i, h := range headers {
		head[i] = &gsheet.CellData{UserEnteredValue: &gsheet.ExtendedValue{StringValue: strPtr(h)}}
	}
	grid = append(grid, &gsheet.RowData{Values: head})
	for _, r := range rows {
		cells := make([]*gsheet.CellData, len(headers))
		for i, h := range headers {
			v, _ := r.Get(h)
			cells[i] = &gsheet.CellData{UserEnteredValue: extendedValue(v)}
		}
		grid = append(grid, &gsheet.RowData{Values: cells})
	}
	return grid
}

// extendedValue writes numbers as numbers and everything else as literal
// strings, so text starting with '=' is never evaluated as a formula.
func extendedValue(v core.Value) *gsheet.ExtendedValue {
	switch v.Kind() {
	case core.KindNumber:
		d, _ := v.Decimal()
		f := d.InexactFloat64()
		return &gsheet.ExtendedValue{NumberValue: &f, ForceSendFields: []string{"NumberValue"}}
	case core.KindText:
		return &gsheet.ExtendedValue{StringValue: strPtr(v.String())}
	}
	return nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func strPtr(s string) *string { return &s }
