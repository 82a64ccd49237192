// Package ledger holds the pure monthly ledger engine: period filtering,
// category aggregation, summaries, findings, rollover and simulation.
// Nothing here performs I/O; callers pass table snapshots in.
package ledger

import "finanzas/internal/core"

// Tables is a snapshot of the workbook keyed by table name.
type Tables map[string][]core.Row

// Rows returns a table's rows, nil when the table is absent.
func (t Tables) Rows(name string) []core.Row { return t[name] }

// Clone copies every table of the snapshot.
func (t Tables) Clone() Tables {
	out := make(Tables, len(t))
	for name, rows := range t {
		out[name] = core.CloneRows(rows)
	}
	return out
}

// IsScoped reports whether the row carries mes or año.
func IsScoped(r core.Row) bool {
	return r.Has(core.ColMonth) || r.Has(core.ColYear)
}

// PeriodOfRow returns the period a row belongs to. ok is false when the row
// lacks either field or holds a non-integer in one of them.
func PeriodOfRow(r core.Row) (core.Period, bool) {
	m, okM := r.Int(core.ColMonth)
	y, okY := r.Int(core.ColYear)
	if !okM || !okY {
		return core.Period{}, false
	}
	return core.Period{Month: m, Year: y}, true
}

// InPeriod reports whether the row belongs to p. Rows lacking both mes and
// año are period-agnostic and always belong. A row carrying only one of them
// belongs to no period.
func InPeriod(r core.Row, p core.Period) bool {
	if !IsScoped(r) {
		return true
	}
	rp, ok := PeriodOfRow(r)
	return ok && rp == p
}

// Filter returns the rows of p plus period-agnostic rows, preserving order.
func Filter(rows []core.Row, p core.Period) []core.Row {
	out := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		if InPeriod(r, p) {
			out = append(out, r)
		}
	}
	return out
}

// FilterStrict returns only rows that carry exactly period p.
func FilterStrict(rows []core.Row, p core.Period) []core.Row {
	out := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		if rp, ok := PeriodOfRow(r); ok && rp == p {
			out = append(out, r)
		}
	}
	return out
}

// FilterStatus keeps rows whose estado matches, case-insensitively.
// An empty status keeps everything.
func FilterStatus(rows []core.Row, status string) []core.Row {
	if status == "" {
		return rows
	}
	out := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		if equalFold(r.Text(core.ColStatus), status) {
			out = append(out, r)
		}
	}
	return out
}

// FilterYear keeps rows of the given año. Rows without año pass through.
func FilterYear(rows []core.Row, year int) []core.Row {
	out := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		y, ok := r.Int(core.ColYear)
		if !r.Has(core.ColYear) || (ok && y == year) {
			out = append(out, r)
		}
	}
	return out
}

// ForPeriod filters every table of the snapshot to p.
func (t Tables) ForPeriod(p core.Period) Tables {
	out := make(Tables, len(t))
	for name, rows := range t {
		out[name] = Filter(rows, p)
	}
	return out
}
