package ledger

import (
	"strings"

	"finanzas/internal/core"
)

// ReplacePeriodSlice returns the table with every row of p replaced by
// edited. Rows of other periods and period-agnostic rows keep their order and
// come first; edited rows are stamped with p and appended. Omitting a row
// from edited deletes it.
func ReplacePeriodSlice(all []core.Row, p core.Period, edited []core.Row) []core.Row {
	out := make([]core.Row, 0, len(all)+len(edited))
	for _, r := range all {
		if rp, ok := PeriodOfRow(r); ok && rp == p {
			continue
		}
		out = append(out, r)
	}
	for _, r := range edited {
		c := r.Clone()
		c.Set(core.ColMonth, core.Int(p.Month))
		c.Set(core.ColYear, core.Int(p.Year))
		out = append(out, c)
	}
	return out
}

// accountColumns must reference a known account.
var accountColumns = []string{core.ColAccount, core.ColPayAccount}

// ValidateSlice checks rows about to be saved. monto must be present and
// numeric; every monto* column must be numeric and not negative when filled;
// account columns must name a known account. All problems are reported
// together as core.ValidationErrors.
func ValidateSlice(rows []core.Row, accounts []string) error {
	known := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		known[a] = struct{}{}
	}
	var errs core.ValidationErrors
	for i, r := range rows {
		line := i + 1
		for _, col := range r.Keys() {
			if !strings.HasPrefix(col, core.ColAmount) {
				continue
			}
			v, _ := r.Get(col)
			if v.IsBlank() {
				if col == core.ColAmount {
					errs.Add("fila %d: '%s' está vacío", line, col)
				}
				continue
			}
			d, ok := v.Decimal()
			if !ok {
				errs.Add("fila %d: '%s' no es numérico (%q)", line, col, v.String())
				continue
			}
			if d.IsNegative() {
				errs.Add("fila %d: '%s' es negativo (%s)", line, col, d.String())
			}
		}
		for _, col := range accountColumns {
			if _, present := r.Get(col); !present {
				continue
			}
			name := r.Text(col)
			if _, ok := known[name]; !ok {
				errs.Add("fila %d: cuenta no válida en '%s' (%q)", line, col, name)
			}
		}
	}
	return errs.Err()
}

// ValidateAccounts requires every account name to be filled and unique.
func ValidateAccounts(rows []core.Row) error {
	var errs core.ValidationErrors
	seen := make(map[string]int, len(rows))
	for i, r := range rows {
		line := i + 1
		name := r.Text(core.ColAccountName)
		if name == "" {
			errs.Add("fila %d: '%s' está vacío", line, core.ColAccountName)
			continue
		}
		if first, dup := seen[name]; dup {
			errs.Add("fila %d: cuenta %q repetida (ya en fila %d)", line, name, first)
			continue
		}
		seen[name] = line
	}
	return errs.Err()
}

// AccountNames returns the distinct non-blank nombre_cuenta values in
// first-seen order.
func AccountNames(rows []core.Row) []string {
	seen := make(map[string]struct{}, len(rows))
	var out []string
	for _, r := range rows {
		name := r.Text(core.ColAccountName)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// BlankRow returns an empty row for table carrying its known columns plus
// any column already used by existing rows. Period tables get mes/año of p.
func BlankRow(table string, p core.Period, existing []core.Row) (core.Row, error) {
	cols, err := core.Columns(table)
	if err != nil {
		return core.Row{}, err
	}
	var r core.Row
	for _, c := range cols {
		r.Set(c, core.Empty())
	}
	for _, c := range core.Headers(existing) {
		if _, ok := r.Get(c); !ok {
			r.Set(c, core.Empty())
		}
	}
	if core.IsPeriodTable(table) {
		r.Set(core.ColMonth, core.Int(p.Month))
		r.Set(core.ColYear, core.Int(p.Year))
	}
	return r, nil
}
