package ledger

import (
	"sort"

	"finanzas/internal/core"
)

// DefaultTopN is the size of the dashboard rankings.
const DefaultTopN = 5

// TopN groups rows by keyCol, sums amountCol and returns the n largest
// groups, ties broken by name. Rows with a blank key are skipped, as are
// groups whose total is zero when skipZero is set.
func TopN(rows []core.Row, keyCol, amountCol string, n int, skipZero bool) []core.CategoryAmount {
	idx := make(map[string]int)
	var groups []core.CategoryAmount
	for _, r := range rows {
		key := r.Text(keyCol)
		if key == "" {
			continue
		}
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, core.CategoryAmount{Name: key})
		}
		groups[i].Amount = groups[i].Amount.Add(r.Num(amountCol))
	}
	out := groups[:0]
	for _, g := range groups {
		if skipZero && g.Amount.IsZero() {
			continue
		}
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopExpenses ranks the period's fixed expenses by nombre.
func TopExpenses(t Tables, p core.Period, n int) []core.CategoryAmount {
	return TopN(FilterStrict(t.Rows(core.TableExpenses), p), core.ColName, core.ColAmount, n, false)
}

// TopProvisionsUsed ranks the period's provisions by amount used.
func TopProvisionsUsed(t Tables, p core.Period, n int) []core.CategoryAmount {
	return TopN(FilterStrict(t.Rows(core.TableProvisions), p), core.ColName, core.ColUsed, n, true)
}
