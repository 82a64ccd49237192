package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// DefaultDueDay is used when a row has no día.
const DefaultDueDay = 5

// Calendar lists the period's debt installments and fixed expenses by due
// day. Days past the end of the month fall on its last day.
func Calendar(t Tables, p core.Period) []core.DueItem {
	var items []core.DueItem
	for _, r := range Filter(t.Rows(core.TableDebts), p) {
		items = append(items, dueItem(r, p, core.TableDebts,
			orDefault(r.Text(core.ColDescription), "Deuda"), r.Num(core.ColInstallment)))
	}
	for _, r := range Filter(t.Rows(core.TableExpenses), p) {
		items = append(items, dueItem(r, p, core.TableExpenses,
			orDefault(r.Text(core.ColName), "Gasto Fijo"), r.Num(core.ColAmount)))
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Day < items[j].Day })
	return items
}

func dueItem(r core.Row, p core.Period, source, desc string, amount decimal.Decimal) core.DueItem {
	day, ok := r.Int(core.ColDay)
	if !ok {
		day = DefaultDueDay
	}
	if day < 1 {
		day = 1
	}
	if last := p.DaysIn(); day > last {
		day = last
	}
	date := p.FirstDay().AddDate(0, 0, day-1)
	return core.DueItem{
		Day:         day,
		Date:        date.Format("02-01-2006"),
		Source:      source,
		Description: desc,
		Amount:      amount,
	}
}
