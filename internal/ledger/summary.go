package ledger

import (
	"sort"

	"finanzas/internal/core"
)

// DefaultSeriesLength is the number of months kept by TimeSeries.
const DefaultSeriesLength = 12

// BuildSummary derives the period summary from category totals.
func BuildSummary(p core.Period, tot core.Totals) core.Summary {
	s := core.Summary{
		Period:                p,
		Ingresos:              tot.Income,
		GastoNormal:           tot.ExpensesPaid.Add(tot.DebtOutflow),
		GastoProvisiones:      tot.ProvisionsUsed,
		GastoAhorros:          tot.SavingsWithdrawn,
		ProvisionesReservadas: tot.ProvisionsReserved,
		AhorrosDepositados:    tot.SavingsDeposited,
		Totals:                tot,
	}
	s.GastoTotal = s.GastoNormal.Add(s.GastoProvisiones).Add(s.GastoAhorros)
	s.SaldoReal = s.Ingresos.Sub(s.GastoTotal).Sub(s.ProvisionesReservadas).Sub(s.AhorrosDepositados)
	return s
}

// Summarize filters the snapshot to p and builds its summary.
func Summarize(t Tables, p core.Period) core.Summary {
	return BuildSummary(p, Aggregate(t.ForPeriod(p)))
}

// seriesTables are grouped by (año, mes) for the history. Budgets are limits,
// not flows, so they never create a month of their own.
var seriesTables = []string{
	core.TableIncome, core.TableExpenses, core.TableDebts,
	core.TableProvisions, core.TableSavings, core.TableReserves,
}

// TimeSeries groups every flow table by period, fills months missing from a
// table with zero, sorts chronologically and keeps the last n periods.
// n <= 0 means DefaultSeriesLength.
func TimeSeries(t Tables, n int) []core.SeriesPoint {
	if n <= 0 {
		n = DefaultSeriesLength
	}
	groups := make(map[core.Period]Tables)
	for _, name := range seriesTables {
		for _, r := range t.Rows(name) {
			p, ok := PeriodOfRow(r)
			if !ok || p.Validate() != nil {
				continue
			}
			g, exists := groups[p]
			if !exists {
				g = make(Tables)
				groups[p] = g
			}
			g[name] = append(g[name], r)
		}
	}

	periods := make([]core.Period, 0, len(groups))
	for p := range groups {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
	if len(periods) > n {
		periods = periods[len(periods)-n:]
	}

	out := make([]core.SeriesPoint, 0, len(periods))
	for _, p := range periods {
		out = append(out, core.SeriesPoint{Period: p, Summary: BuildSummary(p, Aggregate(groups[p]))})
	}
	return out
}
