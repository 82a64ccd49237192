package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// Aggregate sums the category totals of an already filtered snapshot.
// Missing tables and columns count as zero.
func Aggregate(t Tables) core.Totals {
	var tot core.Totals
	tot.Income = sumColumn(t.Rows(core.TableIncome), core.ColAmount)

	for _, r := range t.Rows(core.TableExpenses) {
		amount := r.Num(core.ColAmount)
		tot.ExpensesAll = tot.ExpensesAll.Add(amount)
		if equalFold(r.Text(core.ColStatus), core.StatusPaid) {
			tot.ExpensesPaid = tot.ExpensesPaid.Add(amount)
		}
	}

	for _, r := range t.Rows(core.TableDebts) {
		tot.DebtOutflow = tot.DebtOutflow.Add(DebtPayment(r))
	}

	provisions := t.Rows(core.TableProvisions)
	tot.ProvisionsUsed = sumColumn(provisions, core.ColUsed)
	tot.ProvisionsReserved = sumColumn(provisions, core.ColAmount)

	savings := t.Rows(core.TableSavings)
	tot.SavingsDeposited = sumColumn(savings, core.ColDeposited)
	tot.SavingsWithdrawn = sumColumn(savings, core.ColWithdrawn)

	for _, r := range t.Rows(core.TableReserves) {
		if r.Has(core.ColDeposited) {
			tot.ReservesDeposited = tot.ReservesDeposited.Add(r.Num(core.ColDeposited))
		} else {
			tot.ReservesDeposited = tot.ReservesDeposited.Add(r.Num(core.ColAmount))
		}
		tot.ReservesWithdrawn = tot.ReservesWithdrawn.Add(r.Num(core.ColWithdrawn))
	}
	return tot
}

// DebtPayment is what a debt row costs this period: installment times the
// number of installments paid. Zero installments cost nothing.
func DebtPayment(r core.Row) decimal.Decimal {
	return r.Num(core.ColInstallment).Mul(r.Num(core.ColMonthlyCount))
}

func sumColumn(rows []core.Row, col string) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Num(col))
	}
	return total
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
