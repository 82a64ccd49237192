package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// BudgetCategory maps a budget category name to the total it limits.
type BudgetCategory struct {
	Name   string
	Actual func(core.Totals) decimal.Decimal
}

// BudgetCategories are evaluated in this order.
var BudgetCategories = []BudgetCategory{
	{Name: core.TableExpenses, Actual: func(t core.Totals) decimal.Decimal { return t.ExpensesPaid }},
	{Name: core.TableDebts, Actual: func(t core.Totals) decimal.Decimal { return t.DebtOutflow }},
	{Name: core.TableProvisions, Actual: func(t core.Totals) decimal.Decimal { return t.ProvisionsUsed }},
	{Name: core.TableSavings, Actual: func(t core.Totals) decimal.Decimal { return t.SavingsDeposited }},
}

// rule produces findings for an already filtered snapshot.
type rule func(t Tables, s core.Summary) []core.Finding

var rules = []rule{
	budgetRule,
	unfundedProvisionRule,
	pendingExpenseRule,
	unpaidDebtRule,
	inconsistentUsageRule,
	overspentRule,
}

// Evaluate runs every rule against period p of the snapshot and returns the
// findings in rule order. Rules are independent; none stops the others.
func Evaluate(t Tables, p core.Period) []core.Finding {
	filtered := t.ForPeriod(p)
	s := BuildSummary(p, Aggregate(filtered))
	var out []core.Finding
	for _, r := range rules {
		out = append(out, r(filtered, s)...)
	}
	return out
}

// BudgetLimits reads categoria -> monto_maximo. Later rows win; rows with a
// non-numeric limit are ignored.
func BudgetLimits(rows []core.Row) map[string]decimal.Decimal {
	limits := make(map[string]decimal.Decimal)
	for _, r := range rows {
		cat := strings.ToLower(r.Text(core.ColCategory))
		if cat == "" {
			continue
		}
		v, _ := r.Get(core.ColBudgetLimit)
		limit, ok := v.Decimal()
		if !ok {
			continue
		}
		limits[cat] = limit
	}
	return limits
}

func budgetRule(t Tables, s core.Summary) []core.Finding {
	limits := BudgetLimits(t.Rows(core.TableBudgets))
	out := make([]core.Finding, 0, len(BudgetCategories))
	for _, c := range BudgetCategories {
		actual := c.Actual(s.Totals)
		limit, ok := limits[strings.ToLower(c.Name)]
		switch {
		case !ok:
			out = append(out, core.Finding{
				Severity: core.SeverityInfo,
				Kind:     core.FindingNoBudget,
				Subject:  c.Name,
				Message:  fmt.Sprintf("No hay presupuesto definido para %s", c.Name),
			})
		case actual.GreaterThan(limit):
			out = append(out, core.Finding{
				Severity: core.SeverityError,
				Kind:     core.FindingOverBudget,
				Subject:  c.Name,
				Message: fmt.Sprintf("Te pasaste en %s: gastaste %s (límite %s)",
					c.Name, core.FormatMoney(actual), core.FormatMoney(limit)),
			})
		default:
			out = append(out, core.Finding{
				Severity: core.SeveritySuccess,
				Kind:     core.FindingWithinBudget,
				Subject:  c.Name,
				Message: fmt.Sprintf("%s: dentro del presupuesto (%s / %s)",
					c.Name, core.FormatMoney(actual), core.FormatMoney(limit)),
			})
		}
	}
	return out
}

func unfundedProvisionRule(t Tables, _ core.Summary) []core.Finding {
	var out []core.Finding
	for _, r := range t.Rows(core.TableProvisions) {
		if !isNumericZero(r, core.ColAccumulated) {
			continue
		}
		name := orDefault(r.Text(core.ColName), "Provisión")
		out = append(out, core.Finding{
			Severity: core.SeverityError,
			Kind:     core.FindingUnfundedProvision,
			Table:    core.TableProvisions,
			Subject:  name,
			Message:  fmt.Sprintf("Provisión sin fondo: %s tiene $0 disponible", name),
		})
	}
	return out
}

func pendingExpenseRule(t Tables, _ core.Summary) []core.Finding {
	var out []core.Finding
	for _, r := range t.Rows(core.TableExpenses) {
		if !equalFold(r.Text(core.ColStatus), core.StatusPending) {
			continue
		}
		name := orDefault(r.Text(core.ColName), "Gasto fijo")
		out = append(out, core.Finding{
			Severity: core.SeverityWarning,
			Kind:     core.FindingPendingExpense,
			Table:    core.TableExpenses,
			Subject:  name,
			Message: fmt.Sprintf("Gasto pendiente: %s por %s no ha sido pagado",
				name, core.FormatMoney(r.Num(core.ColAmount))),
		})
	}
	return out
}

func unpaidDebtRule(t Tables, _ core.Summary) []core.Finding {
	var out []core.Finding
	for _, r := range t.Rows(core.TableDebts) {
		if !isNumericZero(r, core.ColMonthlyCount) {
			continue
		}
		desc := orDefault(r.Text(core.ColDescription), "Deuda")
		out = append(out, core.Finding{
			Severity: core.SeverityWarning,
			Kind:     core.FindingUnpaidDebt,
			Table:    core.TableDebts,
			Subject:  desc,
			Message: fmt.Sprintf("Deuda sin pago este mes: %s - cuota %s",
				desc, core.FormatMoney(r.Num(core.ColInstallment))),
		})
	}
	return out
}

func inconsistentUsageRule(t Tables, _ core.Summary) []core.Finding {
	var out []core.Finding
	for _, r := range t.Rows(core.TableProvisions) {
		if !IsUsedFlag(r.Text(core.ColUsedFlag)) || !r.Num(core.ColUsed).IsZero() {
			continue
		}
		name := orDefault(r.Text(core.ColName), "Provisión")
		out = append(out, core.Finding{
			Severity: core.SeverityWarning,
			Kind:     core.FindingInconsistentUsage,
			Table:    core.TableProvisions,
			Subject:  name,
			Message:  fmt.Sprintf("Provisión %s marcada como usada sin monto usado", name),
		})
	}
	return out
}

func overspentRule(_ Tables, s core.Summary) []core.Finding {
	if !s.Ingresos.LessThan(s.GastoTotal) {
		return nil
	}
	return []core.Finding{{
		Severity: core.SeverityError,
		Kind:     core.FindingOverspent,
		Message: fmt.Sprintf("Gastaste más de lo que ingresó: ingresos %s, egresos %s",
			core.FormatMoney(s.Ingresos), core.FormatMoney(s.GastoTotal)),
	}}
}

// IsUsedFlag accepts "Sí" with or without the accent, in any case.
func IsUsedFlag(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "sí" || s == "si"
}

// isNumericZero is true only when the column is present and numerically zero.
func isNumericZero(r core.Row, col string) bool {
	v, ok := r.Get(col)
	if !ok || v.IsBlank() {
		return false
	}
	d, ok := v.Decimal()
	return ok && d.IsZero()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
