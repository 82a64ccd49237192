package ledger

import (
	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

// Overrides replace real aggregates in a projection. Nil fields keep the
// current period's value.
type Overrides struct {
	Ingresos              *decimal.Decimal `json:"ingresos,omitempty"`
	GastosFijos           *decimal.Decimal `json:"gastos_fijos,omitempty"`
	Deudas                *decimal.Decimal `json:"deudas,omitempty"`
	Provisiones           *decimal.Decimal `json:"provisiones,omitempty"`
	Ahorros               *decimal.Decimal `json:"ahorros,omitempty"`
	ProvisionesReservadas *decimal.Decimal `json:"provisiones_reservadas,omitempty"`
	AhorrosDepositados    *decimal.Decimal `json:"ahorros_depositados,omitempty"`
}

// Projection is the simulated summary of the month after Base.
type Projection struct {
	Base            core.Period     `json:"base"`
	Target          core.Period     `json:"target"`
	Summary         core.Summary    `json:"summary"`
	SaldoProyectado decimal.Decimal `json:"saldo_proyectado"`
}

// Simulate projects the next month from the current summary and overrides
// using the same formula as BuildSummary. It never touches the store.
func Simulate(current core.Summary, o Overrides) Projection {
	tot := current.Totals
	apply(&tot.Income, o.Ingresos)
	apply(&tot.ExpensesPaid, o.GastosFijos)
	apply(&tot.DebtOutflow, o.Deudas)
	apply(&tot.ProvisionsUsed, o.Provisiones)
	apply(&tot.SavingsWithdrawn, o.Ahorros)
	apply(&tot.ProvisionsReserved, o.ProvisionesReservadas)
	apply(&tot.SavingsDeposited, o.AhorrosDepositados)

	target := current.Period.Next()
	s := BuildSummary(target, tot)
	return Projection{
		Base:            current.Period,
		Target:          target,
		Summary:         s,
		SaldoProyectado: s.SaldoReal,
	}
}

func apply(dst *decimal.Decimal, v *decimal.Decimal) {
	if v != nil {
		*dst = *v
	}
}
