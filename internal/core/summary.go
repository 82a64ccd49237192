package core

import "github.com/shopspring/decimal"

// Summary is the derived view of one period. Field names follow the
// spreadsheet's vocabulary so exports and the API read the same.
type Summary struct {
	Period                Period          `json:"period"`
	Ingresos              decimal.Decimal `json:"ingresos"`
	GastoNormal           decimal.Decimal `json:"gasto_normal"`
	GastoProvisiones      decimal.Decimal `json:"gasto_provisiones"`
	GastoAhorros          decimal.Decimal `json:"gasto_ahorros"`
	GastoTotal            decimal.Decimal `json:"gasto_total"`
	ProvisionesReservadas decimal.Decimal `json:"provisiones_reservadas"`
	AhorrosDepositados    decimal.Decimal `json:"ahorros_depositados"`
	SaldoReal             decimal.Decimal `json:"saldo_real"`
	Totals                Totals          `json:"totals"`
}

// Totals are the raw per-category aggregates of one period.
type Totals struct {
	Income             decimal.Decimal `json:"income"`
	ExpensesPaid       decimal.Decimal `json:"expenses_paid"`
	ExpensesAll        decimal.Decimal `json:"expenses_all"`
	DebtOutflow        decimal.Decimal `json:"debt_outflow"`
	ProvisionsUsed     decimal.Decimal `json:"provisions_used"`
	ProvisionsReserved decimal.Decimal `json:"provisions_reserved"`
	SavingsDeposited   decimal.Decimal `json:"savings_deposited"`
	SavingsWithdrawn   decimal.Decimal `json:"savings_withdrawn"`
	ReservesDeposited  decimal.Decimal `json:"reserves_deposited"`
	ReservesWithdrawn  decimal.Decimal `json:"reserves_withdrawn"`
}

// SeriesPoint is one month of the trailing history.
type SeriesPoint struct {
	Period  Period  `json:"period"`
	Summary Summary `json:"summary"`
}

// CategoryAmount represents an amount aggregated by name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// DueItem is one entry of the payment calendar.
type DueItem struct {
	Day         int             `json:"day"`
	Date        string          `json:"date"`
	Source      string          `json:"source"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}
