package core

import (
	"errors"
	"fmt"
	"strings"
)

// Table names as they appear in the spreadsheet.
const (
	TableIncome     = "Ingresos"
	TableExpenses   = "Gastos Fijos"
	TableDebts      = "Deudas"
	TableProvisions = "Provisiones"
	TableSavings    = "Ahorros"
	TableReserves   = "Reservas Familiares"
	TableAccounts   = "Cuentas"
	TableBudgets    = "Presupuestos"
)

// Column names shared by several tables.
const (
	ColMonth        = "mes"
	ColYear         = "año"
	ColDay          = "día"
	ColAmount       = "monto"
	ColName         = "nombre"
	ColDescription  = "descripcion"
	ColStatus       = "estado"
	ColAccount      = "cuenta"
	ColPayAccount   = "cuenta_pago"
	ColInstallment  = "monto_cuota"
	ColMonthlyCount = "cuotas_mes"
	ColUsed         = "monto_usado"
	ColUsedFlag     = "se_usó"
	ColAccumulated  = "total_acumulado"
	ColDeposited    = "monto_ingreso"
	ColWithdrawn    = "monto_retirado"
	ColAccountName  = "nombre_cuenta"
	ColCategory     = "categoria"
	ColBudgetLimit  = "monto_maximo"
	ColSource       = "fuente"
	ColObjective    = "objetivo"
	ColBank         = "banco"
	ColAccountType  = "tipo_cuenta"
)

// Status values used by fixed expenses.
const (
	StatusPaid    = "pagado"
	StatusPending = "pendiente"
)

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrUnknownTable  = errors.New("unknown table")
	ErrNotConfirmed  = errors.New("save not confirmed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidAmount = errors.New("invalid amount")
)

// tableColumns lists the known columns of every table, in display order.
var tableColumns = map[string][]string{
	TableIncome:     {ColMonth, ColYear, ColSource, ColAmount, ColAccount},
	TableExpenses:   {ColMonth, ColYear, ColDay, ColName, ColAmount, ColStatus, ColPayAccount},
	TableDebts:      {ColMonth, ColYear, ColDay, ColDescription, ColInstallment, ColMonthlyCount},
	TableProvisions: {ColMonth, ColYear, ColName, ColAmount, ColUsed, ColUsedFlag, ColAccumulated},
	TableSavings:    {ColMonth, ColYear, ColObjective, ColDeposited, ColWithdrawn, ColAccount},
	TableReserves:   {ColMonth, ColYear, ColAccount, ColDeposited, ColWithdrawn},
	TableAccounts:   {ColAccountName, ColBank, ColAccountType},
	TableBudgets:    {ColMonth, ColYear, ColCategory, ColBudgetLimit},
}

// Tables returns every known table name in a stable order.
func Tables() []string {
	return []string{
		TableIncome, TableExpenses, TableDebts, TableProvisions,
		TableSavings, TableReserves, TableAccounts, TableBudgets,
	}
}

// PeriodTables returns the tables whose rows carry mes/año.
func PeriodTables() []string {
	return []string{
		TableIncome, TableExpenses, TableDebts, TableProvisions,
		TableSavings, TableReserves, TableBudgets,
	}
}

// Columns returns the known columns of a table.
func Columns(table string) ([]string, error) {
	cols, ok := tableColumns[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return append([]string(nil), cols...), nil
}

// ValidateTable returns ErrUnknownTable for names outside the workbook.
func ValidateTable(table string) error {
	_, err := Columns(table)
	return err
}

// IsPeriodTable reports whether rows of the table are scoped to a month.
func IsPeriodTable(table string) bool {
	return table != TableAccounts && ValidateTable(table) == nil
}

// ValidationErrors collects every problem found while validating a save.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	return "validation failed:\n- " + strings.Join(v, "\n- ")
}

// Add appends a formatted problem.
func (v *ValidationErrors) Add(format string, args ...any) {
	*v = append(*v, fmt.Sprintf(format, args...))
}

// Err returns nil when nothing was collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
