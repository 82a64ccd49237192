package ledger

import (
	"github.com/shopspring/decimal"

	"finanzas/internal/core"
)

var (
	jan25 = core.Period{Month: 1, Year: 2025}
	feb25 = core.Period{Month: 2, Year: 2025}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// sampleTables is a small but complete workbook for January and February 2025.
func sampleTables() Tables {
	return Tables{
		core.TableIncome: {
			core.NewRow("mes", 1, "año", 2025, "fuente", "Sueldo", "monto", 1000, "cuenta", "Banco A"),
			core.NewRow("mes", 1, "año", 2025, "fuente", "Extra", "monto", 2000, "cuenta", "Banco A"),
			core.NewRow("mes", 2, "año", 2025, "fuente", "Sueldo", "monto", 500, "cuenta", "Banco A"),
		},
		core.TableExpenses: {
			core.NewRow("mes", 1, "año", 2025, "día", 10, "nombre", "Luz", "monto", 100, "estado", "pagado", "cuenta_pago", "Banco A"),
			core.NewRow("mes", 1, "año", 2025, "día", 3, "nombre", "Agua", "monto", 50, "estado", "Pendiente", "cuenta_pago", "Banco A"),
			core.NewRow("mes", 2, "año", 2025, "nombre", "Luz", "monto", 110, "estado", "pagado", "cuenta_pago", "Banco A"),
		},
		core.TableDebts: {
			core.NewRow("mes", 1, "año", 2025, "día", 31, "descripcion", "Auto", "monto_cuota", 300, "cuotas_mes", 1),
			core.NewRow("mes", 1, "año", 2025, "descripcion", "Tarjeta", "monto_cuota", 80, "cuotas_mes", 0),
		},
		core.TableProvisions: {
			core.NewRow("mes", 1, "año", 2025, "nombre", "Vacaciones", "monto", 200, "monto_usado", 40, "se_usó", "Sí", "total_acumulado", 600),
		},
		core.TableSavings: {
			core.NewRow("mes", 1, "año", 2025, "objetivo", "Fondo", "monto_ingreso", 150, "monto_retirado", 20, "cuenta", "Banco B"),
		},
		core.TableAccounts: {
			core.NewRow("nombre_cuenta", "Banco A", "banco", "A", "tipo_cuenta", "corriente"),
			core.NewRow("nombre_cuenta", "Banco B", "banco", "B", "tipo_cuenta", "ahorro"),
		},
	}
}
