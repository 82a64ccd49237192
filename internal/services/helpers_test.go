package services

import (
	"context"
	"errors"
	"sync"

	"finanzas/internal/core"
	"finanzas/internal/sheets/memory"
)

var (
	jan25 = core.Period{Month: 1, Year: 2025}
	feb25 = core.Period{Month: 2, Year: 2025}
)

var errUnavailable = errors.New("sheet unavailable")

// flakyStore wraps the memory store and fails reads or writes of chosen
// tables.
type flakyStore struct {
	*memory.Store

	mu         sync.Mutex
	failRead   map[string]bool
	failWrite  map[string]bool
	reads      map[string]int
	writeCalls int
}

func newFlakyStore(tables map[string][]core.Row) *flakyStore {
	return &flakyStore{
		Store:     memory.New(tables),
		failRead:  map[string]bool{},
		failWrite: map[string]bool{},
		reads:     map[string]int{},
	}
}

func (f *flakyStore) ReadTable(ctx context.Context, name string) ([]core.Row, error) {
	f.mu.Lock()
	f.reads[name]++
	fail := f.failRead[name]
	f.mu.Unlock()
	if fail {
		return nil, errUnavailable
	}
	return f.Store.ReadTable(ctx, name)
}

func (f *flakyStore) WriteTable(ctx context.Context, name string, rows []core.Row) error {
	f.mu.Lock()
	f.writeCalls++
	fail := f.failWrite[name]
	f.mu.Unlock()
	if fail {
		return errUnavailable
	}
	return f.Store.WriteTable(ctx, name, rows)
}

func (f *flakyStore) readCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[name]
}

func sampleWorkbook() map[string][]core.Row {
	return map[string][]core.Row{
		core.TableIncome: {
			core.NewRow("mes", 1, "año", 2025, "fuente", "Sueldo", "monto", 1000, "cuenta", "Banco A"),
			core.NewRow("mes", 1, "año", 2025, "fuente", "Extra", "monto", 2000, "cuenta", "Banco A"),
			core.NewRow("mes", 2, "año", 2025, "fuente", "Sueldo", "monto", 500, "cuenta", "Banco A"),
		},
		core.TableExpenses: {
			core.NewRow("mes", 1, "año", 2025, "día", 10, "nombre", "Luz", "monto", 100, "estado", "pagado", "cuenta_pago", "Banco A"),
			core.NewRow("mes", 1, "año", 2025, "día", 3, "nombre", "Agua", "monto", 50, "estado", "pendiente", "cuenta_pago", "Banco A"),
		},
		core.TableDebts: {
			core.NewRow("mes", 1, "año", 2025, "descripcion", "Auto", "monto_cuota", 300, "cuotas_mes", 1),
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

func confirmedSession(tables ...string) *Session {
	s := NewSession("test")
	s.Authorize()
	for _, t := range tables {
		s.SetConfirmed(t, true)
	}
	return s
}
