package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

var feb10 = time.Date(2025, time.February, 10, 8, 0, 0, 0, time.UTC)

func januaryOnly() map[string][]core.Row {
	wb := sampleWorkbook()
	wb[core.TableIncome] = wb[core.TableIncome][:2]
	return wb
}

func TestRolloverScheduler_RollsPreviousMonthOnce(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(januaryOnly())
	svc := NewLedgerService(store, ledger.RolloverRules{})
	log := NewMemoryRolloverLog()
	sched := NewRolloverScheduler(svc, log, time.Hour)

	ran, err := sched.RunOnce(ctx, feb10)
	require.NoError(t, err)
	assert.True(t, ran)

	rows, err := store.Store.ReadTable(ctx, core.TableExpenses)
	require.NoError(t, err)
	assert.Len(t, ledger.FilterStrict(rows, feb25), 2)

	done, err := log.HasRollover(ctx, jan25)
	require.NoError(t, err)
	assert.True(t, done)

	ran, err = sched.RunOnce(ctx, feb10.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ran, "already recorded")
}

func TestRolloverScheduler_NeverOverwritesFilledMonth(t *testing.T) {
	ctx := context.Background()
	wb := januaryOnly()
	wb[core.TableDebts] = append(wb[core.TableDebts],
		core.NewRow("mes", 2, "año", 2025, "descripcion", "Auto", "monto_cuota", 300, "cuotas_mes", 1))
	store := newFlakyStore(wb)
	svc := NewLedgerService(store, ledger.RolloverRules{})
	sched := NewRolloverScheduler(svc, NewMemoryRolloverLog(), time.Hour)

	ran, err := sched.RunOnce(ctx, feb10)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 0, store.writeCalls)
}

func TestRolloverScheduler_RetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(januaryOnly())
	store.failRead[core.TableDebts] = true
	svc := NewLedgerService(store, ledger.RolloverRules{})
	log := NewMemoryRolloverLog()
	sched := NewRolloverScheduler(svc, log, time.Hour)

	_, err := sched.RunOnce(ctx, feb10)
	assert.Error(t, err)
	done, _ := log.HasRollover(ctx, jan25)
	assert.False(t, done)

	store.mu.Lock()
	store.failRead[core.TableDebts] = false
	store.mu.Unlock()

	ran, err := sched.RunOnce(ctx, feb10)
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestRolloverScheduler_RetriesAfterPartialWriteFailure(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(januaryOnly())
	store.failWrite[core.TableDebts] = true
	svc := NewLedgerService(store, ledger.RolloverRules{})
	log := NewMemoryRolloverLog()
	sched := NewRolloverScheduler(svc, log, time.Hour)

	_, err := sched.RunOnce(ctx, feb10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), core.TableDebts)

	rolled, err := log.RolledTables(ctx, jan25)
	require.NoError(t, err)
	assert.NotContains(t, rolled, core.TableDebts)
	assert.Contains(t, rolled, core.TableExpenses)

	store.mu.Lock()
	store.failWrite[core.TableDebts] = false
	writesBefore := store.writeCalls
	store.mu.Unlock()

	ran, err := sched.RunOnce(ctx, feb10.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, store.writeCalls-writesBefore, "only the failed table is written again")

	debts, err := store.Store.ReadTable(ctx, core.TableDebts)
	require.NoError(t, err)
	feb := ledger.FilterStrict(debts, feb25)
	require.Len(t, feb, 1)
	paid, ok := feb[0].Int("cuotas_mes")
	require.True(t, ok)
	assert.Zero(t, paid)

	expenses, err := store.Store.ReadTable(ctx, core.TableExpenses)
	require.NoError(t, err)
	assert.Len(t, ledger.FilterStrict(expenses, feb25), 2, "no duplicates from the retry")

	done, err := log.HasRollover(ctx, jan25)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRolloverScheduler_ResumeKeepsTableFilledMeanwhile(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore(januaryOnly())
	store.failWrite[core.TableDebts] = true
	svc := NewLedgerService(store, ledger.RolloverRules{})
	log := NewMemoryRolloverLog()
	sched := NewRolloverScheduler(svc, log, time.Hour)

	_, err := sched.RunOnce(ctx, feb10)
	require.Error(t, err)

	debts, err := store.Store.ReadTable(ctx, core.TableDebts)
	require.NoError(t, err)
	debts = append(debts, core.NewRow("mes", 2, "año", 2025, "descripcion", "Moto", "monto_cuota", 90, "cuotas_mes", 1))
	require.NoError(t, store.Store.WriteTable(ctx, core.TableDebts, debts))

	store.mu.Lock()
	store.failWrite[core.TableDebts] = false
	writesBefore := store.writeCalls
	store.mu.Unlock()

	ran, err := sched.RunOnce(ctx, feb10.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, writesBefore, store.writeCalls)

	debts, err = store.Store.ReadTable(ctx, core.TableDebts)
	require.NoError(t, err)
	feb := ledger.FilterStrict(debts, feb25)
	require.Len(t, feb, 1)
	assert.Equal(t, "Moto", feb[0].Text("descripcion"))
}

func TestRolloverScheduler_StartStop(t *testing.T) {
	svc := NewLedgerService(newFlakyStore(nil), ledger.RolloverRules{})
	svc.now = func() time.Time { return feb10 }
	sched := NewRolloverScheduler(svc, NewMemoryRolloverLog(), time.Hour)

	ctx := context.Background()
	require.NoError(t, sched.Start(ctx))
	assert.Error(t, sched.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, sched.Stop(stopCtx))
	require.NoError(t, sched.Stop(stopCtx))
}
