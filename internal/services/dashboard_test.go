package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

func TestDashboard(t *testing.T) {
	store := newFlakyStore(sampleWorkbook())
	svc := NewLedgerService(store, ledger.RolloverRules{})

	d, err := svc.Dashboard(context.Background(), jan25)
	require.NoError(t, err)

	assert.Empty(t, d.Summary.Error)
	assert.Equal(t, "3000", d.Summary.Data.Ingresos.String())
	assert.NotEmpty(t, d.Findings.Data)
	assert.Len(t, d.Series.Data, 2)
	assert.Len(t, d.Calendar.Data, 3)
	require.NotEmpty(t, d.TopExpenses.Data)
	assert.Equal(t, "Luz", d.TopExpenses.Data[0].Name)
	assert.Equal(t, "Vacaciones", d.TopProvisions.Data[0].Name)

	// One snapshot feeds every section.
	assert.Equal(t, 1, store.readCount(core.TableIncome))
}

func TestDashboard_WarnsOnUnavailableTable(t *testing.T) {
	store := newFlakyStore(sampleWorkbook())
	store.failRead[core.TableIncome] = true
	svc := NewLedgerService(store, ledger.RolloverRules{})

	d, err := svc.Dashboard(context.Background(), jan25)
	require.NoError(t, err)
	require.Len(t, d.Warnings, 1)
	assert.True(t, d.Summary.Data.Ingresos.IsZero())
	assert.Empty(t, d.Summary.Error)
}

func TestSection_IsolatesFailures(t *testing.T) {
	ctx := context.Background()

	failed := section(ctx, "boom", func() (int, error) { return 0, errors.New("division by zero") })
	assert.Equal(t, "division by zero", failed.Error)

	panicked := section(ctx, "panic", func() ([]string, error) {
		var m map[string][]string
		m["x"] = nil
		return nil, nil
	})
	assert.Contains(t, panicked.Error, "panic")
	assert.Nil(t, panicked.Data)

	ok := section(ctx, "ok", func() (int, error) { return 42, nil })
	assert.Equal(t, 42, ok.Data)
	assert.Empty(t, ok.Error)
}
