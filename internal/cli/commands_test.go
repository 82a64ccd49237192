package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/services"
	"finanzas/internal/sheets/memory"
)

func testWorkbook() map[string][]core.Row {
	return map[string][]core.Row{
		core.TableIncome: {
			core.NewRow("mes", 1, "año", 2025, "fuente", "Sueldo", "monto", 1000, "cuenta", "Banco A"),
		},
		core.TableExpenses: {
			core.NewRow("mes", 1, "año", 2025, "nombre", "Luz", "monto", 100, "estado", "pagado"),
		},
		core.TableAccounts: {
			core.NewRow("nombre_cuenta", "Banco A"),
		},
	}
}

type opener struct {
	store  *memory.Store
	opened int
	closed int
}

func (o *opener) open(ctx context.Context, _ string) (*services.LedgerService, func() error, error) {
	o.opened++
	return services.NewLedgerService(o.store, ledger.RolloverRules{}), func() error {
		o.closed++
		return nil
	}, nil
}

func run(t *testing.T, o *opener, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Run(context.Background(), o.open, args, &out, &errOut)
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	o := &opener{store: memory.New(testWorkbook())}
	out, err := run(t, o, "summary", "--month", "1", "--year", "2025")
	require.NoError(t, err)

	var got struct {
		Data core.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "1000", got.Data.Ingresos.String())
	assert.Equal(t, 1, o.opened)
	assert.Equal(t, 1, o.closed)
}

func TestInvalidPeriodStillCloses(t *testing.T) {
	o := &opener{store: memory.New(testWorkbook())}
	_, err := run(t, o, "findings", "--month", "13", "--year", "2025")
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
	assert.Equal(t, 1, o.closed)
}

func TestOpenFailure(t *testing.T) {
	failing := func(context.Context, string) (*services.LedgerService, func() error, error) {
		return nil, nil, errors.New("no credentials")
	}
	err := Run(context.Background(), failing, []string{"series"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "no credentials")
}

func TestRolloverCommand(t *testing.T) {
	o := &opener{store: memory.New(testWorkbook())}
	out, err := run(t, o, "rollover", "--month", "1", "--year", "2025")
	require.NoError(t, err)
	assert.Contains(t, out, `"status"`)

	rows, err := o.store.ReadTable(context.Background(), core.TableExpenses)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[1].Text("mes"))
}

func TestSimulateCommand(t *testing.T) {
	o := &opener{store: memory.New(testWorkbook())}
	out, err := run(t, o, "simulate", "--month", "1", "--year", "2025", "--ingresos", "2000")
	require.NoError(t, err)

	var got struct {
		Data ledger.Projection `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, core.Period{Month: 2, Year: 2025}, got.Data.Target)
	assert.Equal(t, "2000", got.Data.Summary.Ingresos.String())

	_, err = run(t, o, "simulate", "--ingresos", "mucho")
	assert.Error(t, err)
}

func TestExportCommands(t *testing.T) {
	o := &opener{store: memory.New(testWorkbook())}
	dir := t.TempDir()

	tests := []struct {
		args   []string
		file   string
		prefix string
	}{
		{[]string{"export", "summary", "--month", "1", "--year", "2025"}, "resumen.xlsx", "PK"},
		{[]string{"export", "history", "--year", "2025"}, "historial.xlsx", "PK"},
		{[]string{"export", "series"}, "serie.csv", "año,mes"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			_, err := run(t, o, append(tt.args, "--out", path)...)
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(data), tt.prefix))
		})
	}

	_, err := run(t, o, "export", "series")
	assert.Error(t, err, "--out is required")
}

func TestHashPinCommand(t *testing.T) {
	o := &opener{}
	out, err := run(t, o, "hash-pin", "4321")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("4321")))
	assert.Zero(t, o.opened, "hash-pin does not open the ledger")
}

func TestLoadRolloverRules(t *testing.T) {
	rules, err := LoadRolloverRules("")
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultRolloverRules(), rules)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tables:\n  - name: Ahorros\n"), 0o600))
	rules, err = LoadRolloverRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{core.TableSavings}, rules.TableNames())

	_, err = LoadRolloverRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
