package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepository_ReadWrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rows, err := repo.ReadTable(ctx, core.TableProvisions)
	require.NoError(t, err)
	assert.Empty(t, rows)

	in := []core.Row{
		core.NewRow("mes", 1, "año", 2025, "nombre", "Vacaciones", "monto", "100.50", "se_usó", "No", "nota", nil),
		core.NewRow("mes", 2, "año", 2025, "nombre", "Salud", "monto", 20),
	}
	v1, err := repo.WriteTableVersioned(ctx, core.TableProvisions, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1)

	rows, err = repo.ReadTable(ctx, core.TableProvisions)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, in[0].Equal(rows[0]), "rows round-trip with column order and kinds")
	assert.Equal(t, "Salud", rows[1].Text("nombre"))

	// full replace
	require.NoError(t, repo.WriteTable(ctx, core.TableProvisions, in[1:]))
	rows, err = repo.ReadTable(ctx, core.TableProvisions)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	tv, err := repo.TableVersion(ctx, core.TableProvisions)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tv.Version)
}

func TestSQLiteRepository_UnknownTable(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.ReadTable(context.Background(), "Otra")
	assert.True(t, errors.Is(err, core.ErrUnknownTable))
	assert.True(t, errors.Is(repo.WriteTable(context.Background(), "Otra", nil), core.ErrUnknownTable))
}

func TestSQLiteRepository_SyncTracking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.WriteTableVersioned(ctx, core.TableIncome, []core.Row{core.NewRow("monto", 1)})
	require.NoError(t, err)
	v2, err := repo.WriteTableVersioned(ctx, core.TableIncome, []core.Row{core.NewRow("monto", 2)})
	require.NoError(t, err)
	_, err = repo.WriteTableVersioned(ctx, core.TableAccounts, nil)
	require.NoError(t, err)

	pending, err := repo.GetPendingSyncTables(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, repo.MarkSyncError(ctx, core.TableIncome, errors.New("quota exceeded")))
	tv, err := repo.TableVersion(ctx, core.TableIncome)
	require.NoError(t, err)
	assert.Equal(t, "quota exceeded", tv.SyncError)

	require.NoError(t, repo.MarkSynced(ctx, core.TableIncome, v2))
	require.NoError(t, repo.MarkSynced(ctx, core.TableIncome, 1), "older versions never move the marker back")
	tv, err = repo.TableVersion(ctx, core.TableIncome)
	require.NoError(t, err)
	assert.Equal(t, v2, tv.SyncedVersion)
	assert.Empty(t, tv.SyncError)

	pending, err = repo.GetPendingSyncTables(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, core.TableAccounts, pending[0].Name)

	never, err := repo.TableVersion(ctx, core.TableDebts)
	require.NoError(t, err)
	assert.Zero(t, never.Version)
}

func TestSQLiteRepository_RecordRollover(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	p := core.Period{Month: 12, Year: 2025}

	done, err := repo.HasRollover(ctx, p)
	require.NoError(t, err)
	assert.False(t, done)

	first, err := repo.RecordRollover(ctx, p, "copied")
	require.NoError(t, err)
	assert.True(t, first)
	again, err := repo.RecordRollover(ctx, p, "copied")
	require.NoError(t, err)
	assert.False(t, again)

	done, err = repo.HasRollover(ctx, p)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestSQLiteRepository_RolledTables(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	jan := core.Period{Month: 1, Year: 2025}

	names, err := repo.RolledTables(ctx, jan)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, repo.RecordRolledTable(ctx, jan, core.TableExpenses, "copied"))
	require.NoError(t, repo.RecordRolledTable(ctx, jan, core.TableProvisions, "skipped"))
	require.NoError(t, repo.RecordRolledTable(ctx, jan, core.TableExpenses, "copied"))
	require.NoError(t, repo.RecordRolledTable(ctx, jan.Next(), core.TableDebts, "copied"))

	names, err = repo.RolledTables(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, []string{core.TableExpenses, core.TableProvisions}, names)
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	first, err := RunMigrations(path)
	require.NoError(t, err)
	again, err := RunMigrations(path)
	require.NoError(t, err)
	assert.EqualValues(t, 3, first)
	assert.Equal(t, first, again)
}
