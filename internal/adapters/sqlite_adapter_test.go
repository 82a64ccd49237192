package adapters

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

type publishCall struct {
	table   string
	version int64
}

type fakePublisher struct {
	calls []publishCall
	err   error
}

func (f *fakePublisher) PublishTableSync(_ context.Context, table string, version int64) error {
	f.calls = append(f.calls, publishCall{table, version})
	return f.err
}

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "finanzas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteAdapter_WritePublishesVersion(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	a := NewSQLiteAdapter(newRepo(t), pub)

	rows := []core.Row{core.NewRow("mes", core.Int(1), "año", core.Int(2025), "monto", core.Int(500))}
	require.NoError(t, a.WriteTable(ctx, core.TableIncome, rows))
	require.NoError(t, a.WriteTable(ctx, core.TableIncome, rows))

	assert.Equal(t, []publishCall{{core.TableIncome, 1}, {core.TableIncome, 2}}, pub.calls)

	got, err := a.ReadTable(ctx, core.TableIncome)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(rows[0]))
}

func TestSQLiteAdapter_PublishFailureKeepsWrite(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	a := NewSQLiteAdapter(repo, &fakePublisher{err: errors.New("broker down")})

	require.NoError(t, a.WriteTable(ctx, core.TableDebts, []core.Row{core.NewRow("nombre", core.Text("Tarjeta"))}))

	pending, err := repo.GetPendingSyncTables(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, core.TableDebts, pending[0].Name)
}

func TestSQLiteAdapter_NilPublisher(t *testing.T) {
	a := NewSQLiteAdapter(newRepo(t), nil)
	assert.NoError(t, a.WriteTable(context.Background(), core.TableSavings, nil))
}
