package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
)

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	backing := newFlakyStore(sampleWorkbook())
	store, _ := NewCachedStore(backing, time.Minute)

	first, err := store.ReadTable(ctx, core.TableIncome)
	require.NoError(t, err)
	_, err = store.ReadTable(ctx, core.TableIncome)
	require.NoError(t, err)
	assert.Equal(t, 1, backing.readCount(core.TableIncome))

	// Callers may modify what they get without touching the cache.
	first[0].Set("monto", core.Int(1))
	again, err := store.ReadTable(ctx, core.TableIncome)
	require.NoError(t, err)
	assert.Equal(t, "1000", again[0].Text("monto"))

	require.NoError(t, store.WriteTable(ctx, core.TableIncome, first[:1]))
	after, err := store.ReadTable(ctx, core.TableIncome)
	require.NoError(t, err)
	assert.Len(t, after, 1)
	assert.Equal(t, 2, backing.readCount(core.TableIncome))
}

func TestCachedStore_DoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	backing := newFlakyStore(sampleWorkbook())
	backing.failRead[core.TableDebts] = true
	store, _ := NewCachedStore(backing, time.Minute)

	_, err := store.ReadTable(ctx, core.TableDebts)
	assert.Error(t, err)

	backing.mu.Lock()
	backing.failRead[core.TableDebts] = false
	backing.mu.Unlock()

	rows, err := store.ReadTable(ctx, core.TableDebts)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCachedStore_Invalidate(t *testing.T) {
	ctx := context.Background()
	backing := newFlakyStore(sampleWorkbook())
	store, _ := NewCachedStore(backing, time.Minute)

	_, _ = store.ReadTable(ctx, core.TableSavings)
	store.Invalidate()
	_, _ = store.ReadTable(ctx, core.TableSavings)
	assert.Equal(t, 2, backing.readCount(core.TableSavings))
}

// pausedReads holds ReadTable after the backing read until released.
type pausedReads struct {
	*flakyStore
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (p *pausedReads) ReadTable(ctx context.Context, name string) ([]core.Row, error) {
	rows, err := p.flakyStore.ReadTable(ctx, name)
	p.once.Do(func() {
		close(p.started)
		<-p.release
	})
	return rows, err
}

func TestCachedStore_ReadOverlappingWriteIsNotCached(t *testing.T) {
	ctx := context.Background()
	backing := &pausedReads{
		flakyStore: newFlakyStore(sampleWorkbook()),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	store, _ := NewCachedStore(backing, time.Minute)

	done := make(chan []core.Row)
	go func() {
		rows, _ := store.ReadTable(ctx, core.TableIncome)
		done <- rows
	}()
	<-backing.started

	updated := []core.Row{core.NewRow("mes", 1, "año", 2025, "fuente", "Bono", "monto", 10)}
	require.NoError(t, store.WriteTable(ctx, core.TableIncome, updated))
	close(backing.release)
	assert.Len(t, <-done, 3, "the overlapping read sees the old table")

	rows, err := store.ReadTable(ctx, core.TableIncome)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bono", rows[0].Text("fuente"))
	assert.Equal(t, 2, backing.readCount(core.TableIncome))
}
