package adapters

import (
	"context"
	"log/slog"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"
	"finanzas/internal/storage"
)

// SyncPublisher announces that a table reached a new version.
type SyncPublisher interface {
	PublishTableSync(ctx context.Context, table string, version int64) error
}

// SQLiteAdapter adapts SQLiteRepository to sheets.TableStore and announces
// every write so the sync worker can replicate it to Google Sheets.
// This allows the HTTP handlers to work unchanged while using SQLite + AMQP backend
type SQLiteAdapter struct {
	storage   *storage.SQLiteRepository
	publisher SyncPublisher
}

var _ ports.TableStore = (*SQLiteAdapter)(nil)

// NewSQLiteAdapter wires the repository to a publisher. A nil publisher
// leaves replication to the worker's periodic scan.
func NewSQLiteAdapter(storage *storage.SQLiteRepository, publisher SyncPublisher) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage:   storage,
		publisher: publisher,
	}
}

// ReadTable implements sheets.TableReader
func (a *SQLiteAdapter) ReadTable(ctx context.Context, name string) ([]core.Row, error) {
	return a.storage.ReadTable(ctx, name)
}

// WriteTable implements sheets.TableWriter. The write is durable once
// SQLite commits; a failed publish only delays replication.
func (a *SQLiteAdapter) WriteTable(ctx context.Context, name string, rows []core.Row) error {
	version, err := a.storage.WriteTableVersioned(ctx, name, rows)
	if err != nil {
		return err
	}
	if a.publisher == nil {
		return nil
	}
	if err := a.publisher.PublishTableSync(ctx, name, version); err != nil {
		slog.WarnContext(ctx, "Failed to publish table sync, worker scan will retry",
			"table", name,
			"version", version,
			"error", err)
	}
	return nil
}
