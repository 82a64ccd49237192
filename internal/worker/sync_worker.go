package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/sheets"
	"finanzas/internal/storage"
)

// SyncWorker replicates ledger tables from SQLite to Google Sheets
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	sheets    sheets.TableStore
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, sheets sheets.TableStore, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single table sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TableSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"table", msg.Table,
		"version", msg.Version)

	tv, err := w.storage.TableVersion(ctx, msg.Table)
	if err != nil {
		return fmt.Errorf("get table version: %w", err)
	}
	if tv.SyncedVersion >= msg.Version {
		slog.InfoContext(ctx, "Table already synced, skipping",
			"table", msg.Table,
			"version", msg.Version,
			"synced_version", tv.SyncedVersion)
		return nil
	}

	return w.syncTable(ctx, tv)
}

// ProcessPendingTables syncs tables whose version is ahead of Google Sheets.
// This is a backup mechanism in case AMQP messages are lost
func (w *SyncWorker) ProcessPendingTables(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck verifies and syncs pending tables at worker startup
// This is useful to recover from missed AMQP messages or worker downtime
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, len(core.Tables()))
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed == 0 {
		slog.InfoContext(ctx, "No pending tables found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.storage.GetPendingSyncTables(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending tables: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending tables", "count", len(pending))
	for _, tv := range pending {
		if err := w.syncTable(ctx, tv); err != nil {
			slog.ErrorContext(ctx, "Failed to sync table", "table", tv.Name, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

// ImportMissingTables copies tables that SQLite has never stored from
// Google Sheets, so a fresh database starts from the existing workbook.
// Imported tables are marked synced at their first version.
func (w *SyncWorker) ImportMissingTables(ctx context.Context) error {
	imported := 0
	for _, name := range core.Tables() {
		tv, err := w.storage.TableVersion(ctx, name)
		if err != nil {
			return fmt.Errorf("get table version: %w", err)
		}
		if tv.Version > 0 {
			continue
		}

		rows, err := w.sheets.ReadTable(ctx, name)
		if errors.Is(err, sheets.ErrTableNotFound) {
			slog.WarnContext(ctx, "Table missing in Google Sheets, skipping import", "table", name)
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s from Google Sheets: %w", name, err)
		}

		version, err := w.storage.WriteTableVersioned(ctx, name, rows)
		if err != nil {
			return fmt.Errorf("import %s: %w", name, err)
		}
		if err := w.storage.MarkSynced(ctx, name, version); err != nil {
			return fmt.Errorf("import %s: %w", name, err)
		}
		imported++
	}

	if imported > 0 {
		slog.InfoContext(ctx, "Imported tables from Google Sheets", "count", imported)
	}
	return nil
}

func (w *SyncWorker) syncTable(ctx context.Context, tv storage.TableVersion) error {
	rows, err := w.storage.ReadTable(ctx, tv.Name)
	if err != nil {
		return fmt.Errorf("read %s from storage: %w", tv.Name, err)
	}

	if err := w.sheets.WriteTable(ctx, tv.Name, rows); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, tv.Name, err); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "table", tv.Name, "error", markErr)
		}
		return fmt.Errorf("write %s to sheets: %w", tv.Name, err)
	}

	// The rows read above are at least as new as tv.Version.
	if err := w.storage.MarkSynced(ctx, tv.Name, tv.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "table", tv.Name, "error", err)
		// Don't return error here - the sync actually worked
	}

	slog.InfoContext(ctx, "Successfully synced table",
		"table", tv.Name,
		"version", tv.Version,
		"rows", len(rows))
	return nil
}
