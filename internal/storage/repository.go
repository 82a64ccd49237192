package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores every ledger table as ordered JSON rows and keeps
// a version per table so a worker can replicate changes to Google Sheets.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.TableStore = (*SQLiteRepository)(nil)

// TableVersion describes the replication state of one table.
type TableVersion struct {
	Name          string
	Version       int64
	SyncedVersion int64
	SyncError     string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite store ready", "path", dbPath, "schema_version", schema)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReadTable implements sheets.TableReader
func (r *SQLiteRepository) ReadTable(ctx context.Context, name string) ([]core.Row, error) {
	if err := core.ValidateTable(name); err != nil {
		return nil, err
	}
	rs, err := r.db.QueryContext(ctx,
		`SELECT payload FROM ledger_rows WHERE table_name = ? ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rs.Close()

	var rows []core.Row
	for rs.Next() {
		var payload string
		if err := rs.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		var row core.Row
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", name, err)
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", name, err)
	}
	return rows, nil
}

// WriteTable implements sheets.TableWriter
func (r *SQLiteRepository) WriteTable(ctx context.Context, name string, rows []core.Row) error {
	_, err := r.WriteTableVersioned(ctx, name, rows)
	return err
}

// WriteTableVersioned replaces the table in one transaction and returns the
// table's new version.
func (r *SQLiteRepository) WriteTableVersioned(ctx context.Context, name string, rows []core.Row) (int64, error) {
	if err := core.ValidateTable(name); err != nil {
		return 0, err
	}
	payloads := make([]string, len(rows))
	for i, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			return 0, fmt.Errorf("encode %s row %d: %w", name, i+1, err)
		}
		payloads[i] = string(b)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows WHERE table_name = ?`, name); err != nil {
		return 0, fmt.Errorf("clear %s: %w", name, err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ledger_rows (table_name, position, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, p := range payloads {
		if _, err := stmt.ExecContext(ctx, name, i, p); err != nil {
			return 0, fmt.Errorf("insert %s row %d: %w", name, i+1, err)
		}
	}

	var version int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO ledger_tables (name, version, updated_at) VALUES (?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET version = version + 1, updated_at = CURRENT_TIMESTAMP
		RETURNING version`, name).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("bump %s version: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s: %w", name, err)
	}

	slog.InfoContext(ctx, "Table saved to SQLite", "table", name, "rows", len(rows), "version", version)
	return version, nil
}

// TableVersion returns the replication state of a table. A table that was
// never written has version 0.
func (r *SQLiteRepository) TableVersion(ctx context.Context, name string) (TableVersion, error) {
	tv := TableVersion{Name: name}
	var syncErr sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT version, synced_version, sync_error FROM ledger_tables WHERE name = ?`, name).
		Scan(&tv.Version, &tv.SyncedVersion, &syncErr)
	if errors.Is(err, sql.ErrNoRows) {
		return tv, nil
	}
	if err != nil {
		return tv, fmt.Errorf("get %s version: %w", name, err)
	}
	tv.SyncError = syncErr.String
	return tv, nil
}

// GetPendingSyncTables returns tables changed since their last replication.
func (r *SQLiteRepository) GetPendingSyncTables(ctx context.Context, limit int) ([]TableVersion, error) {
	rs, err := r.db.QueryContext(ctx, `
		SELECT name, version, synced_version, sync_error FROM ledger_tables
		WHERE version > synced_version ORDER BY updated_at, name LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync tables: %w", err)
	}
	defer rs.Close()

	var out []TableVersion
	for rs.Next() {
		var tv TableVersion
		var syncErr sql.NullString
		if err := rs.Scan(&tv.Name, &tv.Version, &tv.SyncedVersion, &syncErr); err != nil {
			return nil, fmt.Errorf("scan pending table: %w", err)
		}
		tv.SyncError = syncErr.String
		out = append(out, tv)
	}
	return out, rs.Err()
}

// MarkSynced records that version of the table reached Google Sheets. An
// older version never moves the marker backwards.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, name string, version int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ledger_tables
		SET synced_version = MAX(synced_version, ?), synced_at = CURRENT_TIMESTAMP, sync_error = NULL
		WHERE name = ?`, version, name)
	if err != nil {
		return fmt.Errorf("mark %s synced: %w", name, err)
	}
	slog.InfoContext(ctx, "Table marked as synced", "table", name, "version", version)
	return nil
}

// MarkSyncError keeps the failure message for the next attempt's logs.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, name string, cause error) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ledger_tables SET sync_error = ? WHERE name = ?`, cause.Error(), name)
	if err != nil {
		return fmt.Errorf("mark %s sync error: %w", name, err)
	}
	slog.WarnContext(ctx, "Table marked with sync error", "table", name, "error", cause)
	return nil
}

// RecordRollover stores that source was rolled forward. It returns false
// when a run for source was already recorded.
func (r *SQLiteRepository) RecordRollover(ctx context.Context, source core.Period, outcome string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO rollover_runs (source_year, source_month, ran_at, outcome) VALUES (?, ?, ?, ?)
		ON CONFLICT(source_year, source_month) DO NOTHING`,
		source.Year, source.Month, time.Now().UTC().Format(time.RFC3339), outcome)
	if err != nil {
		return false, fmt.Errorf("record rollover %s: %w", source, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record rollover %s: %w", source, err)
	}
	return n == 1, nil
}

// HasRollover reports whether a run for source was recorded.
func (r *SQLiteRepository) HasRollover(ctx context.Context, source core.Period) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rollover_runs WHERE source_year = ? AND source_month = ?`,
		source.Year, source.Month).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check rollover %s: %w", source, err)
	}
	return n > 0, nil
}

// RecordRolledTable stores that one table of source was handled by a
// scheduled rollover. Recording the same table again keeps the first entry.
func (r *SQLiteRepository) RecordRolledTable(ctx context.Context, source core.Period, table, status string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rollover_tables (source_year, source_month, table_name, status, rolled_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_year, source_month, table_name) DO NOTHING`,
		source.Year, source.Month, table, status, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record rolled table %s %s: %w", source, table, err)
	}
	return nil
}

// RolledTables lists the tables of source already handled, in the order
// they were recorded.
func (r *SQLiteRepository) RolledTables(ctx context.Context, source core.Period) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT table_name FROM rollover_tables
		WHERE source_year = ? AND source_month = ?
		ORDER BY rowid`, source.Year, source.Month)
	if err != nil {
		return nil, fmt.Errorf("list rolled tables %s: %w", source, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan rolled table: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
