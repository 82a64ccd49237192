package sheets

import (
	"context"
	"errors"

	"finanzas/internal/core"
)

// ErrTableNotFound is returned by adapters when the workbook has no such tab.
var ErrTableNotFound = errors.New("table not found")

// Ports for outbound adapters.
type (
	// TableReader returns every row of a table, header row excluded.
	TableReader interface {
		ReadTable(ctx context.Context, name string) ([]core.Row, error)
	}

	// TableWriter replaces a whole table. Implementations must leave the
	// previous contents in place when the write fails.
	TableWriter interface {
		WriteTable(ctx context.Context, name string, rows []core.Row) error
	}

	TableStore interface {
		TableReader
		TableWriter
	}
)
