package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

// HistoryWorkbook writes every row of year, one sheet per table. The
// accounts sheet is included in full.
func HistoryWorkbook(w io.Writer, t ledger.Tables, year int) error {
	if year <= 0 {
		return fmt.Errorf("%w: year %d", core.ErrInvalidPeriod, year)
	}
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	for _, name := range core.PeriodTables() {
		if err := writeTable(f, st, name, ledger.FilterYear(t.Rows(name), year)); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := writeTable(f, st, core.TableAccounts, t.Rows(core.TableAccounts)); err != nil {
		return fmt.Errorf("write %s: %w", core.TableAccounts, err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}
