package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
	ports "finanzas/internal/sheets"
)

// maxConcurrentReads bounds parallel table reads against the store.
const maxConcurrentReads = 4

// Warning reports a table that could not be read. The table was treated as
// empty for the computation that carries the warning.
type Warning struct {
	Table   string `json:"table"`
	Message string `json:"message"`
}

// LedgerService exposes the ledger operations over a table store.
type LedgerService struct {
	store ports.TableStore
	rules ledger.RolloverRules
	now   func() time.Time
}

func NewLedgerService(store ports.TableStore, rules ledger.RolloverRules) *LedgerService {
	if len(rules.Tables) == 0 {
		rules = ledger.DefaultRolloverRules()
	}
	return &LedgerService{store: store, rules: rules, now: time.Now}
}

// RolloverRules returns the rules used by Rollover.
func (s *LedgerService) RolloverRules() ledger.RolloverRules { return s.rules }

// CurrentPeriod is the month of the service clock.
func (s *LedgerService) CurrentPeriod() core.Period { return core.PeriodOf(s.now()) }

// LoadTables reads the named tables concurrently. A failed read leaves that
// table empty and adds a warning; it never fails the whole load.
func (s *LedgerService) LoadTables(ctx context.Context, names ...string) (ledger.Tables, []Warning) {
	if len(names) == 0 {
		names = core.Tables()
	}
	rows := make([][]core.Row, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(maxConcurrentReads)
	for i, name := range names {
		g.Go(func() error {
			rows[i], errs[i] = s.store.ReadTable(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	t := make(ledger.Tables, len(names))
	var warnings []Warning
	for i, name := range names {
		if errs[i] != nil {
			slog.WarnContext(ctx, "Table unavailable, treating as empty",
				"table", name,
				"error", errs[i])
			warnings = append(warnings, Warning{Table: name, Message: errs[i].Error()})
			t[name] = nil
			continue
		}
		t[name] = rows[i]
	}
	return t, warnings
}

// Rows returns the rows of table in period p, optionally narrowed to one
// estado. Rows without mes and año are returned whatever the period.
func (s *LedgerService) Rows(ctx context.Context, table string, p core.Period, status string) ([]core.Row, []Warning, error) {
	if err := core.ValidateTable(table); err != nil {
		return nil, nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	t, warnings := s.LoadTables(ctx, table)
	rows := ledger.Filter(t.Rows(table), p)
	if status != "" {
		rows = ledger.FilterStatus(rows, status)
	}
	return rows, warnings, nil
}

// Summary builds the summary of period p.
func (s *LedgerService) Summary(ctx context.Context, p core.Period) (core.Summary, []Warning, error) {
	if err := p.Validate(); err != nil {
		return core.Summary{}, nil, err
	}
	t, warnings := s.LoadTables(ctx, core.PeriodTables()...)
	return ledger.Summarize(t, p), warnings, nil
}

// TimeSeries returns the last n months with data; n <= 0 means twelve.
func (s *LedgerService) TimeSeries(ctx context.Context, n int) ([]core.SeriesPoint, []Warning) {
	t, warnings := s.LoadTables(ctx, core.PeriodTables()...)
	return ledger.TimeSeries(t, n), warnings
}

// Findings evaluates budget and alert rules for period p.
func (s *LedgerService) Findings(ctx context.Context, p core.Period) ([]core.Finding, []Warning, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	t, warnings := s.LoadTables(ctx, core.PeriodTables()...)
	return ledger.Evaluate(t, p), warnings, nil
}

// Simulate projects the month after p with the given overrides. Nothing is
// written.
func (s *LedgerService) Simulate(ctx context.Context, p core.Period, o ledger.Overrides) (ledger.Projection, []Warning, error) {
	current, warnings, err := s.Summary(ctx, p)
	if err != nil {
		return ledger.Projection{}, nil, err
	}
	return ledger.Simulate(current, o), warnings, nil
}

// Rollover copies source into the next month for every configured table.
// Each table is read, rolled and written on its own: a failure is reported
// in that table's outcome and the remaining tables still run. A table whose
// read fails is never written.
func (s *LedgerService) Rollover(ctx context.Context, source core.Period) ([]ledger.RolloverOutcome, error) {
	return s.RolloverTables(ctx, source, s.rules.TableNames())
}

// RolloverTables is Rollover restricted to the named tables. Names without
// a rollover rule are ignored.
func (s *LedgerService) RolloverTables(ctx context.Context, source core.Period, names []string) ([]ledger.RolloverOutcome, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	outcomes := make([]ledger.RolloverOutcome, 0, len(names))
	for _, rt := range s.rules.Tables {
		if !wanted[rt.Name] {
			continue
		}
		out := ledger.RolloverOutcome{Table: rt.Name}

		rows, err := s.store.ReadTable(ctx, rt.Name)
		if err != nil {
			out.Status, out.Error = ledger.RolloverError, err.Error()
			outcomes = append(outcomes, out)
			slog.WarnContext(ctx, "Rollover read failed", "table", rt.Name, "error", err)
			continue
		}

		updated, copied := ledger.RollTable(rows, source, rt.Reset)
		if copied == 0 {
			out.Status = ledger.RolloverSkipped
			outcomes = append(outcomes, out)
			continue
		}

		if err := s.store.WriteTable(ctx, rt.Name, updated); err != nil {
			out.Status, out.Error = ledger.RolloverError, err.Error()
			outcomes = append(outcomes, out)
			slog.ErrorContext(ctx, "Rollover write failed", "table", rt.Name, "error", err)
			continue
		}
		out.Status, out.Copied = ledger.RolloverCopied, copied
		outcomes = append(outcomes, out)
	}

	slog.InfoContext(ctx, "Rollover complete",
		"source", source.String(),
		"target", source.Next().String(),
		"tables", len(outcomes))
	return outcomes, nil
}

// Accounts lists the known account names.
func (s *LedgerService) Accounts(ctx context.Context) ([]string, error) {
	rows, err := s.store.ReadTable(ctx, core.TableAccounts)
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	return ledger.AccountNames(rows), nil
}

// BlankRow returns a new empty row for table stamped with p.
func (s *LedgerService) BlankRow(ctx context.Context, table string, p core.Period) (core.Row, error) {
	if err := core.ValidateTable(table); err != nil {
		return core.Row{}, err
	}
	if err := p.Validate(); err != nil {
		return core.Row{}, err
	}
	existing, err := s.store.ReadTable(ctx, table)
	if err != nil {
		slog.WarnContext(ctx, "Table unavailable, using known columns", "table", table, "error", err)
		existing = nil
	}
	return ledger.BlankRow(table, p, existing)
}

// Save replaces what the user edited. For Cuentas the whole table is
// replaced; for every other table only period p is. The session must be
// authorized and must have confirmed the table; the confirmation is used up
// by a successful save. Nothing is written when validation fails.
func (s *LedgerService) Save(ctx context.Context, sess *Session, table string, p core.Period, edited []core.Row) error {
	if err := core.ValidateTable(table); err != nil {
		return err
	}
	if !sess.IsAuthorized() {
		return core.ErrUnauthorized
	}
	if !sess.IsConfirmed(table) {
		return fmt.Errorf("%w: %s", core.ErrNotConfirmed, table)
	}

	var err error
	if table == core.TableAccounts {
		err = s.saveAccounts(ctx, edited)
	} else {
		err = s.saveSlice(ctx, table, p, edited)
	}
	if err != nil {
		var verr core.ValidationErrors
		if errors.As(err, &verr) {
			slog.InfoContext(ctx, "Save rejected", "table", table, "problems", len(verr))
		} else {
			slog.ErrorContext(ctx, "Save failed", "table", table, "error", err)
		}
		return err
	}

	sess.consume(table)
	slog.InfoContext(ctx, "Table saved", "table", table, "period", p.String(), "rows", len(edited))
	return nil
}

func (s *LedgerService) saveSlice(ctx context.Context, table string, p core.Period, edited []core.Row) error {
	if err := p.Validate(); err != nil {
		return err
	}
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return err
	}
	if err := ledger.ValidateSlice(edited, accounts); err != nil {
		return err
	}
	// The full table is needed to keep other periods; without it the write
	// would drop them.
	all, err := s.store.ReadTable(ctx, table)
	if err != nil {
		return fmt.Errorf("read %s: %w", table, err)
	}
	return s.store.WriteTable(ctx, table, ledger.ReplacePeriodSlice(all, p, edited))
}

func (s *LedgerService) saveAccounts(ctx context.Context, rows []core.Row) error {
	if err := ledger.ValidateAccounts(rows); err != nil {
		return err
	}
	return s.store.WriteTable(ctx, core.TableAccounts, core.CloneRows(rows))
}

// Session is the state of one user session: whether the PIN gate was
// passed and which tables the user confirmed for saving.
type Session struct {
	mu         sync.Mutex
	ID         string
	authorized bool
	confirmed  map[string]bool
}

func NewSession(id string) *Session {
	return &Session{ID: id, confirmed: make(map[string]bool)}
}

func (s *Session) Authorize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = true
}

// Revoke clears authorization and every pending confirmation.
func (s *Session) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = false
	clear(s.confirmed)
}

// IsAuthorized is false for a nil session.
func (s *Session) IsAuthorized() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorized
}

// SetConfirmed sets the confirmation flag of table.
func (s *Session) SetConfirmed(table string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.confirmed[table] = true
		return
	}
	delete(s.confirmed, table)
}

func (s *Session) IsConfirmed(table string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmed[table]
}

func (s *Session) consume(table string) {
	s.SetConfirmed(table, false)
}
