package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

// RolloverLog remembers which source months the scheduler already rolled,
// and which tables of an unfinished month are done.
type RolloverLog interface {
	HasRollover(ctx context.Context, source core.Period) (bool, error)
	RecordRollover(ctx context.Context, source core.Period, outcome string) (bool, error)
	RolledTables(ctx context.Context, source core.Period) ([]string, error)
	RecordRolledTable(ctx context.Context, source core.Period, table, status string) error
}

// Scheduler outcomes stored in the rollover log.
const (
	OutcomeTargetNotEmpty = "target_not_empty"
)

// RolloverScheduler rolls the previous month forward once a new month has
// started, unless the user already filled the new month.
type RolloverScheduler struct {
	service  *LedgerService
	log      RolloverLog
	interval time.Duration

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRolloverScheduler(service *LedgerService, log RolloverLog, interval time.Duration) *RolloverScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RolloverScheduler{service: service, log: log, interval: interval}
}

// RunOnce checks the month of now and rolls the previous month when due.
// It reports whether a rollover was performed. Tables finished by an
// earlier, partly failed run are not rolled again.
func (r *RolloverScheduler) RunOnce(ctx context.Context, now time.Time) (bool, error) {
	current := core.PeriodOf(now)
	source := current.Prev()

	done, err := r.log.HasRollover(ctx, source)
	if err != nil {
		return false, fmt.Errorf("check rollover log: %w", err)
	}
	if done {
		return false, nil
	}

	rolled, err := r.log.RolledTables(ctx, source)
	if err != nil {
		return false, fmt.Errorf("check rolled tables: %w", err)
	}
	pending := withoutTables(r.service.RolloverRules().TableNames(), rolled)

	t, warnings := r.service.LoadTables(ctx, pending...)
	if len(warnings) > 0 {
		// An unreadable table could hide rows of the new month.
		return false, fmt.Errorf("rollover check: %d tables unavailable, first %s: %s",
			len(warnings), warnings[0].Table, warnings[0].Message)
	}

	var toRoll []string
	for _, name := range pending {
		n := len(ledger.FilterStrict(t.Rows(name), current))
		if n == 0 {
			toRoll = append(toRoll, name)
			continue
		}
		slog.InfoContext(ctx, "Current month already has rows, skipping scheduled rollover",
			"table", name,
			"rows", n,
			"target", current.String())
		if len(rolled) == 0 {
			if _, err := r.log.RecordRollover(ctx, source, OutcomeTargetNotEmpty); err != nil {
				return false, err
			}
			return false, nil
		}
		// Resumed run: leave the filled table alone and finish the rest.
		if err := r.log.RecordRolledTable(ctx, source, name, OutcomeTargetNotEmpty); err != nil {
			return false, err
		}
	}

	var outcomes []ledger.RolloverOutcome
	if len(toRoll) > 0 {
		outcomes, err = r.service.RolloverTables(ctx, source, toRoll)
		if err != nil {
			return false, err
		}
	}

	var failed []ledger.RolloverOutcome
	for _, o := range outcomes {
		if o.Status == ledger.RolloverError {
			failed = append(failed, o)
			continue
		}
		if err := r.log.RecordRolledTable(ctx, source, o.Table, string(o.Status)); err != nil {
			return false, err
		}
	}
	if len(failed) > 0 {
		// Leave the month unrecorded so the next tick retries the failed tables.
		return false, fmt.Errorf("rollover %s: %d tables failed, first %s: %s",
			source, len(failed), failed[0].Table, failed[0].Error)
	}

	summary, err := json.Marshal(outcomes)
	if err != nil {
		return false, fmt.Errorf("encode rollover outcome: %w", err)
	}
	if _, err := r.log.RecordRollover(ctx, source, string(summary)); err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "Scheduled rollover performed",
		"source", source.String(),
		"target", current.String(),
		"resumed", len(rolled) > 0)
	return true, nil
}

func withoutTables(names, drop []string) []string {
	skip := make(map[string]bool, len(drop))
	for _, d := range drop {
		skip[d] = true
	}
	var out []string
	for _, n := range names {
		if !skip[n] {
			out = append(out, n)
		}
	}
	return out
}

// Start begins the scheduling loop. Returns an error if already running.
func (r *RolloverScheduler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("rollover scheduler is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Rollover scheduler started", "interval", r.interval)
	return nil
}

// Stop stops the loop and waits for the current tick to finish.
func (r *RolloverScheduler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)

	select {
	case <-r.doneCh:
		slog.InfoContext(ctx, "Rollover scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Rollover scheduler stop timed out")
		return ctx.Err()
	}
}

func (r *RolloverScheduler) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *RolloverScheduler) tick(ctx context.Context) {
	if _, err := r.RunOnce(ctx, r.service.now()); err != nil {
		slog.ErrorContext(ctx, "Scheduled rollover failed", "error", err)
	}
}

// MemoryRolloverLog is a RolloverLog for backends without a database. It
// forgets everything on restart.
type MemoryRolloverLog struct {
	mu     sync.Mutex
	runs   map[core.Period]string
	tables map[core.Period][]string
}

func NewMemoryRolloverLog() *MemoryRolloverLog {
	return &MemoryRolloverLog{
		runs:   make(map[core.Period]string),
		tables: make(map[core.Period][]string),
	}
}

func (m *MemoryRolloverLog) HasRollover(_ context.Context, source core.Period) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.runs[source]
	return ok, nil
}

func (m *MemoryRolloverLog) RecordRollover(_ context.Context, source core.Period, outcome string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[source]; ok {
		return false, nil
	}
	m.runs[source] = outcome
	return true, nil
}

func (m *MemoryRolloverLog) RolledTables(_ context.Context, source core.Period) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tables[source]...), nil
}

func (m *MemoryRolloverLog) RecordRolledTable(_ context.Context, source core.Period, table, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tables[source] {
		if t == table {
			return nil
		}
	}
	m.tables[source] = append(m.tables[source], table)
	return nil
}
