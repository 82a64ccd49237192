package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

// Section is one independently computed part of the dashboard. When the
// computation fails Error is set and Data is the zero value.
type Section[T any] struct {
	Data  T      `json:"data"`
	Error string `json:"error,omitempty"`
}

// Dashboard gathers every report of a period from one snapshot of the
// workbook.
type Dashboard struct {
	Period        core.Period                    `json:"period"`
	Summary       Section[core.Summary]          `json:"summary"`
	Findings      Section[[]core.Finding]        `json:"findings"`
	Series        Section[[]core.SeriesPoint]    `json:"series"`
	Calendar      Section[[]core.DueItem]        `json:"calendar"`
	TopExpenses   Section[[]core.CategoryAmount] `json:"top_expenses"`
	TopProvisions Section[[]core.CategoryAmount] `json:"top_provisions"`
	Warnings      []Warning                      `json:"warnings,omitempty"`
}

// Dashboard reads the workbook once and builds every section. A section
// that fails, panics included, does not affect the others.
func (s *LedgerService) Dashboard(ctx context.Context, p core.Period) (Dashboard, error) {
	if err := p.Validate(); err != nil {
		return Dashboard{}, err
	}
	t, warnings := s.LoadTables(ctx, core.PeriodTables()...)

	return Dashboard{
		Period:   p,
		Warnings: warnings,
		Summary: section(ctx, "summary", func() (core.Summary, error) {
			return ledger.Summarize(t, p), nil
		}),
		Findings: section(ctx, "findings", func() ([]core.Finding, error) {
			return ledger.Evaluate(t, p), nil
		}),
		Series: section(ctx, "series", func() ([]core.SeriesPoint, error) {
			return ledger.TimeSeries(t, ledger.DefaultSeriesLength), nil
		}),
		Calendar: section(ctx, "calendar", func() ([]core.DueItem, error) {
			return ledger.Calendar(t, p), nil
		}),
		TopExpenses: section(ctx, "top_expenses", func() ([]core.CategoryAmount, error) {
			return ledger.TopExpenses(t, p, ledger.DefaultTopN), nil
		}),
		TopProvisions: section(ctx, "top_provisions", func() ([]core.CategoryAmount, error) {
			return ledger.TopProvisionsUsed(t, p, ledger.DefaultTopN), nil
		}),
	}, nil
}

func section[T any](ctx context.Context, name string, build func() (T, error)) (out Section[T]) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Dashboard section panicked",
				"section", name,
				"panic", r,
				"stack", string(debug.Stack()))
			var zero T
			out = Section[T]{Data: zero, Error: fmt.Sprintf("%s: %v", name, r)}
		}
	}()

	data, err := build()
	if err != nil {
		slog.ErrorContext(ctx, "Dashboard section failed", "section", name, "error", err)
		return Section[T]{Error: err.Error()}
	}
	return Section[T]{Data: data}
}
