package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"finanzas/internal/auth"
	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/export"
	"finanzas/internal/ledger"
	"finanzas/internal/services"
)

// LedgerOpener opens the ledger for one command run. The returned func
// releases what was opened.
type LedgerOpener func(ctx context.Context, configPath string) (*services.LedgerService, func() error, error)

// app holds the state of one command run.
type app struct {
	open       LedgerOpener
	configPath string
	month      int
	year       int

	svc   *services.LedgerService
	close func() error
}

// ledger opens the ledger on first use so commands that do not need it,
// like hash-pin, never touch the backend.
func (a *app) ledger(ctx context.Context) (*services.LedgerService, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	svc, closer, err := a.open(ctx, a.configPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	a.svc, a.close = svc, closer
	return svc, nil
}

func (a *app) shutdown() error {
	if a.close == nil {
		return nil
	}
	err := a.close()
	a.svc, a.close = nil, nil
	return err
}

// period combines --month and --year with the current month for whatever
// was not given.
func (a *app) period(svc *services.LedgerService) (core.Period, error) {
	p := svc.CurrentPeriod()
	if a.month != 0 {
		p.Month = a.month
	}
	if a.year != 0 {
		p.Year = a.year
	}
	return p, p.Validate()
}

// Run executes finanzas-cli with args and closes the ledger afterwards,
// whether the command failed or not.
func Run(ctx context.Context, open LedgerOpener, args []string, stdout, stderr io.Writer) (err error) {
	a := &app{open: open}
	defer func() {
		err = errors.Join(err, a.shutdown())
	}()

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "finanzas-cli",
		Short:         "Operate the monthly ledger from the command line.",
		Long:          "finanzas-cli computes summaries, findings and projections, runs month rollover and writes exports against the configured backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "configuration file (default: finanzas.yaml in . or $HOME/.finanzas)")
	root.PersistentFlags().IntVar(&a.month, "month", 0, "month 1-12 (default: current month)")
	root.PersistentFlags().IntVar(&a.year, "year", 0, "year (default: current year)")

	root.AddCommand(
		newSummaryCommand(a),
		newFindingsCommand(a),
		newSeriesCommand(a),
		newRolloverCommand(a),
		newSimulateCommand(a),
		newExportCommand(a),
		newHashPinCommand(),
	)
	return root
}

type output struct {
	Data     any                `json:"data"`
	Warnings []services.Warning `json:"warnings,omitempty"`
}

func printJSON(w io.Writer, data any, warnings []services.Warning) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output{Data: data, Warnings: warnings})
}

func newSummaryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the summary of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.ledger(ctx)
			if err != nil {
				return err
			}
			p, err := a.period(svc)
			if err != nil {
				return err
			}
			s, warnings, err := svc.Summary(ctx, p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), s, warnings)
		},
	}
}

func newFindingsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "findings",
		Short: "Print budget and alert findings of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.ledger(ctx)
			if err != nil {
				return err
			}
			p, err := a.period(svc)
			if err != nil {
				return err
			}
			f, warnings, err := svc.Findings(ctx, p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), f, warnings)
		},
	}
}

func newSeriesCommand(a *app) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print the summaries of the last months with data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.ledger(ctx)
			if err != nil {
				return err
			}
			points, warnings := svc.TimeSeries(ctx, n)
			return printJSON(cmd.OutOrStdout(), points, warnings)
		},
	}
	cmd.Flags().IntVarP(&n, "months", "n", 12, "number of months")
	return cmd
}

func newRolloverCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Copy the recurring rows of a month into the next one",
		Long:  "rollover copies --month/--year into the following month. Rows already in the target month are replaced.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.ledger(ctx)
			if err != nil {
				return err
			}
			p, err := a.period(svc)
			if err != nil {
				return err
			}
			outcomes, err := svc.Rollover(ctx, p)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), outcomes, nil); err != nil {
				return err
			}
			for _, o := range outcomes {
				if o.Status == ledger.RolloverError {
					return fmt.Errorf("rollover of %s failed: %s", o.Table, o.Error)
				}
			}
			return nil
		},
	}
}

// overrideFlags maps simulate flags to the override they set.
func overrideFlags(o *ledger.Overrides) map[string]**decimal.Decimal {
	return map[string]**decimal.Decimal{
		"ingresos":               &o.Ingresos,
		"gastos-fijos":           &o.GastosFijos,
		"deudas":                 &o.Deudas,
		"provisiones":            &o.Provisiones,
		"ahorros":                &o.Ahorros,
		"provisiones-reservadas": &o.ProvisionesReservadas,
		"ahorros-depositados":    &o.AhorrosDepositados,
	}
}

func newSimulateCommand(a *app) *cobra.Command {
	values := make(map[string]*string)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Project the next month with overridden totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var o ledger.Overrides
			for name, dst := range overrideFlags(&o) {
				if !cmd.Flags().Changed(name) {
					continue
				}
				d, err := core.ParseAmount(*values[name])
				if err != nil {
					return fmt.Errorf("--%s: %w", name, err)
				}
				*dst = &d
			}

			ctx := cmd.Context()
			svc, err := a.ledger(ctx)
			if err != nil {
				return err
			}
			p, err := a.period(svc)
			if err != nil {
				return err
			}
			proj, warnings, err := svc.Simulate(ctx, p, o)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), proj, warnings)
		},
	}
	var o ledger.Overrides
	for name := range overrideFlags(&o) {
		values[name] = cmd.Flags().String(name, "", "override for "+name)
	}
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write summary or history workbooks and the series CSV",
	}
	cmd.PersistentFlags().StringVarP(&out, "out", "o", "", "output file (required)")
	_ = cmd.MarkPersistentFlagRequired("out")

	write := func(render func(io.Writer) error) error {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := render(f); err != nil {
			f.Close()
			os.Remove(out)
			return err
		}
		return f.Close()
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "summary",
			Short: "Monthly summary workbook with one sheet per table",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				svc, err := a.ledger(ctx)
				if err != nil {
					return err
				}
				p, err := a.period(svc)
				if err != nil {
					return err
				}
				s, warnings, err := svc.Summary(ctx, p)
				if err != nil {
					return err
				}
				tables, _ := svc.LoadTables(ctx, core.PeriodTables()...)
				if err := write(func(w io.Writer) error { return export.SummaryWorkbook(w, s, tables) }); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out, warnings)
			},
		},
		&cobra.Command{
			Use:   "history",
			Short: "Yearly workbook with every table filtered to --year",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				svc, err := a.ledger(ctx)
				if err != nil {
					return err
				}
				year := a.year
				if year == 0 {
					year = svc.CurrentPeriod().Year
				}
				tables, warnings := svc.LoadTables(ctx)
				if err := write(func(w io.Writer) error { return export.HistoryWorkbook(w, tables, year) }); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out, warnings)
			},
		},
		&cobra.Command{
			Use:   "series",
			Short: "CSV of the last twelve months with data",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				svc, err := a.ledger(ctx)
				if err != nil {
					return err
				}
				points, warnings := svc.TimeSeries(ctx, 0)
				if err := write(func(w io.Writer) error { return export.SeriesCSV(w, points) }); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out, warnings)
			},
		},
	)
	return cmd
}

func newHashPinCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-pin PIN",
		Short: "Print the bcrypt hash to use as ACCESS_PIN_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return errors.New("empty PIN")
			}
			h, err := auth.HashPin(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), h)
			return err
		},
	}
}

// ConfigOpener opens the ledger described by the configuration file and
// environment.
func ConfigOpener(logger *slog.Logger) LedgerOpener {
	return func(ctx context.Context, configPath string) (*services.LedgerService, func() error, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		svc, res, err := OpenLedger(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return svc, res.Close, nil
	}
}
