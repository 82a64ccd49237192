package http

import (
	"net/http"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

const maxSeriesMonths = 120

// handleAccounts lists account names. An unreadable account table gives an
// empty list with a warning.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	ctx := r.Context()
	accounts, err := s.ledger.Accounts(ctx)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Accounts unavailable", applog.FieldError, err)
		writeData(w, http.StatusOK, []string{}, []services.Warning{{Table: core.TableAccounts, Message: err.Error()}})
		return
	}
	if accounts == nil {
		accounts = []string{}
	}
	writeData(w, http.StatusOK, accounts, nil)
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	p, err := parsePeriod(r, s.ledger.CurrentPeriod())
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, warnings, err := s.ledger.Rows(r.Context(), r.PathValue("table"), p, r.URL.Query().Get("estado"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.Row{}
	}
	writeData(w, http.StatusOK, rows, warnings)
}

// handleBlankRow returns a template row stamped with the period. Nothing is
// stored until the table is saved.
func (s *Server) handleBlankRow(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	p, err := parsePeriod(r, s.ledger.CurrentPeriod())
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := s.ledger.BlankRow(r.Context(), r.PathValue("table"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, row, nil)
}

// handleSave replaces the period slice of a table, or all of Cuentas.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, sess *services.Session) {
	table := r.PathValue("table")
	if err := core.ValidateTable(table); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := parsePeriod(r, s.ledger.CurrentPeriod())
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req saveRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Confirm {
		sess.SetConfirmed(table, true)
	}

	if err := s.ledger.Save(r.Context(), sess, table, p, req.Rows); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"table":  table,
		"period": p,
		"rows":   len(req.Rows),
	}, nil)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	p, err := parsePeriod(r, s.ledger.CurrentPeriod())
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, warnings, err := s.ledger.Summary(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, summary, warnings)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	n, err := parseCount(r, "n", 12, maxSeriesMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	points, warnings := s.ledger.TimeSeries(r.Context(), n)
	if points == nil {
		points = []core.SeriesPoint{}
	}
	writeData(w, http.StatusOK, points, warnings)
}

func (s *Server) handleFindings(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	p, err := parsePeriod(r, s.ledger.CurrentPeriod())
	if err != nil {
		writeError(w, r, err)
		return
	}
	findings, warnings, err := s.ledger.Findings(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if findings == nil {
		findings = []core.Finding{}
	}
	writeData(w, http.StatusOK, findings, warnings)
}

// handleDashboard returns every report section; a failed section carries
// its own error and the response is still 200.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	p, err := parsePeriod(r, s.ledger.CurrentPeriod())
	if err != nil {
		writeError(w, r, err)
		return
	}
	dash, err := s.ledger.Dashboard(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, dash, dash.Warnings)
}

// handleRollover copies the given month into the next one. Per-table
// failures are reported in the outcomes, not as an HTTP error.
func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	var req periodRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	source := req.period()
	outcomes, err := s.ledger.Rollover(r.Context(), source)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"source":   source,
		"target":   source.Next(),
		"outcomes": outcomes,
	}, nil)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	var req simulateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	projection, warnings, err := s.ledger.Simulate(r.Context(), req.period(), req.Overrides)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, projection, warnings)
}
