package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"finanzas/internal/core"
	"finanzas/internal/export"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"

	// headerWarnings lists tables that were unreadable during an export.
	headerWarnings = "X-Table-Warnings"
)

func (s *Server) handleExportSummary(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	p, err := parsePeriod(r, s.ledger.CurrentPeriod())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	summary, warnings, err := s.ledger.Summary(ctx, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tables, _ := s.ledger.LoadTables(ctx, core.PeriodTables()...)

	var buf bytes.Buffer
	if err := export.SummaryWorkbook(&buf, summary, tables); err != nil {
		writeError(w, r, fmt.Errorf("summary workbook: %w", err))
		return
	}
	s.sendFile(w, r, &buf, contentTypeXLSX, fmt.Sprintf("resumen-%d-%02d.xlsx", p.Year, p.Month), warnings)
}

func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	year := s.ledger.CurrentPeriod().Year
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y <= 0 {
			writeError(w, r, fmt.Errorf("%w: year=%q", core.ErrInvalidPeriod, v))
			return
		}
		year = y
	}

	tables, warnings := s.ledger.LoadTables(r.Context())
	var buf bytes.Buffer
	if err := export.HistoryWorkbook(&buf, tables, year); err != nil {
		writeError(w, r, fmt.Errorf("history workbook: %w", err))
		return
	}
	s.sendFile(w, r, &buf, contentTypeXLSX, fmt.Sprintf("historial-%d.xlsx", year), warnings)
}

func (s *Server) handleExportSeries(w http.ResponseWriter, r *http.Request, _ *services.Session) {
	n, err := parseCount(r, "n", 12, maxSeriesMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	points, warnings := s.ledger.TimeSeries(r.Context(), n)

	var buf bytes.Buffer
	if err := export.SeriesCSV(&buf, points); err != nil {
		writeError(w, r, fmt.Errorf("series csv: %w", err))
		return
	}
	s.sendFile(w, r, &buf, contentTypeCSV, "serie.csv", warnings)
}

// sendFile writes a finished export. Files are rendered to memory first so a
// failure can still be reported as JSON.
func (s *Server) sendFile(w http.ResponseWriter, r *http.Request, buf *bytes.Buffer, contentType, name string, warnings []services.Warning) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	if len(warnings) > 0 {
		h.Set(headerWarnings, tableWarnings(warnings))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		ctx := r.Context()
		applog.FromContext(ctx).WarnContext(ctx, "Export write interrupted",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
	}
}
