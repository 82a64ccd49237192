package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
)

// errBadRequest marks malformed input that is not a ledger validation error.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// dataResponse wraps every successful payload. Warnings list tables that
// could not be read and were treated as empty.
type dataResponse struct {
	Data     any                `json:"data"`
	Warnings []services.Warning `json:"warnings,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any, warnings []services.Warning) {
	writeJSON(w, status, dataResponse{Data: data, Warnings: warnings})
}

// writeError maps err to a status code. Unexpected errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr core.ValidationErrors
	var ferr validator.ValidationErrors

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Details: []string(verr)})
	case errors.As(err, &ferr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Details: fieldErrors(ferr)})
	case errors.Is(err, core.ErrNotConfirmed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: core.ErrUnauthorized.Error()})
	case errors.Is(err, core.ErrUnknownTable):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrInvalidPeriod), errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		ctx := r.Context()
		applog.FromContext(ctx).ErrorContext(ctx, "Request failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func fieldErrors(errs validator.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s: must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return out
}

// parsePeriod reads month and year from the query. A missing part comes
// from def; a present but malformed part is an error.
func parsePeriod(r *http.Request, def core.Period) (core.Period, error) {
	p := def
	q := r.URL.Query()
	for _, part := range []struct {
		key string
		dst *int
	}{{"month", &p.Month}, {"year", &p.Year}} {
		v := strings.TrimSpace(q.Get(part.key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("%w: %s=%q", core.ErrInvalidPeriod, part.key, v)
		}
		*part.dst = n
	}
	if err := p.Validate(); err != nil {
		return core.Period{}, err
	}
	return p, nil
}

// parseCount reads a positive integer query parameter bounded by max.
func parseCount(r *http.Request, key string, def, max int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > max {
		return 0, fmt.Errorf("%w: %s must be between 1 and %d", errBadRequest, key, max)
	}
	return n, nil
}

// decodeJSON reads a bounded JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return s.validate.Struct(dst)
}

// tableWarnings joins the warned tables for a response header.
func tableWarnings(warnings []services.Warning) string {
	names := make([]string, 0, len(warnings))
	for _, w := range warnings {
		names = append(names, w.Table)
	}
	return strings.Join(names, ", ")
}
