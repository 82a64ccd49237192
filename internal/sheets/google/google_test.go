package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"
)

// fakeSheets serves the three Sheets endpoints the client uses.
type fakeSheets struct {
	mu       sync.Mutex
	values   [][]interface{}
	missing  bool
	sheets   map[string]int64
	batches  []gsheet.BatchUpdateSpreadsheetRequest
	getCalls int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/") && f.missing:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Unable to parse range: 'Presupuestos'","status":"INVALID_ARGUMENT"}}`))
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]any{"majorDimension": "ROWS", "values": f.values})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.batches = append(f.batches, req)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet:
		f.getCalls++
		var sheets []map[string]any
		for title, id := range f.sheets {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"sheetId": id, "title": title}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(svc, "sheet-id")
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Options{SpreadsheetID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestClient_ReadTable(t *testing.T) {
	f := &fakeSheets{values: [][]interface{}{
		{"mes", "año", "nombre", "se_uso", "monto_usado"},
		{1, 2025, "Vacaciones", "Sí", 0},
	}}
	c := newTestClient(t, f)

	rows, err := c.ReadTable(context.Background(), core.TableProvisions)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Sí", rows[0].Text(core.ColUsedFlag))
	m, ok := rows[0].Int(core.ColMonth)
	require.True(t, ok)
	assert.Equal(t, 1, m)
}

func TestClient_WriteTable(t *testing.T) {
	f := &fakeSheets{sheets: map[string]int64{core.TableProvisions: 7}}
	c := newTestClient(t, f)
	ctx := context.Background()

	rows := []core.Row{core.NewRow("mes", 1, "año", 2025, "nombre", "Vacaciones", "monto", 100)}
	require.NoError(t, c.WriteTable(ctx, core.TableProvisions, rows))
	require.NoError(t, c.WriteTable(ctx, core.TableProvisions, nil))

	require.Len(t, f.batches, 2)
	assert.Equal(t, 1, f.getCalls, "sheet ids are cached")

	require.Len(t, f.batches[0].Requests, 2)
	grid := f.batches[0].Requests[0].UpdateSheetProperties
	require.NotNil(t, grid)
	assert.Equal(t, int64(7), grid.Properties.SheetId)
	assert.Equal(t, int64(minGridRows), grid.Properties.GridProperties.RowCount)

	upd := f.batches[0].Requests[1].UpdateCells
	require.NotNil(t, upd)
	assert.Equal(t, int64(7), upd.Range.SheetId)
	assert.Equal(t, "userEnteredValue", upd.Fields)
	require.Len(t, upd.Rows, 2)
	assert.Equal(t, "nombre", *upd.Rows[0].Values[2].UserEnteredValue.StringValue)

	// an empty table keeps its known header row
	empty := f.batches[1].Requests[1].UpdateCells
	require.Len(t, empty.Rows, 1)
	assert.Len(t, empty.Rows[0].Values, 7)
}

func TestClient_WriteGrowsGrid(t *testing.T) {
	f := &fakeSheets{sheets: map[string]int64{core.TableExpenses: 3}}
	c := newTestClient(t, f)

	rows := make([]core.Row, 1500)
	for i := range rows {
		rows[i] = core.NewRow("mes", 1, "año", 2025, "nombre", "Luz", "monto", i)
	}
	require.NoError(t, c.WriteTable(context.Background(), core.TableExpenses, rows))

	require.Len(t, f.batches, 1)
	grid := f.batches[0].Requests[0].UpdateSheetProperties
	require.NotNil(t, grid)
	assert.Equal(t, int64(1501), grid.Properties.GridProperties.RowCount)
	assert.Equal(t, int64(minGridColumns), grid.Properties.GridProperties.ColumnCount)
	assert.Len(t, f.batches[0].Requests[1].UpdateCells.Rows, 1501)
}

func TestClient_ReadMissingTab(t *testing.T) {
	f := &fakeSheets{missing: true}
	c := newTestClient(t, f)

	_, err := c.ReadTable(context.Background(), core.TableBudgets)
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrTableNotFound)
}

func TestIsMissingRange(t *testing.T) {
	assert.True(t, isMissingRange(fmt.Errorf("wrapped: %w",
		&googleapi.Error{Code: http.StatusBadRequest, Message: "Unable to parse range: 'X'"})))
	assert.False(t, isMissingRange(&googleapi.Error{Code: http.StatusBadRequest, Message: "Invalid value"}))
	assert.False(t, isMissingRange(&googleapi.Error{Code: http.StatusForbidden, Message: "Unable to parse range"}))
	assert.False(t, isMissingRange(errors.New("Unable to parse range")))
}

func TestClient_WriteUnknownTab(t *testing.T) {
	f := &fakeSheets{sheets: map[string]int64{"Otra": 1}}
	c := newTestClient(t, f)
	err := c.WriteTable(context.Background(), core.TableIncome, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrTableNotFound))
	assert.Empty(t, f.batches)
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "x"}
	_, err := c.ReadTable(context.Background(), core.TableIncome)
	require.Error(t, err)
	require.Error(t, c.WriteTable(context.Background(), core.TableIncome, nil))
}
