package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options configure the Sheets client.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

const (
	minGridRows    = 1000
	minGridColumns = 26
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// Ensure interface conformance
var _ ports.TableStore = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither option is set.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// ReadTable reads a whole tab. The first row holds the column names.
func (c *Client) ReadTable(ctx context.Context, name string) ([]core.Row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := quoteSheet(name)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if isMissingRange(err) {
		c.forgetSheet(name)
		return nil, fmt.Errorf("read %s: %w", rng, ports.ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows, aliases := parseTable(resp.Values)
	if len(aliases) > 0 {
		slog.WarnContext(ctx, "Normalized legacy column names",
			"table", name, "columns", aliases)
	}
	return rows, nil
}

// WriteTable replaces the tab's contents in a single batchUpdate, so the
// sheet either holds the new table or keeps the old one.
func (c *Client) WriteTable(ctx context.Context, name string, rows []core.Row) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheetID, err := c.sheetID(ctx, name)
	if err != nil {
		return err
	}
	headers := core.Headers(rows)
	if len(headers) == 0 {
		headers, _ = core.Columns(name)
	}
	// The grid is resized first: UpdateCells cannot write past its bounds.
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{
			{
				UpdateSheetProperties: &gsheet.UpdateSheetPropertiesRequest{
					Properties: &gsheet.SheetProperties{
						SheetId:         sheetID,
						GridProperties:  gridSize(len(rows)+1, len(headers)),
						ForceSendFields: []string{"SheetId"},
					},
					Fields: "gridProperties.rowCount,gridProperties.columnCount",
				},
			},
			{
				UpdateCells: &gsheet.UpdateCellsRequest{
					Range:  &gsheet.GridRange{SheetId: sheetID, ForceSendFields: []string{"SheetId"}},
					Rows:   buildGrid(headers, rows),
					Fields: "userEnteredValue",
				},
			},
		},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	slog.InfoContext(ctx, "Table written to Google Sheets", "table", name, "rows", len(rows))
	return nil
}

// sheetID resolves a tab title to its numeric id, caching the lookup.
func (c *Client) sheetID(ctx context.Context, name string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.sheetIDs[name]; ok {
		return id, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet properties: %w", err)
	}
	c.sheetIDs = make(map[string]int64, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
	}
	id, ok := c.sheetIDs[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ports.ErrTableNotFound, name)
	}
	return id, nil
}

func (c *Client) forgetSheet(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sheetIDs, name)
}

// gridSize never goes below the size of a new Google Sheets tab.
func gridSize(rows, cols int) *gsheet.GridProperties {
	return &gsheet.GridProperties{
		RowCount:    int64(max(rows, minGridRows)),
		ColumnCount: int64(max(cols, minGridColumns)),
	}
}

// isMissingRange reports the error Sheets returns when a range names a tab
// that does not exist.
func isMissingRange(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) &&
		gerr.Code == http.StatusBadRequest &&
		strings.Contains(gerr.Message, "Unable to parse range")
}

// quoteSheet turns a tab title into an A1 range covering the whole tab.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
