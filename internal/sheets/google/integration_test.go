//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"finanzas/internal/core"
)

// Integration tests require real Google Sheets credentials and a workbook
// with a "Presupuestos" tab that may be overwritten.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := New(ctx, Options{
		SpreadsheetID:   spreadsheetID,
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	before, err := client.ReadTable(ctx, core.TableBudgets)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	t.Cleanup(func() {
		if err := client.WriteTable(context.Background(), core.TableBudgets, before); err != nil {
			t.Errorf("restore: %v", err)
		}
	})

	rows := append(core.CloneRows(before), core.NewRow("mes", 1, "año", 1999, "categoria", "Ahorros", "monto_maximo", 42))
	if err := client.WriteTable(ctx, core.TableBudgets, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	after, err := client.ReadTable(ctx, core.TableBudgets)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(after) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(after))
	}
	if got := after[len(after)-1].Num("monto_maximo").String(); got != "42" {
		t.Errorf("monto_maximo = %s", got)
	}
}
