package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"finanzas/internal/core"
)

func TestMemoryStoreReadWrite(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	rows, err := s.ReadTable(ctx, core.TableIncome)
	if err != nil || len(rows) != 0 {
		t.Fatalf("unexpected read: rows=%v err=%v", rows, err)
	}

	in := []core.Row{core.NewRow("mes", 1, "año", 2025, "monto", 10)}
	if err := s.WriteTable(ctx, core.TableIncome, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	in[0].Set("monto", core.Int(99))

	rows, _ = s.ReadTable(ctx, core.TableIncome)
	if len(rows) != 1 || rows[0].Num("monto").IntPart() != 10 {
		t.Fatalf("store must keep its own copy, got %v", rows)
	}
	rows[0].Set("monto", core.Int(77))
	again, _ := s.ReadTable(ctx, core.TableIncome)
	if again[0].Num("monto").IntPart() != 10 {
		t.Fatalf("reads must hand out copies")
	}
}

func TestMemoryStoreUnknownTable(t *testing.T) {
	s := New(nil)
	if _, err := s.ReadTable(context.Background(), "Otra"); !errors.Is(err, core.ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
	if err := s.WriteTable(context.Background(), "Otra", nil); !errors.Is(err, core.ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("missing seed should start empty: %v", err)
	}
	if rows, _ := s.ReadTable(context.Background(), core.TableIncome); len(rows) != 0 {
		t.Fatalf("expected empty store")
	}

	seed := `
Provisiones:
  - {mes: 1, año: 2025, nombre: Vacaciones, monto: 200.5, se_uso: "Sí", nota: ~, total_acumulado: 0}
Cuentas:
  - nombre_cuenta: Banco A
    banco: A
`
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	rows, _ := s.ReadTable(context.Background(), core.TableProvisions)
	if len(rows) != 1 {
		t.Fatalf("expected 1 provision, got %d", len(rows))
	}
	r := rows[0]
	want := []string{"mes", "año", "nombre", "monto", "se_usó", "nota", "total_acumulado"}
	if got := r.Keys(); len(got) != len(want) || got[4] != want[4] || got[0] != want[0] {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	if r.Num("monto").String() != "200.5" {
		t.Errorf("monto = %s", r.Num("monto"))
	}
	if v, _ := r.Get("nota"); v.Kind() != core.KindEmpty {
		t.Errorf("null should be empty, got %v", v)
	}
	if v, _ := r.Get("total_acumulado"); !v.IsNumber() {
		t.Errorf("total_acumulado should be numeric")
	}
	accounts, _ := s.ReadTable(context.Background(), core.TableAccounts)
	if len(accounts) != 1 || accounts[0].Text("nombre_cuenta") != "Banco A" {
		t.Fatalf("unexpected accounts %v", accounts)
	}
}

func TestParseSeedErrors(t *testing.T) {
	cases := map[string]string{
		"unknown table": "Otra:\n  - {a: 1}\n",
		"not a list":    "Ingresos: 5\n",
		"nested value":  "Ingresos:\n  - {monto: [1, 2]}\n",
		"top level":     "- 1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseSeed([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
