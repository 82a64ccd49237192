package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
)

func TestRollTableResetsAndStamps(t *testing.T) {
	rows := []core.Row{
		core.NewRow("mes", 12, "año", 2025, "nombre", "Vacaciones", "monto", 100, "monto_usado", 30, "se_usó", "Sí"),
		core.NewRow("mes", 11, "año", 2025, "nombre", "Vieja", "monto", 5),
	}
	rules := DefaultRolloverRules()
	out, copied := RollTable(rows, core.Period{Month: 12, Year: 2025}, rules.Tables[2].Reset)

	require.Equal(t, 1, copied)
	require.Len(t, out, 3)
	c := out[2]
	m, _ := c.Int("mes")
	y, _ := c.Int("año")
	assert.Equal(t, 1, m)
	assert.Equal(t, 2026, y)
	assert.Equal(t, "No", c.Text("se_usó"))
	assert.True(t, c.Num("monto_usado").IsZero())
	assert.True(t, c.Num("monto").Equal(dec("100")))

	// the source row is untouched
	assert.Equal(t, "Sí", out[0].Text("se_usó"))
}

func TestRollTableIsIdempotent(t *testing.T) {
	rows := sampleTables()[core.TableExpenses]
	reset := map[string]any{"estado": "pendiente"}

	first, n1 := RollTable(rows, jan25, reset)
	second, n2 := RollTable(first, jan25, reset)

	assert.Equal(t, 2, n1)
	assert.Equal(t, n1, n2)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.True(t, first[i].Equal(second[i]), "row %d", i)
	}

	target := FilterStrict(second, feb25)
	require.Len(t, target, 2, "existing February row is replaced, not kept")
	for _, r := range target {
		assert.Equal(t, "pendiente", r.Text("estado"))
	}
}

func TestRollTableSkipsEmptySource(t *testing.T) {
	rows := sampleTables()[core.TableExpenses]
	out, n := RollTable(rows, core.Period{Month: 6, Year: 2025}, nil)
	assert.Zero(t, n)
	assert.Equal(t, len(rows), len(out))
}

func TestParseRolloverRules(t *testing.T) {
	rules, err := ParseRolloverRules([]byte(`
tables:
  - name: Provisiones
    reset:
      se_usó: "No"
      monto_usado: 0
  - name: Ahorros
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Provisiones", "Ahorros"}, rules.TableNames())
	assert.Equal(t, "No", rules.Tables[0].Reset["se_usó"])

	_, err = ParseRolloverRules([]byte("tables:\n  - name: Cuentas\n"))
	require.ErrorIs(t, err, core.ErrUnknownTable)

	_, err = ParseRolloverRules([]byte("tables:\n  - name: Ahorros\n  - name: Ahorros\n"))
	require.Error(t, err)

	_, err = ParseRolloverRules([]byte("tables: []"))
	require.Error(t, err)
}
