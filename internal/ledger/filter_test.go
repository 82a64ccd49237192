package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"finanzas/internal/core"
)

func TestFilter(t *testing.T) {
	rows := []core.Row{
		core.NewRow("mes", 1, "año", 2025, "monto", 1),
		core.NewRow("nombre_cuenta", "Banco A"),
		core.NewRow("mes", 2, "año", 2025, "monto", 2),
		core.NewRow("mes", "1", "año", "2025", "monto", 3),
		core.NewRow("mes", 1, "monto", 4),
		core.NewRow("mes", "", "año", "", "monto", 5),
	}

	got := Filter(rows, jan25)
	var amounts []string
	for _, r := range got {
		amounts = append(amounts, r.Num("monto").String())
	}
	// period-agnostic rows pass, text periods match, half-scoped rows do not
	assert.Equal(t, []string{"1", "0", "3", "5"}, amounts)

	assert.Len(t, FilterStrict(rows, jan25), 2)
}

func TestFilterIsIdempotent(t *testing.T) {
	tables := sampleTables()
	for name, rows := range tables {
		once := Filter(rows, jan25)
		twice := Filter(once, jan25)
		assert.Equal(t, len(once), len(twice), name)
		for i := range once {
			assert.True(t, once[i].Equal(twice[i]), "%s row %d", name, i)
		}
	}
}

func TestFilterStatusAndYear(t *testing.T) {
	rows := sampleTables()[core.TableExpenses]
	assert.Len(t, FilterStatus(rows, "PENDIENTE"), 1)
	assert.Len(t, FilterStatus(rows, ""), 3)

	rows = append(rows, core.NewRow("mes", 1, "año", 2024, "monto", 9), core.NewRow("nombre", "sin año"))
	assert.Len(t, FilterYear(rows, 2025), 4)
}
