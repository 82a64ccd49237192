package ledger

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"finanzas/internal/core"
)

// RolloverTable configures one table copied forward by a rollover and the
// fields reset on the copies.
type RolloverTable struct {
	Name  string         `yaml:"name"`
	Reset map[string]any `yaml:"reset"`
}

// RolloverRules is the full rollover configuration.
type RolloverRules struct {
	Tables []RolloverTable `yaml:"tables"`
}

// DefaultRolloverRules copies the recurring tables of a month into the next,
// resetting the fields that describe what happened during the month.
func DefaultRolloverRules() RolloverRules {
	return RolloverRules{Tables: []RolloverTable{
		{Name: core.TableExpenses, Reset: map[string]any{core.ColStatus: core.StatusPending}},
		{Name: core.TableDebts, Reset: map[string]any{core.ColMonthlyCount: 0}},
		{Name: core.TableProvisions, Reset: map[string]any{core.ColUsedFlag: "No", core.ColUsed: 0}},
		{Name: core.TableSavings},
	}}
}

// ParseRolloverRules reads rules from YAML:
//
//	tables:
//	  - name: Provisiones
//	    reset:
//	      se_usó: "No"
//	      monto_usado: 0
func ParseRolloverRules(data []byte) (RolloverRules, error) {
	var rules RolloverRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RolloverRules{}, fmt.Errorf("parse rollover rules: %w", err)
	}
	if len(rules.Tables) == 0 {
		return RolloverRules{}, fmt.Errorf("parse rollover rules: no tables configured")
	}
	seen := make(map[string]struct{}, len(rules.Tables))
	for _, t := range rules.Tables {
		if !core.IsPeriodTable(t.Name) {
			return RolloverRules{}, fmt.Errorf("parse rollover rules: %w: %q", core.ErrUnknownTable, t.Name)
		}
		if _, dup := seen[t.Name]; dup {
			return RolloverRules{}, fmt.Errorf("parse rollover rules: table %q listed twice", t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return rules, nil
}

// TableNames lists the configured tables in order.
func (r RolloverRules) TableNames() []string {
	out := make([]string, len(r.Tables))
	for i, t := range r.Tables {
		out[i] = t.Name
	}
	return out
}

// RolloverStatus is the per-table result of a rollover.
type RolloverStatus string

const (
	RolloverCopied  RolloverStatus = "copied"
	RolloverSkipped RolloverStatus = "skipped"
	RolloverError   RolloverStatus = "error"
)

// RolloverOutcome reports what happened to one table.
type RolloverOutcome struct {
	Table  string         `json:"table"`
	Status RolloverStatus `json:"status"`
	Copied int            `json:"copied"`
	Error  string         `json:"error,omitempty"`
}

// RollTable copies the rows of source into source.Next(), applying resets.
// Rows already in the target period are dropped first, so running it twice
// with the same source rows yields the same table. When source has no rows
// the table is returned unchanged with copied == 0.
func RollTable(rows []core.Row, source core.Period, reset map[string]any) ([]core.Row, int) {
	matched := FilterStrict(rows, source)
	if len(matched) == 0 {
		return rows, 0
	}
	target := source.Next()

	keys := make([]string, 0, len(reset))
	for k := range reset {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]core.Row, 0, len(rows)+len(matched))
	for _, r := range rows {
		if rp, ok := PeriodOfRow(r); ok && rp == target {
			continue
		}
		out = append(out, r)
	}
	for _, r := range matched {
		c := r.Clone()
		c.Set(core.ColMonth, core.Int(target.Month))
		c.Set(core.ColYear, core.Int(target.Year))
		for _, k := range keys {
			c.Set(k, core.ValueOf(reset[k]))
		}
		out = append(out, c)
	}
	return out, len(matched)
}
