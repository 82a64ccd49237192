package sheets

import (
	"strings"

	"finanzas/internal/core"
)

// columnAliases maps spellings found in older workbooks to the canonical
// column name. se_uso without the accent is the one seen in practice.
var columnAliases = map[string]string{
	"se_uso": core.ColUsedFlag,
	"ano":    core.ColYear,
	"anio":   core.ColYear,
	"dia":    core.ColDay,
}

// NormalizeHeader trims a header and resolves known aliases. aliased is
// true when the header was rewritten.
func NormalizeHeader(h string) (name string, aliased bool) {
	h = strings.TrimSpace(h)
	if canon, ok := columnAliases[strings.ToLower(h)]; ok {
		return canon, true
	}
	return h, false
}

// NormalizeRows rewrites aliased columns of every row in place and returns
// the aliases it met, in first-seen order.
func NormalizeRows(rows []core.Row) []string {
	var seen []string
	met := map[string]bool{}
	for i := range rows {
		for _, k := range rows[i].Keys() {
			canon, aliased := NormalizeHeader(k)
			if canon == k {
				continue
			}
			rows[i].Rename(k, canon)
			if aliased && !met[k] {
				met[k] = true
				seen = append(seen, k)
			}
		}
	}
	return seen
}
