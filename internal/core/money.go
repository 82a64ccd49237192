// Package core provides the ledger's domain types and amount handling.
//
// Amounts are shopspring decimals end to end; spreadsheet cells may carry
// them as numbers or as text with either decimal separator.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a cell's text into a decimal amount.
//
// It accepts dot (12.34) and comma (12,34) decimal separators. When both
// appear, the last one is the decimal separator and the other groups
// thousands. Currency symbols and spaces are ignored. Negative values are
// returned as such; callers decide whether they are allowed.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34
//	ParseAmount("12,34")    -> 12.34
//	ParseAmount("1.500,50") -> 1500.50
//	ParseAmount("$ 2,000.5") -> 2000.5
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', ' ', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatMoney renders an amount with thousands grouping, e.g. "$1,500" or
// "$1,500.25". Whole amounts drop the decimals.
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	var s string
	if d.Equal(d.Round(0)) {
		s = d.Round(0).String()
	} else {
		s = d.StringFixed(2)
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + "$" + b.String()
}

// Sum adds amounts.
func Sum(ds ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d)
	}
	return total
}
