package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind tells which scalar a Value holds.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
)

// Value is a single spreadsheet cell: empty, a number or text.
type Value struct {
	kind Kind
	num  decimal.Decimal
	text string
}

func Empty() Value                { return Value{} }
func Num(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }
func Int(i int) Value             { return Num(decimal.NewFromInt(int64(i))) }
func Text(s string) Value         { return Value{kind: KindText, text: s} }
func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }

// ValueOf converts a Go scalar into a Value.
func ValueOf(x any) Value {
	switch t := x.(type) {
	case nil:
		return Empty()
	case Value:
		return t
	case decimal.Decimal:
		return Num(t)
	case int:
		return Int(t)
	case int64:
		return Num(decimal.NewFromInt(t))
	case float64:
		return Num(decimal.NewFromFloat(t))
	case string:
		return Text(t)
	case bool:
		if t {
			return Text("TRUE")
		}
		return Text("FALSE")
	default:
		return Text(fmt.Sprint(t))
	}
}

// IsBlank reports whether the cell holds nothing meaningful.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindEmpty:
		return true
	case KindText:
		return strings.TrimSpace(v.text) == ""
	}
	return false
}

// Decimal reads the cell as a number. Numeric text is accepted.
func (v Value) Decimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		d, err := ParseAmount(v.text)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// Int reads the cell as a whole number.
func (v Value) Int() (int, bool) {
	d, ok := v.Decimal()
	if !ok || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	return int(d.IntPart()), true
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return v.num.String()
	case KindText:
		return v.text
	}
	return ""
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num.Equal(o.num)
	case KindText:
		return v.text == o.text
	}
	return true
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindText:
		return json.Marshal(v.text)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = Empty()
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case bytes.Equal(data, []byte("true")):
		*v = Text("TRUE")
	case bytes.Equal(data, []byte("false")):
		*v = Text("FALSE")
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("cell must be a scalar, got %s", data)
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return fmt.Errorf("invalid number %s: %w", data, err)
		}
		*v = Num(d)
	}
	return nil
}

// Row is one record: an ordered mapping from column name to cell.
// The zero Row is empty and ready to use.
type Row struct {
	keys []string
	vals map[string]Value
}

// NewRow builds a row from alternating column names and values.
func NewRow(kv ...any) Row {
	var r Row
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		r.Set(key, ValueOf(kv[i+1]))
	}
	return r
}

// Set stores a value, keeping the column's original position when it exists.
func (r *Row) Set(key string, v Value) {
	if r.vals == nil {
		r.vals = make(map[string]Value)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

func (r Row) Get(key string) (Value, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Has reports whether the column exists with a non-blank value.
func (r Row) Has(key string) bool {
	v, ok := r.vals[key]
	return ok && !v.IsBlank()
}

func (r *Row) Delete(key string) {
	if _, ok := r.vals[key]; !ok {
		return
	}
	delete(r.vals, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Rename moves a column to a new name in place. An existing target wins.
func (r *Row) Rename(from, to string) {
	v, ok := r.vals[from]
	if !ok || from == to {
		return
	}
	if _, exists := r.vals[to]; exists {
		r.Delete(from)
		return
	}
	delete(r.vals, from)
	r.vals[to] = v
	for i, k := range r.keys {
		if k == from {
			r.keys[i] = to
			break
		}
	}
}

func (r Row) Keys() []string { return append([]string(nil), r.keys...) }
func (r Row) Len() int       { return len(r.keys) }

// Num returns the column as a number, zero when absent or not numeric.
func (r Row) Num(key string) decimal.Decimal {
	d, _ := r.vals[key].Decimal()
	return d
}

// Text returns the column as trimmed text.
func (r Row) Text(key string) string {
	return strings.TrimSpace(r.vals[key].String())
}

// Int returns the column as a whole number.
func (r Row) Int(key string) (int, bool) {
	v, ok := r.vals[key]
	if !ok {
		return 0, false
	}
	return v.Int()
}

// Clone returns an independent copy.
func (r Row) Clone() Row {
	out := Row{keys: append([]string(nil), r.keys...), vals: make(map[string]Value, len(r.vals))}
	for k, v := range r.vals {
		out.vals[k] = v
	}
	return out
}

// Equal compares columns, order and values.
func (r Row) Equal(o Row) bool {
	if len(r.keys) != len(o.keys) {
		return false
	}
	for i, k := range r.keys {
		if o.keys[i] != k || !r.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := r.vals[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the column order of the JSON object.
func (r *Row) UnmarshalJSON(data []byte) error {
	*r = Row{}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row must be a JSON object")
	}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("row key must be a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		r.Set(key, v)
	}
	_, err = dec.Token()
	return err
}

// CloneRows copies every row of a table.
func CloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// Headers returns the union of columns in first-seen order.
func Headers(rows []Row) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range rows {
		for _, k := range r.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
