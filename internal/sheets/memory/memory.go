package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"
)

// SeedFile is read from the data directory by NewFromFiles.
const SeedFile = "seed.yaml"

// Store keeps every table in memory. Reads and writes hand out copies so
// callers never share rows with the store.
type Store struct {
	mu     sync.Mutex
	tables map[string][]core.Row
}

var _ ports.TableStore = (*Store)(nil)

func New(tables map[string][]core.Row) *Store {
	s := &Store{tables: make(map[string][]core.Row, len(tables))}
	for name, rows := range tables {
		s.tables[name] = core.CloneRows(rows)
	}
	return s
}

// NewFromFiles loads base/seed.yaml when present and starts empty otherwise.
func NewFromFiles(base string) (*Store, error) {
	data, err := os.ReadFile(filepath.Join(base, SeedFile))
	if os.IsNotExist(err) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	tables, err := ParseSeed(data)
	if err != nil {
		return nil, err
	}
	return New(tables), nil
}

// ReadTable returns a copy of the table. Unknown names are an error, a known
// table that was never written is empty.
func (s *Store) ReadTable(_ context.Context, name string) ([]core.Row, error) {
	if err := core.ValidateTable(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.CloneRows(s.tables[name]), nil
}

// WriteTable replaces the table with a copy of rows.
func (s *Store) WriteTable(_ context.Context, name string, rows []core.Row) error {
	if err := core.ValidateTable(name); err != nil {
		return err
	}
	cp := core.CloneRows(rows)
	ports.NormalizeRows(cp)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = cp
	return nil
}

// ParseSeed reads a YAML document mapping table names to lists of rows,
// keeping the column order written in the file:
//
//	Ingresos:
//	  - {mes: 1, año: 2025, fuente: Sueldo, monto: 1000, cuenta: Banco}
func ParseSeed(data []byte) (map[string][]core.Row, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	out := make(map[string][]core.Row)
	if len(doc.Content) == 0 {
		return out, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse seed: top level must map table names to rows")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		if err := core.ValidateTable(name); err != nil {
			return nil, fmt.Errorf("parse seed: %w", err)
		}
		list := root.Content[i+1]
		if list.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("parse seed: %s must be a list of rows", name)
		}
		rows := make([]core.Row, 0, len(list.Content))
		for _, item := range list.Content {
			r, err := rowFromNode(item)
			if err != nil {
				return nil, fmt.Errorf("parse seed: %s: %w", name, err)
			}
			rows = append(rows, r)
		}
		ports.NormalizeRows(rows)
		out[name] = rows
	}
	return out, nil
}

func rowFromNode(n *yaml.Node) (core.Row, error) {
	var r core.Row
	if n.Kind != yaml.MappingNode {
		return r, fmt.Errorf("line %d: row must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return r, fmt.Errorf("line %d: %s must be a scalar", val.Line, key)
		}
		r.Set(key, scalarValue(val))
	}
	return r, nil
}

func scalarValue(n *yaml.Node) core.Value {
	switch n.ShortTag() {
	case "!!null":
		return core.Empty()
	case "!!int", "!!float":
		if d, err := core.ParseAmount(n.Value); err == nil {
			return core.Num(d)
		}
	}
	if n.Value == "" {
		return core.Empty()
	}
	return core.Text(n.Value)
}
