// Package manifest defines the typed table manifest consumed by the query
// compiler, a YAML/JSON loader that preserves the manifest's table order, and
// a static validator that reports issues per table before compilation starts.
//
// A manifest file is a mapping of table name to table spec:
//
//	northwind__orders:
//	  database: bronze
//	  schema: northwind
//	  table: orders
//	  grain: [_HK__order]
//	  columns:
//	    id: int
//	    customer_id: int
//	    order_date: datetime
//	  hooks:
//	    - name: _HK__order
//	      concept: order
//	      keyset: northwind:order
//	      expression: id
//	  invalidate_hard_deletes: true
//	  managed: true
//
// Manifests are read-only inputs: once loaded and validated they are never
// mutated by compilation.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HookSpec describes one synthesized key column on a table.
type HookSpec struct {
	// Name is the output column identifier, unique within the table.
	Name string `yaml:"name" json:"name"`

	// Concept is the semantic label of the business concept the hook
	// identifies (e.g. "order", "customer").
	Concept string `yaml:"concept" json:"concept"`

	// Keyset is the namespace prefixed onto the key value with a `|`
	// separator. It is treated as an opaque literal; a keyset containing `|`
	// can collide with another concept's keys.
	Keyset string `yaml:"keyset" json:"keyset"`

	// Expression is a source-column reference or scalar expression producing
	// the natural key.
	Expression string `yaml:"expression" json:"expression"`
}

// Column is a declared source column with its semantic type.
type Column struct {
	Name string
	Type string
}

// Columns is the ordered list of declared columns. It decodes from a YAML or
// JSON mapping while preserving the declaration order, which fixes the column
// order of the peripheral artifact.
type Columns []Column

// UnmarshalYAML decodes a mapping node into ordered Columns.
func (c *Columns) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: columns must be a mapping of name to type")
	}
	out := make(Columns, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var name, typ string
		if err := n.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("manifest: column name: %w", err)
		}
		if err := n.Content[i+1].Decode(&typ); err != nil {
			return fmt.Errorf("manifest: column %q type: %w", name, err)
		}
		out = append(out, Column{Name: name, Type: typ})
	}
	*c = out
	return nil
}

// Names returns the column names in declaration order.
func (c Columns) Names() []string {
	names := make([]string, len(c))
	for i, col := range c {
		names[i] = col.Name
	}
	return names
}

// Has reports whether a column with the given name is declared.
func (c Columns) Has(name string) bool {
	for _, col := range c {
		if col.Name == name {
			return true
		}
	}
	return false
}

// TableSpec is one manifest entry. Name is the manifest key and doubles as
// the unit of target identity for all three compiled artifacts.
type TableSpec struct {
	Name string `yaml:"-" json:"-"`

	Database string `yaml:"database" json:"database"`
	Schema   string `yaml:"schema" json:"schema"`
	Table    string `yaml:"table" json:"table"`

	// Grain is the ordered list of column or hook names defining the
	// partition identity used for temporal versioning.
	Grain []string `yaml:"grain" json:"grain"`

	Columns Columns    `yaml:"columns" json:"columns"`
	Hooks   []HookSpec `yaml:"hooks" json:"hooks"`

	// InvalidateHardDeletes is a policy flag consumed by downstream loading
	// logic; the compiler carries it through without interpreting it.
	InvalidateHardDeletes bool `yaml:"invalidate_hard_deletes" json:"invalidate_hard_deletes"`

	// Managed selects whether a hook artifact is produced for the table.
	Managed bool `yaml:"managed" json:"managed"`
}

// HookNames returns the hook output column names in declaration order.
func (t TableSpec) HookNames() []string {
	names := make([]string, len(t.Hooks))
	for i, h := range t.Hooks {
		names[i] = h.Name
	}
	return names
}

// Manifest is the ordered set of table specs. Order follows the manifest
// file and is preserved in compilation results, though each table's
// compilation is independent of the others.
type Manifest struct {
	Tables []TableSpec
}

// Lookup returns the spec for the given table name.
func (m Manifest) Lookup(name string) (TableSpec, bool) {
	for _, t := range m.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSpec{}, false
}

// Parse decodes manifest bytes. YAML and JSON are both accepted (JSON is a
// subset of the YAML the decoder understands). Table order in the document
// is preserved.
func Parse(data []byte) (Manifest, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Manifest{}, fmt.Errorf("manifest: decode: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Manifest{}, fmt.Errorf("manifest: empty document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return Manifest{}, fmt.Errorf("manifest: top level must be a mapping of table name to spec")
	}

	m := Manifest{Tables: make([]TableSpec, 0, len(root.Content)/2)}
	seen := make(map[string]struct{}, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		var name string
		if err := root.Content[i].Decode(&name); err != nil {
			return Manifest{}, fmt.Errorf("manifest: table name: %w", err)
		}
		if _, dup := seen[name]; dup {
			return Manifest{}, fmt.Errorf("manifest: duplicate table %q", name)
		}
		seen[name] = struct{}{}

		var spec TableSpec
		if err := root.Content[i+1].Decode(&spec); err != nil {
			return Manifest{}, fmt.Errorf("manifest: table %q: %w", name, err)
		}
		spec.Name = name
		m.Tables = append(m.Tables, spec)
	}
	return m, nil
}

// Load reads and parses a manifest file.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return Parse(data)
}
