// Package uss provides reference implementations of the two downstream
// artifact builders that consume a table's hook artifact: the bridge (link)
// query and the peripheral (descriptive) query.
//
// Both read from the hook artifact's target location, not from the original
// source table, so they stay valid regardless of how the hook table was
// materialized. They are deliberately plain single-table projections; callers
// with richer unified-star-schema conventions can swap in their own builders
// through the compiler's collaborator options.
package uss

import (
	"fmt"

	"hooksql/internal/manifest"
	"hooksql/internal/record"
	"hooksql/internal/sqlexpr"
)

// Builder implements the compiler's bridge and peripheral collaborator
// contracts with the reference projections described above.
type Builder struct{}

// BuildBridgeQuery returns the linking projection for the table behind
// hookTable: every hook column declared in the manifest for that table, plus
// the row identifier and validity columns needed to join hook occurrences
// over time.
//
// The table spec is looked up in the manifest by the hook table's name, which
// is the manifest key by construction.
func (Builder) BuildBridgeQuery(m manifest.Manifest, hookTable sqlexpr.TableRef) (*sqlexpr.Select, error) {
	spec, ok := m.Lookup(hookTable.Name)
	if !ok {
		return nil, fmt.Errorf("uss: table %q not present in manifest", hookTable.Name)
	}
	if len(spec.Hooks) == 0 {
		return nil, fmt.Errorf("uss: table %q declares no hooks to bridge", hookTable.Name)
	}

	items := make([]sqlexpr.Expr, 0, len(spec.Hooks)+4)
	for _, h := range spec.Hooks {
		items = append(items, sqlexpr.Column{Name: h.Name})
	}
	for _, c := range []string{record.UID, record.ValidFrom, record.ValidTo, record.IsCurrent} {
		items = append(items, sqlexpr.Column{Name: c})
	}

	return &sqlexpr.Select{Items: items, From: hookTable}, nil
}

// BuildPeripheralQuery returns the descriptive projection: the table's
// declared columns in declaration order followed by the six record columns,
// all read from the hook table.
func (Builder) BuildPeripheralQuery(hookTable sqlexpr.TableRef, columns manifest.Columns) (*sqlexpr.Select, error) {
	if hookTable.Name == "" {
		return nil, fmt.Errorf("uss: hook table name must not be empty")
	}

	items := make([]sqlexpr.Expr, 0, len(columns)+6)
	for _, c := range columns {
		items = append(items, sqlexpr.Column{Name: c.Name})
	}
	for _, c := range record.Derived() {
		items = append(items, sqlexpr.Column{Name: c})
	}

	return &sqlexpr.Select{Items: items, From: hookTable}, nil
}
