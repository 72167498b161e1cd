// Package validity synthesizes the bitemporal validity-window projection:
// per-row validity bounds, version numbers, current-row flags, and a
// deterministic row identifier, all computed with window functions
// partitioned by the table's grain and ordered by load timestamp.
//
// The input relation must already carry the two audit columns
// record.LoadedAt and record.HashRemovedAt; they are produced by the loading
// process upstream, never here.
//
// Rows sharing an identical load timestamp within one partition make version
// and is_current non-deterministic. Load-timestamp uniqueness per partition
// is a precondition of this builder, not something it enforces.
package validity

import (
	"fmt"

	"hooksql/internal/record"
	"hooksql/internal/sqlexpr"
)

// BuildSelect returns a SELECT over `from` that preserves every input column
// (via `*`) and appends the six derived record columns, in this order:
// valid_from, valid_to, version, is_current, updated_at, uid.
//
// All window computations use PARTITION BY grain ORDER BY record.LoadedAt
// ascending. Grain entries are emitted as plain column references; by the
// time this builder runs they are ordinary output columns of the hook stage.
func BuildSelect(from sqlexpr.TableRef, grain []string) (*sqlexpr.Select, error) {
	if from.Name == "" {
		return nil, fmt.Errorf("validity: source table name must not be empty")
	}

	partition := make([]sqlexpr.Expr, len(grain))
	for i, g := range grain {
		if g == "" {
			return nil, fmt.Errorf("validity: grain entry %d is empty", i)
		}
		partition[i] = sqlexpr.Column{Name: g}
	}
	order := []sqlexpr.Expr{sqlexpr.Column{Name: record.LoadedAt}}

	over := func(fn sqlexpr.Func) sqlexpr.Window {
		return sqlexpr.Window{Fn: fn, PartitionBy: partition, OrderBy: order}
	}

	loaded := sqlexpr.Column{Name: record.LoadedAt}
	removed := sqlexpr.Column{Name: record.HashRemovedAt}
	lagLoaded := over(sqlexpr.Func{Name: "LAG", Args: []sqlexpr.Expr{loaded}})
	leadLoaded := over(sqlexpr.Func{Name: "LEAD", Args: []sqlexpr.Expr{loaded}})

	// valid_from: previous row's load timestamp, or the epoch sentinel for
	// the first version in the partition.
	validFrom := sqlexpr.Alias{
		E:    sqlexpr.Coalesce(lagLoaded, sqlexpr.TimestampLit{V: record.EpochSentinel}),
		Name: record.ValidFrom,
	}

	// valid_to: the earlier of the row's own removal timestamp and the next
	// row's load timestamp, or the infinite sentinel while the row is open.
	validTo := sqlexpr.Alias{
		E:    sqlexpr.Coalesce(sqlexpr.Least(removed, leadLoaded), sqlexpr.TimestampLit{V: record.InfinitySentinel}),
		Name: record.ValidTo,
	}

	version := sqlexpr.Alias{
		E:    over(sqlexpr.Func{Name: "ROW_NUMBER"}),
		Name: record.Version,
	}

	// is_current: exactly the row with no successor in partition order.
	isCurrent := sqlexpr.Alias{
		E: sqlexpr.Case{
			Whens: []sqlexpr.When{{
				Cond: sqlexpr.IsNull{E: leadLoaded},
				Then: sqlexpr.Number{V: "1"},
			}},
			Else: sqlexpr.Number{V: "0"},
		},
		Name: record.IsCurrent,
	}

	// updated_at: like valid_to but falling back to the row's own load
	// timestamp instead of the infinite sentinel.
	updatedAt := sqlexpr.Alias{
		E:    sqlexpr.Coalesce(sqlexpr.Least(removed, leadLoaded), loaded),
		Name: record.UpdatedAt,
	}

	uid := sqlexpr.Alias{
		E:    buildUID(grain),
		Name: record.UID,
	}

	return &sqlexpr.Select{
		Items: []sqlexpr.Expr{sqlexpr.Star{}, validFrom, validTo, version, isCurrent, updatedAt, uid},
		From:  from,
	}, nil
}

// buildUID concatenates the grain column values and the load timestamp with a
// fixed `|` separator, substituting the empty string for NULLs so the result
// is a pure function of (grain values, load timestamp).
func buildUID(grain []string) sqlexpr.Expr {
	args := make([]sqlexpr.Expr, 0, len(grain)+2)
	args = append(args, sqlexpr.String{V: "|"})
	for _, g := range grain {
		args = append(args, sqlexpr.Coalesce(sqlexpr.Column{Name: g}, sqlexpr.String{V: ""}))
	}
	args = append(args, sqlexpr.Coalesce(sqlexpr.Column{Name: record.LoadedAt}, sqlexpr.String{V: ""}))
	return sqlexpr.Func{Name: "CONCAT_WS", Args: args}
}
