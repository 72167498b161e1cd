// Package hook synthesizes the key-hash ("hook") projection over a source
// table and assembles it with the validity window into the complete staged
// hook query.
//
// A hook turns a natural key expression into a namespaced, nullable key
// value: `CASE WHEN <expr> IS NOT NULL THEN '<keyset>|' + <expr> END`. The
// keyset is an opaque literal concatenated with a fixed `|` separator; no
// escaping is performed, so a keyset or key value containing `|` can collide
// with another concept's keys. That is a documented precondition on manifest
// authors, enforced only as a lint warning.
package hook

import (
	"errors"
	"fmt"

	"hooksql/internal/manifest"
	"hooksql/internal/sqlexpr"
)

// ErrDuplicateHook is returned when two hooks on one table share an output
// column name. Duplicates are rejected eagerly instead of silently projecting
// two columns with the same name.
var ErrDuplicateHook = errors.New("hook: duplicate hook name")

// KeysetSeparator joins the keyset namespace and the natural key value.
const KeysetSeparator = "|"

// BuildExpr synthesizes the conditional key expression for one hook spec,
// aliased to the hook's name. The expression yields NULL when the natural key
// is NULL, and `<keyset>|<value>` otherwise. An empty or malformed
// Expression surfaces as an expression-synthesis error from sqlexpr.
func BuildExpr(h manifest.HookSpec) (sqlexpr.Expr, error) {
	key, err := sqlexpr.ParseScalar(h.Expression)
	if err != nil {
		return nil, fmt.Errorf("hook %q: %w", h.Name, err)
	}

	return sqlexpr.Alias{
		E: sqlexpr.Case{
			Whens: []sqlexpr.When{{
				Cond: sqlexpr.IsNull{E: key, Negate: true},
				Then: sqlexpr.Concat{Parts: []sqlexpr.Expr{
					sqlexpr.String{V: h.Keyset + KeysetSeparator},
					key,
				}},
			}},
		},
		Name: h.Name,
	}, nil
}

// BuildExprs synthesizes the expressions for all hooks in declaration order,
// rejecting duplicate names.
func BuildExprs(hooks []manifest.HookSpec) ([]sqlexpr.Expr, error) {
	exprs := make([]sqlexpr.Expr, 0, len(hooks))
	seen := make(map[string]struct{}, len(hooks))

	for _, h := range hooks {
		if _, dup := seen[h.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateHook, h.Name)
		}
		seen[h.Name] = struct{}{}

		e, err := BuildExpr(h)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

// BuildProjection wraps a source table into the hook projection: every hook
// expression in declaration order, followed by `*` so all original columns
// pass through unchanged.
func BuildProjection(source sqlexpr.TableRef, hooks []manifest.HookSpec) (*sqlexpr.Select, error) {
	if source.Name == "" {
		return nil, fmt.Errorf("hook: source table name must not be empty")
	}
	exprs, err := BuildExprs(hooks)
	if err != nil {
		return nil, err
	}
	items := make([]sqlexpr.Expr, 0, len(exprs)+1)
	items = append(items, exprs...)
	items = append(items, sqlexpr.Star{})

	return &sqlexpr.Select{Items: items, From: source}, nil
}
