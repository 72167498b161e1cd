package hook

import (
	"errors"
	"strings"
	"testing"

	"hooksql/internal/manifest"
	"hooksql/internal/sqlexpr"
)

// renderExpr wraps a single expression in a trivial SELECT and renders it
// compactly without identifier quoting, for readable expectations.
func renderExpr(t *testing.T, e sqlexpr.Expr) string {
	t.Helper()
	sql, err := sqlexpr.Render(
		&sqlexpr.Select{Items: []sqlexpr.Expr{e}, From: sqlexpr.TableRef{Name: "t"}},
		sqlexpr.Options{Dialect: sqlexpr.DialectFabric},
	)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return strings.TrimSuffix(strings.TrimPrefix(sql, "SELECT "), " FROM t")
}

/*
TestBuildExpr verifies the synthesized key expression: NULL-guarded CASE,
keyset prefix joined with the fixed separator, aliased to the hook name.
*/
func TestBuildExpr(t *testing.T) {
	tests := []struct {
		name string
		h    manifest.HookSpec
		want string
	}{
		{
			"column expression",
			manifest.HookSpec{Name: "_hk__order", Keyset: "northwind:order", Expression: "id"},
			"CASE WHEN id IS NOT NULL THEN 'northwind:order|' + id END AS _hk__order",
		},
		{
			"computed expression",
			manifest.HookSpec{Name: "_hk__line", Keyset: "northwind:line", Expression: "CAST(order_id AS VARCHAR(20)) + ':' + CAST(line_no AS VARCHAR(10))"},
			"CASE WHEN CAST(order_id AS VARCHAR(20)) + ':' + CAST(line_no AS VARCHAR(10)) IS NOT NULL " +
				"THEN 'northwind:line|' + CAST(order_id AS VARCHAR(20)) + ':' + CAST(line_no AS VARCHAR(10)) END AS _hk__line",
		},
		{
			"empty keyset still separated",
			manifest.HookSpec{Name: "_hk__x", Keyset: "", Expression: "id"},
			"CASE WHEN id IS NOT NULL THEN '|' + id END AS _hk__x",
		},
	}
	for _, tc := range tests {
		e, err := BuildExpr(tc.h)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got := renderExpr(t, e); got != tc.want {
			t.Fatalf("%s:\ngot  %s\nwant %s", tc.name, got, tc.want)
		}
	}
}

/*
TestBuildExpr_BadExpression verifies a malformed natural-key expression fails
with the hook name in the error.
*/
func TestBuildExpr_BadExpression(t *testing.T) {
	_, err := BuildExpr(manifest.HookSpec{Name: "_hk__x", Keyset: "k", Expression: "id; DROP"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, sqlexpr.ErrMalformedExpression) || !strings.Contains(err.Error(), "_hk__x") {
		t.Fatalf("err=%v; want malformed-expression error naming the hook", err)
	}

	if _, err := BuildExpr(manifest.HookSpec{Name: "_hk__y", Keyset: "k"}); !errors.Is(err, sqlexpr.ErrEmptyExpression) {
		t.Fatalf("err=%v; want ErrEmptyExpression", err)
	}
}

/*
TestBuildExprs_DuplicateNames verifies duplicate hook output names are
rejected eagerly rather than projecting colliding columns.
*/
func TestBuildExprs_DuplicateNames(t *testing.T) {
	hooks := []manifest.HookSpec{
		{Name: "_hk__a", Keyset: "k", Expression: "a"},
		{Name: "_hk__a", Keyset: "k", Expression: "b"},
	}
	if _, err := BuildExprs(hooks); !errors.Is(err, ErrDuplicateHook) {
		t.Fatalf("err=%v; want ErrDuplicateHook", err)
	}
}

/*
TestBuildProjection verifies hook expressions appear in declaration order
followed by `*`, reading from the source table.
*/
func TestBuildProjection(t *testing.T) {
	hooks := []manifest.HookSpec{
		{Name: "_hk__order", Keyset: "no", Expression: "id"},
		{Name: "_hk__customer", Keyset: "nc", Expression: "customer_id"},
	}
	q, err := BuildProjection(sqlexpr.TableRef{Catalog: "bronze", Schema: "nw", Name: "orders"}, hooks)
	if err != nil {
		t.Fatalf("BuildProjection: %v", err)
	}

	sql, err := sqlexpr.Render(q, sqlexpr.Options{Dialect: sqlexpr.DialectFabric})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "SELECT CASE WHEN id IS NOT NULL THEN 'no|' + id END AS _hk__order, " +
		"CASE WHEN customer_id IS NOT NULL THEN 'nc|' + customer_id END AS _hk__customer, " +
		"* FROM bronze.nw.orders"
	if sql != want {
		t.Fatalf("got  %s\nwant %s", sql, want)
	}
}

/*
TestBuildProjection_NoHooks verifies a hookless projection is just `SELECT *`
and that an unnamed source is rejected.
*/
func TestBuildProjection_NoHooks(t *testing.T) {
	q, err := BuildProjection(sqlexpr.TableRef{Name: "t"}, nil)
	if err != nil {
		t.Fatalf("BuildProjection: %v", err)
	}
	sql, err := sqlexpr.Render(q, sqlexpr.Options{Dialect: sqlexpr.DialectFabric})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "SELECT * FROM t"; sql != want {
		t.Fatalf("got %q; want %q", sql, want)
	}

	if _, err := BuildProjection(sqlexpr.TableRef{}, nil); err == nil {
		t.Fatal("expected error for empty source name")
	}
}
