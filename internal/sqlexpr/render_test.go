package sqlexpr

import (
	"errors"
	"strings"
	"testing"
)

// compact returns single-line unquoted options for a dialect, which keeps the
// expected strings in the tests short.
func compact(d Dialect) Options {
	return Options{Dialect: d, Pretty: false, Identify: false}
}

/*
TestRender_DialectConcat verifies the per-dialect concatenation form: infix +
for the T-SQL family, infix || for Postgres and DuckDB, and a CONCAT() call
for MySQL.
*/
func TestRender_DialectConcat(t *testing.T) {
	q := &Select{
		Items: []Expr{Alias{
			E:    Concat{Parts: []Expr{String{V: "k|"}, Column{Name: "id"}}},
			Name: "h",
		}},
		From: TableRef{Name: "t"},
	}

	tests := []struct {
		dialect Dialect
		want    string
	}{
		{DialectFabric, "SELECT 'k|' + id AS h FROM t"},
		{DialectTSQL, "SELECT 'k|' + id AS h FROM t"},
		{DialectPostgres, "SELECT 'k|' || id AS h FROM t"},
		{DialectDuckDB, "SELECT 'k|' || id AS h FROM t"},
		{DialectMySQL, "SELECT CONCAT('k|', id) AS h FROM t"},
	}
	for _, tc := range tests {
		got, err := Render(q, compact(tc.dialect))
		if err != nil {
			t.Fatalf("%s: %v", tc.dialect, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %q; want %q", tc.dialect, got, tc.want)
		}
	}
}

/*
TestRender_DialectTimestamp verifies TimestampLit casts to each dialect's
fixed-precision timestamp type.
*/
func TestRender_DialectTimestamp(t *testing.T) {
	q := &Select{
		Items: []Expr{TimestampLit{V: "2024-01-02 03:04:05"}},
		From:  TableRef{Name: "t"},
	}

	tests := []struct {
		dialect Dialect
		typ     string
	}{
		{DialectFabric, "DATETIME2(6)"},
		{DialectTSQL, "DATETIME2(6)"},
		{DialectPostgres, "TIMESTAMP(6)"},
		{DialectDuckDB, "TIMESTAMP"},
		{DialectMySQL, "DATETIME(6)"},
	}
	for _, tc := range tests {
		got, err := Render(q, compact(tc.dialect))
		if err != nil {
			t.Fatalf("%s: %v", tc.dialect, err)
		}
		want := "SELECT CAST('2024-01-02 03:04:05' AS " + tc.typ + ") FROM t"
		if got != want {
			t.Fatalf("%s: got %q; want %q", tc.dialect, got, want)
		}
	}
}

/*
TestRender_IdentifierQuoting verifies Options.Identify quotes columns, aliases,
and table parts with the dialect's quote characters, doubling embedded closing
quotes. Raw fragments must never be quoted.
*/
func TestRender_IdentifierQuoting(t *testing.T) {
	q := &Select{
		Items: []Expr{
			Alias{E: Column{Name: "we]ird"}, Name: "out"},
			Raw{SQL: "a + b"},
		},
		From: TableRef{Catalog: "bronze", Schema: "nw", Name: "orders"},
	}

	tests := []struct {
		dialect Dialect
		want    string
	}{
		{DialectFabric, "SELECT [we]]ird] AS [out], a + b FROM [bronze].[nw].[orders]"},
		{DialectPostgres, `SELECT "we]ird" AS "out", a + b FROM "bronze"."nw"."orders"`},
		{DialectMySQL, "SELECT `we]ird` AS `out`, a + b FROM `bronze`.`nw`.`orders`"},
	}
	for _, tc := range tests {
		got, err := Render(q, Options{Dialect: tc.dialect, Identify: true})
		if err != nil {
			t.Fatalf("%s: %v", tc.dialect, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %q; want %q", tc.dialect, got, tc.want)
		}
	}
}

/*
TestRender_PrettyAndCompact verifies the two output layouts for a query with a
WITH clause: pretty indents CTE bodies by two spaces and puts one projection
item per line; compact emits a single line.
*/
func TestRender_PrettyAndCompact(t *testing.T) {
	inner := &Select{Items: []Expr{Column{Name: "a"}}, From: TableRef{Name: "t"}}
	q := &Select{
		With:  []CTE{{Name: "c", Query: inner}},
		Items: []Expr{Star{}},
		From:  TableRef{Name: "c"},
		Where: Tautology{},
	}

	pretty, err := Render(q, Options{Dialect: DialectFabric, Pretty: true})
	if err != nil {
		t.Fatalf("pretty: %v", err)
	}
	wantPretty := strings.Join([]string{
		"WITH c AS (",
		"  SELECT",
		"    a",
		"  FROM t",
		")",
		"SELECT",
		"  *",
		"FROM c",
		"WHERE 1 = 1",
	}, "\n")
	if pretty != wantPretty {
		t.Fatalf("pretty:\n%s\nwant:\n%s", pretty, wantPretty)
	}

	compact, err := Render(q, Options{Dialect: DialectFabric})
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	wantCompact := "WITH c AS (SELECT a FROM t) SELECT * FROM c WHERE 1 = 1"
	if compact != wantCompact {
		t.Fatalf("compact: got %q; want %q", compact, wantCompact)
	}
}

/*
TestRender_WindowAndCase verifies the window-function and searched-CASE forms
used by the validity builder.
*/
func TestRender_WindowAndCase(t *testing.T) {
	lead := Window{
		Fn:          Func{Name: "LEAD", Args: []Expr{Column{Name: "x"}}},
		PartitionBy: []Expr{Column{Name: "g"}},
		OrderBy:     []Expr{Column{Name: "x"}},
	}
	q := &Select{
		Items: []Expr{
			Case{
				Whens: []When{{Cond: IsNull{E: lead}, Then: Number{V: "1"}}},
				Else:  Number{V: "0"},
			},
			Window{Fn: Func{Name: "ROW_NUMBER"}, OrderBy: []Expr{Column{Name: "x"}}},
		},
		From: TableRef{Name: "t"},
	}

	got, err := Render(q, compact(DialectFabric))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "SELECT CASE WHEN LEAD(x) OVER (PARTITION BY g ORDER BY x) IS NULL THEN 1 ELSE 0 END, " +
		"ROW_NUMBER() OVER (ORDER BY x) FROM t"
	if got != want {
		t.Fatalf("got %q; want %q", got, want)
	}
}

/*
TestRender_Between verifies the inclusive range predicate with timestamp casts
on both bounds.
*/
func TestRender_Between(t *testing.T) {
	q := &Select{
		Items: []Expr{Star{}},
		From:  TableRef{Name: "t"},
		Where: Between{
			E:  Column{Name: "u"},
			Lo: TimestampLit{V: "2023-01-01 00:00:00"},
			Hi: TimestampLit{V: "2023-02-01 00:00:00"},
		},
	}
	got, err := Render(q, compact(DialectFabric))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "SELECT * FROM t WHERE u BETWEEN CAST('2023-01-01 00:00:00' AS DATETIME2(6)) " +
		"AND CAST('2023-02-01 00:00:00' AS DATETIME2(6))"
	if got != want {
		t.Fatalf("got %q; want %q", got, want)
	}
}

/*
TestRender_StringEscaping verifies single quotes inside String and
TimestampLit values are doubled.
*/
func TestRender_StringEscaping(t *testing.T) {
	q := &Select{Items: []Expr{String{V: "it's"}}, From: TableRef{Name: "t"}}
	got, err := Render(q, compact(DialectFabric))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if want := "SELECT 'it''s' FROM t"; got != want {
		t.Fatalf("got %q; want %q", got, want)
	}
}

/*
TestRender_UnsupportedDialect verifies an unknown dialect returns
ErrUnsupportedDialect and that the empty dialect falls back to fabric.
*/
func TestRender_UnsupportedDialect(t *testing.T) {
	q := &Select{Items: []Expr{Star{}}, From: TableRef{Name: "t"}}

	if _, err := Render(q, Options{Dialect: "oracle"}); !errors.Is(err, ErrUnsupportedDialect) {
		t.Fatalf("err=%v; want ErrUnsupportedDialect", err)
	}

	got, err := Render(q, Options{})
	if err != nil {
		t.Fatalf("empty dialect: %v", err)
	}
	if want := "SELECT * FROM t"; got != want {
		t.Fatalf("empty dialect: got %q; want %q", got, want)
	}
}

/*
TestRender_Errors verifies structural failures: nil queries, empty
projections, nil expressions, and empty concatenations.
*/
func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name string
		q    *Select
	}{
		{"nil query", nil},
		{"no items", &Select{From: TableRef{Name: "t"}}},
		{"nil item", &Select{Items: []Expr{nil}, From: TableRef{Name: "t"}}},
		{"empty concat", &Select{Items: []Expr{Concat{}}, From: TableRef{Name: "t"}}},
		{"nil cte body", &Select{
			With:  []CTE{{Name: "c"}},
			Items: []Expr{Star{}},
			From:  TableRef{Name: "c"},
		}},
	}
	for _, tc := range tests {
		if _, err := Render(tc.q, compact(DialectFabric)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

/*
TestRender_Deterministic verifies repeated rendering of the same tree yields
byte-identical text.
*/
func TestRender_Deterministic(t *testing.T) {
	q := &Select{
		With: []CTE{{Name: "c", Query: &Select{
			Items: []Expr{Column{Name: "a"}, Column{Name: "b"}},
			From:  TableRef{Catalog: "x", Schema: "y", Name: "z"},
		}}},
		Items: []Expr{Star{}},
		From:  TableRef{Name: "c"},
		Where: Tautology{},
	}
	opts := DefaultOptions()

	first, err := Render(q, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Render(q, opts)
		if err != nil {
			t.Fatalf("Render #%d: %v", i, err)
		}
		if again != first {
			t.Fatalf("render #%d differs:\n%s\nvs\n%s", i, again, first)
		}
	}
}

var benchmarkRenderSink string

func BenchmarkRender(b *testing.B) {
	q := &Select{
		With: []CTE{{Name: "c", Query: &Select{
			Items: []Expr{
				Alias{E: Concat{Parts: []Expr{String{V: "k|"}, Column{Name: "id"}}}, Name: "h"},
				Star{},
			},
			From: TableRef{Catalog: "bronze", Schema: "nw", Name: "orders"},
		}}},
		Items: []Expr{Star{}},
		From:  TableRef{Name: "c"},
		Where: Tautology{},
	}
	opts := DefaultOptions()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s, err := Render(q, opts)
		if err != nil {
			b.Fatal(err)
		}
		benchmarkRenderSink = s
	}
}
