package hook

import (
	"strings"
	"testing"

	"hooksql/internal/manifest"
	"hooksql/internal/record"
	"hooksql/internal/sqlexpr"
)

func testParams() QueryParams {
	return QueryParams{
		Source: sqlexpr.TableRef{Catalog: "bronze", Schema: "nw", Name: "orders"},
		Hooks: []manifest.HookSpec{
			{Name: "_hk__order", Keyset: "northwind:order", Expression: "id"},
		},
		Grain:      []string{"_hk__order"},
		TimeColumn: record.DefaultTimeColumn,
	}
}

/*
TestBuildQuery_Staging verifies the two-stage shape: the hook projection runs
inside cte__hook, the validity windows read cte__hook inside cte__validity,
and the outer statement selects from cte__validity.
*/
func TestBuildQuery_Staging(t *testing.T) {
	q, err := BuildQuery(testParams())
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}

	if len(q.With) != 2 || q.With[0].Name != HookStage || q.With[1].Name != ValidityStage {
		t.Fatalf("ctes=%+v; want [%s %s]", q.With, HookStage, ValidityStage)
	}
	if q.With[0].Query.From.Name != "orders" {
		t.Fatalf("hook stage reads %q; want orders", q.With[0].Query.From.Name)
	}
	if q.With[1].Query.From.Name != HookStage {
		t.Fatalf("validity stage reads %q; want %s", q.With[1].Query.From.Name, HookStage)
	}
	if q.From.Name != ValidityStage {
		t.Fatalf("outer query reads %q; want %s", q.From.Name, ValidityStage)
	}

	sql, err := sqlexpr.Render(q, sqlexpr.Options{Dialect: sqlexpr.DialectFabric})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, frag := range []string{
		"WITH cte__hook AS (",
		"'northwind:order|' + id",
		"cte__validity AS (",
		"PARTITION BY _hk__order ORDER BY " + record.LoadedAt,
		"FROM cte__validity",
	} {
		if !strings.Contains(sql, frag) {
			t.Fatalf("rendered query missing %q:\n%s", frag, sql)
		}
	}
}

/*
TestBuildQuery_TimeFilter verifies the outer predicate: an inclusive BETWEEN
with timestamp casts when both bounds are set, the tautology otherwise, and
an error when bounds arrive without a time column.
*/
func TestBuildQuery_TimeFilter(t *testing.T) {
	p := testParams()
	p.StartTS = "2023-01-01 00:00:00"
	p.EndTS = "2023-02-01 00:00:00"

	q, err := BuildQuery(p)
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	sql, err := sqlexpr.Render(q, sqlexpr.Options{Dialect: sqlexpr.DialectFabric})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "WHERE " + record.DefaultTimeColumn +
		" BETWEEN CAST('2023-01-01 00:00:00' AS DATETIME2(6)) AND CAST('2023-02-01 00:00:00' AS DATETIME2(6))"
	if !strings.Contains(sql, want) {
		t.Fatalf("rendered query missing %q:\n%s", want, sql)
	}

	// Either bound missing degenerates to a full rebuild.
	for _, mutate := range []func(*QueryParams){
		func(p *QueryParams) { p.StartTS = "" },
		func(p *QueryParams) { p.EndTS = "" },
		func(p *QueryParams) { p.StartTS, p.EndTS = "", "" },
	} {
		p := testParams()
		p.StartTS, p.EndTS = "2023-01-01 00:00:00", "2023-02-01 00:00:00"
		mutate(&p)
		q, err := BuildQuery(p)
		if err != nil {
			t.Fatalf("BuildQuery: %v", err)
		}
		if _, ok := q.Where.(sqlexpr.Tautology); !ok {
			t.Fatalf("where=%#v; want Tautology", q.Where)
		}
	}

	p = testParams()
	p.TimeColumn = ""
	p.StartTS, p.EndTS = "2023-01-01 00:00:00", "2023-02-01 00:00:00"
	if _, err := BuildQuery(p); err == nil || !strings.Contains(err.Error(), "time column") {
		t.Fatalf("err=%v; want time-column error", err)
	}
}

/*
TestBuildQuery_PropagatesBuilderErrors verifies hook and validity failures
surface instead of producing a partial query.
*/
func TestBuildQuery_PropagatesBuilderErrors(t *testing.T) {
	p := testParams()
	p.Hooks = append(p.Hooks, manifest.HookSpec{Name: "_hk__order", Keyset: "k", Expression: "id"})
	if _, err := BuildQuery(p); err == nil {
		t.Fatal("expected duplicate-hook error")
	}

	p = testParams()
	p.Grain = []string{""}
	if _, err := BuildQuery(p); err == nil {
		t.Fatal("expected empty-grain error")
	}
}
