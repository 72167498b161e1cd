package hook

import (
	"fmt"

	"hooksql/internal/manifest"
	"hooksql/internal/sqlexpr"
	"hooksql/internal/validity"
)

// Stage names for the two intermediate relations of the hook query. The
// validity stage must consume the hook stage by name: its window functions
// depend on the hook columns having materialized as ordinary output columns.
const (
	HookStage     = "cte__hook"
	ValidityStage = "cte__validity"
)

// QueryParams carries everything needed to assemble one incremental hook
// query.
type QueryParams struct {
	// Source is the table the hook projection reads from.
	Source sqlexpr.TableRef

	// Hooks are the key expressions synthesized in the first stage.
	Hooks []manifest.HookSpec

	// Grain partitions the validity windows in the second stage.
	Grain []string

	// TimeColumn is compared against the optional inclusive bounds below.
	TimeColumn string

	// StartTS/EndTS delimit the extraction window. When either is empty the
	// filter degenerates to an always-true condition (full rebuild).
	StartTS string
	EndTS   string
}

// BuildQuery composes the two-stage incremental query:
//
//	WITH cte__hook AS (<hook projection over Source>),
//	     cte__validity AS (<validity windows over cte__hook>)
//	SELECT * FROM cte__validity WHERE <time filter>
//
// The filter is `TimeColumn BETWEEN <start> AND <end>` (both bounds
// inclusive, cast to the dialect's fixed-precision timestamp type) when both
// bounds are supplied, and `1 = 1` otherwise.
func BuildQuery(p QueryParams) (*sqlexpr.Select, error) {
	hookStage, err := BuildProjection(p.Source, p.Hooks)
	if err != nil {
		return nil, err
	}

	validityStage, err := validity.BuildSelect(sqlexpr.TableRef{Name: HookStage}, p.Grain)
	if err != nil {
		return nil, err
	}

	where, err := buildTimeFilter(p.TimeColumn, p.StartTS, p.EndTS)
	if err != nil {
		return nil, err
	}

	return &sqlexpr.Select{
		With: []sqlexpr.CTE{
			{Name: HookStage, Query: hookStage},
			{Name: ValidityStage, Query: validityStage},
		},
		Items: []sqlexpr.Expr{sqlexpr.Star{}},
		From:  sqlexpr.TableRef{Name: ValidityStage},
		Where: where,
	}, nil
}

// buildTimeFilter returns the incremental predicate, or the tautology when
// either bound is missing.
func buildTimeFilter(timeColumn, startTS, endTS string) (sqlexpr.Expr, error) {
	if startTS == "" || endTS == "" {
		return sqlexpr.Tautology{}, nil
	}
	if timeColumn == "" {
		return nil, fmt.Errorf("hook: time column required when bounds are set")
	}
	return sqlexpr.Between{
		E:  sqlexpr.Column{Name: timeColumn},
		Lo: sqlexpr.TimestampLit{V: startTS},
		Hi: sqlexpr.TimestampLit{V: endTS},
	}, nil
}
