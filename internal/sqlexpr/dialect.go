package sqlexpr

import (
	"errors"
	"fmt"
)

// Dialect selects the SQL flavor the renderer emits.
type Dialect string

// Supported dialects. Fabric is the default and shares the T-SQL surface.
const (
	DialectFabric   Dialect = "fabric"
	DialectTSQL     Dialect = "tsql"
	DialectPostgres Dialect = "postgres"
	DialectDuckDB   Dialect = "duckdb"
	DialectMySQL    Dialect = "mysql"
)

// ErrUnsupportedDialect is returned by Render when the requested dialect has
// no renderer. No fallback dialect is ever substituted.
var ErrUnsupportedDialect = errors.New("sqlexpr: unsupported dialect")

// Options is the immutable rendering configuration. It is passed once to
// Render rather than threaded through every construction step.
type Options struct {
	// Dialect selects the SQL flavor. Empty means DialectFabric.
	Dialect Dialect

	// Pretty enables multi-line output with one projection item per line.
	Pretty bool

	// Identify quotes every Column, Alias, and TableRef name with the
	// dialect's identifier quotes. Raw fragments are never quoted.
	Identify bool
}

// DefaultOptions returns the rendering configuration used when the caller
// supplies none: fabric dialect, pretty output, quoted identifiers.
func DefaultOptions() Options {
	return Options{Dialect: DialectFabric, Pretty: true, Identify: true}
}

// dialectTraits captures the per-dialect rendering differences.
type dialectTraits struct {
	// concatOp is the string concatenation operator, or "" when the dialect
	// concatenates via a CONCAT() call instead.
	concatOp string

	// timestampType is the cast target for TimestampLit values.
	timestampType string

	// quoteOpen and quoteClose delimit identifiers; quoteEscape is the
	// replacement for a closing quote appearing inside a name.
	quoteOpen   byte
	quoteClose  byte
	quoteEscape string
}

var traitsByDialect = map[Dialect]dialectTraits{
	DialectFabric:   {concatOp: "+", timestampType: "DATETIME2(6)", quoteOpen: '[', quoteClose: ']', quoteEscape: "]]"},
	DialectTSQL:     {concatOp: "+", timestampType: "DATETIME2(6)", quoteOpen: '[', quoteClose: ']', quoteEscape: "]]"},
	DialectPostgres: {concatOp: "||", timestampType: "TIMESTAMP(6)", quoteOpen: '"', quoteClose: '"', quoteEscape: `""`},
	DialectDuckDB:   {concatOp: "||", timestampType: "TIMESTAMP", quoteOpen: '"', quoteClose: '"', quoteEscape: `""`},
	DialectMySQL:    {concatOp: "", timestampType: "DATETIME(6)", quoteOpen: '`', quoteClose: '`', quoteEscape: "``"},
}

// lookupTraits resolves the traits for d, treating "" as fabric.
func lookupTraits(d Dialect) (dialectTraits, error) {
	if d == "" {
		d = DialectFabric
	}
	t, ok := traitsByDialect[d]
	if !ok {
		return dialectTraits{}, fmt.Errorf("%w: %q", ErrUnsupportedDialect, string(d))
	}
	return t, nil
}
