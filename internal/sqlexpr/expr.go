// Package sqlexpr defines a small, backend-agnostic model for SQL scalar
// expressions and single-table SELECT queries, plus a deterministic renderer
// that turns that model into dialect-specific SQL text.
//
// The goal of this package is to stay generic, in the spirit of a DDL model
// that dialect packages wrap rather than reimplement:
//
//   - Expressions are plain structs; builders compose them directly instead of
//     round-tripping through SQL text. Text enters the model only through Raw,
//     which callers must validate with ParseScalar first.
//   - Identifier quoting is applied at render time, controlled by
//     Options.Identify, and never baked into the tree.
//   - Dialect differences (string concatenation, timestamp cast types,
//     quoting characters) are confined to the renderer.
package sqlexpr

// Expr is a node in the scalar expression tree. Implementations are plain
// value types; an Expr tree is safe to share between goroutines once built.
type Expr interface {
	expr()
}

// Column references a single unqualified column by name. The name is quoted
// at render time when Options.Identify is set.
type Column struct {
	Name string
}

// Raw is a scalar SQL fragment emitted verbatim. Fragments must come from
// ParseScalar so that obviously malformed input is rejected before it is
// embedded in a query. Raw text is never quoted or escaped by the renderer.
type Raw struct {
	SQL string
}

// String is a single-quoted string literal. Embedded single quotes are
// doubled at render time.
type String struct {
	V string
}

// Number is a numeric literal emitted verbatim.
type Number struct {
	V string
}

// Star is the `*` projection item.
type Star struct{}

// Alias names an expression in a projection: `<expr> AS <name>`.
type Alias struct {
	E    Expr
	Name string
}

// IsNull renders `<expr> IS NULL`, or `<expr> IS NOT NULL` when Negate is set.
type IsNull struct {
	E      Expr
	Negate bool
}

// When is a single WHEN/THEN arm of a Case expression.
type When struct {
	Cond Expr
	Then Expr
}

// Case is a searched CASE expression. Else may be nil, in which case the
// ELSE clause is omitted and the expression yields NULL when no arm matches.
type Case struct {
	Whens []When
	Else  Expr
}

// Concat concatenates string values. The operator is dialect-specific:
// `+` for the T-SQL family, `||` for Postgres and DuckDB, and a CONCAT()
// call for MySQL.
type Concat struct {
	Parts []Expr
}

// Func is a plain function call such as COALESCE, LEAST, or CONCAT_WS.
type Func struct {
	Name string
	Args []Expr
}

// Window wraps a function call with an OVER clause:
// `<fn> OVER (PARTITION BY ... ORDER BY ...)`. Either clause may be empty.
type Window struct {
	Fn          Func
	PartitionBy []Expr
	OrderBy     []Expr
}

// TimestampLit is a fixed-precision timestamp literal, rendered as a CAST of
// the string value to the dialect's preferred timestamp type (for example
// DATETIME2(6) on the T-SQL family).
type TimestampLit struct {
	V string
}

// Between renders the inclusive range predicate `<e> BETWEEN <lo> AND <hi>`.
type Between struct {
	E  Expr
	Lo Expr
	Hi Expr
}

// Tautology is the always-true predicate `1 = 1`, used when a query carries
// no effective filter.
type Tautology struct{}

func (Column) expr()       {}
func (Raw) expr()          {}
func (String) expr()       {}
func (Number) expr()       {}
func (Star) expr()         {}
func (Alias) expr()        {}
func (IsNull) expr()       {}
func (Case) expr()         {}
func (Concat) expr()       {}
func (Func) expr()         {}
func (Window) expr()       {}
func (TimestampLit) expr() {}
func (Between) expr()      {}
func (Tautology) expr()    {}

// TableRef identifies a relation by up to three name parts. Catalog and
// Schema may be empty (for example when referencing a named CTE).
type TableRef struct {
	Catalog string
	Schema  string
	Name    string
}

// CTE is a named common table expression in a WITH clause.
type CTE struct {
	Name  string
	Query *Select
}

// Select is a single-table SELECT statement with an optional WITH clause and
// an optional WHERE predicate. It intentionally models only the shapes the
// query builders need; joins, grouping, and set operations are out of scope.
type Select struct {
	With  []CTE
	Items []Expr
	From  TableRef
	Where Expr
}

// Coalesce builds a COALESCE(...) call.
func Coalesce(args ...Expr) Func {
	return Func{Name: "COALESCE", Args: args}
}

// Least builds a LEAST(...) call.
func Least(args ...Expr) Func {
	return Func{Name: "LEAST", Args: args}
}
