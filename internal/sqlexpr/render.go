package sqlexpr

import (
	"fmt"
	"strings"
)

// Render converts a Select into SQL text for the dialect in opts. Rendering
// is deterministic: the same query and options always produce byte-identical
// output. An unsupported dialect returns ErrUnsupportedDialect.
func Render(q *Select, opts Options) (string, error) {
	tr, err := lookupTraits(opts.Dialect)
	if err != nil {
		return "", err
	}
	r := renderer{traits: tr, opts: opts}

	var sb strings.Builder
	if err := r.renderSelect(&sb, q); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type renderer struct {
	traits dialectTraits
	opts   Options
}

// renderSelect writes a full statement, including its WITH clause.
func (r renderer) renderSelect(sb *strings.Builder, q *Select) error {
	if q == nil {
		return fmt.Errorf("sqlexpr: nil query")
	}

	if len(q.With) > 0 {
		sb.WriteString("WITH ")
		for i, cte := range q.With {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(r.ident(cte.Name))
			sb.WriteString(" AS (")
			if r.opts.Pretty {
				sb.WriteByte('\n')
				if err := r.renderBody(sb, cte.Query, "  "); err != nil {
					return err
				}
				sb.WriteByte('\n')
			} else {
				if err := r.renderBody(sb, cte.Query, ""); err != nil {
					return err
				}
			}
			sb.WriteByte(')')
		}
		if r.opts.Pretty {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}

	return r.renderBody(sb, q, "")
}

// renderBody writes the SELECT ... FROM ... WHERE ... core of q at the given
// indentation. CTEs on q are ignored here; renderSelect handles them.
func (r renderer) renderBody(sb *strings.Builder, q *Select, indent string) error {
	if q == nil {
		return fmt.Errorf("sqlexpr: nil query")
	}
	if len(q.Items) == 0 {
		return fmt.Errorf("sqlexpr: select with no projection items")
	}

	if r.opts.Pretty {
		sb.WriteString(indent)
		sb.WriteString("SELECT\n")
		for i, it := range q.Items {
			sb.WriteString(indent)
			sb.WriteString("  ")
			if err := r.renderExpr(sb, it); err != nil {
				return err
			}
			if i < len(q.Items)-1 {
				sb.WriteByte(',')
			}
			sb.WriteByte('\n')
		}
		sb.WriteString(indent)
		sb.WriteString("FROM ")
		sb.WriteString(r.tableRef(q.From))
		if q.Where != nil {
			sb.WriteByte('\n')
			sb.WriteString(indent)
			sb.WriteString("WHERE ")
			if err := r.renderExpr(sb, q.Where); err != nil {
				return err
			}
		}
		return nil
	}

	sb.WriteString("SELECT ")
	for i, it := range q.Items {
		if i > 0 {
			sb.WriteString(", ")
		}
		if err := r.renderExpr(sb, it); err != nil {
			return err
		}
	}
	sb.WriteString(" FROM ")
	sb.WriteString(r.tableRef(q.From))
	if q.Where != nil {
		sb.WriteString(" WHERE ")
		if err := r.renderExpr(sb, q.Where); err != nil {
			return err
		}
	}
	return nil
}

// renderExpr writes a scalar expression on a single line.
func (r renderer) renderExpr(sb *strings.Builder, e Expr) error {
	switch v := e.(type) {
	case Column:
		sb.WriteString(r.ident(v.Name))
	case Raw:
		sb.WriteString(v.SQL)
	case String:
		sb.WriteByte('\'')
		sb.WriteString(strings.ReplaceAll(v.V, "'", "''"))
		sb.WriteByte('\'')
	case Number:
		sb.WriteString(v.V)
	case Star:
		sb.WriteByte('*')
	case Alias:
		if err := r.renderExpr(sb, v.E); err != nil {
			return err
		}
		sb.WriteString(" AS ")
		sb.WriteString(r.ident(v.Name))
	case IsNull:
		if err := r.renderExpr(sb, v.E); err != nil {
			return err
		}
		if v.Negate {
			sb.WriteString(" IS NOT NULL")
		} else {
			sb.WriteString(" IS NULL")
		}
	case Case:
		sb.WriteString("CASE")
		for _, w := range v.Whens {
			sb.WriteString(" WHEN ")
			if err := r.renderExpr(sb, w.Cond); err != nil {
				return err
			}
			sb.WriteString(" THEN ")
			if err := r.renderExpr(sb, w.Then); err != nil {
				return err
			}
		}
		if v.Else != nil {
			sb.WriteString(" ELSE ")
			if err := r.renderExpr(sb, v.Else); err != nil {
				return err
			}
		}
		sb.WriteString(" END")
	case Concat:
		return r.renderConcat(sb, v)
	case Func:
		return r.renderFunc(sb, v)
	case Window:
		if err := r.renderFunc(sb, v.Fn); err != nil {
			return err
		}
		sb.WriteString(" OVER (")
		if len(v.PartitionBy) > 0 {
			sb.WriteString("PARTITION BY ")
			for i, p := range v.PartitionBy {
				if i > 0 {
					sb.WriteString(", ")
				}
				if err := r.renderExpr(sb, p); err != nil {
					return err
				}
			}
		}
		if len(v.OrderBy) > 0 {
			if len(v.PartitionBy) > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString("ORDER BY ")
			for i, o := range v.OrderBy {
				if i > 0 {
					sb.WriteString(", ")
				}
				if err := r.renderExpr(sb, o); err != nil {
					return err
				}
			}
		}
		sb.WriteByte(')')
	case TimestampLit:
		sb.WriteString("CAST('")
		sb.WriteString(strings.ReplaceAll(v.V, "'", "''"))
		sb.WriteString("' AS ")
		sb.WriteString(r.traits.timestampType)
		sb.WriteByte(')')
	case Between:
		if err := r.renderExpr(sb, v.E); err != nil {
			return err
		}
		sb.WriteString(" BETWEEN ")
		if err := r.renderExpr(sb, v.Lo); err != nil {
			return err
		}
		sb.WriteString(" AND ")
		if err := r.renderExpr(sb, v.Hi); err != nil {
			return err
		}
	case Tautology:
		sb.WriteString("1 = 1")
	case nil:
		return fmt.Errorf("sqlexpr: nil expression")
	default:
		return fmt.Errorf("sqlexpr: unsupported expression node %T", e)
	}
	return nil
}

// renderConcat emits the dialect's concatenation form: an infix operator
// where one exists, otherwise a CONCAT() call.
func (r renderer) renderConcat(sb *strings.Builder, c Concat) error {
	if len(c.Parts) == 0 {
		return fmt.Errorf("sqlexpr: concat with no parts")
	}
	if r.traits.concatOp == "" {
		return r.renderFunc(sb, Func{Name: "CONCAT", Args: c.Parts})
	}
	for i, p := range c.Parts {
		if i > 0 {
			sb.WriteByte(' ')
			sb.WriteString(r.traits.concatOp)
			sb.WriteByte(' ')
		}
		if err := r.renderExpr(sb, p); err != nil {
			return err
		}
	}
	return nil
}

func (r renderer) renderFunc(sb *strings.Builder, f Func) error {
	sb.WriteString(f.Name)
	sb.WriteByte('(')
	for i, a := range f.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		if err := r.renderExpr(sb, a); err != nil {
			return err
		}
	}
	sb.WriteByte(')')
	return nil
}

// tableRef renders a relation reference, joining the non-empty name parts
// with dots. Each part is quoted under Options.Identify.
func (r renderer) tableRef(t TableRef) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.Catalog, t.Schema, t.Name} {
		if p != "" {
			parts = append(parts, r.ident(p))
		}
	}
	return strings.Join(parts, ".")
}

// ident quotes an identifier with the dialect's quote characters when
// Options.Identify is set; otherwise the name is emitted verbatim.
func (r renderer) ident(name string) string {
	if !r.opts.Identify {
		return name
	}
	var sb strings.Builder
	sb.WriteByte(r.traits.quoteOpen)
	for i := 0; i < len(name); i++ {
		if name[i] == r.traits.quoteClose {
			sb.WriteString(r.traits.quoteEscape)
			continue
		}
		sb.WriteByte(name[i])
	}
	sb.WriteByte(r.traits.quoteClose)
	return sb.String()
}
