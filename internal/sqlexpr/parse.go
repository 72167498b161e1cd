package sqlexpr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyExpression is returned when a scalar expression is empty or blank.
var ErrEmptyExpression = errors.New("sqlexpr: empty expression")

// ErrMalformedExpression is returned when a scalar expression fails the
// structural checks in ParseScalar.
var ErrMalformedExpression = errors.New("sqlexpr: malformed expression")

// ParseScalar turns a manifest-supplied scalar expression string into an
// Expr. A plain identifier becomes a Column (so it participates in identifier
// quoting); anything else becomes a Raw fragment after structural validation.
//
// Validation is deliberately shallow: it rejects empty input, statement
// separators, comment markers, and unbalanced quotes or parentheses. It does
// not attempt full SQL parsing; the fragment's dialect correctness remains
// the manifest author's responsibility, matching how raw DEFAULT expressions
// are treated in table definitions.
func ParseScalar(s string) (Expr, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyExpression
	}
	if isIdentifier(s) {
		return Column{Name: s}, nil
	}
	if err := checkFragment(s); err != nil {
		return nil, err
	}
	return Raw{SQL: s}, nil
}

// isIdentifier reports whether s is a bare SQL identifier:
// a letter or underscore followed by letters, digits, or underscores.
func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return len(s) > 0
}

// checkFragment performs the structural checks for Raw fragments.
func checkFragment(s string) error {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if c == '\'' {
				// A doubled quote is an escaped quote inside the literal.
				if i+1 < len(s) && s[i+1] == '\'' {
					i++
					continue
				}
				inString = false
			}
			continue
		}
		switch c {
		case '\'':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unbalanced parentheses in %q", ErrMalformedExpression, s)
			}
		case ';':
			return fmt.Errorf("%w: statement separator in %q", ErrMalformedExpression, s)
		case '-':
			if i+1 < len(s) && s[i+1] == '-' {
				return fmt.Errorf("%w: comment marker in %q", ErrMalformedExpression, s)
			}
		}
	}
	if inString {
		return fmt.Errorf("%w: unterminated string literal in %q", ErrMalformedExpression, s)
	}
	if depth != 0 {
		return fmt.Errorf("%w: unbalanced parentheses in %q", ErrMalformedExpression, s)
	}
	return nil
}
