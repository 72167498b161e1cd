// Package manifest provides the typed manifest model and helpers for the
// query compiler.
//
// This file adds a lightweight linter/validator for Manifest values. It
// performs static checks over a decoded Manifest and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests. Catching
// duplicate hook names, empty expressions, and dangling grain references here
// keeps those failures out of the middle of query rendering.
package manifest

import (
	"fmt"
	"strings"

	"hooksql/internal/sqlexpr"
)

// IssueSeverity represents the severity of a manifest issue.
type IssueSeverity string

const (
	// SeverityError indicates a manifest error that blocks compiling the
	// affected table.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced to users
	// but does not block compilation.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Manifest.
//
// Path is a dotted path into the manifest (e.g. "orders.hooks[1].expression").
// Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of every table in the manifest.
// It does not mutate the manifest; callers decide whether warnings are fatal.
func Validate(m Manifest) []Issue {
	var issues []Issue
	for _, t := range m.Tables {
		issues = append(issues, ValidateTable(t)...)
	}
	return issues
}

// ValidateTable validates a single table spec. Issues are scoped with the
// table name so results from multiple tables can be concatenated.
func ValidateTable(t TableSpec) []Issue {
	var issues []Issue
	base := t.Name

	for _, f := range []struct {
		field string
		value string
	}{
		{"database", t.Database},
		{"schema", t.Schema},
		{"table", t.Table},
	} {
		if strings.TrimSpace(f.value) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + "." + f.field,
				Message:  f.field + " must not be empty",
			})
		}
	}

	if t.Managed && len(t.Hooks) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     base + ".hooks",
			Message:  "managed table declares no hooks; a hook artifact cannot be produced",
		})
	}
	if t.Managed && len(t.Grain) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     base + ".grain",
			Message:  "managed table declares no grain; validity windows will use a single partition",
		})
	}

	issues = append(issues, validateHooks(base, t)...)
	issues = append(issues, validateGrain(base, t)...)

	if !isPortableIdent(t.Name) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     base,
			Message:  fmt.Sprintf("table name is not a portable identifier (consider %q)", NormalizeIdent(t.Name)),
		})
	}

	return issues
}

// isPortableIdent reports whether s consists only of lowercase ASCII letters,
// digits, and underscores. Repeated underscores are allowed; the double
// underscore is the conventional schema/table and prefix separator.
func isPortableIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}

// validateHooks checks hook declarations: names must be unique and non-empty,
// keysets should be present, and expressions must parse as scalar fragments.
func validateHooks(base string, t TableSpec) []Issue {
	var issues []Issue
	seen := make(map[string]int, len(t.Hooks))

	for i, h := range t.Hooks {
		path := fmt.Sprintf("%s.hooks[%d]", base, i)

		if strings.TrimSpace(h.Name) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  "hook name must not be empty",
			})
		} else if prev, dup := seen[h.Name]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".name",
				Message:  fmt.Sprintf("duplicate hook name %q (first declared at hooks[%d]); projected columns would collide", h.Name, prev),
			})
		} else {
			seen[h.Name] = i
		}

		if strings.TrimSpace(h.Keyset) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".keyset",
				Message:  "keyset is empty; hook values will carry no namespace",
			})
		}
		if strings.Contains(h.Keyset, "|") {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".keyset",
				Message:  "keyset contains the `|` separator; key collisions across concepts are possible",
			})
		}

		if _, err := sqlexpr.ParseScalar(h.Expression); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".expression",
				Message:  fmt.Sprintf("expression is not a usable scalar expression: %v", err),
			})
		} else if isIdentifier(h.Expression) && len(t.Columns) > 0 && !t.Columns.Has(strings.TrimSpace(h.Expression)) {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".expression",
				Message:  fmt.Sprintf("expression references column %q which is not declared in columns", strings.TrimSpace(h.Expression)),
			})
		}
	}

	return issues
}

// isIdentifier reports whether s parses as a bare column reference rather
// than a computed expression.
func isIdentifier(s string) bool {
	e, err := sqlexpr.ParseScalar(s)
	if err != nil {
		return false
	}
	_, ok := e.(sqlexpr.Column)
	return ok
}

// validateGrain checks that every grain entry references either a declared
// hook or a declared column.
func validateGrain(base string, t TableSpec) []Issue {
	var issues []Issue

	hookNames := make(map[string]struct{}, len(t.Hooks))
	for _, h := range t.Hooks {
		hookNames[h.Name] = struct{}{}
	}

	for i, g := range t.Grain {
		if strings.TrimSpace(g) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("%s.grain[%d]", base, i),
				Message:  "grain entry must not be empty",
			})
			continue
		}
		if _, ok := hookNames[g]; ok {
			continue
		}
		if t.Columns.Has(g) {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     fmt.Sprintf("%s.grain[%d]", base, i),
			Message:  fmt.Sprintf("grain entry %q references neither a declared hook nor a declared column", g),
		})
	}

	return issues
}
