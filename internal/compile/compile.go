// Package compile orchestrates manifest compilation: for every table in the
// manifest it derives the full set of output artifacts (hook, bridge,
// peripheral) with their target locations, delegating hook-query synthesis to
// the hook/validity builders and the other two artifacts to pluggable
// collaborators.
//
// Compilation is a pure function of (manifest, options): it performs no I/O,
// touches no shared mutable state, and compiling the same manifest twice
// yields byte-identical rendered text. Because each table depends only on its
// own spec and the read-only manifest, tables are compiled concurrently.
//
// Errors are per-table, collect-and-report: a malformed spec fails that
// table's artifact set and leaves every other table's result intact.
package compile

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"hooksql/internal/hook"
	"hooksql/internal/manifest"
	"hooksql/internal/metrics"
	"hooksql/internal/record"
	"hooksql/internal/sqlexpr"
	"hooksql/internal/uss"
)

// ErrSpec marks a table whose manifest entry is missing required fields or is
// internally inconsistent (e.g. managed with no hooks).
var ErrSpec = errors.New("compile: invalid table spec")

// Kind identifies one of the three artifacts produced per table. The values
// double as the exporter's directory names.
type Kind string

const (
	KindHook       Kind = "hook"
	KindBridge     Kind = "uss_bridge"
	KindPeripheral Kind = "uss_peripheral"
)

// BridgePrefix is prepended to the table name to form the bridge artifact's
// target table name.
const BridgePrefix = "_bridge__"

// BridgeBuilder builds the linking artifact's query from the full manifest
// and a reference to the table's already-produced hook artifact.
type BridgeBuilder interface {
	BuildBridgeQuery(m manifest.Manifest, hookTable sqlexpr.TableRef) (*sqlexpr.Select, error)
}

// PeripheralBuilder builds the descriptive artifact's query from the hook
// artifact reference and the table's declared columns.
type PeripheralBuilder interface {
	BuildPeripheralQuery(hookTable sqlexpr.TableRef, columns manifest.Columns) (*sqlexpr.Select, error)
}

// Artifact is one compiled output: a target location plus the query, as an
// abstract tree and (unless Options.ASTOnly) rendered text. For an unmanaged
// table's hook artifact both Query and SQL are empty; the target location is
// still populated so downstream artifacts can name it.
type Artifact struct {
	TargetDatabase string
	TargetSchema   string
	TargetTable    string

	Query *sqlexpr.Select
	SQL   string
}

// ArtifactSet holds the exactly-three artifacts compiled for one table.
type ArtifactSet struct {
	Hook       Artifact
	Bridge     Artifact
	Peripheral Artifact
}

// ByKind returns the artifact for the given kind.
func (s ArtifactSet) ByKind(k Kind) (Artifact, bool) {
	switch k {
	case KindHook:
		return s.Hook, true
	case KindBridge:
		return s.Bridge, true
	case KindPeripheral:
		return s.Peripheral, true
	}
	return Artifact{}, false
}

// Kinds lists the artifact kinds in their canonical order.
func Kinds() []Kind {
	return []Kind{KindHook, KindBridge, KindPeripheral}
}

// TableError attributes a compilation failure to a single table.
type TableError struct {
	Table string
	Err   error
}

func (e TableError) Error() string {
	return fmt.Sprintf("compile: table %s: %v", e.Table, e.Err)
}

func (e TableError) Unwrap() error { return e.Err }

// Options configures one compilation run. The zero value plus Defaults()
// reproduces the standard silver/gold layering.
type Options struct {
	// Hook artifact target location. Defaults: silver.hook.
	HookTargetDB     string
	HookTargetSchema string

	// Bridge/peripheral target location. Defaults: gold.uss.
	USSTargetDB     string
	USSTargetSchema string

	// TimeColumn is the column compared against StartTS/EndTS. Defaults to
	// record.UpdatedAt.
	TimeColumn string

	// StartTS/EndTS are passed through to the hook query's inclusive time
	// filter. Leaving either empty selects full-rebuild semantics.
	StartTS string
	EndTS   string

	// Render configures dialect, pretty-printing, and identifier quoting.
	Render sqlexpr.Options

	// ASTOnly skips text rendering, leaving only Artifact.Query populated.
	ASTOnly bool

	// Bridge/Peripheral override the reference collaborators.
	Bridge     BridgeBuilder
	Peripheral PeripheralBuilder

	// Workers bounds the number of tables compiled concurrently.
	// Zero means GOMAXPROCS.
	Workers int
}

// Defaults returns the standard options: silver.hook and gold.uss targets,
// fabric dialect, pretty quoted rendering, full rebuild.
func Defaults() Options {
	return Options{
		HookTargetDB:     "silver",
		HookTargetSchema: "hook",
		USSTargetDB:      "gold",
		USSTargetSchema:  "uss",
		TimeColumn:       record.DefaultTimeColumn,
		Render:           sqlexpr.DefaultOptions(),
	}
}

// normalize fills unset option fields with their defaults.
func (o Options) normalize() Options {
	d := Defaults()
	if o.HookTargetDB == "" {
		o.HookTargetDB = d.HookTargetDB
	}
	if o.HookTargetSchema == "" {
		o.HookTargetSchema = d.HookTargetSchema
	}
	if o.USSTargetDB == "" {
		o.USSTargetDB = d.USSTargetDB
	}
	if o.USSTargetSchema == "" {
		o.USSTargetSchema = d.USSTargetSchema
	}
	if o.TimeColumn == "" {
		o.TimeColumn = d.TimeColumn
	}
	if o.Bridge == nil {
		o.Bridge = uss.Builder{}
	}
	if o.Peripheral == nil {
		o.Peripheral = uss.Builder{}
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// Result maps table name to its artifact set and collects per-table errors.
// Tables preserves the manifest's iteration order for callers that print or
// export results deterministically.
type Result struct {
	Tables []string
	Sets   map[string]ArtifactSet
	Errors []TableError
}

// Compile derives the artifact sets for every table in the manifest. Tables
// are compiled concurrently; failures are collected per table (in manifest
// order) rather than aborting the run.
func Compile(m manifest.Manifest, opts Options) Result {
	opts = opts.normalize()

	type outcome struct {
		set ArtifactSet
		err error
	}
	outcomes := make([]outcome, len(m.Tables))

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, t := range m.Tables {
		g.Go(func() error {
			start := time.Now()
			set, err := compileTable(t, m, opts)
			metrics.RecordTable(t.Name, err, time.Since(start))
			outcomes[i] = outcome{set: set, err: err}
			return nil
		})
	}
	// Workers never return errors; per-table failures land in outcomes.
	_ = g.Wait()

	res := Result{
		Tables: make([]string, 0, len(m.Tables)),
		Sets:   make(map[string]ArtifactSet, len(m.Tables)),
	}
	for i, t := range m.Tables {
		res.Tables = append(res.Tables, t.Name)
		if outcomes[i].err != nil {
			res.Errors = append(res.Errors, TableError{Table: t.Name, Err: outcomes[i].err})
			continue
		}
		res.Sets[t.Name] = outcomes[i].set
		for _, k := range Kinds() {
			if a, _ := outcomes[i].set.ByKind(k); a.Query != nil {
				metrics.RecordArtifacts(string(k), 1)
			}
		}
	}
	return res
}

// compileTable builds one table's three artifacts.
func compileTable(t manifest.TableSpec, m manifest.Manifest, opts Options) (ArtifactSet, error) {
	if err := specErr(t); err != nil {
		return ArtifactSet{}, err
	}

	var set ArtifactSet

	// Hook artifact: always named, only built when the table is managed.
	set.Hook = Artifact{
		TargetDatabase: opts.HookTargetDB,
		TargetSchema:   opts.HookTargetSchema,
		TargetTable:    t.Name,
	}
	if t.Managed {
		q, err := hook.BuildQuery(hook.QueryParams{
			Source:     sqlexpr.TableRef{Catalog: t.Database, Schema: t.Schema, Name: t.Table},
			Hooks:      t.Hooks,
			Grain:      t.Grain,
			TimeColumn: opts.TimeColumn,
			StartTS:    opts.StartTS,
			EndTS:      opts.EndTS,
		})
		if err != nil {
			return ArtifactSet{}, err
		}
		set.Hook.Query = q
	}

	// Bridge and peripheral read from the hook artifact's target location,
	// not from the original source table.
	hookRef := sqlexpr.TableRef{
		Catalog: opts.HookTargetDB,
		Schema:  opts.HookTargetSchema,
		Name:    t.Name,
	}

	bridgeQ, err := opts.Bridge.BuildBridgeQuery(m, hookRef)
	if err != nil {
		return ArtifactSet{}, fmt.Errorf("bridge: %w", err)
	}
	set.Bridge = Artifact{
		TargetDatabase: opts.USSTargetDB,
		TargetSchema:   opts.USSTargetSchema,
		TargetTable:    BridgePrefix + t.Name,
		Query:          bridgeQ,
	}

	periQ, err := opts.Peripheral.BuildPeripheralQuery(hookRef, t.Columns)
	if err != nil {
		return ArtifactSet{}, fmt.Errorf("peripheral: %w", err)
	}
	set.Peripheral = Artifact{
		TargetDatabase: opts.USSTargetDB,
		TargetSchema:   opts.USSTargetSchema,
		TargetTable:    t.Name,
		Query:          periQ,
	}

	if !opts.ASTOnly {
		if err := renderSet(&set, opts.Render); err != nil {
			return ArtifactSet{}, err
		}
	}
	return set, nil
}

// specErr converts error-severity validation issues into a single ErrSpec.
func specErr(t manifest.TableSpec) error {
	var errs []error
	for _, iss := range manifest.ValidateTable(t) {
		if iss.Severity == manifest.SeverityError {
			errs = append(errs, iss)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrSpec, errors.Join(errs...))
}

// renderSet renders every present query in the set to text.
func renderSet(set *ArtifactSet, opts sqlexpr.Options) error {
	for _, a := range []*Artifact{&set.Hook, &set.Bridge, &set.Peripheral} {
		if a.Query == nil {
			continue
		}
		sql, err := sqlexpr.Render(a.Query, opts)
		if err != nil {
			return err
		}
		a.SQL = sql
	}
	return nil
}
