// Command hooksql compiles a table manifest into hook, bridge, and
// peripheral SQL query definitions. It loads the manifest, validates it,
// compiles every table, and either prints the rendered queries or exports
// them into a directory layout (one subdirectory per artifact kind).
//
// Example:
//
//	hooksql -manifest manifests/northwind.yaml -export out/ -dialect fabric
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"hooksql/internal/compile"
	"hooksql/internal/export"
	"hooksql/internal/manifest"
	"hooksql/internal/metrics"
	"hooksql/internal/metrics/datadog"
	"hooksql/internal/metrics/prompush"
	"hooksql/internal/sqlexpr"
)

func main() {
	var (
		manifestPath      string
		exportPath        string
		dialect           string
		compact           bool
		identify          bool
		startTS           string
		endTS             string
		hookDB            string
		hookSchema        string
		ussDB             string
		ussSchema         string
		timeColumn        string
		validate          bool
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
	)

	flag.StringVar(&manifestPath, "manifest", "manifests/manifest.yaml", "table manifest path (YAML or JSON)")
	flag.StringVar(&exportPath, "export", "", "export directory; when empty, queries print to stdout")
	flag.StringVar(&dialect, "dialect", string(sqlexpr.DialectFabric), "SQL dialect (fabric, tsql, postgres, duckdb, mysql)")
	flag.BoolVar(&compact, "compact", false, "render single-line SQL instead of pretty-printed")
	flag.BoolVar(&identify, "identify", true, "quote identifiers in rendered SQL")
	flag.StringVar(&startTS, "start", "", "inclusive lower bound for incremental extraction (e.g. 2023-01-01 00:00:00)")
	flag.StringVar(&endTS, "end", "", "inclusive upper bound for incremental extraction")
	flag.StringVar(&hookDB, "hook-db", "", "hook artifact target database (default silver)")
	flag.StringVar(&hookSchema, "hook-schema", "", "hook artifact target schema (default hook)")
	flag.StringVar(&ussDB, "uss-db", "", "bridge/peripheral target database (default gold)")
	flag.StringVar(&ussSchema, "uss-schema", "", "bridge/peripheral target schema (default uss)")
	flag.StringVar(&timeColumn, "time-column", "", "column compared against -start/-end (default _record__updated_at)")
	flag.BoolVar(&validate, "validate", false, "validate the manifest and exit")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	m, err := manifest.Load(manifestPath)
	if err != nil {
		fatalf("load manifest: %v", err)
	}

	// Validate the manifest and surface every finding.
	issues := manifest.Validate(m)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == manifest.SeverityError {
			hasError = true
		}
	}
	if validate {
		if hasError {
			log.Printf("manifest is invalid: %v", manifestPath)
			os.Exit(1)
		}
		log.Printf("manifest is valid: %v (%d tables)", manifestPath, len(m.Tables))
		os.Exit(0)
	}

	setupMetrics(metricsBackendFlg, pushGatewayURLFlg, dogstatsdAddrFlg, *verbose)

	opts := compile.Defaults()
	opts.HookTargetDB = pick(hookDB, opts.HookTargetDB)
	opts.HookTargetSchema = pick(hookSchema, opts.HookTargetSchema)
	opts.USSTargetDB = pick(ussDB, opts.USSTargetDB)
	opts.USSTargetSchema = pick(ussSchema, opts.USSTargetSchema)
	opts.TimeColumn = pick(timeColumn, opts.TimeColumn)
	opts.StartTS = startTS
	opts.EndTS = endTS
	opts.Render = sqlexpr.Options{
		Dialect:  sqlexpr.Dialect(dialect),
		Pretty:   !compact,
		Identify: identify,
	}

	start := time.Now()
	res := compile.Compile(m, opts)

	for _, te := range res.Errors {
		fmt.Fprintf(os.Stderr, "error: %v\n", te)
	}
	exitCode := 0
	if len(res.Errors) > 0 {
		exitCode = 1
	}

	if exportPath != "" {
		written, err := export.Write(exportPath, res)
		if err != nil {
			log.Printf("export: %v", err)
			exitCode = 1
		} else if *verbose {
			log.Printf("exported %d files to %s", written, exportPath)
		}
	} else {
		printResult(res)
	}

	if *verbose {
		log.Printf("compiled %d/%d tables in %s",
			len(res.Sets), len(res.Tables), time.Since(start).Truncate(time.Millisecond))
	}

	// Flush before exiting; os.Exit would skip a deferred flush.
	if err := metrics.Flush(); err != nil {
		log.Printf("metrics: flush error: %v", err)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// printResult writes every rendered query to stdout in manifest order, with
// a header naming the table, kind, and target location.
func printResult(res compile.Result) {
	for _, table := range res.Tables {
		set, ok := res.Sets[table]
		if !ok {
			continue
		}
		for _, kind := range compile.Kinds() {
			a, _ := set.ByKind(kind)
			if a.SQL == "" {
				continue
			}
			fmt.Printf("-- %s/%s -> %s.%s.%s\n%s\n\n",
				table, kind, a.TargetDatabase, a.TargetSchema, a.TargetTable, a.SQL)
		}
	}
}

// setupMetrics installs the selected metrics backend. Resolution order for
// endpoints: flag, environment, default.
func setupMetrics(backendName, pushGatewayURL, dogstatsdAddr string, verbose bool) {
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend("hooksql", gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		if verbose {
			log.Printf("metrics: backend=pushgateway url=%v", gwURL)
		}
		metrics.SetBackend(b)

	case "datadog":
		addr := dogstatsdAddr
		if addr == "" {
			addr = os.Getenv("DOGSTATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: addr, Namespace: "hooksql."})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		if verbose {
			log.Printf("metrics: backend=datadog addr=%v", addr)
		}
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

// pick returns v unless it is empty, in which case def is returned.
func pick(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
