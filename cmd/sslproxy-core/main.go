// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command sslproxy-core exercises the configuration and policy core
// standalone: it parses a config file and/or trailing positional
// proxyspec arguments, freezes the result, and either reports success
// or prints a single diagnostic and exits non-zero. The connection
// event loop, TLS forger, and NAT-table providers the compiled Global
// is handed to live elsewhere and are not wired up here.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"sslproxy.dev/core/internal/auditdump"
	"sslproxy.dev/core/internal/errors"
	"sslproxy.dev/core/internal/metrics"
	"sslproxy.dev/core/internal/proxyspec"
)

func main() {
	configPath := flag.String("config", "", "path to the line/block config file")
	dumpHCL := flag.Bool("dump-hcl", false, "after a successful freeze, print the compiled config as HCL and exit")
	check := flag.Bool("check", false, "parse and freeze only; do not print the HCL dump even if -dump-hcl is set")
	flag.Parse()

	start := time.Now()
	g, err := load(*configPath, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostic(err))
		os.Exit(1)
	}

	if err := g.Freeze(); err != nil {
		fmt.Fprintln(os.Stderr, diagnostic(err))
		os.Exit(1)
	}

	m := metrics.New()
	m.Observe(g, time.Since(start).Seconds())
	log.Printf("compiled %d proxyspec(s)", len(g.Specs))

	if *dumpHCL && !*check {
		out, err := auditdump.Dump(g)
		if err != nil {
			fmt.Fprintln(os.Stderr, diagnostic(err))
			os.Exit(1)
		}
		fmt.Print(out)
	}
}

// load builds a Global from a config file (if given) and/or trailing
// positional proxyspec tokens; both input grammars feed the same
// compiled structure.
func load(configPath string, positional []string) (*proxyspec.Global, error) {
	var g *proxyspec.Global
	if configPath != "" {
		loaded, err := proxyspec.LoadFile(configPath, nil)
		if err != nil {
			return nil, err
		}
		g = loaded
	} else {
		g = proxyspec.NewGlobal()
	}

	if len(positional) > 0 {
		specs, err := proxyspec.ParseCLISpecs(positional, g.NatEngines, g.DefaultOptions, g.Split)
		if err != nil {
			return nil, err
		}
		for _, s := range specs {
			g.AddSpec(s)
		}
	}

	if len(g.Specs) == 0 {
		return nil, errors.New(errors.KindProxySpecIncomplete, "no proxyspecs given (neither -config nor positional arguments produced one)")
	}
	return g, nil
}

// diagnostic renders the single-line message printed for a startup
// failure.
func diagnostic(err error) string {
	kind := errors.GetKind(err)
	attrs := errors.GetAttributes(err)
	if len(attrs) == 0 {
		return fmt.Sprintf("sslproxy-core: %s: %v", kind, err)
	}
	parts := make([]string, 0, len(attrs))
	for k, v := range attrs {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return fmt.Sprintf("sslproxy-core: %s: %v (%s)", kind, err, strings.Join(parts, ", "))
}
