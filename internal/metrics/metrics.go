// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes startup-time Prometheus gauges describing
// the size of the compiled configuration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"sslproxy.dev/core/internal/filter"
	"sslproxy.dev/core/internal/proxyspec"
)

// Metrics holds the gauges this core sets once, via Observe, after
// freeze; Register adds them to a caller-supplied registry. There is no per-connection traffic here (that belongs to the
// out-of-scope byte-pumping event loop); these describe the shape of
// the compiled policy itself.
type Metrics struct {
	ProxySpecCount      prometheus.Gauge
	FilterRuleCount     prometheus.Gauge
	MacroCount          prometheus.Gauge
	TrieNodeCount       *prometheus.GaugeVec
	CompileDurationSecs prometheus.Gauge
}

// New constructs a fresh, unregistered Metrics set.
func New() *Metrics {
	return &Metrics{
		ProxySpecCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sslproxy_proxyspec_count",
			Help: "Number of proxyspecs in the compiled configuration.",
		}),
		FilterRuleCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sslproxy_filter_rule_count",
			Help: "Number of atomic filter rules across every OptionSet.",
		}),
		MacroCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sslproxy_macro_count",
			Help: "Number of macros defined across every OptionSet.",
		}),
		TrieNodeCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sslproxy_filter_trie_node_count",
			Help: "Number of compiled trie leaf nodes, by bucket.",
		}, []string{"bucket"}),
		CompileDurationSecs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sslproxy_compile_duration_seconds",
			Help: "Wall-clock time spent compiling the configuration at startup.",
		}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg *prometheus.Registry) error {
	for _, c := range []prometheus.Collector{
		m.ProxySpecCount, m.FilterRuleCount, m.MacroCount, m.TrieNodeCount, m.CompileDurationSecs,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Observe walks the frozen Global and sets every gauge. durationSeconds
// is supplied by the caller; the compiler itself never reads a clock.
func (m *Metrics) Observe(g *proxyspec.Global, durationSeconds float64) {
	m.ProxySpecCount.Set(float64(len(g.Specs)))

	var ruleCount, macroCount int
	ruleCount += len(g.DefaultOptions.Rules)
	macroCount += len(g.DefaultOptions.Macros.Names())
	for _, s := range g.Specs {
		ruleCount += len(s.Options.Rules)
		macroCount += len(s.Options.Macros.Names())
	}
	m.FilterRuleCount.Set(float64(ruleCount))
	m.MacroCount.Set(float64(macroCount))
	m.CompileDurationSecs.Set(durationSeconds)

	for label, n := range filter.CountByBucket(g.DefaultOptions.Trie) {
		m.TrieNodeCount.WithLabelValues(label).Add(float64(n))
	}
	for _, s := range g.Specs {
		for label, n := range filter.CountByBucket(s.Options.Trie) {
			m.TrieNodeCount.WithLabelValues(label).Add(float64(n))
		}
	}
}
