// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"sslproxy.dev/core/internal/filter"
	"sslproxy.dev/core/internal/proxyspec"
)

func TestMetricsObserveCountsSpecsAndRules(t *testing.T) {
	g := proxyspec.NewGlobal()
	rules, _, err := filter.CompileRuleLine("Divert *", 1, g.DefaultOptions.Macros, false)
	require.NoError(t, err)
	g.DefaultOptions.Rules = rules

	s := &proxyspec.ProxySpec{
		Listen:  proxyspec.ListenAddr{Addr: "0.0.0.0", Port: 443},
		Options: g.DefaultOptions.CloneIntoSpec(),
	}
	g.AddSpec(s)
	require.NoError(t, g.Freeze())

	m := New()
	m.Observe(g, 0.25)

	require.Equal(t, float64(1), testutil.ToFloat64(m.ProxySpecCount))
	require.Equal(t, float64(0.25), testutil.ToFloat64(m.CompileDurationSecs))
}

func TestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	require.NoError(t, m.Register(reg))
}
