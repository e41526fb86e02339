// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMacroRedefinitionRejected(t *testing.T) {
	table := NewMacroTable()
	require.NoError(t, table.Define("ips", []string{"1.1.1.1", "2.2.2.2"}, 1))
	err := table.Define("ips", []string{"3.3.3.3"}, 2)
	require.Error(t, err)
}

func TestMacroCartesianExpansionWidth(t *testing.T) {
	table := NewMacroTable()
	require.NoError(t, table.Define("ips", []string{"A", "B"}, 1))
	require.NoError(t, table.Define("dsts", []string{"C", "D"}, 2))
	require.NoError(t, table.Define("ports", []string{"80", "443"}, 3))
	require.NoError(t, table.Define("logs", []string{"!master", "!pcap"}, 4))

	rules, expanded, err := CompileRuleLine(
		"Match from ip $ips to ip $dsts port $ports log $logs", 5, table, false,
	)
	require.NoError(t, err)
	require.True(t, expanded)
	require.Len(t, rules, 16)

	// Each atomic rule carries exactly one of the two suppress tokens;
	// only the trie merge step combines them per (dst, port) key.
	for _, r := range rules {
		suppressed := 0
		for _, st := range r.Log {
			if st == LogSuppress {
				suppressed++
			}
		}
		require.Equal(t, 1, suppressed)
	}

	trie := Build(rules)
	for _, port := range []string{"80", "443"} {
		res, ok := trie.Evaluate(LookupRequest{SrcIP: "A", Axis: AxisDstIP, Value: "C", Port: port})
		require.True(t, ok)
		require.Equal(t, LogSuppress, res.Log[LogMasterKey])
		require.Equal(t, LogSuppress, res.Log[LogPCAP])
	}
}

func TestMacroUndefinedReference(t *testing.T) {
	table := NewMacroTable()
	_, _, err := CompileRuleLine("Divert to ip $nope", 1, table, false)
	require.Error(t, err)
}
