// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputePrecedenceFormula(t *testing.T) {
	r := FilterRule{Action: ActionMatch, SrcIP: Wildcard, Site: Wildcard}
	require.Equal(t, 1, ComputePrecedence(&r)) // match is higher-specificity

	ip := NewMatcher("10.0.0.1")
	r2 := FilterRule{Action: ActionBlock, SrcIP: ip, Site: Wildcard}
	require.Equal(t, 1, ComputePrecedence(&r2)) // non-wildcard src-ip

	site := NewMatcher("example.com")
	r3 := FilterRule{Action: ActionSplit, SrcIP: ip, Site: site}
	require.Equal(t, 3, ComputePrecedence(&r3)) // ip + site + split
}

func TestTrieMergeOfActionsAndLogBitmap(t *testing.T) {
	table := NewMacroTable()
	var rules []FilterRule
	for _, line := range []string{
		"Divert to ip 192.168.0.2 log connect",
		"Split to ip 192.168.0.2",
		"Pass to ip 192.168.0.2 log !pcap",
	} {
		rs, _, err := CompileRuleLine(line, 1, table, false)
		require.NoError(t, err)
		rules = append(rules, rs...)
	}

	trie := Build(rules)
	res, ok := trie.Evaluate(LookupRequest{Axis: AxisDstIP, Value: "192.168.0.2", Port: "*"})
	require.True(t, ok)
	require.Equal(t, ActionDivert|ActionSplit|ActionPass, res.Action)
	require.Equal(t, LogEnable, res.Log[LogConnect])
	require.Equal(t, LogSuppress, res.Log[LogPCAP])
}

func TestTrieWildcardAlwaysLastWithinSubstringList(t *testing.T) {
	table := NewMacroTable()
	var rules []FilterRule
	for _, line := range []string{
		"Match to ip 192.168.0.3",
		"Match to ip *",
		"Match to ip 192.168.0.*",
	} {
		rs, _, err := CompileRuleLine(line, 1, table, false)
		require.NoError(t, err)
		rules = append(rules, rs...)
	}
	trie := Build(rules)

	b := trie.buckets[BucketAll]
	sl := b.byIdentity[identityKey{}]
	at, ok := sl.lookup("*")
	require.True(t, ok)
	axisTable := at.table(AxisDstIP)

	require.Len(t, axisTable.exact, 1)
	require.Equal(t, "192.168.0.3", axisTable.exactOrder[0])

	require.Len(t, axisTable.substr, 2)
	require.Equal(t, "192.168.0.", axisTable.substr[0].matcher.Value)
	require.Equal(t, MatchWildcard, axisTable.substr[1].matcher.Kind)
}

func TestTrieEvaluationKeepsHigherPrecedenceAcrossBuckets(t *testing.T) {
	table := NewMacroTable()
	var rules []FilterRule

	rs1, _, err := CompileRuleLine("Block to ip *", 1, table, false) // precedence 0, bucket All
	require.NoError(t, err)
	rules = append(rules, rs1...)

	rs2, _, err := CompileRuleLine("Pass from ip 10.0.0.5 to ip *", 2, table, false) // src-ip + pass = prec 2, bucket IPExact
	require.NoError(t, err)
	rules = append(rules, rs2...)

	trie := Build(rules)
	res, ok := trie.Evaluate(LookupRequest{SrcIP: "10.0.0.5", Axis: AxisDstIP, Value: "anything", Port: "*"})
	require.True(t, ok)
	require.Equal(t, ActionPass, res.Action)
	require.Equal(t, 2, res.Precedence)
}

func TestTrieDstIPPortNesting(t *testing.T) {
	table := NewMacroTable()
	require.NoError(t, table.Define("dsts", []string{"C", "D"}, 1))
	require.NoError(t, table.Define("ports", []string{"80", "443"}, 2))

	rules, _, err := CompileRuleLine("Match to ip $dsts port $ports", 3, table, false)
	require.NoError(t, err)
	trie := Build(rules)

	res, ok := trie.Evaluate(LookupRequest{Axis: AxisDstIP, Value: "C", Port: "80"})
	require.True(t, ok)
	require.Equal(t, ActionMatch, res.Action)

	_, ok = trie.Evaluate(LookupRequest{Axis: AxisDstIP, Value: "C", Port: "22"})
	require.False(t, ok)
}
