// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sslproxy.dev/core/internal/errors"
)

func TestParseToOmittedFansOutToFiveAxes(t *testing.T) {
	table := NewMacroTable()
	rules, expanded, err := CompileRuleLine("Block from ip 10.0.0.1", 1, table, false)
	require.NoError(t, err)
	require.False(t, expanded)
	require.Len(t, rules, 5)
	seen := map[Axis]bool{}
	for _, r := range rules {
		seen[r.Axis] = true
		require.Equal(t, ActionBlock, r.Action)
		require.True(t, r.Site.IsWildcard())
	}
	require.Len(t, seen, 5)
}

func TestParseUserRuleRequiresUserAuth(t *testing.T) {
	table := NewMacroTable()
	_, _, err := CompileRuleLine("Pass from user alice", 1, table, false)
	require.Error(t, err)

	_, _, err = CompileRuleLine("Pass from user alice", 1, table, true)
	require.NoError(t, err)
}

func TestParseUserWithKeyword(t *testing.T) {
	table := NewMacroTable()
	rules, _, err := CompileRuleLine("Pass from user alice desc eng to sni example.com*", 1, table, true)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	r := rules[0]
	require.Equal(t, AxisSNI, r.Axis)
	require.Equal(t, MatchSubstring, r.Site.Kind)
	require.Equal(t, "example.com", r.Site.Value)
	require.NotNil(t, r.User)
	require.Equal(t, "alice", r.User.Value)
	require.NotNil(t, r.Keyword)
	require.Equal(t, "eng", r.Keyword.Value)
}

func TestParseLogClauseTriState(t *testing.T) {
	table := NewMacroTable()
	rules, _, err := CompileRuleLine("Match to ip 10.0.0.1 log connect !pcap", 1, table, false)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	r := rules[0]
	require.Equal(t, LogEnable, r.Log[LogConnect])
	require.Equal(t, LogSuppress, r.Log[LogPCAP])
	require.Equal(t, LogUnspecified, r.Log[LogCert])
}

func TestParseDivertWildcard(t *testing.T) {
	table := NewMacroTable()
	rules, _, err := CompileRuleLine("Divert *", 1, table, false)
	require.NoError(t, err)
	require.Len(t, rules, 5)
	for _, r := range rules {
		require.Equal(t, 0, r.Precedence)
	}
}

func TestParseRejectsMalformedExactSiteLiteral(t *testing.T) {
	table := NewMacroTable()
	long := strings.Repeat("a", 300) + ".example.com"
	_, _, err := CompileRuleLine("Block to sni "+long, 1, table, false)
	require.Error(t, err)

	// URI literals are free-form and never checked.
	_, _, err = CompileRuleLine("Block to uri /"+long, 1, table, false)
	require.NoError(t, err)
}

func TestParseUnknownActionFails(t *testing.T) {
	table := NewMacroTable()
	_, _, err := CompileRuleLine("Frobnicate *", 1, table, false)
	require.Error(t, err)
}

func TestParseSyntaxErrorCarriesLine(t *testing.T) {
	table := NewMacroTable()
	_, _, err := CompileRuleLine("Divert from bogus", 7, table, false)
	require.Error(t, err)
	require.Equal(t, 7, errors.GetAttributes(err)["line"])
}
