// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package proxyspec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobalAddSpecMaintainsOrderAndLinkedList(t *testing.T) {
	g := NewGlobal()
	s1 := &ProxySpec{Listen: ListenAddr{Addr: "0.0.0.0", Port: 1}, Options: g.DefaultOptions.CloneIntoSpec()}
	s2 := &ProxySpec{Listen: ListenAddr{Addr: "0.0.0.0", Port: 2}, Options: g.DefaultOptions.CloneIntoSpec()}

	g.AddSpec(s1)
	g.AddSpec(s2)

	require.Equal(t, []*ProxySpec{s1, s2}, g.Specs)
	require.Same(t, s1, g.Head())
	require.Same(t, s2, s1.Next)
	require.Nil(t, s2.Next)
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", s1.ID.String())
}

func TestGlobalFreezeCompilesEveryOptionSet(t *testing.T) {
	g := NewGlobal()
	s := &ProxySpec{Listen: ListenAddr{Addr: "0.0.0.0", Port: 443}, Options: g.DefaultOptions.CloneIntoSpec()}
	g.AddSpec(s)

	require.NoError(t, g.Freeze())
	require.NotNil(t, g.DefaultOptions.Trie)
	require.NotNil(t, s.Options.Trie)
	require.True(t, g.Frozen())

	// Freezing twice is a no-op, not an error.
	require.NoError(t, g.Freeze())
}

func TestGlobalFreezeRejectsBadLeafRSABits(t *testing.T) {
	g := NewGlobal()
	g.LeafRSABits = 1234
	err := g.Freeze()
	require.Error(t, err)
}
