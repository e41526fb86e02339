// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package auditdump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sslproxy.dev/core/internal/proxyspec"
)

func TestDumpRendersProxySpecsAndOptions(t *testing.T) {
	g := proxyspec.NewGlobal()
	g.DefaultOptions.UserAuthEnabled = true
	require.NoError(t, g.DefaultOptions.AddDivertUser("alice"))

	s := &proxyspec.ProxySpec{
		Protocol: proxyspec.ProtoHTTPS,
		Flags:    proxyspec.FlagsForProtocol(proxyspec.ProtoHTTPS),
		Listen:   proxyspec.ListenAddr{Addr: "0.0.0.0", Port: 8443},
		DestMode: proxyspec.DestModeStatic,
		Target:   proxyspec.ListenAddr{Addr: "10.0.0.1", Port: 443},
		Options:  g.DefaultOptions.CloneIntoSpec(),
	}
	g.AddSpec(s)
	require.NoError(t, g.Freeze())

	out, err := Dump(g)
	require.NoError(t, err)
	require.Contains(t, out, `proxyspec "`)
	require.True(t, strings.Contains(out, "https"))
	require.True(t, strings.Contains(out, "target_addr"))
	require.Contains(t, out, "alice")
}
