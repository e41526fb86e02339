// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package proxyspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadFileProxySpecBlock(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, "sslproxy.conf", `
# comment
; also a comment
ProxySpec {
	Proto https
	Addr 0.0.0.0
	Port 8443
	TargetAddr 10.0.0.1
	TargetPort 443
}
`)

	g, err := LoadFile(path, nil)
	require.NoError(t, err)
	require.Len(t, g.Specs, 1)

	s := g.Specs[0]
	require.Equal(t, ProtoHTTPS, s.Protocol)
	require.True(t, s.Flags.SSL)
	require.True(t, s.Flags.HTTP)
	require.Equal(t, "0.0.0.0", s.Listen.Addr)
	require.Equal(t, 8443, s.Listen.Port)
	require.Equal(t, "10.0.0.1", s.Target.Addr)
	require.Equal(t, 443, s.Target.Port)
	require.Equal(t, DestModeStatic, s.DestMode)
	require.Equal(t, "127.0.0.1", s.ReturnAddr) // block-form default
	require.False(t, s.Options.Divert)          // no divert address -> split mode
}

func TestLoadFileProxySpecSingleLine(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, "sslproxy.conf", "tcp 0.0.0.0 10443 netfilter\n")

	g, err := LoadFile(path, nil)
	require.NoError(t, err)
	require.Len(t, g.Specs, 1)
	require.Equal(t, DestModeNAT, g.Specs[0].DestMode)
	require.Equal(t, "netfilter", g.Specs[0].NatEngine)
}

func TestLoadFileIncompleteBlockAtEOFFails(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, "sslproxy.conf", "ProxySpec {\n\tProto https\n\tAddr 0.0.0.0\n\tPort 8443\n")

	_, err := LoadFile(path, nil)
	require.Error(t, err)
}

func TestLoadFileIncludeDirective(t *testing.T) {
	dir := t.TempDir()
	writeTempConfig(t, dir, "rules.conf", "tcp 0.0.0.0 9999\n")
	path := writeTempConfig(t, dir, "main.conf", "Include rules.conf\n")

	g, err := LoadFile(path, nil)
	require.NoError(t, err)
	require.Len(t, g.Specs, 1)
	require.Equal(t, 9999, g.Specs[0].Listen.Port)
}

func TestLoadFileRecursiveIncludeFails(t *testing.T) {
	dir := t.TempDir()
	writeTempConfig(t, dir, "inner.conf", "Include main.conf\n")
	path := writeTempConfig(t, dir, "main.conf", "Include inner.conf\n")

	_, err := LoadFile(path, nil)
	require.Error(t, err)
}

func TestLoadFileGlobalKeysAndOptionSetKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, "sslproxy.conf", `
Split yes
Daemon no
ConnIdleTimeout 30
OpenFilesLimit 2048
LeafKeyRSABits 4096
UserAuth yes
UserTimeout 120
MinTLS TLSv1.2
MaxTLS TLSv1.3
DivertUsers alice,bob

tcp 0.0.0.0 10443 netfilter
`)

	g, err := LoadFile(path, nil)
	require.NoError(t, err)
	require.True(t, g.Split)
	require.False(t, g.Daemon)
	require.Equal(t, 30, g.ConnIdleTimeoutSeconds)
	require.Equal(t, 2048, g.OpenFilesLimit)
	require.Equal(t, 4096, g.LeafRSABits)
	require.True(t, g.DefaultOptions.UserAuthEnabled)
	require.Equal(t, 120, g.DefaultOptions.UserTimeoutSeconds)
	require.Equal(t, []string{"alice", "bob"}, g.DefaultOptions.DivertUsers)
	require.Len(t, g.Specs, 1)
	// global Split=yes forces split mode regardless of divert address.
	require.False(t, g.Specs[0].Options.Divert)
}

func TestLoadFileGlobalDivertNoIsSplit(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, "sslproxy.conf", "Divert no\n\ntcp 0.0.0.0 10443 netfilter\n")

	g, err := LoadFile(path, nil)
	require.NoError(t, err)
	require.True(t, g.Split)
	require.False(t, g.Specs[0].Options.Divert)
}

func TestLoadFileContentLogExclusivity(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, "sslproxy.conf", "ContentLog /var/log/a\nContentLogDir /var/log/b\n")

	_, err := LoadFile(path, nil)
	require.Error(t, err)
}

func TestLoadFileFilterAndMacroDirectives(t *testing.T) {
	dir := t.TempDir()
	path := writeTempConfig(t, dir, "sslproxy.conf", `
Macro $ips 192.168.0.1 192.168.0.2
Filter Divert from ip $ips to ip 10.0.0.1

tcp 0.0.0.0 10443 netfilter
`)

	g, err := LoadFile(path, nil)
	require.NoError(t, err)
	require.Len(t, g.DefaultOptions.Rules, 2)
}
