// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package optset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	o := New()
	require.True(t, o.Divert)
	require.True(t, o.SSLComp)
	require.True(t, o.RemoveReferer)
	require.True(t, o.VerifyPeer)
	require.Equal(t, 300, o.UserTimeoutSeconds)
	require.Equal(t, 8192, o.MaxHeaderBytes)
	require.Equal(t, TLSVersionTLS10, o.MinTLSVersion)
	require.Equal(t, highestSupported, o.MaxTLSVersion)
}

func TestSetUserTimeoutRange(t *testing.T) {
	o := New()
	require.NoError(t, o.SetUserTimeout(0))
	require.NoError(t, o.SetUserTimeout(86400))
	err := o.SetUserTimeout(86401)
	require.Error(t, err)
	require.Contains(t, err.Error(), "86401")
}

func TestSetMaxHeaderBytesRange(t *testing.T) {
	o := New()
	require.Error(t, o.SetMaxHeaderBytes(1023))
	require.Error(t, o.SetMaxHeaderBytes(65537))
	require.NoError(t, o.SetMaxHeaderBytes(2048))
	require.Equal(t, 2048, o.MaxHeaderBytes)
}

func TestForcedProtocolLocksOnce(t *testing.T) {
	o := New()
	require.NoError(t, o.SetForcedTLS(TLSVersionTLS12))
	err := o.SetForcedTLS(TLSVersionTLS13)
	require.Error(t, err)
	require.Equal(t, TLSVersionTLS12, o.ForcedTLSVersion)
}

func TestForcedProtocolExclusiveWithMinMax(t *testing.T) {
	o := New()
	require.NoError(t, o.SetForcedTLS(TLSVersionTLS12))
	require.Error(t, o.SetMinMaxTLS(TLSVersionTLS10, TLSVersionTLS13))

	o2 := New()
	require.NoError(t, o2.SetMinMaxTLS(TLSVersionTLS11, TLSVersionTLS12))
	require.Error(t, o2.SetForcedTLS(TLSVersionTLS13))
}

func TestMinMaxInvariant(t *testing.T) {
	o := New()
	err := o.SetMinMaxTLS(TLSVersionTLS13, TLSVersionTLS11)
	require.Error(t, err)
}

func TestCertSetterIdempotentOnSameValue(t *testing.T) {
	o := New()
	require.NoError(t, o.SetCACert("/etc/proxy/ca.pem"))
	first := o.CACert
	require.NoError(t, o.SetCACert("/etc/proxy/ca.pem"))
	require.Same(t, first, o.CACert)
}

func TestCertSetterReplacesCleanly(t *testing.T) {
	o := New()
	require.NoError(t, o.SetCACert("/etc/proxy/ca.pem"))
	require.NoError(t, o.SetCACert("/etc/proxy/ca2.pem"))
	require.Equal(t, "/etc/proxy/ca2.pem", o.CACert.Path())
}

func TestCertSetterRejectsEmptyPath(t *testing.T) {
	o := New()
	require.Error(t, o.SetCACert(""))
}

func TestCloneIntoSpecIsIndependent(t *testing.T) {
	o := New()
	require.NoError(t, o.AddDivertUser("alice"))
	require.NoError(t, o.Macros.Define("ips", []string{"1.1.1.1"}, 1))

	clone := o.CloneIntoSpec()
	require.NoError(t, clone.AddDivertUser("bob"))
	require.Len(t, o.DivertUsers, 1)
	require.Len(t, clone.DivertUsers, 2)

	_, ok := clone.Macros.Lookup("ips")
	require.True(t, ok)

	require.NoError(t, clone.Macros.Define("dsts", []string{"2.2.2.2"}, 2))
	_, ok = o.Macros.Lookup("dsts")
	require.False(t, ok, "cloning must not leak macro definitions back into the source table")
}

func TestCloneSharesCertHandleRefcount(t *testing.T) {
	o := New()
	require.NoError(t, o.SetCACert("/etc/proxy/ca.pem"))
	clone := o.CloneIntoSpec()
	require.Equal(t, o.CACert.Path(), clone.CACert.Path())
	require.False(t, clone.CACert.Loaded())
}

func TestUserListBound(t *testing.T) {
	o := New()
	for i := 0; i < maxUserListLen; i++ {
		require.NoError(t, o.AddDivertUser(fmt.Sprintf("user%d", i)))
	}
	require.Error(t, o.AddDivertUser("overflow"))
}

func TestAddUserRejectsForbiddenCharacters(t *testing.T) {
	o := New()
	require.Error(t, o.AddDivertUser("bad user"))
	require.Error(t, o.AddDivertUser("bad,user"))
}

func TestFreeReleasesHandles(t *testing.T) {
	o := New()
	require.NoError(t, o.SetCACert("/etc/proxy/ca.pem"))
	o.Free()
	require.Nil(t, o.CACert)
}
