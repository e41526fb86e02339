// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	require.NoError(t, ValidateIdentifier("root"))
	require.Error(t, ValidateIdentifier(""))
	require.Error(t, ValidateIdentifier("a b"))
	require.Error(t, ValidateIdentifier("a,b"))
	require.Error(t, ValidateIdentifier("a\tb"))
}

func TestValidateIPOrCIDR(t *testing.T) {
	require.NoError(t, ValidateIPOrCIDR("192.168.0.1"))
	require.NoError(t, ValidateIPOrCIDR("10.0.0.0/8"))
	require.Error(t, ValidateIPOrCIDR(""))
	require.Error(t, ValidateIPOrCIDR("not-an-ip"))
}

func TestValidatePortNumber(t *testing.T) {
	p, err := ValidatePortNumber("443")
	require.NoError(t, err)
	require.Equal(t, 443, p)

	_, err = ValidatePortNumber("0")
	require.Error(t, err)
	_, err = ValidatePortNumber("70000")
	require.Error(t, err)
	_, err = ValidatePortNumber("nope")
	require.Error(t, err)
}

func TestValidateHostname(t *testing.T) {
	require.NoError(t, ValidateHostname("example.com"))
	require.NoError(t, ValidateHostname("sub.example.com"))
	require.Error(t, ValidateHostname(""))
}

func TestValidateRange(t *testing.T) {
	require.NoError(t, ValidateRange("max_header", 8192, 1024, 65536))
	require.Error(t, ValidateRange("max_header", 100, 1024, 65536))
}
