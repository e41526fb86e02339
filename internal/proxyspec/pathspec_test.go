// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package proxyspec

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitPathSpecBaseDirAndTemplate(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "logs") + "/%u/%T.log"

	ps, err := SplitPathSpec(spec)
	require.NoError(t, err)
	require.Equal(t, "%u/%T.log", ps.Template)
	require.DirExists(t, filepath.Join(dir, "logs"))
}

func TestSplitPathSpecDoubledPercentIsLiteral(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "logs") + "/100%%done/%u.log"

	ps, err := SplitPathSpec(spec)
	require.NoError(t, err)
	require.Equal(t, "%u.log", ps.Template)
	require.DirExists(t, filepath.Join(dir, "logs", "100%done"))
}

func TestSplitPathSpecEmptyRejected(t *testing.T) {
	_, err := SplitPathSpec("")
	require.Error(t, err)
}

func TestSplitPathSpecReDoublesPercentInBase(t *testing.T) {
	// A base directory whose realpath happens to contain a literal "%"
	// (written as the "%%" escape in the source spec) must have it
	// re-escaped so the template remainder is never misread as
	// introducing a new format token.
	dir := t.TempDir()
	spec := filepath.Join(dir, "50%%off") + "/%u.log"

	ps, err := SplitPathSpec(spec)
	require.NoError(t, err)
	require.Contains(t, ps.BaseDir, "50%%off")
	require.DirExists(t, filepath.Join(dir, "50%off"))
}
