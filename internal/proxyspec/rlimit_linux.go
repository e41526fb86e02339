// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package proxyspec

import (
	"golang.org/x/sys/unix"

	"sslproxy.dev/core/internal/errors"
)

// applyOpenFilesLimit sets RLIMIT_NOFILE to the configured
// OpenFilesLimit value.
func applyOpenFilesLimit(n int) error {
	limit := unix.Rlimit{Cur: uint64(n), Max: uint64(n)}
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return errors.Wrapf(err, errors.KindResourceExhausted, "setrlimit(RLIMIT_NOFILE, %d) failed", n)
	}
	return nil
}
