// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux
// +build !linux

package proxyspec

// applyOpenFilesLimit is a no-op off Linux; the rlimit value is still
// validated by the caller, it simply isn't applied through
// golang.org/x/sys/unix on platforms that don't build that syscall path.
func applyOpenFilesLimit(n int) error {
	return nil
}
