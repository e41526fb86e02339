// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package proxyspec

import (
	"os"
	"path/filepath"
	"strings"

	"sslproxy.dev/core/internal/errors"
)

// PathSpec is the compiled form of a content-log or pcap-log path-spec
// directive: a base directory (created and realpath'd at parse time)
// plus a per-connection template remainder. Content-log and pcap-log
// pathspecs share the same split.
type PathSpec struct {
	BaseDir  string
	Template string
}

// SplitPathSpec splits a pathspec directive: a path containing "%%"
// literal-escapes and format tokens is split at the first non-"%%"
// format character into a base directory and a remainder template. The
// base directory is created with mode 0777 and realpath'd; within it,
// any literal "%" is re-doubled to "%%" so the template remainder can be
// safely re-joined by the runtime formatter without re-interpreting an
// already-resolved path segment as a format token.
func SplitPathSpec(spec string) (PathSpec, error) {
	if spec == "" {
		return PathSpec{}, errors.New(errors.KindConfigValue, "path-spec cannot be empty")
	}

	splitAt := len(spec)
	for i := 0; i < len(spec); i++ {
		if spec[i] != '%' {
			continue
		}
		if i+1 < len(spec) && spec[i+1] == '%' {
			i++ // "%%" is a literal escape, not a format token
			continue
		}
		splitAt = i
		break
	}

	base := strings.ReplaceAll(spec[:splitAt], "%%", "%") // unescape before touching the filesystem
	template := spec[splitAt:]

	if base != "" {
		if err := os.MkdirAll(base, 0777); err != nil {
			return PathSpec{}, errors.Wrapf(err, errors.KindConfigValue, "creating path-spec base directory %q", base)
		}
		real, err := filepath.EvalSymlinks(base)
		if err != nil {
			return PathSpec{}, errors.Wrapf(err, errors.KindConfigValue, "resolving path-spec base directory %q", base)
		}
		base = real
	}
	base = strings.ReplaceAll(base, "%", "%%") // re-double any literal "%" so the template remainder can't be misread

	return PathSpec{BaseDir: base, Template: template}, nil
}
