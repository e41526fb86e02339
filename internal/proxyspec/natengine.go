// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package proxyspec

import "sslproxy.dev/core/internal/errors"

// NATEngineRegistry names the set of NAT-table lookup providers this
// build was compiled with. The configuration core never talks to these
// providers itself; it only validates, at proxyspec-parse time, that a
// requested engine name is one the host actually registered.
type NATEngineRegistry struct {
	known map[string]bool
}

// DefaultNATEngineRegistry lists the per-platform NAT engines a host
// build of the full proxy typically registers: netfilter (Linux), pf
// (OpenBSD/macOS), ipfw (FreeBSD), and ipf (NetBSD).
func DefaultNATEngineRegistry() *NATEngineRegistry {
	return NewNATEngineRegistry("netfilter", "pf", "ipfw", "ipf")
}

// NewNATEngineRegistry builds a registry from an explicit name list.
func NewNATEngineRegistry(names ...string) *NATEngineRegistry {
	r := &NATEngineRegistry{known: make(map[string]bool, len(names))}
	for _, n := range names {
		r.known[n] = true
	}
	return r
}

// Validate returns an UnknownNatEngine error if name isn't registered.
func (r *NATEngineRegistry) Validate(name string) error {
	if !r.known[name] {
		return errors.Attr(errors.Errorf(errors.KindUnknownNatEngine, "unknown NAT engine %q", name), "token", name)
	}
	return nil
}
