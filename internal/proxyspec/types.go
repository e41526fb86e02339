// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package proxyspec implements the top-level configuration: proxy
// listeners, their protocol and destination-resolution strategy, and
// the Global root that owns them. It parses both the
// positional CLI grammar and the line/block config-file grammar into
// the same compiled structures and freezes them for read-only sharing
// with the connection event loop.
package proxyspec

import (
	"github.com/google/uuid"

	"sslproxy.dev/core/internal/errors"
	"sslproxy.dev/core/internal/optset"
)

// Protocol is one of the nine recognized proxyspec protocol tags.
type Protocol int

const (
	ProtoTCP Protocol = iota
	ProtoSSL
	ProtoHTTP
	ProtoHTTPS
	ProtoAutoSSL
	ProtoPOP3
	ProtoPOP3S
	ProtoSMTP
	ProtoSMTPS
)

var protocolNames = map[string]Protocol{
	"tcp":     ProtoTCP,
	"ssl":     ProtoSSL,
	"http":    ProtoHTTP,
	"https":   ProtoHTTPS,
	"autossl": ProtoAutoSSL,
	"pop3":    ProtoPOP3,
	"pop3s":   ProtoPOP3S,
	"smtp":    ProtoSMTP,
	"smtps":   ProtoSMTPS,
}

func (p Protocol) String() string {
	for name, v := range protocolNames {
		if v == p {
			return name
		}
	}
	return "unknown"
}

// ParseProtocol resolves a protocol token to its Protocol constant.
func ParseProtocol(tok string) (Protocol, error) {
	p, ok := protocolNames[tok]
	if !ok {
		return 0, errors.Attr(errors.Errorf(errors.KindUnknownProtocol, "unknown protocol %q", tok), "token", tok)
	}
	return p, nil
}

// Flags are the boolean facets derived from a Protocol tag. "autossl"
// sets Upgrade; the "s"-suffixed variants set SSL in addition to their
// base protocol flag.
type Flags struct {
	SSL     bool
	HTTP    bool
	Upgrade bool
	POP3    bool
	SMTP    bool
}

// FlagsForProtocol computes the derived flag set for a protocol tag.
func FlagsForProtocol(p Protocol) Flags {
	switch p {
	case ProtoTCP:
		return Flags{}
	case ProtoSSL:
		return Flags{SSL: true}
	case ProtoHTTP:
		return Flags{HTTP: true}
	case ProtoHTTPS:
		return Flags{SSL: true, HTTP: true}
	case ProtoAutoSSL:
		return Flags{Upgrade: true}
	case ProtoPOP3:
		return Flags{POP3: true}
	case ProtoPOP3S:
		return Flags{SSL: true, POP3: true}
	case ProtoSMTP:
		return Flags{SMTP: true}
	case ProtoSMTPS:
		return Flags{SSL: true, SMTP: true}
	default:
		return Flags{}
	}
}

// DestMode names the single destination-resolution strategy a ProxySpec
// must pick.
type DestMode int

const (
	// DestModeNAT resolves the original destination via the configured
	// NAT-engine lookup (the default when no explicit target/sni is given).
	DestModeNAT DestMode = iota
	// DestModeStatic connects to a fixed target address and port.
	DestModeStatic
	// DestModeSNI resolves the destination by DNS-looking-up the TLS
	// ClientHello SNI name against an upstream at the given port.
	DestModeSNI
)

// ListenAddr is a listen or target address/port pair. Family is an
// opaque hint ("4", "6", or "" for unspecified); neither the CLI nor the
// file grammar sets it, so parsed specs carry "". Actual socket
// construction is out of scope.
type ListenAddr struct {
	Family string
	Addr   string
	Port   int
}

// ProxySpec is one listener + protocol + destination-resolution
// strategy + owned OptionSet.
type ProxySpec struct {
	ID uuid.UUID

	Protocol Protocol
	Flags    Flags

	Listen ListenAddr

	DestMode   DestMode
	NatEngine  string     // DestModeNAT only
	Target     ListenAddr // DestModeStatic only
	SNIPort    int        // DestModeSNI only (implies DNS resolution)

	DivertAddr string
	DivertPort int
	ReturnAddr string // defaults to "127.0.0.1" inside a ProxySpec block

	Options *optset.OptionSet

	// Next is the singly-linked successor preserving insertion order.
	// Global additionally keeps a contiguous Specs slice; Next is
	// maintained in lock-step so both views stay observable.
	Next *ProxySpec
}

// hasDivertAddr reports whether this spec's divert address was ever
// set; divert-mode resolution hinges on the distinction between unset
// and explicitly configured.
func (s *ProxySpec) hasDivertAddr() bool { return s.DivertAddr != "" }

// resolveDivertMode decides split-vs-divert: a spec runs in "split"
// mode (Options.Divert == false) iff
// either the global split flag was set or the spec never specified a
// divert address; otherwise it is in divert mode. This runs exactly
// once, after the whole spec (CLI segment or config-file block) has
// been parsed, so that a per-spec "Divert yes|no" keyword can override
// the global default regardless of whether it appeared before or after
// the DivertAddr key.
func (s *ProxySpec) resolveDivertMode(globalSplit bool, explicitDivertSet bool, explicitDivertValue bool) {
	switch {
	case explicitDivertSet:
		s.Options.Divert = explicitDivertValue
	case globalSplit:
		s.Options.Divert = false
	case !s.hasDivertAddr():
		s.Options.Divert = false
	default:
		s.Options.Divert = true
	}
}
