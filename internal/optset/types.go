// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package optset implements the OptionSet record attached to the
// Global default and to every proxyspec: TLS/HTTP/user-auth tuning
// knobs, owned certificate handles, and the macro table, rule list,
// and compiled trie it carries on behalf of the filter package.
package optset

import "sslproxy.dev/core/internal/filter"

// TLSVersion is one of the closed set of negotiable protocol versions.
type TLSVersion int

const (
	TLSVersionSSL3 TLSVersion = iota
	TLSVersionTLS10
	TLSVersionTLS11
	TLSVersionTLS12
	TLSVersionTLS13
)

func (v TLSVersion) String() string {
	switch v {
	case TLSVersionSSL3:
		return "SSLv3"
	case TLSVersionTLS10:
		return "TLSv1.0"
	case TLSVersionTLS11:
		return "TLSv1.1"
	case TLSVersionTLS12:
		return "TLSv1.2"
	case TLSVersionTLS13:
		return "TLSv1.3"
	default:
		return "unknown"
	}
}

// highestSupported is the ceiling of the default min/max TLS range.
const highestSupported = TLSVersionTLS13

// TLSVersionSet is a bitset over the closed set of TLSVersion values,
// used for the per-protocol "disable" knob.
type TLSVersionSet uint8

func (s TLSVersionSet) has(v TLSVersion) bool { return s&(1<<uint(v)) != 0 }
func (s TLSVersionSet) with(v TLSVersion) TLSVersionSet { return s | (1 << uint(v)) }

// CertHandle is an opaque, reference-counted reference to loaded
// certificate/key/DH material. The clone at proxyspec-creation time
// shares the handle (bumping the refcount) rather than reloading from
// disk, while still embedding the source path/tokens so a proxyspec may
// later override the material before the spec is frozen.
type CertHandle struct {
	path     string
	refcount *int
	loaded   bool
}

// loadCertHandle constructs a new opaque handle for the crypto material
// at path. The core never performs I/O to validate certificate/key/DH
// material itself; actual loading and compilation into a runtime TLS
// artifact is an external collaborator's job, triggered once the
// owning spec freezes.
func loadCertHandle(path string) (*CertHandle, error) {
	rc := 1
	return &CertHandle{path: path, refcount: &rc}, nil
}

// Clone returns a shared reference to the same underlying material.
func (h *CertHandle) Clone() *CertHandle {
	if h == nil {
		return nil
	}
	*h.refcount++
	return &CertHandle{path: h.path, refcount: h.refcount, loaded: h.loaded}
}

// Release decrements the handle's refcount. The caller is responsible
// for not accessing the handle again afterward.
func (h *CertHandle) Release() {
	if h == nil || h.refcount == nil {
		return
	}
	*h.refcount--
}

// Path returns the source path the handle was loaded from.
func (h *CertHandle) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}

// Loaded reports whether the certificate material has been compiled
// into its runtime artifact. Neither cloning nor OptionSet.Freeze sets
// this mark, so every handle built by this core reports false.
func (h *CertHandle) Loaded() bool {
	return h != nil && h.loaded
}

// OptionSet is the tunable record attached to every scope: the global
// default and, via CloneIntoSpec, each proxyspec.
type OptionSet struct {
	// Boolean knobs.
	Divert               bool
	SSLComp              bool
	PassthroughOnFail    bool
	DenyOCSP             bool
	ValidateProtocol     bool
	RemoveAcceptEncoding bool
	RemoveReferer        bool
	VerifyPeer           bool
	AllowWrongHost       bool
	UserAuthEnabled      bool
	Daemon               bool
	Debug                bool

	// Scalar knobs.
	UserTimeoutSeconds int
	MaxHeaderBytes     int
	MinTLSVersion      TLSVersion
	MaxTLSVersion      TLSVersion
	ForcedTLSVersion   TLSVersion
	forced             bool // true once ForcedTLSVersion is locked
	minMaxSet          bool // true once either Min or Max has been set explicitly
	DisabledVersions   TLSVersionSet

	// String fields.
	CipherList   string
	CipherSuites string
	ECDHCurve    string
	ClientCRLURL string
	UserAuthURL  string

	// Opaque certificate/key handles, owned by this OptionSet.
	ClientCert *CertHandle
	ClientKey  *CertHandle
	CACert     *CertHandle
	CAKey      *CertHandle
	DHParams   *CertHandle
	X509Chain  *CertHandle

	// Ordered, stable-iteration-order user lists, bounded to
	// maxUserListLen entries each.
	DivertUsers []string
	PassUsers   []string

	// Owned by the filter package.
	Macros *filter.MacroTable
	Rules  []filter.FilterRule
	Trie   *filter.Trie

	// global is an opaque back-pointer to the enclosing Global root,
	// set once by proxyspec.Global when this OptionSet is attached. It
	// is untyped here to avoid an import cycle between optset and
	// proxyspec.
	global any
}

// SetGlobal attaches the enclosing Global root. Called exactly once by
// the proxyspec package when an OptionSet is adopted.
func (o *OptionSet) SetGlobal(g any) { o.global = g }

// Global returns the back-pointer installed by SetGlobal, or nil.
func (o *OptionSet) Global() any { return o.global }
