// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package optset

import (
	"sslproxy.dev/core/internal/errors"
	"sslproxy.dev/core/internal/filter"
	"sslproxy.dev/core/internal/validation"
)

// maxUserListLen bounds a rule's user-list length; it is repeated here
// so callers populating DivertUsers/PassUsers directly (outside the
// rule parser, e.g. from a config-file "DivertUsers" key) enforce the
// same bound.
const maxUserListLen = 50

// validTLSVersion reports whether v is in the closed set of negotiable
// TLS versions.
func validTLSVersion(v TLSVersion) bool {
	return v >= TLSVersionSSL3 && v <= TLSVersionTLS13
}

// New returns a default OptionSet: divert=on, sslcomp=on,
// remove-Referer=on, verify-peer=on, user-timeout=300s, max-header=8192,
// TLS version range [TLS1.0 .. highest supported].
func New() *OptionSet {
	return &OptionSet{
		Divert:             true,
		SSLComp:            true,
		RemoveReferer:      true,
		VerifyPeer:         true,
		UserTimeoutSeconds: 300,
		MaxHeaderBytes:     8192,
		MinTLSVersion:      TLSVersionTLS10,
		MaxTLSVersion:      highestSupported,
		Macros:             filter.NewMacroTable(),
	}
}

// SetUserTimeout validates and sets UserTimeoutSeconds (0-86400s).
func (o *OptionSet) SetUserTimeout(seconds int) error {
	if err := validation.ValidateRange("user_timeout", seconds, 0, 86400); err != nil {
		return err
	}
	o.UserTimeoutSeconds = seconds
	return nil
}

// SetMaxHeaderBytes validates and sets MaxHeaderBytes (1024-65536).
func (o *OptionSet) SetMaxHeaderBytes(n int) error {
	if err := validation.ValidateRange("max_header", n, 1024, 65536); err != nil {
		return err
	}
	o.MaxHeaderBytes = n
	return nil
}

// SetMinMaxTLS sets the min/max TLS version pair. Fails if a forced
// protocol is already locked, or if min > max: at most one of a forced
// protocol or a min/max pair may be in effect.
func (o *OptionSet) SetMinMaxTLS(min, max TLSVersion) error {
	if o.forced {
		return errors.New(errors.KindConfigValue, "cannot set min/max TLS version: a forced protocol is already locked")
	}
	if !validTLSVersion(min) || !validTLSVersion(max) {
		return errors.Errorf(errors.KindConfigValue, "TLS version out of the supported set [SSLv3..TLSv1.3]")
	}
	if min > max {
		return errors.Errorf(errors.KindConfigValue, "min TLS version %s is greater than max %s", min, max)
	}
	o.MinTLSVersion = min
	o.MaxTLSVersion = max
	o.minMaxSet = true
	return nil
}

// SetForcedTLS locks the protocol to exactly one version. A second
// call fails unconditionally.
func (o *OptionSet) SetForcedTLS(v TLSVersion) error {
	if o.forced {
		return errors.Errorf(errors.KindConfigValue, "forced TLS protocol %s is already locked, cannot set %s", o.ForcedTLSVersion, v)
	}
	if !validTLSVersion(v) {
		return errors.Errorf(errors.KindConfigValue, "TLS version out of the supported set [SSLv3..TLSv1.3]")
	}
	if o.minMaxSet {
		return errors.New(errors.KindConfigValue, "cannot force a TLS protocol: a min/max range is already set")
	}
	o.ForcedTLSVersion = v
	o.forced = true
	return nil
}

// DisableVersion adds v to the per-protocol disable bitset.
func (o *OptionSet) DisableVersion(v TLSVersion) {
	o.DisabledVersions = o.DisabledVersions.with(v)
}

// VersionDisabled reports whether v is in the disable bitset.
func (o *OptionSet) VersionDisabled(v TLSVersion) bool {
	return o.DisabledVersions.has(v)
}

// SetCipherList validates and sets the OpenSSL-style cipher list string.
func (o *OptionSet) SetCipherList(s string) error {
	if s == "" {
		return errors.New(errors.KindConfigValue, "cipher list cannot be empty")
	}
	o.CipherList = s
	return nil
}

// SetCipherSuites validates and sets the TLS 1.3 ciphersuite list string.
func (o *OptionSet) SetCipherSuites(s string) error {
	if s == "" {
		return errors.New(errors.KindConfigValue, "cipher suites cannot be empty")
	}
	o.CipherSuites = s
	return nil
}

// SetECDHCurve validates and sets the named ECDH curve.
func (o *OptionSet) SetECDHCurve(s string) error {
	if s == "" {
		return errors.New(errors.KindConfigValue, "ECDH curve name cannot be empty")
	}
	o.ECDHCurve = s
	return nil
}

// SetClientCRLURL validates and sets the client CRL URL.
func (o *OptionSet) SetClientCRLURL(s string) error {
	if s == "" {
		return errors.New(errors.KindConfigValue, "client CRL URL cannot be empty")
	}
	o.ClientCRLURL = s
	return nil
}

// SetUserAuthURL validates and sets the user-auth backend URL.
func (o *OptionSet) SetUserAuthURL(s string) error {
	if s == "" {
		return errors.New(errors.KindConfigValue, "user-auth URL cannot be empty")
	}
	o.UserAuthURL = s
	return nil
}

// loadCert is the shared certificate/key/DH setter shape: a failed
// load surfaces the underlying crypto error and never partially
// populates the slot.
func loadCert(slot **CertHandle, path string) error {
	if path == "" {
		return errors.New(errors.KindCryptoLoad, "certificate path cannot be empty")
	}
	if *slot != nil && (*slot).Path() == path {
		return nil // re-setting the same value is a no-op
	}
	h, err := loadCertHandle(path)
	if err != nil {
		return errors.Attr(errors.Wrap(err, errors.KindCryptoLoad, "failed to load certificate material"), "path", path)
	}
	if *slot != nil {
		(*slot).Release()
	}
	*slot = h
	return nil
}

// SetClientCert loads client certificate material by path.
func (o *OptionSet) SetClientCert(path string) error { return loadCert(&o.ClientCert, path) }

// SetClientKey loads client key material by path.
func (o *OptionSet) SetClientKey(path string) error { return loadCert(&o.ClientKey, path) }

// SetCACert loads CA certificate material by path.
func (o *OptionSet) SetCACert(path string) error { return loadCert(&o.CACert, path) }

// SetCAKey loads CA key material by path.
func (o *OptionSet) SetCAKey(path string) error { return loadCert(&o.CAKey, path) }

// SetDHParams loads DH parameter material by path.
func (o *OptionSet) SetDHParams(path string) error { return loadCert(&o.DHParams, path) }

// SetX509Chain loads additional X.509 chain material by path.
func (o *OptionSet) SetX509Chain(path string) error { return loadCert(&o.X509Chain, path) }

// AddDivertUser appends a user literal to the divert-users list. Only
// meaningful when UserAuthEnabled; callers (the config-file loader)
// are expected to have already checked that, but the list-length bound
// and character restriction are enforced here regardless so every
// entry point shares the same guarantee.
func (o *OptionSet) AddDivertUser(name string) error {
	if err := validation.ValidateIdentifier(name); err != nil {
		return err
	}
	if len(o.DivertUsers) >= maxUserListLen {
		return errors.Errorf(errors.KindConfigValue, "divert-users list exceeds %d entries", maxUserListLen)
	}
	o.DivertUsers = append(o.DivertUsers, name)
	return nil
}

// AddPassUser appends a user literal to the pass-users list, mirroring
// AddDivertUser's bounds.
func (o *OptionSet) AddPassUser(name string) error {
	if err := validation.ValidateIdentifier(name); err != nil {
		return err
	}
	if len(o.PassUsers) >= maxUserListLen {
		return errors.Errorf(errors.KindConfigValue, "pass-users list exceeds %d entries", maxUserListLen)
	}
	o.PassUsers = append(o.PassUsers, name)
	return nil
}

// CloneIntoSpec produces an independent deep copy of o suitable for
// nesting inside a new ProxySpec. User lists, the macro table, and the
// rule list are deep-copied; the compiled trie is NOT copied (a
// proxyspec recompiles its own trie once its rule list is finalized).
// Certificate/key handles are shared via refcount rather than
// reloaded: the copy carries the source path of each certificate
// option, not its compiled artifact, so a proxyspec can still override
// CA material before the TLS forger is initialized.
func (o *OptionSet) CloneIntoSpec() *OptionSet {
	cp := *o
	cp.global = nil
	cp.Trie = nil

	cp.DivertUsers = append([]string(nil), o.DivertUsers...)
	cp.PassUsers = append([]string(nil), o.PassUsers...)

	cp.Macros = o.Macros.Clone()
	cp.Rules = append([]filter.FilterRule(nil), o.Rules...)

	cp.ClientCert = o.ClientCert.Clone()
	cp.ClientKey = o.ClientKey.Clone()
	cp.CACert = o.CACert.Clone()
	cp.CAKey = o.CAKey.Clone()
	cp.DHParams = o.DHParams.Clone()
	cp.X509Chain = o.X509Chain.Clone()

	return &cp
}

// Freeze compiles the OptionSet's accumulated rule list into its final
// Trie. Called once per OptionSet (global default and every proxyspec)
// at the end of startup parsing; no field is mutated afterward.
func (o *OptionSet) Freeze() {
	o.Trie = filter.Build(o.Rules)
}

// Free releases owned certificate/key handles. Safe to call on a
// partially-populated OptionSet.
func (o *OptionSet) Free() {
	for _, h := range []**CertHandle{&o.ClientCert, &o.ClientKey, &o.CACert, &o.CAKey, &o.DHParams, &o.X509Chain} {
		if *h != nil {
			(*h).Release()
			*h = nil
		}
	}
}
