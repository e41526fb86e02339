// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package auditdump renders a frozen proxyspec.Global as an HCL
// document for startup-diagnostics use (the "-dump-hcl" CLI flag). It
// is read-only and side-effect free: an audit view of the compiled
// structure, run only after freeze, distinct from the line/block input
// grammar the loader parses.
package auditdump

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"sslproxy.dev/core/internal/optset"
	"sslproxy.dev/core/internal/proxyspec"
)

// Dump renders g as an HCL document. g must already be frozen
// (proxyspec.Global.Frozen()); Dump does not itself mutate or freeze it.
func Dump(g *proxyspec.Global) (string, error) {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	root.SetAttributeValue("id", cty.StringVal(g.ID.String()))
	root.SetAttributeValue("split", cty.BoolVal(g.Split))
	root.SetAttributeValue("daemon", cty.BoolVal(g.Daemon))
	root.SetAttributeValue("debug", cty.BoolVal(g.Debug))
	root.SetAttributeValue("open_files_limit", cty.NumberIntVal(int64(g.OpenFilesLimit)))
	root.SetAttributeValue("leaf_rsa_bits", cty.NumberIntVal(int64(g.LeafRSABits)))
	root.SetAttributeValue("conn_idle_timeout", cty.NumberIntVal(int64(g.ConnIdleTimeoutSeconds)))
	root.SetAttributeValue("stats_log_period", cty.NumberIntVal(int64(g.StatsLogPeriodSeconds)))
	root.AppendNewline()

	defaults := root.AppendNewBlock("default_options", nil).Body()
	writeOptionSet(defaults, g.DefaultOptions)
	root.AppendNewline()

	for _, s := range g.Specs {
		block := root.AppendNewBlock("proxyspec", []string{s.ID.String()})
		body := block.Body()
		body.SetAttributeValue("proto", cty.StringVal(s.Protocol.String()))
		body.SetAttributeValue("listen_addr", cty.StringVal(s.Listen.Addr))
		body.SetAttributeValue("listen_port", cty.NumberIntVal(int64(s.Listen.Port)))
		body.SetAttributeValue("dest_mode", cty.StringVal(destModeName(s.DestMode)))
		switch s.DestMode {
		case proxyspec.DestModeStatic:
			body.SetAttributeValue("target_addr", cty.StringVal(s.Target.Addr))
			body.SetAttributeValue("target_port", cty.NumberIntVal(int64(s.Target.Port)))
		case proxyspec.DestModeSNI:
			body.SetAttributeValue("sni_port", cty.NumberIntVal(int64(s.SNIPort)))
		case proxyspec.DestModeNAT:
			if s.NatEngine != "" {
				body.SetAttributeValue("nat_engine", cty.StringVal(s.NatEngine))
			}
		}
		if s.DivertAddr != "" {
			body.SetAttributeValue("divert_addr", cty.StringVal(s.DivertAddr))
			body.SetAttributeValue("divert_port", cty.NumberIntVal(int64(s.DivertPort)))
			body.SetAttributeValue("return_addr", cty.StringVal(s.ReturnAddr))
		}
		optBlock := body.AppendNewBlock("options", nil).Body()
		writeOptionSet(optBlock, s.Options)
		root.AppendNewline()
	}

	return string(f.Bytes()), nil
}

func destModeName(m proxyspec.DestMode) string {
	switch m {
	case proxyspec.DestModeNAT:
		return "nat"
	case proxyspec.DestModeStatic:
		return "static"
	case proxyspec.DestModeSNI:
		return "sni"
	default:
		return "unknown"
	}
}

// writeOptionSet writes the audit-relevant (non-secret) scalar fields of
// an OptionSet. Certificate/key handles are named by their source path
// only, never by their loaded material, so the dump is safe to share.
func writeOptionSet(body *hclwrite.Body, o *optset.OptionSet) {
	body.SetAttributeValue("divert", cty.BoolVal(o.Divert))
	body.SetAttributeValue("ssl_compression", cty.BoolVal(o.SSLComp))
	body.SetAttributeValue("passthrough_on_fail", cty.BoolVal(o.PassthroughOnFail))
	body.SetAttributeValue("verify_peer", cty.BoolVal(o.VerifyPeer))
	body.SetAttributeValue("allow_wrong_host", cty.BoolVal(o.AllowWrongHost))
	body.SetAttributeValue("user_auth_enabled", cty.BoolVal(o.UserAuthEnabled))
	body.SetAttributeValue("user_timeout_seconds", cty.NumberIntVal(int64(o.UserTimeoutSeconds)))
	body.SetAttributeValue("max_header_bytes", cty.NumberIntVal(int64(o.MaxHeaderBytes)))
	body.SetAttributeValue("min_tls_version", cty.StringVal(o.MinTLSVersion.String()))
	body.SetAttributeValue("max_tls_version", cty.StringVal(o.MaxTLSVersion.String()))
	if o.CipherList != "" {
		body.SetAttributeValue("ciphers", cty.StringVal(o.CipherList))
	}
	body.SetAttributeValue("macro_count", cty.NumberIntVal(int64(len(o.Macros.Names()))))
	body.SetAttributeValue("rule_count", cty.NumberIntVal(int64(len(o.Rules))))
	if len(o.DivertUsers) > 0 {
		vals := make([]cty.Value, len(o.DivertUsers))
		for i, u := range o.DivertUsers {
			vals[i] = cty.StringVal(u)
		}
		body.SetAttributeValue("divert_users", cty.ListVal(vals))
	}
	if len(o.PassUsers) > 0 {
		vals := make([]cty.Value, len(o.PassUsers))
		for i, u := range o.PassUsers {
			vals[i] = cty.StringVal(u)
		}
		body.SetAttributeValue("pass_users", cty.ListVal(vals))
	}
	for _, ch := range []struct {
		name string
		h    *optset.CertHandle
	}{
		{"ca_cert", o.CACert}, {"ca_key", o.CAKey},
		{"client_cert", o.ClientCert}, {"client_key", o.ClientKey},
		{"dh_params", o.DHParams}, {"x509_chain", o.X509Chain},
	} {
		if ch.h != nil {
			body.SetAttributeValue(fmt.Sprintf("%s_path", ch.name), cty.StringVal(ch.h.Path()))
		}
	}
}
