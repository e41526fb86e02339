// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package proxyspec

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sslproxy.dev/core/internal/errors"
	"sslproxy.dev/core/internal/filter"
	"sslproxy.dev/core/internal/optset"
	"sslproxy.dev/core/internal/validation"
)

// maxIncludeDepth bounds Include nesting. An Include found while
// already inside an included file is rejected outright via the depth
// counter; the ceiling is a second line of defense against pathological
// diamond-shaped Include graphs.
const maxIncludeDepth = 8

// LoadFile parses a line/block-structured config file into a fresh
// Global. natEngines is the registry of NAT-engine names this build
// recognizes; pass nil to use DefaultNATEngineRegistry.
func LoadFile(path string, natEngines *NATEngineRegistry) (*Global, error) {
	g := NewGlobal()
	if natEngines != nil {
		g.NatEngines = natEngines
	}
	if err := loadFileInto(path, g, 0); err != nil {
		return nil, err
	}
	return g, nil
}

// loadFileInto scans one config file (top-level or Included) into g.
func loadFileInto(path string, g *Global, depth int) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, errors.KindConfigSyntax, "opening config file %q", path)
	}
	defer f.Close()

	sc := newLineScanner(f)
	for sc.scan() {
		lineNo, raw := sc.lineNo, sc.text
		line := trimCommentAndSpace(raw)
		if line == "" {
			continue
		}

		name, value, hasValue := splitDirective(line)

		switch {
		case strings.HasSuffix(line, "{"):
			blockName := strings.TrimSpace(strings.TrimSuffix(line, "{"))
			if err := dispatchBlock(blockName, sc, g, lineNo); err != nil {
				return err
			}
		case strings.EqualFold(name, "Include"):
			if !hasValue {
				return errors.WithLine(errors.KindConfigSyntax, lineNo, "Include requires a path")
			}
			if depth > 0 {
				return errors.WithLine(errors.KindIncludeRecursion, lineNo, "Include is not permitted inside an included file")
			}
			if depth+1 > maxIncludeDepth {
				return errors.WithLine(errors.KindIncludeRecursion, lineNo, "Include nesting exceeds the permitted depth")
			}
			incPath := resolveIncludePath(path, value)
			if err := loadFileInto(incPath, g, depth+1); err != nil {
				return err
			}
		case strings.EqualFold(name, "ProxySpec") && !hasValue:
			// A bare "ProxySpec" with no "{" is a malformed block opener;
			// handled by the strings.HasSuffix(line, "{") branch above
			// when well-formed, so falling through here is always an error.
			return errors.WithLine(errors.KindConfigSyntax, lineNo, "ProxySpec block must open with \"ProxySpec {\"")
		case looksLikeProxySpecLine(name):
			spec, err := parseSingleLineSpec(line, g, lineNo)
			if err != nil {
				return err
			}
			g.AddSpec(spec)
		default:
			if err := applyGlobalKey(g, name, value, hasValue, lineNo); err != nil {
				return err
			}
		}
	}
	if err := sc.err(); err != nil {
		return errors.Wrapf(err, errors.KindConfigSyntax, "reading config file %q", path)
	}
	return nil
}

// looksLikeProxySpecLine reports whether name is a recognized proxyspec
// protocol tag, meaning this line is the single-line proxyspec form
// shared with the positional CLI grammar.
func looksLikeProxySpecLine(name string) bool {
	_, err := ParseProtocol(name)
	return err == nil
}

// parseSingleLineSpec parses exactly one proxyspec from a config-file
// line using the same token state machine as the CLI grammar.
func parseSingleLineSpec(line string, g *Global, lineNo int) (*ProxySpec, error) {
	tokens := strings.Fields(line)
	specs, err := ParseCLISpecs(tokens, g.NatEngines, g.DefaultOptions, g.Split)
	if err != nil {
		return nil, errors.WithLine(errors.GetKind(err), lineNo, err.Error())
	}
	if len(specs) != 1 {
		return nil, errors.WithLine(errors.KindConfigSyntax, lineNo, "a config-file proxyspec line must describe exactly one spec")
	}
	return specs[0], nil
}

// dispatchBlock routes a "<Name> {" block opener to its handler. Only
// "ProxySpec" blocks exist in this grammar; any other block name is a
// syntax error.
func dispatchBlock(name string, sc *lineScanner, g *Global, openLine int) error {
	if !strings.EqualFold(name, "ProxySpec") {
		return errors.WithLine(errors.KindConfigSyntax, openLine, fmt.Sprintf("unknown block %q", name))
	}
	spec, err := parseProxySpecBlock(sc, g, openLine)
	if err != nil {
		return err
	}
	g.AddSpec(spec)
	return nil
}

// parseProxySpecBlock parses the named-key block form of a proxyspec:
// Proto, Addr, Port, DivertAddr, DivertPort, ReturnAddr, TargetAddr,
// TargetPort, SNIPort, NatEngine, plus any OptionSet key. ReturnAddr defaults to "127.0.0.1"; Port
// requires a preceding Addr; TargetPort requires a preceding TargetAddr;
// an open spec at EOF fails.
func parseProxySpecBlock(sc *lineScanner, g *Global, openLine int) (*ProxySpec, error) {
	spec := &ProxySpec{
		ReturnAddr: "127.0.0.1",
		Options:    g.DefaultOptions.CloneIntoSpec(),
	}

	var (
		haveProto      bool
		haveAddr       bool
		havePort       bool
		haveTargetAddr bool
		haveTargetPort bool
		haveSNIPort    bool
		haveNatEngine  bool
		explicitDivert bool
		divertValue    bool
	)

	closed := false
	for sc.scan() {
		lineNo, raw := sc.lineNo, sc.text
		line := trimCommentAndSpace(raw)
		if line == "" {
			continue
		}
		if line == "}" {
			closed = true
			break
		}

		name, value, hasValue := splitDirective(line)
		if !hasValue {
			return nil, errors.WithLine(errors.KindConfigSyntax, lineNo, fmt.Sprintf("key %q requires a value", name))
		}

		switch {
		case strings.EqualFold(name, "Proto"):
			p, err := ParseProtocol(value)
			if err != nil {
				return nil, errors.Attr(err, "line", lineNo)
			}
			spec.Protocol = p
			spec.Flags = FlagsForProtocol(p)
			haveProto = true
		case strings.EqualFold(name, "Addr"):
			if err := validation.ValidateIPOrCIDR(value); err != nil {
				return nil, errors.Attr(err, "line", lineNo)
			}
			spec.Listen.Addr = value
			haveAddr = true
		case strings.EqualFold(name, "Port"):
			if !haveAddr {
				return nil, errors.WithLine(errors.KindProxySpecIncomplete, lineNo, "Port requires a preceding Addr")
			}
			port, err := validation.ValidatePortNumber(value)
			if err != nil {
				return nil, errors.Attr(err, "line", lineNo)
			}
			spec.Listen.Port = port
			havePort = true
		case strings.EqualFold(name, "DivertAddr"):
			if err := validation.ValidateIPOrCIDR(value); err != nil {
				return nil, errors.Attr(err, "line", lineNo)
			}
			spec.DivertAddr = value
		case strings.EqualFold(name, "DivertPort"):
			port, err := validation.ValidatePortNumber(value)
			if err != nil {
				return nil, errors.Attr(err, "line", lineNo)
			}
			spec.DivertPort = port
		case strings.EqualFold(name, "ReturnAddr"):
			if err := validation.ValidateIPOrCIDR(value); err != nil {
				return nil, errors.Attr(err, "line", lineNo)
			}
			spec.ReturnAddr = value
		case strings.EqualFold(name, "TargetAddr"):
			if err := validation.ValidateIPOrCIDR(value); err != nil {
				return nil, errors.Attr(err, "line", lineNo)
			}
			spec.Target.Addr = value
			haveTargetAddr = true
		case strings.EqualFold(name, "TargetPort"):
			if !haveTargetAddr {
				return nil, errors.WithLine(errors.KindProxySpecIncomplete, lineNo, "TargetPort requires a preceding TargetAddr")
			}
			port, err := validation.ValidatePortNumber(value)
			if err != nil {
				return nil, errors.Attr(err, "line", lineNo)
			}
			spec.Target.Port = port
			haveTargetPort = true
		case strings.EqualFold(name, "SNIPort"):
			port, err := validation.ValidatePortNumber(value)
			if err != nil {
				return nil, errors.Attr(err, "line", lineNo)
			}
			spec.SNIPort = port
			haveSNIPort = true
		case strings.EqualFold(name, "NatEngine"):
			if err := g.NatEngines.Validate(value); err != nil {
				return nil, errors.Attr(err, "line", lineNo)
			}
			spec.NatEngine = value
			haveNatEngine = true
		case strings.EqualFold(name, "Divert"):
			yn, err := parseYesNo(name, value, lineNo)
			if err != nil {
				return nil, err
			}
			explicitDivert = true
			divertValue = yn
		default:
			if err := applyOptionKey(spec.Options, name, value, lineNo); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.err(); err != nil {
		return nil, errors.Wrap(err, errors.KindConfigSyntax, "reading config file")
	}
	if !closed {
		return nil, errors.WithLine(errors.KindProxySpecIncomplete, openLine, "ProxySpec block has no closing \"}\"")
	}
	if !haveProto || !haveAddr || !havePort {
		return nil, errors.WithLine(errors.KindProxySpecIncomplete, openLine, "ProxySpec block requires Proto, Addr, and Port")
	}

	switch {
	case haveSNIPort:
		if !spec.Flags.SSL {
			return nil, errors.WithLine(errors.KindConfigValue, openLine, "SNIPort requires a protocol with the ssl flag set")
		}
		spec.DestMode = DestModeSNI
	case haveTargetAddr:
		if !haveTargetPort {
			return nil, errors.WithLine(errors.KindProxySpecIncomplete, openLine, "TargetAddr requires a TargetPort")
		}
		spec.DestMode = DestModeStatic
	case haveNatEngine:
		spec.DestMode = DestModeNAT
	default:
		spec.DestMode = DestModeNAT
	}

	spec.resolveDivertMode(g.Split, explicitDivert, divertValue)
	return spec, nil
}

// applyGlobalKey dispatches a top-level directive to the Global or, where the key is itself an OptionSet field, to
// g.DefaultOptions.
func applyGlobalKey(g *Global, name, value string, hasValue bool, lineNo int) error {
	if !hasValue {
		return errors.WithLine(errors.KindConfigSyntax, lineNo, fmt.Sprintf("key %q requires a value", name))
	}
	switch {
	case strings.EqualFold(name, "Split"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		g.Split = yn
	case strings.EqualFold(name, "Divert"):
		// "Divert no" at the top level is the global split flag spelled
		// the other way around; both forms are accepted.
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		g.Split = !yn
		g.DefaultOptions.Divert = yn
	case strings.EqualFold(name, "Daemon"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		g.Daemon = yn
		g.DefaultOptions.Daemon = yn
	case strings.EqualFold(name, "Debug"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		g.Debug = yn
		g.DefaultOptions.Debug = yn
	case strings.EqualFold(name, "ConnectLog"):
		g.ConnLogPath = value
	case strings.EqualFold(name, "ContentLog"):
		if err := checkContentLogExclusive(g, lineNo); err != nil {
			return err
		}
		g.ContentLogPath = value
	case strings.EqualFold(name, "ContentLogDir"):
		if err := checkContentLogExclusive(g, lineNo); err != nil {
			return err
		}
		g.ContentLogDir = value
	case strings.EqualFold(name, "ContentLogPathSpec"):
		if err := checkContentLogExclusive(g, lineNo); err != nil {
			return err
		}
		ps, err := SplitPathSpec(value)
		if err != nil {
			return errors.Attr(err, "line", lineNo)
		}
		g.ContentLogPathSpec = &ps
	case strings.EqualFold(name, "PCAPLog"):
		if err := checkPCAPLogExclusive(g, lineNo); err != nil {
			return err
		}
		g.PCAPLogPath = value
	case strings.EqualFold(name, "PCAPLogDir"):
		if err := checkPCAPLogExclusive(g, lineNo); err != nil {
			return err
		}
		g.PCAPLogDir = value
	case strings.EqualFold(name, "PCAPLogPathSpec"):
		if err := checkPCAPLogExclusive(g, lineNo); err != nil {
			return err
		}
		ps, err := SplitPathSpec(value)
		if err != nil {
			return errors.Attr(err, "line", lineNo)
		}
		g.PCAPLogPathSpec = &ps
	case strings.EqualFold(name, "MirrorIf"):
		g.MirrorIface = value
	case strings.EqualFold(name, "MirrorTarget"):
		g.MirrorTarget = value
	case strings.EqualFold(name, "UserDB"):
		g.UserDBPath = value
	case strings.EqualFold(name, "ConnIdleTimeout"):
		n, err := parseIntValue(name, value, lineNo)
		if err != nil {
			return err
		}
		if err := validation.ValidateRange("conn_idle_timeout", n, 10, 3600); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
		g.ConnIdleTimeoutSeconds = n
	case strings.EqualFold(name, "ExpiredConnCheckPeriod"):
		n, err := parseIntValue(name, value, lineNo)
		if err != nil {
			return err
		}
		if err := validation.ValidateRange("expired_conn_check_period", n, 10, 60); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
		g.ExpiredCheckPeriodSeconds = n
	case strings.EqualFold(name, "StatsLog"):
		g.StatsLogPath = value
	case strings.EqualFold(name, "StatsLogPeriod"):
		n, err := parseIntValue(name, value, lineNo)
		if err != nil {
			return err
		}
		if err := validation.ValidateRange("stats_log_period", n, 1, 10); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
		g.StatsLogPeriodSeconds = n
	case strings.EqualFold(name, "OpenFilesLimit"):
		n, err := parseIntValue(name, value, lineNo)
		if err != nil {
			return err
		}
		if err := validation.ValidateRange("open_files_limit", n, 50, 10000); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
		g.OpenFilesLimit = n
	case strings.EqualFold(name, "LeafKeyRSABits"):
		n, err := parseIntValue(name, value, lineNo)
		if err != nil {
			return err
		}
		if err := validateLeafRSABits(n); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
		g.LeafRSABits = n
	default:
		return applyOptionKey(g.DefaultOptions, name, value, lineNo)
	}
	return nil
}

func checkContentLogExclusive(g *Global, lineNo int) error {
	if g.ContentLogPath != "" || g.ContentLogDir != "" || g.ContentLogPathSpec != nil {
		return errors.WithLine(errors.KindConfigValue, lineNo, "ContentLog/ContentLogDir/ContentLogPathSpec are mutually exclusive")
	}
	return nil
}

func checkPCAPLogExclusive(g *Global, lineNo int) error {
	if g.PCAPLogPath != "" || g.PCAPLogDir != "" || g.PCAPLogPathSpec != nil {
		return errors.WithLine(errors.KindConfigValue, lineNo, "PCAPLog/PCAPLogDir/PCAPLogPathSpec are mutually exclusive")
	}
	return nil
}

// applyOptionKey dispatches an OptionSet-scoped key,
// shared between top-level directives (which configure g.DefaultOptions)
// and keys nested inside a ProxySpec block (which configure that spec's
// own cloned OptionSet).
func applyOptionKey(o *optset.OptionSet, name, value string, lineNo int) error {
	switch {
	case strings.EqualFold(name, "SSLCompression"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		o.SSLComp = yn
	case strings.EqualFold(name, "Passthrough"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		o.PassthroughOnFail = yn
	case strings.EqualFold(name, "DenyOCSP"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		o.DenyOCSP = yn
	case strings.EqualFold(name, "ValidateProtocol"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		o.ValidateProtocol = yn
	case strings.EqualFold(name, "RemoveAcceptEncoding"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		o.RemoveAcceptEncoding = yn
	case strings.EqualFold(name, "RemoveReferer"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		o.RemoveReferer = yn
	case strings.EqualFold(name, "VerifyPeer"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		o.VerifyPeer = yn
	case strings.EqualFold(name, "AllowWrongHost"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		o.AllowWrongHost = yn
	case strings.EqualFold(name, "UserAuth"):
		yn, err := parseYesNo(name, value, lineNo)
		if err != nil {
			return err
		}
		o.UserAuthEnabled = yn
	case strings.EqualFold(name, "UserTimeout"):
		n, err := parseIntValue(name, value, lineNo)
		if err != nil {
			return err
		}
		if err := o.SetUserTimeout(n); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "MaxHTTPHeader"):
		n, err := parseIntValue(name, value, lineNo)
		if err != nil {
			return err
		}
		if err := o.SetMaxHeaderBytes(n); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "MinTLS"):
		v, err := parseTLSVersionToken(value, lineNo)
		if err != nil {
			return err
		}
		if err := o.SetMinMaxTLS(v, o.MaxTLSVersion); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "MaxTLS"):
		v, err := parseTLSVersionToken(value, lineNo)
		if err != nil {
			return err
		}
		if err := o.SetMinMaxTLS(o.MinTLSVersion, v); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "ForcedTLS"):
		v, err := parseTLSVersionToken(value, lineNo)
		if err != nil {
			return err
		}
		if err := o.SetForcedTLS(v); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "DisableTLS"):
		v, err := parseTLSVersionToken(value, lineNo)
		if err != nil {
			return err
		}
		o.DisableVersion(v)
	case strings.EqualFold(name, "Ciphers"):
		if err := o.SetCipherList(value); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "CipherSuites"):
		if err := o.SetCipherSuites(value); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "ECDHCurve"):
		if err := o.SetECDHCurve(value); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "ClientCRL"):
		if err := o.SetClientCRLURL(value); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "UserAuthURL"):
		if err := o.SetUserAuthURL(value); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "CACert"):
		if err := o.SetCACert(value); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "CAKey"):
		if err := o.SetCAKey(value); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "Cert"):
		if err := o.SetClientCert(value); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "Key"):
		if err := o.SetClientKey(value); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "DHParams"):
		if err := o.SetDHParams(value); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "Chain"):
		if err := o.SetX509Chain(value); err != nil {
			return errors.Attr(err, "line", lineNo)
		}
	case strings.EqualFold(name, "DivertUsers"):
		for _, u := range splitUserList(value) {
			if err := o.AddDivertUser(u); err != nil {
				return errors.Attr(err, "line", lineNo)
			}
		}
	case strings.EqualFold(name, "PassUsers"):
		for _, u := range splitUserList(value) {
			if err := o.AddPassUser(u); err != nil {
				return errors.Attr(err, "line", lineNo)
			}
		}
	case strings.EqualFold(name, "Macro"):
		if err := defineMacroDirective(o, value, lineNo); err != nil {
			return err
		}
	case strings.EqualFold(name, "Filter"):
		rules, _, err := filter.CompileRuleLine(value, lineNo, o.Macros, o.UserAuthEnabled)
		if err != nil {
			return err
		}
		o.Rules = append(o.Rules, rules...)
	default:
		return errors.WithLine(errors.KindConfigSyntax, lineNo, fmt.Sprintf("unrecognized directive %q", name))
	}
	return nil
}

// defineMacroDirective parses a "Macro $name tok1 tok2 ..." line into the
// OptionSet's macro table.
func defineMacroDirective(o *optset.OptionSet, value string, lineNo int) error {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return errors.WithLine(errors.KindConfigSyntax, lineNo, "Macro requires a $name and at least one token")
	}
	name := fields[0]
	if !strings.HasPrefix(name, "$") {
		return errors.WithLine(errors.KindConfigSyntax, lineNo, "macro name must begin with \"$\"")
	}
	return o.Macros.Define(name[1:], fields[1:], lineNo)
}

// splitUserList tokenizes a user-list value on space, tab, and comma;
// there is no quoting syntax, so user names cannot contain any of them.
func splitUserList(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	return fields
}

func parseYesNo(name, value string, lineNo int) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "true", "on":
		return true, nil
	case "no", "false", "off":
		return false, nil
	default:
		return false, errors.WithLine(errors.KindConfigValue, lineNo, fmt.Sprintf("%s: expected yes/no, got %q", name, value))
	}
}

func parseIntValue(name, value string, lineNo int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.WithLine(errors.KindConfigValue, lineNo, fmt.Sprintf("%s: expected an integer, got %q", name, value))
	}
	return n, nil
}

func parseTLSVersionToken(tok string, lineNo int) (optset.TLSVersion, error) {
	switch strings.ToLower(tok) {
	case "sslv3", "ssl3":
		return optset.TLSVersionSSL3, nil
	case "tlsv1.0", "tls1.0", "tls1":
		return optset.TLSVersionTLS10, nil
	case "tlsv1.1", "tls1.1":
		return optset.TLSVersionTLS11, nil
	case "tlsv1.2", "tls1.2":
		return optset.TLSVersionTLS12, nil
	case "tlsv1.3", "tls1.3":
		return optset.TLSVersionTLS13, nil
	default:
		return 0, errors.WithLine(errors.KindConfigValue, lineNo, fmt.Sprintf("unrecognized TLS version %q", tok))
	}
}

// trimCommentAndSpace applies the config file's lexical rules: lines beginning with
// "#" or ";" or consisting only of whitespace are skipped (represented
// here by returning ""); trailing whitespace is trimmed.
func trimCommentAndSpace(raw string) string {
	line := strings.TrimRight(raw, " \t\r\n")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '#' || trimmed[0] == ';' {
		return ""
	}
	return trimmed
}

// splitDirective splits "name value" on the first run of spaces or
// tabs. hasValue is false for a bare name with nothing following.
func splitDirective(line string) (name, value string, hasValue bool) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, "", false
	}
	name = line[:i]
	rest := strings.TrimLeft(line[i:], " \t")
	return name, rest, rest != ""
}

// resolveIncludePath resolves an Include directive's path relative to
// the directory of the including file, unless it is already absolute.
func resolveIncludePath(includingFile, incPath string) string {
	if filepath.IsAbs(incPath) {
		return incPath
	}
	return filepath.Join(filepath.Dir(includingFile), incPath)
}

// lineScanner wraps bufio.Scanner with a running line counter.
type lineScanner struct {
	sc     *bufio.Scanner
	lineNo int
	text   string
}

func newLineScanner(f *os.File) *lineScanner {
	return &lineScanner{sc: bufio.NewScanner(f)}
}

func (s *lineScanner) scan() bool {
	ok := s.sc.Scan()
	if ok {
		s.lineNo++
		s.text = s.sc.Text()
	}
	return ok
}

func (s *lineScanner) err() error { return s.sc.Err() }
