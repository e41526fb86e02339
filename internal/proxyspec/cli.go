// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package proxyspec

import (
	"strconv"
	"strings"

	"sslproxy.dev/core/internal/errors"
	"sslproxy.dev/core/internal/optset"
	"sslproxy.dev/core/internal/validation"
)

// maxCLITokensPerSpec bounds the positional-CLI token list consumed by a
// single proxyspec segment.
const maxCLITokensPerSpec = 8

// cliState names a position in the positional-CLI state machine: a
// small explicit enum-driven consumer over the token stream where
// rewind-on-match is the only nonlocal move.
type cliState int

const (
	cliStateProto cliState = iota
	cliStateListenAddr
	cliStateListenPort
	cliStateOptionalDivert
	cliStateDest
	cliStateTargetPort
	cliStateSNIPort
)

// cliCursor walks the flat CLI token stream, shared across every
// proxyspec segment parsed from it. A segment that ends on a protocol
// token only peeks at it, so the next segment starts at that token.
type cliCursor struct {
	tokens []string
	pos    int
}

func (c *cliCursor) next() (string, bool) {
	if c.pos >= len(c.tokens) {
		return "", false
	}
	tok := c.tokens[c.pos]
	c.pos++
	return tok, true
}

func (c *cliCursor) peek() (string, bool) {
	if c.pos >= len(c.tokens) {
		return "", false
	}
	return c.tokens[c.pos], true
}

// ParseCLISpecs parses a flat positional-CLI argv segment into an
// ordered list of ProxySpecs, each cloning base as its starting
// OptionSet. globalSplit is the top-level "Split yes" directive,
// consulted by each spec's divert-mode resolution.
func ParseCLISpecs(tokens []string, registry *NATEngineRegistry, base *optset.OptionSet, globalSplit bool) ([]*ProxySpec, error) {
	c := &cliCursor{tokens: tokens}
	var specs []*ProxySpec

	for {
		if _, ok := c.peek(); !ok {
			break
		}
		spec, err := parseOneCLISpec(c, registry, base, globalSplit)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseOneCLISpec(c *cliCursor, registry *NATEngineRegistry, base *optset.OptionSet, globalSplit bool) (*ProxySpec, error) {
	start := c.pos
	spec := &ProxySpec{
		ReturnAddr: "127.0.0.1",
		Options:    base.CloneIntoSpec(),
	}

	state := cliStateProto

loop:
	for {
		if c.pos-start > maxCLITokensPerSpec {
			return nil, errors.Errorf(errors.KindResourceExhausted, "proxyspec exceeds %d positional tokens", maxCLITokensPerSpec)
		}
		switch state {
		case cliStateProto:
			tok, ok := c.next()
			if !ok {
				return nil, errors.New(errors.KindProxySpecIncomplete, "expected a protocol token")
			}
			proto, err := ParseProtocol(tok)
			if err != nil {
				return nil, err
			}
			spec.Protocol = proto
			spec.Flags = FlagsForProtocol(proto)
			state = cliStateListenAddr

		case cliStateListenAddr:
			tok, ok := c.next()
			if !ok {
				return nil, errors.New(errors.KindProxySpecIncomplete, "expected a listen address")
			}
			if err := validation.ValidateIPOrCIDR(tok); err != nil {
				return nil, err
			}
			spec.Listen.Addr = tok
			state = cliStateListenPort

		case cliStateListenPort:
			tok, ok := c.next()
			if !ok {
				return nil, errors.New(errors.KindProxySpecIncomplete, "expected a listen port")
			}
			port, err := strconv.Atoi(tok)
			if err != nil {
				return nil, errors.Wrapf(err, errors.KindConfigValue, "invalid listen port %q", tok)
			}
			spec.Listen.Port = port
			state = cliStateOptionalDivert

		case cliStateOptionalDivert:
			tok, ok := c.peek()
			if ok && strings.HasPrefix(tok, "up:") {
				c.next()
				port, err := strconv.Atoi(tok[len("up:"):])
				if err != nil {
					return nil, errors.Wrapf(err, errors.KindConfigValue, "invalid divert port %q", tok)
				}
				spec.DivertPort = port
				spec.DivertAddr = "127.0.0.1"

				if tok2, ok := c.peek(); ok && strings.HasPrefix(tok2, "ua:") {
					c.next()
					spec.DivertAddr = tok2[len("ua:"):]
				}
				if tok2, ok := c.peek(); ok && strings.HasPrefix(tok2, "ra:") {
					c.next()
					spec.ReturnAddr = tok2[len("ra:"):]
				}
			}
			state = cliStateDest

		case cliStateDest:
			tok, ok := c.peek()
			if !ok {
				spec.DestMode = DestModeNAT
				break loop
			}
			if _, err := ParseProtocol(tok); err == nil {
				// A known protocol token here ends this spec; it was
				// only peeked, so the outer loop starts the next one there.
				break loop
			}
			if tok == "sni" {
				c.next()
				state = cliStateSNIPort
				continue loop
			}
			if registry != nil && registry.known[tok] {
				c.next()
				spec.DestMode = DestModeNAT
				spec.NatEngine = tok
				break loop
			}
			c.next()
			if err := validation.ValidateIPOrCIDR(tok); err != nil {
				// Not a protocol, not "sni", not an address: the only
				// remaining reading is a NAT engine this build doesn't know.
				return nil, errors.Attr(errors.Errorf(errors.KindUnknownNatEngine, "unknown NAT engine %q", tok), "token", tok)
			}
			spec.Target.Addr = tok
			state = cliStateTargetPort

		case cliStateTargetPort:
			tok, ok := c.next()
			if !ok {
				return nil, errors.New(errors.KindProxySpecIncomplete, "expected a target port")
			}
			port, err := strconv.Atoi(tok)
			if err != nil {
				return nil, errors.Wrapf(err, errors.KindConfigValue, "invalid target port %q", tok)
			}
			spec.Target.Port = port
			spec.DestMode = DestModeStatic
			break loop

		case cliStateSNIPort:
			tok, ok := c.next()
			if !ok {
				return nil, errors.New(errors.KindProxySpecIncomplete, "expected an SNI lookup port")
			}
			port, err := strconv.Atoi(tok)
			if err != nil {
				return nil, errors.Wrapf(err, errors.KindConfigValue, "invalid SNI port %q", tok)
			}
			spec.SNIPort = port
			spec.DestMode = DestModeSNI
			break loop
		}
	}

	if spec.DestMode == DestModeSNI && !spec.Flags.SSL {
		return nil, errors.New(errors.KindConfigValue, "sni_port requires a protocol with the ssl flag set")
	}

	// The CLI grammar has no "Divert yes|no" keyword (that's a
	// config-file block key); divert mode here is decided
	// purely by whether "up:" appeared and by the global split flag.
	spec.resolveDivertMode(globalSplit, false, false)
	return spec, nil
}
