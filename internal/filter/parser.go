// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package filter

import (
	"fmt"
	"strings"

	"sslproxy.dev/core/internal/errors"
	"sslproxy.dev/core/internal/validation"
)

// maxUserListLen bounds how many tokens a macro may expand to when used
// as a user selector.
const maxUserListLen = 50

// cursor walks a token slice for the hand-rolled recursive-descent parser.
type cursor struct {
	tokens []string
	pos    int
	line   int
}

func (c *cursor) peek() (string, bool) {
	if c.pos >= len(c.tokens) {
		return "", false
	}
	return c.tokens[c.pos], true
}

func (c *cursor) next() (string, bool) {
	tok, ok := c.peek()
	if ok {
		c.pos++
	}
	return tok, ok
}

func (c *cursor) errf(format string, args ...any) error {
	return errors.WithLine(errors.KindConfigSyntax, c.line, fmt.Sprintf(format, args...))
}

// CompileRuleLine expands macros in a single rule-language source line and
// parses every resulting token stream into its atomic FilterRule(s). It
// returns the accumulated rules, whether macro expansion occurred, and the
// first error encountered (no rule from a failing line is ever returned).
func CompileRuleLine(line string, lineNo int, macros *MacroTable, userAuthEnabled bool) ([]FilterRule, bool, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, false, nil
	}

	if err := checkUserListBound(tokens, macros, lineNo); err != nil {
		return nil, false, err
	}

	expansions, expanded, err := ExpandMacros(tokens, macros, lineNo)
	if err != nil {
		return nil, expanded, err
	}

	var out []FilterRule
	for _, toks := range expansions {
		rules, err := parseRuleTokens(toks, lineNo, userAuthEnabled)
		if err != nil {
			return nil, expanded, err
		}
		out = append(out, rules...)
	}
	return out, expanded, nil
}

// checkUserListBound enforces the per-rule user-list length bound
// against the macro named by a "user $name" selector, before expansion
// turns it into many atomic rules.
func checkUserListBound(tokens []string, macros *MacroTable, lineNo int) error {
	for i, tok := range tokens {
		if tok != "user" || i+1 >= len(tokens) {
			continue
		}
		sel := tokens[i+1]
		if !strings.HasPrefix(sel, "$") {
			continue
		}
		m, ok := macros.Lookup(sel[1:])
		if !ok {
			continue // surfaced as MacroUndefined during expansion
		}
		if len(m.Tokens) > maxUserListLen {
			return errors.Attr(
				errors.WithLine(errors.KindConfigValue, lineNo, fmt.Sprintf("user list %q exceeds %d entries", sel, maxUserListLen)),
				"macro", sel[1:],
			)
		}
	}
	return nil
}

// parseRuleTokens parses one fully macro-resolved token stream (no
// remaining $references) into its atomic FilterRule(s).
func parseRuleTokens(tokens []string, lineNo int, userAuthEnabled bool) ([]FilterRule, error) {
	c := &cursor{tokens: tokens, line: lineNo}

	actionTok, ok := c.next()
	if !ok {
		return nil, c.errf("empty rule")
	}
	action, ok := actionFromToken(actionTok)
	if !ok {
		return nil, c.errf("unknown rule action %q", actionTok)
	}

	base := FilterRule{
		Action:     action,
		SrcIP:      Wildcard,
		Site:       Wildcard,
		SourceLine: lineNo,
	}

	// A bare "*" directly after the action (no "from"/"to"/"log" keyword)
	// is the catch-all shorthand, as in "Divert *": every clause defaults
	// to its wildcard, so the token is consumed and otherwise ignored.
	if tok, ok := c.peek(); ok && tok == "*" {
		c.next()
	}

	var axis *Axis
	if tok, ok := c.peek(); ok && tok == "from" {
		c.next()
		if err := parseFromClause(c, &base, userAuthEnabled); err != nil {
			return nil, err
		}
	}
	if tok, ok := c.peek(); ok && tok == "to" {
		c.next()
		a, err := parseToClause(c, &base)
		if err != nil {
			return nil, err
		}
		axis = a
	}
	if tok, ok := c.peek(); ok && tok == "log" {
		c.next()
		if err := parseLogClause(c, &base); err != nil {
			return nil, err
		}
	}
	if tok, ok := c.peek(); ok {
		return nil, c.errf("unexpected trailing token %q", tok)
	}

	if axis != nil {
		base.Axis = *axis
		base.Precedence = ComputePrecedence(&base)
		return []FilterRule{base}, nil
	}

	rules := make([]FilterRule, 0, len(AllAxes))
	for _, a := range AllAxes {
		r := base
		r.Axis = a
		r.Precedence = ComputePrecedence(&r)
		rules = append(rules, r)
	}
	return rules, nil
}

func parseFromClause(c *cursor, r *FilterRule, userAuthEnabled bool) error {
	tok, ok := c.next()
	if !ok {
		return c.errf("from: expected selector")
	}
	switch tok {
	case "*":
		return nil
	case "ip":
		sel, ok := c.next()
		if !ok {
			return c.errf("from ip: expected selector")
		}
		r.SrcIP = NewMatcher(sel)
		return nil
	case "user":
		if !userAuthEnabled {
			return errors.WithLine(errors.KindUserAuthRequired, c.line, "user rule requires user-auth enabled on this option set")
		}
		sel, ok := c.next()
		if !ok {
			return c.errf("from user: expected selector")
		}
		if err := validation.ValidateIdentifier(sel); err != nil {
			return errors.Attr(err, "line", c.line)
		}
		m := NewMatcher(sel)
		r.User = &m
		if tok2, ok := c.peek(); ok && tok2 == "desc" {
			c.next()
			ksel, ok := c.next()
			if !ok {
				return c.errf("from user desc: expected keyword selector")
			}
			km := NewMatcher(ksel)
			r.Keyword = &km
		}
		return nil
	default:
		return c.errf("from: unexpected token %q", tok)
	}
}

// parseToClause parses a "to" clause. A nil *Axis return means the
// clause was the bare wildcard form ("to *"), which (like an entirely
// omitted "to" clause) fans the rule out across all five applies-to
// axes rather than pinning a single one. "to *" is distinct from
// "to ip *", which pins the dst-IP axis with a wildcard site.
func parseToClause(c *cursor, r *FilterRule) (*Axis, error) {
	tok, ok := c.next()
	if !ok {
		return nil, c.errf("to: expected selector")
	}
	axisOf := func(a Axis) *Axis { return &a }
	switch tok {
	case "*":
		return nil, nil
	case "ip":
		sel, ok := c.next()
		if !ok {
			return nil, c.errf("to ip: expected selector")
		}
		r.Site = NewMatcher(sel)
		if tok2, ok := c.peek(); ok && tok2 == "port" {
			c.next()
			psel, ok := c.next()
			if !ok {
				return nil, c.errf("to ip port: expected selector")
			}
			pm := NewMatcher(psel)
			r.Port = &pm
		}
		return axisOf(AxisDstIP), nil
	case "sni", "cn", "host", "uri":
		sel, ok := c.next()
		if !ok {
			return nil, c.errf("to %s: expected selector", tok)
		}
		r.Site = NewMatcher(sel)
		// Exact name-axis literals must at least be well-formed DNS names;
		// URI literals are free-form and substring prefixes may end
		// mid-label, so neither is checked.
		if tok != "uri" && r.Site.Kind == MatchExact {
			if err := validation.ValidateHostname(r.Site.Value); err != nil {
				return nil, errors.Attr(err, "line", c.line)
			}
		}
		switch tok {
		case "sni":
			return axisOf(AxisSNI), nil
		case "cn":
			return axisOf(AxisCN), nil
		case "host":
			return axisOf(AxisHost), nil
		default:
			return axisOf(AxisURI), nil
		}
	default:
		return nil, c.errf("to: unexpected token %q", tok)
	}
}

func parseLogClause(c *cursor, r *FilterRule) error {
	count := 0
	for {
		tok, ok := c.peek()
		if !ok {
			break
		}
		if tok == "from" || tok == "to" {
			break
		}
		c.next()
		suppress := false
		if strings.HasPrefix(tok, "!") {
			suppress = true
			tok = tok[1:]
		}
		if err := r.Log.Set(tok, suppress); err != nil {
			return errors.WithLine(errors.KindConfigSyntax, c.line, err.Error())
		}
		count++
	}
	if count == 0 {
		return c.errf("log: expected at least one log token")
	}
	return nil
}
