// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package filter

// FilterRule is one atomic, fully-expanded filter rule: a single action
// applying to a single axis, ready to be inserted into a Trie. A source
// line with an omitted "to" clause or a macro reference expands into
// several FilterRule values before reaching this stage.
type FilterRule struct {
	Action Action
	Axis   Axis

	SrcIP   Matcher
	User    *Matcher // nil unless the rule's "from" clause named a user
	Keyword *Matcher // nil unless "from user ... desc" supplied a keyword

	Site Matcher  // the axis-specific literal: dst-IP, SNI, CN, Host, or URI
	Port *Matcher // only meaningful when Axis == AxisDstIP; nil means "*"

	Log LogBitmap

	Precedence int
	SourceLine int
}

// effectivePort returns the rule's port matcher, defaulting to wildcard.
func (r *FilterRule) effectivePort() Matcher {
	if r.Port == nil {
		return Wildcard
	}
	return *r.Port
}

// ComputePrecedence computes a rule's specificity score: one point for
// every non-wildcard identity/site/port axis the rule pins down, plus
// one point if the action is among the more specific verbs
// {split, pass, match} rather than the coarser {divert, block}.
func ComputePrecedence(r *FilterRule) int {
	score := 0
	if r.User != nil && !r.User.IsWildcard() {
		score++
	}
	if r.Keyword != nil && !r.Keyword.IsWildcard() {
		score++
	}
	if !r.SrcIP.IsWildcard() {
		score++
	}
	if !r.Site.IsWildcard() {
		score++
	}
	if !r.effectivePort().IsWildcard() {
		score++
	}
	if r.Action.higherSpecificity() {
		score++
	}
	return score
}
