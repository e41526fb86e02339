// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package filter

// BucketKind names one of the trie's ordered top-level buckets. The
// declaration order is the evaluation order.
type BucketKind int

const (
	BucketUserKeywordExact BucketKind = iota
	BucketUserKeywordSubstr
	BucketUserExact
	BucketUserSubstr
	BucketKeywordExact
	BucketKeywordSubstr
	BucketAllUser
	BucketIPExact
	BucketIPSubstr
	BucketAll
	numBuckets
)

func (k BucketKind) String() string {
	switch k {
	case BucketUserKeywordExact:
		return "user_keyword_exact"
	case BucketUserKeywordSubstr:
		return "user_keyword_substr"
	case BucketUserExact:
		return "user_exact"
	case BucketUserSubstr:
		return "user_substr"
	case BucketKeywordExact:
		return "keyword_exact"
	case BucketKeywordSubstr:
		return "keyword_substr"
	case BucketAllUser:
		return "all_user"
	case BucketIPExact:
		return "ip_exact"
	case BucketIPSubstr:
		return "ip_substr"
	case BucketAll:
		return "all"
	default:
		return "unknown"
	}
}

// identityKey is the literal (value, kind) pair used to key the nested
// per-(user,keyword) map inside the seven user/keyword buckets
// (BucketUserKeywordExact through BucketAllUser). Buckets that carry no
// identity component always use the zero value.
type identityKey struct {
	user     string
	userKind MatchKind
	kw       string
	kwKind   MatchKind
}

func ruleIdentityKey(r *FilterRule) identityKey {
	var k identityKey
	if r.User != nil {
		k.user, k.userKind = r.User.Value, r.User.Kind
	}
	if r.Keyword != nil {
		k.kw, k.kwKind = r.Keyword.Value, r.Keyword.Kind
	}
	return k
}

// node is a trie leaf: the merged action/log/precedence triple for one
// fully-qualified (identity, source-IP, axis, site[, port]) key.
type node struct {
	action     Action
	log        LogBitmap
	precedence int
	// ports is non-nil only for dst-IP axis entries; it holds the nested
	// port sub-table with the same exact/substring/wildcard-last
	// discipline as any other matchTable.
	ports *matchTable
}

func (n *node) mergeFrom(r *FilterRule) {
	n.action |= r.Action
	n.log = n.log.Merge(r.Log)
	if r.Precedence > n.precedence {
		n.precedence = r.Precedence
	}
}

// matchEntry is one (Matcher, *node) pair inside a matchTable's ordered
// substring list.
type matchEntry struct {
	matcher Matcher
	value   *node
}

// matchTable holds one axis (or port) level's exact and substring
// entries. Exact entries are looked up by value via an index map but
// also kept in an ordered slice so iteration order is deterministic.
// Substring entries (including the wildcard "all" entry) live in an
// ordered slice where the wildcard, if present, is always last.
type matchTable struct {
	exactOrder []string
	exactIdx   map[string]int
	exact      []*node
	substr     []matchEntry
}

func newMatchTable() *matchTable {
	return &matchTable{exactIdx: make(map[string]int)}
}

// insert adds or merges rule r's node under matcher m, preserving the
// wildcard-last invariant within the substring list.
func (t *matchTable) insert(m Matcher, r *FilterRule) *node {
	if m.Kind == MatchExact {
		if idx, ok := t.exactIdx[m.Value]; ok {
			t.exact[idx].mergeFrom(r)
			return t.exact[idx]
		}
		n := &node{}
		n.mergeFrom(r)
		t.exactIdx[m.Value] = len(t.exact)
		t.exact = append(t.exact, n)
		t.exactOrder = append(t.exactOrder, m.Value)
		return n
	}

	for i := range t.substr {
		if t.substr[i].matcher.Kind == m.Kind && t.substr[i].matcher.Value == m.Value {
			t.substr[i].value.mergeFrom(r)
			return t.substr[i].value
		}
	}
	n := &node{}
	n.mergeFrom(r)
	entry := matchEntry{matcher: m, value: n}

	insertAt := len(t.substr)
	if m.Kind != MatchWildcard && insertAt > 0 && t.substr[insertAt-1].matcher.Kind == MatchWildcard {
		insertAt--
	}
	t.substr = append(t.substr, matchEntry{})
	copy(t.substr[insertAt+1:], t.substr[insertAt:])
	t.substr[insertAt] = entry
	return n
}

// lookup returns the first node whose matcher accepts v, checking exact
// entries (O(1) via index) before substring entries (linear scan,
// ordered, wildcard-last).
func (t *matchTable) lookup(v string) (*node, bool) {
	if idx, ok := t.exactIdx[v]; ok {
		return t.exact[idx], true
	}
	for _, e := range t.substr {
		if e.matcher.Accepts(v) {
			return e.value, true
		}
	}
	return nil, false
}

// axisTables holds the five terminal per-axis matchTables that coexist
// under any one (identity, source-IP) pair.
type axisTables struct {
	byAxis [5]*matchTable
}

func newAxisTables() *axisTables {
	var a axisTables
	for i := range a.byAxis {
		a.byAxis[i] = newMatchTable()
	}
	return &a
}

func (a *axisTables) table(axis Axis) *matchTable { return a.byAxis[axis] }

// sourceLevel is the source-IP matchTable whose values are axisTables;
// it reuses matchTable's exact/substring discipline by keeping a
// parallel map from node to its owning axisTables (since matchTable's
// leaf type is *node, not *axisTables, we store the axisTables pointer
// out of band keyed by the same identity as the node).
type sourceLevel struct {
	table *matchTable
	axes  map[*node]*axisTables
}

func newSourceLevel() *sourceLevel {
	return &sourceLevel{table: newMatchTable(), axes: make(map[*node]*axisTables)}
}

// resolve returns the axisTables for srcIP matcher m, creating one (and
// a placeholder merge node) if this is the first rule seen for that key.
func (s *sourceLevel) resolve(m Matcher, r *FilterRule) *axisTables {
	n := s.table.insert(m, r)
	if at, ok := s.axes[n]; ok {
		return at
	}
	at := newAxisTables()
	s.axes[n] = at
	return at
}

func (s *sourceLevel) lookup(v string) (*axisTables, bool) {
	n, ok := s.table.lookup(v)
	if !ok {
		return nil, false
	}
	return s.axes[n], true
}

// bucket is one of the ten ordered buckets, keyed by identity then
// source-IP then axis (then port, for dst-IP). Buckets with no identity
// dimension (IP/All buckets) always use the zero identityKey.
type bucket struct {
	kind       BucketKind
	byIdentity map[identityKey]*sourceLevel
	order      []identityKey
}

func newBucket(kind BucketKind) *bucket {
	return &bucket{kind: kind, byIdentity: make(map[identityKey]*sourceLevel)}
}

func (b *bucket) sourceLevel(key identityKey) *sourceLevel {
	sl, ok := b.byIdentity[key]
	if !ok {
		sl = newSourceLevel()
		b.byIdentity[key] = sl
		b.order = append(b.order, key)
	}
	return sl
}

// Trie is the compiled, read-only decision structure built from an
// OptionSet's rule list.
type Trie struct {
	buckets [numBuckets]*bucket
}

// NewTrie builds an empty trie (used before the first rule arrives).
func NewTrie() *Trie {
	t := &Trie{}
	for k := BucketKind(0); k < numBuckets; k++ {
		t.buckets[k] = newBucket(k)
	}
	return t
}

// classify assigns a rule to its top-level bucket.
func classify(r *FilterRule) BucketKind {
	hasUser := r.User != nil && !r.User.IsWildcard()
	hasKeyword := r.Keyword != nil && r.Keyword.Kind != MatchWildcard
	switch {
	case hasUser && hasKeyword:
		if r.User.Kind == MatchExact && r.Keyword.Kind == MatchExact {
			return BucketUserKeywordExact
		}
		return BucketUserKeywordSubstr
	case hasUser:
		if r.User.Kind == MatchExact {
			return BucketUserExact
		}
		return BucketUserSubstr
	case hasKeyword:
		if r.Keyword.Kind == MatchExact {
			return BucketKeywordExact
		}
		return BucketKeywordSubstr
	case r.User != nil && r.User.IsWildcard():
		return BucketAllUser
	case !r.SrcIP.IsWildcard():
		if r.SrcIP.Kind == MatchExact {
			return BucketIPExact
		}
		return BucketIPSubstr
	default:
		return BucketAll
	}
}

// Insert compiles rule r into the trie, merging into any existing node
// that shares its full key.
func (t *Trie) Insert(r *FilterRule) {
	kind := classify(r)
	b := t.buckets[kind]
	key := ruleIdentityKey(r)
	if kind == BucketIPExact || kind == BucketIPSubstr || kind == BucketAll {
		key = identityKey{}
	}
	sl := b.sourceLevel(key)
	at := sl.resolve(r.SrcIP, r)
	axisTable := at.table(r.Axis)

	if r.Axis != AxisDstIP {
		axisTable.insert(r.Site, r)
		return
	}
	siteNode := axisTable.insert(r.Site, r)
	if siteNode.ports == nil {
		siteNode.ports = newMatchTable()
	}
	siteNode.ports.insert(r.effectivePort(), r)
}

// Build compiles a rule list into a fresh trie in insertion order.
func Build(rules []FilterRule) *Trie {
	t := NewTrie()
	for i := range rules {
		t.Insert(&rules[i])
	}
	return t
}

// LookupRequest names the axis value (and, for dst-IP, the port) plus
// the identity/source context to evaluate against the trie.
type LookupRequest struct {
	User    string
	Keyword string
	SrcIP   string
	Axis    Axis
	Value   string
	Port    string
}

// Result is the (action_mask, log_mask, precedence) triple returned by a
// single bucket match.
type Result struct {
	Action     Action
	Log        LogBitmap
	Precedence int
}

// evalBucketSourceLevel returns the triple of the first node in the
// given source-level view that accepts the request.
func evalBucketSourceLevel(sl *sourceLevel, req LookupRequest) (Result, bool) {
	at, ok := sl.lookup(req.SrcIP)
	if !ok {
		return Result{}, false
	}
	axisTable := at.table(req.Axis)
	n, ok := axisTable.lookup(req.Value)
	if !ok {
		return Result{}, false
	}
	if req.Axis == AxisDstIP && n.ports != nil {
		if pn, ok := n.ports.lookup(req.Port); ok {
			return Result{Action: pn.action, Log: pn.log, Precedence: pn.precedence}, true
		}
		return Result{}, false
	}
	return Result{Action: n.action, Log: n.log, Precedence: n.precedence}, true
}

// identityCandidates returns the identity keys within a bucket that
// could plausibly match the request, in insertion order. Buckets keyed
// on exact identity require an exact string match; substring buckets
// scan every registered literal.
func identityCandidates(b *bucket, req LookupRequest) []identityKey {
	var out []identityKey
	for _, key := range b.order {
		if identityAccepts(b.kind, key, req) {
			out = append(out, key)
		}
	}
	return out
}

func identityAccepts(kind BucketKind, key identityKey, req LookupRequest) bool {
	userOK := true
	kwOK := true
	switch kind {
	case BucketUserKeywordExact, BucketUserKeywordSubstr:
		userOK = matcherFromKey(key.user, key.userKind).Accepts(req.User)
		kwOK = matcherFromKey(key.kw, key.kwKind).Accepts(req.Keyword)
	case BucketUserExact, BucketUserSubstr:
		userOK = matcherFromKey(key.user, key.userKind).Accepts(req.User)
	case BucketKeywordExact, BucketKeywordSubstr:
		kwOK = matcherFromKey(key.kw, key.kwKind).Accepts(req.Keyword)
	default:
	}
	return userOK && kwOK
}

func matcherFromKey(value string, kind MatchKind) Matcher {
	return Matcher{Kind: kind, Value: value}
}

// countTableNodes counts leaf nodes in a matchTable, recursing into any
// nested dst-IP port sub-tables.
func countTableNodes(t *matchTable) int {
	if t == nil {
		return 0
	}
	n := len(t.exact) + len(t.substr)
	for _, leaf := range t.exact {
		n += countTableNodes(leaf.ports)
	}
	for _, e := range t.substr {
		n += countTableNodes(e.value.ports)
	}
	return n
}

// CountByBucket returns the number of compiled trie leaf nodes, keyed
// by bucket label, for the startup-metrics exporter. Buckets with no
// nodes are omitted, so a nil trie (an OptionSet not yet frozen) or a
// trie built from an empty rule list reports no buckets.
func CountByBucket(t *Trie) map[string]int {
	out := make(map[string]int)
	if t == nil {
		return out
	}
	for k := BucketKind(0); k < numBuckets; k++ {
		b := t.buckets[k]
		count := 0
		for _, key := range b.order {
			sl := b.byIdentity[key]
			for _, at := range sl.axes {
				for _, axisTable := range at.byAxis {
					count += countTableNodes(axisTable)
				}
			}
		}
		if count > 0 {
			out[k.String()] = count
		}
	}
	return out
}

// Evaluate runs the full bucket-ordered evaluation contract: buckets
// are consulted in declaration order and the triple with strictly
// higher precedence is kept, ties resolved by earlier bucket then
// earlier insertion.
func (t *Trie) Evaluate(req LookupRequest) (Result, bool) {
	var best Result
	found := false

	for k := BucketKind(0); k < numBuckets; k++ {
		b := t.buckets[k]
		for _, key := range identityCandidates(b, req) {
			sl := b.byIdentity[key]
			res, ok := evalBucketSourceLevel(sl, req)
			if !ok {
				continue
			}
			if !found || res.Precedence > best.Precedence {
				best = res
				found = true
			}
		}
	}
	return best, found
}
