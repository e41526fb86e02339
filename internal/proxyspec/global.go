// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package proxyspec

import (
	"github.com/google/uuid"

	"sslproxy.dev/core/internal/errors"
	"sslproxy.dev/core/internal/optset"
)

// Global is the top-level configuration root: the listeners
// (ProxySpecs), the default OptionSet each one clones from,
// and the handful of top-level file-grammar keys that apply to the
// whole process rather than to any one spec. Each Global owns its
// listeners, proxyspecs, default OptionSet, and (transitively, via each
// OptionSet) loaded crypto handles. Global has no release method of its
// own; certificate handles are released per OptionSet by
// OptionSet.Free.
type Global struct {
	ID uuid.UUID

	// Specs is the contiguous, insertion-ordered list of proxyspecs.
	// specsHead/specsTail maintain the singly-linked Next chain in
	// lock-step so both views stay observable.
	Specs     []*ProxySpec
	specsHead *ProxySpec
	specsTail *ProxySpec

	DefaultOptions *optset.OptionSet

	NatEngines *NATEngineRegistry

	// Split is the global "Split yes" directive: when set, every
	// proxyspec resolves to split mode regardless of whether it named a
	// divert address, unless its own ProxySpec block sets "Divert".
	Split bool

	Daemon bool
	Debug  bool

	// ConnLogPath is the connection-log output path.
	ConnLogPath string

	// Content-log: exactly one of these three mutually exclusive shapes
	// is populated.
	ContentLogPath     string
	ContentLogDir      string
	ContentLogPathSpec *PathSpec

	// PCAP-log: same three-shape discipline as content-log.
	PCAPLogPath     string
	PCAPLogDir      string
	PCAPLogPathSpec *PathSpec

	MirrorIface  string
	MirrorTarget string

	UserDBPath string

	// ConnIdleTimeoutSeconds: connection idle timeout (10-3600s).
	ConnIdleTimeoutSeconds int
	// ExpiredCheckPeriodSeconds: expired-connection check period (10-60s).
	ExpiredCheckPeriodSeconds int
	// StatsLogPath and StatsLogPeriodSeconds (1-10s) jointly enable
	// periodic stats logging when StatsLogPath is non-empty.
	StatsLogPath          string
	StatsLogPeriodSeconds int

	// OpenFilesLimit is the open-files rlimit (50-10000), applied via
	// the platform-specific applyOpenFilesLimit at freeze time.
	OpenFilesLimit int

	// LeafRSABits is the RSA key size used for forged leaf certificates,
	// drawn from the closed set {1024,2048,3072,4096}.
	LeafRSABits int

	// includeDepth is not read or written by the loader; loadFileInto
	// tracks Include nesting through its depth argument instead.
	includeDepth int

	frozen bool
}

// NewGlobal returns a Global with the default OptionSet and the
// platform's default NAT-engine registry.
func NewGlobal() *Global {
	g := &Global{
		ID:                        uuid.New(),
		DefaultOptions:            optset.New(),
		NatEngines:                DefaultNATEngineRegistry(),
		ConnIdleTimeoutSeconds:    60,
		ExpiredCheckPeriodSeconds: 10,
		StatsLogPeriodSeconds:     1,
		OpenFilesLimit:            1024,
		LeafRSABits:               2048,
	}
	g.DefaultOptions.SetGlobal(g)
	return g
}

// AddSpec appends a fully-parsed ProxySpec to both the contiguous Specs
// slice and the singly-linked Next chain, and attaches the back-pointer
// to this Global.
func (g *Global) AddSpec(s *ProxySpec) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Options.SetGlobal(g)
	g.Specs = append(g.Specs, s)
	if g.specsHead == nil {
		g.specsHead = s
		g.specsTail = s
		return
	}
	g.specsTail.Next = s
	g.specsTail = s
}

// Head returns the first ProxySpec in insertion order, or nil.
func (g *Global) Head() *ProxySpec { return g.specsHead }

// Freeze compiles every OptionSet reachable from this Global (its own
// default, plus every proxyspec's) into its final Trie, and applies the
// process-wide resource limit. After Freeze returns successfully, no
// field reachable from g is mutated again; readers share it without
// synchronization.
func (g *Global) Freeze() error {
	if g.frozen {
		return nil
	}
	if err := validateLeafRSABits(g.LeafRSABits); err != nil {
		return err
	}
	g.DefaultOptions.Freeze()
	for _, s := range g.Specs {
		s.Options.Freeze()
	}
	if err := applyOpenFilesLimit(g.OpenFilesLimit); err != nil {
		return err
	}
	g.frozen = true
	return nil
}

// Frozen reports whether Freeze has completed successfully.
func (g *Global) Frozen() bool { return g.frozen }

func validateLeafRSABits(bits int) error {
	switch bits {
	case 1024, 2048, 3072, 4096:
		return nil
	default:
		return errors.Errorf(errors.KindConfigValue, "leaf RSA bits=%d not in {1024,2048,3072,4096}", bits)
	}
}
