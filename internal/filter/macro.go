// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package filter

import (
	"strings"

	"sslproxy.dev/core/internal/errors"
	"sslproxy.dev/core/internal/validation"
)

// Macro is a named list of tokens substituted wherever $name appears in
// a rule line.
type Macro struct {
	Name   string
	Tokens []string
	Line   int
}

// MacroTable holds the macros defined in a single option-set scope.
// Macros cannot be redefined and cannot reference themselves or each
// other cyclically; since macro bodies are plain token lists (no nested
// $references are expanded at definition time), the only redefinition
// hazard is a duplicate name.
type MacroTable struct {
	byName map[string]*Macro
	order  []string
}

// NewMacroTable returns an empty macro table.
func NewMacroTable() *MacroTable {
	return &MacroTable{byName: make(map[string]*Macro)}
}

// Define registers a new macro. Redefining an existing name is rejected.
func (t *MacroTable) Define(name string, tokens []string, line int) error {
	if err := validation.ValidateIdentifier(name); err != nil {
		return errors.WithLine(errors.KindConfigSyntax, line, "invalid macro name: "+err.Error())
	}
	if _, exists := t.byName[name]; exists {
		return errors.Attr(
			errors.WithLine(errors.KindMacroRedefined, line, "macro $"+name+" already defined"),
			"name", name,
		)
	}
	cp := make([]string, len(tokens))
	copy(cp, tokens)
	t.byName[name] = &Macro{Name: name, Tokens: cp, Line: line}
	t.order = append(t.order, name)
	return nil
}

// Lookup returns the macro registered under name, if any.
func (t *MacroTable) Lookup(name string) (*Macro, bool) {
	m, ok := t.byName[name]
	return m, ok
}

// Names returns macro names in definition order.
func (t *MacroTable) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Clone returns an independent deep copy of the table, preserving
// definition order, for OptionSet.CloneIntoSpec.
func (t *MacroTable) Clone() *MacroTable {
	cp := NewMacroTable()
	for _, name := range t.order {
		m := t.byName[name]
		toks := make([]string, len(m.Tokens))
		copy(toks, m.Tokens)
		cp.byName[name] = &Macro{Name: m.Name, Tokens: toks, Line: m.Line}
		cp.order = append(cp.order, name)
	}
	return cp
}

// ExpandMacros replaces every $name token in tokens with the macro's
// token list, producing the Cartesian product of all referenced macros'
// expansions. Expansion order is outermost reference first (position
// order within the line), then left to right within each macro's own
// token list. The returned bool reports whether any
// macro reference was present (an all-literal line short-circuits to a
// single-element result).
func ExpandMacros(tokens []string, table *MacroTable, line int) ([][]string, bool, error) {
	type slot struct {
		pos    int
		tokens []string
	}
	var slots []slot
	for i, tok := range tokens {
		if !strings.HasPrefix(tok, "$") {
			continue
		}
		name := tok[1:]
		m, ok := table.Lookup(name)
		if !ok {
			return nil, true, errors.Attr(
				errors.WithLine(errors.KindMacroUndefined, line, "undefined macro $"+name),
				"name", name,
			)
		}
		slots = append(slots, slot{pos: i, tokens: m.Tokens})
	}
	if len(slots) == 0 {
		return [][]string{tokens}, false, nil
	}

	combos := [][]string{{}}
	for _, s := range slots {
		var next [][]string
		for _, combo := range combos {
			for _, tok := range s.tokens {
				c := make([]string, len(combo)+1)
				copy(c, combo)
				c[len(combo)] = tok
				next = append(next, c)
			}
		}
		combos = next
	}

	out := make([][]string, 0, len(combos))
	for _, combo := range combos {
		line := make([]string, len(tokens))
		copy(line, tokens)
		for i, s := range slots {
			line[s.pos] = combo[i]
		}
		out = append(out, line)
	}
	return out, true, nil
}
