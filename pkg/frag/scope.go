package frag

import "github.com/leapstack-labs/sequent/pkg/grammar"

// EntryKind discriminates what a scope name resolves to.
type EntryKind int8

const (
	// EntryNotation replaces the name with a previously resolved fragment.
	EntryNotation EntryKind = iota
	// EntryBinding marks a binder introduced by an enclosing rule pattern.
	EntryBinding
	// EntryTemplate marks a template parameter of the enclosing statement.
	EntryTemplate
)

// ScopeEntry is a resolved definition reachable from a scope.
type ScopeEntry struct {
	Kind EntryKind
	Cat  grammar.CategoryID

	// EntryNotation
	Frag PresFrag

	// DeclDepth is the binder depth at the entry's introduction. For
	// notations it feeds the de Bruijn shift at use sites; for bindings it
	// is the binder's own level.
	DeclDepth int

	// EntryTemplate
	Index  int
	Params []grammar.CategoryID
	Fresh  bool
}

// Scope is a persistent mapping from names to definitions. Extending a
// scope allocates a child that references its parent; the parent is never
// mutated, so scopes can be captured and shared freely.
type Scope struct {
	parent *Scope
	name   string
	entry  ScopeEntry
	depth  int
}

// NewScope returns the empty top-level scope at binder depth zero.
func NewScope() *Scope {
	return &Scope{}
}

// Depth returns the number of binders enclosing this scope.
func (s *Scope) Depth() int {
	return s.depth
}

// Lookup finds the nearest entry for name, honoring shadowing.
func (s *Scope) Lookup(name string) (ScopeEntry, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.name == name && cur.name != "" {
			return cur.entry, true
		}
	}
	return ScopeEntry{}, false
}

// WithNotation returns a child scope binding name to a resolved fragment.
func (s *Scope) WithNotation(name string, f PresFrag, cat grammar.CategoryID) *Scope {
	return &Scope{
		parent: s,
		name:   name,
		entry:  ScopeEntry{Kind: EntryNotation, Cat: cat, Frag: f, DeclDepth: s.depth},
		depth:  s.depth,
	}
}

// WithTemplate returns a child scope binding name to template parameter
// index of the given category, with params naming the categories of its
// hole arguments (empty for plain parameters).
func (s *Scope) WithTemplate(name string, index int, cat grammar.CategoryID, params []grammar.CategoryID, fresh bool) *Scope {
	return &Scope{
		parent: s,
		name:   name,
		entry: ScopeEntry{
			Kind: EntryTemplate, Cat: cat, Index: index,
			Params: params, Fresh: fresh, DeclDepth: s.depth,
		},
		depth: s.depth,
	}
}

// WithBinding returns a child scope one binder deeper, with name bound to
// the new binder.
func (s *Scope) WithBinding(name string, cat grammar.CategoryID) *Scope {
	return &Scope{
		parent: s,
		name:   name,
		entry:  ScopeEntry{Kind: EntryBinding, Cat: cat, DeclDepth: s.depth},
		depth:  s.depth + 1,
	}
}
