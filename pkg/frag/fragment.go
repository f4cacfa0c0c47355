// Package frag implements the semantic term representation: immutable,
// structurally interned fragments with de Bruijn variable binding, the
// persistent lexical scope, and the resolver that turns parse trees into
// fragments plus their cosmetic presentation.
package frag

import (
	"fmt"

	"github.com/leapstack-labs/sequent/pkg/grammar"
)

// FragmentID is a stable handle into an Arena. Two structurally equal
// fragments share one ID.
type FragmentID int32

// HeadKind discriminates the fragment head variants. The union is closed;
// every switch over it is exhaustive.
type HeadKind int8

const (
	// HeadRule applies a formal syntax rule to ordered child fragments.
	HeadRule HeadKind = iota
	// HeadVar references an enclosing binder by de Bruijn index.
	HeadVar
	// HeadTemplateRef references an unresolved template parameter; its
	// children are the arguments of a parameterized (schema) reference.
	HeadTemplateRef
	// HeadHole stands for a not-yet-supplied subterm.
	HeadHole
)

// Head is the head of a fragment. It is comparable so fragments can be
// structurally hashed for interning.
type Head struct {
	Kind          HeadKind
	Rule          grammar.RuleID     // HeadRule
	BindingsAdded int                // HeadRule: binder levels the rule closes
	Cat           grammar.CategoryID // HeadVar: the variable's category
	Index         int                // HeadVar: de Bruijn; HeadTemplateRef: param; HeadHole: hole
}

// RuleHead returns a rule-application head.
func RuleHead(rule grammar.RuleID, bindingsAdded int) Head {
	return Head{Kind: HeadRule, Rule: rule, BindingsAdded: bindingsAdded}
}

// VarHead returns a bound-variable head.
func VarHead(cat grammar.CategoryID, index int) Head {
	return Head{Kind: HeadVar, Cat: cat, Index: index}
}

// TemplateRefHead returns a template-parameter reference head.
func TemplateRefHead(index int) Head {
	return Head{Kind: HeadTemplateRef, Index: index}
}

// HoleHead returns a hole head.
func HoleHead(index int) Head {
	return Head{Kind: HeadHole, Index: index}
}

// Fragment is the canonical semantic term node. Immutable; always held
// and compared through its FragmentID.
type Fragment struct {
	Cat      grammar.CategoryID
	Head     Head
	Children []FragmentID

	hasHole     bool
	hasTemplate bool
	unclosed    int
}

// HasHole reports whether the fragment contains any hole.
func (f *Fragment) HasHole() bool { return f.hasHole }

// HasTemplate reports whether the fragment contains any unresolved
// template parameter reference.
func (f *Fragment) HasTemplate() bool { return f.hasTemplate }

// Unclosed returns the number of binder levels the fragment needs from
// its context. A fragment with Unclosed() == 0 is closed.
func (f *Fragment) Unclosed() int { return f.unclosed }

// MalformedError reports an attempt to construct a fragment that violates
// a structural invariant. This is an internal-invariant violation, fatal
// to the compilation.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed fragment: %s", e.Reason)
}
