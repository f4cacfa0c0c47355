// Package kernel implements the trusted proof core: the SafeFrag/SafeFact
// boundary, theorem statements, template instantiation with de Bruijn
// shifting, and the per-theorem proof state machine that issues
// certificates.
package kernel

import (
	"github.com/leapstack-labs/sequent/pkg/frag"
	"github.com/leapstack-labs/sequent/pkg/grammar"
)

// SafeFrag is a fragment that passed the kernel's trust boundary: no
// holes and no unclosed binders, of a checked category. Template
// parameter references of the enclosing statement are permitted; they are
// the statement's own symbolic parameters, not missing structure.
//
// A SafeFrag can only be obtained through NewSafeFrag, so holding one is
// proof the checks ran.
type SafeFrag struct {
	id  frag.FragmentID
	cat grammar.CategoryID
}

// NewSafeFrag checks a fragment against the trust boundary. A hole or an
// unclosed binder reaching this point is an internal-invariant violation.
func NewSafeFrag(a *frag.Arena, id frag.FragmentID, want grammar.CategoryID) (SafeFrag, error) {
	f := a.Get(id)
	if f.HasHole() {
		return SafeFrag{}, &frag.MalformedError{Reason: "fragment with a hole reached the kernel"}
	}
	if f.Unclosed() > 0 {
		return SafeFrag{}, &frag.MalformedError{Reason: "fragment with an unclosed binder reached the kernel"}
	}
	if f.Cat != want {
		return SafeFrag{}, &frag.MalformedError{Reason: "fragment category does not match the kernel boundary"}
	}
	return SafeFrag{id: id, cat: want}, nil
}

// ID returns the underlying fragment handle.
func (s SafeFrag) ID() frag.FragmentID { return s.id }

// Cat returns the checked category.
func (s SafeFrag) Cat() grammar.CategoryID { return s.cat }

// SafeFact is a fact whose assumptions and conclusion all passed the
// SafeFrag boundary at the judgment category.
type SafeFact struct {
	fact frag.Fact
}

// NewSafeFact checks every part of a fact at the sentence category.
func NewSafeFact(a *frag.Arena, f frag.Fact, sentence grammar.CategoryID) (SafeFact, error) {
	for _, as := range f.Assumptions {
		if _, err := NewSafeFrag(a, as, sentence); err != nil {
			return SafeFact{}, err
		}
	}
	if _, err := NewSafeFrag(a, f.Conclusion, sentence); err != nil {
		return SafeFact{}, err
	}
	return SafeFact{fact: f}, nil
}

// Fact returns the underlying fact.
func (s SafeFact) Fact() frag.Fact { return s.fact }
