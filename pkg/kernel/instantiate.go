package kernel

import (
	"github.com/leapstack-labs/sequent/pkg/frag"
)

// instantiator substitutes concrete argument fragments for the template
// parameter references of a cited statement. Substitution is flat: every
// parameter is replaced by exactly the supplied argument, with no
// unification. Arguments are shifted by the binder depth of each
// occurrence so their free variables stay bound to the binders they
// referred to at the citation site.
type instantiator struct {
	arena *frag.Arena
	args  []frag.FragmentID
}

// fact instantiates every part of a fact at depth zero.
func (in *instantiator) fact(f frag.Fact) (frag.Fact, error) {
	out := frag.Fact{Conclusion: f.Conclusion}
	if len(f.Assumptions) > 0 {
		out.Assumptions = make([]frag.FragmentID, len(f.Assumptions))
		for i, a := range f.Assumptions {
			id, err := in.walk(a, 0)
			if err != nil {
				return frag.Fact{}, err
			}
			out.Assumptions[i] = id
		}
	}
	c, err := in.walk(f.Conclusion, 0)
	if err != nil {
		return frag.Fact{}, err
	}
	out.Conclusion = c
	return out, nil
}

func (in *instantiator) walk(id frag.FragmentID, depth int) (frag.FragmentID, error) {
	f := in.arena.Get(id)
	if !f.HasTemplate() {
		return id, nil
	}

	if f.Head.Kind == frag.HeadTemplateRef {
		idx := f.Head.Index
		if idx < 0 || idx >= len(in.args) {
			return 0, &frag.MalformedError{Reason: "template parameter index out of range"}
		}
		base, err := in.arena.Shift(in.args[idx], depth)
		if err != nil {
			return 0, err
		}
		if len(f.Children) == 0 {
			return base, nil
		}
		// Schema application: the argument is a fragment with numbered
		// holes, filled by the (instantiated) application arguments.
		fills := make([]frag.FragmentID, len(f.Children))
		for i, c := range f.Children {
			fc, err := in.walk(c, depth)
			if err != nil {
				return 0, err
			}
			fills[i] = fc
		}
		return in.fill(base, fills, 0)
	}

	childDepth := depth
	if f.Head.Kind == frag.HeadRule {
		childDepth += f.Head.BindingsAdded
	}
	children := make([]frag.FragmentID, len(f.Children))
	for i, c := range f.Children {
		ic, err := in.walk(c, childDepth)
		if err != nil {
			return 0, err
		}
		children[i] = ic
	}
	return in.arena.Intern(f.Cat, f.Head, children)
}

// fill replaces every hole of a schema argument with the corresponding
// fill fragment, shifting each fill by the binder depth of the hole it
// lands in.
func (in *instantiator) fill(id frag.FragmentID, fills []frag.FragmentID, inner int) (frag.FragmentID, error) {
	f := in.arena.Get(id)
	if !f.HasHole() {
		return id, nil
	}

	if f.Head.Kind == frag.HeadHole {
		idx := f.Head.Index
		if idx < 0 || idx >= len(fills) {
			return 0, &frag.MalformedError{Reason: "schema hole index out of range"}
		}
		return in.arena.Shift(fills[idx], inner)
	}

	childInner := inner
	if f.Head.Kind == frag.HeadRule {
		childInner += f.Head.BindingsAdded
	}
	children := make([]frag.FragmentID, len(f.Children))
	for i, c := range f.Children {
		fc, err := in.fill(c, fills, childInner)
		if err != nil {
			return 0, err
		}
		children[i] = fc
	}
	return in.arena.Intern(f.Cat, f.Head, children)
}
