package frag

// Shift rebuilds a fragment with every variable free above cutoff moved up
// by k binder levels. Substituting a fragment under k enclosing binders
// shifts it by k so its free variables stay bound to the binders they
// referred to before the move.
func (a *Arena) Shift(id FragmentID, k int) (FragmentID, error) {
	return a.shift(id, k, 0)
}

func (a *Arena) shift(id FragmentID, k, cutoff int) (FragmentID, error) {
	if k == 0 {
		return id, nil
	}
	f := a.Get(id)
	if f.unclosed <= cutoff {
		// Every variable in here is bound below the cutoff; nothing moves.
		return id, nil
	}

	switch f.Head.Kind {
	case HeadVar:
		if f.Head.Index < cutoff {
			return id, nil
		}
		return a.Intern(f.Cat, VarHead(f.Head.Cat, f.Head.Index+k), nil)
	case HeadHole:
		return id, nil
	default:
		childCutoff := cutoff
		if f.Head.Kind == HeadRule {
			childCutoff += f.Head.BindingsAdded
		}
		children := make([]FragmentID, len(f.Children))
		head := f.Head
		cat := f.Cat
		for i, c := range f.Children {
			shifted, err := a.shift(c, k, childCutoff)
			if err != nil {
				return 0, err
			}
			children[i] = shifted
		}
		return a.Intern(cat, head, children)
	}
}
