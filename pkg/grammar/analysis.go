package grammar

import "github.com/leapstack-labs/sequent/pkg/token"

// TermKey identifies a terminal for first-set membership. Two terminals
// that accept the same tokens share one key.
type TermKey struct {
	Kind PartKind
	Text string
	Tok  token.Type
}

func termKey(p PatternPart) TermKey {
	k := TermKey{Kind: p.Kind, Text: p.Text, Tok: p.Tok}
	// Binding and variable parts scan a NAME token just like PartName.
	if p.Kind == PartBinding || p.Kind == PartVariable {
		k = TermKey{Kind: PartName}
	}
	return k
}

// TermKeyFor returns the first-set key of a token, for membership tests
// against First().
func TermKeyFor(tok token.Token) []TermKey {
	keys := []TermKey{{Kind: PartLit, Text: tok.Literal}}
	switch {
	case token.IsKeyword(tok.Type):
		keys = append(keys, TermKey{Kind: PartKeyword, Text: tok.Literal})
	case tok.Type == token.NAME:
		keys = append(keys, TermKey{Kind: PartName})
	case tok.Type == token.NUMBER:
		keys = append(keys, TermKey{Kind: PartNumber})
	case tok.Type == token.STRING:
		keys = append(keys, TermKey{Kind: PartString})
	default:
		keys = append(keys, TermKey{Kind: PartPunct, Tok: tok.Type})
	}
	return keys
}

// Nullable reports whether the category derives the empty string.
func (s *State) Nullable(cat CategoryID) bool {
	return s.nullable[cat]
}

// First returns the first-set of the category. Callers must not mutate it.
func (s *State) First(cat CategoryID) map[TermKey]struct{} {
	return s.first[cat]
}

// CanStartWith reports whether a token can begin a derivation of cat.
func (s *State) CanStartWith(cat CategoryID, tok token.Token) bool {
	set := s.first[cat]
	for _, k := range TermKeyFor(tok) {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}

// refresh re-derives nullability and first sets after a rule was appended
// to cat. The fixpoint worklist only walks categories reachable from cat
// through the reverse reference graph, so the cost tracks the rules the
// addition can affect rather than the whole grammar.
func (s *State) refresh(cat CategoryID) {
	work := []CategoryID{cat}
	queued := map[CategoryID]struct{}{cat: {}}

	for len(work) > 0 {
		c := work[0]
		work = work[1:]
		delete(queued, c)

		changed := s.recompute(c)
		if !changed {
			continue
		}
		for dep := range s.referencedBy[c] {
			if _, ok := queued[dep]; !ok {
				queued[dep] = struct{}{}
				work = append(work, dep)
			}
		}
	}
}

// recompute rebuilds the tables of one category from its rules, returning
// whether anything changed.
func (s *State) recompute(c CategoryID) bool {
	nullable := false
	first := make(map[TermKey]struct{})

	for _, rid := range s.rulesByCat[c] {
		r := s.rules[rid]
		allNullable := true
		for _, p := range r.Parts {
			if p.IsTerminal() {
				if allNullable {
					first[termKey(p)] = struct{}{}
				}
				allNullable = false
				break
			}
			if allNullable {
				for k := range s.first[p.Cat] {
					first[k] = struct{}{}
				}
			}
			if !s.nullable[p.Cat] {
				allNullable = false
				break
			}
		}
		if allNullable {
			nullable = true
		}
	}

	changed := nullable != s.nullable[c] || len(first) != len(s.first[c])
	if !changed {
		for k := range first {
			if _, ok := s.first[c][k]; !ok {
				changed = true
				break
			}
		}
	}
	s.nullable[c] = nullable
	s.first[c] = first
	return changed
}
