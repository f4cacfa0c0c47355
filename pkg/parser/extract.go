package parser

import (
	"math"

	"github.com/leapstack-labs/sequent/pkg/grammar"
	"github.com/leapstack-labs/sequent/pkg/token"
)

// Derivation extraction walks the completed-item table top-down and
// rebuilds concrete parse trees, resolving ambiguity as it goes:
//
//   - zero-width derivations tie-break by rule declaration order;
//   - operand positions reject children whose rule precedence is lower
//     than the parent's, and equal precedence is only accepted on the
//     declared associativity side;
//   - any-fragment spans keep their surviving alternatives (TreeAlt);
//   - anything still ambiguous after that is an AmbiguityError.

type spanKey struct {
	cat  grammar.CategoryID
	i, j int
}

type memoEntry struct {
	tree *Tree
	err  error
}

type extractor struct {
	p        *Parser
	c        *chart
	memo     map[spanKey]memoEntry
	inFlight map[spanKey]bool
}

// derive returns the single disambiguated tree for cat over tokens [i, j),
// nil when the span has no derivation at cat.
func (e *extractor) derive(cat grammar.CategoryID, i, j int) (*Tree, error) {
	key := spanKey{cat: cat, i: i, j: j}
	if m, ok := e.memo[key]; ok {
		return m.tree, m.err
	}
	if e.inFlight[key] {
		// Cyclic unit derivation (cat deriving itself over the same span);
		// the non-cyclic reading is found on the outer visit.
		return nil, nil
	}
	e.inFlight[key] = true
	tree, err := e.deriveUncached(cat, i, j)
	delete(e.inFlight, key)
	e.memo[key] = memoEntry{tree: tree, err: err}
	return tree, err
}

func (e *extractor) deriveUncached(cat grammar.CategoryID, i, j int) (*Tree, error) {
	var candidates []*Tree
	for _, rid := range e.p.g.RulesFor(cat) {
		if _, ok := e.c.completed[compKey{rule: rid, start: i, end: j}]; !ok {
			continue
		}
		r := e.p.g.Rule(rid)
		vecs, err := e.match(r, 0, i, j)
		if err != nil {
			return nil, err
		}
		for _, vec := range vecs {
			candidates = append(candidates, e.node(r, vec, i, j))
		}
		// Zero-width tie-break: the first declared rule wins outright.
		if i == j && len(candidates) > 0 {
			candidates = candidates[:1]
			break
		}
	}

	candidates = e.filterPrecedence(candidates)

	switch {
	case len(candidates) == 0:
		return nil, nil
	case len(candidates) == 1:
		return candidates[0], nil
	case cat == e.p.anyFrag:
		return &Tree{
			Kind:     TreeAlt,
			Cat:      cat,
			Children: candidates,
			Span:     candidates[0].Span,
		}, nil
	default:
		return nil, &AmbiguityError{
			Span:     candidates[0].Span,
			Category: e.p.g.Category(cat).Name,
			Count:    len(candidates),
		}
	}
}

func (e *extractor) node(r *grammar.Rule, children []*Tree, i, j int) *Tree {
	span := e.spanOf(i, j)
	return &Tree{Kind: TreeNode, Cat: r.Cat, Rule: r.ID, Children: children, Span: span}
}

func (e *extractor) spanOf(i, j int) token.Span {
	if i >= j || i >= len(e.c.toks) {
		var pos token.Position
		if i < len(e.c.toks) {
			pos = e.c.toks[i].Pos
		} else if len(e.c.toks) > 0 {
			pos = e.c.toks[len(e.c.toks)-1].Span().End
		}
		return token.Span{Start: pos, End: pos}
	}
	return e.c.toks[i].Span().Union(e.c.toks[j-1].Span())
}

// match assigns tokens [from, to) to the pattern tail parts[k:], returning
// every viable child vector.
func (e *extractor) match(r *grammar.Rule, k, from, to int) ([][]*Tree, error) {
	if k == len(r.Parts) {
		if from == to {
			return [][]*Tree{{}}, nil
		}
		return nil, nil
	}
	part := r.Parts[k]

	if part.IsTerminal() {
		if from >= to || !part.Matches(e.c.toks[from]) {
			return nil, nil
		}
		leaf := &Tree{Kind: TreeLeaf, Tok: e.c.toks[from], Span: e.c.toks[from].Span()}
		rest, err := e.match(r, k+1, from+1, to)
		if err != nil {
			return nil, err
		}
		return prepend(leaf, rest), nil
	}

	var out [][]*Tree
	for _, m := range e.c.ends(part.Cat, from) {
		if m > to {
			break
		}
		child, err := e.derive(part.Cat, from, m)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue
		}
		rest, err := e.match(r, k+1, m, to)
		if err != nil {
			return nil, err
		}
		out = append(out, prepend(child, rest)...)
	}
	return out, nil
}

func prepend(child *Tree, vecs [][]*Tree) [][]*Tree {
	out := make([][]*Tree, 0, len(vecs))
	for _, v := range vecs {
		vec := make([]*Tree, 0, len(v)+1)
		vec = append(vec, child)
		vec = append(vec, v...)
		out = append(out, vec)
	}
	return out
}

// filterPrecedence drops candidates whose operands violate precedence or
// associativity. Precedence 0 marks an atomic rule that never competes.
func (e *extractor) filterPrecedence(candidates []*Tree) []*Tree {
	out := candidates[:0:0]
	for _, t := range candidates {
		if e.operandsValid(t) {
			out = append(out, t)
		}
	}
	return out
}

func (e *extractor) operandsValid(t *Tree) bool {
	if t.Kind != TreeNode {
		return true
	}
	parent := e.p.g.Rule(t.Rule)
	if parent.Precedence == 0 {
		return true
	}

	// Index the same-category operand slots; associativity speaks about the
	// first (left) and last (right) of them.
	var slots []int
	for idx, part := range parent.Parts {
		if part.Kind == grammar.PartCat && part.Cat == parent.Cat {
			slots = append(slots, idx)
		}
	}
	for n, idx := range slots {
		child := t.Children[idx]
		p := effectivePrecedence(e.p.g, child)
		switch {
		case p > parent.Precedence:
			// binds tighter, always fine
		case p < parent.Precedence:
			return false
		default:
			if parent.Assoc == grammar.LeftAssoc && n == 0 {
				continue
			}
			if parent.Assoc == grammar.RightAssoc && n == len(slots)-1 {
				continue
			}
			return false
		}
	}
	return true
}

func effectivePrecedence(g *grammar.State, t *Tree) int {
	if t.Kind != TreeNode {
		return math.MaxInt
	}
	r := g.Rule(t.Rule)
	if r.Precedence == 0 {
		return math.MaxInt
	}
	return r.Precedence
}
