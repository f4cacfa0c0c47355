package frag

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/sequent/pkg/grammar"
	"github.com/leapstack-labs/sequent/pkg/parser"
)

// Resolver converts parse trees of formal categories into fragments plus
// presentation, consulting a scope for notation bindings, binders and
// template parameters.
type Resolver struct {
	G     *grammar.State
	Seed  *grammar.Seed
	Arena *Arena
}

// Resolve walks the tree bottom-up and produces the interned fragment of
// the expected category together with its presentation. It fails with a
// ResolutionError when a name is absent from scope and with a
// CategoryMismatchError when a fragment's category disagrees with its
// position.
func (r *Resolver) Resolve(t *parser.Tree, sc *Scope, expect grammar.CategoryID) (PresFrag, error) {
	switch t.Kind {
	case parser.TreeAlt:
		return r.resolveAlt(t, sc, expect)
	case parser.TreeNode:
		return r.resolveNode(t, sc, expect)
	default:
		return PresFrag{}, &MalformedError{Reason: "token leaf has no fragment"}
	}
}

// resolveAlt picks the any-fragment alternative whose category matches the
// expectation. The parser keeps these alternatives precisely because only
// resolution knows the expected category.
func (r *Resolver) resolveAlt(t *parser.Tree, sc *Scope, expect grammar.CategoryID) (PresFrag, error) {
	var picked *parser.Tree
	for _, alt := range t.Children {
		inner := r.unwrapChain(alt)
		if inner == nil || inner.Cat != expect {
			continue
		}
		if picked != nil {
			return PresFrag{}, &parser.AmbiguityError{
				Span:     t.Span,
				Category: r.G.Category(expect).Name,
				Count:    len(t.Children),
			}
		}
		picked = inner
	}
	if picked == nil {
		return PresFrag{}, &CategoryMismatchError{
			Span:     t.Span,
			Expected: r.G.Category(expect).Name,
			Got:      "an ambiguous fragment with no reading at that category",
		}
	}
	return r.Resolve(picked, sc, expect)
}

// unwrapChain strips a single-category chain rule (such as the implicit
// any-fragment injection) and returns the underlying tree.
func (r *Resolver) unwrapChain(t *parser.Tree) *parser.Tree {
	if t.Kind != parser.TreeNode {
		return t
	}
	rule := r.G.Rule(t.Rule)
	if len(rule.Parts) == 1 && rule.Parts[0].Kind == grammar.PartCat {
		return t.Children[0]
	}
	return t
}

func (r *Resolver) resolveNode(t *parser.Tree, sc *Scope, expect grammar.CategoryID) (PresFrag, error) {
	rule := r.G.Rule(t.Rule)

	// Chain rules (any-fragment injections) carry no semantics of their own.
	if len(rule.Parts) == 1 && rule.Parts[0].Kind == grammar.PartCat && rule.Source != grammar.SourceSyntax {
		return r.Resolve(t.Children[0], sc, expect)
	}

	if rule.Cat != expect {
		return PresFrag{}, &CategoryMismatchError{
			Span:     t.Span,
			Expected: r.G.Category(expect).Name,
			Got:      r.G.Category(rule.Cat).Name,
		}
	}

	switch rule.Source {
	case grammar.SourceRef:
		if len(rule.Parts) == 1 {
			return r.resolveName(t, sc, rule.Cat)
		}
		return r.resolveApp(t, sc, rule.Cat)
	case grammar.SourceSyntax:
		return r.resolveRuleApp(t, sc, rule)
	default:
		return PresFrag{}, &MalformedError{Reason: "wire-syntax tree reached fragment resolution"}
	}
}

// resolveName handles a bare name occurrence: innermost binder first, then
// notation shorthands, then template parameters, then the _N hole syntax.
func (r *Resolver) resolveName(t *parser.Tree, sc *Scope, cat grammar.CategoryID) (PresFrag, error) {
	name := t.LeafText(0)
	pres := Leaf(name)

	if e, ok := sc.Lookup(name); ok {
		if e.Cat != cat {
			return PresFrag{}, &CategoryMismatchError{
				Span:     t.Span,
				Expected: r.G.Category(cat).Name,
				Got:      r.G.Category(e.Cat).Name,
			}
		}
		switch e.Kind {
		case EntryBinding:
			idx := sc.Depth() - e.DeclDepth - 1
			id, err := r.Arena.Intern(cat, VarHead(cat, idx), nil)
			if err != nil {
				return PresFrag{}, err
			}
			return PresFrag{Frag: id, Pres: pres}, nil
		case EntryNotation:
			// The replacement was resolved at a shallower binder depth;
			// shift its free variables to stay bound here.
			shifted, err := r.Arena.Shift(e.Frag.Frag, sc.Depth()-e.DeclDepth)
			if err != nil {
				return PresFrag{}, err
			}
			return PresFrag{Frag: shifted, Pres: pres}, nil
		case EntryTemplate:
			if len(e.Params) != 0 {
				return PresFrag{}, &ResolutionError{
					Name: name, Span: t.Span,
					Msg: "schema parameter takes arguments",
				}
			}
			id, err := r.Arena.Intern(cat, TemplateRefHead(e.Index), nil)
			if err != nil {
				return PresFrag{}, err
			}
			return PresFrag{Frag: id, Pres: pres}, nil
		}
	}

	if idx, ok := holeIndex(name); ok {
		id, err := r.Arena.Intern(cat, HoleHead(idx), nil)
		if err != nil {
			return PresFrag{}, err
		}
		return PresFrag{Frag: id, Pres: pres}, nil
	}

	return PresFrag{}, &ResolutionError{Name: name, Span: t.Span}
}

// resolveApp handles a parameterized reference name(arg, ...): a schema
// template parameter applied to fragments.
func (r *Resolver) resolveApp(t *parser.Tree, sc *Scope, cat grammar.CategoryID) (PresFrag, error) {
	name := t.LeafText(0)
	e, ok := sc.Lookup(name)
	if !ok {
		return PresFrag{}, &ResolutionError{Name: name, Span: t.Span}
	}
	if e.Kind != EntryTemplate {
		return PresFrag{}, &ResolutionError{
			Name: name, Span: t.Span,
			Msg: "only schema parameters take arguments",
		}
	}
	if e.Cat != cat {
		return PresFrag{}, &CategoryMismatchError{
			Span:     t.Span,
			Expected: r.G.Category(cat).Name,
			Got:      r.G.Category(e.Cat).Name,
		}
	}

	args := r.flattenArgs(t.Children[2])
	if len(args) != len(e.Params) {
		return PresFrag{}, &ResolutionError{
			Name: name, Span: t.Span,
			Msg: "wrong number of arguments: got " + strconv.Itoa(len(args)) +
				", want " + strconv.Itoa(len(e.Params)),
		}
	}

	children := make([]FragmentID, len(args))
	presKids := []*PresTree{Leaf(name), Leaf("(")}
	for i, arg := range args {
		pf, err := r.Resolve(arg, sc, e.Params[i])
		if err != nil {
			return PresFrag{}, err
		}
		children[i] = pf.Frag
		if i > 0 {
			presKids = append(presKids, Leaf(","))
		}
		presKids = append(presKids, pf.Pres)
	}
	presKids = append(presKids, Leaf(")"))

	id, err := r.Arena.Intern(cat, TemplateRefHead(e.Index), children)
	if err != nil {
		return PresFrag{}, err
	}
	return PresFrag{Frag: id, Pres: &PresTree{Children: presKids}}, nil
}

// flattenArgs collects the any-fragment trees of an argument list.
func (r *Resolver) flattenArgs(t *parser.Tree) []*parser.Tree {
	var out []*parser.Tree
	var walk func(n *parser.Tree)
	walk = func(n *parser.Tree) {
		if n == nil {
			return
		}
		if n.Cat == r.Seed.AnyFrag {
			out = append(out, n)
			return
		}
		for _, c := range n.Children {
			if c.Kind != parser.TreeLeaf {
				walk(c)
			}
		}
	}
	walk(t)
	return out
}

// resolveRuleApp handles an application of a user syntax rule. Binders the
// pattern introduces extend the scope before any child resolves, and every
// variable occurrence reduces to a de Bruijn index.
func (r *Resolver) resolveRuleApp(t *parser.Tree, sc *Scope, rule *grammar.Rule) (PresFrag, error) {
	inner := sc
	for i, part := range rule.Parts {
		if part.Kind == grammar.PartBinding {
			inner = inner.WithBinding(t.LeafText(i), part.Cat)
		}
	}

	var children []FragmentID
	presKids := make([]*PresTree, 0, len(rule.Parts))
	for i, part := range rule.Parts {
		child := t.Child(i)
		switch part.Kind {
		case grammar.PartCat:
			pf, err := r.Resolve(child, inner, part.Cat)
			if err != nil {
				return PresFrag{}, err
			}
			children = append(children, pf.Frag)
			presKids = append(presKids, pf.Pres)
		case grammar.PartVariable:
			name := t.LeafText(i)
			e, ok := inner.Lookup(name)
			if !ok || e.Kind != EntryBinding {
				return PresFrag{}, &ResolutionError{
					Name: name, Span: child.Span,
					Msg: "not a bound variable here",
				}
			}
			if e.Cat != part.Cat {
				return PresFrag{}, &CategoryMismatchError{
					Span:     child.Span,
					Expected: r.G.Category(part.Cat).Name,
					Got:      r.G.Category(e.Cat).Name,
				}
			}
			idx := inner.Depth() - e.DeclDepth - 1
			id, err := r.Arena.Intern(part.Cat, VarHead(part.Cat, idx), nil)
			if err != nil {
				return PresFrag{}, err
			}
			children = append(children, id)
			presKids = append(presKids, Leaf(name))
		default:
			presKids = append(presKids, Leaf(t.LeafText(i)))
		}
	}

	id, err := r.Arena.Intern(rule.Cat, RuleHead(rule.ID, rule.BindingsAdded), children)
	if err != nil {
		return PresFrag{}, err
	}
	return PresFrag{Frag: id, Pres: &PresTree{Rule: rule.ID, Children: presKids}}, nil
}

// holeIndex recognizes the _N hole spelling.
func holeIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, "_") || len(name) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
