package parser

import (
	"github.com/leapstack-labs/sequent/pkg/grammar"
	"github.com/leapstack-labs/sequent/pkg/token"
)

// TreeKind discriminates parse tree node variants.
type TreeKind int8

const (
	// TreeNode is a rule application with one child per pattern part.
	TreeNode TreeKind = iota
	// TreeLeaf is a single consumed token.
	TreeLeaf
	// TreeAlt preserves alternative derivations of an any-fragment span.
	// The parser cannot know which formal category a fragment belongs to;
	// the resolver picks the alternative matching the expected category.
	TreeAlt
)

// Tree is the ephemeral result of parsing one command. It is consumed by
// elaboration and not retained afterwards.
type Tree struct {
	Kind     TreeKind
	Cat      grammar.CategoryID
	Rule     grammar.RuleID // valid for TreeNode
	Tok      token.Token    // valid for TreeLeaf
	Children []*Tree        // parts for TreeNode, alternatives for TreeAlt
	Span     token.Span
}

// Child returns the i-th child, or nil when out of range.
func (t *Tree) Child(i int) *Tree {
	if i < 0 || i >= len(t.Children) {
		return nil
	}
	return t.Children[i]
}

// LeafText returns the token literal of the i-th child leaf.
func (t *Tree) LeafText(i int) string {
	c := t.Child(i)
	if c == nil || c.Kind != TreeLeaf {
		return ""
	}
	return c.Tok.Literal
}

// Alternatives returns the derivation alternatives of the tree: the node
// itself for ordinary trees, the children of a TreeAlt.
func (t *Tree) Alternatives() []*Tree {
	if t.Kind == TreeAlt {
		return t.Children
	}
	return []*Tree{t}
}
