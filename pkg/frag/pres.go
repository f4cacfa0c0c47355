package frag

import (
	"strings"

	"github.com/leapstack-labs/sequent/pkg/grammar"
)

// PresTree is the display-only companion of a fragment. It remembers the
// notation the user actually wrote (including shorthand names that the
// fragment has already expanded away), so output can be rendered and
// re-parsed without touching the fragment's meaning.
type PresTree struct {
	Rule     grammar.RuleID // rule that produced the node; 0 children for leaves
	Text     string         // leaf token text
	Children []*PresTree
}

// Leaf returns a presentation leaf carrying literal text.
func Leaf(text string) *PresTree {
	return &PresTree{Text: text}
}

// PresFrag pairs a fragment with its presentation.
type PresFrag struct {
	Frag FragmentID
	Pres *PresTree
}

// Render flattens a presentation tree back into source-like text.
func (p *PresTree) Render() string {
	var sb strings.Builder
	p.render(&sb)
	return strings.TrimSpace(sb.String())
}

func (p *PresTree) render(sb *strings.Builder) {
	if len(p.Children) == 0 {
		if p.Text != "" {
			sb.WriteString(p.Text)
			sb.WriteByte(' ')
		}
		return
	}
	for _, c := range p.Children {
		c.render(sb)
	}
}
