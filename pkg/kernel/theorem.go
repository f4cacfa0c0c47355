package kernel

import (
	"github.com/leapstack-labs/sequent/pkg/frag"
	"github.com/leapstack-labs/sequent/pkg/grammar"
	"github.com/leapstack-labs/sequent/pkg/parser"
	"github.com/leapstack-labs/sequent/pkg/token"
)

// TheoremStatement is the elaborated form of an axiom or theorem command:
// the template parameters, the hypothesis facts and the conclusion, all
// relative to the statement's own template. Axioms carry no proof and are
// trusted; theorems carry the unparsed tactic script, run later against a
// ProofState.
type TheoremStatement struct {
	Name           string
	Module         string
	Template       frag.Template
	Hypotheses     []frag.Fact
	Conclusion     frag.FragmentID
	ConclusionPres *frag.PresTree
	IsAxiom        bool
	Proof          *parser.Tree // tactics tree; nil for axioms
	Span           token.Span
}

// ParamNames returns the template parameter names in declaration order.
func (t *TheoremStatement) ParamNames() []string {
	names := make([]string, len(t.Template.Params))
	for i, p := range t.Template.Params {
		names[i] = p.Name
	}
	return names
}

// Citations returns the names cited by the proof's have-steps, in order of
// appearance, without duplicates. Axioms cite nothing.
func (t *TheoremStatement) Citations(sd *grammar.Seed) []string {
	if t.Proof == nil {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	var walk func(n *parser.Tree)
	walk = func(n *parser.Tree) {
		if n == nil || n.Kind == parser.TreeLeaf {
			return
		}
		if n.Kind == parser.TreeNode && n.Rule == sd.TacticHave {
			name := n.LeafText(3)
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Proof)
	return out
}
