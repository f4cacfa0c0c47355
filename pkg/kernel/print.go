package kernel

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/sequent/pkg/frag"
	"github.com/leapstack-labs/sequent/pkg/grammar"
)

// Printer renders fragments back to notation text for diagnostics.
// Template parameter references render as the enclosing statement's
// parameter names; binder names are lost in the de Bruijn form, so
// synthetic ones are generated.
type Printer struct {
	Arena  *frag.Arena
	G      *grammar.State
	Params []string
}

// Frag renders one fragment.
func (p *Printer) Frag(id frag.FragmentID) string {
	var sb strings.Builder
	p.frag(&sb, id, nil)
	return strings.TrimSpace(sb.String())
}

// Fact renders a fact, assumptions first.
func (p *Printer) Fact(f frag.Fact) string {
	var sb strings.Builder
	for i, a := range f.Assumptions {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Frag(a))
	}
	if len(f.Assumptions) > 0 {
		sb.WriteString(" |- ")
	}
	sb.WriteString(p.Frag(f.Conclusion))
	return sb.String()
}

func (p *Printer) frag(sb *strings.Builder, id frag.FragmentID, binders []string) {
	f := p.Arena.Get(id)
	switch f.Head.Kind {
	case frag.HeadVar:
		i := len(binders) - 1 - f.Head.Index
		if i >= 0 && i < len(binders) {
			sb.WriteString(binders[i])
		} else {
			sb.WriteString("#" + strconv.Itoa(f.Head.Index))
		}
		sb.WriteByte(' ')
	case frag.HeadHole:
		sb.WriteString("_" + strconv.Itoa(f.Head.Index) + " ")
	case frag.HeadTemplateRef:
		if f.Head.Index >= 0 && f.Head.Index < len(p.Params) {
			sb.WriteString(p.Params[f.Head.Index])
		} else {
			sb.WriteString("?" + strconv.Itoa(f.Head.Index))
		}
		if len(f.Children) > 0 {
			sb.WriteByte('(')
			for i, c := range f.Children {
				if i > 0 {
					sb.WriteString(", ")
				}
				p.frag(sb, c, binders)
			}
			sb.WriteByte(')')
		}
		sb.WriteByte(' ')
	case frag.HeadRule:
		p.ruleApp(sb, f, binders)
	}
}

func (p *Printer) ruleApp(sb *strings.Builder, f *frag.Fragment, binders []string) {
	rule := p.G.Rule(f.Head.Rule)
	inner := binders
	for _, part := range rule.Parts {
		if part.Kind == grammar.PartBinding {
			inner = append(inner, "v"+strconv.Itoa(len(inner)))
		}
	}
	bound := len(binders)
	child := 0
	for _, part := range rule.Parts {
		switch part.Kind {
		case grammar.PartCat, grammar.PartVariable:
			if child < len(f.Children) {
				p.frag(sb, f.Children[child], inner)
			}
			child++
		case grammar.PartBinding:
			sb.WriteString(inner[bound] + " ")
			bound++
		case grammar.PartLit, grammar.PartKeyword:
			sb.WriteString(part.Text + " ")
		case grammar.PartPunct:
			sb.WriteString(part.Tok.String() + " ")
		default:
			sb.WriteString(part.String() + " ")
		}
	}
}
