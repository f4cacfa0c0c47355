// Package elab classifies parsed commands into actions. Elaboration is
// pure: it inspects tree shape against the fixed command rules and
// returns a description of what should happen, leaving every state
// change (grammar extension, scope update, theorem queuing) to the
// single application point in the engine.
package elab

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/sequent/pkg/grammar"
	"github.com/leapstack-labs/sequent/pkg/parser"
	"github.com/leapstack-labs/sequent/pkg/token"
)

// Kind discriminates the action variants.
type Kind int8

const (
	// ActModule names the compilation unit.
	ActModule Kind = iota
	// ActCategory declares a formal category.
	ActCategory
	// ActSyntax extends the grammar with one rule.
	ActSyntax
	// ActNotation binds a name to a fragment in the current scope.
	ActNotation
	// ActDefinition binds a name to a fragment like a notation; the proved
	// form additionally carries a characterizing statement to queue.
	ActDefinition
	// ActStatement queues an axiom or theorem.
	ActStatement
)

// PartSpec is the unresolved form of one syntax pattern part. Category,
// binding and variable parts carry the category name; resolution to IDs
// happens at application time, against the grammar state of that moment.
type PartSpec struct {
	Kind grammar.PartKind
	Text string
	Span token.Span
}

// FactTree is the tree form of one fact: zero or one assumption trees and
// a conclusion tree, all any-fragment spans.
type FactTree struct {
	Assumptions []*parser.Tree
	Conclusion  *parser.Tree
	Span        token.Span
}

// TemplateDecl is the tree form of one template parameter.
type TemplateDecl struct {
	Name     string
	CatName  string
	Fresh    bool
	HoleCats []string
	Span     token.Span
}

// Action is the elaborated form of one command.
type Action struct {
	Kind Kind
	Name string
	Span token.Span

	// ActSyntax
	CatName    string
	Precedence int
	Assoc      grammar.Associativity
	Parts      []PartSpec

	// ActNotation
	Body *parser.Tree

	// ActStatement
	IsAxiom    bool
	Templates  []TemplateDecl
	Hypotheses []FactTree
	Conclusion *parser.Tree
	Proof      *parser.Tree
}

// Elaborate classifies one parsed command.
func Elaborate(sd *grammar.Seed, t *parser.Tree) (*Action, error) {
	if t == nil || t.Kind != parser.TreeNode {
		return nil, fmt.Errorf("elaborate: not a command tree")
	}
	switch t.Rule {
	case sd.CmdModule:
		return &Action{Kind: ActModule, Name: t.LeafText(1), Span: t.Span}, nil
	case sd.CmdCategory:
		return &Action{Kind: ActCategory, Name: t.LeafText(1), Span: t.Span}, nil
	case sd.CmdSyntax:
		return elabSyntax(sd, t)
	case sd.CmdNotation:
		return &Action{
			Kind:    ActNotation,
			Name:    t.LeafText(1),
			CatName: t.LeafText(2),
			Body:    t.Child(4),
			Span:    t.Span,
		}, nil
	case sd.CmdDefinition:
		return &Action{
			Kind:    ActDefinition,
			Name:    t.LeafText(1),
			CatName: t.LeafText(2),
			Body:    t.Child(4),
			Span:    t.Span,
		}, nil
	case sd.CmdDefinitionProved:
		return elabDefinitionProved(sd, t)
	case sd.CmdAxiom:
		return elabStatement(sd, t, true)
	case sd.CmdTheorem:
		return elabStatement(sd, t, false)
	default:
		return nil, fmt.Errorf("elaborate: rule %d is not a command", t.Rule)
	}
}

func elabSyntax(sd *grammar.Seed, t *parser.Tree) (*Action, error) {
	prec, err := strconv.Atoi(t.LeafText(4))
	if err != nil || prec < 0 {
		return nil, fmt.Errorf("%s: precedence must be a non-negative number", t.Child(4).Span.Start)
	}

	assoc := grammar.NonAssoc
	if opt := t.Child(5); opt != nil && opt.Kind == parser.TreeNode {
		switch opt.Rule {
		case sd.AssocLeft:
			assoc = grammar.LeftAssoc
		case sd.AssocRight:
			assoc = grammar.RightAssoc
		}
	}

	parts, err := patternParts(sd, t.Child(6))
	if err != nil {
		return nil, err
	}

	return &Action{
		Kind:       ActSyntax,
		Name:       t.LeafText(1),
		CatName:    t.LeafText(2),
		Precedence: prec,
		Assoc:      assoc,
		Parts:      parts,
		Span:       t.Span,
	}, nil
}

func patternParts(sd *grammar.Seed, t *parser.Tree) ([]PartSpec, error) {
	var parts []PartSpec
	for cur := t; cur != nil; {
		var partTree, rest *parser.Tree
		switch cur.Rule {
		case sd.PatOne:
			partTree = cur.Child(0)
		case sd.PatMany:
			partTree = cur.Child(0)
			rest = cur.Child(1)
		default:
			return nil, fmt.Errorf("%s: malformed syntax pattern", cur.Span.Start)
		}
		spec, err := patternPart(sd, partTree)
		if err != nil {
			return nil, err
		}
		parts = append(parts, spec)
		cur = rest
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%s: empty syntax pattern", t.Span.Start)
	}
	return parts, nil
}

func patternPart(sd *grammar.Seed, t *parser.Tree) (PartSpec, error) {
	switch t.Rule {
	case sd.PatLit:
		return PartSpec{Kind: grammar.PartLit, Text: t.LeafText(0), Span: t.Span}, nil
	case sd.PatCat:
		return PartSpec{Kind: grammar.PartCat, Text: t.LeafText(0), Span: t.Span}, nil
	case sd.PatBinding:
		return PartSpec{Kind: grammar.PartBinding, Text: t.LeafText(3), Span: t.Span}, nil
	case sd.PatVariable:
		return PartSpec{Kind: grammar.PartVariable, Text: t.LeafText(3), Span: t.Span}, nil
	default:
		return PartSpec{}, fmt.Errorf("%s: malformed pattern part", t.Span.Start)
	}
}

// elabDefinitionProved handles the definition form that proves a
// characterizing statement: the defined fragment plus hypotheses, a
// conclusion and a proof script, all verified like a theorem.
func elabDefinitionProved(sd *grammar.Seed, t *parser.Tree) (*Action, error) {
	hyps, err := hypothesisTrees(sd, t.Child(6))
	if err != nil {
		return nil, err
	}
	return &Action{
		Kind:       ActDefinition,
		Name:       t.LeafText(1),
		CatName:    t.LeafText(2),
		Body:       t.Child(4),
		Hypotheses: hyps,
		Conclusion: t.Child(8),
		Proof:      t.Child(10),
		Span:       t.Span,
	}, nil
}

func elabStatement(sd *grammar.Seed, t *parser.Tree, isAxiom bool) (*Action, error) {
	templates, err := templateDecls(sd, t.Child(2))
	if err != nil {
		return nil, err
	}
	hyps, err := hypothesisTrees(sd, t.Child(4))
	if err != nil {
		return nil, err
	}

	act := &Action{
		Kind:       ActStatement,
		Name:       t.LeafText(1),
		IsAxiom:    isAxiom,
		Templates:  templates,
		Hypotheses: hyps,
		Conclusion: t.Child(6),
		Span:       t.Span,
	}
	if !isAxiom {
		act.Proof = t.Child(8)
	}
	return act, nil
}

func templateDecls(sd *grammar.Seed, t *parser.Tree) ([]TemplateDecl, error) {
	var decls []TemplateDecl
	for cur := t; cur != nil && cur.Rule == sd.TemplatesMany; cur = cur.Child(1) {
		tmpl := cur.Child(0)
		decl := TemplateDecl{
			Name:    tmpl.LeafText(2),
			CatName: tmpl.LeafText(5),
			Span:    tmpl.Span,
		}
		if opt := tmpl.Child(1); opt != nil && opt.Rule == sd.FreshSome {
			decl.Fresh = true
		}
		if opt := tmpl.Child(3); opt != nil && opt.Rule == sd.TParamsSome {
			for p := opt.Child(1); p != nil; {
				decl.HoleCats = append(decl.HoleCats, p.LeafText(0))
				if p.Rule == sd.TParamsMany {
					p = p.Child(2)
				} else {
					p = nil
				}
			}
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func hypothesisTrees(sd *grammar.Seed, t *parser.Tree) ([]FactTree, error) {
	var hyps []FactTree
	for cur := t; cur != nil && cur.Rule == sd.HypsMany; cur = cur.Child(1) {
		fact := cur.Child(0).Child(1)
		ft, err := FactOf(sd, fact)
		if err != nil {
			return nil, err
		}
		hyps = append(hyps, ft)
	}
	return hyps, nil
}

// FactOf converts a fact tree into its assumption/conclusion parts.
func FactOf(sd *grammar.Seed, t *parser.Tree) (FactTree, error) {
	switch t.Rule {
	case sd.FactBare:
		return FactTree{Conclusion: t.Child(0), Span: t.Span}, nil
	case sd.FactAssume:
		return FactTree{
			Assumptions: []*parser.Tree{t.Child(1)},
			Conclusion:  t.Child(3),
			Span:        t.Span,
		}, nil
	default:
		return FactTree{}, fmt.Errorf("%s: malformed fact", t.Span.Start)
	}
}

// StepKind discriminates the tactic step variants.
type StepKind int8

const (
	// StepHave cites a theorem to establish a fact.
	StepHave StepKind = iota
	// StepAssume pushes an assumption.
	StepAssume
	// StepDismiss pops the innermost assumption.
	StepDismiss
	// StepTodo closes the goal without proof, tainting the certificate.
	StepTodo
)

// Step is the tree form of one tactic step.
type Step struct {
	Kind StepKind
	Fact FactTree       // StepHave
	By   string         // StepHave: cited name
	Args []*parser.Tree // StepHave: template argument trees
	Body *parser.Tree   // StepAssume: the assumed sentence
	Span token.Span
}

// Steps flattens a tactics tree into its ordered steps.
func Steps(sd *grammar.Seed, t *parser.Tree) ([]Step, error) {
	var steps []Step
	for cur := t; cur != nil && cur.Rule == sd.TacticsMany; cur = cur.Child(1) {
		step, err := stepOf(sd, cur.Child(0))
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func stepOf(sd *grammar.Seed, t *parser.Tree) (Step, error) {
	switch t.Rule {
	case sd.TacticHave:
		ft, err := FactOf(sd, t.Child(1))
		if err != nil {
			return Step{}, err
		}
		var args []*parser.Tree
		for cur := t.Child(4); cur != nil && cur.Rule == sd.InstsMany; cur = cur.Child(1) {
			args = append(args, cur.Child(0).Child(1))
		}
		return Step{Kind: StepHave, Fact: ft, By: t.LeafText(3), Args: args, Span: t.Span}, nil
	case sd.TacticAssume:
		return Step{Kind: StepAssume, Body: t.Child(1), Span: t.Span}, nil
	case sd.TacticDismiss:
		return Step{Kind: StepDismiss, Span: t.Span}, nil
	case sd.TacticTodo:
		return Step{Kind: StepTodo, Span: t.Span}, nil
	default:
		return Step{}, fmt.Errorf("%s: malformed tactic step", t.Span.Start)
	}
}
