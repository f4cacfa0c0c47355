package engine

import (
	"github.com/leapstack-labs/sequent/internal/elab"
	"github.com/leapstack-labs/sequent/pkg/frag"
	"github.com/leapstack-labs/sequent/pkg/grammar"
	"github.com/leapstack-labs/sequent/pkg/kernel"
)

// applyAction is the single point where elaborated actions mutate the
// grammar, the scope, and the theorem queue.
func (e *Engine) applyAction(act *elab.Action) error {
	switch act.Kind {
	case elab.ActModule:
		e.module = act.Name
		return nil
	case elab.ActCategory:
		_, err := e.seed.AddFormalCategory(e.g, act.Name)
		return err
	case elab.ActSyntax:
		return e.applySyntax(act)
	case elab.ActNotation:
		return e.applyNotation(act)
	case elab.ActDefinition:
		return e.applyDefinition(act)
	case elab.ActStatement:
		return e.applyStatement(act)
	}
	return nil
}

func (e *Engine) category(name string, at elab.PartSpec) (grammar.CategoryID, error) {
	id, ok := e.g.CategoryByName(name)
	if !ok || !e.g.Category(id).Formal {
		return grammar.NoCategory, &frag.ResolutionError{
			Name: name, Span: at.Span, Msg: "not a declared category",
		}
	}
	return id, nil
}

func (e *Engine) applySyntax(act *elab.Action) error {
	cat, err := e.category(act.CatName, elab.PartSpec{Span: act.Span})
	if err != nil {
		return err
	}

	parts := make([]grammar.PatternPart, len(act.Parts))
	for i, spec := range act.Parts {
		switch spec.Kind {
		case grammar.PartLit:
			parts[i] = grammar.Lit(spec.Text)
		case grammar.PartCat:
			id, err := e.category(spec.Text, spec)
			if err != nil {
				return err
			}
			parts[i] = grammar.Cat(id)
		case grammar.PartBinding:
			id, err := e.category(spec.Text, spec)
			if err != nil {
				return err
			}
			parts[i] = grammar.Binding(id)
		case grammar.PartVariable:
			id, err := e.category(spec.Text, spec)
			if err != nil {
				return err
			}
			parts[i] = grammar.Variable(id)
		}
	}

	id, err := e.g.AddRule(act.Name, cat, parts, act.Precedence, act.Assoc, grammar.SourceSyntax)
	if err != nil {
		return err
	}
	e.logger.Debug("added syntax rule", "rule", act.Name, "category", act.CatName, "id", id)
	return nil
}

func (e *Engine) applyNotation(act *elab.Action) error {
	cat, err := e.category(act.CatName, elab.PartSpec{Span: act.Span})
	if err != nil {
		return err
	}
	pf, err := e.resolver.Resolve(act.Body, e.scope, cat)
	if err != nil {
		return err
	}
	e.scope = e.scope.WithNotation(act.Name, pf, cat)
	e.logger.Debug("bound notation", "name", act.Name, "category", act.CatName)
	return nil
}

// applyDefinition binds the defined name in scope. The proved form also
// queues its characterizing statement; once certified, later proofs can
// cite it under the definition's name. The statement resolves after the
// binding so its facts may mention the defined name.
func (e *Engine) applyDefinition(act *elab.Action) error {
	if err := e.applyNotation(act); err != nil {
		return err
	}
	if act.Conclusion == nil {
		return nil
	}
	return e.applyStatement(act)
}

func (e *Engine) applyStatement(act *elab.Action) error {
	tmpl, err := e.buildTemplate(act.Templates)
	if err != nil {
		return err
	}
	bound := tmpl.Bind(e.scope)
	sentence := e.seed.Sentence

	hyps := make([]frag.Fact, 0, len(act.Hypotheses))
	for _, ft := range act.Hypotheses {
		fact, err := e.resolveFact(ft, bound, sentence)
		if err != nil {
			return err
		}
		hyps = append(hyps, fact)
	}

	pf, err := e.resolver.Resolve(act.Conclusion, bound, sentence)
	if err != nil {
		return err
	}
	// The trust boundary: statements may reference their own template
	// parameters but must be hole-free and closed.
	if _, err := kernel.NewSafeFrag(e.arena, pf.Frag, sentence); err != nil {
		return err
	}

	stmt := &kernel.TheoremStatement{
		Name:           act.Name,
		Module:         e.module,
		Template:       tmpl,
		Hypotheses:     hyps,
		Conclusion:     pf.Frag,
		ConclusionPres: pf.Pres,
		IsAxiom:        act.IsAxiom,
		Proof:          act.Proof,
		Span:           act.Span,
	}
	if err := e.queue(stmt, bound); err != nil {
		return err
	}
	e.logger.Debug("queued statement", "name", act.Name, "axiom", act.IsAxiom)
	return nil
}

func (e *Engine) buildTemplate(decls []elab.TemplateDecl) (frag.Template, error) {
	var tmpl frag.Template
	for _, d := range decls {
		cat, err := e.category(d.CatName, elab.PartSpec{Span: d.Span})
		if err != nil {
			return frag.Template{}, err
		}
		param := frag.TemplateParam{Name: d.Name, Cat: cat, Kind: frag.ParamPlain}
		switch {
		case len(d.HoleCats) > 0:
			param.Kind = frag.ParamSchema
			for _, hc := range d.HoleCats {
				hcat, err := e.category(hc, elab.PartSpec{Span: d.Span})
				if err != nil {
					return frag.Template{}, err
				}
				param.Holes = append(param.Holes, hcat)
			}
		case d.Fresh:
			param.Kind = frag.ParamFresh
		}
		tmpl.Params = append(tmpl.Params, param)
	}
	return tmpl, nil
}

func (e *Engine) resolveFact(ft elab.FactTree, scope *frag.Scope, sentence grammar.CategoryID) (frag.Fact, error) {
	var fact frag.Fact
	for _, a := range ft.Assumptions {
		pf, err := e.resolver.Resolve(a, scope, sentence)
		if err != nil {
			return frag.Fact{}, err
		}
		fact.Assumptions = append(fact.Assumptions, pf.Frag)
	}
	pf, err := e.resolver.Resolve(ft.Conclusion, scope, sentence)
	if err != nil {
		return frag.Fact{}, err
	}
	fact.Conclusion = pf.Frag
	return fact, nil
}
