package frag

import "github.com/leapstack-labs/sequent/pkg/grammar"

// ParamKind classifies a template parameter.
type ParamKind int8

const (
	// ParamPlain is an ordinary named parameter.
	ParamPlain ParamKind = iota
	// ParamFresh is an existentially-scoped name. The flag is declarative:
	// it is recorded and carried through the scope, but instantiation does
	// not yet check the supplied argument against existing bindings.
	ParamFresh
	// ParamSchema stands for an arbitrary fragment with numbered holes,
	// one per declared hole category.
	ParamSchema
)

// TemplateParam is one parameter of a theorem, axiom or definition.
type TemplateParam struct {
	Name string
	Cat  grammar.CategoryID
	Kind ParamKind
	// Holes lists the categories of the parameter's holes, in order.
	// Empty for plain and fresh parameters.
	Holes []grammar.CategoryID
}

// Template is the parameter list of a statement.
type Template struct {
	Params []TemplateParam
}

// Bind extends a scope with one entry per template parameter, making the
// parameters referable while resolving the statement's facts.
func (t Template) Bind(s *Scope) *Scope {
	out := s
	for i, p := range t.Params {
		out = out.WithTemplate(p.Name, i, p.Cat, p.Holes, p.Kind == ParamFresh)
	}
	return out
}
