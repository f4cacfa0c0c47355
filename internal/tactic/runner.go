// Package tactic drives proof scripts against the kernel. The runner is
// deliberately thin: it resolves the script's fragments and decides which
// ProofState operation to call; the kernel alone decides validity.
package tactic

import (
	"fmt"

	"github.com/leapstack-labs/sequent/internal/elab"
	"github.com/leapstack-labs/sequent/pkg/frag"
	"github.com/leapstack-labs/sequent/pkg/grammar"
	"github.com/leapstack-labs/sequent/pkg/kernel"
)

// Runner executes one theorem's tactic script.
type Runner struct {
	G        *grammar.State
	Seed     *grammar.Seed
	Arena    *frag.Arena
	Resolver *frag.Resolver
	Sentence grammar.CategoryID
	Lookup   kernel.Lookup
}

// Run replays the statement's proof script step by step and asks the
// kernel for completion. The scope must already carry the statement's
// template parameters and the notations visible at its declaration.
func (r *Runner) Run(stmt *kernel.TheoremStatement, scope *frag.Scope) (*kernel.Certificate, error) {
	ps := kernel.NewProofState(r.Arena, r.G, stmt, r.Lookup)

	steps, err := elab.Steps(r.Seed, stmt.Proof)
	if err != nil {
		return nil, err
	}
	for _, step := range steps {
		if err := r.apply(ps, step, scope); err != nil {
			return nil, err
		}
	}
	return ps.Complete()
}

func (r *Runner) apply(ps *kernel.ProofState, step elab.Step, scope *frag.Scope) error {
	switch step.Kind {
	case elab.StepAssume:
		pf, err := r.Resolver.Resolve(step.Body, scope, r.Sentence)
		if err != nil {
			return err
		}
		sf, err := kernel.NewSafeFrag(r.Arena, pf.Frag, r.Sentence)
		if err != nil {
			return err
		}
		return ps.AddAssumption(sf)

	case elab.StepDismiss:
		return ps.Dismiss()

	case elab.StepTodo:
		return ps.ApplyTodo()

	case elab.StepHave:
		return r.have(ps, step, scope)

	default:
		return fmt.Errorf("unknown tactic step")
	}
}

func (r *Runner) have(ps *kernel.ProofState, step elab.Step, scope *frag.Scope) error {
	cited, ok := r.Lookup(step.By)
	if !ok {
		return &kernel.UnknownTheoremError{Name: step.By}
	}
	if len(step.Args) != len(cited.Template.Params) {
		return &kernel.ArityError{Theorem: step.By, Got: len(step.Args), Want: len(cited.Template.Params)}
	}

	args := make([]frag.FragmentID, len(step.Args))
	for i, tree := range step.Args {
		pf, err := r.Resolver.Resolve(tree, scope, cited.Template.Params[i].Cat)
		if err != nil {
			return err
		}
		args[i] = pf.Frag
	}

	if err := ps.ApplyTheorem(step.By, args); err != nil {
		return err
	}

	// The step states the fact it claims to establish; holding the kernel
	// to that statement catches citations that prove something else.
	stated, err := r.resolveFact(step.Fact, scope)
	if err != nil {
		return err
	}
	if !ps.Known(stated) {
		return &kernel.StateError{
			Msg: fmt.Sprintf("%s: step does not establish its stated fact", step.Span.Start),
		}
	}
	return nil
}

func (r *Runner) resolveFact(ft elab.FactTree, scope *frag.Scope) (frag.Fact, error) {
	var out frag.Fact
	for _, a := range ft.Assumptions {
		pf, err := r.Resolver.Resolve(a, scope, r.Sentence)
		if err != nil {
			return frag.Fact{}, err
		}
		out.Assumptions = append(out.Assumptions, pf.Frag)
	}
	pf, err := r.Resolver.Resolve(ft.Conclusion, scope, r.Sentence)
	if err != nil {
		return frag.Fact{}, err
	}
	out.Conclusion = pf.Frag
	return out, nil
}
