package kernel

import (
	"sort"

	"github.com/google/uuid"

	"github.com/leapstack-labs/sequent/pkg/frag"
	"github.com/leapstack-labs/sequent/pkg/grammar"
)

// Lookup resolves a cited name to its statement. The kernel never reaches
// past this boundary; whoever supplies it decides visibility and ordering.
type Lookup func(name string) (*TheoremStatement, bool)

// Certificate is the kernel's receipt for one verified theorem.
type Certificate struct {
	ID           uuid.UUID
	Theorem      string
	TheoremsUsed []string
	UsesTodo     bool
}

// Status is the verification outcome of one theorem.
type Status int8

const (
	// StatusPending means verification has not run.
	StatusPending Status = iota
	// StatusCertified means the proof closed with no todo steps.
	StatusCertified
	// StatusCertifiedTodo means the proof closed but a todo step (its own
	// or a dependency's) taints the certificate.
	StatusCertifiedTodo
	// StatusFailed means verification failed or was skipped because a
	// dependency failed or cycled.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCertified:
		return "certified"
	case StatusCertifiedTodo:
		return "certified (todo)"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// ProofState is the per-theorem verification state machine. It starts with
// the statement's declared hypotheses as known facts and the conclusion as
// the goal; tactic steps push assumptions, apply cited theorems, and
// finally ask for completion. The state reads the shared arena and grammar
// but never writes outside its own maps, so independent proofs can run
// concurrently over one arena once elaboration has finished appending.
type ProofState struct {
	arena *frag.Arena
	g     *grammar.State
	stmt  *TheoremStatement
	look  Lookup

	knowns   map[string]frag.Fact
	stack    []assumptionFrame
	used     map[string]struct{}
	usesTodo bool
}

type assumptionFrame struct {
	frag  frag.FragmentID
	saved map[string]frag.Fact
}

// NewProofState opens a proof for one theorem statement.
func NewProofState(a *frag.Arena, g *grammar.State, stmt *TheoremStatement, look Lookup) *ProofState {
	ps := &ProofState{
		arena:  a,
		g:      g,
		stmt:   stmt,
		look:   look,
		knowns: make(map[string]frag.Fact),
		used:   make(map[string]struct{}),
	}
	for _, h := range stmt.Hypotheses {
		ps.knowns[h.Key()] = h
	}
	return ps
}

// AddAssumption pushes a sentence as a new assumption. Facts proven while
// it is in force become hypothetical when it is dismissed.
func (ps *ProofState) AddAssumption(sf SafeFrag) error {
	saved := make(map[string]frag.Fact, len(ps.knowns))
	for k, v := range ps.knowns {
		saved[k] = v
	}
	ps.stack = append(ps.stack, assumptionFrame{frag: sf.ID(), saved: saved})
	f := frag.BareFact(sf.ID())
	ps.knowns[f.Key()] = f
	return nil
}

// Dismiss pops the innermost assumption. Every fact proven under it
// survives in hypothetical form, with the assumption prepended.
func (ps *ProofState) Dismiss() error {
	if len(ps.stack) == 0 {
		return &StateError{Msg: "dismiss with no assumption in force"}
	}
	frame := ps.stack[len(ps.stack)-1]
	ps.stack = ps.stack[:len(ps.stack)-1]

	discharged := frame.saved
	for key, f := range ps.knowns {
		if _, ok := frame.saved[key]; ok {
			continue
		}
		under := f.Under(frame.frag)
		discharged[under.Key()] = under
	}
	ps.knowns = discharged
	return nil
}

// ApplyTheorem cites a theorem or axiom, substituting args for its
// template parameters. Arguments are held to the SafeFrag boundary, with
// schema parameters the only ones that may carry holes. Each substituted
// hypothesis must already be a known fact; on success the substituted
// conclusion becomes known.
func (ps *ProofState) ApplyTheorem(name string, args []frag.FragmentID) error {
	cited, ok := ps.look(name)
	if !ok {
		return &UnknownTheoremError{Name: name}
	}
	if len(args) != len(cited.Template.Params) {
		return &ArityError{Theorem: name, Got: len(args), Want: len(cited.Template.Params)}
	}
	for i, p := range cited.Template.Params {
		f := ps.arena.Get(args[i])
		if f.Cat != p.Cat {
			return &ArgumentCategoryError{
				Theorem:  name,
				Param:    p.Name,
				Expected: ps.g.Category(p.Cat).Name,
				Got:      ps.g.Category(f.Cat).Name,
			}
		}
		// Schema arguments are the one place holes are legitimate; every
		// other argument crosses the trust boundary whole and closed.
		if p.Kind == frag.ParamSchema {
			if f.Unclosed() > 0 {
				return &frag.MalformedError{Reason: "citation argument with an unclosed binder reached the kernel"}
			}
		} else if _, err := NewSafeFrag(ps.arena, args[i], p.Cat); err != nil {
			return err
		}
	}

	in := &instantiator{arena: ps.arena, args: args}
	printer := &Printer{Arena: ps.arena, G: ps.g, Params: ps.stmt.ParamNames()}
	for _, h := range cited.Hypotheses {
		inst, err := in.fact(h)
		if err != nil {
			return err
		}
		if _, ok := ps.knowns[inst.Key()]; !ok {
			return &HypothesisMismatchError{Theorem: name, Hypothesis: printer.Fact(inst)}
		}
	}

	conclusion, err := in.walk(cited.Conclusion, 0)
	if err != nil {
		return err
	}
	f := frag.BareFact(conclusion)
	ps.knowns[f.Key()] = f
	ps.used[name] = struct{}{}
	return nil
}

// ApplyTodo closes the goal without proof, tainting any certificate this
// proof produces.
func (ps *ProofState) ApplyTodo() error {
	ps.usesTodo = true
	f := frag.BareFact(ps.stmt.Conclusion)
	ps.knowns[f.Key()] = f
	return nil
}

// Known reports whether a fact is currently established.
func (ps *ProofState) Known(f frag.Fact) bool {
	_, ok := ps.knowns[f.Key()]
	return ok
}

// Complete checks that the conclusion is known with no assumption left in
// force, and issues the certificate.
func (ps *ProofState) Complete() (*Certificate, error) {
	if len(ps.stack) != 0 {
		return nil, &StateError{Msg: "assumptions remain at the end of the proof"}
	}
	goal := frag.BareFact(ps.stmt.Conclusion)
	if _, ok := ps.knowns[goal.Key()]; !ok {
		return nil, &UnresolvedGoalError{Goal: ps.goalText()}
	}

	used := make([]string, 0, len(ps.used))
	for name := range ps.used {
		used = append(used, name)
	}
	sort.Strings(used)
	return &Certificate{
		ID:           uuid.New(),
		Theorem:      ps.stmt.Name,
		TheoremsUsed: used,
		UsesTodo:     ps.usesTodo,
	}, nil
}

func (ps *ProofState) goalText() string {
	if ps.stmt.ConclusionPres != nil {
		return ps.stmt.ConclusionPres.Render()
	}
	p := &Printer{Arena: ps.arena, G: ps.g, Params: ps.stmt.ParamNames()}
	return p.Frag(ps.stmt.Conclusion)
}

// Sentence returns the judgment category a proof's assumptions must have.
func (ps *ProofState) Sentence() grammar.CategoryID {
	return ps.arena.Get(ps.stmt.Conclusion).Cat
}

// Arena exposes the shared fragment store for tactic-side resolution.
func (ps *ProofState) Arena() *frag.Arena { return ps.arena }
