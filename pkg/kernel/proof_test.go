package kernel

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/leapstack-labs/sequent/pkg/frag"
	"github.com/leapstack-labs/sequent/pkg/grammar"
)

// proofEnv is a minimal equality theory: ident proves x = x for any term,
// subst rewrites along a known equation through an arbitrary sentence
// schema, and eq_comm is the theorem under proof (x = y |- y = x).
type proofEnv struct {
	g        *grammar.State
	a        *frag.Arena
	term     grammar.CategoryID
	sentence grammar.CategoryID
	eq       grammar.RuleID
	stmts    map[string]*TheoremStatement
}

func newProofEnv(t *testing.T) *proofEnv {
	t.Helper()
	g := grammar.NewState()
	sd := grammar.NewSeed(g)
	term, err := sd.AddFormalCategory(g, "term")
	if err != nil {
		t.Fatal(err)
	}
	eq, err := g.AddRule("eq", sd.Sentence, []grammar.PatternPart{
		grammar.Cat(term), grammar.Lit("="), grammar.Cat(term),
	}, 500, grammar.NonAssoc, grammar.SourceSyntax)
	if err != nil {
		t.Fatal(err)
	}

	env := &proofEnv{
		g: g, a: frag.NewArena(),
		term: term, sentence: sd.Sentence, eq: eq,
		stmts: make(map[string]*TheoremStatement),
	}

	x := env.tref(term, 0)
	y := env.tref(term, 1)

	env.stmts["ident"] = &TheoremStatement{
		Name: "ident",
		Template: frag.Template{Params: []frag.TemplateParam{
			{Name: "x", Cat: term, Kind: frag.ParamPlain},
		}},
		Conclusion: env.eqOf(x, x),
		IsAxiom:    true,
	}

	env.stmts["subst"] = &TheoremStatement{
		Name: "subst",
		Template: frag.Template{Params: []frag.TemplateParam{
			{Name: "x", Cat: term, Kind: frag.ParamPlain},
			{Name: "y", Cat: term, Kind: frag.ParamPlain},
			{Name: "p", Cat: sd.Sentence, Kind: frag.ParamSchema, Holes: []grammar.CategoryID{term}},
		}},
		Hypotheses: []frag.Fact{
			frag.BareFact(env.schemaApp(2, x)),
			frag.BareFact(env.eqOf(x, y)),
		},
		Conclusion: env.schemaApp(2, y),
		IsAxiom:    true,
	}

	env.stmts["eq_comm"] = &TheoremStatement{
		Name: "eq_comm",
		Template: frag.Template{Params: []frag.TemplateParam{
			{Name: "x", Cat: term, Kind: frag.ParamPlain},
			{Name: "y", Cat: term, Kind: frag.ParamPlain},
		}},
		Hypotheses: []frag.Fact{frag.BareFact(env.eqOf(x, y))},
		Conclusion: env.eqOf(y, x),
	}
	return env
}

func (env *proofEnv) lookup(name string) (*TheoremStatement, bool) {
	s, ok := env.stmts[name]
	return s, ok
}

func (env *proofEnv) tref(cat grammar.CategoryID, i int) frag.FragmentID {
	id, err := env.a.Intern(cat, frag.TemplateRefHead(i), nil)
	if err != nil {
		panic(err)
	}
	return id
}

func (env *proofEnv) eqOf(l, r frag.FragmentID) frag.FragmentID {
	id, err := env.a.Intern(env.sentence, frag.RuleHead(env.eq, 0), []frag.FragmentID{l, r})
	if err != nil {
		panic(err)
	}
	return id
}

func (env *proofEnv) schemaApp(idx int, arg frag.FragmentID) frag.FragmentID {
	id, err := env.a.Intern(env.sentence, frag.TemplateRefHead(idx), []frag.FragmentID{arg})
	if err != nil {
		panic(err)
	}
	return id
}

func (env *proofEnv) open(t *testing.T, name string) *ProofState {
	t.Helper()
	stmt, ok := env.stmts[name]
	if !ok {
		t.Fatalf("no statement %q", name)
	}
	return NewProofState(env.a, env.g, stmt, env.lookup)
}

func TestProof_EqualityIsSymmetric(t *testing.T) {
	env := newProofEnv(t)
	ps := env.open(t, "eq_comm")

	x := env.tref(env.term, 0)
	y := env.tref(env.term, 1)

	if err := ps.ApplyTheorem("ident", []frag.FragmentID{x}); err != nil {
		t.Fatal(err)
	}
	if !ps.Known(frag.BareFact(env.eqOf(x, x))) {
		t.Fatal("x = x should be known after citing ident")
	}

	// Rewrite x = x along x = y through the schema _0 = x, yielding y = x.
	hole, _ := env.a.Intern(env.term, frag.HoleHead(0), nil)
	schema := env.eqOf(hole, x)
	if err := ps.ApplyTheorem("subst", []frag.FragmentID{x, y, schema}); err != nil {
		t.Fatal(err)
	}

	cert, err := ps.Complete()
	if err != nil {
		t.Fatal(err)
	}
	if cert.Theorem != "eq_comm" {
		t.Errorf("certificate theorem = %q", cert.Theorem)
	}
	if len(cert.TheoremsUsed) != 2 || cert.TheoremsUsed[0] != "ident" || cert.TheoremsUsed[1] != "subst" {
		t.Errorf("theorems used = %v, want [ident subst]", cert.TheoremsUsed)
	}
	if cert.UsesTodo {
		t.Error("clean proof should not carry the todo taint")
	}
	if cert.ID == uuid.Nil {
		t.Error("certificate should carry a fresh id")
	}
}

func TestProof_UnresolvedGoal(t *testing.T) {
	env := newProofEnv(t)
	ps := env.open(t, "eq_comm")

	x := env.tref(env.term, 0)
	if err := ps.ApplyTheorem("ident", []frag.FragmentID{x}); err != nil {
		t.Fatal(err)
	}

	_, err := ps.Complete()
	var ug *UnresolvedGoalError
	if !errors.As(err, &ug) {
		t.Fatalf("got %v, want UnresolvedGoalError", err)
	}
	if ug.Goal != "y = x" {
		t.Errorf("goal text = %q, want %q", ug.Goal, "y = x")
	}
}

func TestProof_HypothesisMismatch(t *testing.T) {
	env := newProofEnv(t)
	ps := env.open(t, "eq_comm")

	x := env.tref(env.term, 0)
	y := env.tref(env.term, 1)
	hole, _ := env.a.Intern(env.term, frag.HoleHead(0), nil)
	schema := env.eqOf(hole, x)

	// Without ident, the instantiated hypothesis x = x is not known.
	err := ps.ApplyTheorem("subst", []frag.FragmentID{x, y, schema})
	var hm *HypothesisMismatchError
	if !errors.As(err, &hm) {
		t.Fatalf("got %v, want HypothesisMismatchError", err)
	}
	if hm.Theorem != "subst" || hm.Hypothesis != "x = x" {
		t.Errorf("mismatch = %+v", hm)
	}
}

func TestProof_CitationErrors(t *testing.T) {
	env := newProofEnv(t)
	ps := env.open(t, "eq_comm")
	x := env.tref(env.term, 0)

	var ut *UnknownTheoremError
	if err := ps.ApplyTheorem("refl", nil); !errors.As(err, &ut) {
		t.Errorf("unknown citation: got %v", err)
	}

	var ae *ArityError
	err := ps.ApplyTheorem("ident", nil)
	if !errors.As(err, &ae) {
		t.Fatalf("missing argument: got %v", err)
	}
	if ae.Got != 0 || ae.Want != 1 {
		t.Errorf("arity = %+v", ae)
	}

	var ce *ArgumentCategoryError
	err = ps.ApplyTheorem("ident", []frag.FragmentID{env.eqOf(x, x)})
	if !errors.As(err, &ce) {
		t.Fatalf("wrong category: got %v", err)
	}
	if ce.Expected != "term" || ce.Got != "sentence" {
		t.Errorf("categories = %+v", ce)
	}
}

// A hole supplied for a plain parameter must stop at the trust boundary;
// otherwise a hole-bearing fact enters the known set.
func TestProof_HoleArgumentRejected(t *testing.T) {
	env := newProofEnv(t)
	ps := env.open(t, "eq_comm")

	hole, err := env.a.Intern(env.term, frag.HoleHead(0), nil)
	if err != nil {
		t.Fatal(err)
	}

	var me *frag.MalformedError
	if err := ps.ApplyTheorem("ident", []frag.FragmentID{hole}); !errors.As(err, &me) {
		t.Fatalf("got %v, want MalformedError", err)
	}
	if ps.Known(frag.BareFact(env.eqOf(hole, hole))) {
		t.Error("hole-bearing fact must not become known")
	}

	// A schema argument may carry holes; that is what schemas are for.
	x := env.tref(env.term, 0)
	y := env.tref(env.term, 1)
	if err := ps.ApplyTheorem("ident", []frag.FragmentID{x}); err != nil {
		t.Fatal(err)
	}
	if err := ps.ApplyTheorem("subst", []frag.FragmentID{x, y, env.eqOf(hole, x)}); err != nil {
		t.Fatalf("schema argument with a hole: %v", err)
	}
}

func TestProof_UnclosedArgumentRejected(t *testing.T) {
	env := newProofEnv(t)
	ps := env.open(t, "eq_comm")

	free, err := env.a.Intern(env.term, frag.VarHead(env.term, 0), nil)
	if err != nil {
		t.Fatal(err)
	}

	var me *frag.MalformedError
	if err := ps.ApplyTheorem("ident", []frag.FragmentID{free}); !errors.As(err, &me) {
		t.Fatalf("got %v, want MalformedError", err)
	}
}

// Facts proven under an assumption survive its dismissal only in
// hypothetical form.
func TestProof_AssumeAndDismiss(t *testing.T) {
	env := newProofEnv(t)
	ps := env.open(t, "eq_comm")

	x := env.tref(env.term, 0)
	y := env.tref(env.term, 1)
	s := env.eqOf(y, y)
	sf, err := NewSafeFrag(env.a, s, env.sentence)
	if err != nil {
		t.Fatal(err)
	}

	if err := ps.AddAssumption(sf); err != nil {
		t.Fatal(err)
	}
	if !ps.Known(frag.BareFact(s)) {
		t.Fatal("assumption should be immediately known")
	}
	if err := ps.ApplyTheorem("ident", []frag.FragmentID{x}); err != nil {
		t.Fatal(err)
	}

	// Completion is blocked while the assumption is in force.
	var se *StateError
	if _, err := ps.Complete(); !errors.As(err, &se) {
		t.Fatalf("complete under assumption: got %v", err)
	}

	if err := ps.Dismiss(); err != nil {
		t.Fatal(err)
	}
	xx := env.eqOf(x, x)
	if ps.Known(frag.BareFact(xx)) {
		t.Error("fact proven under the assumption must not survive outright")
	}
	if !ps.Known(frag.Fact{Assumptions: []frag.FragmentID{s}, Conclusion: xx}) {
		t.Error("fact should survive in hypothetical form")
	}

	if err := ps.Dismiss(); !errors.As(err, &se) {
		t.Errorf("dismiss with empty stack: got %v", err)
	}
}

func TestProof_TodoTaintsCertificate(t *testing.T) {
	env := newProofEnv(t)
	ps := env.open(t, "eq_comm")

	if err := ps.ApplyTodo(); err != nil {
		t.Fatal(err)
	}
	cert, err := ps.Complete()
	if err != nil {
		t.Fatal(err)
	}
	if !cert.UsesTodo {
		t.Error("todo step should taint the certificate")
	}
	if len(cert.TheoremsUsed) != 0 {
		t.Errorf("theorems used = %v, want none", cert.TheoremsUsed)
	}
}

func TestStatus_String(t *testing.T) {
	cases := map[Status]string{
		StatusPending:       "pending",
		StatusCertified:     "certified",
		StatusCertifiedTodo: "certified (todo)",
		StatusFailed:        "failed",
	}
	for st, want := range cases {
		if got := st.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", st, got, want)
		}
	}
}
