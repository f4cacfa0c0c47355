package frag

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/sequent/pkg/grammar"
	"github.com/leapstack-labs/sequent/pkg/parser"
)

// resolveEnv is a grammar with term and sentence, equality over terms, and
// a universal quantifier that binds one term variable.
type resolveEnv struct {
	g        *grammar.State
	sd       *grammar.Seed
	arena    *Arena
	resolver *Resolver
	term     grammar.CategoryID
	eq       *grammar.Rule
	forall   *grammar.Rule
}

func newResolveEnv(t *testing.T) *resolveEnv {
	t.Helper()
	g := grammar.NewState()
	sd := grammar.NewSeed(g)
	term, err := sd.AddFormalCategory(g, "term")
	if err != nil {
		t.Fatal(err)
	}

	eqID, err := g.AddRule("eq", sd.Sentence, []grammar.PatternPart{
		grammar.Cat(term), grammar.Lit("="), grammar.Cat(term),
	}, 500, grammar.NonAssoc, grammar.SourceSyntax)
	if err != nil {
		t.Fatal(err)
	}
	forallID, err := g.AddRule("forall", sd.Sentence, []grammar.PatternPart{
		grammar.Lit("∀"), grammar.Binding(term), grammar.Lit("."), grammar.Cat(sd.Sentence),
	}, 0, grammar.NonAssoc, grammar.SourceSyntax)
	if err != nil {
		t.Fatal(err)
	}

	arena := NewArena()
	return &resolveEnv{
		g: g, sd: sd, arena: arena,
		resolver: &Resolver{G: g, Seed: sd, Arena: arena},
		term:     term,
		eq:       g.Rule(eqID),
		forall:   g.Rule(forallID),
	}
}

func (env *resolveEnv) parse(t *testing.T, input string, cat grammar.CategoryID) *parser.Tree {
	t.Helper()
	p := parser.New(env.g, env.sd.AnyFrag)
	tree, err := p.Parse(parser.Tokenize("", input), cat)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	return tree
}

func TestResolve_TemplateParameters(t *testing.T) {
	env := newResolveEnv(t)
	tmpl := Template{Params: []TemplateParam{
		{Name: "x", Cat: env.term, Kind: ParamPlain},
		{Name: "y", Cat: env.term, Kind: ParamPlain},
	}}
	sc := tmpl.Bind(NewScope())

	tree := env.parse(t, "x = y", env.sd.Sentence)
	pf, err := env.resolver.Resolve(tree, sc, env.sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}

	f := env.arena.Get(pf.Frag)
	if f.Head.Kind != HeadRule || f.Head.Rule != env.eq.ID {
		t.Fatalf("head = %+v, want eq application", f.Head)
	}
	left := env.arena.Get(f.Children[0])
	right := env.arena.Get(f.Children[1])
	if left.Head.Kind != HeadTemplateRef || left.Head.Index != 0 {
		t.Errorf("left = %+v, want template ref 0", left.Head)
	}
	if right.Head.Kind != HeadTemplateRef || right.Head.Index != 1 {
		t.Errorf("right = %+v, want template ref 1", right.Head)
	}
	if got := pf.Pres.Render(); got != "x = y" {
		t.Errorf("presentation = %q, want %q", got, "x = y")
	}
}

func TestResolve_BinderBecomesDeBruijn(t *testing.T) {
	env := newResolveEnv(t)
	tree := env.parse(t, "∀ z . z = z", env.sd.Sentence)

	pf, err := env.resolver.Resolve(tree, NewScope(), env.sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}
	f := env.arena.Get(pf.Frag)
	if f.Head.Rule != env.forall.ID {
		t.Fatalf("head rule = %d, want forall", f.Head.Rule)
	}
	if f.Unclosed() != 0 {
		t.Errorf("quantified sentence should be closed, unclosed = %d", f.Unclosed())
	}

	// The binder part contributes no child; the body is the only one.
	body := env.arena.Get(f.Children[0])
	if body.Head.Rule != env.eq.ID {
		t.Fatalf("body head = %+v", body.Head)
	}
	for i, c := range body.Children {
		child := env.arena.Get(c)
		if child.Head.Kind != HeadVar || child.Head.Index != 0 {
			t.Errorf("occurrence %d = %+v, want var #0", i, child.Head)
		}
	}
}

func TestResolve_NestedBindersShadow(t *testing.T) {
	env := newResolveEnv(t)
	tree := env.parse(t, "∀ z . ∀ w . z = w", env.sd.Sentence)

	pf, err := env.resolver.Resolve(tree, NewScope(), env.sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}
	outer := env.arena.Get(pf.Frag)
	inner := env.arena.Get(outer.Children[0])
	body := env.arena.Get(inner.Children[0])

	z := env.arena.Get(body.Children[0])
	w := env.arena.Get(body.Children[1])
	if z.Head.Index != 1 {
		t.Errorf("z index = %d, want 1 (outer binder)", z.Head.Index)
	}
	if w.Head.Index != 0 {
		t.Errorf("w index = %d, want 0 (inner binder)", w.Head.Index)
	}
}

func TestResolve_NotationExpandsWithShift(t *testing.T) {
	env := newResolveEnv(t)

	// Bind the notation inside one binder, then use it one binder deeper;
	// its free variable must follow the binder it referred to.
	sc := NewScope().WithBinding("a", env.term)
	nTree := env.parse(t, "a", env.term)
	nf, err := env.resolver.Resolve(nTree, sc, env.term)
	if err != nil {
		t.Fatal(err)
	}
	sc = sc.WithNotation("shorthand", nf, env.term)

	useTree := env.parse(t, "∀ b . shorthand = b", env.sd.Sentence)
	pf, err := env.resolver.Resolve(useTree, sc, env.sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}
	body := env.arena.Get(env.arena.Get(pf.Frag).Children[0])
	left := env.arena.Get(body.Children[0])
	if left.Head.Kind != HeadVar || left.Head.Index != 1 {
		t.Errorf("expanded notation = %+v, want var #1 (a, past one binder)", left.Head)
	}
}

func TestResolve_HoleSyntax(t *testing.T) {
	env := newResolveEnv(t)
	tree := env.parse(t, "_0 = x", env.sd.Sentence)
	sc := Template{Params: []TemplateParam{{Name: "x", Cat: env.term}}}.Bind(NewScope())

	pf, err := env.resolver.Resolve(tree, sc, env.sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}
	f := env.arena.Get(pf.Frag)
	hole := env.arena.Get(f.Children[0])
	if hole.Head.Kind != HeadHole || hole.Head.Index != 0 {
		t.Errorf("left = %+v, want hole 0", hole.Head)
	}
	if !f.HasHole() {
		t.Error("fragment should report a hole")
	}
}

func TestResolve_SchemaApplication(t *testing.T) {
	env := newResolveEnv(t)
	sc := NewScope().
		WithTemplate("x", 0, env.term, nil, false).
		WithTemplate("p", 1, env.sd.Sentence, []grammar.CategoryID{env.term}, false)

	tree := env.parse(t, "p(x)", env.sd.Sentence)
	pf, err := env.resolver.Resolve(tree, sc, env.sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}
	f := env.arena.Get(pf.Frag)
	if f.Head.Kind != HeadTemplateRef || f.Head.Index != 1 {
		t.Fatalf("head = %+v, want schema ref 1", f.Head)
	}
	if len(f.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(f.Children))
	}
	arg := env.arena.Get(f.Children[0])
	if arg.Head.Kind != HeadTemplateRef || arg.Head.Index != 0 {
		t.Errorf("argument = %+v, want template ref 0", arg.Head)
	}
}

func TestResolve_SchemaArityMismatch(t *testing.T) {
	env := newResolveEnv(t)
	sc := NewScope().
		WithTemplate("x", 0, env.term, nil, false).
		WithTemplate("p", 1, env.sd.Sentence, []grammar.CategoryID{env.term}, false)

	tree := env.parse(t, "p(x, x)", env.sd.Sentence)
	_, err := env.resolver.Resolve(tree, sc, env.sd.Sentence)
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("got %v, want ResolutionError", err)
	}
}

func TestResolve_UnknownName(t *testing.T) {
	env := newResolveEnv(t)
	tree := env.parse(t, "mystery", env.term)
	_, err := env.resolver.Resolve(tree, NewScope(), env.term)
	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("got %v, want ResolutionError", err)
	}
	if re.Name != "mystery" {
		t.Errorf("name = %q", re.Name)
	}
}

// A bare name parsed at any-fragment keeps both category readings; the
// expected category picks one at resolution time.
func TestResolve_AltPicksExpectedCategory(t *testing.T) {
	env := newResolveEnv(t)
	sc := NewScope().WithBinding("x", env.term)

	tree := env.parse(t, "x", env.sd.AnyFrag)
	if tree.Kind != parser.TreeAlt {
		t.Fatalf("tree kind = %v, want TreeAlt", tree.Kind)
	}

	pf, err := env.resolver.Resolve(tree, sc, env.term)
	if err != nil {
		t.Fatal(err)
	}
	f := env.arena.Get(pf.Frag)
	if f.Cat != env.term || f.Head.Kind != HeadVar {
		t.Errorf("resolved = %+v, want term variable", f)
	}
}

func TestResolve_CategoryMismatch(t *testing.T) {
	env := newResolveEnv(t)
	sc := NewScope().WithBinding("x", env.sd.Sentence)

	tree := env.parse(t, "x", env.term)
	_, err := env.resolver.Resolve(tree, sc, env.term)
	var cm *CategoryMismatchError
	if !errors.As(err, &cm) {
		t.Fatalf("got %v, want CategoryMismatchError", err)
	}
}

// Structural interning makes α-equivalent notations literally equal.
func TestResolve_AlphaEquivalentBindersShareFragment(t *testing.T) {
	env := newResolveEnv(t)

	t1 := env.parse(t, "∀ z . z = z", env.sd.Sentence)
	t2 := env.parse(t, "∀ w . w = w", env.sd.Sentence)

	f1, err := env.resolver.Resolve(t1, NewScope(), env.sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := env.resolver.Resolve(t2, NewScope(), env.sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}
	if f1.Frag != f2.Frag {
		t.Errorf("α-equivalent sentences got distinct fragments: %d vs %d", f1.Frag, f2.Frag)
	}
}
