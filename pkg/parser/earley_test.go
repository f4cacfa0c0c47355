package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leapstack-labs/sequent/pkg/grammar"
)

// testGrammar builds a seeded grammar with a term category and propositional
// connectives over sentence: prefix ¬ at 600, infix ∨ at 400 left.
func testGrammar(t *testing.T) (*grammar.State, *grammar.Seed) {
	t.Helper()
	g := grammar.NewState()
	sd := grammar.NewSeed(g)
	if _, err := sd.AddFormalCategory(g, "term"); err != nil {
		t.Fatal(err)
	}
	mustRule := func(name string, parts []grammar.PatternPart, prec int, assoc grammar.Associativity) {
		if _, err := g.AddRule(name, sd.Sentence, parts, prec, assoc, grammar.SourceSyntax); err != nil {
			t.Fatal(err)
		}
	}
	mustRule("neg", []grammar.PatternPart{grammar.Lit("¬"), grammar.Cat(sd.Sentence)}, 600, grammar.NonAssoc)
	mustRule("or", []grammar.PatternPart{grammar.Cat(sd.Sentence), grammar.Lit("∨"), grammar.Cat(sd.Sentence)}, 400, grammar.LeftAssoc)
	return g, sd
}

func parseAt(t *testing.T, g *grammar.State, sd *grammar.Seed, input string, cat grammar.CategoryID) (*Tree, error) {
	t.Helper()
	p := New(g, sd.AnyFrag)
	return p.Parse(Tokenize("", input), cat)
}

func ruleName(g *grammar.State, tr *Tree) string {
	if tr == nil || tr.Kind != TreeNode {
		return ""
	}
	return g.Rule(tr.Rule).Name
}

// ¬a ∨ b must read as (¬a) ∨ b: the tighter prefix rule cannot take the
// whole disjunction as its operand.
func TestParse_PrecedenceResolvesPrefixInfix(t *testing.T) {
	g, sd := testGrammar(t)
	tree, err := parseAt(t, g, sd, "¬ a ∨ b", sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}
	if got := ruleName(g, tree); got != "or" {
		t.Fatalf("top rule = %q, want or", got)
	}
	if got := ruleName(g, tree.Child(0)); got != "neg" {
		t.Errorf("left operand rule = %q, want neg", got)
	}
}

func TestParse_LeftAssociativity(t *testing.T) {
	g, sd := testGrammar(t)
	tree, err := parseAt(t, g, sd, "a ∨ b ∨ c", sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}
	if got := ruleName(g, tree); got != "or" {
		t.Fatalf("top rule = %q, want or", got)
	}
	// Left-nested: (a ∨ b) ∨ c.
	if got := ruleName(g, tree.Child(0)); got != "or" {
		t.Errorf("left child rule = %q, want or", got)
	}
	if tree.Child(2).Kind != TreeNode || g.Rule(tree.Child(2).Rule).Source != grammar.SourceRef {
		t.Errorf("right child should be the atomic reference c")
	}
}

func TestParse_NonAssocChainRejected(t *testing.T) {
	g, sd := testGrammar(t)
	if _, err := g.AddRule("iff", sd.Sentence, []grammar.PatternPart{
		grammar.Cat(sd.Sentence), grammar.Lit("↔"), grammar.Cat(sd.Sentence),
	}, 300, grammar.NonAssoc, grammar.SourceSyntax); err != nil {
		t.Fatal(err)
	}

	if _, err := parseAt(t, g, sd, "a ↔ b", sd.Sentence); err != nil {
		t.Fatalf("single ↔ should parse: %v", err)
	}

	_, err := parseAt(t, g, sd, "a ↔ b ↔ c", sd.Sentence)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("chained non-associative operator: got %v, want ParseError", err)
	}
}

// Two atomic rules covering the same span at the same category cannot be
// told apart by precedence; that is a hard ambiguity.
func TestParse_AmbiguityError(t *testing.T) {
	g, sd := testGrammar(t)
	for _, name := range []string{"bang1", "bang2"} {
		if _, err := g.AddRule(name, sd.Sentence, []grammar.PatternPart{
			grammar.Lit("!"), grammar.Cat(sd.Sentence),
		}, 0, grammar.NonAssoc, grammar.SourceSyntax); err != nil {
			t.Fatal(err)
		}
	}

	_, err := parseAt(t, g, sd, "! a", sd.Sentence)
	var ae *AmbiguityError
	if !errors.As(err, &ae) {
		t.Fatalf("got %v, want AmbiguityError", err)
	}
	if ae.Count != 2 {
		t.Errorf("readings = %d, want 2", ae.Count)
	}
}

// A bare name is both a term and a sentence reference; at any-fragment the
// alternatives survive as a TreeAlt for the resolver.
func TestParse_AnyFragmentKeepsAlternatives(t *testing.T) {
	g, sd := testGrammar(t)
	tree, err := parseAt(t, g, sd, "x", sd.AnyFrag)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Kind != TreeAlt {
		t.Fatalf("tree kind = %v, want TreeAlt", tree.Kind)
	}
	if len(tree.Children) != 2 {
		t.Errorf("alternatives = %d, want 2 (term and sentence)", len(tree.Children))
	}
}

// Appending rules for an unrelated category must not change how existing
// inputs parse.
func TestParse_UnrelatedRuleKeepsParseIdentical(t *testing.T) {
	g, sd := testGrammar(t)
	const input = "¬ a ∨ b"

	before, err := parseAt(t, g, sd, input, sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}

	list, err := sd.AddFormalCategory(g, "list")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddRule("wrap", list, []grammar.PatternPart{
		grammar.Lit("<"), grammar.Cat(list), grammar.Lit(">"),
	}, 100, grammar.NonAssoc, grammar.SourceSyntax); err != nil {
		t.Fatal(err)
	}

	after, err := parseAt(t, g, sd, input, sd.Sentence)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Error("parse tree changed after appending an unrelated rule")
	}
}

func TestParse_FailureReportsFurthestPoint(t *testing.T) {
	g, sd := testGrammar(t)
	_, err := parseAt(t, g, sd, "a ∨ ∨", sd.Sentence)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want ParseError", err)
	}
	if pe.Pos.Column != 5 {
		t.Errorf("error column = %d, want 5 (the second ∨)", pe.Pos.Column)
	}
	if len(pe.Expected) == 0 {
		t.Error("expected set should not be empty")
	}
}

// Zero-width derivations pick the first declared rule, deterministically.
func TestParse_EmptyInputTieBreak(t *testing.T) {
	g := grammar.NewState()
	sd := grammar.NewSeed(g)
	p := New(g, sd.AnyFrag)

	tree, err := p.Parse(nil, sd.Tactics)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Rule != sd.TacticsNone {
		t.Errorf("rule = %d, want tactics-none (%d)", tree.Rule, sd.TacticsNone)
	}
}

func TestParse_CommandWithNullableParts(t *testing.T) {
	g := grammar.NewState()
	sd := grammar.NewSeed(g)
	p := New(g, sd.AnyFrag)

	// Templates, hypotheses and the assoc option are all empty here; the
	// nullable-prediction path must complete them at zero width.
	toks := Tokenize("", "category term")
	tree, err := p.Parse(toks, sd.Command)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Rule != sd.CmdCategory {
		t.Errorf("rule = %d, want cmd-category (%d)", tree.Rule, sd.CmdCategory)
	}
	if tree.LeafText(1) != "term" {
		t.Errorf("name = %q, want term", tree.LeafText(1))
	}
}
