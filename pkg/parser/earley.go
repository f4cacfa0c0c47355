package parser

import (
	"sort"

	"github.com/leapstack-labs/sequent/pkg/grammar"
	"github.com/leapstack-labs/sequent/pkg/token"
)

// Parser runs the Earley algorithm against a grammar snapshot. The grammar
// is re-read on every Parse call, so appending rules between commands needs
// no parser invalidation.
type Parser struct {
	g       *grammar.State
	anyFrag grammar.CategoryID
}

// New creates a parser over the given grammar state. anyFrag names the
// category whose ambiguous derivations are preserved as alternatives
// instead of rejected (see TreeAlt).
func New(g *grammar.State, anyFrag grammar.CategoryID) *Parser {
	return &Parser{g: g, anyFrag: anyFrag}
}

// stateKey identifies an Earley item: a rule, progress through its
// pattern, and the chart column the item originated in.
type stateKey struct {
	rule   grammar.RuleID
	pos    int
	origin int
}

// compKey identifies a completed derivation of a rule over a token span.
type compKey struct {
	rule       grammar.RuleID
	start, end int
}

type catStart struct {
	cat   grammar.CategoryID
	start int
}

type chart struct {
	g    *grammar.State
	toks []token.Token

	cols    []map[stateKey]struct{}
	waiting []map[grammar.CategoryID][]stateKey

	completed map[compKey]struct{}
	spans     map[catStart]map[int]struct{} // cat+start -> set of ends

	furthest int // last column that held any item
}

// Parse turns the token stream into a single disambiguated parse tree for
// the start category. The token slice may end with an EOF token, which is
// ignored.
func (p *Parser) Parse(toks []token.Token, start grammar.CategoryID) (*Tree, error) {
	for len(toks) > 0 && toks[len(toks)-1].Type == token.EOF {
		toks = toks[:len(toks)-1]
	}

	c := p.buildChart(toks, start)

	ex := &extractor{p: p, c: c, memo: make(map[spanKey]memoEntry), inFlight: make(map[spanKey]bool)}
	tree, err := ex.derive(start, 0, len(toks))
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, p.failure(c, toks)
	}
	return tree, nil
}

// buildChart runs predict/scan/complete over all columns.
func (p *Parser) buildChart(toks []token.Token, start grammar.CategoryID) *chart {
	n := len(toks)
	c := &chart{
		g:         p.g,
		toks:      toks,
		cols:      make([]map[stateKey]struct{}, n+1),
		waiting:   make([]map[grammar.CategoryID][]stateKey, n+1),
		completed: make(map[compKey]struct{}),
		spans:     make(map[catStart]map[int]struct{}),
	}
	for i := range c.cols {
		c.cols[i] = make(map[stateKey]struct{})
		c.waiting[i] = make(map[grammar.CategoryID][]stateKey)
	}

	for _, rid := range p.g.RulesFor(start) {
		c.add(stateKey{rule: rid, pos: 0, origin: 0}, 0, nil)
	}

	for i := 0; i <= n; i++ {
		queue := make([]stateKey, 0, len(c.cols[i]))
		for k := range c.cols[i] {
			queue = append(queue, k)
		}
		// Deterministic processing order keeps diagnostics stable.
		sort.Slice(queue, func(a, b int) bool { return less(queue[a], queue[b]) })

		for len(queue) > 0 {
			k := queue[0]
			queue = queue[1:]
			p.step(c, i, k, &queue)
		}
		if len(c.cols[i]) > 0 {
			c.furthest = i
		}
	}
	return c
}

func less(a, b stateKey) bool {
	if a.rule != b.rule {
		return a.rule < b.rule
	}
	if a.pos != b.pos {
		return a.pos < b.pos
	}
	return a.origin < b.origin
}

// add inserts an item into a column, appending it to the queue when new.
func (c *chart) add(k stateKey, col int, queue *[]stateKey) {
	if _, ok := c.cols[col][k]; ok {
		return
	}
	c.cols[col][k] = struct{}{}
	if queue != nil {
		*queue = append(*queue, k)
	}
}

// step processes one item at column i: scan on a terminal, predict on a
// category, complete when the pattern is exhausted.
func (p *Parser) step(c *chart, i int, k stateKey, queue *[]stateKey) {
	r := p.g.Rule(k.rule)

	if k.pos < len(r.Parts) {
		part := r.Parts[k.pos]
		if part.IsTerminal() {
			// Scan
			if i < len(c.toks) && part.Matches(c.toks[i]) {
				c.add(stateKey{rule: k.rule, pos: k.pos + 1, origin: k.origin}, i+1, nil)
			}
			return
		}

		// Predict
		cat := part.Cat
		c.waiting[i][cat] = append(c.waiting[i][cat], k)
		for _, rid := range p.g.RulesFor(cat) {
			c.add(stateKey{rule: rid, pos: 0, origin: i}, i, queue)
		}
		// Nullable categories complete in place; advance the predictor
		// immediately so zero-width completions discovered later in this
		// column cannot be missed.
		if p.g.Nullable(cat) {
			c.add(stateKey{rule: k.rule, pos: k.pos + 1, origin: k.origin}, i, queue)
		}
		return
	}

	// Complete
	c.record(compKey{rule: k.rule, start: k.origin, end: i}, r.Cat)
	for _, w := range c.waiting[k.origin][r.Cat] {
		c.add(stateKey{rule: w.rule, pos: w.pos + 1, origin: w.origin}, i, queue)
	}
}

func (c *chart) record(k compKey, cat grammar.CategoryID) {
	if _, ok := c.completed[k]; ok {
		return
	}
	c.completed[k] = struct{}{}
	cs := catStart{cat: cat, start: k.start}
	set, ok := c.spans[cs]
	if !ok {
		set = make(map[int]struct{})
		c.spans[cs] = set
	}
	set[k.end] = struct{}{}
}

// ends returns the sorted end positions of completed derivations of cat
// starting at from.
func (c *chart) ends(cat grammar.CategoryID, from int) []int {
	set := c.spans[catStart{cat: cat, start: from}]
	out := make([]int, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Ints(out)
	return out
}

// failure builds a ParseError naming the furthest position reached and the
// terminals and categories that were viable there.
func (p *Parser) failure(c *chart, toks []token.Token) error {
	col := c.furthest
	var pos token.Position
	switch {
	case col < len(toks):
		pos = toks[col].Pos
	case len(toks) > 0:
		pos = toks[len(toks)-1].Span().End
	}

	seen := make(map[string]struct{})
	for k := range c.cols[col] {
		r := p.g.Rule(k.rule)
		if k.pos >= len(r.Parts) {
			continue
		}
		part := r.Parts[k.pos]
		var what string
		if part.Kind == grammar.PartCat {
			what = p.g.Category(part.Cat).Name
		} else {
			what = part.String()
		}
		seen[what] = struct{}{}
	}
	expected := make([]string, 0, len(seen))
	for s := range seen {
		expected = append(expected, s)
	}
	sort.Strings(expected)
	return &ParseError{Pos: pos, Expected: expected}
}
