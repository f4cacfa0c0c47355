// Package grammar holds the mutable grammar state of a compilation: the
// categories (nonterminals), the rules that populate them, and the derived
// nullability and first-set tables the parser consults.
//
// The rule set only ever grows. Rules are immutable once added, and the
// derived tables are brought back in sync incrementally after every
// addition, so each command parses against a consistent snapshot.
package grammar

import (
	"fmt"

	"github.com/leapstack-labs/sequent/pkg/token"
)

// CategoryID identifies a category for the lifetime of a compilation.
type CategoryID int32

// RuleID identifies a rule for the lifetime of a compilation.
// IDs are assigned in declaration order.
type RuleID int32

// NoCategory is the zero CategoryID, used where no category applies.
const NoCategory CategoryID = -1

// Associativity selects which operand a shared operator binds to when two
// rules of equal precedence compete for it.
type Associativity int8

const (
	NonAssoc Associativity = iota
	LeftAssoc
	RightAssoc
)

func (a Associativity) String() string {
	switch a {
	case LeftAssoc:
		return "left"
	case RightAssoc:
		return "right"
	default:
		return "none"
	}
}

// PartKind discriminates the pattern part variants.
type PartKind int8

const (
	PartLit      PartKind = iota // exact literal spelling, e.g. "=", "∨"
	PartKeyword                  // reserved keyword, e.g. proof
	PartPunct                    // fixed punctuation token, e.g. [ or ::=
	PartName                     // any NAME token
	PartNumber                   // any NUMBER token
	PartString                   // any STRING token
	PartCat                      // a category placeholder
	PartBinding                  // a NAME that introduces a binder of Cat
	PartVariable                 // a NAME that references a binder of Cat
)

// PatternPart is one element of a rule pattern.
type PatternPart struct {
	Kind PartKind
	Text string     // spelling for PartLit and PartKeyword
	Tok  token.Type // token type for PartPunct
	Cat  CategoryID // category for PartCat, PartBinding and PartVariable
}

// IsTerminal reports whether the part consumes exactly one token.
func (p PatternPart) IsTerminal() bool {
	return p.Kind != PartCat
}

// Matches reports whether the terminal part accepts the given token.
func (p PatternPart) Matches(tok token.Token) bool {
	switch p.Kind {
	case PartLit:
		return tok.Type != token.EOF && tok.Literal == p.Text
	case PartKeyword:
		return token.IsKeyword(tok.Type) && tok.Literal == p.Text
	case PartPunct:
		return tok.Type == p.Tok
	case PartName, PartBinding, PartVariable:
		return tok.Type == token.NAME
	case PartNumber:
		return tok.Type == token.NUMBER
	case PartString:
		return tok.Type == token.STRING
	default:
		return false
	}
}

func (p PatternPart) String() string {
	switch p.Kind {
	case PartLit:
		return fmt.Sprintf("%q", p.Text)
	case PartKeyword:
		return p.Text
	case PartPunct:
		return p.Tok.String()
	case PartName:
		return "<name>"
	case PartNumber:
		return "<number>"
	case PartString:
		return "<string>"
	case PartCat:
		return fmt.Sprintf("<cat %d>", p.Cat)
	case PartBinding:
		return "@binding"
	case PartVariable:
		return "@variable"
	}
	return "?"
}

// Lit returns a literal pattern part.
func Lit(text string) PatternPart { return PatternPart{Kind: PartLit, Text: text} }

// Kw returns a keyword pattern part.
func Kw(text string) PatternPart { return PatternPart{Kind: PartKeyword, Text: text} }

// Punct returns a fixed-punctuation pattern part.
func Punct(t token.Type) PatternPart { return PatternPart{Kind: PartPunct, Tok: t} }

// Name returns a name-token pattern part.
func Name() PatternPart { return PatternPart{Kind: PartName} }

// Num returns a number-token pattern part.
func Num() PatternPart { return PatternPart{Kind: PartNumber} }

// Str returns a string-token pattern part.
func Str() PatternPart { return PatternPart{Kind: PartString} }

// Cat returns a category pattern part.
func Cat(id CategoryID) PatternPart { return PatternPart{Kind: PartCat, Cat: id} }

// Binding returns a binder-introducing pattern part of the given category.
func Binding(id CategoryID) PatternPart { return PatternPart{Kind: PartBinding, Cat: id} }

// Variable returns a binder-referencing pattern part of the given category.
func Variable(id CategoryID) PatternPart { return PatternPart{Kind: PartVariable, Cat: id} }

// RuleSource records where a rule came from.
type RuleSource int8

const (
	SourceBuiltin RuleSource = iota // seed wire grammar
	SourceSyntax                    // user syntax command
	SourceRef                       // implicit name-reference rule of a formal category
)

// Rule maps a pattern to a category. Immutable once added.
type Rule struct {
	ID     RuleID
	Name   string
	Cat    CategoryID
	Parts  []PatternPart
	Source RuleSource

	// Precedence disambiguates competing parses. 0 means atomic: the rule
	// never competes and is accepted in any operand position.
	Precedence int
	Assoc      Associativity

	// BindingsAdded is the number of PartBinding parts in the pattern,
	// i.e. how many binder levels a rule application closes.
	BindingsAdded int
}

// Category is a named nonterminal class.
type Category struct {
	ID     CategoryID
	Name   string
	Formal bool // part of the user's formal language, not the wire syntax
}

// State is the ordered set of categories and rules plus memoized analysis
// tables. It grows only by appending.
type State struct {
	cats      []Category
	catByName map[string]CategoryID

	rules      []*Rule
	ruleByName map[string]RuleID
	rulesByCat map[CategoryID][]RuleID

	// analysis tables, kept consistent by AddRule
	nullable map[CategoryID]bool
	first    map[CategoryID]map[TermKey]struct{}

	// referencedBy[c] lists categories with a rule mentioning c, used to
	// bound incremental recomputation to the affected region.
	referencedBy map[CategoryID]map[CategoryID]struct{}
}

// NewState creates an empty grammar state.
func NewState() *State {
	return &State{
		catByName:    make(map[string]CategoryID),
		ruleByName:   make(map[string]RuleID),
		rulesByCat:   make(map[CategoryID][]RuleID),
		nullable:     make(map[CategoryID]bool),
		first:        make(map[CategoryID]map[TermKey]struct{}),
		referencedBy: make(map[CategoryID]map[CategoryID]struct{}),
	}
}

// AddCategory appends a new category. It fails only on a duplicate name.
func (s *State) AddCategory(name string, formal bool) (CategoryID, error) {
	if _, ok := s.catByName[name]; ok {
		return NoCategory, fmt.Errorf("duplicate category %q", name)
	}
	id := CategoryID(len(s.cats))
	s.cats = append(s.cats, Category{ID: id, Name: name, Formal: formal})
	s.catByName[name] = id
	s.first[id] = make(map[TermKey]struct{})
	return id, nil
}

// Category returns the category with the given ID.
func (s *State) Category(id CategoryID) Category {
	return s.cats[id]
}

// CategoryByName looks a category up by name.
func (s *State) CategoryByName(name string) (CategoryID, bool) {
	id, ok := s.catByName[name]
	return id, ok
}

// Categories returns all categories in declaration order.
func (s *State) Categories() []Category {
	return s.cats
}

// AddRule appends a new rule and re-derives the analysis tables for the
// categories it affects. It fails only on a duplicate rule name.
func (s *State) AddRule(name string, cat CategoryID, parts []PatternPart, prec int, assoc Associativity, src RuleSource) (RuleID, error) {
	if _, ok := s.ruleByName[name]; ok {
		return 0, fmt.Errorf("duplicate rule %q", name)
	}
	bindings := 0
	for _, p := range parts {
		if p.Kind == PartBinding {
			bindings++
		}
	}
	id := RuleID(len(s.rules))
	r := &Rule{
		ID:            id,
		Name:          name,
		Cat:           cat,
		Parts:         parts,
		Source:        src,
		Precedence:    prec,
		Assoc:         assoc,
		BindingsAdded: bindings,
	}
	s.rules = append(s.rules, r)
	s.ruleByName[name] = id
	s.rulesByCat[cat] = append(s.rulesByCat[cat], id)

	for _, p := range parts {
		if p.Kind == PartCat {
			set, ok := s.referencedBy[p.Cat]
			if !ok {
				set = make(map[CategoryID]struct{})
				s.referencedBy[p.Cat] = set
			}
			set[cat] = struct{}{}
		}
	}

	s.refresh(cat)
	return id, nil
}

// Rule returns the rule with the given ID.
func (s *State) Rule(id RuleID) *Rule {
	return s.rules[id]
}

// RuleByName looks a rule up by name.
func (s *State) RuleByName(name string) (*Rule, bool) {
	id, ok := s.ruleByName[name]
	if !ok {
		return nil, false
	}
	return s.rules[id], true
}

// RulesFor returns the IDs of all rules producing the given category, in
// declaration order.
func (s *State) RulesFor(cat CategoryID) []RuleID {
	return s.rulesByCat[cat]
}

// RuleCount returns the number of rules.
func (s *State) RuleCount() int {
	return len(s.rules)
}
