// Package diag collects diagnostics across the compile pipeline. The core
// packages report typed errors with spans; this package classifies them
// and accumulates them so one run surfaces every problem at once.
package diag

import (
	"errors"
	"fmt"
	"sort"

	"github.com/leapstack-labs/sequent/pkg/frag"
	"github.com/leapstack-labs/sequent/pkg/kernel"
	"github.com/leapstack-labs/sequent/pkg/parser"
	"github.com/leapstack-labs/sequent/pkg/token"
)

// Kind classifies a diagnostic.
type Kind int8

const (
	KindParseFailure Kind = iota
	KindAmbiguity
	KindResolution
	KindCategoryMismatch
	KindHypothesisMismatch
	KindUnresolvedGoal
	KindCircularDependency
	KindMalformedFragment
	KindOther
)

var kindNames = map[Kind]string{
	KindParseFailure:       "parse failure",
	KindAmbiguity:          "ambiguity",
	KindResolution:         "resolution error",
	KindCategoryMismatch:   "category mismatch",
	KindHypothesisMismatch: "hypothesis mismatch",
	KindUnresolvedGoal:     "unresolved goal",
	KindCircularDependency: "circular dependency",
	KindMalformedFragment:  "malformed fragment",
	KindOther:              "error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "error"
}

// Fatal reports whether a diagnostic of this kind aborts the compilation.
// Malformed fragments are internal-invariant violations; everything else
// is per-command or per-theorem.
func (k Kind) Fatal() bool {
	return k == KindMalformedFragment
}

// Diagnostic is one reported problem: where, what kind, and the message.
type Diagnostic struct {
	Kind    Kind
	Span    token.Span
	Theorem string // set for proof-phase diagnostics
	Message string
}

func (d Diagnostic) String() string {
	if d.Theorem != "" {
		return fmt.Sprintf("%s: %s in %s: %s", d.Span.Start, d.Kind, d.Theorem, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Span.Start, d.Kind, d.Message)
}

// Classify maps a typed pipeline error to its diagnostic kind and best
// known span.
func Classify(err error) (Kind, token.Span) {
	var pe *parser.ParseError
	var ae *parser.AmbiguityError
	var re *frag.ResolutionError
	var ce *frag.CategoryMismatchError
	var me *frag.MalformedError
	var he *kernel.HypothesisMismatchError
	var ge *kernel.UnresolvedGoalError
	var cy *kernel.CircularDependencyError
	var ac *kernel.ArgumentCategoryError
	switch {
	case errors.As(err, &pe):
		return KindParseFailure, token.Span{Start: pe.Pos, End: pe.Pos}
	case errors.As(err, &ae):
		return KindAmbiguity, ae.Span
	case errors.As(err, &re):
		return KindResolution, re.Span
	case errors.As(err, &ce):
		return KindCategoryMismatch, ce.Span
	case errors.As(err, &ac):
		return KindCategoryMismatch, token.Span{}
	case errors.As(err, &me):
		return KindMalformedFragment, token.Span{}
	case errors.As(err, &he):
		return KindHypothesisMismatch, token.Span{}
	case errors.As(err, &ge):
		return KindUnresolvedGoal, token.Span{}
	case errors.As(err, &cy):
		return KindCircularDependency, token.Span{}
	default:
		return KindOther, token.Span{}
	}
}

// Collector accumulates diagnostics. Not safe for concurrent use; the
// engine serializes reporting.
type Collector struct {
	diags []Diagnostic
	fatal bool
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report classifies and records one error. The span overrides the
// classified span when the error carries none.
func (c *Collector) Report(err error, span token.Span, theorem string) {
	kind, errSpan := Classify(err)
	if errSpan.Start.Line != 0 || errSpan.Start.Offset != 0 {
		span = errSpan
	}
	c.Add(Diagnostic{Kind: kind, Span: span, Theorem: theorem, Message: err.Error()})
}

// Add records a pre-built diagnostic.
func (c *Collector) Add(d Diagnostic) {
	c.diags = append(c.diags, d)
	if d.Kind.Fatal() {
		c.fatal = true
	}
}

// All returns the diagnostics ordered by source position, then theorem.
func (c *Collector) All() []Diagnostic {
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.Start.File != out[j].Span.Start.File {
			return out[i].Span.Start.File < out[j].Span.Start.File
		}
		if out[i].Span.Start.Offset != out[j].Span.Start.Offset {
			return out[i].Span.Start.Before(out[j].Span.Start)
		}
		return out[i].Theorem < out[j].Theorem
	})
	return out
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int { return len(c.diags) }

// Fatal reports whether any recorded diagnostic aborts the compilation.
func (c *Collector) Fatal() bool { return c.fatal }
