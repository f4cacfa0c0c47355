package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sequent/pkg/token"
)

// ParseError reports that no derivation spans the input, naming the
// furthest position reached and what could have continued the parse there.
type ParseError struct {
	Pos      token.Position
	Expected []string // sorted category names and terminal spellings
}

func (e *ParseError) Error() string {
	if len(e.Expected) == 0 {
		return fmt.Sprintf("%s: no valid parse", e.Pos)
	}
	return fmt.Sprintf("%s: no valid parse, expected %s", e.Pos, strings.Join(e.Expected, " | "))
}

// AmbiguityError reports that more than one maximal-precedence derivation
// survived disambiguation. The input is rejected rather than silently
// picking one reading.
type AmbiguityError struct {
	Span     token.Span
	Category string
	Count    int
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("%s: ambiguous parse, %d readings of %s survive precedence resolution",
		e.Span, e.Count, e.Category)
}
