package frag

import (
	"fmt"

	"github.com/leapstack-labs/sequent/pkg/token"
)

// ResolutionError reports a name used in a parse tree that no scope entry
// can satisfy.
type ResolutionError struct {
	Name string
	Span token.Span
	Msg  string // optional detail, e.g. wrong arity
}

func (e *ResolutionError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: cannot resolve %q: %s", e.Span, e.Name, e.Msg)
	}
	return fmt.Sprintf("%s: cannot resolve %q", e.Span, e.Name)
}

// CategoryMismatchError reports a fragment appearing where a different
// category was expected.
type CategoryMismatchError struct {
	Span     token.Span
	Expected string
	Got      string
}

func (e *CategoryMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Span, e.Expected, e.Got)
}
