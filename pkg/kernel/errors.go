package kernel

import (
	"fmt"
	"strings"
)

// UnknownTheoremError reports a proof step citing a name with no axiom or
// theorem behind it.
type UnknownTheoremError struct {
	Name string
}

func (e *UnknownTheoremError) Error() string {
	return fmt.Sprintf("unknown theorem %q", e.Name)
}

// ArityError reports a citation supplying the wrong number of template
// arguments.
type ArityError struct {
	Theorem string
	Got     int
	Want    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s takes %d template arguments, got %d", e.Theorem, e.Want, e.Got)
}

// ArgumentCategoryError reports a template argument whose category
// disagrees with the parameter's declared category.
type ArgumentCategoryError struct {
	Theorem  string
	Param    string
	Expected string
	Got      string
}

func (e *ArgumentCategoryError) Error() string {
	return fmt.Sprintf("argument for %s.%s must be %s, got %s", e.Theorem, e.Param, e.Expected, e.Got)
}

// HypothesisMismatchError reports a cited theorem whose instantiated
// hypothesis is not among the currently known facts.
type HypothesisMismatchError struct {
	Theorem    string
	Hypothesis string
}

func (e *HypothesisMismatchError) Error() string {
	return fmt.Sprintf("hypothesis mismatch: %s requires %s, which is not known here", e.Theorem, e.Hypothesis)
}

// UnresolvedGoalError reports a proof completed while its conclusion is
// still unproven.
type UnresolvedGoalError struct {
	Goal string
}

func (e *UnresolvedGoalError) Error() string {
	return fmt.Sprintf("unresolved goal %s", e.Goal)
}

// StateError reports a proof operation applied in the wrong proof state,
// such as dismissing with no assumption pushed.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string {
	return e.Msg
}

// CircularDependencyError reports a cycle in the theorem citation graph.
// Every theorem on the cycle fails without being verified.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Cycle, " -> "))
}

// DependencyFailedError marks a theorem skipped because something it cites
// failed to verify.
type DependencyFailedError struct {
	Theorem    string
	Dependency string
}

func (e *DependencyFailedError) Error() string {
	return fmt.Sprintf("%s depends on %s, which failed", e.Theorem, e.Dependency)
}
