package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sequent/internal/dag"
	"github.com/leapstack-labs/sequent/internal/diag"
	"github.com/leapstack-labs/sequent/internal/tactic"
	"github.com/leapstack-labs/sequent/pkg/kernel"
)

// Result is the verification outcome of one statement.
type Result struct {
	Name        string
	Module      string
	Status      kernel.Status
	Certificate *kernel.Certificate
	Err         error
	Duration    time.Duration
}

// Verify checks every queued theorem. Axioms are trusted as certified.
// Citation cycles fail without verification, as do theorems downstream of
// a failure. Independent theorems at the same dependency depth run
// concurrently; they share the arena and grammar read-mostly and keep
// their proof state private.
func (e *Engine) Verify(ctx context.Context, c *diag.Collector) map[string]*Result {
	results := make(map[string]*Result, len(e.order))
	var mu sync.Mutex

	graph := dag.NewGraph()
	for _, name := range e.order {
		graph.AddNode(name, nil)
	}
	for _, name := range e.order {
		q := e.statements[name]
		if q.stmt.IsAxiom {
			continue
		}
		for _, cited := range q.stmt.Citations(e.seed) {
			if _, known := e.statements[cited]; known {
				_ = graph.AddEdge(cited, name)
			}
		}
	}

	for _, name := range e.order {
		q := e.statements[name]
		if q.stmt.IsAxiom {
			results[name] = &Result{Name: name, Module: q.stmt.Module, Status: kernel.StatusCertified}
		}
	}

	cyclic := make(map[string]bool)
	for _, cycle := range graph.Cycles() {
		err := &kernel.CircularDependencyError{Cycle: cycle}
		for _, name := range cycle {
			cyclic[name] = true
			q := e.statements[name]
			results[name] = &Result{Name: name, Module: q.stmt.Module, Status: kernel.StatusFailed, Err: err}
			c.Report(err, q.stmt.Span, name)
		}
	}

	var acyclic []string
	for _, name := range e.order {
		if !cyclic[name] {
			acyclic = append(acyclic, name)
		}
	}
	levels, err := graph.Subgraph(acyclic).GetExecutionLevels()
	if err != nil {
		// Cycles were just removed; this would be a graph bug.
		c.Report(err, e.statements[e.order[0]].stmt.Span, "")
		return results
	}

	runner := &tactic.Runner{
		G:        e.g,
		Seed:     e.seed,
		Arena:    e.arena,
		Resolver: e.resolver,
		Sentence: e.seed.Sentence,
		Lookup:   e.lookup,
	}

	for _, level := range levels {
		eg, _ := errgroup.WithContext(ctx)
		eg.SetLimit(e.parallelism)
		for _, name := range level {
			q := e.statements[name]
			if q.stmt.IsAxiom {
				continue
			}
			eg.Go(func() error {
				res := e.verifyOne(runner, q, results, &mu)
				mu.Lock()
				results[name] = res
				mu.Unlock()
				if res.Err != nil {
					mu.Lock()
					c.Report(res.Err, q.stmt.Span, name)
					mu.Unlock()
				}
				return nil
			})
		}
		// Levels are barriers: every theorem below this level has a
		// recorded result before any dependent runs.
		_ = eg.Wait()
	}

	return results
}

func (e *Engine) verifyOne(runner *tactic.Runner, q *queued, results map[string]*Result, mu *sync.Mutex) *Result {
	start := time.Now()
	res := &Result{Name: q.stmt.Name, Module: q.stmt.Module}

	// A failed or cyclic dependency fails this theorem without running
	// its proof; an unknown citation surfaces from the proof run itself.
	taintedDep := false
	for _, cited := range q.stmt.Citations(e.seed) {
		mu.Lock()
		dep, ok := results[cited]
		mu.Unlock()
		if !ok {
			continue
		}
		if dep.Status == kernel.StatusFailed {
			res.Status = kernel.StatusFailed
			res.Err = &kernel.DependencyFailedError{Theorem: q.stmt.Name, Dependency: cited}
			res.Duration = time.Since(start)
			return res
		}
		if dep.Status == kernel.StatusCertifiedTodo {
			taintedDep = true
		}
	}

	cert, err := runner.Run(q.stmt, q.scope)
	res.Duration = time.Since(start)
	if err != nil {
		res.Status = kernel.StatusFailed
		res.Err = err
		e.logger.Debug("theorem failed", "name", q.stmt.Name, "error", err)
		return res
	}

	res.Certificate = cert
	if cert.UsesTodo || taintedDep {
		res.Status = kernel.StatusCertifiedTodo
	} else {
		res.Status = kernel.StatusCertified
	}
	e.logger.Debug("theorem certified", "name", q.stmt.Name, "todo", res.Status == kernel.StatusCertifiedTodo)
	return res
}
