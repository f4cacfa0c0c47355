// Package engine orchestrates the check pipeline: lexing and parsing the
// command stream, elaborating and applying actions against the growing
// grammar/scope state, and verifying queued theorems in parallel along
// the citation DAG.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/leapstack-labs/sequent/internal/state"
	"github.com/leapstack-labs/sequent/pkg/frag"
	"github.com/leapstack-labs/sequent/pkg/grammar"
	"github.com/leapstack-labs/sequent/pkg/kernel"
	"github.com/leapstack-labs/sequent/pkg/parser"
)

// queued is one axiom or theorem awaiting verification, with the scope
// visible at its declaration point. Scopes are persistent, so capturing
// one costs nothing.
type queued struct {
	stmt  *kernel.TheoremStatement
	scope *frag.Scope
}

// Engine holds the mutable compile state. Parsing and elaboration are
// strictly sequential (each command's parse depends on the grammar left
// by the previous ones); verification afterwards runs in parallel.
type Engine struct {
	logger *slog.Logger
	store  state.StateStore

	g        *grammar.State
	seed     *grammar.Seed
	parser   *parser.Parser
	arena    *frag.Arena
	resolver *frag.Resolver
	scope    *frag.Scope

	module      string
	statements  map[string]*queued
	order       []string
	parallelism int
}

// Config holds engine configuration.
type Config struct {
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Store persists run history (optional)
	Store state.StateStore
	// Parallelism bounds concurrent theorem verification; 0 means
	// one worker per CPU.
	Parallelism int
}

// New creates an engine with a fresh grammar seeded with the command
// syntax and the judgment category.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	g := grammar.NewState()
	sd := grammar.NewSeed(g)
	arena := frag.NewArena()

	e := &Engine{
		logger:      logger,
		store:       cfg.Store,
		g:           g,
		seed:        sd,
		parser:      parser.New(g, sd.AnyFrag),
		arena:       arena,
		resolver:    &frag.Resolver{G: g, Seed: sd, Arena: arena},
		scope:       frag.NewScope(),
		statements:  make(map[string]*queued),
		parallelism: parallelism,
	}
	return e
}

// Grammar exposes the grammar state, for inspection commands.
func (e *Engine) Grammar() *grammar.State { return e.g }

// Seed exposes the wire-syntax IDs.
func (e *Engine) Seed() *grammar.Seed { return e.seed }

// Arena exposes the fragment store.
func (e *Engine) Arena() *frag.Arena { return e.arena }

// Module returns the declared module name, if any.
func (e *Engine) Module() string { return e.module }

// Statement returns a queued statement by name.
func (e *Engine) Statement(name string) (*kernel.TheoremStatement, bool) {
	q, ok := e.statements[name]
	if !ok {
		return nil, false
	}
	return q.stmt, true
}

// lookup is the kernel-facing citation resolver.
func (e *Engine) lookup(name string) (*kernel.TheoremStatement, bool) {
	return e.Statement(name)
}

func (e *Engine) queue(stmt *kernel.TheoremStatement, scope *frag.Scope) error {
	if _, exists := e.statements[stmt.Name]; exists {
		return fmt.Errorf("duplicate statement name %q", stmt.Name)
	}
	e.statements[stmt.Name] = &queued{stmt: stmt, scope: scope}
	e.order = append(e.order, stmt.Name)
	return nil
}

