package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sequent/internal/diag"
	"github.com/leapstack-labs/sequent/internal/loader"
	"github.com/leapstack-labs/sequent/internal/state"
	"github.com/leapstack-labs/sequent/internal/testutil"
	"github.com/leapstack-labs/sequent/pkg/kernel"
	"github.com/leapstack-labs/sequent/pkg/parser"
)

// prologue declares a minimal equality theory: the term category, the
// equality judgment, reflexivity and substitution.
const prologue = `module arith

category term

syntax eq sentence ::= 500 term "=" term end

axiom ident [x: term] : |- x = x end

axiom subst [x: term] [y: term] [p (term): sentence] : ( p(x) ) ( x = y ) |- p(y) end
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(Config{Logger: testutil.NewTestLogger(t)})
}

func checkSource(t *testing.T, e *Engine, src string) *Report {
	t.Helper()
	units := []*loader.Unit{{Path: "arith.sq", Name: "arith", Source: src}}
	report, err := e.CheckUnits(context.Background(), "arith.sq", units)
	require.NoError(t, err)
	return report
}

func TestCheckUnits_CertifiesProof(t *testing.T) {
	src := prologue + `
theorem eq_comm [x: term] [y: term] : ( x = y ) |- y = x proof
  have x = x by ident [x] ;
  have y = x by subst [x] [y] [_0 = x] ;
qed
`
	e := newTestEngine(t)
	report := checkSource(t, e, src)

	require.True(t, report.Ok(), "diagnostics: %v", report.Diags)
	assert.Equal(t, "arith", report.Module)
	assert.Equal(t, 3, report.Certified)
	assert.Zero(t, report.Todo)
	assert.Zero(t, report.Failed)

	require.Len(t, report.Results, 3)
	last := report.Results[2]
	assert.Equal(t, "eq_comm", last.Name)
	assert.Equal(t, kernel.StatusCertified, last.Status)
	require.NotNil(t, last.Certificate)
	assert.Equal(t, []string{"ident", "subst"}, last.Certificate.TheoremsUsed)
}

// Definitions bind a notation shorthand; the proved form additionally
// verifies a characterizing statement citable under the definition's name.
func TestCheckUnits_Definitions(t *testing.T) {
	src := prologue + `
syntax zero term ::= 900 "0" end

definition triv sentence ::= 0 = 0 end

definition triv_holds sentence ::= 0 = 0 where |- 0 = 0 proof
  have 0 = 0 by ident [0] ;
qed

theorem use_def : |- triv proof
  have 0 = 0 by triv_holds ;
qed
`
	e := newTestEngine(t)
	report := checkSource(t, e, src)

	require.True(t, report.Ok(), "diagnostics: %v", report.Diags)
	assert.Equal(t, 4, report.Certified)
	assert.Zero(t, report.Failed)

	byName := make(map[string]*Result)
	for _, res := range report.Results {
		byName[res.Name] = res
	}

	require.Contains(t, byName, "triv_holds")
	assert.Equal(t, kernel.StatusCertified, byName["triv_holds"].Status)

	require.Contains(t, byName, "use_def")
	require.NotNil(t, byName["use_def"].Certificate)
	assert.Equal(t, []string{"triv_holds"}, byName["use_def"].Certificate.TheoremsUsed)
}

func TestCheckUnits_TodoTaintPropagates(t *testing.T) {
	src := prologue + `
theorem shortcut [x: term] : |- x = x proof
  todo ;
qed

theorem downstream [x: term] : |- x = x proof
  have x = x by shortcut [x] ;
qed
`
	e := newTestEngine(t)
	report := checkSource(t, e, src)

	require.True(t, report.Ok(), "diagnostics: %v", report.Diags)
	assert.Equal(t, 2, report.Todo)

	for _, res := range report.Results {
		switch res.Name {
		case "shortcut", "downstream":
			assert.Equal(t, kernel.StatusCertifiedTodo, res.Status, res.Name)
		}
	}
}

func TestCheckUnits_CircularCitationsFail(t *testing.T) {
	src := prologue + `
theorem loop_a [x: term] : |- x = x proof
  have x = x by loop_b [x] ;
qed

theorem loop_b [x: term] : |- x = x proof
  have x = x by loop_a [x] ;
qed
`
	e := newTestEngine(t)
	report := checkSource(t, e, src)

	assert.False(t, report.Ok())
	assert.Equal(t, 2, report.Failed)

	var cd *kernel.CircularDependencyError
	for _, res := range report.Results {
		if res.Name == "loop_a" || res.Name == "loop_b" {
			assert.Equal(t, kernel.StatusFailed, res.Status, res.Name)
			assert.True(t, errors.As(res.Err, &cd), "error = %v", res.Err)
		}
	}
}

func TestCheckUnits_FailedDependencySkipsDependents(t *testing.T) {
	src := prologue + `
theorem gap [x: term] [y: term] : ( x = y ) |- y = x proof
  have x = x by ident [x] ;
qed

theorem downstream [x: term] : |- x = x proof
  have x = x by gap [x] [x] ;
qed
`
	e := newTestEngine(t)
	report := checkSource(t, e, src)

	assert.Equal(t, 2, report.Failed)

	byName := make(map[string]*Result)
	for _, res := range report.Results {
		byName[res.Name] = res
	}

	var ug *kernel.UnresolvedGoalError
	require.True(t, errors.As(byName["gap"].Err, &ug), "gap error = %v", byName["gap"].Err)
	assert.Equal(t, "y = x", ug.Goal)

	var df *kernel.DependencyFailedError
	require.True(t, errors.As(byName["downstream"].Err, &df), "downstream error = %v", byName["downstream"].Err)
	assert.Equal(t, "gap", df.Dependency)
}

// A stray token between commands produces one diagnostic and the
// compiler resynchronizes at the next command keyword.
func TestCheckUnits_BadCommandIsReported(t *testing.T) {
	src := prologue + `
stray junk

theorem eq_comm [x: term] [y: term] : ( x = y ) |- y = x proof
  have x = x by ident [x] ;
  have y = x by subst [x] [y] [_0 = x] ;
qed
`
	e := newTestEngine(t)
	report := checkSource(t, e, src)

	assert.False(t, report.Ok())
	require.Len(t, report.Diags, 1)
	assert.Equal(t, diag.KindParseFailure, report.Diags[0].Kind)
	assert.Contains(t, report.Diags[0].Message, "stray")

	// The theorem after the junk still verifies.
	assert.Equal(t, 3, report.Certified)
	assert.Zero(t, report.Failed)
}

func TestCheckUnits_PersistsRunHistory(t *testing.T) {
	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(filepath.Join(t.TempDir(), "state.db")))
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate())

	src := prologue + `
theorem eq_comm [x: term] [y: term] : ( x = y ) |- y = x proof
  have x = x by ident [x] ;
  have y = x by subst [x] [y] [_0 = x] ;
qed
`
	e := New(Config{Logger: testutil.NewTestLogger(t), Store: store})
	report := checkSource(t, e, src)
	require.True(t, report.Ok(), "diagnostics: %v", report.Diags)
	require.NotEmpty(t, report.RunID)

	run, err := store.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusSuccess, run.Status)
	assert.Equal(t, 3, run.Theorems)

	results, err := store.GetTheoremsForRun(report.RunID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, "certified", r.Status)
	}
}

// Check discovers units on disk and orders them by imports before the
// grammar-sensitive compile.
func TestCheck_AcrossUnits(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.sq"), []byte(prologue), 0644))
	thm := `---
imports:
  - base
---
theorem eq_comm [x: term] [y: term] : ( x = y ) |- y = x proof
  have x = x by ident [x] ;
  have y = x by subst [x] [y] [_0 = x] ;
qed
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "thm.sq"), []byte(thm), 0644))

	e := newTestEngine(t)
	report, err := e.Check(context.Background(), dir)
	require.NoError(t, err)
	require.True(t, report.Ok(), "diagnostics: %v", report.Diags)
	assert.Equal(t, 3, report.Certified)
}

func TestSplitCommands(t *testing.T) {
	toks := parser.Tokenize("", "module arith category term syntax f sentence ::= 0 term end")
	cmds, diags := splitCommands(toks)
	require.Empty(t, diags)
	require.Len(t, cmds, 3)
	assert.Len(t, cmds[0].toks, 2)
	assert.Len(t, cmds[1].toks, 2)
}
