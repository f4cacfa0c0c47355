package engine

import (
	"context"

	"github.com/leapstack-labs/sequent/internal/diag"
	"github.com/leapstack-labs/sequent/internal/loader"
	"github.com/leapstack-labs/sequent/internal/state"
	"github.com/leapstack-labs/sequent/pkg/kernel"
)

// Report is the outcome of one full check run.
type Report struct {
	Module    string
	Results   []*Result // statement order
	Diags     []diag.Diagnostic
	Certified int
	Todo      int
	Failed    int
	RunID     string
}

// Ok reports whether the run produced no failures and no diagnostics.
func (r *Report) Ok() bool {
	return r.Failed == 0 && len(r.Diags) == 0
}

// Check runs the whole pipeline over a proof tree root: discover and
// order units, compile them sequentially, verify theorems in parallel,
// and persist the run when a store is configured.
func (e *Engine) Check(ctx context.Context, root string) (*Report, error) {
	units, err := loader.Discover(root)
	if err != nil {
		return nil, err
	}
	ordered, err := loader.Order(units)
	if err != nil {
		return nil, err
	}
	return e.CheckUnits(ctx, root, ordered)
}

// CheckUnits runs the pipeline over an already-ordered unit list.
func (e *Engine) CheckUnits(ctx context.Context, root string, units []*loader.Unit) (*Report, error) {
	e.logger.Info("starting check", "root", root, "units", len(units))

	var run *state.Run
	if e.store != nil {
		r, err := e.store.CreateRun(root)
		if err != nil {
			return nil, err
		}
		run = r
	}

	c := diag.NewCollector()
	e.Compile(units, c)

	var results map[string]*Result
	if !c.Fatal() {
		results = e.Verify(ctx, c)
	}

	report := &Report{Module: e.module, Diags: c.All()}
	for _, name := range e.order {
		res, ok := results[name]
		if !ok {
			continue
		}
		report.Results = append(report.Results, res)
		switch res.Status {
		case kernel.StatusCertified:
			report.Certified++
		case kernel.StatusCertifiedTodo:
			report.Todo++
		case kernel.StatusFailed:
			report.Failed++
		}
	}

	if run != nil {
		e.persist(run, report)
		report.RunID = run.ID
	}

	e.logger.Info("check finished",
		"certified", report.Certified, "todo", report.Todo,
		"failed", report.Failed, "diagnostics", len(report.Diags))
	return report, nil
}

func (e *Engine) persist(run *state.Run, report *Report) {
	for _, res := range report.Results {
		rec := &state.TheoremResult{
			RunID:      run.ID,
			Name:       res.Name,
			Module:     res.Module,
			Status:     res.Status.String(),
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Certificate != nil {
			rec.Certificate = res.Certificate.ID.String()
			rec.UsesTodo = res.Certificate.UsesTodo
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		if err := e.store.RecordTheorem(rec); err != nil {
			e.logger.Warn("failed to record theorem result", "name", res.Name, "error", err)
		}
	}

	status := state.RunStatusSuccess
	errMsg := ""
	if report.Failed > 0 || len(report.Diags) > 0 {
		status = state.RunStatusFailed
	}
	total := report.Certified + report.Todo + report.Failed
	if err := e.store.CompleteRun(run.ID, status, total, report.Certified+report.Todo, report.Failed, errMsg); err != nil {
		e.logger.Warn("failed to complete run record", "run_id", run.ID, "error", err)
	}
}
