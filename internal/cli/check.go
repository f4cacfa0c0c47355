package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sequent/internal/cli/config"
	"github.com/leapstack-labs/sequent/internal/engine"
	"github.com/leapstack-labs/sequent/internal/state"
)

// checkOptions holds options for the check command.
type checkOptions struct {
	Watch      bool
	JSONOutput bool
}

// newCheckCommand creates the check command.
func newCheckCommand() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Verify all proofs under a directory",
		Long: `Parse and verify every proof unit under the given directory.

Units are ordered by their import declarations, compiled against the
growing grammar, and their theorems verified in parallel along the
citation graph. Each run is recorded in the state database unless
--no-state is set.`,
		Example: `  # Check the configured proofs directory
  sequent check

  # Check a specific tree
  sequent check ./examples/arith

  # Re-check on every file change
  sequent check --watch

  # JSON report for CI
  sequent check --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Watch for changes and re-check")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output the report as JSON")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *checkOptions) error {
	cfg := GetConfig(cmd.Context())
	logger := GetLogger(cmd.Context())

	root := cfg.ProofsDir
	if len(args) > 0 {
		root = args[0]
	}
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("proofs directory %s: %w", root, err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	check := func(ctx context.Context) (*engine.Report, error) {
		// Grammar and theorem state are append-only across a run, so a
		// fresh engine per check keeps re-checks independent.
		eng := engine.New(engine.Config{
			Logger:      logger,
			Store:       store,
			Parallelism: cfg.Parallelism,
		})
		return eng.Check(ctx, root)
	}

	if opts.Watch {
		return watchLoop(cmd, root, opts, check)
	}

	report, err := check(cmd.Context())
	if err != nil {
		return err
	}
	if err := renderReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), report, opts.JSONOutput); err != nil {
		return err
	}
	if !report.Ok() {
		return fmt.Errorf("%d failed, %d diagnostics", report.Failed, len(report.Diags))
	}
	return nil
}

// openStore opens and migrates the run-history store, creating its
// directory if needed. Returns nil when history is disabled.
func openStore(cfg *config.Config) (state.StateStore, error) {
	if cfg.NoState {
		return nil, nil
	}
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return store, nil
}

// watchLoop re-checks the tree on every change to a proof unit. The
// initial check runs immediately; a failing check keeps watching.
func watchLoop(cmd *cobra.Command, root string, opts *checkOptions, check func(context.Context) (*engine.Report, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runOnce := func() {
		report, err := check(ctx)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "check error: %v\n", err)
			return
		}
		_ = renderReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), report, opts.JSONOutput)
	}
	runOnce()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes...\n", root)

	// Debounce timer
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// New directories need watching too
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchDirRecursive(watcher, event.Name)
					continue
				}
			}

			if filepath.Ext(event.Name) != ".sq" {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%s changed, re-checking...\n", event.Name)
				runOnce()
			})

		case err := <-watcher.Errors:
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func renderReport(out, errOut io.Writer, report *engine.Report, asJSON bool) error {
	if asJSON {
		return renderReportJSON(out, report)
	}

	for _, d := range report.Diags {
		fmt.Fprintf(errOut, "%s: %s: %s\n", d.Span.Start, d.Kind, d.Message)
	}

	if len(report.Results) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Theorem", "Module", "Status", "Duration"})
		for _, res := range report.Results {
			dur := res.Duration.Round(time.Millisecond).String()
			if res.Duration == 0 {
				dur = "-"
			}
			t.AppendRow(table.Row{res.Name, res.Module, res.Status, dur})
		}
		t.Render()
	}

	fmt.Fprintf(out, "\n%d certified, %d with todo, %d failed, %d diagnostics\n",
		report.Certified, report.Todo, report.Failed, len(report.Diags))
	return nil
}

// jsonReport is the machine-readable check report.
type jsonReport struct {
	Module      string           `json:"module,omitempty"`
	RunID       string           `json:"run_id,omitempty"`
	Certified   int              `json:"certified"`
	Todo        int              `json:"todo"`
	Failed      int              `json:"failed"`
	Theorems    []jsonTheorem    `json:"theorems"`
	Diagnostics []jsonDiagnostic `json:"diagnostics,omitempty"`
}

type jsonTheorem struct {
	Name        string `json:"name"`
	Module      string `json:"module,omitempty"`
	Status      string `json:"status"`
	Certificate string `json:"certificate,omitempty"`
	Error       string `json:"error,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

type jsonDiagnostic struct {
	Kind     string `json:"kind"`
	Position string `json:"position,omitempty"`
	Theorem  string `json:"theorem,omitempty"`
	Message  string `json:"message"`
}

func renderReportJSON(out io.Writer, report *engine.Report) error {
	jr := jsonReport{
		Module:    report.Module,
		RunID:     report.RunID,
		Certified: report.Certified,
		Todo:      report.Todo,
		Failed:    report.Failed,
		Theorems:  []jsonTheorem{},
	}
	for _, res := range report.Results {
		jt := jsonTheorem{
			Name:       res.Name,
			Module:     res.Module,
			Status:     res.Status.String(),
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Certificate != nil {
			jt.Certificate = res.Certificate.ID.String()
		}
		if res.Err != nil {
			jt.Error = res.Err.Error()
		}
		jr.Theorems = append(jr.Theorems, jt)
	}
	for _, d := range report.Diags {
		jr.Diagnostics = append(jr.Diagnostics, jsonDiagnostic{
			Kind:     d.Kind.String(),
			Position: d.Span.Start.String(),
			Theorem:  d.Theorem,
			Message:  d.Message,
		})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}
