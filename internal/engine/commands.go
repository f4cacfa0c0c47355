package engine

import (
	"fmt"

	"github.com/leapstack-labs/sequent/internal/diag"
	"github.com/leapstack-labs/sequent/internal/elab"
	"github.com/leapstack-labs/sequent/internal/loader"
	"github.com/leapstack-labs/sequent/pkg/parser"
	"github.com/leapstack-labs/sequent/pkg/token"
)

// command is one top-level command's token slice.
type command struct {
	toks []token.Token
	span token.Span
}

// splitCommands cuts a token stream at command boundaries. Commands have
// fixed terminators: module and category take exactly one name, syntax,
// notation and axiom run to end, theorem runs to qed, and definition runs
// to whichever of end or qed closes its form. Splitting before parsing
// keeps one command's syntax error from cascading into the rest of the
// file.
func splitCommands(toks []token.Token) ([]command, []diag.Diagnostic) {
	var cmds []command
	var diags []diag.Diagnostic

	i := 0
	for i < len(toks) {
		start := toks[i]
		if start.Type == token.EOF {
			break
		}
		if !token.IsCommandStart(start.Type) {
			diags = append(diags, diag.Diagnostic{
				Kind:    diag.KindParseFailure,
				Span:    start.Span(),
				Message: fmt.Sprintf("expected a command, got %q", start.Literal),
			})
			// Resynchronize at the next command keyword.
			for i < len(toks) && toks[i].Type != token.EOF && !token.IsCommandStart(toks[i].Type) {
				i++
			}
			continue
		}

		end := i
		switch start.Type {
		case token.MODULE, token.CATEGORY:
			end = i + 1
			if end < len(toks) && toks[end].Type == token.NAME {
				end++
			}
		case token.THEOREM:
			end = scanTo(toks, i+1, token.QED)
		case token.DEFINITION:
			end = scanTo(toks, i+1, token.END, token.QED)
		default:
			end = scanTo(toks, i+1, token.END)
		}

		cmd := command{toks: toks[i:end]}
		cmd.span = token.Span{Start: toks[i].Pos, End: toks[end-1].Span().End}
		cmds = append(cmds, cmd)
		i = end
	}
	return cmds, diags
}

// scanTo returns the index one past the first of the terminators, or the
// EOF index when none appears.
func scanTo(toks []token.Token, from int, terminators ...token.Type) int {
	for i := from; i < len(toks); i++ {
		for _, term := range terminators {
			if toks[i].Type == term {
				return i + 1
			}
		}
		if toks[i].Type == token.EOF {
			return i
		}
	}
	return len(toks)
}

// Compile runs the sequential half of the pipeline over ordered units:
// lex, split, parse, elaborate, apply. Diagnostics accumulate in the
// collector; a failing command is skipped and processing continues.
func (e *Engine) Compile(units []*loader.Unit, c *diag.Collector) {
	for _, unit := range units {
		e.logger.Debug("compiling unit", "unit", unit.Name, "path", unit.Path)
		toks := parser.Tokenize(unit.Path, unit.Source)

		cmds, splitDiags := splitCommands(toks)
		for _, d := range splitDiags {
			c.Add(d)
		}

		for _, cmd := range cmds {
			if err := e.compileCommand(cmd); err != nil {
				c.Report(err, cmd.span, "")
				if c.Fatal() {
					return
				}
			}
		}
	}
}

func (e *Engine) compileCommand(cmd command) error {
	tree, err := e.parser.Parse(cmd.toks, e.seed.Command)
	if err != nil {
		return err
	}
	act, err := elab.Elaborate(e.seed, tree)
	if err != nil {
		return err
	}
	return e.applyAction(act)
}
