/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package render expands a parsed DSL program into the flat primitive
// command sequence a printer actor can execute. Primitive commands pass
// through unchanged; expandable directives (sudoku, minicrossword, todo) are
// resolved concurrently, with results spliced back in program order so the
// output is deterministic regardless of which expansion finishes first.
package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/printflow/pkg/escpos"
	"github.com/carverauto/printflow/pkg/profiles"
	"github.com/carverauto/printflow/pkg/program"
)

// Renderer resolves expandable directives against a printer's capability
// profile.
type Renderer struct {
	crossword *CrosswordClient
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCrosswordClient overrides the crossword source, mainly for tests.
func WithCrosswordClient(c *CrosswordClient) Option {
	return func(r *Renderer) { r.crossword = c }
}

// New creates a Renderer with the default crossword source.
func New(opts ...Option) *Renderer {
	r := &Renderer{crossword: NewCrosswordClient()}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Render expands prog into primitive commands sized for profile. Any
// expansion failure aborts the whole render; there are no partial results.
func (r *Renderer) Render(
	ctx context.Context, prog program.Program, profile *profiles.Profile,
) ([]escpos.Command, error) {
	expanded := make([][]escpos.Command, len(prog.Commands))

	g, ctx := errgroup.WithContext(ctx)

	for i, cmd := range prog.Commands {
		switch cmd.Kind {
		case program.KindRaw:
			expanded[i] = []escpos.Command{cmd.Raw}
		case program.KindTodo:
			expanded[i] = expandTodo(cmd.Text, int(profile.Columns()))
		case program.KindSudoku:
			i := i
			g.Go(func() error {
				expanded[i] = expandSudoku()
				return nil
			})
		case program.KindMiniCrossword:
			i := i
			g.Go(func() error {
				cmds, err := r.expandCrossword(ctx, profile)
				if err != nil {
					return fmt.Errorf("minicrossword: %w", err)
				}

				expanded[i] = cmds

				return nil
			})
		default:
			return nil, fmt.Errorf("unknown program command kind %q", cmd.Kind)
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []escpos.Command
	for _, cmds := range expanded {
		out = append(out, cmds...)
	}

	return out, nil
}

// expandTodo renders a checkbox line wrapped to the printer's column width
// with a hanging indent under the checkbox.
func expandTodo(task string, columns int) []escpos.Command {
	const prefix = "- [ ] "

	cmds := []escpos.Command{escpos.SetJustify(escpos.JustifyLeft)}

	lines := wrapIndent(task, columns, prefix, strings.Repeat(" ", len(prefix)))
	for _, line := range lines {
		cmds = append(cmds, escpos.Write(line+"\n"))
	}

	return cmds
}

// wrapIndent wraps text to width with distinct first-line and continuation
// indents. Width includes the indent.
func wrapIndent(text string, width int, initial, subsequent string) []string {
	indent := len(initial)
	if len(subsequent) > indent {
		indent = len(subsequent)
	}

	inner := width - indent
	if inner < 1 {
		inner = 1
	}

	wrapped := wordwrap.String(text, inner)

	var out []string

	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			out = append(out, initial+line)
		} else {
			out = append(out, subsequent+line)
		}
	}

	return out
}
