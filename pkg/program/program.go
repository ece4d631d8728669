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

// Package program defines the print DSL: its abstract syntax, the line
// parser, and the static command reference. A Program is a flat ordered list
// of commands; most map one-to-one onto primitive printer commands, while
// the expandable ones (sudoku, minicrossword, todo) are resolved by the
// renderer before any device sees them.
package program

import "github.com/carverauto/printflow/pkg/escpos"

// Kind discriminates DSL command variants.
type Kind string

const (
	// KindRaw wraps a primitive printer command verbatim.
	KindRaw Kind = "raw"
	// KindSudoku expands into a generated sudoku board at render time.
	KindSudoku Kind = "sudoku"
	// KindMiniCrossword expands into the day's mini crossword at render time.
	KindMiniCrossword Kind = "minicrossword"
	// KindTodo expands into a wrapped checkbox line at render time.
	KindTodo Kind = "todo"
)

// Command is one DSL command. Raw is set only for KindRaw, Text only for
// KindTodo.
type Command struct {
	Kind Kind
	Raw  escpos.Command
	Text string
}

// Raw wraps a primitive command.
func Raw(cmd escpos.Command) Command {
	return Command{Kind: KindRaw, Raw: cmd}
}

// Sudoku is the sudoku expandable directive.
func Sudoku() Command { return Command{Kind: KindSudoku} }

// MiniCrossword is the mini-crossword expandable directive.
func MiniCrossword() Command { return Command{Kind: KindMiniCrossword} }

// Todo is the todo-item expandable directive.
func Todo(task string) Command { return Command{Kind: KindTodo, Text: task} }

// Program is an ordered command sequence parsed from one DSL script.
type Program struct {
	Commands []Command
}
