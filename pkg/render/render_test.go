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

package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/printflow/pkg/escpos"
	"github.com/carverauto/printflow/pkg/profiles"
	"github.com/carverauto/printflow/pkg/program"
)

const miniPuzzleJSON = `{
	"body": [{
		"cells": [
			{}, {"answer": "C", "label": "1"}, {"answer": "A"},
			{"answer": "T", "label": "2"}, {"answer": "O"}, {"answer": "P"},
			{"answer": "S"}, {"answer": "U"}, {}
		],
		"dimensions": {"width": 3, "height": 3},
		"clueLists": [
			{"name": "Across", "clues": [0]},
			{"name": "Down", "clues": [1]}
		],
		"clues": [
			{"label": "1A", "text": [{"plain": "A feline companion that sits on laps"}]},
			{"label": "1D", "text": [{"plain": "Hat part"}]}
		]
	}],
	"constructors": ["Ada Lovelace", "Alan Turing"],
	"publicationDate": "2026-08-25"
}`

func puzzleServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(miniPuzzleJSON))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestRenderPassthrough(t *testing.T) {
	r := New()

	prog := program.Program{Commands: []program.Command{
		program.Raw(escpos.Write("Hi")),
		program.Raw(escpos.Feed(2)),
		program.Raw(escpos.Cut()),
	}}

	out, err := r.Render(context.Background(), prog, profiles.Default())
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, escpos.Write("Hi"), out[0])
	assert.Equal(t, escpos.Feed(2), out[1])
	assert.Equal(t, escpos.Cut(), out[2])
}

func TestRenderOrderStability(t *testing.T) {
	// The expansion is deliberately slow so that, were ordering driven by
	// completion time, the expanded block would land after "b".
	srv := puzzleServer(t, 150*time.Millisecond)
	r := New(WithCrosswordClient(NewCrosswordClientWithURL(srv.URL)))

	prog := program.Program{Commands: []program.Command{
		program.Raw(escpos.Write("a")),
		program.MiniCrossword(),
		program.Raw(escpos.Write("b")),
	}}

	out, err := r.Render(context.Background(), prog, profiles.Default())
	require.NoError(t, err)
	require.Greater(t, len(out), 3)

	// "a" first, then the whole expansion, then "b" last.
	assert.Equal(t, escpos.Write("a"), out[0])
	assert.Equal(t, escpos.Write("b"), out[len(out)-1])

	sawImage := false

	for _, cmd := range out[1 : len(out)-1] {
		if cmd.Type == escpos.CmdBitImage {
			sawImage = true
		}
	}

	assert.True(t, sawImage, "crossword expansion missing between surrounding writes")
}

func TestRenderGeneratorFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	r := New(WithCrosswordClient(NewCrosswordClientWithURL(srv.URL)))

	prog := program.Program{Commands: []program.Command{
		program.Raw(escpos.Write("a")),
		program.MiniCrossword(),
	}}

	out, err := r.Render(context.Background(), prog, profiles.Default())
	require.Error(t, err)
	assert.Nil(t, out, "no partial render on generator failure")
}

func TestRenderTodoWrapsToProfileColumns(t *testing.T) {
	r := New()

	task := "Pick up the dry cleaning before the store closes and remember the receipt"
	prog := program.Program{Commands: []program.Command{program.Todo(task)}}

	profile := &profiles.Profile{
		Name:  "narrow",
		Fonts: []profiles.FontSpec{{Columns: 24}},
	}

	out, err := r.Render(context.Background(), prog, profile)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(out), 3)
	assert.Equal(t, escpos.SetJustify(escpos.JustifyLeft), out[0])

	writes := out[1:]
	assert.True(t, strings.HasPrefix(writes[0].Text, "- [ ] "))

	for _, w := range writes[1:] {
		assert.True(t, strings.HasPrefix(w.Text, "      "), "continuation lines use a hanging indent")
	}

	for _, w := range writes {
		assert.LessOrEqual(t, len(strings.TrimSuffix(w.Text, "\n")), 24, "line %q exceeds column width", w.Text)
	}
}

func TestRenderSudokuBoardIsValid(t *testing.T) {
	board := generateSudoku(sudokuClues)

	filled := 0

	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			n := board[row][col]
			if n == 0 {
				continue
			}

			filled++

			board[row][col] = 0
			assert.True(t, sudokuAllows(&board, row, col, n), "duplicate digit %d at %d,%d", n, row, col)
			board[row][col] = n
		}
	}

	assert.Equal(t, sudokuClues, filled)
}

func TestRenderSudokuCommands(t *testing.T) {
	cmds := expandSudoku()

	require.Len(t, cmds, 5)
	assert.Equal(t, escpos.CmdResetSize, cmds[0].Type)
	assert.Equal(t, escpos.SetJustify(escpos.JustifyCenter), cmds[1])
	assert.Equal(t, escpos.CmdWrite, cmds[2].Type)
	assert.Contains(t, cmds[2].Text, "┌")
	assert.Equal(t, escpos.SetJustify(escpos.JustifyLeft), cmds[3])
	assert.Equal(t, escpos.CmdResetSize, cmds[4].Type)
}

func TestRenderCrosswordClueLayout(t *testing.T) {
	srv := puzzleServer(t, 0)
	r := New(WithCrosswordClient(NewCrosswordClientWithURL(srv.URL)))

	prog := program.Program{Commands: []program.Command{program.MiniCrossword()}}

	out, err := r.Render(context.Background(), prog, profiles.Default())
	require.NoError(t, err)

	var text strings.Builder
	for _, cmd := range out {
		if cmd.Type == escpos.CmdWrite {
			text.WriteString(cmd.Text)
		}
	}

	rendered := text.String()
	assert.Contains(t, rendered, "Tuesday, August 25, 2026")
	assert.Contains(t, rendered, "Across:")
	assert.Contains(t, rendered, "Down:")
	assert.Contains(t, rendered, "1A: ")
	assert.Contains(t, rendered, "by Ada Lovelace and Alan Turing")
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "", formatList(nil))
	assert.Equal(t, "a", formatList([]string{"a"}))
	assert.Equal(t, "a and b", formatList([]string{"a", "b"}))
	assert.Equal(t, "a, b, and c", formatList([]string{"a", "b", "c"}))
}
