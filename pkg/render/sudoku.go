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
	"math/rand"
	"strings"

	"github.com/carverauto/printflow/pkg/escpos"
)

const sudokuClues = 40

// expandSudoku generates a fresh puzzle and renders it as a centered
// box-drawing board.
func expandSudoku() []escpos.Command {
	board := generateSudoku(sudokuClues)

	return []escpos.Command{
		escpos.ResetSize(),
		escpos.SetJustify(escpos.JustifyCenter),
		escpos.Write(renderSudoku(board)),
		escpos.SetJustify(escpos.JustifyLeft),
		escpos.ResetSize(),
	}
}

type sudokuBoard [9][9]int

// generateSudoku produces a random solved board and blanks cells until only
// the requested number of clues remain.
func generateSudoku(clues int) sudokuBoard {
	var board sudokuBoard

	fillSudoku(&board, 0)

	positions := rand.Perm(81)
	remaining := 81

	for _, pos := range positions {
		if remaining <= clues {
			break
		}

		board[pos/9][pos%9] = 0
		remaining--
	}

	return board
}

// fillSudoku completes the board by backtracking over cells in row order,
// trying candidate digits in random order so every run yields a different
// solution.
func fillSudoku(board *sudokuBoard, cell int) bool {
	if cell == 81 {
		return true
	}

	row, col := cell/9, cell%9

	for _, n := range rand.Perm(9) {
		digit := n + 1
		if !sudokuAllows(board, row, col, digit) {
			continue
		}

		board[row][col] = digit
		if fillSudoku(board, cell+1) {
			return true
		}

		board[row][col] = 0
	}

	return false
}

func sudokuAllows(board *sudokuBoard, row, col, digit int) bool {
	for i := 0; i < 9; i++ {
		if board[row][i] == digit || board[i][col] == digit {
			return false
		}
	}

	boxRow, boxCol := row/3*3, col/3*3
	for r := boxRow; r < boxRow+3; r++ {
		for c := boxCol; c < boxCol+3; c++ {
			if board[r][c] == digit {
				return false
			}
		}
	}

	return true
}

// renderSudoku draws the board with box-drawing characters, doubled lines on
// the 3x3 block boundaries.
func renderSudoku(board sudokuBoard) string {
	corners := [4][4]string{
		{"┌", "┬", "╥", "┐"}, // top
		{"├", "┼", "╫", "┤"}, // thin separator
		{"╞", "╪", "╬", "╡"}, // thick separator
		{"└", "┴", "╨", "┘"}, // bottom
	}

	var b strings.Builder

	writeRule := func(chars [4]string, thick bool) {
		b.WriteString(chars[0])

		for i := 0; i < 9; i++ {
			if thick {
				b.WriteString("═══")
			} else {
				b.WriteString("───")
			}

			if i < 8 {
				if i%3 == 2 {
					b.WriteString(chars[2])
				} else {
					b.WriteString(chars[1])
				}
			}
		}

		b.WriteString(chars[3])
		b.WriteString("\n")
	}

	writeRule(corners[0], false)

	for row := 0; row < 9; row++ {
		b.WriteString("|")

		for col := 0; col < 9; col++ {
			if n := board[row][col]; n > 0 {
				b.WriteString(" " + string(rune('0'+n)) + " ")
			} else {
				b.WriteString("   ")
			}

			if col%3 == 2 && col < 8 {
				b.WriteString("║")
			} else {
				b.WriteString("│")
			}
		}

		b.WriteString("\n")

		switch {
		case row == 8:
			writeRule(corners[3], false)
		case row%3 == 2:
			writeRule(corners[2], true)
		default:
			writeRule(corners[1], false)
		}
	}

	return b.String()
}
