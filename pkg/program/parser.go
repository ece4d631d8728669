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

package program

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/carverauto/printflow/pkg/escpos"
)

// ParseError reports a malformed command at a specific line. It is returned
// only for lines whose keyword is recognized; a line with an unknown keyword
// halts parsing and is handed back as leftover instead, so the caller
// decides whether that is fatal.
type ParseError struct {
	Line    int
	Command string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Command, e.Reason)
}

var errUnknownKeyword = errors.New("unknown keyword")

// Parse turns a newline-delimited script into a Program. Blank lines are
// skipped and surrounding whitespace is ignored. Parsing stops at the first
// line that does not start with a known keyword; that line and everything
// after it is returned as leftover. Parse is pure: no I/O, no side effects.
func Parse(input string) (Program, string, error) {
	var prog Program

	rest := input
	lineNo := 0

	for rest != "" {
		line, remaining := cutLine(rest)
		lineNo++

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			rest = remaining
			continue
		}

		cmd, err := parseLine(trimmed)
		if err != nil {
			if errors.Is(err, errUnknownKeyword) {
				return prog, rest, nil
			}

			var perr *ParseError
			if errors.As(err, &perr) {
				perr.Line = lineNo
			}

			return Program{}, rest, err
		}

		prog.Commands = append(prog.Commands, cmd)
		rest = remaining
	}

	return prog, "", nil
}

func cutLine(s string) (line, rest string) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSuffix(s[:i], "\r"), s[i+1:]
	}

	return s, ""
}

// parseLine matches one trimmed, non-blank line against the command grammar.
// Keywords are case-sensitive; longer keywords are matched before their
// prefixes (writeln before write, reset_size before reverse misfires are
// impossible since keywords differ, but write/writeln share a prefix).
func parseLine(line string) (Command, error) {
	keyword, arg := splitKeyword(line)

	switch keyword {
	case "writeln":
		text, err := parseQuoted(keyword, arg)
		if err != nil {
			return Command{}, err
		}

		return Raw(escpos.Write(text + "\n")), nil
	case "write":
		text, err := parseQuoted(keyword, arg)
		if err != nil {
			return Command{}, err
		}

		return Raw(escpos.Write(text)), nil
	case "bold":
		return parseBoolCmd(keyword, arg, escpos.Bold)
	case "double_strike":
		return parseBoolCmd(keyword, arg, escpos.DoubleStrike)
	case "flip":
		return parseBoolCmd(keyword, arg, escpos.Flip)
	case "reverse":
		return parseBoolCmd(keyword, arg, escpos.Reverse)
	case "underline":
		switch strings.ToLower(arg) {
		case "none":
			return Raw(escpos.Underline(escpos.UnderlineNone)), nil
		case "single":
			return Raw(escpos.Underline(escpos.UnderlineSingle)), nil
		case "double":
			return Raw(escpos.Underline(escpos.UnderlineDouble)), nil
		default:
			return Command{}, &ParseError{Command: keyword, Reason: "expected none, single or double"}
		}
	case "font":
		switch strings.ToLower(arg) {
		case "a":
			return Raw(escpos.SetFont(escpos.FontA)), nil
		case "b":
			return Raw(escpos.SetFont(escpos.FontB)), nil
		case "c":
			return Raw(escpos.SetFont(escpos.FontC)), nil
		default:
			return Command{}, &ParseError{Command: keyword, Reason: "expected a, b or c"}
		}
	case "justify":
		switch strings.ToLower(arg) {
		case "left":
			return Raw(escpos.SetJustify(escpos.JustifyLeft)), nil
		case "center":
			return Raw(escpos.SetJustify(escpos.JustifyCenter)), nil
		case "right":
			return Raw(escpos.SetJustify(escpos.JustifyRight)), nil
		default:
			return Command{}, &ParseError{Command: keyword, Reason: "expected left, center or right"}
		}
	case "feed":
		if arg == "" {
			return Raw(escpos.Feed(1)), nil
		}

		lines, err := parseUint8(arg)
		if err != nil {
			return Command{}, &ParseError{Command: keyword, Reason: "expected a line count 0-255"}
		}

		return Raw(escpos.Feed(lines)), nil
	case "ean13":
		if err := checkDigits(arg, 12, 13); err != nil {
			return Command{}, &ParseError{Command: keyword, Reason: err.Error()}
		}

		return Raw(escpos.Ean13(arg)), nil
	case "ean8":
		if err := checkDigits(arg, 7, 8); err != nil {
			return Command{}, &ParseError{Command: keyword, Reason: err.Error()}
		}

		return Raw(escpos.Ean8(arg)), nil
	case "qr_code":
		data, err := parseQuoted(keyword, arg)
		if err != nil {
			return Command{}, err
		}

		return Raw(escpos.QRCode(data)), nil
	case "size":
		w, h, err := parseSizePair(arg)
		if err != nil {
			return Command{}, &ParseError{Command: keyword, Reason: err.Error()}
		}

		return Raw(escpos.Size(w, h)), nil
	case "reset_size":
		if arg != "" {
			return Command{}, &ParseError{Command: keyword, Reason: "takes no argument"}
		}

		return Raw(escpos.ResetSize()), nil
	case "cut":
		if arg != "" {
			return Command{}, &ParseError{Command: keyword, Reason: "takes no argument"}
		}

		return Raw(escpos.Cut()), nil
	case "sudoku":
		if arg != "" {
			return Command{}, &ParseError{Command: keyword, Reason: "takes no argument"}
		}

		return Sudoku(), nil
	case "minicrossword":
		if arg != "" {
			return Command{}, &ParseError{Command: keyword, Reason: "takes no argument"}
		}

		return MiniCrossword(), nil
	case "todo":
		task, err := parseQuoted(keyword, arg)
		if err != nil {
			return Command{}, err
		}

		return Todo(task), nil
	default:
		return Command{}, errUnknownKeyword
	}
}

func splitKeyword(line string) (keyword, arg string) {
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i], strings.TrimSpace(line[i+1:])
	}

	return line, ""
}

func parseBoolCmd(keyword, arg string, build func(bool) escpos.Command) (Command, error) {
	switch strings.ToLower(arg) {
	case "true":
		return Raw(build(true)), nil
	case "false":
		return Raw(build(false)), nil
	default:
		return Command{}, &ParseError{Command: keyword, Reason: "expected true or false"}
	}
}

// parseQuoted unquotes a double-quoted string argument. Only \" and \\ are
// recognized escapes; anything else after a backslash is malformed.
func parseQuoted(keyword, arg string) (string, error) {
	if len(arg) < 2 || arg[0] != '"' {
		return "", &ParseError{Command: keyword, Reason: "expected a double-quoted string"}
	}

	var b strings.Builder

	i := 1
	for i < len(arg) {
		switch arg[i] {
		case '\\':
			if i+1 >= len(arg) {
				return "", &ParseError{Command: keyword, Reason: "unterminated escape sequence"}
			}

			switch arg[i+1] {
			case '"', '\\':
				b.WriteByte(arg[i+1])
			default:
				return "", &ParseError{
					Command: keyword,
					Reason:  fmt.Sprintf("unknown escape sequence \\%c", arg[i+1]),
				}
			}

			i += 2
		case '"':
			if i != len(arg)-1 {
				return "", &ParseError{Command: keyword, Reason: "unexpected input after closing quote"}
			}

			return b.String(), nil
		default:
			b.WriteByte(arg[i])
			i++
		}
	}

	return "", &ParseError{Command: keyword, Reason: "missing closing quote"}
}

func parseUint8(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}

	return uint8(v), nil
}

func checkDigits(s string, minLen, maxLen int) error {
	if len(s) < minLen || len(s) > maxLen {
		return fmt.Errorf("expected %d-%d decimal digits, got %d characters", minLen, maxLen, len(s))
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("expected %d-%d decimal digits", minLen, maxLen)
		}
	}

	return nil
}

func parseSizePair(arg string) (w, h uint8, err error) {
	left, right, found := strings.Cut(arg, ",")
	if !found {
		return 0, 0, errors.New("expected <width>,<height>")
	}

	w, err = parseUint8(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, errors.New("width must be 1-8")
	}

	h, err = parseUint8(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, errors.New("height must be 1-8")
	}

	if w < 1 || w > 8 || h < 1 || h > 8 {
		return 0, 0, errors.New("size multipliers must be 1-8")
	}

	return w, h, nil
}
