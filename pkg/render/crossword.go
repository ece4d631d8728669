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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"strings"
	"time"

	"github.com/carverauto/printflow/pkg/escpos"
	"github.com/carverauto/printflow/pkg/profiles"
)

const (
	defaultCrosswordURL    = "https://www.nytimes.com/svc/crosswords/v6/puzzle/mini.json"
	crosswordFetchTimeout  = 10 * time.Second
	crosswordGridLineWidth = 2
	crosswordWidthFraction = 0.8
)

var errEmptyPuzzle = errors.New("puzzle feed contained no puzzles")

// CrosswordClient fetches the daily mini crossword.
type CrosswordClient struct {
	baseURL string
	client  *http.Client
}

// NewCrosswordClient creates a client against the default puzzle feed.
func NewCrosswordClient() *CrosswordClient {
	return &CrosswordClient{
		baseURL: defaultCrosswordURL,
		client:  &http.Client{Timeout: crosswordFetchTimeout},
	}
}

// NewCrosswordClientWithURL creates a client against a custom feed, for tests.
func NewCrosswordClientWithURL(url string) *CrosswordClient {
	return &CrosswordClient{
		baseURL: url,
		client:  &http.Client{Timeout: crosswordFetchTimeout},
	}
}

type crosswordFeed struct {
	Body            []crosswordPuzzle `json:"body"`
	Constructors    []string          `json:"constructors"`
	PublicationDate string            `json:"publicationDate"`
}

type crosswordPuzzle struct {
	Cells      []crosswordCell `json:"cells"`
	Dimensions crosswordDims   `json:"dimensions"`
	ClueLists  []clueList      `json:"clueLists"`
	Clues      []clue          `json:"clues"`
}

// crosswordCell is empty for black squares.
type crosswordCell struct {
	Answer string `json:"answer"`
	Label  string `json:"label"`
}

type crosswordDims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type clueList struct {
	Name  string `json:"name"`
	Clues []int  `json:"clues"`
}

type clue struct {
	Label string     `json:"label"`
	Text  []clueText `json:"text"`
}

type clueText struct {
	Plain string `json:"plain"`
}

// Fetch retrieves and decodes the day's puzzle.
func (c *CrosswordClient) Fetch(ctx context.Context) (*crosswordFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch crossword: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch crossword: unexpected status %s", resp.Status)
	}

	var feed crosswordFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode crossword: %w", err)
	}

	if len(feed.Body) == 0 {
		return nil, errEmptyPuzzle
	}

	return &feed, nil
}

// expandCrossword fetches the daily puzzle and renders the grid image, the
// clue lists wrapped to the printer's column width, and the byline.
func (r *Renderer) expandCrossword(
	ctx context.Context, profile *profiles.Profile,
) ([]escpos.Command, error) {
	feed, err := r.crossword.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	puzzle := feed.Body[0]
	columns := int(profile.Columns())

	gridWidth := uint32(float64(profile.WidthPx()) * crosswordWidthFraction)

	grid, err := drawCrosswordGrid(&puzzle, int(gridWidth))
	if err != nil {
		return nil, err
	}

	cmds := []escpos.Command{
		escpos.ResetSize(),
		escpos.Write(formatPublicationDate(feed.PublicationDate) + "\n"),
		escpos.Feed(1),
		escpos.SetJustify(escpos.JustifyCenter),
		escpos.BitImage(grid, gridWidth),
		escpos.Feed(2),
		escpos.SetJustify(escpos.JustifyLeft),
	}

	for _, list := range puzzle.ClueLists {
		cmds = append(cmds, escpos.Write(list.Name+":\n"))

		for _, idx := range list.Clues {
			if idx < 0 || idx >= len(puzzle.Clues) {
				return nil, fmt.Errorf("clue index %d out of range", idx)
			}

			cl := puzzle.Clues[idx]
			if len(cl.Text) == 0 {
				continue
			}

			label := cl.Label + ": "
			for _, line := range wrapIndent(cl.Text[0].Plain, columns, label, strings.Repeat(" ", len(label))) {
				cmds = append(cmds, escpos.Write(line+"\n"))
			}
		}

		cmds = append(cmds, escpos.Feed(1))
	}

	if len(feed.Constructors) > 0 {
		for _, line := range wrapIndent(formatList(feed.Constructors), columns, "by ", "   ") {
			cmds = append(cmds, escpos.Write(line+"\n"))
		}
	}

	cmds = append(cmds, escpos.ResetSize())

	return cmds, nil
}

// drawCrosswordGrid rasterizes the empty puzzle grid as a PNG: white cells,
// filled black squares, black rules.
func drawCrosswordGrid(puzzle *crosswordPuzzle, targetWidth int) ([]byte, error) {
	w, h := puzzle.Dimensions.Width, puzzle.Dimensions.Height
	if w <= 0 || h <= 0 || len(puzzle.Cells) != w*h {
		return nil, fmt.Errorf("malformed grid: %dx%d with %d cells", w, h, len(puzzle.Cells))
	}

	cellPx := targetWidth / w
	if cellPx < 8 {
		cellPx = 8
	}

	imgW := cellPx*w + crosswordGridLineWidth
	imgH := cellPx*h + crosswordGridLineWidth

	img := image.NewGray(image.Rect(0, 0, imgW, imgH))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	fill := func(x0, y0, x1, y1 int) {
		draw.Draw(img, image.Rect(x0, y0, x1, y1), image.NewUniform(color.Black), image.Point{}, draw.Src)
	}

	// Rules.
	for i := 0; i <= w; i++ {
		x := i * cellPx
		fill(x, 0, x+crosswordGridLineWidth, imgH)
	}

	for i := 0; i <= h; i++ {
		y := i * cellPx
		fill(0, y, imgW, y+crosswordGridLineWidth)
	}

	// Black squares: cells with no answer.
	for i, cell := range puzzle.Cells {
		if cell.Answer != "" {
			continue
		}

		x := (i % w) * cellPx
		y := (i / w) * cellPx
		fill(x, y, x+cellPx+crosswordGridLineWidth, y+cellPx+crosswordGridLineWidth)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode grid: %w", err)
	}

	return buf.Bytes(), nil
}

func formatPublicationDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}

	return t.Format("Monday, January 2, 2006")
}

// formatList joins names in prose style: "a", "a and b", "a, b, and c".
func formatList(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		var b strings.Builder

		for i, name := range names {
			if i == len(names)-1 {
				b.WriteString(", and ")
			} else if i != 0 {
				b.WriteString(", ")
			}

			b.WriteString(name)
		}

		return b.String()
	}
}
