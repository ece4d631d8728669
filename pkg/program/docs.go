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
	"fmt"
	"strings"
)

// Category groups commands in the generated reference.
type Category string

const (
	CategoryText       Category = "Text Output"
	CategoryFormatting Category = "Text Formatting"
	CategoryLayout     Category = "Layout & Spacing"
	CategoryBarcodes   Category = "Barcodes & QR Codes"
	CategorySpecial    Category = "Special Commands"
)

// Doc is the reference record for one DSL command. The table below is static
// data, independent of the parser's control flow; the parser never consults
// it and tests validate the two against each other.
type Doc struct {
	Name        string
	Syntax      string
	Description string
	Category    Category
	Examples    []string
}

// Docs is the command reference, in display order.
var Docs = []Doc{
	{
		Name:        "write",
		Syntax:      `write "<text>"`,
		Description: "Outputs text to the printer without a line break at the end",
		Category:    CategoryText,
		Examples:    []string{`write "Hello World"`, `write "Price: $19.99"`},
	},
	{
		Name:        "writeln",
		Syntax:      `writeln "<text>"`,
		Description: "Outputs text to the printer followed by a line break",
		Category:    CategoryText,
		Examples:    []string{`writeln "Hello World"`, `writeln "Order #12345"`},
	},
	{
		Name:        "bold",
		Syntax:      "bold <true|false>",
		Description: "Enables or disables bold text",
		Category:    CategoryFormatting,
		Examples:    []string{"bold true", "bold false"},
	},
	{
		Name:        "underline",
		Syntax:      "underline <none|single|double>",
		Description: "Sets the underline mode for text",
		Category:    CategoryFormatting,
		Examples:    []string{"underline none", "underline single", "underline double"},
	},
	{
		Name:        "double_strike",
		Syntax:      "double_strike <true|false>",
		Description: "Enables or disables double-strike for text",
		Category:    CategoryFormatting,
		Examples:    []string{"double_strike true", "double_strike false"},
	},
	{
		Name:   "font",
		Syntax: "font <a|b|c>",
		Description: "Sets the font type. Available fonts depend on printer model and " +
			"might fall back to another font if unavailable.",
		Category: CategoryFormatting,
		Examples: []string{"font a", "font b", "font c"},
	},
	{
		Name:        "flip",
		Syntax:      "flip <true|false>",
		Description: "Flips text 180 degrees",
		Category:    CategoryFormatting,
		Examples:    []string{"flip true", "flip false"},
	},
	{
		Name:        "justify",
		Syntax:      "justify <left|center|right>",
		Description: "Sets text justification/alignment",
		Category:    CategoryLayout,
		Examples:    []string{"justify left", "justify center", "justify right"},
	},
	{
		Name:        "reverse",
		Syntax:      "reverse <true|false>",
		Description: "Enables or disables inverted text colors (white text on black background)",
		Category:    CategoryFormatting,
		Examples:    []string{"reverse true", "reverse false"},
	},
	{
		Name:        "feed",
		Syntax:      "feed [lines]",
		Description: "Feeds paper forward by the specified number of lines (default 1)",
		Category:    CategoryLayout,
		Examples:    []string{"feed", "feed 1", "feed 3", "feed 10"},
	},
	{
		Name:        "ean13",
		Syntax:      "ean13 <12-13 digits>",
		Description: "Prints an EAN-13 barcode (12 or 13 digits)",
		Category:    CategoryBarcodes,
		Examples:    []string{"ean13 1234567890123", "ean13 123456789012"},
	},
	{
		Name:        "ean8",
		Syntax:      "ean8 <7-8 digits>",
		Description: "Prints an EAN-8 barcode (7 or 8 digits)",
		Category:    CategoryBarcodes,
		Examples:    []string{"ean8 12345678", "ean8 1234567"},
	},
	{
		Name:        "qr_code",
		Syntax:      `qr_code "<data>"`,
		Description: "Prints a QR code with the specified data",
		Category:    CategoryBarcodes,
		Examples:    []string{`qr_code "https://example.com"`, `qr_code "Hello World"`},
	},
	{
		Name:        "size",
		Syntax:      "size <width>,<height>",
		Description: "Sets character size multiplier (1-8 for both width and height)",
		Category:    CategoryFormatting,
		Examples:    []string{"size 1,1", "size 2,2", "size 3,1"},
	},
	{
		Name:        "reset_size",
		Syntax:      "reset_size",
		Description: "Resets text size to default (1,1)",
		Category:    CategoryFormatting,
		Examples:    []string{"reset_size"},
	},
	{
		Name:        "sudoku",
		Syntax:      "sudoku",
		Description: "Generates and prints a random Sudoku puzzle",
		Category:    CategorySpecial,
		Examples:    []string{"sudoku"},
	},
	{
		Name:        "minicrossword",
		Syntax:      "minicrossword",
		Description: "Generates and prints a mini crossword puzzle",
		Category:    CategorySpecial,
		Examples:    []string{"minicrossword"},
	},
	{
		Name:        "cut",
		Syntax:      "cut",
		Description: "Cuts the paper (if printer has auto-cutter)",
		Category:    CategorySpecial,
		Examples:    []string{"cut"},
	},
	{
		Name:        "todo",
		Syntax:      `todo "<task>"`,
		Description: "Adds a line rendered as a todo item",
		Category:    CategorySpecial,
		Examples:    []string{`todo "Buy groceries"`, `todo "Call dentist"`},
	},
}

var categoryOrder = []Category{
	CategoryText,
	CategoryFormatting,
	CategoryLayout,
	CategoryBarcodes,
	CategorySpecial,
}

// GenerateMarkdown renders the command reference document.
func GenerateMarkdown() string {
	var b strings.Builder

	b.WriteString("# Print DSL Reference\n\n")
	b.WriteString("This document describes the Domain Specific Language (DSL) used to send ")
	b.WriteString("printing commands to ESC/POS-compatible printers.\n\n")
	b.WriteString("## Overview\n\n")
	b.WriteString("The DSL consists of commands that are executed sequentially. ")
	b.WriteString("Each command must be on its own line.\n")
	b.WriteString("Empty lines are ignored. String arguments must be enclosed in double quotes.\n\n")

	for _, cat := range categoryOrder {
		fmt.Fprintf(&b, "## %s\n\n", cat)

		for _, doc := range Docs {
			if doc.Category != cat {
				continue
			}

			fmt.Fprintf(&b, "### `%s`\n\n", doc.Name)
			fmt.Fprintf(&b, "**Syntax:** `%s`\n\n", doc.Syntax)
			fmt.Fprintf(&b, "%s\n\n", doc.Description)

			if len(doc.Examples) > 0 {
				b.WriteString("**Examples:**\n\n```\n")

				for _, example := range doc.Examples {
					b.WriteString(example)
					b.WriteByte('\n')
				}

				b.WriteString("```\n\n")
			}
		}
	}

	return b.String()
}
