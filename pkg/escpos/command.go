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

// Package escpos defines the primitive command model for ESC/POS receipt
// printers and the connection contracts the rest of the system programs
// against. The wire encoding of commands lives behind the Conn interface.
package escpos

// CommandType discriminates the primitive command variants.
type CommandType string

const (
	CmdWrite        CommandType = "write"
	CmdBold         CommandType = "bold"
	CmdUnderline    CommandType = "underline"
	CmdDoubleStrike CommandType = "double_strike"
	CmdFont         CommandType = "font"
	CmdFlip         CommandType = "flip"
	CmdJustify      CommandType = "justify"
	CmdReverse      CommandType = "reverse"
	CmdFeed         CommandType = "feed"
	CmdEan13        CommandType = "ean13"
	CmdEan8         CommandType = "ean8"
	CmdQRCode       CommandType = "qr_code"
	CmdSize         CommandType = "size"
	CmdResetSize    CommandType = "reset_size"
	CmdCut          CommandType = "cut"
	CmdBitImage     CommandType = "bit_image"
)

// UnderlineMode selects the underline weight.
type UnderlineMode string

const (
	UnderlineNone   UnderlineMode = "none"
	UnderlineSingle UnderlineMode = "single"
	UnderlineDouble UnderlineMode = "double"
)

// Font selects one of the printer's built-in fonts.
type Font string

const (
	FontA Font = "a"
	FontB Font = "b"
	FontC Font = "c"
)

// Justify selects horizontal alignment.
type Justify string

const (
	JustifyLeft   Justify = "left"
	JustifyCenter Justify = "center"
	JustifyRight  Justify = "right"
)

// Command is one primitive printer instruction. Only the fields relevant to
// the Type are set; the zero values of the rest are ignored.
type Command struct {
	Type CommandType

	Text      string        // Write, Ean13, Ean8, QRCode
	Enabled   bool          // Bold, DoubleStrike, Flip, Reverse
	Underline UnderlineMode // Underline
	Font      Font          // Font
	Justify   Justify       // Justify
	Lines     uint8         // Feed
	Width     uint8         // Size
	Height    uint8         // Size

	Image      []byte // BitImage, encoded PNG
	ImageWidth uint32 // BitImage, target width in dots
}

func Write(text string) Command { return Command{Type: CmdWrite, Text: text} }

func Bold(on bool) Command { return Command{Type: CmdBold, Enabled: on} }

func Underline(mode UnderlineMode) Command { return Command{Type: CmdUnderline, Underline: mode} }

func DoubleStrike(on bool) Command { return Command{Type: CmdDoubleStrike, Enabled: on} }

func SetFont(f Font) Command { return Command{Type: CmdFont, Font: f} }

func Flip(on bool) Command { return Command{Type: CmdFlip, Enabled: on} }

func SetJustify(j Justify) Command { return Command{Type: CmdJustify, Justify: j} }

func Reverse(on bool) Command { return Command{Type: CmdReverse, Enabled: on} }

func Feed(lines uint8) Command { return Command{Type: CmdFeed, Lines: lines} }

func Ean13(digits string) Command { return Command{Type: CmdEan13, Text: digits} }

func Ean8(digits string) Command { return Command{Type: CmdEan8, Text: digits} }

func QRCode(data string) Command { return Command{Type: CmdQRCode, Text: data} }

func Size(width, height uint8) Command { return Command{Type: CmdSize, Width: width, Height: height} }

func ResetSize() Command { return Command{Type: CmdResetSize} }

func Cut() Command { return Command{Type: CmdCut} }

func BitImage(png []byte, width uint32) Command {
	return Command{Type: CmdBitImage, Image: png, ImageWidth: width}
}
