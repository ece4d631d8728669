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

package escpos

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png" // raster source for bit images
	"net"
	"time"
)

const (
	esc = 0x1B
	gs  = 0x1D

	rawReadTimeout = 2 * time.Second

	// QR module size and error correction, fixed for receipt use.
	qrModuleSize = 6
	qrECLevelM   = 49
)

var errUnknownCommand = errors.New("unknown primitive command")

// netConn encodes primitive commands into ESC/POS byte sequences over a raw
// TCP session. Commands are staged in a buffer; Flush commits the batch.
type netConn struct {
	conn net.Conn
	buf  bytes.Buffer
}

var _ Conn = (*netConn)(nil)

func newNetConn(conn net.Conn) *netConn {
	c := &netConn{conn: conn}

	// ESC @ resets the printer to its power-on state.
	c.buf.Write([]byte{esc, '@'})

	return c
}

func (c *netConn) Exec(cmd Command) error {
	switch cmd.Type {
	case CmdWrite:
		c.buf.WriteString(cmd.Text)
	case CmdBold:
		c.buf.Write([]byte{esc, 'E', flag(cmd.Enabled)})
	case CmdUnderline:
		c.buf.Write([]byte{esc, '-', underlineArg(cmd.Underline)})
	case CmdDoubleStrike:
		c.buf.Write([]byte{esc, 'G', flag(cmd.Enabled)})
	case CmdFont:
		c.buf.Write([]byte{esc, 'M', fontArg(cmd.Font)})
	case CmdFlip:
		c.buf.Write([]byte{esc, '{', flag(cmd.Enabled)})
	case CmdJustify:
		c.buf.Write([]byte{esc, 'a', justifyArg(cmd.Justify)})
	case CmdReverse:
		c.buf.Write([]byte{gs, 'B', flag(cmd.Enabled)})
	case CmdFeed:
		c.buf.Write([]byte{esc, 'd', cmd.Lines})
	case CmdEan13:
		c.writeBarcode(0x43, cmd.Text)
	case CmdEan8:
		c.writeBarcode(0x44, cmd.Text)
	case CmdQRCode:
		c.writeQR(cmd.Text)
	case CmdSize:
		c.buf.Write([]byte{gs, '!', sizeArg(cmd.Width, cmd.Height)})
	case CmdResetSize:
		c.buf.Write([]byte{gs, '!', 0})
	case CmdCut:
		// Feed past the cutter position, then partial cut.
		c.buf.Write([]byte{gs, 'V', 'A', 0})
	case CmdBitImage:
		return c.writeRaster(cmd.Image, cmd.ImageWidth)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd.Type)
	}

	return nil
}

func (c *netConn) Flush() error {
	if _, err := c.conn.Write(c.buf.Bytes()); err != nil {
		return fmt.Errorf("write to printer: %w", err)
	}

	c.buf.Reset()

	return nil
}

func (c *netConn) WriteRaw(p []byte) error {
	_, err := c.conn.Write(p)
	return err
}

func (c *netConn) ReadRaw(p []byte) (int, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(rawReadTimeout)); err != nil {
		return 0, err
	}

	return c.conn.Read(p)
}

func (c *netConn) Close() error {
	return c.conn.Close()
}

// writeBarcode emits GS k (function B) with the given symbology.
func (c *netConn) writeBarcode(symbology byte, digits string) {
	c.buf.Write([]byte{gs, 'H', 2})  // HRI below the bars
	c.buf.Write([]byte{gs, 'h', 80}) // bar height in dots
	c.buf.Write([]byte{gs, 'k', symbology, byte(len(digits))})
	c.buf.WriteString(digits)
}

// writeQR emits the GS ( k model-2 store-and-print sequence.
func (c *netConn) writeQR(data string) {
	c.buf.Write([]byte{gs, '(', 'k', 4, 0, 49, 65, 50, 0})        // model 2
	c.buf.Write([]byte{gs, '(', 'k', 3, 0, 49, 67, qrModuleSize}) // module size
	c.buf.Write([]byte{gs, '(', 'k', 3, 0, 49, 69, qrECLevelM})   // EC level M

	n := len(data) + 3
	c.buf.Write([]byte{gs, '(', 'k', byte(n & 0xFF), byte(n >> 8), 49, 80, 48})
	c.buf.WriteString(data)

	c.buf.Write([]byte{gs, '(', 'k', 3, 0, 49, 81, 48}) // print stored symbol
}

// writeRaster decodes a PNG and emits it as a GS v 0 raster, thresholding
// to 1-bit at the requested dot width.
func (c *netConn) writeRaster(png []byte, width uint32) error {
	img, _, err := image.Decode(bytes.NewReader(png))
	if err != nil {
		return fmt.Errorf("decode bit image: %w", err)
	}

	bounds := img.Bounds()
	w := int(width)

	if w == 0 || w > bounds.Dx() {
		w = bounds.Dx()
	}

	h := bounds.Dy()
	rowBytes := (w + 7) / 8

	raster := make([]byte, rowBytes*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if a == 0 {
				continue
			}

			// Luma threshold at mid-gray; dark pixels become dots.
			if (299*r+587*g+114*b)/1000 < 0x8000 {
				raster[y*rowBytes+x/8] |= 0x80 >> (x % 8)
			}
		}
	}

	c.buf.Write([]byte{
		gs, 'v', '0', 0,
		byte(rowBytes & 0xFF), byte(rowBytes >> 8),
		byte(h & 0xFF), byte(h >> 8),
	})
	c.buf.Write(raster)

	return nil
}

func flag(on bool) byte {
	if on {
		return 1
	}

	return 0
}

func underlineArg(mode UnderlineMode) byte {
	switch mode {
	case UnderlineSingle:
		return 1
	case UnderlineDouble:
		return 2
	default:
		return 0
	}
}

func fontArg(f Font) byte {
	switch f {
	case FontB:
		return 1
	case FontC:
		return 2
	default:
		return 0
	}
}

func justifyArg(j Justify) byte {
	switch j {
	case JustifyCenter:
		return 1
	case JustifyRight:
		return 2
	default:
		return 0
	}
}

// sizeArg packs width/height multipliers (1-8) into the GS ! argument.
func sizeArg(w, h uint8) byte {
	clamp := func(v uint8) uint8 {
		if v < 1 {
			return 1
		}

		if v > 8 {
			return 8
		}

		return v
	}

	return (clamp(w)-1)<<4 | (clamp(h) - 1)
}
