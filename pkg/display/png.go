// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.


package display

import (
	"io"

	"github.com/fogleman/gg"

	"github.com/lassandro/gomk61/pkg/machine"
)

const (
	SEG_A = 1 << iota // top
	SEG_B             // upper right
	SEG_C             // lower right
	SEG_D             // bottom
	SEG_E             // lower left
	SEG_F             // upper left
	SEG_G             // middle
)

// Segments lit for each glyph code
var Segments = [16]uint8{
	SEG_A | SEG_B | SEG_C | SEG_D | SEG_E | SEG_F,
	SEG_B | SEG_C,
	SEG_A | SEG_B | SEG_D | SEG_E | SEG_G,
	SEG_A | SEG_B | SEG_C | SEG_D | SEG_G,
	SEG_B | SEG_C | SEG_F | SEG_G,
	SEG_A | SEG_C | SEG_D | SEG_F | SEG_G,
	SEG_A | SEG_C | SEG_D | SEG_E | SEG_F | SEG_G,
	SEG_A | SEG_B | SEG_C,
	SEG_A | SEG_B | SEG_C | SEG_D | SEG_E | SEG_F | SEG_G,
	SEG_A | SEG_B | SEG_C | SEG_D | SEG_F | SEG_G,
	SEG_G,
	SEG_D | SEG_E | SEG_F,
	SEG_A | SEG_D | SEG_E | SEG_F,
	SEG_E | SEG_G,
	SEG_A | SEG_D | SEG_E | SEG_F | SEG_G,
	0,
}

const (
	cellWidth  = 40
	cellHeight = 64
	margin     = 12
	stroke     = 5
)

// Image size of a rendered frame.
const (
	IMAGE_WIDTH  = 2*margin + machine.DIGITS*cellWidth
	IMAGE_HEIGHT = 2*margin + cellHeight
)

func drawSegments(dc *gg.Context, x, y float64, segments uint8) {
	w := float64(cellWidth - 16)
	h := float64(cellHeight-8) / 2

	type bar struct {
		Mask       uint8
		X, Y, W, H float64
	}

	bars := []bar{
		{SEG_A, x, y, w, stroke},
		{SEG_B, x + w - stroke, y, stroke, h},
		{SEG_C, x + w - stroke, y + h, stroke, h},
		{SEG_D, x, y + 2*h - stroke, w, stroke},
		{SEG_E, x, y + h, stroke, h},
		{SEG_F, x, y, stroke, h},
		{SEG_G, x, y + h - stroke/2, w, stroke},
	}

	for _, b := range bars {
		if segments&b.Mask == 0 {
			dc.SetRGB(0.08, 0.12, 0.12)
		} else {
			dc.SetRGB(0.35, 0.95, 0.85)
		}

		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		dc.Fill()
	}
}

// Draws the frame as a vacuum fluorescent indicator and encodes it as PNG.
func DrawPNG(w io.Writer, frame Frame) error {
	dc := gg.NewContext(IMAGE_WIDTH, IMAGE_HEIGHT)

	dc.SetRGB(0.02, 0.03, 0.04)
	dc.Clear()

	for pos := 0; pos < machine.DIGITS; pos++ {
		// Index 0 is the rightmost position
		index := machine.DIGITS - 1 - pos
		x := float64(margin + pos*cellWidth + 4)
		y := float64(margin + 4)

		drawSegments(dc, x, y, Segments[frame.Digits[index]&0xF])

		if frame.Dots[index] {
			dc.SetRGB(0.35, 0.95, 0.85)
		} else {
			dc.SetRGB(0.08, 0.12, 0.12)
		}

		dc.DrawCircle(x+cellWidth-10, y+cellHeight-12, stroke*0.6)
		dc.Fill()
	}

	return dc.EncodePNG(w)
}
