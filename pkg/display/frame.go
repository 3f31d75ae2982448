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
	"strings"

	"github.com/lassandro/gomk61/pkg/machine"
)

const glyphs = "0123456789-LCrE "

// One full scan of the indicator. Index 0 is the rightmost position.
type Frame struct {
	Digits [machine.DIGITS]uint8
	Dots   [machine.DIGITS]bool
}

func Blank() Frame {
	var frame Frame

	for i := range frame.Digits {
		frame.Digits[i] = machine.BLANK
	}

	return frame
}

func Glyph(digit uint8) byte {
	return glyphs[digit&0xF]
}

// Renders the frame left to right, each glyph followed by ',' when its
// decimal point is lit.
func (frame Frame) String() string {
	var builder strings.Builder

	builder.Grow(2 * machine.DIGITS)

	for i := machine.DIGITS - 1; i >= 0; i-- {
		builder.WriteByte(Glyph(frame.Digits[i]))

		if frame.Dots[i] {
			builder.WriteByte(',')
		} else {
			builder.WriteByte(' ')
		}
	}

	return builder.String()
}
