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

package machine

func (f *FIFO) Reset() {
	*f = FIFO{}
}

// A word written at cycle c is output unchanged at cycle c+252.
func (f *FIFO) Step() {
	f.Cycle = (f.Cycle + 1) % FIFO_NWORDS
	f.Output = f.Data[f.Cycle]
	f.Data[f.Cycle] = f.Input & 0xF
}

// Word that the n+1'th following Step will output.
func (f *FIFO) Peek(n int) uint8 {
	return f.Data[f.cell(n)]
}

func (f *FIFO) Poke(n int, value uint8) {
	f.Data[f.cell(n)] = value & 0xF
}

func (f *FIFO) cell(n int) int {
	n = (int(f.Cycle) + 1 + n) % FIFO_NWORDS

	if n < 0 {
		n += FIFO_NWORDS
	}

	return n
}
