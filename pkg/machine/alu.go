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

// Adds two words and a carry-in in base 10. Operands above 9 only come from
// complements and sentinel codes; their sums keep the low nibble of s-10.
func DecimalAdd(a, b, k uint8) (digit, carry uint8) {
	s := a + b + k

	if s < 10 {
		return s, 0
	}

	return (s - 10) & 0xF, 1
}

// Wrap maps any word index onto the 42-word loop.
func Wrap(i int) int {
	i %= REG_NWORDS

	if i < 0 {
		i += REG_NWORDS
	}

	return i
}

func (rf *Registers) Reset() {
	*rf = Registers{}
}

func (rf *Registers) bank(bank Bank) *[REG_NWORDS]uint8 {
	switch bank {
	case BANK_M:
		return &rf.M
	case BANK_ST:
		return &rf.ST
	}

	return &rf.R
}

func (rf *Registers) Word(bank Bank, i int) uint8 {
	return rf.bank(bank)[Wrap(i)]
}

func (rf *Registers) SetWord(bank Bank, i int, value uint8) {
	rf.bank(bank)[Wrap(i)] = value & 0xF
}
