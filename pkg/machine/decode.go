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

import (
	"fmt"
	"strings"
)

func Decode(word uint32) Microinstruction {
	var u Microinstruction

	u.AlphaR = word&UCMD_ALPHA_R != 0
	u.AlphaM = word&UCMD_ALPHA_M != 0
	u.AlphaST = word&UCMD_ALPHA_ST != 0
	u.AlphaNR = word&UCMD_ALPHA_NR != 0
	u.AlphaC10 = word&UCMD_ALPHA_C10 != 0
	u.AlphaS = word&UCMD_ALPHA_S != 0
	u.Alpha4 = word&UCMD_ALPHA_4 != 0

	u.BetaS = word&UCMD_BETA_S != 0
	u.BetaNS = word&UCMD_BETA_NS != 0
	u.BetaQ = word&UCMD_BETA_Q != 0
	u.Beta6 = word&UCMD_BETA_6 != 0
	u.Beta1 = word&UCMD_BETA_1 != 0

	u.GammaCarry = word&UCMD_GAMMA_CARRY != 0
	u.GammaNCarry = word&UCMD_GAMMA_NCARRY != 0
	u.GammaNKey = word&UCMD_GAMMA_NKEY != 0

	// R and S modes are 3 and 2 bit selectors, not independent flags
	u.R = RMode((word & UCMD_R_MASK) / UCMD_R_R3)
	u.R1Sum = word&UCMD_R1_SUM != 0
	u.R2Sum = word&UCMD_R2_SUM != 0

	u.MS = word&UCMD_M_S != 0
	u.CarrySum = word&UCMD_CARRY_SUM != 0
	u.S = SMode((word & UCMD_S_MASK) / UCMD_S_Q)
	u.QSum = word&UCMD_Q_SUM != 0
	u.Keypad = word&UCMD_KEYPAD != 0

	u.STSum = word&UCMD_ST_SUM != 0
	u.STRot = word&UCMD_ST_ROT != 0

	return u
}

func (u Microinstruction) Encode() uint32 {
	var word uint32

	set := func(flag bool, bits uint32) {
		if flag {
			word |= bits
		}
	}

	set(u.AlphaR, UCMD_ALPHA_R)
	set(u.AlphaM, UCMD_ALPHA_M)
	set(u.AlphaST, UCMD_ALPHA_ST)
	set(u.AlphaNR, UCMD_ALPHA_NR)
	set(u.AlphaC10, UCMD_ALPHA_C10)
	set(u.AlphaS, UCMD_ALPHA_S)
	set(u.Alpha4, UCMD_ALPHA_4)

	set(u.BetaS, UCMD_BETA_S)
	set(u.BetaNS, UCMD_BETA_NS)
	set(u.BetaQ, UCMD_BETA_Q)
	set(u.Beta6, UCMD_BETA_6)
	set(u.Beta1, UCMD_BETA_1)

	set(u.GammaCarry, UCMD_GAMMA_CARRY)
	set(u.GammaNCarry, UCMD_GAMMA_NCARRY)
	set(u.GammaNKey, UCMD_GAMMA_NKEY)

	word |= (uint32(u.R) * UCMD_R_R3) & UCMD_R_MASK
	set(u.R1Sum, UCMD_R1_SUM)
	set(u.R2Sum, UCMD_R2_SUM)

	set(u.MS, UCMD_M_S)
	set(u.CarrySum, UCMD_CARRY_SUM)
	word |= (uint32(u.S) * UCMD_S_Q) & UCMD_S_MASK
	set(u.QSum, UCMD_Q_SUM)
	set(u.Keypad, UCMD_KEYPAD)

	set(u.STSum, UCMD_ST_SUM)
	set(u.STRot, UCMD_ST_ROT)

	return word
}

// Field of the command word that drives the given cycle.
func commandField(command uint32, cycle int) uint8 {
	switch {
	case cycle < 27:
		return uint8(command >> CMD_FIELD_A)
	case cycle < 36:
		return uint8(command >> CMD_FIELD_B)
	}

	return uint8(command >> CMD_FIELD_C)
}

// Sync bytes 60-63 pick one of two microinstructions depending on carry.
func microAddress(sync uint8, carry uint8) int {
	addr := int(sync)

	if addr >= MICRO_COND && addr < MICRO_COND+MICRO_NCOND {
		addr = MICRO_COND + (addr-MICRO_COND)*2

		if carry == 0 {
			addr++
		}
	}

	return addr
}

func IsScanCommand(command uint32) bool {
	return command&SCAN_MASK == 0
}

type Mnemonic struct {
	Name string
	Bits uint32
	Mask uint32
}

// Assembler names of the microinstruction flags. Entries with a mask are
// alternatives of a multi-bit selector.
var Mnemonics = []Mnemonic{
	{"ALPHA_R", UCMD_ALPHA_R, 0},
	{"ALPHA_M", UCMD_ALPHA_M, 0},
	{"ALPHA_ST", UCMD_ALPHA_ST, 0},
	{"ALPHA_NR", UCMD_ALPHA_NR, 0},
	{"ALPHA_C10", UCMD_ALPHA_C10, 0},
	{"ALPHA_S", UCMD_ALPHA_S, 0},
	{"ALPHA_4", UCMD_ALPHA_4, 0},
	{"BETA_S", UCMD_BETA_S, 0},
	{"BETA_NS", UCMD_BETA_NS, 0},
	{"BETA_Q", UCMD_BETA_Q, 0},
	{"BETA_6", UCMD_BETA_6, 0},
	{"BETA_1", UCMD_BETA_1, 0},
	{"GAMMA_CARRY", UCMD_GAMMA_CARRY, 0},
	{"GAMMA_NCARRY", UCMD_GAMMA_NCARRY, 0},
	{"GAMMA_NKEY", UCMD_GAMMA_NKEY, 0},
	{"R_R3", UCMD_R_R3, UCMD_R_MASK},
	{"R_SUM", UCMD_R_SUM, UCMD_R_MASK},
	{"R_S", UCMD_R_S, UCMD_R_MASK},
	{"R_RSSUM", UCMD_R_RSSUM, UCMD_R_MASK},
	{"R_SSUM", UCMD_R_SSUM, UCMD_R_MASK},
	{"R_RS", UCMD_R_RS, UCMD_R_MASK},
	{"R_RSUM", UCMD_R_RSUM, UCMD_R_MASK},
	{"R1_SUM", UCMD_R1_SUM, 0},
	{"R2_SUM", UCMD_R2_SUM, 0},
	{"M_S", UCMD_M_S, 0},
	{"CARRY_SUM", UCMD_CARRY_SUM, 0},
	{"S_Q", UCMD_S_Q, UCMD_S_MASK},
	{"S_SUM", UCMD_S_SUM, UCMD_S_MASK},
	{"S_QSUM", UCMD_S_QSUM, UCMD_S_MASK},
	{"Q_SUM", UCMD_Q_SUM, 0},
	{"KEYPAD", UCMD_KEYPAD, 0},
	{"ST_SUM", UCMD_ST_SUM, 0},
	{"ST_ROT", UCMD_ST_ROT, 0},
}

func LookupMnemonic(name string) (Mnemonic, bool) {
	for _, m := range Mnemonics {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}

	return Mnemonic{}, false
}

func Disassemble(word uint32) string {
	if word == 0 {
		return "NOP"
	}

	names := make([]string, 0, 8)
	known := uint32(0)

	for _, m := range Mnemonics {
		if m.Mask != 0 {
			known |= m.Mask

			if word&m.Mask == m.Bits {
				names = append(names, m.Name)
			}
		} else {
			known |= m.Bits

			if word&m.Bits != 0 {
				names = append(names, m.Name)
			}
		}
	}

	if rest := word &^ known; rest != 0 {
		names = append(names, fmt.Sprintf("%#x", rest))
	}

	return strings.Join(names, " ")
}
