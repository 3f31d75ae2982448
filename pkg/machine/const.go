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

const (
	REG_NWORDS  = 42               // Words in each R, M and ST loop
	FIFO_NWORDS = 6 * REG_NWORDS   // Words in the serial memory chip
	SYNC_NWORDS = 9                // Entries per synchronous program
	SCAN_LENGTH = 14               // Display/keyboard slots per scan
	DIGITS      = 12               // Visible display digits
	FIFO_COUNT  = 2                // Serial memory chips in the ring
	BLANK       = uint8(0xF)       // Blank display glyph
	MICRO_COND  = 60               // First carry-conditional sync byte
	MICRO_NCOND = 4                // Carry-conditional sync bytes
	BRANCH_SYNC = 0x5F             // Sync program run by a branch field
	BRANCH_MIN  = 0x20             // Lowest field C value treated as branch
	MAX_CHIPS   = 3                // Arithmetic chips in the ring
	CODE_MK54   = 98               // Program steps, 14 register build
	CODE_MK61   = 105              // Program steps, 15 register build
	SCAN_MASK   = uint32(0xFC0000) // Zero for scan (display) commands
)

// Register words with a fixed role in the command sequencer
const (
	ADDR_LO      = 36 // Command address, low nibble
	ADDR_HI      = 39 // Command address, high nibble
	BRANCH_LO    = 37 // Branch target, low nibble
	BRANCH_HI    = 40 // Branch target, high nibble
	STEP_ADDR_LO = 30 // Program step address, units
	STEP_ADDR_HI = 33 // Program step address, tens
	STEP_DATA_LO = 31 // Program step read, low nibble
	STEP_DATA_HI = 34 // Program step read, high nibble
)

// Command word fields
const (
	CMD_FIELD_A = 0
	CMD_FIELD_B = 8
	CMD_FIELD_C = 16
	CMD_STEP    = uint32(1 << 24) // Read a program step at cycle 0
)

// Microinstruction flags
const (
	UCMD_ALPHA_R   uint32 = 0x0000001 // alpha |= Ri
	UCMD_ALPHA_M   uint32 = 0x0000002 // alpha |= Mi
	UCMD_ALPHA_ST  uint32 = 0x0000004 // alpha |= STi
	UCMD_ALPHA_NR  uint32 = 0x0000008 // alpha |= ~Ri
	UCMD_ALPHA_C10 uint32 = 0x0000010 // if carry == 0: alpha |= 10
	UCMD_ALPHA_S   uint32 = 0x0000020 // alpha |= S
	UCMD_ALPHA_4   uint32 = 0x0000040 // alpha |= 4

	UCMD_BETA_S  uint32 = 0x0000080 // beta |= S
	UCMD_BETA_NS uint32 = 0x0000100 // beta |= ~S
	UCMD_BETA_Q  uint32 = 0x0000200 // beta |= Q
	UCMD_BETA_6  uint32 = 0x0000400 // beta |= 6
	UCMD_BETA_1  uint32 = 0x0000800 // beta |= 1

	UCMD_GAMMA_CARRY  uint32 = 0x0001000 // gamma |= carry
	UCMD_GAMMA_NCARRY uint32 = 0x0002000 // gamma |= !carry
	UCMD_GAMMA_NKEY   uint32 = 0x0004000 // gamma |= !keypad_event

	UCMD_R_MASK  uint32 = 0x0038000 // R write mode
	UCMD_R_R3    uint32 = 0x0008000 // Ri := R[i+3]
	UCMD_R_SUM   uint32 = 0x0010000 // Ri := sum
	UCMD_R_S     uint32 = 0x0018000 // Ri := S
	UCMD_R_RSSUM uint32 = 0x0020000 // Ri |= S | sum
	UCMD_R_SSUM  uint32 = 0x0028000 // Ri := S | sum
	UCMD_R_RS    uint32 = 0x0030000 // Ri |= S
	UCMD_R_RSUM  uint32 = 0x0038000 // Ri |= sum
	UCMD_R1_SUM  uint32 = 0x0040000 // R[i-1] := sum
	UCMD_R2_SUM  uint32 = 0x0080000 // R[i-2] := sum

	UCMD_M_S uint32 = 0x0100000 // Mi := S

	UCMD_CARRY_SUM uint32 = 0x0200000 // carry := carry of sum

	UCMD_S_MASK uint32 = 0x0C00000 // S write mode
	UCMD_S_Q    uint32 = 0x0400000 // S := Q
	UCMD_S_SUM  uint32 = 0x0800000 // S := sum
	UCMD_S_QSUM uint32 = 0x0C00000 // S := Q | sum

	UCMD_Q_SUM  uint32 = 0x1000000 // Q := sum
	UCMD_KEYPAD uint32 = 0x2000000 // Q |= keypad row

	UCMD_ST_SUM uint32 = 0x4000000 // ST[i,+1,+2] := sum, STi, ST[i+1]
	UCMD_ST_ROT uint32 = 0x8000000 // ST[i,+1,+2] := ST[i+1], ST[i+2], STi
)

// Keypad matrix codes: high nibble is the scan column, low nibble the row
const (
	KEY_NONE uint8 = 0x00

	KEY_0 uint8 = 0x21
	KEY_1 uint8 = 0x31
	KEY_2 uint8 = 0x41
	KEY_3 uint8 = 0x51
	KEY_4 uint8 = 0x61
	KEY_5 uint8 = 0x71
	KEY_6 uint8 = 0x81
	KEY_7 uint8 = 0x91
	KEY_8 uint8 = 0xA1
	KEY_9 uint8 = 0xB1

	KEY_ADD   uint8 = 0x28
	KEY_SUB   uint8 = 0x38
	KEY_MUL   uint8 = 0x48
	KEY_DIV   uint8 = 0x58
	KEY_XY    uint8 = 0x68
	KEY_DOT   uint8 = 0x78
	KEY_NEG   uint8 = 0x88
	KEY_EXP   uint8 = 0x98
	KEY_CLEAR uint8 = 0xA8
	KEY_ENTER uint8 = 0xB8

	KEY_STOPGO uint8 = 0x29
	KEY_GOTO   uint8 = 0x39
	KEY_RET    uint8 = 0x49
	KEY_CALL   uint8 = 0x59
	KEY_STORE  uint8 = 0x69
	KEY_NEXT   uint8 = 0x79
	KEY_LOAD   uint8 = 0x89
	KEY_PREV   uint8 = 0x99
	KEY_K      uint8 = 0xA9
	KEY_F      uint8 = 0xB9
)

const (
	MODE_RADIANS Mode = 10
	MODE_DEGREES Mode = 11
	MODE_GRADS   Mode = 12
)

const (
	MK54 Variant = iota
	MK61
)

const (
	BANK_R Bank = iota
	BANK_M
	BANK_ST
)

const (
	RMODE_KEEP RMode = iota
	RMODE_R3
	RMODE_SUM
	RMODE_S
	RMODE_RSSUM
	RMODE_SSUM
	RMODE_RS
	RMODE_RSUM
)

const (
	SMODE_KEEP SMode = iota
	SMODE_Q
	SMODE_SUM
	SMODE_QSUM
)

// Sync program entry used at each cycle of a command, per phase.
var phaseTable = [REG_NWORDS]uint8{
	0, 1, 2, 3, 4, 5,
	3, 4, 5, 3, 4, 5, 3, 4, 5, 3, 4, 5, 3, 4, 5, 3, 4, 5,
	6, 7, 8,
	0, 1, 2, 3, 4, 5, 6, 7, 8,
	0, 1, 2, 3, 4, 5,
}

// Keys in the order of the keypad matrix, used by tests and the host tools
var Keys = [...]uint8{
	KEY_0, KEY_1, KEY_2, KEY_3, KEY_4, KEY_5, KEY_6, KEY_7, KEY_8, KEY_9,
	KEY_ADD, KEY_SUB, KEY_MUL, KEY_DIV, KEY_XY,
	KEY_DOT, KEY_NEG, KEY_EXP, KEY_CLEAR, KEY_ENTER,
	KEY_STOPGO, KEY_GOTO, KEY_RET, KEY_CALL, KEY_STORE,
	KEY_NEXT, KEY_LOAD, KEY_PREV, KEY_K, KEY_F,
}
