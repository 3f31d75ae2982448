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
)

type Mode uint8
type Variant uint
type Bank uint
type RMode uint8
type SMode uint8

// Host side of the calculator: keypad, angle switch and display.
type Devices interface {
	PollKeypad() uint8
	PollMode() Mode
	EmitDigit(index int, digit uint8, dot bool)
}

// KeySource is the keypad line wired into one chip.
type KeySource interface {
	Key() uint8
}

// StepSource is the program store as seen from the command sequencer.
type StepSource interface {
	ReadStep(addr int) (byte, error)
}

type MachineDebugger interface {
	Step(mc *Machine)
}

type ROM struct {
	Micro []uint32
	Macro []uint32
	Sync  []uint8
}

type Microinstruction struct {
	AlphaR   bool
	AlphaM   bool
	AlphaST  bool
	AlphaNR  bool
	AlphaC10 bool
	AlphaS   bool
	Alpha4   bool

	BetaS  bool
	BetaNS bool
	BetaQ  bool
	Beta6  bool
	Beta1  bool

	GammaCarry  bool
	GammaNCarry bool
	GammaNKey   bool

	R     RMode
	R1Sum bool
	R2Sum bool

	MS       bool
	CarrySum bool
	S        SMode
	QSum     bool
	Keypad   bool

	STSum bool
	STRot bool
}

type Registers struct {
	R  [REG_NWORDS]uint8
	M  [REG_NWORDS]uint8
	ST [REG_NWORDS]uint8

	S     uint8
	Q     uint8
	Carry uint8

	KeypadEvent bool
}

type Chip struct {
	Registers

	Input  uint8
	Output uint8

	Opcode  uint32 // Microinstruction word of the current cycle
	Command uint32 // Command word of the current step

	Dot           bool
	ShowDot       [SCAN_LENGTH]bool
	EnableDisplay bool

	Keys    KeySource
	Program StepSource

	rom   ROM
	micro []Microinstruction
}

type FIFO struct {
	Input  uint8
	Output uint8
	Cycle  uint16
	Data   [FIFO_NWORDS]uint8
}

type Program struct {
	code []byte
}

type Machine struct {
	Devices  Devices
	Debugger MachineDebugger

	Variant Variant
	Chips   []*Chip
	Memory  [FIFO_COUNT]FIFO
	Program *Program

	steps uint64
	idle  int
	fault error

	key        uint8
	keyPolled  bool
	mode       Mode
	modePolled bool
}

type AddressError struct {
	Chip  int
	Table string
	Addr  int
	Limit int
}

func (err *AddressError) Error() string {
	return fmt.Sprintf(
		"chip %d: %s address out of range\n\twant:<%d\n\thave:%d",
		err.Chip,
		err.Table,
		err.Limit,
		err.Addr,
	)
}

type ProgramSizeError struct {
	Required int
	Received int
}

func (err *ProgramSizeError) Error() string {
	return fmt.Sprintf(
		"Invalid program length\n\twant:%d\n\thave:%d",
		err.Required,
		err.Received,
	)
}

type ROMFormatError struct {
	Reason string
}

func (err *ROMFormatError) Error() string {
	return "Invalid ROM image: " + err.Reason
}

func (v Variant) CodeSize() int {
	if v == MK54 {
		return CODE_MK54
	}

	return CODE_MK61
}

func (v Variant) DataRegisters() int {
	if v == MK54 {
		return 14
	}

	return 15
}

func (v Variant) String() string {
	switch v {
	case MK54:
		return "mk54"
	case MK61:
		return "mk61"
	}

	return fmt.Sprintf("Variant(%d)", uint(v))
}

func (m Mode) String() string {
	switch m {
	case MODE_RADIANS:
		return "radians"
	case MODE_DEGREES:
		return "degrees"
	case MODE_GRADS:
		return "grads"
	}

	return fmt.Sprintf("Mode(%d)", uint8(m))
}

func (b Bank) String() string {
	switch b {
	case BANK_R:
		return "R"
	case BANK_M:
		return "M"
	case BANK_ST:
		return "ST"
	}

	return fmt.Sprintf("Bank(%d)", uint(b))
}
