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

func NewChip(rom ROM) *Chip {
	chip := &Chip{rom: rom}
	chip.micro = make([]Microinstruction, len(rom.Micro))

	for i, word := range rom.Micro {
		chip.micro[i] = Decode(word)
	}

	return chip
}

func (chip *Chip) ROM() ROM {
	return chip.rom
}

func (chip *Chip) Reset() {
	chip.Registers.Reset()
	chip.Input = 0
	chip.Output = 0
	chip.Opcode = 0
	chip.Command = 0
	chip.Dot = false
	chip.ShowDot = [SCAN_LENGTH]bool{}
	chip.EnableDisplay = false
}

// Address of the command executed by the next step.
func (chip *Chip) CommandAddr() int {
	return int(chip.R[ADDR_LO]) + 16*int(chip.R[ADDR_HI])
}

func (chip *Chip) StepAddr() int {
	return int(chip.R[STEP_ADDR_LO]) + 10*int(chip.R[STEP_ADDR_HI])
}

func (chip *Chip) fetch() error {
	addr := chip.CommandAddr()

	if addr >= len(chip.rom.Macro) {
		return &AddressError{Table: "command", Addr: addr, Limit: len(chip.rom.Macro)}
	}

	chip.Command = chip.rom.Macro[addr]
	chip.EnableDisplay = IsScanCommand(chip.Command)

	if chip.EnableDisplay {
		chip.KeypadEvent = false
	}

	if chip.Command&CMD_STEP != 0 {
		var code byte

		if chip.Program != nil {
			var err error

			if code, err = chip.Program.ReadStep(chip.StepAddr()); err != nil {
				return err
			}
		}

		chip.R[STEP_DATA_LO] = code & 0xF
		chip.R[STEP_DATA_HI] = code >> 4
	}

	return nil
}

func (chip *Chip) decode(cycle int) (Microinstruction, error) {
	asp := commandField(chip.Command, cycle)

	if cycle >= 36 && asp >= BRANCH_MIN {
		if cycle == 36 {
			chip.R[BRANCH_LO] = asp & 0xF
			chip.R[BRANCH_HI] = asp >> 4
		}

		asp = BRANCH_SYNC
	}

	addr := int(asp)*SYNC_NWORDS + int(phaseTable[cycle])

	if addr >= len(chip.rom.Sync) {
		return Microinstruction{}, &AddressError{Table: "sync", Addr: addr, Limit: len(chip.rom.Sync)}
	}

	if b := int(chip.rom.Sync[addr]); b >= MICRO_COND+MICRO_NCOND {
		return Microinstruction{}, &AddressError{Table: "micro", Addr: b, Limit: MICRO_COND + MICRO_NCOND}
	}

	micro := microAddress(chip.rom.Sync[addr], chip.Carry)

	if micro >= len(chip.micro) {
		return Microinstruction{}, &AddressError{Table: "micro", Addr: micro, Limit: len(chip.micro)}
	}

	chip.Opcode = chip.rom.Micro[micro]

	return chip.micro[micro], nil
}

// Simulates one word cycle of the chip. The cycle number selects both the
// register words under the window and the phase within the current command.
func (chip *Chip) Step(cycle int) error {
	cycle = Wrap(cycle)

	if cycle == 0 {
		if err := chip.fetch(); err != nil {
			return err
		}
	}

	u, err := chip.decode(cycle)

	if err != nil {
		return err
	}

	i := cycle
	ri := chip.R[i]

	var alpha, beta, gamma uint8

	if u.AlphaR {
		alpha |= ri
	}
	if u.AlphaM {
		alpha |= chip.M[i]
	}
	if u.AlphaST {
		alpha |= chip.ST[i]
	}
	if u.AlphaNR {
		alpha |= ^ri & 0xF
	}
	if u.AlphaC10 && chip.Carry == 0 {
		alpha |= 10
	}
	if u.AlphaS {
		alpha |= chip.S
	}
	if u.Alpha4 {
		alpha |= 4
	}

	if u.BetaS {
		beta |= chip.S
	}
	if u.BetaNS {
		beta |= ^chip.S & 0xF
	}
	if u.BetaQ {
		beta |= chip.Q
	}
	if u.Beta6 {
		beta |= 6
	}
	if u.Beta1 {
		beta |= 1
	}

	if u.GammaCarry {
		gamma |= chip.Carry & 1
	}
	if u.GammaNCarry && chip.Carry == 0 {
		gamma |= 1
	}
	if u.GammaNKey && !chip.KeypadEvent {
		gamma |= 1
	}

	sum, carry := DecimalAdd(alpha, beta, gamma)

	s := chip.S
	q := chip.Q
	l := chip.Carry

	switch u.R {
	case RMODE_R3:
		chip.R[i] = chip.R[Wrap(i+3)]
	case RMODE_SUM:
		chip.R[i] = sum
	case RMODE_S:
		chip.R[i] = s
	case RMODE_RSSUM:
		chip.R[i] = ri | s | sum
	case RMODE_SSUM:
		chip.R[i] = s | sum
	case RMODE_RS:
		chip.R[i] = ri | s
	case RMODE_RSUM:
		chip.R[i] = ri | sum
	}

	if u.R1Sum {
		chip.R[Wrap(i-1)] = sum
	}
	if u.R2Sum {
		chip.R[Wrap(i-2)] = sum
	}

	if u.MS {
		chip.M[i] = s
	}

	if u.CarrySum {
		chip.Carry = carry
	}

	switch u.S {
	case SMODE_Q:
		chip.S = q
	case SMODE_SUM:
		chip.S = sum
	case SMODE_QSUM:
		chip.S = q | sum
	}

	if u.QSum {
		chip.Q = sum
	}

	if u.Keypad {
		chip.scan(cycle, l)
	}

	if u.STSum {
		st1 := chip.ST[i]
		st2 := chip.ST[Wrap(i+1)]
		chip.ST[i] = sum
		chip.ST[Wrap(i+1)] = st1
		chip.ST[Wrap(i+2)] = st2
	} else if u.STRot {
		st0 := chip.ST[i]
		chip.ST[i] = chip.ST[Wrap(i+1)]
		chip.ST[Wrap(i+1)] = chip.ST[Wrap(i+2)]
		chip.ST[Wrap(i+2)] = st0
	}

	chip.Output = chip.M[i]
	chip.M[i] = chip.Input & 0xF

	return nil
}

// Keypad and decimal point multiplex share the digit scan.
func (chip *Chip) scan(cycle int, carry uint8) {
	digit := cycle / 3

	if cycle%3 == 0 {
		chip.ShowDot[digit] = carry != 0
		chip.Dot = chip.ShowDot[digit]
	}

	if chip.Keys == nil {
		return
	}

	code := chip.Keys.Key()
	row := code & 0xF
	column := int(code >> 4)

	if row != 0 && digit == column-1 {
		chip.Q |= row
		chip.KeypadEvent = true
	}
}
