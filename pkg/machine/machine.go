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
	"errors"
)

type keyLine struct {
	mc   *Machine
	chip int
}

func (line keyLine) Key() uint8 {
	return line.mc.scanKeys(line.chip)
}

// Builds a calculator with one arithmetic chip per ROM. Chip 0 scans the
// keypad and drives the display, chip 1 reads the angle mode switch.
func New(variant Variant, roms []ROM) (*Machine, error) {
	if len(roms) == 0 {
		return nil, errors.New("No chip ROMs provided")
	}

	if len(roms) > MAX_CHIPS {
		return nil, errors.New("Too many chip ROMs provided")
	}

	mc := &Machine{
		Variant: variant,
		Program: NewProgram(variant),
	}

	for i, rom := range roms {
		chip := NewChip(rom)
		chip.Keys = keyLine{mc, i}
		chip.Program = mc.Program
		mc.Chips = append(mc.Chips, chip)
	}

	mc.Reset()

	return mc, nil
}

// Zeroes every chip and restarts the cycle counters. The loaded program is
// kept.
func (mc *Machine) Reset() {
	for _, chip := range mc.Chips {
		chip.Reset()
	}

	for i := range mc.Memory {
		mc.Memory[i].Reset()
	}

	mc.steps = 0
	mc.idle = 0
	mc.fault = nil
}

func (mc *Machine) Steps() uint64 {
	return mc.steps
}

// Error that stopped the machine, if any. Cleared by Reset.
func (mc *Machine) Fault() error {
	return mc.fault
}

func (mc *Machine) Code() []byte {
	return mc.Program.Code()
}

func (mc *Machine) WriteCode(code []byte) error {
	return mc.Program.WriteCode(code)
}

func (mc *Machine) scanKeys(chip int) uint8 {
	switch chip {
	case 0:
		if !mc.keyPolled {
			mc.key = KEY_NONE

			if mc.Devices != nil {
				mc.key = mc.Devices.PollKeypad()
			}

			mc.keyPolled = true
		}

		return mc.key

	case 1:
		if !mc.modePolled {
			mc.mode = MODE_RADIANS

			if mc.Devices != nil {
				mc.mode = mc.Devices.PollMode()
			}

			mc.modePolled = true
		}

		// The switch is wired as a key held down on row 1
		return uint8(mc.mode)<<4 | 1
	}

	return KEY_NONE
}

func (mc *Machine) cycle(cycle int) error {
	last := len(mc.Memory) - 1

	// FIFO output only depends on words written one revolution ago
	mc.Chips[0].Input = mc.Memory[last].Peek(0)

	for i, chip := range mc.Chips {
		if i > 0 {
			chip.Input = mc.Chips[i-1].Output
		}

		if err := chip.Step(cycle); err != nil {
			var addrErr *AddressError

			if errors.As(err, &addrErr) {
				addrErr.Chip = i
			}

			return err
		}
	}

	for i := range mc.Memory {
		if i == 0 {
			mc.Memory[i].Input = mc.Chips[len(mc.Chips)-1].Output
		} else {
			mc.Memory[i].Input = mc.Memory[i-1].Output
		}

		mc.Memory[i].Step()
	}

	return nil
}

func (mc *Machine) display() {
	if mc.Devices == nil {
		return
	}

	index := int(mc.steps%SCAN_LENGTH) - 2

	if index < 0 {
		mc.Devices.EmitDigit(-1, BLANK, false)
		return
	}

	chip := mc.Chips[0]

	if !chip.EnableDisplay {
		mc.Devices.EmitDigit(index, BLANK, false)
		return
	}

	mc.Devices.EmitDigit(index, chip.R[3*index], chip.ShowDot[index])
}

// Runs one command on every chip: 42 word cycles around the ring, then one
// display slot. Returns true while a user program is running, which shows
// as a dark display for a whole scan.
func (mc *Machine) Step() (bool, error) {
	if mc.fault != nil {
		return false, mc.fault
	}

	mc.keyPolled = false
	mc.modePolled = false

	for cycle := 0; cycle < REG_NWORDS; cycle++ {
		if err := mc.cycle(cycle); err != nil {
			mc.fault = err
			return false, err
		}
	}

	if mc.Chips[0].EnableDisplay {
		mc.idle = 0
	} else if mc.idle < SCAN_LENGTH {
		mc.idle++
	}

	mc.display()
	mc.steps++

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return mc.idle >= SCAN_LENGTH, nil
}
