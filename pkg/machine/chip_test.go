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


package machine_test

import (
	"testing"

	"github.com/lassandro/gomk61/pkg/machine"
)

type testKey uint8

func (key testKey) Key() uint8 {
	return uint8(key)
}

type testChipState struct {
	R           map[int]uint8
	M           map[int]uint8
	ST          map[int]uint8
	S           uint8
	Q           uint8
	Carry       uint8
	KeypadEvent bool
	Dot         bool
	Input       uint8
	Output      uint8
}

type testChipCase struct {
	Name    string
	Cycle   int
	Command uint32
	Key     uint8
	Micro   []uint32
	Sync    map[int]uint8
	Input   testChipState
	Output  testChipState
}

func testChipBank(t *testing.T, name string, have *[machine.REG_NWORDS]uint8, in, out map[int]uint8) {
	var want [machine.REG_NWORDS]uint8

	for i, value := range in {
		want[i] = value
	}

	for i, value := range out {
		want[i] = value
	}

	for i := range want {
		if have[i] != want[i] {
			t.Errorf(
				"%s[%d] mismatch\nwant:%#x\nhave:%#x",
				name,
				i,
				want[i],
				have[i],
			)
		}
	}
}

func testChipSuccess(t *testing.T, test *testChipCase) {
	rom := machine.ROM{
		Micro: test.Micro,
		Macro: make256(test.Command),
		Sync:  make([]uint8, fullSyncSize),
	}

	for addr, value := range test.Sync {
		rom.Sync[addr] = value
	}

	chip := machine.NewChip(rom)
	chip.Command = test.Command
	chip.Keys = testKey(test.Key)

	for i, value := range test.Input.R {
		chip.R[i] = value
	}
	for i, value := range test.Input.M {
		chip.M[i] = value
	}
	for i, value := range test.Input.ST {
		chip.ST[i] = value
	}

	chip.S = test.Input.S
	chip.Q = test.Input.Q
	chip.Carry = test.Input.Carry
	chip.KeypadEvent = test.Input.KeypadEvent
	chip.Input = test.Input.Input

	if err := chip.Step(test.Cycle); err != nil {
		t.Fatal(err)
	}

	testChipBank(t, "R", &chip.R, test.Input.R, test.Output.R)
	testChipBank(t, "M", &chip.M, test.Input.M, test.Output.M)
	testChipBank(t, "ST", &chip.ST, test.Input.ST, test.Output.ST)

	if chip.S != test.Output.S {
		t.Errorf("S mismatch\nwant:%#x\nhave:%#x", test.Output.S, chip.S)
	}

	if chip.Q != test.Output.Q {
		t.Errorf("Q mismatch\nwant:%#x\nhave:%#x", test.Output.Q, chip.Q)
	}

	if chip.Carry != test.Output.Carry {
		t.Errorf(
			"Carry mismatch\nwant:%d\nhave:%d",
			test.Output.Carry,
			chip.Carry,
		)
	}

	if chip.KeypadEvent != test.Output.KeypadEvent {
		t.Errorf(
			"Keypad event mismatch\nwant:%t\nhave:%t",
			test.Output.KeypadEvent,
			chip.KeypadEvent,
		)
	}

	if chip.Dot != test.Output.Dot {
		t.Errorf("Dot mismatch\nwant:%t\nhave:%t", test.Output.Dot, chip.Dot)
	}

	if chip.Output != test.Output.Output {
		t.Errorf(
			"Output mismatch\nwant:%#x\nhave:%#x",
			test.Output.Output,
			chip.Output,
		)
	}
}

func micro(words ...uint32) []uint32 {
	return words
}

func TestChipStep(t *testing.T) {
	const (
		cycle  = 5
		sync   = 5 // phase of cycle 5 under field A of command 0
		branch = machine.BRANCH_SYNC * machine.SYNC_NWORDS
	)

	conditional := make([]uint32, machine.MICRO_COND+2)
	conditional[machine.MICRO_COND] = machine.UCMD_ALPHA_4 | machine.UCMD_R_SUM
	conditional[machine.MICRO_COND+1] = machine.UCMD_BETA_1 | machine.UCMD_R_SUM

	tests := []testChipCase{
		{
			Name:   "Increment",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_ALPHA_R | machine.UCMD_BETA_1 | machine.UCMD_R_SUM),
			Input:  testChipState{R: map[int]uint8{5: 3}},
			Output: testChipState{R: map[int]uint8{5: 4}},
		},
		{
			Name:  "Decimal Carry",
			Cycle: cycle,
			Micro: micro(
				machine.UCMD_ALPHA_R | machine.UCMD_BETA_1 |
					machine.UCMD_R_SUM | machine.UCMD_CARRY_SUM,
			),
			Input:  testChipState{R: map[int]uint8{5: 9}},
			Output: testChipState{R: map[int]uint8{5: 0}, Carry: 1},
		},
		{
			Name:   "Carry Kept Without CARRY_SUM",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_ALPHA_NR | machine.UCMD_R_SUM),
			Input:  testChipState{R: map[int]uint8{5: 3}},
			Output: testChipState{R: map[int]uint8{5: 2}},
		},
		{
			Name:   "C10 Carry Clear",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_ALPHA_R | machine.UCMD_ALPHA_C10 | machine.UCMD_R_SUM),
			Input:  testChipState{R: map[int]uint8{5: 3}},
			Output: testChipState{R: map[int]uint8{5: 1}},
		},
		{
			Name:   "C10 Carry Set",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_ALPHA_R | machine.UCMD_ALPHA_C10 | machine.UCMD_R_SUM),
			Input:  testChipState{R: map[int]uint8{5: 3}, Carry: 1},
			Output: testChipState{R: map[int]uint8{5: 3}, Carry: 1},
		},
		{
			Name:   "R3",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_R_R3),
			Input:  testChipState{R: map[int]uint8{5: 1, 8: 7}},
			Output: testChipState{R: map[int]uint8{5: 7}},
		},
		{
			Name:   "R3 Wraps",
			Cycle:  40,
			Micro:  micro(machine.UCMD_R_R3),
			Input:  testChipState{R: map[int]uint8{1: 6}},
			Output: testChipState{R: map[int]uint8{40: 6}},
		},
		{
			Name:   "RS",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_R_RS),
			Input:  testChipState{R: map[int]uint8{5: 1}, S: 4},
			Output: testChipState{R: map[int]uint8{5: 5}, S: 4},
		},
		{
			Name:   "SSUM",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_R_SSUM | machine.UCMD_BETA_1),
			Input:  testChipState{R: map[int]uint8{5: 8}, S: 2},
			Output: testChipState{R: map[int]uint8{5: 3}, S: 2},
		},
		{
			Name:   "RSSUM",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_R_RSSUM | machine.UCMD_BETA_6),
			Input:  testChipState{R: map[int]uint8{5: 1}, S: 8},
			Output: testChipState{R: map[int]uint8{5: 0xF}, S: 8},
		},
		{
			Name:   "RSUM",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_R_RSUM | machine.UCMD_ALPHA_4),
			Input:  testChipState{R: map[int]uint8{5: 1}},
			Output: testChipState{R: map[int]uint8{5: 5}},
		},
		{
			Name:   "R From S",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_R_S),
			Input:  testChipState{R: map[int]uint8{5: 2}, S: 7},
			Output: testChipState{R: map[int]uint8{5: 7}, S: 7},
		},
		{
			Name:  "R1 R2",
			Cycle: cycle,
			Micro: micro(
				machine.UCMD_ALPHA_4 | machine.UCMD_BETA_1 |
					machine.UCMD_R1_SUM | machine.UCMD_R2_SUM,
			),
			Input:  testChipState{R: map[int]uint8{5: 9}},
			Output: testChipState{R: map[int]uint8{3: 5, 4: 5}},
		},
		{
			Name:   "M From S",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_M_S),
			Input:  testChipState{M: map[int]uint8{5: 2}, S: 6, Input: 9},
			Output: testChipState{M: map[int]uint8{5: 9}, S: 6, Output: 6},
		},
		{
			Name:   "Memory Passthrough",
			Cycle:  cycle,
			Micro:  micro(0),
			Input:  testChipState{M: map[int]uint8{5: 3}, Input: 0x1A},
			Output: testChipState{M: map[int]uint8{5: 0xA}, Output: 3},
		},
		{
			Name:   "S From Q",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_S_Q),
			Input:  testChipState{Q: 5},
			Output: testChipState{S: 5, Q: 5},
		},
		{
			Name:   "S From Sum",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_ALPHA_M | machine.UCMD_BETA_NS | machine.UCMD_S_SUM),
			Input:  testChipState{M: map[int]uint8{5: 2}, S: 13},
			Output: testChipState{M: map[int]uint8{5: 0}, S: 4, Output: 2},
		},
		{
			Name:   "S From Q Or Sum",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_S_QSUM | machine.UCMD_BETA_1),
			Input:  testChipState{Q: 4},
			Output: testChipState{S: 5, Q: 4},
		},
		{
			Name:   "Q From Sum",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_ALPHA_S | machine.UCMD_BETA_Q | machine.UCMD_Q_SUM),
			Input:  testChipState{S: 3, Q: 4},
			Output: testChipState{S: 3, Q: 7},
		},
		{
			Name:   "ST Shift In",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_ALPHA_4 | machine.UCMD_ST_SUM),
			Input:  testChipState{ST: map[int]uint8{5: 1, 6: 2, 7: 3}},
			Output: testChipState{ST: map[int]uint8{5: 4, 6: 1, 7: 2}},
		},
		{
			Name:   "ST Rotate",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_ST_ROT),
			Input:  testChipState{ST: map[int]uint8{5: 1, 6: 2, 7: 3}},
			Output: testChipState{ST: map[int]uint8{5: 2, 6: 3, 7: 1}},
		},
		{
			Name:   "ST Shift In Over Rotate",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_ALPHA_4 | machine.UCMD_ST_SUM | machine.UCMD_ST_ROT),
			Input:  testChipState{ST: map[int]uint8{5: 1, 6: 2, 7: 3}},
			Output: testChipState{ST: map[int]uint8{5: 4, 6: 1, 7: 2}},
		},
		{
			Name:   "ST Rotate Wraps",
			Cycle:  41,
			Micro:  micro(machine.UCMD_ST_ROT),
			Input:  testChipState{ST: map[int]uint8{41: 1, 0: 2, 1: 3}},
			Output: testChipState{ST: map[int]uint8{41: 2, 0: 3, 1: 1}},
		},
		{
			Name:   "ST Plus Q",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_ALPHA_ST | machine.UCMD_BETA_Q | machine.UCMD_R_SUM),
			Input:  testChipState{ST: map[int]uint8{5: 2}, Q: 3},
			Output: testChipState{R: map[int]uint8{5: 5}, Q: 3},
		},
		{
			Name:   "Gamma No Key",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_GAMMA_NKEY | machine.UCMD_R_SUM),
			Output: testChipState{R: map[int]uint8{5: 1}},
		},
		{
			Name:   "Gamma Key",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_GAMMA_NKEY | machine.UCMD_R_SUM),
			Input:  testChipState{R: map[int]uint8{5: 8}, KeypadEvent: true},
			Output: testChipState{R: map[int]uint8{5: 0}, KeypadEvent: true},
		},
		{
			Name:   "Gamma No Carry",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_GAMMA_NCARRY | machine.UCMD_R_SUM),
			Output: testChipState{R: map[int]uint8{5: 1}},
		},
		{
			Name:   "Gamma Carry",
			Cycle:  cycle,
			Micro:  micro(machine.UCMD_GAMMA_CARRY | machine.UCMD_ALPHA_4 | machine.UCMD_R_SUM),
			Input:  testChipState{Carry: 1},
			Output: testChipState{R: map[int]uint8{5: 5}, Carry: 1},
		},
		{
			Name:   "Keypad Match",
			Cycle:  cycle,
			Key:    machine.KEY_ADD,
			Micro:  micro(machine.UCMD_KEYPAD),
			Input:  testChipState{Q: 1},
			Output: testChipState{Q: 9, KeypadEvent: true},
		},
		{
			Name:   "Keypad Other Column",
			Cycle:  cycle,
			Key:    machine.KEY_1,
			Micro:  micro(machine.UCMD_KEYPAD),
			Output: testChipState{},
		},
		{
			Name:   "Keypad Dot Latch",
			Cycle:  6,
			Micro:  micro(machine.UCMD_KEYPAD | machine.UCMD_CARRY_SUM),
			Input:  testChipState{Carry: 1},
			Output: testChipState{Dot: true},
		},
		{
			Name:   "Conditional Carry Set",
			Cycle:  cycle,
			Micro:  conditional,
			Sync:   map[int]uint8{sync: machine.MICRO_COND},
			Input:  testChipState{Carry: 1},
			Output: testChipState{R: map[int]uint8{5: 4}, Carry: 1},
		},
		{
			Name:   "Conditional Carry Clear",
			Cycle:  cycle,
			Micro:  conditional,
			Sync:   map[int]uint8{sync: machine.MICRO_COND},
			Output: testChipState{R: map[int]uint8{5: 1}},
		},
		{
			Name:    "Branch",
			Cycle:   36,
			Command: 0x5A0000,
			Micro:   micro(0, machine.UCMD_ALPHA_4|machine.UCMD_R_SUM),
			Sync:    map[int]uint8{branch: 1},
			Output:  testChipState{R: map[int]uint8{36: 4, 37: 0xA, 40: 5}},
		},
		{
			Name:    "No Branch Below Threshold",
			Cycle:   36,
			Command: 0x1F0000,
			Micro:   micro(0),
			Output:  testChipState{},
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			testChipSuccess(t, &test)
		})
	}
}

func TestChipFetch(t *testing.T) {
	rom := testROM(darkCommand, 0)
	rom.Macro[0x12] = scanCommand

	chip := machine.NewChip(rom)
	chip.R[machine.ADDR_LO] = 2
	chip.R[machine.ADDR_HI] = 1
	chip.KeypadEvent = true

	if have := chip.CommandAddr(); have != 0x12 {
		t.Fatalf("Command address mismatch\nwant:%#x\nhave:%#x", 0x12, have)
	}

	if err := chip.Step(0); err != nil {
		t.Fatal(err)
	}

	if !chip.EnableDisplay {
		t.Error("Scan command did not enable the display")
	}

	if chip.KeypadEvent {
		t.Error("Scan command did not clear the keypad event")
	}

	chip.R[machine.ADDR_LO] = 0
	chip.R[machine.ADDR_HI] = 0
	chip.KeypadEvent = true

	if err := chip.Step(0); err != nil {
		t.Fatal(err)
	}

	if chip.EnableDisplay {
		t.Error("Non-scan command left the display enabled")
	}

	if !chip.KeypadEvent {
		t.Error("Non-scan command cleared the keypad event")
	}
}

func TestChipStepWithoutProgram(t *testing.T) {
	chip := machine.NewChip(testROM(scanCommand|machine.CMD_STEP, 0))
	chip.R[machine.STEP_DATA_LO] = 7
	chip.R[machine.STEP_DATA_HI] = 7

	if err := chip.Step(0); err != nil {
		t.Fatal(err)
	}

	if chip.R[machine.STEP_DATA_LO] != 0 || chip.R[machine.STEP_DATA_HI] != 0 {
		t.Errorf(
			"Step read without program store\nwant:0 0\nhave:%d %d",
			chip.R[machine.STEP_DATA_LO],
			chip.R[machine.STEP_DATA_HI],
		)
	}
}
