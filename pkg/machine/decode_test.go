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

func TestDecodeSelectors(t *testing.T) {
	for mode := machine.RMODE_KEEP; mode <= machine.RMODE_RSUM; mode++ {
		u := machine.Microinstruction{R: mode}

		if have := machine.Decode(u.Encode()).R; have != mode {
			t.Errorf("R mode mismatch\nwant:%d\nhave:%d", mode, have)
		}
	}

	for mode := machine.SMODE_KEEP; mode <= machine.SMODE_QSUM; mode++ {
		u := machine.Microinstruction{S: mode}

		if have := machine.Decode(u.Encode()).S; have != mode {
			t.Errorf("S mode mismatch\nwant:%d\nhave:%d", mode, have)
		}
	}

	if have := machine.Decode(machine.UCMD_R_SUM).R; have != machine.RMODE_SUM {
		t.Errorf("R_SUM decode mismatch\nwant:%d\nhave:%d", machine.RMODE_SUM, have)
	}

	if have := machine.Decode(machine.UCMD_S_QSUM).S; have != machine.SMODE_QSUM {
		t.Errorf("S_QSUM decode mismatch\nwant:%d\nhave:%d", machine.SMODE_QSUM, have)
	}
}

func TestDisassemble(t *testing.T) {
	type testCase struct {
		Name string
		Word uint32
		Text string
	}

	tests := []testCase{
		{"Empty", 0, "NOP"},
		{
			"Flags",
			machine.UCMD_ALPHA_R | machine.UCMD_BETA_1 | machine.UCMD_R_SUM,
			"ALPHA_R BETA_1 R_SUM",
		},
		{"Selector", machine.UCMD_R_RSUM | machine.UCMD_S_QSUM, "R_RSUM S_QSUM"},
		{"Unknown Bits", machine.UCMD_KEYPAD | 0x10000000, "KEYPAD 0x10000000"},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			if have := machine.Disassemble(test.Word); have != test.Text {
				t.Errorf("Disassembly mismatch\nwant:%s\nhave:%s", test.Text, have)
			}
		})
	}
}

func TestLookupMnemonic(t *testing.T) {
	m, ok := machine.LookupMnemonic("st_rot")

	if !ok || m.Bits != machine.UCMD_ST_ROT {
		t.Errorf("Lookup mismatch\nwant:%#x\nhave:%#x (%t)", machine.UCMD_ST_ROT, m.Bits, ok)
	}

	if _, ok := machine.LookupMnemonic("ALPHA_X"); ok {
		t.Error("Unknown mnemonic resolved")
	}
}
