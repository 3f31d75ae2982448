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


package debugger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lassandro/gomk61/pkg/assembler"
	"github.com/lassandro/gomk61/pkg/debugger"
	"github.com/lassandro/gomk61/pkg/machine"
)

// Every word of R counts up by one per step, so the command address after
// step n is 17n.
const countingMicro = machine.UCMD_ALPHA_R | machine.UCMD_BETA_1 | machine.UCMD_R_SUM

func newCountingMachine(t *testing.T, dbg *debugger.Debugger) *machine.Machine {
	rom := machine.ROM{
		Micro: []uint32{countingMicro},
		Macro: make([]uint32, 256),
		Sync:  make([]uint8, machine.SYNC_NWORDS*(machine.BRANCH_SYNC+1)),
	}

	mc, err := machine.New(machine.MK61, []machine.ROM{rom})

	if err != nil {
		t.Fatal(err)
	}

	mc.Debugger = dbg

	return mc
}

func stepMachine(t *testing.T, mc *machine.Machine, steps int) {
	for i := 0; i < steps; i++ {
		if _, err := mc.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func TestBreakpoint(t *testing.T) {
	var breaks []uint64

	dbg := &debugger.Debugger{
		Breakpoints: []debugger.Breakpoint{{Chip: 0, Addr: 34}},
		HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
			breaks = append(breaks, mc.Steps())
		},
	}

	mc := newCountingMachine(t, dbg)
	stepMachine(t, mc, 5)

	if len(breaks) != 1 || breaks[0] != 2 {
		t.Errorf("Breakpoint hits mismatch\nwant:[2]\nhave:%v", breaks)
	}

	dbg.Breakpoints = []debugger.Breakpoint{{Chip: 3, Addr: 0}}
	stepMachine(t, mc, 1)

	if len(breaks) != 1 {
		t.Errorf("Breakpoint on missing chip fired\nhave:%v", breaks)
	}
}

func TestBreakFlag(t *testing.T) {
	var hits int

	dbg := &debugger.Debugger{
		Break: true,
		HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
			hits++

			if hits == 2 {
				dbg.Break = false
			}
		},
	}

	mc := newCountingMachine(t, dbg)
	stepMachine(t, mc, 4)

	if hits != 2 {
		t.Errorf("Break handler calls mismatch\nwant:2\nhave:%d", hits)
	}
}

func TestWatchpoint(t *testing.T) {
	type watchEvent struct {
		Old uint8
		New uint8
	}

	var events []watchEvent

	dbg := &debugger.Debugger{
		HandleWatch: func(wp *debugger.Watchpoint, old uint8, dbg *debugger.Debugger, mc *machine.Machine) {
			if wp.Bank != machine.BANK_R {
				t.Errorf("Unexpected watchpoint bank %s", wp.Bank)
			}

			events = append(events, watchEvent{old, wp.Value()})
		},
	}

	mc := newCountingMachine(t, dbg)

	dbg.Watch(mc, 0, machine.BANK_R, 5)
	dbg.Watch(mc, 0, machine.BANK_M, 5)

	stepMachine(t, mc, 3)

	want := []watchEvent{{0, 1}, {1, 2}, {2, 3}}

	if len(events) != len(want) {
		t.Fatalf("Watch events mismatch\nwant:%v\nhave:%v", want, events)
	}

	for i := range want {
		if events[i] != want[i] {
			t.Errorf("Watch event %d mismatch\nwant:%v\nhave:%v", i, want[i], events[i])
		}
	}
}

func TestPrintCode(t *testing.T) {
	var out bytes.Buffer

	dbg := &debugger.Debugger{Out: &out}
	mc := newCountingMachine(t, dbg)

	code := make([]byte, machine.CODE_MK61)

	for i := range code {
		code[i] = byte(i)
	}

	if err := mc.WriteCode(code); err != nil {
		t.Fatal(err)
	}

	dbg.PrintCode(mc)

	if have := out.String(); !strings.Contains(have, "[10]\033[0m 0A 0B 0C") {
		t.Errorf("Code listing missing second row\nhave:%q", have)
	}

	if have := strings.Count(out.String(), "\n"); have != 11 {
		t.Errorf("Code listing rows mismatch\nwant:11\nhave:%d", have)
	}
}

func TestPrintRegisters(t *testing.T) {
	var out bytes.Buffer

	dbg := &debugger.Debugger{Out: &out}
	mc := newCountingMachine(t, dbg)
	stepMachine(t, mc, 1)

	dbg.PrintRegisters(mc, 0)

	for _, want := range []string{"CMD[0x11]", machine.Disassemble(countingMicro)} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Register dump missing %q\nhave:%q", want, out.String())
		}
	}

	out.Reset()
	dbg.PrintRegisters(mc, 1)

	if have := out.String(); have != "No chip 1\n" {
		t.Errorf("Missing chip output mismatch\nhave:%q", have)
	}
}

func TestPrintMem(t *testing.T) {
	var out bytes.Buffer

	dbg := &debugger.Debugger{Out: &out}
	mc := newCountingMachine(t, dbg)

	mc.Memory[1].Poke(0, 7)
	mc.Memory[1].Poke(1, 8)

	dbg.PrintMem(mc, 1, 0, 6)

	if have := out.String(); !strings.Contains(have, "7") || !strings.Contains(have, "8") {
		t.Errorf("Memory dump missing words\nhave:%q", have)
	}
}

func TestPrintSource(t *testing.T) {
	source := ".CHIP\n" +
		".SYNC\n" +
		"s: #0, #0, #0, #0, #0, #0, #0, #0, #0\n" +
		".CMD\n" +
		"go: CMD s, s, s\n" +
		"; idle\n" +
		"CMD s, s, s\n"

	symtable := assembler.NewSymTable()

	if _, errs := assembler.AssembleROMSource(strings.NewReader(source), symtable); len(errs) > 0 {
		t.Fatal(errs[0])
	}

	var out bytes.Buffer

	dbg := &debugger.Debugger{
		Out:      &out,
		Source:   strings.NewReader(source),
		SymTable: symtable,
	}

	dbg.PrintSource(0, 0, 3)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("Source line count mismatch\nwant:3\nhave:%d (%q)", len(lines), out.String())
	}

	if !strings.HasSuffix(lines[0], "go: CMD s, s, s") || !strings.Contains(lines[0], "[0x00]") {
		t.Errorf("First source line mismatch\nhave:%q", lines[0])
	}

	if !strings.Contains(lines[1], "~~~~~~") {
		t.Errorf("Comment line should carry no address\nhave:%q", lines[1])
	}

	if !strings.Contains(lines[2], "[0x01]") {
		t.Errorf("Third source line mismatch\nhave:%q", lines[2])
	}

	out.Reset()
	dbg.PrintSource(0, 5, 1)

	if have := out.String(); !strings.HasPrefix(have, "No command found") {
		t.Errorf("Unknown address output mismatch\nhave:%q", have)
	}
}
