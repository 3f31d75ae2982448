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


package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/lassandro/gomk61/pkg/assembler"
	"github.com/lassandro/gomk61/pkg/machine"
)

func (dbg *Debugger) out() io.Writer {
	if dbg.Out == nil {
		return os.Stdout
	}

	return dbg.Out
}

// Value the watchpoint last saw.
func (wp *Watchpoint) Value() uint8 {
	return wp.value
}

// Called by the machine after every step.
func (dbg *Debugger) Step(mc *machine.Machine) {
	for i := range dbg.Watchpoints {
		wp := &dbg.Watchpoints[i]

		if wp.Chip < 0 || wp.Chip >= len(mc.Chips) {
			continue
		}

		have := mc.Chips[wp.Chip].Word(wp.Bank, wp.Index)
		old := wp.value
		changed := wp.armed && have != old

		wp.value = have
		wp.armed = true

		if changed && dbg.HandleWatch != nil {
			dbg.HandleWatch(wp, old, dbg, mc)
		}
	}

	if dbg.HandleBreak == nil {
		return
	}

	if dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Chip < 0 || breakpoint.Chip >= len(mc.Chips) {
			continue
		}

		if mc.Chips[breakpoint.Chip].CommandAddr() == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

// Starts watching a word, taking its current value as the baseline.
func (dbg *Debugger) Watch(mc *machine.Machine, chip int, bank machine.Bank, index int) {
	wp := Watchpoint{Chip: chip, Bank: bank, Index: machine.Wrap(index)}

	if chip >= 0 && chip < len(mc.Chips) {
		wp.value = mc.Chips[chip].Word(bank, wp.Index)
		wp.armed = true
	}

	dbg.Watchpoints = append(dbg.Watchpoints, wp)
}

func (dbg *Debugger) PrintSource(chip, addr, count int) {
	out := dbg.out()

	if dbg.Source == nil {
		fmt.Fprintln(out, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(out, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[assembler.SymbolKey(chip, addr)]

	if !exists {
		fmt.Fprintf(out, "No command found at %d:%#02x\n", chip, addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(out, err)
		return
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := 0; i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		foundaddr := false
		for key, linebyte := range dbg.SymTable.Symbols {
			if linebyte == offset && int(key>>8) == chip {
				fmt.Fprintf(out, "\033[1m[%#02x]\033[0m ", key&0xFF)
				foundaddr = true
				break
			}
		}

		if !foundaddr {
			fmt.Fprint(out, "\033[1;30m~~~~~~\033[0m ")
		}

		fmt.Fprintln(out, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(out, err)
	}
}

func printWords(out io.Writer, name string, words []uint8) {
	fmt.Fprintf(out, "\033[1m%-2s\033[0m ", name)

	for i, word := range words {
		if i > 0 && i%3 == 0 {
			fmt.Fprint(out, " ")
		}

		if word == 0 {
			fmt.Fprintf(out, "\033[1;30m%X\033[0m", word)
		} else {
			fmt.Fprintf(out, "%X", word)
		}
	}

	fmt.Fprintln(out)
}

func (dbg *Debugger) PrintRegisters(mc *machine.Machine, chip int) {
	out := dbg.out()

	if chip < 0 || chip >= len(mc.Chips) {
		fmt.Fprintf(out, "No chip %d\n", chip)
		return
	}

	c := mc.Chips[chip]

	printWords(out, "R", c.R[:])
	printWords(out, "M", c.M[:])
	printWords(out, "ST", c.ST[:])

	fmt.Fprintf(
		out,
		"S:%X Q:%X C:%d KEY:%t DISP:%t\n",
		c.S,
		c.Q,
		c.Carry,
		c.KeypadEvent,
		c.EnableDisplay,
	)

	fmt.Fprintf(
		out,
		"CMD[%#02x]:%#07x NEXT:%#02x STEP:%02d\n",
		c.CommandAddr(),
		c.Command,
		(c.Command>>machine.CMD_FIELD_C)&0xFF,
		c.StepAddr(),
	)

	fmt.Fprintf(out, "UCMD:%#07x %s\n", c.Opcode, machine.Disassemble(c.Opcode))
}

// Prints count words of a memory chip, starting with the word it outputs
// next.
func (dbg *Debugger) PrintMem(mc *machine.Machine, fifo, addr, count int) {
	out := dbg.out()

	if fifo < 0 || fifo >= len(mc.Memory) {
		fmt.Fprintf(out, "No memory chip %d\n", fifo)
		return
	}

	mem := &mc.Memory[fifo]

	for i := addr; i < addr+count; i++ {
		if i == addr {
			fmt.Fprintf(out, "\033[1m[%03d]\033[0m ", i)
		} else if (i-addr)%machine.REG_NWORDS == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\033[1m[%03d]\033[0m ", i)
		} else if (i-addr)%3 == 0 {
			fmt.Fprint(out, " ")
		}

		result := mem.Peek(i)

		if result == 0 {
			fmt.Fprintf(out, "\033[1;30m%X\033[0m", result)
		} else {
			fmt.Fprintf(out, "%X", result)
		}
	}

	fmt.Fprintln(out)
}

func (dbg *Debugger) PrintCode(mc *machine.Machine) {
	out := dbg.out()
	code := mc.Code()

	for i, step := range code {
		if i%10 == 0 {
			if i > 0 {
				fmt.Fprintln(out)
			}

			fmt.Fprintf(out, "\033[1m[%02d]\033[0m ", i)
		}

		fmt.Fprintf(out, "%02X ", step)
	}

	fmt.Fprintln(out)
}
