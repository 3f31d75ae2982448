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


package main

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lassandro/gomk61/pkg/assembler"
	"github.com/lassandro/gomk61/pkg/debugger"
	"github.com/lassandro/gomk61/pkg/encoding"
	"github.com/lassandro/gomk61/pkg/keypad"
	"github.com/lassandro/gomk61/pkg/machine"
)

func (sess *session) newDebugger(romfile string) *debugger.Debugger {
	dbg := &debugger.Debugger{
		Out:         os.Stdout,
		HandleBreak: sess.handleBreak,
		HandleWatch: sess.handleWatch,
	}

	if symtable, err := loadSymTable(romfile); err == nil {
		dbg.SymTable = symtable
	} else {
		log.Println("Error loading symbol file")
		log.Println(err)
	}

	if dbg.SymTable != nil && dbg.SymTable.Source != "" {
		if file, err := os.Open(dbg.SymTable.Source); err == nil {
			dbg.Source = file
			sess.source = file
		} else {
			log.Println("Error loading source file")
			log.Println(err)
		}
	}

	return dbg
}

func parseBank(s string) (machine.Bank, error) {
	switch strings.ToUpper(s) {
	case "R":
		return machine.BANK_R, nil
	case "M":
		return machine.BANK_M, nil
	case "ST":
		return machine.BANK_ST, nil
	}

	return 0, fmt.Errorf("Invalid register bank '%s'", s)
}

func parseNumber(s string, limit int) (int, error) {
	value, err := encoding.DecodeLiteral(s)

	if err != nil {
		return 0, err
	}

	if int64(value) >= int64(limit) {
		return 0, fmt.Errorf("%s is out of range, want <%d", s, limit)
	}

	return int(value), nil
}

func findLabel(dbg *debugger.Debugger, name string) (chip, addr int, ok bool) {
	if dbg.SymTable == nil {
		return 0, 0, false
	}

	for key, label := range dbg.SymTable.Labels {
		if label == name {
			return int(key >> 8), int(key & 0xFF), true
		}
	}

	return 0, 0, false
}

// Resolves either "label" or "chip addr" at the front of args and returns
// the remaining arguments.
func parseLocation(
	dbg *debugger.Debugger, mc *machine.Machine, args []string,
) (chip, addr int, rest []string, err error) {
	if len(args) == 0 {
		return 0, 0, nil, errors.New("Missing location")
	}

	if chip, addr, ok := findLabel(dbg, args[0]); ok {
		if chip >= len(mc.Chips) {
			return 0, 0, nil, fmt.Errorf("Label '%s' is on missing chip %d", args[0], chip)
		}

		return chip, addr, args[1:], nil
	}

	if len(args) < 2 {
		return 0, 0, nil, fmt.Errorf("Unable to find '%s'", args[0])
	}

	if chip, err = parseNumber(args[0], len(mc.Chips)); err != nil {
		return 0, 0, nil, err
	}

	if addr, err = parseNumber(args[1], 0x100); err != nil {
		return 0, 0, nil, err
	}

	return chip, addr, args[2:], nil
}

func indexFormat(count int, format string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %s\n", int64(digits)+1, format)
}

func debugBreak(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [label|chip addr]"

		chip, addr, rest, err := parseLocation(dbg, mc, args)

		if err != nil || len(rest) != 0 {
			log.Println(usage)
			return
		}

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Chip == chip && breakpoint.Addr == addr {
				return
			}
		}

		dbg.Breakpoints = append(
			dbg.Breakpoints,
			debugger.Breakpoint{Chip: chip, Addr: addr},
		)

		fmt.Printf("Breakpoint added [%d:%#02x]\n", chip, addr)

	case "l", "ls", "list":
		if len(args) != 0 {
			log.Println("break list")
			return
		}

		format := indexFormat(len(dbg.Breakpoints), "%d:%#02x")

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(format, i, breakpoint.Chip, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= len(dbg.Breakpoints) {
			log.Println("Invalid breakpoint number")
			return
		}

		dbg.Breakpoints = append(dbg.Breakpoints[:i], dbg.Breakpoints[i+1:]...)
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func debugWatch(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [chip] [R|M|ST] [word]"

		if len(args) != 3 {
			log.Println(usage)
			return
		}

		chip, err := parseNumber(args[0], len(mc.Chips))

		if err != nil {
			log.Println(err)
			return
		}

		bank, err := parseBank(args[1])

		if err != nil {
			log.Println(err)
			return
		}

		index, err := parseNumber(args[2], machine.REG_NWORDS)

		if err != nil {
			log.Println(err)
			return
		}

		for _, wp := range dbg.Watchpoints {
			if wp.Chip == chip && wp.Bank == bank && wp.Index == index {
				return
			}
		}

		dbg.Watch(mc, chip, bank, index)
		fmt.Printf("Watchpoint added [%d:%s%d]\n", chip, bank, index)

	case "l", "ls", "list":
		if len(args) != 0 {
			log.Println("watch list")
			return
		}

		format := indexFormat(len(dbg.Watchpoints), "%d:%s%d = %X")

		for i, wp := range dbg.Watchpoints {
			fmt.Printf(format, i, wp.Chip, wp.Bank, wp.Index, wp.Value())
		}

	case "r", "rm", "remove":
		const usage = "watch remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= len(dbg.Watchpoints) {
			log.Println("Invalid watchpoint number")
			return
		}

		dbg.Watchpoints = append(dbg.Watchpoints[:i], dbg.Watchpoints[i+1:]...)
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func debugReg(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "register [chip] [R|M|ST word value]"

	chip := 0

	if len(args) != 0 && len(args) != 1 && len(args) != 4 {
		log.Println(usage)
		return
	}

	if len(args) > 0 {
		var err error

		if chip, err = parseNumber(args[0], len(mc.Chips)); err != nil {
			log.Println(err)
			return
		}
	}

	if len(args) == 4 {
		bank, err := parseBank(args[1])

		if err != nil {
			log.Println(err)
			return
		}

		index, err := parseNumber(args[2], machine.REG_NWORDS)

		if err != nil {
			log.Println(err)
			return
		}

		value, err := parseNumber(args[3], 0x10)

		if err != nil {
			log.Println(err)
			return
		}

		mc.Chips[chip].SetWord(bank, index, uint8(value))
		fmt.Printf("\033[1m%d:%s%d:\033[0m %X\n", chip, bank, index, value)
		return
	}

	dbg.PrintRegisters(mc, chip)
}

func debugSource(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "source [label|chip addr] [#]"

	chip := 0
	addr := mc.Chips[0].CommandAddr()
	size := 8

	if len(args) > 1 || (len(args) == 1 && !isCount(args[0])) {
		var err error

		if chip, addr, args, err = parseLocation(dbg, mc, args); err != nil {
			log.Println(err)
			log.Println(usage)
			return
		}
	}

	if len(args) > 1 {
		log.Println(usage)
		return
	}

	if len(args) == 1 {
		value, err := strconv.Atoi(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		size = value
	}

	dbg.PrintSource(chip, addr, size)
}

func isCount(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func debugLabels(dbg *debugger.Debugger, args []string) {
	const usage = "labels"

	if len(args) > 0 {
		fmt.Println(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for key := range dbg.SymTable.Labels {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		fmt.Printf(
			"\033[1m[%d:%#02x]\033[0m %s\n",
			key>>8,
			key&0xFF,
			dbg.SymTable.Labels[key],
		)
	}
}

func debugJump(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "jump [label|chip addr]"

	chip, addr, rest, err := parseLocation(dbg, mc, args)

	if err != nil || len(rest) != 0 {
		if err != nil {
			log.Println(err)
		}

		log.Println(usage)
		return
	}

	target := mc.Chips[chip]
	target.SetWord(machine.BANK_R, machine.ADDR_LO, uint8(addr&0xF))
	target.SetWord(machine.BANK_R, machine.ADDR_HI, uint8(addr>>4))

	fmt.Printf("\033[1mCMD[%d]:\033[0m %#02x", chip, addr)

	if dbg.SymTable != nil {
		if label, ok := dbg.SymTable.Labels[assembler.SymbolKey(chip, addr)]; ok {
			fmt.Printf(" \033[1;30m(%s)\033[0m", label)
		}
	}

	fmt.Println()
}

func debugMemory(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "memory [fifo] [word] [#]"

	if len(args) > 3 {
		log.Println(usage)
		return
	}

	values := []int{0, 0, machine.REG_NWORDS}
	limits := []int{len(mc.Memory), machine.FIFO_NWORDS, machine.FIFO_NWORDS + 1}

	for i, arg := range args {
		value, err := parseNumber(arg, limits[i])

		if err != nil {
			log.Println(err)
			return
		}

		values[i] = value
	}

	dbg.PrintMem(mc, values[0], values[1], values[2])
}

func debugSet(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "set [fifo] [word] [value]"

	if len(args) != 3 {
		log.Println(usage)
		return
	}

	fifo, err := parseNumber(args[0], len(mc.Memory))

	if err != nil {
		log.Println(err)
		return
	}

	addr, err := parseNumber(args[1], machine.FIFO_NWORDS)

	if err != nil {
		log.Println(err)
		return
	}

	value, err := parseNumber(args[2], 0x10)

	if err != nil {
		log.Println(err)
		return
	}

	mc.Memory[fifo].Poke(addr, uint8(value))
	dbg.PrintMem(mc, fifo, addr, 1)
}

func debugCode(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "code [step value]"

	if len(args) == 0 {
		dbg.PrintCode(mc)
		return
	}

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	step, err := parseNumber(args[0], mc.Variant.CodeSize())

	if err != nil {
		log.Println(err)
		return
	}

	value, err := parseNumber(args[1], 0x100)

	if err != nil {
		log.Println(err)
		return
	}

	code := mc.Code()
	code[step] = byte(value)

	if err := mc.WriteCode(code); err != nil {
		log.Println(err)
		return
	}

	fmt.Printf("\033[1m[%02d]\033[0m %02X\n", step, value)
}

func (sess *session) debugKeys(args []string) {
	const usage = "keys [script]"

	if len(args) != 1 {
		log.Println(usage)
		return
	}

	keys, err := keypad.ParseKeys(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	for _, key := range keys {
		if !sess.panel.Press(key) {
			log.Println("Key queue full")
			return
		}
	}
}

func (sess *session) debugREPL() {
	dbg := sess.dbg
	mc := sess.mc

	exitRawTerm()
	defer enterRawTerm()

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		line, ok := sess.con.ReadLine()

		if !ok {
			fmt.Println()
			sess.shouldexit = true
			return
		}

		args := strings.Fields(line)

		if len(args) == 0 {
			if len(sess.lastcmd) == 0 {
				continue
			}
			args = sess.lastcmd
		} else {
			sess.lastcmd = make([]string, len(args))
			copy(sess.lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, mc, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, mc, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, mc, args)

		case "s", "src", "source":
			debugSource(dbg, mc, args)

		case "l", "label", "labels":
			debugLabels(dbg, args)

		case "j", "jmp", "jump":
			debugJump(dbg, mc, args)

		case "m", "mem", "memory":
			debugMemory(dbg, mc, args)

		case "set":
			debugSet(dbg, mc, args)

		case "code":
			debugCode(dbg, mc, args)

		case "k", "key", "keys":
			sess.debugKeys(args)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			sess.shouldexit = true
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			mc.Reset()
			fmt.Println("Machine reset")

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func (sess *session) handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if !dbg.Break {
		chip := 0

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Chip >= len(mc.Chips) {
				continue
			}

			if mc.Chips[breakpoint.Chip].CommandAddr() == breakpoint.Addr {
				chip = breakpoint.Chip
				break
			}
		}

		fmt.Println()
		fmt.Println("Program stopped")
		dbg.PrintSource(chip, mc.Chips[chip].CommandAddr(), 8)
	}

	sess.debugREPL()
}

// Stops at the end of the step that changed the word.
func (sess *session) handleWatch(
	wp *debugger.Watchpoint, old uint8, dbg *debugger.Debugger, mc *machine.Machine,
) {
	fmt.Println()
	fmt.Println("Program stopped")
	fmt.Printf(
		"\033[1m%d:%s%d:\033[0m %X -> %X\n",
		wp.Chip,
		wp.Bank,
		wp.Index,
		old,
		wp.Value(),
	)

	dbg.Break = true
}
