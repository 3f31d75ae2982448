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
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/lassandro/gomk61/pkg/assembler"
	"github.com/lassandro/gomk61/pkg/display"
	"github.com/lassandro/gomk61/pkg/encoding"
	"github.com/lassandro/gomk61/pkg/keypad"
	"github.com/lassandro/gomk61/pkg/machine"
)

type cli struct {
	Run      runCmd      `cmd:"" default:"withargs" help:"Runs the calculator in the terminal"`
	Snapshot snapshotCmd `cmd:"" help:"Runs headless and prints the display"`
	Dump     dumpCmd     `cmd:"" help:"Runs headless and prints the program memory"`
}

// Flags shared by every command that builds a machine.
type machineFlags struct {
	ROM     string `arg:"" type:"existingfile" help:"ROM image built by mk61-asm"`
	Program string `type:"existingfile" help:"Program listing to load into step memory"`
	Variant string `enum:"mk54,mk61" default:"mk61" help:"Calculator model (${enum})"`
	Mode    string `enum:"radians,degrees,grads" default:"radians" help:"Angle switch position (${enum})"`
}

// The calculator's front panel as seen by the machine.
type host struct {
	*keypad.Debouncer
	*keypad.ModeSwitch
	*display.Buffer
}

func newHost(mode machine.Mode, hold, queue int) *host {
	return &host{
		Debouncer:  keypad.NewDebouncer(hold, queue),
		ModeSwitch: keypad.NewModeSwitch(mode),
		Buffer:     display.NewBuffer(),
	}
}

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func parseVariant(name string) machine.Variant {
	if name == "mk54" {
		return machine.MK54
	}

	return machine.MK61
}

func parseMode(name string) machine.Mode {
	switch name {
	case "degrees":
		return machine.MODE_DEGREES
	case "grads":
		return machine.MODE_GRADS
	}

	return machine.MODE_RADIANS
}

func (flags *machineFlags) newMachine() (*machine.Machine, error) {
	file, err := os.Open(flags.ROM)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	roms, err := machine.LoadROM(file)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", flags.ROM, err)
	}

	mc, err := machine.New(parseVariant(flags.Variant), roms)

	if err != nil {
		return nil, err
	}

	if flags.Program != "" {
		if err := loadProgram(mc, flags.Program); err != nil {
			return nil, err
		}
	}

	return mc, nil
}

func loadProgram(mc *machine.Machine, filename string) error {
	file, err := os.Open(filename)

	if err != nil {
		return err
	}

	defer file.Close()

	code, err := encoding.DecodeProgram(file, mc.Variant.CodeSize())

	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	return mc.WriteCode(code)
}

// Symbol table written by mk61-asm next to the ROM image.
func loadSymTable(romfile string) (*assembler.SymTable, error) {
	filename := filepath.Join(filepath.Dir(romfile), strings.TrimSuffix(
		filepath.Base(romfile), filepath.Ext(romfile),
	)+".mkdb")

	file, err := os.Open(filename)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		return nil, err
	}

	return &symtable, nil
}

func mk61() int {
	ctx := kong.Parse(
		&cli{},
		kong.Name("mk61"),
		kong.Description("Elektronika MK-61 and MK-54 emulator"),
		kong.UsageOnError(),
	)

	if err := ctx.Run(); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(mk61())
}
