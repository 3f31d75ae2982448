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
	"fmt"
	"log"
	"os"

	"github.com/lassandro/gomk61/pkg/display"
	"github.com/lassandro/gomk61/pkg/encoding"
	"github.com/lassandro/gomk61/pkg/keypad"
	"github.com/lassandro/gomk61/pkg/machine"
)

// Flags for commands that run the machine without a terminal.
type scriptFlags struct {
	Keys string `help:"Keys pressed in order, using the terminal key map"`
	Hold int    `default:"14" help:"Steps a key is held down, and then up"`
}

type snapshotCmd struct {
	machineFlags `embed:""`
	scriptFlags  `embed:""`

	Steps int    `required:"" help:"Steps to run before taking the snapshot"`
	PNG   string `name:"png" type:"path" help:"Also draws the display into a PNG file"`
}

type dumpCmd struct {
	machineFlags `embed:""`
	scriptFlags  `embed:""`

	Steps int `default:"0" help:"Steps to run before dumping"`
}

type headless struct {
	mc      *machine.Machine
	panel   *host
	frame   display.Frame
	running bool
}

func (flags *machineFlags) runScript(script scriptFlags, steps int) (*headless, error) {
	keys, err := keypad.ParseKeys(script.Keys)

	if err != nil {
		return nil, err
	}

	mc, err := flags.newMachine()

	if err != nil {
		return nil, err
	}

	run := &headless{
		mc:    mc,
		panel: newHost(parseMode(flags.Mode), script.Hold, len(keys)),
		frame: display.Blank(),
	}

	mc.Devices = run.panel

	for _, key := range keys {
		run.panel.Press(key)
	}

	for i := 0; i < steps; i++ {
		if run.running, err = mc.Step(); err != nil {
			return nil, err
		}

		if frame, ok := run.panel.TryNext(); ok {
			run.frame = frame
		}
	}

	if !run.panel.Idle() {
		log.Println("Key script still pending after", steps, "steps")
	}

	return run, nil
}

func (cmd *snapshotCmd) Run() error {
	run, err := cmd.runScript(cmd.scriptFlags, cmd.Steps)

	if err != nil {
		return err
	}

	if run.running {
		fmt.Printf("[%s] running\n", run.frame)
	} else {
		fmt.Printf("[%s]\n", run.frame)
	}

	if cmd.PNG == "" {
		return nil
	}

	file, err := os.Create(cmd.PNG)

	if err != nil {
		return err
	}

	if err := display.DrawPNG(file, run.frame); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

func (cmd *dumpCmd) Run() error {
	run, err := cmd.runScript(cmd.scriptFlags, cmd.Steps)

	if err != nil {
		return err
	}

	return encoding.EncodeProgram(os.Stdout, run.mc.Code())
}
