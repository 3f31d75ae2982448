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
	"io"

	"github.com/lassandro/gomk61/pkg/assembler"
	"github.com/lassandro/gomk61/pkg/machine"
)

// Watches one register word of one chip for changes between steps.
type Watchpoint struct {
	Chip  int
	Bank  machine.Bank
	Index int

	value uint8
	armed bool
}

// Stops before the command at Addr runs on Chip.
type Breakpoint struct {
	Chip int
	Addr int
}

type Debugger struct {
	Break bool

	Breakpoints []Breakpoint
	Watchpoints []Watchpoint

	Out      io.Writer
	Source   io.ReadSeeker
	SymTable *assembler.SymTable

	HandleBreak func(*Debugger, *machine.Machine)
	HandleWatch func(*Watchpoint, uint8, *Debugger, *machine.Machine)
}
