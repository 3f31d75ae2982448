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


package keypad

import (
	"sync/atomic"

	"github.com/lassandro/gomk61/pkg/machine"
)

// Debouncer feeds queued key presses to the machine. Each key is held for
// Hold polls and then released for as many polls, so the calculator's scan
// sees a clean press and release.
type Debouncer struct {
	hold      int
	keys      chan uint8
	key       uint8
	remaining int
}

func NewDebouncer(hold, queue int) *Debouncer {
	if hold < 1 {
		hold = 1
	}

	return &Debouncer{hold: hold, keys: make(chan uint8, queue)}
}

// Queues a key press. Returns false when the queue is full. Safe to call
// from any goroutine.
func (d *Debouncer) Press(key uint8) bool {
	if key == machine.KEY_NONE {
		return true
	}

	select {
	case d.keys <- key:
		return true
	default:
		return false
	}
}

// Reports whether no key is held, releasing or queued.
func (d *Debouncer) Idle() bool {
	return d.remaining == 0 && d.key == machine.KEY_NONE && len(d.keys) == 0
}

// PollKeypad returns the key to present for this poll. It must only be
// called from the goroutine stepping the machine.
func (d *Debouncer) PollKeypad() uint8 {
	if d.remaining > 0 {
		d.remaining--
		return d.key
	}

	if d.key != machine.KEY_NONE {
		d.key = machine.KEY_NONE
		d.remaining = d.hold - 1
		return machine.KEY_NONE
	}

	select {
	case key := <-d.keys:
		d.key = key
		d.remaining = d.hold - 1
		return key
	default:
		return machine.KEY_NONE
	}
}

// ModeSwitch is the radians/degrees/grads slider.
type ModeSwitch struct {
	mode atomic.Uint32
}

func NewModeSwitch(mode machine.Mode) *ModeSwitch {
	var sw ModeSwitch
	sw.Set(mode)
	return &sw
}

func (sw *ModeSwitch) Set(mode machine.Mode) {
	sw.mode.Store(uint32(mode))
}

func (sw *ModeSwitch) PollMode() machine.Mode {
	return machine.Mode(sw.mode.Load())
}
