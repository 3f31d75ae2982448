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
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/pkg/profile"

	"github.com/lassandro/gomk61/pkg/debugger"
	"github.com/lassandro/gomk61/pkg/keypad"
	"github.com/lassandro/gomk61/pkg/machine"
)

const (
	keyQueue = 64
	keyQuit  = 4 // ctrl-d
	keyMode  = 'r'

	ticksPerSecond = 100
	settleSteps    = 4 * machine.SCAN_LENGTH
)

type runCmd struct {
	machineFlags `embed:""`

	Debug   bool   `help:"Runs the machine in a debug CLI"`
	Hold    int    `default:"14" help:"Steps a key is held down, and then up"`
	Rate    int    `default:"0" help:"Steps per second, 0 runs unthrottled"`
	Profile string `type:"path" placeholder:"DIR" help:"Writes a CPU profile into DIR"`
}

// Bytes typed on the terminal. A single reader goroutine serves both the
// keypad and the debug prompt.
type console struct {
	input  <-chan byte
	closed bool
}

func newConsole(r io.Reader) *console {
	input := make(chan byte, 256)

	go func() {
		defer close(input)

		buf := make([]byte, 64)

		for {
			n, err := r.Read(buf)

			for _, c := range buf[:n] {
				input <- c
			}

			if err != nil {
				return
			}
		}
	}()

	return &console{input: input}
}

func (con *console) Poll() (byte, bool) {
	if con.closed {
		return 0, false
	}

	select {
	case c, ok := <-con.input:
		if !ok {
			con.closed = true
		}

		return c, ok
	default:
		return 0, false
	}
}

// Blocks for one line. Returns false once the input is closed.
func (con *console) ReadLine() (string, bool) {
	if con.closed {
		return "", false
	}

	var line strings.Builder

	for c := range con.input {
		switch c {
		case '\n':
			return line.String(), true
		case '\r':
		default:
			line.WriteByte(c)
		}
	}

	con.closed = true

	return line.String(), line.Len() > 0
}

type session struct {
	mc    *machine.Machine
	dbg   *debugger.Debugger
	panel *host
	con   *console

	source *os.File

	lastcmd    []string
	shouldexit bool
}

// Spreads rate steps per second over the ticks of the pacing ticker.
type throttle struct {
	rate   int
	credit int
}

// Steps allowed by one tick. The remainder carries over to the next tick.
func (th *throttle) tick() int {
	th.credit += th.rate
	steps := th.credit / ticksPerSecond
	th.credit %= ticksPerSecond
	return steps
}

// Ends a run fed from a closed input once the calculator has been idle for
// settleSteps steps after the last key.
type drain struct {
	quiet int
}

func (d *drain) step(done, running bool) bool {
	if !done || running {
		d.quiet = 0
		return false
	}

	d.quiet++
	return d.quiet >= settleSteps
}

// Reports whether stdin is closed and every key read from it was released.
func (sess *session) inputDone() bool {
	return sess.con.closed && sess.panel.Idle()
}

func nextMode(mode machine.Mode) machine.Mode {
	switch mode {
	case machine.MODE_RADIANS:
		return machine.MODE_DEGREES
	case machine.MODE_DEGREES:
		return machine.MODE_GRADS
	}

	return machine.MODE_RADIANS
}

func (sess *session) handleKey(c byte) {
	switch c {
	case keyQuit:
		sess.shouldexit = true

	case keyMode:
		sess.panel.Set(nextMode(sess.panel.PollMode()))

	default:
		// Keys typed faster than the calculator scans are dropped
		sess.panel.Press(keypad.FromASCII(c))
	}
}

// Prints each new frame over the previous one until ctx is done.
func renderDisplay(ctx context.Context, panel *host, out io.Writer) {
	var last string

	for {
		frame, err := panel.Next(ctx)

		if err != nil {
			return
		}

		line := fmt.Sprintf("\r[%s] %-7s", frame, panel.PollMode())

		if line != last {
			fmt.Fprint(out, line)
			last = line
		}
	}
}

func (cmd *runCmd) Run() error {
	if cmd.Profile != "" {
		defer profile.Start(
			profile.CPUProfile,
			profile.ProfilePath(cmd.Profile),
			profile.Quiet,
		).Stop()
	}

	mc, err := cmd.newMachine()

	if err != nil {
		return err
	}

	sess := &session{
		mc:    mc,
		panel: newHost(parseMode(cmd.Mode), cmd.Hold, keyQueue),
		con:   newConsole(os.Stdin),
	}

	mc.Devices = sess.panel

	if cmd.Debug {
		sess.dbg = sess.newDebugger(cmd.ROM)
		mc.Debugger = sess.dbg

		if sess.source != nil {
			defer sess.source.Close()
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	if err := enterRawTerm(); err != nil {
		log.Println(err)
	} else {
		defer exitRawTerm()
	}

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		renderDisplay(ctx, sess.panel, os.Stdout)
	}()

	defer func() {
		cancel()
		wg.Wait()
		fmt.Println()
	}()

	if sess.dbg != nil {
		sess.debugREPL()
	}

	var ticker *time.Ticker
	var pace *throttle
	var budget int
	var settle drain

	if cmd.Rate > 0 {
		ticker = time.NewTicker(time.Second / ticksPerSecond)
		pace = &throttle{rate: cmd.Rate}
		defer ticker.Stop()
	}

	for !sess.shouldexit {
		select {
		case <-interrupt:
			if sess.dbg == nil {
				return nil
			}

			fmt.Println()
			sess.dbg.Break = true
		default:
		}

		if c, ok := sess.con.Poll(); ok {
			sess.handleKey(c)
		}

		if pace != nil {
			if budget == 0 {
				<-ticker.C
				budget = pace.tick()
				continue
			}

			budget--
		}

		running, err := mc.Step()

		if err != nil {
			return err
		}

		if settle.step(sess.inputDone(), running) {
			return nil
		}
	}

	return nil
}
