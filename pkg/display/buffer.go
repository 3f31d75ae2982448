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


package display

import (
	"context"
	"sync/atomic"

	"github.com/lassandro/gomk61/pkg/machine"
)

// Buffer collects digit events from the machine into frames and hands
// complete frames to one reader. The writer and the reader each own at most
// one of the two frames at a time.
type Buffer struct {
	frames    [2]Frame
	ready     chan int
	free      chan int
	current   int
	dropped   atomic.Uint64
	published atomic.Uint64
}

func NewBuffer() *Buffer {
	buf := &Buffer{
		ready:   make(chan int, 1),
		free:    make(chan int, 2),
		current: -1,
	}

	for i := range buf.frames {
		buf.frames[i] = Blank()
		buf.free <- i
	}

	return buf
}

// Frames that could not be written because the reader held the only
// spare buffer.
func (buf *Buffer) Dropped() uint64 {
	return buf.dropped.Load()
}

// Frames published to the reader.
func (buf *Buffer) Published() uint64 {
	return buf.published.Load()
}

func (buf *Buffer) acquire() {
	select {
	case i := <-buf.free:
		buf.current = i
		return
	default:
	}

	// The reader has not taken the last frame yet, overwrite it
	select {
	case i := <-buf.ready:
		buf.current = i
	default:
		buf.current = -1
		buf.dropped.Add(1)
	}
}

func (buf *Buffer) publish() {
	for {
		select {
		case buf.ready <- buf.current:
			buf.current = -1
			buf.published.Add(1)
			return
		case stale := <-buf.ready:
			buf.free <- stale
		}
	}
}

// EmitDigit implements the display side of machine.Devices. It must only be
// called from the goroutine stepping the machine.
func (buf *Buffer) EmitDigit(index int, digit uint8, dot bool) {
	if index < 0 || index >= machine.DIGITS {
		return
	}

	if index == 0 && buf.current == -1 {
		buf.acquire()
	}

	if buf.current == -1 {
		return
	}

	frame := &buf.frames[buf.current]
	frame.Digits[index] = digit & 0xF
	frame.Dots[index] = dot

	if index == machine.DIGITS-1 {
		buf.publish()
	}
}

// TryNext returns the published frame, if there is one, without blocking.
func (buf *Buffer) TryNext() (Frame, bool) {
	select {
	case i := <-buf.ready:
		frame := buf.frames[i]
		buf.free <- i
		return frame, true
	default:
		return Frame{}, false
	}
}

// Next blocks until a frame is published or ctx is done.
func (buf *Buffer) Next(ctx context.Context) (Frame, error) {
	select {
	case i := <-buf.ready:
		frame := buf.frames[i]
		buf.free <- i
		return frame, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}
