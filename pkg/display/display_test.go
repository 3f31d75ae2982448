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


package display_test

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lassandro/gomk61/pkg/display"
	"github.com/lassandro/gomk61/pkg/machine"
)

// Emits one full scan the way the machine does: two blank slots, then the
// twelve digits.
func emitScan(buf *display.Buffer, digit uint8) {
	buf.EmitDigit(-1, machine.BLANK, false)
	buf.EmitDigit(-1, machine.BLANK, false)

	for i := 0; i < machine.DIGITS; i++ {
		buf.EmitDigit(i, digit, i == 3)
	}
}

func TestGlyphs(t *testing.T) {
	want := "0123456789-LCrE "

	for i := 0; i < 16; i++ {
		if have := display.Glyph(uint8(i)); have != want[i] {
			t.Errorf("Glyph %d mismatch\nwant:%c\nhave:%c", i, want[i], have)
		}
	}
}

func TestFrameString(t *testing.T) {
	frame := display.Blank()
	frame.Digits[0] = 5
	frame.Digits[1] = 2
	frame.Dots[1] = true
	frame.Digits[11] = 10

	want := "- " + strings.Repeat("  ", 9) + "2,5 "

	if have := frame.String(); have != want {
		t.Errorf("Frame text mismatch\nwant:%q\nhave:%q", want, have)
	}
}

func TestBufferPublish(t *testing.T) {
	buf := display.NewBuffer()

	emitScan(buf, 7)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	frame, err := buf.Next(ctx)

	if err != nil {
		t.Fatal(err)
	}

	for i, digit := range frame.Digits {
		if digit != 7 {
			t.Errorf("Digit %d mismatch\nwant:7\nhave:%d", i, digit)
		}

		if frame.Dots[i] != (i == 3) {
			t.Errorf("Dot %d mismatch\nwant:%t\nhave:%t", i, i == 3, frame.Dots[i])
		}
	}

	if buf.Published() != 1 || buf.Dropped() != 0 {
		t.Errorf("Counters mismatch\nwant:1 0\nhave:%d %d", buf.Published(), buf.Dropped())
	}
}

func TestBufferLatestWins(t *testing.T) {
	buf := display.NewBuffer()

	for digit := uint8(1); digit <= 5; digit++ {
		emitScan(buf, digit)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	frame, err := buf.Next(ctx)

	if err != nil {
		t.Fatal(err)
	}

	if frame.Digits[0] != 5 {
		t.Errorf("Stale frame returned\nwant:5\nhave:%d", frame.Digits[0])
	}

	if buf.Dropped() != 0 {
		t.Errorf("Frames dropped without a reader\nhave:%d", buf.Dropped())
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := buf.Next(ctx); err == nil {
		t.Error("Expected no second frame")
	}
}

func TestBufferTryNext(t *testing.T) {
	buf := display.NewBuffer()

	if _, ok := buf.TryNext(); ok {
		t.Error("Frame returned before any scan")
	}

	emitScan(buf, 4)

	frame, ok := buf.TryNext()

	if !ok || frame.Digits[11] != 4 {
		t.Errorf("Published frame mismatch\nwant:4 true\nhave:%d %t", frame.Digits[11], ok)
	}

	if _, ok := buf.TryNext(); ok {
		t.Error("Frame returned twice")
	}
}

func TestBufferPartialScan(t *testing.T) {
	buf := display.NewBuffer()

	// Digits before the first frame start are ignored
	for i := 5; i < machine.DIGITS; i++ {
		buf.EmitDigit(i, 1, false)
	}

	if buf.Published() != 0 {
		t.Errorf("Partial scan published\nhave:%d", buf.Published())
	}

	emitScan(buf, 2)

	if buf.Published() != 1 {
		t.Errorf("Full scan not published\nhave:%d", buf.Published())
	}
}

// The reader copies frames while the writer keeps scanning; every frame it
// sees must be uniform.
func TestBufferConcurrentReader(t *testing.T) {
	buf := display.NewBuffer()
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for {
			frame, err := buf.Next(ctx)

			if err != nil {
				return
			}

			for i := range frame.Digits {
				if frame.Digits[i] != frame.Digits[0] {
					t.Errorf("Torn frame %s", frame)
					return
				}
			}
		}
	}()

	for n := 0; n < 2000; n++ {
		emitScan(buf, uint8(n%10))
	}

	cancel()
	wg.Wait()

	if buf.Published()+buf.Dropped() != 2000 {
		t.Errorf(
			"Frame accounting mismatch\nwant:2000\nhave:%d+%d",
			buf.Published(),
			buf.Dropped(),
		)
	}
}

func TestDrawPNG(t *testing.T) {
	frame := display.Blank()
	frame.Digits[0] = 8
	frame.Dots[0] = true

	var out bytes.Buffer

	if err := display.DrawPNG(&out, frame); err != nil {
		t.Fatal(err)
	}

	img, err := png.Decode(&out)

	if err != nil {
		t.Fatal(err)
	}

	bounds := img.Bounds()

	if bounds.Dx() != display.IMAGE_WIDTH || bounds.Dy() != display.IMAGE_HEIGHT {
		t.Errorf(
			"Image size mismatch\nwant:%dx%d\nhave:%dx%d",
			display.IMAGE_WIDTH,
			display.IMAGE_HEIGHT,
			bounds.Dx(),
			bounds.Dy(),
		)
	}
}
