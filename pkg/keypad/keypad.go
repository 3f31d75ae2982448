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
	"fmt"

	"github.com/lassandro/gomk61/pkg/machine"
)

// Terminal bytes for the calculator keys. Arrow and home keys arrive as
// escape sequences; their final byte is mapped and the prefix is ignored.
var asciiKeys = map[byte]uint8{
	'0': machine.KEY_0,
	'1': machine.KEY_1,
	'2': machine.KEY_2,
	'3': machine.KEY_3,
	'4': machine.KEY_4,
	'5': machine.KEY_5,
	'6': machine.KEY_6,
	'7': machine.KEY_7,
	'8': machine.KEY_8,
	'9': machine.KEY_9,

	'+': machine.KEY_ADD,
	'-': machine.KEY_SUB,
	'*': machine.KEY_MUL,
	'/': machine.KEY_DIV,
	's': machine.KEY_XY,
	'.': machine.KEY_DOT,
	'~': machine.KEY_NEG,
	'^': machine.KEY_EXP,

	8:    machine.KEY_CLEAR,
	127:  machine.KEY_CLEAR,
	'\r': machine.KEY_ENTER,
	'\n': machine.KEY_ENTER,

	' ': machine.KEY_STOPGO,
	'b': machine.KEY_GOTO,
	'c': machine.KEY_CALL,
	'p': machine.KEY_STORE,
	'i': machine.KEY_LOAD,
	'k': machine.KEY_K,
	'f': machine.KEY_F,

	'C': machine.KEY_NEXT, // right arrow
	'K': machine.KEY_NEXT,
	'D': machine.KEY_PREV, // left arrow
	'M': machine.KEY_PREV,
	'H': machine.KEY_RET, // home
	'G': machine.KEY_RET,
}

// Keycode for a terminal byte, or KEY_NONE.
func FromASCII(c byte) uint8 {
	if key, ok := asciiKeys[c]; ok {
		return key
	}

	return machine.KEY_NONE
}

type UnknownKeyError struct {
	Offset   int
	Received byte
}

func (err *UnknownKeyError) Error() string {
	return fmt.Sprintf("%d: No key for character %q", err.Offset, err.Received)
}

// Translates a key script such as "12+3\n" into keycodes.
func ParseKeys(script string) ([]uint8, error) {
	keys := make([]uint8, 0, len(script))

	for i := 0; i < len(script); i++ {
		key := FromASCII(script[i])

		if key == machine.KEY_NONE {
			return nil, &UnknownKeyError{i, script[i]}
		}

		keys = append(keys, key)
	}

	return keys, nil
}
