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


package encoding

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lassandro/gomk61/pkg/machine"
)

// Decodes a hexidecimal string in the formats: 0xFFFFFFFF, xFFFFFFFF, 0xFF, xFF
func DecodeHex(s string) (uint32, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 32)

	if err != nil {
		return 0, err
	}

	return uint32(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (int32, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 32)

	if err != nil {
		return 0, err
	}

	return int32(result), nil
}

// Decodes either literal format.
func DecodeLiteral(s string) (uint32, error) {
	if strings.ContainsAny(s, "xX") {
		return DecodeHex(s)
	}

	value, err := DecodeInt(s)

	if err != nil {
		return 0, err
	}

	if value < 0 {
		return 0, fmt.Errorf("Negative literal %s", s)
	}

	return uint32(value), nil
}

type ProgramLineError struct {
	Line int
	Text string
	Err  error
}

func (err *ProgramLineError) Error() string {
	return fmt.Sprintf("line %d: invalid step %q: %v", err.Line, err.Text, err.Err)
}

func (err *ProgramLineError) Unwrap() error {
	return err.Err
}

// Reads a program listing: hex step codes separated by whitespace, with
// comments starting at ';'. The listing must hold exactly size steps.
func DecodeProgram(reader io.Reader, size int) ([]byte, error) {
	code := make([]byte, 0, size)
	scanner := bufio.NewScanner(reader)
	line := 0

	for scanner.Scan() {
		line++
		text := scanner.Text()

		if i := strings.IndexByte(text, ';'); i != -1 {
			text = text[:i]
		}

		for _, field := range strings.Fields(text) {
			value, err := strconv.ParseUint(field, 16, 8)

			if err != nil {
				return nil, &ProgramLineError{line, field, err}
			}

			code = append(code, byte(value))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(code) != size {
		return nil, &machine.ProgramSizeError{Required: size, Received: len(code)}
	}

	return code, nil
}

// Writes a listing readable by DecodeProgram, ten steps per line with the
// first step address as a comment.
func EncodeProgram(writer io.Writer, code []byte) error {
	w := bufio.NewWriter(writer)

	for i := 0; i < len(code); i += 10 {
		end := i + 10

		if end > len(code) {
			end = len(code)
		}

		fields := make([]string, 0, 10)

		for _, step := range code[i:end] {
			fields = append(fields, fmt.Sprintf("%02X", step))
		}

		if _, err := fmt.Fprintf(w, "%-29s ; %02d\n", strings.Join(fields, " "), i); err != nil {
			return err
		}
	}

	return w.Flush()
}
