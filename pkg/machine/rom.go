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

package machine

import (
	"encoding/binary"
	"errors"
	"io"
)

var romMagic = [4]byte{'M', 'K', '6', '1'}

// Image layout, big endian:
//	magic "MK61" | chips u16 |
//	per chip: micro u16 | macro u16 | sync u16 | micro u32... | macro u32... | sync u8...
func WriteROM(w io.Writer, roms []ROM) error {
	if len(roms) > MAX_CHIPS {
		return &ROMFormatError{"too many chips"}
	}

	if err := binary.Write(w, binary.BigEndian, romMagic); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, uint16(len(roms))); err != nil {
		return err
	}

	for _, rom := range roms {
		if len(rom.Micro) > 0xFFFF || len(rom.Macro) > 0xFFFF || len(rom.Sync) > 0xFFFF {
			return &ROMFormatError{"table too large"}
		}

		header := [3]uint16{
			uint16(len(rom.Micro)),
			uint16(len(rom.Macro)),
			uint16(len(rom.Sync)),
		}

		for _, data := range []interface{}{header, rom.Micro, rom.Macro, rom.Sync} {
			if err := binary.Write(w, binary.BigEndian, data); err != nil {
				return err
			}
		}
	}

	return nil
}

func LoadROM(reader io.Reader) ([]ROM, error) {
	var magic [4]byte
	var count uint16

	if err := binary.Read(reader, binary.BigEndian, &magic); err != nil {
		return nil, romReadError(err)
	}

	if magic != romMagic {
		return nil, &ROMFormatError{"bad magic"}
	}

	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, romReadError(err)
	}

	if count == 0 || count > MAX_CHIPS {
		return nil, &ROMFormatError{"bad chip count"}
	}

	roms := make([]ROM, count)

	for i := range roms {
		var header [3]uint16

		if err := binary.Read(reader, binary.BigEndian, &header); err != nil {
			return nil, romReadError(err)
		}

		rom := ROM{
			Micro: make([]uint32, header[0]),
			Macro: make([]uint32, header[1]),
			Sync:  make([]uint8, header[2]),
		}

		for _, data := range []interface{}{rom.Micro, rom.Macro, rom.Sync} {
			if err := binary.Read(reader, binary.BigEndian, data); err != nil {
				return nil, romReadError(err)
			}
		}

		roms[i] = rom
	}

	return roms, nil
}

func romReadError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &ROMFormatError{"truncated image"}
	}

	return err
}
