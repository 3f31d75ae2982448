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

func NewProgram(variant Variant) *Program {
	return &Program{code: make([]byte, variant.CodeSize())}
}

func (p *Program) Len() int {
	return len(p.code)
}

func (p *Program) Clear() {
	for i := range p.code {
		p.code[i] = 0
	}
}

func (p *Program) Code() []byte {
	code := make([]byte, len(p.code))
	copy(code, p.code)
	return code
}

// Replaces the whole program. Step bytes are opaque to the store.
func (p *Program) WriteCode(code []byte) error {
	if len(code) != len(p.code) {
		return &ProgramSizeError{len(p.code), len(code)}
	}

	copy(p.code, code)
	return nil
}

func (p *Program) ReadStep(addr int) (byte, error) {
	if addr < 0 || addr >= len(p.code) {
		return 0, &AddressError{Table: "program", Addr: addr, Limit: len(p.code)}
	}

	return p.code[addr], nil
}
