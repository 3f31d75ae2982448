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


package assembler

import (
	"github.com/lassandro/gomk61/pkg/machine"
)

const (
	TOKEN_NONE TokenType = iota
	TOKEN_IDENT
	TOKEN_DIRECTIVE
	TOKEN_LITERAL
	TOKEN_LABEL
)

const (
	DIRECTIVE_INVALID DirectiveType = iota
	DIRECTIVE_CHIP
	DIRECTIVE_MICRO
	DIRECTIVE_SYNC
	DIRECTIVE_CMD
	DIRECTIVE_ORG
	DIRECTIVE_FILL
	DIRECTIVE_END
)

const (
	SECTION_NONE Section = iota
	SECTION_MICRO
	SECTION_SYNC
	SECTION_CMD
)

const (
	KEYWORD_NOP  = "NOP"
	KEYWORD_CMD  = "CMD"
	KEYWORD_STEP = "STEP"
)

// Table limits. Command addresses are two register nibbles, sync programs
// are addressed by one command field.
const (
	LIMIT_MICRO = 1 << 16
	LIMIT_SYNC  = 1 << 8
	LIMIT_CMD   = 1 << 8
	LIMIT_BYTE  = 0xFF
	LIMIT_WORD  = 0xFFFFFFFF

	// Largest sync byte: 60-63 are the carry conditional selectors
	LIMIT_SYNC_BYTE = machine.MICRO_COND + machine.MICRO_NCOND - 1
)
