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
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/lassandro/gomk61/pkg/encoding"
	"github.com/lassandro/gomk61/pkg/machine"
)

type refKind uint

const (
	refMicro refKind = iota // sync byte naming a microinstruction
	refSync                 // command field naming a sync program
	refField                // field C: sync program or branch target
)

type label struct {
	Section Section
	Addr    int
}

type labelRef struct {
	Kind     refKind
	Chip     int
	Addr     int
	Shift    uint
	Label    string
	Position Cursor
}

type chipTables struct {
	Micro  []uint32
	Macro  []uint32
	Sync   []uint8
	Labels map[string]label
	Addr   [SECTION_CMD + 1]int
}

func (tables *chipTables) rom() machine.ROM {
	return machine.ROM{
		Micro: append([]uint32(nil), tables.Micro...),
		Macro: append([]uint32(nil), tables.Macro...),
		Sync:  append([]uint8(nil), tables.Sync...),
	}
}

func growWords(words []uint32, addr int) []uint32 {
	for len(words) <= addr {
		words = append(words, 0)
	}

	return words
}

func parseDirective(ident string) DirectiveType {
	if strings.EqualFold(ident, ".CHIP") {
		return DIRECTIVE_CHIP
	} else if strings.EqualFold(ident, ".MICRO") {
		return DIRECTIVE_MICRO
	} else if strings.EqualFold(ident, ".SYNC") {
		return DIRECTIVE_SYNC
	} else if strings.EqualFold(ident, ".CMD") {
		return DIRECTIVE_CMD
	} else if strings.EqualFold(ident, ".ORG") {
		return DIRECTIVE_ORG
	} else if strings.EqualFold(ident, ".FILL") {
		return DIRECTIVE_FILL
	} else if strings.EqualFold(ident, ".END") {
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

func parseLiteral(token *Token, limit uint32) (uint32, error) {
	result, err := encoding.DecodeLiteral(token.Value)

	if err != nil {
		return 0, &InvalidLiteralError{token.Position}
	}

	if result > limit {
		return 0, &OversizedLiteralError{token.Position, limit, result}
	}

	return result, nil
}

// Splits one source line into tokens. Labels are identifiers followed by a
// colon, comments run from ';' to the end of the line.
func tokenize(line string, cursor Cursor) (tokens []Token, errs []error) {
	var builder strings.Builder
	var tokenStart int
	var tokenType TokenType = TOKEN_NONE
	var trailing *Cursor

	flush := func() {
		if builder.Len() > 0 {
			tokens = append(tokens, Token{
				Type: tokenType,
				Position: Cursor{
					Line:     cursor.Line,
					Column:   tokenStart,
					Byte:     cursor.LineByte + int64(tokenStart-1),
					Size:     int64(builder.Len()),
					LineByte: cursor.LineByte,
				},
				Value: builder.String(),
			})
			builder.Reset()
		}

		tokenType = TOKEN_NONE
	}

	for column, char := range line {
		cursor.Column = column + 1

		if tokenType == TOKEN_NONE {
			tokenStart = cursor.Column
		}

		switch {
		// Whitespace
		case unicode.IsSpace(char):
			flush()
			continue

		// Comments
		case char == ';':
			flush()

			if trailing != nil {
				errs = append(errs, &UnexpectedCharacterError{*trailing, ','})
			}

			return

		// Operand Separator
		case char == ',':
			flush()
			position := cursor
			trailing = &position
			continue

		// Label
		case char == ':':
			if tokenType != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			} else {
				tokenType = TOKEN_LABEL
			}

			flush()
			continue

		// Assembler Directives
		case char == '.':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_DIRECTIVE
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Hex Literal (i.e. x2A, no leading zero)
		case char == 'x' || char == 'X':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			}

		// Base 10 Literal (i.e. #42)
		case char == '#':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Numeric Literal
		case unicode.IsDigit(char):
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_LITERAL
			}

		// Underscore'd Identifier
		case char == '_':
			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			} else if tokenType != TOKEN_IDENT {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Identifier
		case unicode.IsLetter(char):
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			}

			if tokenType == TOKEN_NONE {
				tokenType = TOKEN_IDENT
			}

		default:
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}
		}

		trailing = nil
		builder.WriteRune(char)
	}

	flush()

	if trailing != nil {
		errs = append(errs, &UnexpectedCharacterError{*trailing, ','})
	}

	return
}

// Assembles the micro, sync and command tables of up to three chips. When
// symtable is non-nil it receives the source offset and label of every
// command.
func AssembleROMSource(input io.Reader, symtable *SymTable) (result []machine.ROM, errs []error) {
	var chips []*chipTables
	var labelRefs []labelRef
	var section Section = SECTION_NONE

	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1}

	errs = make([]error, 0)

	next := func(line string) {
		cursor.Line++
		cursor.Byte += int64(len(line) + 1)
		cursor.LineByte += int64(len(line) + 1)
	}

	for scanner.Scan() {
		line := scanner.Text()
		cursor.Size = int64(len(line))

		tokens, lineErrs := tokenize(line, cursor)

		// Pass any potential assembler errors if we already had parser errors
		if len(lineErrs) > 0 {
			errs = append(errs, lineErrs...)
			next(line)
			continue
		}

		if len(tokens) == 0 {
			next(line)
			continue
		}

		var tables *chipTables
		var chip = len(chips) - 1

		if chip >= 0 {
			tables = chips[chip]
		}

		// Labels
		// - Bind to the current address of the current section
		if tokens[0].Type == TOKEN_LABEL {
			name := tokens[0].Value

			if tables == nil || section == SECTION_NONE {
				errs = append(
					errs, &MisplacedStatementError{tokens[0].Position, section},
				)
			} else if _, exists := tables.Labels[name]; exists {
				errs = append(
					errs, &RedeclaredLabelError{tokens[0].Position, name},
				)
			} else {
				tables.Labels[name] = label{section, tables.Addr[section]}

				if section == SECTION_CMD && symtable != nil {
					symtable.Labels[SymbolKey(chip, tables.Addr[section])] = name
				}
			}

			tokens = tokens[1:]

			// No need to assemble label-only statements
			if len(tokens) == 0 {
				next(line)
				continue
			}
		}

		keyword := &tokens[0]
		operands := tokens[1:]

		if keyword.Type == TOKEN_DIRECTIVE {
			directive := parseDirective(keyword.Value)

			if directive == DIRECTIVE_END {
				if count := len(operands); count != 0 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
					)
				}

				break
			}

			switch directive {
			// .CHIP
			case DIRECTIVE_CHIP:
				if count := len(operands); count != 0 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
					)

					break
				}

				if len(chips) == machine.MAX_CHIPS {
					errs = append(errs, &OversizedBinaryError{"too many chips"})
					return
				}

				chips = append(chips, &chipTables{Labels: make(map[string]label)})
				section = SECTION_NONE

			// .MICRO .SYNC .CMD
			case DIRECTIVE_MICRO, DIRECTIVE_SYNC, DIRECTIVE_CMD:
				if count := len(operands); count != 0 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
					)

					break
				}

				if tables == nil {
					errs = append(
						errs, &MisplacedStatementError{keyword.Position, section},
					)

					break
				}

				switch directive {
				case DIRECTIVE_MICRO:
					section = SECTION_MICRO
				case DIRECTIVE_SYNC:
					section = SECTION_SYNC
				default:
					section = SECTION_CMD
				}

			// .ORG #
			case DIRECTIVE_ORG:
				if count := len(operands); count != 1 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
					)

					break
				}

				if tables == nil || section == SECTION_NONE {
					errs = append(
						errs, &MisplacedStatementError{keyword.Position, section},
					)

					break
				}

				if operands[0].Type != TOKEN_LITERAL {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[0].Position,
							[]TokenType{TOKEN_LITERAL},
							operands[0].Type,
						},
					)

					break
				}

				literal, err := parseLiteral(&operands[0], uint32(sectionLimit(section)-1))

				if err != nil {
					errs = append(errs, err)
					break
				}

				tables.Addr[section] = int(literal)

			// .FILL #
			case DIRECTIVE_FILL:
				if count := len(operands); count != 1 {
					errs = append(
						errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
					)

					break
				}

				if tables == nil || (section != SECTION_MICRO && section != SECTION_CMD) {
					errs = append(
						errs, &MisplacedStatementError{keyword.Position, section},
					)

					break
				}

				if operands[0].Type != TOKEN_LITERAL {
					errs = append(
						errs,
						&InvalidOperandError{
							operands[0].Position,
							[]TokenType{TOKEN_LITERAL},
							operands[0].Type,
						},
					)

					break
				}

				literal, err := parseLiteral(&operands[0], LIMIT_WORD)

				if err != nil {
					errs = append(errs, err)
				}

				if !tables.putWord(section, literal) {
					errs = append(errs, &OversizedBinaryError{section.String() + " table"})
					return
				}

			default:
				errs = append(
					errs,
					&UnknownIdentifierError{keyword.Position, keyword.Value},
				)
			}

			next(line)
			continue
		}

		if tables == nil || section == SECTION_NONE {
			errs = append(errs, &MisplacedStatementError{keyword.Position, section})
			next(line)
			continue
		}

		switch section {
		// FLAG FLAG ... | NOP
		case SECTION_MICRO:
			word, microErrs := assembleMicro(tokens)
			errs = append(errs, microErrs...)

			if !tables.putWord(section, word) {
				errs = append(errs, &OversizedBinaryError{section.String() + " table"})
				return
			}

		// op, op, op, op, op, op, op, op, op
		case SECTION_SYNC:
			if count := len(tokens); count != machine.SYNC_NWORDS {
				errs = append(
					errs,
					&InvalidNumArgumentsError{
						keyword.Position, machine.SYNC_NWORDS, count,
					},
				)

				break
			}

			base := tables.Addr[section] * machine.SYNC_NWORDS

			if tables.Addr[section] >= LIMIT_SYNC {
				errs = append(errs, &OversizedBinaryError{section.String() + " table"})
				return
			}

			for len(tables.Sync) < base+machine.SYNC_NWORDS {
				tables.Sync = append(tables.Sync, 0)
			}

			for i := range tokens {
				operand := &tokens[i]

				switch operand.Type {
				case TOKEN_LITERAL:
					literal, err := parseLiteral(operand, LIMIT_SYNC_BYTE)

					if err != nil {
						errs = append(errs, err)
					}

					tables.Sync[base+i] = uint8(literal)

				case TOKEN_IDENT:
					labelRefs = append(labelRefs, labelRef{
						Kind:     refMicro,
						Chip:     chip,
						Addr:     base + i,
						Label:    operand.Value,
						Position: operand.Position,
					})

				default:
					errs = append(
						errs,
						&InvalidOperandError{
							operand.Position,
							[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
							operand.Type,
						},
					)
				}
			}

			tables.Addr[section]++

		// CMD a, b, c [, STEP]
		case SECTION_CMD:
			if keyword.Type != TOKEN_IDENT || !strings.EqualFold(keyword.Value, KEYWORD_CMD) {
				errs = append(
					errs,
					&UnknownIdentifierError{keyword.Position, keyword.Value},
				)

				break
			}

			if count := len(operands); count != 3 && count != 4 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 3, count},
				)

				break
			}

			addr := tables.Addr[section]

			if addr >= LIMIT_CMD {
				errs = append(errs, &OversizedBinaryError{section.String() + " table"})
				return
			}

			var word uint32

			for i := 0; i < 3; i++ {
				operand := &operands[i]
				shift := uint(machine.CMD_FIELD_A + 8*i)

				switch operand.Type {
				case TOKEN_LITERAL:
					literal, err := parseLiteral(operand, LIMIT_BYTE)

					if err != nil {
						errs = append(errs, err)
					}

					word |= literal << shift

				case TOKEN_IDENT:
					kind := refSync

					if i == 2 {
						kind = refField
					}

					labelRefs = append(labelRefs, labelRef{
						Kind:     kind,
						Chip:     chip,
						Addr:     addr,
						Shift:    shift,
						Label:    operand.Value,
						Position: operand.Position,
					})

				default:
					errs = append(
						errs,
						&InvalidOperandError{
							operand.Position,
							[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
							operand.Type,
						},
					)
				}
			}

			if len(operands) == 4 {
				if step := &operands[3]; step.Type != TOKEN_IDENT ||
					!strings.EqualFold(step.Value, KEYWORD_STEP) {
					errs = append(
						errs,
						&UnknownIdentifierError{step.Position, step.Value},
					)
				} else {
					word |= machine.CMD_STEP
				}
			}

			if symtable != nil {
				symtable.Symbols[SymbolKey(chip, addr)] = cursor.LineByte
			}

			tables.putWord(section, word)
		}

		next(line)
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
		return
	}

	// Label
	// - Validate and resolve label references
	for _, ref := range labelRefs {
		tables := chips[ref.Chip]
		target, exists := tables.Labels[ref.Label]

		switch {
		case !exists:
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})

		case ref.Kind == refMicro:
			if target.Section != SECTION_MICRO {
				errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
				continue
			}

			// Addresses from 60 up are only reachable through the carry
			// conditional sync bytes, which are written as literals
			if target.Addr >= machine.MICRO_COND {
				errs = append(
					errs,
					&OversizedLabelError{ref.Position, "micro address <60", target.Addr},
				)
				continue
			}

			tables.Sync[ref.Addr] = uint8(target.Addr)

		case target.Section == SECTION_SYNC:
			if ref.Kind == refField && target.Addr >= machine.BRANCH_MIN {
				errs = append(
					errs,
					&OversizedLabelError{
						ref.Position,
						fmt.Sprintf("sync program <%#x", machine.BRANCH_MIN),
						target.Addr,
					},
				)
				continue
			}

			tables.Macro[ref.Addr] |= uint32(target.Addr) << ref.Shift

		case target.Section == SECTION_CMD && ref.Kind == refField:
			if target.Addr < machine.BRANCH_MIN {
				errs = append(
					errs,
					&OversizedLabelError{
						ref.Position,
						fmt.Sprintf("branch target >=%#x", machine.BRANCH_MIN),
						target.Addr,
					},
				)
				continue
			}

			tables.Macro[ref.Addr] |= uint32(target.Addr) << ref.Shift

		default:
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
		}
	}

	result = make([]machine.ROM, 0, len(chips))

	for _, tables := range chips {
		result = append(result, tables.rom())
	}

	return
}

// Combines flag mnemonics into one microinstruction word.
func assembleMicro(tokens []Token) (word uint32, errs []error) {
	for i := range tokens {
		token := &tokens[i]

		if token.Type != TOKEN_IDENT {
			errs = append(
				errs,
				&InvalidOperandError{
					token.Position, []TokenType{TOKEN_IDENT}, token.Type,
				},
			)

			continue
		}

		if strings.EqualFold(token.Value, KEYWORD_NOP) {
			if len(tokens) != 1 {
				errs = append(errs, &ConflictingFlagsError{token.Position, token.Value})
			}

			continue
		}

		mnemonic, ok := machine.LookupMnemonic(token.Value)

		if !ok {
			errs = append(errs, &UnknownIdentifierError{token.Position, token.Value})
			continue
		}

		mask := mnemonic.Mask

		if mask == 0 {
			mask = mnemonic.Bits
		}

		if word&mask != 0 {
			errs = append(errs, &ConflictingFlagsError{token.Position, token.Value})
			continue
		}

		word |= mnemonic.Bits
	}

	return
}

func sectionLimit(section Section) int {
	switch section {
	case SECTION_MICRO:
		return LIMIT_MICRO
	case SECTION_SYNC:
		return LIMIT_SYNC
	}

	return LIMIT_CMD
}

// Writes a word at the current address of a word section and advances it.
// Returns false past the end of the table.
func (tables *chipTables) putWord(section Section, word uint32) bool {
	addr := tables.Addr[section]

	if addr >= sectionLimit(section) {
		return false
	}

	switch section {
	case SECTION_MICRO:
		tables.Micro = growWords(tables.Micro, addr)
		tables.Micro[addr] = word
	case SECTION_CMD:
		tables.Macro = growWords(tables.Macro, addr)
		tables.Macro[addr] = word
	default:
		return false
	}

	tables.Addr[section]++
	return true
}
