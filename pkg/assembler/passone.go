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
	"io"
	"strconv"
	"strings"

	"github.com/lassandro/gorv32/pkg/encoding"
	"github.com/lassandro/gorv32/pkg/isa"
)

type Segment uint

const (
	SEGMENT_TEXT Segment = iota
	SEGMENT_RODATA
	SEGMENT_DATA
)

// talLine is one expanded instruction awaiting pass two: the operand
// tokens of a true-assembly-language instruction plus the source line it
// came from.
type talLine struct {
	Debug  DebugInfo
	Tokens []string
}

type passOne struct {
	prog    *Program
	segment Segment
	tal     []talLine
	errs    []error

	lineNo   int
	lineByte int64
	line     string
}

// currentOffset is the segment-tagged offset the next emission lands at.
func (p *passOne) currentOffset() int32 {
	switch p.segment {
	case SEGMENT_TEXT:
		return p.prog.TextSize
	case SEGMENT_RODATA:
		return int32(isa.MEMSPACE_CONST) + p.prog.RodataSize
	default:
		return int32(isa.MEMSPACE_STATIC) + p.prog.DataSize
	}
}

// emitByte appends one byte to the active data segment.
func (p *passOne) emitByte(value byte, position Cursor) bool {
	switch p.segment {
	case SEGMENT_RODATA:
		p.prog.RodataSegment = append(p.prog.RodataSegment, value)
		p.prog.RodataSize++
	case SEGMENT_DATA:
		p.prog.DataSegment = append(p.prog.DataSegment, value)
		p.prog.DataSize++
	default:
		p.errs = append(p.errs, &SegmentError{position, "data"})
		return false
	}

	return true
}

func (p *passOne) emitWord(value uint32, position Cursor) bool {
	for i := uint(0); i < 4; i++ {
		if !p.emitByte(byte(value>>(i*8)), position) {
			return false
		}
	}

	return true
}

// addDataRelocation marks the next four bytes of the active data segment
// for address patching and emits their placeholder.
func (p *passOne) addDataRelocation(
	label string, labelOffset int32, position Cursor,
) {
	entry := DataRelocationEntry{
		Label:       label,
		LabelOffset: labelOffset,
	}

	switch p.segment {
	case SEGMENT_RODATA:
		entry.Offset = p.prog.RodataSize
		p.prog.RodataRelocationTable = append(
			p.prog.RodataRelocationTable, entry,
		)
	case SEGMENT_DATA:
		entry.Offset = p.prog.DataSize
		p.prog.DataRelocationTable = append(p.prog.DataRelocationTable, entry)
	default:
		p.errs = append(p.errs, &SegmentError{position, "data"})
		return
	}

	p.emitWord(0, position)
}

func runPassOne(prog *Program, input io.Reader) ([]talLine, []error) {
	p := &passOne{prog: prog, segment: SEGMENT_TEXT}

	scanner := bufio.NewScanner(input)

	for scanner.Scan() {
		p.lineNo++
		p.line = scanner.Text()

		p.processLine()

		p.lineByte += int64(len(p.line) + 1)
	}

	if err := scanner.Err(); err != nil {
		p.errs = append(p.errs, err)
	}

	return p.tal, p.errs
}

func (p *passOne) processLine() {
	labels, tokens, errs := Lex(p.lineNo, p.lineByte, p.line)
	p.errs = append(p.errs, errs...)

	for _, label := range labels {
		if err := p.prog.AddLabel(label.Value, p.currentOffset()); err != nil {
			if redeclared, ok := err.(*RedeclaredLabelError); ok {
				redeclared.Position = label.Position
			}

			p.errs = append(p.errs, err)
		}
	}

	if len(tokens) == 0 {
		return
	}

	if strings.HasPrefix(tokens[0].Value, ".") {
		p.processDirective(tokens[0], tokens[1:])
		return
	}

	expanded, err := expandPseudo(p, tokens[0].Value, tokens[1:])

	if err != nil {
		p.errs = append(p.errs, &LineError{tokens[0].Position, err})
		return
	}

	if p.segment != SEGMENT_TEXT {
		p.errs = append(
			p.errs, &SegmentError{tokens[0].Position, "instructions"},
		)
		return
	}

	debug := DebugInfo{
		LineNo:   p.lineNo,
		LineByte: p.lineByte,
		Line:     p.line,
	}

	for _, line := range expanded {
		p.tal = append(p.tal, talLine{Debug: debug, Tokens: line})
		p.prog.TextSize += 4
	}
}

func (p *passOne) processDirective(directive Token, operands []Token) {
	name := strings.ToLower(directive.Value)

	switch name {
	case ".text":
		p.segment = SEGMENT_TEXT

	case ".rodata":
		p.segment = SEGMENT_RODATA

	case ".data":
		p.segment = SEGMENT_DATA

	case ".byte":
		for _, operand := range operands {
			value, err := encoding.DecodeImmediate(operand.Value)

			if err != nil {
				p.errs = append(p.errs, &LineError{operand.Position, err})
				continue
			}

			// The low bound is kept as the original tool had it, one short
			// of the two's-complement minimum.
			if value < -127 || value > 255 {
				p.errs = append(p.errs, &DirectiveOperandError{
					operand.Position, name, "value must be in [-127, 255]",
				})
				continue
			}

			p.emitByte(byte(value), operand.Position)
		}

	case ".word":
		for _, operand := range operands {
			if value, err := encoding.DecodeImmediate(operand.Value); err == nil {
				p.emitWord(uint32(value), operand.Position)
				continue
			}

			symbol, offsetPart := isa.SplitSymbol(operand.Value)
			offset := int32(0)

			if offsetPart != "" {
				value, err := encoding.DecodeImmediate(offsetPart)

				if err != nil {
					p.errs = append(p.errs, &LineError{operand.Position, err})
					continue
				}

				offset = value
			}

			p.addDataRelocation(symbol, offset, operand.Position)
		}

	case ".string", ".asciiz":
		if len(operands) != 1 {
			p.errs = append(p.errs, &DirectiveOperandError{
				directive.Position, name, "expected one string operand",
			})
			return
		}

		value, err := strconv.Unquote(operands[0].Value)

		if err != nil {
			p.errs = append(p.errs, &DirectiveOperandError{
				operands[0].Position, name, "invalid string literal",
			})
			return
		}

		for i := 0; i < len(value); i++ {
			if value[i] > 127 {
				p.errs = append(p.errs, &DirectiveOperandError{
					operands[0].Position, name,
					"string contains a non-ASCII byte",
				})
				return
			}
		}

		for i := 0; i < len(value); i++ {
			p.emitByte(value[i], operands[0].Position)
		}

		p.emitByte(0, operands[0].Position)

	case ".space":
		if len(operands) != 1 {
			p.errs = append(p.errs, &DirectiveOperandError{
				directive.Position, name, "expected one size operand",
			})
			return
		}

		size, err := encoding.DecodeImmediate(operands[0].Value)

		if err != nil || size < 0 {
			p.errs = append(p.errs, &DirectiveOperandError{
				operands[0].Position, name, "invalid size",
			})
			return
		}

		for i := int32(0); i < size; i++ {
			if !p.emitByte(0, operands[0].Position) {
				return
			}
		}

	case ".align":
		if len(operands) != 1 {
			p.errs = append(p.errs, &DirectiveOperandError{
				directive.Position, name, "expected one alignment operand",
			})
			return
		}

		power, err := encoding.DecodeImmediate(operands[0].Value)

		if err != nil || power < 0 || power > 8 {
			p.errs = append(p.errs, &DirectiveOperandError{
				operands[0].Position, name, "alignment must be in [0, 8]",
			})
			return
		}

		boundary := int32(1) << uint(power)

		for p.segmentSize()%boundary != 0 {
			if !p.emitByte(0, operands[0].Position) {
				return
			}
		}

	case ".globl", ".global":
		if len(operands) == 0 {
			p.errs = append(p.errs, &DirectiveOperandError{
				directive.Position, name, "expected a label operand",
			})
			return
		}

		for _, operand := range operands {
			p.prog.GlobalLabels[operand.Value] = true
		}

	case ".equiv", ".equ", ".set":
		if len(operands) != 2 {
			p.errs = append(p.errs, &DirectiveOperandError{
				directive.Position, name, "expected a name and a value",
			})
			return
		}

		alias := operands[0].Value

		if _, exists := p.prog.Equivs[alias]; exists && name == ".equiv" {
			p.errs = append(
				p.errs, &EquivRedefinitionError{operands[0].Position, alias},
			)
			return
		}

		p.prog.Equivs[alias] = operands[1].Value

	case ".float", ".double":
		p.prog.Warnings = append(p.prog.Warnings, &FloatUnsupportedWarning{
			directive.Position, name,
		})

	default:
		p.errs = append(p.errs, &UnknownDirectiveError{
			directive.Position, directive.Value,
		})
	}
}

func (p *passOne) segmentSize() int32 {
	switch p.segment {
	case SEGMENT_TEXT:
		return p.prog.TextSize
	case SEGMENT_RODATA:
		return p.prog.RodataSize
	default:
		return p.prog.DataSize
	}
}
