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
	"github.com/lassandro/gorv32/pkg/isa"
)

// RelocationEntry is a pending patch to one text instruction: apply
// Relocator at Offset once Label (plus LabelOffset) has an address.
type RelocationEntry struct {
	Relocator   *isa.Relocator
	Offset      int32
	Label       string
	LabelOffset int32
}

// DataRelocationEntry marks four bytes of a data segment to be overwritten
// with the resolved address of Label plus LabelOffset.
type DataRelocationEntry struct {
	Offset      int32
	Label       string
	LabelOffset int32
}

// DebugInfo ties one assembled instruction back to its source line.
type DebugInfo struct {
	LineNo   int
	LineByte int64
	Line     string
}

// Program is the unlinked output of assembling one source unit. Label
// offsets are segment-tagged: text offsets lie below MEMSPACE_CONST,
// rodata offsets in [MEMSPACE_CONST, MEMSPACE_STATIC), data offsets at
// MEMSPACE_STATIC and above.
type Program struct {
	Name string

	Insts     []isa.MachineCode
	DebugInfo []DebugInfo

	Labels       map[string]int32
	GlobalLabels map[string]bool

	// Equivs holds unresolved .equiv right-hand sides until pass two
	// chases them; EquivValues the resolved absolute values afterwards.
	Equivs      map[string]string
	EquivValues map[string]int32

	RodataSegment []byte
	DataSegment   []byte

	RelocationTable       []RelocationEntry
	RodataRelocationTable []DataRelocationEntry
	DataRelocationTable   []DataRelocationEntry

	TextSize   int32
	RodataSize int32
	DataSize   int32

	Warnings []error

	// textCursor is the segment-relative offset instruction parsing is at;
	// pass two sets it before encoding each instruction. Pass one's pseudo
	// expanders read TextSize instead.
	textCursor int32
}

func NewProgram(name string) *Program {
	return &Program{
		Name:         name,
		Labels:       make(map[string]int32),
		GlobalLabels: make(map[string]bool),
		Equivs:       make(map[string]string),
		EquivValues:  make(map[string]int32),
	}
}

// AddLabel declares a label at a segment-tagged offset. The duplicate
// check is explicit: map insertion alone would silently accept the second
// definition.
func (p *Program) AddLabel(name string, offset int32) error {
	if _, exists := p.Labels[name]; exists {
		return &RedeclaredLabelError{Received: name}
	}

	p.Labels[name] = offset
	return nil
}

// Label implements isa.Unit.
func (p *Program) Label(name string) (int32, bool) {
	offset, ok := p.Labels[name]
	return offset, ok
}

// AbsoluteSymbol implements isa.Unit.
func (p *Program) AbsoluteSymbol(name string) (int32, bool) {
	value, ok := p.EquivValues[name]
	return value, ok
}

// TextOffset implements isa.Unit.
func (p *Program) TextOffset() int32 {
	return p.textCursor
}

// RequestRelocation implements isa.Unit.
func (p *Program) RequestRelocation(
	relocator *isa.Relocator, label string, labelOffset int32,
) {
	p.AddRelocation(relocator, p.textCursor, label, labelOffset)
}

// AddRelocation records a pending text patch at an explicit offset.
func (p *Program) AddRelocation(
	relocator *isa.Relocator, offset int32, label string, labelOffset int32,
) {
	p.RelocationTable = append(p.RelocationTable, RelocationEntry{
		Relocator:   relocator,
		Offset:      offset,
		Label:       label,
		LabelOffset: labelOffset,
	})
}
