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

// Package linker concatenates assembled units into one executable image,
// resolving global symbols across units and applying the queued
// relocations to text and data.
package linker

import (
	"github.com/lassandro/gorv32/pkg/assembler"
	"github.com/lassandro/gorv32/pkg/encoding"
	"github.com/lassandro/gorv32/pkg/isa"
)

// LinkedDebugInfo ties one linked instruction back to the unit and source
// line it came from.
type LinkedDebugInfo struct {
	Unit     string
	Addr     uint32
	LineNo   int
	LineByte int64
	Line     string
}

// LinkedProgram is the fully relocated image handed to the simulator.
type LinkedProgram struct {
	Insts  []isa.MachineCode
	Rodata []byte
	Data   []byte

	StartPC uint32

	// Globals maps every exported label to its absolute address; Labels
	// maps the address of every label, local ones included, for the
	// debugger's benefit.
	Globals map[string]uint32
	Labels  map[uint32]string

	DebugInfo []LinkedDebugInfo
}

type segment uint

const (
	SEGMENT_RODATA segment = iota
	SEGMENT_DATA
)

// deferred is a relocation whose symbol was not local to its unit and must
// resolve against the global table.
type deferred struct {
	apply func(target uint32) error
	label string
	extra int32
}

type linkState struct {
	out      *LinkedProgram
	deferred []deferred
}

// translate turns a unit's segment-tagged label offset into an absolute
// address within the linked image. Link does not call it for .equiv
// aliases, whose values it keeps as they are.
func translate(offset int32, textBase, rodataBase, dataBase uint32) uint32 {
	value := uint32(offset)

	switch {
	case value < isa.MEMSPACE_CONST:
		return textBase + value
	case value < isa.MEMSPACE_STATIC:
		return isa.MEMSPACE_CONST + rodataBase + (value - isa.MEMSPACE_CONST)
	default:
		return isa.MEMSPACE_STATIC + dataBase + (value - isa.MEMSPACE_STATIC)
	}
}

// Link concatenates the units in order and resolves every symbol and
// relocation. Linking stops at the first failure.
func Link(units ...*assembler.Program) (*LinkedProgram, error) {
	out := &LinkedProgram{
		Globals: make(map[string]uint32),
		Labels:  make(map[uint32]string),
	}

	state := &linkState{out: out}

	var textBase, rodataBase, dataBase uint32

	// Per-unit absolute label tables, alias values untouched.
	locals := make([]map[string]uint32, len(units))

	for i, unit := range units {
		locals[i] = make(map[string]uint32, len(unit.Labels))

		for name, offset := range unit.Labels {
			if value, ok := unit.EquivValues[name]; ok {
				locals[i][name] = uint32(value)
				continue
			}

			addr := translate(offset, textBase, rodataBase, dataBase)
			locals[i][name] = addr
			out.Labels[addr] = name
		}

		for name := range unit.GlobalLabels {
			addr, ok := locals[i][name]

			if !ok {
				continue
			}

			if _, exists := out.Globals[name]; exists {
				return nil, &DuplicateGlobalError{name}
			}

			out.Globals[name] = addr
		}

		textBase += uint32(unit.TextSize)
		rodataBase += uint32(unit.RodataSize)
		dataBase += uint32(unit.DataSize)
	}

	// Execution starts at the global main when one exists; a lone local
	// main serves for single-unit programs, and a bare program starts at
	// the top of text.
	if addr, ok := out.Globals["main"]; ok {
		out.StartPC = addr
	} else {
		out.StartPC = isa.MEMSPACE_TEXT

		for i, unit := range units {
			offset, ok := unit.Labels["main"]

			if !ok {
				continue
			}

			if _, alias := unit.EquivValues["main"]; alias {
				continue
			}

			if uint32(offset) >= isa.MEMSPACE_CONST {
				return nil, &MainSegmentError{}
			}

			out.StartPC = locals[i]["main"]
			break
		}
	}

	if addr, ok := out.Globals["main"]; ok {
		if addr >= isa.MEMSPACE_CONST {
			return nil, &MainSegmentError{}
		}
	}

	// Concatenate the images and merge debug info.
	textBase, rodataBase, dataBase = 0, 0, 0

	for i, unit := range units {
		for j, inst := range unit.Insts {
			out.Insts = append(out.Insts, inst)

			var info LinkedDebugInfo
			info.Unit = unit.Name
			info.Addr = textBase + uint32(j)*4

			if j < len(unit.DebugInfo) {
				info.LineNo = unit.DebugInfo[j].LineNo
				info.LineByte = unit.DebugInfo[j].LineByte
				info.Line = unit.DebugInfo[j].Line
			}

			out.DebugInfo = append(out.DebugInfo, info)
		}

		out.Rodata = append(out.Rodata, unit.RodataSegment...)
		out.Data = append(out.Data, unit.DataSegment...)

		if err := state.applyText(unit, locals[i], textBase); err != nil {
			return nil, err
		}

		state.applyData(
			unit.RodataRelocationTable, locals[i], rodataBase, SEGMENT_RODATA,
		)

		state.applyData(
			unit.DataRelocationTable, locals[i], dataBase, SEGMENT_DATA,
		)

		textBase += uint32(unit.TextSize)
		rodataBase += uint32(unit.RodataSize)
		dataBase += uint32(unit.DataSize)
	}

	// Cross-unit pass: everything left resolves globally or fails.
	for _, d := range state.deferred {
		target, ok := out.Globals[d.label]

		if !ok {
			return nil, &isa.UnresolvedSymbolError{Received: d.label}
		}

		if err := d.apply(target + uint32(d.extra)); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (s *linkState) applyText(
	unit *assembler.Program, locals map[string]uint32, textBase uint32,
) error {
	for _, entry := range unit.RelocationTable {
		relocator := entry.Relocator
		pc := textBase + uint32(entry.Offset)
		index := pc / 4

		// Resolve the instruction at patch time: the slice still grows
		// while later units are appended.
		patch := func(target uint32) error {
			return relocator.Rel32(&s.out.Insts[index], pc, target)
		}

		// An empty label is a pure offset relocation; the offset itself is
		// the target.
		if entry.Label == "" {
			if err := patch(uint32(entry.LabelOffset)); err != nil {
				return err
			}

			continue
		}

		if addr, ok := locals[entry.Label]; ok {
			if err := patch(addr + uint32(entry.LabelOffset)); err != nil {
				return err
			}

			continue
		}

		s.deferred = append(s.deferred, deferred{
			apply: patch,
			label: entry.Label,
			extra: entry.LabelOffset,
		})
	}

	return nil
}

func (s *linkState) applyData(
	table []assembler.DataRelocationEntry,
	locals map[string]uint32,
	base uint32,
	seg segment,
) {
	for _, entry := range table {
		offset := int(base) + int(entry.Offset)

		// Resolve the image at patch time: later units may still grow it.
		patch := func(target uint32) error {
			if seg == SEGMENT_RODATA {
				encoding.PutWord(s.out.Rodata, offset, target)
			} else {
				encoding.PutWord(s.out.Data, offset, target)
			}
			return nil
		}

		if addr, ok := locals[entry.Label]; ok {
			patch(addr + uint32(entry.LabelOffset))
			continue
		}

		s.deferred = append(s.deferred, deferred{
			apply: patch,
			label: entry.Label,
			extra: entry.LabelOffset,
		})
	}
}
