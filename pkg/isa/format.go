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

package isa

// FieldEqual constrains one instruction field to a fixed value.
type FieldEqual struct {
	Field Field
	Value uint32
}

// Format is the ordered list of fixed-field constraints that identifies an
// instruction encoding.
type Format []FieldEqual

// Fill returns a MachineCode with every constrained field set to its fixed
// value and all remaining bits zero.
func (f Format) Fill() MachineCode {
	var mc MachineCode
	for _, eq := range f {
		mc.Set(eq.Field, eq.Value)
	}
	return mc
}

// Matches reports whether every constraint holds on the given word.
func (f Format) Matches(mc MachineCode) bool {
	for _, eq := range f {
		if mc.Get(eq.Field) != eq.Value {
			return false
		}
	}
	return true
}

func rtype(opcode, funct3, funct7 uint32) Format {
	return Format{
		{FIELD_OPCODE, opcode},
		{FIELD_FUNCT3, funct3},
		{FIELD_FUNCT7, funct7},
	}
}

func itype(opcode, funct3 uint32) Format {
	return Format{
		{FIELD_OPCODE, opcode},
		{FIELD_FUNCT3, funct3},
	}
}

func utype(opcode uint32) Format {
	return Format{
		{FIELD_OPCODE, opcode},
	}
}
