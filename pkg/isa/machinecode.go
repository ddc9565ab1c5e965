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

import (
	"fmt"
)

// Field is an inclusive bit range [Lo, Hi] within a 32-bit instruction word.
type Field struct {
	Lo uint
	Hi uint
}

func (f Field) width() uint {
	return f.Hi - f.Lo + 1
}

func (f Field) mask() uint32 {
	if f.width() >= 32 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << f.width()) - 1
}

var (
	FIELD_OPCODE = Field{0, 6}
	FIELD_RD     = Field{7, 11}
	FIELD_FUNCT3 = Field{12, 14}
	FIELD_RS1    = Field{15, 19}
	FIELD_RS2    = Field{20, 24}
	FIELD_FUNCT7 = Field{25, 31}
	FIELD_SHAMT  = Field{20, 24}

	FIELD_IMM_11_0  = Field{20, 31}
	FIELD_IMM_4_0   = Field{7, 11}
	FIELD_IMM_11_5  = Field{25, 31}
	FIELD_IMM_31_12 = Field{12, 31}

	// B-type immediate splits
	FIELD_IMM_11_B = Field{7, 7}
	FIELD_IMM_4_1  = Field{8, 11}
	FIELD_IMM_10_5 = Field{25, 30}
	FIELD_IMM_12   = Field{31, 31}

	// J-type immediate splits
	FIELD_IMM_19_12 = Field{12, 19}
	FIELD_IMM_11_J  = Field{20, 20}
	FIELD_IMM_10_1  = Field{21, 30}
	FIELD_IMM_20    = Field{31, 31}
)

// MachineCode is one 32-bit instruction word addressed by named bit fields.
type MachineCode struct {
	Value uint32
}

// Length is the instruction size in bytes. Every implemented instruction
// is a full-width word; compressed encodings are not supported.
func (m MachineCode) Length() uint32 {
	return 4
}

func (m MachineCode) Get(f Field) uint32 {
	return (m.Value >> f.Lo) & f.mask()
}

// GetSigned reads a field and sign-extends it from its own width.
func (m MachineCode) GetSigned(f Field) int32 {
	value := m.Get(f)
	shift := 32 - f.width()
	return int32(value<<shift) >> shift
}

// Set writes a field, masking the value to the field width.
func (m *MachineCode) Set(f Field, value uint32) {
	mask := f.mask()
	m.Value &^= mask << f.Lo
	m.Value |= (value & mask) << f.Lo
}

func (m MachineCode) String() string {
	return fmt.Sprintf("%#08x", m.Value)
}

// BranchOffset reconstructs the 13-bit PC-relative offset spread across the
// B-type immediate fields.
func (m MachineCode) BranchOffset() int32 {
	var offset uint32
	offset |= m.Get(FIELD_IMM_4_1) << 1
	offset |= m.Get(FIELD_IMM_10_5) << 5
	offset |= m.Get(FIELD_IMM_11_B) << 11
	offset |= m.Get(FIELD_IMM_12) << 12
	return int32(offset<<19) >> 19
}

// SetBranchOffset encodes a byte offset into the B-type immediate fields.
// The offset must be even and representable in 13 signed bits.
func (m *MachineCode) SetBranchOffset(offset int32) {
	value := uint32(offset)
	m.Set(FIELD_IMM_4_1, value>>1)
	m.Set(FIELD_IMM_10_5, value>>5)
	m.Set(FIELD_IMM_11_B, value>>11)
	m.Set(FIELD_IMM_12, value>>12)
}

// JumpOffset reconstructs the 21-bit PC-relative offset spread across the
// J-type immediate fields.
func (m MachineCode) JumpOffset() int32 {
	var offset uint32
	offset |= m.Get(FIELD_IMM_10_1) << 1
	offset |= m.Get(FIELD_IMM_11_J) << 11
	offset |= m.Get(FIELD_IMM_19_12) << 12
	offset |= m.Get(FIELD_IMM_20) << 20
	return int32(offset<<11) >> 11
}

// SetJumpOffset encodes a byte offset into the J-type immediate fields.
// The offset must be even and representable in 21 signed bits.
func (m *MachineCode) SetJumpOffset(offset int32) {
	value := uint32(offset)
	m.Set(FIELD_IMM_10_1, value>>1)
	m.Set(FIELD_IMM_11_J, value>>11)
	m.Set(FIELD_IMM_19_12, value>>12)
	m.Set(FIELD_IMM_20, value>>20)
}
