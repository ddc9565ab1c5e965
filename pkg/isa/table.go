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
	"strings"
)

// Instruction declares one RV32IM opcode: its fixed encoding bits, the
// parser that fills its operand fields from assembly tokens, and the
// implementation that applies it to machine state.
type Instruction struct {
	Name   string
	Format Format
	Parse  ParseFunc
	Exec   ExecFunc
}

const (
	OP_LUI    uint32 = 0b0110111
	OP_AUIPC  uint32 = 0b0010111
	OP_JAL    uint32 = 0b1101111
	OP_JALR   uint32 = 0b1100111
	OP_BRANCH uint32 = 0b1100011
	OP_LOAD   uint32 = 0b0000011
	OP_STORE  uint32 = 0b0100011
	OP_IMM    uint32 = 0b0010011
	OP_REG    uint32 = 0b0110011
	OP_SYSTEM uint32 = 0b1110011
)

// Instructions is the full RV32IM table in opcode order. Decoding scans it
// for the unique format a word satisfies; assembly looks entries up by
// lowercased mnemonic.
var Instructions = []*Instruction{
	{"lui", utype(OP_LUI), parseUType, execLui},
	{"auipc", utype(OP_AUIPC), parseUType, execAuipc},

	{"jal", utype(OP_JAL), parseJType, execJal},
	{"jalr", itype(OP_JALR, 0x0), parseLoad, execJalr},

	{"beq", itype(OP_BRANCH, 0x0), parseBranch,
		branchOp(func(a, b uint32) bool { return a == b })},
	{"bne", itype(OP_BRANCH, 0x1), parseBranch,
		branchOp(func(a, b uint32) bool { return a != b })},
	{"blt", itype(OP_BRANCH, 0x4), parseBranch,
		branchOp(func(a, b uint32) bool { return int32(a) < int32(b) })},
	{"bge", itype(OP_BRANCH, 0x5), parseBranch,
		branchOp(func(a, b uint32) bool { return int32(a) >= int32(b) })},
	{"bltu", itype(OP_BRANCH, 0x6), parseBranch,
		branchOp(func(a, b uint32) bool { return compareUnsigned(a, b) < 0 })},
	{"bgeu", itype(OP_BRANCH, 0x7), parseBranch,
		branchOp(func(a, b uint32) bool { return compareUnsigned(a, b) >= 0 })},

	{"lb", itype(OP_LOAD, 0x0), parseLoad, loadOp(1, true)},
	{"lh", itype(OP_LOAD, 0x1), parseLoad, loadOp(2, true)},
	{"lw", itype(OP_LOAD, 0x2), parseLoad, loadOp(4, false)},
	{"lbu", itype(OP_LOAD, 0x4), parseLoad, loadOp(1, false)},
	{"lhu", itype(OP_LOAD, 0x5), parseLoad, loadOp(2, false)},

	{"sb", itype(OP_STORE, 0x0), parseStore, storeOp(1)},
	{"sh", itype(OP_STORE, 0x1), parseStore, storeOp(2)},
	{"sw", itype(OP_STORE, 0x2), parseStore, storeOp(4)},

	{"addi", itype(OP_IMM, 0x0), parseITypeArith,
		immOp(func(a uint32, imm int32) uint32 { return a + uint32(imm) })},
	{"slti", itype(OP_IMM, 0x2), parseITypeArith,
		immOp(func(a uint32, imm int32) uint32 {
			if int32(a) < imm {
				return 1
			}
			return 0
		})},
	{"sltiu", itype(OP_IMM, 0x3), parseITypeArith,
		immOp(func(a uint32, imm int32) uint32 {
			if compareUnsigned(a, uint32(imm)) < 0 {
				return 1
			}
			return 0
		})},
	{"xori", itype(OP_IMM, 0x4), parseITypeArith,
		immOp(func(a uint32, imm int32) uint32 { return a ^ uint32(imm) })},
	{"ori", itype(OP_IMM, 0x6), parseITypeArith,
		immOp(func(a uint32, imm int32) uint32 { return a | uint32(imm) })},
	{"andi", itype(OP_IMM, 0x7), parseITypeArith,
		immOp(func(a uint32, imm int32) uint32 { return a & uint32(imm) })},

	{"slli", rtype(OP_IMM, 0x1, 0x00), parseShift,
		shiftOp(func(a, shamt uint32) uint32 { return a << shamt })},
	{"srli", rtype(OP_IMM, 0x5, 0x00), parseShift,
		shiftOp(func(a, shamt uint32) uint32 { return a >> shamt })},
	{"srai", rtype(OP_IMM, 0x5, 0x20), parseShift,
		shiftOp(func(a, shamt uint32) uint32 {
			return uint32(int32(a) >> shamt)
		})},

	{"add", rtype(OP_REG, 0x0, 0x00), parseRType,
		regOp(func(a, b uint32) uint32 { return a + b })},
	{"sub", rtype(OP_REG, 0x0, 0x20), parseRType,
		regOp(func(a, b uint32) uint32 { return a - b })},
	{"sll", rtype(OP_REG, 0x1, 0x00), parseRType,
		regOp(func(a, b uint32) uint32 { return a << (b & 0x1F) })},
	{"slt", rtype(OP_REG, 0x2, 0x00), parseRType,
		regOp(func(a, b uint32) uint32 {
			if int32(a) < int32(b) {
				return 1
			}
			return 0
		})},
	{"sltu", rtype(OP_REG, 0x3, 0x00), parseRType,
		regOp(func(a, b uint32) uint32 {
			if compareUnsigned(a, b) < 0 {
				return 1
			}
			return 0
		})},
	{"xor", rtype(OP_REG, 0x4, 0x00), parseRType,
		regOp(func(a, b uint32) uint32 { return a ^ b })},
	{"srl", rtype(OP_REG, 0x5, 0x00), parseRType,
		regOp(func(a, b uint32) uint32 { return a >> (b & 0x1F) })},
	{"sra", rtype(OP_REG, 0x5, 0x20), parseRType,
		regOp(func(a, b uint32) uint32 {
			return uint32(int32(a) >> (b & 0x1F))
		})},
	{"or", rtype(OP_REG, 0x6, 0x00), parseRType,
		regOp(func(a, b uint32) uint32 { return a | b })},
	{"and", rtype(OP_REG, 0x7, 0x00), parseRType,
		regOp(func(a, b uint32) uint32 { return a & b })},

	{"mul", rtype(OP_REG, 0x0, 0x01), parseRType, regOp(mul)},
	{"mulh", rtype(OP_REG, 0x1, 0x01), parseRType, regOp(mulh)},
	{"mulhsu", rtype(OP_REG, 0x2, 0x01), parseRType, regOp(mulhsu)},
	{"mulhu", rtype(OP_REG, 0x3, 0x01), parseRType, regOp(mulhu)},
	{"div", rtype(OP_REG, 0x4, 0x01), parseRType, regOp(div)},
	{"divu", rtype(OP_REG, 0x5, 0x01), parseRType, regOp(divu)},
	{"rem", rtype(OP_REG, 0x6, 0x01), parseRType, regOp(rem)},
	{"remu", rtype(OP_REG, 0x7, 0x01), parseRType, regOp(remu)},

	{"ecall", Format{
		{FIELD_OPCODE, OP_SYSTEM},
		{FIELD_FUNCT3, 0x0},
		{FIELD_IMM_11_0, 0x0},
	}, parseECall, execECall},
}

var mnemonics = make(map[string]*Instruction, len(Instructions))

func init() {
	for _, inst := range Instructions {
		mnemonics[inst.Name] = inst
	}
}

// Lookup finds an instruction by mnemonic, case-insensitively.
func Lookup(mnemonic string) (*Instruction, bool) {
	inst, ok := mnemonics[strings.ToLower(mnemonic)]
	return inst, ok
}

// Decode finds the instruction whose format the word satisfies.
func Decode(mc MachineCode) (*Instruction, error) {
	for _, inst := range Instructions {
		if inst.Format.Matches(mc) {
			return inst, nil
		}
	}

	return nil, &UndecodableInstructionError{mc}
}
