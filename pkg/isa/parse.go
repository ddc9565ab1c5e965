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

	"github.com/lassandro/gorv32/pkg/encoding"
)

// ParseFunc fills the operand fields of an already format-filled word from
// the operand tokens of one TAL line.
type ParseFunc func(unit Unit, mnemonic string, args []string, mc *MachineCode) error

// SplitSymbol separates a label argument of the form sym, sym+off or
// sym-off at the first top-level sign. The offset part may be a decimal
// integer or an .equiv-defined absolute symbol.
func SplitSymbol(arg string) (symbol string, offset string) {
	i := strings.IndexAny(arg, "+-")

	if i <= 0 {
		return arg, ""
	}

	return arg[:i], arg[i:]
}

func resolveSymbolOffset(unit Unit, offset string) (int32, error) {
	if offset == "" {
		return 0, nil
	}

	if value, err := encoding.DecodeImmediate(offset); err == nil {
		return value, nil
	}

	name := offset[1:]

	if value, ok := unit.AbsoluteSymbol(name); ok {
		if offset[0] == '-' {
			return -value, nil
		}
		return value, nil
	}

	return 0, &encoding.InvalidNumeralError{Received: offset}
}

// symbolRef is an operand that could not be resolved within the unit and
// must be fixed up by the linker.
type symbolRef struct {
	Symbol string
	Offset int32
}

// getImmediate resolves an immediate operand: a numeral, or a symbol plus
// optional offset looked up in the unit's labels. Unresolved symbols are
// returned as a symbolRef so the caller can request a relocation.
func getImmediate(unit Unit, arg string, min, max int64) (int32, *symbolRef, error) {
	if value, err := encoding.DecodeImmediate(arg); err == nil {
		if v := int64(value); v < min || v > max {
			return 0, nil, &OversizedImmediateError{min, max, v}
		}
		return value, nil, nil
	}

	symbol, offsetPart := SplitSymbol(arg)
	offset, err := resolveSymbolOffset(unit, offsetPart)

	if err != nil {
		return 0, nil, err
	}

	if addr, ok := unit.Label(symbol); ok {
		value := int64(addr) + int64(offset)

		if value < min || value > max {
			return 0, nil, &OversizedImmediateError{min, max, value}
		}

		return int32(value), nil, nil
	}

	if value, ok := unit.AbsoluteSymbol(symbol); ok {
		v := int64(value) + int64(offset)

		if v < min || v > max {
			return 0, nil, &OversizedImmediateError{min, max, v}
		}

		return int32(v), nil, nil
	}

	return 0, &symbolRef{symbol, offset}, nil
}

func getRegister(arg string) (uint32, error) {
	number, ok := RegisterNumber(arg)

	if !ok {
		return 0, &InvalidRegisterError{arg}
	}

	return number, nil
}

// op rd, rs1, rs2
func parseRType(unit Unit, mnemonic string, args []string, mc *MachineCode) error {
	if len(args) != 3 {
		return &InvalidNumArgumentsError{mnemonic, 3, len(args)}
	}

	rd, err := getRegister(args[0])
	if err != nil {
		return err
	}

	rs1, err := getRegister(args[1])
	if err != nil {
		return err
	}

	rs2, err := getRegister(args[2])
	if err != nil {
		return err
	}

	mc.Set(FIELD_RD, rd)
	mc.Set(FIELD_RS1, rs1)
	mc.Set(FIELD_RS2, rs2)
	return nil
}

// op rd, rs1, imm
func parseITypeArith(unit Unit, mnemonic string, args []string, mc *MachineCode) error {
	if len(args) != 3 {
		return &InvalidNumArgumentsError{mnemonic, 3, len(args)}
	}

	rd, err := getRegister(args[0])
	if err != nil {
		return err
	}

	rs1, err := getRegister(args[1])
	if err != nil {
		return err
	}

	mc.Set(FIELD_RD, rd)
	mc.Set(FIELD_RS1, rs1)

	imm, ref, err := getImmediate(unit, args[2], -2048, 2047)
	if err != nil {
		return err
	}

	if ref != nil {
		unit.RequestRelocation(RELOCATOR_IMM_ABS, ref.Symbol, ref.Offset)
		return nil
	}

	mc.Set(FIELD_IMM_11_0, uint32(imm))
	return nil
}

// op rd, rs1, shamt
func parseShift(unit Unit, mnemonic string, args []string, mc *MachineCode) error {
	if len(args) != 3 {
		return &InvalidNumArgumentsError{mnemonic, 3, len(args)}
	}

	rd, err := getRegister(args[0])
	if err != nil {
		return err
	}

	rs1, err := getRegister(args[1])
	if err != nil {
		return err
	}

	shamt, ref, err := getImmediate(unit, args[2], 0, 31)
	if err != nil {
		return err
	}

	if ref != nil {
		return &UnresolvedSymbolError{ref.Symbol}
	}

	mc.Set(FIELD_RD, rd)
	mc.Set(FIELD_RS1, rs1)
	mc.Set(FIELD_SHAMT, uint32(shamt))
	return nil
}

// op rd, imm(rs1)
func parseLoad(unit Unit, mnemonic string, args []string, mc *MachineCode) error {
	if len(args) != 3 {
		return &InvalidNumArgumentsError{mnemonic, 3, len(args)}
	}

	rd, err := getRegister(args[0])
	if err != nil {
		return err
	}

	rs1, err := getRegister(args[2])
	if err != nil {
		return err
	}

	mc.Set(FIELD_RD, rd)
	mc.Set(FIELD_RS1, rs1)

	imm, ref, err := getImmediate(unit, args[1], -2048, 2047)
	if err != nil {
		return err
	}

	if ref != nil {
		unit.RequestRelocation(RELOCATOR_IMM_ABS, ref.Symbol, ref.Offset)
		return nil
	}

	mc.Set(FIELD_IMM_11_0, uint32(imm))
	return nil
}

// op rs2, imm(rs1)
func parseStore(unit Unit, mnemonic string, args []string, mc *MachineCode) error {
	if len(args) != 3 {
		return &InvalidNumArgumentsError{mnemonic, 3, len(args)}
	}

	rs2, err := getRegister(args[0])
	if err != nil {
		return err
	}

	rs1, err := getRegister(args[2])
	if err != nil {
		return err
	}

	mc.Set(FIELD_RS1, rs1)
	mc.Set(FIELD_RS2, rs2)

	imm, ref, err := getImmediate(unit, args[1], -2048, 2047)
	if err != nil {
		return err
	}

	if ref != nil {
		unit.RequestRelocation(RELOCATOR_IMM_ABS_STORE, ref.Symbol, ref.Offset)
		return nil
	}

	mc.Set(FIELD_IMM_4_0, uint32(imm))
	mc.Set(FIELD_IMM_11_5, uint32(imm)>>5)
	return nil
}

// op rs1, rs2, label
func parseBranch(unit Unit, mnemonic string, args []string, mc *MachineCode) error {
	if len(args) != 3 {
		return &InvalidNumArgumentsError{mnemonic, 3, len(args)}
	}

	rs1, err := getRegister(args[0])
	if err != nil {
		return err
	}

	rs2, err := getRegister(args[1])
	if err != nil {
		return err
	}

	mc.Set(FIELD_RS1, rs1)
	mc.Set(FIELD_RS2, rs2)

	var offset int64

	if value, err := encoding.DecodeImmediate(args[2]); err == nil {
		offset = int64(value)
	} else {
		symbol, offsetPart := SplitSymbol(args[2])
		extra, err := resolveSymbolOffset(unit, offsetPart)

		if err != nil {
			return err
		}

		addr, ok := unit.Label(symbol)

		if !ok {
			unit.RequestRelocation(RELOCATOR_BRANCH, symbol, extra)
			return nil
		}

		offset = int64(addr) + int64(extra) - int64(unit.TextOffset())
	}

	if offset < -4096 || offset > 4095 {
		return &OversizedImmediateError{-4096, 4095, offset}
	}

	if offset&0x1 != 0 {
		return &MisalignedOffsetError{offset}
	}

	mc.SetBranchOffset(int32(offset))
	return nil
}

// op rd, imm
func parseUType(unit Unit, mnemonic string, args []string, mc *MachineCode) error {
	if len(args) != 2 {
		return &InvalidNumArgumentsError{mnemonic, 2, len(args)}
	}

	rd, err := getRegister(args[0])
	if err != nil {
		return err
	}

	imm, ref, err := getImmediate(unit, args[1], -524288, 1048575)
	if err != nil {
		return err
	}

	if ref != nil {
		return &UnresolvedSymbolError{ref.Symbol}
	}

	mc.Set(FIELD_RD, rd)
	mc.Set(FIELD_IMM_31_12, uint32(imm))
	return nil
}

// op rd, label
func parseJType(unit Unit, mnemonic string, args []string, mc *MachineCode) error {
	if len(args) != 2 {
		return &InvalidNumArgumentsError{mnemonic, 2, len(args)}
	}

	rd, err := getRegister(args[0])
	if err != nil {
		return err
	}

	mc.Set(FIELD_RD, rd)

	var offset int64

	if value, err := encoding.DecodeImmediate(args[1]); err == nil {
		offset = int64(value)
	} else {
		symbol, offsetPart := SplitSymbol(args[1])
		extra, err := resolveSymbolOffset(unit, offsetPart)

		if err != nil {
			return err
		}

		addr, ok := unit.Label(symbol)

		if !ok {
			unit.RequestRelocation(RELOCATOR_JAL, symbol, extra)
			return nil
		}

		offset = int64(addr) + int64(extra) - int64(unit.TextOffset())
	}

	if offset < -(1<<20) || offset >= (1<<20) {
		return &OversizedImmediateError{-(1 << 20), (1 << 20) - 1, offset}
	}

	if offset&0x1 != 0 {
		return &MisalignedOffsetError{offset}
	}

	mc.SetJumpOffset(int32(offset))
	return nil
}

// ecall takes no operands
func parseECall(unit Unit, mnemonic string, args []string, mc *MachineCode) error {
	if len(args) != 0 {
		return &InvalidNumArgumentsError{mnemonic, 0, len(args)}
	}

	return nil
}
