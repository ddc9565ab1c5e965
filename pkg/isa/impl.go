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
	"math"

	"github.com/lassandro/gorv32/pkg/encoding"
)

// ExecFunc applies one instruction to the machine state, including the PC
// update.
type ExecFunc func(mc MachineCode, s State) error

// compareUnsigned flips the sign bit of both operands so a signed compare
// yields the unsigned ordering.
func compareUnsigned(a, b uint32) int {
	x := int32(a ^ 0x80000000)
	y := int32(b ^ 0x80000000)

	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// regOp builds the implementation of a register-register instruction from
// its arithmetic kernel.
func regOp(kernel func(a, b uint32) uint32) ExecFunc {
	return func(mc MachineCode, s State) error {
		a := s.Reg(mc.Get(FIELD_RS1))
		b := s.Reg(mc.Get(FIELD_RS2))
		s.SetReg(mc.Get(FIELD_RD), kernel(a, b))
		s.SetPC(s.PC() + mc.Length())
		return nil
	}
}

// immOp builds the implementation of an immediate-arithmetic instruction
// from its kernel; the immediate arrives sign-extended.
func immOp(kernel func(a uint32, imm int32) uint32) ExecFunc {
	return func(mc MachineCode, s State) error {
		a := s.Reg(mc.Get(FIELD_RS1))
		imm := mc.GetSigned(FIELD_IMM_11_0)
		s.SetReg(mc.Get(FIELD_RD), kernel(a, imm))
		s.SetPC(s.PC() + mc.Length())
		return nil
	}
}

// shiftOp reads the shift amount from the SHAMT field.
func shiftOp(kernel func(a uint32, shamt uint32) uint32) ExecFunc {
	return func(mc MachineCode, s State) error {
		a := s.Reg(mc.Get(FIELD_RS1))
		s.SetReg(mc.Get(FIELD_RD), kernel(a, mc.Get(FIELD_SHAMT)))
		s.SetPC(s.PC() + mc.Length())
		return nil
	}
}

// loadOp reads size bytes at rs1+imm and extends them into rd.
func loadOp(size uint32, signed bool) ExecFunc {
	return func(mc MachineCode, s State) error {
		addr := s.Reg(mc.Get(FIELD_RS1)) + uint32(mc.GetSigned(FIELD_IMM_11_0))
		value, err := s.Load(addr, size)

		if err != nil {
			return err
		}

		if signed {
			value = encoding.SignExtend(value, uint(size)*8)
		}

		s.SetReg(mc.Get(FIELD_RD), value)
		s.SetPC(s.PC() + mc.Length())
		return nil
	}
}

// storeOp writes the low size bytes of rs2 at rs1+imm.
func storeOp(size uint32) ExecFunc {
	return func(mc MachineCode, s State) error {
		var imm uint32
		imm |= mc.Get(FIELD_IMM_4_0)
		imm |= mc.Get(FIELD_IMM_11_5) << 5
		imm = encoding.SignExtend(imm, 12)

		addr := s.Reg(mc.Get(FIELD_RS1)) + imm

		if err := s.Store(addr, size, s.Reg(mc.Get(FIELD_RS2))); err != nil {
			return err
		}

		s.SetPC(s.PC() + mc.Length())
		return nil
	}
}

// branchOp jumps by the encoded offset when the predicate holds.
func branchOp(predicate func(a, b uint32) bool) ExecFunc {
	return func(mc MachineCode, s State) error {
		a := s.Reg(mc.Get(FIELD_RS1))
		b := s.Reg(mc.Get(FIELD_RS2))

		if predicate(a, b) {
			s.SetPC(s.PC() + uint32(mc.BranchOffset()))
		} else {
			s.SetPC(s.PC() + mc.Length())
		}

		return nil
	}
}

func execLui(mc MachineCode, s State) error {
	s.SetReg(mc.Get(FIELD_RD), mc.Get(FIELD_IMM_31_12)<<12)
	s.SetPC(s.PC() + mc.Length())
	return nil
}

func execAuipc(mc MachineCode, s State) error {
	s.SetReg(mc.Get(FIELD_RD), s.PC()+(mc.Get(FIELD_IMM_31_12)<<12))
	s.SetPC(s.PC() + mc.Length())
	return nil
}

func execJal(mc MachineCode, s State) error {
	s.SetReg(mc.Get(FIELD_RD), s.PC()+mc.Length())
	s.SetPC(s.PC() + uint32(mc.JumpOffset()))
	return nil
}

func execJalr(mc MachineCode, s State) error {
	target := s.Reg(mc.Get(FIELD_RS1)) + uint32(mc.GetSigned(FIELD_IMM_11_0))
	s.SetReg(mc.Get(FIELD_RD), s.PC()+mc.Length())
	s.SetPC(target &^ 1)
	return nil
}

func execECall(mc MachineCode, s State) error {
	s.SetPC(s.PC() + mc.Length())
	return s.Syscall()
}

// RV32M kernels. Division by zero and signed overflow follow the ISA's
// defined results rather than trapping.

func mul(a, b uint32) uint32 {
	return a * b
}

func mulh(a, b uint32) uint32 {
	return uint32((int64(int32(a)) * int64(int32(b))) >> 32)
}

func mulhsu(a, b uint32) uint32 {
	return uint32((int64(int32(a)) * int64(b)) >> 32)
}

func mulhu(a, b uint32) uint32 {
	return uint32((uint64(a) * uint64(b)) >> 32)
}

func div(a, b uint32) uint32 {
	if b == 0 {
		return 0xFFFFFFFF
	}

	if int32(a) == math.MinInt32 && int32(b) == -1 {
		return a
	}

	return uint32(int32(a) / int32(b))
}

func divu(a, b uint32) uint32 {
	if b == 0 {
		return 0xFFFFFFFF
	}

	return a / b
}

func rem(a, b uint32) uint32 {
	if b == 0 {
		return a
	}

	if int32(a) == math.MinInt32 && int32(b) == -1 {
		return 0
	}

	return uint32(int32(a) % int32(b))
}

func remu(a, b uint32) uint32 {
	if b == 0 {
		return a
	}

	return a % b
}
