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

// RelocatorFunc patches an instruction word in place once the symbol it
// refers to has been given an absolute address. pc is the absolute address
// of the instruction being patched.
type RelocatorFunc func(mc *MachineCode, pc uint32, target uint32) error

// Relocator pairs the 32-bit patch function with its 64-bit counterpart.
// The 64-bit side is reserved for RV64 and always fails.
type Relocator struct {
	Name  string
	Rel32 RelocatorFunc
	Rel64 RelocatorFunc
}

func rel64Unimplemented(mc *MachineCode, pc uint32, target uint32) error {
	return &UnimplementedWidthError{}
}

var (
	// RELOCATOR_IMM_ABS writes the low 12 bits of the target address into
	// the I-type immediate.
	RELOCATOR_IMM_ABS = &Relocator{
		Name: "ImmAbs",
		Rel32: func(mc *MachineCode, pc uint32, target uint32) error {
			mc.Set(FIELD_IMM_11_0, target)
			return nil
		},
		Rel64: rel64Unimplemented,
	}

	// RELOCATOR_IMM_ABS_STORE writes an absolute target into the split
	// S-type immediate; the target must fit the 12-bit signed field.
	RELOCATOR_IMM_ABS_STORE = &Relocator{
		Name: "ImmAbsStore",
		Rel32: func(mc *MachineCode, pc uint32, target uint32) error {
			value := int64(int32(target))

			if value < -2048 || value > 2047 {
				return &OversizedImmediateError{-2048, 2047, value}
			}

			mc.Set(FIELD_IMM_4_0, target)
			mc.Set(FIELD_IMM_11_5, target>>5)
			return nil
		},
		Rel64: rel64Unimplemented,
	}

	// RELOCATOR_PCREL_HI writes the high 20 bits of the PC-relative delta,
	// biased by 0x800 to compensate for the sign extension of the paired
	// low half.
	RELOCATOR_PCREL_HI = &Relocator{
		Name: "PCRelHi",
		Rel32: func(mc *MachineCode, pc uint32, target uint32) error {
			mc.Set(FIELD_IMM_31_12, (target-pc+0x800)>>12)
			return nil
		},
		Rel64: rel64Unimplemented,
	}

	// RELOCATOR_PCREL_LO writes the low 12 bits of the delta measured from
	// the paired AUIPC four bytes earlier.
	RELOCATOR_PCREL_LO = &Relocator{
		Name: "PCRelLo",
		Rel32: func(mc *MachineCode, pc uint32, target uint32) error {
			mc.Set(FIELD_IMM_11_0, target-(pc-4))
			return nil
		},
		Rel64: rel64Unimplemented,
	}

	// RELOCATOR_PCREL_LO_STORE is the store form of RELOCATOR_PCREL_LO,
	// split across the S-type immediate fields.
	RELOCATOR_PCREL_LO_STORE = &Relocator{
		Name: "PCRelLoStore",
		Rel32: func(mc *MachineCode, pc uint32, target uint32) error {
			delta := target - (pc - 4)
			mc.Set(FIELD_IMM_4_0, delta)
			mc.Set(FIELD_IMM_11_5, delta>>5)
			return nil
		},
		Rel64: rel64Unimplemented,
	}

	// RELOCATOR_JAL encodes the PC-relative delta into the J-type fields.
	RELOCATOR_JAL = &Relocator{
		Name: "Jal",
		Rel32: func(mc *MachineCode, pc uint32, target uint32) error {
			offset := int64(int32(target - pc))

			if offset < -(1<<20) || offset >= (1<<20) {
				return &OversizedImmediateError{-(1 << 20), (1 << 20) - 1, offset}
			}

			if offset&0x1 != 0 {
				return &MisalignedOffsetError{offset}
			}

			mc.SetJumpOffset(int32(offset))
			return nil
		},
		Rel64: rel64Unimplemented,
	}

	// RELOCATOR_BRANCH encodes the PC-relative delta into the B-type fields.
	RELOCATOR_BRANCH = &Relocator{
		Name: "Branch",
		Rel32: func(mc *MachineCode, pc uint32, target uint32) error {
			offset := int64(int32(target - pc))

			if offset < -4096 || offset > 4095 {
				return &OversizedImmediateError{-4096, 4095, offset}
			}

			if offset&0x1 != 0 {
				return &MisalignedOffsetError{offset}
			}

			mc.SetBranchOffset(int32(offset))
			return nil
		},
		Rel64: rel64Unimplemented,
	}
)
