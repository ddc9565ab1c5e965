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

type InvalidNumArgumentsError struct {
	Mnemonic string
	Required int
	Received int
}

func (err *InvalidNumArgumentsError) Error() string {
	return fmt.Sprintf(
		"Invalid number of arguments for '%s'\n\twant:%d\n\thave:%d",
		err.Mnemonic,
		err.Required,
		err.Received,
	)
}

type InvalidRegisterError struct {
	Received string
}

func (err *InvalidRegisterError) Error() string {
	return fmt.Sprintf("Invalid register identifier '%s'", err.Received)
}

type OversizedImmediateError struct {
	Min      int64
	Max      int64
	Received int64
}

func (err *OversizedImmediateError) Error() string {
	return fmt.Sprintf(
		"Immediate exceeds allowed range\n\twant:[%d, %d]\n\thave:%d",
		err.Min,
		err.Max,
		err.Received,
	)
}

type MisalignedOffsetError struct {
	Received int64
}

func (err *MisalignedOffsetError) Error() string {
	return fmt.Sprintf("Branch target offset %d is odd", err.Received)
}

type UnresolvedSymbolError struct {
	Received string
}

func (err *UnresolvedSymbolError) Error() string {
	return fmt.Sprintf("label %s used but not defined", err.Received)
}

type UndecodableInstructionError struct {
	Word MachineCode
}

func (err *UndecodableInstructionError) Error() string {
	return fmt.Sprintf("Cannot decode instruction word %v", err.Word)
}

type UnimplementedWidthError struct{}

func (err *UnimplementedWidthError) Error() string {
	return "64-bit relocation is not implemented"
}

// AccessError is a runtime memory fault: a load or store outside the
// simulated address space.
type AccessError struct {
	PC   uint32
	Addr uint32
	Size uint32
}

func (err *AccessError) Error() string {
	return fmt.Sprintf(
		"Memory access fault at pc %#08x\n\taddr:%#08x\n\tsize:%d",
		err.PC,
		err.Addr,
		err.Size,
	)
}
