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

// Unit is the view of a compilation unit an instruction parser needs: label
// and alias lookup, the current text write position, and a way to request a
// relocation for symbols that cannot be resolved within the unit.
type Unit interface {
	// Label returns the segment-tagged byte offset a label was declared at.
	Label(name string) (int32, bool)

	// AbsoluteSymbol returns the value of an .equiv-defined symbol.
	AbsoluteSymbol(name string) (int32, bool)

	// TextOffset is the byte offset of the instruction being parsed.
	TextOffset() int32

	// RequestRelocation records that the instruction at TextOffset needs
	// the given relocator applied once the symbol's address is known.
	RequestRelocation(relocator *Relocator, label string, labelOffset int32)
}

// State is the machine state an instruction implementation operates on.
// Register zero reads as zero and ignores writes; loads and stores are
// byte-addressable and little-endian.
type State interface {
	Reg(number uint32) uint32
	SetReg(number uint32, value uint32)

	PC() uint32
	SetPC(value uint32)

	// Load reads size bytes little-endian, zero-extended into the result.
	Load(addr uint32, size uint32) (uint32, error)

	// Store writes the low size bytes of value little-endian.
	Store(addr uint32, size uint32, value uint32) error

	// Syscall dispatches an environment call on the current register state.
	Syscall() error
}
