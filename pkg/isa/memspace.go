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

// Memory map shared by the assembler, linker, and simulator. Label offsets
// are segment-tagged by which region they fall in, so the regions must stay
// in this order.
const (
	MEMSPACE_TEXT   uint32 = 0x00000000
	MEMSPACE_CONST  uint32 = 0x00010000
	MEMSPACE_STATIC uint32 = 0x10000000
	MEMSPACE_HEAP   uint32 = 0x10040000
	MEMSPACE_STACK  uint32 = 0x7FFFFFF0
)
