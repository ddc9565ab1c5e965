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
	"strings"
)

// ABI register names in numeric order. Both these and the x0..x31 spellings
// are accepted wherever a register operand is expected.
var abiNames = []string{
	"zero", "ra", "sp", "gp", "tp",
	"t0", "t1", "t2",
	"s0", "s1",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10", "s11",
	"t3", "t4", "t5", "t6",
}

var registers = make(map[string]uint32, 64)

func init() {
	for i, name := range abiNames {
		registers[name] = uint32(i)
		registers[fmt.Sprintf("x%d", i)] = uint32(i)
	}

	// fp is the conventional alias for s0
	registers["fp"] = 8
}

// RegisterNumber resolves a register operand to its index.
func RegisterNumber(name string) (uint32, bool) {
	number, ok := registers[strings.ToLower(name)]
	return number, ok
}

// RegisterName returns the ABI name for a register index.
func RegisterName(number uint32) string {
	if number < uint32(len(abiNames)) {
		return abiNames[number]
	}
	return fmt.Sprintf("x%d", number)
}

const (
	REG_ZERO uint32 = 0
	REG_RA   uint32 = 1
	REG_SP   uint32 = 2
	REG_GP   uint32 = 3
	REG_A0   uint32 = 10
	REG_A1   uint32 = 11
	REG_A2   uint32 = 12
	REG_A7   uint32 = 17
)
