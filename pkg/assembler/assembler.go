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

// Package assembler turns RV32IM assembly text into an unlinked Program.
//
// Assembly is two passes. Pass one lexes each line, collects labels and
// directives, expands pseudo-instructions, and queues the surviving true
// assembly language for encoding. Pass two resolves .equiv chains and
// encodes each queued line through the instruction table. Errors are
// accumulated so a unit reports as many problems as possible in one run;
// pass two only runs on a clean pass one.
package assembler

import (
	"io"
	"strings"
)

// Assemble runs both passes over one source unit. The returned Program is
// partial when errors are returned.
func Assemble(name string, input io.Reader) (*Program, []error) {
	prog := NewProgram(name)

	tal, errs := runPassOne(prog, input)

	if len(errs) > 0 {
		return prog, errs
	}

	return prog, runPassTwo(prog, tal)
}

// AssembleString assembles an in-memory source unit.
func AssembleString(name, source string) (*Program, []error) {
	return Assemble(name, strings.NewReader(source))
}
