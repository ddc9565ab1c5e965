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

package debugger

import (
	"os"

	"github.com/lassandro/gorv32/pkg/linker"
	"github.com/lassandro/gorv32/pkg/simulator"
)

type WatchpointType uint

const (
	ReadWatch WatchpointType = iota
	WriteWatch
	ReadWriteWatch
)

type Watchpoint struct {
	Addr uint32
	Type WatchpointType
}

type Breakpoint struct {
	Addr uint32
}

// SymTable maps instruction addresses back to source byte offsets, and
// addresses to the labels declared at them. The assembler front-end writes
// it as a sidecar file; the run front-end builds its own from the linked
// program for the debug REPL.
type SymTable struct {
	Source  string
	Symbols map[uint32]int64
	Labels  map[uint32]string
}

// NewSymTable flattens a linked program's debug information.
func NewSymTable(source string, prog *linker.LinkedProgram) *SymTable {
	table := &SymTable{
		Source:  source,
		Symbols: make(map[uint32]int64, len(prog.DebugInfo)),
		Labels:  make(map[uint32]string, len(prog.Labels)),
	}

	for _, info := range prog.DebugInfo {
		table.Symbols[info.Addr] = info.LineByte
	}

	for addr, label := range prog.Labels {
		table.Labels[addr] = label
	}

	return table
}

type Debugger struct {
	Break bool

	Breakpoints []Breakpoint
	Watchpoints []Watchpoint

	Source   *os.File
	SymTable *SymTable

	HandleBreak func(*Debugger, *simulator.Simulator)
	HandleRead  func(uint32, *Debugger, *simulator.Simulator)
	HandleWrite func(uint32, *Debugger, *simulator.Simulator)
}
