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
	"bufio"
	"fmt"
	"io"

	"github.com/lassandro/gorv32/pkg/isa"
	"github.com/lassandro/gorv32/pkg/simulator"
)

// Sync installs the debugger's breakpoint list into the simulator and
// registers it as the memory observer for watchpoints.
func (dbg *Debugger) Sync(sim *simulator.Simulator) {
	for addr := range sim.Breakpoints {
		delete(sim.Breakpoints, addr)
	}

	for _, breakpoint := range dbg.Breakpoints {
		sim.Breakpoints[breakpoint.Addr] = true
	}

	if len(dbg.Watchpoints) > 0 {
		sim.Observer = dbg
	} else {
		sim.Observer = nil
	}
}

// Read implements simulator.MemoryObserver.
func (dbg *Debugger) Read(addr uint32, sim *simulator.Simulator) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleRead != nil {
				dbg.HandleRead(addr, dbg, sim)
			}
			break
		}
	}
}

// Write implements simulator.MemoryObserver.
func (dbg *Debugger) Write(addr uint32, sim *simulator.Simulator) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleWrite != nil {
				dbg.HandleWrite(addr, dbg, sim)
			}
			break
		}
	}
}

func (dbg *Debugger) PrintSource(addr uint32, count uint32) {
	if dbg.Source == nil {
		fmt.Println("No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	if offset, exists := dbg.SymTable.Symbols[addr]; exists {
		if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
			panic(err)
		}

		scanner := bufio.NewScanner(dbg.Source)
		scanner.Split(bufio.ScanLines)

		for i := uint32(0); i < count; i++ {
			if !scanner.Scan() {
				break
			}

			line := scanner.Text()

			foundaddr := false
			for lineaddr, linebyte := range dbg.SymTable.Symbols {
				if linebyte == offset {
					fmt.Printf("\033[1m[%#08x]\033[0m ", lineaddr)
					foundaddr = true
					break
				}
			}

			if !foundaddr {
				fmt.Print("\033[1;30m~~~~~~~~~~\033[0m ")
			}

			fmt.Println(line)

			offset += int64(len(line) + 1)
		}

		if err := scanner.Err(); err != nil {
			fmt.Println(err)
		}
	} else {
		fmt.Printf("No instruction found at %#08x\n", addr)
	}
}

func (dbg *Debugger) PrintMem(sim *simulator.Simulator, addr, count uint32) {
	for i := uint32(0); i < count; i++ {
		word := addr + i*4

		if i == 0 {
			fmt.Printf("\033[1m[%#08x]\033[0m ", word)
		} else if i%4 == 0 {
			fmt.Println()
			fmt.Printf("\033[1m[%#08x]\033[0m ", word)
		}

		var result uint32
		for b := uint32(0); b < 4; b++ {
			result |= uint32(sim.Peek(word+b)) << (b * 8)
		}

		if result == 0 {
			fmt.Printf("\033[1;30m%#08x\033[0m ", result)
		} else {
			fmt.Printf("%#08x ", result)
		}
	}

	fmt.Println()
}

func (dbg *Debugger) PrintRegisters(sim *simulator.Simulator) {
	for i := uint32(0); i < 32; i++ {
		fmt.Printf(
			"\033[1m%4s:\033[0m %#08x", isa.RegisterName(i), sim.Reg(i),
		)

		if i%4 == 3 {
			fmt.Println()
		} else {
			fmt.Print("\t")
		}
	}

	fmt.Printf("\033[1m  pc:\033[0m %#08x\n", sim.PC())
}
