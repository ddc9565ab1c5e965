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

package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lassandro/gorv32/pkg/debugger"
	"github.com/lassandro/gorv32/pkg/isa"
	"github.com/lassandro/gorv32/pkg/simulator"
)

var lastcmd []string
var shouldexit bool

func decodeAddr(s string) (uint32, error) {
	value, err := strconv.ParseUint(s, 0, 32)
	return uint32(value), err
}

func debugBreak(dbg *debugger.Debugger, sim *simulator.Simulator, args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x####|label]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, err := decodeAddr(args[0])

		if err != nil {
			if dbg.SymTable == nil {
				log.Println(err)
				return
			}

			found := false
			for labelAddr, label := range dbg.SymTable.Labels {
				if label == args[0] {
					addr = labelAddr
					found = true
					break
				}
			}

			if !found {
				log.Printf("Unable to find '%s'\n", args[0])
				return
			}
		}

		exists := false

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Addr == addr {
				exists = true
				break
			}
		}

		if !exists {
			dbg.Breakpoints = append(
				dbg.Breakpoints,
				debugger.Breakpoint{Addr: addr},
			)
			dbg.Sync(sim)

			fmt.Printf("Breakpoint added [%#08x]\n", addr)
		}

	case "l", "ls", "list":
		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf("#%d: %#08x\n", i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Breakpoints)) {
			log.Println("Invalid breakpoint number")
			return
		}

		dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
		dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
		dbg.Sync(sim)
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		dbg.Sync(sim)
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
	}
}

func debugWatch(dbg *debugger.Debugger, sim *simulator.Simulator, args []string) {
	const usage = "watch [add|list|rm|clear]"

	if len(args) == 0 {
		log.Println(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, err := decodeAddr(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Println(usage)
			return
		}

		for _, watchpoint := range dbg.Watchpoints {
			if watchpoint.Addr == addr && watchpoint.Type == wtype {
				return
			}
		}

		dbg.Watchpoints = append(
			dbg.Watchpoints,
			debugger.Watchpoint{Addr: addr, Type: wtype},
		)
		dbg.Sync(sim)

		fmt.Printf("Watchpoint added [%#08x]\n", addr)

	case "l", "ls", "list":
		for i, watchpoint := range dbg.Watchpoints {
			var typename string

			switch watchpoint.Type {
			case debugger.ReadWatch:
				typename = "read"
			case debugger.WriteWatch:
				typename = "write"
			case debugger.ReadWriteWatch:
				typename = "rwrite"
			}

			fmt.Printf("#%d: %#08x %s\n", i, watchpoint.Addr, typename)
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			log.Println("Invalid watchpoint number")
			return
		}

		dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
		dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
		dbg.Sync(sim)
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		dbg.Sync(sim)
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
	}
}

func debugReg(dbg *debugger.Debugger, sim *simulator.Simulator, args []string) {
	const usage = "register [name|pc] [0x####]"

	if len(args) == 0 {
		dbg.PrintRegisters(sim)
		return
	}

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	value, err := decodeAddr(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	if strings.EqualFold(args[0], "pc") {
		sim.SetPC(value)
		fmt.Printf("\033[1mpc:\033[0m %#08x\n", value)
		return
	}

	number, ok := isa.RegisterNumber(args[0])

	if !ok {
		log.Println("Invalid register")
		return
	}

	sim.SetReg(number, value)
	fmt.Printf("\033[1m%s:\033[0m %#08x\n", isa.RegisterName(number), value)
}

func debugSource(dbg *debugger.Debugger, sim *simulator.Simulator, args []string) {
	const usage = "source [0x####|label] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	addr := sim.PC()
	var size uint32 = 3

	if len(args) > 0 {
		isLabel := false
		for labelAddr, label := range dbg.SymTable.Labels {
			if label == args[0] {
				isLabel = true
				addr = labelAddr
				break
			}
		}

		if !isLabel {
			value, err := decodeAddr(args[0])

			if err != nil {
				log.Println(err)
				return
			}

			addr = value
		}
	}

	if len(args) > 1 {
		value, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			log.Println(err)
			return
		}

		size = uint32(value)
	}

	dbg.PrintSource(addr, size)
}

func debugLabels(dbg *debugger.Debugger, args []string) {
	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	keys := make([]uint32, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Printf(
			"\033[1m[%#08x]\033[0m %s\n", addr, dbg.SymTable.Labels[addr],
		)
	}
}

func debugJump(dbg *debugger.Debugger, sim *simulator.Simulator, args []string) {
	const usage = "jump [0x####|label]"

	if len(args) != 1 {
		fmt.Println(usage)
		return
	}

	if addr, err := decodeAddr(args[0]); err == nil {
		sim.SetPC(addr)
		fmt.Printf("\033[1mpc:\033[0m %#08x\n", addr)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	for addr, label := range dbg.SymTable.Labels {
		if label == args[0] {
			sim.SetPC(addr)
			fmt.Printf(
				"\033[1mpc:\033[0m %#08x \033[1;30m(%s)\033[0m\n", addr, label,
			)
			return
		}
	}

	fmt.Printf("Unable to find '%s'\n", args[0])
}

func debugMemory(dbg *debugger.Debugger, sim *simulator.Simulator, args []string) {
	const usage = "memory [0x####] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	addr := sim.PC()
	var size uint32 = 1

	if len(args) > 0 {
		value, err := decodeAddr(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		addr = value
	}

	if len(args) > 1 {
		value, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			log.Println(err)
			return
		}

		size = uint32(value)
	}

	dbg.PrintMem(sim, addr, size)
}

func debugSet(dbg *debugger.Debugger, sim *simulator.Simulator, args []string) {
	const usage = "set [0x####] [0x####]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	addr, err := decodeAddr(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	value, err := decodeAddr(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	for b := uint32(0); b < 4; b++ {
		sim.Poke(addr+b, byte(value>>(b*8)))
	}

	dbg.PrintMem(sim, addr, 1)
}

func debugREPL(dbg *debugger.Debugger, sim *simulator.Simulator) {
	exitRawTerm()
	defer enterRawTerm()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !scanner.Scan() {
			fmt.Println()
			shouldexit = true
			return
		}

		args := strings.Split(strings.TrimSpace(scanner.Text()), " ")

		if len(args[0]) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, sim, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, sim, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, sim, args)

		case "s", "src", "source":
			debugSource(dbg, sim, args)

		case "l", "label", "labels":
			debugLabels(dbg, args)

		case "j", "jmp", "jump":
			debugJump(dbg, sim, args)

		case "m", "mem", "memory":
			debugMemory(dbg, sim, args)

		case "set":
			debugSet(dbg, sim, args)

		case "n", "next", "step":
			ok, err := sim.Step()

			if err != nil {
				log.Println(err)
			}

			dbg.PrintSource(sim.PC(), 1)

			if !ok {
				fmt.Println("Program terminated")
			}

		case "u", "undo":
			if sim.Undo() {
				dbg.PrintSource(sim.PC(), 1)
			} else {
				fmt.Println("Nothing to undo")
			}

		case "c", "continue":
			dbg.Break = false
			return

		case "q", "quit", "exit":
			shouldexit = true
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(dbg *debugger.Debugger, sim *simulator.Simulator) {
	if !dbg.Break {
		fmt.Println()
		fmt.Println("Program stopped")
		dbg.PrintSource(sim.PC(), 8)
	}
	debugREPL(dbg, sim)
}

func handleRead(addr uint32, dbg *debugger.Debugger, sim *simulator.Simulator) {
	fmt.Println()
	fmt.Println("Program stopped")
	dbg.PrintMem(sim, addr, 1)
	debugREPL(dbg, sim)
}

func handleWrite(addr uint32, dbg *debugger.Debugger, sim *simulator.Simulator) {
	fmt.Println()
	fmt.Println("Program stopped")
	dbg.PrintMem(sim, addr, 1)
	debugREPL(dbg, sim)
}
