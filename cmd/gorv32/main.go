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
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/lassandro/gorv32/pkg/assembler"
	"github.com/lassandro/gorv32/pkg/debugger"
	"github.com/lassandro/gorv32/pkg/linker"
	"github.com/lassandro/gorv32/pkg/simulator"
)

var helpvar bool
var debugvar bool

const usage = "gorv32 [-debug] filename..."

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the program in a debug CLI")
	flag.Parse()
}

func gorv32() int {
	if helpvar {
		fmt.Println(usage)
		return 0
	}

	args := flag.Args()

	if len(args) == 0 {
		log.Println(usage)
		return 1
	}

	var units []*assembler.Program

	failed := false

	for _, filename := range args {
		file, err := os.Open(filename)

		if err != nil {
			log.Println(err)
			return 1
		}

		unit, errs := assembler.Assemble(filepath.Base(filename), file)

		for _, warning := range unit.Warnings {
			log.Printf("%s: warning: %v", filename, warning)
		}

		if len(errs) > 0 {
			printErrors(filename, file, errs)
			failed = true
		}

		file.Close()

		units = append(units, unit)
	}

	if failed {
		return 1
	}

	linked, err := linker.Link(units...)

	if err != nil {
		log.Println(err)
		return 1
	}

	var devices simulator.DeviceHandler
	devices.Keyboard = bufio.NewReader(os.Stdin)
	devices.Display = bufio.NewWriter(os.Stdout)

	sim := simulator.New(linked, &devices)

	var dbg *debugger.Debugger

	if debugvar {
		dbg = &debugger.Debugger{
			HandleBreak: handleBreak,
			HandleRead:  handleRead,
			HandleWrite: handleWrite,
			SymTable:    debugger.NewSymTable(args[0], linked),
		}

		if file, err := os.Open(args[0]); err == nil {
			dbg.Source = file
			defer file.Close()
		}

		c := make(chan os.Signal, 1)
		defer close(c)

		signal.Notify(c, os.Interrupt)
		go func() {
			for range c {
				fmt.Println()
				dbg.Break = true
			}
		}()
	}

	enterRawTerm()
	defer exitRawTerm()

	if debugvar {
		debugREPL(dbg, sim)
	}

	for !shouldexit {
		reason, err := sim.Run()

		if err != nil {
			log.Println(err)
			return 1
		}

		switch reason {
		case simulator.STOP_BREAKPOINT:
			if dbg != nil {
				handleBreak(dbg, sim)
			} else {
				return int(sim.ExitCode())
			}

		case simulator.STOP_HALTED:
			return int(sim.ExitCode())
		}
	}

	return int(sim.ExitCode())
}

func main() {
	os.Exit(gorv32())
}
