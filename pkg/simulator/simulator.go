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

// Package simulator interprets a linked RV32IM program one instruction at
// a time, with breakpoints and a bounded undo journal for reversible
// stepping.
package simulator

import (
	"github.com/lassandro/gorv32/pkg/isa"
	"github.com/lassandro/gorv32/pkg/linker"
)

type Simulator struct {
	Devices  *DeviceHandler
	Observer MemoryObserver

	// Breakpoints halt Run before the instruction at the address executes.
	Breakpoints map[uint32]bool

	prog *linker.LinkedProgram

	regs [32]uint32
	pc   uint32
	mem  *memory

	heapEnd  uint32
	halted   bool
	exitCode uint32

	lineBuffer []byte

	journal *journal
	current *diff
}

// New loads the linked image and sets pc to the program's entry; every
// register starts at zero.
func New(prog *linker.LinkedProgram, devices *DeviceHandler) *Simulator {
	s := &Simulator{
		Devices:     devices,
		Breakpoints: make(map[uint32]bool),
		prog:        prog,
		mem:         newMemory(),
		heapEnd:     isa.MEMSPACE_HEAP,
		journal:     newJournal(),
	}

	for i, inst := range prog.Insts {
		addr := uint32(i) * 4

		for b := uint32(0); b < 4; b++ {
			s.mem.storeByte(addr+b, byte(inst.Value>>(b*8)))
		}
	}

	for i, value := range prog.Rodata {
		s.mem.storeByte(isa.MEMSPACE_CONST+uint32(i), value)
	}

	for i, value := range prog.Data {
		s.mem.storeByte(isa.MEMSPACE_STATIC+uint32(i), value)
	}

	s.pc = prog.StartPC

	return s
}

// Program exposes the linked image the simulator was built from.
func (s *Simulator) Program() *linker.LinkedProgram {
	return s.prog
}

func (s *Simulator) Halted() bool {
	return s.halted
}

func (s *Simulator) ExitCode() uint32 {
	return s.exitCode
}

// Reg implements isa.State; register zero always reads zero.
func (s *Simulator) Reg(number uint32) uint32 {
	return s.regs[number&0x1F]
}

// SetReg implements isa.State; writes to register zero are dropped.
func (s *Simulator) SetReg(number uint32, value uint32) {
	number &= 0x1F

	if number == isa.REG_ZERO {
		return
	}

	if s.current != nil {
		s.current.Regs = append(
			s.current.Regs, regDiff{number, s.regs[number]},
		)
	}

	s.regs[number] = value
}

func (s *Simulator) PC() uint32 {
	return s.pc
}

func (s *Simulator) SetPC(value uint32) {
	s.pc = value
}

func (s *Simulator) checkAccess(addr uint32, size uint32) error {
	if addr > isa.MEMSPACE_STACK || isa.MEMSPACE_STACK-addr < size-1 {
		return &isa.AccessError{PC: s.pc, Addr: addr, Size: size}
	}

	return nil
}

// Load implements isa.State: a little-endian read of size bytes,
// zero-extended. Misaligned addresses are permitted.
func (s *Simulator) Load(addr uint32, size uint32) (uint32, error) {
	if err := s.checkAccess(addr, size); err != nil {
		return 0, err
	}

	var value uint32

	for i := uint32(0); i < size; i++ {
		value |= uint32(s.mem.loadByte(addr+i)) << (i * 8)
	}

	if s.Observer != nil {
		s.Observer.Read(addr, s)
	}

	return value, nil
}

// Store implements isa.State: a little-endian write of the low size bytes.
func (s *Simulator) Store(addr uint32, size uint32, value uint32) error {
	if err := s.checkAccess(addr, size); err != nil {
		return err
	}

	for i := uint32(0); i < size; i++ {
		if s.current != nil {
			s.current.Mem = append(
				s.current.Mem, memDiff{addr + i, s.mem.loadByte(addr + i)},
			)
		}

		s.mem.storeByte(addr+i, byte(value>>(i*8)))
	}

	if s.Observer != nil {
		s.Observer.Write(addr, s)
	}

	return nil
}

// Peek reads one byte without journaling or observer callbacks; the
// debugger's memory dump uses it.
func (s *Simulator) Peek(addr uint32) byte {
	return s.mem.loadByte(addr)
}

// Poke writes one byte without journaling or observer callbacks.
func (s *Simulator) Poke(addr uint32, value byte) {
	s.mem.storeByte(addr, value)
}

// inText reports whether the address falls inside the loaded text image.
func (s *Simulator) inText(addr uint32) bool {
	return addr < uint32(len(s.prog.Insts))*4
}

// Step executes one instruction. It returns false once the program has
// terminated: an exit ecall, or the PC leaving the text segment. A
// non-nil error is a runtime fault. A fault raised while executing the
// instruction leaves the step's diff on the journal, so it can be rewound;
// a fetch or decode fault changes nothing and journals nothing.
func (s *Simulator) Step() (bool, error) {
	if s.halted || !s.inText(s.pc) {
		return false, nil
	}

	word, err := s.Load(s.pc, 4)

	if err != nil {
		return false, err
	}

	inst, err := isa.Decode(isa.MachineCode{Value: word})

	if err != nil {
		return false, err
	}

	d := diff{PC: s.pc, HeapEnd: s.heapEnd, Halted: s.halted}
	s.current = &d

	err = inst.Exec(isa.MachineCode{Value: word}, s)

	s.current = nil
	s.journal.push(d)

	if err != nil {
		return false, err
	}

	return !s.halted && s.inText(s.pc), nil
}

// Run steps until the program terminates, a fault is raised, or a
// breakpoint is reached. The breakpoint check is skipped for the very
// first step so Run can resume from a break.
func (s *Simulator) Run() (StopReason, error) {
	first := true

	for {
		if !first && s.Breakpoints[s.pc] {
			return STOP_BREAKPOINT, nil
		}

		first = false

		ok, err := s.Step()

		if err != nil {
			return STOP_FAULT, err
		}

		if !ok {
			return STOP_HALTED, nil
		}
	}
}

// Undo rewinds one step, restoring PC, registers, memory, and the heap
// break. It reports false once the journal is exhausted.
func (s *Simulator) Undo() bool {
	d, ok := s.journal.pop()

	if !ok {
		return false
	}

	for i := len(d.Mem) - 1; i >= 0; i-- {
		s.mem.storeByte(d.Mem[i].Addr, d.Mem[i].Value)
	}

	for i := len(d.Regs) - 1; i >= 0; i-- {
		s.regs[d.Regs[i].Number] = d.Regs[i].Value
	}

	s.pc = d.PC
	s.heapEnd = d.HeapEnd
	s.halted = d.Halted

	return true
}
