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

package simulator

import (
	"fmt"
	"strconv"

	"github.com/lassandro/gorv32/pkg/isa"
)

const (
	ECALL_PRINT_INT        uint32 = 1
	ECALL_PRINT_STRING     uint32 = 4
	ECALL_READ_STRING      uint32 = 8
	ECALL_SBRK             uint32 = 9
	ECALL_EXIT             uint32 = 10
	ECALL_PRINT_CHAR       uint32 = 11
	ECALL_EXIT2            uint32 = 17
	ECALL_FILL_LINE_BUFFER uint32 = 18
)

type UnknownSyscallError struct {
	Received uint32
}

func (err *UnknownSyscallError) Error() string {
	return fmt.Sprintf("Unknown environment call %d", err.Received)
}

func (s *Simulator) display(text string) error {
	if s.Devices == nil || s.Devices.Display == nil {
		return nil
	}

	if _, err := s.Devices.Display.WriteString(text); err != nil {
		return err
	}

	return s.Devices.Display.Flush()
}

func (s *Simulator) displayByte(value byte) error {
	if s.Devices == nil || s.Devices.Display == nil {
		return nil
	}

	if err := s.Devices.Display.WriteByte(value); err != nil {
		return err
	}

	return s.Devices.Display.Flush()
}

// fillLineBuffer reads one line from the console, without its terminator,
// into the internal line buffer. Returns -1 at end of input.
func (s *Simulator) fillLineBuffer() int32 {
	if s.Devices == nil || s.Devices.Keyboard == nil {
		return -1
	}

	line, err := s.Devices.Keyboard.ReadBytes('\n')

	if len(line) == 0 && err != nil {
		return -1
	}

	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}

	s.lineBuffer = line
	return int32(len(line))
}

// Syscall implements isa.State, dispatching on register a7.
func (s *Simulator) Syscall() error {
	switch s.Reg(isa.REG_A7) {
	case ECALL_PRINT_INT:
		value := int32(s.Reg(isa.REG_A0))
		return s.display(strconv.FormatInt(int64(value), 10))

	case ECALL_PRINT_STRING:
		addr := s.Reg(isa.REG_A0)

		for {
			value, err := s.Load(addr, 1)

			if err != nil {
				return err
			}

			if value == 0 {
				break
			}

			if err := s.displayByte(byte(value)); err != nil {
				return err
			}

			addr++
		}

	case ECALL_READ_STRING:
		if len(s.lineBuffer) == 0 {
			if s.fillLineBuffer() < 0 {
				s.SetReg(isa.REG_A0, uint32(0xFFFFFFFF))
				return nil
			}
		}

		dest := s.Reg(isa.REG_A1)
		max := s.Reg(isa.REG_A2)

		count := uint32(len(s.lineBuffer))

		if count > max {
			count = max
		}

		for i := uint32(0); i < count; i++ {
			if err := s.Store(dest+i, 1, uint32(s.lineBuffer[i])); err != nil {
				return err
			}
		}

		s.lineBuffer = s.lineBuffer[count:]
		s.SetReg(isa.REG_A0, count)

	case ECALL_SBRK:
		previous := s.heapEnd
		s.heapEnd += s.Reg(isa.REG_A0)
		s.SetReg(isa.REG_A0, previous)

	case ECALL_EXIT:
		s.halted = true
		s.exitCode = 0

	case ECALL_PRINT_CHAR:
		return s.displayByte(byte(s.Reg(isa.REG_A0)))

	case ECALL_EXIT2:
		s.halted = true
		s.exitCode = s.Reg(isa.REG_A0)

	case ECALL_FILL_LINE_BUFFER:
		s.SetReg(isa.REG_A0, uint32(s.fillLineBuffer()))

	default:
		return &UnknownSyscallError{s.Reg(isa.REG_A7)}
	}

	return nil
}
