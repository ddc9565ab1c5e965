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

package simulator_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/lassandro/gorv32/pkg/assembler"
	"github.com/lassandro/gorv32/pkg/isa"
	"github.com/lassandro/gorv32/pkg/linker"
	"github.com/lassandro/gorv32/pkg/simulator"
)

type testCase struct {
	Name     string
	Source   string
	Keyboard string

	// Steps runs a fixed number of steps instead of running to completion.
	Steps int

	Display   string
	Registers map[uint32]uint32
	Memory    map[uint32]uint32
	PC        uint32
	CheckPC   bool
	ExitCode  uint32
}

func buildSimulator(
	t *testing.T, source, keyboard string, display *bytes.Buffer,
) *simulator.Simulator {
	t.Helper()

	prog, errs := assembler.AssembleString("test.s", source)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	linked, err := linker.Link(prog)

	if err != nil {
		t.Fatal(err)
	}

	var devices simulator.DeviceHandler

	if keyboard != "" {
		devices.Keyboard = bufio.NewReader(strings.NewReader(keyboard))
	}

	if display != nil {
		devices.Display = bufio.NewWriter(display)
	}

	return simulator.New(linked, &devices)
}

func testSimulatorSuccess(t *testing.T, test *testCase) {
	var displayBuf bytes.Buffer

	sim := buildSimulator(t, test.Source, test.Keyboard, &displayBuf)

	if test.Steps > 0 {
		for i := 0; i < test.Steps; i++ {
			if _, err := sim.Step(); err != nil {
				t.Fatal(err)
			}
		}
	} else {
		if _, err := sim.Run(); err != nil {
			t.Fatal(err)
		}
	}

	for number, want := range test.Registers {
		if have := sim.Reg(number); have != want {
			t.Errorf(
				"Register %s mismatch\nwant:%#08x\nhave:%#08x",
				isa.RegisterName(number),
				want,
				have,
			)
		}
	}

	for addr, want := range test.Memory {
		var have uint32
		for b := uint32(0); b < 4; b++ {
			have |= uint32(sim.Peek(addr+b)) << (b * 8)
		}

		if have != want {
			t.Errorf(
				"Memory at %#08x mismatch\nwant:%#08x\nhave:%#08x",
				addr,
				want,
				have,
			)
		}
	}

	if test.CheckPC && sim.PC() != test.PC {
		t.Errorf(
			"PC mismatch\nwant:%#08x\nhave:%#08x", test.PC, sim.PC(),
		)
	}

	if have := displayBuf.String(); have != test.Display {
		t.Errorf(
			"Display mismatch\nwant:%q\nhave:%q", test.Display, have,
		)
	}

	if sim.ExitCode() != test.ExitCode {
		t.Errorf(
			"Exit code mismatch\nwant:%d\nhave:%d",
			test.ExitCode,
			sim.ExitCode(),
		)
	}

	if sim.Reg(0) != 0 {
		t.Error("Register zero must stay zero")
	}
}

func TestArithmeticScenario(t *testing.T) {
	test := testCase{
		Name: "Arithmetic",
		Source: `
			addi x1 x0 5
			addi x2 x1 5
			add x3 x1 x2
			andi x3 x3 8
		`,
		Steps: 4,
		Registers: map[uint32]uint32{
			1: 5,
			2: 10,
			3: 8,
		},
	}

	testSimulatorSuccess(t, &test)
}

func TestLoadStoreScenario(t *testing.T) {
	test := testCase{
		Name: "LoadStore",
		Source: `
			addi x1 x0 100
			sw x1 60(x0)
			lw x2 -40(x1)
		`,
		Steps: 3,
		Registers: map[uint32]uint32{
			1: 100,
			2: 100,
		},
		Memory: map[uint32]uint32{
			60: 100,
		},
	}

	testSimulatorSuccess(t, &test)
}

func TestBranchLoopScenario(t *testing.T) {
	test := testCase{
		Name: "BranchLoop",
		Source: `
			add x2 x2 x3
			addi x1 x0 5
			start: add x2 x2 x3
			addi x3 x3 1
			bne x3 x1 start
		`,
		Registers: map[uint32]uint32{
			1: 5,
			2: 10,
			3: 5,
		},
		PC:      20,
		CheckPC: true,
	}

	testSimulatorSuccess(t, &test)
}

func TestUnsignedCompareScenario(t *testing.T) {
	test := testCase{
		Name: "UnsignedCompare",
		Source: `
			addi x1 x0 -1
			addi x2 x0 1
			bltu x1 x2 done
			addi x3 x0 7
			done: addi x4 x0 1
		`,
		Registers: map[uint32]uint32{
			1: 0xFFFFFFFF,
			3: 7,
			4: 1,
		},
	}

	testSimulatorSuccess(t, &test)
}

func TestEquivChainScenario(t *testing.T) {
	test := testCase{
		Name: "EquivChain",
		Source: `
			.equiv A, 3
			.equiv B, A
			.equiv C, B
			li x1, C
		`,
		Registers: map[uint32]uint32{
			1: 3,
		},
	}

	testSimulatorSuccess(t, &test)
}

func TestPCRelativePairScenario(t *testing.T) {
	test := testCase{
		Name: "PCRelativePair",
		Source: `
			.data
			v: .word 42
			.text
			la x5 v
			lw x6 0(x5)
		`,
		Registers: map[uint32]uint32{
			5: isa.MEMSPACE_STATIC,
			6: 42,
		},
	}

	testSimulatorSuccess(t, &test)
}

func TestLiBoundaries(t *testing.T) {
	test := testCase{
		Name: "LiBoundaries",
		Source: `
			li x1 0x7FFFF800
			li x2 -0x80000000
			li x3 0x12345678
		`,
		Registers: map[uint32]uint32{
			1: 0x7FFFF800,
			2: 0x80000000,
			3: 0x12345678,
		},
	}

	testSimulatorSuccess(t, &test)
}

func TestMultiplyDivide(t *testing.T) {
	tests := []testCase{
		{
			Name: "Mul",
			Source: `
				li x1 7
				li x2 -3
				mul x3 x1 x2
				mulh x4 x1 x2
			`,
			Registers: map[uint32]uint32{
				3: 0xFFFFFFEB, // -21
				4: 0xFFFFFFFF,
			},
		},
		{
			Name: "MulhVariants",
			Source: `
				li x1 -1
				li x2 2
				mulhu x3 x1 x2
				mulhsu x4 x1 x2
			`,
			Registers: map[uint32]uint32{
				3: 1,          // 0xFFFFFFFF * 2 >> 32
				4: 0xFFFFFFFF, // -1 * 2 >> 32
			},
		},
		{
			Name: "DivideByZero",
			Source: `
				li x1 42
				li x2 0
				div x3 x1 x2
				rem x4 x1 x2
				divu x5 x1 x2
				remu x6 x1 x2
			`,
			Registers: map[uint32]uint32{
				3: 0xFFFFFFFF,
				4: 42,
				5: 0xFFFFFFFF,
				6: 42,
			},
		},
		{
			Name: "DivideOverflow",
			Source: `
				li x1 -0x80000000
				li x2 -1
				div x3 x1 x2
				rem x4 x1 x2
			`,
			Registers: map[uint32]uint32{
				3: 0x80000000,
				4: 0,
			},
		},
		{
			Name: "Divide",
			Source: `
				li x1 -7
				li x2 2
				div x3 x1 x2
				rem x4 x1 x2
			`,
			Registers: map[uint32]uint32{
				3: 0xFFFFFFFD, // -3
				4: 0xFFFFFFFF, // -1
			},
		},
	}

	for i := range tests {
		t.Run(tests[i].Name, func(t *testing.T) {
			testSimulatorSuccess(t, &tests[i])
		})
	}
}

func TestJalJalr(t *testing.T) {
	test := testCase{
		Name: "JalJalr",
		Source: `
			main: jal x1 target
			addi x2 x0 2
			target: addi x3 x0 3
			jalr x4 0(x1)
		`,
		Steps: 4,
		Registers: map[uint32]uint32{
			1: 4,  // return address of jal
			2: 2,  // executed after jalr returns
			3: 3,
			4: 16, // return address of jalr
		},
	}

	testSimulatorSuccess(t, &test)
}

func TestEcalls(t *testing.T) {
	tests := []testCase{
		{
			Name: "PrintInt",
			Source: `
				li a0 -42
				li a7 1
				ecall
				li a7 10
				ecall
			`,
			Display: "-42",
		},
		{
			Name: "PrintChar",
			Source: `
				li a0 'A'
				li a7 11
				ecall
				li a7 10
				ecall
			`,
			Display: "A",
		},
		{
			Name: "PrintString",
			Source: `
				.data
				msg: .string "hi"
				.text
				la a0 msg
				li a7 4
				ecall
				li a7 10
				ecall
			`,
			Display: "hi",
		},
		{
			Name: "Exit2",
			Source: `
				li a0 3
				li a7 17
				ecall
			`,
			ExitCode: 3,
		},
		{
			Name: "Sbrk",
			Source: `
				li a0 16
				li a7 9
				ecall
				mv x5 a0
				li a0 16
				li a7 9
				ecall
				mv x6 a0
				li a7 10
				ecall
			`,
			Registers: map[uint32]uint32{
				5: isa.MEMSPACE_HEAP,
				6: isa.MEMSPACE_HEAP + 16,
			},
		},
		{
			Name: "ReadString",
			Source: `
				li a7 18
				ecall
				mv x5 a0
				li a1 0x10000000
				li a2 64
				li a7 8
				ecall
				mv x6 a0
				li a7 10
				ecall
			`,
			Keyboard: "hello\n",
			Registers: map[uint32]uint32{
				5: 5,
				6: 5,
			},
			Memory: map[uint32]uint32{
				0x10000000: 0x6C6C6568, // "hell"
			},
		},
		{
			Name: "FillLineBufferEOF",
			Source: `
				li a7 18
				ecall
				mv x5 a0
				li a7 10
				ecall
			`,
			Registers: map[uint32]uint32{
				5: 0xFFFFFFFF,
			},
		},
	}

	for i := range tests {
		t.Run(tests[i].Name, func(t *testing.T) {
			testSimulatorSuccess(t, &tests[i])
		})
	}
}

func TestRegisterZero(t *testing.T) {
	test := testCase{
		Name: "RegisterZero",
		Source: `
			addi x0 x0 5
			add x0 x0 x0
			li x1 7
			add x2 x0 x0
		`,
		Registers: map[uint32]uint32{
			0: 0,
			2: 0,
		},
	}

	testSimulatorSuccess(t, &test)
}

func TestInitialState(t *testing.T) {
	sim := buildSimulator(t, "addi x1 x0 1", "", nil)

	if sim.Reg(isa.REG_SP) != 0 {
		t.Fatalf("sp not zero\nhave:%#08x", sim.Reg(isa.REG_SP))
	}

	if sim.Reg(isa.REG_GP) != 0 {
		t.Fatalf("gp not zero\nhave:%#08x", sim.Reg(isa.REG_GP))
	}

	if sim.PC() != 0 {
		t.Fatalf("pc not seeded\nhave:%#08x", sim.PC())
	}
}

func TestUndo(t *testing.T) {
	sim := buildSimulator(t, `
		addi x1 x0 5
		sw x1 60(x0)
		addi x1 x1 1
	`, "", nil)

	for i := 0; i < 3; i++ {
		if _, err := sim.Step(); err != nil {
			t.Fatal(err)
		}
	}

	if sim.Reg(1) != 6 {
		t.Fatalf("Setup mismatch\nhave:%d", sim.Reg(1))
	}

	if !sim.Undo() {
		t.Fatal("Undo failed")
	}

	if sim.Reg(1) != 5 || sim.PC() != 8 {
		t.Fatalf(
			"Undo mismatch\nhave:x1=%d pc=%#x", sim.Reg(1), sim.PC(),
		)
	}

	if !sim.Undo() {
		t.Fatal("Undo failed")
	}

	if sim.Peek(60) != 0 || sim.PC() != 4 {
		t.Fatalf(
			"Undo mismatch\nhave:mem=%d pc=%#x", sim.Peek(60), sim.PC(),
		)
	}

	if !sim.Undo() {
		t.Fatal("Undo failed")
	}

	if sim.Reg(1) != 0 || sim.PC() != 0 {
		t.Fatalf(
			"Undo mismatch\nhave:x1=%d pc=%#x", sim.Reg(1), sim.PC(),
		)
	}

	if sim.Undo() {
		t.Fatal("Undo past the beginning must fail")
	}

	// Redo the work; the journal must keep functioning.
	if _, err := sim.Step(); err != nil {
		t.Fatal(err)
	}

	if sim.Reg(1) != 5 {
		t.Fatalf("Re-step mismatch\nhave:%d", sim.Reg(1))
	}
}

func TestUndoExit(t *testing.T) {
	sim := buildSimulator(t, `
		li a7 10
		ecall
	`, "", nil)

	if _, err := sim.Run(); err != nil {
		t.Fatal(err)
	}

	if !sim.Halted() {
		t.Fatal("Program should have halted")
	}

	if !sim.Undo() {
		t.Fatal("Undo failed")
	}

	if sim.Halted() {
		t.Fatal("Undo must rewind the halt")
	}
}

func TestBreakpoints(t *testing.T) {
	sim := buildSimulator(t, `
		addi x1 x0 1
		addi x2 x0 2
		addi x3 x0 3
	`, "", nil)

	sim.Breakpoints[8] = true

	reason, err := sim.Run()

	if err != nil {
		t.Fatal(err)
	}

	if reason != simulator.STOP_BREAKPOINT {
		t.Fatalf("Stop reason mismatch\nhave:%d", reason)
	}

	if sim.PC() != 8 || sim.Reg(3) != 0 {
		t.Fatal("Breakpoint must halt before executing the instruction")
	}

	// Resuming must step past the breakpoint.
	reason, err = sim.Run()

	if err != nil {
		t.Fatal(err)
	}

	if reason != simulator.STOP_HALTED {
		t.Fatalf("Stop reason mismatch\nhave:%d", reason)
	}

	if sim.Reg(3) != 3 {
		t.Fatal("Resume did not execute the breakpoint instruction")
	}
}

func TestAccessFault(t *testing.T) {
	sim := buildSimulator(t, `
		li x1 -4
		lw x2 0(x1)
	`, "", nil)

	_, err := sim.Run()

	if err == nil {
		t.Fatal("Expected an access fault")
	}

	fault, ok := err.(*isa.AccessError)

	if !ok {
		t.Fatalf("Error type mismatch\nhave:%v", err)
	}

	if fault.Addr != 0xFFFFFFFC || fault.Size != 4 {
		t.Fatalf(
			"Fault mismatch\nhave:addr=%#x size=%d", fault.Addr, fault.Size,
		)
	}

	// The faulting step is journaled, so it can be rewound.
	if !sim.Undo() {
		t.Fatal("Undo after fault failed")
	}
}

func TestMisalignedAccess(t *testing.T) {
	test := testCase{
		Name: "Misaligned",
		Source: `
			li x1 0x11223344
			sw x1 61(x0)
			lw x2 61(x0)
			lhu x3 62(x0)
			lb x4 64(x0)
		`,
		Registers: map[uint32]uint32{
			2: 0x11223344,
			3: 0x2233,
			4: 0x11,
		},
	}

	testSimulatorSuccess(t, &test)
}

func TestTermination(t *testing.T) {
	sim := buildSimulator(t, "addi x1 x0 1", "", nil)

	ok, err := sim.Step()

	if err != nil {
		t.Fatal(err)
	}

	if ok {
		t.Fatal("Step off the end of text must report termination")
	}

	ok, err = sim.Step()

	if err != nil {
		t.Fatal(err)
	}

	if ok {
		t.Fatal("Stepping a terminated program must keep reporting false")
	}
}
