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

package assembler_test

import (
	"strings"
	"testing"

	"github.com/lassandro/gorv32/pkg/assembler"
)

type testCase struct {
	Name   string
	Input  string
	Text   []uint32
	Rodata []byte
	Data   []byte
	Labels map[string]int32
}

type failCase struct {
	Name  string
	Input string
	Error string
}

func testAssemblerSuccess(t *testing.T, test *testCase) {
	prog, errs := assembler.AssembleString(test.Name, test.Input)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	if test.Text != nil {
		if len(prog.Insts) != len(test.Text) {
			t.Fatalf(
				"Instruction count mismatch\nwant:%d\nhave:%d",
				len(test.Text),
				len(prog.Insts),
			)
		}

		for i, want := range test.Text {
			if have := prog.Insts[i].Value; have != want {
				t.Fatalf(
					"Instruction encoding mismatch at %d\n"+
						"want:%#08x\nhave:%#08x",
					i,
					want,
					have,
				)
			}
		}
	}

	if test.Rodata != nil {
		if len(prog.RodataSegment) != len(test.Rodata) {
			t.Fatalf(
				"Rodata size mismatch\nwant:%d\nhave:%d",
				len(test.Rodata),
				len(prog.RodataSegment),
			)
		}

		for i, want := range test.Rodata {
			if have := prog.RodataSegment[i]; have != want {
				t.Fatalf(
					"Rodata mismatch at %d\nwant:%#02x\nhave:%#02x",
					i,
					want,
					have,
				)
			}
		}
	}

	if test.Data != nil {
		if len(prog.DataSegment) != len(test.Data) {
			t.Fatalf(
				"Data size mismatch\nwant:%d\nhave:%d",
				len(test.Data),
				len(prog.DataSegment),
			)
		}

		for i, want := range test.Data {
			if have := prog.DataSegment[i]; have != want {
				t.Fatalf(
					"Data mismatch at %d\nwant:%#02x\nhave:%#02x",
					i,
					want,
					have,
				)
			}
		}
	}

	for name, want := range test.Labels {
		have, exists := prog.Labels[name]

		if !exists {
			t.Fatalf("Missing label '%s'", name)
		}

		if have != want {
			t.Fatalf(
				"Label '%s' mismatch\nwant:%#x\nhave:%#x", name, want, have,
			)
		}
	}

	if prog.TextSize != int32(len(prog.Insts))*4 {
		t.Fatalf(
			"Text size out of sync\nwant:%d\nhave:%d",
			len(prog.Insts)*4,
			prog.TextSize,
		)
	}

	if len(prog.Insts) != len(prog.DebugInfo) {
		t.Fatalf(
			"Debug info out of sync\nwant:%d\nhave:%d",
			len(prog.Insts),
			len(prog.DebugInfo),
		)
	}
}

func testAssemblerFailure(t *testing.T, test *failCase) {
	_, errs := assembler.AssembleString(test.Name, test.Input)

	if len(errs) == 0 {
		t.Fatal("Expected assembly to fail")
	}

	for _, err := range errs {
		if strings.Contains(err.Error(), test.Error) {
			return
		}
	}

	t.Fatalf(
		"Error mismatch\nwant:%s\nhave:%v",
		test.Error,
		errs[0],
	)
}

func TestArithmetic(t *testing.T) {
	tests := []testCase{
		{
			Name: "AddImmediate",
			Input: `
				addi x1 x0 5
				addi x2 x1 5
				add x3 x1 x2
				andi x3 x3 8
			`,
			Text: []uint32{
				0x00500093,
				0x00508113,
				0x002081B3,
				0x0081F193,
			},
		},
		{
			Name:  "AddCommas",
			Input: "addi x1, x0, 5",
			Text:  []uint32{0x00500093},
		},
		{
			Name:  "AbiNames",
			Input: "addi ra, zero, 5",
			Text:  []uint32{0x00500093},
		},
		{
			Name:  "Sub",
			Input: "sub x3 x1 x2",
			Text:  []uint32{0x402081B3},
		},
		{
			Name:  "NegativeImmediate",
			Input: "addi x1 x0 -1",
			Text:  []uint32{0xFFF00093},
		},
		{
			Name:  "Lui",
			Input: "lui x5 0x12345",
			Text:  []uint32{0x123452B7},
		},
		{
			Name:  "ShiftImmediate",
			Input: "srai x1 x2 4",
			Text:  []uint32{0x40415093},
		},
		{
			Name:  "Multiply",
			Input: "mul x1 x2 x3",
			Text:  []uint32{0x023100B3},
		},
		{
			Name:  "CharacterImmediate",
			Input: "addi x1 x0 'a'",
			Text:  []uint32{0x06100093},
		},
	}

	for i := range tests {
		t.Run(tests[i].Name, func(t *testing.T) {
			testAssemblerSuccess(t, &tests[i])
		})
	}
}

func TestLoadStore(t *testing.T) {
	tests := []testCase{
		{
			Name: "StoreLoad",
			Input: `
				addi x1 x0 100
				sw x1 60(x0)
				lw x2 -40(x1)
			`,
			Text: []uint32{
				0x06400093,
				0x02102E23,
				0xFD80A103,
			},
		},
		{
			Name:  "LoadByte",
			Input: "lb x5 0(x6)",
			Text:  []uint32{0x00030283},
		},
		{
			Name:  "StoreHalf",
			Input: "sh x5 2(x6)",
			Text:  []uint32{0x00531123},
		},
	}

	for i := range tests {
		t.Run(tests[i].Name, func(t *testing.T) {
			testAssemblerSuccess(t, &tests[i])
		})
	}
}

func TestBranches(t *testing.T) {
	tests := []testCase{
		{
			Name: "BackwardBranch",
			Input: `
				add x2 x2 x3
				addi x1 x0 5
				start: add x2 x2 x3
				addi x3 x3 1
				bne x3 x1 start
			`,
			Text: []uint32{
				0x00310133,
				0x00500093,
				0x00310133,
				0x00118193,
				0xFE119CE3,
			},
			Labels: map[string]int32{"start": 8},
		},
		{
			Name: "ForwardBranch",
			Input: `
				beq x0 x0 done
				addi x1 x0 1
				done: addi x2 x0 2
			`,
			Text: []uint32{
				0x00000463,
				0x00100093,
				0x00200113,
			},
		},
	}

	for i := range tests {
		t.Run(tests[i].Name, func(t *testing.T) {
			testAssemblerSuccess(t, &tests[i])
		})
	}
}

func TestPseudoInstructions(t *testing.T) {
	tests := []testCase{
		{
			Name:  "LiSmall",
			Input: "li x1 5",
			Text:  []uint32{0x00500093},
		},
		{
			Name:  "LiLarge",
			Input: "li x1 0x12345678",
			Text: []uint32{
				0x123450B7, // lui x1, 0x12345
				0x67808093, // addi x1, x1, 0x678
			},
		},
		{
			Name:  "LiHighBoundary",
			Input: "li x1 0x7FFFF800",
			Text: []uint32{
				0x800000B7, // lui x1, 0x80000
				0x80008093, // addi x1, x1, -2048
			},
		},
		{
			Name:  "LiIntMin",
			Input: "li x1 -0x80000000",
			Text: []uint32{
				0x800000B7, // lui x1, 0x80000
				0x00008093, // addi x1, x1, 0
			},
		},
		{
			Name:  "Mv",
			Input: "mv x1 x2",
			Text:  []uint32{0x00010093},
		},
		{
			Name:  "Not",
			Input: "not x1 x2",
			Text:  []uint32{0xFFF14093},
		},
		{
			Name:  "Neg",
			Input: "neg x1 x2",
			Text:  []uint32{0x402000B3},
		},
		{
			Name:  "Seqz",
			Input: "seqz x1 x2",
			Text:  []uint32{0x00113093},
		},
		{
			Name:  "Snez",
			Input: "snez x1 x2",
			Text:  []uint32{0x002030B3},
		},
		{
			Name: "Jump",
			Input: `
				start: addi x1 x0 1
				j start
			`,
			Text: []uint32{
				0x00100093,
				0xFFDFF06F, // jal x0, -4
			},
		},
		{
			Name:  "Ret",
			Input: "ret",
			Text:  []uint32{0x00008067},
		},
		{
			Name:  "JumpRegister",
			Input: "jr x5",
			Text:  []uint32{0x00028067},
		},
		{
			Name: "BranchAliases",
			Input: `
				start: beqz x1 start
				bnez x1 start
				bltz x1 start
				bgt x1 x2 start
			`,
			Text: []uint32{
				0x00008063, // beq x1, x0, 0
				0xFE009EE3, // bne x1, x0, -4
				0xFE00CCE3, // blt x1, x0, -8
				0xFE114AE3, // blt x2, x1, -12
			},
		},
	}

	for i := range tests {
		t.Run(tests[i].Name, func(t *testing.T) {
			testAssemblerSuccess(t, &tests[i])
		})
	}
}

// Alias expansions must encode identically to their canonical spelling.
func TestPseudoEquivalence(t *testing.T) {
	cases := []struct {
		Name      string
		Pseudo    string
		Canonical string
	}{
		{"Mv", "mv x5 x6", "addi x5 x6 0"},
		{"Not", "not x5 x6", "xori x5 x6 -1"},
		{"Neg", "neg x5 x6", "sub x5 x0 x6"},
		{"Seqz", "seqz x5 x6", "sltiu x5 x6 1"},
		{"Snez", "snez x5 x6", "sltu x5 x0 x6"},
		{"Sltz", "sltz x5 x6", "slt x5 x6 x0"},
		{"Sgtz", "sgtz x5 x6", "slt x5 x0 x6"},
		{"Li", "li x5 -7", "addi x5 x0 -7"},
		{"Ble", "ble x5 x6 8", "bge x6 x5 8"},
		{"Bleu", "bleu x5 x6 8", "bgeu x6 x5 8"},
		{"Bgtu", "bgtu x5 x6 8", "bltu x6 x5 8"},
	}

	for _, test := range cases {
		t.Run(test.Name, func(t *testing.T) {
			pseudo, errs := assembler.AssembleString("pseudo", test.Pseudo)

			if len(errs) > 0 {
				t.Fatal(errs[0])
			}

			canonical, errs := assembler.AssembleString(
				"canonical", test.Canonical,
			)

			if len(errs) > 0 {
				t.Fatal(errs[0])
			}

			if pseudo.Insts[0].Value != canonical.Insts[0].Value {
				t.Fatalf(
					"Expansion mismatch\nwant:%#08x\nhave:%#08x",
					canonical.Insts[0].Value,
					pseudo.Insts[0].Value,
				)
			}
		})
	}
}

func TestDirectives(t *testing.T) {
	tests := []testCase{
		{
			Name:  "Bytes",
			Input: ".data\n.byte 1, 2, 3, 255",
			Data:  []byte{1, 2, 3, 255},
		},
		{
			Name:  "NegativeByte",
			Input: ".data\n.byte -1",
			Data:  []byte{0xFF},
		},
		{
			Name:  "Words",
			Input: ".data\n.word 0x11223344, 1",
			Data:  []byte{0x44, 0x33, 0x22, 0x11, 1, 0, 0, 0},
		},
		{
			Name:  "String",
			Input: ".data\n.string \"hi\"",
			Data:  []byte{'h', 'i', 0},
		},
		{
			Name:  "StringEscapes",
			Input: ".data\n.asciiz \"a\\nb\"",
			Data:  []byte{'a', '\n', 'b', 0},
		},
		{
			Name:  "Space",
			Input: ".data\n.space 3",
			Data:  []byte{0, 0, 0},
		},
		{
			Name:  "Align",
			Input: ".data\n.byte 1\n.align 2\n.byte 2",
			Data:  []byte{1, 0, 0, 0, 2},
		},
		{
			Name:  "AlignAlreadyAligned",
			Input: ".data\n.byte 1, 2, 3, 4\n.align 2\n.byte 5",
			Data:  []byte{1, 2, 3, 4, 5},
		},
		{
			Name:  "Rodata",
			Input: ".rodata\n.byte 9",
			Rodata: []byte{
				9,
			},
		},
		{
			Name:   "DataLabelOffsets",
			Input:  ".data\na: .byte 1\nb: .byte 2",
			Labels: map[string]int32{"a": 0x10000000, "b": 0x10000001},
		},
		{
			Name:   "RodataLabelOffsets",
			Input:  ".rodata\nc: .word 7",
			Labels: map[string]int32{"c": 0x00010000},
		},
		{
			Name:   "EquivChain",
			Input:  ".equiv A, 3\n.equiv B, A\n.equiv C, B\nli x1, C",
			Text:   []uint32{0x00300093},
			Labels: map[string]int32{"A": 3, "B": 3, "C": 3},
		},
		{
			Name:   "EquSet",
			Input:  ".equ N, 4\n.set N, 5\naddi x1 x0 N",
			Text:   []uint32{0x00500093},
			Labels: map[string]int32{"N": 5},
		},
		{
			Name:  "FloatIgnored",
			Input: ".data\n.float 1.5\n.byte 1",
			Data:  []byte{1},
		},
		{
			Name:  "SymbolPlusOffset",
			Input: ".equiv BASE, 0x100\naddi x1 x0 BASE+4",
			Text:  []uint32{0x10400093},
		},
	}

	for i := range tests {
		t.Run(tests[i].Name, func(t *testing.T) {
			testAssemblerSuccess(t, &tests[i])
		})
	}
}

func TestComments(t *testing.T) {
	test := testCase{
		Name: "Comments",
		Input: `
			# full line comment
			addi x1 x0 5 # trailing comment
			addi x2 x0 '#'
		`,
		Text: []uint32{
			0x00500093,
			0x02300113,
		},
	}

	testAssemblerSuccess(t, &test)
}

func TestAssemblerFailures(t *testing.T) {
	tests := []failCase{
		{
			Name:  "DuplicateLabel",
			Input: "loop: addi x1 x0 1\nloop: addi x2 x0 2",
			Error: "label loop defined twice",
		},
		{
			Name:  "MisplacedLabel",
			Input: "addi x1 loop: x0 1",
			Error: "in the middle of an instruction",
		},
		{
			Name:  "UnterminatedString",
			Input: ".data\n.string \"abc",
			Error: "Unterminated string",
		},
		{
			Name:  "UnterminatedCharacter",
			Input: "addi x1 x0 'a",
			Error: "Unterminated character",
		},
		{
			Name:  "UnknownDirective",
			Input: ".bogus 1",
			Error: "Unknown directive",
		},
		{
			Name:  "UnknownMnemonic",
			Input: "frobnicate x1 x2",
			Error: "Unknown instruction",
		},
		{
			Name:  "ImmediateTooLarge",
			Input: "addi x1 x0 4096",
			Error: "Immediate exceeds allowed range",
		},
		{
			Name:  "ShiftTooLarge",
			Input: "slli x1 x1 32",
			Error: "Immediate exceeds allowed range",
		},
		{
			Name:  "ByteOutOfRange",
			Input: ".data\n.byte 256",
			Error: "value must be in [-127, 255]",
		},
		{
			Name:  "ByteBelowRange",
			Input: ".data\n.byte -128",
			Error: "value must be in [-127, 255]",
		},
		{
			Name:  "DataInText",
			Input: ".byte 1",
			Error: "Cannot emit data",
		},
		{
			Name:  "InstructionInData",
			Input: ".data\naddi x1 x0 1",
			Error: "Cannot emit instructions",
		},
		{
			Name:  "CircularEquiv",
			Input: ".equiv A, B\n.equiv B, A",
			Error: "circularity in definition of",
		},
		{
			Name:  "SelfEquiv",
			Input: ".equiv A, A",
			Error: "circularity in definition of A",
		},
		{
			Name:  "EquivRedefinition",
			Input: ".equiv A, 1\n.equiv A, 2",
			Error: "Redefinition of 'A'",
		},
		{
			Name:  "EquivLabelConflict",
			Input: "A: addi x1 x0 1\n.equiv A, 2",
			Error: "defined both as a label and an alias",
		},
		{
			Name:  "InvalidRegister",
			Input: "addi q1 x0 1",
			Error: "Invalid register identifier",
		},
		{
			Name:  "WrongArgumentCount",
			Input: "add x1 x2",
			Error: "Invalid number of arguments",
		},
		{
			Name:  "BadAlignment",
			Input: ".data\n.align 9",
			Error: "alignment must be in [0, 8]",
		},
		{
			Name:  "NonAsciiString",
			Input: ".data\n.string \"héllo\"",
			Error: "non-ASCII",
		},
		{
			Name:  "EcallOperands",
			Input: "ecall x1",
			Error: "Invalid number of arguments",
		},
	}

	for i := range tests {
		t.Run(tests[i].Name, func(t *testing.T) {
			testAssemblerFailure(t, &tests[i])
		})
	}
}

// Assembling the same source twice must produce identical images.
func TestIdempotence(t *testing.T) {
	source := `
		.data
		v: .word 42
		.text
		main: la x5 v
		lw x6 0(x5)
		li x1 0x12345678
		beqz x6 main
	`

	first, errs := assembler.AssembleString("first", source)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	second, errs := assembler.AssembleString("second", source)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	if len(first.Insts) != len(second.Insts) {
		t.Fatal("Instruction counts differ between runs")
	}

	for i := range first.Insts {
		if first.Insts[i].Value != second.Insts[i].Value {
			t.Fatalf("Instruction %d differs between runs", i)
		}
	}

	for i := range first.DataSegment {
		if first.DataSegment[i] != second.DataSegment[i] {
			t.Fatalf("Data byte %d differs between runs", i)
		}
	}
}

func TestRelocationRequests(t *testing.T) {
	prog, errs := assembler.AssembleString(
		"reloc", "la x5 external\ncall helper",
	)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	if len(prog.Insts) != 4 {
		t.Fatalf(
			"Instruction count mismatch\nwant:%d\nhave:%d",
			4,
			len(prog.Insts),
		)
	}

	if len(prog.RelocationTable) != 4 {
		t.Fatalf(
			"Relocation count mismatch\nwant:%d\nhave:%d",
			4,
			len(prog.RelocationTable),
		)
	}

	wantOffsets := []int32{0, 4, 8, 12}
	wantLabels := []string{"external", "external", "helper", "helper"}

	for i, entry := range prog.RelocationTable {
		if entry.Offset != wantOffsets[i] {
			t.Errorf(
				"Relocation %d offset mismatch\nwant:%d\nhave:%d",
				i,
				wantOffsets[i],
				entry.Offset,
			)
		}

		if entry.Label != wantLabels[i] {
			t.Errorf(
				"Relocation %d label mismatch\nwant:%s\nhave:%s",
				i,
				wantLabels[i],
				entry.Label,
			)
		}
	}
}

func TestWordLabelRelocation(t *testing.T) {
	prog, errs := assembler.AssembleString(
		"wordreloc", ".data\nptr: .word target\n.text\ntarget: addi x1 x0 1",
	)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	if len(prog.DataRelocationTable) != 1 {
		t.Fatalf(
			"Data relocation count mismatch\nwant:%d\nhave:%d",
			1,
			len(prog.DataRelocationTable),
		)
	}

	entry := prog.DataRelocationTable[0]

	if entry.Offset != 0 || entry.Label != "target" {
		t.Fatalf(
			"Data relocation mismatch\nhave:(%d, %s)",
			entry.Offset,
			entry.Label,
		)
	}

	for _, b := range prog.DataSegment {
		if b != 0 {
			t.Fatal("Relocation placeholder must be zero")
		}
	}
}
