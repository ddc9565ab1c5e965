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

package assembler

import (
	"strconv"
	"strings"

	"github.com/lassandro/gorv32/pkg/encoding"
	"github.com/lassandro/gorv32/pkg/isa"
)

// An expander rewrites one pseudo-instruction into one or more TAL token
// lists. Expanders that materialise address pairs register the matching
// relocations against the pass-one text cursor.
type expander func(p *passOne, mnemonic string, args []string) ([][]string, error)

var pseudos = map[string]expander{
	"li":   expandLi,
	"mv":   expandUnaryAlias,
	"not":  expandUnaryAlias,
	"neg":  expandUnaryAlias,
	"seqz": expandUnaryAlias,
	"snez": expandUnaryAlias,
	"sltz": expandUnaryAlias,
	"sgtz": expandUnaryAlias,

	"beqz": expandBranchZero,
	"bnez": expandBranchZero,
	"blez": expandBranchZero,
	"bgez": expandBranchZero,
	"bltz": expandBranchZero,
	"bgtz": expandBranchZero,

	"ble":  expandBranchSwap,
	"bgt":  expandBranchSwap,
	"bleu": expandBranchSwap,
	"bgtu": expandBranchSwap,

	"j":    expandJump,
	"jal":  expandJal,
	"jr":   expandJumpRegister,
	"jalr": expandJalr,
	"ret":  expandRet,
	"call": expandCall,

	"la": expandLa,

	"lb":  expandLoad,
	"lh":  expandLoad,
	"lw":  expandLoad,
	"lbu": expandLoad,
	"lhu": expandLoad,

	"sb": expandStore,
	"sh": expandStore,
	"sw": expandStore,
}

// expandPseudo rewrites a pseudo-instruction via explicit dispatcher
// lookup; mnemonics without an expander pass through as a single TAL line
// for pass two to judge.
func expandPseudo(p *passOne, mnemonic string, args []Token) ([][]string, error) {
	words := make([]string, len(args))
	for i, arg := range args {
		words[i] = arg.Value
	}

	expand, ok := pseudos[strings.ToLower(mnemonic)]

	if !ok {
		return [][]string{append([]string{mnemonic}, words...)}, nil
	}

	return expand(p, strings.ToLower(mnemonic), words)
}

func dec(value int32) string {
	return strconv.FormatInt(int64(value), 10)
}

func expandLi(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) != 2 {
		return nil, &isa.InvalidNumArgumentsError{
			Mnemonic: mnemonic, Required: 2, Received: len(args),
		}
	}

	rd := args[0]
	imm, err := encoding.DecodeImmediate(args[1])

	if err != nil {
		// Alias symbols resolve in pass two; they must fit the short form.
		return [][]string{{"addi", rd, "x0", args[1]}}, nil
	}

	if imm >= -2048 && imm <= 2047 {
		return [][]string{{"addi", rd, "x0", dec(imm)}}, nil
	}

	// The +0x800 bias folds the sign extension of the low half into the
	// upper immediate.
	hi := (int64(imm) + 0x800) >> 12
	lo := int64(imm) - (hi << 12)

	return [][]string{
		{"lui", rd, strconv.FormatInt(hi, 10)},
		{"addi", rd, rd, strconv.FormatInt(lo, 10)},
	}, nil
}

func expandUnaryAlias(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) != 2 {
		return nil, &isa.InvalidNumArgumentsError{
			Mnemonic: mnemonic, Required: 2, Received: len(args),
		}
	}

	rd, rs := args[0], args[1]

	switch mnemonic {
	case "mv":
		return [][]string{{"addi", rd, rs, "0"}}, nil
	case "not":
		return [][]string{{"xori", rd, rs, "-1"}}, nil
	case "neg":
		return [][]string{{"sub", rd, "x0", rs}}, nil
	case "seqz":
		return [][]string{{"sltiu", rd, rs, "1"}}, nil
	case "snez":
		return [][]string{{"sltu", rd, "x0", rs}}, nil
	case "sltz":
		return [][]string{{"slt", rd, rs, "x0"}}, nil
	default: // sgtz
		return [][]string{{"slt", rd, "x0", rs}}, nil
	}
}

func expandBranchZero(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) != 2 {
		return nil, &isa.InvalidNumArgumentsError{
			Mnemonic: mnemonic, Required: 2, Received: len(args),
		}
	}

	rs, label := args[0], args[1]

	switch mnemonic {
	case "beqz":
		return [][]string{{"beq", rs, "x0", label}}, nil
	case "bnez":
		return [][]string{{"bne", rs, "x0", label}}, nil
	case "blez":
		return [][]string{{"bge", "x0", rs, label}}, nil
	case "bgez":
		return [][]string{{"bge", rs, "x0", label}}, nil
	case "bltz":
		return [][]string{{"blt", rs, "x0", label}}, nil
	default: // bgtz
		return [][]string{{"blt", "x0", rs, label}}, nil
	}
}

func expandBranchSwap(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) != 3 {
		return nil, &isa.InvalidNumArgumentsError{
			Mnemonic: mnemonic, Required: 3, Received: len(args),
		}
	}

	a, b, label := args[0], args[1], args[2]

	switch mnemonic {
	case "ble":
		return [][]string{{"bge", b, a, label}}, nil
	case "bgt":
		return [][]string{{"blt", b, a, label}}, nil
	case "bleu":
		return [][]string{{"bgeu", b, a, label}}, nil
	default: // bgtu
		return [][]string{{"bltu", b, a, label}}, nil
	}
}

func expandJump(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) != 1 {
		return nil, &isa.InvalidNumArgumentsError{
			Mnemonic: mnemonic, Required: 1, Received: len(args),
		}
	}

	return [][]string{{"jal", "x0", args[0]}}, nil
}

func expandJal(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) == 1 {
		return [][]string{{"jal", "x1", args[0]}}, nil
	}

	return [][]string{append([]string{"jal"}, args...)}, nil
}

func expandJumpRegister(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) != 1 {
		return nil, &isa.InvalidNumArgumentsError{
			Mnemonic: mnemonic, Required: 1, Received: len(args),
		}
	}

	return [][]string{{"jalr", "x0", "0", args[0]}}, nil
}

func expandJalr(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) == 1 {
		return [][]string{{"jalr", "x1", "0", args[0]}}, nil
	}

	return [][]string{append([]string{"jalr"}, args...)}, nil
}

func expandRet(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) != 0 {
		return nil, &isa.InvalidNumArgumentsError{
			Mnemonic: mnemonic, Required: 0, Received: len(args),
		}
	}

	return [][]string{{"jalr", "x0", "0", "x1"}}, nil
}

// splitLabelArg separates a relocatable operand into symbol and numeric
// offset for the relocation tables.
func splitLabelArg(arg string) (string, int32, error) {
	symbol, offsetPart := isa.SplitSymbol(arg)

	if offsetPart == "" {
		return symbol, 0, nil
	}

	offset, err := encoding.DecodeImmediate(offsetPart)

	if err != nil {
		return "", 0, err
	}

	return symbol, offset, nil
}

func expandCall(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) != 1 {
		return nil, &isa.InvalidNumArgumentsError{
			Mnemonic: mnemonic, Required: 1, Received: len(args),
		}
	}

	symbol, offset, err := splitLabelArg(args[0])

	if err != nil {
		return nil, err
	}

	base := p.prog.TextSize
	p.prog.AddRelocation(isa.RELOCATOR_PCREL_HI, base, symbol, offset)
	p.prog.AddRelocation(isa.RELOCATOR_PCREL_LO, base+4, symbol, offset)

	return [][]string{
		{"auipc", "x1", "0"},
		{"jalr", "x1", "0", "x1"},
	}, nil
}

func expandLa(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) != 2 {
		return nil, &isa.InvalidNumArgumentsError{
			Mnemonic: mnemonic, Required: 2, Received: len(args),
		}
	}

	rd := args[0]
	symbol, offset, err := splitLabelArg(args[1])

	if err != nil {
		return nil, err
	}

	base := p.prog.TextSize
	p.prog.AddRelocation(isa.RELOCATOR_PCREL_HI, base, symbol, offset)
	p.prog.AddRelocation(isa.RELOCATOR_PCREL_LO, base+4, symbol, offset)

	return [][]string{
		{"auipc", rd, "0"},
		{"addi", rd, rd, "0"},
	}, nil
}

func expandLoad(p *passOne, mnemonic string, args []string) ([][]string, error) {
	switch len(args) {
	case 3:
		// op rd, imm(rs1) is already TAL
		return [][]string{append([]string{mnemonic}, args...)}, nil

	case 2:
		rd := args[0]

		if imm, err := encoding.DecodeImmediate(args[1]); err == nil {
			return [][]string{{mnemonic, rd, dec(imm), "x0"}}, nil
		}

		symbol, offset, err := splitLabelArg(args[1])

		if err != nil {
			return nil, err
		}

		base := p.prog.TextSize
		p.prog.AddRelocation(isa.RELOCATOR_PCREL_HI, base, symbol, offset)
		p.prog.AddRelocation(isa.RELOCATOR_PCREL_LO, base+4, symbol, offset)

		return [][]string{
			{"auipc", rd, "0"},
			{mnemonic, rd, "0", rd},
		}, nil

	default:
		return nil, &isa.InvalidNumArgumentsError{
			Mnemonic: mnemonic, Required: 2, Received: len(args),
		}
	}
}

func expandStore(p *passOne, mnemonic string, args []string) ([][]string, error) {
	if len(args) != 3 {
		return nil, &isa.InvalidNumArgumentsError{
			Mnemonic: mnemonic, Required: 3, Received: len(args),
		}
	}

	rs, target, temp := args[0], args[1], args[2]

	if _, err := encoding.DecodeImmediate(target); err == nil {
		// op rs2, imm(rs1) is already TAL
		return [][]string{append([]string{mnemonic}, args...)}, nil
	}

	symbol, offset, err := splitLabelArg(target)

	if err != nil {
		return nil, err
	}

	base := p.prog.TextSize

	// sw rs, sym(rt) keeps the single store and patches its immediate with
	// the absolute address; sw rs, sym, rt materialises the address in rt.
	source := p.line

	if comment := strings.Index(source, "#"); comment >= 0 {
		source = source[:comment]
	}

	if strings.Contains(source, "(") {
		p.prog.AddRelocation(isa.RELOCATOR_IMM_ABS_STORE, base, symbol, offset)

		return [][]string{{mnemonic, rs, "0", temp}}, nil
	}

	p.prog.AddRelocation(isa.RELOCATOR_PCREL_HI, base, symbol, offset)
	p.prog.AddRelocation(isa.RELOCATOR_PCREL_LO_STORE, base+4, symbol, offset)

	return [][]string{
		{"auipc", temp, "0"},
		{mnemonic, rs, "0", temp},
	}, nil
}
