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

package encoding_test

import (
	"testing"

	"github.com/lassandro/gorv32/pkg/encoding"
)

func TestDecodeImmediate(t *testing.T) {
	cases := []struct {
		Name  string
		Input string
		Value int32
	}{
		{"Decimal", "42", 42},
		{"DecimalNegative", "-42", -42},
		{"DecimalPositiveSign", "+42", 42},
		{"Zero", "0", 0},
		{"Hex", "0x2A", 42},
		{"HexUpper", "0X2A", 42},
		{"HexNegative", "-0x10", -16},
		{"HexWord", "0xFFFFFFFF", -1},
		{"Binary", "0b101010", 42},
		{"BinaryNegative", "-0b10", -2},
		{"IntMin", "-2147483648", -2147483648},
		{"IntMinHex", "-0x80000000", -2147483648},
		{"Character", "'a'", 97},
		{"CharacterDigit", "'0'", 48},
		{"CharacterSpace", "' '", 32},
		{"CharacterNewline", `'\n'`, 10},
		{"CharacterTab", `'\t'`, 9},
		{"CharacterNul", `'\0'`, 0},
		{"CharacterBackslash", `'\\'`, 92},
		{"CharacterQuote", `'\''`, 39},
	}

	for _, test := range cases {
		t.Run(test.Name, func(t *testing.T) {
			value, err := encoding.DecodeImmediate(test.Input)

			if err != nil {
				t.Fatal(err)
			}

			if value != test.Value {
				t.Fatalf(
					"Immediate mismatch\nwant:%d\nhave:%d",
					test.Value,
					value,
				)
			}
		})
	}
}

func TestDecodeImmediateFailure(t *testing.T) {
	cases := []struct {
		Name  string
		Input string
	}{
		{"Empty", ""},
		{"Word", "hello"},
		{"Label", "loop"},
		{"HexPrefixOnly", "0x"},
		{"BinaryBadDigit", "0b102"},
		{"TrailingGarbage", "12ab"},
		{"BareQuote", "'"},
		{"UnterminatedCharacter", "'a"},
		{"WideCharacter", "'ab'"},
		{"UnknownEscape", `'\q'`},
	}

	for _, test := range cases {
		t.Run(test.Name, func(t *testing.T) {
			if _, err := encoding.DecodeImmediate(test.Input); err == nil {
				t.Fatalf("Expected decode of '%s' to fail", test.Input)
			}
		})
	}
}

func TestSignExtend(t *testing.T) {
	cases := []struct {
		Name   string
		Value  uint32
		Bits   uint
		Result uint32
	}{
		{"PositiveByte", 0x7F, 8, 0x7F},
		{"NegativeByte", 0x80, 8, 0xFFFFFF80},
		{"NegativeHalf", 0x8000, 16, 0xFFFF8000},
		{"PositiveTwelve", 0x7FF, 12, 0x7FF},
		{"NegativeTwelve", 0x800, 12, 0xFFFFF800},
	}

	for _, test := range cases {
		t.Run(test.Name, func(t *testing.T) {
			result := encoding.SignExtend(test.Value, test.Bits)

			if result != test.Result {
				t.Fatalf(
					"Extension mismatch\nwant:%#08x\nhave:%#08x",
					test.Result,
					result,
				)
			}
		})
	}
}

func TestWordRoundTrip(t *testing.T) {
	buffer := make([]byte, 8)

	encoding.PutWord(buffer, 0, 0x11223344)
	encoding.PutWord(buffer, 4, 0xDEADBEEF)

	if buffer[0] != 0x44 || buffer[1] != 0x33 ||
		buffer[2] != 0x22 || buffer[3] != 0x11 {
		t.Fatalf("PutWord is not little-endian: % x", buffer[:4])
	}

	if have := encoding.GetWord(buffer, 0); have != 0x11223344 {
		t.Fatalf(
			"Word mismatch\nwant:%#08x\nhave:%#08x", 0x11223344, have,
		)
	}

	if have := encoding.GetWord(buffer, 4); have != 0xDEADBEEF {
		t.Fatalf(
			"Word mismatch\nwant:%#08x\nhave:%#08x", 0xDEADBEEF, have,
		)
	}

	appended := encoding.WordToBytes(nil, 0x01020304)

	if len(appended) != 4 || encoding.GetWord(appended, 0) != 0x01020304 {
		t.Fatalf("WordToBytes mismatch: % x", appended)
	}
}
