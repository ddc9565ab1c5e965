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
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassandro/gorv32/pkg/assembler"
	"github.com/lassandro/gorv32/pkg/debugger"
	"github.com/lassandro/gorv32/pkg/linker"
)

var helpvar bool
var debugvar bool
var outvar string

const usage = "gorv32-asm [-debug] [-out outfile] filename..."

// imageHeader leads the output file: entry point and segment sizes, all
// little-endian, followed by the text words and the two data images.
type imageHeader struct {
	Magic      uint32
	StartPC    uint32
	TextSize   uint32
	RodataSize uint32
	DataSize   uint32
}

const imageMagic uint32 = 0x32565247 // "GRV2"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'.rvdb'",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.Parse()
}

func printErrors(filename string, input io.ReadSeeker, errs []error) {
	for _, err := range errs {
		tokenErr, ok := err.(assembler.TokenError)

		if !ok || input == nil {
			log.Printf("%s: %v", filename, err)
			continue
		}

		cursor := tokenErr.GetPosition()

		if _, serr := input.Seek(cursor.LineByte, io.SeekStart); serr != nil {
			log.Printf("%s: %v", filename, err)
			continue
		}

		line, _ := bufio.NewReader(input).ReadString('\n')
		line = strings.TrimRight(line, "\n")

		if cursor.Size == 0 || cursor.Column == 0 {
			log.Printf("%s: %v\n%s", filename, err, line)
			continue
		}

		underlinefmt := fmt.Sprintf(
			"%% %ds%s",
			cursor.Column,
			strings.Repeat("~", int(cursor.Size)-1),
		)

		log.Printf(
			"%s: %v\n%s\n\033[31m%s\033[0m",
			filename,
			err,
			line,
			fmt.Sprintf(underlinefmt, "^"),
		)
	}
}

func gorv32_asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var units []*assembler.Program

	failed := false

	if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 && len(args) == 0 {
		unit, errs := assembler.Assemble("<stdin>", os.Stdin)

		if len(errs) > 0 {
			printErrors("<stdin>", nil, errs)
			failed = true
		}

		units = append(units, unit)

		if outvar == "" {
			outvar = "out.bin"
		}
	} else {
		if len(args) == 0 {
			log.Println(usage)
			return 1
		}

		for _, filename := range args {
			file, err := os.Open(filename)

			if err != nil {
				log.Println(err)
				return 1
			}

			if stat, err := file.Stat(); err != nil || stat.IsDir() {
				log.Printf("%s is not a valid assembly file", filename)
				file.Close()
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

		if outvar == "" {
			filename := filepath.Base(args[0])
			outvar = strings.ReplaceAll(
				filename, filepath.Ext(filename), ".bin",
			)
		}
	}

	if failed {
		return 1
	}

	linked, err := linker.Link(units...)

	if err != nil {
		log.Println(err)
		return 1
	}

	{
		buffer := new(bytes.Buffer)

		header := imageHeader{
			Magic:      imageMagic,
			StartPC:    linked.StartPC,
			TextSize:   uint32(len(linked.Insts)) * 4,
			RodataSize: uint32(len(linked.Rodata)),
			DataSize:   uint32(len(linked.Data)),
		}

		if err := binary.Write(buffer, binary.LittleEndian, header); err != nil {
			log.Println("Error writing output file")
			log.Println(err)
			return 1
		}

		for _, inst := range linked.Insts {
			if err := binary.Write(
				buffer, binary.LittleEndian, inst.Value,
			); err != nil {
				log.Println("Error writing output file")
				log.Println(err)
				return 1
			}
		}

		buffer.Write(linked.Rodata)
		buffer.Write(linked.Data)

		if err := os.WriteFile(outvar, buffer.Bytes(), 0666); err != nil {
			log.Println("Error writing output file")
			log.Println(err)
			return 1
		}
	}

	if debugvar {
		source := ""

		if len(args) > 0 {
			if abs, err := filepath.Abs(args[0]); err == nil {
				source = abs
			}
		}

		symtable := debugger.NewSymTable(source, linked)

		filename := filepath.Dir(outvar) + "/" + strings.ReplaceAll(
			filepath.Base(outvar), filepath.Ext(outvar), ".rvdb",
		)

		file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE, 0666)

		if err != nil {
			log.Println("Error creating symbol table")
			log.Println(err)
			return 1
		}

		if err := gob.NewEncoder(file).Encode(symtable); err != nil {
			log.Println("Error writing symbol table")
			log.Println(err)
			file.Close()
			return 1
		}

		file.Close()
	}

	return 0
}

func main() {
	os.Exit(gorv32_asm())
}
