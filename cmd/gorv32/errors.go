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
	"io"
	"log"
	"strings"

	"github.com/lassandro/gorv32/pkg/assembler"
)

// printErrors reports accumulated assembly errors, underlining the
// offending token when the error carries a source position.
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
