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
	"os"

	"golang.org/x/sys/unix"
)

var termRestore unix.Termios
var termRaw bool

func enterRawTerm() {
	termios, err := unix.IoctlGetTermios(int(os.Stdin.Fd()), unix.TCGETS)

	if err != nil {
		// Not a terminal; console input stays line buffered.
		return
	}

	termRestore = *termios
	termstate := *termios

	termstate.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	termstate.Lflag &^= unix.ECHO | unix.ECHONL | unix.IEXTEN
	termstate.Cflag &^= unix.CSIZE | unix.PARENB
	termstate.Cflag |= unix.CS8

	if err := unix.IoctlSetTermios(
		int(os.Stdin.Fd()), unix.TCSETS, &termstate,
	); err != nil {
		panic(err)
	}

	termRaw = true
}

func exitRawTerm() {
	if !termRaw {
		return
	}

	if err := unix.IoctlSetTermios(
		int(os.Stdin.Fd()), unix.TCSETS, &termRestore,
	); err != nil {
		panic(err)
	}
}
