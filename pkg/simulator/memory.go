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

const pageShift = 12
const pageSize = 1 << pageShift

// memory is the sparse byte-addressable store backing the simulator.
// Unmapped pages read as zero; pages materialise on first write.
type memory struct {
	pages map[uint32]*[pageSize]byte
}

func newMemory() *memory {
	return &memory{pages: make(map[uint32]*[pageSize]byte)}
}

func (m *memory) loadByte(addr uint32) byte {
	page, ok := m.pages[addr>>pageShift]

	if !ok {
		return 0
	}

	return page[addr&(pageSize-1)]
}

func (m *memory) storeByte(addr uint32, value byte) {
	index := addr >> pageShift
	page, ok := m.pages[index]

	if !ok {
		page = new([pageSize]byte)
		m.pages[index] = page
	}

	page[addr&(pageSize-1)] = value
}
