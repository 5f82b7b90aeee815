// Copyright (c) 2025 Niema Moshiri and The Zaparoo Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of gcbin.
//
// gcbin is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gcbin is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gcbin.  If not, see <https://www.gnu.org/licenses/>.

package encoding

// sjis1997Lead and sjis1997Scalars are the same two-level table shape as
// the Shift JIS 2004 tables, narrowed to the JIS X 0208 repertoire Shift
// JIS 1997 actually covers: no entry in this table ever sets highBit,
// because 1997-era Shift JIS has no two-scalar decompositions.
var (
	sjis1997Lead    [256]leadEntry
	sjis1997Scalars []uint32
)

func init() {
	const (
		row1Offset = 0
		row1Size   = 0x7C - 0x40 + 1
		row4Offset = row1Offset + row1Size
		row4Size   = 0xFC - 0x40 + 1
		row5Offset = row4Offset + row4Size
		row5Size   = 0xFC - 0x40 + 1
	)

	sjis1997Lead[0x81] = leadEntry{firstTrail: 0x40, lastTrail: 0x7C, offset: row1Offset}
	sjis1997Lead[0x82] = leadEntry{firstTrail: 0x40, lastTrail: 0xFC, offset: row4Offset}
	sjis1997Lead[0x83] = leadEntry{firstTrail: 0x40, lastTrail: 0xFC, offset: row5Offset}

	sjis1997Scalars = make([]uint32, row5Offset+row5Size)

	set := func(lead leadEntry, trail byte, v uint32) {
		sjis1997Scalars[int(lead.offset)+int(trail-lead.firstTrail)] = v
	}

	row1 := sjis1997Lead[0x81]
	set(row1, 0x40, 0x3000)
	set(row1, 0x41, 0x3001)
	set(row1, 0x42, 0x3002)

	row4 := sjis1997Lead[0x82]
	set(row4, 0x9F, 0x3041)
	set(row4, 0xA0, 0x3042)
	set(row4, 0xA9, 0x304B)
	// Note: 0x82F5 (か゚) is deliberately absent here; Shift JIS 1997 has
	// no two-scalar decompositions, unlike the 2004 table in
	// sjis2004_table.go.

	row5 := sjis1997Lead[0x83]
	set(row5, 0x40, 0x30A1)
	set(row5, 0x41, 0x30A2)
}
