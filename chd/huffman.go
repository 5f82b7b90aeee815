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

package chd

import (
	"github.com/icza/bitio"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

// huffman decodes the canonical Huffman code CHD V5 uses for its hunk map.
// Code values are assigned the way chdman assigns them: lengths are counted
// high-to-low, so for each length L the codes run from start[L] upward, one
// per symbol carrying that length, in ascending symbol order.
type huffman struct {
	maxBits int
	lengths []uint8 // code length per symbol, 0 = unused

	start [33]uint32  // first code value at each length
	count [33]uint32  // number of codes at each length
	syms  [33][]uint8 // symbols at each length, ascending
}

// newHuffman reads an RLE-packed table of code lengths for numCodes symbols
// from br and prepares the decoder. maxBits bounds the longest code.
func newHuffman(br *bitio.Reader, numCodes, maxBits int) (*huffman, error) {
	h := &huffman{
		maxBits: maxBits,
		lengths: make([]uint8, numCodes),
	}

	// Width of each packed length field depends on the code range.
	fieldBits := byte(3)
	switch {
	case maxBits >= 16:
		fieldBits = 5
	case maxBits >= 8:
		fieldBits = 4
	}

	for sym := 0; sym < numCodes; {
		v, err := br.ReadBits(fieldBits)
		if err != nil {
			return nil, binary.NewParseError("chd", "huffman table: %v", err)
		}
		if v != 1 {
			h.lengths[sym] = uint8(v)
			sym++
			continue
		}

		// A 1 escapes: the next field is the real length, and if that is
		// anything but a literal 1, a repeat count follows.
		v, err = br.ReadBits(fieldBits)
		if err != nil {
			return nil, binary.NewParseError("chd", "huffman table: %v", err)
		}
		if v == 1 {
			h.lengths[sym] = 1
			sym++
			continue
		}
		rep, err := br.ReadBits(fieldBits)
		if err != nil {
			return nil, binary.NewParseError("chd", "huffman table: %v", err)
		}
		for i := uint64(0); i < rep+3 && sym < numCodes; i++ {
			h.lengths[sym] = uint8(v)
			sym++
		}
	}

	h.assignCodes()
	return h, nil
}

// assignCodes derives each length's starting code value and groups symbols
// by length for decoding.
func (h *huffman) assignCodes() {
	for _, l := range h.lengths {
		if l > 0 && l <= 32 {
			h.count[l]++
		}
	}

	var cur uint32
	for l := 32; l > 0; l-- {
		next := (cur + h.count[l]) >> 1
		h.start[l] = cur
		cur = next
	}

	for sym, l := range h.lengths {
		if l > 0 {
			h.syms[l] = append(h.syms[l], uint8(sym))
		}
	}
}

// decode reads one symbol from br, walking the code a bit at a time until it
// lands inside some length's assigned range. The prefix property guarantees
// at most one match.
func (h *huffman) decode(br *bitio.Reader) (uint8, error) {
	var code uint32
	for l := 1; l <= h.maxBits; l++ {
		bit, err := br.ReadBits(1)
		if err != nil {
			return 0, binary.NewParseError("chd", "huffman decode: %v", err)
		}
		code = code<<1 | uint32(bit)
		if code >= h.start[l] && code-h.start[l] < h.count[l] {
			return h.syms[l][code-h.start[l]], nil
		}
	}
	return 0, binary.NewParseError("chd", "huffman decode: no symbol for code %#x", code)
}
