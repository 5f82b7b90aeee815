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

import "github.com/zaparoo-fmt/gcbin/internal/binary"

// ShiftJis1997 decodes the pre-2004 Shift JIS repertoire: JIS X 0201 as a
// single-byte fallback, plus a double-byte JIS X 0208 lookup that always
// yields exactly one scalar per code point.
type ShiftJis1997 struct{}

// NewDecoder returns a Decoder over data.
func (ShiftJis1997) NewDecoder(data []byte) *Decoder {
	return newDecoder(data, sjis1997Step)
}

// Transform implements golang.org/x/text/transform.Transformer.
func (ShiftJis1997) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	return transformBytes(dst, src, atEOF, sjis1997Step)
}

// Reset implements golang.org/x/text/transform.Transformer.
func (ShiftJis1997) Reset() {}

func sjis1997Step(data []byte, pos int) (r1, r2 rune, hasSecond bool, n int, err error) {
	b := data[pos]

	if isJISX0201Byte(b) {
		r, err := decodeJISX0201Byte(b)
		if err != nil {
			return 0, 0, false, 0, err
		}
		return r, 0, false, 1, nil
	}

	if !isLeadByte(b) {
		return 0, 0, false, 0, binary.NewDecodingError("sjis1997", "invalid lead byte %#02x at offset %d", b, pos)
	}
	if pos+1 >= len(data) {
		return 0, 0, false, 0, errIncomplete
	}

	t := data[pos+1]
	entry := sjis1997Lead[b]
	if entry.offset == 0 && entry.firstTrail == 0 && entry.lastTrail == 0 {
		return 0, 0, false, 0, binary.NewDecodingError("sjis1997", "unmapped lead byte %#02x", b)
	}
	if t < entry.firstTrail || t > entry.lastTrail {
		return 0, 0, false, 0, binary.NewDecodingError("sjis1997", "invalid trail byte %#02x for lead %#02x at offset %d", t, b, pos)
	}

	v := sjis1997Scalars[entry.offset+uint32(t-entry.firstTrail)]
	if v == 0 {
		return 0, 0, false, 0, binary.NewDecodingError("sjis1997", "unmapped code point lead=%#02x trail=%#02x", b, t)
	}
	return rune(v), 0, false, 2, nil
}
