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

// JisX0201 decodes the JIS X 0201 single-byte encoding: 7-bit Roman text
// with two Yen/overline substitutions, plus half-width katakana in the
// 0xA1-0xDF range. It is also the single-byte fallback every lead byte in
// ShiftJis1997/ShiftJis2004 falls through to when it isn't a double-byte
// lead.
type JisX0201 struct{}

// NewDecoder returns a Decoder over data.
func (JisX0201) NewDecoder(data []byte) *Decoder {
	return newDecoder(data, jisX0201Step)
}

// Transform implements golang.org/x/text/transform.Transformer.
func (JisX0201) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	return transformBytes(dst, src, atEOF, jisX0201Step)
}

// Reset implements golang.org/x/text/transform.Transformer.
func (JisX0201) Reset() {}

// isJISX0201Byte reports whether b falls in the single-byte JIS X 0201
// range: 7-bit Roman text or half-width katakana.
func isJISX0201Byte(b byte) bool {
	return b < 0x80 || (b >= 0xA1 && b <= 0xDF)
}

// decodeJISX0201Byte decodes a single JIS X 0201 byte known to satisfy
// isJISX0201Byte.
func decodeJISX0201Byte(b byte) (rune, error) {
	switch {
	case b == 0x5C:
		return 0x00A5, nil // Yen sign
	case b == 0x7E:
		return 0x203E, nil // overline
	case b < 0x80:
		return rune(b), nil
	case b >= 0xA1 && b <= 0xDF:
		return 0xFF61 + rune(b-0xA1), nil // half-width katakana block
	default:
		return 0, binary.NewDecodingError("jisx0201", "invalid byte %#02x", b)
	}
}

func jisX0201Step(data []byte, pos int) (r1, r2 rune, hasSecond bool, n int, err error) {
	b := data[pos]
	if !isJISX0201Byte(b) {
		return 0, 0, false, 0, binary.NewDecodingError("jisx0201", "invalid byte %#02x at offset %d", b, pos)
	}
	r, err := decodeJISX0201Byte(b)
	if err != nil {
		return 0, 0, false, 0, err
	}
	return r, 0, false, 1, nil
}
