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

// Ascii decodes plain 7-bit ASCII, the simplest codec in this package and
// the one most container string fields (REL names, RARC entry names) use
// in practice even on Japanese titles.
type Ascii struct{}

// NewDecoder returns a Decoder over data.
func (Ascii) NewDecoder(data []byte) *Decoder {
	return newDecoder(data, asciiStep)
}

// Transform implements golang.org/x/text/transform.Transformer.
func (Ascii) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	return transformBytes(dst, src, atEOF, asciiStep)
}

// Reset implements golang.org/x/text/transform.Transformer. Ascii is
// stateless between calls, so there is nothing to reset.
func (Ascii) Reset() {}

func asciiStep(data []byte, pos int) (r1, r2 rune, hasSecond bool, n int, err error) {
	b := data[pos]
	if b >= 0x80 {
		return 0, 0, false, 0, binary.NewDecodingError("ascii", "invalid byte %#02x at offset %d", b, pos)
	}
	return rune(b), 0, false, 1, nil
}
