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
	"bytes"
	"errors"
	"io"

	"github.com/ulikunitz/xz/lzma"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

// lzmaCodec unpacks "lzma" hunks. CHD stores the raw LZMA stream with no
// header at all; the encoder parameters are implied by the hunk size, so a
// classic 13-byte LZMA header is reconstructed here before handing the
// stream to the decoder.
type lzmaCodec struct {
	// dictHint is the value the encoder derived its dictionary size from:
	// the hunk size for plain lzma hunks, the sector payload size for CD
	// hunks.
	dictHint uint32
}

// lzmaDictSize mirrors the encoder's dictionary-size normalization: the
// smallest 2^n or 3*2^(n-1) that covers the data being compressed.
func lzmaDictSize(hint uint32) uint32 {
	for i := uint32(11); i <= 30; i++ {
		if hint <= 2<<i {
			return 2 << i
		}
		if hint <= 3<<i {
			return 3 << i
		}
	}
	return 1 << 26
}

func (c lzmaCodec) decompress(dst, src []byte) (int, error) {
	if len(src) == 0 {
		return 0, binary.NewDecompressionError("chd", "lzma: empty hunk")
	}

	hint := c.dictHint
	if hint == 0 {
		hint = uint32(len(dst))
	}
	dictSize := lzmaDictSize(hint)

	// Properties byte 0x5D encodes the encoder defaults lc=3, lp=0, pb=2.
	header := make([]byte, 13, 13+len(src))
	header[0] = 0x5d
	for i := range 4 {
		header[1+i] = byte(dictSize >> (8 * i))
	}
	size := uint64(len(dst))
	for i := range 8 {
		header[5+i] = byte(size >> (8 * i))
	}

	lr, err := lzma.NewReader(bytes.NewReader(append(header, src...)))
	if err != nil {
		return 0, binary.NewDecompressionError("chd", "lzma: %v", err)
	}
	n, err := io.ReadFull(lr, dst)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, binary.NewDecompressionError("chd", "lzma: %v", err)
	}
	return n, nil
}
