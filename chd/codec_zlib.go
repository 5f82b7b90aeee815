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

	"github.com/klauspost/compress/flate"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

// zlibCodec unpacks "zlib" hunks. Despite the tag the stored stream is raw
// deflate with no zlib wrapper.
type zlibCodec struct{}

func (zlibCodec) decompress(dst, src []byte) (int, error) {
	fr := flate.NewReader(bytes.NewReader(src))
	defer fr.Close()

	n, err := io.ReadFull(fr, dst)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, binary.NewDecompressionError("chd", "inflate: %v", err)
	}
	return n, nil
}

// inflateOrZero inflates a deflate stream into a fresh buffer of n bytes,
// returning all zeros when the stream is missing or damaged. Used for CD
// subchannel data, which is rarely present and never load-bearing for the
// data track.
func inflateOrZero(src []byte, n int) []byte {
	dst := make([]byte, n)
	if len(src) == 0 || n == 0 {
		return dst
	}
	fr := flate.NewReader(bytes.NewReader(src))
	defer fr.Close()
	if _, err := io.ReadFull(fr, dst); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return make([]byte, n)
	}
	return dst
}
