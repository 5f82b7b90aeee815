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

package yaz0

import (
	"bytes"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

// Stream holds fully decompressed Yaz0 output in memory and satisfies
// binary.ReadAtSeeker, so it can be wrapped in a binary.Parser and handed
// to any format decoder exactly like a plain file would be.
type Stream struct {
	data []byte
}

// Decompress reads and decompresses the Yaz0 stream at p's current
// position into a Stream ready for further parsing.
func Decompress(p binary.Parser) (*Stream, error) {
	r, err := NewReader(p)
	if err != nil {
		return nil, err
	}
	data, err := r.Decompress(p)
	if err != nil {
		return nil, err
	}
	return &Stream{data: data}, nil
}

func (s *Stream) ReadAt(buf []byte, off int64) (int, error) {
	return bytes.NewReader(s.data).ReadAt(buf, off)
}

func (s *Stream) Size() (int64, error) { return int64(len(s.data)), nil }

// Open is the transparent-wrapping entry point: if p's cursor sits on a
// valid Yaz0 header, the stream is decompressed eagerly and the returned
// ReadAtSeeker serves the decompressed bytes; otherwise p is left exactly
// where IsYaz0 found it and src is returned unchanged. This is the one place
// in the module that masks what would otherwise be a parse error, so that a
// caller can pass Open's result to binary.NewParser and then dol.Parse
// without knowing in advance whether src is Yaz0-wrapped.
func Open(p binary.Parser, src binary.ReadAtSeeker) (binary.ReadAtSeeker, error) {
	if !IsYaz0(p) {
		return src, nil
	}
	return Decompress(p)
}
