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

// Package yaz0 decompresses the Yaz0 LZ77 variant used throughout
// GameCube and Wii titles to pack DOL, REL, RARC and other assets.
//
// Format reference: http://www.amnoid.de/gc/yaz0.txt
package yaz0

import (
	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

const magic uint32 = 0x59617A30 // "Yaz0"

const headerSize = 16

// Header is the 16 byte Yaz0 prologue: magic, decompressed size, and two
// reserved words left over from the format's console heritage.
type Header struct {
	Magic            uint32
	DecompressedSize uint32
	reserved0        uint32
	reserved1        uint32
}

func readHeader(p binary.Parser) (Header, error) {
	var h Header
	var err error
	if h.Magic, err = p.BU32(); err != nil {
		return h, err
	}
	if h.DecompressedSize, err = p.BU32(); err != nil {
		return h, err
	}
	if h.reserved0, err = p.BU32(); err != nil {
		return h, err
	}
	if h.reserved1, err = p.BU32(); err != nil {
		return h, err
	}
	return h, nil
}

// IsValid reports whether the header's magic number identifies a Yaz0
// stream.
func (h Header) IsValid() bool { return h.Magic == magic }

// IsYaz0 reports whether p's cursor is positioned at a valid Yaz0 header,
// restoring the cursor to its original position before returning.
func IsYaz0(p binary.Parser) bool {
	base, err := p.Position()
	if err != nil {
		return false
	}
	defer func() { _ = p.Seek(base) }()

	h, err := readHeader(p)
	if err != nil {
		return false
	}
	return h.IsValid()
}

// Reader decompresses a Yaz0 stream on demand. It reads from any
// binary.Parser, so it composes freely with other container layers: a
// Reader can sit on top of a chd.Stream, an archive member, or a plain
// file. Decompress and Open wrap its output in a Stream, which implements
// binary.ReadAtSeeker so it can be handed to dol.Parse, rel.Parse or
// gcm.Open through binary.NewParser.
type Reader struct {
	header Header
}

// NewReader reads and validates the Yaz0 header at p's current position,
// leaving the cursor just past the header, ready for decompression.
func NewReader(p binary.Parser) (*Reader, error) {
	h, err := readHeader(p)
	if err != nil {
		return nil, err
	}
	if !h.IsValid() {
		return nil, binary.NewDecompressionError("yaz0", "invalid magic %#08x", h.Magic)
	}
	return &Reader{header: h}, nil
}

// DecompressedSize returns the size in bytes of the fully decompressed
// stream, as declared by the header.
func (r *Reader) DecompressedSize() uint32 { return r.header.DecompressedSize }

// Decompress reads the remainder of the underlying stream and returns the
// fully decompressed contents.
func (r *Reader) Decompress(p binary.Parser) ([]byte, error) {
	dest := make([]byte, r.header.DecompressedSize)
	if err := r.DecompressInto(p, dest); err != nil {
		return nil, err
	}
	return dest, nil
}

// DecompressInto decompresses into dest, which must be at least
// DecompressedSize bytes long. p must be positioned just past the Yaz0
// header (as left by NewReader).
func (r *Reader) DecompressInto(p binary.Parser, dest []byte) error {
	if uint32(len(dest)) < r.header.DecompressedSize {
		return binary.NewDecompressionError("yaz0", "destination buffer too small: %d < %d",
			len(dest), r.header.DecompressedSize)
	}

	size := int(r.header.DecompressedSize)
	dst := 0

	// The payload is byte-oriented: one code byte tags the next 8 events,
	// and every event's data bytes follow whole. The code byte's bits are
	// consumed MSB first, one per event.
	var code byte
	codeBits := 0

	for dst < size {
		if codeBits == 0 {
			b, err := p.U8()
			if err != nil {
				return binary.NewDecompressionError("yaz0", "unexpected end of data reading code byte: %v", err)
			}
			code = b
			codeBits = 8
		}
		tag := code&0x80 != 0
		code <<= 1
		codeBits--

		if tag {
			b, err := p.U8()
			if err != nil {
				return binary.NewDecompressionError("yaz0", "unexpected end of data reading literal: %v", err)
			}
			dest[dst] = b
			dst++
			continue
		}

		byte0, err := p.U8()
		if err != nil {
			return binary.NewDecompressionError("yaz0", "unexpected end of data reading back-reference: %v", err)
		}
		byte1, err := p.U8()
		if err != nil {
			return binary.NewDecompressionError("yaz0", "unexpected end of data reading back-reference: %v", err)
		}

		offset := (int(byte0&0x0f) << 8) | int(byte1)

		var length int
		if hi := int(byte0 >> 4); hi == 0 {
			extra, err := p.U8()
			if err != nil {
				return binary.NewDecompressionError("yaz0", "unexpected end of data reading extended length: %v", err)
			}
			length = int(extra) + 0x12
		} else {
			length = hi + 2
		}

		if offset >= dst {
			return binary.NewDecompressionError("yaz0", "back-reference offset %d exceeds current position %d", offset, dst)
		}
		base := dst - (offset + 1)
		if dst+length > size {
			return binary.NewDecompressionError("yaz0", "back-reference copy of length %d overruns destination at %d/%d", length, dst, size)
		}
		// Overlapping copies are appended a byte at a time so an offset
		// smaller than the length repeats the run, as the format intends.
		for n := range length {
			dest[dst] = dest[base+n]
			dst++
		}
	}

	return nil
}
