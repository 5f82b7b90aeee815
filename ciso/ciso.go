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

// Package ciso reads CISO (Compact ISO) images: a block-sparse wrapper
// around a disc image that omits zero-filled blocks from storage, keeping
// only a presence bitmap and the non-zero blocks themselves.
package ciso

import (
	"io"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

const (
	// magic is the on-disk ASCII bytes "CISO" read back as a 32-bit
	// little-endian word: the literal byte sequence 0x43 0x49 0x53 0x4F
	// loaded little-endian is 0x4F534943.
	magic uint32 = 0x4F534943

	headerSize = 0x8000
	mapSize    = 0x7FF8

	maxBlockSize = 0x8000000
)

// Image presents a CISO container's logical, fully-expanded contents: reads
// past a stored block's end and reads of unstored blocks are transparently
// zero-filled, so an Image can be handed to internal/binary.NewParser and
// treated exactly like an uncompressed disc image.
type Image struct {
	src       binary.ReadAtSeeker
	blockSize int64
	// blockOffset[i] is the absolute byte offset of stored block i's data
	// in src, or -1 if block i is not stored (implicitly all zero).
	blockOffset []int64
	size        int64
}

// Open parses a CISO header at p's current position. src must be the same
// underlying stream p reads from; Image.ReadAt pulls stored-block bytes
// directly from it rather than through p's cursor.
func Open(p binary.Parser, src binary.ReadAtSeeker) (*Image, error) {
	base, err := p.Position()
	if err != nil {
		return nil, err
	}

	magicBytes, err := p.ReadN(4)
	if err != nil {
		return nil, err
	}
	if got := loadLE32(magicBytes); got != magic {
		return nil, binary.NewParseError("ciso", "invalid magic %#08x", got)
	}

	blockSize, err := p.BU32()
	if err != nil {
		return nil, err
	}
	if blockSize == 0 || blockSize > maxBlockSize {
		return nil, binary.NewParseError("ciso", "invalid block size %d", blockSize)
	}

	present, err := p.ReadN(mapSize)
	if err != nil {
		return nil, err
	}

	if err := p.Seek(base + headerSize); err != nil {
		return nil, err
	}

	blockOffset := make([]int64, len(present))
	cursor := base + headerSize
	for i, b := range present {
		if b == 0 {
			blockOffset[i] = -1
			continue
		}
		blockOffset[i] = cursor
		cursor += int64(blockSize)
	}

	return &Image{
		src:         src,
		blockSize:   int64(blockSize),
		blockOffset: blockOffset,
		size:        int64(len(present)) * int64(blockSize),
	}, nil
}

// Size returns the logical (fully-expanded) length of the image.
func (img *Image) Size() (int64, error) { return img.size, nil }

// ReadAt fills buf with the logical contents of the image starting at off,
// zero-filling any bytes that fall within a block the CISO map marks as
// absent.
func (img *Image) ReadAt(buf []byte, off int64) (int, error) {
	if off < 0 || off >= img.size {
		return 0, io.EOF
	}

	n := 0
	for n < len(buf) {
		pos := off + int64(n)
		if pos >= img.size {
			return n, io.EOF
		}

		blockIdx := pos / img.blockSize
		blockOff := pos % img.blockSize
		if int(blockIdx) >= len(img.blockOffset) {
			return n, io.EOF
		}

		avail := img.blockSize - blockOff
		want := int64(len(buf) - n)
		if want > avail {
			want = avail
		}
		if pos+want > img.size {
			want = img.size - pos
		}

		physOff := img.blockOffset[blockIdx]
		if physOff < 0 {
			for i := int64(0); i < want; i++ {
				buf[n+int(i)] = 0
			}
		} else if _, err := img.src.ReadAt(buf[n:n+int(want)], physOff+blockOff); err != nil && err != io.EOF {
			return n, err
		}

		n += int(want)
	}
	return n, nil
}

func loadLE32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
