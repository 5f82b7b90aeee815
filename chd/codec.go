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
	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

// Codec tags, the fourcc values a V5 header lists in its compressor slots.
const (
	codecZlib   uint32 = 0x7a6c6962 // "zlib"
	codecLZMA   uint32 = 0x6c7a6d61 // "lzma"
	codecZstd   uint32 = 0x7a737464 // "zstd"
	codecFLAC   uint32 = 0x666c6163 // "flac"
	codecCDZlib uint32 = 0x63647a6c // "cdzl"
	codecCDLZMA uint32 = 0x63646c7a // "cdlz"
	codecCDZstd uint32 = 0x63647a73 // "cdzs"
	codecCDFLAC uint32 = 0x6364666c // "cdfl"
)

// CD frame geometry. A stored CD frame is the 2352-byte sector followed by
// 96 bytes of subchannel data.
const (
	cdSectorBytes = 2352
	cdSubBytes    = 96
	cdFrameBytes  = cdSectorBytes + cdSubBytes
)

// decompressor unpacks one hunk's stored bytes. dst is pre-sized to the
// decompressed hunk length; the return value is how much of it was filled.
type decompressor interface {
	decompress(dst, src []byte) (int, error)
}

// newDecompressor builds the decompressor for a codec tag, or an error for
// a tag this package does not carry.
func newDecompressor(tag, hunkBytes, unitBytes uint32) (decompressor, error) {
	if unitBytes == 0 {
		unitBytes = cdFrameBytes
	}
	frames := int(hunkBytes / unitBytes)
	switch tag {
	case codecZlib:
		return zlibCodec{}, nil
	case codecLZMA:
		return lzmaCodec{dictHint: hunkBytes}, nil
	case codecZstd:
		return &zstdCodec{}, nil
	case codecFLAC:
		return flacCodec{}, nil
	case codecCDZlib:
		return &cdCodec{base: zlibCodec{}, frames: frames}, nil
	case codecCDLZMA:
		return &cdCodec{base: lzmaCodec{dictHint: uint32(frames * cdSectorBytes)}, frames: frames}, nil
	case codecCDZstd:
		return &cdZstdCodec{frames: frames}, nil
	case codecCDFLAC:
		return &cdFLACCodec{frames: frames}, nil
	default:
		return nil, binary.NewDecompressionError("chd", "unsupported codec %s", tagString(tag))
	}
}

// tagString renders a codec tag as its fourcc for error messages.
func tagString(tag uint32) string {
	if tag == 0 {
		return "none"
	}
	return string([]byte{byte(tag >> 24), byte(tag >> 16), byte(tag >> 8), byte(tag)})
}

// cdSync is the 12-byte sync pattern opening every raw CD data sector.
var cdSync = [12]byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

// cdCodec handles the shared CD hunk framing used by the cdzl and cdlz
// codecs: an ECC-stripped bitmap, a 2- or 3-byte compressed length, the
// base-compressed sector payload, then a deflate-compressed subchannel
// stream. Sectors and subchannel bytes are re-interleaved frame by frame
// into the destination hunk.
type cdCodec struct {
	base   decompressor
	frames int
}

func (c *cdCodec) decompress(dst, src []byte) (int, error) {
	frames := c.frames
	if frames == 0 {
		frames = len(dst) / cdFrameBytes
	}

	lenBytes := 2
	if len(dst) >= 65536 {
		lenBytes = 3
	}
	eccBytes := (frames + 7) / 8
	headBytes := eccBytes + lenBytes
	if len(src) < headBytes {
		return 0, binary.NewDecompressionError("chd", "cd hunk header truncated: %d bytes", len(src))
	}

	eccMap := src[:eccBytes]
	baseLen := 0
	for _, b := range src[eccBytes:headBytes] {
		baseLen = baseLen<<8 | int(b)
	}
	if headBytes+baseLen > len(src) {
		return 0, binary.NewDecompressionError("chd", "cd hunk base length %d overruns %d stored bytes", baseLen, len(src))
	}

	sectors := make([]byte, frames*cdSectorBytes)
	n, err := c.base.decompress(sectors, src[headBytes:headBytes+baseLen])
	if err != nil {
		return 0, err
	}

	sub := inflateOrZero(src[headBytes+baseLen:], frames*cdSubBytes)

	out := 0
	for i := range frames {
		if (i+1)*cdSectorBytes <= n {
			copy(dst[out:], sectors[i*cdSectorBytes:(i+1)*cdSectorBytes])
		}
		// A set ECC bit means the sector's sync header and ECC were
		// stripped before compression; restore the sync pattern.
		if eccMap[i/8]&(1<<(i%8)) != 0 {
			copy(dst[out:], cdSync[:])
		}
		out += cdSectorBytes
		copy(dst[out:], sub[i*cdSubBytes:(i+1)*cdSubBytes])
		out += cdSubBytes
	}
	return out, nil
}
