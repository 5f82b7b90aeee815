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
	"github.com/klauspost/compress/zstd"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

// zstdCodec unpacks "zstd" hunks. The decoder is built on first use and
// reused across hunks.
type zstdCodec struct {
	dec *zstd.Decoder
}

func (z *zstdCodec) decoder() (*zstd.Decoder, error) {
	if z.dec == nil {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, binary.NewDecompressionError("chd", "zstd: %v", err)
		}
		z.dec = dec
	}
	return z.dec, nil
}

func (z *zstdCodec) decompress(dst, src []byte) (int, error) {
	dec, err := z.decoder()
	if err != nil {
		return 0, err
	}
	out, err := dec.DecodeAll(src, dst[:0])
	if err != nil {
		return 0, binary.NewDecompressionError("chd", "zstd: %v", err)
	}
	if len(out) > len(dst) {
		return 0, binary.NewDecompressionError("chd", "zstd: hunk inflates to %d bytes, expected at most %d", len(out), len(dst))
	}
	if len(out) > 0 && &out[0] != &dst[0] {
		copy(dst, out)
	}
	return len(out), nil
}

// cdZstdCodec unpacks "cdzs" hunks. Unlike the other CD codecs the framing
// is a plain 4-byte big-endian length of the zstd sector payload, followed
// by the deflate-compressed subchannel stream.
type cdZstdCodec struct {
	zstdCodec
	frames int
}

func (c *cdZstdCodec) decompress(dst, src []byte) (int, error) {
	if len(src) < 4 {
		return 0, binary.NewDecompressionError("chd", "cdzs hunk truncated: %d bytes", len(src))
	}
	sectorLen := int(src[0])<<24 | int(src[1])<<16 | int(src[2])<<8 | int(src[3])
	if sectorLen > len(src)-4 {
		return 0, binary.NewDecompressionError("chd", "cdzs sector length %d overruns %d stored bytes", sectorLen, len(src))
	}

	frames := c.frames
	if frames == 0 {
		frames = len(dst) / cdFrameBytes
	}

	sectors := make([]byte, frames*cdSectorBytes)
	n, err := c.zstdCodec.decompress(sectors, src[4:4+sectorLen])
	if err != nil {
		return 0, err
	}
	sub := inflateOrZero(src[4+sectorLen:], frames*cdSubBytes)

	out := 0
	for i := range frames {
		if (i+1)*cdSectorBytes <= n {
			copy(dst[out:], sectors[i*cdSectorBytes:(i+1)*cdSectorBytes])
		}
		out += cdSectorBytes
		copy(dst[out:], sub[i*cdSubBytes:(i+1)*cdSubBytes])
		out += cdSubBytes
	}
	return out, nil
}
