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

// magic is the 8 ASCII bytes "MComprHD" every CHD file begins with.
var magic = [8]byte{'M', 'C', 'o', 'm', 'p', 'r', 'H', 'D'}

const (
	headerSizeV3 = 120
	headerSizeV4 = 108
	headerSizeV5 = 124
)

// Header carries the fields common to CHD versions 3 through 5. V5 is what
// chdman has produced for over a decade and is the layout GameCube and Wii
// rips use; V3/V4 are retained for older archives.
type Header struct {
	Version      uint32
	LogicalBytes uint64 // total uncompressed size
	MapOffset    uint64 // absolute offset of the hunk map
	MetaOffset   uint64 // absolute offset of the first metadata entry, 0 if none
	HunkBytes    uint32 // decompressed bytes per hunk
	UnitBytes    uint32 // bytes per storage unit (sector)

	// V5 only: up to four codec tags, in priority order. All zero means
	// the image is stored uncompressed.
	Compressors [4]uint32

	// V3/V4 only.
	Flags       uint32
	Compression uint32
	TotalHunks  uint32
}

// readHeader parses the CHD header at p's current position.
func readHeader(p binary.Parser) (Header, error) {
	var h Header

	magicBytes, err := p.ReadN(8)
	if err != nil {
		return h, err
	}
	for i, c := range magic {
		if magicBytes[i] != c {
			return h, binary.NewParseError("chd", "invalid magic %q", magicBytes)
		}
	}

	headerSize, err := p.BU32()
	if err != nil {
		return h, err
	}
	if h.Version, err = p.BU32(); err != nil {
		return h, err
	}

	switch h.Version {
	case 5:
		if headerSize < headerSizeV5 {
			return h, binary.NewParseError("chd", "V5 header truncated: %d bytes", headerSize)
		}
		err = readHeaderV5(p, &h)
	case 4:
		if headerSize < headerSizeV4 {
			return h, binary.NewParseError("chd", "V4 header truncated: %d bytes", headerSize)
		}
		err = readHeaderV34(p, &h, uint64(headerSize))
	case 3:
		if headerSize < headerSizeV3 {
			return h, binary.NewParseError("chd", "V3 header truncated: %d bytes", headerSize)
		}
		err = readHeaderV34(p, &h, uint64(headerSize))
	default:
		return h, binary.NewParseError("chd", "unsupported version %d", h.Version)
	}
	return h, err
}

// readHeaderV5 reads the V5 fields following magic/size/version: four codec
// tags, logical size, map and metadata offsets, hunk and unit sizes, then
// three SHA1 digests this package has no use for.
func readHeaderV5(p binary.Parser, h *Header) error {
	var err error
	for i := range h.Compressors {
		if h.Compressors[i], err = p.BU32(); err != nil {
			return err
		}
	}
	if h.LogicalBytes, err = p.BU64(); err != nil {
		return err
	}
	if h.MapOffset, err = p.BU64(); err != nil {
		return err
	}
	if h.MetaOffset, err = p.BU64(); err != nil {
		return err
	}
	if h.HunkBytes, err = p.BU32(); err != nil {
		return err
	}
	if h.UnitBytes, err = p.BU32(); err != nil {
		return err
	}
	if h.HunkBytes == 0 || h.UnitBytes == 0 {
		return binary.NewParseError("chd", "zero hunk size (%d) or unit size (%d)", h.HunkBytes, h.UnitBytes)
	}
	// Raw SHA1, SHA1, parent SHA1: 60 bytes, skipped.
	_, err = p.ReadN(60)
	return err
}

// readHeaderV34 reads the V3/V4 fields. Both versions share a prefix of
// flags, compression, hunk count, logical size and metadata offset; they
// differ only in where hunk-bytes sits and in the digests around it. Neither
// stores a unit size or a map offset: units default to full CD frames and
// the map follows the header directly.
func readHeaderV34(p binary.Parser, h *Header, headerSize uint64) error {
	var err error
	if h.Flags, err = p.BU32(); err != nil {
		return err
	}
	if h.Compression, err = p.BU32(); err != nil {
		return err
	}
	if h.TotalHunks, err = p.BU32(); err != nil {
		return err
	}
	if h.LogicalBytes, err = p.BU64(); err != nil {
		return err
	}
	if h.MetaOffset, err = p.BU64(); err != nil {
		return err
	}

	if h.Version == 3 {
		// MD5 and parent MD5 precede the hunk size in V3.
		if _, err = p.ReadN(32); err != nil {
			return err
		}
	}
	if h.HunkBytes, err = p.BU32(); err != nil {
		return err
	}
	if h.HunkBytes == 0 {
		return binary.NewParseError("chd", "zero hunk size")
	}

	h.UnitBytes = cdFrameBytes
	h.MapOffset = headerSize
	return nil
}

// NumHunks returns the number of hunks in the image.
func (h *Header) NumHunks() uint32 {
	if h.TotalHunks > 0 {
		return h.TotalHunks
	}
	if h.HunkBytes == 0 {
		return 0
	}
	return uint32((h.LogicalBytes + uint64(h.HunkBytes) - 1) / uint64(h.HunkBytes))
}

// IsCompressed reports whether hunks are stored through a codec rather than
// raw.
func (h *Header) IsCompressed() bool {
	if h.Version == 5 {
		return h.Compressors[0] != 0
	}
	return h.Compression != 0
}
