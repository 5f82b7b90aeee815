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
	"io"

	"github.com/icza/bitio"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

// Allocation guards against header-driven OOM from hostile images.
const (
	maxHunks      = 10_000_000        // ~200 GB of logical data
	maxPackedMap  = 100 * 1024 * 1024 // compressed V5 map
	maxHunkMemory = 64 * 1024 * 1024  // single hunk
)

// V5 map entry kinds. The first four select one of the header's codecs;
// the rest are references and run-length escapes resolved while the map is
// unpacked, so only codec 0-3, none, self and parent survive into mapEntry.
// readHunk does not resolve parent references.
const (
	mapTypeCodec0   = 0
	mapTypeCodec1   = 1
	mapTypeCodec2   = 2
	mapTypeCodec3   = 3
	mapTypeNone     = 4
	mapTypeSelf     = 5
	mapTypeParent   = 6
	mapTypeRLESmall = 7
	mapTypeRLELarge = 8
	mapTypeSelf0    = 9
	mapTypeSelf1    = 10
	mapTypeParSelf  = 11
	mapTypePar0     = 12
	mapTypePar1     = 13
)

// mapEntry locates one hunk: a file offset and compressed length for stored
// hunks, or the index of another hunk for self references.
type mapEntry struct {
	offset  uint64
	length  uint32
	mapType uint8
}

// hunkMap resolves hunk indices to decompressed data, caching the most
// recently used hunks so a sequence of small sector reads does not
// re-decompress the same hunk over and over.
type hunkMap struct {
	src     io.ReaderAt
	header  Header
	entries []mapEntry
	codecs  [4]decompressor

	cache map[uint32][]byte
}

const hunkCacheSize = 16

// newHunkMap unpacks the image's hunk map and prepares its codecs.
func newHunkMap(p binary.Parser, src io.ReaderAt, header Header) (*hunkMap, error) {
	hm := &hunkMap{
		src:    src,
		header: header,
		cache:  make(map[uint32][]byte),
	}

	if header.Version == 5 {
		for i, tag := range header.Compressors {
			if tag == 0 {
				continue
			}
			// An unsupported codec only matters if a hunk actually uses
			// it; readHunk reports it then.
			hm.codecs[i], _ = newDecompressor(tag, header.HunkBytes, header.UnitBytes)
		}
	}

	numHunks := header.NumHunks()
	if numHunks > maxHunks {
		return nil, binary.NewParseError("chd", "hunk count %d exceeds limit", numHunks)
	}
	if uint64(header.HunkBytes) > maxHunkMemory {
		return nil, binary.NewParseError("chd", "hunk size %d exceeds limit", header.HunkBytes)
	}
	hm.entries = make([]mapEntry, numHunks)

	var err error
	switch {
	case header.Version == 5 && header.IsCompressed():
		err = hm.unpackMapV5(p)
	case header.Version == 5:
		err = hm.readRawMapV5(p)
	default:
		err = hm.readMapV34(p)
	}
	if err != nil {
		return nil, err
	}
	return hm, nil
}

// unpackMapV5 decodes the compressed V5 hunk map: a 16-byte map header, a
// Huffman-coded run of per-hunk entry kinds, then bit-packed lengths and
// reference targets.
func (hm *hunkMap) unpackMapV5(p binary.Parser) error {
	if err := p.Seek(int64(hm.header.MapOffset)); err != nil {
		return err
	}

	packedLen, err := p.BU32()
	if err != nil {
		return err
	}
	if packedLen > maxPackedMap {
		return binary.NewParseError("chd", "packed map size %d exceeds limit", packedLen)
	}
	head, err := p.ReadN(12)
	if err != nil {
		return err
	}
	firstOffset := uint64(head[0])<<40 | uint64(head[1])<<32 | uint64(head[2])<<24 |
		uint64(head[3])<<16 | uint64(head[4])<<8 | uint64(head[5])
	// head[6:8] is the map CRC16, unchecked here.
	lengthBits := int(head[8])
	selfBits := int(head[9])
	parentBits := int(head[10])

	packed, err := p.ReadN(int(packedLen))
	if err != nil {
		return err
	}
	// The final entries may consume padding bits past the packed data;
	// feed the reader trailing zeros rather than surfacing a spurious EOF.
	packed = append(packed, make([]byte, 16)...)
	br := bitio.NewReader(bytes.NewReader(packed))

	huff, err := newHuffman(br, 16, 8)
	if err != nil {
		return err
	}

	// First pass: one entry kind per hunk, with two RLE escapes repeating
	// the previous kind.
	kinds := make([]uint8, len(hm.entries))
	var last uint8
	repeat := 0
	for i := range kinds {
		if repeat > 0 {
			kinds[i] = last
			repeat--
			continue
		}
		v, err := huff.decode(br)
		if err != nil {
			return err
		}
		switch v {
		case mapTypeRLESmall:
			kinds[i] = last
			n, err := huff.decode(br)
			if err != nil {
				return err
			}
			repeat = 2 + int(n)
		case mapTypeRLELarge:
			kinds[i] = last
			hi, err := huff.decode(br)
			if err != nil {
				return err
			}
			lo, err := huff.decode(br)
			if err != nil {
				return err
			}
			repeat = 2 + 16 + int(hi)<<4 + int(lo)
		default:
			kinds[i] = v
			last = v
		}
	}

	// Second pass: offsets and lengths. Stored hunks pack tightly from
	// firstOffset; references carry their target in selfBits/parentBits.
	cur := firstOffset
	var lastSelf uint64
	var lastParent uint64
	unitsPerHunk := uint64(hm.header.HunkBytes) / uint64(hm.header.UnitBytes)

	readBits := func(n int) (uint64, error) {
		if n == 0 {
			return 0, nil
		}
		v, err := br.ReadBits(byte(n))
		if err != nil {
			return 0, binary.NewParseError("chd", "packed map: %v", err)
		}
		return v, nil
	}

	for i := range hm.entries {
		e := mapEntry{mapType: kinds[i]}
		switch kinds[i] {
		case mapTypeCodec0, mapTypeCodec1, mapTypeCodec2, mapTypeCodec3:
			l, err := readBits(lengthBits)
			if err != nil {
				return err
			}
			e.length = uint32(l)
			e.offset = cur
			cur += uint64(e.length)
			if _, err := readBits(16); err != nil { // per-hunk CRC16
				return err
			}
		case mapTypeNone:
			e.length = hm.header.HunkBytes
			e.offset = cur
			cur += uint64(e.length)
			if _, err := readBits(16); err != nil {
				return err
			}
		case mapTypeSelf:
			if lastSelf, err = readBits(selfBits); err != nil {
				return err
			}
			e.offset = lastSelf
		case mapTypeSelf0:
			e.mapType = mapTypeSelf
			e.offset = lastSelf
		case mapTypeSelf1:
			lastSelf++
			e.mapType = mapTypeSelf
			e.offset = lastSelf
		case mapTypeParent:
			if lastParent, err = readBits(parentBits); err != nil {
				return err
			}
			e.offset = lastParent
		case mapTypeParSelf:
			lastParent = uint64(i) * unitsPerHunk
			e.mapType = mapTypeParent
			e.offset = lastParent
		case mapTypePar0:
			e.mapType = mapTypeParent
			e.offset = lastParent
		case mapTypePar1:
			lastParent += unitsPerHunk
			e.mapType = mapTypeParent
			e.offset = lastParent
		default:
			return binary.NewParseError("chd", "map entry %d: unknown kind %d", i, kinds[i])
		}
		hm.entries[i] = e
	}
	return nil
}

// readRawMapV5 reads the uncompressed V5 map: one 4-byte word per hunk
// giving the hunk's file offset in hunk-size units, 0 for an absent hunk.
func (hm *hunkMap) readRawMapV5(p binary.Parser) error {
	if err := p.Seek(int64(hm.header.MapOffset)); err != nil {
		return err
	}
	for i := range hm.entries {
		word, err := p.BU32()
		if err != nil {
			return err
		}
		hm.entries[i] = mapEntry{
			mapType: mapTypeNone,
			length:  hm.header.HunkBytes,
			offset:  uint64(word) * uint64(hm.header.HunkBytes),
		}
	}
	return nil
}

// readMapV34 reads the uncompressed V3/V4 map: 16 bytes per hunk of offset,
// CRC, length and flags. Flag bit 0 marks a compressed hunk, decoded with
// the header's single legacy codec (zlib).
func (hm *hunkMap) readMapV34(p binary.Parser) error {
	if err := p.Seek(int64(hm.header.MapOffset)); err != nil {
		return err
	}
	for i := range hm.entries {
		offset, err := p.BU64()
		if err != nil {
			return err
		}
		if _, err := p.ReadN(4); err != nil { // CRC32
			return err
		}
		length, err := p.BU16()
		if err != nil {
			return err
		}
		flags, err := p.BU16()
		if err != nil {
			return err
		}

		e := mapEntry{offset: offset, length: uint32(length), mapType: mapTypeNone}
		if flags&1 != 0 {
			e.mapType = mapTypeCodec0
		}
		hm.entries[i] = e
	}

	if hm.header.IsCompressed() {
		hm.codecs[0], _ = newDecompressor(codecZlib, hm.header.HunkBytes, hm.header.UnitBytes)
	}
	return nil
}

// readHunk returns hunk index's decompressed bytes. The returned slice is
// shared with the cache and must not be modified.
func (hm *hunkMap) readHunk(index uint32) ([]byte, error) {
	if index >= uint32(len(hm.entries)) {
		return nil, binary.NewParseError("chd", "hunk %d out of range (%d hunks)", index, len(hm.entries))
	}
	if data, ok := hm.cache[index]; ok {
		return data, nil
	}

	entry := hm.entries[index]
	var data []byte
	var err error
	switch entry.mapType {
	case mapTypeNone:
		data = make([]byte, hm.header.HunkBytes)
		if _, err = hm.src.ReadAt(data, int64(entry.offset)); err != nil {
			err = binary.NewIOError("chd", err)
		}
	case mapTypeCodec0, mapTypeCodec1, mapTypeCodec2, mapTypeCodec3:
		data, err = hm.decompressHunk(entry)
	case mapTypeSelf:
		return hm.readHunk(uint32(entry.offset))
	default:
		err = binary.NewDecompressionError("chd", "hunk %d: unsupported map entry kind %d", index, entry.mapType)
	}
	if err != nil {
		return nil, err
	}

	if len(hm.cache) >= hunkCacheSize {
		hm.cache = make(map[uint32][]byte)
	}
	hm.cache[index] = data
	return data, nil
}

func (hm *hunkMap) decompressHunk(entry mapEntry) ([]byte, error) {
	codec := hm.codecs[entry.mapType]
	if codec == nil {
		tag := uint32(0)
		if hm.header.Version == 5 {
			tag = hm.header.Compressors[entry.mapType]
		}
		return nil, binary.NewDecompressionError("chd", "codec %s not supported", tagString(tag))
	}

	packed := make([]byte, entry.length)
	if _, err := hm.src.ReadAt(packed, int64(entry.offset)); err != nil {
		return nil, binary.NewIOError("chd", err)
	}

	dst := make([]byte, hm.header.HunkBytes)
	n, err := codec.decompress(dst, packed)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
