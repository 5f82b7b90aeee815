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

// Package chd reads CHD (Compressed Hunks of Data) containers, the MAME
// disc-image format many GameCube and Wii rips are archived in. A CHD
// stores the disc in fixed-size hunks, each independently compressed with
// one of up to four codecs; this package unpacks hunks on demand and
// exposes the disc's data track as a binary.ReadAtSeeker, so a CHD-wrapped
// image feeds dol.Parse, rel.Parse or gcm.Open exactly like a plain file.
package chd

import (
	"io"
	"os"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

// Image is an open CHD container.
type Image struct {
	closer io.Closer
	header Header
	hunks  *hunkMap
	tracks []Track
}

// Open opens the CHD file at path.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, binary.NewIOError("chd", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, binary.NewIOError("chd", err)
	}

	img, err := New(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	img.closer = f
	return img, nil
}

// New parses a CHD container from any sized random-access source.
func New(src io.ReaderAt, size int64) (*Image, error) {
	p := binary.NewFileParser(src, size)

	header, err := readHeader(p)
	if err != nil {
		return nil, err
	}
	hunks, err := newHunkMap(p, src, header)
	if err != nil {
		return nil, err
	}

	img := &Image{header: header, hunks: hunks}
	if header.MetaOffset > 0 {
		// Track metadata is advisory: without it the whole image is
		// treated as one data track, which is exactly right for
		// createdvd-style GameCube/Wii rips.
		img.tracks, _ = readTracks(p, header.MetaOffset)
	}
	return img, nil
}

// Close releases the underlying file, if Open provided it.
func (img *Image) Close() error {
	if img.closer != nil {
		return img.closer.Close()
	}
	return nil
}

// Header returns the parsed container header.
func (img *Image) Header() Header { return img.header }

// Tracks returns the CD track table, empty for DVD-style images.
func (img *Image) Tracks() []Track { return img.tracks }

// Size returns the logical (decompressed) size of the raw stored data.
func (img *Image) Size() int64 { return int64(img.header.LogicalBytes) }

// DataTrack returns the first data track's contents as 2048-byte logical
// sectors. For images without track metadata the whole container is the
// data track.
func (img *Image) DataTrack() *Stream {
	s := &Stream{img: img}
	for i := range img.tracks {
		t := &img.tracks[i]
		if t.IsData() {
			s.startSector = int64(t.StartFrame + t.Pregap)
			s.size = int64(t.Frames) * logicalSectorBytes
			return s
		}
	}
	s.size = img.logicalSectorCount() * logicalSectorBytes
	return s
}

func (img *Image) logicalSectorCount() int64 {
	unit := int64(img.header.UnitBytes)
	if unit >= logicalSectorBytes {
		return int64(img.header.LogicalBytes) / unit
	}
	return int64(img.header.LogicalBytes) / logicalSectorBytes
}

// logicalSectorBytes is the user-data portion of a sector, the granularity
// downstream filesystem and boot-header parsers expect.
const logicalSectorBytes = 2048

// Stream serves a data track as a contiguous run of 2048-byte logical
// sectors and satisfies binary.ReadAtSeeker.
type Stream struct {
	img         *Image
	startSector int64
	size        int64
}

// Size returns the track's logical length in bytes.
func (s *Stream) Size() (int64, error) { return s.size, nil }

// ReadAt fills buf from the track's logical contents starting at off,
// unpacking whichever hunks the covered sectors live in.
func (s *Stream) ReadAt(buf []byte, off int64) (int, error) {
	if off < 0 || off >= s.size {
		return 0, io.EOF
	}

	unit := int64(s.img.header.UnitBytes)
	sectorsPerHunk := int64(s.img.header.HunkBytes) / unit
	if sectorsPerHunk == 0 {
		return 0, binary.NewParseError("chd", "unit size %d exceeds hunk size %d", unit, s.img.header.HunkBytes)
	}

	n := 0
	for n < len(buf) {
		pos := off + int64(n)
		if pos >= s.size {
			return n, io.EOF
		}

		sector := s.startSector + pos/logicalSectorBytes
		inSector := pos % logicalSectorBytes

		hunk, err := s.img.hunks.readHunk(uint32(sector / sectorsPerHunk))
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		start := (sector%sectorsPerHunk)*unit + dataOffset(hunk, (sector%sectorsPerHunk)*unit) + inSector
		want := logicalSectorBytes - inSector
		if want > int64(len(buf)-n) {
			want = int64(len(buf) - n)
		}
		if remain := s.size - pos; want > remain {
			want = remain
		}
		if start >= int64(len(hunk)) {
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		if start+want > int64(len(hunk)) {
			want = int64(len(hunk)) - start
		}
		if want <= 0 {
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}

		copy(buf[n:], hunk[start:start+want])
		n += int(want)
	}
	return n, nil
}

// dataOffset locates the user data within one stored sector. DVD-style
// units are bare user data; CD-style raw sectors open with a 12-byte sync
// pattern, putting mode 1 user data at +16 and mode 2 form 1 data at +24.
func dataOffset(hunk []byte, sectorStart int64) int64 {
	if sectorStart+16 > int64(len(hunk)) {
		return 0
	}
	sync := hunk[sectorStart] == 0x00 && hunk[sectorStart+1] == 0xff && hunk[sectorStart+11] == 0x00
	if !sync {
		return 0
	}
	if hunk[sectorStart+15] == 2 {
		return 24
	}
	return 16
}
