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

package binary

import (
	stdbinary "encoding/binary"
	"io"
	"strings"
)

// Reader consumes bytes from a cursor that advances as it is read, the way
// every format parser in this module pulls its fields.
type Reader interface {
	// ReadFull fills buf entirely or returns an error.
	ReadFull(buf []byte) error
	// ReadN reads and returns exactly n bytes.
	ReadN(n int) ([]byte, error)
}

// Seeker repositions a Reader's cursor.
type Seeker interface {
	// Seek moves the cursor to an absolute byte offset.
	Seek(pos int64) error
	// Position returns the cursor's current absolute byte offset.
	Position() (int64, error)
}

// Parser is the composed interface every format decoder in this module is
// written against: a seekable, endian-aware byte cursor. dol.Parse,
// rel.Parse, gcm.Open and friends all accept a Parser so that any
// io.ReaderAt-backed source — a plain file, a yaz0.Stream, a chd.Stream, an
// archive member buffered into memory — can be decoded without the format
// package knowing where its bytes actually come from.
type Parser interface {
	Reader
	Seeker

	// Size returns the total size of the underlying stream in bytes.
	Size() (int64, error)

	// U8 reads a single byte.
	U8() (uint8, error)
	// U16 reads a native (little-endian) uint16. Most GameCube/Wii
	// structures are big-endian; in this module only the RARC magic check
	// reads a native-endian word (through U32).
	U16() (uint16, error)
	// U32 reads a native (little-endian) uint32.
	U32() (uint32, error)
	// BU16 reads a big-endian uint16.
	BU16() (uint16, error)
	// BU32 reads a big-endian uint32.
	BU32() (uint32, error)
	// BU64 reads a big-endian uint64.
	BU64() (uint64, error)
	// LU16 reads a little-endian uint16.
	LU16() (uint16, error)
	// LU32 reads a little-endian uint32.
	LU32() (uint32, error)
}

// ReadAtSeeker is the minimal capability a Parser needs from its backing
// stream: sized, non-sequential byte access. chd.Stream and yaz0.Stream
// satisfy it; NewFileParser adapts an *os.File or any other io.ReaderAt of
// known size.
type ReadAtSeeker interface {
	io.ReaderAt
	Size() (int64, error)
}

// streamParser implements Parser over any ReadAtSeeker, tracking the cursor
// itself rather than relying on the underlying stream's own position.
type streamParser struct {
	src ReadAtSeeker
	pos int64
}

// NewParser wraps src in a Parser with its cursor at offset 0.
func NewParser(src ReadAtSeeker) Parser {
	return &streamParser{src: src}
}

func (p *streamParser) ReadFull(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	n, err := p.src.ReadAt(buf, p.pos)
	p.pos += int64(n)
	if err != nil {
		if err == io.EOF && n == len(buf) {
			return nil
		}
		return NewIOError("read", err)
	}
	return nil
}

func (p *streamParser) ReadN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := p.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *streamParser) Seek(pos int64) error {
	if pos < 0 {
		return NewParseError("seek", "negative seek position %d", pos)
	}
	size, err := p.src.Size()
	if err != nil {
		return NewIOError("size", err)
	}
	if pos > size {
		return NewParseError("seek", "seek position %d past end of stream (size %d)", pos, size)
	}
	p.pos = pos
	return nil
}

func (p *streamParser) Position() (int64, error) {
	return p.pos, nil
}

func (p *streamParser) Size() (int64, error) {
	size, err := p.src.Size()
	if err != nil {
		return 0, NewIOError("size", err)
	}
	return size, nil
}

func (p *streamParser) U8() (uint8, error) {
	buf, err := p.ReadN(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (p *streamParser) U16() (uint16, error) { return p.LU16() }
func (p *streamParser) U32() (uint32, error) { return p.LU32() }

func (p *streamParser) BU16() (uint16, error) {
	buf, err := p.ReadN(2)
	if err != nil {
		return 0, err
	}
	return stdbinary.BigEndian.Uint16(buf), nil
}

func (p *streamParser) BU32() (uint32, error) {
	buf, err := p.ReadN(4)
	if err != nil {
		return 0, err
	}
	return stdbinary.BigEndian.Uint32(buf), nil
}

func (p *streamParser) BU64() (uint64, error) {
	buf, err := p.ReadN(8)
	if err != nil {
		return 0, err
	}
	return stdbinary.BigEndian.Uint64(buf), nil
}

func (p *streamParser) LU16() (uint16, error) {
	buf, err := p.ReadN(2)
	if err != nil {
		return 0, err
	}
	return stdbinary.LittleEndian.Uint16(buf), nil
}

func (p *streamParser) LU32() (uint32, error) {
	buf, err := p.ReadN(4)
	if err != nil {
		return 0, err
	}
	return stdbinary.LittleEndian.Uint32(buf), nil
}

// fileReadAtSeeker adapts an *os.File (or any io.ReaderAt with a known
// size) to ReadAtSeeker.
type fileReadAtSeeker struct {
	io.ReaderAt
	size int64
}

func (f fileReadAtSeeker) Size() (int64, error) { return f.size, nil }

// NewFileParser wraps a ReaderAt of known size in a Parser.
func NewFileParser(r io.ReaderAt, size int64) Parser {
	return NewParser(fileReadAtSeeker{ReaderAt: r, size: size})
}

// CleanString converts a fixed-width field read from a disc or executable
// header to a string, trimming at the first null byte and any surrounding
// whitespace. Game IDs, internal names, and apploader dates are all
// null-padded ASCII fields in this shape.
func CleanString(data []byte) string {
	end := len(data)
	for i, c := range data {
		if c == 0 {
			end = i
			break
		}
	}
	return strings.TrimSpace(string(data[:end]))
}
