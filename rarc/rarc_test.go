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

package rarc_test

import (
	"bytes"
	"testing"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
	"github.com/zaparoo-fmt/gcbin/rarc"
)

// rarcHash computes RARC's name hash: an unsigned 16-bit accumulator that
// wraps on overflow.
func rarcHash(name string) uint16 {
	var h uint16
	for i := 0; i < len(name); i++ {
		h = h*3 + uint16(name[i])
	}
	return h
}

type archiveBuilder struct {
	buf bytes.Buffer
}

func (b *archiveBuilder) bu32(v uint32) {
	b.buf.WriteByte(byte(v >> 24))
	b.buf.WriteByte(byte(v >> 16))
	b.buf.WriteByte(byte(v >> 8))
	b.buf.WriteByte(byte(v))
}

func (b *archiveBuilder) bu16(v uint16) {
	b.buf.WriteByte(byte(v >> 8))
	b.buf.WriteByte(byte(v))
}

// buildArchive assembles a two-level RARC archive:
//
//	root/
//	  a        (file, "hello")
//	  sub/
//	    .      (current-directory pseudo-entry)
//	    ..     (parent-directory pseudo-entry)
//	    b      (file, "xyz")
func buildArchive() []byte {
	const (
		headerLength = 0x20
		nodeOffset   = 0x20 // relative to sectionBase
		nodeCount    = 2
		dirOffset    = 0x40 // relative to sectionBase
		dirCount     = 5
		stringOffset = 0xA4 // relative to sectionBase
		stringLength = 13
		fileOffset   = 0xB1 // relative to sectionBase
	)

	var b archiveBuilder

	// Outer header.
	b.buf.WriteString("RARC")
	b.bu32(0xD9)          // file_length (total size, informational)
	b.bu32(headerLength)  // header_length
	b.bu32(fileOffset)    // file_data_offset (relative to sectionBase)
	b.bu32(0xD9)          // file_length again
	b.bu32(0)             // unknown
	b.bu32(0)             // unknown
	b.bu32(0)             // unknown

	// Data header.
	b.bu32(nodeCount)
	b.bu32(nodeOffset)
	b.bu32(dirCount)
	b.bu32(dirOffset)
	b.bu32(stringLength)
	b.bu32(stringOffset)
	b.bu16(2) // file_count
	b.bu16(0) // unknown
	b.bu32(0) // unknown

	if b.buf.Len() != headerLength+0x20 {
		panic("header layout drifted")
	}

	rootHash := rarcHash("a")
	subHash := rarcHash("sub")

	// Node table (16 bytes each): identifier, name_offset, name_hash,
	// count, first_directory_index.
	b.bu32(0) // identifier
	b.bu32(0) // name_offset (points at "a", unused for matching)
	b.bu16(rootHash)
	b.bu16(2) // count
	b.bu32(0) // first directory index

	b.bu32(0) // identifier
	b.bu32(2) // name_offset ("sub")
	b.bu16(subHash)
	b.bu16(3) // count
	b.bu32(2) // first directory index

	// Directory table (20 bytes each): index, name_hash, attr, name_offset,
	// data_offset, data_length, pad.
	b.bu16(0) // index != 0xFFFF => file
	b.bu16(rarcHash("a"))
	b.bu16(0x1100)
	b.bu16(0) // name_offset("a")
	b.bu32(0) // data_offset (relative to dataBase)
	b.bu32(5) // data_length ("hello")
	b.bu32(0)

	b.bu16(0xFFFF) // directory marker
	b.bu16(subHash)
	b.bu16(0x0200)
	b.bu16(2) // name_offset ("sub")
	b.bu32(0)
	b.bu32(0)
	b.bu32(0)

	b.bu16(0xFFFF)
	b.bu16(0)
	b.bu16(0x0200)
	b.bu16(6) // name_offset (".")
	b.bu32(0)
	b.bu32(0)
	b.bu32(0)

	b.bu16(0xFFFF)
	b.bu16(0)
	b.bu16(0x0200)
	b.bu16(8) // name_offset ("..")
	b.bu32(0)
	b.bu32(0)
	b.bu32(0)

	b.bu16(0) // file
	b.bu16(rarcHash("b"))
	b.bu16(0x1100)
	b.bu16(11) // name_offset ("b")
	b.bu32(5)  // data_offset (relative to dataBase, after "hello")
	b.bu32(3)  // data_length ("xyz")
	b.bu32(0)

	// String table: "a\0" "sub\0" ".\0" "..\0" "b\0"
	b.buf.WriteString("a\x00")
	b.buf.WriteString("sub\x00")
	b.buf.WriteString(".\x00")
	b.buf.WriteString("..\x00")
	b.buf.WriteString("b\x00")

	// File data section.
	b.buf.WriteString("hello")
	b.buf.WriteString("xyz")

	return b.buf.Bytes()
}

func TestOpenAndWalk(t *testing.T) {
	t.Parallel()

	data := buildArchive()
	p := binary.NewFileParser(bytes.NewReader(data), int64(len(data)))

	r, err := rarc.Open(p)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	it := r.Nodes()
	var kinds []rarc.NodeKind
	var names []string
	var sizes []uint32
	for it.Next() {
		n := it.Node()
		kinds = append(kinds, n.Kind)
		names = append(names, n.Name.Name)
		sizes = append(sizes, n.Size)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("walk: %v", err)
	}

	wantKinds := []rarc.NodeKind{
		rarc.DirectoryBegin,
		rarc.File,
		rarc.DirectoryBegin,
		rarc.CurrentDirectory,
		rarc.ParentDirectory,
		rarc.File,
		rarc.DirectoryEnd,
		rarc.DirectoryEnd,
	}
	if len(kinds) != len(wantKinds) {
		t.Fatalf("got %d nodes, want %d: %v", len(kinds), len(wantKinds), kinds)
	}
	for i, want := range wantKinds {
		if kinds[i] != want {
			t.Errorf("node %d kind = %v, want %v", i, kinds[i], want)
		}
	}

	if names[1] != "a" || sizes[1] != 5 {
		t.Errorf("node 1 = %q/%d, want a/5", names[1], sizes[1])
	}
	if names[2] != "sub" {
		t.Errorf("node 2 name = %q, want sub", names[2])
	}
	if names[5] != "b" || sizes[5] != 3 {
		t.Errorf("node 5 = %q/%d, want b/3", names[5], sizes[5])
	}
}

func TestFileData(t *testing.T) {
	t.Parallel()

	data := buildArchive()
	p := binary.NewFileParser(bytes.NewReader(data), int64(len(data)))

	r, err := rarc.Open(p)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	it := r.Nodes()
	var fileNodes []rarc.Node
	for it.Next() {
		if n := it.Node(); n.Kind == rarc.File {
			fileNodes = append(fileNodes, n)
		}
	}
	if err := it.Err(); err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(fileNodes) != 2 {
		t.Fatalf("found %d file nodes, want 2", len(fileNodes))
	}

	got, err := r.FileData(fileNodes[0].Offset, fileNodes[0].Size)
	if err != nil {
		t.Fatalf("FileData: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("file %q data = %q, want %q", fileNodes[0].Name, got, "hello")
	}

	got, err = r.FileData(fileNodes[1].Offset, fileNodes[1].Size)
	if err != nil {
		t.Fatalf("FileData: %v", err)
	}
	if string(got) != "xyz" {
		t.Errorf("file %q data = %q, want %q", fileNodes[1].Name, got, "xyz")
	}
}

// buildArchiveWithEmptyDir assembles a RARC archive where the root contains
// a file "a" and a sibling directory "empty" with zero children.
func buildArchiveWithEmptyDir() []byte {
	const (
		headerLength = 0x20
		nodeOffset   = 0x20
		nodeCount    = 2
		dirOffset    = 0x40
		dirCount     = 2
		stringOffset = 0x68
		stringLength = 8
		fileOffset   = 0x70
	)

	var b archiveBuilder

	b.buf.WriteString("RARC")
	b.bu32(0x95)
	b.bu32(headerLength)
	b.bu32(fileOffset)
	b.bu32(0x95)
	b.bu32(0)
	b.bu32(0)
	b.bu32(0)

	b.bu32(nodeCount)
	b.bu32(nodeOffset)
	b.bu32(dirCount)
	b.bu32(dirOffset)
	b.bu32(stringLength)
	b.bu32(stringOffset)
	b.bu16(1) // file_count
	b.bu16(0)
	b.bu32(0)

	if b.buf.Len() != headerLength+0x20 {
		panic("header layout drifted")
	}

	rootHash := rarcHash("a")
	emptyHash := rarcHash("empty")

	// Node table.
	b.bu32(0)
	b.bu32(0) // name_offset ("a", unused for matching)
	b.bu16(rootHash)
	b.bu16(2) // count: file "a" + folder "empty"
	b.bu32(0) // first directory index

	b.bu32(0)
	b.bu32(2) // name_offset ("empty")
	b.bu16(emptyHash)
	b.bu16(0) // count: no children
	b.bu32(0) // first directory index: points at directory entry 0, never read

	// Directory table.
	b.bu16(0) // file
	b.bu16(rarcHash("a"))
	b.bu16(0x1100)
	b.bu16(0) // name_offset ("a")
	b.bu32(0)
	b.bu32(5) // "hello"
	b.bu32(0)

	b.bu16(0xFFFF) // directory marker
	b.bu16(emptyHash)
	b.bu16(0x0200)
	b.bu16(2) // name_offset ("empty")
	b.bu32(0)
	b.bu32(0)
	b.bu32(0)

	b.buf.WriteString("a\x00")
	b.buf.WriteString("empty\x00")

	b.buf.WriteString("hello")

	return b.buf.Bytes()
}

func TestNodeIteratorSkipsEmptyDirectory(t *testing.T) {
	t.Parallel()

	data := buildArchiveWithEmptyDir()
	p := binary.NewFileParser(bytes.NewReader(data), int64(len(data)))

	r, err := rarc.Open(p)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	it := r.Nodes()
	var kinds []rarc.NodeKind
	for it.Next() {
		kinds = append(kinds, it.Node().Kind)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("walk: %v", err)
	}

	want := []rarc.NodeKind{
		rarc.DirectoryBegin, // root
		rarc.File,           // a
		rarc.DirectoryBegin, // empty
		rarc.DirectoryEnd,   // empty, with no children in between
		rarc.DirectoryEnd,   // root
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %d nodes, want %d: %v", len(kinds), len(want), kinds)
	}
	for i, k := range want {
		if kinds[i] != k {
			t.Errorf("node %d kind = %v, want %v", i, kinds[i], k)
		}
	}
}

func TestOpen_InvalidMagic(t *testing.T) {
	t.Parallel()

	data := buildArchive()
	data[0] = 'X'
	p := binary.NewFileParser(bytes.NewReader(data), int64(len(data)))

	if _, err := rarc.Open(p); err == nil {
		t.Fatal("expected error for invalid magic")
	}
}
