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

package gcm

import "github.com/zaparoo-fmt/gcbin/internal/binary"

const maxFSTEntries = 0x4000

// FSTEntryKind distinguishes a file from a directory in the flattened
// file system table.
type FSTEntryKind int

const (
	FSTFile FSTEntryKind = iota
	FSTDirectory
)

// FSTEntry is one entry of the file system table, in the flattened,
// depth-first order the disc stores it in. A directory's Begin/End span
// covers every entry nested beneath it, as positions in FST.Entries (which
// omits the root): Begin is the position of its first descendant and End
// is one past the position of its last.
type FSTEntry struct {
	Kind FSTEntryKind
	Name string
	// Index is this entry's position in the flattened table.
	Index int

	// File fields.
	Offset uint32
	Size   uint32

	// Directory fields.
	Parent uint32
	Begin  uint32
	End    uint32
}

// FST is the parsed file system table (fst.bin): a flat array of file and
// directory entries describing everything stored on the disc outside of
// the boot files.
type FST struct {
	Entries []FSTEntry
}

// rawFSTEntry is the 12-byte on-disk representation, before name
// resolution against the string table.
type rawFSTEntry struct {
	isDirectory bool
	nameOffset  uint32
	a, b        uint32 // offset+size for files; parent+end for directories
}

func readRawFSTEntry(p binary.Parser) (rawFSTEntry, error) {
	var e rawFSTEntry
	flagAndName, err := p.BU32()
	if err != nil {
		return e, err
	}
	a, err := p.BU32()
	if err != nil {
		return e, err
	}
	b, err := p.BU32()
	if err != nil {
		return e, err
	}

	e.isDirectory = (flagAndName>>24)&1 != 0
	e.nameOffset = flagAndName & 0x00ffffff
	e.a = a
	e.b = b
	return e, nil
}

// ParseFST reads the file system table from p, which must be positioned
// at its start. size is the FST's total byte length, as declared by the
// disc's boot header (Boot.FSTSize).
func ParseFST(p binary.Parser, size uint32) (*FST, error) {
	// The root entry (index 0) is always a directory spanning the whole
	// table; its fields other than the entry count are unused.
	if _, err := p.BU32(); err != nil {
		return nil, err
	}
	if _, err := p.BU32(); err != nil {
		return nil, err
	}
	rootEnd, err := p.BU32()
	if err != nil {
		return nil, err
	}

	entryCount := int(rootEnd)
	if entryCount > maxFSTEntries {
		return nil, binary.NewParseError("gcm", "FST entry count %d exceeds limit %d", entryCount, maxFSTEntries)
	}
	if entryCount == 0 {
		return &FST{}, nil
	}

	raws := make([]rawFSTEntry, entryCount-1)
	for i := range raws {
		raws[i], err = readRawFSTEntry(p)
		if err != nil {
			return nil, err
		}
	}

	entrySize := uint32(0x0C * entryCount)
	if entrySize > size {
		return nil, binary.NewParseError("gcm", "FST entry table size %d exceeds declared FST size %d", entrySize, size)
	}
	nameTable, err := p.ReadN(int(size - entrySize))
	if err != nil {
		return nil, err
	}

	entries := make([]FSTEntry, 0, entryCount)
	for i, raw := range raws {
		index := i + 1
		name := readNullTerminatedASCII(nameTable, int(raw.nameOffset))
		if raw.isDirectory {
			entries = append(entries, FSTEntry{
				Kind:   FSTDirectory,
				Name:   name,
				Index:  index,
				Parent: raw.a,
				Begin:  uint32(index),
				End:    raw.b - 1,
			})
		} else {
			entries = append(entries, FSTEntry{
				Kind:   FSTFile,
				Name:   name,
				Index:  index,
				Offset: raw.a,
				Size:   raw.b,
			})
		}
	}

	return &FST{Entries: entries}, nil
}

func readNullTerminatedASCII(table []byte, offset int) string {
	if offset < 0 || offset >= len(table) {
		return ""
	}
	end := offset
	for end < len(table) && table[end] != 0 {
		end++
	}
	return string(table[offset:end])
}

// Root returns a synthetic directory entry spanning the entire file
// system table.
func (f *FST) Root() FSTEntry {
	return FSTEntry{Kind: FSTDirectory, Begin: 0, End: uint32(len(f.Entries))}
}

// Children returns the immediate files and subdirectories of dir,
// skipping over the full (possibly large) subtree of any nested
// directory rather than descending into it.
func (f *FST) Children(dir FSTEntry) []FSTEntry {
	var children []FSTEntry
	index := dir.Begin
	for index < dir.End {
		entry := f.Entries[index]
		children = append(children, entry)
		if entry.Kind == FSTDirectory {
			index = entry.End
		} else {
			index++
		}
	}
	return children
}

// Walk visits every entry beneath dir in depth-first order, the same
// order the table is stored in on disc.
func (f *FST) Walk(dir FSTEntry, visit func(path []string, entry FSTEntry) error) error {
	return f.walk(dir, nil, visit)
}

func (f *FST) walk(dir FSTEntry, path []string, visit func(path []string, entry FSTEntry) error) error {
	index := dir.Begin
	for index < dir.End {
		entry := f.Entries[index]
		entryPath := append(append([]string{}, path...), entry.Name)
		if err := visit(entryPath, entry); err != nil {
			return err
		}
		if entry.Kind == FSTDirectory {
			if err := f.walk(entry, entryPath, visit); err != nil {
				return err
			}
			index = entry.End
		} else {
			index++
		}
	}
	return nil
}
