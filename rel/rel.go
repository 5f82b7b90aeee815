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

// Package rel parses GameCube/Wii .rel relocatable modules: DLL-like
// binaries loaded and linked against a running DOL at runtime.
package rel

import "github.com/zaparoo-fmt/gcbin/internal/binary"

// Section is one entry of a Rel's section table.
type Section struct {
	Offset     uint32
	Size       uint32
	Executable bool
	Unknown    bool
	Data       []byte
}

// ImportKind identifies the relocation type an Import describes.
type ImportKind uint8

const (
	ImportNone ImportKind = 0
	Addr32     ImportKind = 1
	Addr24     ImportKind = 2
	Addr16     ImportKind = 3
	Addr16Lo   ImportKind = 4
	Addr16Hi   ImportKind = 5
	Addr16Ha   ImportKind = 6
	Addr14     ImportKind = 7
	Rel24      ImportKind = 10
	Rel14      ImportKind = 11
	DolphinNop     ImportKind = 201
	DolphinSection ImportKind = 202
	DolphinEnd     ImportKind = 203
	DolphinMRKREF  ImportKind = 204
)

// Import is one entry of an ImportTable: a single relocation instruction
// against a symbol in another module (or this one).
type Import struct {
	Kind    ImportKind
	Section uint8
	Offset  uint16
	Addend  uint32
}

// ImportTable groups every Import targeting symbols from a single module.
type ImportTable struct {
	Module  uint32
	Offset  uint32
	Imports []Import
}

// Symbol is a section/offset reference into this module, used for the
// prolog, epilog and unresolved-symbol-handler entry points.
type Symbol struct {
	Section uint32
	Offset  uint32
}

// SectionOffset locates a byte within one of the module's sections.
type SectionOffset struct {
	Section uint32
	Offset  uint32
}

// Relocation is one resolved entry produced by walking a Rel's import
// tables: where a symbol reference lives (Target) and what it refers to
// (Reference).
type Relocation struct {
	Kind      ImportKind
	Module    uint32
	Reference SectionOffset
	Target    SectionOffset
}

// Rel is a fully parsed .rel relocatable module.
type Rel struct {
	Module  uint32
	Version uint32

	// NameOffset/NameSize locate this module's display name in the
	// companion framework.str blob; the .rel file itself does not carry
	// the string.
	NameOffset uint32
	NameSize   uint32

	Sections     []Section
	ImportTables []ImportTable

	Prolog     *Symbol
	Epilog     *Symbol
	Unresolved *Symbol

	Alignment    uint32
	BSSAlignment uint32
	FixSize      uint32

	RelocationOffset uint32
	ImportOffset     uint32
	ImportSize       uint32
}

// Parse reads a .rel module from p, which must be positioned at the start
// of the header. All offsets inside the file are relative to this
// starting position.
func Parse(p binary.Parser) (*Rel, error) {
	base, err := p.Position()
	if err != nil {
		return nil, err
	}

	module, err := p.BU32()
	if err != nil {
		return nil, err
	}
	if _, err := p.BU32(); err != nil { // next, runtime-only
		return nil, err
	}
	if _, err := p.BU32(); err != nil { // prev, runtime-only
		return nil, err
	}
	sectionCount, err := p.BU32()
	if err != nil {
		return nil, err
	}
	sectionOffset, err := p.BU32()
	if err != nil {
		return nil, err
	}
	nameOffset, err := p.BU32()
	if err != nil {
		return nil, err
	}
	nameSize, err := p.BU32()
	if err != nil {
		return nil, err
	}
	version, err := p.BU32()
	if err != nil {
		return nil, err
	}
	if _, err := p.BU32(); err != nil { // bss_size, runtime-only
		return nil, err
	}
	relocationOffset, err := p.BU32()
	if err != nil {
		return nil, err
	}
	importOffset, err := p.BU32()
	if err != nil {
		return nil, err
	}
	importSize, err := p.BU32()
	if err != nil {
		return nil, err
	}
	prologSection, err := p.U8()
	if err != nil {
		return nil, err
	}
	epilogSection, err := p.U8()
	if err != nil {
		return nil, err
	}
	unresolvedSection, err := p.U8()
	if err != nil {
		return nil, err
	}
	if _, err := p.U8(); err != nil { // bss_section, runtime-only
		return nil, err
	}
	prologOffset, err := p.BU32()
	if err != nil {
		return nil, err
	}
	epilogOffset, err := p.BU32()
	if err != nil {
		return nil, err
	}
	unresolvedOffset, err := p.BU32()
	if err != nil {
		return nil, err
	}

	var alignment, bssAlignment uint32 = 1, 1
	if version >= 2 {
		if alignment, err = p.BU32(); err != nil {
			return nil, err
		}
		if bssAlignment, err = p.BU32(); err != nil {
			return nil, err
		}
	}

	var fixSize uint32
	if version >= 3 {
		if fixSize, err = p.BU32(); err != nil {
			return nil, err
		}
	}

	if version > 3 {
		return nil, binary.NewParseError("rel", "unsupported version %d", version)
	}
	if sectionCount <= 1 {
		return nil, binary.NewParseError("rel", "no sections")
	}
	if sectionCount >= 32 {
		return nil, binary.NewParseError("rel", "section count limit exceeded: %d", sectionCount)
	}
	if sectionOffset < 0x40 {
		return nil, binary.NewParseError("rel", "section offset %#x below minimum 0x40", sectionOffset)
	}

	sections, err := parseSections(p, base, sectionOffset, sectionCount)
	if err != nil {
		return nil, err
	}
	importTables, err := parseImports(p, base, importOffset, importSize)
	if err != nil {
		return nil, err
	}

	return &Rel{
		Module:           module,
		Version:          version,
		NameOffset:       nameOffset,
		NameSize:         nameSize,
		Sections:         sections,
		ImportTables:     importTables,
		Prolog:           optionalSymbol(prologSection, prologOffset),
		Epilog:           optionalSymbol(epilogSection, epilogOffset),
		Unresolved:       optionalSymbol(unresolvedSection, unresolvedOffset),
		Alignment:        alignment,
		BSSAlignment:     bssAlignment,
		FixSize:          fixSize,
		RelocationOffset: relocationOffset,
		ImportOffset:     importOffset,
		ImportSize:       importSize,
	}, nil
}

func optionalSymbol(section uint8, offset uint32) *Symbol {
	if section == 0 {
		return nil
	}
	return &Symbol{Section: uint32(section), Offset: offset}
}

func parseSections(p binary.Parser, base int64, sectionOffset, sectionCount uint32) ([]Section, error) {
	sections := make([]Section, 0, sectionCount)
	for i := range sectionCount {
		entryPos := base + int64(sectionOffset) + int64(i)*8
		if err := p.Seek(entryPos); err != nil {
			return nil, err
		}

		offsetFlags, err := p.BU32()
		if err != nil {
			return nil, err
		}
		offset := offsetFlags &^ 0x3
		flags := offsetFlags & 0x3

		size, err := p.BU32()
		if err != nil {
			return nil, err
		}

		var data []byte
		if offset > 0 {
			if size > 0x2000000 {
				return nil, binary.NewParseError("rel", "section %d too large: %#x bytes", i, size)
			}
			if err := p.Seek(base + int64(offset)); err != nil {
				return nil, err
			}
			if data, err = p.ReadN(int(size)); err != nil {
				return nil, err
			}
		}

		sections = append(sections, Section{
			Offset:     offset,
			Size:       size,
			Executable: flags&1 != 0,
			Unknown:    flags&2 != 0,
			Data:       data,
		})
	}
	return sections, nil
}

func parseImports(p binary.Parser, base int64, importOffset, importSize uint32) ([]ImportTable, error) {
	tableCount := importSize / 8
	tables := make([]ImportTable, 0, tableCount)

	for i := range tableCount {
		if err := p.Seek(base + int64(importOffset) + int64(i)*8); err != nil {
			return nil, err
		}
		module, err := p.BU32()
		if err != nil {
			return nil, err
		}
		offset, err := p.BU32()
		if err != nil {
			return nil, err
		}

		imports, err := parseImportTable(p, base, offset)
		if err != nil {
			return nil, err
		}

		tables = append(tables, ImportTable{Module: module, Offset: offset, Imports: imports})
	}

	return tables, nil
}

func parseImportTable(p binary.Parser, base int64, offset uint32) ([]Import, error) {
	if err := p.Seek(base + int64(offset)); err != nil {
		return nil, err
	}

	var imports []Import
	for {
		importOffset, err := p.BU16()
		if err != nil {
			return nil, err
		}
		rawKind, err := p.U8()
		if err != nil {
			return nil, err
		}
		section, err := p.U8()
		if err != nil {
			return nil, err
		}
		addend, err := p.BU32()
		if err != nil {
			return nil, err
		}

		kind, ok := importKind(rawKind)
		if !ok {
			return nil, binary.NewParseError("rel", "unknown import kind %d", rawKind)
		}

		imports = append(imports, Import{
			Kind:    kind,
			Section: section,
			Offset:  importOffset,
			Addend:  addend,
		})

		if kind == DolphinEnd {
			break
		}
	}

	return imports, nil
}

func importKind(raw uint8) (ImportKind, bool) {
	switch ImportKind(raw) {
	case ImportNone, Addr32, Addr24, Addr16, Addr16Lo, Addr16Hi, Addr16Ha,
		Addr14, Rel24, Rel14, DolphinNop, DolphinSection, DolphinEnd, DolphinMRKREF:
		return ImportKind(raw), true
	default:
		return 0, false
	}
}

// Relocations returns an iterator over every resolved relocation implied
// by the module's import tables, walking the Dolphin-specific pseudo-ops
// (section switches and long-offset NOPs) the same way the runtime loader
// does.
func (r *Rel) Relocations() *RelocationIterator {
	return &RelocationIterator{rel: r, section: -1}
}

// RelocationIterator walks a Rel's import tables, folding DolphinNop and
// DolphinSection pseudo-entries into the Relocation values it yields. Use
// Next in a loop until it returns false.
type RelocationIterator struct {
	rel     *Rel
	table   int
	section int // -1 means "no active section yet"
	index   int
	offset  uint32

	current Relocation
}

// Next advances the iterator and reports whether a relocation was
// produced. Call Relocation to retrieve it.
func (it *RelocationIterator) Next() bool {
	for it.table < len(it.rel.ImportTables) {
		table := &it.rel.ImportTables[it.table]
		if it.index >= len(table.Imports) {
			it.index = 0
			it.table++
			it.section = -1
			it.offset = 0
			continue
		}

		imp := table.Imports[it.index]
		it.index++

		switch imp.Kind {
		case ImportNone, DolphinEnd, DolphinMRKREF:
			continue
		case DolphinNop:
			it.offset += uint32(imp.Offset)
			continue
		case DolphinSection:
			it.section = int(imp.Section)
			it.offset = 0
			continue
		default:
			if it.section < 0 {
				continue
			}
			targetOffset := it.offset + uint32(imp.Offset)
			it.current = Relocation{
				Kind:   imp.Kind,
				Module: table.Module,
				Reference: SectionOffset{
					Section: uint32(imp.Section),
					Offset:  imp.Addend,
				},
				Target: SectionOffset{
					Section: uint32(it.section),
					Offset:  targetOffset,
				},
			}
			it.offset = targetOffset
			return true
		}
	}
	return false
}

// Relocation returns the value produced by the most recent call to Next
// that returned true.
func (it *RelocationIterator) Relocation() Relocation { return it.current }
