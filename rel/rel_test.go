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

package rel_test

import (
	"bytes"
	"testing"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
	"github.com/zaparoo-fmt/gcbin/rel"
)

type relBuilder struct {
	buf bytes.Buffer
}

func (b *relBuilder) bu32(v uint32) {
	b.buf.WriteByte(byte(v >> 24))
	b.buf.WriteByte(byte(v >> 16))
	b.buf.WriteByte(byte(v >> 8))
	b.buf.WriteByte(byte(v))
}

func (b *relBuilder) bu16(v uint16) {
	b.buf.WriteByte(byte(v >> 8))
	b.buf.WriteByte(byte(v))
}

func (b *relBuilder) u8(v uint8) { b.buf.WriteByte(v) }

// buildMinimalRel builds a version-1 .rel with two sections (an empty
// section 0 and an executable section 1) and a single import table
// targeting module 0 holding one Addr32 import and a DolphinEnd, with no
// DolphinSection entry before the Addr32.
func buildMinimalRel() []byte {
	var b relBuilder

	const headerSize = 0x40
	const sectionTableOffset = headerSize
	const sectionCount = 2
	const sectionTableSize = sectionCount * 8
	const importTableOffset = sectionTableOffset + sectionTableSize
	const importTableSize = 8
	const importDataOffset = importTableOffset + importTableSize
	const section1DataOffset = importDataOffset + 16 // two 8-byte import entries
	section1Data := []byte{0x60, 0x00, 0x00, 0x00}

	b.bu32(1)                 // module
	b.bu32(0)                 // next
	b.bu32(0)                 // prev
	b.bu32(sectionCount)       // section_count
	b.bu32(sectionTableOffset) // section_offset
	b.bu32(0)                  // name_offset
	b.bu32(0)                  // name_size
	b.bu32(1)                  // version
	b.bu32(0)                  // bss_size
	b.bu32(0)                  // relocation_offset
	b.bu32(importTableOffset)  // import_offset
	b.bu32(importTableSize)    // import_size
	b.u8(0)                    // prolog_section
	b.u8(0)                    // epilog_section
	b.u8(0)                    // unresolved_section
	b.u8(0)                    // bss_section
	b.bu32(0)                  // prolog_offset
	b.bu32(0)                  // epilog_offset
	b.bu32(0)                  // unresolved_offset

	// section table: section 0 empty, section 1 has data
	b.bu32(0) // section 0: offset_flags = 0
	b.bu32(0) // section 0: size = 0
	b.bu32(section1DataOffset | 1) // section 1: offset with executable flag
	b.bu32(uint32(len(section1Data)))

	// import table: one entry for module 0
	b.bu32(0)                 // module
	b.bu32(importDataOffset) // offset to import entries

	// import entries: one Addr32 targeting section 1, then DolphinEnd
	b.bu16(0)   // offset
	b.u8(1)     // kind = Addr32
	b.u8(1)     // section
	b.bu32(0x10) // addend
	b.bu16(0)   // offset
	b.u8(203)   // kind = DolphinEnd
	b.u8(0)     // section
	b.bu32(0)   // addend

	b.buf.Write(section1Data)

	return b.buf.Bytes()
}

func TestParseMinimalRel(t *testing.T) {
	t.Parallel()

	data := buildMinimalRel()
	p := binary.NewFileParser(bytes.NewReader(data), int64(len(data)))

	r, err := rel.Parse(p)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if r.Module != 1 {
		t.Errorf("Module = %d, want 1", r.Module)
	}
	if len(r.Sections) != 2 {
		t.Fatalf("Sections = %d, want 2", len(r.Sections))
	}
	if !r.Sections[1].Executable {
		t.Error("section 1 should be executable")
	}
	if len(r.ImportTables) != 1 {
		t.Fatalf("ImportTables = %d, want 1", len(r.ImportTables))
	}
	if len(r.ImportTables[0].Imports) != 2 {
		t.Fatalf("Imports = %d, want 2", len(r.ImportTables[0].Imports))
	}
}

func TestRelocationsRequireDolphinSectionFirst(t *testing.T) {
	t.Parallel()

	data := buildMinimalRel()
	p := binary.NewFileParser(bytes.NewReader(data), int64(len(data)))
	r, err := rel.Parse(p)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// No DolphinSection entry precedes the Addr32 import, so it's
	// dropped rather than emitted with a bogus target section.
	it := r.Relocations()
	if it.Next() {
		t.Fatalf("expected no relocations without a preceding DolphinSection, got %+v", it.Relocation())
	}
}

func TestParseRejectsTooFewSections(t *testing.T) {
	t.Parallel()

	var b relBuilder
	b.bu32(1)
	b.bu32(0)
	b.bu32(0)
	b.bu32(1) // section_count = 1 (invalid, must be > 1)
	b.bu32(0x40)
	b.bu32(0)
	b.bu32(0)
	b.bu32(1)
	b.bu32(0)
	b.bu32(0)
	b.bu32(0)
	b.bu32(0)
	b.u8(0)
	b.u8(0)
	b.u8(0)
	b.u8(0)
	b.bu32(0)
	b.bu32(0)
	b.bu32(0)

	data := b.buf.Bytes()
	p := binary.NewFileParser(bytes.NewReader(data), int64(len(data)))
	if _, err := rel.Parse(p); err == nil {
		t.Fatal("expected error for section_count <= 1")
	}
}
