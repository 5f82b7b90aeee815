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

// Package dol parses GameCube/Wii .dol executables: the flat, headerless
// section layout produced by devkitPPC's elf2dol from a linked ELF binary.
package dol

import (
	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

const headerSize = 0x100

const (
	numTextSections = 7
	numDataSections = 11
)

// Header is the raw .dol header: offsets, load addresses and sizes for up
// to 7 text and 11 data sections, followed by the BSS region and entry
// point.
type Header struct {
	TextOffset  [numTextSections]uint32 // 0x00
	DataOffset  [numDataSections]uint32 // 0x1C
	TextAddress [numTextSections]uint32 // 0x48
	DataAddress [numDataSections]uint32 // 0x64
	TextSize    [numTextSections]uint32 // 0x90
	DataSize    [numDataSections]uint32 // 0xAC
	BSSAddress  uint32                  // 0xD8
	BSSSize     uint32                  // 0xDC
	Entrypoint  uint32                  // 0xE0
}

// SectionKind identifies which of the three section categories a Section
// belongs to.
type SectionKind int

const (
	SectionText SectionKind = iota
	SectionData
	SectionBSS
)

func (k SectionKind) String() string {
	switch k {
	case SectionText:
		return "text"
	case SectionData:
		return "data"
	case SectionBSS:
		return "bss"
	default:
		return "unknown"
	}
}

// Section is one materialized section of a parsed Dol: its guessed name,
// load address, size, and (for text/data) its raw bytes.
type Section struct {
	Kind SectionKind

	// Name is guessed from the section's kind and its slot in the header
	// (for BSS, its position in __bss_init_info); empty slots are skipped
	// without shifting the names of later ones. The .dol format does not
	// store section names, so this is a best-effort label, not a guarantee.
	Name string

	Address     uint32
	Size        uint32
	AlignedSize uint32
	Data        []byte
}

// RomCopyInfo is one entry of the `__rom_copy_info` table the linker
// appends to the end of the .init section. It records the true, unaligned
// size of a section prior to ELF-to-DOL conversion, used by the startup
// code to copy each section from ROM to RAM.
type RomCopyInfo struct {
	ROMAddress uint32
	RAMAddress uint32
	Size       uint32
}

// BSSInitInfo is one entry of the `__bss_init_info` table the linker
// appends to the end of the .init section. It records how many BSS
// sections (.bss, .sbss, .sbss2) exist and their individual sizes, used by
// the startup code to zero each of them independently.
type BSSInitInfo struct {
	RAMAddress uint32
	Size       uint32
}

// Dol is a fully parsed .dol executable.
type Dol struct {
	Header      Header
	RomCopyInfo []RomCopyInfo // nil if not found
	BSSInitInfo []BSSInitInfo // nil if not found
	Sections    []Section
}

func textSectionName(index int) string {
	names := [numTextSections]string{".init", ".text", ".text.2", ".text.3", ".text.4", ".text.5", ".text.6"}
	return names[index]
}

func dataSectionName(index int) string {
	names := [numDataSections]string{
		"extab_", "extabindex_", ".ctors", ".dtors", ".rodata",
		".data", ".sdata", ".sdata2", ".data8", ".data9", ".data10",
	}
	return names[index]
}

func bssSectionName(index int) string {
	names := [3]string{".bss", ".sbss", ".sbss2"}
	if index >= len(names) {
		return ".bss.extra"
	}
	return names[index]
}

// Parse reads a .dol executable whose header starts at offset 0 of p. The
// header fields and section offsets are read at absolute positions, so p's
// current position is not used.
func Parse(p binary.Parser) (*Dol, error) {
	size, err := p.Size()
	if err != nil {
		return nil, err
	}
	if size < headerSize {
		return nil, binary.NewParseError("dol", "file too small for header: %d bytes", size)
	}

	header, err := readHeader(p)
	if err != nil {
		return nil, err
	}

	if err := checkSectionBounds("text", header.TextOffset[:], header.TextSize[:], size); err != nil {
		return nil, err
	}
	if err := checkSectionBounds("data", header.DataOffset[:], header.DataSize[:], size); err != nil {
		return nil, err
	}

	sections := make([]Section, 0, numTextSections+numDataSections+1)

	for i := range numTextSections {
		offset, addr, sz := header.TextOffset[i], header.TextAddress[i], header.TextSize[i]
		if offset == 0 || sz == 0 {
			continue
		}
		data, err := readAt(p, offset, sz)
		if err != nil {
			return nil, err
		}
		sections = append(sections, Section{
			Kind: SectionText, Name: textSectionName(i),
			Address: addr, Size: sz, AlignedSize: alignNext(sz, 32), Data: data,
		})
	}

	for i := range numDataSections {
		offset, addr, sz := header.DataOffset[i], header.DataAddress[i], header.DataSize[i]
		if offset == 0 || sz == 0 {
			continue
		}
		data, err := readAt(p, offset, sz)
		if err != nil {
			return nil, err
		}
		sections = append(sections, Section{
			Kind: SectionData, Name: dataSectionName(i),
			Address: addr, Size: sz, AlignedSize: alignNext(sz, 32), Data: data,
		})
	}

	var init *Section
	for i := range sections {
		if sections[i].Name == ".init" {
			init = &sections[i]
			break
		}
	}

	var romCopyInfo []RomCopyInfo
	var bssInitInfo []BSSInitInfo
	if init != nil {
		romCopyInfo = searchRomCopyInfo(init.Data, init.Address)
		bssInitInfo = searchBSSInitInfo(init.Data, header.BSSAddress)
	}

	for i := range sections {
		for _, entry := range romCopyInfo {
			if entry.ROMAddress == sections[i].Address {
				sections[i].Size = entry.Size
				sections[i].AlignedSize = alignNext(entry.Size, 32)
				break
			}
		}
	}

	if bssInitInfo != nil {
		for i, entry := range bssInitInfo {
			sections = append(sections, Section{
				Kind: SectionBSS, Name: bssSectionName(i),
				Address: entry.RAMAddress, Size: entry.Size,
				AlignedSize: alignNext(entry.Size, 32),
			})
		}
	} else {
		sections = append(sections, Section{
			Kind: SectionBSS, Name: bssSectionName(0),
			Address: header.BSSAddress, Size: header.BSSSize, AlignedSize: alignNext(header.BSSSize, 32),
		})
	}

	return &Dol{
		Header:      header,
		RomCopyInfo: romCopyInfo,
		BSSInitInfo: bssInitInfo,
		Sections:    sections,
	}, nil
}

// Entrypoint returns the address execution begins at after all sections
// have been loaded.
func (d *Dol) Entrypoint() uint32 { return d.Header.Entrypoint }

// SectionByName returns the section with the given guessed name, if any.
func (d *Dol) SectionByName(name string) *Section {
	for i := range d.Sections {
		if d.Sections[i].Name == name {
			return &d.Sections[i]
		}
	}
	return nil
}

// SectionByAddress returns the section containing the given memory
// address, if any.
func (d *Dol) SectionByAddress(address uint32) *Section {
	for i := range d.Sections {
		s := &d.Sections[i]
		if address >= s.Address && address < s.Address+s.Size {
			return s
		}
	}
	return nil
}

func readHeader(p binary.Parser) (Header, error) {
	var h Header
	var err error
	readArray := func(dst []uint32) {
		if err != nil {
			return
		}
		for i := range dst {
			dst[i], err = p.BU32()
			if err != nil {
				return
			}
		}
	}

	if err = p.Seek(0x00); err != nil {
		return h, err
	}
	readArray(h.TextOffset[:])
	if err = p.Seek(0x1C); err != nil {
		return h, err
	}
	readArray(h.DataOffset[:])
	if err = p.Seek(0x48); err != nil {
		return h, err
	}
	readArray(h.TextAddress[:])
	if err = p.Seek(0x64); err != nil {
		return h, err
	}
	readArray(h.DataAddress[:])
	if err = p.Seek(0x90); err != nil {
		return h, err
	}
	readArray(h.TextSize[:])
	if err = p.Seek(0xAC); err != nil {
		return h, err
	}
	readArray(h.DataSize[:])
	if err != nil {
		return h, err
	}

	if err = p.Seek(0xD8); err != nil {
		return h, err
	}
	if h.BSSAddress, err = p.BU32(); err != nil {
		return h, err
	}
	if h.BSSSize, err = p.BU32(); err != nil {
		return h, err
	}
	if h.Entrypoint, err = p.BU32(); err != nil {
		return h, err
	}

	return h, nil
}

func checkSectionBounds(kind string, offsets, sizes []uint32, fileSize int64) error {
	for i, offset := range offsets {
		size := sizes[i]
		if offset == 0 || size == 0 {
			continue
		}
		end := uint64(offset) + uint64(size)
		if offset < headerSize || end > uint64(fileSize) {
			return binary.NewParseError("dol", "%s section %d out of bounds: offset=%#x size=%#x file_size=%d",
				kind, i, offset, size, fileSize)
		}
	}
	return nil
}

func readAt(p binary.Parser, offset, size uint32) ([]byte, error) {
	if err := p.Seek(int64(offset)); err != nil {
		return nil, err
	}
	return p.ReadN(int(size))
}

func alignNext(value, align uint32) uint32 {
	if align == 0 {
		return value
	}
	return (value + align - 1) &^ (align - 1)
}

// windowSearch runs a sliding window of width bytes over the last maxTail
// bytes of data, decoding each window with decode and keeping only windows
// that decode successfully.
func windowSearch[T any](data []byte, maxTail, width int, decode func([]byte) (T, bool)) []T {
	tail := data
	if len(tail) > maxTail {
		tail = tail[len(tail)-maxTail:]
	}

	var decoded []T
	for i := 0; i+width <= len(tail); i++ {
		v, ok := decode(tail[i : i+width])
		if ok {
			decoded = append(decoded, v)
		}
	}
	return decoded
}

func searchRomCopyInfo(data []byte, address uint32) []RomCopyInfo {
	all := windowSearch(data, 0x200, 12, func(w []byte) (RomCopyInfo, bool) {
		return RomCopyInfo{
			ROMAddress: beU32(w[0:4]),
			RAMAddress: beU32(w[4:8]),
			Size:       beU32(w[8:12]),
		}, true
	})

	start := -1
	for i, entry := range all {
		if entry.ROMAddress == address && entry.RAMAddress == address {
			start = i
			break
		}
	}
	if start == -1 {
		return nil
	}

	var result []RomCopyInfo
	for i := start; i < len(all); i += 12 {
		if all[i].ROMAddress == 0 {
			break
		}
		result = append(result, all[i])
	}
	return result
}

func searchBSSInitInfo(data []byte, address uint32) []BSSInitInfo {
	all := windowSearch(data, 0x200, 8, func(w []byte) (BSSInitInfo, bool) {
		return BSSInitInfo{
			RAMAddress: beU32(w[0:4]),
			Size:       beU32(w[4:8]),
		}, true
	})

	start := -1
	for i, entry := range all {
		if entry.RAMAddress == address {
			start = i
			break
		}
	}
	if start == -1 {
		return nil
	}

	var result []BSSInitInfo
	for i := start; i < len(all); i += 8 {
		if all[i].RAMAddress == 0 {
			break
		}
		result = append(result, all[i])
	}
	return result
}

func beU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
