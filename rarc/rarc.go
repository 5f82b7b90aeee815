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

// Package rarc parses RARC archives: the hierarchical, hash-indexed
// archive format used to pack a GameCube/Wii title's loose assets
// (textures, models, stage data) into a single file.
package rarc

import "github.com/zaparoo-fmt/gcbin/internal/binary"

const magic uint32 = 0x43524152 // "RARC"

const maxCount = 0x10000

// NamedHash pairs a RARC entry's display name with the 16-bit hash the
// archive itself uses to index it. Two NamedHash values are equal only
// when both the hash and the name match.
type NamedHash struct {
	Name string
	Hash uint16
}

func (n NamedHash) String() string { return n.Name }

// HashName computes the 16-bit name hash a RARC archive stores alongside
// every directory and file record: an accumulator seeded at zero,
// multiplied by 3 and added to each byte of name in turn, wrapping on
// overflow the way the original console tool's unsigned arithmetic does.
func HashName(name string) uint16 {
	var h uint16
	for i := 0; i < len(name); i++ {
		h = h*3 + uint16(name[i])
	}
	return h
}

type directoryKind int

const (
	dirFile directoryKind = iota
	dirFolder
	dirCurrent
	dirParent
)

type directory struct {
	kind   directoryKind
	name   NamedHash
	offset uint64
	size   uint32
}

type node struct {
	index uint32
	count uint32
}

// Reader provides random access to a RARC archive's directory tree and
// file contents.
type Reader struct {
	p binary.Parser

	directories []directory
	nodes       map[NamedHash]node
	rootNode    NamedHash
}

// Open parses a RARC archive from p, which must be positioned at the
// start of the archive.
func Open(p binary.Parser) (*Reader, error) {
	base, err := p.Position()
	if err != nil {
		return nil, err
	}

	m, err := p.U32()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, binary.NewParseError("rarc", "invalid magic %#08x", m)
	}

	if _, err := p.BU32(); err != nil { // file_length
		return nil, err
	}
	headerLength, err := p.BU32()
	if err != nil {
		return nil, err
	}
	fileOffset, err := p.BU32()
	if err != nil {
		return nil, err
	}
	if _, err := p.BU32(); err != nil { // file_length (again)
		return nil, err
	}
	if _, err := p.BU32(); err != nil {
		return nil, err
	}
	if _, err := p.BU32(); err != nil {
		return nil, err
	}
	if _, err := p.BU32(); err != nil {
		return nil, err
	}
	nodeCount, err := p.BU32()
	if err != nil {
		return nil, err
	}
	nodeOffset, err := p.BU32()
	if err != nil {
		return nil, err
	}
	directoryCount, err := p.BU32()
	if err != nil {
		return nil, err
	}
	directoryOffset, err := p.BU32()
	if err != nil {
		return nil, err
	}
	stringTableLength, err := p.BU32()
	if err != nil {
		return nil, err
	}
	stringTableOffset, err := p.BU32()
	if err != nil {
		return nil, err
	}
	if _, err := p.BU16(); err != nil { // file_count
		return nil, err
	}
	if _, err := p.BU16(); err != nil {
		return nil, err
	}
	if _, err := p.BU32(); err != nil {
		return nil, err
	}

	if nodeCount >= maxCount {
		return nil, binary.NewParseError("rarc", "invalid node count %d", nodeCount)
	}
	if directoryCount >= maxCount {
		return nil, binary.NewParseError("rarc", "invalid directory count %d", directoryCount)
	}

	sectionBase := base + int64(headerLength)
	directoryBase := sectionBase + int64(directoryOffset)
	dataBase := sectionBase + int64(fileOffset)

	directories := make([]directory, 0, directoryCount)
	for i := range directoryCount {
		if err := p.Seek(directoryBase + int64(i)*20); err != nil {
			return nil, err
		}
		index, err := p.BU16()
		if err != nil {
			return nil, err
		}
		nameHash, err := p.BU16()
		if err != nil {
			return nil, err
		}
		if _, err := p.BU16(); err != nil { // 0x200 folder / 0x1100 file
			return nil, err
		}
		nameOffset, err := p.BU16()
		if err != nil {
			return nil, err
		}
		dataOffset, err := p.BU32()
		if err != nil {
			return nil, err
		}
		dataLength, err := p.BU32()
		if err != nil {
			return nil, err
		}
		if _, err := p.BU32(); err != nil {
			return nil, err
		}

		name, err := readEntryName(p, sectionBase, stringTableOffset, stringTableLength, nameOffset)
		if err != nil {
			return nil, err
		}

		if index == 0xFFFF {
			switch name {
			case ".":
				directories = append(directories, directory{kind: dirCurrent})
			case "..":
				directories = append(directories, directory{kind: dirParent})
			default:
				directories = append(directories, directory{
					kind: dirFolder,
					name: NamedHash{Name: name, Hash: nameHash},
				})
			}
		} else {
			directories = append(directories, directory{
				kind:   dirFile,
				name:   NamedHash{Name: name, Hash: nameHash},
				offset: uint64(dataBase) + uint64(dataOffset),
				size:   dataLength,
			})
		}
	}

	nodeBase := sectionBase + int64(nodeOffset)
	nodes := make(map[NamedHash]node, nodeCount)
	var rootNode NamedHash
	haveRoot := false

	for i := range nodeCount {
		if err := p.Seek(nodeBase + int64(i)*16); err != nil {
			return nil, err
		}
		if _, err := p.BU32(); err != nil { // identifier
			return nil, err
		}
		nameOffset, err := p.BU32()
		if err != nil {
			return nil, err
		}
		nameHash, err := p.BU16()
		if err != nil {
			return nil, err
		}
		count, err := p.BU16()
		if err != nil {
			return nil, err
		}
		index, err := p.BU32()
		if err != nil {
			return nil, err
		}

		if index >= directoryCount {
			return nil, binary.NewParseError("rarc", "node %d: first directory index %d out of bounds", i, index)
		}
		lastIndex := uint64(index) + uint64(count)
		if lastIndex > uint64(directoryCount) {
			return nil, binary.NewParseError("rarc", "node %d: last directory index %d out of bounds", i, lastIndex)
		}

		name, err := readEntryName(p, sectionBase, stringTableOffset, stringTableLength, uint16(nameOffset))
		if err != nil {
			return nil, err
		}

		nh := NamedHash{Name: name, Hash: nameHash}
		if !haveRoot {
			rootNode = nh
			haveRoot = true
		}
		nodes[nh] = node{index: index, count: uint32(count)}
	}

	if !haveRoot {
		return nil, binary.NewParseError("rarc", "no root node")
	}

	return &Reader{p: p, directories: directories, nodes: nodes, rootNode: rootNode}, nil
}

func readEntryName(p binary.Parser, sectionBase int64, tableOffset, tableLength uint32, nameOffset uint16) (string, error) {
	if uint32(nameOffset) >= tableLength {
		return "", binary.NewParseError("rarc", "string table offset %d out of bounds (table length %d)", nameOffset, tableLength)
	}
	pos, err := p.Position()
	if err != nil {
		return "", err
	}
	defer func() { _ = p.Seek(pos) }()

	if err := p.Seek(sectionBase + int64(tableOffset) + int64(nameOffset)); err != nil {
		return "", err
	}
	return readCString(p)
}

func readCString(p binary.Parser) (string, error) {
	var out []byte
	for {
		b, err := p.U8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out), nil
}

// FileData reads size bytes of file content at offset, both as recorded
// in a Node's File variant.
func (r *Reader) FileData(offset uint64, size uint32) ([]byte, error) {
	if err := r.p.Seek(int64(offset)); err != nil {
		return nil, err
	}
	return r.p.ReadN(int(size))
}

// NodeKind identifies which variant of Node was produced by a
// NodeIterator.
type NodeKind int

const (
	DirectoryBegin NodeKind = iota
	DirectoryEnd
	File
	CurrentDirectory
	ParentDirectory
)

// Node is one entry produced while walking a Reader's directory tree.
type Node struct {
	Kind   NodeKind
	Name   NamedHash
	Offset uint64
	Size   uint32
}

type nodeFrame struct {
	kind  int // 0=begin, 1=end, 2=file
	name  NamedHash
	index uint32
}

// Nodes returns an iterator over every node in the archive, in the same
// depth-first pre/post order used to walk a RARC directory tree: a
// directory yields DirectoryBegin, then each of its children, then
// DirectoryEnd.
func (r *Reader) Nodes() *NodeIterator {
	return &NodeIterator{
		reader: r,
		stack:  []nodeFrame{{kind: 0, name: r.rootNode}},
	}
}

// NodeIterator walks a Reader's directory tree. Call Next in a loop
// until it returns false, then check Err.
type NodeIterator struct {
	reader  *Reader
	stack   []nodeFrame
	current Node
	err     error
}

// Next advances the iterator and reports whether a node was produced.
func (it *NodeIterator) Next() bool {
	for len(it.stack) > 0 {
		frame := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		switch frame.kind {
		case 0: // begin
			n, ok := it.reader.nodes[frame.name]
			if !ok {
				return false
			}
			if n.count == 0 {
				it.stack = append(it.stack, nodeFrame{kind: 1, name: frame.name})
			} else {
				it.stack = append(it.stack, nodeFrame{kind: 2, name: frame.name, index: 0})
			}
			it.current = Node{Kind: DirectoryBegin, Name: frame.name}
			return true
		case 1: // end
			it.current = Node{Kind: DirectoryEnd, Name: frame.name}
			return true
		case 2: // file/child at index
			n, ok := it.reader.nodes[frame.name]
			if !ok {
				return false
			}
			if frame.index+1 >= n.count {
				it.stack = append(it.stack, nodeFrame{kind: 1, name: frame.name})
			} else {
				it.stack = append(it.stack, nodeFrame{kind: 2, name: frame.name, index: frame.index + 1})
			}

			dirIdx := n.index + frame.index
			if int(dirIdx) >= len(it.reader.directories) {
				it.err = binary.NewParseError("rarc", "directory index %d out of range", dirIdx)
				return false
			}
			d := it.reader.directories[dirIdx]
			switch d.kind {
			case dirCurrent:
				it.current = Node{Kind: CurrentDirectory}
				return true
			case dirParent:
				it.current = Node{Kind: ParentDirectory}
				return true
			case dirFolder:
				it.stack = append(it.stack, nodeFrame{kind: 0, name: d.name})
				continue
			case dirFile:
				it.current = Node{Kind: File, Name: d.name, Offset: d.offset, Size: d.size}
				return true
			}
		}
	}
	return false
}

// Node returns the value produced by the most recent call to Next that
// returned true.
func (it *NodeIterator) Node() Node { return it.current }

// Err returns the first error encountered while walking the tree, if
// Next stopped early because of one.
func (it *NodeIterator) Err() error { return it.err }
