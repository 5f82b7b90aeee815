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

package gcm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zaparoo-fmt/gcbin/gcm"
	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

// buildTwoLevelFST constructs the on-disc bytes of a file system table
// holding a root with one file "a" and one directory "d" containing a
// single file "b": the shape exercised by the traversal scenario in the
// package's originating specification.
func buildTwoLevelFST() []byte {
	var b imageBuilder

	// Entry 0: root. flag/name unused, parent unused, end = entry count.
	b.bu32(0)
	b.bu32(0)
	b.bu32(4) // 4 entries total: root, a, d, b

	// Entry 1: file "a" at name_offset 0.
	b.bu32(0)      // flag(file)<<24 | name_offset=0
	b.bu32(0x1000) // data offset
	b.bu32(8)      // size

	// Entry 2: directory "d" at name_offset 2, parent=0, end=4.
	b.bu32(1<<24 | 2) // flag(dir)<<24 | name_offset=2
	b.bu32(0)         // parent
	b.bu32(4)         // end (exclusive, global index space)

	// Entry 3: file "b" at name_offset 4, nested under "d".
	b.bu32(4)      // flag(file)<<24 | name_offset=4
	b.bu32(0x2000) // data offset
	b.bu32(4)      // size

	// Name table: "a\0d\0b\0", unpadded; the tests pass the whole buffer
	// length as the FST size.
	b.buf.Write([]byte("a\x00d\x00b\x00"))

	return b.buf.Bytes()
}

func TestFSTTwoLevelTraversal(t *testing.T) {
	t.Parallel()

	data := buildTwoLevelFST()
	p := binary.NewFileParser(bytes.NewReader(data), int64(len(data)))

	fst, err := gcm.ParseFST(p, uint32(len(data)))
	if err != nil {
		t.Fatalf("ParseFST: %v", err)
	}

	type visit struct {
		path string
		kind gcm.FSTEntryKind
	}
	var got []visit
	root := fst.Root()
	got = append(got, visit{"", gcm.FSTDirectory})

	err = fst.Walk(root, func(path []string, entry gcm.FSTEntry) error {
		got = append(got, visit{strings.Join(path, "/"), entry.Kind})
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []visit{
		{"", gcm.FSTDirectory},
		{"a", gcm.FSTFile},
		{"d", gcm.FSTDirectory},
		{"d/b", gcm.FSTFile},
	}
	if len(got) != len(want) {
		t.Fatalf("visit count = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visit[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFSTChildrenSkipsNestedSubtree(t *testing.T) {
	t.Parallel()

	data := buildTwoLevelFST()
	p := binary.NewFileParser(bytes.NewReader(data), int64(len(data)))

	fst, err := gcm.ParseFST(p, uint32(len(data)))
	if err != nil {
		t.Fatalf("ParseFST: %v", err)
	}

	children := fst.Children(fst.Root())
	if len(children) != 2 {
		t.Fatalf("root children = %d, want 2 (a, d)", len(children))
	}
	if children[0].Name != "a" || children[1].Name != "d" {
		t.Errorf("root children = %q, %q, want a, d", children[0].Name, children[1].Name)
	}

	nested := fst.Children(children[1])
	if len(nested) != 1 || nested[0].Name != "b" {
		t.Fatalf("d children = %+v, want [b]", nested)
	}
}
