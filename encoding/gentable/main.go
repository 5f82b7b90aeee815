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

// Command gentable documents the contract a real Shift JIS 2004
// table-generator must satisfy; it does not itself download or embed the
// authoritative JIS X 0213 mapping file, per this module's explicit
// non-goal of treating table generation as an external build step.
//
// A real implementation would:
//
//  1. Read the JIS X 0213:2004 code-point mapping text file (the format
//     published alongside the standard: one "shift-jis-code unicode..."
//     line per mapped code point, with two Unicode columns for the
//     two-scalar decompositions).
//  2. Partition entries by lead byte, recording each lead's
//     (first_trail, last_trail) range.
//  3. Emit a flat scalar table indexed by lead-offset + (trail -
//     first_trail), and a pair table for any entry with two Unicode
//     columns, tagging its scalar-table slot with the high bit set.
//  4. Write the result as Go source in the shape consumed by
//     ../sjis2004_table.go: a [256]leadEntry array, a []uint32 scalar
//     array, and a []pair table.
//
// Run as `go run ./encoding/gentable <mapping-file> <output.go>` once such
// a mapping file and its licensing are available.
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "gentable: no JIS X 0213 mapping file wired in; see package doc comment")
	os.Exit(1)
}
