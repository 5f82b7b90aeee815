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

// Package dumputil holds small formatting helpers shared by the cmd/*_dump
// tools; nothing here is part of the library's public API.
package dumputil

import (
	"fmt"
	"io"
	"strings"
)

// HexDump writes data to w as a classic offset/hex/ASCII dump, width bytes
// per row.
func HexDump(w io.Writer, data []byte, width int) {
	if width <= 0 {
		width = 16
	}
	for off := 0; off < len(data); off += width {
		end := off + width
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]

		var hex strings.Builder
		var ascii strings.Builder
		for i := 0; i < width; i++ {
			if i < len(row) {
				fmt.Fprintf(&hex, "%02x ", row[i])
				if row[i] >= 0x20 && row[i] < 0x7f {
					ascii.WriteByte(row[i])
				} else {
					ascii.WriteByte('.')
				}
			} else {
				hex.WriteString("   ")
			}
		}
		fmt.Fprintf(w, "%08x  %s |%s|\n", off, hex.String(), ascii.String())
	}
}
