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

// Apploader is the small program (apploader.img) the boot stage loads
// immediately after bi2.bin, responsible for loading the main executable
// and file system table into memory.
type Apploader struct {
	Date string

	EntryPoint  uint32
	Size        uint32
	TrailerSize uint32
	Unknown     uint32

	Data []byte
}

func parseApploader(p binary.Parser) (Apploader, error) {
	var a Apploader

	dateBuf, err := p.ReadN(0x10)
	if err != nil {
		return a, err
	}
	a.Date = binary.CleanString(dateBuf)

	if a.EntryPoint, err = p.BU32(); err != nil {
		return a, err
	}
	if a.Size, err = p.BU32(); err != nil {
		return a, err
	}
	if a.TrailerSize, err = p.BU32(); err != nil {
		return a, err
	}
	if a.Unknown, err = p.BU32(); err != nil {
		return a, err
	}

	dataSize := a.Size + a.TrailerSize
	if a.Data, err = p.ReadN(int(dataSize)); err != nil {
		return a, err
	}

	return a, nil
}
