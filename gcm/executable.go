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

// MainExecutable holds the raw bytes of the disc's main .dol executable,
// sized by scanning its own section table rather than trusting any
// separate length field (the GCM format does not record one).
type MainExecutable struct {
	Data []byte
}

func parseMainExecutable(p binary.Parser) (MainExecutable, error) {
	base, err := p.Position()
	if err != nil {
		return MainExecutable{}, err
	}

	var textOffsets, dataOffsets, textSizes, dataSizes [11]uint32
	readArray := func(dst []uint32) error {
		for i := range dst {
			v, err := p.BU32()
			if err != nil {
				return err
			}
			dst[i] = v
		}
		return nil
	}

	if err := readArray(textOffsets[:7]); err != nil {
		return MainExecutable{}, err
	}
	if err := readArray(dataOffsets[:]); err != nil {
		return MainExecutable{}, err
	}
	if _, err := p.ReadN(7 * 4); err != nil { // text addresses, unused here
		return MainExecutable{}, err
	}
	if _, err := p.ReadN(11 * 4); err != nil { // data addresses, unused here
		return MainExecutable{}, err
	}
	if err := readArray(textSizes[:7]); err != nil {
		return MainExecutable{}, err
	}
	if err := readArray(dataSizes[:]); err != nil {
		return MainExecutable{}, err
	}

	var total uint32
	for i := range 7 {
		if end := textOffsets[i] + textSizes[i]; end > total {
			total = end
		}
	}
	for i := range 11 {
		if end := dataOffsets[i] + dataSizes[i]; end > total {
			total = end
		}
	}
	if total == 0 {
		return MainExecutable{}, binary.NewParseError("gcm", "unable to determine main executable size")
	}

	if err := p.Seek(base); err != nil {
		return MainExecutable{}, err
	}
	data, err := p.ReadN(int(total))
	if err != nil {
		return MainExecutable{}, err
	}

	return MainExecutable{Data: data}, nil
}
