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

const bi2Size = 0x2000

// Bi2Option identifies one of the known slots in the boot information
// block (bi2.bin). Only the first few of the block's 0x800 32-bit slots
// are understood; the rest are exposed through GetIndex.
type Bi2Option int

const (
	DebugMonitorSize    Bi2Option = 1
	SimulatedMemorySize Bi2Option = 2
	ArgumentOffset      Bi2Option = 3
	DebugFlag           Bi2Option = 4
	TrackLocation       Bi2Option = 5
	TrackSize           Bi2Option = 6
	BI2CountryCode      Bi2Option = 7
	PadSpec             Bi2Option = 8
	LongFilenameSupport Bi2Option = 9
	DolLimit            Bi2Option = 11
)

// Bi2 holds the boot information block (bi2.bin): a fixed 0x2000 byte
// table of 32-bit options passed to the boot stage and apploader. Only
// non-zero slots are retained.
type Bi2 struct {
	options map[int]uint32
}

func newBi2() *Bi2 { return &Bi2{options: make(map[int]uint32)} }

// Get returns the value of option, and whether it was set.
func (b *Bi2) Get(option Bi2Option) (uint32, bool) {
	v, ok := b.options[int(option)]
	return v, ok
}

// GetIndex returns the value of the option at the given raw slot index,
// for slots not named by a Bi2Option constant.
func (b *Bi2) GetIndex(index int) (uint32, bool) {
	v, ok := b.options[index]
	return v, ok
}

// Set assigns a value to option.
func (b *Bi2) Set(option Bi2Option, value uint32) { b.options[int(option)] = value }

// Clear removes option, as if it had never been set.
func (b *Bi2) Clear(option Bi2Option) { delete(b.options, int(option)) }

// Options returns every non-zero slot index currently set.
func (b *Bi2) Options() map[int]uint32 {
	out := make(map[int]uint32, len(b.options))
	for k, v := range b.options {
		out[k] = v
	}
	return out
}

func parseBi2(p binary.Parser) (*Bi2, error) {
	bi2 := newBi2()
	const slots = bi2Size / 4
	for i := range slots {
		v, err := p.BU32()
		if err != nil {
			return nil, err
		}
		if v != 0 {
			bi2.options[i] = v
		}
	}
	return bi2, nil
}
