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

// Package gcm parses GameCube/Wii disc images: the boot header, boot
// information block, apploader, main executable and file system table
// that together make up a .gcm/.iso image.
package gcm

import "github.com/zaparoo-fmt/gcbin/internal/binary"

const bootSize = 0x440

const discMagic uint32 = 0xC2339F3D

// Boot is the disc's boot header (boot.bin): the first 0x440 bytes of the
// image, identifying the title and locating its executable and file
// system table.
type Boot struct {
	ConsoleID   uint8
	GameCode    [2]byte
	CountryCode uint8
	MakerCode   [2]byte
	DiscID      uint8
	Version     uint8

	AudioStreaming      uint8
	StreamingBufferSize uint8

	// Magic should equal 0xC2339F3D for a valid GameCube/Wii disc.
	Magic uint32

	GameName string

	DebugMonitorOffset  uint32
	DebugMonitorAddress uint32

	MainExecutableOffset uint32

	FSTOffset  uint32
	FSTSize    uint32
	FSTMaxSize uint32

	UserPosition uint32
	UserLength   uint32
	Unknown0     uint32
}

// IsValid reports whether the boot header's magic number identifies a
// GameCube/Wii disc.
func (b Boot) IsValid() bool { return b.Magic == discMagic }

func parseBoot(p binary.Parser) (Boot, error) {
	var b Boot
	var err error

	if b.ConsoleID, err = p.U8(); err != nil {
		return b, err
	}
	gameCode, err := p.ReadN(2)
	if err != nil {
		return b, err
	}
	copy(b.GameCode[:], gameCode)
	if b.CountryCode, err = p.U8(); err != nil {
		return b, err
	}
	makerCode, err := p.ReadN(2)
	if err != nil {
		return b, err
	}
	copy(b.MakerCode[:], makerCode)
	if b.DiscID, err = p.U8(); err != nil {
		return b, err
	}
	if b.Version, err = p.U8(); err != nil {
		return b, err
	}
	if b.AudioStreaming, err = p.U8(); err != nil {
		return b, err
	}
	if b.StreamingBufferSize, err = p.U8(); err != nil {
		return b, err
	}
	if _, err = p.ReadN(0x12); err != nil { // reserved
		return b, err
	}
	if b.Magic, err = p.BU32(); err != nil {
		return b, err
	}
	nameBuf, err := p.ReadN(0x3E0)
	if err != nil {
		return b, err
	}
	b.GameName = binary.CleanString(nameBuf)
	if b.DebugMonitorOffset, err = p.BU32(); err != nil {
		return b, err
	}
	if b.DebugMonitorAddress, err = p.BU32(); err != nil {
		return b, err
	}
	if _, err = p.ReadN(0x18); err != nil { // reserved
		return b, err
	}
	if b.MainExecutableOffset, err = p.BU32(); err != nil {
		return b, err
	}
	if b.FSTOffset, err = p.BU32(); err != nil {
		return b, err
	}
	if b.FSTSize, err = p.BU32(); err != nil {
		return b, err
	}
	if b.FSTMaxSize, err = p.BU32(); err != nil {
		return b, err
	}
	if b.UserPosition, err = p.BU32(); err != nil {
		return b, err
	}
	if b.UserLength, err = p.BU32(); err != nil {
		return b, err
	}
	if b.Unknown0, err = p.BU32(); err != nil {
		return b, err
	}
	if _, err = p.ReadN(0x4); err != nil { // reserved
		return b, err
	}

	return b, nil
}
