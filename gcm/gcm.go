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

const (
	bi2End        = 0x2440
	apploaderBase = 0x2460
)

// Image is a fully parsed GameCube/Wii disc image: its boot header, boot
// information block, apploader, main executable and file system table.
type Image struct {
	Boot       Boot
	Bi2        *Bi2
	Apploader  Apploader
	Executable MainExecutable
	FST        *FST
}

// Open parses a disc image from p, which must be positioned at the start
// of the image (offset 0). Each fixed-size section's end position is
// cross-checked against the expected layout, catching truncated or
// malformed images early rather than producing a structurally-odd Image.
func Open(p binary.Parser) (*Image, error) {
	base, err := p.Position()
	if err != nil {
		return nil, err
	}

	boot, err := parseBoot(p)
	if err != nil {
		return nil, err
	}
	if err := expectPosition(p, base+bootSize, "boot header"); err != nil {
		return nil, err
	}

	bi2, err := parseBi2(p)
	if err != nil {
		return nil, err
	}
	if err := expectPosition(p, base+bi2End, "boot information block"); err != nil {
		return nil, err
	}

	apploader, err := parseApploader(p)
	if err != nil {
		return nil, err
	}
	if err := expectPosition(p, base+apploaderBase+int64(len(apploader.Data)), "apploader"); err != nil {
		return nil, err
	}

	if err := p.Seek(base + int64(boot.MainExecutableOffset)); err != nil {
		return nil, err
	}
	executable, err := parseMainExecutable(p)
	if err != nil {
		return nil, err
	}

	if err := p.Seek(base + int64(boot.FSTOffset)); err != nil {
		return nil, err
	}
	fst, err := ParseFST(p, boot.FSTSize)
	if err != nil {
		return nil, err
	}

	return &Image{
		Boot:       boot,
		Bi2:        bi2,
		Apploader:  apploader,
		Executable: executable,
		FST:        fst,
	}, nil
}

func expectPosition(p binary.Parser, want int64, what string) error {
	got, err := p.Position()
	if err != nil {
		return err
	}
	if got != want {
		return binary.NewParseError("gcm", "invalid %s: expected to end at %#x, got %#x", what, want, got)
	}
	return nil
}
