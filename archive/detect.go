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

package archive

import "fmt"

// discExtensions mark members recognizable as GameCube/Wii disc or
// executable images without looking at their contents.
var discExtensions = map[string]bool{
	".gcm": true,
	".iso": true,
	".rvz": true,
	".gcz": true,
	".dol": true,
	".rel": true,
}

// IsDiscFile reports whether name carries a disc or executable image
// extension.
func IsDiscFile(name string) bool {
	return discExtensions[lowerExt(name)]
}

// DetectDiscFile returns the name of the first member of arc that looks
// like a disc or executable image.
func DetectDiscFile(arc *Archive) (string, error) {
	members, err := arc.List()
	if err != nil {
		return "", fmt.Errorf("list members: %w", err)
	}
	for _, m := range members {
		if IsDiscFile(m.Name) {
			return m.Name, nil
		}
	}
	return "", NoDiscFileError{Archive: arc.path}
}
