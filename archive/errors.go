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

// FormatError reports a path whose extension names no supported container
// format.
type FormatError struct {
	Format string
}

func (e FormatError) Error() string {
	return fmt.Sprintf("unsupported archive format %q", e.Format)
}

// NotFoundError reports a member name absent from an archive.
type NotFoundError struct {
	Member string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("member %q not found in archive", e.Member)
}

// NoDiscFileError reports an archive holding no recognizable disc or
// executable image.
type NoDiscFileError struct {
	Archive string
}

func (e NoDiscFileError) Error() string {
	return fmt.Sprintf("no disc or executable image found in %q", e.Archive)
}
