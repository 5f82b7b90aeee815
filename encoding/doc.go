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

// Package encoding decodes the Japanese text encodings embedded throughout
// GameCube/Wii data: plain ASCII, JIS X 0201 (the half-width katakana
// single-byte set), Shift JIS 1997, and Shift JIS 2004. Each codec exposes a
// lazy Decoder that yields one Unicode scalar per step except for the
// handful of Shift JIS 2004 code points that decompose into two scalars, in
// which case the second scalar is buffered and returned on the following
// step rather than both being emitted at once.
package encoding
