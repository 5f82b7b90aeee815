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

package encoding_test

import (
	"testing"

	"golang.org/x/text/transform"

	"github.com/zaparoo-fmt/gcbin/encoding"
)

func TestAscii_DecodeAll(t *testing.T) {
	t.Parallel()

	dec := encoding.Ascii{}.NewDecoder([]byte("Dolphin"))
	got, err := encoding.DecodeAll(dec)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if got != "Dolphin" {
		t.Fatalf("DecodeAll = %q, want %q", got, "Dolphin")
	}
}

func TestAscii_RejectsHighBit(t *testing.T) {
	t.Parallel()

	dec := encoding.Ascii{}.NewDecoder([]byte{0x80})
	if _, err := encoding.DecodeAll(dec); err == nil {
		t.Fatal("expected error decoding a non-ASCII byte")
	}
}

func TestJisX0201_HalfWidthKatakana(t *testing.T) {
	t.Parallel()

	// 0xB1 is half-width katakana ア (U+FF71).
	dec := encoding.JisX0201{}.NewDecoder([]byte{0xB1})
	got, err := encoding.DecodeAll(dec)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if want := string(rune(0xFF71)); got != want {
		t.Fatalf("DecodeAll = %q, want %q", got, want)
	}
}

func TestJisX0201_YenAndOverline(t *testing.T) {
	t.Parallel()

	dec := encoding.JisX0201{}.NewDecoder([]byte{0x5C, 0x7E})
	got, err := encoding.DecodeAll(dec)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	want := string(rune(0x00A5)) + string(rune(0x203E))
	if got != want {
		t.Fatalf("DecodeAll = %q, want %q", got, want)
	}
}

func TestShiftJis2004_SingleScalarDoubleByte(t *testing.T) {
	t.Parallel()

	// 0x82 0xA9 -> か (U+304B)
	dec := encoding.ShiftJis2004{}.NewDecoder([]byte{0x82, 0xA9})
	got, err := encoding.DecodeAll(dec)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if want := string(rune(0x304B)); got != want {
		t.Fatalf("DecodeAll = %q, want %q", got, want)
	}
}

func TestShiftJis2004_TwoScalarEmission(t *testing.T) {
	t.Parallel()

	// 0x82 0xF5 decomposes into か (U+304B) followed immediately by the
	// combining semi-voiced sound mark (U+309A), with no bytes consumed
	// between the two emitted scalars.
	dec := encoding.ShiftJis2004{}.NewDecoder([]byte{0x82, 0xF5})

	r1, ok, err := dec.Next()
	if err != nil || !ok {
		t.Fatalf("Next() #1 = %v, %v, %v", r1, ok, err)
	}
	if r1 != 0x304B {
		t.Fatalf("first scalar = %U, want U+304B", r1)
	}

	r2, ok, err := dec.Next()
	if err != nil || !ok {
		t.Fatalf("Next() #2 = %v, %v, %v", r2, ok, err)
	}
	if r2 != 0x309A {
		t.Fatalf("second scalar = %U, want U+309A", r2)
	}

	if _, ok, _ := dec.Next(); ok {
		t.Fatal("expected iterator to be exhausted after the buffered second scalar")
	}
}

func TestShiftJis2004_InvalidTrailByte(t *testing.T) {
	t.Parallel()

	// 0x82 is a valid lead, but 0x00 is not in its trail range.
	dec := encoding.ShiftJis2004{}.NewDecoder([]byte{0x82, 0x00})
	if _, err := encoding.DecodeAll(dec); err == nil {
		t.Fatal("expected error for out-of-range trail byte")
	}
}

func TestShiftJis2004_InvalidLeadByte(t *testing.T) {
	t.Parallel()

	dec := encoding.ShiftJis2004{}.NewDecoder([]byte{0x80})
	if _, err := encoding.DecodeAll(dec); err == nil {
		t.Fatal("expected error for invalid lead byte")
	}
}

func TestShiftJis1997_NoTwoScalarOutputs(t *testing.T) {
	t.Parallel()

	// The same code point that is a two-scalar decomposition under 2004
	// (0x82 0xF5) simply is not present in the 1997 table.
	dec := encoding.ShiftJis1997{}.NewDecoder([]byte{0x82, 0xF5})
	if _, err := encoding.DecodeAll(dec); err == nil {
		t.Fatal("expected error: 0x82F5 has no mapping in Shift JIS 1997")
	}
}

func TestDecodeCString_StopsAtNUL(t *testing.T) {
	t.Parallel()

	dec := encoding.Ascii{}.NewDecoder([]byte("hello\x00world"))
	got, err := encoding.DecodeCString(dec)
	if err != nil {
		t.Fatalf("DecodeCString: %v", err)
	}
	if got != "hello" {
		t.Fatalf("DecodeCString = %q, want %q", got, "hello")
	}
}

func TestShiftJis2004_TransformMatchesDecoder(t *testing.T) {
	t.Parallel()

	input := []byte{0x82, 0xA9, 0x83, 0x40}

	dec := encoding.ShiftJis2004{}.NewDecoder(input)
	want, err := encoding.DecodeAll(dec)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}

	got, _, err := transform.String(encoding.ShiftJis2004{}, string(input))
	if err != nil {
		t.Fatalf("transform.String: %v", err)
	}
	if got != want {
		t.Fatalf("transform.String = %q, want %q", got, want)
	}
}
