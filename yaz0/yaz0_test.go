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

package yaz0_test

import (
	"bytes"
	"testing"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
	"github.com/zaparoo-fmt/gcbin/yaz0"
)

// buildStream assembles a minimal Yaz0 stream: header + one all-literal
// code group encoding payload.
func buildStream(payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("Yaz0")
	writeBU32(&buf, uint32(len(payload)))
	writeBU32(&buf, 0)
	writeBU32(&buf, 0)

	for i := 0; i < len(payload); i += 8 {
		chunk := payload[i:min(i+8, len(payload))]
		var code byte
		for j := range chunk {
			code |= 0x80 >> j
		}
		buf.WriteByte(code)
		buf.Write(chunk)
	}
	return buf.Bytes()
}

func writeBU32(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v >> 24))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v))
}

func TestIsYaz0(t *testing.T) {
	t.Parallel()

	stream := buildStream([]byte("hello, gamecube"))
	p := binary.NewFileParser(bytes.NewReader(stream), int64(len(stream)))

	if !yaz0.IsYaz0(p) {
		t.Fatal("expected stream to be recognized as Yaz0")
	}

	pos, err := p.Position()
	if err != nil || pos != 0 {
		t.Fatalf("IsYaz0 should not move the cursor, got pos=%d err=%v", pos, err)
	}
}

func TestIsYaz0_RejectsGarbage(t *testing.T) {
	t.Parallel()

	data := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	p := binary.NewFileParser(bytes.NewReader(data), int64(len(data)))
	if yaz0.IsYaz0(p) {
		t.Fatal("garbage should not be recognized as Yaz0")
	}
}

func TestDecompressLiteralsOnly(t *testing.T) {
	t.Parallel()

	payload := []byte("hello, gamecube world this is a test payload")
	stream := buildStream(payload)
	p := binary.NewFileParser(bytes.NewReader(stream), int64(len(stream)))

	r, err := yaz0.NewReader(p)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.DecompressedSize() != uint32(len(payload)) {
		t.Fatalf("DecompressedSize = %d, want %d", r.DecompressedSize(), len(payload))
	}

	got, err := r.Decompress(p)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Decompress = %q, want %q", got, payload)
	}
}

func TestDecompressBackReference(t *testing.T) {
	t.Parallel()

	// "AB" followed by a back-reference re-reading from two bytes behind
	// the write position. Code group bits (MSB first): literal, literal,
	// back-reference, pad.
	var buf bytes.Buffer
	buf.WriteString("Yaz0")
	writeBU32(&buf, 5) // decompressed size: A B A B A
	writeBU32(&buf, 0)
	writeBU32(&buf, 0)

	buf.WriteByte(0b1100_0000)
	buf.WriteByte('A')
	buf.WriteByte('B')
	// back-reference: high nibble 1 => length = 1+2 = 3; offset field 1 =>
	// each byte copies from two positions back.
	buf.WriteByte(0x10)
	buf.WriteByte(0x01)

	stream := buf.Bytes()
	p := binary.NewFileParser(bytes.NewReader(stream), int64(len(stream)))

	r, err := yaz0.NewReader(p)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := r.Decompress(p)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	want := []byte("ABABA")
	if !bytes.Equal(got, want) {
		t.Fatalf("Decompress = %q, want %q", got, want)
	}
}

func TestDecompressOverlappingRun(t *testing.T) {
	t.Parallel()

	// A back-reference whose offset is smaller than its length overlaps the
	// bytes it is producing: each output byte is appended before the next is
	// read, so an offset of 1 repeats the last byte written (the RLE effect).
	var buf bytes.Buffer
	buf.WriteString("Yaz0")
	writeBU32(&buf, 6) // a b b b b b
	writeBU32(&buf, 0)
	writeBU32(&buf, 0)

	buf.WriteByte(0b1100_0000) // lit 'a', lit 'b', back-ref
	buf.WriteByte('a')
	buf.WriteByte('b')
	buf.WriteByte(0x20) // length = 2+2 = 4, offset high bits = 0
	buf.WriteByte(0x00) // offset = 0 => copy from one byte back

	stream := buf.Bytes()
	p := binary.NewFileParser(bytes.NewReader(stream), int64(len(stream)))

	r, err := yaz0.NewReader(p)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	got, err := r.Decompress(p)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	want := []byte("abbbbb")
	if !bytes.Equal(got, want) {
		t.Fatalf("Decompress = %q, want %q", got, want)
	}
}

func TestDecompressInto_BufferTooSmall(t *testing.T) {
	t.Parallel()

	payload := []byte("abcdef")
	stream := buildStream(payload)
	p := binary.NewFileParser(bytes.NewReader(stream), int64(len(stream)))

	r, err := yaz0.NewReader(p)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	small := make([]byte, 2)
	if err := r.DecompressInto(p, small); err == nil {
		t.Fatal("expected error for undersized destination buffer")
	}
}

func TestNewReader_InvalidMagic(t *testing.T) {
	t.Parallel()

	data := make([]byte, 16)
	copy(data, "Yez0")
	p := binary.NewFileParser(bytes.NewReader(data), int64(len(data)))

	if _, err := yaz0.NewReader(p); err == nil {
		t.Fatal("expected error for invalid magic")
	}
}

func TestOpen_Compressed(t *testing.T) {
	t.Parallel()

	payload := []byte("this stream is Yaz0 compressed")
	stream := buildStream(payload)
	src := fileStream{data: stream}
	p := binary.NewFileParser(src, int64(len(stream)))

	out, err := yaz0.Open(p, src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	got := make([]byte, len(payload))
	if _, err := out.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Open decompressed = %q, want %q", got, payload)
	}
}

func TestOpen_PassThrough(t *testing.T) {
	t.Parallel()

	raw := []byte("not a yaz0 stream at all, just plain bytes")
	src := fileStream{data: raw}
	p := binary.NewFileParser(src, int64(len(raw)))

	out, err := yaz0.Open(p, src)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := make([]byte, len(raw))
	if _, err := out.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("Open pass-through = %q, want %q", got, raw)
	}

	pos, err := p.Position()
	if err != nil || pos != 0 {
		t.Fatalf("Open should not leave the cursor advanced, got pos=%d err=%v", pos, err)
	}
}

// fileStream is a trivial binary.ReadAtSeeker backed by an in-memory slice,
// used to check that Open's pass-through path returns the original source
// value rather than a Stream wrapping a copy of it.
type fileStream struct{ data []byte }

func (f fileStream) ReadAt(buf []byte, off int64) (int, error) {
	return bytes.NewReader(f.data).ReadAt(buf, off)
}

func (f fileStream) Size() (int64, error) { return int64(len(f.data)), nil }
