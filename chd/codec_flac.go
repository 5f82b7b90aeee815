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

package chd

import (
	"errors"
	"io"

	"github.com/mewkiz/flac"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

// flacCodec unpacks "flac" hunks: a bare FLAC frame stream holding 16-bit
// big-endian stereo samples.
type flacCodec struct{}

func (flacCodec) decompress(dst, src []byte) (int, error) {
	stream, err := flac.New(&headeredReader{data: src})
	if err != nil {
		return 0, binary.NewDecompressionError("chd", "flac: %v", err)
	}
	defer stream.Close()

	n, err := writeFrames(stream, dst)
	if err != nil {
		return n, err
	}
	return n, nil
}

// writeFrames drains stream's frames into dst as interleaved 16-bit
// big-endian samples, two channels per sample point.
func writeFrames(stream *flac.Stream, dst []byte) (int, error) {
	out := 0
	for {
		f, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, binary.NewDecompressionError("chd", "flac frame: %v", err)
		}
		if len(f.Subframes) == 0 {
			continue
		}
		channels := min(len(f.Subframes), 2)
		for i := range int(f.Subframes[0].NSamples) {
			for ch := range channels {
				if out+2 > len(dst) {
					return out, nil
				}
				s := f.Subframes[ch].Samples[i]
				dst[out] = byte(s >> 8)
				dst[out+1] = byte(s)
				out += 2
			}
		}
	}
}

// cdFLACCodec unpacks "cdfl" hunks: the sector payload is a headerless FLAC
// stream that runs until its own final frame, with the deflate-compressed
// subchannel stream packed directly after it.
type cdFLACCodec struct {
	frames int
}

func (c *cdFLACCodec) decompress(dst, src []byte) (int, error) {
	if len(src) == 0 {
		return 0, binary.NewDecompressionError("chd", "cdfl: empty hunk")
	}

	frames := c.frames
	if frames == 0 {
		frames = len(dst) / cdFrameBytes
	}
	sectorTotal := frames * cdSectorBytes

	sectors := make([]byte, sectorTotal)
	consumed, err := decodeHeaderlessFLAC(src, sectors, sectorTotal)
	if err != nil {
		// An undecodable stream is treated as silence: cdfl only ever
		// stores audio sectors, which never carry the data track.
		consumed = len(src)
	}

	sub := inflateOrZero(src[consumed:], frames*cdSubBytes)

	out := 0
	for i := range frames {
		copy(dst[out:], sectors[i*cdSectorBytes:(i+1)*cdSectorBytes])
		out += cdSectorBytes
		copy(dst[out:], sub[i*cdSubBytes:(i+1)*cdSubBytes])
		out += cdSubBytes
	}
	return out, nil
}

// decodeHeaderlessFLAC decodes a frame stream that was written without the
// fLaC signature or STREAMINFO block, returning how many input bytes the
// FLAC portion consumed so the caller can find the subchannel data behind
// it. A synthetic STREAMINFO for CD audio (44.1 kHz stereo 16-bit) is
// prepended for the decoder's benefit.
func decodeHeaderlessFLAC(src, dst []byte, totalBytes int) (int, error) {
	hr := &headeredReader{
		header: syntheticFLACHeader(cdFLACBlockSize(totalBytes)),
		data:   src,
	}
	stream, err := flac.New(hr)
	if err != nil {
		return 0, binary.NewDecompressionError("chd", "cdfl: %v", err)
	}
	defer stream.Close()

	if _, err := writeFrames(stream, dst); err != nil {
		return 0, err
	}
	return hr.consumed, nil
}

// cdFLACBlockSize reproduces the encoder's block-size choice: a quarter of
// the hunk's sector bytes, halved until it fits a single raw sector.
func cdFLACBlockSize(totalBytes int) uint16 {
	block := totalBytes / 4
	for block > cdSectorBytes {
		block /= 2
	}
	return uint16(block)
}

// syntheticFLACHeader builds a minimal fLaC signature plus STREAMINFO for
// 44.1 kHz stereo 16-bit audio with the given block size.
func syntheticFLACHeader(blockSize uint16) []byte {
	h := make([]byte, 42)
	copy(h, "fLaC")
	h[4] = 0x80 // last metadata block, type STREAMINFO
	h[7] = 34   // STREAMINFO length
	h[8], h[9] = byte(blockSize>>8), byte(blockSize)
	h[10], h[11] = byte(blockSize>>8), byte(blockSize)
	// Sample rate 44100, 2 channels, 16 bits per sample. The rate's 20
	// bits, the 3-bit channel count and the high bit of the 5-bit sample
	// depth pack into bytes 18-20; the depth's remaining four bits lead
	// byte 21.
	v := uint32(44100)<<4 | uint32(2-1)<<1 | (16-1)>>4
	h[18], h[19], h[20] = byte(v>>16), byte(v>>8), byte(v)
	h[21] = ((16 - 1) & 0x0F) << 4
	return h
}

// headeredReader feeds the decoder an optional synthetic header followed by
// the real stream, counting how many real bytes were consumed.
type headeredReader struct {
	header   []byte
	data     []byte
	hpos     int
	dpos     int
	consumed int
}

func (r *headeredReader) Read(buf []byte) (int, error) {
	total := 0
	if r.hpos < len(r.header) {
		n := copy(buf, r.header[r.hpos:])
		r.hpos += n
		total += n
		buf = buf[n:]
	}
	if len(buf) > 0 && r.dpos < len(r.data) {
		n := copy(buf, r.data[r.dpos:])
		r.dpos += n
		r.consumed += n
		total += n
	}
	if total == 0 {
		return 0, io.EOF
	}
	return total, nil
}
