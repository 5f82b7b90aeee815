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

package encoding

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// errIncomplete signals that a multi-byte sequence was truncated by the end
// of the input: a lead byte with no trail byte following it.
var errIncomplete = errors.New("encoding: incomplete multi-byte sequence")

// stepFunc decodes the scalar(s) encoded at data[pos:], returning the first
// scalar, an optional second scalar for the handful of Shift JIS 2004 code
// points that are unrepresentable as a single rune, and the number of input
// bytes consumed.
type stepFunc func(data []byte, pos int) (r1, r2 rune, hasSecond bool, n int, err error)

// Decoder is a lazy byte-iterator adapter: each call to Next advances over
// one input event (one or two bytes) and yields one decoded scalar, except
// immediately after a two-scalar event, where the buffered second scalar is
// returned without consuming any further input.
type Decoder struct {
	data     []byte
	pos      int
	pending  rune
	buffered bool
	step     stepFunc
}

func newDecoder(data []byte, step stepFunc) *Decoder {
	return &Decoder{data: data, step: step}
}

// Next decodes and returns the next scalar. ok is false once the input (and
// any buffered second scalar) is exhausted.
func (d *Decoder) Next() (r rune, ok bool, err error) {
	if d.buffered {
		d.buffered = false
		return d.pending, true, nil
	}
	if d.pos >= len(d.data) {
		return 0, false, nil
	}

	r1, r2, hasSecond, n, err := d.step(d.data, d.pos)
	if err != nil {
		return 0, false, err
	}
	d.pos += n
	if hasSecond {
		d.pending = r2
		d.buffered = true
	}
	return r1, true, nil
}

// DecodeAll drains dec to the end of its input, concatenating every
// decoded scalar into a string.
func DecodeAll(dec *Decoder) (string, error) {
	var sb strings.Builder
	for {
		r, ok, err := dec.Next()
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

// DecodeCString drains dec up to (but not including) the first NUL scalar,
// the completion mode used by the fixed-width string fields of the
// container formats (game names, module names, and the like).
func DecodeCString(dec *Decoder) (string, error) {
	var sb strings.Builder
	for {
		r, ok, err := dec.Next()
		if err != nil {
			return "", err
		}
		if !ok || r == 0 {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

// transformBytes adapts a stepFunc to golang.org/x/text/transform.Transformer,
// so every codec in this package can be composed with the rest of the
// x/text ecosystem (transform.NewReader, transform.String, chained with
// other Transformers) instead of only being usable through the Decoder type.
func transformBytes(dst, src []byte, atEOF bool, step stepFunc) (nDst, nSrc int, err error) {
	pos := 0
	for pos < len(src) {
		r1, r2, hasSecond, n, stepErr := step(src, pos)
		if stepErr != nil {
			if errors.Is(stepErr, errIncomplete) {
				if atEOF {
					return nDst, pos, io.ErrUnexpectedEOF
				}
				return nDst, pos, transform.ErrShortSrc
			}
			return nDst, pos, stepErr
		}

		need := utf8.RuneLen(r1)
		if hasSecond {
			need += utf8.RuneLen(r2)
		}
		if nDst+need > len(dst) {
			return nDst, pos, transform.ErrShortDst
		}

		nDst += utf8.EncodeRune(dst[nDst:], r1)
		if hasSecond {
			nDst += utf8.EncodeRune(dst[nDst:], r2)
		}
		pos += n
	}
	return nDst, pos, nil
}
