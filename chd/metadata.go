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
	"strconv"
	"strings"

	"github.com/zaparoo-fmt/gcbin/internal/binary"
)

// Metadata tags carrying CD track layout.
const (
	metaTagTrackV2 uint32 = 0x43485432 // "CHT2", key:value text
	metaTagTrackV1 uint32 = 0x43485452 // "CHTR", same text with fewer keys
	metaTagCD      uint32 = 0x43484344 // "CHCD", packed binary track list
)

const (
	maxMetadataEntries = 1000
	maxMetadataBytes   = 16 * 1024 * 1024
	maxTracks          = 200
)

// Track describes one track of a CD-shaped CHD. GameCube and Wii rips made
// with createdvd carry no track metadata at all; rips stored CD-style carry
// exactly one data track.
type Track struct {
	Type       string
	SubType    string
	Number     int
	Frames     int
	Pregap     int
	Postgap    int
	DataSize   int
	SubSize    int
	StartFrame int
}

// IsData reports whether the track stores data rather than audio.
func (t *Track) IsData() bool {
	return !strings.EqualFold(t.Type, "AUDIO")
}

// readTracks follows the metadata chain starting at offset and collects all
// track descriptions. Unknown tags are skipped; frame positions are summed
// in chain order.
func readTracks(p binary.Parser, offset uint64) ([]Track, error) {
	var tracks []Track
	seen := make(map[uint64]bool)

	for entries := 0; offset != 0; entries++ {
		if seen[offset] || entries >= maxMetadataEntries {
			return nil, binary.NewParseError("chd", "metadata chain loops at offset %d", offset)
		}
		seen[offset] = true

		if err := p.Seek(int64(offset)); err != nil {
			return nil, err
		}
		tag, err := p.BU32()
		if err != nil {
			return nil, err
		}
		head, err := p.ReadN(4) // flags byte + 24-bit length
		if err != nil {
			return nil, err
		}
		length := uint32(head[1])<<16 | uint32(head[2])<<8 | uint32(head[3])
		if length > maxMetadataBytes {
			return nil, binary.NewParseError("chd", "metadata entry of %d bytes at offset %d", length, offset)
		}
		next, err := p.BU64()
		if err != nil {
			return nil, err
		}
		payload, err := p.ReadN(int(length))
		if err != nil {
			return nil, err
		}
		offset = next

		switch tag {
		case metaTagTrackV2, metaTagTrackV1:
			t, err := parseTrackText(payload)
			if err != nil {
				return nil, err
			}
			tracks = append(tracks, t)
		case metaTagCD:
			packed, err := parseTrackTable(payload)
			if err != nil {
				return nil, err
			}
			tracks = append(tracks, packed...)
		}
	}

	frame := 0
	for i := range tracks {
		tracks[i].StartFrame = frame
		frame += tracks[i].Pregap + tracks[i].Frames + tracks[i].Postgap
	}
	return tracks, nil
}

// parseTrackText decodes the "TRACK:n TYPE:... FRAMES:n ..." text form used
// by the CHT2 and CHTR tags.
func parseTrackText(payload []byte) (Track, error) {
	var t Track
	text := strings.TrimRight(string(payload), "\x00 \t\r\n")

	for _, field := range strings.Fields(text) {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}

		var dst *int
		switch strings.ToUpper(key) {
		case "TRACK":
			dst = &t.Number
		case "FRAMES":
			dst = &t.Frames
		case "PREGAP":
			dst = &t.Pregap
		case "POSTGAP":
			dst = &t.Postgap
		case "TYPE":
			t.Type = value
			t.DataSize = trackDataSize(value)
			continue
		case "SUBTYPE":
			t.SubType = value
			t.SubSize = trackSubSize(value)
			continue
		default:
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return t, binary.NewParseError("chd", "track metadata %s=%q: %v", key, value, err)
		}
		*dst = n
	}
	return t, nil
}

// parseTrackTable decodes the packed CHCD form: a count followed by 24-byte
// records of type, subtype, data size, subchannel size, frames and padding.
func parseTrackTable(payload []byte) ([]Track, error) {
	if len(payload) < 4 {
		return nil, binary.NewParseError("chd", "packed track table truncated")
	}
	count := loadBU32(payload)
	if count > maxTracks {
		return nil, binary.NewParseError("chd", "%d tracks exceeds limit", count)
	}
	if len(payload) < int(4+count*24) {
		return nil, binary.NewParseError("chd", "packed track table holds %d bytes for %d tracks", len(payload), count)
	}

	tracks := make([]Track, count)
	for i := range tracks {
		rec := payload[4+i*24:]
		tracks[i] = Track{
			Number:   i + 1,
			Type:     packedTrackType(loadBU32(rec)),
			SubType:  packedSubType(loadBU32(rec[4:])),
			DataSize: int(loadBU32(rec[8:])),
			SubSize:  int(loadBU32(rec[12:])),
			Frames:   int(loadBU32(rec[16:])),
		}
	}
	return tracks, nil
}

func loadBU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func trackDataSize(trackType string) int {
	switch strings.ToUpper(trackType) {
	case "MODE1/2048", "MODE2_FORM1", "MODE2/2048":
		return 2048
	case "MODE2/2336", "MODE2_FORM_MIX":
		return 2336
	default:
		return cdSectorBytes
	}
}

func trackSubSize(subType string) int {
	switch strings.ToUpper(subType) {
	case "RW", "RW_RAW":
		return cdSubBytes
	default:
		return 0
	}
}

func packedTrackType(v uint32) string {
	switch v {
	case 0:
		return "MODE1/2048"
	case 1:
		return "MODE1/2352"
	case 2:
		return "MODE2/2048"
	case 3:
		return "MODE2/2336"
	case 4:
		return "MODE2/2352"
	case 5:
		return "AUDIO"
	default:
		return "UNKNOWN"
	}
}

func packedSubType(v uint32) string {
	switch v {
	case 0:
		return "RW"
	case 1:
		return "RW_RAW"
	default:
		return "NONE"
	}
}
