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

// Package gcbin ties the format-specific decoders in this module (dol,
// rel, gcm, rarc) and the supporting containers (yaz0, ciso, chd, archive)
// together behind one Open entry point. Callers hand Open a path without
// knowing whether it names a plain file, a block device, or an archive
// member.
package gcbin

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zaparoo-fmt/gcbin/archive"
	"github.com/zaparoo-fmt/gcbin/chd"
	"github.com/zaparoo-fmt/gcbin/ciso"
	"github.com/zaparoo-fmt/gcbin/internal/binary"
	"github.com/zaparoo-fmt/gcbin/yaz0"
)

// Open resolves path to a binary.Parser over its disc image content. path
// may name a plain file, a physical optical drive (/dev/sr0-style), a CHD
// container, or a disc image stored inside a zip/7z/rar archive, either as
// a bare archive path (the first recognized disc or executable image is
// used) or a MiSTer-style "archive.zip/folder/game.iso" path naming the
// member directly. Yaz0 compression and CISO sparse-block framing are
// unwrapped automatically when present, so the returned Parser always
// serves a raw, decompressed image positioned at its start. The caller
// must close the returned io.Closer once done with the Parser.
func Open(path string) (binary.Parser, io.Closer, error) {
	src, closer, err := openSource(path)
	if err != nil {
		return nil, nil, err
	}

	p := binary.NewParser(src)

	src, err = maybeUnwrapCISO(p, src)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	p = binary.NewParser(src)

	src, err = yaz0.Open(p, src)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}

	return binary.NewParser(src), closer, nil
}

// maybeUnwrapCISO rewinds and returns src unchanged unless it begins with
// a valid CISO header, mirroring yaz0.Open's transparent pass-through: a
// CISO image is just another composable wrapper around a raw disc image.
func maybeUnwrapCISO(p binary.Parser, src binary.ReadAtSeeker) (binary.ReadAtSeeker, error) {
	pos, err := p.Position()
	if err != nil {
		return nil, err
	}
	img, err := ciso.Open(p, src)
	if err != nil {
		if err := p.Seek(pos); err != nil {
			return nil, err
		}
		return src, nil
	}
	return img, nil
}

func openSource(path string) (binary.ReadAtSeeker, io.Closer, error) {
	archivePath, err := archive.ParsePath(path)
	if err != nil {
		return nil, nil, err
	}
	if archivePath != nil {
		return openArchiveMember(archivePath)
	}

	if strings.ToLower(filepath.Ext(path)) == ".chd" {
		return openCHD(path)
	}
	return openFile(path)
}

func openCHD(path string) (binary.ReadAtSeeker, io.Closer, error) {
	img, err := chd.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return img.DataTrack(), img, nil
}

// openArchiveMember opens p.ArchivePath and resolves the disc or executable
// image within it: p.InternalPath if one was named explicitly, otherwise
// the first member archive.DetectDiscFile recognizes.
func openArchiveMember(p *archive.Path) (binary.ReadAtSeeker, io.Closer, error) {
	arc, err := archive.Open(p.ArchivePath)
	if err != nil {
		return nil, nil, err
	}

	member := p.InternalPath
	if member == "" {
		member, err = archive.DetectDiscFile(arc)
		if err != nil {
			arc.Close()
			return nil, nil, err
		}
	}

	r, size, err := arc.OpenReaderAt(member)
	if err != nil {
		arc.Close()
		return nil, nil, err
	}

	return readAtSeeker{ReaderAt: r, size: size}, arc, nil
}

func openFile(path string) (binary.ReadAtSeeker, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	size, err := fileSize(f, path)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return readAtSeeker{ReaderAt: f, size: size}, f, nil
}

// fileSize returns the readable length of f. A regular file's Stat().Size()
// is authoritative, but optical drives and other block devices report a
// size of 0 through stat(2) on Linux; for those, the size is instead found
// by seeking to the end.
func fileSize(f *os.File, path string) (int64, error) {
	if isBlockDevice(path) {
		size, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, err
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
		return size, nil
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// readAtSeeker adapts any io.ReaderAt of known size to binary.ReadAtSeeker.
type readAtSeeker struct {
	io.ReaderAt
	size int64
}

func (r readAtSeeker) Size() (int64, error) { return r.size, nil }
