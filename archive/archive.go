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

// Package archive reads GameCube/Wii disc and executable images stored
// inside ZIP, 7z and RAR containers, so the top-level Open entry point can
// treat an archive member the same as a plain file on disk. All filesystem
// access goes through an afero.Fs, letting tests assemble archives entirely
// in memory.
package archive

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Member is one file stored inside an archive.
type Member struct {
	Name string // slash-separated path within the archive
	Size int64  // decompressed size
}

// backend is the format-specific half of an Archive: member enumeration
// and sequential member access.
type backend interface {
	list() ([]Member, error)
	open(name string) (io.ReadCloser, int64, error)
	close() error
}

// Archive is an open container file.
type Archive struct {
	path    string
	backend backend
}

// Open opens the archive at path on the host filesystem, choosing the
// format by extension.
func Open(path string) (*Archive, error) {
	return OpenFS(afero.NewOsFs(), path)
}

// OpenFS opens the archive at path on fsys.
func OpenFS(fsys afero.Fs, path string) (*Archive, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	var b backend
	switch ext := lowerExt(path); ext {
	case ".zip":
		b, err = newZipBackend(f, info.Size())
	case ".7z":
		b, err = newSevenZipBackend(f, info.Size())
	case ".rar":
		b = newRarBackend(f)
	default:
		f.Close()
		return nil, FormatError{Format: ext}
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Archive{path: path, backend: b}, nil
}

// List returns the archive's members, directories excluded.
func (a *Archive) List() ([]Member, error) {
	return a.backend.list()
}

// Open opens the named member for sequential reading, returning its
// decompressed size alongside.
func (a *Archive) Open(name string) (io.ReadCloser, int64, error) {
	rc, size, err := a.backend.open(name)
	if err != nil {
		return nil, 0, err
	}
	return rc, size, nil
}

// OpenReaderAt reads the named member fully into memory and returns random
// access to it. Every format here decompresses sequentially, so random
// access costs one buffered copy of the member.
func (a *Archive) OpenReaderAt(name string) (io.ReaderAt, int64, error) {
	rc, size, err := a.Open(name)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	data := make([]byte, size)
	if _, err := io.ReadFull(rc, data); err != nil {
		return nil, 0, fmt.Errorf("read member %q: %w", name, err)
	}
	return memberData(data), size, nil
}

// Close closes the archive and its underlying file.
func (a *Archive) Close() error {
	return a.backend.close()
}

// memberData serves a buffered member as an io.ReaderAt.
type memberData []byte

func (m memberData) ReadAt(buf []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m)) {
		return 0, io.EOF
	}
	n := copy(buf, m[off:])
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}
