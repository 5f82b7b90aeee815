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

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
	"github.com/spf13/afero"
)

// zipBackend serves ZIP members through the standard library reader.
type zipBackend struct {
	file afero.File
	zr   *zip.Reader
}

func newZipBackend(f afero.File, size int64) (backend, error) {
	zr, err := zip.NewReader(f, size)
	if err != nil {
		return nil, fmt.Errorf("read zip: %w", err)
	}
	return &zipBackend{file: f, zr: zr}, nil
}

func (b *zipBackend) list() ([]Member, error) {
	members := make([]Member, 0, len(b.zr.File))
	for _, f := range b.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		members = append(members, Member{Name: f.Name, Size: int64(f.UncompressedSize64)})
	}
	return members, nil
}

func (b *zipBackend) open(name string) (io.ReadCloser, int64, error) {
	for _, f := range b.zr.File {
		if strings.EqualFold(f.Name, name) {
			rc, err := f.Open()
			if err != nil {
				return nil, 0, fmt.Errorf("open zip member: %w", err)
			}
			return rc, int64(f.UncompressedSize64), nil
		}
	}
	return nil, 0, NotFoundError{Member: name}
}

func (b *zipBackend) close() error { return b.file.Close() }

// sevenZipBackend serves 7z members.
type sevenZipBackend struct {
	file afero.File
	szr  *sevenzip.Reader
}

func newSevenZipBackend(f afero.File, size int64) (backend, error) {
	szr, err := sevenzip.NewReader(f, size)
	if err != nil {
		return nil, fmt.Errorf("read 7z: %w", err)
	}
	return &sevenZipBackend{file: f, szr: szr}, nil
}

func (b *sevenZipBackend) list() ([]Member, error) {
	members := make([]Member, 0, len(b.szr.File))
	for _, f := range b.szr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		members = append(members, Member{Name: f.Name, Size: int64(f.UncompressedSize)})
	}
	return members, nil
}

func (b *sevenZipBackend) open(name string) (io.ReadCloser, int64, error) {
	for _, f := range b.szr.File {
		if strings.EqualFold(f.Name, name) {
			rc, err := f.Open()
			if err != nil {
				return nil, 0, fmt.Errorf("open 7z member: %w", err)
			}
			return rc, int64(f.UncompressedSize), nil
		}
	}
	return nil, 0, NotFoundError{Member: name}
}

func (b *sevenZipBackend) close() error { return b.file.Close() }

// rarBackend serves RAR members. The format only decodes sequentially, so
// every operation rewinds and walks the entry headers from the start.
type rarBackend struct {
	file afero.File
}

func newRarBackend(f afero.File) backend {
	return &rarBackend{file: f}
}

func (b *rarBackend) rewind() (*rardecode.Reader, error) {
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek rar: %w", err)
	}
	rr, err := rardecode.NewReader(b.file)
	if err != nil {
		return nil, fmt.Errorf("read rar: %w", err)
	}
	return rr, nil
}

func (b *rarBackend) list() ([]Member, error) {
	rr, err := b.rewind()
	if err != nil {
		return nil, err
	}

	var members []Member
	for {
		hdr, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return members, nil
		}
		if err != nil {
			return nil, fmt.Errorf("rar entry: %w", err)
		}
		if hdr.IsDir {
			continue
		}
		members = append(members, Member{Name: hdr.Name, Size: hdr.UnPackedSize})
	}
}

func (b *rarBackend) open(name string) (io.ReadCloser, int64, error) {
	rr, err := b.rewind()
	if err != nil {
		return nil, 0, err
	}

	for {
		hdr, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil, 0, NotFoundError{Member: name}
		}
		if err != nil {
			return nil, 0, fmt.Errorf("rar entry: %w", err)
		}
		if !hdr.IsDir && strings.EqualFold(hdr.Name, name) {
			return io.NopCloser(rr), hdr.UnPackedSize, nil
		}
	}
}

func (b *rarBackend) close() error { return b.file.Close() }
