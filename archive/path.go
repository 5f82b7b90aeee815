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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Path names a member inside an archive file. An empty InternalPath means
// "pick the first recognizable disc image" (see DetectDiscFile).
type Path struct {
	ArchivePath  string
	InternalPath string
}

var archiveExtensions = []string{".zip", ".7z", ".rar"}

// IsArchiveExtension reports whether ext names a supported container
// format.
func IsArchiveExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range archiveExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ParsePath recognizes paths that point into or at an archive on the host
// filesystem: either "game.zip/dir/game.iso" naming a member directly, or
// a bare "game.zip". It returns nil with no error when path is an ordinary
// file reference.
func ParsePath(path string) (*Path, error) {
	return ParsePathFS(afero.NewOsFs(), path)
}

// ParsePathFS is ParsePath against an explicit filesystem.
func ParsePathFS(fsys afero.Fs, path string) (*Path, error) {
	normalized := strings.ToLower(filepath.ToSlash(path))

	for _, ext := range archiveExtensions {
		idx := strings.Index(normalized, ext+"/")
		if idx < 0 {
			continue
		}
		archivePath := path[:idx+len(ext)]
		switch info, err := fsys.Stat(archivePath); {
		case err == nil && !info.IsDir():
			return &Path{
				ArchivePath:  archivePath,
				InternalPath: path[idx+len(ext)+1:],
			}, nil
		case err == nil || os.IsNotExist(err):
			// A directory may legitimately be named "saves.zip"; only a
			// real file turns the prefix into an archive reference.
			continue
		default:
			return nil, fmt.Errorf("stat %s: %w", archivePath, err)
		}
	}

	if !IsArchiveExtension(filepath.Ext(path)) {
		return nil, nil
	}
	switch _, err := fsys.Stat(path); {
	case err == nil:
		return &Path{ArchivePath: path}, nil
	case os.IsNotExist(err):
		return nil, nil
	default:
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
}

func lowerExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
