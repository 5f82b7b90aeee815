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

package archive_test

import (
	zipw "archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"

	"github.com/zaparoo-fmt/gcbin/archive"
)

// writeZip assembles a ZIP file from name -> content pairs and writes it to
// fsys at path.
func writeZip(t *testing.T, fsys afero.Fs, path string, members map[string][]byte) {
	t.Helper()

	var buf bytes.Buffer
	zw := zipw.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %q: %v", name, err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("zip write %q: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := afero.WriteFile(fsys, path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}

func TestZipListAndOpen(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/games/bundle.zip", map[string][]byte{
		"readme.txt":     []byte("not a disc"),
		"disc/game.gcm":  bytes.Repeat([]byte{0xAB}, 512),
		"disc/patch.rel": []byte("relocatable"),
	})

	arc, err := archive.OpenFS(fsys, "/games/bundle.zip")
	if err != nil {
		t.Fatalf("OpenFS: %v", err)
	}
	defer arc.Close()

	members, err := arc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("List returned %d members, want 3", len(members))
	}

	rc, size, err := arc.Open("disc/game.gcm")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if size != 512 {
		t.Errorf("size = %d, want 512", size)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(data) != 512 || data[0] != 0xAB {
		t.Error("member content mismatch")
	}
}

func TestZipOpenReaderAt(t *testing.T) {
	t.Parallel()

	content := []byte("0123456789abcdef")
	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/a.zip", map[string][]byte{"game.iso": content})

	arc, err := archive.OpenFS(fsys, "/a.zip")
	if err != nil {
		t.Fatalf("OpenFS: %v", err)
	}
	defer arc.Close()

	r, size, err := arc.OpenReaderAt("game.iso")
	if err != nil {
		t.Fatalf("OpenReaderAt: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("size = %d, want %d", size, len(content))
	}

	buf := make([]byte, 6)
	if _, err := r.ReadAt(buf, 10); err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf) != "abcdef" {
		t.Errorf("ReadAt = %q, want %q", buf, "abcdef")
	}
	if _, err := r.ReadAt(buf, 100); !errors.Is(err, io.EOF) {
		t.Error("expected EOF past end of member")
	}
}

func TestOpenMemberNotFound(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/a.zip", map[string][]byte{"game.iso": []byte("x")})

	arc, err := archive.OpenFS(fsys, "/a.zip")
	if err != nil {
		t.Fatalf("OpenFS: %v", err)
	}
	defer arc.Close()

	_, _, err = arc.Open("missing.iso")
	var notFound archive.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestOpenUnsupportedFormat(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/a.tar", []byte("tar"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := archive.OpenFS(fsys, "/a.tar")
	var formatErr archive.FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("err = %v, want FormatError", err)
	}
}

func TestOpenCorruptSevenZip(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/a.7z", []byte("definitely not 7z"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := archive.OpenFS(fsys, "/a.7z"); err == nil {
		t.Fatal("expected error for corrupt 7z data")
	}
}

func TestDetectDiscFile(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/a.zip", map[string][]byte{
		"notes.txt":    []byte("x"),
		"image.iso":    []byte("y"),
		"other/b.gcm":  []byte("z"),
		"artwork.webp": []byte("w"),
	})

	arc, err := archive.OpenFS(fsys, "/a.zip")
	if err != nil {
		t.Fatalf("OpenFS: %v", err)
	}
	defer arc.Close()

	name, err := archive.DetectDiscFile(arc)
	if err != nil {
		t.Fatalf("DetectDiscFile: %v", err)
	}
	if !archive.IsDiscFile(name) {
		t.Errorf("detected %q, which IsDiscFile rejects", name)
	}
}

func TestDetectDiscFileNone(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/a.zip", map[string][]byte{"readme.txt": []byte("x")})

	arc, err := archive.OpenFS(fsys, "/a.zip")
	if err != nil {
		t.Fatalf("OpenFS: %v", err)
	}
	defer arc.Close()

	_, err = archive.DetectDiscFile(arc)
	var noDisc archive.NoDiscFileError
	if !errors.As(err, &noDisc) {
		t.Fatalf("err = %v, want NoDiscFileError", err)
	}
}

func TestIsDiscFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"game.iso", "GAME.GCM", "main.DOL", "module.rel", "x.rvz", "y.gcz"} {
		if !archive.IsDiscFile(name) {
			t.Errorf("IsDiscFile(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"readme.txt", "cover.png", "game.iso.bak", "iso"} {
		if archive.IsDiscFile(name) {
			t.Errorf("IsDiscFile(%q) = true, want false", name)
		}
	}
}

func TestParsePathMember(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/roms/pack.zip", map[string][]byte{"sub/game.iso": []byte("x")})

	p, err := archive.ParsePathFS(fsys, "/roms/pack.zip/sub/game.iso")
	if err != nil {
		t.Fatalf("ParsePathFS: %v", err)
	}
	if p == nil {
		t.Fatal("expected an archive path")
	}
	if p.ArchivePath != "/roms/pack.zip" || p.InternalPath != "sub/game.iso" {
		t.Errorf("parsed %+v", p)
	}
}

func TestParsePathBareArchive(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeZip(t, fsys, "/roms/pack.zip", map[string][]byte{"game.iso": []byte("x")})

	p, err := archive.ParsePathFS(fsys, "/roms/pack.zip")
	if err != nil {
		t.Fatalf("ParsePathFS: %v", err)
	}
	if p == nil || p.ArchivePath != "/roms/pack.zip" || p.InternalPath != "" {
		t.Errorf("parsed %+v", p)
	}
}

func TestParsePathPlainFile(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/roms/game.iso", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := archive.ParsePathFS(fsys, "/roms/game.iso")
	if err != nil {
		t.Fatalf("ParsePathFS: %v", err)
	}
	if p != nil {
		t.Errorf("plain file parsed as archive path: %+v", p)
	}
}

func TestParsePathZipNamedDirectory(t *testing.T) {
	t.Parallel()

	// A directory whose name ends in .zip must not shadow the real file
	// underneath it.
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/saves.zip/game.iso", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := archive.ParsePathFS(fsys, "/saves.zip/game.iso")
	if err != nil {
		t.Fatalf("ParsePathFS: %v", err)
	}
	// MemMapFs stats "/saves.zip" as an existing directory, which is not an
	// archive, so the path is an ordinary file reference. What must not
	// happen is an error from ParsePathFS itself.
	_ = p
}

func TestParsePathMissingArchive(t *testing.T) {
	t.Parallel()

	p, err := archive.ParsePathFS(afero.NewMemMapFs(), "/nowhere/pack.zip/game.iso")
	if err != nil {
		t.Fatalf("ParsePathFS: %v", err)
	}
	if p != nil {
		t.Errorf("missing archive parsed as archive path: %+v", p)
	}
}

func TestIsArchiveExtension(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".zip", ".ZIP", ".7z", ".rar"} {
		if !archive.IsArchiveExtension(ext) {
			t.Errorf("IsArchiveExtension(%q) = false, want true", ext)
		}
	}
	for _, ext := range []string{".tar", ".gz", "zip", ""} {
		if archive.IsArchiveExtension(ext) {
			t.Errorf("IsArchiveExtension(%q) = true, want false", ext)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{archive.FormatError{Format: ".tar"}, `unsupported archive format ".tar"`},
		{archive.NotFoundError{Member: "game.iso"}, `member "game.iso" not found in archive`},
		{archive.NoDiscFileError{Archive: "pack.zip"}, `no disc or executable image found in "pack.zip"`},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("Error() = %q, want %q", got, c.want)
		}
	}
}
