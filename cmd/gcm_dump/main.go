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

// Command gcm_dump prints the structure of a GameCube/Wii disc image.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zaparoo-fmt/gcbin"
	"github.com/zaparoo-fmt/gcbin/gcm"
)

var (
	flagHeader  bool
	flagTree    bool
	flagAll     bool
	flagExtract string
)

var rootCmd = &cobra.Command{
	Use:   "gcm_dump PATH",
	Short: "Dump the structure of a GameCube/Wii disc image",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().BoolVar(&flagHeader, "header", false, "print the boot header and boot info block")
	rootCmd.Flags().BoolVar(&flagTree, "tree", false, "print the file system tree")
	rootCmd.Flags().BoolVar(&flagAll, "all", false, "print everything")
	rootCmd.Flags().StringVar(&flagExtract, "extract", "", "extract a file by its FST path to a local file of the same name")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	p, closer, err := gcbin.Open(args[0])
	if err != nil {
		return err
	}
	defer closer.Close()

	img, err := gcm.Open(p)
	if err != nil {
		return err
	}

	showHeader := flagHeader || flagAll
	showTree := flagTree || flagAll
	if !showHeader && !showTree && flagExtract == "" {
		showHeader = true
	}

	if showHeader {
		fmt.Printf("game: %s%s region=%c version=%d\n",
			string(img.Boot.GameCode[:]), string(img.Boot.MakerCode[:]), img.Boot.CountryCode, img.Boot.Version)
		fmt.Printf("name: %s\n", img.Boot.GameName)
		fmt.Printf("valid magic: %v\n", img.Boot.IsValid())
		fmt.Printf("main executable offset: %#x\n", img.Boot.MainExecutableOffset)
		fmt.Printf("fst: offset=%#x size=%#x max_size=%#x\n", img.Boot.FSTOffset, img.Boot.FSTSize, img.Boot.FSTMaxSize)
		if v, ok := img.Bi2.Get(gcm.DebugFlag); ok {
			fmt.Printf("bi2 debug flag: %d\n", v)
		}
		fmt.Printf("apploader date: %s entry=%#x size=%#x\n", img.Apploader.Date, img.Apploader.EntryPoint, img.Apploader.Size)
	}

	var entryPaths []string
	if showTree || flagExtract != "" {
		entryPaths = fstPaths(img.FST)
	}

	if showTree {
		for i, entry := range img.FST.Entries {
			indicator := "f"
			if entry.Kind == gcm.FSTDirectory {
				indicator = "d"
			}
			fmt.Printf("  [%s] %s", indicator, entryPaths[i])
			if entry.Kind == gcm.FSTFile {
				fmt.Printf(" (offset=%#x size=%#x)", entry.Offset, entry.Size)
			}
			fmt.Println()
		}
	}

	if flagExtract != "" {
		for i, entry := range img.FST.Entries {
			if entry.Kind == gcm.FSTFile && entryPaths[i] == flagExtract {
				if err := p.Seek(int64(entry.Offset)); err != nil {
					return err
				}
				data, err := p.ReadN(int(entry.Size))
				if err != nil {
					return err
				}
				return os.WriteFile(entry.Name, data, 0o644)
			}
		}
		return fmt.Errorf("no file %q in file system table", flagExtract)
	}

	return nil
}

// fstPaths reconstructs each entry's full slash-separated path from its
// flattened, depth-first position in the table: a directory's Begin/End
// span identifies every entry nested under it. FST.Entries excludes the
// synthetic root, so a top-level entry's path is just its own name.
func fstPaths(fst *gcm.FST) []string {
	paths := make([]string, len(fst.Entries))
	var stack []string // directory name stack, one per open nesting level
	var ends []uint32  // End index at which to pop each stack level

	for i, entry := range fst.Entries {
		for len(ends) > 0 && uint32(i) >= ends[len(ends)-1] {
			stack = stack[:len(stack)-1]
			ends = ends[:len(ends)-1]
		}

		prefix := ""
		if len(stack) > 0 {
			prefix = stack[len(stack)-1] + "/"
		}
		paths[i] = prefix + entry.Name

		if entry.Kind == gcm.FSTDirectory {
			stack = append(stack, paths[i])
			ends = append(ends, entry.End)
		}
	}

	return paths
}
