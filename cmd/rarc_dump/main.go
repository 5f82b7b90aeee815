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

// Command rarc_dump prints the directory tree of a RARC archive.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zaparoo-fmt/gcbin"
	"github.com/zaparoo-fmt/gcbin/rarc"
)

var (
	flagTree    bool
	flagAll     bool
	flagExtract string
)

var rootCmd = &cobra.Command{
	Use:   "rarc_dump PATH",
	Short: "Dump the directory tree of a RARC archive",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().BoolVar(&flagTree, "tree", false, "print the directory tree")
	rootCmd.Flags().BoolVar(&flagAll, "all", false, "print everything")
	rootCmd.Flags().StringVar(&flagExtract, "extract", "", "extract a file by its archive path to a local file of the same name")
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

	r, err := rarc.Open(p)
	if err != nil {
		return err
	}

	showTree := flagTree || flagAll || flagExtract == ""

	var path []string
	depth := 0
	it := r.Nodes()
	for it.Next() {
		n := it.Node()
		switch n.Kind {
		case rarc.DirectoryBegin:
			if showTree {
				fmt.Printf("%s%s/\n", strings.Repeat("  ", depth), n.Name.Name)
			}
			path = append(path, n.Name.Name)
			depth++
		case rarc.DirectoryEnd:
			depth--
			path = path[:len(path)-1]
		case rarc.File:
			if showTree {
				fmt.Printf("%s%s (%d bytes)\n", strings.Repeat("  ", depth), n.Name.Name, n.Size)
			}
			if flagExtract != "" && strings.Join(append(path, n.Name.Name), "/") == flagExtract {
				data, err := r.FileData(n.Offset, n.Size)
				if err != nil {
					return err
				}
				return os.WriteFile(n.Name.Name, data, 0o644)
			}
		case rarc.CurrentDirectory, rarc.ParentDirectory:
			// Pseudo-entries; nothing to print or extract.
		}
	}
	if err := it.Err(); err != nil {
		return err
	}

	if flagExtract != "" {
		return fmt.Errorf("no file %q in archive", flagExtract)
	}

	return nil
}
