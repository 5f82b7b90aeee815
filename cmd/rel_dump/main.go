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

// Command rel_dump prints the structure of a GameCube/Wii .rel relocatable
// module.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zaparoo-fmt/gcbin"
	"github.com/zaparoo-fmt/gcbin/internal/dumputil"
	"github.com/zaparoo-fmt/gcbin/rel"
)

var (
	flagHeader      bool
	flagSections    bool
	flagImports     bool
	flagRelocations bool
	flagData        bool
	flagAll         bool
	flagWidth       int
	flagExtract     string
)

var rootCmd = &cobra.Command{
	Use:   "rel_dump PATH",
	Short: "Dump the structure of a .rel relocatable module",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().BoolVar(&flagHeader, "header", false, "print the module header")
	rootCmd.Flags().BoolVar(&flagSections, "sections", false, "print the section table")
	rootCmd.Flags().BoolVar(&flagImports, "imports", false, "print the import tables")
	rootCmd.Flags().BoolVar(&flagRelocations, "relocations", false, "print every resolved relocation")
	rootCmd.Flags().BoolVar(&flagData, "data", false, "hex-dump each section's contents")
	rootCmd.Flags().BoolVar(&flagAll, "all", false, "print everything")
	rootCmd.Flags().IntVar(&flagWidth, "width", 16, "bytes per row in hex dumps")
	rootCmd.Flags().StringVar(&flagExtract, "extract", "", "extract a section by index (e.g. \"2\") to this path")
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

	r, err := rel.Parse(p)
	if err != nil {
		return err
	}

	showHeader := flagHeader || flagAll
	showSections := flagSections || flagAll
	showImports := flagImports || flagAll
	showRelocations := flagRelocations || flagAll
	showData := flagData || flagAll
	if !showHeader && !showSections && !showImports && !showRelocations && !showData && flagExtract == "" {
		showHeader = true
	}

	if showHeader {
		fmt.Printf("module: %d\n", r.Module)
		fmt.Printf("version: %d\n", r.Version)
		fmt.Printf("name: offset=%#x size=%d\n", r.NameOffset, r.NameSize)
		fmt.Printf("alignment: %d bss_alignment: %d fix_size: %#x\n", r.Alignment, r.BSSAlignment, r.FixSize)
		if r.Prolog != nil {
			fmt.Printf("prolog: section=%d offset=%#x\n", r.Prolog.Section, r.Prolog.Offset)
		}
		if r.Epilog != nil {
			fmt.Printf("epilog: section=%d offset=%#x\n", r.Epilog.Section, r.Epilog.Offset)
		}
		if r.Unresolved != nil {
			fmt.Printf("unresolved: section=%d offset=%#x\n", r.Unresolved.Section, r.Unresolved.Offset)
		}
	}

	if showSections {
		fmt.Println("sections:")
		for i, s := range r.Sections {
			fmt.Printf("  [%d] offset=%#08x size=%#-8x executable=%v unknown=%v\n",
				i, s.Offset, s.Size, s.Executable, s.Unknown)
		}
	}

	if showImports {
		fmt.Println("import tables:")
		for _, t := range r.ImportTables {
			fmt.Printf("  module %d (offset %#x): %d imports\n", t.Module, t.Offset, len(t.Imports))
			for _, imp := range t.Imports {
				fmt.Printf("    kind=%d section=%d offset=%#04x addend=%#x\n", imp.Kind, imp.Section, imp.Offset, imp.Addend)
			}
		}
	}

	if showRelocations {
		fmt.Println("relocations:")
		it := r.Relocations()
		for it.Next() {
			rl := it.Relocation()
			fmt.Printf("  kind=%d module=%d ref=%d:%#x -> target=%d:%#x\n",
				rl.Kind, rl.Module, rl.Reference.Section, rl.Reference.Offset, rl.Target.Section, rl.Target.Offset)
		}
	}

	if showData {
		for i, s := range r.Sections {
			if s.Data == nil {
				continue
			}
			fmt.Printf("--- section %d (%d bytes) ---\n", i, len(s.Data))
			dumputil.HexDump(os.Stdout, s.Data, flagWidth)
		}
	}

	if flagExtract != "" {
		idx := -1
		if _, err := fmt.Sscanf(flagExtract, "%d", &idx); err != nil || idx < 0 || idx >= len(r.Sections) {
			return fmt.Errorf("invalid section index %q", flagExtract)
		}
		return os.WriteFile(flagExtract, r.Sections[idx].Data, 0o644)
	}

	return nil
}
