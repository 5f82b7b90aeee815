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

// Command dol_dump prints the structure of a GameCube/Wii .dol executable.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zaparoo-fmt/gcbin"
	"github.com/zaparoo-fmt/gcbin/dol"
	"github.com/zaparoo-fmt/gcbin/internal/dumputil"
)

var (
	flagHeader  bool
	flagData    bool
	flagAll     bool
	flagWidth   int
	flagExtract string
)

var rootCmd = &cobra.Command{
	Use:   "dol_dump PATH",
	Short: "Dump the structure of a .dol executable",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().BoolVar(&flagHeader, "header", false, "print the section/entrypoint header")
	rootCmd.Flags().BoolVar(&flagData, "data", false, "hex-dump each section's contents")
	rootCmd.Flags().BoolVar(&flagAll, "all", false, "print everything")
	rootCmd.Flags().IntVar(&flagWidth, "width", 16, "bytes per row in hex dumps")
	rootCmd.Flags().StringVar(&flagExtract, "extract", "", "extract a section by name to this path")
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

	d, err := dol.Parse(p)
	if err != nil {
		return err
	}

	showHeader := flagHeader || flagAll
	showData := flagData || flagAll
	if !showHeader && !showData && flagExtract == "" {
		showHeader = true
	}

	if showHeader {
		fmt.Printf("entrypoint: %#08x\n", d.Header.Entrypoint)
		fmt.Printf("bss: address=%#08x size=%#x\n", d.Header.BSSAddress, d.Header.BSSSize)
		fmt.Printf("rom_copy_info: %d entries\n", len(d.RomCopyInfo))
		fmt.Printf("bss_init_info: %d entries\n", len(d.BSSInitInfo))
		fmt.Println("sections:")
		for _, s := range d.Sections {
			fmt.Printf("  %-12s kind=%-4s address=%#08x size=%#-8x aligned=%#x\n",
				s.Name, s.Kind, s.Address, s.Size, s.AlignedSize)
		}
	}

	if showData {
		for _, s := range d.Sections {
			if s.Kind == dol.SectionBSS {
				continue
			}
			fmt.Printf("--- %s (%d bytes) ---\n", s.Name, len(s.Data))
			dumputil.HexDump(os.Stdout, s.Data, flagWidth)
		}
	}

	if flagExtract != "" {
		for _, s := range d.Sections {
			if s.Name == flagExtract {
				return os.WriteFile(flagExtract, s.Data, 0o644)
			}
		}
		return fmt.Errorf("no section named %q", flagExtract)
	}

	return nil
}
