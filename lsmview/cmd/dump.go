/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package cmd

import (
	"fmt"
	"io"
	"os"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dgraph-io/lsmview/internal/base"
	"github.com/dgraph-io/lsmview/memtable"
	"github.com/dgraph-io/lsmview/y"
)

var dumpTables bool

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every physical entry of the file in internal key order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDump(os.Stdout, rootOpt.file)
	},
}

func init() {
	RootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().BoolVarP(&dumpTables, "show-tables", "s", false,
		"If set to true, show the layout of the tables as well.")
}

func runDump(w io.Writer, path string) error {
	topts, err := tableOptions()
	if err != nil {
		return err
	}
	levels, err := loadLevels(path, y.BytewiseComparator, topts)
	if err != nil {
		return err
	}

	if dumpTables {
		fmt.Fprintf(w, "Memtable: %d entries, %s\n", levels.Mem.Len(),
			humanize.IBytes(uint64(levels.Mem.Size())))
		for i, t := range levels.Tables {
			fmt.Fprintf(w, "Table %d (id %d): %d entries in %d blocks, %s [%s, %s]\n",
				i+1, t.ID(), t.NumEntries(), t.NumBlocks(), humanize.IBytes(uint64(t.Size())),
				base.FormatInternalKey(t.Smallest()), base.FormatInternalKey(t.Biggest()))
		}
		fmt.Fprintln(w)
	}

	it := levels.NewIterator(y.BytewiseComparator)
	defer func() { _ = it.Close() }()
	n, err := it.GetProperty(memtable.PropertyNumEntries)
	if err == nil {
		fmt.Fprintf(w, "Memtable entries: %s\n", n)
	}
	for it.SeekToFirst(); it.Valid(); it.Next() {
		e := base.Entry{Key: base.DecodeInternalKey(it.Key()), Value: it.Value()}
		fmt.Fprintln(w, e)
	}
	return errors.Wrap(it.Status(), "while dumping")
}
