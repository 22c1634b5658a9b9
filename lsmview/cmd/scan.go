/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash"
	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/net/trace"

	"github.com/dgraph-io/lsmview"
	"github.com/dgraph-io/lsmview/y"
)

type scanOptions struct {
	snapshot   uint64
	upperBound string
	prefixLen  int
	reverse    bool
	seek       string
	maxSkip    uint64
	merge      string
	mergeDelim string
	pin        bool
	showStats  bool
}

var scanOpt scanOptions

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Print the live keys and values of the file at a snapshot.",
	Long: `
This command resolves every version of every key in the file, the way a read at
the given snapshot sees them, and prints one key=value line per live key.
`,
	RunE: handleScan,
}

func init() {
	RootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Uint64Var(&scanOpt.snapshot, "snapshot", y.MaxSequenceNumber,
		"Read at this sequence number.")
	scanCmd.Flags().StringVar(&scanOpt.upperBound, "upper-bound", "",
		"Exclusive upper bound on keys.")
	scanCmd.Flags().IntVar(&scanOpt.prefixLen, "prefix-len", 0,
		"Stay within the first prefix-len bytes of the starting key. Zero disables it.")
	scanCmd.Flags().BoolVar(&scanOpt.reverse, "reverse", false, "Scan from the largest key down.")
	scanCmd.Flags().StringVar(&scanOpt.seek, "seek", "", "Start at the first key >= seek.")
	scanCmd.Flags().Uint64Var(&scanOpt.maxSkip, "max-skip", 8,
		"Versions of one key stepped over before seeking past them.")
	scanCmd.Flags().StringVar(&scanOpt.merge, "merge", "append",
		"Merge operator: none, append or add.")
	scanCmd.Flags().StringVar(&scanOpt.mergeDelim, "merge-delim", "",
		"Separator used by the append merge operator.")
	scanCmd.Flags().BoolVar(&scanOpt.pin, "pin", false, "Pin the source while scanning.")
	scanCmd.Flags().BoolVar(&scanOpt.showStats, "stats", false, "Print iterator counters.")
}

func handleScan(cmd *cobra.Command, args []string) error {
	return runScan(os.Stdout, rootOpt.file, scanOpt)
}

func (o scanOptions) iteratorOptions() (lsmview.IteratorOptions, error) {
	opts := lsmview.DefaultIteratorOptions().
		WithSnapshot(o.snapshot).
		WithMaxSequentialSkip(o.maxSkip).
		WithPinData(o.pin)
	if o.upperBound != "" {
		opts = opts.WithUpperBound([]byte(o.upperBound))
	}
	if o.prefixLen > 0 {
		opts = opts.WithPrefixSameAsStart(y.FixedPrefix(o.prefixLen))
	}
	switch o.merge {
	case "none":
	case "append":
		opts = opts.WithMergeOperator(lsmview.StringAppendOperator([]byte(o.mergeDelim)))
	case "add":
		opts = opts.WithMergeOperator(lsmview.Uint64AddOperator)
	default:
		return opts, errors.Errorf("invalid --merge %q", o.merge)
	}
	return opts, nil
}

func runScan(w io.Writer, path string, o scanOptions) error {
	opts, err := o.iteratorOptions()
	if err != nil {
		return err
	}
	topts, err := tableOptions()
	if err != nil {
		return err
	}
	levels, err := loadLevels(path, opts.Comparator, topts)
	if err != nil {
		return err
	}
	stats := lsmview.NewStatistics("lsmview_scan")
	stats.Reset()
	elog := trace.NewEventLog("lsmview.Scan", path)
	defer elog.Finish()
	opts = opts.WithStatistics(stats).WithEventLog(elog)

	it, err := lsmview.NewIterator(levels.NewIterator(opts.Comparator), opts)
	if err != nil {
		return err
	}
	defer func() { _ = it.Close() }()

	start := time.Now()
	h := xxhash.New()
	var count, size int
	step := it.Next
	switch {
	case o.seek != "":
		it.Seek([]byte(o.seek))
	case o.reverse:
		it.SeekToLast()
	default:
		it.SeekToFirst()
	}
	if o.reverse {
		step = it.Prev
	}
	for ; it.Valid(); step() {
		k, v := it.Key(), it.Value()
		fmt.Fprintf(w, "%s=%s\n", k, v)
		_, _ = h.Write(k)
		_, _ = h.Write(v)
		count++
		size += len(k) + len(v)
	}
	if err := it.Status(); err != nil {
		return errors.Wrap(err, "while scanning")
	}

	fmt.Fprintf(w, "\n[%s] Scanned %d keys out of %d entries. Size: %s. Fingerprint: %016x\n",
		time.Since(start).Round(time.Millisecond), count, levels.NumEntries(),
		humanize.IBytes(uint64(size)), h.Sum64())
	if o.showStats {
		fmt.Fprint(w, stats.String())
	}
	return nil
}
