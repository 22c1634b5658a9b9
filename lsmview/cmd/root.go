/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dgraph-io/lsmview/internal/base"
	"github.com/dgraph-io/lsmview/options"
	"github.com/dgraph-io/lsmview/y"
)

type rootOptions struct {
	file        string
	blockSize   int
	compression string
	cacheSize   int64
}

var rootOpt rootOptions

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:               "lsmview",
	Short:             "Tools to inspect the logical view of multi-versioned entries.",
	PersistentPreRunE: validateRootCmdArgs,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&rootOpt.file, "file", "f", "",
		"File with the entries to load, one level per section separated by ---. (required)")
	RootCmd.PersistentFlags().IntVar(&rootOpt.blockSize, "block-size", 4<<10,
		"Size of the blocks of the tables built from the file.")
	RootCmd.PersistentFlags().StringVar(&rootOpt.compression, "compression", "snappy",
		"Compression of table blocks: none, snappy or zstd.")
	RootCmd.PersistentFlags().Int64Var(&rootOpt.cacheSize, "block-cache", 0,
		"Size of the block cache in bytes. Zero disables it.")
}

func validateRootCmdArgs(cmd *cobra.Command, args []string) error {
	if strings.HasPrefix(cmd.Use, "help ") { // No need to validate if it is help
		return nil
	}
	if rootOpt.file == "" {
		return errors.New("--file not specified")
	}
	if rootOpt.blockSize <= 0 {
		return errors.New("--block-size should be positive")
	}
	if _, err := parseCompression(rootOpt.compression); err != nil {
		return err
	}
	return nil
}

func parseCompression(s string) (options.CompressionType, error) {
	switch strings.ToLower(s) {
	case "none":
		return options.None, nil
	case "snappy":
		return options.Snappy, nil
	case "zstd":
		return options.ZSTD, nil
	}
	return options.None, errors.Errorf("invalid --compression %q", s)
}

func tableOptions() (options.TableOptions, error) {
	c, err := parseCompression(rootOpt.compression)
	if err != nil {
		return options.TableOptions{}, err
	}
	topts := options.DefaultTableOptions().
		WithBlockSize(rootOpt.blockSize).
		WithCompression(c)
	if rootOpt.cacheSize > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: rootOpt.cacheSize / 64,
			MaxCost:     rootOpt.cacheSize,
			BufferItems: 64,
		})
		if err != nil {
			return options.TableOptions{}, errors.Wrap(err, "while creating block cache")
		}
		topts = topts.WithBlockCache(cache)
	}
	return topts, nil
}

// loadLevels reads the entries file and builds a memtable and tables from it.
func loadLevels(path string, cmp y.Comparator, topts options.TableOptions) (*base.Levels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "while reading %s", path)
	}
	levels, err := base.ParseEntries(string(data), cmp)
	if err != nil {
		return nil, errors.Wrapf(err, "while parsing %s", path)
	}
	return base.BuildLevels(levels, cmp, topts)
}
