/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec
	"os"

	"github.com/dgraph-io/ristretto/z"
	"github.com/dustin/go-humanize"
	"go.opencensus.io/zpages"
	_ "golang.org/x/net/trace"

	"github.com/dgraph-io/lsmview/lsmview/cmd"
)

func main() {
	if addr := os.Getenv("LSMVIEW_DEBUG_ADDR"); addr != "" {
		zpages.Handle(nil, "/z")
		go func() {
			fmt.Printf("Listening for /debug HTTP requests at: %s\n", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				fmt.Printf("Debug server stopped: %v\n", err)
			}
		}()
	}

	cmd.Execute()
	if z.NumAllocBytes() > 0 {
		fmt.Printf("Num Allocated Bytes at program end: %s\n",
			humanize.IBytes(uint64(z.NumAllocBytes())))
		fmt.Println(z.Leaks())
	}
}
