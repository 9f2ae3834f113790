// File: cmd/forkjoin/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// forkjoin runs range reductions and pool affinity checks from the command
// line.

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
