// Command cropctl runs the crop analytics engine offline on JSON files.
package main

import (
	"fmt"
	"os"
)

// Version is injected at build time via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
