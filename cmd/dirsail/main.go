// Command dirsail is the CLI front-end driving the core package (§6,
// §9a): it boots the scheduler, watcher, and event bus for one working
// directory and streams core events to stdout as DDS lines.
package main

import (
	"fmt"
	"os"

	"github.com/dirsail/dirsail/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
