// Package cmd wires the core subsystems (scheduler, watcher, event bus)
// behind the CLI front-end's cobra command tree, in the style of the
// teacher pack's jra3-linear-fuse/internal/cmd (a package-level rootCmd,
// one file per subcommand, init() registering each against it).
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is overwritten at build time via -ldflags, matching the
// teacher pack's linear-fuse version command.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "dirsail",
	Short: "Terminal file manager core driver",
	Long: "dirsail boots the scheduler, filesystem watcher, and event bus for a\n" +
		"single working directory and streams core events to stdout as DDS\n" +
		"lines, for integration testing and scripting against a real core\n" +
		"without a terminal UI attached.",
	RunE: runRoot,
}

// Execute runs the root command, returning any error cobra or runRoot
// produced.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().String("cwd", "", "working directory to start in (default: current directory)")
	rootCmd.Flags().String("cwd-file", "", "write the final working directory to this file on exit")
	rootCmd.Flags().String("chooser-file", "", "write the chosen file's path to this file on exit")
	rootCmd.Flags().String("config", "", "path to a YAML config file")
	rootCmd.Flags().Bool("clear-cache", false, "remove the preview cache directory and exit")
	rootCmd.Flags().BoolP("version", "V", false, "print version information and exit")
}
