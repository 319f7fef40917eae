// Command ya is the companion CLI speaking the DDS wire protocol (§6,
// §9a): emit broadcasts an ephemeral message, pub broadcasts one that the
// server persists to its state table, and sub prints every message it
// receives until interrupted.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dirsail/dirsail/dds"
)

var socketAddr string

var rootCmd = &cobra.Command{
	Use:   "ya",
	Short: "Talk to a running dirsail core over the DDS wire protocol",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&socketAddr, "socket", defaultSocketAddr(), "DDS server address")
	rootCmd.AddCommand(emitCmd, pubCmd, subCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultSocketAddr() string {
	if dds.DefaultNetwork() == "tcp" {
		return "127.0.0.1:6622"
	}
	return os.TempDir() + "/dirsail.sock"
}

func dial() (*dds.Client, error) {
	return dds.Dial(dds.DefaultNetwork(), socketAddr)
}
