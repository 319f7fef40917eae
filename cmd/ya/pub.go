package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirsail/dirsail/dds"
)

var pubReceiver uint64

var pubCmd = &cobra.Command{
	Use:   "pub <kind> <value>",
	Short: "Broadcast a message and persist it to the server's state table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Pub(args[0], pubReceiver, args[1]); err != nil {
			return fmt.Errorf("ya pub: %w", err)
		}
		return nil
	},
}

func init() {
	pubCmd.Flags().Uint64Var(&pubReceiver, "to", dds.Broadcast, "receiver peer id (0 = broadcast)")
}
